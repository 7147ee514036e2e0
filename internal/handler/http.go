package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/snake-server/internal/config"
	"github.com/snake-server/internal/domain"
	"github.com/snake-server/internal/redis"
	"github.com/snake-server/internal/service"
	"github.com/snake-server/internal/websocket"
)

// Handler provides HTTP handlers for the game API
type Handler struct {
	auth     *service.AuthService
	games    *service.GameService
	scores   *service.ScoreService
	presence *service.PresenceService
	hub      *websocket.Hub
	cache    *redis.Cache
	config   *config.Config
	logger   *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	auth *service.AuthService,
	games *service.GameService,
	scores *service.ScoreService,
	presence *service.PresenceService,
	hub *websocket.Hub,
	cache *redis.Cache,
	cfg *config.Config,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		auth:     auth,
		games:    games,
		scores:   scores,
		presence: presence,
		hub:      hub,
		cache:    cache,
		config:   cfg,
		logger:   logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Field   string      `json:"field,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.Get("/ws", h.HandleWebSocket)
	r.Get("/ws/stats", h.GetWebSocketStats)

	// Authentication
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/google", h.GoogleLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Post("/logout", h.Logout)
			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.UpdateProfile)
		})
	})

	// Profile views of other accounts
	r.With(h.RequireAuth).Get("/profile/{userID}", h.GetUserProfile)
	r.With(h.RequireAuth).Get("/users", h.ListUsers)

	// Presence
	r.Get("/online-players", h.ListOnlinePlayers)
	r.With(h.RequireAuth).Post("/ping", h.Ping)

	// Game sessions
	r.Route("/games", func(r chi.Router) {
		r.Get("/high_scores", h.HighScores)
		r.Get("/generate_food", h.GenerateFood)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Post("/start_game", h.StartGame)
			r.Get("/me_summary", h.MySummary)
			r.Post("/{gameID}/update_game", h.UpdateGame)
			r.Post("/{gameID}/end_game", h.EndGame)
		})
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	resp := APIResponse{
		Success: false,
		Error:   err.Error(),
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		resp.Error = ve.Message
		resp.Field = ve.Field
	}
	h.writeJSON(w, status, resp)
}

// writeServiceError maps service errors onto HTTP status codes
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		h.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrGoogleTokenInvalid):
		h.writeError(w, http.StatusUnauthorized, err)
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, err)
	case domain.IsConflictError(err):
		h.writeError(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrInvalidRequest):
		h.writeError(w, http.StatusBadRequest, err)
	default:
		h.logger.Error("internal error", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"total_connections":       h.hub.GetTotalConnections(),
		"leaderboard_subscribers": h.hub.GetSubscriberCount(websocket.ChannelLeaderboard),
		"presence_subscribers":    h.hub.GetSubscriberCount(websocket.ChannelPresence),
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "ready"})
}
