package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/snake-server/internal/domain"
)

const highScoresCacheKey = "high_scores"

// StartGame creates a new active session for the authenticated user.
// Any previous active session is deactivated first.
func (h *Handler) StartGame(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	game, err := h.games.Start(r.Context(), user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    game,
	})
}

// UpdateGame stores a new snapshot of an active session's state
func (h *Handler) UpdateGame(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	gameID, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
	if err != nil || gameID <= 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if max := h.config.Game.MaxGameDataBytes; max > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, int64(max))
	}

	var req domain.UpdateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	game, err := h.games.Update(r.Context(), gameID, user.ID, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if !game.IsActive {
		h.invalidateHighScores(r)
	}

	h.writeSuccess(w, game)
}

// EndGame finalizes an active session and records its score
func (h *Handler) EndGame(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	gameID, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
	if err != nil || gameID <= 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	game, err := h.games.End(r.Context(), gameID, user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.invalidateHighScores(r)
	h.writeSuccess(w, game)
}

// HighScores returns the top of the leaderboard. Responses are cached
// briefly since the board only changes when a game ends.
func (h *Handler) HighScores(w http.ResponseWriter, r *http.Request) {
	var entries []domain.LeaderboardEntry

	found, err := h.cache.GetJSON(r.Context(), highScoresCacheKey, &entries)
	if err != nil {
		h.logger.Warn("high score cache read failed", "error", err)
	}

	if !found {
		entries, err = h.scores.Top(r.Context(), h.config.Game.TopScores)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		if err := h.cache.SetJSON(r.Context(), highScoresCacheKey, entries, h.config.Game.HighScoreCache); err != nil {
			h.logger.Warn("high score cache write failed", "error", err)
		}
	}

	h.writeSuccess(w, selectFields(entries, leaderboardFields, requestedFields(r)))
}

// MySummary returns the authenticated user's aggregate stats
func (h *Handler) MySummary(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	summary, err := h.games.Summary(r.Context(), user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, selectFields(summary, summaryFields, requestedFields(r)))
}

// GenerateFood returns a random food cell inside the grid
func (h *Handler) GenerateFood(w http.ResponseWriter, r *http.Request) {
	food := h.games.GenerateFood()
	h.writeSuccess(w, map[string]interface{}{"food": food})
}

func (h *Handler) invalidateHighScores(r *http.Request) {
	if err := h.cache.Invalidate(r.Context(), highScoresCacheKey); err != nil {
		h.logger.Warn("high score cache invalidation failed", "error", err)
	}
}
