package handler

import (
	"encoding/json"
	"net/http"

	"github.com/snake-server/internal/domain"
)

const onlinePlayersCacheKey = "online_players"

// ListOnlinePlayers returns everyone with a fresh heartbeat. Unauthenticated
// callers get an empty list rather than a rejection so public pages can
// poll it.
func (h *Handler) ListOnlinePlayers(w http.ResponseWriter, r *http.Request) {
	if h.optionalUser(r) == nil {
		h.writeSuccess(w, []domain.OnlinePlayer{})
		return
	}

	var players []domain.OnlinePlayer

	found, err := h.cache.GetJSON(r.Context(), onlinePlayersCacheKey, &players)
	if err != nil {
		h.logger.Warn("online players cache read failed", "error", err)
	}

	if !found {
		players, err = h.presence.ListOnline(r.Context())
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		if err := h.cache.SetJSON(r.Context(), onlinePlayersCacheKey, players, h.config.Game.OnlineListCache); err != nil {
			h.logger.Warn("online players cache write failed", "error", err)
		}
	}

	h.writeSuccess(w, selectFields(players, onlinePlayerFields, requestedFields(r)))
}

// Ping records a presence heartbeat for the authenticated user
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req domain.PingRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
			return
		}
	}

	if err := h.presence.Heartbeat(r.Context(), user.ID, req.CurrentGameID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, map[string]string{"status": "ok"})
}
