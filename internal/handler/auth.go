package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/snake-server/internal/domain"
)

// authPayload is the response body for register, login and google login
type authPayload struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Register handles account creation
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	user, token, err := h.auth.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    authPayload{Token: token.Token, User: user},
	})
}

// Login handles username and password authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	user, token, err := h.auth.Login(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, authPayload{Token: token.Token, User: user})
}

// GoogleLogin handles sign-in with a Google ID token
func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.GoogleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	idToken := req.IDToken()
	if idToken == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	user, token, err := h.auth.GoogleLogin(r.Context(), idToken)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, authPayload{Token: token.Token, User: user})
}

// Logout invalidates the user's tokens and marks them offline
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	if err := h.auth.Logout(r.Context(), user.ID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, map[string]string{"status": "logged_out"})
}

// GetProfile returns the authenticated user's profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	profile, err := h.auth.GetProfile(r.Context(), user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, selectFields(profile, userFields, requestedFields(r)))
}

// UpdateProfile applies a partial update to the authenticated user's
// profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var update domain.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	profile, err := h.auth.UpdateProfile(r.Context(), user.ID, update)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeSuccess(w, profile)
}

// GetUserProfile returns another user's public profile
func (h *Handler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	profile, err := h.auth.GetProfile(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	// Email stays private on other users' profiles
	if viewer := currentUser(r); viewer == nil || viewer.ID != profile.ID {
		profile.Email = ""
	}

	h.writeSuccess(w, selectFields(profile, userFields, requestedFields(r)))
}

// ListUsers returns all users ordered by best score
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	for i := range users {
		users[i].Email = ""
	}

	h.writeSuccess(w, selectFields(users, userFields, requestedFields(r)))
}
