package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mvdops/blendboard/internal/modules/auth"
)

// Handler serves login and logout.
type Handler struct {
	state *auth.State
	log   zerolog.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(state *auth.State, log zerolog.Logger) *Handler {
	return &Handler{
		state: state,
		log:   log.With().Str("handler", "auth").Logger(),
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

// HandleLogin handles POST /api/auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.state.Enabled() {
		writeJSON(w, http.StatusOK, map[string]any{"token": "", "auth_disabled": true})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	token, ok := h.state.Login(req.Password)
	if !ok {
		h.log.Warn().Msg("Failed login attempt")
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// HandleLogout handles POST /api/auth/logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.state.Logout(r.Header.Get(auth.TokenHeader))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
