package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mvdops/blendboard/internal/modules/blend"
)

// Handler exposes the workspace review API: reload, view, select, move.
type Handler struct {
	ws  *blend.Workspace
	log zerolog.Logger
}

// NewHandler creates a new workspace handler.
func NewHandler(ws *blend.Workspace, log zerolog.Logger) *Handler {
	return &Handler{
		ws:  ws,
		log: log.With().Str("handler", "workspace").Logger(),
	}
}

// HandleReload handles POST /api/workspace/reload
func (h *Handler) HandleReload(w http.ResponseWriter, r *http.Request) {
	if err := h.ws.Reload(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Workspace reload failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"loaded_at": h.ws.LoadedAt(),
	})
}

// HandleView handles GET /api/workspace/view/{view}
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	which, err := strconv.Atoi(chi.URLParam(r, "view"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "view must be 1-4")
		return
	}
	resp, err := h.ws.View(which)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type selectRequest struct {
	View     int    `json:"view"`
	Key      string `json:"key"`
	Unused   bool   `json:"unused"`
	Included bool   `json:"included"`
}

// HandleSelect handles POST /api/workspace/select
func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.ws.Select(req.View, req.Key, req.Unused, req.Included); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type moveRequest struct {
	View int            `json:"view"`
	Key  string         `json:"key"`
	To   blend.Location `json:"to"`
}

// HandleMove handles POST /api/workspace/move
func (h *Handler) HandleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.ws.Move(req.View, req.Key, req.To); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := h.ws.View(req.View)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
