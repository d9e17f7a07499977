package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the solver proxy routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/run", h.HandleRun)
	r.Post("/etl", h.HandleETL)
	r.Get("/etl", h.HandleETLHint)
}
