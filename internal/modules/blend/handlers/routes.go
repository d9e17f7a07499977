package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the workspace review routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/workspace/reload", h.HandleReload)
	r.Get("/workspace/view/{view}", h.HandleView)
	r.Post("/workspace/select", h.HandleSelect)
	r.Post("/workspace/move", h.HandleMove)
}
