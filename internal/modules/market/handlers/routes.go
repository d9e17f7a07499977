package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the market commentary route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/comment", h.HandleGetComment)
}
