package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the lot read routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/lotes", h.HandleGetLotes)
	r.Get("/pilas", h.HandleGetPilas)
	r.Get("/unused", h.HandleGetUnused)
	r.Get("/zones", h.HandleGetZones)
}
