package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the document export routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/export/pdf", h.HandleExportPDF)
	r.Post("/export/excel", h.HandleExportExcel)
}
