package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/mvdops/blendboard/internal/modules/blend"
	"github.com/mvdops/blendboard/internal/modules/exports"
)

// Handler renders the current workspace state into downloadable documents.
type Handler struct {
	ws      *blend.Workspace
	dataDir string
	log     zerolog.Logger
}

// NewHandler creates a new exports handler. dataDir may hold an
// export_logo.png to render in the PDF header; empty disables the lookup.
func NewHandler(ws *blend.Workspace, dataDir string, log zerolog.Logger) *Handler {
	return &Handler{
		ws:      ws,
		dataDir: dataDir,
		log:     log.With().Str("handler", "exports").Logger(),
	}
}

// HandleExportPDF handles POST /api/export/pdf?which=1..4
func (h *Handler) HandleExportPDF(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.buildDoc(w, r)
	if !ok {
		return
	}
	data, err := exports.RenderPDF(doc)
	if err != nil {
		h.log.Error().Err(err).Msg("PDF render failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	serveFile(w, doc.Filename+".pdf", "application/pdf", data)
}

// HandleExportExcel handles POST /api/export/excel?which=1..4
func (h *Handler) HandleExportExcel(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.buildDoc(w, r)
	if !ok {
		return
	}
	data, err := exports.RenderExcel(doc)
	if err != nil {
		h.log.Error().Err(err).Msg("Excel render failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	serveFile(w, doc.Filename+".xlsx",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *Handler) buildDoc(w http.ResponseWriter, r *http.Request) (exports.Doc, bool) {
	which, err := strconv.Atoi(r.URL.Query().Get("which"))
	if err != nil || which < 1 || which > 4 {
		writeError(w, http.StatusBadRequest, "which must be 1-4")
		return exports.Doc{}, false
	}
	ev, err := h.ws.ExportData(which)
	if err != nil {
		// Nothing included: refuse rather than produce an empty document.
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return exports.Doc{}, false
	}
	doc := exports.Build(ev)
	if h.dataDir != "" {
		doc.LogoPath = filepath.Join(h.dataDir, "export_logo.png")
	}
	return doc, true
}

func serveFile(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
