package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mvdops/blendboard/internal/clients/runner"
	"github.com/mvdops/blendboard/internal/modules/solver"
)

// Runner is the slice of the runner client the proxy needs.
type Runner interface {
	Configured() bool
	Run(ctx context.Context, payload any) (*runner.Response, error)
	ETL(ctx context.Context, payload any) (*runner.Response, error)
}

// Handler proxies solver and ETL runs to the external runner.
type Handler struct {
	runner Runner
	log    zerolog.Logger
}

// NewHandler creates a new solver handler.
func NewHandler(r Runner, log zerolog.Logger) *Handler {
	return &Handler{
		runner: r,
		log:    log.With().Str("handler", "solver").Logger(),
	}
}

// HandleRun handles POST /api/run: build the payload from the form params
// and forward it, passing the runner's status and JSON body straight back.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if !h.runner.Configured() {
		writeError(w, http.StatusServiceUnavailable, "RUNNER_URL is not configured")
		return
	}

	var params solver.RunParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	payload := solver.BuildPayload(params)

	resp, err := h.runner.Run(r.Context(), payload)
	if err != nil {
		h.log.Error().Err(err).Msg("Runner call failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	passthrough(w, resp)
}

// HandleETL handles POST /api/etl: verbatim body passthrough.
func (h *Handler) HandleETL(w http.ResponseWriter, r *http.Request) {
	if !h.runner.Configured() {
		writeError(w, http.StatusServiceUnavailable, "RUNNER_URL is not configured")
		return
	}

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.runner.ETL(r.Context(), payload)
	if err != nil {
		h.log.Error().Err(err).Msg("ETL call failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	passthrough(w, resp)
}

// HandleETLHint handles GET /api/etl, which exists only to tell humans
// poking the URL in a browser how to actually trigger a run.
func (h *Handler) HandleETLHint(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Usa POST para ejecutar el ETL",
	})
}

func passthrough(w http.ResponseWriter, resp *runner.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
