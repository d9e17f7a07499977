package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// RunnerProber checks runner reachability with a short timeout.
type RunnerProber interface {
	Configured() bool
	Health(ctx context.Context) error
}

// SystemHandlers serves the operational status endpoint.
type SystemHandlers struct {
	log         zerolog.Logger
	runner      RunnerProber
	startupTime time.Time
}

// NewSystemHandlers creates system handlers.
func NewSystemHandlers(log zerolog.Logger, runner RunnerProber) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		runner:      runner,
		startupTime: time.Now(),
	}
}

// HandleSystemStatus handles GET /api/system/status: process uptime, host
// CPU and memory, and runner reachability.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":       "ok",
		"uptime_hours": time.Since(h.startupTime).Hours(),
	}

	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		status["cpu_percent"] = cpuPercent[0]
	} else if err != nil {
		h.log.Warn().Err(err).Msg("CPU stats unavailable")
	}

	if memStat, err := mem.VirtualMemory(); err == nil {
		status["memory_percent"] = memStat.UsedPercent
		status["memory_used_mb"] = float64(memStat.Used) / 1024 / 1024
	} else {
		h.log.Warn().Err(err).Msg("Memory stats unavailable")
	}

	runnerStatus := "not_configured"
	if h.runner != nil && h.runner.Configured() {
		ctx, cancel := context.WithTimeout(r.Context(), 4*time.Second)
		defer cancel()
		if err := h.runner.Health(ctx); err != nil {
			runnerStatus = "unreachable"
		} else {
			runnerStatus = "ok"
		}
	}
	status["runner"] = runnerStatus

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(status)
}
