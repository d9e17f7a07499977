// Package handlers provides HTTP handlers for the lot read API.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mvdops/blendboard/internal/modules/blend"
	"github.com/mvdops/blendboard/internal/modules/lots"
)

// Handler handles lot, pile-result, unused and zone reads.
type Handler struct {
	repo *lots.Repository
	log  zerolog.Logger
}

// NewHandler creates a new lots handler.
func NewHandler(repo *lots.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "lots").Logger(),
	}
}

// HandleGetLotes handles GET /api/lotes. Optional range and zone params
// (tmh_min, au_max, zones=NORTE,SUR, ...) narrow the universe the same way
// the solver form does before a run.
func (h *Handler) HandleGetLotes(w http.ResponseWriter, r *http.Request) {
	filter, active, err := parseUniverseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.repo.Staging(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load staging lots")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if active {
		if len(filter.Zones) > 0 {
			all, err := h.repo.Zones(r.Context())
			if err != nil {
				// zone selection still constrains, just without the
				// all-selected-means-unfiltered shortcut
				h.log.Warn().Err(err).Msg("Failed to load zones for filter")
			} else {
				filter.AllZones = all
			}
		}
		rows = filter.Apply(rows)
	}

	writeJSON(w, http.StatusOK, map[string]any{"count": len(rows), "rows": rows})
}

// filterRanges maps query-parameter stems to their ranges.
var filterRanges = []struct {
	name string
	dst  func(f *blend.UniverseFilter) *blend.Range
}{
	{"tmh", func(f *blend.UniverseFilter) *blend.Range { return &f.Tmh }},
	{"au", func(f *blend.UniverseFilter) *blend.Range { return &f.Au }},
	{"cu", func(f *blend.UniverseFilter) *blend.Range { return &f.Cu }},
	{"rec", func(f *blend.UniverseFilter) *blend.Range { return &f.Rec }},
	{"naoh", func(f *blend.UniverseFilter) *blend.Range { return &f.Naoh }},
	{"nacn", func(f *blend.UniverseFilter) *blend.Range { return &f.Nacn }},
}

func parseUniverseFilter(q url.Values) (blend.UniverseFilter, bool, error) {
	var f blend.UniverseFilter
	active := false

	bound := func(key string) (*float64, error) {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			return nil, nil
		}
		v, ok := lots.ParseNum(raw)
		if !ok {
			return nil, fmt.Errorf("invalid number %q for %s", raw, key)
		}
		active = true
		return &v, nil
	}

	for _, fr := range filterRanges {
		rg := fr.dst(&f)
		var err error
		if rg.Min, err = bound(fr.name + "_min"); err != nil {
			return f, false, err
		}
		if rg.Max, err = bound(fr.name + "_max"); err != nil {
			return f, false, err
		}
	}

	for _, z := range strings.Split(q.Get("zones"), ",") {
		if z = strings.TrimSpace(z); z != "" {
			f.Zones = append(f.Zones, z)
			active = true
		}
	}
	return f, active, nil
}

// HandleGetPilas handles GET /api/pilas?which=1..4
func (h *Handler) HandleGetPilas(w http.ResponseWriter, r *http.Request) {
	which, ok := parseWhich(r, 4)
	if !ok {
		writeError(w, http.StatusBadRequest, "which must be 1, 2, 3 or 4")
		return
	}

	rows, err := h.repo.PileResults(r.Context(), which)
	if err != nil {
		h.log.Error().Err(err).Int("which", which).Msg("Failed to load pile results")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	table, _ := lots.ResultTable(which)
	writeJSON(w, http.StatusOK, map[string]any{
		"which": strconv.Itoa(which),
		"table": table,
		"count": len(rows),
		"rows":  rows,
	})
}

// HandleGetUnused handles GET /api/unused?which=1..3
func (h *Handler) HandleGetUnused(w http.ResponseWriter, r *http.Request) {
	which, ok := parseWhich(r, 3)
	if !ok {
		writeError(w, http.StatusBadRequest, "which must be 1, 2 or 3")
		return
	}

	rows, usedCount, err := h.repo.Unused(r.Context(), which)
	if err != nil {
		h.log.Error().Err(err).Int("which", which).Msg("Failed to load unused lots")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"which": strconv.Itoa(which),
		"used":  usedCount,
		"count": len(rows),
		"rows":  rows,
	})
}

// HandleGetZones handles GET /api/zones
func (h *Handler) HandleGetZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.repo.Zones(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load zones")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"zones": zones})
}

func parseWhich(r *http.Request, maxView int) (int, bool) {
	which, err := strconv.Atoi(r.URL.Query().Get("which"))
	if err != nil || which < 1 || which > maxView {
		return 0, false
	}
	return which, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
