// Package lots holds the ore-lot data model and the read repository over the
// staging and pile-result tables.
package lots

import (
	"fmt"
	"time"
)

// PileType distinguishes the two blending stack disciplines. Batch piles
// follow stricter composition rules than varios piles.
type PileType string

const (
	PileBatch  PileType = "batch"
	PileVarios PileType = "varios"
)

// LotRow is one ore lot observation from the daily staging load or a
// solver result table. pile_code 0 conventionally means "unused".
type LotRow struct {
	ID       int64    `json:"id,omitempty"`
	PileCode int      `json:"pile_code"`
	PileType PileType `json:"pile_type,omitempty"`

	Codigo string `json:"codigo"`
	Zona   string `json:"zona"`

	Tmh        Metric `json:"tmh"`
	HumedadPct Metric `json:"humedad_pct"`
	Tms        Metric `json:"tms"`

	AuGrTon Metric `json:"au_gr_ton"`
	AuFino  Metric `json:"au_fino"`
	AgGrTon Metric `json:"ag_gr_ton"`
	AgFino  Metric `json:"ag_fino"`

	CuPct   Metric `json:"cu_pct"`
	NacnKgT Metric `json:"nacn_kg_t"`
	NaohKgT Metric `json:"naoh_kg_t"`
	RecPct  Metric `json:"rec_pct"`

	// Only present in the low-recovery result set.
	RecClass string `json:"rec_class,omitempty"`

	LoadedAt  string `json:"loaded_at,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Key derives the synthetic composite row key used for selection-map lookups
// within a view. It has no server-side meaning and changes when the row is
// reassigned, which is what lets selection state default to "included" on
// arrival into a new collection.
func (r LotRow) Key(view string) string {
	ts := r.LoadedAt
	if ts == "" {
		ts = r.CreatedAt
	}
	return fmt.Sprintf("%s|%d|%s|%s|%s|%s|%d", view, r.PileCode, r.PileType, r.Codigo, r.Zona, ts, r.ID)
}

// Weight is the tonnage weight for weighted averages: TMS when positive,
// else TMH when positive, else zero.
func (r LotRow) Weight() float64 {
	if tms := r.Tms.Or0(); tms > 0 {
		return tms
	}
	if tmh := r.Tmh.Or0(); tmh > 0 {
		return tmh
	}
	return 0
}

// timestampLayouts covers the formats the staging load emits.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// PileDate returns the latest loaded_at/created_at across rows, used as the
// pile date on exports. Falls back to now when no row carries a timestamp.
func PileDate(rows []LotRow) time.Time {
	var best time.Time
	found := false
	for _, r := range rows {
		ts := r.LoadedAt
		if ts == "" {
			ts = r.CreatedAt
		}
		if ts == "" {
			continue
		}
		if t, ok := parseTimestamp(ts); ok && (!found || t.After(best)) {
			best = t
			found = true
		}
	}
	if !found {
		return time.Now().UTC()
	}
	return best
}

// FormatDDMMYYYY renders the export date header format.
func FormatDDMMYYYY(t time.Time) string {
	return fmt.Sprintf("%02d/%02d/%04d", t.UTC().Day(), int(t.UTC().Month()), t.UTC().Year())
}
