// Package solver proxies optimization and ETL runs to the external runner
// and builds the run payload from the operator's form inputs.
package solver

import (
	"strconv"
	"strings"
)

// RunParams are the raw form inputs for a solver run. Numeric fields come
// in as strings because the form sends them that way; blank or malformed
// values simply omit the corresponding payload key.
type RunParams struct {
	ZonesSelected []string `json:"zones_selected"`
	ZonesAll      []string `json:"zones_all"`

	LotTmsMin string `json:"lot_tms_min"`
	LotRecMin string `json:"lot_rec_min"`
	VarGTries string `json:"var_g_tries"`
	ReagMin   string `json:"reag_min"`
	ReagMax   string `json:"reag_max"`
}

// Filters is the filters section of the runner payload.
type Filters struct {
	Zones     []string `json:"zones,omitempty"`
	LotTmsMin *float64 `json:"lot_tms_min,omitempty"`
	LotRecMin *float64 `json:"lot_rec_min,omitempty"`
}

// Varios is the varios-pile section of the runner payload.
type Varios struct {
	VarGTries [][2]float64 `json:"var_g_tries,omitempty"`
}

// Reagents is the reagent-bounds section of the runner payload.
type Reagents struct {
	ReagMin *float64 `json:"reag_min,omitempty"`
	ReagMax *float64 `json:"reag_max,omitempty"`
}

// Payload is the runner request body. Empty sections are omitted entirely,
// which lets the runner apply its own defaults.
type Payload struct {
	Filters  *Filters  `json:"filters,omitempty"`
	Varios   *Varios   `json:"varios,omitempty"`
	Reagents *Reagents `json:"reagents,omitempty"`
}

// BuildPayload assembles the runner payload. Zones are only sent when the
// operator selected a proper, non-empty subset of the known zones;
// selecting everything means "no zone filter".
func BuildPayload(p RunParams) Payload {
	var out Payload

	f := Filters{}
	allSelected := len(p.ZonesAll) > 0 && len(p.ZonesSelected) == len(p.ZonesAll)
	if !allSelected && len(p.ZonesSelected) > 0 {
		f.Zones = p.ZonesSelected
	}
	f.LotTmsMin = numOrNil(p.LotTmsMin)
	f.LotRecMin = numOrNil(p.LotRecMin)
	if len(f.Zones) > 0 || f.LotTmsMin != nil || f.LotRecMin != nil {
		out.Filters = &f
	}

	if tries := parseSinglePair(p.VarGTries); tries != nil {
		out.Varios = &Varios{VarGTries: tries}
	}

	r := Reagents{ReagMin: numOrNil(p.ReagMin), ReagMax: numOrNil(p.ReagMax)}
	if r.ReagMin != nil || r.ReagMax != nil {
		out.Reagents = &r
	}

	return out
}

func numOrNil(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseSinglePair reads "min,max" from the first semicolon-separated pair
// of the tries field. Only one pair is honored.
func parseSinglePair(s string) [][2]float64 {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return nil
	}
	first := strings.TrimSpace(strings.Split(raw, ";")[0])
	if first == "" {
		return nil
	}
	a, b, ok := strings.Cut(first, ",")
	if !ok {
		return nil
	}
	gmin, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	gmax, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA != nil || errB != nil {
		return nil
	}
	return [][2]float64{{gmin, gmax}}
}
