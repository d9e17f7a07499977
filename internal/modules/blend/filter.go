package blend

import (
	"strings"

	"github.com/mvdops/blendboard/internal/modules/lots"
)

// Range is a numeric interval with optional bounds. A range with neither
// bound set is vacuous and passes everything, including rows where the
// value itself is missing. Once a bound is set, missing values fail.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Vacuous reports whether the range constrains nothing.
func (rg Range) Vacuous() bool { return rg.Min == nil && rg.Max == nil }

// Pass reports whether m satisfies the range.
func (rg Range) Pass(m lots.Metric) bool {
	if rg.Vacuous() {
		return true
	}
	if !m.Present {
		return false
	}
	if rg.Min != nil && m.Value < *rg.Min {
		return false
	}
	if rg.Max != nil && m.Value > *rg.Max {
		return false
	}
	return true
}

// UniverseFilter narrows the staging universe before it is handed to the
// optimization runner. Zones behave like the ranges: selecting every known
// zone is the same as selecting none, and only then do rows with a blank
// zone survive.
type UniverseFilter struct {
	Tmh  Range `json:"tmh"`
	Au   Range `json:"au"`
	Cu   Range `json:"cu"`
	Rec  Range `json:"rec"`
	Naoh Range `json:"naoh"`
	Nacn Range `json:"nacn"`

	Zones    []string `json:"zones,omitempty"`
	AllZones []string `json:"all_zones,omitempty"`
}

// ZonesVacuous reports whether the zone selection constrains nothing:
// nothing selected, or every known zone selected.
func (f UniverseFilter) ZonesVacuous() bool {
	if len(f.Zones) == 0 {
		return true
	}
	if len(f.AllZones) == 0 {
		return false
	}
	all := make(map[string]struct{}, len(f.AllZones))
	for _, z := range f.AllZones {
		all[strings.ToLower(strings.TrimSpace(z))] = struct{}{}
	}
	selected := make(map[string]struct{}, len(f.Zones))
	for _, z := range f.Zones {
		selected[strings.ToLower(strings.TrimSpace(z))] = struct{}{}
	}
	if len(selected) != len(all) {
		return false
	}
	for z := range all {
		if _, ok := selected[z]; !ok {
			return false
		}
	}
	return true
}

// Apply returns the rows that satisfy every active constraint.
func (f UniverseFilter) Apply(rows []lots.LotRow) []lots.LotRow {
	zoneVacuous := f.ZonesVacuous()
	var selected map[string]struct{}
	if !zoneVacuous {
		selected = make(map[string]struct{}, len(f.Zones))
		for _, z := range f.Zones {
			selected[strings.ToLower(strings.TrimSpace(z))] = struct{}{}
		}
	}

	out := make([]lots.LotRow, 0, len(rows))
	for _, r := range rows {
		if !zoneVacuous {
			if _, ok := selected[strings.ToLower(strings.TrimSpace(r.Zona))]; !ok {
				continue
			}
		}
		if !f.Tmh.Pass(r.Tmh) || !f.Au.Pass(r.AuGrTon) || !f.Cu.Pass(r.CuPct) ||
			!f.Rec.Pass(r.RecPct) || !f.Naoh.Pass(r.NaohKgT) || !f.Nacn.Pass(r.NacnKgT) {
			continue
		}
		out = append(out, r)
	}
	return out
}
