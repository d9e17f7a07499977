// Package blend implements the pile-composition core: tonnage-weighted
// aggregation, pile grouping, universe range filters and the per-view
// workspace that tracks selection and manual reassignment.
package blend

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mvdops/blendboard/internal/modules/lots"
)

// Totals carries the footer aggregates for one table of lots.
//
// Tonnage and fine-metal content are plain sums; every other column is a
// tonnage-weighted mean. The table footer, the PDF subtotal and the Excel
// subtotal all come from this one function, which is what keeps the three
// surfaces numerically identical.
type Totals struct {
	Count int `json:"count"`

	TmhSum    float64 `json:"tmh_sum"`
	TmsSum    float64 `json:"tms_sum"`
	AuFinoSum float64 `json:"au_fino_sum"`
	AgFinoSum float64 `json:"ag_fino_sum"`

	HumW  float64 `json:"hum_w"`
	AuW   float64 `json:"au_w"`
	AgW   float64 `json:"ag_w"`
	CuW   float64 `json:"cu_w"`
	NacnW float64 `json:"nacn_w"`
	NaohW float64 `json:"naoh_w"`
	RecW  float64 `json:"rec_w"`
}

// WeightedMean computes the tonnage-weighted mean of get over rows,
// zero when the total weight is zero (never NaN).
func WeightedMean(rows []lots.LotRow, get func(lots.LotRow) float64) float64 {
	if len(rows) == 0 {
		return 0
	}
	vals := make([]float64, len(rows))
	weights := make([]float64, len(rows))
	for i, r := range rows {
		vals[i] = get(r)
		weights[i] = r.Weight()
	}
	if floats.Sum(weights) <= 0 {
		return 0
	}
	return stat.Mean(vals, weights)
}

// TotalsFor computes the footer aggregates for a row set.
func TotalsFor(rows []lots.LotRow) Totals {
	t := Totals{Count: len(rows)}
	for _, r := range rows {
		t.TmhSum += r.Tmh.Or0()
		t.TmsSum += r.Tms.Or0()
		t.AuFinoSum += r.AuFino.Or0()
		t.AgFinoSum += r.AgFino.Or0()
	}

	t.HumW = WeightedMean(rows, func(r lots.LotRow) float64 { return r.HumedadPct.Or0() })
	t.AuW = WeightedMean(rows, func(r lots.LotRow) float64 { return r.AuGrTon.Or0() })
	t.AgW = WeightedMean(rows, func(r lots.LotRow) float64 { return r.AgGrTon.Or0() })
	t.CuW = WeightedMean(rows, func(r lots.LotRow) float64 { return r.CuPct.Or0() })
	t.NacnW = WeightedMean(rows, func(r lots.LotRow) float64 { return r.NacnKgT.Or0() })
	t.NaohW = WeightedMean(rows, func(r lots.LotRow) float64 { return r.NaohKgT.Or0() })
	t.RecW = WeightedMean(rows, func(r lots.LotRow) float64 { return r.RecPct.Or0() })

	return t
}

// KPIs is the short per-pile summary shown in pile headers.
type KPIs struct {
	TmhSum      float64 `json:"tmh_sum"`
	TmsSum      float64 `json:"tms_sum"`
	AuWeighted  float64 `json:"au_weighted"`
	HumWeighted float64 `json:"hum_weighted"`
	RecWeighted float64 `json:"rec_weighted"`
}

// KPIsFor computes the pile header summary.
func KPIsFor(rows []lots.LotRow) KPIs {
	var k KPIs
	for _, r := range rows {
		k.TmhSum += r.Tmh.Or0()
		k.TmsSum += r.Tms.Or0()
	}
	k.AuWeighted = WeightedMean(rows, func(r lots.LotRow) float64 { return r.AuGrTon.Or0() })
	k.HumWeighted = WeightedMean(rows, func(r lots.LotRow) float64 { return r.HumedadPct.Or0() })
	k.RecWeighted = WeightedMean(rows, func(r lots.LotRow) float64 { return r.RecPct.Or0() })
	return k
}

// FilterSelected keeps the rows whose key is not explicitly excluded.
// An empty or nil selection map keeps everything.
func FilterSelected(rows []lots.LotRow, selection map[string]bool, key func(lots.LotRow) string) []lots.LotRow {
	out := make([]lots.LotRow, 0, len(rows))
	for _, r := range rows {
		if included, found := selection[key(r)]; found && !included {
			continue
		}
		out = append(out, r)
	}
	return out
}
