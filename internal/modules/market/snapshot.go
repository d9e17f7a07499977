// Package market builds the gold/silver market snapshot and the
// management commentary generated from it.
package market

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"github.com/mvdops/blendboard/internal/clients/supabase"
)

const (
	scenariosTable = "market_scenarios_daily"
	goldTable      = "gold_price_forecast_bi"
	actualModel    = "actual_daily"
)

// scenarioRow is one row of the daily market-scenario table. Every numeric
// column is nullable upstream.
type scenarioRow struct {
	ObsDate      *string  `json:"obs_date"`
	ModelName    *string  `json:"model_name"`
	ModelVersion *string  `json:"model_version"`
	Signal       *float64 `json:"signal"`
	Probability  *float64 `json:"probability"`
	ZScore       *float64 `json:"zscore"`
	ZAbs         *float64 `json:"z_abs"`
	SpreadValue  *float64 `json:"spread_value"`

	MarketScenario     *string `json:"market_scenario"`
	DeviationIntensity *string `json:"deviation_intensity"`
	ConfidenceLevel    *string `json:"confidence_level"`

	VIX       *float64 `json:"vix"`
	DXY       *float64 `json:"dxy"`
	Y10       *float64 `json:"y10"`
	VIXRegime *string  `json:"vix_regime"`
}

// goldRow is one row of the gold price/forecast table.
type goldRow struct {
	ForecastDate *string  `json:"forecast_date"`
	ModelName    *string  `json:"model_name"`
	PriceMean    *float64 `json:"price_mean"`
	PriceP10     *float64 `json:"price_p10"`
	PriceP50     *float64 `json:"price_p50"`
	PriceP90     *float64 `json:"price_p90"`
	BaseDate     *string  `json:"base_date"`
	RunDate      *string  `json:"run_date"`
}

// price prefers the P50 column, falling back to the mean.
func (g goldRow) price() *float64 {
	if g.PriceP50 != nil {
		return g.PriceP50
	}
	return g.PriceMean
}

// Snapshot is the enriched market state handed to the language model and
// returned alongside the commentary. Field names are part of the response
// contract.
type Snapshot struct {
	AsOf  *string   `json:"asof"`
	Model ModelInfo `json:"model"`

	Scenarios ScenarioInfo `json:"scenarios"`
	Macro     MacroInfo    `json:"macro"`
	Gold      GoldInfo     `json:"gold"`
}

type ModelInfo struct {
	Name    *string `json:"name"`
	Version *string `json:"version"`
}

type ScenarioInfo struct {
	Signal       *float64 `json:"signal"`
	Probability  *float64 `json:"probability"`
	ConfidenceOp string   `json:"confidence_op"`

	ZScore           *float64 `json:"zscore"`
	ZAbs             *float64 `json:"z_abs"`
	ZDeltaVsPrevEvnt *float64 `json:"z_delta_vs_prev_event"`

	SpreadValue *float64 `json:"spread_value"`
	SpreadBias  *string  `json:"spread_bias"`

	MarketScenario     *string `json:"market_scenario"`
	DeviationIntensity *string `json:"deviation_intensity"`
	ConfidenceLevel    *string `json:"confidence_level"`

	PrevEventDate      *string  `json:"prev_event_date"`
	DaysSincePrevEvent *float64 `json:"days_since_prev_event"`
	PressureLabel      *string  `json:"pressure_label"`
}

type MacroInfo struct {
	VIX       *float64 `json:"vix"`
	DXY       *float64 `json:"dxy"`
	Y10       *float64 `json:"y10"`
	VIXRegime *string  `json:"vix_regime"`
}

type GoldInfo struct {
	LastCloseDate *string  `json:"last_close_date"`
	LastClose     *float64 `json:"last_close"`
	Ret7DPct      *float64 `json:"ret_7d_pct"`
	Ret30DPct     *float64 `json:"ret_30d_pct"`

	NextForecastDate *string  `json:"next_forecast_date"`
	NextP50          *float64 `json:"next_p50"`
	NextP10          *float64 `json:"next_p10"`
	NextP90          *float64 `json:"next_p90"`

	NextPctVsLastClose *float64 `json:"next_pct_vs_last_close"`
	BandWidthAbs       *float64 `json:"band_width_abs"`
	BandWidthPctOfLast *float64 `json:"band_width_pct_of_last"`

	BaseDate *string `json:"base_date"`
	RunDate  *string `json:"run_date"`
}

// SnapshotBuilder assembles the snapshot from the scenario and gold tables.
type SnapshotBuilder struct {
	sb  *supabase.Client
	log zerolog.Logger
}

// NewSnapshotBuilder creates a snapshot builder.
func NewSnapshotBuilder(sb *supabase.Client, log zerolog.Logger) *SnapshotBuilder {
	return &SnapshotBuilder{
		sb:  sb,
		log: log.With().Str("component", "snapshot").Logger(),
	}
}

// ErrNoScenarioData marks an empty scenario table, which callers report as
// a client error rather than a server failure.
var ErrNoScenarioData = fmt.Errorf("no hay data en %s", scenariosTable)

// Build assembles the current market snapshot.
func (b *SnapshotBuilder) Build(ctx context.Context) (*Snapshot, error) {
	var scen []scenarioRow
	err := b.sb.Rows(ctx, supabase.Query{
		Table: scenariosTable,
		Order: []string{"obs_date.desc"},
		Limit: 5,
	}, &scen)
	if err != nil {
		return nil, fmt.Errorf("failed to load market scenarios: %w", err)
	}
	if len(scen) == 0 {
		return nil, ErrNoScenarioData
	}

	s0 := scen[0]
	var s1 *scenarioRow
	if len(scen) > 1 {
		s1 = &scen[1]
	}

	obs0 := safeDateStr(s0.ObsDate)
	zAbs := s0.ZAbs
	if s0.ZScore != nil {
		v := math.Abs(*s0.ZScore)
		zAbs = &v
	}

	snap := &Snapshot{
		AsOf:  obs0,
		Model: ModelInfo{Name: s0.ModelName, Version: s0.ModelVersion},
		Scenarios: ScenarioInfo{
			Signal:             s0.Signal,
			Probability:        s0.Probability,
			ConfidenceOp:       MapConfidence(s0.Probability),
			ZScore:             s0.ZScore,
			ZAbs:               zAbs,
			SpreadValue:        s0.SpreadValue,
			SpreadBias:         spreadBias(s0.ZScore),
			MarketScenario:     s0.MarketScenario,
			DeviationIntensity: s0.DeviationIntensity,
			ConfidenceLevel:    s0.ConfidenceLevel,
			PressureLabel:      classifyZPressure(s0.Signal, zAbs),
		},
		Macro: MacroInfo{VIX: s0.VIX, DXY: s0.DXY, Y10: s0.Y10, VIXRegime: s0.VIXRegime},
	}

	if s1 != nil {
		obs1 := safeDateStr(s1.ObsDate)
		snap.Scenarios.PrevEventDate = obs1
		snap.Scenarios.DaysSincePrevEvent = daysBetween(obs1, obs0)
		if s0.ZScore != nil && s1.ZScore != nil {
			d := *s0.ZScore - *s1.ZScore
			snap.Scenarios.ZDeltaVsPrevEvnt = &d
		}
	}

	if err := b.addGold(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// addGold fills the gold block: recent actuals for the 7/30-day returns,
// then the first forecast point after the last close.
func (b *SnapshotBuilder) addGold(ctx context.Context, snap *Snapshot) error {
	var actuals []goldRow
	err := b.sb.Rows(ctx, supabase.Query{
		Table:   goldTable,
		Filters: []string{"model_name=eq." + actualModel},
		Order:   []string{"forecast_date.desc"},
		Limit:   35,
	}, &actuals)
	if err != nil {
		return fmt.Errorf("failed to load gold actuals: %w", err)
	}

	g := &snap.Gold
	var lastClose *float64
	if len(actuals) > 0 {
		g.LastCloseDate = safeDateStr(actuals[0].ForecastDate)
		lastClose = actuals[0].price()
		g.LastClose = lastClose
	}
	if len(actuals) >= 8 {
		g.Ret7DPct = pctChange(actuals[7].price(), lastClose)
	}
	if len(actuals) >= 31 {
		g.Ret30DPct = pctChange(actuals[30].price(), lastClose)
	}

	cutDate := "1900-01-01"
	if g.LastCloseDate != nil {
		cutDate = *g.LastCloseDate
	}

	var fut []goldRow
	err = b.sb.Rows(ctx, supabase.Query{
		Table: goldTable,
		Filters: []string{
			"model_name=neq." + actualModel,
			"forecast_date=gt." + cutDate,
		},
		Order: []string{"forecast_date.asc"},
		Limit: 3,
	}, &fut)
	if err != nil {
		return fmt.Errorf("failed to load gold forecast: %w", err)
	}

	if len(fut) > 0 {
		f0 := fut[0]
		g.NextForecastDate = safeDateStr(f0.ForecastDate)
		g.NextP50 = f0.price()
		g.NextP10 = f0.PriceP10
		g.NextP90 = f0.PriceP90
		g.BaseDate = f0.BaseDate
		g.RunDate = f0.RunDate

		g.NextPctVsLastClose = pctChange(lastClose, g.NextP50)
		if g.NextP10 != nil && g.NextP90 != nil {
			bw := *g.NextP90 - *g.NextP10
			g.BandWidthAbs = &bw
			if lastClose != nil && *lastClose != 0 {
				pct := bw / *lastClose * 100
				g.BandWidthPctOfLast = &pct
			}
		}
	}
	return nil
}

var datePrefix = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)

// safeDateStr extracts the YYYY-MM-DD prefix of a date-ish string.
func safeDateStr(s *string) *string {
	if s == nil {
		return nil
	}
	m := datePrefix.FindStringSubmatch(*s)
	if m == nil {
		return nil
	}
	return &m[1]
}

// daysBetween returns whole days from a to b, nil when either is missing
// or unparseable.
func daysBetween(a, b *string) *float64 {
	if a == nil || b == nil {
		return nil
	}
	ta, errA := time.Parse("2006-01-02", *a)
	tb, errB := time.Parse("2006-01-02", *b)
	if errA != nil || errB != nil {
		return nil
	}
	d := math.Round(tb.Sub(ta).Hours() / 24)
	return &d
}

// pctChange returns the percent change from from to to, nil when either is
// missing or the base is zero.
func pctChange(from, to *float64) *float64 {
	if from == nil || to == nil || *from == 0 {
		return nil
	}
	v := (*to - *from) / *from * 100
	return &v
}

func spreadBias(z *float64) *string {
	if z == nil {
		return nil
	}
	var s string
	switch {
	case *z < 0:
		s = "Spread comprimido (z<0)"
	case *z > 0:
		s = "Spread expandido (z>0)"
	default:
		s = "Neutro (z≈0)"
	}
	return &s
}

// classifyZPressure labels statistical pressure when the discrete signal is
// silent but the z-score is stretched.
func classifyZPressure(signal, zAbs *float64) *string {
	if signal == nil || *signal != 0 || zAbs == nil {
		return nil
	}
	var s string
	switch {
	case *zAbs >= 2.0:
		s = "Presión extrema sin señal (pre-señal fuerte)"
	case *zAbs >= 1.5:
		s = "Presión alta sin señal (pre-señal)"
	case *zAbs >= 1.0:
		s = "Presión moderada sin señal"
	default:
		return nil
	}
	return &s
}
