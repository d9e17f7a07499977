package blend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mvdops/blendboard/internal/modules/lots"
)

func fp(v float64) *float64 { return &v }

func TestRangePass(t *testing.T) {
	vacuous := Range{}
	assert.True(t, vacuous.Pass(lots.Num(5)))
	assert.True(t, vacuous.Pass(lots.Metric{}), "a vacuous range passes missing values")

	bounded := Range{Min: fp(1), Max: fp(10)}
	assert.True(t, bounded.Pass(lots.Num(1)))
	assert.True(t, bounded.Pass(lots.Num(10)))
	assert.False(t, bounded.Pass(lots.Num(0.5)))
	assert.False(t, bounded.Pass(lots.Num(10.5)))
	assert.False(t, bounded.Pass(lots.Metric{}), "an active range fails missing values")

	minOnly := Range{Min: fp(2)}
	assert.True(t, minOnly.Pass(lots.Num(2)))
	assert.False(t, minOnly.Pass(lots.Num(1.99)))
}

func TestZonesVacuous(t *testing.T) {
	all := []string{"NORTE", "SUR", "CENTRO"}

	assert.True(t, UniverseFilter{AllZones: all}.ZonesVacuous(), "empty selection constrains nothing")
	assert.True(t, UniverseFilter{Zones: []string{"sur", "NORTE", "Centro"}, AllZones: all}.ZonesVacuous(),
		"selecting every zone, case-insensitively, constrains nothing")
	assert.False(t, UniverseFilter{Zones: []string{"NORTE"}, AllZones: all}.ZonesVacuous())
}

func TestUniverseFilterApply(t *testing.T) {
	rows := []lots.LotRow{
		{Codigo: "A", Zona: "NORTE", AuGrTon: lots.Num(5)},
		{Codigo: "B", Zona: "SUR", AuGrTon: lots.Num(15)},
		{Codigo: "C", Zona: "", AuGrTon: lots.Num(7)},
		{Codigo: "D", Zona: "NORTE"}, // au missing
	}
	all := []string{"NORTE", "SUR"}

	// Proper-subset zone selection drops other zones and blank zones.
	f := UniverseFilter{Zones: []string{"NORTE"}, AllZones: all}
	got := f.Apply(rows)
	assert.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Codigo)
	assert.Equal(t, "D", got[1].Codigo)

	// Vacuous zones keep blank-zone rows.
	f = UniverseFilter{Zones: all, AllZones: all}
	assert.Len(t, f.Apply(rows), 4)

	// Active numeric range fails rows with the value missing.
	f = UniverseFilter{Au: Range{Min: fp(4), Max: fp(10)}}
	got = f.Apply(rows)
	assert.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Codigo)
	assert.Equal(t, "C", got[1].Codigo)
}
