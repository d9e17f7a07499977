package lots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeight(t *testing.T) {
	tests := []struct {
		name string
		row  LotRow
		want float64
	}{
		{name: "tms wins", row: LotRow{Tms: Num(80), Tmh: Num(100)}, want: 80},
		{name: "tmh fallback when tms zero", row: LotRow{Tms: Num(0), Tmh: Num(100)}, want: 100},
		{name: "tmh fallback when tms absent", row: LotRow{Tmh: Num(100)}, want: 100},
		{name: "both zero", row: LotRow{Tms: Num(0), Tmh: Num(0)}, want: 0},
		{name: "both absent", row: LotRow{}, want: 0},
		{name: "negative tms ignored", row: LotRow{Tms: Num(-5), Tmh: Num(40)}, want: 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.row.Weight())
		})
	}
}

func TestKeyChangesWithAssignment(t *testing.T) {
	row := LotRow{ID: 7, PileCode: 1, PileType: PileVarios, Codigo: "L-001", Zona: "NORTE", LoadedAt: "2026-03-01T10:00:00Z"}
	before := row.Key("1")

	row.PileCode = 2
	assert.NotEqual(t, before, row.Key("1"), "reassignment must produce a fresh key")
	assert.NotEqual(t, before, LotRow{ID: 7, PileCode: 1, PileType: PileVarios, Codigo: "L-001", Zona: "NORTE", LoadedAt: "2026-03-01T10:00:00Z"}.Key("2"),
		"same row in another view must not collide")
}

func TestPileDate(t *testing.T) {
	rows := []LotRow{
		{LoadedAt: "2026-03-01T10:00:00Z"},
		{LoadedAt: "2026-03-03T08:30:00Z"},
		{CreatedAt: "2026-03-02T00:00:00Z"},
		{}, // no timestamp at all
	}
	got := PileDate(rows)
	assert.Equal(t, time.Date(2026, 3, 3, 8, 30, 0, 0, time.UTC), got)
}

func TestPileDateFallsBackToNow(t *testing.T) {
	before := time.Now().UTC()
	got := PileDate([]LotRow{{}, {}})
	assert.False(t, got.Before(before.Add(-time.Second)))
}

func TestFormatDDMMYYYY(t *testing.T) {
	assert.Equal(t, "03/03/2026", FormatDDMMYYYY(time.Date(2026, 3, 3, 8, 30, 0, 0, time.UTC)))
	assert.Equal(t, "25/12/2025", FormatDDMMYYYY(time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC)))
}
