package blend

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvdops/blendboard/internal/modules/lots"
)

type mockLoader struct {
	results map[int][]lots.LotRow
	unused  map[int][]lots.LotRow
	fail    map[int]error
}

func (m *mockLoader) PileResults(_ context.Context, which int) ([]lots.LotRow, error) {
	if err := m.fail[which]; err != nil {
		return nil, err
	}
	return m.results[which], nil
}

func (m *mockLoader) Unused(_ context.Context, which int) ([]lots.LotRow, int, error) {
	return m.unused[which], len(m.results[which]), nil
}

func testRow(codigo string, pile int) lots.LotRow {
	return lots.LotRow{
		Codigo:   codigo,
		PileCode: pile,
		PileType: lots.PileVarios,
		Zona:     "NORTE",
		Tms:      lots.Num(100),
		AuGrTon:  lots.Num(10),
		LoadedAt: "2026-03-01T10:00:00Z",
	}
}

func newTestWorkspace(t *testing.T, loader *mockLoader) *Workspace {
	t.Helper()
	ws := NewWorkspace(loader, zerolog.Nop())
	require.NoError(t, ws.Reload(context.Background()))
	return ws
}

func standardLoader() *mockLoader {
	return &mockLoader{
		results: map[int][]lots.LotRow{
			1: {testRow("A", 1), testRow("B", 1), testRow("C", 2)},
			2: {testRow("D", 1)},
			3: {testRow("E", 1)},
			4: {{Codigo: "F", RecClass: "BAJA", Tms: lots.Num(50)}},
		},
		unused: map[int][]lots.LotRow{
			1: {{Codigo: "U1", Zona: "SUR", Tms: lots.Num(10), LoadedAt: "2026-03-01T10:00:00Z"}},
		},
		fail: map[int]error{},
	}
}

func TestReloadCriticalFailureClearsEverything(t *testing.T) {
	loader := standardLoader()
	ws := newTestWorkspace(t, loader)

	loader.fail[2] = errors.New("gateway down")
	err := ws.Reload(context.Background())
	require.Error(t, err)

	for which := 1; which <= 4; which++ {
		resp, verr := ws.View(which)
		require.NoError(t, verr)
		assert.Zero(t, resp.Totals.Count, "view %d must be empty after a failed reload", which)
	}
	assert.True(t, ws.LoadedAt().IsZero())
}

func TestReloadLowRecFailureIsNonFatal(t *testing.T) {
	loader := standardLoader()
	loader.fail[4] = errors.New("table missing")
	ws := NewWorkspace(loader, zerolog.Nop())

	require.NoError(t, ws.Reload(context.Background()))

	resp, err := ws.View(1)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Totals.Count)

	resp, err = ws.View(4)
	require.NoError(t, err)
	assert.Empty(t, resp.Buckets)
}

// Titles land verbatim in export headers, so they are pinned here.
func TestViewTitles(t *testing.T) {
	ws := newTestWorkspace(t, standardLoader())

	want := map[int]string{
		1: "Resultado 1 – 1 pila Varios",
		2: "Resultado 2 – Pilas Batch",
		3: "Resultado 3 – Mixto (1 Varios + 1 Batch)",
		4: "Resultado 4 – Baja Recuperación",
	}
	for which, title := range want {
		resp, err := ws.View(which)
		require.NoError(t, err)
		assert.Equal(t, title, resp.Title)
	}
}

func TestSelectThenViewTotals(t *testing.T) {
	ws := newTestWorkspace(t, standardLoader())

	resp, err := ws.View(1)
	require.NoError(t, err)
	require.Len(t, resp.Piles, 2)
	assert.InDelta(t, 300, resp.Totals.TmsSum, 1e-9)

	// Exclude one row; totals and pile KPIs follow, the row stays visible.
	key := resp.Piles[0].Rows[0].RowKey
	require.NoError(t, ws.Select(1, key, false, false))

	resp, err = ws.View(1)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Totals.Count)
	assert.InDelta(t, 200, resp.Totals.TmsSum, 1e-9)
	assert.Len(t, resp.Piles[0].Rows, 2, "excluded rows remain listed")
	assert.InDelta(t, 100, resp.Piles[0].Totals.TmsSum, 1e-9)

	// Unknown key is rejected.
	assert.Error(t, ws.Select(1, "nope", false, false))
}

func TestMoveBetweenPilesConservesRows(t *testing.T) {
	ws := newTestWorkspace(t, standardLoader())

	resp, err := ws.View(1)
	require.NoError(t, err)
	key := resp.Piles[0].Rows[0].RowKey

	// Exclude it first to check the entry does not travel.
	require.NoError(t, ws.Select(1, key, false, false))
	require.NoError(t, ws.Move(1, key, Location{PileCode: 2, PileType: lots.PileVarios}))

	resp, err = ws.View(1)
	require.NoError(t, err)

	total := 0
	for _, p := range resp.Piles {
		total += len(p.Rows)
	}
	assert.Equal(t, 3, total, "moves conserve the lot count")
	assert.Len(t, resp.Piles[1].Rows, 2)

	// Arrived included: the footer counts it again.
	assert.Equal(t, 3, resp.Totals.Count)
}

func TestMoveToUnusedAndBack(t *testing.T) {
	ws := newTestWorkspace(t, standardLoader())

	resp, err := ws.View(1)
	require.NoError(t, err)
	require.Len(t, resp.Unused, 1)
	key := resp.Piles[0].Rows[0].RowKey

	require.NoError(t, ws.Move(1, key, Location{Unused: true}))

	resp, err = ws.View(1)
	require.NoError(t, err)
	assert.Len(t, resp.Unused, 2)
	assert.Equal(t, 2, resp.Totals.Count)

	// Drag an unused lot into pile 1.
	ukey := resp.Unused[1].RowKey
	require.NoError(t, ws.Move(1, ukey, Location{PileCode: 1, PileType: lots.PileVarios}))

	resp, err = ws.View(1)
	require.NoError(t, err)
	assert.Len(t, resp.Unused, 1)
	assert.Equal(t, 3, resp.Totals.Count)
}

func TestMoveEmptiedPileSlotPersists(t *testing.T) {
	ws := newTestWorkspace(t, standardLoader())

	resp, err := ws.View(1)
	require.NoError(t, err)
	require.Len(t, resp.Piles[1].Rows, 1)
	key := resp.Piles[1].Rows[0].RowKey

	require.NoError(t, ws.Move(1, key, Location{PileCode: 1, PileType: lots.PileVarios}))

	resp, err = ws.View(1)
	require.NoError(t, err)
	require.Len(t, resp.Piles, 2, "an emptied pile stays visible as a drop target")
	assert.Empty(t, resp.Piles[1].Rows)
	assert.Zero(t, resp.Piles[1].Totals.Count)
}

func TestMoveValidation(t *testing.T) {
	ws := newTestWorkspace(t, standardLoader())

	resp, err := ws.View(1)
	require.NoError(t, err)
	key := resp.Piles[0].Rows[0].RowKey

	assert.Error(t, ws.Move(4, key, Location{PileCode: 1, PileType: lots.PileVarios}))
	assert.Error(t, ws.Move(1, key, Location{PileCode: 0, PileType: lots.PileVarios}))
	assert.Error(t, ws.Move(1, key, Location{PileCode: 1, PileType: "montón"}))
	assert.Error(t, ws.Move(1, "missing", Location{PileCode: 1, PileType: lots.PileVarios}))
}

func TestExportData(t *testing.T) {
	ws := newTestWorkspace(t, standardLoader())

	ev, err := ws.ExportData(1)
	require.NoError(t, err)
	assert.Len(t, ev.Rows, 3)
	assert.Len(t, ev.Piles, 2)

	// Excluding everything leaves nothing to export.
	resp, err := ws.View(2)
	require.NoError(t, err)
	require.NoError(t, ws.Select(2, resp.Piles[0].Rows[0].RowKey, false, false))
	_, err = ws.ExportData(2)
	assert.Error(t, err)

	ev, err = ws.ExportData(4)
	require.NoError(t, err)
	require.Len(t, ev.Buckets, 1)
	assert.Equal(t, "BAJA", ev.Buckets[0].Class)
}
