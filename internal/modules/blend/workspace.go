package blend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mvdops/blendboard/internal/modules/lots"
)

// Loader fetches the pile-result and unused row sets. *lots.Repository
// implements it; tests substitute an in-memory loader.
type Loader interface {
	PileResults(ctx context.Context, which int) ([]lots.LotRow, error)
	Unused(ctx context.Context, which int) ([]lots.LotRow, int, error)
}

// viewTitles maps each result view to its display title.
var viewTitles = map[int]string{
	1: "Resultado 1 – 1 pila Varios",
	2: "Resultado 2 – Pilas Batch",
	3: "Resultado 3 – Mixto (1 Varios + 1 Batch)",
	4: "Resultado 4 – Baja Recuperación",
}

// ViewState is the mutable state of one result view: the assignment rows,
// the unused side list, the two selection maps and the registry of pile
// slots ever seen since the last reload.
//
// Selection maps store only explicit exclusions and re-inclusions; a key
// absent from the map means included. Pile slots survive being emptied so
// the view keeps rendering them as drop targets.
type ViewState struct {
	Rows            []lots.LotRow
	Unused          []lots.LotRow
	UsedCount       int
	Selection       map[string]bool
	UnusedSelection map[string]bool
	Slots           []PileSlot
}

func newViewState() *ViewState {
	return &ViewState{
		Selection:       make(map[string]bool),
		UnusedSelection: make(map[string]bool),
	}
}

func (v *ViewState) registerSlot(s PileSlot) {
	for _, existing := range v.Slots {
		if existing == s {
			return
		}
	}
	v.Slots = append(v.Slots, s)
	sort.SliceStable(v.Slots, func(i, j int) bool {
		if v.Slots[i].Code != v.Slots[j].Code {
			return v.Slots[i].Code < v.Slots[j].Code
		}
		return v.Slots[i].Type < v.Slots[j].Type
	})
}

// Workspace holds the server-side review state for the four result views.
// All mutation goes through the one mutex; handlers never touch the row
// slices directly.
type Workspace struct {
	mu       sync.Mutex
	loader   Loader
	log      zerolog.Logger
	views    map[int]*ViewState
	loadedAt time.Time
}

// NewWorkspace creates an empty workspace.
func NewWorkspace(loader Loader, log zerolog.Logger) *Workspace {
	ws := &Workspace{
		loader: loader,
		log:    log.With().Str("component", "workspace").Logger(),
		views:  make(map[int]*ViewState),
	}
	for which := 1; which <= 4; which++ {
		ws.views[which] = newViewState()
	}
	return ws
}

func rowKey(which int, r lots.LotRow) string       { return r.Key(fmt.Sprintf("%d", which)) }
func unusedRowKey(which int, r lots.LotRow) string { return r.Key(fmt.Sprintf("%d-unused", which)) }

// Reload replaces all view state with fresh reads. The three primary
// result sets are critical: if any of them fails, every view is cleared
// and the error is returned so the caller never sees a half-loaded mix of
// old and new data. The low-recovery view and the unused side lists are
// best effort and degrade to empty.
func (ws *Workspace) Reload(ctx context.Context) error {
	type pileLoad struct {
		rows    []lots.LotRow
		unused  []lots.LotRow
		used    int
		loadErr error
	}

	loads := make([]pileLoad, 5)
	var wg sync.WaitGroup
	for which := 1; which <= 4; which++ {
		wg.Add(1)
		go func(which int) {
			defer wg.Done()
			ld := &loads[which]
			ld.rows, ld.loadErr = ws.loader.PileResults(ctx, which)
			if which == 4 {
				return
			}
			unused, used, err := ws.loader.Unused(ctx, which)
			if err != nil {
				ws.log.Warn().Err(err).Int("which", which).Msg("unused fetch failed, continuing without")
				return
			}
			ld.unused, ld.used = unused, used
		}(which)
	}
	wg.Wait()

	ws.mu.Lock()
	defer ws.mu.Unlock()

	for which := 1; which <= 3; which++ {
		if err := loads[which].loadErr; err != nil {
			for v := 1; v <= 4; v++ {
				ws.views[v] = newViewState()
			}
			ws.loadedAt = time.Time{}
			return fmt.Errorf("loading result set %d: %w", which, err)
		}
	}
	if err := loads[4].loadErr; err != nil {
		ws.log.Warn().Err(err).Msg("low-recovery fetch failed, continuing without")
		loads[4].rows = nil
	}

	for which := 1; which <= 4; which++ {
		state := newViewState()
		state.Rows = loads[which].rows
		state.Unused = loads[which].unused
		state.UsedCount = loads[which].used
		for _, r := range state.Rows {
			if which != 4 {
				state.registerSlot(PileSlot{Code: r.PileCode, Type: r.PileType})
			}
		}
		ws.views[which] = state
	}
	ws.loadedAt = time.Now().UTC()
	return nil
}

// LoadedAt reports when the workspace last reloaded successfully,
// zero when it never has.
func (ws *Workspace) LoadedAt() time.Time {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.loadedAt
}

// Select records an explicit include/exclude for one row.
func (ws *Workspace) Select(which int, key string, unused, included bool) error {
	if which < 1 || which > 4 {
		return fmt.Errorf("invalid view %d", which)
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	state := ws.views[which]
	target := state.Selection
	rows := state.Rows
	keyOf := func(r lots.LotRow) string { return rowKey(which, r) }
	if unused {
		target = state.UnusedSelection
		rows = state.Unused
		keyOf = func(r lots.LotRow) string { return unusedRowKey(which, r) }
	}
	for _, r := range rows {
		if keyOf(r) == key {
			target[key] = included
			return nil
		}
	}
	return fmt.Errorf("row %q not found in view %d", key, which)
}

// Location addresses one side of a view: a pile, or the unused list.
type Location struct {
	Unused   bool          `json:"unused"`
	PileCode int           `json:"pile_code"`
	PileType lots.PileType `json:"pile_type"`
}

// Move reassigns one lot between piles, or between a pile and the unused
// list, within a single view. The lot count is conserved: the row is
// removed from exactly one place and appended to exactly one other. Its
// old selection entry is dropped, so it arrives included.
func (ws *Workspace) Move(which int, key string, to Location) error {
	if which < 1 || which > 3 {
		return fmt.Errorf("view %d does not support reassignment", which)
	}
	if !to.Unused {
		if to.PileCode <= 0 {
			return fmt.Errorf("invalid destination pile code %d", to.PileCode)
		}
		if to.PileType != lots.PileBatch && to.PileType != lots.PileVarios {
			return fmt.Errorf("invalid destination pile type %q", to.PileType)
		}
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	state := ws.views[which]

	row, fromUnused, found := takeRow(state, which, key)
	if !found {
		return fmt.Errorf("row %q not found in view %d", key, which)
	}
	if fromUnused {
		delete(state.UnusedSelection, key)
	} else {
		delete(state.Selection, key)
	}

	if to.Unused {
		row.PileCode = 0
		row.PileType = ""
		state.Unused = append(state.Unused, row)
		return nil
	}
	row.PileCode = to.PileCode
	row.PileType = to.PileType
	state.Rows = append(state.Rows, row)
	state.registerSlot(PileSlot{Code: to.PileCode, Type: to.PileType})
	return nil
}

// takeRow removes and returns the row matching key, searching the pile
// rows first and then the unused list.
func takeRow(state *ViewState, which int, key string) (lots.LotRow, bool, bool) {
	for i, r := range state.Rows {
		if rowKey(which, r) == key {
			state.Rows = append(state.Rows[:i], state.Rows[i+1:]...)
			return r, false, true
		}
	}
	for i, r := range state.Unused {
		if unusedRowKey(which, r) == key {
			state.Unused = append(state.Unused[:i], state.Unused[i+1:]...)
			return r, true, true
		}
	}
	return lots.LotRow{}, false, false
}

// KeyedRow is a lot row together with the key the client uses to address
// it in select and move calls.
type KeyedRow struct {
	RowKey string `json:"key"`
	lots.LotRow
}

// PileView is one rendered pile table of a view response.
type PileView struct {
	PileSlot
	Rows   []KeyedRow `json:"rows"`
	KPIs   KPIs       `json:"kpis"`
	Totals Totals     `json:"totals"`
}

// BucketView is one recovery-classification group of the low-recovery view.
type BucketView struct {
	Class  string     `json:"class"`
	Rows   []KeyedRow `json:"rows"`
	Totals Totals     `json:"totals"`
}

// ViewResponse is the full rendered state of one result view. Totals are
// computed over the included rows only, so the page footer always matches
// what an export of the same view would produce.
type ViewResponse struct {
	View            int             `json:"view"`
	Title           string          `json:"title"`
	Date            string          `json:"date"`
	Piles           []PileView      `json:"piles,omitempty"`
	Buckets         []BucketView    `json:"buckets,omitempty"`
	Unused          []KeyedRow      `json:"unused,omitempty"`
	UsedCount       int             `json:"used_count"`
	Selection       map[string]bool `json:"selection"`
	UnusedSelection map[string]bool `json:"unused_selection"`
	Totals          Totals          `json:"totals"`
}

// View renders the current state of one result view.
func (ws *Workspace) View(which int) (ViewResponse, error) {
	if which < 1 || which > 4 {
		return ViewResponse{}, fmt.Errorf("invalid view %d", which)
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	state := ws.views[which]

	included := FilterSelected(state.Rows, state.Selection, func(r lots.LotRow) string {
		return rowKey(which, r)
	})

	resp := ViewResponse{
		View:            which,
		Title:           viewTitles[which],
		Date:            lots.FormatDDMMYYYY(lots.PileDate(state.Rows)),
		UsedCount:       state.UsedCount,
		Selection:       copyBoolMap(state.Selection),
		UnusedSelection: copyBoolMap(state.UnusedSelection),
		Totals:          TotalsFor(included),
	}

	if which == 4 {
		for _, b := range GroupLowRecByClass(state.Rows) {
			inc := FilterSelected(b.Rows, state.Selection, func(r lots.LotRow) string {
				return rowKey(which, r)
			})
			resp.Buckets = append(resp.Buckets, BucketView{
				Class:  b.Class,
				Rows:   keyedRows(which, b.Rows, rowKey),
				Totals: TotalsFor(inc),
			})
		}
		return resp, nil
	}

	piles := GroupByPile(state.Rows)
	bySlot := make(map[PileSlot][]lots.LotRow, len(piles))
	for _, p := range piles {
		bySlot[p.PileSlot] = p.Rows
	}
	for _, slot := range state.Slots {
		rows := bySlot[slot]
		inc := FilterSelected(rows, state.Selection, func(r lots.LotRow) string {
			return rowKey(which, r)
		})
		resp.Piles = append(resp.Piles, PileView{
			PileSlot: slot,
			Rows:     keyedRows(which, rows, rowKey),
			KPIs:     KPIsFor(inc),
			Totals:   TotalsFor(inc),
		})
	}
	resp.Unused = keyedRows(which, state.Unused, unusedRowKey)
	return resp, nil
}

func keyedRows(which int, rows []lots.LotRow, key func(int, lots.LotRow) string) []KeyedRow {
	out := make([]KeyedRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, KeyedRow{RowKey: key(which, r), LotRow: r})
	}
	return out
}

func copyBoolMap(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ExportView is the included-rows-only projection of a view handed to the
// document renderers.
type ExportView struct {
	View    int
	Title   string
	Date    time.Time
	Piles   []Pile
	Buckets []ClassBucket
	Rows    []lots.LotRow
}

// ExportData snapshots the included rows of one view for rendering. It
// fails when nothing is included so callers can refuse to produce an
// empty document.
func (ws *Workspace) ExportData(which int) (ExportView, error) {
	if which < 1 || which > 4 {
		return ExportView{}, fmt.Errorf("invalid view %d", which)
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	state := ws.views[which]

	included := FilterSelected(state.Rows, state.Selection, func(r lots.LotRow) string {
		return rowKey(which, r)
	})
	if len(included) == 0 {
		return ExportView{}, fmt.Errorf("no rows selected in view %d", which)
	}

	ev := ExportView{
		View:  which,
		Title: viewTitles[which],
		Date:  lots.PileDate(state.Rows),
		Rows:  included,
	}
	if which == 4 {
		ev.Buckets = GroupLowRecByClass(included)
		return ev, nil
	}
	for _, p := range GroupByPile(included) {
		if len(p.Rows) == 0 {
			continue
		}
		ev.Piles = append(ev.Piles, p)
	}
	return ev, nil
}
