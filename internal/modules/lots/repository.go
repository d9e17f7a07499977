package lots

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mvdops/blendboard/internal/clients/supabase"
)

const stagingTable = "stg_lotes_daily"

// stagingColumns matches the column list the dashboard reads from staging.
const stagingColumns = "codigo,zona,tmh,humedad_pct,tms,au_gr_ton,cu_pct,rec_pct,naoh_kg_t,nacn_kg_t,loaded_at,created_at"

// ResultTable maps a view number to its pile-result table.
// 1-3 are solver outputs, 4 is the low-recovery reject set.
func ResultTable(which int) (string, error) {
	if which < 1 || which > 4 {
		return "", fmt.Errorf("which must be 1, 2, 3 or 4")
	}
	return fmt.Sprintf("res_pila_%d", which), nil
}

// Repository reads lot rows through the Supabase gateway. All reads, no
// writes: persistence happens only through the external runner.
type Repository struct {
	sb  *supabase.Client
	log zerolog.Logger
}

// NewRepository creates a new lot repository.
func NewRepository(sb *supabase.Client, log zerolog.Logger) *Repository {
	return &Repository{
		sb:  sb,
		log: log.With().Str("repository", "lots").Logger(),
	}
}

// Staging returns all rows of the lot-staging table, ordered by zone.
func (r *Repository) Staging(ctx context.Context) ([]LotRow, error) {
	var rows []LotRow
	err := r.sb.Rows(ctx, supabase.Query{
		Table:  stagingTable,
		Select: stagingColumns,
		Order:  []string{"zona.asc"},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to load staging lots: %w", err)
	}
	return rows, nil
}

// PileResults returns the rows of the given pile-result table.
// Views 1-3 come back by pile code then id; the low-recovery view comes
// back by recovery class then recovery ascending.
func (r *Repository) PileResults(ctx context.Context, which int) ([]LotRow, error) {
	table, err := ResultTable(which)
	if err != nil {
		return nil, err
	}

	order := []string{"pile_code.asc", "id.asc"}
	if which == 4 {
		order = []string{"rec_class.asc", "rec_pct.asc"}
	}

	var rows []LotRow
	if err := r.sb.Rows(ctx, supabase.Query{Table: table, Order: order}, &rows); err != nil {
		return nil, fmt.Errorf("failed to load result %d: %w", which, err)
	}
	return rows, nil
}

// Unused returns the staging rows whose codigo is not present in the given
// pile-result table, plus the count of used codes. Only views 1-3 have an
// unused complement.
func (r *Repository) Unused(ctx context.Context, which int) ([]LotRow, int, error) {
	if which < 1 || which > 3 {
		return nil, 0, fmt.Errorf("which must be 1, 2 or 3")
	}
	table, err := ResultTable(which)
	if err != nil {
		return nil, 0, err
	}

	var used []struct {
		Codigo string `json:"codigo"`
	}
	if err := r.sb.Rows(ctx, supabase.Query{Table: table, Select: "codigo"}, &used); err != nil {
		return nil, 0, fmt.Errorf("failed to load used codes for result %d: %w", which, err)
	}

	codes := make([]string, 0, len(used))
	for _, u := range used {
		if c := strings.TrimSpace(u.Codigo); c != "" {
			codes = append(codes, c)
		}
	}

	q := supabase.Query{
		Table: stagingTable,
		Order: []string{"zona.asc", "codigo.asc", "loaded_at.desc"},
	}
	if len(codes) > 0 {
		q.Filters = []string{"codigo=not.in." + supabase.InList(codes)}
	}

	var rows []LotRow
	if err := r.sb.Rows(ctx, q, &rows); err != nil {
		return nil, 0, fmt.Errorf("failed to load unused lots for result %d: %w", which, err)
	}
	return rows, len(codes), nil
}

// Zones returns the distinct zone names from the most recent staging load,
// deduplicated case-insensitively and sorted with Spanish collation.
func (r *Repository) Zones(ctx context.Context) ([]string, error) {
	var last []struct {
		LoadedAt string `json:"loaded_at"`
	}
	err := r.sb.Rows(ctx, supabase.Query{
		Table:   stagingTable,
		Select:  "loaded_at",
		Filters: []string{"loaded_at=not.is.null"},
		Order:   []string{"loaded_at.desc"},
		Limit:   1,
	}, &last)
	if err != nil {
		return nil, fmt.Errorf("failed to find latest staging load: %w", err)
	}

	q := supabase.Query{Table: stagingTable, Select: "zona"}
	if len(last) > 0 && last[0].LoadedAt != "" {
		q.Filters = []string{"loaded_at=eq." + last[0].LoadedAt}
	}

	var raw []struct {
		Zona string `json:"zona"`
	}
	if err := r.sb.Rows(ctx, q, &raw); err != nil {
		return nil, fmt.Errorf("failed to load zones: %w", err)
	}

	names := make([]string, 0, len(raw))
	for _, z := range raw {
		if v := strings.TrimSpace(z.Zona); v != "" {
			names = append(names, v)
		}
	}
	return DedupeZones(names), nil
}

// DedupeZones removes case-insensitive duplicates (first spelling wins) and
// sorts with Spanish collation.
func DedupeZones(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, z := range names {
		k := strings.ToLower(z)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, z)
	}
	collate.New(language.Spanish).SortStrings(out)
	return out
}
