package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvdops/blendboard/internal/clients/supabase"
	"github.com/mvdops/blendboard/internal/modules/lots"
)

// fakeGateway answers the staging and zone reads the way the REST gateway
// would.
func fakeGateway(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		sel := r.URL.Query().Get("select")
		switch {
		case strings.HasPrefix(sel, "loaded_at"):
			fmt.Fprint(w, `[{"loaded_at":"2026-03-03T06:00:00"}]`)
		case sel == "zona":
			fmt.Fprint(w, `[{"zona":"NORTE"},{"zona":"SUR"}]`)
		default:
			fmt.Fprint(w, `[
				{"codigo":"A","zona":"NORTE","tmh":100,"tms":90,"au_gr_ton":10,"rec_pct":80},
				{"codigo":"B","zona":"SUR","tmh":50,"tms":45,"au_gr_ton":2},
				{"codigo":"C","zona":"","tmh":70,"tms":60}
			]`)
		}
	}))
}

func newTestRouter(t *testing.T) (*chi.Mux, func()) {
	t.Helper()
	srv := fakeGateway(t)
	repo := lots.NewRepository(supabase.New(srv.URL, "key", zerolog.Nop()), zerolog.Nop())

	r := chi.NewRouter()
	NewHandler(repo, zerolog.Nop()).RegisterRoutes(r)
	return r, srv.Close
}

func getLotes(t *testing.T, router *chi.Mux, query string) (int, []string) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lotes"+query, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int           `json:"count"`
		Rows  []lots.LotRow `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	codes := make([]string, 0, len(body.Rows))
	for _, r := range body.Rows {
		codes = append(codes, r.Codigo)
	}
	return body.Count, codes
}

func TestHandleGetLotes(t *testing.T) {
	router, done := newTestRouter(t)
	defer done()

	count, codes := getLotes(t, router, "")
	assert.Equal(t, 3, count)
	assert.Equal(t, []string{"A", "B", "C"}, codes)
}

func TestHandleGetLotesRangeFilter(t *testing.T) {
	router, done := newTestRouter(t)
	defer done()

	// an active range drops out-of-bounds rows and rows missing the value
	_, codes := getLotes(t, router, "?au_min=5")
	assert.Equal(t, []string{"A"}, codes)

	_, codes = getLotes(t, router, "?tmh_min=60&tmh_max=80")
	assert.Equal(t, []string{"C"}, codes)
}

func TestHandleGetLotesZoneFilter(t *testing.T) {
	router, done := newTestRouter(t)
	defer done()

	_, codes := getLotes(t, router, "?zones=NORTE")
	assert.Equal(t, []string{"A"}, codes)

	// selecting every known zone constrains nothing, blank zones included
	_, codes = getLotes(t, router, "?zones=NORTE,SUR")
	assert.Equal(t, []string{"A", "B", "C"}, codes)
}

func TestHandleGetLotesBadFilterParam(t *testing.T) {
	router, done := newTestRouter(t)
	defer done()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lotes?au_min=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
