package handlers

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvdops/blendboard/internal/modules/blend"
	"github.com/mvdops/blendboard/internal/modules/lots"
)

type stubLoader struct{ empty bool }

func (s stubLoader) PileResults(_ context.Context, which int) ([]lots.LotRow, error) {
	if s.empty || which != 1 {
		return nil, nil
	}
	return []lots.LotRow{{
		Codigo:   "L-001",
		PileCode: 1,
		PileType: lots.PileVarios,
		Tms:      lots.Num(100),
		LoadedAt: "2026-03-03T00:00:00Z",
	}}, nil
}

func (stubLoader) Unused(_ context.Context, _ int) ([]lots.LotRow, int, error) {
	return nil, 0, nil
}

func newTestRouter(t *testing.T, loader blend.Loader) *chi.Mux {
	t.Helper()
	ws := blend.NewWorkspace(loader, zerolog.Nop())
	require.NoError(t, ws.Reload(context.Background()))

	r := chi.NewRouter()
	NewHandler(ws, "", zerolog.Nop()).RegisterRoutes(r)
	return r
}

func TestHandleExportPDF(t *testing.T) {
	router := newTestRouter(t, stubLoader{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/export/pdf?which=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Export_Resultado1_03-03-2026.pdf")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestHandleExportPDFLogoFromDataDir(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 12))))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "export_logo.png"), buf.Bytes(), 0o644))

	ws := blend.NewWorkspace(stubLoader{}, zerolog.Nop())
	require.NoError(t, ws.Reload(context.Background()))

	plainRouter := chi.NewRouter()
	NewHandler(ws, "", zerolog.Nop()).RegisterRoutes(plainRouter)
	logoRouter := chi.NewRouter()
	NewHandler(ws, dir, zerolog.Nop()).RegisterRoutes(logoRouter)

	plain := httptest.NewRecorder()
	plainRouter.ServeHTTP(plain, httptest.NewRequest(http.MethodPost, "/export/pdf?which=1", nil))
	require.Equal(t, http.StatusOK, plain.Code)

	withLogo := httptest.NewRecorder()
	logoRouter.ServeHTTP(withLogo, httptest.NewRequest(http.MethodPost, "/export/pdf?which=1", nil))
	require.Equal(t, http.StatusOK, withLogo.Code)

	assert.Greater(t, withLogo.Body.Len(), plain.Body.Len(), "logo should be embedded")
}

func TestHandleExportExcel(t *testing.T) {
	router := newTestRouter(t, stubLoader{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/export/excel?which=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.Equal(t, "PK", rec.Body.String()[:2])
}

func TestHandleExportNothingSelected(t *testing.T) {
	router := newTestRouter(t, stubLoader{empty: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/export/pdf?which=1", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestHandleExportBadWhich(t *testing.T) {
	router := newTestRouter(t, stubLoader{})

	for _, q := range []string{"", "?which=0", "?which=9", "?which=x"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/export/pdf"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}
