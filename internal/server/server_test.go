package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvdops/blendboard/internal/clients/openai"
	"github.com/mvdops/blendboard/internal/clients/runner"
	"github.com/mvdops/blendboard/internal/clients/supabase"
	"github.com/mvdops/blendboard/internal/config"
	"github.com/mvdops/blendboard/internal/database"
	"github.com/mvdops/blendboard/internal/modules/auth"
	authhandlers "github.com/mvdops/blendboard/internal/modules/auth/handlers"
	"github.com/mvdops/blendboard/internal/modules/blend"
	blendhandlers "github.com/mvdops/blendboard/internal/modules/blend/handlers"
	exporthandlers "github.com/mvdops/blendboard/internal/modules/exports/handlers"
	"github.com/mvdops/blendboard/internal/modules/lots"
	lothandlers "github.com/mvdops/blendboard/internal/modules/lots/handlers"
	"github.com/mvdops/blendboard/internal/modules/market"
	markethandlers "github.com/mvdops/blendboard/internal/modules/market/handlers"
	solverhandlers "github.com/mvdops/blendboard/internal/modules/solver/handlers"
)

// newTestServer wires a full server against an empty fake gateway, the way
// main does, with the session gate enabled.
func newTestServer(t *testing.T, webPass string) *Server {
	t.Helper()
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	}))
	t.Cleanup(gateway.Close)

	log := zerolog.Nop()
	sb := supabase.New(gateway.URL, "key", log)
	run := runner.New("", "", log)

	db, err := database.New(database.Config{Path: "file::memory:", Name: "cache-test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	cache, err := market.NewCommentCache(db, log)
	require.NoError(t, err)

	repo := lots.NewRepository(sb, log)
	ws := blend.NewWorkspace(repo, log)
	authState := auth.NewState(webPass)

	mh, err := markethandlers.NewHandler(
		market.NewSnapshotBuilder(sb, log), cache,
		openai.New("", "", log), "gpt-5-mini", log)
	require.NoError(t, err)

	return New(Config{
		Log:            log,
		Config:         &config.Config{},
		Port:           0,
		AuthState:      authState,
		AuthHandlers:   authhandlers.NewHandler(authState, log),
		LotHandlers:    lothandlers.NewHandler(repo, log),
		BlendHandlers:  blendhandlers.NewHandler(ws, log),
		ExportHandlers: exporthandlers.NewHandler(ws, t.TempDir(), log),
		MarketHandlers: mh,
		SolverHandlers: solverhandlers.NewHandler(run, log),
		SystemHandlers: NewSystemHandlers(log, run),
	})
}

func TestHealthIsOpen(t *testing.T) {
	srv := newTestServer(t, "secreto")

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAPIRequiresSession(t *testing.T) {
	srv := newTestServer(t, "secreto")

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lotes", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Login, then retry with the token.
	body, _ := json.Marshal(map[string]string{"password": "secreto"})
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var login map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login["token"])

	req := httptest.NewRequest(http.MethodGet, "/api/lotes", nil)
	req.Header.Set(auth.TokenHeader, login["token"])
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIOpenWithoutPassword(t *testing.T) {
	srv := newTestServer(t, "")

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lotes", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/workspace/view/1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSystemStatusIsOpen(t *testing.T) {
	srv := newTestServer(t, "secreto")

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/system/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
