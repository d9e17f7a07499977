// Blendboard server entry point.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

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
	"github.com/mvdops/blendboard/internal/modules/solver"
	solverhandlers "github.com/mvdops/blendboard/internal/modules/solver/handlers"
	"github.com/mvdops/blendboard/internal/scheduler"
	"github.com/mvdops/blendboard/internal/server"
	"github.com/mvdops/blendboard/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config failed; use a default logger to report the error
		log := logger.New(logger.Config{Level: "info", Pretty: true})
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	log.Info().
		Int("port", cfg.Port).
		Str("log_level", cfg.LogLevel).
		Bool("dev_mode", cfg.DevMode).
		Msg("Starting Blendboard server")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Local cache database (market commentary)
	cacheDB, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "cache.db"),
		Name: "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer func() {
		if err := cacheDB.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close cache database")
		}
	}()

	// External service clients
	sb := supabase.New(cfg.SupabaseURL, cfg.SupabaseKey, log)
	run := runner.New(cfg.RunnerURL, cfg.RunnerSecret, log)
	ai := openai.New(cfg.OpenAIKey, "", log)

	// Domain wiring
	repo := lots.NewRepository(sb, log)
	workspace := blend.NewWorkspace(repo, log)

	commentCache, err := market.NewCommentCache(cacheDB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize comment cache")
	}
	snapshots := market.NewSnapshotBuilder(sb, log)

	marketHandlers, err := markethandlers.NewHandler(snapshots, commentCache, ai, cfg.OpenAICommentModel, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize market handlers")
	}

	authState := auth.NewState(cfg.WebPass)
	if !authState.Enabled() {
		log.Warn().Msg("WEB_PASS not set; session gate disabled")
	}

	// Scheduled ETL refresh (optional)
	sched := scheduler.New(log)
	if cfg.ETLSchedule != "" {
		if err := sched.AddJob(cfg.ETLSchedule, solver.NewETLJob(run, log)); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.ETLSchedule).Msg("Invalid ETL schedule")
		}
	}
	sched.Start()

	srv := server.New(server.Config{
		Log:     log,
		Config:  cfg,
		Port:    cfg.Port,
		DevMode: cfg.DevMode,

		AuthState:      authState,
		AuthHandlers:   authhandlers.NewHandler(authState, log),
		LotHandlers:    lothandlers.NewHandler(repo, log),
		BlendHandlers:  blendhandlers.NewHandler(workspace, log),
		ExportHandlers: exporthandlers.NewHandler(workspace, cfg.DataDir, log),
		MarketHandlers: marketHandlers,
		SolverHandlers: solverhandlers.NewHandler(run, log),
		SystemHandlers: server.NewSystemHandlers(log, run),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Server stopped")
}
