// Package server provides the HTTP server and routing for the dashboard API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/mvdops/blendboard/internal/config"
	"github.com/mvdops/blendboard/internal/modules/auth"
	authhandlers "github.com/mvdops/blendboard/internal/modules/auth/handlers"
	blendhandlers "github.com/mvdops/blendboard/internal/modules/blend/handlers"
	exporthandlers "github.com/mvdops/blendboard/internal/modules/exports/handlers"
	lothandlers "github.com/mvdops/blendboard/internal/modules/lots/handlers"
	markethandlers "github.com/mvdops/blendboard/internal/modules/market/handlers"
	solverhandlers "github.com/mvdops/blendboard/internal/modules/solver/handlers"
)

// Config holds everything the server wires together.
type Config struct {
	Log     zerolog.Logger
	Config  *config.Config
	Port    int
	DevMode bool

	AuthState      *auth.State
	AuthHandlers   *authhandlers.Handler
	LotHandlers    *lothandlers.Handler
	BlendHandlers  *blendhandlers.Handler
	ExportHandlers *exporthandlers.Handler
	MarketHandlers *markethandlers.Handler
	SolverHandlers *solverhandlers.Handler
	SystemHandlers *SystemHandlers
}

// Server is the HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    Config
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log,
		cfg:    cfg,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Minute, // solver runs can take a while
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.TokenHeader},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes. Login, health and system status stay
// outside the session gate; everything else under /api requires a token.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		s.cfg.AuthHandlers.RegisterRoutes(r)
		r.Get("/system/status", s.cfg.SystemHandlers.HandleSystemStatus)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.cfg.AuthState))
			// Solver and ETL proxies are exempt from the global request
			// timeout: a run legitimately takes minutes.
			s.cfg.SolverHandlers.RegisterRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(60 * time.Second))
				s.cfg.LotHandlers.RegisterRoutes(r)
				s.cfg.BlendHandlers.RegisterRoutes(r)
				s.cfg.ExportHandlers.RegisterRoutes(r)
				s.cfg.MarketHandlers.RegisterRoutes(r)
			})
		})
	})
}

// handleHealth is the unauthenticated liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the handler tree for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
