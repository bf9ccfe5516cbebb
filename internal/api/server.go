package api

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/snarg/accent-trainer/internal/accent"
	"github.com/snarg/accent-trainer/internal/config"
	"github.com/snarg/accent-trainer/internal/events"
	"github.com/snarg/accent-trainer/internal/metrics"
	"github.com/snarg/accent-trainer/internal/trainer"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

// NewServer wires the trainer API, SSE stream, health, metrics and the
// embedded web UI onto one router.
func NewServer(cfg *config.Config, ctrl *trainer.Controller, accents *accent.Set, bus *events.Bus, webFS fs.FS, version string, startTime time.Time, log zerolog.Logger) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(log))
	r.Use(CORS)
	r.Use(metrics.InstrumentHandler)

	// Health and metrics — no auth
	health := NewHealthHandler(ctrl, accents, bus, version, startTime)
	r.Get("/api/v1/health", health.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated API
	trials := NewTrainerHandler(ctrl, accents)
	evts := NewEventsHandler(bus)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuth(cfg.AuthToken))
		trials.Routes(r)
		evts.Routes(r)
	})

	// Embedded web UI
	if webFS != nil {
		r.Handle("/*", http.FileServer(http.FS(webFS)))
	}

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
