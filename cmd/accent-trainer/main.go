package main

import (
	"context"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	accenttrainer "github.com/snarg/accent-trainer"
	"github.com/snarg/accent-trainer/internal/accent"
	"github.com/snarg/accent-trainer/internal/api"
	"github.com/snarg/accent-trainer/internal/config"
	"github.com/snarg/accent-trainer/internal/events"
	"github.com/snarg/accent-trainer/internal/gateway"
	"github.com/snarg/accent-trainer/internal/metrics"
	"github.com/snarg/accent-trainer/internal/playback"
	"github.com/snarg/accent-trainer/internal/trainer"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env", "", "path to .env file (default .env)")
	flag.StringVar(&overrides.HTTPAddr, "addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	flag.StringVar(&overrides.GenerationURL, "generation-url", "", "prompt generation endpoint (overrides GENERATION_URL)")
	flag.StringVar(&overrides.ScoringURL, "scoring-url", "", "transcript scoring endpoint (overrides SCORING_URL)")
	flag.StringVar(&overrides.SynthesisURL, "synthesis-url", "", "speech synthesis endpoint (overrides SYNTHESIS_URL)")
	flag.StringVar(&overrides.AccentsFile, "accents", "", "path to accents JSON file (overrides ACCENTS_FILE)")
	flag.Parse()

	// Config
	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("accent-trainer starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Accent table
	accents := accent.Default()
	if cfg.AccentsFile != "" {
		accents, err = accent.Load(cfg.AccentsFile)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.AccentsFile).Msg("failed to load accents file")
		}
	}
	if _, ok := accents.Lookup(cfg.DefaultAccent); !ok {
		log.Fatal().Str("accent", cfg.DefaultAccent).Msg("default accent is not in the accent table")
	}
	log.Info().Int("accents", accents.Len()).Str("default", cfg.DefaultAccent).Msg("accent table loaded")

	// Event bus
	bus := events.NewBus(256)

	// Playback session publishes progress ticks onto the bus
	session := playback.NewSession(playback.DefaultFormat, cfg.SampleInterval, func(s playback.Snapshot) {
		bus.Publish(events.TypeProgress, s)
	})

	// Gateway
	gwLog := log.With().Str("component", "gateway").Logger()
	gw := gateway.NewClient(gateway.Options{
		GenerationURL: cfg.GenerationURL,
		SynthesisURL:  cfg.SynthesisURL,
		ScoringURL:    cfg.ScoringURL,
		APIKey:        cfg.SynthesisAPIKey,
		ModelID:       cfg.SynthesisModelID,
		Timeout:       cfg.GatewayTimeout,
	}, gwLog)

	// Trial controller and live-stats collector
	ctrl := trainer.NewController(gw, session, accents, bus, cfg.DefaultAccent, log)
	prometheus.MustRegister(metrics.NewCollector(bus, ctrl))

	// Embedded web UI
	webFS, err := fs.Sub(accenttrainer.WebFiles, "web")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open embedded web files")
	}

	// HTTP Server
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(cfg, ctrl, accents, bus, webFS, version, startTime, httpLog)

	// Start HTTP server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	// Graceful shutdown with 10s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("accent-trainer stopped")
}
