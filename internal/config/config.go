package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	GenerationURL    string `env:"GENERATION_URL,required"`
	ScoringURL       string `env:"SCORING_URL,required"`
	SynthesisURL     string `env:"SYNTHESIS_URL,required"`
	SynthesisAPIKey  string `env:"SYNTHESIS_API_KEY"`
	SynthesisModelID string `env:"SYNTHESIS_MODEL_ID" envDefault:"eleven_multilingual_v2"`

	GatewayTimeout time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"30s"`

	DefaultAccent  string        `env:"DEFAULT_ACCENT" envDefault:"us"`
	AccentsFile    string        `env:"ACCENTS_FILE"`
	SampleInterval time.Duration `env:"SAMPLE_INTERVAL" envDefault:"200ms"`

	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	AuthToken string `env:"AUTH_TOKEN"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile       string
	HTTPAddr      string
	LogLevel      string
	GenerationURL string
	ScoringURL    string
	SynthesisURL  string
	AccentsFile   string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	// Parse environment variables into config struct
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Apply CLI overrides (non-empty values win)
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.GenerationURL != "" {
		cfg.GenerationURL = overrides.GenerationURL
	}
	if overrides.ScoringURL != "" {
		cfg.ScoringURL = overrides.ScoringURL
	}
	if overrides.SynthesisURL != "" {
		cfg.SynthesisURL = overrides.SynthesisURL
	}
	if overrides.AccentsFile != "" {
		cfg.AccentsFile = overrides.AccentsFile
	}

	return cfg, nil
}
