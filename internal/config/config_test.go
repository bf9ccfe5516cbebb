package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setEnvs sets the required env vars plus any extras, with t.Setenv cleanup.
func setEnvs(t *testing.T, extra map[string]string) {
	t.Helper()
	t.Setenv("GENERATION_URL", "http://gen.local/api/message")
	t.Setenv("SCORING_URL", "http://score.local/api/score")
	t.Setenv("SYNTHESIS_URL", "http://tts.local/v1/text-to-speech")
	for k, v := range extra {
		t.Setenv(k, v)
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setEnvs(t, nil)
		cfg, err := Load(Overrides{EnvFile: filepath.Join(t.TempDir(), "missing.env")})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":8080" {
			t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
		}
		if cfg.DefaultAccent != "us" {
			t.Errorf("DefaultAccent = %q, want us", cfg.DefaultAccent)
		}
		if cfg.SampleInterval != 200*time.Millisecond {
			t.Errorf("SampleInterval = %v, want 200ms", cfg.SampleInterval)
		}
		if cfg.GatewayTimeout != 30*time.Second {
			t.Errorf("GatewayTimeout = %v, want 30s", cfg.GatewayTimeout)
		}
		if cfg.SynthesisModelID != "eleven_multilingual_v2" {
			t.Errorf("SynthesisModelID = %q", cfg.SynthesisModelID)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
		}
	})

	t.Run("env_vars_read", func(t *testing.T) {
		setEnvs(t, map[string]string{
			"HTTP_ADDR":       ":9999",
			"DEFAULT_ACCENT":  "gb",
			"SAMPLE_INTERVAL": "100ms",
			"AUTH_TOKEN":      "secret",
		})
		cfg, err := Load(Overrides{EnvFile: filepath.Join(t.TempDir(), "missing.env")})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":9999" {
			t.Errorf("HTTPAddr = %q, want :9999", cfg.HTTPAddr)
		}
		if cfg.DefaultAccent != "gb" {
			t.Errorf("DefaultAccent = %q, want gb", cfg.DefaultAccent)
		}
		if cfg.SampleInterval != 100*time.Millisecond {
			t.Errorf("SampleInterval = %v, want 100ms", cfg.SampleInterval)
		}
		if cfg.AuthToken != "secret" {
			t.Errorf("AuthToken = %q, want secret", cfg.AuthToken)
		}
	})

	t.Run("cli_overrides_take_priority", func(t *testing.T) {
		setEnvs(t, map[string]string{"HTTP_ADDR": ":9999", "LOG_LEVEL": "warn"})
		cfg, err := Load(Overrides{
			EnvFile:       filepath.Join(t.TempDir(), "missing.env"),
			HTTPAddr:      ":7070",
			LogLevel:      "debug",
			GenerationURL: "http://flag.local/gen",
		})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":7070" {
			t.Errorf("HTTPAddr = %q, want :7070", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
		}
		if cfg.GenerationURL != "http://flag.local/gen" {
			t.Errorf("GenerationURL = %q", cfg.GenerationURL)
		}
	})

	t.Run("env_file_loaded", func(t *testing.T) {
		setEnvs(t, nil)
		dir := t.TempDir()
		envFile := filepath.Join(dir, "test.env")
		content := "SYNTHESIS_API_KEY=from-file\nHTTP_ADDR=:6060\n"
		if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, err := Load(Overrides{EnvFile: envFile})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.SynthesisAPIKey != "from-file" {
			t.Errorf("SynthesisAPIKey = %q, want from-file", cfg.SynthesisAPIKey)
		}
		if cfg.HTTPAddr != ":6060" {
			t.Errorf("HTTPAddr = %q, want :6060", cfg.HTTPAddr)
		}
	})
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("GENERATION_URL", "")
	t.Setenv("SCORING_URL", "")
	t.Setenv("SYNTHESIS_URL", "")
	os.Unsetenv("GENERATION_URL")
	os.Unsetenv("SCORING_URL")
	os.Unsetenv("SYNTHESIS_URL")

	if _, err := Load(Overrides{EnvFile: filepath.Join(t.TempDir(), "missing.env")}); err == nil {
		t.Fatal("expected error for missing required URLs")
	}
}
