//go:build !integration

package config

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	t.Run("should fill every zero-valued knob", func(t *testing.T) {
		var cfg Config
		cfg.ApplyDefaults()

		if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
			t.Errorf("unexpected log defaults: %+v", cfg.Log)
		}
		if cfg.Admin.Port != 8081 {
			t.Errorf("expected admin port 8081, got %d", cfg.Admin.Port)
		}
		if cfg.AI.ConcurrentLimit != 16 {
			t.Errorf("expected concurrent limit 16, got %d", cfg.AI.ConcurrentLimit)
		}
		if cfg.AI.DefaultModel == "" {
			t.Error("expected a default model")
		}
		if cfg.Ingest.Workers != 4 {
			t.Errorf("expected 4 workers, got %d", cfg.Ingest.Workers)
		}
		if cfg.Ingest.PollInterval != 2*time.Second {
			t.Errorf("expected poll interval 2s, got %v", cfg.Ingest.PollInterval)
		}
		if cfg.Ingest.MaxAttempts != 3 {
			t.Errorf("expected 3 attempts, got %d", cfg.Ingest.MaxAttempts)
		}
		if cfg.Ingest.BaseDelay != time.Second {
			t.Errorf("expected base delay 1s, got %v", cfg.Ingest.BaseDelay)
		}
		if cfg.Ingest.MaxTextTokens != 6000 {
			t.Errorf("expected 6000 text tokens, got %d", cfg.Ingest.MaxTextTokens)
		}
		if cfg.Ingest.OCRLanguage != "eng" {
			t.Errorf("expected OCR language 'eng', got %q", cfg.Ingest.OCRLanguage)
		}
		if cfg.Ingest.TesseractPath != "tesseract" {
			t.Errorf("expected tesseract on PATH, got %q", cfg.Ingest.TesseractPath)
		}
		if cfg.Ingest.RunLockTTL != 5*time.Minute {
			t.Errorf("expected run lock TTL 5m, got %v", cfg.Ingest.RunLockTTL)
		}
		if cfg.Ingest.StaleAfter != 30*time.Minute {
			t.Errorf("expected stale age 30m, got %v", cfg.Ingest.StaleAfter)
		}
		if cfg.Ingest.ReapInterval != 5*time.Minute {
			t.Errorf("expected reap interval 5m, got %v", cfg.Ingest.ReapInterval)
		}
		if cfg.Redis.TTL != time.Hour {
			t.Errorf("expected redis TTL 1h, got %v", cfg.Redis.TTL)
		}
	})

	t.Run("should keep explicitly set values", func(t *testing.T) {
		cfg := Config{
			Log: LogConfig{Level: "debug", Format: "console"},
			Ingest: IngestConfig{
				Workers:      8,
				MaxAttempts:  5,
				BaseDelay:    250 * time.Millisecond,
				OCRLanguage:  "deu",
				StaleAfter:   time.Hour,
				ReapInterval: time.Minute,
			},
		}
		cfg.ApplyDefaults()

		if cfg.Log.Level != "debug" || cfg.Log.Format != "console" {
			t.Errorf("log settings overwritten: %+v", cfg.Log)
		}
		if cfg.Ingest.Workers != 8 {
			t.Errorf("workers overwritten: %d", cfg.Ingest.Workers)
		}
		if cfg.Ingest.MaxAttempts != 5 {
			t.Errorf("max attempts overwritten: %d", cfg.Ingest.MaxAttempts)
		}
		if cfg.Ingest.BaseDelay != 250*time.Millisecond {
			t.Errorf("base delay overwritten: %v", cfg.Ingest.BaseDelay)
		}
		if cfg.Ingest.OCRLanguage != "deu" {
			t.Errorf("OCR language overwritten: %q", cfg.Ingest.OCRLanguage)
		}
		if cfg.Ingest.StaleAfter != time.Hour {
			t.Errorf("stale age overwritten: %v", cfg.Ingest.StaleAfter)
		}
		if cfg.Ingest.ReapInterval != time.Minute {
			t.Errorf("reap interval overwritten: %v", cfg.Ingest.ReapInterval)
		}
	})
}
