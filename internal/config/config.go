// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"` // empty disables the run guard
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AIConfig struct {
	OpenAIKey       string `yaml:"openai_key"`
	GeminiKey       string `yaml:"gemini_key"`
	GatewayKey      string `yaml:"gateway_key"`      // OpenAI-compatible gateway
	GatewayBaseURL  string `yaml:"gateway_base_url"` // e.g. self-hosted vLLM
	DefaultModel    string `yaml:"default_model"`
	ConcurrentLimit int    `yaml:"concurrent_limit"` // max concurrent AI calls
}

type IngestConfig struct {
	Workers       int           `yaml:"workers"`         // pipeline worker pool size
	PollInterval  time.Duration `yaml:"poll_interval"`   // pending-file claim cadence
	MaxAttempts   int           `yaml:"max_attempts"`    // extraction attempts per run
	BaseDelay     time.Duration `yaml:"base_delay"`      // linear backoff unit
	MaxTextTokens int           `yaml:"max_text_tokens"` // prompt budget for document text
	OCRLanguage   string        `yaml:"ocr_language"`
	TesseractPath string        `yaml:"tesseract_path"`
	StorageRoot   string        `yaml:"storage_root"`  // directory holding uploaded blobs
	RunLockTTL    time.Duration `yaml:"run_lock_ttl"`  // per-file run guard expiry
	StaleAfter    time.Duration `yaml:"stale_after"`   // in-flight age before the reaper fails a file
	ReapInterval  time.Duration `yaml:"reap_interval"` // stale sweep cadence
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Ingest   IngestConfig   `yaml:"ingest"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig() (*Config, error) {
	var configPath string = ""
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Ingest.StorageRoot == "" {
		return nil, errors.New("ingest.storage_root is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// ApplyDefaults fills every zero-valued knob. Split out of LoadConfig so
// tests and the one-shot CLI can start from a literal Config.
func (cfg *Config) ApplyDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.Port <= 0 {
		cfg.Admin.Port = 8081
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o-mini"
	}
	if cfg.Ingest.Workers <= 0 {
		cfg.Ingest.Workers = 4
	}
	if cfg.Ingest.PollInterval <= 0 {
		cfg.Ingest.PollInterval = 2 * time.Second
	}
	if cfg.Ingest.MaxAttempts <= 0 {
		cfg.Ingest.MaxAttempts = 3
	}
	if cfg.Ingest.BaseDelay <= 0 {
		cfg.Ingest.BaseDelay = time.Second
	}
	if cfg.Ingest.MaxTextTokens <= 0 {
		cfg.Ingest.MaxTextTokens = 6000
	}
	if cfg.Ingest.OCRLanguage == "" {
		cfg.Ingest.OCRLanguage = "eng"
	}
	if cfg.Ingest.TesseractPath == "" {
		cfg.Ingest.TesseractPath = "tesseract"
	}
	if cfg.Ingest.RunLockTTL <= 0 {
		cfg.Ingest.RunLockTTL = 5 * time.Minute
	}
	if cfg.Ingest.StaleAfter <= 0 {
		cfg.Ingest.StaleAfter = 30 * time.Minute
	}
	if cfg.Ingest.ReapInterval <= 0 {
		cfg.Ingest.ReapInterval = 5 * time.Minute
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
