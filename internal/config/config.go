package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
		Node string `yaml:"node"`
	} `yaml:"server"`
	Log struct {
		Mode string `yaml:"mode"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Game struct {
		BatchSize    int    `yaml:"batch_size"`
		LowWatermark int    `yaml:"low_watermark"`
		ExcludeLimit int    `yaml:"exclude_limit"`
		InitialLives int    `yaml:"initial_lives"`
		FetchTimeout string `yaml:"fetch_timeout"`
	} `yaml:"game"`
	Source struct {
		// Kind is one of gemini, bank or static.
		Kind    string `yaml:"kind"`
		Archive bool   `yaml:"archive"`
	} `yaml:"source"`
	Gemini struct {
		APIKey     string `yaml:"-"`
		Model      string `yaml:"model"`
		BaseURL    string `yaml:"base_url"`
		Language   string `yaml:"language"`
		Timeout    string `yaml:"timeout"`
		MaxRetries int    `yaml:"max_retries"`
	} `yaml:"gemini"`
}

// Load reads YAML config from path. Secrets come from the environment,
// optionally seeded from a .env file next to the working directory.
func Load(path string) (Config, error) {
	cfg := Config{}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.Gemini.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Postgres.URL = url
	}
	if cfg.Source.Kind == "" {
		cfg.Source.Kind = "gemini"
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// IntOr returns v when positive, else fallback.
func IntOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
