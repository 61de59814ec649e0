package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tmc/arxivfeed"
	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrInvalidCount        = errors.New("count must be between 1 and 2000")
	ErrInvalidTimeout      = errors.New("timeout must be non-negative")
	ErrInvalidRateInterval = errors.New("rate_interval must be non-negative")
	ErrInvalidRefresh      = errors.New("refresh.interval must be positive")
	ErrInvalidStrategy     = errors.New("parser.strategy must be 'fragment' or 'atom'")
	ErrInvalidLogLevel     = errors.New("log_level must be one of: debug, info, warn, error")
)

// Config is the CLI configuration file.
type Config struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	RateInterval time.Duration `yaml:"rate_interval"`
	DBPath       string        `yaml:"db_path"`
	LogLevel     string        `yaml:"log_level"`
	Count        int           `yaml:"count"`
	Sort         string        `yaml:"sort"`
	Parser       ParserConfig  `yaml:"parser"`
	Refresh      RefreshConfig `yaml:"refresh"`
}

// ParserConfig selects the parsing strategy and normalization rules.
type ParserConfig struct {
	Strategy            string  `yaml:"strategy"`
	NormalizeWhitespace *bool   `yaml:"normalize_whitespace"`
	AuthorFallback      *string `yaml:"author_fallback"`
	OmitUnchangedUpdate bool    `yaml:"omit_unchanged_update"`
}

// RefreshConfig configures the watch command.
type RefreshConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MetricsAddr string        `yaml:"metrics_addr"`
}

func defaultConfig() *Config {
	return &Config{
		BaseURL:      arxivfeed.DefaultBaseURL,
		Timeout:      60 * time.Second,
		RateInterval: 3 * time.Second,
		DBPath:       defaultDBPath(),
		LogLevel:     "info",
		Count:        50,
		Sort:         "submitted",
		Parser: ParserConfig{
			Strategy: string(arxivfeed.StrategyFragment),
		},
		Refresh: RefreshConfig{
			Interval:    30 * time.Minute,
			MetricsAddr: ":9464",
		},
	}
}

func defaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "arxivfeed", "papers.db")
}

func defaultConfigPath() string {
	if v := os.Getenv("ARXIVFEED_CONFIG"); v != "" {
		return v
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "arxivfeed", "config.yaml")
}

// loadConfig reads the YAML file at path, applies environment overrides and
// validates the result. An empty path falls back to the default location,
// which may be absent.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.BaseURL = getEnv("ARXIVFEED_BASE_URL", cfg.BaseURL)
	cfg.DBPath = getEnv("ARXIVFEED_DB", cfg.DBPath)
	cfg.LogLevel = getEnv("ARXIVFEED_LOG_LEVEL", cfg.LogLevel)
	cfg.Timeout = getDurationEnv("ARXIVFEED_TIMEOUT", cfg.Timeout)
	cfg.RateInterval = getDurationEnv("ARXIVFEED_RATE_INTERVAL", cfg.RateInterval)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Count < 1 || c.Count > arxivfeed.MaxCount {
		return ErrInvalidCount
	}
	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}
	if c.RateInterval < 0 {
		return ErrInvalidRateInterval
	}
	if c.Refresh.Interval <= 0 {
		return ErrInvalidRefresh
	}
	switch arxivfeed.Strategy(c.Parser.Strategy) {
	case arxivfeed.StrategyFragment, arxivfeed.StrategyAtom:
	default:
		return ErrInvalidStrategy
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		return ErrInvalidLogLevel
	}
	if _, err := arxivfeed.ParseSortField(c.Sort); err != nil {
		return fmt.Errorf("sort: %w", err)
	}
	return nil
}

// ParseOptions converts the parser section.
func (c *Config) ParseOptions() arxivfeed.ParseOptions {
	opts := arxivfeed.DefaultParseOptions()
	opts.Strategy = arxivfeed.Strategy(c.Parser.Strategy)
	opts.OmitUnchangedUpdate = c.Parser.OmitUnchangedUpdate
	if c.Parser.NormalizeWhitespace != nil {
		opts.NormalizeWhitespace = *c.Parser.NormalizeWhitespace
	}
	if c.Parser.AuthorFallback != nil {
		opts.AuthorFallback = *c.Parser.AuthorFallback
	}
	return opts
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
