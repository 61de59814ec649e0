package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/arxivfeed"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ARXIVFEED_BASE_URL", "ARXIVFEED_DB", "ARXIVFEED_LOG_LEVEL",
		"ARXIVFEED_TIMEOUT", "ARXIVFEED_RATE_INTERVAL",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("ARXIVFEED_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, arxivfeed.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 3*time.Second, cfg.RateInterval)
	assert.Equal(t, 50, cfg.Count)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Minute, cfg.Refresh.Interval)

	opts := cfg.ParseOptions()
	assert.Equal(t, arxivfeed.StrategyFragment, opts.Strategy)
	assert.True(t, opts.NormalizeWhitespace)
	assert.Equal(t, arxivfeed.UnknownAuthor, opts.AuthorFallback)
	assert.False(t, opts.OmitUnchangedUpdate)
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
base_url: http://localhost:8080/api/query
timeout: 10s
rate_interval: 0s
db_path: /tmp/papers.db
log_level: debug
count: 200
sort: updated
parser:
  strategy: atom
  normalize_whitespace: false
  author_fallback: ""
  omit_unchanged_update: true
refresh:
  interval: 5m
  metrics_addr: ""
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api/query", cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Zero(t, cfg.RateInterval)
	assert.Equal(t, "/tmp/papers.db", cfg.DBPath)
	assert.Equal(t, 200, cfg.Count)
	assert.Equal(t, "updated", cfg.Sort)
	assert.Equal(t, 5*time.Minute, cfg.Refresh.Interval)
	assert.Empty(t, cfg.Refresh.MetricsAddr)

	opts := cfg.ParseOptions()
	assert.Equal(t, arxivfeed.StrategyAtom, opts.Strategy)
	assert.False(t, opts.NormalizeWhitespace)
	assert.Empty(t, opts.AuthorFallback)
	assert.True(t, opts.OmitUnchangedUpdate)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARXIVFEED_BASE_URL", "http://env/api")
	t.Setenv("ARXIVFEED_DB", "/env/papers.db")
	t.Setenv("ARXIVFEED_LOG_LEVEL", "warn")
	t.Setenv("ARXIVFEED_TIMEOUT", "5s")
	t.Setenv("ARXIVFEED_RATE_INTERVAL", "not-a-duration")

	cfg, err := loadConfig(writeConfig(t, "base_url: http://file/api\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://env/api", cfg.BaseURL)
	assert.Equal(t, "/env/papers.db", cfg.DBPath)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 3*time.Second, cfg.RateInterval, "unparsable duration keeps the default")
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	clearEnv(t)
	_, err := loadConfig(writeConfig(t, "count: [1, 2\n"))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero count", func(c *Config) { c.Count = 0 }, ErrInvalidCount},
		{"count above cap", func(c *Config) { c.Count = arxivfeed.MaxCount + 1 }, ErrInvalidCount},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, ErrInvalidTimeout},
		{"negative rate", func(c *Config) { c.RateInterval = -time.Second }, ErrInvalidRateInterval},
		{"zero refresh", func(c *Config) { c.Refresh.Interval = 0 }, ErrInvalidRefresh},
		{"bad strategy", func(c *Config) { c.Parser.Strategy = "regex" }, ErrInvalidStrategy},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, ErrInvalidLogLevel},
		{"bad sort", func(c *Config) { c.Sort = "relevance" }, arxivfeed.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}

	assert.NoError(t, defaultConfig().Validate())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, ok := parseLevel(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := parseLevel("trace")
	assert.False(t, ok)
}
