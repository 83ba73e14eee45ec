package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PRISM_DB", "PRISM_SCRIPTS_DIR", "PRISM_WORKERS",
		"PRISM_FIXTURE_PREFIX", "PRISM_INJECTION", "PRISM_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

// =============================================================================
// Load / Save
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	assert.Equal(t, "ra_fixture", cfg.Highlight.FixturePrefix)
	assert.True(t, cfg.Highlight.Injection)
	assert.Equal(t, 4, cfg.Index.Workers)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".prism", "config.yaml")

	cfg := DefaultConfig()
	cfg.Highlight.FixturePrefix = "fixture"
	cfg.Index.Workers = 0
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fixture", loaded.Highlight.FixturePrefix)
	assert.Equal(t, 0, loaded.Index.Workers)
	assert.Equal(t, cfg.Index.DBPath, loaded.Index.DBPath)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("highlight:\n  injection: false\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Highlight.Injection)
	assert.Equal(t, "ra_fixture", cfg.Highlight.FixturePrefix)
	assert.Equal(t, 1024, cfg.Index.CacheSize)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("index: [unterminated"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRISM_DB", "/tmp/other.db")
	t.Setenv("PRISM_WORKERS", "8")
	t.Setenv("PRISM_INJECTION", "false")
	t.Setenv("PRISM_FIXTURE_PREFIX", "fx")
	t.Setenv("PRISM_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", cfg.Index.DBPath)
	assert.Equal(t, 8, cfg.Index.Workers)
	assert.False(t, cfg.Highlight.Injection)
	assert.Equal(t, "fx", cfg.Highlight.FixturePrefix)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestConfig_EnvOverridesIgnoreGarbage(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRISM_WORKERS", "many")
	t.Setenv("PRISM_INJECTION", "perhaps")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Index.Workers)
	assert.True(t, cfg.Highlight.Injection)
}

// =============================================================================
// Validate
// =============================================================================

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty db path", func(c *Config) { c.Index.DBPath = "" }, "db_path"},
		{"negative workers", func(c *Config) { c.Index.Workers = -1 }, "workers"},
		{"zero cache", func(c *Config) { c.Index.CacheSize = 0 }, "cache_size"},
		{"zero concurrency", func(c *Config) { c.Highlight.Concurrency = 0 }, "concurrency"},
		{"empty prefix", func(c *Config) { c.Highlight.FixturePrefix = "" }, "fixture_prefix"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "invalid logging format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_EmptyPrefixAllowedWithoutInjection(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Highlight.Injection = false
	cfg.Highlight.FixturePrefix = ""
	require.NoError(t, cfg.Validate())
}

// =============================================================================
// Logging
// =============================================================================

func TestBuildLogger(t *testing.T) {
	t.Parallel()
	cfg := LoggingConfig{Level: "warn", Format: "console", File: filepath.Join(t.TempDir(), "prism.log")}

	logger, err := cfg.BuildLogger(false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	verbose, err := cfg.BuildLogger(true)
	require.NoError(t, err)
	assert.True(t, verbose.Core().Enabled(zapcore.DebugLevel))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	l, err := ParseLevel("error")
	require.NoError(t, err)
	assert.Equal(t, zapcore.ErrorLevel, l)

	_, err = ParseLevel("verbose")
	require.Error(t, err)
}
