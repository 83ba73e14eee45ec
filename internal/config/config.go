package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where prism looks for its config file, relative to the
// repository root.
const DefaultPath = ".prism/config.yaml"

// Config holds all prism configuration.
type Config struct {
	// Index database and extraction scripts.
	Index IndexConfig `yaml:"index"`

	// Highlighting behavior.
	Highlight HighlightConfig `yaml:"highlight"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// IndexConfig configures the symbol index.
type IndexConfig struct {
	DBPath     string `yaml:"db_path"`
	ScriptsDir string `yaml:"scripts_dir"` // empty = embedded scripts
	Workers    int    `yaml:"workers"`     // 0 = serial extraction
	CacheSize  int    `yaml:"cache_size"`  // entries per lookup cache
}

// HighlightConfig configures the highlighter.
type HighlightConfig struct {
	Injection     bool   `yaml:"injection"`
	FixturePrefix string `yaml:"fixture_prefix"`
	Concurrency   int    `yaml:"concurrency"` // files highlighted at once
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			DBPath:    ".prism/index.db",
			Workers:   4,
			CacheSize: 1024,
		},
		Highlight: HighlightConfig{
			Injection:     true,
			FixturePrefix: "ra_fixture",
			Concurrency:   4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the config at path. A missing file yields the defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies PRISM_* environment variables.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("PRISM_DB"); path != "" {
		c.Index.DBPath = path
	}
	if dir := os.Getenv("PRISM_SCRIPTS_DIR"); dir != "" {
		c.Index.ScriptsDir = dir
	}
	if v := os.Getenv("PRISM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Index.Workers = n
		}
	}
	if prefix := os.Getenv("PRISM_FIXTURE_PREFIX"); prefix != "" {
		c.Highlight.FixturePrefix = prefix
	}
	if v := os.Getenv("PRISM_INJECTION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Highlight.Injection = b
		}
	}
	if level := os.Getenv("PRISM_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks the configuration for values prism cannot run with.
func (c *Config) Validate() error {
	if c.Index.DBPath == "" {
		return fmt.Errorf("index.db_path must not be empty")
	}
	if c.Index.Workers < 0 {
		return fmt.Errorf("index.workers must be >= 0, got %d", c.Index.Workers)
	}
	if c.Index.CacheSize <= 0 {
		return fmt.Errorf("index.cache_size must be > 0, got %d", c.Index.CacheSize)
	}
	if c.Highlight.Concurrency <= 0 {
		return fmt.Errorf("highlight.concurrency must be > 0, got %d", c.Highlight.Concurrency)
	}
	if c.Highlight.Injection && c.Highlight.FixturePrefix == "" {
		return fmt.Errorf("highlight.fixture_prefix must not be empty when injection is enabled")
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %s (valid: json, console)", c.Logging.Format)
	}
	return nil
}
