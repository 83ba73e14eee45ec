package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jward/prism"
	"github.com/jward/prism/internal/config"
)

var (
	flagDB      string
	flagFormat  string
	flagConfig  string
	flagVerbose bool
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "prism",
	Short:         "Semantic highlighting for Rust with fixture and doctest injection",
	Long:          "Prism indexes Rust sources with tree-sitter and Risor scripts, and highlights them, including Rust code embedded in fixture strings and doc comments.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		// PRISM_* variables may come from a .env file.
		_ = godotenv.Load()
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}
		logger, err = cfg.Logging.BuildLogger(flagVerbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .prism/index.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: .prism/config.yaml relative to repo root)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(highlightCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(initCmd)
}

// loadConfig reads the config file named by --config, or the repo's default
// config file. A missing file yields the defaults.
func loadConfig() (*config.Config, error) {
	path := flagConfig
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("working directory: %w", err)
		}
		path = filepath.Join(findRepoRoot(wd), config.DefaultPath)
	}
	c, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// openEngine creates an Engine on dbPath configured from cfg. scriptsDir
// overrides the configured scripts directory when set.
func openEngine(dbPath, scriptsDir string) (*prism.Engine, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}
	if scriptsDir == "" {
		scriptsDir = cfg.Index.ScriptsDir
	}
	engine, err := prism.New(dbPath, scriptsDir,
		prism.WithLogger(logger),
		prism.WithParallel(cfg.Index.Workers > 0),
		prism.WithWorkers(cfg.Index.Workers),
		prism.WithCacheSize(cfg.Index.CacheSize),
		prism.WithFixturePrefix(cfg.Highlight.FixturePrefix),
		prism.WithInjection(cfg.Highlight.Injection),
		prism.WithHighlightConcurrency(cfg.Highlight.Concurrency),
	)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return engine, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root without finding .git.
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag, the config
// file, or the default, in that order. Relative paths are taken from the
// repo root.
func resolveDBPath(repoRoot string) string {
	p := flagDB
	if p == "" && cfg != nil {
		p = cfg.Index.DBPath
	}
	if p == "" {
		p = config.DefaultConfig().Index.DBPath
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(repoRoot, p)
}
