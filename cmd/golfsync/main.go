package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/schaermu/golfsync/internal/codegolf"
	"github.com/schaermu/golfsync/internal/config"
	"github.com/schaermu/golfsync/internal/git"
	"github.com/schaermu/golfsync/internal/sync"
	"github.com/spf13/cobra"
)

var (
	// Set by goreleaser
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	cfgFile   string
	logLevel  string
	logFormat string
	dryRun    bool

	// Sync flags, overriding the config file when set
	authorization   string
	outputPath      string
	structure       string
	onlyScoring     string
	keepScoringName bool
	prune           bool
	noCommit        bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "golfsync",
	Short: "Store code.golf solutions in a Git repository",
	Long: `golfsync downloads every solution of a code.golf account and records each one
as a file in a local Git repository, one commit per new or changed solution.

Runs are idempotent: solutions that did not change since the last run are
skipped, and an interrupted run picks up where it stopped.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runSync,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("golfsync %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/golfsync/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	// Sync flags
	rootCmd.Flags().StringVarP(&authorization, "authorization", "a", "", "value of the __Host-session cookie from code.golf")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "path of the output repository")
	rootCmd.Flags().StringVar(&structure, "structure", "", "file layout: lhe, hle, hse or he (default hle)")
	rootCmd.Flags().StringVar(&onlyScoring, "only-scoring", "", "only keep solutions for this scoring (bytes, chars)")
	rootCmd.Flags().BoolVar(&keepScoringName, "keep-scoring-name", false, "keep the scoring suffix even when bytes and chars solutions are identical")
	rootCmd.Flags().BoolVar(&prune, "prune", false, "delete files that no longer match a solution")
	rootCmd.Flags().BoolVar(&noCommit, "no-commit", false, "write files without creating commits")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be done without making changes")

	rootCmd.AddCommand(versionCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	// Setup logger
	logger := setupLogger()

	// Load configuration
	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return fmt.Errorf("failed to load config: %w", err)
	}

	token, err := cfg.SessionToken()
	if err != nil {
		logger.Error("failed to read session", "error", err)
		return err
	}

	// Create dependencies
	remote, err := codegolf.NewClient(clientOptions(cfg, token), logger)
	if err != nil {
		logger.Error("failed to create code.golf client", "error", err)
		return err
	}
	gitClient := git.NewShellClient()

	// Create sync engine
	engine := sync.NewEngine(cfg, remote, gitClient, logger, dryRun)

	// Run sync
	result, err := engine.Run(ctx)
	if err != nil {
		logger.Error("sync failed", "error", err)
		return err
	}

	logger.Info("summary",
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"deleted", result.Deleted,
		"applied", result.Applied)
	return nil
}

func setupLogger() *slog.Logger {
	// Parse log level
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// Create handler based on format
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// loadConfig reads the config file, applies flag overrides and validates the
// result. The default config file is optional; an explicit one is not.
func loadConfig(logger *slog.Logger) (*config.Config, error) {
	configPath := cfgFile
	explicit := configPath != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "golfsync", "config.yaml")
	}

	cfg := config.Default()
	_, statErr := os.Stat(configPath)
	if !explicit && errors.Is(statErr, os.ErrNotExist) {
		logger.Debug("no config file found, using defaults", "path", configPath)
	} else {
		logger.Info("loading configuration", "path", configPath)
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := applyFlags(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("configuration loaded",
		"output", cfg.Output.Path,
		"structure", cfg.Output.Structure,
		"only_scoring", cfg.Output.OnlyScoring,
		"prune", cfg.Sync.Prune,
		"no_commit", cfg.Sync.NoCommit)

	return cfg, nil
}

// applyFlags overrides config values with the flags that were set
func applyFlags(cfg *config.Config) error {
	if authorization != "" {
		cfg.Auth.Session = authorization
		cfg.Auth.SessionFile = ""
	}
	if outputPath != "" {
		cfg.Output.Path = outputPath
	}
	if cfg.Output.Path != "" {
		abs, err := filepath.Abs(cfg.Output.Path)
		if err != nil {
			return fmt.Errorf("failed to resolve output path: %w", err)
		}
		cfg.Output.Path = abs
	}
	if structure != "" {
		cfg.Output.Structure = structure
	}
	if onlyScoring != "" {
		cfg.Output.OnlyScoring = onlyScoring
	}
	if keepScoringName {
		cfg.Output.KeepScoringName = true
	}
	if prune {
		cfg.Sync.Prune = true
	}
	if noCommit {
		cfg.Sync.NoCommit = true
	}
	return nil
}

func clientOptions(cfg *config.Config, token string) codegolf.Options {
	return codegolf.Options{
		BaseURL:         cfg.Remote.BaseURL,
		Session:         token,
		UserAgent:       fmt.Sprintf("%s/%s", cfg.Remote.UserAgent, version),
		MaxAttempts:     cfg.Remote.MaxAttempts,
		InitialBackoff:  cfg.Remote.InitialBackoff,
		OnlyScoring:     cfg.Output.OnlyScoring,
		KeepScoringName: cfg.Output.KeepScoringName,
	}
}

func setupSignalHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}
