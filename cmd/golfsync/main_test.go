package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/schaermu/golfsync/internal/solution"
)

const testSession = "0b6ad1f6-3a25-4d43-9d2c-6b0f5f1d9e2a"

// resetFlags restores every flag global after the test
func resetFlags(t *testing.T) {
	t.Helper()
	strs := []*string{&cfgFile, &authorization, &outputPath, &structure, &onlyScoring}
	bools := []*bool{&keepScoringName, &prune, &noCommit}

	savedStrs := make([]string, len(strs))
	for i, p := range strs {
		savedStrs[i] = *p
	}
	savedBools := make([]bool, len(bools))
	for i, p := range bools {
		savedBools[i] = *p
	}

	t.Cleanup(func() {
		for i, p := range strs {
			*p = savedStrs[i]
		}
		for i, p := range bools {
			*p = savedBools[i]
		}
	})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSetupLogger(t *testing.T) {
	// Save original globals.
	origLevel := logLevel
	origFormat := logFormat
	t.Cleanup(func() {
		logLevel = origLevel
		logFormat = origFormat
	})

	for _, tc := range []struct {
		name      string
		logLevel  string
		logFormat string
	}{
		{name: "debug/text", logLevel: "debug", logFormat: "text"},
		{name: "info/json", logLevel: "info", logFormat: "json"},
		{name: "warn/text", logLevel: "warn", logFormat: "text"},
		{name: "error/text", logLevel: "error", logFormat: "text"},
		{name: "unknown/text", logLevel: "unknown", logFormat: "text"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			logLevel = tc.logLevel
			logFormat = tc.logFormat

			logger := setupLogger()
			if logger == nil {
				t.Fatal("setupLogger returned nil")
			}
		})
	}
}

func TestLoadConfig_WithExplicitPath(t *testing.T) {
	resetFlags(t)

	tmpDir := t.TempDir()
	outDir := filepath.Join(tmpDir, "golf")
	sessionFile := filepath.Join(tmpDir, "session")
	if err := os.WriteFile(sessionFile, []byte(testSession+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	configContent := []byte(`auth:
  session_file: "` + sessionFile + `"
output:
  path: "` + outDir + `"
  structure: "lhe"
sync:
  prune: true
`)
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, configContent, 0o600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfgFile = cfgPath

	cfg, err := loadConfig(quietLogger())
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}
	if cfg.Output.Path != outDir {
		t.Errorf("output path = %s, want %s", cfg.Output.Path, outDir)
	}
	if cfg.Structure() != solution.LanguageHole {
		t.Errorf("structure = %s, want lhe", cfg.Structure())
	}
	if !cfg.Sync.Prune {
		t.Error("prune should come from the config file")
	}
	token, err := cfg.SessionToken()
	if err != nil || token != testSession {
		t.Errorf("SessionToken() = %q, %v", token, err)
	}
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	resetFlags(t)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	configContent := []byte(`auth:
  session_file: "/does/not/matter"
output:
  path: "/from/file"
  structure: "he"
`)
	if err := os.WriteFile(cfgPath, configContent, 0o600); err != nil {
		t.Fatal(err)
	}

	cfgFile = cfgPath
	authorization = testSession
	outputPath = filepath.Join(tmpDir, "override")
	structure = "hse"
	onlyScoring = "chars"
	noCommit = true

	cfg, err := loadConfig(quietLogger())
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}
	if cfg.Output.Path != outputPath {
		t.Errorf("output path = %s, want %s", cfg.Output.Path, outputPath)
	}
	if cfg.Auth.SessionFile != "" || cfg.Auth.Session != testSession {
		t.Errorf("authorization flag should replace the session file: %+v", cfg.Auth)
	}
	if cfg.Structure() != solution.HoleSolution {
		t.Errorf("structure = %s, want hse", cfg.Structure())
	}
	if cfg.Output.OnlyScoring != "chars" || !cfg.Sync.NoCommit {
		t.Errorf("flags not applied: %+v %+v", cfg.Output, cfg.Sync)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	resetFlags(t)

	cfgFile = filepath.Join(t.TempDir(), "nonexistent.yaml")

	_, err := loadConfig(quietLogger())
	if err == nil {
		t.Fatal("expected error for missing config file, got nil")
	}
}

func TestLoadConfig_DefaultPathIsOptional(t *testing.T) {
	resetFlags(t)
	t.Setenv("HOME", t.TempDir())

	cfgFile = ""
	authorization = testSession
	outputPath = "relative/golf"

	cfg, err := loadConfig(quietLogger())
	if err != nil {
		t.Fatalf("loadConfig returned error: %v", err)
	}
	if !filepath.IsAbs(cfg.Output.Path) {
		t.Errorf("output path should be made absolute, got %s", cfg.Output.Path)
	}
	if cfg.Structure() != solution.DefaultStructure {
		t.Errorf("structure = %s, want default", cfg.Structure())
	}
}

func TestLoadConfig_RequiresAuthorization(t *testing.T) {
	resetFlags(t)
	t.Setenv("HOME", t.TempDir())

	cfgFile = ""
	outputPath = t.TempDir()

	if _, err := loadConfig(quietLogger()); err == nil {
		t.Fatal("expected error without authorization")
	}
}

func TestClientOptions(t *testing.T) {
	resetFlags(t)
	t.Setenv("HOME", t.TempDir())
	authorization = testSession
	outputPath = t.TempDir()
	onlyScoring = "bytes"
	keepScoringName = true

	cfg, err := loadConfig(quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	opts := clientOptions(cfg, testSession)
	if opts.Session != testSession {
		t.Errorf("session = %q", opts.Session)
	}
	if opts.MaxAttempts != 3 || opts.InitialBackoff != time.Second {
		t.Errorf("unexpected retry settings: %d %s", opts.MaxAttempts, opts.InitialBackoff)
	}
	if opts.OnlyScoring != "bytes" || !opts.KeepScoringName {
		t.Errorf("scoring options not forwarded: %+v", opts)
	}
	if opts.UserAgent != "golfsync/"+version {
		t.Errorf("user agent = %q", opts.UserAgent)
	}
}

func TestSetupSignalHandler(t *testing.T) {
	ctx, cancel := setupSignalHandler()
	if ctx == nil {
		t.Fatal("setupSignalHandler returned nil context")
	}

	cancel()

	<-ctx.Done()
	if err := ctx.Err(); err == nil {
		t.Fatal("expected context error after cancel, got nil")
	}
}

func TestVersionCmd(t *testing.T) {
	t.Helper()
	// versionCmd.Run simply prints version info; should not panic.
	versionCmd.Run(versionCmd, []string{})
}
