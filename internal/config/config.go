package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schaermu/golfsync/internal/solution"
	"gopkg.in/yaml.v3"
)

// Default values applied to zero-value fields
const (
	DefaultBaseURL        = "https://code.golf"
	DefaultUserAgent      = "golfsync"
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = time.Second
	DefaultAuthorName     = "golfsync"
	DefaultAuthorEmail    = "golfsync@localhost"
)

// Config represents the complete golfsync configuration
type Config struct {
	Remote RemoteConfig `yaml:"remote"`
	Auth   AuthConfig   `yaml:"auth"`
	Output OutputConfig `yaml:"output"`
	Sync   SyncConfig   `yaml:"sync"`
	Commit CommitConfig `yaml:"commit"`
}

// RemoteConfig configures the code.golf client
type RemoteConfig struct {
	BaseURL        string        `yaml:"base_url"`
	UserAgent      string        `yaml:"user_agent"`
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
}

// AuthConfig configures the code.golf session
type AuthConfig struct {
	Session     string `yaml:"session"`
	SessionFile string `yaml:"session_file"`
}

// OutputConfig configures the output repository layout
type OutputConfig struct {
	Path            string `yaml:"path"`
	Structure       string `yaml:"structure"`
	OnlyScoring     string `yaml:"only_scoring"`
	KeepScoringName bool   `yaml:"keep_scoring_name"`
}

// SyncConfig configures sync behavior
type SyncConfig struct {
	Prune    bool `yaml:"prune"`
	NoCommit bool `yaml:"no_commit"`
}

// CommitConfig configures the identity used for commits
type CommitConfig struct {
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the configuration file. The result is not validated
// since command line flags may still fill in required values.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.expandEnv()
	cfg.applyDefaults()

	return &cfg, nil
}

// expandEnv expands environment variables in all string fields
func (c *Config) expandEnv() {
	c.Remote.BaseURL = os.ExpandEnv(c.Remote.BaseURL)
	c.Remote.UserAgent = os.ExpandEnv(c.Remote.UserAgent)
	c.Auth.Session = os.ExpandEnv(c.Auth.Session)
	c.Auth.SessionFile = os.ExpandEnv(c.Auth.SessionFile)
	c.Output.Path = os.ExpandEnv(c.Output.Path)
	c.Commit.AuthorName = os.ExpandEnv(c.Commit.AuthorName)
	c.Commit.AuthorEmail = os.ExpandEnv(c.Commit.AuthorEmail)
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Remote.BaseURL == "" {
		c.Remote.BaseURL = DefaultBaseURL
	}
	if c.Remote.UserAgent == "" {
		c.Remote.UserAgent = DefaultUserAgent
	}
	if c.Remote.MaxAttempts == 0 {
		c.Remote.MaxAttempts = DefaultMaxAttempts
	}
	if c.Remote.InitialBackoff == 0 {
		c.Remote.InitialBackoff = DefaultInitialBackoff
	}
	if c.Output.Structure == "" {
		c.Output.Structure = string(solution.DefaultStructure)
	}
	if c.Commit.AuthorName == "" {
		c.Commit.AuthorName = DefaultAuthorName
	}
	if c.Commit.AuthorEmail == "" {
		c.Commit.AuthorEmail = DefaultAuthorEmail
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Output.Path == "" {
		return fmt.Errorf("output path is required")
	}
	if !filepath.IsAbs(c.Output.Path) {
		return fmt.Errorf("output.path must be an absolute path: %s", c.Output.Path)
	}

	if _, err := solution.ParseStructure(c.Output.Structure); err != nil {
		return fmt.Errorf("invalid output.structure: %w", err)
	}

	switch c.Output.OnlyScoring {
	case "", solution.ScoringBytes, solution.ScoringChars:
		// valid
	default:
		return fmt.Errorf("invalid output.only_scoring: %s (must be bytes or chars)", c.Output.OnlyScoring)
	}

	if c.Remote.MaxAttempts < 1 {
		return fmt.Errorf("remote.max_attempts must be at least 1")
	}
	if c.Remote.InitialBackoff < 0 {
		return fmt.Errorf("remote.initial_backoff must not be negative")
	}

	// Exactly one session source
	if c.Auth.Session == "" && c.Auth.SessionFile == "" {
		return fmt.Errorf("authorization is required (flag --authorization or auth.session_file)")
	}
	if c.Auth.Session != "" && c.Auth.SessionFile != "" {
		return fmt.Errorf("auth: only one of session or session_file may be set")
	}

	if strings.TrimSpace(c.Commit.AuthorName) == "" || strings.TrimSpace(c.Commit.AuthorEmail) == "" {
		return fmt.Errorf("commit.author_name and commit.author_email must not be empty")
	}

	return nil
}

// Structure returns the parsed output structure
func (c *Config) Structure() solution.Structure {
	s, err := solution.ParseStructure(c.Output.Structure)
	if err != nil {
		return solution.DefaultStructure
	}
	return s
}

// SessionToken returns the session cookie value, reading it from
// auth.session_file when no session was given directly
func (c *Config) SessionToken() (string, error) {
	if c.Auth.Session != "" {
		return strings.TrimSpace(c.Auth.Session), nil
	}
	if c.Auth.SessionFile == "" {
		return "", errors.New("no session configured")
	}

	data, err := os.ReadFile(c.Auth.SessionFile)
	if err != nil {
		return "", fmt.Errorf("failed to read session file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("session file %s is empty", c.Auth.SessionFile)
	}
	return token, nil
}
