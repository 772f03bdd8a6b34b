package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Client provides the git operations needed to record solutions
type Client interface {
	// Init creates an empty repository in dir, creating dir if needed
	Init(ctx context.Context, dir string) error
	// Add stages the given paths, including removals
	Add(ctx context.Context, dir string, paths ...string) error
	// Commit records the staged state of c.Paths, or the whole index when no
	// paths are given, and returns the new commit hash
	Commit(ctx context.Context, dir string, c Commit) (string, error)
}

// Commit describes a commit to create
type Commit struct {
	Message     string
	AuthorName  string
	AuthorEmail string
	// When is used as both author and committer date
	When time.Time
	// Paths limits the commit to these paths; other staged changes stay
	// in the index
	Paths []string
}

// ShellClient implements Client by shelling out to the git command
type ShellClient struct {
	binary string
}

// NewShellClient creates a new git client that uses the git command
func NewShellClient() *ShellClient {
	return &ShellClient{binary: "git"}
}

// Init initializes a repository
func (c *ShellClient) Init(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create repository directory: %w", err)
	}
	cmd := exec.CommandContext(ctx, c.binary, "init", "-q", dir)
	if err := c.runCommand(cmd); err != nil {
		return fmt.Errorf("git init failed: %w", err)
	}
	return nil
}

// Add stages paths. Files matched by .gitignore are added anyway since the
// paths are managed explicitly.
func (c *ShellClient) Add(ctx context.Context, dir string, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"-C", dir, "add", "-A", "-f", "--"}, paths...)
	cmd := exec.CommandContext(ctx, c.binary, args...)
	if err := c.runCommand(cmd); err != nil {
		return fmt.Errorf("git add failed: %w", err)
	}
	return nil
}

// Commit creates a commit with a fixed identity and date, so the same
// solution history always produces the same commits
func (c *ShellClient) Commit(ctx context.Context, dir string, commit Commit) (string, error) {
	if strings.TrimSpace(commit.Message) == "" {
		return "", fmt.Errorf("commit message is required")
	}

	args := []string{"-C", dir, "commit", "-q", "--no-verify", "-m", commit.Message}
	if len(commit.Paths) > 0 {
		args = append(args, "--only", "--")
		args = append(args, commit.Paths...)
	}
	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Args = insertGitFlags(cmd.Args, "-c", "commit.gpgsign=false")
	cmd.Env = commitEnv(os.Environ(), commit)

	if err := c.runCommand(cmd); err != nil {
		return "", fmt.Errorf("git commit failed: %w", err)
	}

	cmd = exec.CommandContext(ctx, c.binary, "-C", dir, "rev-parse", "HEAD")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse failed: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}

// commitEnv sets identity and dates through the environment so the commit
// does not depend on the user's git configuration
func commitEnv(base []string, commit Commit) []string {
	env := append([]string{}, base...)
	if commit.AuthorName != "" {
		env = append(env, "GIT_AUTHOR_NAME="+commit.AuthorName, "GIT_COMMITTER_NAME="+commit.AuthorName)
	}
	if commit.AuthorEmail != "" {
		env = append(env, "GIT_AUTHOR_EMAIL="+commit.AuthorEmail, "GIT_COMMITTER_EMAIL="+commit.AuthorEmail)
	}
	if !commit.When.IsZero() {
		date := fmt.Sprintf("%d %s", commit.When.Unix(), commit.When.Format("-0700"))
		env = append(env, "GIT_AUTHOR_DATE="+date, "GIT_COMMITTER_DATE="+date)
	}
	return env
}

// insertGitFlags inserts flags immediately after the "git" command name,
// before the subcommand (e.g. "-C", "commit").
func insertGitFlags(args []string, flags ...string) []string {
	if len(args) == 0 {
		return flags
	}
	result := make([]string, 0, len(args)+len(flags))
	result = append(result, args[0])
	result = append(result, flags...)
	result = append(result, args[1:]...)
	return result
}

// runCommand executes a command and returns an error with stderr on failure
func (c *ShellClient) runCommand(cmd *exec.Cmd) error {
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
