package git

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/schaermu/golfsync/internal/testutil"
)

func testCommit(msg string) Commit {
	return Commit{
		Message:     msg,
		AuthorName:  "golfsync",
		AuthorEmail: "golfsync@localhost",
		When:        time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestShellClient_InitAddCommit(t *testing.T) {
	testutil.RequireGit(t)
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "repo")
	client := NewShellClient()

	if err := client.Init(ctx, dir); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		t.Fatalf("expected .git after Init: %v", err)
	}

	writeFile(t, dir, "fizzbuzz/py.py", "print(1)")
	if err := client.Add(ctx, dir, "fizzbuzz/py.py"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	hash, err := client.Commit(ctx, dir, testCommit("Create fizzbuzz in py"))
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(hash) != 40 {
		t.Errorf("expected 40 character hash, got %q", hash)
	}

	if got := testutil.Git(t, dir, "log", "-1", "--format=%s|%an|%ae|%aI|%cI"); got !=
		"Create fizzbuzz in py|golfsync|golfsync@localhost|2023-03-01T10:00:00+00:00|2023-03-01T10:00:00+00:00" {
		t.Errorf("unexpected commit metadata: %s", got)
	}
}

func TestShellClient_CommitIsDeterministic(t *testing.T) {
	testutil.RequireGit(t)
	ctx := context.Background()
	client := NewShellClient()

	var hashes []string
	for i := 0; i < 2; i++ {
		dir := filepath.Join(t.TempDir(), "repo")
		if err := client.Init(ctx, dir); err != nil {
			t.Fatal(err)
		}
		writeFile(t, dir, "quine/go.go", "package main")
		if err := client.Add(ctx, dir, "quine/go.go"); err != nil {
			t.Fatal(err)
		}
		hash, err := client.Commit(ctx, dir, testCommit("Create quine in go"))
		if err != nil {
			t.Fatal(err)
		}
		hashes = append(hashes, hash)
	}

	if hashes[0] != hashes[1] {
		t.Errorf("same content, identity and date should produce the same commit: %v", hashes)
	}
}

func TestShellClient_AddStagesRemoval(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "repo")
	testutil.InitRepo(t, dir)
	testutil.CommitFile(t, dir, "old/py.py", "print(0)", "initial")

	ctx := context.Background()
	client := NewShellClient()

	if err := os.Remove(filepath.Join(dir, "old", "py.py")); err != nil {
		t.Fatal(err)
	}
	if err := client.Add(ctx, dir, "old/py.py"); err != nil {
		t.Fatalf("Add removed file: %v", err)
	}
	if _, err := client.Commit(ctx, dir, testCommit("Delete old/py.py")); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if files := testutil.Git(t, dir, "ls-files"); files != "" {
		t.Errorf("expected empty index, got %q", files)
	}
}

func TestShellClient_CommitOnlyGivenPaths(t *testing.T) {
	testutil.RequireGit(t)
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "repo")
	client := NewShellClient()
	if err := client.Init(ctx, dir); err != nil {
		t.Fatal(err)
	}

	// b is staged by an earlier, uncommitted operation
	writeFile(t, dir, "a/py.py", "1")
	writeFile(t, dir, "b/py.py", "2")
	if err := client.Add(ctx, dir, "a/py.py", "b/py.py"); err != nil {
		t.Fatal(err)
	}

	commit := testCommit("Create a in py")
	commit.Paths = []string{"a/py.py"}
	if _, err := client.Commit(ctx, dir, commit); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if files := testutil.Git(t, dir, "ls-tree", "-r", "--name-only", "HEAD"); files != "a/py.py" {
		t.Errorf("HEAD tree = %q, want only a/py.py", files)
	}

	// A later path-scoped commit over the unchanged file still only touches its path
	writeFile(t, dir, "a/py.py", "11")
	if err := client.Add(ctx, dir, "a/py.py"); err != nil {
		t.Fatal(err)
	}
	commit = testCommit("Update a in py")
	commit.Paths = []string{"a/py.py"}
	if _, err := client.Commit(ctx, dir, commit); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if files := testutil.Git(t, dir, "show", "--name-only", "--format=", "HEAD"); files != "a/py.py" {
		t.Errorf("second commit touched %q, want only a/py.py", files)
	}
}

func TestShellClient_AddIgnoredPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "repo")
	testutil.InitRepo(t, dir)
	writeFile(t, dir, ".gitignore", "*.sh\n")
	writeFile(t, dir, "fizzbuzz/bash.sh", "echo 1")

	ctx := context.Background()
	client := NewShellClient()
	if err := client.Add(ctx, dir, "fizzbuzz/bash.sh"); err != nil {
		t.Fatalf("Add ignored path: %v", err)
	}
	if _, err := client.Commit(ctx, dir, testCommit("Create fizzbuzz in bash")); err != nil {
		t.Fatal(err)
	}
	if files := testutil.Git(t, dir, "ls-files"); files != "fizzbuzz/bash.sh" {
		t.Errorf("ls-files = %q", files)
	}
}

func TestShellClient_CommitNothingStaged(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "repo")
	testutil.InitRepo(t, dir)

	_, err := NewShellClient().Commit(context.Background(), dir, testCommit("empty"))
	if err == nil {
		t.Fatal("expected error when nothing is staged")
	}
	if !strings.Contains(err.Error(), "git commit failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestShellClient_CommitRequiresMessage(t *testing.T) {
	if _, err := NewShellClient().Commit(context.Background(), t.TempDir(), Commit{}); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestCommitEnv(t *testing.T) {
	env := commitEnv([]string{"PATH=/bin"}, testCommit("x"))
	want := map[string]bool{
		"PATH=/bin":                              true,
		"GIT_AUTHOR_NAME=golfsync":               true,
		"GIT_COMMITTER_NAME=golfsync":            true,
		"GIT_AUTHOR_EMAIL=golfsync@localhost":    true,
		"GIT_COMMITTER_EMAIL=golfsync@localhost": true,
		"GIT_AUTHOR_DATE=1677664800 +0000":       true,
		"GIT_COMMITTER_DATE=1677664800 +0000":    true,
	}
	if len(env) != len(want) {
		t.Fatalf("commitEnv() = %v", env)
	}
	for _, kv := range env {
		if !want[kv] {
			t.Errorf("unexpected env entry %q", kv)
		}
	}

	if env := commitEnv(nil, Commit{Message: "x"}); len(env) != 0 {
		t.Errorf("expected no overrides for empty commit identity, got %v", env)
	}
}

func TestInsertGitFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		flags []string
		want  []string
	}{
		{
			name:  "insert before subcommand",
			args:  []string{"git", "commit", "-m", "msg"},
			flags: []string{"-c", "key=value"},
			want:  []string{"git", "-c", "key=value", "commit", "-m", "msg"},
		},
		{
			name:  "insert before -C",
			args:  []string{"git", "-C", "/dir", "commit", "-q"},
			flags: []string{"-c", "commit.gpgsign=false"},
			want:  []string{"git", "-c", "commit.gpgsign=false", "-C", "/dir", "commit", "-q"},
		},
		{
			name:  "empty args",
			args:  []string{},
			flags: []string{"-c", "key=value"},
			want:  []string{"-c", "key=value"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := insertGitFlags(tt.args, tt.flags...)
			if len(got) != len(tt.want) {
				t.Fatalf("insertGitFlags() length = %d, want %d\ngot:  %v\nwant: %v", len(got), len(tt.want), got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("insertGitFlags()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
