package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/schaermu/golfsync/internal/git"
	"github.com/schaermu/golfsync/internal/localstate"
	"github.com/schaermu/golfsync/internal/solution"
	"github.com/spf13/afero"
)

// WriteError is returned when a solution file cannot be written or removed
type WriteError struct {
	Path string
	Key  solution.Key
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s (%s): %v", e.Path, e.Key, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// CommitError is returned when a change cannot be staged or committed
type CommitError struct {
	Path string
	Key  solution.Key
	Err  error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("failed to commit %s (%s): %v", e.Path, e.Key, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// WriterOptions configures a Writer
type WriterOptions struct {
	AuthorName  string
	AuthorEmail string
	// NoCommit writes files without touching git
	NoCommit bool
	// Now is the commit date for solutions without a submission time
	Now time.Time
}

// Writer applies a plan to the output repository, one commit per operation
type Writer struct {
	fs     afero.Fs
	root   string
	git    git.Client
	opts   WriterOptions
	logger *slog.Logger
}

// NewWriter creates a writer for the repository at root
func NewWriter(fs afero.Fs, root string, gitClient git.Client, opts WriterOptions, logger *slog.Logger) *Writer {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	return &Writer{
		fs:     fs,
		root:   root,
		git:    gitClient,
		opts:   opts,
		logger: logger,
	}
}

// Apply executes the pending operations of plan in order. It stops at the
// first failure and returns the number of operations applied so far;
// earlier commits stay in place.
func (w *Writer) Apply(ctx context.Context, plan *Plan) (int, error) {
	applied := 0
	for _, op := range plan.Pending() {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		if err := w.apply(ctx, op); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

func (w *Writer) apply(ctx context.Context, op Operation) error {
	key := op.Record.Key()
	target := filepath.Join(w.root, filepath.FromSlash(op.Path))

	switch op.Action {
	case ActionCreate, ActionUpdate:
		w.logger.Info("writing solution",
			"action", string(op.Action),
			"hole", key.Hole,
			"lang", key.Lang,
			"path", op.Path)
		if err := w.writeFileAtomic(target, []byte(op.Record.Code)); err != nil {
			return &WriteError{Path: op.Path, Key: key, Err: err}
		}
	case ActionDelete:
		w.logger.Info("deleting file", "action", string(op.Action), "path", op.Path)
		if err := w.fs.Remove(target); err != nil && !os.IsNotExist(err) {
			return &WriteError{Path: op.Path, Key: key, Err: err}
		}
	default:
		return fmt.Errorf("unexpected action %q for %s", op.Action, op.Path)
	}

	if w.opts.NoCommit {
		return nil
	}

	if err := w.git.Add(ctx, w.root, op.Path); err != nil {
		return &CommitError{Path: op.Path, Key: key, Err: err}
	}

	when := op.Record.Submitted
	if when.IsZero() {
		when = w.opts.Now
	}
	hash, err := w.git.Commit(ctx, w.root, git.Commit{
		Message:     commitMessage(op),
		AuthorName:  w.opts.AuthorName,
		AuthorEmail: w.opts.AuthorEmail,
		When:        when,
		Paths:       []string{op.Path},
	})
	if err != nil {
		return &CommitError{Path: op.Path, Key: key, Err: err}
	}
	w.logger.Debug("committed", "path", op.Path, "commit", hash)

	return nil
}

// writeFileAtomic writes data to path through a temp file and rename
func (w *Writer) writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := w.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpFile, err := afero.TempFile(w.fs, dir, localstate.TempPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = w.fs.Remove(tmpPath)
	}() // cleanup on error

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := w.fs.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := w.fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	return nil
}

// commitMessage describes an operation, e.g. "Update fizzbuzz in python (chars)"
func commitMessage(op Operation) string {
	if op.Action == ActionDelete {
		return "Delete " + op.Path
	}

	verb := "Create"
	if op.Action == ActionUpdate {
		verb = "Update"
	}
	msg := fmt.Sprintf("%s %s in %s", verb, op.Record.Hole, op.Record.Lang)
	if op.Record.Scoring != "" {
		msg += " (" + op.Record.Scoring + ")"
	}
	return msg
}
