package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/schaermu/golfsync/internal/config"
	"github.com/schaermu/golfsync/internal/git"
	"github.com/schaermu/golfsync/internal/localstate"
	"github.com/schaermu/golfsync/internal/solution"
	"github.com/spf13/afero"
)

// Fetcher returns the normalized solutions of the authenticated golfer
type Fetcher interface {
	FetchSolutions(ctx context.Context) ([]solution.Record, error)
}

// Engine orchestrates the sync process
type Engine struct {
	cfg    *config.Config
	remote Fetcher
	git    git.Client
	fs     afero.Fs
	now    func() time.Time
	logger *slog.Logger
	dryRun bool
}

// NewEngine creates a new sync engine
func NewEngine(cfg *config.Config, remote Fetcher, gitClient git.Client, logger *slog.Logger, dryRun bool) *Engine {
	return &Engine{
		cfg:    cfg,
		remote: remote,
		git:    gitClient,
		fs:     afero.NewOsFs(),
		now:    time.Now,
		logger: logger,
		dryRun: dryRun,
	}
}

// Run executes the complete sync process. The returned result is non-nil
// once a plan exists, even when applying it fails.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := e.now()
	root := e.cfg.Output.Path

	e.logger.Info("starting sync",
		"output", root,
		"structure", e.cfg.Output.Structure,
		"dry_run", e.dryRun,
		"no_commit", e.cfg.Sync.NoCommit)

	records, err := e.remote.FetchSolutions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch solutions: %w", err)
	}
	e.logger.Info("fetched solutions", "count", len(records))

	state, err := e.reader().Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read output repository: %w", err)
	}
	e.logger.Info("read output repository",
		"files", len(state.Entries),
		"head", state.Head,
		"needs_init", state.NeedsInit)

	planner := NewPlanner(e.cfg.Structure(), e.cfg.Sync.Prune, e.logger)
	plan, err := planner.Plan(records, state.Entries)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync plan: %w", err)
	}

	result := resultFromPlan(plan)
	e.logger.Info("sync plan",
		"create", result.Created,
		"update", result.Updated,
		"skip", result.Skipped,
		"delete", result.Deleted)

	if e.dryRun {
		e.logPlanDetails(plan)
		e.logger.Info("dry-run complete, no changes applied")
		return result, nil
	}

	if err := e.prepare(ctx, state); err != nil {
		return result, err
	}

	writer := NewWriter(e.fs, root, e.git, WriterOptions{
		AuthorName:  e.cfg.Commit.AuthorName,
		AuthorEmail: e.cfg.Commit.AuthorEmail,
		NoCommit:    e.cfg.Sync.NoCommit,
		Now:         start,
	}, e.logger)

	result.Applied, err = writer.Apply(ctx, plan)
	if err != nil {
		e.logger.Error("sync aborted",
			"applied", result.Applied,
			"pending", len(plan.Pending())-result.Applied)
		return result, fmt.Errorf("failed to apply sync plan: %w", err)
	}

	e.logger.Info("sync completed successfully", "applied", result.Applied)
	return result, nil
}

// reader picks the HEAD tree reader unless commits are disabled, in which
// case only the working tree reflects earlier runs
func (e *Engine) reader() localstate.Reader {
	if e.cfg.Sync.NoCommit {
		return localstate.NewTreeReader(e.fs, e.cfg.Output.Path)
	}
	return localstate.NewGitReader(e.cfg.Output.Path)
}

// prepare creates the output repository when it does not exist yet
func (e *Engine) prepare(ctx context.Context, state *localstate.State) error {
	if !state.NeedsInit {
		return nil
	}

	root := e.cfg.Output.Path
	if e.cfg.Sync.NoCommit {
		if err := e.fs.MkdirAll(root, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		return nil
	}

	e.logger.Info("initializing repository", "path", root)
	if err := e.git.Init(ctx, root); err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	return nil
}

// logPlanDetails logs detailed plan information for dry-run
func (e *Engine) logPlanDetails(plan *Plan) {
	for _, op := range plan.Pending() {
		switch op.Action {
		case ActionDelete:
			e.logger.Info("[dry-run] would delete", "path", op.Path)
		default:
			e.logger.Info("[dry-run] would "+string(op.Action),
				"path", op.Path,
				"hole", op.Record.Hole,
				"lang", op.Record.Lang,
				"message", commitMessage(op))
		}
	}
}
