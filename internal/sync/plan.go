package sync

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/schaermu/golfsync/internal/localstate"
	"github.com/schaermu/golfsync/internal/solution"
)

// Planner computes the diff between fetched solutions and the repository
type Planner struct {
	structure solution.Structure
	prune     bool
	logger    *slog.Logger
}

// NewPlanner creates a planner for the given layout
func NewPlanner(structure solution.Structure, prune bool, logger *slog.Logger) *Planner {
	return &Planner{
		structure: structure,
		prune:     prune,
		logger:    logger,
	}
}

// Plan builds the operations that bring entries in line with records.
// Records are expected in fetch order; when two records map to the same
// path the later one is planned.
func (p *Planner) Plan(records []solution.Record, entries map[string]localstate.Entry) (*Plan, error) {
	claimed := make(map[string]solution.Record, len(records))
	for _, rec := range records {
		path, err := solution.Path(p.structure, rec.Key())
		if err != nil {
			return nil, fmt.Errorf("failed to compute path for %s: %w", rec.Key(), err)
		}
		if prev, exists := claimed[path]; exists {
			p.logger.Warn("solutions share a path, keeping the later one",
				"path", path,
				"dropped", prev.Key().String(),
				"kept", rec.Key().String())
		}
		claimed[path] = rec
	}

	ops := make([]Operation, 0, len(claimed))
	for path, rec := range claimed {
		op := Operation{Path: path, Record: rec}

		entry, exists := entries[path]
		switch {
		case !exists:
			op.Action = ActionCreate
		case changed(entry, rec.Code):
			op.Action = ActionUpdate
			op.Prior = &entry
		default:
			op.Action = ActionSkip
			op.Prior = &entry
		}
		ops = append(ops, op)
	}

	sort.Slice(ops, func(i, j int) bool {
		ki, kj := ops[i].Record.Key(), ops[j].Record.Key()
		if ki != kj {
			return ki.Less(kj)
		}
		return ops[i].Path < ops[j].Path
	})

	if p.prune {
		ops = append(ops, p.deletions(claimed, entries)...)
	}

	return &Plan{Operations: ops}, nil
}

// deletions returns deletes for every unclaimed, managed entry ordered by path
func (p *Planner) deletions(claimed map[string]solution.Record, entries map[string]localstate.Entry) []Operation {
	var ops []Operation
	for path, entry := range entries {
		if _, ok := claimed[path]; ok || localstate.IsIgnored(path) {
			continue
		}
		ops = append(ops, Operation{Action: ActionDelete, Path: path, Prior: &entry})
	}
	sort.Slice(ops, func(i, j int) bool {
		return ops[i].Path < ops[j].Path
	})
	return ops
}

// changed reports whether content differs from a recorded entry. The size is
// compared first since it avoids hashing in the common case.
func changed(entry localstate.Entry, content string) bool {
	if entry.Size != int64(len(content)) {
		return true
	}
	return entry.Hash != localstate.HashContent([]byte(content))
}
