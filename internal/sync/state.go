package sync

import (
	"github.com/schaermu/golfsync/internal/localstate"
	"github.com/schaermu/golfsync/internal/solution"
)

// Action is what the writer does for an operation
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionSkip   Action = "skip"
	ActionDelete Action = "delete"
)

// Operation is a single planned change to the output repository
type Operation struct {
	Action Action
	Path   string            // slash-separated, relative to the repository root
	Record solution.Record   // zero for deletes
	Prior  *localstate.Entry // recorded entry, nil for creates
}

// Plan is the ordered list of operations for one sync
type Plan struct {
	Operations []Operation
}

// Count returns the number of operations with the given action
func (p *Plan) Count(action Action) int {
	n := 0
	for _, op := range p.Operations {
		if op.Action == action {
			n++
		}
	}
	return n
}

// Pending returns the operations that change the repository, in plan order
func (p *Plan) Pending() []Operation {
	pending := make([]Operation, 0, len(p.Operations))
	for _, op := range p.Operations {
		if op.Action != ActionSkip {
			pending = append(pending, op)
		}
	}
	return pending
}

// Result summarizes a completed run
type Result struct {
	Created int
	Updated int
	Skipped int
	Deleted int
	// Applied is the number of pending operations that were written and
	// committed before the run finished or aborted
	Applied int
}

func resultFromPlan(plan *Plan) *Result {
	return &Result{
		Created: plan.Count(ActionCreate),
		Updated: plan.Count(ActionUpdate),
		Skipped: plan.Count(ActionSkip),
		Deleted: plan.Count(ActionDelete),
	}
}
