package evaluator

import (
	"fmt"

	"github.com/thomasrohde/pylisp/pkg/diagnostics"
)

// DefaultMaxDepth bounds nested Eval calls when Options.MaxDepth is zero.
// Deep enough for a few thousand levels of user recursion and far below
// the point where the Go stack would overflow.
const DefaultMaxDepth = 10000

// Budget holds the resource limits for one evaluator.
type Budget struct {
	MaxDepth int
}

// BudgetTracker tracks resource consumption during evaluation.
type BudgetTracker struct {
	Depth     int
	PeakDepth int
	Calls     int64
}

func (ev *Evaluator) enter() error {
	ev.tracker.Depth++
	if ev.tracker.Depth > ev.tracker.PeakDepth {
		ev.tracker.PeakDepth = ev.tracker.Depth
	}
	if ev.tracker.Depth > ev.budget.MaxDepth {
		return &RuntimeError{
			Code:    diagnostics.EResource,
			Message: fmt.Sprintf("maximum recursion depth exceeded (%d)", ev.budget.MaxDepth),
		}
	}
	return nil
}

func (ev *Evaluator) leave() {
	ev.tracker.Depth--
}
