package solver

import "context"

// Status is the verdict a backend reaches on a model.
type Status int

const (
	// StatusUnknown means the budget or deadline ran out before a verdict.
	StatusUnknown Status = iota
	// StatusOptimal means a satisfying assignment was proven best possible.
	StatusOptimal
	// StatusFeasible means a satisfying assignment was found.
	StatusFeasible
	// StatusInfeasible means the search space was exhausted without a solution.
	StatusInfeasible
)

// String renders the status for logs and metrics labels.
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	default:
		return "unknown"
	}
}

// HasSolution reports whether Result.Values carries a usable assignment.
func (s Status) HasSolution() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Options bounds a single solve call. A zero Budget means unlimited; the
// caller limits wall-clock time through the context deadline. Seed makes the
// branching order reproducible.
type Options struct {
	Budget int64
	Seed   int64
}

// Result carries the verdict and, when HasSolution, one value per variable.
type Result struct {
	Status Status
	Values []bool
	Steps  int64
}

// Solver finds a boolean assignment satisfying every constraint of a Model.
// Implementations must honor context cancellation and report StatusUnknown
// rather than an error when the budget or deadline expires.
type Solver interface {
	Solve(ctx context.Context, m *Model, opts Options) (Result, error)
}
