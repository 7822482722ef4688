package solver

import (
	"context"
	"math/rand"
)

// Backtrack is a depth-first search backend with linear bound propagation.
// It walks variables in creation order, prunes any branch whose partial
// assignment can no longer satisfy a constraint, and backtracks on conflict.
type Backtrack struct{}

// NewBacktrack constructs the default search backend.
func NewBacktrack() *Backtrack {
	return &Backtrack{}
}

type outcome int

const (
	outcomeExhausted outcome = iota
	outcomeFound
	outcomeAborted
)

type occurrence struct {
	constraint int
	coef       int
}

type search struct {
	ctx    context.Context
	model  *Model
	cons   []Constraint
	occ    [][]occurrence
	values []int8 // -1 unassigned, else 0/1
	sum    []int  // assigned part per constraint
	minRem []int  // lowest achievable remainder per constraint
	maxRem []int  // highest achievable remainder per constraint
	first  []bool // branch value tried first, per variable
	steps  int64
	budget int64
}

// Solve runs the search. Budget counts assignment attempts; when it runs out,
// or the context is cancelled, the verdict is StatusUnknown.
func (b *Backtrack) Solve(ctx context.Context, m *Model, opts Options) (Result, error) {
	s := newSearch(ctx, m, opts)

	// A constraint no assignment can touch (e.g. an equality over an empty
	// term list) must still be verified.
	for ci := range s.cons {
		if !s.consistent(ci) {
			return Result{Status: StatusInfeasible}, nil
		}
	}

	for v, value := range m.fixed {
		if !s.assign(Var(v), boolToInt8(value)) {
			return Result{Status: StatusInfeasible, Steps: s.steps}, nil
		}
	}

	switch s.dfs(0) {
	case outcomeFound:
		values := make([]bool, m.NumVars())
		for i, v := range s.values {
			values[i] = v == 1
		}
		return Result{Status: StatusFeasible, Values: values, Steps: s.steps}, nil
	case outcomeExhausted:
		return Result{Status: StatusInfeasible, Steps: s.steps}, nil
	default:
		return Result{Status: StatusUnknown, Steps: s.steps}, nil
	}
}

func newSearch(ctx context.Context, m *Model, opts Options) *search {
	cons := m.Constraints()
	s := &search{
		ctx:    ctx,
		model:  m,
		cons:   cons,
		occ:    make([][]occurrence, m.NumVars()),
		values: make([]int8, m.NumVars()),
		sum:    make([]int, len(cons)),
		minRem: make([]int, len(cons)),
		maxRem: make([]int, len(cons)),
		first:  make([]bool, m.NumVars()),
		budget: opts.Budget,
	}
	for i := range s.values {
		s.values[i] = -1
	}
	for ci, c := range cons {
		for _, t := range c.Terms {
			s.occ[t.Var] = append(s.occ[t.Var], occurrence{constraint: ci, coef: t.Coef})
			if t.Coef > 0 {
				s.maxRem[ci] += t.Coef
			} else {
				s.minRem[ci] += t.Coef
			}
		}
	}

	// Selection variables benefit from trying "selected" first; a seed
	// perturbs that preference deterministically for reproducible runs.
	for i := range s.first {
		s.first[i] = true
	}
	if opts.Seed != 0 {
		rng := rand.New(rand.NewSource(opts.Seed))
		for i := range s.first {
			s.first[i] = rng.Intn(2) == 0
		}
	}
	return s
}

func (s *search) dfs(from int) outcome {
	v := from
	for v < len(s.values) && s.values[v] != -1 {
		v++
	}
	if v == len(s.values) {
		return outcomeFound
	}

	if s.exhausted() {
		return outcomeAborted
	}

	order := [2]int8{1, 0}
	if !s.first[v] {
		order = [2]int8{0, 1}
	}
	aborted := false
	for _, value := range order {
		if s.assign(Var(v), value) {
			switch s.dfs(v + 1) {
			case outcomeFound:
				return outcomeFound
			case outcomeAborted:
				aborted = true
			}
		}
		s.unassign(Var(v), value)
		if aborted {
			return outcomeAborted
		}
	}
	return outcomeExhausted
}

// assign sets the variable and updates bounds on every constraint it appears
// in. It returns false, leaving the updates in place for unassign to undo,
// when a constraint becomes unsatisfiable.
func (s *search) assign(v Var, value int8) bool {
	s.steps++
	s.values[v] = value
	ok := true
	for _, o := range s.occ[v] {
		if value == 1 {
			s.sum[o.constraint] += o.coef
		}
		if o.coef > 0 {
			s.maxRem[o.constraint] -= o.coef
		} else {
			s.minRem[o.constraint] -= o.coef
		}
		if !s.consistent(o.constraint) {
			ok = false
		}
	}
	if !ok {
		s.unassign(v, value)
	}
	return ok
}

func (s *search) unassign(v Var, value int8) {
	if s.values[v] == -1 {
		return
	}
	s.values[v] = -1
	for _, o := range s.occ[v] {
		if value == 1 {
			s.sum[o.constraint] -= o.coef
		}
		if o.coef > 0 {
			s.maxRem[o.constraint] += o.coef
		} else {
			s.minRem[o.constraint] += o.coef
		}
	}
}

func (s *search) consistent(ci int) bool {
	c := s.cons[ci]
	low := s.sum[ci] + s.minRem[ci]
	high := s.sum[ci] + s.maxRem[ci]
	if c.Sense == SenseLe {
		return low <= c.Bound
	}
	return low <= c.Bound && c.Bound <= high
}

func (s *search) exhausted() bool {
	if s.budget > 0 && s.steps >= s.budget {
		return true
	}
	if s.steps&0x3ff == 0 {
		select {
		case <-s.ctx.Done():
			return true
		default:
		}
	}
	return false
}

func boolToInt8(v bool) int8 {
	if v {
		return 1
	}
	return 0
}
