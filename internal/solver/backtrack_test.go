package solver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solve(t *testing.T, m *Model, opts Options) Result {
	t.Helper()
	result, err := NewBacktrack().Solve(context.Background(), m, opts)
	require.NoError(t, err)
	return result
}

func TestBacktrackSolvesEquality(t *testing.T) {
	m := NewModel()
	a := m.NewVar("a")
	b := m.NewVar("b")
	c := m.NewVar("c")
	m.AddEq([]Term{{a, 1}, {b, 1}, {c, 1}}, 2)

	result := solve(t, m, Options{})
	require.Equal(t, StatusFeasible, result.Status)
	require.True(t, result.Status.HasSolution())

	selected := 0
	for _, v := range result.Values {
		if v {
			selected++
		}
	}
	assert.Equal(t, 2, selected)
}

func TestBacktrackHonoursUpperBound(t *testing.T) {
	m := NewModel()
	a := m.NewVar("a")
	b := m.NewVar("b")
	m.AddLe([]Term{{a, 1}, {b, 1}}, 1)
	m.AddEq([]Term{{a, 1}, {b, 1}}, 1)

	result := solve(t, m, Options{})
	require.Equal(t, StatusFeasible, result.Status)
	assert.NotEqual(t, result.Values[a], result.Values[b])
}

func TestBacktrackPropagatesImplication(t *testing.T) {
	m := NewModel()
	x := m.NewVar("x")
	y := m.NewVar("y")
	// x => y, with x forced on.
	m.AddLe([]Term{{x, 1}, {y, -1}}, 0)
	m.Fix(x, true)

	result := solve(t, m, Options{})
	require.Equal(t, StatusFeasible, result.Status)
	assert.True(t, result.Values[x])
	assert.True(t, result.Values[y])
}

func TestBacktrackDetectsInfeasibility(t *testing.T) {
	m := NewModel()
	a := m.NewVar("a")
	b := m.NewVar("b")
	m.AddEq([]Term{{a, 1}, {b, 1}}, 2)
	m.AddLe([]Term{{a, 1}, {b, 1}}, 1)

	result := solve(t, m, Options{})
	assert.Equal(t, StatusInfeasible, result.Status)
	assert.False(t, result.Status.HasSolution())
}

func TestBacktrackRejectsConflictingFix(t *testing.T) {
	m := NewModel()
	a := m.NewVar("a")
	m.AddLe([]Term{{a, 1}}, 0)
	m.Fix(a, true)

	result := solve(t, m, Options{})
	assert.Equal(t, StatusInfeasible, result.Status)
}

func TestBacktrackRejectsEmptyEquality(t *testing.T) {
	m := NewModel()
	m.NewVar("unused")
	m.AddEq(nil, 1)

	result := solve(t, m, Options{})
	assert.Equal(t, StatusInfeasible, result.Status)
	assert.Zero(t, result.Steps)
}

func TestBacktrackBudgetYieldsUnknown(t *testing.T) {
	m := NewModel()
	vars := make([]Term, 0, 8)
	for i := 0; i < 8; i++ {
		vars = append(vars, Term{m.NewVar("v"), 1})
	}
	m.AddEq(vars, 8)

	result := solve(t, m, Options{Budget: 2})
	assert.Equal(t, StatusUnknown, result.Status)
	assert.LessOrEqual(t, result.Steps, int64(2))
}

func TestBacktrackCancelledContextYieldsUnknown(t *testing.T) {
	m := NewModel()
	a := m.NewVar("a")
	m.AddEq([]Term{{a, 1}}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewBacktrack().Solve(ctx, m, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, result.Status)
}

func TestBacktrackSeedIsDeterministic(t *testing.T) {
	build := func() *Model {
		m := NewModel()
		terms := make([]Term, 0, 6)
		for i := 0; i < 6; i++ {
			terms = append(terms, Term{m.NewVar("v"), 1})
		}
		m.AddEq(terms, 3)
		return m
	}

	first := solve(t, build(), Options{Seed: 42})
	second := solve(t, build(), Options{Seed: 42})
	require.Equal(t, StatusFeasible, first.Status)
	assert.Equal(t, first.Values, second.Values)

	other := solve(t, build(), Options{Seed: 7})
	require.Equal(t, StatusFeasible, other.Status)
}
