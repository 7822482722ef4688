package solver

import "fmt"

// Var identifies a boolean decision variable inside a Model.
type Var int

// Term is a weighted occurrence of a variable in a linear constraint.
type Term struct {
	Var  Var
	Coef int
}

// Sense distinguishes equality from upper-bound constraints.
type Sense int

const (
	SenseEq Sense = iota
	SenseLe
)

// Constraint is a linear (in)equality over boolean variables:
// sum(coef_i * x_i) Sense Bound.
type Constraint struct {
	Terms []Term
	Sense Sense
	Bound int
}

// Model is a 0/1 integer program expressed as plain data. It carries no
// solving logic; any backend implementing Solver can consume it.
type Model struct {
	names       []string
	fixed       map[Var]bool
	constraints []Constraint
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{fixed: make(map[Var]bool)}
}

// NewVar registers a boolean variable under a diagnostic name.
func (m *Model) NewVar(name string) Var {
	m.names = append(m.names, name)
	return Var(len(m.names) - 1)
}

// NumVars reports how many variables the model holds.
func (m *Model) NumVars() int {
	return len(m.names)
}

// Name returns the diagnostic name of a variable.
func (m *Model) Name(v Var) string {
	if int(v) < 0 || int(v) >= len(m.names) {
		return fmt.Sprintf("var_%d", v)
	}
	return m.names[v]
}

// Fix pins a variable to a value before the search starts.
func (m *Model) Fix(v Var, value bool) {
	m.fixed[v] = value
}

// Fixed reports the pre-assigned value of a variable, if any.
func (m *Model) Fixed(v Var) (bool, bool) {
	value, ok := m.fixed[v]
	return value, ok
}

// AddEq posts sum(terms) == bound.
func (m *Model) AddEq(terms []Term, bound int) {
	m.constraints = append(m.constraints, Constraint{Terms: terms, Sense: SenseEq, Bound: bound})
}

// AddLe posts sum(terms) <= bound.
func (m *Model) AddLe(terms []Term, bound int) {
	m.constraints = append(m.constraints, Constraint{Terms: terms, Sense: SenseLe, Bound: bound})
}

// Constraints exposes the posted constraint set.
func (m *Model) Constraints() []Constraint {
	return m.constraints
}
