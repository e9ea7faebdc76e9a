// Package fuzzy is a Mamdani fuzzy inference engine: linguistic variables
// with piecewise-linear terms, rules over AND/OR/NOT antecedents, min
// implication, max aggregation and centroid-family defuzzification.
//
// A ControlSystem is built once through a Builder and is immutable; any
// number of Simulations may share it concurrently, each owned by a single
// goroutine. The package performs no I/O and no logging.
package fuzzy

import (
	"errors"
	"fmt"
	"maps"
)

// ControlSystem owns the variables and the ordered rule base.
type ControlSystem struct {
	variables []*LinguisticVariable
	byName    map[string]int
	inputs    []int
	outputs   []int
	rules     []compiledRule
	byOutput  map[int][]int // output variable index -> rule indices
}

// Builder accumulates variables and rules. Problems are collected and
// reported together by Build.
type Builder struct {
	variables []*LinguisticVariable
	byName    map[string]int
	rules     []Rule
	errs      []error
}

// VariableBuilder adds terms to one variable.
type VariableBuilder struct {
	b *Builder
	v *LinguisticVariable
}

// NewBuilder starts an empty system.
func NewBuilder() *Builder {
	return &Builder{byName: make(map[string]int)}
}

// Input declares an input (antecedent) variable.
func (b *Builder) Input(name string, u Universe) *VariableBuilder {
	return b.variable(name, KindInput, u)
}

// Output declares an output (consequent) variable, defuzzified by centroid
// unless Defuzzify says otherwise.
func (b *Builder) Output(name string, u Universe) *VariableBuilder {
	return b.variable(name, KindOutput, u)
}

func (b *Builder) variable(name string, kind Kind, u Universe) *VariableBuilder {
	v := &LinguisticVariable{
		name:     name,
		kind:     kind,
		universe: u,
		index:    make(map[string]int),
		defuzz:   Centroid,
	}
	switch {
	case name == "":
		b.errs = append(b.errs, configErr("", "", "variable name is empty"))
	case u.Len() == 0:
		b.errs = append(b.errs, configErr(name, "", "universe is empty"))
	}
	if _, dup := b.byName[name]; dup {
		b.errs = append(b.errs, configErr(name, "", "variable declared twice"))
		// Keep the first declaration registered; the detached builder
		// still collects term errors.
		return &VariableBuilder{b: b, v: v}
	}
	b.byName[name] = len(b.variables)
	b.variables = append(b.variables, v)
	return &VariableBuilder{b: b, v: v}
}

// Term adds a labeled membership function.
func (vb *VariableBuilder) Term(label string, mf MembershipFunction) *VariableBuilder {
	v := vb.v
	switch {
	case label == "":
		vb.b.errs = append(vb.b.errs, configErr(v.name, "", "term label is empty"))
		return vb
	case mf == nil:
		vb.b.errs = append(vb.b.errs, configErr(v.name, label, "membership function is nil"))
		return vb
	}
	if _, dup := v.index[label]; dup {
		vb.b.errs = append(vb.b.errs, configErr(v.name, label, "term declared twice"))
		return vb
	}
	v.index[label] = len(v.terms)
	v.terms = append(v.terms, Term{Label: label, Membership: mf})
	return vb
}

// Defuzzify selects the defuzzification method of an output variable.
func (vb *VariableBuilder) Defuzzify(m DefuzzMethod) *VariableBuilder {
	if vb.v.kind != KindOutput {
		vb.b.errs = append(vb.b.errs, configErr(vb.v.name, "", "defuzzification set on an input variable"))
		return vb
	}
	if DefuzzMethodName(m) == "unknown" {
		vb.b.errs = append(vb.b.errs, configErr(vb.v.name, "", "unknown defuzzification method %d", m))
		return vb
	}
	vb.v.defuzz = m
	return vb
}

// Fail records an error found outside the builder (e.g. a bad breakpoint
// while decoding a definition) so Build reports it with the rest.
func (b *Builder) Fail(err error) *Builder {
	if err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Rule appends rules in order.
func (b *Builder) Rule(rules ...Rule) *Builder {
	b.rules = append(b.rules, rules...)
	return b
}

// Build validates every reference and returns the immutable system. On any
// problem no system is returned and the error joins every
// ConfigurationError found.
func (b *Builder) Build() (*ControlSystem, error) {
	errs := append([]error(nil), b.errs...)

	// The system gets its own copies; VariableBuilders handed out earlier
	// keep pointing at the builder's variables.
	sys := &ControlSystem{
		variables: make([]*LinguisticVariable, len(b.variables)),
		byName:    maps.Clone(b.byName),
		byOutput:  make(map[int][]int),
	}
	for i, v := range b.variables {
		sys.variables[i] = v.clone()
	}
	for i, v := range sys.variables {
		if len(v.terms) == 0 {
			errs = append(errs, configErr(v.name, "", "variable has no terms"))
		}
		if v.kind == KindInput {
			sys.inputs = append(sys.inputs, i)
		} else {
			sys.outputs = append(sys.outputs, i)
		}
	}
	if len(sys.outputs) == 0 {
		errs = append(errs, configErr("", "", "system has no output variable"))
	}

	for i, r := range b.rules {
		cr, rerrs := sys.compile(r, i)
		if len(rerrs) > 0 {
			errs = append(errs, rerrs...)
			continue
		}
		sys.byOutput[cr.output] = append(sys.byOutput[cr.output], len(sys.rules))
		sys.rules = append(sys.rules, cr)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	b.variables, b.byName, b.rules, b.errs = nil, make(map[string]int), nil, nil
	return sys, nil
}

func (s *ControlSystem) compile(r Rule, i int) (compiledRule, []error) {
	label := ruleLabel(r, i)
	var errs []error
	fail := func(variable, term, reason string, args ...any) {
		e := configErr(variable, term, reason, args...)
		e.Rule = label
		errs = append(errs, e)
	}

	if !validWeight(r.Weight) {
		fail("", "", "weight must be a non-negative finite number, got %g", r.Weight)
	}

	out, ok := s.byName[r.Consequent.Variable]
	term := -1
	switch {
	case !ok:
		fail(r.Consequent.Variable, "", "consequent variable is not defined")
	case s.variables[out].kind != KindOutput:
		fail(r.Consequent.Variable, "", "consequent variable is not an output")
	default:
		if term, ok = s.variables[out].index[r.Consequent.Label]; !ok {
			fail(r.Consequent.Variable, r.Consequent.Label, "consequent term is not defined")
		}
	}

	var build func(e Expr) *node
	build = func(e Expr) *node {
		switch x := e.(type) {
		case TermRef:
			vi, ok := s.byName[x.Variable]
			if !ok {
				fail(x.Variable, "", "antecedent variable is not defined")
				return nil
			}
			if s.variables[vi].kind != KindInput {
				fail(x.Variable, "", "antecedent variable is not an input")
				return nil
			}
			ti, ok := s.variables[vi].index[x.Label]
			if !ok {
				fail(x.Variable, x.Label, "antecedent term is not defined")
				return nil
			}
			return &node{op: opTerm, variable: vi, term: ti}
		case AndExpr:
			return &node{op: opAnd, left: build(x.Left), right: build(x.Right)}
		case OrExpr:
			return &node{op: opOr, left: build(x.Left), right: build(x.Right)}
		case NotExpr:
			return &node{op: opNot, left: build(x.Operand)}
		case nil:
			fail("", "", "antecedent is empty")
			return nil
		default:
			fail("", "", "unsupported antecedent %T", e)
			return nil
		}
	}
	ante := build(r.Antecedent)

	if len(errs) > 0 {
		return compiledRule{}, errs
	}
	return compiledRule{rule: r, label: label, ante: ante, output: out, term: term}, nil
}

// Variable looks up a variable by name.
func (s *ControlSystem) Variable(name string) (*LinguisticVariable, bool) {
	i, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return s.variables[i], true
}

// Variables returns all variables in declaration order.
func (s *ControlSystem) Variables() []*LinguisticVariable {
	out := make([]*LinguisticVariable, len(s.variables))
	copy(out, s.variables)
	return out
}

// Inputs returns the input variables in declaration order.
func (s *ControlSystem) Inputs() []*LinguisticVariable { return s.pick(s.inputs) }

// Outputs returns the output variables in declaration order.
func (s *ControlSystem) Outputs() []*LinguisticVariable { return s.pick(s.outputs) }

func (s *ControlSystem) pick(idx []int) []*LinguisticVariable {
	out := make([]*LinguisticVariable, len(idx))
	for i, j := range idx {
		out[i] = s.variables[j]
	}
	return out
}

// Rules returns the rule base in order.
func (s *ControlSystem) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	for i, cr := range s.rules {
		out[i] = cr.rule
	}
	return out
}

// RulesFor returns the rules concluding on the named output variable.
func (s *ControlSystem) RulesFor(output string) []Rule {
	i, ok := s.byName[output]
	if !ok {
		return nil
	}
	var out []Rule
	for _, ri := range s.byOutput[i] {
		out = append(out, s.rules[ri].rule)
	}
	return out
}

func (s *ControlSystem) String() string {
	return fmt.Sprintf("ControlSystem(%d inputs, %d outputs, %d rules)", len(s.inputs), len(s.outputs), len(s.rules))
}
