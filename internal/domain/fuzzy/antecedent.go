package fuzzy

import "fmt"

// Expr is an antecedent expression: a tree of term references joined by
// AND / OR, with optional negation. Built explicitly and validated when the
// owning system is built.
type Expr interface {
	String() string
	walk(fn func(TermRef))
}

// TermRef is a leaf: "variable is label".
type TermRef struct {
	Variable string
	Label    string
}

// AndExpr is Mamdani conjunction (minimum).
type AndExpr struct{ Left, Right Expr }

// OrExpr is disjunction (maximum).
type OrExpr struct{ Left, Right Expr }

// NotExpr is the standard complement 1 - degree.
type NotExpr struct{ Operand Expr }

// Ref builds a term reference.
func Ref(variable, label string) TermRef { return TermRef{Variable: variable, Label: label} }

// And folds its operands left to right.
func And(left, right Expr, more ...Expr) Expr {
	e := Expr(AndExpr{Left: left, Right: right})
	for _, m := range more {
		e = AndExpr{Left: e, Right: m}
	}
	return e
}

// Or folds its operands left to right.
func Or(left, right Expr, more ...Expr) Expr {
	e := Expr(OrExpr{Left: left, Right: right})
	for _, m := range more {
		e = OrExpr{Left: e, Right: m}
	}
	return e
}

// Not negates an expression.
func Not(e Expr) Expr { return NotExpr{Operand: e} }

func (t TermRef) String() string { return t.Variable + "." + t.Label }
func (e AndExpr) String() string { return fmt.Sprintf("(%s AND %s)", e.Left, e.Right) }
func (e OrExpr) String() string  { return fmt.Sprintf("(%s OR %s)", e.Left, e.Right) }
func (e NotExpr) String() string { return fmt.Sprintf("NOT %s", e.Operand) }

func (t TermRef) walk(fn func(TermRef)) { fn(t) }
func (e AndExpr) walk(fn func(TermRef)) { walkChild(e.Left, fn); walkChild(e.Right, fn) }
func (e OrExpr) walk(fn func(TermRef))  { walkChild(e.Left, fn); walkChild(e.Right, fn) }
func (e NotExpr) walk(fn func(TermRef)) { walkChild(e.Operand, fn) }

func walkChild(e Expr, fn func(TermRef)) {
	if e != nil {
		e.walk(fn)
	}
}

// Refs lists every term reference in e, left to right.
func Refs(e Expr) []TermRef {
	var refs []TermRef
	walkChild(e, func(t TermRef) { refs = append(refs, t) })
	return refs
}

// Strength evaluates e against fuzzified inputs (variable -> label -> degree).
// A reference to a variable or label absent from fuzzified is a
// ComputationError.
func Strength(e Expr, fuzzified map[string]map[string]float64) (float64, error) {
	switch x := e.(type) {
	case TermRef:
		terms, ok := fuzzified[x.Variable]
		if !ok {
			return 0, &ComputationError{Reason: fmt.Sprintf("input %q is not set", x.Variable)}
		}
		degree, ok := terms[x.Label]
		if !ok {
			return 0, &ComputationError{Variable: x.Variable, Reason: fmt.Sprintf("term %q is not defined", x.Label)}
		}
		return clamp01(degree), nil
	case AndExpr:
		l, r, err := strengthPair(x.Left, x.Right, fuzzified)
		if err != nil {
			return 0, err
		}
		return min(l, r), nil
	case OrExpr:
		l, r, err := strengthPair(x.Left, x.Right, fuzzified)
		if err != nil {
			return 0, err
		}
		return max(l, r), nil
	case NotExpr:
		v, err := Strength(x.Operand, fuzzified)
		if err != nil {
			return 0, err
		}
		return 1 - v, nil
	case nil:
		return 0, &ComputationError{Reason: "empty antecedent"}
	default:
		return 0, &ComputationError{Reason: fmt.Sprintf("unsupported antecedent %T", e)}
	}
}

func strengthPair(l, r Expr, fuzzified map[string]map[string]float64) (float64, float64, error) {
	lv, err := Strength(l, fuzzified)
	if err != nil {
		return 0, 0, err
	}
	rv, err := Strength(r, fuzzified)
	if err != nil {
		return 0, 0, err
	}
	return lv, rv, nil
}

// opcode tags a compiled antecedent node.
type opcode uint8

const (
	opTerm opcode = iota
	opAnd
	opOr
	opNot
)

// node is an antecedent resolved against a system's registries, so compute
// does index lookups instead of string lookups.
type node struct {
	op          opcode
	variable    int
	term        int
	left, right *node
}

// strength evaluates a compiled node. degrees is indexed [variable][term];
// bound reports which variables have inputs. The second result is the index
// of the first unbound variable encountered, or -1.
func (n *node) strength(degrees [][]float64, bound []bool) (float64, int) {
	switch n.op {
	case opTerm:
		if !bound[n.variable] {
			return 0, n.variable
		}
		return degrees[n.variable][n.term], -1
	case opNot:
		v, miss := n.left.strength(degrees, bound)
		return 1 - v, miss
	}
	l, miss := n.left.strength(degrees, bound)
	if miss >= 0 {
		return 0, miss
	}
	r, miss := n.right.strength(degrees, bound)
	if miss >= 0 {
		return 0, miss
	}
	if n.op == opAnd {
		return min(l, r), -1
	}
	return max(l, r), -1
}
