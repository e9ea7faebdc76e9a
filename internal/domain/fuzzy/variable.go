package fuzzy

import (
	"maps"
	"slices"
)

// Kind says which side of a rule a variable may appear on.
type Kind int

const (
	KindInput  Kind = 0
	KindOutput Kind = 1
)

// KindName returns the string label for a kind.
func KindName(k Kind) string {
	switch k {
	case KindInput:
		return "input"
	case KindOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Term is one labeled membership function of a variable.
type Term struct {
	Label      string
	Membership MembershipFunction
}

// LinguisticVariable is a named universe plus its terms. Immutable once
// built; the label registry is fixed at build time.
type LinguisticVariable struct {
	name     string
	kind     Kind
	universe Universe
	terms    []Term
	index    map[string]int // label -> position in terms
	defuzz   DefuzzMethod   // outputs only
}

func (v *LinguisticVariable) clone() *LinguisticVariable {
	c := *v
	c.terms = slices.Clone(v.terms)
	c.index = maps.Clone(v.index)
	return &c
}

func (v *LinguisticVariable) Name() string             { return v.name }
func (v *LinguisticVariable) Kind() Kind               { return v.kind }
func (v *LinguisticVariable) Universe() Universe       { return v.universe }
func (v *LinguisticVariable) Defuzzifier() DefuzzMethod { return v.defuzz }

// Terms returns the terms in declaration order.
func (v *LinguisticVariable) Terms() []Term {
	out := make([]Term, len(v.terms))
	copy(out, v.terms)
	return out
}

// Labels returns the term labels in declaration order.
func (v *LinguisticVariable) Labels() []string {
	out := make([]string, len(v.terms))
	for i, t := range v.terms {
		out[i] = t.Label
	}
	return out
}

// Term looks up a term's membership function by label.
func (v *LinguisticVariable) Term(label string) (MembershipFunction, bool) {
	i, ok := v.index[label]
	if !ok {
		return nil, false
	}
	return v.terms[i].Membership, true
}

// Fuzzify returns the degree of every term at x. Degrees are not normalized;
// a value in a gap between terms yields all zeros.
func (v *LinguisticVariable) Fuzzify(x float64) map[string]float64 {
	out := make(map[string]float64, len(v.terms))
	for _, t := range v.terms {
		out[t.Label] = clamp01(t.Membership.Evaluate(x))
	}
	return out
}

// fuzzify is the index-ordered form used by compute.
func (v *LinguisticVariable) fuzzify(x float64, dst []float64) {
	for i, t := range v.terms {
		dst[i] = clamp01(t.Membership.Evaluate(x))
	}
}

// Curves is a variable's membership functions sampled over its universe,
// ready for a chart.
type Curves struct {
	Variable string               `json:"variable"`
	Universe []float64            `json:"universe"`
	Labels   []string             `json:"labels"` // declaration order
	Degrees  map[string][]float64 `json:"degrees"`
}

// Curves samples every term over the universe.
func (v *LinguisticVariable) Curves() Curves {
	c := Curves{
		Variable: v.name,
		Universe: v.universe.Points(),
		Labels:   v.Labels(),
		Degrees:  make(map[string][]float64, len(v.terms)),
	}
	for _, t := range v.terms {
		c.Degrees[t.Label] = Sample(t.Membership, v.universe)
	}
	return c
}
