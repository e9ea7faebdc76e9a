package fuzzy

import (
	"fmt"
	"math"
)

// Consequent is the conclusion of a rule: "variable is label".
type Consequent struct {
	Variable string `json:"variable"`
	Label    string `json:"label"`
}

func (c Consequent) String() string { return c.Variable + "." + c.Label }

// Rule is antecedent -> consequent with a weight scaling its firing strength.
// Use NewRule for the default weight of 1; a literal with Weight 0 never fires.
type Rule struct {
	Name       string // optional label for reports and errors
	Antecedent Expr
	Consequent Consequent
	Weight     float64
}

// NewRule returns a rule with weight 1.
func NewRule(antecedent Expr, variable, label string) Rule {
	return Rule{
		Antecedent: antecedent,
		Consequent: Consequent{Variable: variable, Label: label},
		Weight:     1,
	}
}

// WithWeight returns a copy with the given weight.
func (r Rule) WithWeight(w float64) Rule {
	r.Weight = w
	return r
}

// Named returns a copy with the given label.
func (r Rule) Named(name string) Rule {
	r.Name = name
	return r
}

func (r Rule) String() string {
	s := fmt.Sprintf("IF %s THEN %s", r.Antecedent, r.Consequent)
	if r.Weight != 1 {
		s += fmt.Sprintf(" WITH %g", r.Weight)
	}
	return s
}

// FiringStrength is strength(antecedent) * weight clamped to [0,1].
func FiringStrength(strength, weight float64) float64 {
	return clamp01(strength * weight)
}

// Clip applies Mamdani implication: y -> min(alpha, mf(y)) over u.
func Clip(alpha float64, mf MembershipFunction, u Universe) []float64 {
	out := make([]float64, len(u.points))
	clipInto(out, alpha, mf, u)
	return out
}

func clipInto(dst []float64, alpha float64, mf MembershipFunction, u Universe) {
	for i, y := range u.points {
		dst[i] = min(alpha, clamp01(mf.Evaluate(y)))
	}
}

// Aggregate is the pointwise maximum of equally sized sets. No sets gives nil.
func Aggregate(sets ...[]float64) []float64 {
	if len(sets) == 0 {
		return nil
	}
	out := make([]float64, len(sets[0]))
	for _, s := range sets {
		for i := range out {
			if i < len(s) && s[i] > out[i] {
				out[i] = s[i]
			}
		}
	}
	return out
}

// compiledRule is a rule resolved against the system's registries.
type compiledRule struct {
	rule   Rule
	label  string // Name, or "#n" when unnamed
	ante   *node
	output int // variable index
	term   int // term index in the output variable
}

func ruleLabel(r Rule, i int) string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("#%d", i+1)
}

func validWeight(w float64) bool {
	return !math.IsNaN(w) && !math.IsInf(w, 0) && w >= 0
}
