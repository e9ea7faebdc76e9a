package ports

import (
	"time"

	"github.com/corey/mamdani/internal/domain/fuzzy"
)

// SystemInfo is the introspection view of a control system served to
// display collaborators.
type SystemInfo struct {
	Name    string         `json:"name"`
	Inputs  []VariableInfo `json:"inputs"`
	Outputs []VariableInfo `json:"outputs"`
	Rules   []RuleInfo     `json:"rules"`
}

// VariableInfo describes one linguistic variable.
type VariableInfo struct {
	Name      string     `json:"name"`
	Min       float64    `json:"min"`
	Max       float64    `json:"max"`
	Step      float64    `json:"step"`
	Defuzzify string     `json:"defuzzify,omitempty"` // outputs only
	Terms     []TermInfo `json:"terms"`
}

// TermInfo describes one membership function by its breakpoints.
type TermInfo struct {
	Label  string    `json:"label"`
	Shape  string    `json:"shape"`
	Points []float64 `json:"points"`
}

// RuleInfo is one rule in text form.
type RuleInfo struct {
	Name   string  `json:"name,omitempty"`
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

// Describe builds the introspection view of sys.
func Describe(name string, sys *fuzzy.ControlSystem) SystemInfo {
	info := SystemInfo{Name: name}
	for _, v := range sys.Inputs() {
		info.Inputs = append(info.Inputs, describeVariable(v))
	}
	for _, v := range sys.Outputs() {
		vi := describeVariable(v)
		vi.Defuzzify = fuzzy.DefuzzMethodName(v.Defuzzifier())
		info.Outputs = append(info.Outputs, vi)
	}
	for _, r := range sys.Rules() {
		info.Rules = append(info.Rules, RuleInfo{Name: r.Name, Text: r.String(), Weight: r.Weight})
	}
	return info
}

func describeVariable(v *fuzzy.LinguisticVariable) VariableInfo {
	u := v.Universe()
	vi := VariableInfo{Name: v.Name(), Min: u.Min(), Max: u.Max(), Step: u.Step()}
	for _, t := range v.Terms() {
		vi.Terms = append(vi.Terms, TermInfo{
			Label:  t.Label,
			Shape:  t.Membership.Shape(),
			Points: t.Membership.Params(),
		})
	}
	return vi
}

// RecentStats summarizes the computes of a rolling window.
type RecentStats struct {
	Window   string        `json:"window"`
	Computes int           `json:"computes"`
	Failed   int           `json:"failed"`
	P50      time.Duration `json:"p50_ns"`
}

// FailureRatio is Failed/Computes, or 0 with no computes.
func (r RecentStats) FailureRatio() float64 {
	if r.Computes == 0 {
		return 0
	}
	return float64(r.Failed) / float64(r.Computes)
}
