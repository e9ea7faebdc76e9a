package fuzzy

import (
	"fmt"
	"math"
)

// State is the lifecycle position of a Simulation.
type State int

const (
	StateCreated     State = 0
	StateInputsBound State = 1
	StateComputed    State = 2
	StateFailed      State = 3
)

// StateName returns the string label for a state.
func StateName(s State) string {
	switch s {
	case StateCreated:
		return "created"
	case StateInputsBound:
		return "inputs_bound"
	case StateComputed:
		return "computed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Activation is one rule's firing strength from the last compute.
type Activation struct {
	Rule       string     `json:"rule"`
	Consequent Consequent `json:"consequent"`
	Strength   float64    `json:"strength"`
	Err        error      `json:"-"` // set when an antecedent input was missing
}

// AggregatedSet is an output variable's combined fuzzy set over its universe.
type AggregatedSet struct {
	Variable string    `json:"variable"`
	Universe []float64 `json:"universe"`
	Degrees  []float64 `json:"degrees"`
}

// Simulation is the mutable run context for one ControlSystem. It is not
// safe for concurrent use; create one per goroutine and share the system.
//
// Compute is all-or-nothing: outputs are published only when every output
// variable defuzzifies. On failure Outputs is empty and Err lists each
// failing variable.
type Simulation struct {
	sys    *ControlSystem
	values []float64 // by variable index
	bound  []bool
	state  State
	err    error

	outputs     map[string]float64
	aggregated  map[string][]float64
	activations []Activation
}

// NewSimulation binds a fresh run context to sys.
func NewSimulation(sys *ControlSystem) *Simulation {
	return &Simulation{
		sys:    sys,
		values: make([]float64, len(sys.variables)),
		bound:  make([]bool, len(sys.variables)),
	}
}

// NewSimulation is shorthand for fuzzy.NewSimulation(s).
func (s *ControlSystem) NewSimulation() *Simulation { return NewSimulation(s) }

// System returns the shared system.
func (sim *Simulation) System() *ControlSystem { return sim.sys }

// State returns the current lifecycle state.
func (sim *Simulation) State() State { return sim.state }

// Err returns the error of the last compute, or nil.
func (sim *Simulation) Err() error { return sim.err }

// SetInput binds a crisp value to an input variable. Values outside the
// universe are accepted; they simply fuzzify to zero where no term covers
// them. Only the variable's existence and the value's finiteness are checked.
func (sim *Simulation) SetInput(name string, x float64) error {
	i, err := sim.inputIndex(name, x)
	if err != nil {
		return err
	}
	sim.bind(i, x)
	return nil
}

// SetInputs binds several inputs. Nothing is bound if any entry is invalid.
func (sim *Simulation) SetInputs(values map[string]float64) error {
	idx := make(map[int]float64, len(values))
	for name, x := range values {
		i, err := sim.inputIndex(name, x)
		if err != nil {
			return err
		}
		idx[i] = x
	}
	for i, x := range idx {
		sim.bind(i, x)
	}
	return nil
}

func (sim *Simulation) inputIndex(name string, x float64) (int, error) {
	i, ok := sim.sys.byName[name]
	if !ok {
		return -1, &ComputationError{Variable: name, Reason: "no such variable"}
	}
	if sim.sys.variables[i].kind != KindInput {
		return -1, &ComputationError{Variable: name, Reason: "not an input variable"}
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return -1, &ComputationError{Variable: name, Reason: fmt.Sprintf("input must be finite, got %g", x)}
	}
	return i, nil
}

func (sim *Simulation) bind(i int, x float64) {
	sim.values[i] = x
	sim.bound[i] = true
	sim.state = StateInputsBound
}

// Input returns the bound value of an input variable.
func (sim *Simulation) Input(name string) (float64, bool) {
	i, ok := sim.sys.byName[name]
	if !ok || !sim.bound[i] {
		return 0, false
	}
	return sim.values[i], true
}

// Compute runs fuzzification, rule evaluation, aggregation and
// defuzzification for every output variable. The returned error is a
// *ComputeError when one or more outputs fail.
func (sim *Simulation) Compute() error {
	sys := sim.sys
	sim.outputs = nil
	sim.aggregated = make(map[string][]float64, len(sys.outputs))
	sim.activations = make([]Activation, len(sys.rules))

	if sim.state == StateCreated {
		sim.state = StateFailed
		sim.err = &ComputeError{failures: []*ComputationError{{Reason: "no inputs have been set"}}}
		return sim.err
	}

	degrees := make([][]float64, len(sys.variables))
	for _, i := range sys.inputs {
		if !sim.bound[i] {
			continue
		}
		v := sys.variables[i]
		degrees[i] = make([]float64, len(v.terms))
		v.fuzzify(sim.values[i], degrees[i])
	}

	for ri, cr := range sys.rules {
		act := Activation{Rule: cr.label, Consequent: cr.rule.Consequent}
		strength, miss := cr.ante.strength(degrees, sim.bound)
		if miss >= 0 {
			act.Err = &ComputationError{
				Variable: cr.rule.Consequent.Variable,
				Reason:   fmt.Sprintf("rule %s: input %q is not set", cr.label, sys.variables[miss].name),
			}
		} else {
			act.Strength = FiringStrength(strength, cr.rule.Weight)
		}
		sim.activations[ri] = act
	}

	outputs := make(map[string]float64, len(sys.outputs))
	var failures []*ComputationError
	for _, oi := range sys.outputs {
		v := sys.variables[oi]
		crisp, agg, err := sim.infer(oi)
		sim.aggregated[v.name] = agg
		if err != nil {
			err.Variable = v.name
			failures = append(failures, err)
			continue
		}
		outputs[v.name] = crisp
	}

	if len(failures) > 0 {
		sim.state = StateFailed
		sim.err = &ComputeError{failures: failures}
		return sim.err
	}
	sim.outputs = outputs
	sim.state = StateComputed
	sim.err = nil
	return nil
}

// infer aggregates and defuzzifies one output variable.
func (sim *Simulation) infer(oi int) (float64, []float64, *ComputationError) {
	v := sim.sys.variables[oi]
	u := v.universe
	agg := make([]float64, len(u.points))

	rules := sim.sys.byOutput[oi]
	if len(rules) == 0 {
		return 0, agg, &ComputationError{Reason: "no rule concludes on this variable"}
	}

	clipped := make([]float64, len(u.points))
	for _, ri := range rules {
		act := sim.activations[ri]
		if act.Err != nil {
			return 0, agg, &ComputationError{Reason: act.Err.(*ComputationError).Reason}
		}
		if act.Strength == 0 {
			continue
		}
		cr := sim.sys.rules[ri]
		clipInto(clipped, act.Strength, v.terms[cr.term].Membership, u)
		for i, d := range clipped {
			if d > agg[i] {
				agg[i] = d
			}
		}
	}

	crisp, err := Defuzzify(v.defuzz, u.points, agg)
	if err != nil {
		return 0, agg, err.(*ComputationError)
	}
	return crisp, agg, nil
}

// Output returns one crisp output of the last successful compute.
func (sim *Simulation) Output(name string) (float64, bool) {
	x, ok := sim.outputs[name]
	return x, ok
}

// Outputs returns a copy of all crisp outputs; empty unless Computed.
func (sim *Simulation) Outputs() map[string]float64 {
	out := make(map[string]float64, len(sim.outputs))
	for k, v := range sim.outputs {
		out[k] = v
	}
	return out
}

// Aggregated returns the aggregated set of an output variable from the last
// compute. It is available for failed variables too (all zero).
func (sim *Simulation) Aggregated(name string) (AggregatedSet, bool) {
	agg, ok := sim.aggregated[name]
	if !ok {
		return AggregatedSet{}, false
	}
	v, _ := sim.sys.Variable(name)
	degrees := make([]float64, len(agg))
	copy(degrees, agg)
	return AggregatedSet{Variable: name, Universe: v.universe.Points(), Degrees: degrees}, true
}

// Activations returns each rule's firing strength from the last compute.
func (sim *Simulation) Activations() []Activation {
	out := make([]Activation, len(sim.activations))
	copy(out, sim.activations)
	return out
}
