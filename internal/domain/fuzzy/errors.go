package fuzzy

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is. Every ConfigurationError matches ErrConfiguration
// and every ComputationError matches ErrComputation.
var (
	ErrConfiguration = errors.New("fuzzy: configuration error")
	ErrComputation   = errors.New("fuzzy: computation error")
)

// ConfigurationError reports a malformed system definition: bad breakpoints,
// a bad universe, or a rule referencing an undefined variable or term.
// Raised only while a system is being built.
type ConfigurationError struct {
	Variable string // variable involved, if any
	Term     string // term label involved, if any
	Rule     string // rule label involved, if any
	Reason   string
}

func (e *ConfigurationError) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration: ")
	if e.Rule != "" {
		sb.WriteString("rule ")
		sb.WriteString(e.Rule)
		sb.WriteString(": ")
	}
	switch {
	case e.Variable != "" && e.Term != "":
		sb.WriteString(e.Variable + "." + e.Term + ": ")
	case e.Variable != "":
		sb.WriteString(e.Variable + ": ")
	}
	sb.WriteString(e.Reason)
	return sb.String()
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ComputationError is scoped to one output variable. It is how compute says
// "no applicable rule" as opposed to a legitimate zero.
type ComputationError struct {
	Variable string
	Reason   string
}

func (e *ComputationError) Error() string {
	if e.Variable == "" {
		return "computation: " + e.Reason
	}
	return fmt.Sprintf("computation: %s: %s", e.Variable, e.Reason)
}

func (e *ComputationError) Is(target error) bool { return target == ErrComputation }

// ComputeError is returned by Simulation.Compute. It carries one
// ComputationError per failing output variable, in declaration order.
type ComputeError struct {
	failures []*ComputationError
}

// Failures returns the per-variable errors.
func (e *ComputeError) Failures() []*ComputationError {
	out := make([]*ComputationError, len(e.failures))
	copy(out, e.failures)
	return out
}

// Variables returns the names of the failing output variables.
func (e *ComputeError) Variables() []string {
	names := make([]string, len(e.failures))
	for i, f := range e.failures {
		names[i] = f.Variable
	}
	return names
}

func (e *ComputeError) Error() string {
	if len(e.failures) == 1 {
		return e.failures[0].Error()
	}
	parts := make([]string, len(e.failures))
	for i, f := range e.failures {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("%d outputs failed: %s", len(e.failures), strings.Join(parts, "; "))
}

func (e *ComputeError) Unwrap() []error {
	errs := make([]error, len(e.failures))
	for i, f := range e.failures {
		errs[i] = f
	}
	return errs
}

func configErr(variable, term, reason string, args ...any) *ConfigurationError {
	return &ConfigurationError{Variable: variable, Term: term, Reason: fmt.Sprintf(reason, args...)}
}
