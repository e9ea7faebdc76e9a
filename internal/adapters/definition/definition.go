// Package definition loads fuzzy system definitions from YAML or TOML,
// validates their shape, and builds an immutable fuzzy.ControlSystem.
//
// A definition is read-only input: this package never writes one.
//
//	name: pecas
//	inputs:
//	  - name: tempo_espera
//	    universe: {min: 0, max: 120, step: 1}
//	    terms:
//	      - {label: muito_pequeno, shape: trapezoid, points: [0, 0, 10, 30]}
//	outputs:
//	  - name: numero_pecas
//	    universe: {min: 0, max: 500, step: 1}
//	    defuzzify: centroid
//	    terms: [...]
//	rules:
//	  - if: tempo_espera.muito_pequeno AND numero_funcionarios.pequeno
//	    then: numero_pecas.muito_grande
package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/corey/mamdani/internal/domain/fuzzy"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is the serialization of a definition file.
type Format int

const (
	FormatYAML Format = 0
	FormatTOML Format = 1
)

// FormatFromPath picks a format by extension. Returns -1 for unknown ones.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return -1
	}
}

// Definition is the on-disk shape of a control system.
type Definition struct {
	Name        string        `yaml:"name" toml:"name" validate:"required,ident"`
	Description string        `yaml:"description,omitempty" toml:"description,omitempty"`
	Inputs      []VariableDef `yaml:"inputs" toml:"inputs" validate:"required,min=1,dive"`
	Outputs     []VariableDef `yaml:"outputs" toml:"outputs" validate:"required,min=1,dive"`
	Rules       []RuleDef     `yaml:"rules" toml:"rules" validate:"dive"`
}

// VariableDef declares one linguistic variable.
type VariableDef struct {
	Name        string      `yaml:"name" toml:"name" validate:"required,ident"`
	Description string      `yaml:"description,omitempty" toml:"description,omitempty"`
	Universe    UniverseDef `yaml:"universe" toml:"universe"`
	Defuzzify   string      `yaml:"defuzzify,omitempty" toml:"defuzzify,omitempty" validate:"omitempty,oneof=centroid bisector mom som lom"`
	Terms       []TermDef   `yaml:"terms" toml:"terms" validate:"required,min=1,dive"`
}

// UniverseDef is the sampling grid [min, max] with step.
type UniverseDef struct {
	Min  float64 `yaml:"min" toml:"min"`
	Max  float64 `yaml:"max" toml:"max" validate:"gtefield=Min"`
	Step float64 `yaml:"step" toml:"step" validate:"gt=0"`
}

// TermDef declares one labeled membership function.
type TermDef struct {
	Label  string    `yaml:"label" toml:"label" validate:"required,ident"`
	Shape  string    `yaml:"shape" toml:"shape" validate:"required,oneof=trapezoid triangle trapmf trimf"`
	Points []float64 `yaml:"points" toml:"points" validate:"required,min=3,max=4"`
}

// RuleDef is one rule in text form.
type RuleDef struct {
	Name   string   `yaml:"name,omitempty" toml:"name,omitempty"`
	If     string   `yaml:"if" toml:"if" validate:"required"`
	Then   string   `yaml:"then" toml:"then" validate:"required"`
	Weight *float64 `yaml:"weight,omitempty" toml:"weight,omitempty" validate:"omitempty,gte=0"`
}

// Parse decodes and validates a definition. Unknown fields are errors.
func Parse(data []byte, format Format) (*Definition, error) {
	var def Definition
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatTOML:
		if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&def); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown definition format %d", format)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadFile reads a definition, choosing the format by extension.
func LoadFile(path string) (*Definition, error) {
	format := FormatFromPath(path)
	if format < 0 {
		return nil, fmt.Errorf("%s: unsupported definition extension (want .yaml, .yml or .toml)", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	def, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// LoadFS reads the definition called name (without extension) from fsys,
// trying .yaml, .yml and .toml in that order.
func LoadFS(fsys fs.FS, name string) (*Definition, error) {
	for _, ext := range []string{".yaml", ".yml", ".toml"} {
		data, err := fs.ReadFile(fsys, name+ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		def, err := Parse(data, FormatFromPath(ext))
		if err != nil {
			return nil, fmt.Errorf("%s%s: %w", name, ext, err)
		}
		return def, nil
	}
	return nil, fmt.Errorf("definition %q: %w", name, fs.ErrNotExist)
}

// Names lists the definitions available in fsys, without extensions.
func Names(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	seen := make(map[string]bool)
	for _, e := range entries {
		if e.IsDir() || FormatFromPath(e.Name()) < 0 {
			continue
		}
		n := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names, nil
}

// Build turns a definition into a ControlSystem. Every problem found in
// breakpoints, universes, rule syntax and references is reported together
// as joined ConfigurationErrors.
func (d *Definition) Build() (*fuzzy.ControlSystem, error) {
	b := fuzzy.NewBuilder()

	addVariable := func(v VariableDef, kind fuzzy.Kind) {
		u, err := fuzzy.NewUniverse(v.Universe.Min, v.Universe.Max, v.Universe.Step)
		if err != nil {
			b.Fail(locate(err, v.Name, ""))
		}
		var vb *fuzzy.VariableBuilder
		if kind == fuzzy.KindInput {
			vb = b.Input(v.Name, u)
		} else {
			vb = b.Output(v.Name, u)
			if m := fuzzy.DefuzzMethodFromName(v.Defuzzify); m >= 0 {
				vb.Defuzzify(m)
			} else {
				b.Fail(&fuzzy.ConfigurationError{Variable: v.Name, Reason: fmt.Sprintf("unknown defuzzification method %q", v.Defuzzify)})
			}
		}
		for _, t := range v.Terms {
			mf, err := fuzzy.NewMembership(t.Shape, t.Points)
			if err != nil {
				b.Fail(locate(err, v.Name, t.Label))
				continue
			}
			vb.Term(t.Label, mf)
		}
	}
	for _, v := range d.Inputs {
		addVariable(v, fuzzy.KindInput)
	}
	for _, v := range d.Outputs {
		addVariable(v, fuzzy.KindOutput)
	}

	for i, r := range d.Rules {
		rule, err := r.rule()
		if err != nil {
			label := r.Name
			if label == "" {
				label = fmt.Sprintf("#%d", i+1)
			}
			b.Fail(&fuzzy.ConfigurationError{Rule: label, Reason: err.Error()})
			continue
		}
		b.Rule(rule)
	}

	sys, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("system %s: %w", d.Name, err)
	}
	return sys, nil
}

func (r RuleDef) rule() (fuzzy.Rule, error) {
	ante, err := ParseExpr(r.If)
	if err != nil {
		return fuzzy.Rule{}, fmt.Errorf("if: %w", err)
	}
	cons, err := ParseConsequent(r.Then)
	if err != nil {
		return fuzzy.Rule{}, fmt.Errorf("then: %w", err)
	}
	rule := fuzzy.NewRule(ante, cons.Variable, cons.Label).Named(r.Name)
	if r.Weight != nil {
		rule = rule.WithWeight(*r.Weight)
	}
	return rule, nil
}

// locate fills in the variable and term of a ConfigurationError raised by a
// constructor that does not know them.
func locate(err error, variable, term string) error {
	var ce *fuzzy.ConfigurationError
	if errors.As(err, &ce) {
		located := *ce
		located.Variable, located.Term = variable, term
		return &located
	}
	return err
}
