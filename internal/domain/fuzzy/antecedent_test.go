package fuzzy

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrength_Operators(t *testing.T) {
	in := map[string]map[string]float64{
		"wait":  {"short": 0.7, "long": 0.2},
		"staff": {"small": 0.4},
	}
	tests := []struct {
		name string
		expr Expr
		want float64
	}{
		{"term", Ref("wait", "short"), 0.7},
		{"and is min", And(Ref("wait", "short"), Ref("staff", "small")), 0.4},
		{"or is max", Or(Ref("wait", "long"), Ref("staff", "small")), 0.4},
		{"not", Not(Ref("wait", "long")), 0.8},
		{"nested", Or(And(Ref("wait", "short"), Ref("wait", "long")), Ref("staff", "small")), 0.4},
		{"variadic and", And(Ref("wait", "short"), Ref("staff", "small"), Ref("wait", "long")), 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Strength(tt.expr, in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestStrength_MissingInput(t *testing.T) {
	_, err := Strength(And(Ref("wait", "short"), Ref("staff", "small")), map[string]map[string]float64{
		"wait": {"short": 1},
	})
	assert.ErrorIs(t, err, ErrComputation)
	assert.Contains(t, err.Error(), `"staff"`)
}

func TestStrength_UnknownLabel(t *testing.T) {
	_, err := Strength(Or(Ref("wait", "short"), Ref("wait", "medium")), map[string]map[string]float64{
		"wait": {"short": 1},
	})
	assert.ErrorIs(t, err, ErrComputation)
	assert.Contains(t, err.Error(), `wait: term "medium" is not defined`)
}

func TestRefs_Order(t *testing.T) {
	e := Or(And(Ref("a", "x"), Not(Ref("b", "y"))), Ref("c", "z"))
	want := []TermRef{{"a", "x"}, {"b", "y"}, {"c", "z"}}
	if diff := cmp.Diff(want, Refs(e)); diff != "" {
		t.Errorf("Refs mismatch (-want +got):\n%s", diff)
	}
}

func TestExpr_String(t *testing.T) {
	e := Or(And(Ref("wait", "short"), Ref("staff", "small")), Not(Ref("util", "high")))
	assert.Equal(t, "((wait.short AND staff.small) OR NOT util.high)", e.String())

	r := NewRule(e, "parts", "large").WithWeight(0.5)
	assert.Equal(t, "IF ((wait.short AND staff.small) OR NOT util.high) THEN parts.large WITH 0.5", r.String())
}

func TestClipAndAggregate(t *testing.T) {
	u := MustUniverse(0, 4, 1)
	a := Clip(0.5, MustTriangle(0, 1, 2), u)
	b := Clip(1, MustTriangle(2, 3, 4), u)
	assert.Equal(t, []float64{0, 0.5, 0, 0, 0}, a)
	assert.Equal(t, []float64{0, 0, 0, 1, 0}, b)
	assert.Equal(t, []float64{0, 0.5, 0, 1, 0}, Aggregate(a, b))
	assert.Nil(t, Aggregate())
}

func TestFiringStrength_Clamped(t *testing.T) {
	assert.Equal(t, 1.0, FiringStrength(0.8, 2))
	assert.InDelta(t, 0.4, FiringStrength(0.8, 0.5), 1e-12)
	assert.Equal(t, 0.0, FiringStrength(0.8, 0))
}
