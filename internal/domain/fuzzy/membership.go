package fuzzy

import "math"

// MembershipFunction maps a crisp value to a degree in [0,1].
// Implementations are pure and defined for every real x (zero outside support).
type MembershipFunction interface {
	Evaluate(x float64) float64
	// Shape is the short name used in definitions: "trapezoid" or "triangle".
	Shape() string
	// Params returns the breakpoints in order.
	Params() []float64
}

// Trapezoid rises on [A,B], is 1 on [B,C] and falls on [C,D].
type Trapezoid struct {
	A, B, C, D float64
}

// Triangle rises on [A,B] and falls on [B,C].
type Triangle struct {
	A, B, C float64
}

// NewTrapezoid validates a ≤ b ≤ c ≤ d.
func NewTrapezoid(a, b, c, d float64) (Trapezoid, error) {
	if err := checkBreakpoints("trapezoid", a, b, c, d); err != nil {
		return Trapezoid{}, err
	}
	return Trapezoid{A: a, B: b, C: c, D: d}, nil
}

// NewTriangle validates a ≤ b ≤ c.
func NewTriangle(a, b, c float64) (Triangle, error) {
	if err := checkBreakpoints("triangle", a, b, c); err != nil {
		return Triangle{}, err
	}
	return Triangle{A: a, B: b, C: c}, nil
}

// MustTrapezoid panics on invalid breakpoints.
func MustTrapezoid(a, b, c, d float64) Trapezoid {
	t, err := NewTrapezoid(a, b, c, d)
	if err != nil {
		panic(err)
	}
	return t
}

// MustTriangle panics on invalid breakpoints.
func MustTriangle(a, b, c float64) Triangle {
	t, err := NewTriangle(a, b, c)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Trapezoid) Evaluate(x float64) float64 { return trapezoid(x, t.A, t.B, t.C, t.D) }
func (t Trapezoid) Shape() string              { return "trapezoid" }
func (t Trapezoid) Params() []float64          { return []float64{t.A, t.B, t.C, t.D} }

func (t Triangle) Evaluate(x float64) float64 { return trapezoid(x, t.A, t.B, t.B, t.C) }
func (t Triangle) Shape() string              { return "triangle" }
func (t Triangle) Params() []float64          { return []float64{t.A, t.B, t.C} }

// NewMembership builds a function from its shape name and breakpoints.
func NewMembership(shape string, params []float64) (MembershipFunction, error) {
	switch shape {
	case "trapezoid", "trapmf":
		if len(params) != 4 {
			return nil, configErr("", "", "trapezoid needs 4 breakpoints, got %d", len(params))
		}
		return NewTrapezoid(params[0], params[1], params[2], params[3])
	case "triangle", "trimf":
		if len(params) != 3 {
			return nil, configErr("", "", "triangle needs 3 breakpoints, got %d", len(params))
		}
		return NewTriangle(params[0], params[1], params[2])
	default:
		return nil, configErr("", "", "unknown membership shape %q", shape)
	}
}

// Sample evaluates mf at every point of u.
func Sample(mf MembershipFunction, u Universe) []float64 {
	out := make([]float64, len(u.points))
	for i, x := range u.points {
		out[i] = mf.Evaluate(x)
	}
	return out
}

// trapezoid is the shared piecewise-linear evaluator. A zero-width ramp is a
// jump: the breakpoint itself lies on the plateau. NaN falls through to 0.
func trapezoid(x, a, b, c, d float64) float64 {
	switch {
	case x < a || x > d:
		return 0
	case x >= b && x <= c:
		return 1
	case x < b:
		return clamp01((x - a) / (b - a))
	case x > c:
		return clamp01((d - x) / (d - c))
	}
	return 0
}

func checkBreakpoints(shape string, pts ...float64) error {
	for _, p := range pts {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return configErr("", "", "%s breakpoints must be finite, got %v", shape, pts)
		}
	}
	for i := 1; i < len(pts); i++ {
		if pts[i] < pts[i-1] {
			return configErr("", "", "%s breakpoints must be non-decreasing, got %v", shape, pts)
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	case math.IsNaN(v):
		return 0
	}
	return v
}
