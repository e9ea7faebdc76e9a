package fuzzy

import "math"

// gridEpsilon absorbs floating error when deciding whether max lies on the grid.
const gridEpsilon = 1e-9

// MaxUniversePoints caps the grid size of a single universe.
const MaxUniversePoints = 10_000_000

// Universe is the sampling grid of a variable: min, min+step, ... up to max
// (inclusive when max falls on the grid). Inputs are never clipped to it.
type Universe struct {
	min, max, step float64
	points         []float64
}

// NewUniverse discretizes [min, max] with the given step.
func NewUniverse(min, max, step float64) (Universe, error) {
	for _, v := range []float64{min, max, step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Universe{}, configErr("", "", "universe bounds must be finite")
		}
	}
	if step <= 0 {
		return Universe{}, configErr("", "", "universe step must be positive, got %g", step)
	}
	if max < min {
		return Universe{}, configErr("", "", "universe max %g is below min %g", max, min)
	}

	span := math.Floor((max-min)/step + gridEpsilon)
	if math.IsInf(span, 0) || math.IsNaN(span) || span+1 > MaxUniversePoints {
		return Universe{}, configErr("", "", "universe [%g, %g] step %g has more than %d points", min, max, step, MaxUniversePoints)
	}
	n := int(span) + 1
	points := make([]float64, n)
	for i := range points {
		// Multiply instead of accumulating so integer grids stay exact.
		points[i] = min + float64(i)*step
	}
	return Universe{min: min, max: max, step: step, points: points}, nil
}

// MustUniverse is NewUniverse for static definitions; it panics on error.
func MustUniverse(min, max, step float64) Universe {
	u, err := NewUniverse(min, max, step)
	if err != nil {
		panic(err)
	}
	return u
}

func (u Universe) Min() float64  { return u.min }
func (u Universe) Max() float64  { return u.max }
func (u Universe) Step() float64 { return u.step }
func (u Universe) Len() int      { return len(u.points) }

// Points returns a copy of the grid.
func (u Universe) Points() []float64 {
	out := make([]float64, len(u.points))
	copy(out, u.points)
	return out
}
