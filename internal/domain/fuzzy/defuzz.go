package fuzzy

import "math"

// DefuzzMethod selects how an aggregated set becomes a crisp value.
type DefuzzMethod int

const (
	Centroid          DefuzzMethod = 0
	Bisector          DefuzzMethod = 1
	MeanOfMaximum     DefuzzMethod = 2
	SmallestOfMaximum DefuzzMethod = 3
	LargestOfMaximum  DefuzzMethod = 4
)

// DefuzzMethodName returns the short name used in definitions.
func DefuzzMethodName(m DefuzzMethod) string {
	switch m {
	case Centroid:
		return "centroid"
	case Bisector:
		return "bisector"
	case MeanOfMaximum:
		return "mom"
	case SmallestOfMaximum:
		return "som"
	case LargestOfMaximum:
		return "lom"
	default:
		return "unknown"
	}
}

// DefuzzMethodFromName maps a short name to its method.
// Returns -1 for unknown names; the empty name is centroid.
func DefuzzMethodFromName(name string) DefuzzMethod {
	switch name {
	case "", "centroid":
		return Centroid
	case "bisector":
		return Bisector
	case "mom":
		return MeanOfMaximum
	case "som":
		return SmallestOfMaximum
	case "lom":
		return LargestOfMaximum
	default:
		return -1
	}
}

// Defuzzify reduces mu (sampled at xs) to one crisp value. An aggregated set
// with zero total degree is a ComputationError: there is no answer, which is
// different from an answer of 0.
func Defuzzify(m DefuzzMethod, xs, mu []float64) (float64, error) {
	if len(xs) != len(mu) {
		return 0, &ComputationError{Reason: "aggregated set does not match its universe"}
	}
	var area, peak float64
	for _, v := range mu {
		area += v
		peak = max(peak, v)
	}
	if area == 0 {
		return 0, &ComputationError{Reason: "no rule produced a non-zero degree"}
	}

	switch m {
	case Centroid:
		var moment float64
		for i, v := range mu {
			moment += xs[i] * v
		}
		return moment / area, nil

	case Bisector:
		half := area / 2
		var cum float64
		for i, v := range mu {
			cum += v
			if cum >= half {
				return xs[i], nil
			}
		}
		return xs[len(xs)-1], nil

	case MeanOfMaximum, SmallestOfMaximum, LargestOfMaximum:
		lo, hi := math.Inf(1), math.Inf(-1)
		var sum float64
		var n int
		for i, v := range mu {
			if v != peak {
				continue
			}
			lo = min(lo, xs[i])
			hi = max(hi, xs[i])
			sum += xs[i]
			n++
		}
		switch m {
		case SmallestOfMaximum:
			return lo, nil
		case LargestOfMaximum:
			return hi, nil
		}
		return sum / float64(n), nil
	}
	return 0, &ComputationError{Reason: "unknown defuzzification method"}
}
