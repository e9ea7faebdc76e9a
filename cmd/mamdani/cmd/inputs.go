package cmd

import (
	"math"
	"strconv"
	"strings"
)

// parseAssignments turns "name=value" arguments into input values.
func parseAssignments(args []string) (map[string]float64, error) {
	inputs := make(map[string]float64, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		name, raw = strings.TrimSpace(name), strings.TrimSpace(raw)
		if !ok || name == "" || raw == "" {
			return nil, usageError("input %q: want name=value", arg)
		}
		if _, dup := inputs[name]; dup {
			return nil, usageError("input %q given twice", name)
		}
		x, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, usageError("input %s: %q is not a finite number", name, raw)
		}
		inputs[name] = x
	}
	return inputs, nil
}
