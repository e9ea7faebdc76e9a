package cmd

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/corey/mamdani/internal/domain/fuzzy"
	"github.com/corey/mamdani/internal/ports"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// painter wraps text in ANSI codes when color is on.
type painter bool

func (p painter) paint(code, s string) string {
	if !p {
		return s
	}
	return code + s + colorReset
}

// formatEvaluation renders one compute.
//
//	⚡ pecas │ 41µs
//	  numero_pecas  150.0000
func formatEvaluation(ev *ports.Evaluation, p painter, showRules, showCurves bool) string {
	rec := ev.Record
	var sb strings.Builder
	elapsed := time.Duration(rec.ElapsedNs).Round(time.Microsecond)

	if rec.Failed() {
		sb.WriteString(fmt.Sprintf("%s │ %s\n", p.paint(colorRed, "✗ "+rec.System+" compute failed"), elapsed))
		for _, name := range sortedKeys(rec.Failures) {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", p.paint(colorYellow, name), rec.Failures[name]))
		}
	} else {
		sb.WriteString(fmt.Sprintf("%s │ %s\n", p.paint(colorBold, "⚡ "+rec.System), elapsed))
		width := maxLen(sortedKeys(rec.Outputs))
		for _, name := range sortedKeys(rec.Outputs) {
			sb.WriteString(fmt.Sprintf("  %s  %s\n", p.paint(colorCyan, pad(name, width)), formatNumber(rec.Outputs[name])))
		}
	}

	if showRules {
		sb.WriteString(formatActivations(ev.Activations, p))
	}
	if showCurves {
		for _, agg := range ev.Aggregated {
			sb.WriteString(fmt.Sprintf("  %s %s\n", p.paint(colorGray, pad(agg.Variable, 14)), spark(agg.Degrees, 60)))
		}
	}
	return sb.String()
}

// formatActivations lists each rule's firing strength.
func formatActivations(acts []fuzzy.Activation, p painter) string {
	var sb strings.Builder
	sb.WriteString(p.paint(colorBold, "  rules") + "\n")
	labels := make([]string, len(acts))
	for i, a := range acts {
		labels[i] = a.Rule
	}
	width := maxLen(labels)
	for _, a := range acts {
		strength := fmt.Sprintf("%.3f", a.Strength)
		if a.Err != nil {
			strength = p.paint(colorYellow, "unset")
		} else if a.Strength == 0 {
			strength = p.paint(colorGray, strength)
		} else {
			strength = p.paint(colorGreen, strength)
		}
		sb.WriteString(fmt.Sprintf("    %s  %s  → %s\n", pad(a.Rule, width), strength, a.Consequent))
	}
	return sb.String()
}

// formatVariable renders a variable's terms with breakpoints and a
// sparkline of each membership curve.
func formatVariable(v *fuzzy.LinguisticVariable, p painter) string {
	var sb strings.Builder
	u := v.Universe()
	header := fmt.Sprintf("%s %s [%g, %g] step %g", fuzzy.KindName(v.Kind()), v.Name(), u.Min(), u.Max(), u.Step())
	if v.Kind() == fuzzy.KindOutput {
		header += " · " + fuzzy.DefuzzMethodName(v.Defuzzifier())
	}
	sb.WriteString(p.paint(colorBold, header) + "\n")

	curves := v.Curves()
	width := maxLen(curves.Labels)
	for _, t := range v.Terms() {
		sb.WriteString(fmt.Sprintf("  %s  %-9s %-24s %s\n",
			p.paint(colorCyan, pad(t.Label, width)),
			t.Membership.Shape(),
			formatPoints(t.Membership.Params()),
			spark(curves.Degrees[t.Label], 48)))
	}
	return sb.String()
}

// formatSystem renders every variable and rule.
func formatSystem(name string, sys *fuzzy.ControlSystem, p painter) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s │ %s\n\n", p.paint(colorBold, "⚡ "+name), sys))
	for _, v := range sys.Variables() {
		sb.WriteString(formatVariable(v, p))
		sb.WriteString("\n")
	}
	sb.WriteString(p.paint(colorBold, "rules") + "\n")
	for i, r := range sys.Rules() {
		label := r.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		sb.WriteString(fmt.Sprintf("  %s %s\n", p.paint(colorGray, label), r))
	}
	return sb.String()
}

// formatRun renders one history line.
func formatRun(rec *ports.RunRecord, p painter) string {
	at := time.Unix(0, rec.At).Local().Format("2006-01-02 15:04:05")
	var result string
	if rec.Failed() {
		parts := make([]string, 0, len(rec.Failures))
		for _, k := range sortedKeys(rec.Failures) {
			parts = append(parts, k+": "+rec.Failures[k])
		}
		result = p.paint(colorRed, "✗ "+strings.Join(parts, "; "))
	} else {
		result = p.paint(colorGreen, formatAssignments(rec.Outputs))
	}
	return fmt.Sprintf("%s  %s  %s  %s → %s\n",
		p.paint(colorGray, at), rec.ID[:min(8, len(rec.ID))], p.paint(colorCyan, rec.System),
		formatAssignments(rec.Inputs), result)
}

func formatAssignments(m map[string]float64) string {
	parts := make([]string, 0, len(m))
	for _, k := range sortedKeys(m) {
		parts = append(parts, k+"="+formatNumber(m[k]))
	}
	return strings.Join(parts, " ")
}

func formatPoints(pts []float64) string {
	s := make([]string, len(pts))
	for i, x := range pts {
		s[i] = fmt.Sprintf("%g", x)
	}
	return "(" + strings.Join(s, ", ") + ")"
}

// formatNumber prints up to four decimals without trailing zeros.
func formatNumber(x float64) string {
	s := fmt.Sprintf("%.4f", x)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

var sparkBlocks = []rune(" ▁▂▃▄▅▆▇█")

// spark draws degrees in [0,1] as a fixed-width sparkline. Each cell shows
// the maximum of the samples it covers.
func spark(degrees []float64, width int) string {
	if len(degrees) == 0 || width <= 0 {
		return ""
	}
	if len(degrees) < width {
		width = len(degrees)
	}
	out := make([]rune, width)
	for c := 0; c < width; c++ {
		lo := c * len(degrees) / width
		hi := (c + 1) * len(degrees) / width
		peak := 0.0
		for _, d := range degrees[lo:hi] {
			peak = math.Max(peak, d)
		}
		out[c] = sparkBlocks[int(math.Round(peak*float64(len(sparkBlocks)-1)))]
	}
	return string(out)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func maxLen(ss []string) int {
	n := 0
	for _, s := range ss {
		n = max(n, len(s))
	}
	return n
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
