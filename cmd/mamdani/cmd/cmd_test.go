package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/corey/mamdani/internal/domain/fuzzy"
	"github.com/corey/mamdani/internal/ports"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default between Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes the CLI against a project root and returns stdout and the
// exit code.
func run(t *testing.T, root string, args ...string) (string, int) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--root", root, "--color", "never"}, args...))
	err := Execute()
	return out.String(), ExitCode(err)
}

var pecasArgs = []string{"tempo_espera=30", "fator_utilizacao=0.3", "numero_funcionarios=30"}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"a=1", " b = -2.5 ", "c=1e3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"a": 1, "b": -2.5, "c": 1000}, got)

	for _, bad := range [][]string{{"a"}, {"=1"}, {"a="}, {"a=x"}, {"a=NaN"}, {"a=Inf"}, {"a=1", "a=2"}} {
		_, err := parseAssignments(bad)
		assert.Error(t, err, "%v", bad)
		assert.Equal(t, exitConfiguration, ExitCode(err), "%v", bad)
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(&fuzzy.ComputationError{Reason: "x"}))
	assert.Equal(t, 2, ExitCode(&fuzzy.ConfigurationError{Reason: "x"}))
	assert.Equal(t, 2, ExitCode(fmt.Errorf("wrapped: %w", &fuzzy.ConfigurationError{Reason: "x"})))
	assert.Equal(t, 2, ExitCode(errors.New("unknown flag")))
	assert.Equal(t, 1, ExitCode(reported(exitComputation)))
	assert.Equal(t, "", reported(exitComputation).Error())
}

func TestSpark(t *testing.T) {
	assert.Equal(t, "", spark(nil, 10))
	assert.Equal(t, " ▄█", spark([]float64{0, 0.5, 1}, 10))
	assert.Equal(t, "█ ", spark([]float64{0, 1, 0, 0}, 2))
	assert.Equal(t, 48, len([]rune(spark(make([]float64, 500), 48))))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "150", formatNumber(150))
	assert.Equal(t, "446.1045", formatNumber(44833.5/100.5))
	assert.Equal(t, "0.3", formatNumber(0.3))
	assert.Equal(t, "-2", formatNumber(-2))
}

func TestEval_Text(t *testing.T) {
	out, code := run(t, t.TempDir(), append([]string{"eval", "--rules"}, pecasArgs...)...)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "⚡ pecas")
	assert.Contains(t, out, "numero_pecas  150")
	assert.Contains(t, out, "low_utilization")
}

func TestEval_JSONAndHistory(t *testing.T) {
	root := t.TempDir()
	out, code := run(t, root, append([]string{"eval", "--json"}, pecasArgs...)...)
	require.Equal(t, 0, code, out)

	var ev ports.Evaluation
	require.NoError(t, json.Unmarshal([]byte(out), &ev))
	assert.InDelta(t, 150, ev.Record.Outputs["numero_pecas"], 1e-9)

	out, code = run(t, root, "history", "--json")
	require.Equal(t, 0, code, out)
	var runs []*ports.RunRecord
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, ev.Record.ID, runs[0].ID)

	out, code = run(t, root, "history")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, ev.Record.ID[:8])

	out, code = run(t, root, "history", "--clear")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "cleared all runs")

	out, _ = run(t, root, "history")
	assert.Contains(t, out, "no runs recorded")
}

func TestEval_ComputeFailure(t *testing.T) {
	out, code := run(t, t.TempDir(), "eval", "tempo_espera=65", "fator_utilizacao=0.5", "numero_funcionarios=50")
	assert.Equal(t, exitComputation, code)
	assert.Contains(t, out, "compute failed")
	assert.Contains(t, out, "numero_pecas")
}

func TestEval_ConfigurationProblems(t *testing.T) {
	root := t.TempDir()

	_, code := run(t, root, "eval", "tempo_espera=abc")
	assert.Equal(t, exitConfiguration, code)

	_, code = run(t, root, "-s", "nope", "eval", "x=1")
	assert.Equal(t, exitConfiguration, code)

	_, code = run(t, root, "eval", "--bogus-flag")
	assert.Equal(t, exitConfiguration, code)
}

const brokenYAML = `
name: broken
inputs:
  - name: x
    universe: {min: 0, max: 10, step: 1}
    terms:
      - {label: low, shape: triangle, points: [5, 0, 10]}
outputs:
  - name: y
    universe: {min: 0, max: 10, step: 1}
    terms:
      - {label: mid, shape: triangle, points: [0, 5, 10]}
rules:
  - if: x.lo
    then: y.mid
`

func TestValidate(t *testing.T) {
	root := t.TempDir()
	bad := filepath.Join(root, "broken.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(brokenYAML), 0644))

	out, code := run(t, root, "validate", bad)
	assert.Equal(t, exitConfiguration, code)
	assert.Contains(t, out, "✗ "+bad)
	assert.Contains(t, out, "x.low: triangle breakpoints must be non-decreasing")
	assert.Contains(t, out, "rule #1: x.lo: antecedent term is not defined")

	out, code = run(t, root, "validate")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "✓ pecas")
	assert.Contains(t, out, "✓ tipping")

	out, code = run(t, root, "validate", "--json", bad, "notes.txt")
	assert.Equal(t, exitConfiguration, code)
	var results []validation
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.False(t, results[0].Valid)
	assert.Len(t, results[0].Problems, 3)
	assert.Equal(t, []string{"not a .yaml, .yml or .toml file"}, results[1].Problems)
}

func TestBatch(t *testing.T) {
	root := t.TempDir()
	csvPath := filepath.Join(root, "in.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"tempo_espera,fator_utilizacao,numero_funcionarios\n"+
			"30,0.3,30\n"+
			"65,0.5,50\n"+
			"# comment\n"+
			"5,,10\n"), 0644))

	out, code := run(t, root, "batch", csvPath, "-w", "2")
	assert.Equal(t, exitComputation, code, "rows fail")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "tempo_espera,fator_utilizacao,numero_funcionarios,numero_pecas,error", lines[0])
	assert.Equal(t, "30,0.3,30,150.0000,", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "65,0.5,50,,"), lines[2])
	assert.Contains(t, lines[2], "no rule produced")
	assert.True(t, strings.HasPrefix(lines[3], "5,,10,,"), lines[3])
	assert.Contains(t, lines[3], "is not set", "a blank cell leaves the input unset")

	out, code = run(t, root, "batch", csvPath, "--json")
	assert.Equal(t, exitComputation, code)
	var rows []batchRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, 1, rows[0].Row)
	assert.NotEmpty(t, rows[1].Error)
}

func TestBatch_BadCSV(t *testing.T) {
	root := t.TempDir()
	csvPath := filepath.Join(root, "in.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("a,b\n1,x\n"), 0644))
	_, code := run(t, root, "batch", csvPath)
	assert.Equal(t, exitConfiguration, code)

	_, _, err := readRows(strings.NewReader(""))
	assert.ErrorContains(t, err, "missing header")
	_, _, err = readRows(strings.NewReader("a,a\n"))
	assert.ErrorContains(t, err, "repeated")
}

func TestInspect(t *testing.T) {
	root := t.TempDir()
	out, code := run(t, root, "-s", "tipping", "inspect")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "input service [0, 10] step 0.1")
	assert.Contains(t, out, "output tip [0, 30] step 0.5 · centroid")
	assert.Contains(t, out, "great")

	out, code = run(t, root, "inspect", "numero_funcionarios", "--json")
	require.Equal(t, 0, code)
	var c fuzzy.Curves
	require.NoError(t, json.Unmarshal([]byte(out), &c))
	assert.Equal(t, []string{"pequeno", "medio", "grande"}, c.Labels)

	_, code = run(t, root, "inspect", "nope")
	assert.Equal(t, exitConfiguration, code)
}

func TestConfig(t *testing.T) {
	root := t.TempDir()
	out, code := run(t, root, "config")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, filepath.Join(root, ".mamdani"))
	assert.Contains(t, out, "defaults (no file)")
	assert.Contains(t, out, "pecas, tipping")
	assert.Contains(t, out, "default_system = ")

	require.NoError(t, os.MkdirAll(filepath.Join(root, ".mamdani"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".mamdani", "config.toml"), []byte("colour = 1\n"), 0644))
	_, code = run(t, root, "config")
	assert.Equal(t, exitConfiguration, code)
}

func TestWatch_BundledSystemRejected(t *testing.T) {
	_, code := run(t, t.TempDir(), "watch", "tempo_espera=1")
	assert.Equal(t, exitConfiguration, code)
}
