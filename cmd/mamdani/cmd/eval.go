package cmd

import (
	"fmt"

	"github.com/corey/mamdani/internal/ports"
	"github.com/spf13/cobra"
)

var (
	evalRules  bool
	evalCurves bool
)

var evalCmd = &cobra.Command{
	Use:   "eval [name=value...]",
	Short: "Compute a system's outputs once",
	Long: "Binds each name=value input, computes, and prints the crisp outputs.\n" +
		"Exit code 1 when an output cannot be computed, 2 for a bad system or malformed input.",
	Example: "  mamdani eval tempo_espera=30 fator_utilizacao=0.3 numero_funcionarios=30\n" +
		"  mamdani eval -s tipping service=7.5 food=9 --rules",
	RunE: runEval,
}

func init() {
	evalCmd.Flags().BoolVar(&evalRules, "rules", false, "show each rule's firing strength")
	evalCmd.Flags().BoolVar(&evalCurves, "curves", false, "show each output's aggregated set")
}

func runEval(cmd *cobra.Command, args []string) error {
	inputs, err := parseAssignments(args)
	if err != nil {
		return err
	}
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()
	sys, err := resolve(a)
	if err != nil {
		return err
	}

	ev, err := a.NewEvaluator(sys).Evaluate(inputs)
	out := cmd.OutOrStdout()
	if jsonOut {
		var payload any = ev
		if err != nil {
			payload = struct {
				Error      string            `json:"error"`
				Evaluation *ports.Evaluation `json:"evaluation"`
			}{err.Error(), ev}
		}
		if werr := writeJSON(out, payload); werr != nil {
			return werr
		}
	} else {
		fmt.Fprint(out, formatEvaluation(ev, colors(), evalRules, evalCurves))
	}
	if err != nil {
		return reported(ExitCode(err))
	}
	return nil
}
