package cmd

import (
	"fmt"

	"github.com/corey/mamdani/internal/ports"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [variable]",
	Short: "Show a system's variables, terms and rules",
	Long: "Without an argument, prints every variable and rule. With a variable\n" +
		"name, prints its terms; --json then emits the sampled membership curves\n" +
		"over the universe, ready for charting.",
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()
	sys, err := resolve(a)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		if jsonOut {
			return writeJSON(out, ports.Describe(sys.Name, sys.System))
		}
		fmt.Fprint(out, formatSystem(sys.Name, sys.System, colors()))
		return nil
	}

	v, ok := sys.System.Variable(args[0])
	if !ok {
		return usageError("system %s has no variable %q", sys.Name, args[0])
	}
	if jsonOut {
		return writeJSON(out, v.Curves())
	}
	fmt.Fprint(out, formatVariable(v, colors()))
	return nil
}
