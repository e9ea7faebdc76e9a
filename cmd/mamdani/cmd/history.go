package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List or clear recorded runs",
	Long: "Lists recorded runs newest first. With -s, only that system's runs.\n" +
		"--clear removes them instead.",
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "runs to show (0 = all)")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete recorded runs")
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()
	if a.Store == nil {
		return configError(fmt.Errorf("run history is unavailable: disabled in %s or %s is in use", a.Paths.Config, a.Paths.DB))
	}

	system := ""
	if systemRef != "" {
		sys, err := resolve(a)
		if err != nil {
			return err
		}
		system = sys.Name
	}

	out := cmd.OutOrStdout()
	if historyClear {
		if err := a.Store.DeleteRuns(system); err != nil {
			return err
		}
		what := "all runs"
		if system != "" {
			what = system + " runs"
		}
		fmt.Fprintf(out, "⚡ cleared %s\n", what)
		return nil
	}

	runs, err := a.Store.ListRuns(system, historyLimit)
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "⚡ no runs recorded")
		return nil
	}
	p := colors()
	for _, r := range runs {
		fmt.Fprint(out, formatRun(r, p))
	}
	return nil
}
