package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/corey/mamdani/internal/domain/fuzzy"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch -s file [name=value...]",
	Short: "Recompute whenever the definition file changes",
	Long: "Computes once, then again each time the definition file is saved.\n" +
		"An invalid edit is reported and the last good system stays in use.\n" +
		"Stops on Ctrl-C.",
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
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
	if sys.Path == "" {
		return usageError("system %s is bundled; watch needs a definition file (-s path.yaml)", sys.Name)
	}

	out := cmd.OutOrStdout()
	p := colors()
	e := a.NewEvaluator(sys)
	compute := func() {
		ev, _ := e.Evaluate(inputs) // failures are carried in ev
		if jsonOut {
			writeJSON(out, ev)
			return
		}
		fmt.Fprint(out, formatEvaluation(ev, p, false, false))
	}
	compute()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = a.WatchFile(ctx, sys.Path, e, func(_ *fuzzy.ControlSystem, err error) {
		if err != nil {
			fmt.Fprintf(out, "%s %s\n", p.paint(colorYellow, "✗ edit rejected, keeping last good system:"), sys.Path)
			for _, msg := range problems(err) {
				fmt.Fprintf(out, "    %s\n", msg)
			}
			return
		}
		compute()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
