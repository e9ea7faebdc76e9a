package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long:  "Shows the project paths, effective settings, available systems, and a running server's address.",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	names, err := a.Systems()
	if err != nil {
		return err
	}
	settings, err := a.Settings.Encode()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	p := colors()
	configState := "defaults (no file)"
	if _, err := os.Stat(a.Paths.Config); err == nil {
		configState = a.Paths.Config
	}

	fmt.Fprintf(out, "%s\n", p.paint(colorBold, "⚡ mamdani config"))
	fmt.Fprintf(out, "  Root:       %s\n", a.Paths.Root)
	fmt.Fprintf(out, "  Config:     %s\n", configState)
	fmt.Fprintf(out, "  History:    %s\n", a.Paths.DB)
	fmt.Fprintf(out, "  Systems:    %s\n", strings.Join(names, ", "))
	fmt.Fprintf(out, "  Local dir:  %s\n", a.Paths.SystemsDir)
	if addr, err := os.ReadFile(a.Paths.AddrFile); err == nil {
		fmt.Fprintf(out, "  Server:     %s\n", p.paint(colorGreen, "http://"+strings.TrimSpace(string(addr))))
	}
	fmt.Fprintf(out, "\n%s\n", p.paint(colorBold, "settings"))
	for _, line := range strings.Split(strings.TrimSpace(string(settings)), "\n") {
		fmt.Fprintf(out, "  %s\n", line)
	}
	return nil
}
