package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/corey/mamdani/internal/app"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

var (
	systemRef string
	rootDir   string
	verbose   bool
	logJSON   bool
	jsonOut   bool
	colorFlag string
	noColor   bool
)

var rootCmd = &cobra.Command{
	Use:   "mamdani",
	Short: "mamdani: fuzzy inference engine",
	Long: "Evaluate Mamdani fuzzy control systems described in YAML or TOML.\n" +
		"Systems are named by file path, by a definition in .mamdani/systems/,\n" +
		"or by the name of a bundled system (pecas, tipping).",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// projectRoot returns the project root (cwd by default).
func projectRoot() (string, error) {
	if rootDir != "" {
		return rootDir, nil
	}
	return os.Getwd()
}

// openApp loads settings and wires the App. history=false never opens the
// run database.
func openApp(history bool) (*app.App, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	settings, err := app.LoadSettings(app.NewPaths(root).Config)
	if err != nil {
		return nil, configError(err)
	}
	level := settings.Level()
	if verbose {
		level = zapcore.DebugLevel
	}
	log, err := app.NewLogger(level, logJSON)
	if err != nil {
		return nil, err
	}
	a, err := app.New(app.Config{ProjectRoot: root, Settings: &settings, Logger: log, NoHistory: !history})
	if err != nil {
		return nil, configError(err)
	}
	return a, nil
}

// resolve builds the system named by -s.
func resolve(a *app.App) (*app.System, error) {
	s, err := a.Resolve(systemRef)
	if err != nil {
		return nil, configError(err)
	}
	return s, nil
}

func colors() painter {
	return painter(resolveColor(colorFlag, noColor))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Execute runs the root command. Errors are printed here; an exitError
// without a message was already reported by the command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && err.Error() != "" {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "error: %v\n", err)
	}
	return err
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&systemRef, "system", "s", "", "system file or name (default: settings default_system)")
	f.StringVar(&rootDir, "root", "", "project directory holding .mamdani/ (default: current directory)")
	f.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	f.BoolVar(&logJSON, "log-json", false, "log as JSON")
	f.BoolVar(&jsonOut, "json", false, "print JSON instead of text")
	f.StringVar(&colorFlag, "color", "auto", "color output: auto, always, never")
	f.BoolVar(&noColor, "no-color", false, "disable color output")

	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return exitError{exitConfiguration, err}
	})

	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}
