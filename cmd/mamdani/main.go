// mamdani is a Mamdani fuzzy inference engine.
// Evaluate, inspect, validate, watch and serve fuzzy control systems
// described in YAML or TOML.
package main

import (
	"os"

	"github.com/corey/mamdani/cmd/mamdani/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
