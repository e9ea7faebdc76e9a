package cmd

import (
	"fmt"
	"strings"

	"github.com/corey/mamdani/internal/adapters/definition"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Check definition files and report every problem",
	Long: "Loads and builds each definition, reporting all problems found at once.\n" +
		"Without arguments, checks every system that -s could name. Exit code 2\n" +
		"when any definition is invalid.",
	RunE: runValidate,
}

// validation is one --json result.
type validation struct {
	Ref      string   `json:"ref"`
	Name     string   `json:"name,omitempty"`
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	refs := args
	if len(refs) == 0 {
		if refs, err = a.Systems(); err != nil {
			return configError(err)
		}
	}

	var results []validation
	for _, ref := range refs {
		if len(args) > 0 && definition.FormatFromPath(ref) < 0 {
			results = append(results, validation{Ref: ref, Problems: []string{"not a .yaml, .yml or .toml file"}})
			continue
		}
		s, err := a.Resolve(ref)
		if err != nil {
			results = append(results, validation{Ref: ref, Problems: problems(err)})
			continue
		}
		results = append(results, validation{Ref: ref, Name: s.Name, Valid: true})
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		if err := writeJSON(out, results); err != nil {
			return err
		}
	} else {
		p := colors()
		for _, r := range results {
			if r.Valid {
				fmt.Fprintf(out, "%s %s\n", p.paint(colorGreen, "✓"), r.Ref)
				continue
			}
			fmt.Fprintf(out, "%s %s\n", p.paint(colorRed, "✗"), r.Ref)
			for _, msg := range r.Problems {
				fmt.Fprintf(out, "    %s\n", msg)
			}
		}
	}
	for _, r := range results {
		if !r.Valid {
			return reported(exitConfiguration)
		}
	}
	return nil
}

// problems flattens a joined error into one message per line.
func problems(err error) []string {
	var out []string
	for _, line := range strings.Split(err.Error(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
