package cmd

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/corey/mamdani/internal/app"
	"github.com/spf13/cobra"
)

var (
	batchWorkers int
	batchStats   bool
)

var batchCmd = &cobra.Command{
	Use:   "batch [file.csv|-]",
	Short: "Compute one row of inputs per CSV line",
	Long: "Reads a CSV whose header names input variables; each following line is\n" +
		"one compute. An empty cell leaves that input unset. Rows are evaluated in\n" +
		"parallel and written back in order as CSV with one column per output and\n" +
		"an error column. Reads stdin when the file is - or omitted and piped.",
	Args: cobra.MaximumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "parallel computes (default: settings workers)")
	batchCmd.Flags().BoolVar(&batchStats, "stats", false, "print latency percentiles to stderr")
}

// batchRow is one --json result line.
type batchRow struct {
	Row     int                `json:"row"`
	Inputs  map[string]float64 `json:"inputs"`
	Outputs map[string]float64 `json:"outputs,omitempty"`
	Error   string             `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	var in io.Reader
	switch {
	case len(args) == 1 && args[0] != "-":
		f, err := os.Open(args[0])
		if err != nil {
			return configError(err)
		}
		defer f.Close()
		in = f
	case len(args) == 1 || isStdinPipe():
		in = cmd.InOrStdin()
	default:
		return usageError("batch needs a CSV file or piped input")
	}

	header, rows, err := readRows(in)
	if err != nil {
		return configError(err)
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

	workers := batchWorkers
	if workers <= 0 {
		workers = a.Settings.Workers
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, stats, err := a.NewEvaluator(sys).Batch(ctx, rows, workers)
	if err != nil {
		return err
	}

	var outputs []string
	for _, v := range sys.System.Outputs() {
		outputs = append(outputs, v.Name())
	}
	if jsonOut {
		err = writeBatchJSON(cmd.OutOrStdout(), rows, results)
	} else {
		err = writeBatchCSV(cmd.OutOrStdout(), header, outputs, rows, results)
	}
	if err != nil {
		return err
	}

	if batchStats {
		e := cmd.ErrOrStderr()
		fmt.Fprintf(e, "⚡ %d rows │ %d failed │ %s │ %d workers\n",
			stats.Rows, stats.Failed, stats.Elapsed.Round(time.Microsecond), workers)
		for _, q := range []float64{50, 90, 99, 100} {
			fmt.Fprintf(e, "  p%-4g %s\n", q, stats.Quantile(q))
		}
	}
	if stats.Failed > 0 {
		return reported(exitComputation)
	}
	return nil
}

// readRows parses the CSV header and numeric rows. Blank cells are skipped.
func readRows(in io.Reader) ([]string, []map[string]float64, error) {
	r := csv.NewReader(in)
	r.TrimLeadingSpace = true
	r.Comment = '#'
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("csv: missing header")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("csv: %w", err)
	}
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		if header[i] == "" || seen[header[i]] {
			return nil, nil, fmt.Errorf("csv: header column %d is empty or repeated", i+1)
		}
		seen[header[i]] = true
	}

	var rows []map[string]float64
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("csv: %w", err)
		}
		line, _ := r.FieldPos(0)
		row := make(map[string]float64, len(rec))
		for i, cell := range rec {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			x, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("csv line %d, %s: %q is not a number", line, header[i], cell)
			}
			row[header[i]] = x
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func writeBatchCSV(out io.Writer, header, outputs []string, rows []map[string]float64, results []app.BatchResult) error {
	w := csv.NewWriter(out)
	cols := append(append(append([]string{}, header...), outputs...), "error")
	if err := w.Write(cols); err != nil {
		return err
	}
	line := make([]string, len(cols))
	for i, res := range results {
		for j, h := range header {
			line[j] = ""
			if x, ok := rows[i][h]; ok {
				line[j] = strconv.FormatFloat(x, 'g', -1, 64)
			}
		}
		for j, o := range outputs {
			line[len(header)+j] = ""
			if res.Err == nil && res.Eval != nil {
				line[len(header)+j] = strconv.FormatFloat(res.Eval.Record.Outputs[o], 'f', 4, 64)
			}
		}
		line[len(cols)-1] = ""
		if res.Err != nil {
			line[len(cols)-1] = res.Err.Error()
		}
		if err := w.Write(line); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeBatchJSON(out io.Writer, rows []map[string]float64, results []app.BatchResult) error {
	lines := make([]batchRow, len(results))
	for i, res := range results {
		lines[i] = batchRow{Row: i + 1, Inputs: rows[i]}
		if res.Err != nil {
			lines[i].Error = res.Err.Error()
		} else if res.Eval != nil {
			lines[i].Outputs = res.Eval.Record.Outputs
		}
	}
	return writeJSON(out, lines)
}
