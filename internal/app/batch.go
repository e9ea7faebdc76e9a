package app

import (
	"context"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/corey/mamdani/internal/ports"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of one input vector.
type BatchResult struct {
	Row  int
	Eval *ports.Evaluation
	Err  error // compute error for this row; other rows are unaffected
}

// BatchStats summarizes a batch. Latency is recorded in microseconds.
type BatchStats struct {
	Rows    int
	Failed  int
	Elapsed time.Duration
	Latency *hdrhistogram.Histogram
}

// Quantile returns the latency at q (0..100).
func (s *BatchStats) Quantile(q float64) time.Duration {
	return time.Duration(s.Latency.ValueAtQuantile(q)) * time.Microsecond
}

// Batch evaluates rows on up to workers goroutines. Results are in row
// order. A row that fails to compute is reported in its result; the
// returned error is only set when ctx is cancelled, in which case rows that
// never started have a nil Eval and ctx's error.
func (e *Evaluator) Batch(ctx context.Context, rows []map[string]float64, workers int) ([]BatchResult, *BatchStats, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]BatchResult, len(rows))
	stats := &BatchStats{
		Rows:    len(rows),
		Latency: hdrhistogram.New(1, 60_000_000, 3),
	}
	var mu sync.Mutex

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range rows {
		results[i].Row = i
		if gctx.Err() != nil {
			results[i].Err = gctx.Err()
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return err
			}
			t0 := time.Now()
			ev, err := e.Evaluate(rows[i])
			us := max(time.Since(t0).Microseconds(), 1)
			results[i].Eval, results[i].Err = ev, err

			mu.Lock()
			if err != nil {
				stats.Failed++
			}
			if rerr := stats.Latency.RecordValue(us); rerr != nil {
				e.log.Debug("latency out of histogram range", zap.Int64("us", us))
			}
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	stats.Elapsed = time.Since(start)
	if err != nil {
		return results, stats, err
	}
	return results, stats, ctx.Err()
}
