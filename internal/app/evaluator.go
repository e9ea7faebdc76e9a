package app

import (
	"errors"
	"maps"
	"sync/atomic"
	"time"

	"github.com/corey/mamdani/internal/domain/fuzzy"
	"github.com/corey/mamdani/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Evaluator runs computes against one named system. The system can be
// swapped while computes are in flight; each compute uses the system it
// started with.
type Evaluator struct {
	name    string
	system  atomic.Pointer[fuzzy.ControlSystem]
	store   ports.RunStore // nil = history off
	keep    int            // history_limit; 0 keeps every run
	metrics *Metrics       // nil = no metrics
	recent  *RateTracker
	log     *zap.Logger
	now     func() time.Time
}

// EvaluatorConfig holds the collaborators of an Evaluator. Only Name and
// System are required.
type EvaluatorConfig struct {
	Name         string
	System       *fuzzy.ControlSystem
	Store        ports.RunStore
	HistoryLimit int
	Metrics      *Metrics
	Logger       *zap.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(cfg EvaluatorConfig) *Evaluator {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	e := &Evaluator{
		name:    cfg.Name,
		store:   cfg.Store,
		keep:    cfg.HistoryLimit,
		metrics: cfg.Metrics,
		recent:  NewRateTracker(5 * time.Minute),
		log:     log.With(zap.String("system", cfg.Name)),
		now:     time.Now,
	}
	e.system.Store(cfg.System)
	return e
}

// Name is the system name runs are recorded under.
func (e *Evaluator) Name() string { return e.name }

// System returns the current system.
func (e *Evaluator) System() *fuzzy.ControlSystem { return e.system.Load() }

// Recent summarizes the computes of the last five minutes.
func (e *Evaluator) Recent() ports.RecentStats { return e.recent.Recent() }

// Swap installs a new system and returns the previous one.
func (e *Evaluator) Swap(sys *fuzzy.ControlSystem) *fuzzy.ControlSystem {
	return e.system.Swap(sys)
}

// Evaluate binds inputs, computes, and records the run. The returned
// Evaluation is non-nil even when the compute fails, so callers can show
// activations and the per-output failures; the error is then a
// *fuzzy.ComputeError or a *fuzzy.ComputationError for a rejected input.
func (e *Evaluator) Evaluate(inputs map[string]float64) (*ports.Evaluation, error) {
	sys := e.system.Load()
	start := e.now()

	sim := sys.NewSimulation()
	err := sim.SetInputs(inputs)
	if err == nil {
		err = sim.Compute()
	}
	elapsed := e.now().Sub(start)

	rec := &ports.RunRecord{
		ID:        uuid.NewString(),
		System:    e.name,
		At:        start.UnixNano(),
		Inputs:    maps.Clone(inputs),
		Outputs:   sim.Outputs(),
		ElapsedNs: elapsed.Nanoseconds(),
	}
	if rec.Inputs == nil {
		rec.Inputs = map[string]float64{}
	}
	if err != nil {
		rec.Outputs = nil
		rec.Failures = failures(err)
	}

	ev := &ports.Evaluation{Record: rec, Activations: sim.Activations()}
	for _, v := range sys.Outputs() {
		if agg, ok := sim.Aggregated(v.Name()); ok {
			ev.Aggregated = append(ev.Aggregated, agg)
		}
	}

	e.recent.Record(elapsed, err != nil)
	if e.metrics != nil {
		e.metrics.computations.WithLabelValues(e.name, result(err != nil)).Inc()
		e.metrics.duration.WithLabelValues(e.name).Observe(elapsed.Seconds())
	}
	if err != nil {
		e.log.Debug("compute failed", zap.String("run", rec.ID), zap.Error(err))
	} else {
		e.log.Debug("computed", zap.String("run", rec.ID), zap.Any("outputs", rec.Outputs), zap.Duration("elapsed", elapsed))
	}
	e.record(rec)
	return ev, err
}

// record saves a run. History is best effort: a store failure is logged
// and never fails the compute.
func (e *Evaluator) record(rec *ports.RunRecord) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveRun(rec); err != nil {
		e.log.Warn("failed to record run", zap.String("run", rec.ID), zap.Error(err))
		return
	}
	if e.keep <= 0 {
		return
	}
	if n, err := e.store.PruneRuns(e.name, e.keep); err != nil {
		e.log.Warn("failed to prune history", zap.Error(err))
	} else if n > 0 {
		e.log.Debug("pruned history", zap.Int("removed", n))
	}
}

// failures flattens a compute error into output variable -> reason. Errors
// that are not tied to an output (a rejected input, compute before any
// input) are keyed by the input name or "*".
func failures(err error) map[string]string {
	out := make(map[string]string)
	var ce *fuzzy.ComputeError
	if errors.As(err, &ce) {
		for _, f := range ce.Failures() {
			out[key(f.Variable)] = f.Reason
		}
		return out
	}
	var one *fuzzy.ComputationError
	if errors.As(err, &one) {
		out[key(one.Variable)] = one.Reason
		return out
	}
	out["*"] = err.Error()
	return out
}

func key(variable string) string {
	if variable == "" {
		return "*"
	}
	return variable
}
