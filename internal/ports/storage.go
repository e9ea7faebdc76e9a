// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

import "github.com/corey/mamdani/internal/domain/fuzzy"

// RunStore keeps a history of computed runs. The backing store (bbolt) is
// system-scoped: each system name gets its own namespace. Concurrent reads
// are safe; writes are serialized by the adapter.
//
// Only runs are stored. System definitions are never written back.
type RunStore interface {
	// SaveRun appends one run under rec.System.
	SaveRun(rec *RunRecord) error

	// ListRuns returns up to limit runs for a system, newest first.
	// An empty system lists every system. limit <= 0 means no limit.
	ListRuns(system string, limit int) ([]*RunRecord, error)

	// PruneRuns keeps only the newest keep runs of a system and returns the
	// number removed.
	PruneRuns(system string, keep int) (int, error)

	// DeleteRuns removes all runs for a system; an empty system removes
	// every system. Idempotent.
	DeleteRuns(system string) error
}

// RunRecord is one compute as it is persisted.
//
// Outputs and Failures are exclusive: compute is all-or-nothing, so a
// failed run has no outputs.
type RunRecord struct {
	ID        string             `json:"id"`
	System    string             `json:"system"`
	At        int64              `json:"at"` // unix nanoseconds
	Inputs    map[string]float64 `json:"inputs"`
	Outputs   map[string]float64 `json:"outputs,omitempty"`
	Failures  map[string]string  `json:"failures,omitempty"` // output variable -> reason
	ElapsedNs int64              `json:"elapsed_ns"`
}

// Failed reports whether the run produced no outputs.
func (r *RunRecord) Failed() bool { return len(r.Failures) > 0 }

// Evaluation is a run plus the display data that is not persisted.
type Evaluation struct {
	Record      *RunRecord            `json:"record"`
	Activations []fuzzy.Activation    `json:"activations"`
	Aggregated  []fuzzy.AggregatedSet `json:"aggregated,omitempty"`
}
