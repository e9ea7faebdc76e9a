package app

import (
	"sort"
	"sync"
	"time"

	"github.com/corey/mamdani/internal/ports"
)

// RateTracker collects (elapsed, failed) samples from computes and reports
// the P50 latency and failure ratio over a rolling window. Safe for
// concurrent use.
type RateTracker struct {
	mu      sync.Mutex
	window  time.Duration
	samples []rateSample
}

type rateSample struct {
	ts      time.Time
	elapsed time.Duration
	failed  bool
}

// NewRateTracker creates a tracker with the given rolling window duration.
func NewRateTracker(window time.Duration) *RateTracker {
	return &RateTracker{window: window}
}

// Record adds a sample at the current time.
func (r *RateTracker) Record(elapsed time.Duration, failed bool) {
	r.RecordAt(time.Now(), elapsed, failed)
}

// RecordAt adds a sample at a specific timestamp. Timestamps are expected
// in non-decreasing order.
func (r *RateTracker) RecordAt(ts time.Time, elapsed time.Duration, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, rateSample{ts: ts, elapsed: elapsed, failed: failed})
	r.evict(ts)
}

// Recent returns the summary as of now.
func (r *RateTracker) Recent() ports.RecentStats {
	return r.RecentAt(time.Now())
}

// RecentAt returns the summary as of a specific time.
func (r *RateTracker) RecentAt(now time.Time) ports.RecentStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evict(now)

	out := ports.RecentStats{Window: r.window.String(), Computes: len(r.samples)}
	if len(r.samples) == 0 {
		return out
	}
	// Copy latencies for sorting (don't mutate sample order)
	lat := make([]time.Duration, len(r.samples))
	for i, s := range r.samples {
		lat[i] = s.elapsed
		if s.failed {
			out.Failed++
		}
	}
	sort.Slice(lat, func(i, j int) bool { return lat[i] < lat[j] })
	out.P50 = lat[len(lat)/2]
	return out
}

// Reset clears all samples.
func (r *RateTracker) Reset() {
	r.mu.Lock()
	r.samples = nil
	r.mu.Unlock()
}

// evict removes samples older than the window. Caller holds mu.
func (r *RateTracker) evict(now time.Time) {
	cutoff := now.Add(-r.window)
	i := 0
	for i < len(r.samples) && r.samples[i].ts.Before(cutoff) {
		i++
	}
	if i > 0 {
		r.samples = r.samples[i:]
	}
}
