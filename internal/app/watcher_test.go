package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/corey/mamdani/internal/domain/fuzzy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// manualWatcher lets a test fire change notifications by hand.
type manualWatcher struct {
	mu       sync.Mutex
	onChange func(string)
	watching chan struct{}
	stopped  bool
}

func newManualWatcher() *manualWatcher {
	return &manualWatcher{watching: make(chan struct{})}
}

func (w *manualWatcher) Watch(path string, onChange func(string)) error {
	w.mu.Lock()
	w.onChange = onChange
	w.mu.Unlock()
	close(w.watching)
	return nil
}

func (w *manualWatcher) Stop() error {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()
	return nil
}

func (w *manualWatcher) fire(path string) {
	w.mu.Lock()
	f := w.onChange
	w.mu.Unlock()
	f(path)
}

const smallSystem = `
name: small
inputs:
  - name: x
    universe: {min: 0, max: 10, step: 1}
    terms:
      - {label: any, shape: trapezoid, points: [0, 0, 10, 10]}
outputs:
  - name: y
    universe: {min: 0, max: 10, step: 1}
    terms:
      - {label: mid, shape: triangle, points: [%s]}
rules:
  - if: x.any
    then: y.mid
`

func writeSmall(t *testing.T, path, points string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(smallSystem, points)), 0644))
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	s := DefaultSettings()
	s.History = false
	a, err := New(Config{ProjectRoot: t.TempDir(), Settings: &s, Logger: zap.NewNop()})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

type reload struct {
	sys *fuzzy.ControlSystem
	err error
}

func TestWatch_ReloadKeepsLastGoodSystem(t *testing.T) {
	a := newTestApp(t)
	path := filepath.Join(t.TempDir(), "small.yaml")
	writeSmall(t, path, "0, 5, 10")

	sys, err := a.Resolve(path)
	require.NoError(t, err)
	e := a.NewEvaluator(sys)

	w := newManualWatcher()
	reloads := make(chan reload, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, w, path, e, func(s *fuzzy.ControlSystem, err error) {
			reloads <- reload{s, err}
		})
	}()
	<-w.watching

	// A good edit replaces the system.
	writeSmall(t, path, "4, 6, 8")
	w.fire(path)
	r := <-reloads
	require.NoError(t, r.err)
	assert.Same(t, r.sys, e.System())
	ev, err := e.Evaluate(map[string]float64{"x": 1})
	require.NoError(t, err)
	assert.InDelta(t, 6, ev.Record.Outputs["y"], 1e-9)

	// A broken edit is rejected and the previous system stays.
	good := e.System()
	writeSmall(t, path, "8, 6, 4")
	w.fire(path)
	r = <-reloads
	assert.ErrorIs(t, r.err, fuzzy.ErrConfiguration)
	assert.Nil(t, r.sys)
	assert.Same(t, good, e.System())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
	assert.True(t, w.stopped)
}

func TestWatchFile_Fsnotify(t *testing.T) {
	a := newTestApp(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "small.yaml")
	writeSmall(t, path, "0, 5, 10")

	sys, err := a.Resolve(path)
	require.NoError(t, err)
	e := a.NewEvaluator(sys)

	reloads := make(chan reload, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.WatchFile(ctx, path, e, func(s *fuzzy.ControlSystem, err error) {
			reloads <- reload{s, err}
		})
	}()

	// The watch is registered asynchronously; rewrite until it is seen.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	var got reload
wait:
	for {
		select {
		case got = <-reloads:
			// A reload can race a half-written file; wait for a good one.
			if got.err == nil {
				break wait
			}
		case <-tick.C:
			writeSmall(t, path, "4, 6, 8")
		case <-deadline:
			t.Fatal("no reload within 5s")
		}
	}
	assert.Same(t, got.sys, e.System())

	cancel()
	<-done
}
