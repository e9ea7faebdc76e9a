package app

import (
	"context"
	"fmt"

	"github.com/corey/mamdani/internal/adapters/definition"
	"github.com/corey/mamdani/internal/domain/fuzzy"
	"github.com/corey/mamdani/internal/ports"
	"go.uber.org/zap"
)

// ReloadFunc is told about each reload attempt. sys is nil when the edited
// definition failed to load; the evaluator then keeps the last good system.
type ReloadFunc func(sys *fuzzy.ControlSystem, err error)

// Reload rebuilds the definition at path and installs it into e.
func (a *App) Reload(path string, e *Evaluator) (*fuzzy.ControlSystem, error) {
	sys, err := buildFile(path)
	if a.Metrics != nil {
		a.Metrics.reloads.WithLabelValues(e.Name(), result(err != nil)).Inc()
	}
	if err != nil {
		a.Log.Warn("definition rejected, keeping last good system",
			zap.String("path", path), zap.Error(err))
		return nil, err
	}
	e.Swap(sys)
	a.Log.Info("definition reloaded", zap.String("path", path), zap.Stringer("system", sys))
	return sys, nil
}

// Watch reloads the definition at path into e whenever the file changes,
// until ctx is done. Change bursts are coalesced: a reload that is already
// pending absorbs later notifications.
func (a *App) Watch(ctx context.Context, w ports.Watcher, path string, e *Evaluator, onReload ReloadFunc) error {
	changed := make(chan struct{}, 1)
	if err := w.Watch(path, func(string) {
		select {
		case changed <- struct{}{}:
		default:
		}
	}); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	a.Log.Info("watching definition", zap.String("path", path))

	for {
		select {
		case <-ctx.Done():
			if err := w.Stop(); err != nil {
				return err
			}
			return ctx.Err()
		case <-changed:
			sys, err := a.Reload(path, e)
			if onReload != nil {
				onReload(sys, err)
			}
		}
	}
}

func buildFile(path string) (*fuzzy.ControlSystem, error) {
	def, err := definition.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return def.Build()
}
