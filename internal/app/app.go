// Package app wires together all adapters and domain logic.
// It provides the project context shared by every command: settings, logger,
// metrics registry, run history, and system resolution.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/corey/mamdani/internal/adapters/bbolt"
	"github.com/corey/mamdani/internal/adapters/definition"
	fsw "github.com/corey/mamdani/internal/adapters/fsnotify"
	"github.com/corey/mamdani/internal/domain/fuzzy"
	"github.com/corey/mamdani/internal/ports"
	"github.com/corey/mamdani/systems"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// App is the top-level container wiring all components together.
type App struct {
	Paths    *Paths
	Settings Settings
	Log      *zap.Logger
	Registry *prometheus.Registry
	Metrics  *Metrics
	Store    ports.RunStore // nil when history is off or the DB is locked

	store *bbolt.Store
}

// Config holds initialization parameters for the App.
type Config struct {
	ProjectRoot string
	Settings    *Settings   // nil = load .mamdani/config.toml
	Logger      *zap.Logger // nil = no logging
	NoHistory   bool        // overrides settings.history
}

// System is a resolved, built control system.
type System struct {
	Name   string
	Path   string // definition file; empty for embedded systems
	Def    *definition.Definition
	System *fuzzy.ControlSystem
}

// New creates an App. History is best effort: when the run database cannot
// be opened (another process holds it) the App runs without history.
func New(cfg Config) (*App, error) {
	if cfg.ProjectRoot == "" {
		return nil, fmt.Errorf("project root required")
	}
	paths := NewPaths(cfg.ProjectRoot)

	var settings Settings
	if cfg.Settings != nil {
		settings = *cfg.Settings
	} else {
		s, err := LoadSettings(paths.Config)
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		settings = s
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	reg := prometheus.NewRegistry()
	a := &App{
		Paths:    paths,
		Settings: settings,
		Log:      log,
		Registry: reg,
		Metrics:  NewMetrics(reg),
	}

	if settings.History && !cfg.NoHistory {
		if err := os.MkdirAll(paths.Root, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", paths.Root, err)
		}
		store, err := bbolt.NewStore(paths.DB)
		if err != nil {
			log.Warn("run history disabled", zap.String("db", paths.DB), zap.Error(err))
		} else {
			a.store = store
			a.Store = store
		}
	}
	return a, nil
}

// Close releases the run database.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store, a.Store = nil, nil
	return err
}

// Resolve finds and builds a system. A ref with a .yaml, .yml or .toml
// extension is a file path; otherwise it names a definition in
// .mamdani/systems/ or, failing that, an embedded system. An empty ref
// means settings.default_system.
func (a *App) Resolve(ref string) (*System, error) {
	if ref == "" {
		ref = a.Settings.DefaultSystem
	}

	if definition.FormatFromPath(ref) >= 0 {
		def, err := definition.LoadFile(ref)
		if err != nil {
			return nil, err
		}
		return build(def, ref)
	}

	for _, src := range []struct {
		fsys fs.FS
		dir  string
	}{
		{os.DirFS(a.Paths.SystemsDir), a.Paths.SystemsDir},
		{systems.FS, ""},
	} {
		def, err := definition.LoadFS(src.fsys, ref)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		path := ""
		if src.dir != "" {
			path = locateFile(src.dir, ref)
		}
		return build(def, path)
	}
	return nil, fmt.Errorf("system %q: not a definition file, not in %s, not embedded", ref, a.Paths.SystemsDir)
}

func build(def *definition.Definition, path string) (*System, error) {
	sys, err := def.Build()
	if err != nil {
		return nil, err
	}
	return &System{Name: def.Name, Path: path, Def: def, System: sys}, nil
}

func locateFile(dir, name string) string {
	for _, ext := range []string{".yaml", ".yml", ".toml"} {
		p := filepath.Join(dir, name+ext)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Systems lists the systems Resolve can find by name.
func (a *App) Systems() ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	local, err := definition.Names(os.DirFS(a.Paths.SystemsDir))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	embedded, err := definition.Names(systems.FS)
	if err != nil {
		return nil, err
	}
	for _, n := range append(local, embedded...) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out, nil
}

// NewEvaluator creates an Evaluator for s wired to the App's history,
// metrics and logger.
func (a *App) NewEvaluator(s *System) *Evaluator {
	return NewEvaluator(EvaluatorConfig{
		Name:         s.Name,
		System:       s.System,
		Store:        a.Store,
		HistoryLimit: a.Settings.HistoryLimit,
		Metrics:      a.Metrics,
		Logger:       a.Log,
	})
}

// WatchFile is Watch over an fsnotify watcher.
func (a *App) WatchFile(ctx context.Context, path string, e *Evaluator, onReload ReloadFunc) error {
	w, err := fsw.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	return a.Watch(ctx, w, path, e, onReload)
}
