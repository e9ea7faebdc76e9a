// Package fsnotify implements the ports.Watcher interface using github.com/fsnotify/fsnotify.
// It watches definition files (through their directory, so rename-on-save editors are
// seen), filters out editor noise, and debounces rapid events (editors often trigger
// multiple writes per save).
package fsnotify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Extensions of definition files worth reporting when watching a directory.
var definitionExts = map[string]bool{
	".yaml": true,
	".yml":  true,
	".toml": true,
}

// Editor scratch files to ignore.
var ignoreSuffixes = []string{
	".swp",
	".swx",
	"~",
	".tmp",
	".DS_Store",
}

// debounceInterval collapses the burst of events one save produces.
const debounceInterval = 50 * time.Millisecond

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fw      *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	stopped bool
	mu      sync.Mutex
}

// NewWatcher creates a new file system watcher.
func NewWatcher() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fw:   fw,
		done: make(chan struct{}),
	}, nil
}

// Watch starts monitoring path (a definition file or a directory of them).
// onChange is called with the absolute path of each changed file.
func (w *Watcher) Watch(path string, onChange func(filePath string)) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return err
	}

	dir, target := absPath, ""
	if !info.IsDir() {
		dir, target = filepath.Dir(absPath), absPath
	}
	if err := w.fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	// Debounce state: track last event time per file
	debounce := make(map[string]time.Time)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}
				name := event.Name
				if !relevant(name, target) {
					continue
				}

				// Debounce: skip if we've seen this file recently
				now := time.Now()
				if last, seen := debounce[name]; seen && now.Sub(last) < debounceInterval {
					continue
				}
				debounce[name] = now

				// Fire callback for relevant operations
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					select {
					case <-w.done:
						return
					default:
					}
					onChange(name)
				}

			case _, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				// Errors are swallowed; fsnotify recovers automatically

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

// Stop ends monitoring and releases all resources. It waits for the event
// loop to exit, so no callback runs after it returns.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.done)
	w.mu.Unlock()

	err := w.fw.Close()
	w.wg.Wait()
	return err
}

// relevant reports whether an event path should reach onChange. With a
// target file only that file counts; otherwise any definition file does.
func relevant(path, target string) bool {
	if shouldIgnorePath(path) {
		return false
	}
	if target != "" {
		return path == target
	}
	return definitionExts[strings.ToLower(filepath.Ext(path))]
}

// shouldIgnorePath returns true for editor scratch and hidden files.
func shouldIgnorePath(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".#") {
		return true
	}
	for _, suffix := range ignoreSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}
