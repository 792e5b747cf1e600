// Package watch observes the project source tree and re-triggers the
// release pipeline on change. A new run supersedes the in-flight one:
// the previous run's context is cancelled before the next run starts,
// mirroring cancel-in-progress semantics.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Config contains configuration for the source watcher.
type Config struct {
	// ProjectDir is the root directory to watch.
	ProjectDir string

	// Patterns are glob patterns of files that trigger a rerun.
	Patterns []string

	// IgnorePatterns are directory names never descended into. Build
	// output directories must be listed here or the pipeline's own
	// writes would retrigger it.
	IgnorePatterns []string

	// Debounce collapses rapid event bursts into one trigger.
	Debounce time.Duration
}

// DefaultConfig returns the watcher configuration for a cargo project.
func DefaultConfig(projectDir string) *Config {
	return &Config{
		ProjectDir: projectDir,
		Patterns: []string{
			"*.rs",
			"Cargo.toml",
			"Cargo.lock",
			"pyproject.toml",
			"release.json",
		},
		IgnorePatterns: []string{
			".git",
			"target",
			"dist",
			".venv",
			"node_modules",
		},
		Debounce: 250 * time.Millisecond,
	}
}

// Watcher emits a debounced trigger whenever a watched source file
// changes.
type Watcher struct {
	config  *Config
	watcher *fsnotify.Watcher
	trigger chan string
	errors  chan error
	done    chan struct{}

	mu      sync.Mutex
	running bool
	pending *time.Timer
	last    string
}

// NewWatcher creates a new source watcher.
func NewWatcher(config *Config) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		config:  config,
		watcher: fsWatcher,
		trigger: make(chan string, 1),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching for source changes.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addRecursive(w.config.ProjectDir); err != nil {
		return err
	}

	go w.processEvents(ctx)
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	close(w.done)

	return w.watcher.Close()
}

// Triggers returns the channel of rerun triggers. The value is the path
// that caused the trigger (the last one in a debounced burst).
func (w *Watcher) Triggers() <-chan string {
	return w.trigger
}

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// addRecursive adds a directory tree to the watcher, skipping ignored
// directories.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		for _, pattern := range w.config.IgnorePatterns {
			if matched, _ := filepath.Match(pattern, info.Name()); matched {
				return filepath.SkipDir
			}
		}
		return w.watcher.Add(path)
	})
}

// processEvents filters and debounces fsnotify events into triggers.
func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}

	// New directories need to be watched too.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addRecursive(event.Name)
			return
		}
	}

	if !w.matches(filepath.Base(event.Name)) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.last = event.Name
	if w.pending != nil {
		w.pending.Reset(w.config.Debounce)
		return
	}
	w.pending = time.AfterFunc(w.config.Debounce, func() {
		w.mu.Lock()
		path := w.last
		w.pending = nil
		w.mu.Unlock()

		select {
		case w.trigger <- path:
		default:
		}
	})
}

func (w *Watcher) matches(name string) bool {
	for _, pattern := range w.config.Patterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}
