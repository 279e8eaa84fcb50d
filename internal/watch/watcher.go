// Package watch re-runs a callback when snippet files under a tree change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ppiankov/snipcheck/internal/registry"
)

// DefaultDebounce is how long the tree must be quiet before a re-run
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a snippet tree recursively
type Watcher struct {
	root     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	pending   map[string]time.Time
	lastEvent time.Time
}

// Option configures a Watcher
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change triggers a run
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the watcher logger
func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a watcher for every directory under root
func New(root string, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:     root,
		watcher:  fw,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
		pending:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addTree(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Root returns the watched tree
func (w *Watcher) Root() string {
	return w.root
}

// addTree adds dir and its non-hidden subdirectories
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return err
		}
		w.logger.Debug("Watching directory", zap.String("dir", p))
		return nil
	})
}

// Run calls onChange with the changed paths after each quiet period that
// follows snippet edits. It blocks until ctx is done and closes the watcher.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, paths []string)) error {
	defer func() { _ = w.watcher.Close() }()

	tick := w.debounce / 5
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			w.logger.Warn("Watch error", zap.Error(err))

		case <-ticker.C:
			if paths := w.due(time.Now()); len(paths) > 0 {
				onChange(ctx, paths)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				return
			}
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", zap.String("dir", event.Name), zap.Error(err))
			}
			// files may have landed before the directory was watched
			w.mark(event.Name)
			return
		}
	}

	if !relevant(event.Name) {
		return
	}

	w.logger.Debug("Snippet changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
	w.mark(event.Name)
}

func (w *Watcher) mark(path string) {
	now := time.Now()
	w.mu.Lock()
	w.pending[path] = now
	w.lastEvent = now
	w.mu.Unlock()
}

// due returns the pending paths once no event arrived for the debounce
// period, and clears them.
func (w *Watcher) due(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 || now.Sub(w.lastEvent) < w.debounce {
		return nil
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]time.Time)
	sort.Strings(paths)
	return paths
}

// relevant reports whether a path is a snippet or metadata file
func relevant(p string) bool {
	base := filepath.Base(p)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return base == "metadata.json" || registry.LanguageOf(p) != ""
}
