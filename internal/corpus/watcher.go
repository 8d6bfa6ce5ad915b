package corpus

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches the loaded corpus file with fsnotify and flags it as stale
// when it changes on disk. The running engine keeps serving the corpus it
// loaded; staleness is only surfaced (health output, logs) so an operator
// knows a restart would pick up new content.
type Watcher struct {
	path     string
	onStale  func(path string)
	debounce time.Duration
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	timer    *time.Timer
	stale    bool
	done     chan struct{}
	started  bool
	stopOnce sync.Once
	logger   *zap.Logger // optional; when set, logs change events
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for corpus change events.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher creates a watcher for the corpus file at path. onStale is called
// (debounced) each time the file changes; it may be nil.
func NewWatcher(path string, onStale func(path string), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		onStale:  onStale,
		debounce: defaultDebounce,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start starts watching. The parent directory is watched rather than the file
// itself so atomic replace (write to temp, rename over) is still observed.
// Runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	if w.logger != nil {
		w.logger.Debug("corpus watcher starting", zap.String("path", w.path))
	}
	w.mu.Unlock()
	go w.run(ctx, watcher)
	return nil
}

func (w *Watcher) run(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if err != nil && w.logger != nil {
				w.logger.Debug("corpus watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	switch {
	case ev.Op.Has(fsnotify.Write), ev.Op.Has(fsnotify.Create),
		ev.Op.Has(fsnotify.Rename), ev.Op.Has(fsnotify.Remove):
		if w.logger != nil {
			w.logger.Debug("corpus file changed", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
		}
		w.debounceStale()
	}
}

func (w *Watcher) debounceStale() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		w.stale = true
		onStale := w.onStale
		logger := w.logger
		w.mu.Unlock()
		if logger != nil {
			logger.Warn("corpus file changed on disk; restart to load new content",
				zap.String("path", w.path))
		}
		if onStale != nil {
			onStale(w.path)
		}
	})
}

// Stale reports whether the corpus file has changed since the watcher started.
func (w *Watcher) Stale() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stale
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
