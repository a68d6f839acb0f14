// Package watch provides file watching with debouncing using fsnotify.
// Changed files are revalidated after a quiet period so editors that
// write in bursts trigger one callback, not many.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeHandler is invoked with the path of a settled file change.
type ChangeHandler func(path string)

// Watcher debounces filesystem events for a set of paths.
type Watcher struct {
	fw       *fsnotify.Watcher
	debounce time.Duration
	onChange ChangeHandler

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher over the given paths. Directories are watched
// non-recursively, matching fsnotify semantics.
func New(paths []string, debounce time.Duration, onChange ChangeHandler) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no paths to watch")
	}
	if onChange == nil {
		return nil, fmt.Errorf("nil change handler")
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	for _, p := range paths {
		if err := fw.Add(p); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", p, err)
		}
	}

	return &Watcher{
		fw:       fw,
		debounce: debounce,
		onChange: onChange,
		pending:  make(map[string]*time.Timer),
	}, nil
}

// Run processes events until ctx is canceled or the event stream closes.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.schedule(event.Name)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", err)
		}
	}
}

// schedule arms (or re-arms) the debounce timer for one path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.onChange(path)
	})
}

// Close stops the watcher and cancels pending timers.
func (w *Watcher) Close() error {
	w.mu.Lock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	return w.fw.Close()
}
