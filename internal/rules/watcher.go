package rules

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/julien6387/supvisors/pkg/logging"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher watches a single rules file for changes and republishes a freshly
// parsed RuleSet on every settled change, debouncing bursts of filesystem
// events the way an editor's save-then-rename sequence produces them.
type Watcher struct {
	path             string
	debounceInterval time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
}

// NewWatcher creates a watcher for the rules file at path.
func NewWatcher(path string) *Watcher {
	return &Watcher{path: path, debounceInterval: defaultDebounce, stopCh: make(chan struct{})}
}

// Start begins watching and emits the rules file's current contents
// immediately, then a fresh RuleSet each time the file settles after a
// change. The channel is closed when ctx is canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) (<-chan RuleSet, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return nil, err
	}
	w.watcher = watcher

	out := make(chan RuleSet, 1)

	if set, err := Parse(w.path); err != nil {
		logging.Warn("rules", "initial parse of %s failed: %v", w.path, err)
	} else {
		out <- set
	}

	go w.run(ctx, out)
	return out, nil
}

func (w *Watcher) run(ctx context.Context, out chan<- RuleSet) {
	defer close(out)
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			w.debounce(out)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("rules", err, "watcher error on %s", w.path)
		}
	}
}

func (w *Watcher) debounce(out chan<- RuleSet) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounceInterval, func() {
		set, err := Parse(w.path)
		if err != nil {
			logging.Warn("rules", "reload of %s failed, keeping previous rule set: %v", w.path, err)
			return
		}
		select {
		case out <- set:
			logging.Info("rules", "reloaded %s", w.path)
		default:
			logging.Warn("rules", "rule set channel full, dropping reload of %s", w.path)
		}
	})
}

// Stop halts the watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)
}
