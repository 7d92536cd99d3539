package knowledge

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 200 * time.Millisecond

// Reloader rebuilds state after the catalog file changes.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Watcher reloads the knowledge base when its catalog file changes on disk.
// The parent directory is watched because editors often replace files by
// renaming a temporary copy over them.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	reloader Reloader
	logger   *zap.Logger
	debounce time.Duration
}

// NewWatcher starts watching the directory of path.
func NewWatcher(path string, reloader Reloader, logger *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving catalog path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		watcher:  w,
		path:     abs,
		reloader: reloader,
		logger:   logger,
		debounce: defaultDebounce,
	}, nil
}

// Run processes file events until ctx is cancelled. Bursts of events are
// collapsed into one reload.
func (w *Watcher) Run(ctx context.Context) {
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("Catalog file changed",
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()))
			pending = time.After(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", zap.Error(err))
		case <-pending:
			pending = nil
			if err := w.reloader.Reload(ctx); err != nil {
				w.logger.Error("Catalog reload failed", zap.Error(err), zap.String("path", w.path))
				continue
			}
			w.logger.Info("Catalog reloaded", zap.String("path", w.path))
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}
