package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"

	"tsfile/internal/logging"
)

// Watcher invalidates a StaticCatalogue's cached chunk metadata when a
// resource file changes on disk out from under it — a closed resource
// rewritten by external compaction, or one removed/renamed away — mirroring
// the teacher's fsnotify-driven file-change handling
// (internal/ingester/tail/ingester.go's handleFSEvent), adapted from
// "append new lines" to "forget cached metadata". Nothing is reloaded: an
// invalidated resource has no chunk metadata until it is registered again.
type Watcher struct {
	cat    *StaticCatalogue
	fsw    *fsnotify.Watcher
	logger *slog.Logger
}

// NewWatcher creates a Watcher over cat, watching dir for changes to the
// resource files it was constructed with.
func NewWatcher(cat *StaticCatalogue, dir string, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("catalog: new fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("catalog: watch %s: %w", dir, err)
	}
	return &Watcher{cat: cat, fsw: fsw, logger: logging.Default(logger).With("component", "catalog.watcher")}, nil
}

// Run processes filesystem events until ctx is cancelled or the underlying
// watcher errors. It returns nil on context cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Write):
		w.cat.Invalidate(event.Name)
		w.logger.Debug("resource rewritten, cache invalidated", "path", event.Name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.cat.Remove(event.Name)
		w.logger.Debug("resource removed", "path", event.Name)
	}
}

// Close stops the underlying fsnotify watcher. Idempotent.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
