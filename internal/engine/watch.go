package engine

import (
	"github.com/fsnotify/fsnotify"

	"pdf-pagetool/internal/logging"
	"pdf-pagetool/internal/metrics"
	"pdf-pagetool/internal/pages"
)

// watcher invalidates cached thumbnails when a source file changes on
// disk underneath the collection. Imported sources are added to the
// watch set automatically.
type watcher struct {
	fsw    *fsnotify.Watcher
	engine *Engine
	done   chan struct{}
}

// StartWatcher begins watching imported source files for modification.
// Files imported after the call are picked up as they arrive.
func (e *Engine) StartWatcher() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w := &watcher{fsw: fsw, engine: e, done: make(chan struct{})}
	e.watcher = w

	// Cover sources imported before the watcher existed.
	seen := make(map[string]bool)
	for _, entry := range e.coll.Snapshot() {
		if !seen[entry.Key.Source] {
			seen[entry.Key.Source] = true
			w.add(entry.Key.Source)
		}
	}

	e.coll.Observe(func(ch pages.Change) {
		if ch.Kind != pages.ChangeImported || len(ch.Keys) == 0 {
			return
		}
		w.add(ch.Keys[0].Source)
	})

	go w.loop()
	logging.Info("Source watcher started")
	return nil
}

func (w *watcher) add(source string) {
	if err := w.fsw.Add(source); err != nil {
		logging.Warn("Watcher: cannot watch %s: %v", source, err)
	}
}

func (w *watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.invalidate(ev.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Warn("Watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

// invalidate drops every cached rendering from the changed source and
// cancels its pending renders. Thumbnails re-render from the new file
// contents on the next request.
func (w *watcher) invalidate(source string) {
	removed := w.engine.cache.InvalidateSource(source)
	w.engine.pipe.CancelSource(source)
	metrics.WatcherInvalidationsTotal.Inc()
	logging.Info("Source %s changed on disk, invalidated %d cached thumbnails", source, removed)
}

func (w *watcher) close() error {
	close(w.done)
	return w.fsw.Close()
}
