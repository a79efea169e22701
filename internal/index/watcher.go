package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/stencil/internal/markdown"
	"github.com/starford/stencil/internal/storage"
)

const reconcileDelay = 200 * time.Millisecond

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, path string)

// watcher carries the state shared by the event handlers of one Watch call.
type watcher struct {
	fsw    *fsnotify.Watcher
	db     *DB
	store  storage.Provider
	codec  *markdown.Codec
	root   string
	logger *slog.Logger
	cb     EventCallback
}

// Watch starts an fsnotify watcher on the store root and keeps the index
// current until ctx is cancelled. cb (if non-nil) runs after each index
// mutation. Directories created at runtime are watched too; renames trigger
// a debounced reconciliation pass. Excluded paths are ignored.
func Watch(ctx context.Context, db *DB, store storage.Provider, codec *markdown.Codec, root string, logger *slog.Logger, cb EventCallback) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	w := &watcher{fsw: fsw, db: db, store: store, codec: codec, root: root, logger: logger, cb: cb}
	if err := w.addDirs(root); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", root))

	var (
		reconcileTimer *time.Timer
		reconcileCh    <-chan time.Time
	)
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			w.reconcile()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(ev) {
				scheduleReconcile()
			}

		case watchErr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// handle processes one event and reports whether a reconcile pass is due.
func (w *watcher) handle(ev fsnotify.Event) bool {
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if w.store.Excluded(rel) {
		return false
	}

	if ev.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
			if addErr := w.addDirs(ev.Name); addErr != nil {
				w.logger.Warn("watcher: add new dir failed", slog.String("path", rel), slog.String("error", addErr.Error()))
			}
			w.indexDir(ev.Name)
			return false
		}
	}

	if !strings.HasSuffix(rel, storage.Ext) {
		return false
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		kind := "updated"
		if ev.Op&fsnotify.Create != 0 {
			kind = "created"
		}
		w.index(rel, kind)

	case ev.Op&fsnotify.Remove != 0:
		w.remove(rel)

	case ev.Op&fsnotify.Rename != 0:
		// fsnotify reports the old name only; the new one arrives as a
		// Create when it stays inside a watched directory.
		w.remove(rel)
		return true
	}
	return false
}

func (w *watcher) index(rel, kind string) {
	data, err := w.store.Read(rel)
	if err != nil {
		w.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if err := IndexFile(w.db, w.codec, rel, data); err != nil {
		w.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
	w.emit(kind, rel)
}

func (w *watcher) remove(rel string) {
	if err := w.db.DeleteDocument(rel); err != nil {
		w.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: deleted", slog.String("path", rel))
	w.emit("deleted", rel)
}

func (w *watcher) emit(kind, rel string) {
	if w.cb != nil {
		w.cb(kind, rel)
	}
}

// reconcile removes index entries whose files are gone and indexes files
// whose checksum differs from the index.
func (w *watcher) reconcile() {
	checksums, err := w.db.AllChecksums()
	if err != nil {
		w.logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := w.store.List("")
	if err != nil {
		w.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			w.remove(p)
		}
	}
	for p, cs := range disk {
		if prev, ok := checksums[p]; !ok {
			w.index(p, "created")
		} else if prev != cs {
			w.index(p, "updated")
		}
	}
}

// indexDir indexes the documents found in a newly created directory.
func (w *watcher) indexDir(dir string) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, storage.Ext) {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, p)
		if relErr != nil || w.store.Excluded(rel) {
			return nil
		}
		w.index(filepath.ToSlash(rel), "created")
		return nil
	})
}

// addDirs adds dir and all its non-excluded subdirectories to the watcher.
func (w *watcher) addDirs(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, _ := filepath.Rel(w.root, p); rel != "." && w.store.Excluded(rel) {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}
