package index

import (
	"log/slog"
	"time"

	"github.com/starford/stencil/internal/checksum"
	"github.com/starford/stencil/internal/markdown"
	"github.com/starford/stencil/internal/parser"
	"github.com/starford/stencil/internal/storage"
)

// Sync walks the store and brings the index up to date:
//   - new/changed documents are parsed and upserted
//   - documents removed from disk are deleted from the index
//
// Documents that fail to decode are logged and skipped.
func Sync(db *DB, store storage.Provider, codec *markdown.Codec, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, codec, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteDocument(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("path", p))
		}
	}

	logger.Info("sync: done", slog.Int("documents", len(metas)))
	return nil
}

// IndexFile parses data and upserts it into the DB. Exported so that the
// document service can index its own writes without waiting for the watcher.
func IndexFile(db *DB, codec *markdown.Codec, path string, data []byte) error {
	res, err := parser.Parse(codec, data)
	if err != nil {
		return err
	}
	title := res.Title
	if title == "" {
		title = parser.TitleFromPath(path)
	}
	return db.UpsertDocument(DocumentRow{
		Path:        path,
		Title:       title,
		Description: res.Description,
		Checksum:    checksum.Sum(data),
		Tags:        res.Tags,
		UpdatedAt:   time.Now().UTC(),
	}, res.Text, res.Checklist, res.Refs)
}
