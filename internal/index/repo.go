package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/stencil/internal/apperr"
	"github.com/starford/stencil/internal/models"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path        string
	Title       string
	Description string
	Checksum    string
	Tags        []string
	UpdatedAt   time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

const defaultSearchLimit = 20

func searchLimit(limit int) int {
	if limit <= 0 {
		return defaultSearchLimit
	}
	return limit
}

func scanSearchResults(rows *sql.Rows) ([]SearchResult, error) {
	defer rows.Close()
	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Title, &r.Snippet); err != nil {
			return nil, fmt.Errorf("index: scan search result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertDocument inserts or replaces a document with its FTS entry,
// checklist items and references in one transaction. Completion flags of
// items that survive (same listId and itemId) are kept.
func (db *DB) UpsertDocument(d DocumentRow, text string, items []models.ChecklistItem, refs []models.Reference) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(nonNil(d.Tags))
	_, err = tx.Exec(`
		INSERT INTO documents (path, title, description, checksum, tags, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title       = excluded.title,
			description = excluded.description,
			checksum    = excluded.checksum,
			tags        = excluded.tags,
			body        = excluded.body,
			updated_at  = excluded.updated_at
	`, d.Path, d.Title, d.Description, d.Checksum, string(tagsJSON), text, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	if err := ftsUpsert(tx, d.Path, d.Title, text, d.Tags); err != nil {
		return err
	}
	if err := replaceChecklist(tx, d.Path, items); err != nil {
		return err
	}
	if err := replaceRefs(tx, d.Path, refs); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteDocument removes a document, its FTS entry, checklist items and
// outgoing references.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, path); err != nil {
		return err
	}
	for _, q := range []string{
		`DELETE FROM checklist_items WHERE path = ?`,
		`DELETE FROM doc_refs WHERE source = ?`,
		`DELETE FROM documents WHERE path = ?`,
	} {
		if _, err := tx.Exec(q, path); err != nil {
			return fmt.Errorf("index: delete document: %w", err)
		}
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or an empty
// string if it is not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path -> checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

const documentColumns = `path, title, description, checksum, tags, updated_at`

func scanDocument(s interface{ Scan(...any) error }) (DocumentRow, error) {
	var (
		d    DocumentRow
		tags string
	)
	if err := s.Scan(&d.Path, &d.Title, &d.Description, &d.Checksum, &tags, &d.UpdatedAt); err != nil {
		return d, err
	}
	_ = json.Unmarshal([]byte(tags), &d.Tags)
	d.Tags = nonNil(d.Tags)
	return d, nil
}

// GetDocument returns the indexed row for path or apperr.ErrNotFound.
func (db *DB) GetDocument(path string) (*DocumentRow, error) {
	d, err := scanDocument(db.conn.QueryRow(`SELECT `+documentColumns+` FROM documents WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get document: %w", err)
	}
	return &d, nil
}

var sortOrders = map[string]string{
	"":           "updated_at DESC, path",
	"updated_at": "updated_at DESC, path",
	"title":      "title COLLATE NOCASE, path",
	"path":       "path",
}

// ListDocuments returns one page of documents and the total count. tag
// filters on an exact tag; sort is updated_at (default), title or path.
func (db *DB) ListDocuments(limit, offset int, tag, sort string) ([]DocumentRow, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	order, ok := sortOrders[sort]
	if !ok {
		return nil, 0, fmt.Errorf("index: %w: unknown sort %q", apperr.ErrValidation, sort)
	}

	where, args := "", []any{}
	if tag != "" {
		where = ` WHERE EXISTS (SELECT 1 FROM json_each(documents.tags) WHERE json_each.value = ?)`
		args = append(args, tag)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}

	rows, err := db.conn.Query(`SELECT `+documentColumns+` FROM documents`+where+
		` ORDER BY `+order+` LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
