//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

// Without FTS5 the documents table is searched with LIKE and there is no
// separate full-text table to maintain.

func initFTS(*sql.DB) error { return nil }

func ftsUpsert(*sql.Tx, string, string, string, []string) error { return nil }

func ftsDelete(*sql.Tx, string) error { return nil }

// Search matches query as a substring of the title, the body, the tags or
// any checklist item text. The snippet is cut around the first body hit.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT d.path, d.title,
		       substr(d.body, max(instr(lower(d.body), lower(?)) - 60, 1), 200)
		FROM documents d
		WHERE d.title LIKE ? OR d.body LIKE ? OR d.tags LIKE ?
		   OR EXISTS (SELECT 1 FROM checklist_items c WHERE c.path = d.path AND c.text LIKE ?)
		ORDER BY d.updated_at DESC
		LIMIT ?
	`, query, like, like, like, like, searchLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanSearchResults(rows)
}
