package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/stencil/internal/models"
)

func replaceRefs(tx *sql.Tx, path string, refs []models.Reference) error {
	if _, err := tx.Exec(`DELETE FROM doc_refs WHERE source = ?`, path); err != nil {
		return fmt.Errorf("index: clear refs: %w", err)
	}
	if len(refs) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO doc_refs (source, kind, target) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare ref insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range refs {
		if _, err := stmt.Exec(path, r.Kind, r.Target); err != nil {
			return fmt.Errorf("index: insert ref: %w", err)
		}
	}
	return nil
}

// RefsOf returns the outgoing references of a document.
func (db *DB) RefsOf(path string) ([]models.Reference, error) {
	rows, err := db.conn.Query(`SELECT source, kind, target FROM doc_refs WHERE source = ? ORDER BY kind, target`, path)
	if err != nil {
		return nil, fmt.Errorf("index: refs of: %w", err)
	}
	defer rows.Close()
	out := []models.Reference{}
	for rows.Next() {
		var r models.Reference
		if err := rows.Scan(&r.Source, &r.Kind, &r.Target); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// References returns the paths of documents referencing target.
func (db *DB) References(kind, target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM doc_refs WHERE kind = ? AND target = ? ORDER BY source`, kind, target)
	if err != nil {
		return nil, fmt.Errorf("index: references: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
