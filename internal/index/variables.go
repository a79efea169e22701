package index

import (
	"fmt"
	"time"

	"github.com/starford/stencil/internal/apperr"
	"github.com/starford/stencil/internal/catalog"
)

// ListVariables returns the variable catalog ordered by apiName.
func (db *DB) ListVariables() ([]catalog.Variable, error) {
	rows, err := db.conn.Query(`SELECT api_name, title, subtitle FROM variables ORDER BY api_name`)
	if err != nil {
		return nil, fmt.Errorf("index: list variables: %w", err)
	}
	defer rows.Close()
	out := []catalog.Variable{}
	for rows.Next() {
		var v catalog.Variable
		if err := rows.Scan(&v.APIName, &v.Title, &v.Subtitle); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// PutVariable inserts or replaces a catalog entry.
func (db *DB) PutVariable(v catalog.Variable) error {
	_, err := db.conn.Exec(`
		INSERT INTO variables (api_name, title, subtitle, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(api_name) DO UPDATE SET
			title      = excluded.title,
			subtitle   = excluded.subtitle,
			updated_at = excluded.updated_at
	`, v.APIName, v.Title, v.Subtitle, time.Now())
	if err != nil {
		return fmt.Errorf("index: put variable: %w", err)
	}
	return nil
}

// DeleteVariable removes a catalog entry or returns apperr.ErrNotFound.
func (db *DB) DeleteVariable(apiName string) error {
	res, err := db.conn.Exec(`DELETE FROM variables WHERE api_name = ?`, apiName)
	if err != nil {
		return fmt.Errorf("index: delete variable: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Catalog snapshots the variables table for one decode.
func (db *DB) Catalog() (catalog.Map, error) {
	vars, err := db.ListVariables()
	if err != nil {
		return nil, err
	}
	return catalog.FromSlice(vars), nil
}
