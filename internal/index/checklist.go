package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/stencil/internal/apperr"
	"github.com/starford/stencil/internal/models"
)

type itemKey struct{ list, item string }

// replaceChecklist rewrites the checklist rows of path, carrying completion
// over from rows with the same listId and itemId.
func replaceChecklist(tx *sql.Tx, path string, items []models.ChecklistItem) error {
	rows, err := tx.Query(`SELECT list_id, item_id FROM checklist_items WHERE path = ? AND completed = 1`, path)
	if err != nil {
		return fmt.Errorf("index: read checklist: %w", err)
	}
	done := make(map[itemKey]bool)
	for rows.Next() {
		var k itemKey
		if err := rows.Scan(&k.list, &k.item); err != nil {
			rows.Close()
			return err
		}
		done[k] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM checklist_items WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: clear checklist: %w", err)
	}
	if len(items) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO checklist_items (path, list_id, item_id, position, text, completed) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare checklist insert: %w", err)
	}
	defer stmt.Close()
	for _, it := range items {
		if _, err := stmt.Exec(path, it.ListID, it.ItemID, it.Position, it.Text, done[itemKey{it.ListID, it.ItemID}]); err != nil {
			return fmt.Errorf("index: insert checklist item: %w", err)
		}
	}
	return nil
}

// ChecklistItems returns the checklist items of path in document order.
func (db *DB) ChecklistItems(path string) ([]models.ChecklistItem, error) {
	rows, err := db.conn.Query(`
		SELECT list_id, item_id, position, text, completed
		FROM checklist_items WHERE path = ? ORDER BY position`, path)
	if err != nil {
		return nil, fmt.Errorf("index: checklist items: %w", err)
	}
	defer rows.Close()
	out := []models.ChecklistItem{}
	for rows.Next() {
		var it models.ChecklistItem
		if err := rows.Scan(&it.ListID, &it.ItemID, &it.Position, &it.Text, &it.Completed); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// SetChecklistItem records the completion of one item. It returns
// apperr.ErrNotFound when the document has no such item.
func (db *DB) SetChecklistItem(path, listID, itemID string, completed bool) error {
	res, err := db.conn.Exec(`UPDATE checklist_items SET completed = ? WHERE path = ? AND list_id = ? AND item_id = ?`,
		completed, path, listID, itemID)
	if err != nil {
		return fmt.Errorf("index: set checklist item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
