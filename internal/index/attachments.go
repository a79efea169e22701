package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/stencil/internal/apperr"
	"github.com/starford/stencil/internal/models"
)

// InsertAttachment records an uploaded file and returns it with its new id.
func (db *DB) InsertAttachment(url, name string, accountID int64) (models.Attachment, error) {
	a := models.Attachment{URL: url, Name: name, AccountID: accountID, CreatedAt: time.Now().UTC()}
	res, err := db.conn.Exec(`INSERT INTO attachments (url, name, account_id, created_at) VALUES (?, ?, ?, ?)`,
		a.URL, a.Name, a.AccountID, a.CreatedAt)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("index: insert attachment: %w", err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return models.Attachment{}, fmt.Errorf("index: attachment id: %w", err)
	}
	return a, nil
}

// GetAttachment returns the attachment with id or apperr.ErrNotFound.
func (db *DB) GetAttachment(id int64) (models.Attachment, error) {
	var a models.Attachment
	err := db.conn.QueryRow(`SELECT id, url, name, account_id, created_at FROM attachments WHERE id = ?`, id).
		Scan(&a.ID, &a.URL, &a.Name, &a.AccountID, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return a, apperr.ErrNotFound
	}
	if err != nil {
		return a, fmt.Errorf("index: get attachment: %w", err)
	}
	return a, nil
}
