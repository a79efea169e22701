package index

import (
	"github.com/starford/stencil/internal/catalog"
	"github.com/starford/stencil/internal/models"
)

// DocumentIndex defines the interface for document indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type.
type DocumentIndex interface {
	UpsertDocument(d DocumentRow, text string, items []models.ChecklistItem, refs []models.Reference) error
	DeleteDocument(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	GetDocument(path string) (*DocumentRow, error)
	ListDocuments(limit, offset int, tag, sort string) ([]DocumentRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)

	ChecklistItems(path string) ([]models.ChecklistItem, error)
	SetChecklistItem(path, listID, itemID string, completed bool) error

	RefsOf(path string) ([]models.Reference, error)
	References(kind, target string) ([]string, error)

	ListVariables() ([]catalog.Variable, error)
	PutVariable(v catalog.Variable) error
	DeleteVariable(apiName string) error
	Catalog() (catalog.Map, error)

	InsertAttachment(url, name string, accountID int64) (models.Attachment, error)
	GetAttachment(id int64) (models.Attachment, error)

	Close() error
}

var _ DocumentIndex = (*DB)(nil)
