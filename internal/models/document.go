// Package models defines the domain types for stencil.
package models

import "time"

// Document is a stored template after parsing.
type Document struct {
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Body        string         `json:"body"`
	Checksum    string         `json:"checksum"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// DocumentMetadata is a lightweight representation returned by list operations.
type DocumentMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChecklistItem is one checklist entry of a document together with its
// completion state.
type ChecklistItem struct {
	ListID    string `json:"list_id"`
	ItemID    string `json:"item_id"`
	Position  int    `json:"position"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Reference kinds.
const (
	RefMention    = "mention"
	RefVariable   = "variable"
	RefAttachment = "attachment"
	RefLink       = "link"
)

// Reference is a directed edge from a document to a mentioned user, a
// variable, an attachment or an external link.
type Reference struct {
	Source string `json:"source"`
	Kind   string `json:"kind"`
	Target string `json:"target"`
}

// Attachment is an uploaded file known to the backend.
type Attachment struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	Name      string    `json:"name"`
	AccountID int64     `json:"account_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
