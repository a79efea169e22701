// Package storage defines the document store abstraction.
package storage

import "github.com/starford/stencil/internal/models"

// Ext is the file extension of stored documents.
const Ext = ".md"

// AttachmentDir is the store directory holding uploaded files. It is never
// treated as part of the document tree.
const AttachmentDir = "attachments"

// Provider is the interface for document store operations. Paths are
// relative to the store root and use forward slashes.
type Provider interface {
	// List returns metadata for every document under dir that no exclude
	// pattern matches.
	List(dir string) ([]models.DocumentMetadata, error)
	// Stat returns metadata for the file at path.
	Stat(path string) (models.DocumentMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
	// Excluded reports whether path is hidden by an exclude pattern or lives
	// under AttachmentDir.
	Excluded(path string) bool
}
