package docservice

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/stencil/internal/apperr"
	"github.com/starford/stencil/internal/document"
	"github.com/starford/stencil/internal/editor"
	"github.com/starford/stencil/internal/models"
	"github.com/starford/stencil/internal/storage"
)

// AttachmentDir is the store directory holding uploaded files.
const AttachmentDir = storage.AttachmentDir

var unsafeNameRe = regexp.MustCompile(`[^\p{L}\p{N}._ -]`)

// SaveAttachment stores an uploaded file under a fresh name and records it.
// The result is what the insert_attachment command expects.
func (s *Service) SaveAttachment(_ context.Context, accountID int64, name string, data []byte) (editor.Upload, error) {
	display := sanitizeName(name)
	if display == "" {
		return editor.Upload{}, fmt.Errorf("docservice: %w: file name is required", apperr.ErrValidation)
	}
	file := uuid.NewString() + strings.ToLower(path.Ext(display))
	if err := s.store.Write(AttachmentDir+"/"+file, data); err != nil {
		return editor.Upload{}, err
	}
	a, err := s.db.InsertAttachment("/"+AttachmentDir+"/"+file, display, accountID)
	if err != nil {
		return editor.Upload{}, err
	}
	s.logger.Info("docservice: attachment saved",
		slog.Int64("id", a.ID), slog.String("name", display), slog.Int("bytes", len(data)))
	return editor.Upload{ID: a.ID, URL: a.URL, Name: a.Name}, nil
}

// RecordAttachment registers a file that already lives at url, such as one
// kept by an external upload service.
func (s *Service) RecordAttachment(_ context.Context, accountID int64, url, name string) (editor.Upload, error) {
	if strings.TrimSpace(url) == "" {
		return editor.Upload{}, fmt.Errorf("docservice: %w: url is required", apperr.ErrValidation)
	}
	display := sanitizeName(name)
	if display == "" {
		display = document.AttachmentName(url)
	}
	a, err := s.db.InsertAttachment(url, display, accountID)
	if err != nil {
		return editor.Upload{}, err
	}
	s.logger.Info("docservice: attachment recorded", slog.Int64("id", a.ID), slog.String("url", url))
	return editor.Upload{ID: a.ID, URL: a.URL, Name: a.Name}, nil
}

// GetAttachment returns the attachment recorded under id.
func (s *Service) GetAttachment(_ context.Context, id int64) (models.Attachment, error) {
	return s.db.GetAttachment(id)
}

// ReadAttachment returns the content of a stored upload by its file name.
func (s *Service) ReadAttachment(_ context.Context, file string) ([]byte, error) {
	if file == "" || file != path.Base(file) || strings.HasPrefix(file, ".") {
		return nil, fmt.Errorf("docservice: attachment %q: %w", file, apperr.ErrInvalidPath)
	}
	return s.read(AttachmentDir + "/" + file)
}

// sanitizeName keeps the base name and drops characters that are unsafe in
// a file name.
func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}
	return strings.TrimSpace(unsafeNameRe.ReplaceAllString(name, "_"))
}
