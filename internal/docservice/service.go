// Package docservice coordinates the store, the index, the wire codec and
// the live editing sessions.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/starford/stencil/internal/apperr"
	"github.com/starford/stencil/internal/checksum"
	"github.com/starford/stencil/internal/index"
	"github.com/starford/stencil/internal/markdown"
	"github.com/starford/stencil/internal/models"
	"github.com/starford/stencil/internal/parser"
	"github.com/starford/stencil/internal/storage"
)

// Event kinds passed to an EventFunc.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
	EventChecked = "checked"
)

// EventFunc is told about every change the service makes.
type EventFunc func(kind, path string)

// DocumentDetail is the full representation of a document.
type DocumentDetail struct {
	Path        string                 `json:"path"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	Content     string                 `json:"content"`
	Checksum    string                 `json:"checksum"`
	Tags        []string               `json:"tags"`
	Frontmatter map[string]any         `json:"frontmatter,omitempty"`
	Checklist   []models.ChecklistItem `json:"checklist"`
	Refs        []models.Reference     `json:"refs"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// DocumentListItem is a lightweight item in a list response.
type DocumentListItem struct {
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Checksum    string    `json:"checksum"`
	Tags        []string  `json:"tags"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Service is the domain layer shared by the HTTP API, the MCP server and
// the CLI.
type Service struct {
	store    storage.Provider
	db       *index.DB
	codec    *markdown.Codec
	logger   *slog.Logger
	onEvent  EventFunc
	sessions *cache.Cache
}

// Option configures a Service.
type Option func(*Service)

func WithCodec(c *markdown.Codec) Option {
	return func(s *Service) { s.codec = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithEvents registers fn to be told about document changes.
func WithEvents(fn EventFunc) Option {
	return func(s *Service) { s.onEvent = fn }
}

// WithSessionTTL sets how long an idle session lives and how often expired
// sessions are purged.
func WithSessionTTL(ttl, cleanup time.Duration) Option {
	return func(s *Service) { s.sessions = cache.New(ttl, cleanup) }
}

// New creates a document service.
func New(store storage.Provider, db *index.DB, opts ...Option) *Service {
	s := &Service{store: store, db: db}
	for _, o := range opts {
		o(s)
	}
	if s.codec == nil {
		s.codec = markdown.Default()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.sessions == nil {
		s.sessions = cache.New(30*time.Minute, 5*time.Minute)
	}
	s.sessions.OnEvicted(func(id string, v any) {
		if sess, ok := v.(*session); ok {
			sess.stop()
			s.logger.Debug("session: evicted", slog.String("id", id), slog.String("path", sess.path))
		}
	})
	return s
}

// Codec returns the wire codec in use.
func (s *Service) Codec() *markdown.Codec { return s.codec }

func (s *Service) emit(kind, path string) {
	if s.onEvent != nil {
		s.onEvent(kind, path)
	}
}

// checkPath rejects paths that are not documents or that the store hides.
func (s *Service) checkPath(path string) error {
	if path == "" || !strings.HasSuffix(path, storage.Ext) || s.store.Excluded(path) {
		return fmt.Errorf("docservice: %w: %q", apperr.ErrInvalidPath, path)
	}
	return nil
}

func (s *Service) read(path string) ([]byte, error) {
	data, err := s.store.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperr.ErrNotFound
	}
	return data, err
}

// GetDocument reads a document and enriches it with the indexed checklist
// state and references.
func (s *Service) GetDocument(_ context.Context, path string) (*DocumentDetail, error) {
	if err := s.checkPath(path); err != nil {
		return nil, err
	}
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(path, data)
}

// CreateDocument writes a new document and indexes it. Text the decoder
// rejects is not stored.
func (s *Service) CreateDocument(_ context.Context, path string, content []byte) (*DocumentDetail, error) {
	if err := s.checkPath(path); err != nil {
		return nil, err
	}
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.write(path, content); err != nil {
		return nil, err
	}
	s.emit(EventCreated, path)
	return s.buildDetail(path, content)
}

// UpdateDocument replaces a document's content. A non-empty ifMatch must
// equal the checksum of the stored content.
func (s *Service) UpdateDocument(_ context.Context, path string, content []byte, ifMatch string) (*DocumentDetail, error) {
	if err := s.checkPath(path); err != nil {
		return nil, err
	}
	existing, err := s.read(path)
	if err != nil {
		return nil, err
	}
	if !checksum.Match(ifMatch, existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.write(path, content); err != nil {
		return nil, err
	}
	s.emit(EventUpdated, path)
	return s.buildDetail(path, content)
}

// DeleteDocument removes a document from the store and the index.
func (s *Service) DeleteDocument(_ context.Context, path string) error {
	if err := s.checkPath(path); err != nil {
		return err
	}
	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	if err := s.db.DeleteDocument(path); err != nil {
		return err
	}
	s.emit(EventDeleted, path)
	return nil
}

// ListDocuments returns paginated documents with an optional tag filter.
func (s *Service) ListDocuments(_ context.Context, limit, offset int, tag, sort string) ([]DocumentListItem, int, error) {
	rows, total, err := s.db.ListDocuments(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]DocumentListItem, len(rows))
	for i, r := range rows {
		items[i] = DocumentListItem{
			Path:        r.Path,
			Title:       r.Title,
			Description: r.Description,
			Checksum:    r.Checksum,
			Tags:        nonNil(r.Tags),
			UpdatedAt:   r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("docservice: %w: empty query", apperr.ErrValidation)
	}
	return s.db.Search(query, limit)
}

var refKinds = map[string]bool{
	models.RefMention:    true,
	models.RefVariable:   true,
	models.RefAttachment: true,
	models.RefLink:       true,
}

// References returns the documents referencing target.
func (s *Service) References(_ context.Context, kind, target string) ([]string, error) {
	if !refKinds[kind] || target == "" {
		return nil, fmt.Errorf("docservice: %w: reference %s:%s", apperr.ErrValidation, kind, target)
	}
	return s.db.References(kind, target)
}

// Checklist returns the checklist items of a document with their
// completion state.
func (s *Service) Checklist(ctx context.Context, path string) ([]models.ChecklistItem, error) {
	d, err := s.GetDocument(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.Checklist, nil
}

// SetChecklistItem records whether one checklist item is done.
func (s *Service) SetChecklistItem(ctx context.Context, path, listID, itemID string, completed bool) error {
	if _, err := s.GetDocument(ctx, path); err != nil {
		return err
	}
	if err := s.db.SetChecklistItem(path, listID, itemID, completed); err != nil {
		return err
	}
	s.logger.Debug("docservice: checklist item set",
		slog.String("path", path), slog.String("item", itemID), slog.Bool("completed", completed))
	s.emit(EventChecked, path)
	return nil
}

// IndexFile parses data and upserts it into the index.
func (s *Service) IndexFile(path string, data []byte) error {
	return index.IndexFile(s.db, s.codec, path, data)
}

// write validates content as wire text, stores it and indexes it.
func (s *Service) write(path string, content []byte) error {
	if _, err := parser.Parse(s.codec, content); err != nil {
		return err
	}
	if err := s.store.Write(path, content); err != nil {
		return err
	}
	return s.IndexFile(path, content)
}

// buildDetail constructs a DocumentDetail from raw data, re-indexing first
// when the index is behind the store.
func (s *Service) buildDetail(path string, data []byte) (*DocumentDetail, error) {
	sum := checksum.Sum(data)
	if cs, err := s.db.GetChecksum(path); err != nil {
		return nil, err
	} else if cs != sum {
		if err := s.IndexFile(path, data); err != nil {
			return nil, err
		}
	}
	row, err := s.db.GetDocument(path)
	if err != nil {
		return nil, err
	}
	res, err := parser.Parse(s.codec, data)
	if err != nil {
		return nil, err
	}
	items, err := s.db.ChecklistItems(path)
	if err != nil {
		return nil, err
	}
	refs, err := s.db.RefsOf(path)
	if err != nil {
		return nil, err
	}
	return &DocumentDetail{
		Path:        path,
		Title:       row.Title,
		Description: row.Description,
		Content:     string(data),
		Checksum:    sum,
		Tags:        nonNil(row.Tags),
		Frontmatter: res.Frontmatter,
		Checklist:   items,
		Refs:        refs,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
