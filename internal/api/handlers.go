package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/stencil/internal/docservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

// docPath extracts the document path from the wildcard segment. Encoded
// slashes (sales%2Fonboarding.md) are accepted.
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// requirePath writes a 400 and returns "" when the wildcard is empty.
func requirePath(w http.ResponseWriter, r *http.Request) string {
	p := docPath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
	}
	return p
}

func writeDocument(w http.ResponseWriter, status int, d *docservice.DocumentDetail) {
	w.Header().Set("ETag", strconv.Quote(d.Checksum))
	writeJSON(w, status, d)
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List documents with optional pagination and filtering
//	@Tags			documents
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			tag		query		string	false	"Filter by tag"
//	@Param			sort	query		string	false	"Sort field"	Enums(updated_at, title, path)
//	@Success		200		{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListDocuments(r.Context(), limit, offset, q.Get("tag"), q.Get("sort"))
	if err != nil {
		writeError(w, "list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: total})
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Get a document with its checklist state and references
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	docservice.DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := requirePath(w, r)
	if path == "" {
		return
	}
	d, err := h.svc.GetDocument(r.Context(), path)
	if err != nil {
		writeError(w, "get document", err, slog.String("path", path))
		return
	}
	writeDocument(w, http.StatusOK, d)
}

// CreateDocument handles POST /api/documents.
//
//	@Summary		Create a document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateDocumentRequest	true	"Document to create"
//	@Success		201		{object}	docservice.DocumentDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	d, err := h.svc.CreateDocument(r.Context(), req.Path, []byte(req.Content))
	if err != nil {
		writeError(w, "create document", err, slog.String("path", req.Path))
		return
	}
	writeDocument(w, http.StatusCreated, d)
}

// UpdateDocument handles PUT /api/documents/*. An If-Match header enables
// optimistic concurrency.
//
//	@Summary		Replace a document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			path		path		string					true	"Document path"
//	@Param			If-Match	header		string					false	"SHA-256 checksum"
//	@Param			body		body		UpdateDocumentRequest	true	"New content"
//	@Success		200			{object}	docservice.DocumentDetail
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [put]
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	path := requirePath(w, r)
	if path == "" {
		return
	}
	var req UpdateDocumentRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	d, err := h.svc.UpdateDocument(r.Context(), path, []byte(req.Content), r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, "update document", err, slog.String("path", path))
		return
	}
	writeDocument(w, http.StatusOK, d)
}

// DeleteDocument handles DELETE /api/documents/*.
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	path := requirePath(w, r)
	if path == "" {
		return
	}
	if err := h.svc.DeleteDocument(r.Context(), path); err != nil {
		writeError(w, "delete document", err, slog.String("path", path))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across documents
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// References handles GET /api/references?kind=variable&target=client_name.
func (h *Handler) References(w http.ResponseWriter, r *http.Request) {
	kind, target := r.URL.Query().Get("kind"), r.URL.Query().Get("target")
	if kind == "" || target == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameters 'kind' and 'target' are required"))
		return
	}
	sources, err := h.svc.References(r.Context(), kind, target)
	if err != nil {
		writeError(w, "references", err, slog.String("kind", kind), slog.String("target", target))
		return
	}
	writeJSON(w, http.StatusOK, ReferencesResponse{Kind: kind, Target: target, Sources: sources})
}

// Checklist handles GET /api/checklists/*.
func (h *Handler) Checklist(w http.ResponseWriter, r *http.Request) {
	path := requirePath(w, r)
	if path == "" {
		return
	}
	items, err := h.svc.Checklist(r.Context(), path)
	if err != nil {
		writeError(w, "checklist", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, ChecklistResponse{Items: items})
}

// SetChecklistItem handles PUT /api/checklists/* and returns the updated
// checklist.
//
//	@Summary		Mark a checklist item completed or open
//	@Tags			checklists
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string					true	"Document path"
//	@Param			body	body		ChecklistUpdateRequest	true	"Item and flag"
//	@Success		200		{object}	ChecklistResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/checklists/{path} [put]
func (h *Handler) SetChecklistItem(w http.ResponseWriter, r *http.Request) {
	path := requirePath(w, r)
	if path == "" {
		return
	}
	var req ChecklistUpdateRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if err := h.svc.SetChecklistItem(r.Context(), path, req.ListID, req.ItemID, *req.Completed); err != nil {
		writeError(w, "set checklist item", err, slog.String("path", path))
		return
	}
	h.Checklist(w, r)
}
