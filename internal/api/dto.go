package api

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/stencil/internal/catalog"
	"github.com/starford/stencil/internal/docservice"
	"github.com/starford/stencil/internal/document"
	"github.com/starford/stencil/internal/index"
	"github.com/starford/stencil/internal/models"
	"github.com/starford/stencil/internal/storage"
)

var isDocumentPath = validation.NewStringRule(
	func(s string) bool { return strings.HasSuffix(s, storage.Ext) },
	"must end with "+storage.Ext,
)

// CreateDocumentRequest is the request body for creating a document.
type CreateDocumentRequest struct {
	Path    string `json:"path" example:"sales/onboarding.md" validate:"required"`
	Content string `json:"content" example:"# Kickoff\n[clist:l1|a]Call {{client_name}}[/clist]"`
}

func (r *CreateDocumentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required, isDocumentPath),
	)
}

// UpdateDocumentRequest is the request body for replacing a document.
type UpdateDocumentRequest struct {
	Content string `json:"content" validate:"required"`
}

func (r *UpdateDocumentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Content, validation.Required),
	)
}

// ChecklistUpdateRequest sets the completion flag of one checklist item.
type ChecklistUpdateRequest struct {
	ListID    string `json:"list_id" validate:"required"`
	ItemID    string `json:"item_id" validate:"required"`
	Completed *bool  `json:"completed" validate:"required"`
}

func (r *ChecklistUpdateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ListID, validation.Required),
		validation.Field(&r.ItemID, validation.Required),
		validation.Field(&r.Completed, validation.NotNil),
	)
}

// RecordsRequest carries serialized nodes for encode and paste.
type RecordsRequest struct {
	Records []document.Record `json:"records" validate:"required"`
}

func (r *RecordsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Records, validation.Required),
	)
}

// TextRequest carries wire text for decode and canonicalize.
type TextRequest struct {
	Text string `json:"text"`
}

func (r *TextRequest) Validate() error { return nil }

// VariableRequest is the body of PUT /variables/{apiName}.
type VariableRequest struct {
	Title    string `json:"title" example:"Client name"`
	Subtitle string `json:"subtitle,omitempty" example:"Account"`
}

func (r *VariableRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.Length(0, 200)),
		validation.Field(&r.Subtitle, validation.Length(0, 200)),
	)
}

// OpenSessionRequest opens an editing session on a document.
type OpenSessionRequest struct {
	Path string `json:"path" validate:"required"`
}

func (r *OpenSessionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Path, validation.Required, isDocumentPath),
	)
}

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []docservice.DocumentListItem `json:"documents" validate:"required"`
	Total     int                           `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// ReferencesResponse lists the documents that reference a target.
type ReferencesResponse struct {
	Kind    string   `json:"kind" example:"variable"`
	Target  string   `json:"target" example:"client_name"`
	Sources []string `json:"sources" validate:"required"`
}

// ChecklistResponse lists the checklist items of a document.
type ChecklistResponse struct {
	Items []models.ChecklistItem `json:"items" validate:"required"`
}

// TextResponse carries wire text.
type TextResponse struct {
	Text string `json:"text"`
}

// TreeResponse carries a decoded document.
type TreeResponse struct {
	Tree document.Record `json:"tree"`
}

// RecordsResponse carries prepared clipboard records.
type RecordsResponse struct {
	Records []document.Record `json:"records"`
}

// VariableListResponse lists the catalog.
type VariableListResponse struct {
	Variables []catalog.Variable `json:"variables" validate:"required"`
}

// CommandResponse is returned after a session command.
type CommandResponse struct {
	Handled bool                     `json:"handled"`
	Session *docservice.SessionState `json:"session"`
}

var isAttachmentURL = validation.NewStringRule(
	func(s string) bool {
		return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "/")
	},
	"must be an http(s) URL or an absolute path",
)

// AttachmentRecordRequest registers a file that is already hosted elsewhere.
type AttachmentRecordRequest struct {
	URL       string `json:"url" example:"https://files.example.com/a/report.pdf" validate:"required"`
	Name      string `json:"name,omitempty" example:"report.pdf"`
	AccountID int64  `json:"account_id,omitempty"`
}

func (r *AttachmentRecordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.URL, validation.Required, isAttachmentURL),
		validation.Field(&r.AccountID, validation.Min(0)),
	)
}
