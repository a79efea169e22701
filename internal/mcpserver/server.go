// Package mcpserver exposes stencil documents to LLM clients as MCP tools
// over the stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/stencil/internal/apperr"
	"github.com/starford/stencil/internal/docservice"
	"github.com/starford/stencil/internal/document"
)

// ContractURI is the resource holding the wire format contract.
const ContractURI = "stencil://contract/wire-format"

// Server wraps the MCP server with the stencil tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *docservice.Service
	logger *slog.Logger
	fetch  fetchFunc
}

// New creates an MCP server with every tool and the contract resource
// registered.
func New(svc *docservice.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{svc: svc, logger: logger, fetch: fetchHTTP}

	s.mcp = server.NewMCPServer(
		"Stencil",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through document titles and text."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the stored wire text of a document, front matter included."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path (e.g. sales/onboarding.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List documents, most recently updated first."),
		mcp.WithString("tag", mcp.Description("Only documents carrying this tag")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
		mcp.WithNumber("offset", mcp.Description("Page offset")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Create a document. Content MUST follow the wire format contract "+
			"(get_format_contract or the "+ContractURI+" resource); text the decoder rejects is not stored."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new document (must end with .md)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Optional YAML front matter followed by wire text")),
	), s.createDocument)

	s.mcp.AddTool(mcp.NewTool("decode_document",
		mcp.WithDescription("Decode wire text, or a stored document, into its JSON node tree. "+
			"Variables resolve against the current catalog."),
		mcp.WithString("text", mcp.Description("Wire text to decode")),
		mcp.WithString("path", mcp.Description("Stored document to decode instead of text")),
	), s.decodeDocument)

	s.mcp.AddTool(mcp.NewTool("encode_document",
		mcp.WithDescription("Encode a JSON node tree (a root record or an array of block records) into wire text."),
		mcp.WithString("tree", mcp.Required(), mcp.Description("JSON root record or array of records")),
	), s.encodeDocument)

	s.mcp.AddTool(mcp.NewTool("list_checklist_items",
		mcp.WithDescription("List the checklist items of a document with their completion state."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Document path")),
	), s.listChecklistItems)

	s.mcp.AddTool(mcp.NewTool("set_checklist_item",
		mcp.WithDescription("Mark a checklist item completed or open."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Document path")),
		mcp.WithString("list_id", mcp.Required(), mcp.Description("Checklist listId")),
		mcp.WithString("item_id", mcp.Required(), mcp.Description("Checklist itemId")),
		mcp.WithBoolean("completed", mcp.Required(), mcp.Description("New completion state")),
	), s.setChecklistItem)

	s.mcp.AddTool(mcp.NewTool("find_references",
		mcp.WithDescription("Find documents referencing a mention id, variable name, attachment id or link URL."),
		mcp.WithString("kind", mcp.Required(), mcp.Enum("mention", "variable", "attachment", "link"), mcp.Description("Reference kind")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Referenced value")),
	), s.findReferences)

	s.mcp.AddTool(mcp.NewTool("get_format_contract",
		mcp.WithDescription("Returns the wire format contract. Call this before writing documents."),
	), s.getFormatContract)

	s.mcp.AddTool(mcp.NewTool("upload_asset",
		mcp.WithDescription("Store an image, video or PDF from an http(s) URL or a base64 data URI. "+
			"Returns the attachment token to paste into document text."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data: URI")),
		mcp.WithString("filename", mcp.Description("Display name; derived from the URL when empty")),
		mcp.WithNumber("account_id", mcp.Description("Uploading account")),
	), s.uploadAsset)

	s.mcp.AddResource(
		mcp.NewResource(ContractURI, "Wire Format Contract",
			mcp.WithResourceDescription("Token grammar for checklists, mentions, variables and attachments."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError turns a service error into a tool result. Errors the caller can
// fix are reported verbatim; the rest are logged.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found")
	case errors.Is(err, apperr.ErrAlreadyExists):
		return mcp.NewToolResultError("document already exists")
	case errors.Is(err, apperr.ErrDecode), errors.Is(err, apperr.ErrValidation),
		errors.Is(err, apperr.ErrInvalidPath), errors.Is(err, apperr.ErrConflict):
		return mcp.NewToolResultError(err.Error())
	}
	s.logger.Error("mcp: tool failed", slog.String("tool", tool), slog.String("error", err.Error()))
	return mcp.NewToolResultError("internal error")
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return s.toolError("search_documents", err), nil
	}
	return jsonResult(results), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.GetDocument(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return s.toolError("read_document", err), nil
	}
	return mcp.NewToolResultText(d.Content), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := s.svc.ListDocuments(ctx, req.GetInt("limit", 50), req.GetInt("offset", 0), req.GetString("tag", ""), "")
	if err != nil {
		return s.toolError("list_documents", err), nil
	}
	return jsonResult(map[string]any{"documents": items, "total": total}), nil
}

func (s *Server) createDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.svc.CreateDocument(ctx, path, []byte(content))
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return mcp.NewToolResultError(fmt.Sprintf("document already exists: %s", path)), nil
		}
		return s.toolError("create_document", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (%d checklist items)", d.Path, len(d.Checklist))), nil
}

func (s *Server) decodeDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		tree document.Record
		err  error
	)
	if path := req.GetString("path", ""); path != "" {
		tree, err = s.svc.Tree(ctx, path)
	} else {
		tree, err = s.svc.Decode(ctx, req.GetString("text", ""))
	}
	if err != nil {
		return s.toolError("decode_document", err), nil
	}
	return jsonResult(tree), nil
}

func (s *Server) encodeDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("tree")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	records, err := document.UnmarshalRecords([]byte(raw))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := s.svc.Encode(ctx, records)
	if err != nil {
		return s.toolError("encode_document", err), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) listChecklistItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.svc.Checklist(ctx, path)
	if err != nil {
		return s.toolError("list_checklist_items", err), nil
	}
	return jsonResult(items), nil
}

func (s *Server) setChecklistItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	listID, err := req.RequireString("list_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	itemID, err := req.RequireString("item_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	completed, err := req.RequireBool("completed")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.SetChecklistItem(ctx, path, listID, itemID, completed); err != nil {
		return s.toolError("set_checklist_item", err), nil
	}
	state := "open"
	if completed {
		state = "completed"
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s %s|%s: %s", path, listID, itemID, state)), nil
}

func (s *Server) findReferences(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sources, err := s.svc.References(ctx, kind, target)
	if err != nil {
		return s.toolError("find_references", err), nil
	}
	if len(sources) == 0 {
		return mcp.NewToolResultText("no references found"), nil
	}
	return mcp.NewToolResultText(strings.Join(sources, "\n")), nil
}

func (s *Server) getFormatContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(WireFormatContract), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContractURI,
			MIMEType: "text/markdown",
			Text:     WireFormatContract,
		},
	}, nil
}
