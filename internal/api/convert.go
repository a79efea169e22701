package api

import (
	"log/slog"
	"net/http"
)

// Tree handles GET /api/trees/*: the stored body decoded against the live
// variable catalog.
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	path := requirePath(w, r)
	if path == "" {
		return
	}
	tree, err := h.svc.Tree(r.Context(), path)
	if err != nil {
		writeError(w, "tree", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, TreeResponse{Tree: tree})
}

// Encode handles POST /api/convert/encode.
//
//	@Summary		Render serialized nodes as wire text
//	@Tags			convert
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RecordsRequest	true	"Root record or top-level blocks"
//	@Success		200		{object}	TextResponse
//	@Failure		400		{object}	errResponse
//	@Router			/convert/encode [post]
func (h *Handler) Encode(w http.ResponseWriter, r *http.Request) {
	var req RecordsRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	text, err := h.svc.Encode(r.Context(), req.Records)
	if err != nil {
		writeError(w, "encode", err)
		return
	}
	writeJSON(w, http.StatusOK, TextResponse{Text: text})
}

// Decode handles POST /api/convert/decode.
//
//	@Summary		Parse wire text into a document tree
//	@Tags			convert
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TextRequest	true	"Wire text"
//	@Success		200		{object}	TreeResponse
//	@Failure		422		{object}	errResponse
//	@Router			/convert/decode [post]
func (h *Handler) Decode(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	tree, err := h.svc.Decode(r.Context(), req.Text)
	if err != nil {
		writeError(w, "decode", err)
		return
	}
	writeJSON(w, http.StatusOK, TreeResponse{Tree: tree})
}

// Paste handles POST /api/convert/paste.
func (h *Handler) Paste(w http.ResponseWriter, r *http.Request) {
	var req RecordsRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	records, err := h.svc.Paste(r.Context(), req.Records)
	if err != nil {
		writeError(w, "paste", err)
		return
	}
	writeJSON(w, http.StatusOK, RecordsResponse{Records: records})
}

// Canonicalize handles POST /api/convert/canonicalize.
func (h *Handler) Canonicalize(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, TextResponse{Text: h.svc.Canonicalize(req.Text)})
}
