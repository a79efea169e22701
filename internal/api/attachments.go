package api

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/stencil/internal/editor"
)

const maxUploadBytes = 50 << 20 // 50 MB

// ServeAttachment handles GET /attachments/{filename}.
func (h *Handler) ServeAttachment(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	data, err := h.svc.ReadAttachment(r.Context(), name)
	if err != nil {
		writeError(w, "serve attachment", err, slog.String("file", name))
		return
	}
	http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(data))
}

// UploadAttachments handles POST /api/attachments (multipart/form-data).
// Every "file" part is stored and recorded; the optional "account_id" field
// is kept with each record. The response lists the uploads in request
// order, ready for the insert_attachment command.
//
//	@Summary		Upload attachment files
//	@Tags			attachments
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file		formData	file	true	"One or more files"
//	@Param			account_id	formData	int		false	"Uploading account"
//	@Success		201			{array}		editor.Upload
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/attachments [post]
func (h *Handler) UploadAttachments(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	var accountID int64
	if raw := r.FormValue("account_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("account_id must be an integer"))
			return
		}
		accountID = id
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}

	uploads := make([]editor.Upload, 0, len(files))
	for _, fh := range files {
		data, err := readPart(fh)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("failed to read "+fh.Filename))
			return
		}
		up, err := h.svc.SaveAttachment(r.Context(), accountID, fh.Filename, data)
		if err != nil {
			writeError(w, "upload attachment", err, slog.String("file", fh.Filename))
			return
		}
		uploads = append(uploads, up)
	}
	writeJSON(w, http.StatusCreated, uploads)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// RecordAttachment handles POST /api/attachments/records. The file itself
// is not transferred; only its id, url and name are recorded.
//
//	@Summary		Record an externally hosted attachment
//	@Tags			attachments
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AttachmentRecordRequest	true	"Attachment"
//	@Success		201		{object}	editor.Upload
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/attachments/records [post]
func (h *Handler) RecordAttachment(w http.ResponseWriter, r *http.Request) {
	var req AttachmentRecordRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	up, err := h.svc.RecordAttachment(r.Context(), req.AccountID, req.URL, req.Name)
	if err != nil {
		writeError(w, "record attachment", err, slog.String("url", req.URL))
		return
	}
	writeJSON(w, http.StatusCreated, up)
}
