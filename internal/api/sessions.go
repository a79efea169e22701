package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/stencil/internal/docservice"
)

// OpenSession handles POST /api/sessions.
//
//	@Summary		Open an editing session on a document
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OpenSessionRequest	true	"Document path"
//	@Success		201		{object}	docservice.SessionState
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions [post]
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	st, err := h.svc.OpenSession(r.Context(), req.Path)
	if err != nil {
		writeError(w, "open session", err, slog.String("path", req.Path))
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

// GetSession handles GET /api/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get session", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// SessionCommand handles POST /api/sessions/{id}/commands.
//
//	@Summary		Apply one editing command
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Session id"
//	@Param			body	body		docservice.CommandRequest	true	"Selection, command and payload"
//	@Success		200		{object}	CommandResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/commands [post]
func (h *Handler) SessionCommand(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req docservice.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	id := chi.URLParam(r, "id")
	st, handled, err := h.svc.Command(r.Context(), id, req)
	if err != nil {
		writeError(w, "session command", err, slog.String("id", id), slog.String("command", string(req.Command)))
		return
	}
	writeJSON(w, http.StatusOK, CommandResponse{Handled: handled, Session: st})
}

// SaveSession handles POST /api/sessions/{id}/save.
func (h *Handler) SaveSession(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.SaveSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "save session", err)
		return
	}
	writeDocument(w, http.StatusOK, d)
}

// CloseSession handles DELETE /api/sessions/{id}.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CloseSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "close session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
