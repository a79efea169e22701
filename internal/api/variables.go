package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/stencil/internal/catalog"
)

// ListVariables handles GET /api/variables.
func (h *Handler) ListVariables(w http.ResponseWriter, r *http.Request) {
	vars, err := h.svc.ListVariables(r.Context())
	if err != nil {
		writeError(w, "list variables", err)
		return
	}
	writeJSON(w, http.StatusOK, VariableListResponse{Variables: vars})
}

// PutVariable handles PUT /api/variables/{apiName}.
//
//	@Summary		Create or replace a catalog variable
//	@Tags			variables
//	@Accept			json
//	@Produce		json
//	@Param			apiName	path		string			true	"Placeholder name"
//	@Param			body	body		VariableRequest	true	"Display metadata"
//	@Success		200		{object}	catalog.Variable
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/variables/{apiName} [put]
func (h *Handler) PutVariable(w http.ResponseWriter, r *http.Request) {
	var req VariableRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	v := catalog.Variable{APIName: chi.URLParam(r, "apiName"), Title: req.Title, Subtitle: req.Subtitle}
	if err := h.svc.PutVariable(r.Context(), v); err != nil {
		writeError(w, "put variable", err, slog.String("api_name", v.APIName))
		return
	}
	if v.Title == "" {
		v.Title = v.APIName
	}
	writeJSON(w, http.StatusOK, v)
}

// DeleteVariable handles DELETE /api/variables/{apiName}.
func (h *Handler) DeleteVariable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "apiName")
	if err := h.svc.DeleteVariable(r.Context(), name); err != nil {
		writeError(w, "delete variable", err, slog.String("api_name", name))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
