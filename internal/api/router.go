package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/stencil/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *docservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.CreateDocument)
	r.Get("/documents/*", h.GetDocument)
	r.Put("/documents/*", h.UpdateDocument)
	r.Delete("/documents/*", h.DeleteDocument)

	r.Get("/trees/*", h.Tree)
	r.Get("/checklists/*", h.Checklist)
	r.Put("/checklists/*", h.SetChecklistItem)

	r.Get("/search", h.Search)
	r.Get("/references", h.References)

	r.Route("/convert", func(r chi.Router) {
		r.Post("/encode", h.Encode)
		r.Post("/decode", h.Decode)
		r.Post("/paste", h.Paste)
		r.Post("/canonicalize", h.Canonicalize)
	})

	r.Get("/variables", h.ListVariables)
	r.Put("/variables/{apiName}", h.PutVariable)
	r.Delete("/variables/{apiName}", h.DeleteVariable)

	r.Post("/attachments", h.UploadAttachments)
	r.Post("/attachments/records", h.RecordAttachment)
	r.Get("/attachments/{filename}", h.ServeAttachment)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.OpenSession)
		r.Get("/{id}", h.GetSession)
		r.Delete("/{id}", h.CloseSession)
		r.Post("/{id}/commands", h.SessionCommand)
		r.Post("/{id}/save", h.SaveSession)
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
