package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/cravetown/internal/commands"
	"github.com/starford/cravetown/internal/versionservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(reg *commands.Registry, svc *versionservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(reg, svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Command bridge.
	r.Get("/commands", h.ListCommands)
	r.Post("/invoke/{command}", h.Invoke)

	// Raw files with optimistic concurrency.
	r.Get("/files", h.GetFile)
	r.Put("/files", h.PutFile)

	// Versions.
	r.Get("/versions", h.ListVersions)
	r.Get("/versions/{id}/files", h.VersionFiles)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
