// internal/app/features/settings/routes.go
package settings

import "github.com/go-chi/chi/v5"

// Routes returns the configuration endpoints, mounted under /api/config.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeConfig)
	r.Put("/", h.HandleUpdate)
	r.Post("/deploy-message", h.HandleDeploy)
	r.Post("/sync-roles", h.HandleSyncRoles)
	return r
}
