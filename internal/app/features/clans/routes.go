// internal/app/features/clans/routes.go
package clans

import "github.com/go-chi/chi/v5"

// Routes returns the clan endpoints, mounted under /api/clans.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/slug/{slug}", h.ServeBySlug)
	r.Get("/{id}", h.ServeGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	r.Post("/{id}/merge", h.HandleMerge)
	return r
}
