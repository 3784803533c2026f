// internal/app/features/mentees/routes.go
package mentees

import "github.com/go-chi/chi/v5"

// Routes returns the mentee endpoints, mounted under /api/mentees.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Delete("/", h.HandleClear)
	r.Get("/stats", h.ServeStats)
	r.Post("/upload", h.HandleUpload)
	r.Post("/bulk-delete", h.HandleBulkDelete)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	r.Post("/{id}/unlink", h.HandleUnlink)
	return r
}
