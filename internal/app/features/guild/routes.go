// internal/app/features/guild/routes.go
package guild

import "github.com/go-chi/chi/v5"

// Routes returns the guild lookups, mounted under /api/discord.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/roles", h.ServeRoles)
	r.Get("/channels", h.ServeChannels)
	return r
}
