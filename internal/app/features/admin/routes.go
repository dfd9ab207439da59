package admin

import (
	"github.com/EVE-University/unistudent/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the admin API under the path where this router is mounted
// (typically "/admin" from bootstrap). Every route requires the admin
// bearer token; with no token configured the whole API answers 404.
func Routes(h *Handler, adminToken string) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireAdmin(adminToken, h.Log))

		pr.Post("/sync", h.ServeSync)
		pr.Get("/runs", h.ServeRuns)

		pr.Get("/titles/{corporationID}", h.ServeTitles)

		pr.Get("/mappings", h.ServeMappings)
		pr.Put("/mappings/{corporationID}", h.HandleSetMapping)
		pr.Delete("/mappings/{corporationID}", h.HandleDeleteMapping)

		pr.Get("/groups", h.ServeGroups)
		pr.Post("/groups", h.HandleCreateGroup)

		pr.Post("/owners", h.HandleEnrollOwner)

		pr.Get("/audit", h.ServeAudit)
	})

	return r
}
