package handlers

import "github.com/go-chi/chi/v5"

// Mount registers the page and API routes on r
func (h *Handler) Mount(r chi.Router) {
	r.Get("/health", h.HealthCheck)

	// HTML dashboard
	r.Get("/", h.Dashboard)
	r.Post("/players", h.SubmitPlayerForm)
	r.Post("/players/{id}/delete", h.DeletePlayerForm)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/players", h.GetPlayers)
		r.Post("/players", h.CreatePlayer)
		r.Delete("/players/{id}", h.DeletePlayer)
		r.Get("/leaders", h.GetLeaders)
		r.Get("/summary", h.GetSummary)
		r.Post("/refresh", h.Refresh)
	})
}
