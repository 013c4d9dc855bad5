package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/mamelilea/agrowtify-web/internal/handlers"
	"github.com/mamelilea/agrowtify-web/internal/middleware"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Journal *handlers.JournalHandler
	Plants  *handlers.PlantHandler
	Weather *handlers.WeatherHandler
	Content *handlers.ContentHandler
	Events  *handlers.EventHandler
	Media   *handlers.MediaHandler
}

func SetupRoutes(r chi.Router, h Handlers, auth *middleware.Authenticator) {
	// Public routes
	r.Post("/api/auth/register", h.Auth.Register)
	r.Post("/api/auth/login", h.Auth.Login)
	r.Post("/api/auth/logout", h.Auth.Logout)

	r.Get("/api/categories", h.Content.ListCategories)
	r.Get("/api/agroguide", h.Content.ListGuides)
	r.Get("/api/agroguide/{id}", h.Content.GetGuide)
	r.Get("/api/events", h.Events.List)
	r.Get("/api/events/{id}", h.Events.Get)
	r.Get("/ws/events", h.Events.Feed)

	// Session routes
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)

		r.Get("/api/auth/me", h.Auth.Me)

		r.Get("/api/agrocare/journal/entries", h.Journal.ListEntries)
		r.Post("/api/agrocare/journal/entries", h.Journal.CreateEntry)
		r.Get("/api/agrocare/journal/entries/{id}", h.Journal.GetEntry)
		r.Patch("/api/agrocare/journal/entries/{id}", h.Journal.UpdateEntry)
		r.Delete("/api/agrocare/journal/entries/{id}", h.Journal.DeleteEntry)
		r.Get("/api/agrocare/journal/questions", h.Journal.ListQuestions)

		r.Get("/api/agrocare/plants", h.Plants.List)

		r.Get("/api/agrocare/weather", h.Weather.Forecast)
		r.Post("/api/agrocare/weather", h.Weather.Recommend)
		r.Get("/api/agrocare/weather/history", h.Weather.History)

		r.Post("/api/events", h.Events.Create)
		r.Put("/api/events/{id}", h.Events.Update)
		r.Delete("/api/events/{id}", h.Events.Delete)

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)

			r.Post("/api/agrocare/journal/questions", h.Journal.CreateQuestion)
			r.Post("/api/agrocare/plants", h.Plants.Create)
			r.Post("/api/categories", h.Content.CreateCategory)
			r.Post("/api/agroguide", h.Content.CreateGuide)
			r.Put("/api/agroguide/{id}", h.Content.UpdateGuide)
			r.Delete("/api/agroguide/{id}", h.Content.DeleteGuide)
			r.Get("/api/media/ping", h.Media.Ping)
		})
	})
}
