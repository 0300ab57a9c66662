package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the API. Collection and detail photo resources accept
// exactly GET, PUT and DELETE; uploads go through their own POST route.
// Everything under /photos requires authentication.
func Routes(userHandler *UserHandler, photoHandler *PhotoHandler, auth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/users", userHandler.CreateUser)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Route("/photos", func(r chi.Router) {
				r.Post("/upload", photoHandler.Upload)
				r.Get("/", photoHandler.List)
				r.Route("/{photo_id}", func(r chi.Router) {
					r.Get("/", photoHandler.Get)
					r.Put("/", photoHandler.Update)
					r.Delete("/", photoHandler.Destroy)
				})
			})
		})
	})

	return r
}
