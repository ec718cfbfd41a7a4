// Package server blog-post-web-app
//
// The service keeps the blog post and reaction state: a catalogued feed
// fetched from a remote source plus locally authored posts, with per-user
// like/dislike reactions.
//
//     Schemes: https
//     BasePath: /v1
//
//     Produces:
//     - application/json
//     Consumes:
//     - application/json
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"

	"github.com/Rabinkhulimuli/blog-post-web-app/internal/auth"
	mm "github.com/Rabinkhulimuli/blog-post-web-app/internal/middleware"
	"github.com/Rabinkhulimuli/blog-post-web-app/internal/store"
)

const maxBodySize = 64 * 1024

type server struct {
	s *store.Store
	a *auth.Service
}

// SetupRouter setups handlers to chi router. A positive feedCacheTTL puts
// the feed read behind an in-memory response cache.
func SetupRouter(s *store.Store, a *auth.Service, r chi.Router, feedCacheTTL time.Duration) {
	r.Use(
		mm.Logger,
		middleware.StripSlashes,
		cors.AllowAll().Handler,
		middleware.RequestID,
		middleware.Recoverer,
	)

	srv := server{
		s: s,
		a: a,
	}

	var getState http.HandlerFunc = srv.getState
	if feedCacheTTL > 0 {
		getState = mm.Cached(feedCacheTTL, srv.getState)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/posts", getState)
		r.Post("/posts", srv.createPost)
		r.Post("/posts/refresh", srv.refreshPosts)
		r.Get("/posts/{id}", srv.getPost)
		r.Put("/posts/{id}", srv.updatePost)
		r.Delete("/posts/{id}", srv.deletePost)
		r.Post("/posts/{id}/reactions", srv.react)

		r.Post("/auth/register", srv.register)
		r.Post("/auth/login", srv.login)
	})

	r.Get("/health", srv.health)
}
