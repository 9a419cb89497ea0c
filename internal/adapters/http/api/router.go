package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOption configures NewRouter.
type RouterOption func(*routerOptions)

type routerOptions struct {
	origins []string
	mounts  []func(context.Context, chi.Router)
}

// WithCORSOrigins sets the allowed cross-origin callers.
func WithCORSOrigins(origins []string) RouterOption {
	return func(o *routerOptions) {
		if len(origins) > 0 {
			o.origins = origins
		}
	}
}

// WithMount registers extra routes, such as the API docs, on the router.
func WithMount(fn func(context.Context, chi.Router)) RouterOption {
	return func(o *routerOptions) {
		if fn != nil {
			o.mounts = append(o.mounts, fn)
		}
	}
}

// NewRouter builds the chi router serving s.
func NewRouter(ctx context.Context, s *Server, opts ...RouterOption) http.Handler {
	o := routerOptions{origins: []string{"*"}}
	for _, opt := range opts {
		opt(&o)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: o.origins,
		AllowedMethods: []string{"GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	s.Register(ctx, r)
	for _, mount := range o.mounts {
		mount(ctx, r)
	}
	return r
}
