/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the kiosk frontend

ROUTES:
  The paths mirror what the machine's clients already call; renaming
  them is a breaking change. Service-mode routes are not guarded by
  middleware - the controller checks the token itself so that failures
  come back as the body-flagged error payload, not a 401.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// Service mode
	r.Post("/sign-in", h.SignIn)
	r.Get("/turnoverReport", h.TurnoverReport)
	r.Get("/turnoverReport/summary", h.TurnoverSummary)
	r.Post("/reset", h.Reset)
	r.Get("/sales", h.Sales)

	// Customer flow
	r.Route("/drinks", func(r chi.Router) {
		r.Get("/", h.ListItems)
		r.Get("/item/{id}", h.GetItem)
		r.Post("/item/{id}/purchase", h.Purchase)
	})

	r.Get("/status", h.Status)

	return r
}
