package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/history"
	"github.com/starford/raido/internal/hooks"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(runner *hooks.Runner, hist history.Store, command string, timeout time.Duration,
	authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(runner, hist, command, timeout)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/status", h.Status)
	r.Get("/history", h.History)
	r.Get("/activations", h.Activations)
	r.Get("/rules", h.Rules)
	r.Post("/check", h.Check)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
