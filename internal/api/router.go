package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all status API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Run history and manual triggering.
	r.Get("/runs", h.ListRuns)
	r.Get("/runs/latest", h.LatestRun)
	r.Post("/runs", h.TriggerRun)

	// Accumulated topics.
	r.Get("/topics", h.ListTopics)
	r.Get("/topics/{name}", h.GetTopic)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
