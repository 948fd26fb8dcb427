package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/elinsky/execution-service/internal/auth"
	"github.com/elinsky/execution-service/internal/sse"
	"github.com/elinsky/execution-service/internal/store"
)

// NewRouter creates a chi router with all API routes mounted. Everything
// except registration and login sits behind JWT auth. broker may be nil to
// disable the SSE endpoint and change events.
func NewRouter(st *store.Store, tokens *auth.TokenIssuer, broker *sse.Broker) chi.Router {
	h := NewHandler(st, tokens, broker)

	r := chi.NewRouter()

	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(tokens))

		r.Get("/auth/me", h.Me)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
			r.Get("/{slug}", h.GetProject)
			r.Put("/{slug}", h.UpdateProject)
			r.Delete("/{slug}", h.DeleteProject)
		})

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", h.ListGoals)
			r.Post("/", h.CreateGoal)
			r.Get("/{slug}", h.GetGoal)
			r.Put("/{slug}", h.UpdateGoal)
			r.Delete("/{slug}", h.DeleteGoal)
		})

		r.Route("/actions", func(r chi.Router) {
			r.Get("/", h.ListActions)
			r.Post("/", h.CreateAction)
			r.Get("/{id}", h.GetAction)
			r.Put("/{id}", h.UpdateAction)
			r.Post("/{id}/complete", h.CompleteAction)
			r.Delete("/{id}", h.DeleteAction)
		})

		r.Route("/timers", func(r chi.Router) {
			r.Get("/", h.ListTimeEntries)
			r.Post("/", h.CreateTimeEntry)
			r.Post("/start", h.StartTimer)
			r.Post("/stop", h.StopTimer)
			r.Get("/current", h.CurrentTimer)
			r.Put("/{id}", h.UpdateTimeEntry)
			r.Delete("/{id}", h.DeleteTimeEntry)
		})

		// SSE endpoint (protected by same auth middleware).
		if broker != nil {
			r.Get("/events", http.HandlerFunc(broker.ServeHTTP))
		}
	})

	return r
}
