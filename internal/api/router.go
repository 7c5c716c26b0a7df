package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/devdiary/internal/diary"
	"github.com/starford/devdiary/internal/opener"
)

// Settings configures the API router.
type Settings struct {
	// Title is shown by the dashboard.
	Title string
	// DefaultCollection is used when a compile request names none.
	DefaultCollection string
	// Opener, if non-nil, opens each compiled entry.
	Opener opener.Opener
	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler
	Logger *slog.Logger
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc *diary.Service, s Settings) chi.Router {
	h := NewHandler(svc, s)

	r := chi.NewRouter()

	r.Get("/config", h.Config)
	r.Get("/inbox", h.GetInbox)
	r.Get("/search", h.Search)
	r.Get("/entries", h.Entries)

	r.Group(func(r chi.Router) {
		r.Use(RequireJSON)
		r.Post("/inbox", h.AddNote)
		r.Put("/inbox", h.ReplaceInbox)
		r.Post("/compile", h.Compile)
	})

	if s.Events != nil {
		r.Get("/events", s.Events.ServeHTTP)
	}

	return r
}
