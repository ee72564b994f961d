package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/callerid/internal/contactservice"
)

// RouterConfig carries the optional parts of the API router.
type RouterConfig struct {
	AuthEnabled bool
	Token       string
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
	// IngestLimit, if non-nil, wraps the event ingestion routes.
	IngestLimit func(http.Handler) http.Handler
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc *contactservice.Service, listeners Deliverer, cfg RouterConfig) chi.Router {
	h := NewHandler(svc)
	ih := NewIngestHandler(listeners)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

	r.Get("/contacts", h.ListContacts)
	r.Post("/contacts", h.CreateContact)
	r.Get("/contacts/lookup", h.LookupNumber)

	r.Group(func(r chi.Router) {
		if cfg.IngestLimit != nil {
			r.Use(cfg.IngestLimit)
		}
		r.Post("/events/sms", ih.SMSReceived)
		r.Post("/events/call", ih.CallStateChanged)
	})

	if cfg.Events != nil {
		r.Get("/events", cfg.Events.ServeHTTP)
	}

	return r
}
