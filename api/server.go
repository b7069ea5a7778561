/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the desktop/web shell

ROUTE GROUPS:
  /api/contracts/*    Contract packages
  /api/clients        Clients
  /api/treatments/*   Scheduling a treatment
  /api/recurrences/*  Recurrences, occurrences, shift-all
  /api/occurrences/*  Per-occurrence corrections and history
  /api/invoices/*     Price revision and history
  /api/schedule/*     Date preview
  /api/dashboard      Month projections
  /api/holidays       Calendar
  /api/accounts/*     Operator accounts

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultAllowedOrigins is used when NewRouter gets no origins.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/contracts", func(r chi.Router) {
			r.Get("/", h.ListContracts)
			r.Post("/", h.CreateContract)
			r.Get("/{id}", h.GetContract)
		})

		r.Get("/clients", h.ListClients)

		r.Post("/treatments/{id}/schedule", h.ScheduleTreatment)

		r.Route("/recurrences", func(r chi.Router) {
			r.Post("/", h.CreateRecurrence)
			r.Get("/{id}/occurrences", h.ListOccurrences)
			r.Post("/{id}/occurrences", h.CreateOccurrence)
			r.Post("/{id}/shift", h.ShiftAll)
		})

		r.Post("/schedule/preview", h.PreviewSchedule)

		r.Route("/occurrences/{id}", func(r chi.Router) {
			r.Post("/reschedule", h.Reschedule)
			r.Post("/remarks", h.RecordRemark)
			r.Post("/terminate", h.Terminate)
			r.Get("/events", h.ListRescheduleEvents)
		})

		r.Route("/invoices/{id}", func(r chi.Router) {
			r.Get("/", h.GetInvoice)
			r.Post("/price", h.RevisePrice)
			r.Get("/revisions", h.ListPriceRevisions)
		})

		r.Get("/dashboard", h.Dashboard)

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Put("/{id}", h.UpdateAccount)
			r.Delete("/{id}", h.DeleteAccount)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
