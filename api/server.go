/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address behind proxies
  3. requestLog: Structured request logging (zerolog)
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/clients/*       Client management, billing, licenses, invoicing
  /api/increases/*     Annual increase table
  /api/var/*           VAR partners and their clients
  /api/health          Liveness probe

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, log zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLog(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		// Client routes
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", h.CreateClient)
			r.Get("/{id}", h.GetClient)
			r.Put("/{id}", h.UpdateClient)
			r.Delete("/{id}", h.DeactivateClient)

			r.Get("/{id}/billing", h.GetMonthlyBilling)
			r.Get("/{id}/billing/annual", h.GetAnnualBilling)
			r.Get("/{id}/billing/breakdown", h.GetBillingBreakdown)

			r.Get("/{id}/licenses", h.ListClientLicenses)
			r.Post("/{id}/licenses", h.AddLicense)
			r.Post("/{id}/licenses/decrease", h.DecreaseLicenses)
			r.Get("/{id}/events", h.GetClientEvents)

			r.Get("/{id}/invoiced", h.GetInvoiced)
			r.Put("/{id}/invoiced", h.SetInvoiced)
		})

		// Annual increase routes
		r.Route("/increases", func(r chi.Router) {
			r.Get("/", h.ListIncreases)
			r.Post("/", h.SetIncrease)
			r.Post("/reset", h.ResetIncreases)
		})

		// VAR channel routes
		r.Route("/var", func(r chi.Router) {
			r.Route("/partners", func(r chi.Router) {
				r.Get("/", h.ListVarPartners)
				r.Post("/", h.CreateVarPartner)
				r.Get("/{id}", h.GetVarPartner)
				r.Put("/{id}", h.UpdateVarPartner)
				r.Delete("/{id}", h.DeactivateVarPartner)
			})
			r.Route("/clients", func(r chi.Router) {
				r.Get("/", h.ListVarClients)
				r.Post("/", h.CreateVarClient)
				r.Get("/{id}", h.GetVarClient)
				r.Put("/{id}", h.UpdateVarClient)
				r.Delete("/{id}", h.DeactivateVarClient)
				r.Get("/{id}/total", h.GetVarClientTotal)
			})
		})
	})

	return r
}

// requestLog emits one structured line per request.
func requestLog(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
