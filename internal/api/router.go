package api

import (
	"net/http"

	"github.com/balu-dk/go-purifier-cms/config"
	"github.com/balu-dk/go-purifier-cms/internal/api/handlers"
	"github.com/balu-dk/go-purifier-cms/internal/api/middleware"
	"github.com/balu-dk/go-purifier-cms/internal/metrics"
	"github.com/balu-dk/go-purifier-cms/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// API handles the API server
type API struct {
	router  chi.Router
	handler *handlers.Handler
}

// NewAPI creates a new API server
func NewAPI(cfg *config.Config, svc *service.Service, m *metrics.Metrics) *API {
	router := chi.NewRouter()
	handler := handlers.NewHandler(svc)

	// Setup middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", handler.Health)
	router.Method(http.MethodGet, "/metrics", m.Handler())

	// Setup routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ContentType)
		r.Use(middleware.BearerAuth(cfg.AuthToken))

		// Plan routes
		r.Route("/plans", func(r chi.Router) {
			r.Get("/", handler.ListPlans)
			r.Post("/", handler.CreatePlan)
			r.Get("/{id}", handler.GetPlan)
			r.Put("/{id}", handler.UpdatePlan)
		})

		// Customer routes
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", handler.ListCustomers)
			r.Post("/", handler.RegisterCustomer)
			r.Get("/expiring", handler.ListExpiring)
			r.Get("/{id}", handler.GetCustomer)
			r.Get("/{id}/status", handler.GetCustomerStatus)
			r.Post("/{id}/recharge", handler.Recharge)
			r.Get("/{id}/recharges", handler.ListRecharges)
			r.Post("/{id}/usage", handler.ReportUsage)
		})

		// Device telemetry
		r.Post("/devices/{deviceId}/usage", handler.ReportDeviceUsage)

		// Service ticket routes
		r.Route("/tickets", func(r chi.Router) {
			r.Get("/", handler.ListTickets)
			r.Post("/", handler.OpenTicket)
			r.Patch("/{id}", handler.UpdateTicket)
		})
	})

	return &API{
		router:  router,
		handler: handler,
	}
}

// ServeHTTP satisfies the http.Handler interface
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}
