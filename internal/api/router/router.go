// Package router assembles the HTTP surface.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zapleads/zapleads/internal/http/handlers"
	httpmiddleware "github.com/zapleads/zapleads/internal/http/middleware"
	"github.com/zapleads/zapleads/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	WhatsAppWebhooks   *handlers.WhatsAppWebhookHandler
	Dispatch           *handlers.DispatchHandler
	Templates          *handlers.TemplatesHandler
	Leads              *handlers.LeadsHandler
	Tenants            *handlers.TenantsHandler
	MetricsHandler     http.Handler
	AdminAuthSecret    string
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: gateway webhooks, health, metrics.
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.WhatsAppWebhooks != nil {
			public.Post("/webhooks/whatsapp", cfg.WhatsAppWebhooks.HandleEvent)
		}
	})

	// Admin endpoints behind JWT auth.
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
		if cfg.Dispatch != nil {
			admin.Post("/dispatch", cfg.Dispatch.HandleRun)
			admin.Post("/dispatch/test", cfg.Dispatch.HandleTestSend)
		}
		if cfg.Templates != nil {
			admin.Route("/templates", func(tr chi.Router) {
				tr.Post("/", cfg.Templates.HandleCreate)
				tr.Get("/", cfg.Templates.HandleList)
				tr.Get("/{id}", cfg.Templates.HandleGet)
				tr.Put("/{id}", cfg.Templates.HandleUpdate)
				tr.Delete("/{id}", cfg.Templates.HandleDelete)
			})
		}
		if cfg.Leads != nil {
			admin.Route("/leads", func(lr chi.Router) {
				lr.Post("/", cfg.Leads.HandleCreate)
				lr.Get("/{id}", cfg.Leads.HandleGet)
			})
		}
		if cfg.Tenants != nil {
			admin.Route("/tenants", func(tn chi.Router) {
				tn.Put("/{instance}", cfg.Tenants.HandleUpsert)
				tn.Get("/{instance}", cfg.Tenants.HandleGet)
			})
		}
	})

	return r
}
