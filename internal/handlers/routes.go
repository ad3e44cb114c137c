package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/msp-registration/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func RegisterRoutes(r *chi.Mux, authHandler *auth.AuthHandler, registrationHandler *RegistrationHandler, syncHandler *SyncHandler, metrics http.Handler) {
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Initialize Huma API
	config := huma.DefaultConfig("MSP Registration API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.CookieName,
		},
		"bearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	api := humachi.New(r, config)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	huma.Post(api, "/register", registrationHandler.HandleRegister, func(o *huma.Operation) {
		o.DefaultStatus = http.StatusCreated
	})

	// Admin routes
	adminSecurity := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}, {"bearerAuth": {}}}
	}
	huma.Get(api, "/registrations", registrationHandler.HandleList, adminSecurity)
	huma.Post(api, "/sync", syncHandler.HandleSync, adminSecurity)
	huma.Get(api, "/sync/history", syncHandler.HandleHistory, adminSecurity)

	if metrics != nil {
		r.Group(func(r chi.Router) {
			r.Use(authHandler.AdminMiddleware)
			r.Handle("/metrics", metrics)
		})
	}
}
