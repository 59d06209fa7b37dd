package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/paypal-enrolment/internal/ipn"
	"github.com/frahmantamala/paypal-enrolment/internal/transport/middleware"
	"github.com/frahmantamala/paypal-enrolment/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, ipnHandler *ipn.WebhookHandler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// The gateway posts notifications here; every method is routed so the
		// admission guard can answer non-POST deliveries itself.
		if ipnHandler != nil {
			r.HandleFunc("/enrolment/ipn", ipnHandler.HandleNotification)
		}
	})
}
