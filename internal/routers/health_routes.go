package routers

import (
	"github.com/go-chi/chi/v5"

	"github.com/vansh1925/NexPrep-v2/internal/handlers"
	"github.com/vansh1925/NexPrep-v2/internal/metrics"
)

func HealthRoutes(router *chi.Mux, healthHandler *handlers.HealthHandler) {
	router.Get("/healthz", healthHandler.HealthzHandler)
	router.Get("/readyz", healthHandler.ReadyzHandler)
	router.Get("/api/v1/healthz", healthHandler.HealthzHandler)
	router.Handle("/metrics", metrics.Handler())
}
