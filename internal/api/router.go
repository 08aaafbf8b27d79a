package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Route("/locations", func(r chi.Router) {
			r.Get("/", s.handleListLocations)
			r.Get("/{id}", s.handleGetLocation)
		})

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Get("/dings", s.handleGetDeviceDings)
				r.Post("/refresh", s.handleRefreshDevice)
				r.Put("/light", s.handleSetLight)
				r.Put("/siren", s.handleSetSiren)
			})
		})

		r.Get("/history", s.handleHistory)
		r.Post("/directory/refresh", s.handleRebuildDirectory)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}
