/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/suparena/storehub"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// MaxBodyBytes caps request bodies. Zero means unlimited.
	MaxBodyBytes int64

	// Gatherer, when set, is served at MetricsPath.
	Gatherer    prometheus.Gatherer
	MetricsPath string
}

// NewRouter creates the chi router.
//
// Routes:
//   - POST /v1/{get,find,insert,update,remove,transform,dynamicView,instanceStats,shutdown}
//   - GET  /v1/processStats
//   - GET  /health
//   - GET  /metrics (when a Gatherer is configured)
func NewRouter(hub *storehub.Hub, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	h := NewHandler(hub)

	r.Get("/health", h.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Use(limitBody(opts.MaxBodyBytes))

		r.Post("/get", h.Get)
		r.Post("/find", h.Find)
		r.Post("/insert", h.Insert)
		r.Post("/update", h.Update)
		r.Post("/remove", h.Remove)
		r.Post("/transform", h.Transform)
		r.Post("/dynamicView", h.DynamicView)
		r.Post("/instanceStats", h.InstanceStats)
		r.Post("/shutdown", h.Shutdown)
		r.Get("/processStats", h.ProcessStats)
	})

	if opts.Gatherer != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
