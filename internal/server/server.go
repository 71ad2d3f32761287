// Package server implements the HTTP façade: heartbeat, health, manual
// registration take-down/up, reload trigger, and the APISIX-only
// export/migrate/restore endpoints.
package server

import (
	"context"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/masallsome/gwsyncer/pkg/discovery"
	"github.com/masallsome/gwsyncer/pkg/gateway"
	"github.com/masallsome/gwsyncer/pkg/logging"
	"github.com/masallsome/gwsyncer/pkg/metrics"
	"github.com/masallsome/gwsyncer/pkg/scheduler"
	"github.com/masallsome/gwsyncer/pkg/store"
)

// Server holds the live registries and store the façade reads from; it
// never mutates reconciliation state itself beyond what a handler explicitly
// requests (manual registration, reload, migrate/restore).
type Server struct {
	Discovery *discovery.Registry
	Gateway   *gateway.Registry
	Store     store.Store
	Scheduler *scheduler.Scheduler

	// APIKey is the required SYNCER-API-KEY header value; empty disables
	// the middleware entirely (only sensible for local development).
	APIKey string

	// Reload is invoked by GET /-/reload; wired by the process entry point
	// to the configuration Reloader. Submitted through Scheduler.ReloadQueue
	// so a slow reload never blocks the HTTP handler.
	Reload func(ctx context.Context) error

	// Metrics is optional; a nil value skips the /metrics route and the
	// instrumentation middleware.
	Metrics *metrics.Metrics

	start time.Time
	log   *logging.Logger
}

// New builds a Server; start is recorded for the /health uptime field.
func New(d *discovery.Registry, g *gateway.Registry, st store.Store, sched *scheduler.Scheduler, apiKey string) *Server {
	return &Server{
		Discovery: d,
		Gateway:   g,
		Store:     st,
		Scheduler: sched,
		APIKey:    apiKey,
		start:     time.Now(),
		log:       logging.NewDefault("server"),
	}
}

// Router builds the mux.Router with every route behind the API-key
// middleware, matching the façade table. /metrics is exempt from the
// API-key check (scraped by infrastructure, not callers) when Metrics is set.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	if s.Metrics != nil {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	api := r.NewRoute().Subrouter()
	api.Use(s.authMiddleware)
	if s.Metrics != nil {
		api.Use(s.Metrics.HTTPMiddleware)
	}

	api.HandleFunc("/", s.handleIndex).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/-/reload", s.handleReload).Methods("GET")
	api.HandleFunc("/discovery/{name}", s.handleDiscoveryPut).Methods("PUT")
	api.HandleFunc("/gateway-api-to-file/{name}", s.handleGatewayToFile).Methods("GET")
	api.HandleFunc("/migrate/{src}/to/{dst}", s.handleMigrate).Methods("POST")
	api.HandleFunc("/restore/{name}", s.handleRestore).Methods("PUT")
	return r
}
