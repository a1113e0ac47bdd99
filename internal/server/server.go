// Package server exposes the dashboard over HTTP: the state and stats
// endpoints the web UI reads, the proxied CRUD endpoints, and the usual
// operational surface.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/powerflowhq/powerflow/internal/dashboard"
	"github.com/powerflowhq/powerflow/internal/ui"
	"github.com/powerflowhq/powerflow/internal/ws"
)

// Options configures the HTTP surface.
type Options struct {
	CorsAllowedOrigins []string
}

// Server holds the handler dependencies.
type Server struct {
	svc    *dashboard.Service
	hub    *ws.Hub
	logger *zap.Logger
	opts   Options
}

// New builds a Server. hub may be nil to disable the websocket endpoint.
func New(svc *dashboard.Service, hub *ws.Hub, logger *zap.Logger, opts Options) *Server {
	return &Server{svc: svc, hub: hub, logger: logger, opts: opts}
}

// Handler builds the full routing table.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.Use(s.requestID, s.accessLog, s.instrument)

	// Read side.
	r.HandleFunc("/api/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/api/stats/overview", s.handleOverview).Methods(http.MethodGet)
	r.HandleFunc("/api/stats/revenue", s.handleRevenue).Methods(http.MethodGet)
	r.HandleFunc("/api/stats/consumption", s.handleConsumption).Methods(http.MethodGet)
	r.HandleFunc("/api/stats/status", s.handleStatusCounts).Methods(http.MethodGet)

	// Proxied CRUD. Reads come from /api/state; only mutations go upstream.
	r.HandleFunc("/api/customers", s.handleCreateCustomer).Methods(http.MethodPost)
	r.HandleFunc("/api/customers/{id:[0-9]+}", s.handleUpdateCustomer).Methods(http.MethodPut)
	r.HandleFunc("/api/customers/{id:[0-9]+}", s.deleteHandler(s.svc.DeleteCustomer)).Methods(http.MethodDelete)

	r.HandleFunc("/api/meters", s.handleCreateMeter).Methods(http.MethodPost)
	r.HandleFunc("/api/meters/{id:[0-9]+}", s.handleUpdateMeter).Methods(http.MethodPut)
	r.HandleFunc("/api/meters/{id:[0-9]+}", s.deleteHandler(s.svc.DeleteMeter)).Methods(http.MethodDelete)

	r.HandleFunc("/api/readings", s.handleCreateReading).Methods(http.MethodPost)
	r.HandleFunc("/api/readings/{id:[0-9]+}", s.handleUpdateReading).Methods(http.MethodPut)
	r.HandleFunc("/api/readings/{id:[0-9]+}", s.deleteHandler(s.svc.DeleteReading)).Methods(http.MethodDelete)

	r.HandleFunc("/api/bills", s.handleCreateBill).Methods(http.MethodPost)
	r.HandleFunc("/api/bills/{id:[0-9]+}", s.handleUpdateBill).Methods(http.MethodPut)
	r.HandleFunc("/api/bills/{id:[0-9]+}", s.deleteHandler(s.svc.DeleteBill)).Methods(http.MethodDelete)

	// Manual re-sync, for ops and for the UI refresh button.
	r.HandleFunc("/api/resync", s.handleResync).Methods(http.MethodPost)

	if s.hub != nil {
		r.HandleFunc("/ws", s.hub.Handler())
	}

	// Metrics and probes.
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("live"))
	})

	// Web UI.
	r.PathPrefix("/ui/").Handler(http.StripPrefix("/ui/", ui.Handler()))
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusFound)
	})

	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.CorsAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	})
	return c.Handler(r)
}
