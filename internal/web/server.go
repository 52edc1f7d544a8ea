// Package web provides the HTTP server for the stockwise daemon: a status
// page, Prometheus metrics, live location views and the configuration API.
package web

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sweeney/stockwise/internal/metrics"
	"github.com/sweeney/stockwise/internal/status"
	"github.com/sweeney/stockwise/internal/store"
)

// Server serves the status page and API over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	db         *store.DB
	views      *ViewCache
	log        zerolog.Logger
}

// New creates a Server. views may be nil, which disables the live view
// endpoints.
func New(addr string, tracker *status.Tracker, db *store.DB, views *ViewCache, logger zerolog.Logger) *Server {
	s := &Server{
		tracker: tracker,
		db:      db,
		views:   views,
		log:     logger.With().Str("component", "web").Logger(),
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/", s.handleIndex)
	r.Get("/index.html", s.handleIndex)
	r.Get("/index.json", s.handleJSON)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/networks", func(r chi.Router) {
		r.Get("/", s.listNetworks)
		r.Post("/", s.createNetwork)

		r.Route("/{networkID}", func(r chi.Router) {
			r.Get("/", s.getNetwork)
			r.Put("/", s.updateNetwork)
			r.Delete("/", s.deleteNetwork)

			r.Get("/members", s.listMembers)
			r.Put("/members/{uid}", s.setMember)
			r.Delete("/members/{uid}", s.deleteMember)

			r.Get("/locations", s.listLocations)
			r.Post("/locations", s.createLocation)

			r.Route("/locations/{locationID}", func(r chi.Router) {
				r.Get("/", s.getLocation)
				r.Put("/", s.updateLocation)
				r.Delete("/", s.deleteLocation)

				r.Get("/slots", s.handleSlots)
				r.Get("/summary", s.handleSummary)
				r.Get("/devices", s.handleDevices)

				r.Get("/shelves", s.listShelves)
				r.Post("/shelves", s.createShelf)
				r.Put("/shelves/{shelfID}", s.updateShelf)
				r.Delete("/shelves/{shelfID}", s.deleteShelf)

				r.Get("/slot-configs", s.listSlotConfigs)
				r.Post("/slot-configs", s.createSlotConfig)
				r.Get("/slot-configs/{slotID}", s.getSlotConfig)
				r.Put("/slot-configs/{slotID}", s.updateSlotConfig)
				r.Delete("/slot-configs/{slotID}", s.deleteSlotConfig)

				r.Get("/skus", s.listSkus)
				r.Post("/skus", s.createSku)
				r.Get("/skus/{skuID}", s.getSku)
				r.Put("/skus/{skuID}", s.updateSku)
				r.Delete("/skus/{skuID}", s.deleteSku)

				r.Get("/brains", s.listBrains)
				r.Post("/brains", s.createBrain)
				r.Get("/brains/{brainID}", s.getBrain)
				r.Put("/brains/{brainID}", s.updateBrain)
				r.Post("/brains/{brainID}/decommission", s.decommissionBrain)
				r.Delete("/brains/{brainID}", s.deleteBrain)

				r.Get("/nodes", s.listNodes)
				r.Post("/nodes", s.registerNode)
				r.Get("/nodes/{nodeID}", s.getNode)
				r.Put("/nodes/{nodeID}", s.updateNode)
				r.Delete("/nodes/{nodeID}", s.deleteNode)
			})
		})
	})
	return r
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap); err != nil {
		s.log.Warn().Err(err).Msg("render status page")
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
