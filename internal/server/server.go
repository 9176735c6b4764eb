// Package server exposes a small HTTP status surface for operating the
// display headlessly: health, connection state, and the current trip list.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"transitboard/internal/conn"
	"transitboard/internal/schedule"
)

// Connection is the slice of connection-manager state the server reports.
type Connection interface {
	State() conn.State
	EverConnected() bool
	Failures() int
}

// Server is the status/debug HTTP server.
type Server struct {
	mux    *http.ServeMux
	addr   string
	logger *slog.Logger
	store  *schedule.Store
	mgr    Connection
}

// New creates a Server with all routes registered.
func New(addr string, store *schedule.Store, mgr Connection, logger *slog.Logger) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		addr:   addr,
		logger: logger,
		store:  store,
		mgr:    mgr,
	}

	s.mux.HandleFunc("GET /healthz", s.health)
	s.mux.HandleFunc("GET /status", s.status)
	s.mux.HandleFunc("GET /trips", s.trips)

	return s
}

// ListenAndServe starts the HTTP server and shuts it down when ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: withMiddleware(s.mux, s.logger),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("status server starting", "addr", s.addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Handler returns the routed handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type statusResponse struct {
	State         string    `json:"state"`
	EverConnected bool      `json:"everConnected"`
	Failures      int       `json:"failures"`
	TripCount     int       `json:"tripCount"`
	LastUpdate    time.Time `json:"lastUpdate"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, statusResponse{
		State:         s.mgr.State().String(),
		EverConnected: s.mgr.EverConnected(),
		Failures:      s.mgr.Failures(),
		TripCount:     s.store.Len(),
		LastUpdate:    s.store.LastUpdate(),
	})
}

type tripResponse struct {
	StopID        string `json:"stopId"`
	RouteID       string `json:"routeId"`
	RouteName     string `json:"routeName"`
	RouteColor    string `json:"routeColor"`
	Headsign      string `json:"headsign"`
	ArrivalTime   int64  `json:"arrivalTime"`
	DepartureTime int64  `json:"departureTime"`
	IsRealtime    bool   `json:"isRealtime"`
}

func (s *Server) trips(w http.ResponseWriter, r *http.Request) {
	all := s.store.All()
	out := make([]tripResponse, 0, len(all))
	for _, t := range all {
		out = append(out, tripResponse{
			StopID:        t.StopID,
			RouteID:       t.RouteID,
			RouteName:     t.RouteName,
			RouteColor:    t.RouteColor.Hex(),
			Headsign:      t.Headsign,
			ArrivalTime:   t.ArrivalTime,
			DepartureTime: t.DepartureTime,
			IsRealtime:    t.IsRealtime,
		})
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
