// Package api exposes the reservation engine over HTTP. This is the boundary
// the UI layer calls into; the engine itself stays network-free.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"campark/internal/engine"
)

// Server wraps the engine with JSON handlers.
type Server struct {
	engine *engine.Engine
	logger *zerolog.Logger
}

// NewServer creates the API server.
func NewServer(eng *engine.Engine, logger *zerolog.Logger) *Server {
	return &Server{engine: eng, logger: logger}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/lots", s.handleListLots).Methods(http.MethodGet)
	r.HandleFunc("/api/lots/{id}", s.handleGetLot).Methods(http.MethodGet)
	r.HandleFunc("/api/lots/{id}/week", s.handleWeekHours).Methods(http.MethodGet)
	r.HandleFunc("/api/flows", s.handleStartFlow).Methods(http.MethodPost)
	r.HandleFunc("/api/flows/{id}", s.handleGetFlow).Methods(http.MethodGet)
	r.HandleFunc("/api/flows/{id}", s.handleEndFlow).Methods(http.MethodDelete)
	r.HandleFunc("/api/flows/{id}/vehicle-type", s.handleVehicleType).Methods(http.MethodPut)
	r.HandleFunc("/api/flows/{id}/interval", s.handleInterval).Methods(http.MethodPut)
	r.HandleFunc("/api/flows/{id}/date", s.handleDate).Methods(http.MethodPut)
	r.HandleFunc("/api/flows/{id}/floors/{floor}", s.handleToggleFloor).Methods(http.MethodPost)
	r.HandleFunc("/api/flows/{id}/floors", s.handleSelectAllFloors).Methods(http.MethodPut)
	r.HandleFunc("/api/flows/{id}/zones/{zone}", s.handleToggleZone).Methods(http.MethodPost)
	r.HandleFunc("/api/flows/{id}/zones", s.handleSelectAllZones).Methods(http.MethodPut)
	r.HandleFunc("/api/flows/{id}/clicks", s.handleClickSlot).Methods(http.MethodPost)
	r.HandleFunc("/api/flows/{id}/board", s.handleBoard).Methods(http.MethodGet)
	r.HandleFunc("/api/flows/{id}/assign", s.handleAutoAssign).Methods(http.MethodPost)
	r.HandleFunc("/api/flows/{id}/draft", s.handleDraft).Methods(http.MethodPost)
	return r
}

// Run serves the API until ctx ends.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Str("addr", addr).Msg("API server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
