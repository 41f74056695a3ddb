// Package api exposes the scheduling core over a small JSON HTTP
// surface. Authentication hardening, messaging and file upload are
// deliberately not part of this service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"clinicbook/internal/audit"
	"clinicbook/internal/database"
	"clinicbook/internal/fallback"
	"clinicbook/internal/models"
	"clinicbook/internal/service"
)

// Pinger reports reachability of an optional dependency (Redis).
type Pinger interface {
	Ping(ctx context.Context) error
}

// HTTPServer serves the clinic booking API.
type HTTPServer struct {
	scheduler *service.Scheduler
	db        *database.DB
	fallback  *fallback.Store
	exporter  *audit.Exporter
	limiter   *ipLimiter
	redis     Pinger
	logger    *zerolog.Logger
	server    *http.Server
}

// Options configures the HTTP server.
type Options struct {
	Port          int
	RatePerMinute int
	Burst         int
	Redis         Pinger // nil when Redis is not configured
}

// NewHTTPServer wires routes and the per-client booking rate limiter.
func NewHTTPServer(opts Options, scheduler *service.Scheduler, db *database.DB, fb *fallback.Store, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		scheduler: scheduler,
		db:        db,
		fallback:  fb,
		exporter:  audit.NewExporter(db, database.ExportTableNames),
		limiter:   newIPLimiter(opts.RatePerMinute, opts.Burst),
		redis:     opts.Redis,
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/doctors", s.handleRegisterDoctor)
	mux.HandleFunc("POST /api/patients", s.handleRegisterPatient)
	mux.HandleFunc("GET /api/doctors", s.handleListDoctors)
	mux.HandleFunc("GET /api/doctors/{id}", s.handleGetDoctor)
	mux.HandleFunc("GET /api/doctors/{id}/slots", s.handleGetSlots)
	mux.HandleFunc("GET /api/doctors/{id}/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/doctors/{id}/settings", s.handlePutSettings)
	mux.HandleFunc("POST /api/appointments", s.handleBookAppointment)
	mux.HandleFunc("GET /api/appointments/doctor/{id}", s.handleDoctorAppointments)
	mux.HandleFunc("GET /api/appointments/patient/{id}", s.handlePatientAppointments)
	mux.HandleFunc("DELETE /api/appointments/{id}", s.handleDeleteAppointment)
	mux.HandleFunc("PUT /api/appointments/{id}", s.handleUpdateAppointment)
	mux.HandleFunc("GET /api/admin/export", s.handleAdminExport)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the routed handler (used by tests).
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctxShutdown)
	}()

	s.logger.Info().Str("addr", s.server.Addr).Msg("API server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps the scheduling error taxonomy to HTTP codes.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrSlotTaken):
		writeError(w, http.StatusConflict, "this time slot is already booked, please choose another time")
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrInvalidIdentifier):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrVersionMismatch):
		writeError(w, http.StatusConflict, "settings changed since you loaded them, reload and retry")
	case errors.Is(err, models.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage unavailable, try again shortly")
	default:
		s.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeStrict(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
