package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/fleetops/statushub/internal/recorder"
	"github.com/fleetops/statushub/internal/status"
)

// Server exposes the status service over HTTP. All routes under /status/
// pass the access gate; the root liveness route does not. The mirror is
// best-effort plumbing: its failures are logged, never surfaced to callers.
type Server struct {
	svc    *status.Service
	gate   Gate
	mirror recorder.SummaryRecorder
}

// New wires the service, gate and summary mirror together. A nil mirror
// falls back to the no-op recorder.
func New(svc *status.Service, gate Gate, mirror recorder.SummaryRecorder) *Server {
	if mirror == nil {
		mirror = recorder.Noop{}
	}
	return &Server{svc: svc, gate: gate, mirror: mirror}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /status/{$}", s.gated(s.handleCreate))
	mux.HandleFunc("GET /status/{$}", s.gated(s.handleList))
	mux.HandleFunc("GET /status/summary/{$}", s.gated(s.handleSummary))
	mux.HandleFunc("GET /status/{device_id}", s.gated(s.handleLatest))
	mux.HandleFunc("PATCH /status/{device_id}", s.gated(s.handleUpdate))
	mux.HandleFunc("DELETE /status/{device_id}", s.gated(s.handleDelete))
	return logRequests(mux)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode("Server is running...")
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in status.ReportInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	rec, err := s.svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	s.mirrorDevice(r.Context(), rec.DeviceID)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := s.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []status.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Summary(r.Context())
	if err != nil {
		if errors.Is(err, status.ErrNoData) {
			writeDetail(w, http.StatusNotFound, "Summary cannot be generated")
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("device_id")
	rec, err := s.svc.Latest(r.Context(), deviceID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("device_id")
	var in status.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	rec, err := s.svc.Update(r.Context(), deviceID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	s.mirrorDevice(r.Context(), rec.DeviceID)
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("device_id")
	if err := s.svc.Delete(r.Context(), deviceID); err != nil {
		writeError(w, err)
		return
	}
	writeDetail(w, http.StatusOK, "successfully deleted device "+deviceID)
}

// gated wraps a handler with the shared-secret check.
func (s *Server) gated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.gate.Check(r); err != nil {
			w.Header().Set("WWW-Authenticate", "ApiKey")
			switch {
			case errors.Is(err, ErrMissingCredential):
				writeDetail(w, http.StatusUnauthorized, "missing API key header")
			default:
				writeDetail(w, http.StatusUnauthorized, "invalid API key")
			}
			return
		}
		next(w, r)
	}
}

// mirrorDevice pushes the device's current latest state to the configured
// summary mirror after a successful write.
func (s *Server) mirrorDevice(ctx context.Context, deviceID string) {
	latest, err := s.svc.Latest(ctx, deviceID)
	if err != nil {
		log.Warn().Err(err).Str("device_id", deviceID).Msg("resolve latest for mirror failed")
		return
	}
	item := status.SummaryItem{
		DeviceID:     latest.DeviceID,
		LastUpdate:   latest.Timestamp,
		BatteryLevel: latest.BatteryLevel,
		Online:       latest.Online,
	}
	if err := s.mirror.UpsertSummary(ctx, []status.SummaryItem{item}); err != nil {
		log.Warn().Err(err).Str("device_id", deviceID).Msg("summary mirror failed")
	}
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("encode response failed")
	}
}

// writeDetail emits the {"detail": ...} error/ack shape the devices expect.
func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

// writeError maps a service failure onto exactly one taxonomy response:
// validation failures are the caller's to fix (400), unknown devices are
// terminal (404), anything else is an opaque infrastructure failure (500).
func writeError(w http.ResponseWriter, err error) {
	if verr, ok := status.AsValidation(err); ok {
		writeDetail(w, http.StatusBadRequest, verr.Error())
		return
	}
	if errors.Is(err, status.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "Device not found")
		return
	}
	log.Error().Err(err).Msg("request failed")
	writeDetail(w, http.StatusInternalServerError, "internal storage failure")
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.code).
			Dur("elapsed", time.Since(started)).
			Msg("request handled")
	})
}
