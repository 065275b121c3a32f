package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/syswatch-app/syswatch/internal/diag"
	"github.com/syswatch-app/syswatch/internal/models"
)

// handleDiagnostics serves the current snapshot (cached or fresh).
func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}

	snapshot, err := s.collector.Collect(r.Context())
	if err != nil {
		s.collectionError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

// handleHealth serves the analysis of the current snapshot.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}

	snapshot, err := s.collector.Collect(r.Context())
	if err != nil {
		s.collectionError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.analyzer.Analyze(snapshot.HealthDocument()))
}

// handleCacheInfo serves the collector's cache introspection data.
func (s *Server) handleCacheInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}
	s.writeJSON(w, http.StatusOK, s.collector.CacheInfo())
}

// handleCacheReset forces the next read to re-probe.
func (s *Server) handleCacheReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}
	s.collector.ResetCache()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cache cleared"})
}

// handleHistory serves stored monitoring records, optionally bounded by a
// ?since=RFC3339 timestamp.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest,
				map[string]string{"error": "invalid since parameter, want RFC3339"})
			return
		}
		since = parsed
	}

	records := []models.HistoryRecord{}
	if s.history != nil {
		listed, err := s.history.List(since)
		if err != nil {
			s.logger.Error("History listing failed", zap.Error(err))
			s.writeJSON(w, http.StatusInternalServerError,
				map[string]string{"error": "failed to read history"})
			return
		}
		if listed != nil {
			records = listed
		}
	}
	s.writeJSON(w, http.StatusOK, records)
}

// handleHealthz is the process liveness endpoint.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// collectionError distinguishes a whole-snapshot failure (503) from an
// unexpected one.
func (s *Server) collectionError(w http.ResponseWriter, err error) {
	s.logger.Error("Diagnostics collection failed", zap.Error(err))
	status := http.StatusInternalServerError
	if errors.Is(err, diag.ErrCollectionFailed) {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) methodNotAllowed(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}
