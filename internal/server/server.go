// Package server exposes the diagnostics and health API over HTTP.
// Handlers always render whatever data collected, with per-category error
// markers for failed subsystems; only a whole-snapshot collection failure
// becomes an HTTP error.
package server

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/syswatch-app/syswatch/internal/diag"
	"github.com/syswatch-app/syswatch/internal/models"
)

// Collector is the diagnostics source (satisfied by *diag.Collector).
type Collector interface {
	Collect(ctx context.Context) (*models.Snapshot, error)
	ResetCache()
	CacheInfo() diag.CacheInfo
}

// Analyzer evaluates diagnostics documents (satisfied by *analyzer.Analyzer).
type Analyzer interface {
	Analyze(doc map[string]any) *models.AnalysisResult
}

// History lists stored monitoring records (satisfied by *store.Store).
type History interface {
	List(since time.Time) ([]models.HistoryRecord, error)
}

// Server wires the core components into HTTP handlers.
type Server struct {
	collector Collector
	analyzer  Analyzer
	history   History
	logger    *zap.Logger
}

// New creates a Server. History may be nil when the store is disabled;
// the history endpoint then returns an empty list.
func New(collector Collector, analyzer Analyzer, history History, logger *zap.Logger) *Server {
	return &Server{
		collector: collector,
		analyzer:  analyzer,
		history:   history,
		logger:    logger,
	}
}

// Handler builds the route table with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/diagnostics", s.handleDiagnostics)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/cache", s.handleCacheInfo)
	mux.HandleFunc("/api/cache/reset", s.handleCacheReset)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/healthz", s.handleHealthz)

	return securityHeadersMiddleware(gzipMiddleware(s.requestLogMiddleware(mux)))
}

// ListenAndServe runs the HTTP server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// securityHeadersMiddleware adds standard security headers to every response.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

type gzipResponseWriter struct {
	io.Writer
	http.ResponseWriter
}

func (w gzipResponseWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

// gzipMiddleware compresses responses for clients that accept it.
func gzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		gz := gzip.NewWriter(w)
		defer gz.Close()

		w.Header().Set("Content-Encoding", "gzip")
		next.ServeHTTP(gzipResponseWriter{Writer: gz, ResponseWriter: w}, r)
	})
}

// requestLogMiddleware logs each request with its duration.
func (s *Server) requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("Request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}
