package server

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/syswatch-app/syswatch/internal/diag"
	"github.com/syswatch-app/syswatch/internal/models"
)

type fakeCollector struct {
	snapshot *models.Snapshot
	err      error
	resets   int
	info     diag.CacheInfo
}

func (f *fakeCollector) Collect(ctx context.Context) (*models.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot, nil
}

func (f *fakeCollector) ResetCache() { f.resets++ }

func (f *fakeCollector) CacheInfo() diag.CacheInfo { return f.info }

type fakeAnalyzer struct {
	result *models.AnalysisResult
}

func (f *fakeAnalyzer) Analyze(doc map[string]any) *models.AnalysisResult { return f.result }

type fakeHistory struct {
	records []models.HistoryRecord
	err     error
	since   time.Time
}

func (f *fakeHistory) List(since time.Time) ([]models.HistoryRecord, error) {
	f.since = since
	return f.records, f.err
}

func healthySnapshot() *models.Snapshot {
	pct := 20.0
	return &models.Snapshot{
		Timestamp: time.Now().UTC(),
		SystemInfo: models.SystemInfo{
			Platform: "linux",
			Hostname: "testhost",
		},
		BasicMetrics: models.BasicMetrics{
			CPU: models.CPUMetrics{Percent: &pct},
		},
	}
}

func newTestServer(c *fakeCollector, a *fakeAnalyzer, h History) *Server {
	if a == nil {
		a = &fakeAnalyzer{result: &models.AnalysisResult{
			Status:     models.StatusHealthy,
			Warnings:   []string{},
			Components: map[string]models.ComponentHealth{},
		}}
	}
	return New(c, a, h, zap.NewNop())
}

func TestDiagnosticsEndpoint(t *testing.T) {
	srv := newTestServer(&fakeCollector{snapshot: healthySnapshot()}, nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/diagnostics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var snap map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if _, present := snap["system_info"]; !present {
		t.Error("response missing system_info")
	}
	if _, present := snap["disk"]; present {
		t.Error("gated sections must be absent from the response")
	}
}

func TestDiagnosticsEndpoint_CollectionFailure(t *testing.T) {
	srv := newTestServer(&fakeCollector{
		err: fmt.Errorf("%w: every baseline probe failed", diag.ErrCollectionFailed),
	}, nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/diagnostics", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestDiagnosticsEndpoint_UnexpectedFailure(t *testing.T) {
	srv := newTestServer(&fakeCollector{err: errors.New("boom")}, nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/diagnostics", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	analysis := &models.AnalysisResult{
		Status:   models.StatusWarning,
		Warnings: []string{"CPU usage is critically high: 95%"},
		Components: map[string]models.ComponentHealth{
			"cpu": {Status: models.StatusWarning},
		},
	}
	srv := newTestServer(&fakeCollector{snapshot: healthySnapshot()}, &fakeAnalyzer{result: analysis}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var result models.AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Status != models.StatusWarning {
		t.Errorf("status = %q, want warning", result.Status)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("warnings = %v", result.Warnings)
	}
}

func TestCacheEndpoints(t *testing.T) {
	collector := &fakeCollector{
		snapshot: healthySnapshot(),
		info:     diag.CacheInfo{CacheDuration: 5, CacheSize: 1234},
	}
	srv := newTestServer(collector, nil, nil)
	handler := srv.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cache", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("cache info status = %d", rec.Code)
	}
	var info diag.CacheInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.CacheDuration != 5 || info.CacheSize != 1234 {
		t.Errorf("cache info = %+v", info)
	}
	if info.LastUpdate != nil {
		t.Error("last_update should round-trip as null before first collection")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cache/reset", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("cache reset status = %d", rec.Code)
	}
	if collector.resets != 1 {
		t.Errorf("resets = %d, want 1", collector.resets)
	}

	// Reset is a mutation; GET must be rejected.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cache/reset", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET reset status = %d, want 405", rec.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	history := &fakeHistory{records: []models.HistoryRecord{
		{Timestamp: "2026-08-29T12:00:00Z"},
	}}
	srv := newTestServer(&fakeCollector{snapshot: healthySnapshot()}, nil, history)
	handler := srv.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history?since=2026-08-29T00:00:00Z", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var records []models.HistoryRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("records = %v", records)
	}
	if history.since.IsZero() {
		t.Error("since parameter was not forwarded")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history?since=yesterday", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid since status = %d, want 400", rec.Code)
	}
}

func TestHistoryEndpoint_NilStore(t *testing.T) {
	srv := newTestServer(&fakeCollector{snapshot: healthySnapshot()}, nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want empty list", body)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(&fakeCollector{snapshot: healthySnapshot()}, nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestGzipCompression(t *testing.T) {
	srv := newTestServer(&fakeCollector{snapshot: healthySnapshot()}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/diagnostics", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", got)
	}
	gz, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	defer gz.Close()
	body, err := io.ReadAll(gz)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "system_info") {
		t.Error("decompressed body missing snapshot data")
	}
}
