package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/syswatch-app/syswatch/internal/models"
)

type stubCollector struct {
	snapshot *models.Snapshot
	err      error
	calls    int
}

func (s *stubCollector) Collect(ctx context.Context) (*models.Snapshot, error) {
	s.calls++
	return s.snapshot, s.err
}

type stubAnalyzer struct {
	result *models.AnalysisResult
}

func (s *stubAnalyzer) Analyze(doc map[string]any) *models.AnalysisResult { return s.result }

type stubRecorder struct {
	saved []models.HistoryRecord
	err   error
}

func (s *stubRecorder) Save(record models.HistoryRecord) error {
	s.saved = append(s.saved, record)
	return s.err
}

type stubNotifier struct {
	notified []*models.AnalysisResult
}

func (s *stubNotifier) Notify(ctx context.Context, result *models.AnalysisResult) {
	s.notified = append(s.notified, result)
}

func warningResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Status:     models.StatusWarning,
		Warnings:   []string{"CPU usage is critically high: 95%"},
		Components: map[string]models.ComponentHealth{},
	}
}

func TestRunCycle(t *testing.T) {
	ts := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	collector := &stubCollector{snapshot: &models.Snapshot{Timestamp: ts}}
	recorder := &stubRecorder{}
	notifier := &stubNotifier{}
	m := New(collector, &stubAnalyzer{result: warningResult()}, recorder, notifier, time.Minute, zap.NewNop())

	m.runCycle(context.Background())

	if len(recorder.saved) != 1 {
		t.Fatalf("saved %d records, want 1", len(recorder.saved))
	}
	record := recorder.saved[0]
	if record.Timestamp != ts.Format(time.RFC3339Nano) {
		t.Errorf("record timestamp = %q", record.Timestamp)
	}
	if record.Snapshot != collector.snapshot {
		t.Error("record should carry the collected snapshot")
	}
	if record.Analysis.Status != models.StatusWarning {
		t.Errorf("record analysis status = %q", record.Analysis.Status)
	}
	if len(notifier.notified) != 1 {
		t.Errorf("notified %d times, want 1", len(notifier.notified))
	}
}

func TestRunCycle_CollectionFailureSkipsCycle(t *testing.T) {
	recorder := &stubRecorder{}
	notifier := &stubNotifier{}
	m := New(&stubCollector{err: errors.New("probes down")},
		&stubAnalyzer{result: warningResult()}, recorder, notifier, time.Minute, zap.NewNop())

	m.runCycle(context.Background())

	if len(recorder.saved) != 0 {
		t.Error("a failed collection must not persist a record")
	}
	if len(notifier.notified) != 0 {
		t.Error("a failed collection must not dispatch alerts")
	}
}

func TestRunCycle_NilRecorderAndNotifier(t *testing.T) {
	collector := &stubCollector{snapshot: &models.Snapshot{Timestamp: time.Now()}}
	m := New(collector, &stubAnalyzer{result: warningResult()}, nil, nil, time.Minute, zap.NewNop())

	// Must not panic with both optional sinks disabled.
	m.runCycle(context.Background())

	if collector.calls != 1 {
		t.Errorf("collect calls = %d, want 1", collector.calls)
	}
}

type signalingCollector struct {
	collected chan struct{}
}

func (s *signalingCollector) Collect(ctx context.Context) (*models.Snapshot, error) {
	select {
	case s.collected <- struct{}{}:
	default:
	}
	return &models.Snapshot{Timestamp: time.Now()}, nil
}

func TestStart_RunsImmediatelyAndStopsOnCancel(t *testing.T) {
	collector := &signalingCollector{collected: make(chan struct{}, 1)}
	m := New(collector, &stubAnalyzer{result: warningResult()}, nil, nil, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Start(ctx)
		close(done)
	}()

	select {
	case <-collector.collected:
	case <-time.After(2 * time.Second):
		t.Fatal("first cycle did not run")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancellation")
	}
}
