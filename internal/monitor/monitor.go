// Package monitor implements the periodic monitoring loop: collect a
// snapshot, analyze it, persist the record, and dispatch alerts on
// warnings. API reads stay demand-driven and independent of this loop;
// both paths share the collector's cache.
package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/syswatch-app/syswatch/internal/models"
)

// Collector is the snapshot source (satisfied by *diag.Collector).
type Collector interface {
	Collect(ctx context.Context) (*models.Snapshot, error)
}

// Analyzer evaluates a diagnostics document (satisfied by *analyzer.Analyzer).
type Analyzer interface {
	Analyze(doc map[string]any) *models.AnalysisResult
}

// Recorder persists monitoring records (satisfied by *store.Store).
type Recorder interface {
	Save(record models.HistoryRecord) error
}

// Notifier dispatches warning results (satisfied by *alerts.Notifier).
type Notifier interface {
	Notify(ctx context.Context, result *models.AnalysisResult)
}

// Monitor runs the periodic collect-analyze-persist-alert cycle.
type Monitor struct {
	collector Collector
	analyzer  Analyzer
	recorder  Recorder
	notifier  Notifier
	interval  time.Duration
	logger    *zap.Logger
}

// New creates a Monitor. Recorder and notifier may be nil when history or
// alerting is disabled.
func New(collector Collector, analyzer Analyzer, recorder Recorder, notifier Notifier, interval time.Duration, logger *zap.Logger) *Monitor {
	return &Monitor{
		collector: collector,
		analyzer:  analyzer,
		recorder:  recorder,
		notifier:  notifier,
		interval:  interval,
		logger:    logger,
	}
}

// Start begins the monitoring loop with an immediate first cycle. It blocks
// until the context is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runCycle(ctx)
		}
	}
}

// runCycle performs one monitoring pass. A collection failure skips the
// cycle; analysis always succeeds by construction.
func (m *Monitor) runCycle(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	snapshot, err := m.collector.Collect(cycleCtx)
	if err != nil {
		m.logger.Error("Monitoring cycle collection failed", zap.Error(err))
		return
	}

	result := m.analyzer.Analyze(snapshot.HealthDocument())

	if m.recorder != nil {
		record := models.HistoryRecord{
			Timestamp: snapshot.Timestamp.Format(time.RFC3339Nano),
			Snapshot:  snapshot,
			Analysis:  result,
		}
		if serr := m.recorder.Save(record); serr != nil {
			m.logger.Error("Failed to persist monitoring record", zap.Error(serr))
		}
	}

	if m.notifier != nil {
		m.notifier.Notify(cycleCtx, result)
	}

	m.logger.Debug("Monitoring cycle complete",
		zap.String("status", result.Status),
		zap.Int("warnings", len(result.Warnings)))
}
