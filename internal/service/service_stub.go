//go:build !windows

// Package service provides a stub implementation for non-Windows platforms.
// On macOS and Linux the monitor runs as a foreground process; the Windows
// service wrapper is not needed.
package service

import (
	"context"

	"go.uber.org/zap"
)

// MonitorService is a no-op service wrapper for non-Windows platforms.
type MonitorService struct {
	logger  *zap.Logger
	startFn func(ctx context.Context)
}

// New creates a stub service wrapper for non-Windows platforms.
func New(logger *zap.Logger, startFn func(ctx context.Context)) *MonitorService {
	return &MonitorService{
		logger:  logger,
		startFn: startFn,
	}
}

// IsWindowsService always returns false on non-Windows platforms.
func IsWindowsService() bool {
	return false
}

// Run executes the monitor directly (no service wrapper on non-Windows).
func (s *MonitorService) Run() error {
	ctx := context.Background()
	s.startFn(ctx)
	return nil
}
