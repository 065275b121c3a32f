// Package main is the entry point for the syswatch diagnostics monitor.
// It initializes configuration, detects available capabilities, wires the
// collector, analyzer, history store, and alert notifier together, and
// runs the web API and the periodic monitoring loop as either a Windows
// service or a standalone foreground process.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/syswatch-app/syswatch/internal/access"
	"github.com/syswatch-app/syswatch/internal/alerts"
	"github.com/syswatch-app/syswatch/internal/analyzer"
	"github.com/syswatch-app/syswatch/internal/config"
	"github.com/syswatch-app/syswatch/internal/diag"
	"github.com/syswatch-app/syswatch/internal/monitor"
	"github.com/syswatch-app/syswatch/internal/probe"
	"github.com/syswatch-app/syswatch/internal/server"
	"github.com/syswatch-app/syswatch/internal/service"
	"github.com/syswatch-app/syswatch/internal/store"
)

var (
	// version is set at build time via -ldflags.
	version = "dev"

	configPath  = flag.String("config", "", "Path to configuration file (default: auto-discover)")
	showVersion = flag.Bool("version", false, "Show version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("syswatch %s\n", version)
		os.Exit(0)
	}

	path := *configPath
	if path == "" {
		path = config.Locate()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)
	defer logger.Sync()

	logger.Info("Starting syswatch",
		zap.String("version", version),
		zap.String("listen", cfg.Server.Listen))

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	if service.IsWindowsService() {
		logger.Info("Running as Windows service")
		svc := service.New(logger, func(ctx context.Context) {
			runMonitor(ctx, cfg, logger)
		})
		if err := svc.Run(); err != nil {
			logger.Fatal("Service failed", zap.Error(err))
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("Received signal, shutting down",
			zap.String("signal", sig.String()))
		cancel()
	}()

	runMonitor(ctx, cfg, logger)
	logger.Info("Monitor stopped")
}

// runMonitor wires all components and blocks until the context is cancelled.
func runMonitor(ctx context.Context, cfg *config.Config, logger *zap.Logger) {
	// Capability detection: what the platform/privilege combination allows
	handler := access.New(logger)
	features := handler.Available()
	if !handler.IsAdmin() {
		logger.Warn("Running without elevated privileges, sensor and GPU metrics disabled")
	}

	probes := probe.NewSet(cfg.Collection.TopProcesses, logger)
	collector := diag.New(probes, features, diag.Options{
		CacheTTL:     cfg.Collection.CacheTTL.Duration,
		ProbeTimeout: cfg.Collection.ProbeTimeout.Duration,
	}, logger)

	thresholds, err := analyzer.FromMap(cfg.ThresholdMap())
	if err != nil {
		logger.Fatal("Invalid thresholds", zap.Error(err))
	}
	health := analyzer.New(thresholds, logger)

	history, err := store.New(cfg.History.Dir, cfg.History.MaxSizeMB, logger)
	if err != nil {
		logger.Fatal("Failed to initialize history store", zap.Error(err))
	}

	notifier := alerts.New(cfg.Alerts, logger)

	mon := monitor.New(collector, health, history, notifier,
		cfg.Collection.Interval.Duration, logger)
	go mon.Start(ctx)

	api := server.New(collector, health, history, logger)
	logger.Info("Monitor running",
		zap.Duration("interval", cfg.Collection.Interval.Duration),
		zap.Duration("cache_ttl", cfg.Collection.CacheTTL.Duration))
	if err := api.ListenAndServe(ctx, cfg.Server.Listen); err != nil {
		logger.Error("API server stopped", zap.Error(err))
	}
}

// initLogger creates a zap logger based on the configuration.
// It outputs to both console (human-readable) and optionally a JSON log file.
func initLogger(cfg *config.Config) *zap.Logger {
	var level zapcore.Level
	switch cfg.Logging.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		level,
	)

	cores := []zapcore.Core{consoleCore}

	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err == nil {
			fileCore := zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				zapcore.AddSync(file),
				level,
			)
			cores = append(cores, fileCore)
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}
