// Package access derives the capability map: which optional metric
// categories the current platform and privilege level allow collecting.
// It only reports capabilities — it never attempts privilege elevation;
// the process runs degraded with whatever it has.
package access

import (
	"runtime"

	"go.uber.org/zap"
)

// Features maps feature names to availability.
type Features map[string]bool

// Handler inspects the process's platform and privileges once at startup.
type Handler struct {
	isAdmin bool
	goos    string
	logger  *zap.Logger
}

// New creates a Handler for the current process.
func New(logger *zap.Logger) *Handler {
	h := &Handler{
		isAdmin: isAdmin(),
		goos:    runtime.GOOS,
		logger:  logger,
	}
	logger.Info("System access initialized",
		zap.String("platform", h.goos),
		zap.Bool("admin", h.isAdmin))
	return h
}

// IsAdmin reports whether the process runs with root/administrator rights.
func (h *Handler) IsAdmin() bool { return h.isAdmin }

// Available returns the capability map for the current platform and
// privilege combination. Baseline metrics are always available; sensor,
// GPU, and process access require elevated privileges.
func (h *Handler) Available() Features {
	features := Features{
		"cpu_metrics":     true,
		"memory_metrics":  true,
		"disk_metrics":    true,
		"network_metrics": true,

		"hardware_sensors": h.isAdmin,
		"gpu_metrics":      h.isAdmin,
		"process_metrics":  h.isAdmin,
		"system_logs":      h.isAdmin,
	}

	switch h.goos {
	case "windows":
		features["windows_performance_counters"] = true
		features["advanced_windows_logging"] = h.isAdmin
	case "linux":
		features["systemd_monitoring"] = true
		features["kernel_log_access"] = h.isAdmin
	case "darwin":
		features["system_log_access"] = h.isAdmin
		features["performance_monitoring"] = true
	}

	return features
}
