package access

import (
	"testing"

	"go.uber.org/zap"
)

func TestAvailable_BaselineAlwaysOn(t *testing.T) {
	h := &Handler{isAdmin: false, goos: "linux", logger: zap.NewNop()}

	features := h.Available()
	for _, name := range []string{"cpu_metrics", "memory_metrics", "disk_metrics", "network_metrics"} {
		if !features[name] {
			t.Errorf("%s should be available without privileges", name)
		}
	}
}

func TestAvailable_PrivilegedFeaturesFollowAdmin(t *testing.T) {
	gated := []string{"hardware_sensors", "gpu_metrics", "process_metrics", "system_logs"}

	for _, admin := range []bool{false, true} {
		h := &Handler{isAdmin: admin, goos: "linux", logger: zap.NewNop()}
		features := h.Available()
		for _, name := range gated {
			if features[name] != admin {
				t.Errorf("admin=%v: %s = %v, want %v", admin, name, features[name], admin)
			}
		}
	}
}

func TestAvailable_PlatformExtras(t *testing.T) {
	cases := map[string]string{
		"windows": "windows_performance_counters",
		"linux":   "systemd_monitoring",
		"darwin":  "performance_monitoring",
	}

	for goos, feature := range cases {
		h := &Handler{goos: goos, logger: zap.NewNop()}
		features := h.Available()
		if !features[feature] {
			t.Errorf("%s should expose %s", goos, feature)
		}
	}

	h := &Handler{goos: "freebsd", logger: zap.NewNop()}
	if features := h.Available(); len(features) != 8 {
		t.Errorf("unknown platform has %d features, want the 8 common ones", len(features))
	}
}
