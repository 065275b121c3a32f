// Package probe implements the platform probe layer: one interface per
// metric category, with a concrete variant per OS family selected once at
// startup. Probes acquire raw platform data and normalize it into the
// models package schema; they do no caching and no analysis.
package probe

import (
	"context"
	"runtime"

	"go.uber.org/zap"

	"github.com/syswatch-app/syswatch/internal/models"
)

// CPUProbe reports CPU load percentage and core counts.
type CPUProbe interface {
	Collect(ctx context.Context) (models.CPUMetrics, error)
}

// MemoryProbe reports virtual and swap memory usage.
type MemoryProbe interface {
	Collect(ctx context.Context) (models.MemoryMetrics, error)
}

// DiskProbe reports per-volume disk usage.
type DiskProbe interface {
	Collect(ctx context.Context) (map[string]models.VolumeUsage, error)
}

// NetworkProbe reports per-interface primary addresses.
type NetworkProbe interface {
	Collect(ctx context.Context) (map[string]models.InterfaceInfo, error)
}

// SensorProbe reports hardware sensor readings (thermal zones, battery).
type SensorProbe interface {
	Collect(ctx context.Context) (*models.SensorReport, error)
}

// HostInfoProbe reports platform identity (OS, release, hostname, boot time).
type HostInfoProbe interface {
	Collect(ctx context.Context) (models.SystemInfo, error)
}

// GPUProbe reports per-device GPU telemetry.
type GPUProbe interface {
	Collect(ctx context.Context) ([]models.GPUInfo, error)
}

// ProcessProbe reports the most resource-intensive processes.
type ProcessProbe interface {
	Collect(ctx context.Context) ([]models.ProcessInfo, error)
}

// Set bundles one probe per metric category. The collector owns which of
// them actually run; the set only knows how to acquire data.
type Set struct {
	CPU       CPUProbe
	Memory    MemoryProbe
	Disk      DiskProbe
	Network   NetworkProbe
	Sensors   SensorProbe
	HostInfo  HostInfoProbe
	GPU       GPUProbe
	Processes ProcessProbe
}

// NewSet selects the probe variant for each category based on the current
// OS family. The selection happens exactly once; no per-call OS branching.
func NewSet(topProcesses int, logger *zap.Logger) *Set {
	return &Set{
		CPU:       &psutilCPUProbe{},
		Memory:    &psutilMemoryProbe{},
		Disk:      newDiskProbe(logger),
		Network:   &psutilNetworkProbe{},
		Sensors:   newSensorProbe(runtime.GOOS, logger),
		HostInfo:  &psutilHostInfoProbe{},
		GPU:       &nvidiaGPUProbe{},
		Processes: &psutilProcessProbe{topN: topProcesses},
	}
}

// newSensorProbe picks the sensor acquisition strategy for the OS family.
func newSensorProbe(goos string, logger *zap.Logger) SensorProbe {
	switch goos {
	case "linux":
		return &linuxSensorProbe{root: "/sys/class/thermal", logger: logger}
	case "darwin":
		return &darwinSensorProbe{logger: logger}
	default:
		return &genericSensorProbe{logger: logger}
	}
}
