// Package models defines the normalized diagnostics data structures shared
// by the collector, analyzer, web API, and history store.
// All numeric metric fields are pointers: a value is either a valid number
// or absent — a failed parse never produces a bogus zero.
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Snapshot represents one point-in-time normalized bundle of system metrics.
// Optional sections are nil when the corresponding capability is disabled;
// they are absent from the JSON output entirely, not empty.
type Snapshot struct {
	Timestamp    time.Time      `json:"timestamp"`
	SystemInfo   SystemInfo     `json:"system_info"`
	BasicMetrics BasicMetrics   `json:"basic_metrics"`
	Sensors      *SensorReport  `json:"sensors,omitempty"`
	Disk         *DiskReport    `json:"disk,omitempty"`
	Network      *NetworkReport `json:"network,omitempty"`
	GPU          *GPUReport     `json:"gpu,omitempty"`
	Processes    *ProcessReport `json:"processes,omitempty"`
}

// SystemInfo holds static-ish platform identity. Individual fields are
// best-effort and may be empty.
type SystemInfo struct {
	Platform     string `json:"platform,omitempty"`
	Release      string `json:"release,omitempty"`
	Version      string `json:"version,omitempty"`
	Architecture string `json:"architecture,omitempty"`
	Hostname     string `json:"hostname,omitempty"`
	BootTime     string `json:"boot_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// BasicMetrics is the baseline guarantee of every snapshot: CPU and memory.
type BasicMetrics struct {
	CPU    CPUMetrics    `json:"cpu"`
	Memory MemoryMetrics `json:"memory"`
}

// CPUMetrics holds normalized CPU load and core counts.
type CPUMetrics struct {
	Percent *float64  `json:"percent,omitempty"`
	Count   *CPUCount `json:"count,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// CPUCount holds physical and logical core counts.
type CPUCount struct {
	Physical int `json:"physical"`
	Logical  int `json:"logical"`
}

// MemoryMetrics holds virtual and swap memory usage.
type MemoryMetrics struct {
	Virtual *VirtualMemory `json:"virtual,omitempty"`
	Swap    *SwapMemory    `json:"swap,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// VirtualMemory holds RAM totals in bytes and the used percentage.
type VirtualMemory struct {
	Total     uint64   `json:"total"`
	Available uint64   `json:"available"`
	Percent   *float64 `json:"percent"`
}

// SwapMemory holds swap totals in bytes and the used percentage.
type SwapMemory struct {
	Total   uint64   `json:"total"`
	Used    uint64   `json:"used"`
	Percent *float64 `json:"percent"`
}

// VolumeUsage holds disk usage for a single mounted volume.
type VolumeUsage struct {
	Total       uint64   `json:"total"`
	Used        uint64   `json:"used"`
	Free        uint64   `json:"free"`
	PercentUsed *float64 `json:"percent_used"`
}

// DiskReport maps volume identifiers to their usage. A failed probe marshals
// the whole slot as {"error": reason} instead of a volume map.
type DiskReport struct {
	Volumes map[string]VolumeUsage
	Err     string
}

// MarshalJSON renders either the volume map or an error marker.
func (r DiskReport) MarshalJSON() ([]byte, error) {
	if r.Err != "" {
		return json.Marshal(errSlot{Error: r.Err})
	}
	if r.Volumes == nil {
		return json.Marshal(map[string]VolumeUsage{})
	}
	return json.Marshal(r.Volumes)
}

// InterfaceInfo holds the primary address of a network interface.
type InterfaceInfo struct {
	IP string `json:"ip"`
}

// NetworkReport maps interface names to their addresses. Interfaces without
// a parseable address are omitted; a failed probe marshals as {"error": …}.
type NetworkReport struct {
	Interfaces map[string]InterfaceInfo
	Err        string
}

// MarshalJSON renders either the interface map or an error marker.
func (r NetworkReport) MarshalJSON() ([]byte, error) {
	if r.Err != "" {
		return json.Marshal(errSlot{Error: r.Err})
	}
	if r.Interfaces == nil {
		return json.Marshal(map[string]InterfaceInfo{})
	}
	return json.Marshal(r.Interfaces)
}

// SensorReport holds hardware sensor readings. Temperature maps thermal zone
// names to degrees Celsius. Note carries an "unsupported" marker on
// platforms without sensor access.
type SensorReport struct {
	Temperature map[string]float64 `json:"temperature"`
	Battery     *BatteryInfo       `json:"battery"`
	Note        string             `json:"note,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// BatteryInfo holds battery charge state where a battery exists.
type BatteryInfo struct {
	Percent   *float64 `json:"percent"`
	PluggedIn bool     `json:"plugged_in"`
}

// GPUInfo holds per-device GPU telemetry.
type GPUInfo struct {
	Name        string   `json:"name"`
	Temperature *float64 `json:"temperature"`
	Load        *float64 `json:"load"`
}

// GPUReport holds the detected GPU devices, or an error marker.
type GPUReport struct {
	Devices []GPUInfo
	Err     string
}

// MarshalJSON renders either the device list or an error marker.
func (r GPUReport) MarshalJSON() ([]byte, error) {
	if r.Err != "" {
		return json.Marshal(errSlot{Error: r.Err})
	}
	if r.Devices == nil {
		return json.Marshal([]GPUInfo{})
	}
	return json.Marshal(r.Devices)
}

// ProcessInfo holds a single process's resource usage.
type ProcessInfo struct {
	PID    int32   `json:"pid"`
	Name   string  `json:"name"`
	CPU    float64 `json:"cpu"`
	Memory float64 `json:"memory"`
	Status string  `json:"status"`
}

// ProcessReport holds the top processes by CPU usage, or an error marker.
type ProcessReport struct {
	Top []ProcessInfo
	Err string
}

// MarshalJSON renders either the process list or an error marker.
func (r ProcessReport) MarshalJSON() ([]byte, error) {
	if r.Err != "" {
		return json.Marshal(errSlot{Error: r.Err})
	}
	if r.Top == nil {
		return json.Marshal([]ProcessInfo{})
	}
	return json.Marshal(r.Top)
}

type errSlot struct {
	Error string `json:"error"`
}

// HealthDocument flattens a snapshot into the loosely typed document the
// analyzer consumes. Only components with usable data contribute a key;
// a component whose probe failed is present with a nil value so the
// analyzer reports it as unavailable rather than skipping it silently.
func (s *Snapshot) HealthDocument() map[string]any {
	doc := make(map[string]any)

	cpu := make(map[string]any)
	if s.BasicMetrics.CPU.Error != "" {
		doc["cpu"] = nil
	} else {
		if s.BasicMetrics.CPU.Percent != nil {
			cpu["current_usage"] = *s.BasicMetrics.CPU.Percent
		}
		if t := s.hottestCPUZone(); t != nil {
			cpu["temperature"] = *t
		}
		doc["cpu"] = cpu
	}

	if s.BasicMetrics.Memory.Error != "" {
		doc["memory"] = nil
	} else {
		mem := make(map[string]any)
		if v := s.BasicMetrics.Memory.Virtual; v != nil && v.Percent != nil {
			mem["percent_used"] = *v.Percent
		}
		if sw := s.BasicMetrics.Memory.Swap; sw != nil && sw.Percent != nil {
			mem["swap_memory"] = map[string]any{"percent": *sw.Percent}
		}
		doc["memory"] = mem
	}

	if s.Disk != nil {
		if s.Disk.Err != "" {
			doc["disk"] = nil
		} else {
			disk := make(map[string]any, len(s.Disk.Volumes))
			for vol, usage := range s.Disk.Volumes {
				entry := map[string]any{}
				if usage.PercentUsed != nil {
					entry["percent_used"] = *usage.PercentUsed
				}
				disk[vol] = entry
			}
			doc["disk"] = disk
		}
	}

	if s.GPU != nil {
		if s.GPU.Err != "" {
			doc["gpu"] = nil
		} else {
			gpus := make([]any, 0, len(s.GPU.Devices))
			for _, g := range s.GPU.Devices {
				entry := map[string]any{"name": g.Name}
				if g.Temperature != nil {
					entry["temperature"] = *g.Temperature
				}
				if g.Load != nil {
					entry["load"] = *g.Load
				}
				gpus = append(gpus, entry)
			}
			doc["gpu"] = gpus
		}
	}

	return doc
}

// hottestCPUZone returns the highest CPU-related sensor reading, or nil
// when no sensor collection happened or no zone matched.
func (s *Snapshot) hottestCPUZone() *float64 {
	if s.Sensors == nil || s.Sensors.Error != "" {
		return nil
	}
	var max float64
	found := false
	for zone, temp := range s.Sensors.Temperature {
		if !cpuZone(zone) {
			continue
		}
		if !found || temp > max {
			max = temp
			found = true
		}
	}
	if !found {
		return nil
	}
	return &max
}

// Zone name substrings identifying CPU thermal sensors.
// Linux thermal zones: thermal_zone0 (x86_pkg_temp), coretemp, k10temp.
// macOS system profiler reports a single "system" temperature.
var cpuZoneKeys = []string{"cpu", "core", "package", "x86_pkg", "k10temp", "tctl", "acpitz", "thermal_zone", "system"}

func cpuZone(name string) bool {
	lower := strings.ToLower(name)
	for _, key := range cpuZoneKeys {
		if strings.Contains(lower, key) {
			return true
		}
	}
	return false
}
