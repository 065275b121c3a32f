package analyzer

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Threshold keys accepted by FromMap.
const (
	KeyCPUTempMax     = "cpu_temp_max"
	KeyCPUUsageMax    = "cpu_usage_max"
	KeyMemoryUsageMax = "memory_usage_max"
	KeyDiskUsageMax   = "disk_usage_max"
	KeyGPUTempMax     = "gpu_temp_max"
)

// Thresholds holds the numeric ceilings used to classify metrics.
// Immutable after construction.
type Thresholds struct {
	CPUTempMax     float64
	CPUUsageMax    float64
	MemoryUsageMax float64
	DiskUsageMax   float64
	GPUTempMax     float64
}

// DefaultThresholds returns the standard ceilings: 85°C for CPU/GPU
// temperature, 90% for CPU, memory, and disk usage.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CPUTempMax:     85,
		CPUUsageMax:    90,
		MemoryUsageMax: 90,
		DiskUsageMax:   90,
		GPUTempMax:     85,
	}
}

// FromMap builds Thresholds from externally supplied values, starting from
// the defaults. Every value is coerced to float64; a value that cannot be
// coerced, or an unrecognized key, is a construction-time error — never a
// silent default.
func FromMap(values map[string]any) (Thresholds, error) {
	t := DefaultThresholds()
	for key, raw := range values {
		v, ok := coerceFloat(raw)
		if !ok {
			return Thresholds{}, fmt.Errorf("threshold %q: cannot convert %v to a number", key, raw)
		}
		switch key {
		case KeyCPUTempMax:
			t.CPUTempMax = v
		case KeyCPUUsageMax:
			t.CPUUsageMax = v
		case KeyMemoryUsageMax:
			t.MemoryUsageMax = v
		case KeyDiskUsageMax:
			t.DiskUsageMax = v
		case KeyGPUTempMax:
			t.GPUTempMax = v
		default:
			return Thresholds{}, fmt.Errorf("unknown threshold key %q", key)
		}
	}
	return t, nil
}

// coerceFloat converts a loosely typed value to float64. Numeric strings
// are accepted; anything else fails.
func coerceFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
