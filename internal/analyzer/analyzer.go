// Package analyzer implements the health analysis engine: a stateless,
// single-pass evaluator of diagnostics documents against configured
// thresholds. It never panics and always returns a structured result,
// even for garbage input, because downstream consumers must always have
// something renderable.
package analyzer

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/syswatch-app/syswatch/internal/models"
)

// Analyzer evaluates diagnostics documents. It holds no mutable state and
// is safe for concurrent use.
type Analyzer struct {
	thresholds Thresholds
	logger     *zap.Logger
}

// New creates an Analyzer with the given thresholds and logger.
func New(thresholds Thresholds, logger *zap.Logger) *Analyzer {
	return &Analyzer{thresholds: thresholds, logger: logger}
}

// Thresholds returns the configured ceilings.
func (a *Analyzer) Thresholds() Thresholds {
	return a.thresholds
}

// Analyze evaluates a diagnostics document and classifies each subsystem.
// The document is loosely typed because probe output and stored history
// are untrusted: present-but-malformed values produce warnings, never
// errors. A nil document yields a top-level error result.
//
// The comparison is strictly greater-than: a value exactly at its ceiling
// is healthy. Swap reuses the memory ceiling and GPU load reuses the CPU
// usage ceiling.
func (a *Analyzer) Analyze(doc map[string]any) *models.AnalysisResult {
	if doc == nil {
		return &models.AnalysisResult{
			Status:     models.StatusError,
			Warnings:   []string{"Invalid diagnostics data"},
			Components: map[string]models.ComponentHealth{},
		}
	}

	result := &models.AnalysisResult{
		Status:     models.StatusHealthy,
		Warnings:   []string{},
		Components: map[string]models.ComponentHealth{},
	}

	if data, ok := doc["cpu"]; ok {
		a.record(result, "cpu", a.analyzeCPU(data))
	}
	if data, ok := doc["memory"]; ok {
		a.record(result, "memory", a.analyzeMemory(data))
	}
	if data, ok := doc["disk"]; ok {
		a.record(result, "storage", a.analyzeStorage(data))
	}
	if data, ok := doc["gpu"]; ok {
		a.record(result, "gpu", a.analyzeGPU(data))
	}

	if len(result.Warnings) > 0 {
		result.Status = models.StatusWarning
	}
	return result
}

// record stores a component sub-result and folds its warnings into the
// top-level list.
func (a *Analyzer) record(result *models.AnalysisResult, name string, health models.ComponentHealth) {
	result.Components[name] = health
	result.Warnings = append(result.Warnings, health.Warnings...)
}

func (a *Analyzer) analyzeCPU(data any) models.ComponentHealth {
	cpu, ok := asMap(data)
	if !ok || len(cpu) == 0 {
		return models.ComponentHealth{
			Status:   models.StatusError,
			Warnings: []string{"CPU data unavailable"},
			Metrics:  map[string]any{"usage": nil, "temperature": nil},
		}
	}

	health := newHealth()
	health.Metrics["usage"] = nil
	health.Metrics["temperature"] = nil

	if raw, present := cpu["current_usage"]; present && raw != nil {
		if usage, valid := coerceFloat(raw); valid {
			health.Metrics["usage"] = usage
			if usage > a.thresholds.CPUUsageMax {
				a.warn(&health, "CPU usage is critically high: %s%%", formatValue(usage))
			}
		} else {
			a.warn(&health, "Invalid CPU usage value")
		}
	}

	if raw, present := cpu["temperature"]; present && raw != nil {
		if temp, valid := coerceFloat(raw); valid {
			health.Metrics["temperature"] = temp
			if temp > a.thresholds.CPUTempMax {
				a.warn(&health, "CPU temperature is critically high: %s°C", formatValue(temp))
			}
		} else {
			a.warn(&health, "Invalid temperature value")
		}
	}

	return health
}

func (a *Analyzer) analyzeMemory(data any) models.ComponentHealth {
	mem, ok := asMap(data)
	if !ok || len(mem) == 0 {
		return models.ComponentHealth{
			Status:   models.StatusError,
			Warnings: []string{"Memory data unavailable"},
			Metrics:  map[string]any{"usage_percent": nil, "swap_percent": nil},
		}
	}

	health := newHealth()
	health.Metrics["usage_percent"] = nil
	health.Metrics["swap_percent"] = nil

	if raw, present := mem["percent_used"]; present && raw != nil {
		if used, valid := coerceFloat(raw); valid {
			health.Metrics["usage_percent"] = used
			if used > a.thresholds.MemoryUsageMax {
				a.warn(&health, "Memory usage is critically high: %s%%", formatValue(used))
			}
		} else {
			a.warn(&health, "Invalid memory usage value")
		}
	}

	if swap, swapOK := asMap(mem["swap_memory"]); swapOK {
		if raw, present := swap["percent"]; present && raw != nil {
			if pct, valid := coerceFloat(raw); valid {
				health.Metrics["swap_percent"] = pct
				if pct > a.thresholds.MemoryUsageMax {
					a.warn(&health, "Swap usage is critically high: %s%%", formatValue(pct))
				}
			} else {
				a.warn(&health, "Invalid swap usage value")
			}
		}
	}

	return health
}

func (a *Analyzer) analyzeStorage(data any) models.ComponentHealth {
	volumes, ok := asMap(data)
	if !ok || len(volumes) == 0 {
		return models.ComponentHealth{
			Status:   models.StatusError,
			Warnings: []string{"Storage data unavailable"},
			Metrics:  map[string]any{},
		}
	}

	health := newHealth()
	for device, raw := range volumes {
		volume, isMap := asMap(raw)
		if !isMap {
			continue
		}
		usedRaw, present := volume["percent_used"]
		if !present || usedRaw == nil {
			continue
		}
		used, valid := coerceFloat(usedRaw)
		if !valid {
			health.Metrics[device] = nil
			a.warn(&health, "Invalid disk usage value on %s", device)
			continue
		}
		health.Metrics[device] = used
		if used > a.thresholds.DiskUsageMax {
			a.warn(&health, "Disk usage on %s is critically high: %s%%", device, formatValue(used))
		}
	}

	return health
}

func (a *Analyzer) analyzeGPU(data any) models.ComponentHealth {
	devices, ok := asList(data)
	if !ok || len(devices) == 0 {
		return models.ComponentHealth{
			Status:   models.StatusError,
			Warnings: []string{"GPU data unavailable"},
			Metrics:  map[string]any{},
		}
	}

	health := newHealth()
	for idx, raw := range devices {
		gpu, isMap := asMap(raw)
		if !isMap {
			continue
		}
		name := "GPU " + strconv.Itoa(idx)
		if n, isString := gpu["name"].(string); isString && n != "" {
			name = n
		}

		if tempRaw, present := gpu["temperature"]; present && tempRaw != nil {
			if temp, valid := coerceFloat(tempRaw); valid {
				health.Metrics[name+"_temp"] = temp
				if temp > a.thresholds.GPUTempMax {
					a.warn(&health, "GPU temperature is critically high on %s: %s°C", name, formatValue(temp))
				}
			} else {
				health.Metrics[name+"_temp"] = nil
				a.warn(&health, "Invalid GPU temperature value on %s", name)
			}
		}

		if loadRaw, present := gpu["load"]; present && loadRaw != nil {
			if load, valid := coerceFloat(loadRaw); valid {
				health.Metrics[name+"_load"] = load
				if load > a.thresholds.CPUUsageMax {
					a.warn(&health, "GPU load is critically high on %s: %s%%", name, formatValue(load))
				}
			} else {
				health.Metrics[name+"_load"] = nil
				a.warn(&health, "Invalid GPU load value on %s", name)
			}
		}
	}

	return health
}

// warn appends a formatted warning and downgrades the component to warning
// status.
func (a *Analyzer) warn(health *models.ComponentHealth, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	health.Warnings = append(health.Warnings, msg)
	health.Status = models.StatusWarning
	if a.logger != nil {
		a.logger.Warn("Health threshold violated", zap.String("warning", msg))
	}
}

func newHealth() models.ComponentHealth {
	return models.ComponentHealth{
		Status:   models.StatusHealthy,
		Warnings: []string{},
		Metrics:  map[string]any{},
	}
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asList(v any) ([]any, bool) {
	l, ok := v.([]any)
	return l, ok
}

// formatValue renders a metric value the way it appears in warnings:
// integral values without a decimal point (95 → "95", 90.01 → "90.01").
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
