// Hardware sensor probes — one variant per OS family, selected at startup.
//   - Linux: reads the /sys/class/thermal pseudo-file tree directly.
//   - macOS: greps the system_profiler hardware report for a temperature.
//   - others: gopsutil sensor enumeration, degrading to an "unsupported"
//     note rather than an error.
//
// Sensor data is frequently degraded or absent; every variant fails soft
// per zone and only errors when the whole source is unreachable.
package probe

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"

	"github.com/syswatch-app/syswatch/internal/models"
)

// linuxSensorProbe reads thermal zone temperatures from the sysfs tree.
// The root path is injectable for tests.
type linuxSensorProbe struct {
	root   string
	logger *zap.Logger
}

// Collect walks the thermal zone directories and converts millidegree
// readings to degrees Celsius. Unreadable zones are skipped.
func (p *linuxSensorProbe) Collect(ctx context.Context) (*models.SensorReport, error) {
	report := &models.SensorReport{Temperature: make(map[string]float64)}

	entries, err := os.ReadDir(p.root)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		zone := entry.Name()
		raw, rerr := os.ReadFile(filepath.Join(p.root, zone, "temp"))
		if rerr != nil {
			continue
		}
		milli, perr := strconv.Atoi(strings.TrimSpace(string(raw)))
		if perr != nil {
			p.logger.Warn("Unparseable thermal zone reading",
				zap.String("zone", zone),
				zap.String("raw", strings.TrimSpace(string(raw))))
			continue
		}
		name := zone
		// The zone's "type" file carries a readable sensor name
		// (e.g. x86_pkg_temp); prefer it when present.
		if t, terr := os.ReadFile(filepath.Join(p.root, zone, "type")); terr == nil {
			if typed := strings.TrimSpace(string(t)); typed != "" {
				name = zone + "_" + typed
			}
		}
		report.Temperature[name] = float64(milli) / 1000
	}

	return report, nil
}

// darwinSensorProbe shells out to system_profiler and extracts a
// temperature field from the hardware report.
type darwinSensorProbe struct {
	logger *zap.Logger
}

// Collect parses the profiler report. Most Macs don't expose a temperature
// there, so an empty result is normal.
func (p *darwinSensorProbe) Collect(ctx context.Context) (*models.SensorReport, error) {
	out, err := exec.CommandContext(ctx, "system_profiler", "SPHardwareDataType").Output()
	if err != nil {
		return nil, err
	}
	return parseProfilerReport(string(out)), nil
}

// parseProfilerReport extracts temperature lines from system_profiler text
// output. The format is loose "Key: Value" pairs; anything that doesn't
// parse as a degree value is ignored.
func parseProfilerReport(output string) *models.SensorReport {
	report := &models.SensorReport{Temperature: make(map[string]float64)}
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "Temperature") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		value := strings.TrimSpace(parts[1])
		value = strings.TrimSuffix(value, "°C")
		value = strings.TrimSuffix(value, "C")
		value = strings.TrimSpace(value)
		temp, err := strconv.ParseFloat(value, 64)
		if err != nil {
			continue
		}
		report.Temperature["system"] = temp
	}
	return report
}

// genericSensorProbe covers platforms without a dedicated sensor source.
// It tries gopsutil's sensor enumeration and otherwise reports an
// "unsupported" note instead of failing.
type genericSensorProbe struct {
	logger *zap.Logger
}

func (p *genericSensorProbe) Collect(ctx context.Context) (*models.SensorReport, error) {
	report := &models.SensorReport{Temperature: make(map[string]float64)}

	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil || len(temps) == 0 {
		report.Note = "Detailed sensor data requires additional tools"
		return report, nil
	}

	for _, t := range temps {
		if t.Temperature <= 0 || t.Temperature > 150 {
			continue
		}
		report.Temperature[t.SensorKey] = t.Temperature
	}
	if len(report.Temperature) == 0 {
		report.Note = "Detailed sensor data requires additional tools"
	}

	return report, nil
}
