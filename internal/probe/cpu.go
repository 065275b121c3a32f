// CPU probe — normalizes load percentage and core counts.
// Uses gopsutil for cross-platform CPU metrics.
package probe

import (
	"context"
	"math"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/syswatch-app/syswatch/internal/models"
)

// cpuSampleWindow is how long the load measurement blocks to compute an
// accurate percentage. Kept well under the collector's probe timeout.
const cpuSampleWindow = 500 * time.Millisecond

type psutilCPUProbe struct{}

// Collect gathers overall CPU load and physical/logical core counts.
// A core-count failure is soft: the percent still comes back, the count
// stays absent.
func (p *psutilCPUProbe) Collect(ctx context.Context) (models.CPUMetrics, error) {
	percents, err := cpu.PercentWithContext(ctx, cpuSampleWindow, false)
	if err != nil {
		return models.CPUMetrics{}, err
	}

	metrics := models.CPUMetrics{}
	if len(percents) > 0 {
		v := round2(percents[0])
		metrics.Percent = &v
	}

	logical, lerr := cpu.CountsWithContext(ctx, true)
	physical, perr := cpu.CountsWithContext(ctx, false)
	if lerr == nil && perr == nil {
		metrics.Count = &models.CPUCount{
			Physical: physical,
			Logical:  logical,
		}
	}

	return metrics, nil
}

// round2 rounds to 2 decimals, matching the precision used across all
// percentage metrics.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
