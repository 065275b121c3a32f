// Memory probe — normalizes virtual and swap usage.
// Uses gopsutil for cross-platform memory metrics.
package probe

import (
	"context"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/syswatch-app/syswatch/internal/models"
)

type psutilMemoryProbe struct{}

// Collect gathers virtual memory totals and recomputes the used percentage
// as (total-available)/total*100 rounded to 2 decimals. A zero total leaves
// the percentage absent rather than dividing by zero. Swap is best-effort.
func (p *psutilMemoryProbe) Collect(ctx context.Context) (models.MemoryMetrics, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return models.MemoryMetrics{}, err
	}

	metrics := models.MemoryMetrics{
		Virtual: &models.VirtualMemory{
			Total:     v.Total,
			Available: v.Available,
		},
	}
	if v.Total > 0 {
		pct := round2(float64(v.Total-v.Available) / float64(v.Total) * 100)
		metrics.Virtual.Percent = &pct
	}

	if sw, serr := mem.SwapMemoryWithContext(ctx); serr == nil && sw.Total > 0 {
		pct := round2(float64(sw.Used) / float64(sw.Total) * 100)
		metrics.Swap = &models.SwapMemory{
			Total:   sw.Total,
			Used:    sw.Used,
			Percent: &pct,
		}
	}

	return metrics, nil
}
