// Host info probe — gathers platform identity: OS name, release,
// architecture, hostname, and boot time.
// Uses gopsutil host info with best-effort fields.
package probe

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/syswatch-app/syswatch/internal/models"
)

type psutilHostInfoProbe struct{}

// Collect gathers platform identity. Individual fields may come back empty;
// only a total host query failure is an error.
func (p *psutilHostInfoProbe) Collect(ctx context.Context) (models.SystemInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return models.SystemInfo{}, err
	}

	sysInfo := models.SystemInfo{
		Platform:     info.Platform,
		Release:      info.KernelVersion,
		Version:      info.PlatformVersion,
		Architecture: info.KernelArch,
		Hostname:     info.Hostname,
	}
	if info.BootTime > 0 {
		sysInfo.BootTime = time.Unix(int64(info.BootTime), 0).UTC().Format(time.RFC3339)
	}

	return sysInfo, nil
}
