// Disk probe — normalizes per-volume usage.
// Uses gopsutil for cross-platform partition enumeration: mounted paths on
// Unix-like systems, drive letters on Windows.
package probe

import (
	"context"

	"github.com/shirou/gopsutil/v3/disk"
	"go.uber.org/zap"

	"github.com/syswatch-app/syswatch/internal/models"
)

// pseudoFSTypes contains filesystem types excluded from disk metrics:
// virtual/system filesystems and network mounts that don't represent
// local storage.
var pseudoFSTypes = map[string]bool{
	"devfs":       true,
	"autofs":      true,
	"tmpfs":       true,
	"sysfs":       true,
	"proc":        true,
	"procfs":      true,
	"devtmpfs":    true,
	"cgroup":      true,
	"cgroup2":     true,
	"overlay":     true,
	"squashfs":    true,
	"debugfs":     true,
	"tracefs":     true,
	"securityfs":  true,
	"configfs":    true,
	"mqueue":      true,
	"hugetlbfs":   true,
	"binfmt_misc": true,
	"efivarfs":    true,
	"bpf":         true,
	"ramfs":       true,
	"nsfs":        true,
	"pstore":      true,
	"fusectl":     true,
	"nfs":         true,
	"nfs4":        true,
	"cifs":        true,
	"smbfs":       true,
	"fuse.sshfs":  true,
	"9p":          true,
	"glusterfs":   true,
	"ceph":        true,
	"fuse.ceph":   true,
}

type psutilDiskProbe struct {
	logger *zap.Logger
}

func newDiskProbe(logger *zap.Logger) *psutilDiskProbe {
	return &psutilDiskProbe{logger: logger}
}

// Collect gathers usage for every mounted volume. A volume that cannot be
// queried is skipped with a warning, never fatal for the category.
func (p *psutilDiskProbe) Collect(ctx context.Context) (map[string]models.VolumeUsage, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, err
	}

	volumes := make(map[string]models.VolumeUsage)
	for _, part := range partitions {
		if pseudoFSTypes[part.Fstype] {
			continue
		}
		usage, uerr := disk.UsageWithContext(ctx, part.Mountpoint)
		if uerr != nil {
			p.logger.Warn("Could not get disk usage",
				zap.String("volume", part.Mountpoint),
				zap.Error(uerr))
			continue
		}
		if usage.Total == 0 {
			continue
		}
		pct := round2(float64(usage.Used) / float64(usage.Total) * 100)
		volumes[part.Mountpoint] = models.VolumeUsage{
			Total:       usage.Total,
			Used:        usage.Used,
			Free:        usage.Free,
			PercentUsed: &pct,
		}
	}

	return volumes, nil
}
