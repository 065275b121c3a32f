// GPU probe — queries nvidia-smi for per-device name, temperature, and load.
// A missing tool means no GPUs to report, not a failure.
package probe

import (
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/syswatch-app/syswatch/internal/models"
)

type nvidiaGPUProbe struct{}

// Collect runs nvidia-smi in CSV mode and parses one device per line.
func (p *nvidiaGPUProbe) Collect(ctx context.Context) ([]models.GPUInfo, error) {
	out, err := exec.CommandContext(ctx, "nvidia-smi",
		"--query-gpu=name,temperature.gpu,utilization.gpu",
		"--format=csv,noheader,nounits").Output()
	if err != nil {
		// nvidia-smi absent or no NVIDIA driver — nothing to report.
		return nil, nil
	}
	return parseNvidiaSMI(string(out)), nil
}

// parseNvidiaSMI parses "name, temp, load" CSV lines. Fields that fail
// numeric parsing stay nil; short or empty lines are skipped.
func parseNvidiaSMI(output string) []models.GPUInfo {
	var devices []models.GPUInfo
	for i, line := range strings.Split(strings.TrimSpace(output), "\n") {
		fields := strings.Split(line, ",")
		if len(fields) == 0 || strings.TrimSpace(fields[0]) == "" {
			continue
		}
		gpu := models.GPUInfo{Name: strings.TrimSpace(fields[0])}
		if gpu.Name == "" {
			gpu.Name = "GPU " + strconv.Itoa(i)
		}
		if len(fields) > 1 {
			if temp, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64); err == nil {
				gpu.Temperature = &temp
			}
		}
		if len(fields) > 2 {
			if load, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64); err == nil {
				gpu.Load = &load
			}
		}
		devices = append(devices, gpu)
	}
	return devices
}
