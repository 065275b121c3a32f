// Package diag implements the diagnostics collector: it decides which
// probes run based on the capability map, applies the cache policy, and
// assembles normalized probe output into one snapshot.
package diag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/syswatch-app/syswatch/internal/models"
	"github.com/syswatch-app/syswatch/internal/probe"
)

// ErrCollectionFailed indicates that no metrics at all could be gathered.
// The stale cache, if any, is preserved when this is returned.
var ErrCollectionFailed = errors.New("failed to collect system diagnostics")

// Capability flag names honored by the collector. CPU and memory are the
// baseline guarantee and are not gated.
const (
	FeatureHardwareSensors = "hardware_sensors"
	FeatureDiskMetrics     = "disk_metrics"
	FeatureNetworkMetrics  = "network_metrics"
	FeatureGPUMetrics      = "gpu_metrics"
	FeatureProcessMetrics  = "process_metrics"
)

// DefaultCacheTTL is the window during which a snapshot is fresh enough to
// serve without re-probing.
const DefaultCacheTTL = 5 * time.Second

// DefaultProbeTimeout bounds each probe's external command and I/O time so
// a hung probe cannot block concurrent callers indefinitely.
const DefaultProbeTimeout = 5 * time.Second

// Options tunes the collector's cache window and per-probe timeout.
// Zero values fall back to the defaults.
type Options struct {
	CacheTTL     time.Duration
	ProbeTimeout time.Duration
}

// Collector gathers diagnostics on demand and memoizes the result for the
// cache window. One mutex serializes the whole check-probe-store sequence;
// callers contend during a miss and return immediately on a hit.
type Collector struct {
	probes       *probe.Set
	capabilities map[string]bool
	cacheTTL     time.Duration
	probeTimeout time.Duration
	logger       *zap.Logger

	mu         sync.Mutex
	cached     *models.Snapshot
	lastUpdate time.Time

	now func() time.Time
}

// New creates a Collector. The capability map is copied and immutable for
// the collector's lifetime.
func New(probes *probe.Set, capabilities map[string]bool, opts Options, logger *zap.Logger) *Collector {
	caps := make(map[string]bool, len(capabilities))
	for k, v := range capabilities {
		caps[k] = v
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	return &Collector{
		probes:       probes,
		capabilities: caps,
		cacheTTL:     opts.CacheTTL,
		probeTimeout: opts.ProbeTimeout,
		logger:       logger,
		now:          time.Now,
	}
}

// Collect returns the cached snapshot when it is still fresh, otherwise
// runs the probes and caches the result. Safe for concurrent use; at most
// one acquisition is in flight per cache window and every caller within
// the window receives the same snapshot.
//
// Snapshot fields within one cycle are gathered sequentially and may
// observe slightly different instants; that approximation is intentional.
func (c *Collector) Collect(ctx context.Context) (*models.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.cached != nil && now.Sub(c.lastUpdate) < c.cacheTTL {
		return c.cached, nil
	}

	snap := &models.Snapshot{Timestamp: now.UTC()}

	sysOK := c.collectSystemInfo(ctx, snap)
	cpuOK := c.collectCPU(ctx, snap)
	memOK := c.collectMemory(ctx, snap)

	if c.capabilities[FeatureHardwareSensors] {
		c.collectSensors(ctx, snap)
	}
	if c.capabilities[FeatureDiskMetrics] {
		c.collectDisk(ctx, snap)
	}
	if c.capabilities[FeatureNetworkMetrics] {
		c.collectNetwork(ctx, snap)
	}
	if c.capabilities[FeatureGPUMetrics] {
		c.collectGPU(ctx, snap)
	}
	if c.capabilities[FeatureProcessMetrics] {
		c.collectProcesses(ctx, snap)
	}

	if !sysOK && !cpuOK && !memOK {
		return nil, fmt.Errorf("%w: every baseline probe failed", ErrCollectionFailed)
	}

	c.cached = snap
	c.lastUpdate = now
	return snap, nil
}

// ResetCache clears the cached snapshot unconditionally; the next Collect
// performs a fresh acquisition.
func (c *Collector) ResetCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = nil
	c.lastUpdate = time.Time{}
}

// CacheInfo reports cache state for observability: last update time,
// configured window in seconds, and the approximate serialized size of the
// cached payload.
func (c *Collector) CacheInfo() CacheInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := CacheInfo{CacheDuration: c.cacheTTL.Seconds()}
	if c.cached != nil {
		t := c.lastUpdate
		info.LastUpdate = &t
		if data, err := json.Marshal(c.cached); err == nil {
			info.CacheSize = len(data)
		}
	}
	return info
}

// CacheInfo describes the collector's cache state.
type CacheInfo struct {
	LastUpdate    *time.Time `json:"last_update"`
	CacheDuration float64    `json:"cache_duration"`
	CacheSize     int        `json:"cache_size"`
}

// Each collect helper is independently fault-isolated: a probe failure is
// converted to that category's error slot and logged, never propagated.

func (c *Collector) collectSystemInfo(ctx context.Context, snap *models.Snapshot) bool {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	info, err := c.probes.HostInfo.Collect(probeCtx)
	if err != nil {
		c.logger.Warn("System info probe failed", zap.Error(err))
		snap.SystemInfo = models.SystemInfo{Error: err.Error()}
		return false
	}
	snap.SystemInfo = info
	return true
}

func (c *Collector) collectCPU(ctx context.Context, snap *models.Snapshot) bool {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	cpu, err := c.probes.CPU.Collect(probeCtx)
	if err != nil {
		c.logger.Warn("CPU probe failed", zap.Error(err))
		snap.BasicMetrics.CPU = models.CPUMetrics{Error: err.Error()}
		return false
	}
	snap.BasicMetrics.CPU = cpu
	return true
}

func (c *Collector) collectMemory(ctx context.Context, snap *models.Snapshot) bool {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	mem, err := c.probes.Memory.Collect(probeCtx)
	if err != nil {
		c.logger.Warn("Memory probe failed", zap.Error(err))
		snap.BasicMetrics.Memory = models.MemoryMetrics{Error: err.Error()}
		return false
	}
	snap.BasicMetrics.Memory = mem
	return true
}

func (c *Collector) collectSensors(ctx context.Context, snap *models.Snapshot) {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	sensors, err := c.probes.Sensors.Collect(probeCtx)
	if err != nil {
		c.logger.Warn("Sensor probe failed", zap.Error(err))
		snap.Sensors = &models.SensorReport{Error: err.Error()}
		return
	}
	snap.Sensors = sensors
}

func (c *Collector) collectDisk(ctx context.Context, snap *models.Snapshot) {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	volumes, err := c.probes.Disk.Collect(probeCtx)
	if err != nil {
		c.logger.Warn("Disk probe failed", zap.Error(err))
		snap.Disk = &models.DiskReport{Err: err.Error()}
		return
	}
	snap.Disk = &models.DiskReport{Volumes: volumes}
}

func (c *Collector) collectNetwork(ctx context.Context, snap *models.Snapshot) {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	ifaces, err := c.probes.Network.Collect(probeCtx)
	if err != nil {
		c.logger.Warn("Network probe failed", zap.Error(err))
		snap.Network = &models.NetworkReport{Err: err.Error()}
		return
	}
	snap.Network = &models.NetworkReport{Interfaces: ifaces}
}

func (c *Collector) collectGPU(ctx context.Context, snap *models.Snapshot) {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	devices, err := c.probes.GPU.Collect(probeCtx)
	if err != nil {
		c.logger.Warn("GPU probe failed", zap.Error(err))
		snap.GPU = &models.GPUReport{Err: err.Error()}
		return
	}
	snap.GPU = &models.GPUReport{Devices: devices}
}

func (c *Collector) collectProcesses(ctx context.Context, snap *models.Snapshot) {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	procs, err := c.probes.Processes.Collect(probeCtx)
	if err != nil {
		c.logger.Warn("Process probe failed", zap.Error(err))
		snap.Processes = &models.ProcessReport{Err: err.Error()}
		return
	}
	snap.Processes = &models.ProcessReport{Top: procs}
}
