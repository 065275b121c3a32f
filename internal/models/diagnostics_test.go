package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func f(v float64) *float64 { return &v }

func TestSnapshotJSON_OmitsAbsentSections(t *testing.T) {
	snap := &Snapshot{
		Timestamp:  time.Now().UTC(),
		SystemInfo: SystemInfo{Platform: "linux"},
		BasicMetrics: BasicMetrics{
			CPU: CPUMetrics{Percent: f(12.5)},
		},
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)

	for _, key := range []string{`"sensors"`, `"disk"`, `"network"`, `"gpu"`, `"processes"`} {
		if strings.Contains(body, key) {
			t.Errorf("absent section %s rendered in JSON", key)
		}
	}
	if !strings.Contains(body, `"system_info"`) || !strings.Contains(body, `"basic_metrics"`) {
		t.Error("baseline sections missing from JSON")
	}
}

func TestReportJSON_ErrorSlots(t *testing.T) {
	cases := []struct {
		name string
		v    any
		want string
	}{
		{"disk error", DiskReport{Err: "permission denied"}, `{"error":"permission denied"}`},
		{"network error", NetworkReport{Err: "no interfaces"}, `{"error":"no interfaces"}`},
		{"gpu error", GPUReport{Err: "driver fault"}, `{"error":"driver fault"}`},
		{"process error", ProcessReport{Err: "access denied"}, `{"error":"access denied"}`},
		{"empty disk", DiskReport{}, `{}`},
		{"empty gpu", GPUReport{}, `[]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.v)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tc.want {
				t.Errorf("marshal = %s, want %s", data, tc.want)
			}
		})
	}
}

func TestReportJSON_PayloadWhenHealthy(t *testing.T) {
	report := DiskReport{Volumes: map[string]VolumeUsage{
		"/": {Total: 100, Used: 60, Free: 40, PercentUsed: f(60)},
	}}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), `"error"`) {
		t.Errorf("healthy report rendered an error slot: %s", data)
	}
	if !strings.Contains(string(data), `"percent_used":60`) {
		t.Errorf("marshal = %s", data)
	}
}

func TestHealthDocument(t *testing.T) {
	snap := &Snapshot{
		BasicMetrics: BasicMetrics{
			CPU: CPUMetrics{Percent: f(95)},
			Memory: MemoryMetrics{
				Virtual: &VirtualMemory{Percent: f(50)},
				Swap:    &SwapMemory{Percent: f(10)},
			},
		},
		Sensors: &SensorReport{Temperature: map[string]float64{
			"thermal_zone0_x86_pkg_temp": 70,
			"thermal_zone1_acpitz":       55,
		}},
		Disk: &DiskReport{Volumes: map[string]VolumeUsage{
			"/": {PercentUsed: f(80)},
		}},
		GPU: &GPUReport{Devices: []GPUInfo{
			{Name: "RTX", Temperature: f(60), Load: f(30)},
		}},
	}

	doc := snap.HealthDocument()

	cpu, ok := doc["cpu"].(map[string]any)
	if !ok {
		t.Fatalf("cpu = %v", doc["cpu"])
	}
	if cpu["current_usage"] != 95.0 {
		t.Errorf("current_usage = %v", cpu["current_usage"])
	}
	// The hottest CPU-related zone wins.
	if cpu["temperature"] != 70.0 {
		t.Errorf("temperature = %v", cpu["temperature"])
	}

	mem, ok := doc["memory"].(map[string]any)
	if !ok {
		t.Fatalf("memory = %v", doc["memory"])
	}
	if mem["percent_used"] != 50.0 {
		t.Errorf("percent_used = %v", mem["percent_used"])
	}
	swap, ok := mem["swap_memory"].(map[string]any)
	if !ok || swap["percent"] != 10.0 {
		t.Errorf("swap_memory = %v", mem["swap_memory"])
	}

	disk, ok := doc["disk"].(map[string]any)
	if !ok {
		t.Fatalf("disk = %v", doc["disk"])
	}
	vol, ok := disk["/"].(map[string]any)
	if !ok || vol["percent_used"] != 80.0 {
		t.Errorf("volume = %v", disk["/"])
	}

	gpus, ok := doc["gpu"].([]any)
	if !ok || len(gpus) != 1 {
		t.Fatalf("gpu = %v", doc["gpu"])
	}
	gpu := gpus[0].(map[string]any)
	if gpu["name"] != "RTX" || gpu["temperature"] != 60.0 || gpu["load"] != 30.0 {
		t.Errorf("gpu entry = %v", gpu)
	}
}

func TestHealthDocument_FailedCategoriesMapToNil(t *testing.T) {
	snap := &Snapshot{
		BasicMetrics: BasicMetrics{
			CPU:    CPUMetrics{Error: "probe failed"},
			Memory: MemoryMetrics{Error: "probe failed"},
		},
		Disk: &DiskReport{Err: "probe failed"},
		GPU:  &GPUReport{Err: "probe failed"},
	}

	doc := snap.HealthDocument()

	for _, key := range []string{"cpu", "memory", "disk", "gpu"} {
		v, present := doc[key]
		if !present {
			t.Errorf("%s key absent, want present nil", key)
			continue
		}
		if v != nil {
			t.Errorf("%s = %v, want nil", key, v)
		}
	}
}

func TestHealthDocument_GatedSectionsAbsent(t *testing.T) {
	snap := &Snapshot{
		BasicMetrics: BasicMetrics{
			CPU:    CPUMetrics{Percent: f(10)},
			Memory: MemoryMetrics{Virtual: &VirtualMemory{Percent: f(40)}},
		},
	}

	doc := snap.HealthDocument()

	if _, present := doc["disk"]; present {
		t.Error("disk should be absent when collection was gated off")
	}
	if _, present := doc["gpu"]; present {
		t.Error("gpu should be absent when collection was gated off")
	}
	cpu := doc["cpu"].(map[string]any)
	if _, present := cpu["temperature"]; present {
		t.Error("temperature should be absent without sensor data")
	}
}

func TestCPUZoneMatching(t *testing.T) {
	matching := []string{"thermal_zone0_x86_pkg_temp", "coretemp", "k10temp", "CPU Package", "system"}
	for _, name := range matching {
		if !cpuZone(name) {
			t.Errorf("%q should match a CPU zone", name)
		}
	}
	if cpuZone("nvme_composite") {
		t.Error("nvme sensor should not match a CPU zone")
	}
}
