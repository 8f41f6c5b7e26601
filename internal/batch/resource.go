package batch

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"clinicrawl/internal/logging"
)

// ResourceLimits bounds worker concurrency by machine capacity. A headless
// browser plus its tab costs real memory, so the configured worker count is
// only an upper bound.
type ResourceLimits struct {
	SafetyReserveMB int64   // memory never handed to workers
	WorkerMemoryMB  int64   // estimated footprint of one browser worker
	CPUThreshold    float64 // pause admission above this system CPU %
	MaxWorkers      int
}

// DefaultLimits matches a small VM running headless Chromium workers.
func DefaultLimits(maxWorkers int) ResourceLimits {
	return ResourceLimits{
		SafetyReserveMB: 512,
		WorkerMemoryMB:  400,
		CPUThreshold:    90,
		MaxWorkers:      maxWorkers,
	}
}

// ResourceMonitor samples system memory and CPU through gopsutil.
type ResourceMonitor struct {
	limits      ResourceLimits
	totalMemMB  int64
}

// NewResourceMonitor reads total system memory once; a failed read falls
// back to 4 GB.
func NewResourceMonitor(limits ResourceLimits) *ResourceMonitor {
	totalMB := int64(4096)
	if vm, err := mem.VirtualMemory(); err == nil {
		totalMB = int64(vm.Total / (1024 * 1024))
	} else {
		logging.Warnf("system memory not readable, assuming 4GB: %v", err)
	}
	logging.Infof("system memory: %d MB, worker cap %d", totalMB, limits.MaxWorkers)
	return &ResourceMonitor{limits: limits, totalMemMB: totalMB}
}

// WorkerCap returns how many workers the machine can carry right now.
func (m *ResourceMonitor) WorkerCap() int {
	availableMB := m.totalMemMB
	if vm, err := mem.VirtualMemory(); err == nil {
		availableMB = int64(vm.Available / (1024 * 1024))
	}
	return capWorkers(availableMB, m.limits, runtime.NumCPU())
}

// capWorkers is the pure sizing rule: memory budget divided by per-worker
// footprint, never above NumCPU or the configured maximum, never below 1.
func capWorkers(availableMB int64, limits ResourceLimits, numCPU int) int {
	byMemory := 1
	budget := availableMB - limits.SafetyReserveMB
	if budget > 0 && limits.WorkerMemoryMB > 0 {
		byMemory = int(budget / limits.WorkerMemoryMB)
	}
	if byMemory < 1 {
		byMemory = 1
	}

	result := byMemory
	if numCPU < result {
		result = numCPU
	}
	if limits.MaxWorkers > 0 && limits.MaxWorkers < result {
		result = limits.MaxWorkers
	}
	if result < 1 {
		result = 1
	}
	return result
}

// Overloaded reports whether system CPU is above the admission threshold.
// Sampling errors count as not overloaded.
func (m *ResourceMonitor) Overloaded() bool {
	if m.limits.CPUThreshold >= 200 {
		return false
	}
	percentages, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(percentages) == 0 {
		return false
	}
	return percentages[0] > m.limits.CPUThreshold
}
