package sysinfo

import (
	"runtime"

	"bandfix/logger"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// SystemInfo is the host snapshot recorded in the report header, so a
// run over a multi-terabyte dataset can be attributed to the machine
// that performed it.
type SystemInfo struct {
	Hostname      string `json:"hostname"`
	OS            string `json:"os"`
	Platform      string `json:"platform"`
	KernelVersion string `json:"kernel_version,omitempty"`
	CPUCount      int    `json:"cpu_count"`
	TotalMemoryMB uint64 `json:"total_memory_mb,omitempty"`
}

// Collect gathers the snapshot. Individual probe failures degrade to
// partial info rather than failing the run.
func Collect() *SystemInfo {
	info := &SystemInfo{
		OS:       runtime.GOOS,
		CPUCount: runtime.NumCPU(),
	}

	if h, err := host.Info(); err == nil {
		info.Hostname = h.Hostname
		info.Platform = h.Platform + " " + h.PlatformVersion
		info.KernelVersion = h.KernelVersion
	} else {
		logger.Debugf("host info unavailable: %v", err)
	}
	if counts, err := cpu.Counts(true); err == nil && counts > 0 {
		info.CPUCount = counts
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.TotalMemoryMB = vm.Total / (1024 * 1024)
	} else {
		logger.Debugf("memory info unavailable: %v", err)
	}
	return info
}
