package report

import (
	"runtime"
	"time"

	"tidings/config"
	"tidings/logger"
	"tidings/version"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
)

// HostInfo records where a report was produced, so results from multiple
// build machines can be told apart.
type HostInfo struct {
	Hostname      string `json:"hostname,omitempty"`
	OS            string `json:"os"`
	Platform      string `json:"platform,omitempty"`
	KernelVersion string `json:"kernel_version,omitempty"`
	Arch          string `json:"arch"`
	NumCPU        int    `json:"num_cpu"`
	CPUModel      string `json:"cpu_model,omitempty"`
	ToolVersion   string `json:"tool_version"`
	StartedAt     string `json:"started_at"`
}

// CollectHostInfo gathers host details. Failures downgrade to partial info;
// a report without platform details is still a report.
func CollectHostInfo(cfg *config.Config) *HostInfo {
	info := &HostInfo{
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		NumCPU:      runtime.NumCPU(),
		ToolVersion: version.Version,
		StartedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if cfg != nil && !cfg.CollectHostInfo {
		return info
	}

	if hi, err := host.Info(); err != nil {
		logger.Warnf("Failed to gather host info: %v", err)
	} else {
		info.Hostname = hi.Hostname
		info.Platform = hi.Platform
		info.KernelVersion = hi.KernelVersion
	}
	if cpus, err := cpu.Info(); err != nil {
		logger.Warnf("Failed to gather CPU info: %v", err)
	} else if len(cpus) > 0 {
		info.CPUModel = cpus[0].ModelName
	}
	return info
}
