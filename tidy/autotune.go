package tidy

import (
	"context"
	"runtime"
	"time"

	"tidings/config"
	"tidings/logger"

	"github.com/shirou/gopsutil/v4/cpu"
)

// tunedJobs picks the clang-tidy worker count. An explicit --jobs wins;
// otherwise the nice level sets a ceiling and current CPU load trims it so a
// busy build host is not saturated further.
func tunedJobs(ctx context.Context, cfg *config.Config) int {
	if cfg.JobsSet {
		return cfg.Jobs
	}

	numCPU := runtime.NumCPU()
	var ceiling int
	switch cfg.NiceLevel {
	case "high":
		ceiling = numCPU
	case "low":
		return 1
	default:
		ceiling = numCPU / 2
		if ceiling < 1 {
			ceiling = 1
		}
	}
	if !cfg.AutoTune {
		return ceiling
	}

	sampleCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	percents, err := cpu.PercentWithContext(sampleCtx, 250*time.Millisecond, false)
	if err != nil || len(percents) == 0 {
		logger.Debugf("CPU sampling failed, keeping %d jobs: %v", ceiling, err)
		return ceiling
	}
	load := percents[0]
	if load <= cfg.AutoTuneTargetCPU {
		return ceiling
	}

	// Scale down proportionally to the headroom left below the target.
	idle := 100 - load
	jobs := int(float64(ceiling) * idle / (100 - cfg.AutoTuneTargetCPU))
	if jobs < 1 {
		jobs = 1
	}
	if jobs > ceiling {
		jobs = ceiling
	}
	logger.Debugf("CPU at %.1f%%, tuned jobs from %d to %d", load, ceiling, jobs)
	return jobs
}
