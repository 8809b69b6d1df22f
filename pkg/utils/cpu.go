package utils

import "github.com/shirou/gopsutil/cpu"

// CheckCPUUsage is the admission gate for CPU-bound render stages. The worker
// skips popping clip-export and reframe jobs while the host sits above the
// configured ceiling, since an ffmpeg encode on a saturated box starves the
// lighter queues. A probe error fails closed and reports the host as busy.
func CheckCPUUsage(maxCPUUsage float64) (bool, float64) {
	usage, err := cpu.Percent(0, false)
	if err != nil {
		return false, 0
	}
	return usage[0] <= maxCPUUsage, usage[0]
}
