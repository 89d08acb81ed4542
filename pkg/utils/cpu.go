package utils

import (
	"time"

	"github.com/shirou/gopsutil/cpu"
)

// CPUUsage samples aggregate CPU utilization as a percentage over the given
// window. A zero window reports utilization since the previous call.
func CPUUsage(window time.Duration) (float64, error) {
	percents, err := cpu.Percent(window, false)
	if err != nil {
		return 0, err
	}
	return percents[0], nil
}
