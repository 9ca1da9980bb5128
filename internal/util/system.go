package util

import (
	"os"
	"runtime"
)

// SystemInfo contains information about the host system.
type SystemInfo struct {
	Hostname string
	NumCPU   int
	OS       string
	Arch     string
}

// GetSystemInfo collects system information.
func GetSystemInfo() SystemInfo {
	hostname, _ := os.Hostname()
	return SystemInfo{
		Hostname: hostname,
		NumCPU:   LogicalCores(),
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
	}
}

// LogicalCores returns the number of logical CPUs this process may run on.
// On Linux this honours the scheduler affinity mask (taskset, cgroup cpusets);
// elsewhere it is runtime.NumCPU().
func LogicalCores() int {
	if n := affinityCores(); n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// DefaultWorkers returns the default render worker count: one per usable
// logical CPU, capped at maxWorkers.
func DefaultWorkers(maxWorkers int) int {
	n := LogicalCores()
	if maxWorkers > 0 && n > maxWorkers {
		n = maxWorkers
	}
	return max(n, 1)
}
