//go:build linux

package util

import "golang.org/x/sys/unix"

// affinityCores counts the CPUs in the calling thread's affinity mask.
// Returns 0 if the mask cannot be read.
func affinityCores() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return 0
	}
	return set.Count()
}
