package util

import (
	"runtime"
	"testing"
)

func TestLogicalCores(t *testing.T) {
	cores := LogicalCores()
	if cores <= 0 {
		t.Errorf("LogicalCores() = %d, want > 0", cores)
	}
	// The affinity mask can only narrow the machine's CPU count.
	if cores > runtime.NumCPU() {
		t.Errorf("LogicalCores() = %d > runtime.NumCPU() = %d", cores, runtime.NumCPU())
	}
}

func TestAffinityCoresLinux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("Linux-specific test")
	}

	cores := affinityCores()
	if cores < 0 {
		t.Errorf("affinityCores() = %d, want >= 0", cores)
	}
}

func TestDefaultWorkers(t *testing.T) {
	if got := DefaultWorkers(1); got != 1 {
		t.Errorf("DefaultWorkers(1) = %d, want 1", got)
	}
	if got := DefaultWorkers(0); got != LogicalCores() {
		t.Errorf("DefaultWorkers(0) = %d, want %d", got, LogicalCores())
	}
	if got := DefaultWorkers(1 << 20); got != LogicalCores() {
		t.Errorf("DefaultWorkers(huge) = %d, want %d", got, LogicalCores())
	}
}

func TestGetSystemInfo(t *testing.T) {
	info := GetSystemInfo()
	if info.NumCPU <= 0 {
		t.Errorf("NumCPU = %d, want > 0", info.NumCPU)
	}
	if info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("GetSystemInfo() = %+v, want OS=%s Arch=%s", info, runtime.GOOS, runtime.GOARCH)
	}
}
