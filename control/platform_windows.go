//go:build windows
// +build windows

// control/platform_windows.go
//
// Windows-specific metrics/debug introspection points.

package control

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
)

// RegisterPlatformProbes sets Windows-specific debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.mem_used_percent", func() any {
		vm, err := mem.VirtualMemory()
		if err != nil {
			return nil
		}
		return vm.UsedPercent
	})
}
