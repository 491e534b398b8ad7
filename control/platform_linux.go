//go:build linux
// +build linux

// control/platform_linux.go
//
// Linux-specific platform metrics or debug probe integrations.

package control

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// RegisterPlatformProbes sets Linux-specific debug metrics, including host
// CPU and memory usage sampled through gopsutil.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.cpu_percent", func() any {
		pct, err := cpu.Percent(0, false)
		if err != nil || len(pct) == 0 {
			return nil
		}
		return pct[0]
	})
	dp.RegisterProbe("platform.mem_used_percent", func() any {
		vm, err := mem.VirtualMemory()
		if err != nil {
			return nil
		}
		return vm.UsedPercent
	})
}
