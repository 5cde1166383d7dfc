package parallel

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// Width returns the fan-out for data-parallel loops: the physical core count
// when the CPU reports one, otherwise the logical CPU count the runtime sees.
func Width() int {
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}
