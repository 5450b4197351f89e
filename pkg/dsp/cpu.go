package dsp

import (
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// Features reports the vector extensions of the host CPU, e.g.
// "amd64 sse2,sse4.1,avx,avx2,fma". Informational only; hosts log it next
// to profiler reports.
func Features() string {
	var names []string

	switch runtime.GOARCH {
	case "amd64", "386":
		if cpu.X86.HasSSE2 {
			names = append(names, "sse2")
		}
		if cpu.X86.HasSSE41 {
			names = append(names, "sse4.1")
		}
		if cpu.X86.HasAVX {
			names = append(names, "avx")
		}
		if cpu.X86.HasAVX2 {
			names = append(names, "avx2")
		}
		if cpu.X86.HasFMA {
			names = append(names, "fma")
		}
		if cpu.X86.HasAVX512F {
			names = append(names, "avx512f")
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			names = append(names, "asimd")
		}
		if cpu.ARM64.HasFPHP {
			names = append(names, "fphp")
		}
		if cpu.ARM64.HasSVE {
			names = append(names, "sve")
		}
	}

	if len(names) == 0 {
		return runtime.GOARCH
	}
	return runtime.GOARCH + " " + strings.Join(names, ",")
}
