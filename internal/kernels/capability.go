package kernels

import (
	"os"
	"runtime"
	"strings"

	simdcpu "github.com/tphakala/simd/cpu"
)

// isaEnvVar overrides ISA detection, e.g. BULKSPLINE_ISA=generic.
const isaEnvVar = "BULKSPLINE_ISA"

// ISA is the vector instruction set the host offers.
type ISA uint8

const (
	// Generic means no usable vector unit; the scalar table is preferred.
	Generic ISA = iota
	// NEON is ARM64 Advanced SIMD.
	NEON
	// AVX2 is x86-64 AVX2.
	AVX2
	// AVX512 is x86-64 AVX-512 Foundation.
	AVX512
)

// String returns the lower-case ISA name.
func (i ISA) String() string {
	switch i {
	case Generic:
		return "generic"
	case NEON:
		return "neon"
	case AVX2:
		return "avx2"
	case AVX512:
		return "avx512"
	default:
		return "unknown"
	}
}

// ParseISA parses a name as printed by String.
func ParseISA(s string) (ISA, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generic":
		return Generic, true
	case "neon":
		return NEON, true
	case "avx2":
		return AVX2, true
	case "avx512":
		return AVX512, true
	default:
		return Generic, false
	}
}

// Set once by the platform init before any other code runs.
var (
	activeISA   ISA
	hasOverride bool

	hasASIMD  bool
	hasAVX2   bool
	hasAVX512 bool
)

// initCapabilities is called from the platform-specific init functions
// after the feature flags are filled in.
func initCapabilities() {
	if override := os.Getenv(isaEnvVar); override != "" {
		if isa, ok := ParseISA(override); ok && isAvailable(isa) {
			activeISA = isa
			hasOverride = true
			return
		}
	}
	activeISA = selectBest()
}

func isAvailable(isa ISA) bool {
	switch isa {
	case Generic:
		return true
	case NEON:
		return hasASIMD
	case AVX2:
		return hasAVX2
	case AVX512:
		return hasAVX512
	default:
		return false
	}
}

func selectBest() ISA {
	switch runtime.GOARCH {
	case "amd64":
		if hasAVX512 {
			return AVX512
		}
		if hasAVX2 {
			return AVX2
		}
	case "arm64":
		if hasASIMD {
			return NEON
		}
	}
	return Generic
}

// Detected returns the ISA chosen at start-up.
func Detected() ISA {
	return activeISA
}

// Overridden reports whether BULKSPLINE_ISA selected the ISA.
func Overridden() bool {
	return hasOverride
}

// HasVector reports whether the lane-wise table is expected to beat the
// scalar one on this host.
func HasVector() bool {
	return activeISA != Generic
}

// SIMDInfo describes the SIMD level used by the underlying numeric
// libraries.
func SIMDInfo() string {
	return simdcpu.Info()
}
