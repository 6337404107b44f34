package engine

import (
	"fmt"
	"strings"

	"github.com/tphakala/go-bulk-spline/internal/kernels"
)

// Optimization selects which implementation of the hot loops runs.
type Optimization int

const (
	// OptimizationAuto picks Vector when the host has a usable vector unit
	// and Scalar otherwise.
	OptimizationAuto Optimization = iota

	// OptimizationScalar uses the one-step compaction and per-index
	// evaluation. Best for small slot counts and hosts without SIMD.
	OptimizationScalar

	// OptimizationVector uses the two-step (mask, then compact) update and
	// lane-wise cubic evaluation.
	OptimizationVector
)

func (o Optimization) String() string {
	switch o {
	case OptimizationAuto:
		return "auto"
	case OptimizationScalar:
		return "scalar"
	case OptimizationVector:
		return "vector"
	default:
		return fmt.Sprintf("Optimization(%d)", int(o))
	}
}

// ParseOptimization parses a mode name as printed by String.
func ParseOptimization(s string) (Optimization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto", "":
		return OptimizationAuto, nil
	case "scalar":
		return OptimizationScalar, nil
	case "vector":
		return OptimizationVector, nil
	default:
		return OptimizationAuto, fmt.Errorf("unknown optimization %q", s)
	}
}

// Resolve maps Auto to a concrete mode for this host.
func (o Optimization) Resolve() Optimization {
	if o != OptimizationAuto {
		return o
	}
	if kernels.HasVector() {
		return OptimizationVector
	}
	return OptimizationScalar
}

// kernelsFor returns the kernel table backing a resolved mode.
func kernelsFor(o Optimization) *kernels.Kernels {
	if o == OptimizationVector {
		return kernels.Vector()
	}
	return kernels.Scalar()
}
