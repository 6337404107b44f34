// Package kernels provides the two hot loops of the bulk spline evaluator
// (advance-and-compare, cubic evaluation) as interchangeable tables.
//
// The Scalar table is the reference. The Vector table processes whole
// arrays lane-wise through gonum's floats routines, which use SIMD
// assembly where available. Both tables produce bit-identical results:
// neither fuses multiply-adds, and addition is exact IEEE-754 in both.
package kernels

// Mask byte values written by AdvanceAndMask.
const (
	MaskTrue  uint8 = 0xFF
	MaskFalse uint8 = 0x00
)

// laneBlock is the unroll width of the lane-wise compare loop.
const laneBlock = 8

// Kernels is one implementation of the hot loops.
type Kernels struct {
	// Name identifies the implementation in logs and Info.
	Name string

	// AdvanceAndMask adds deltaX to every xs[i] and sets mask[i] to
	// MaskTrue when the result exceeds xEnds[i], MaskFalse otherwise.
	// All slices must have the same length.
	AdvanceAndMask func(deltaX float64, xEnds, xs []float64, mask []uint8)

	// EvaluateCubics sets ys[i] to c0[i] + c1[i]*x + c2[i]*x^2 + c3[i]*x^3
	// with x = xs[i], using Horner's scheme without fused multiply-add.
	// All slices must have the same length.
	EvaluateCubics func(c0, c1, c2, c3, xs, ys []float64)
}

// Pre-instantiated tables, shared by every evaluator.
var (
	scalarKernels = Kernels{
		Name:           "scalar",
		AdvanceAndMask: advanceAndMaskScalar,
		EvaluateCubics: evaluateCubicsScalar,
	}
	vectorKernels = Kernels{
		Name:           "vector",
		AdvanceAndMask: advanceAndMaskVector,
		EvaluateCubics: evaluateCubicsVector,
	}
)

// Scalar returns the reference implementation.
func Scalar() *Kernels {
	return &scalarKernels
}

// Vector returns the lane-wise implementation.
func Vector() *Kernels {
	return &vectorKernels
}

// AdvanceAndCompact adds deltaX to every xs[i] and appends i to indices
// whenever the result exceeds xEnds[i], in a single sequential pass.
// indices must hold at least len(xs) entries. Returns the number of
// indices written.
func AdvanceAndCompact(deltaX float64, xEnds, xs []float64, indices []uint32) int {
	xEnds = xEnds[:len(xs)]
	n := 0
	for i := range xs {
		xs[i] += deltaX
		if xs[i] > xEnds[i] {
			indices[n] = uint32(i)
			n++
		}
	}
	return n
}

// ConvertMaskToIndices writes the position of every non-zero mask byte to
// indices and returns how many were written. The loop is branch-free: each
// position is stored unconditionally and the count advances only for set
// bytes.
//
// mask may alias the tail of indices' memory. mask[i] is always read before
// indices[n] (n <= i) is written, and a write to indices[n] can only reach
// mask bytes that have already been read.
func ConvertMaskToIndices(mask []uint8, indices []uint32) int {
	n := 0
	for i := range mask {
		set := int(min(mask[i], 1))
		indices[n] = uint32(i)
		n += set
	}
	return n
}
