package kernels

func advanceAndMaskScalar(deltaX float64, xEnds, xs []float64, mask []uint8) {
	xEnds = xEnds[:len(xs)]
	mask = mask[:len(xs)]
	for i := range xs {
		xs[i] += deltaX
		mask[i] = maskFor(xs[i] > xEnds[i])
	}
}

func evaluateCubicsScalar(c0, c1, c2, c3, xs, ys []float64) {
	n := len(xs)
	c0, c1, c2, c3, ys = c0[:n], c1[:n], c2[:n], c3[:n], ys[:n]
	for i, x := range xs {
		// Explicit conversions round each product; see curve.Cubic.Evaluate.
		y := float64(c3[i]*x) + c2[i]
		y = float64(y*x) + c1[i]
		ys[i] = float64(y*x) + c0[i]
	}
}

// maskFor converts a comparison result to a mask byte.
// The compiler lowers this to a conditional move.
func maskFor(b bool) uint8 {
	if b {
		return MaskTrue
	}
	return MaskFalse
}
