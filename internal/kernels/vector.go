package kernels

import "gonum.org/v1/gonum/floats"

// advanceAndMaskVector adds deltaX across the whole array in one call, then
// builds the mask eight lanes at a time. The add is an exact IEEE-754 add
// per lane, so the result matches the scalar loop bit for bit.
func advanceAndMaskVector(deltaX float64, xEnds, xs []float64, mask []uint8) {
	n := len(xs)
	floats.AddConst(deltaX, xs)

	xEnds = xEnds[:n]
	mask = mask[:n]
	i := 0
	for ; i+laneBlock <= n; i += laneBlock {
		x := xs[i : i+laneBlock : i+laneBlock]
		e := xEnds[i : i+laneBlock : i+laneBlock]
		m := mask[i : i+laneBlock : i+laneBlock]

		m[0] = maskFor(x[0] > e[0])
		m[1] = maskFor(x[1] > e[1])
		m[2] = maskFor(x[2] > e[2])
		m[3] = maskFor(x[3] > e[3])
		m[4] = maskFor(x[4] > e[4])
		m[5] = maskFor(x[5] > e[5])
		m[6] = maskFor(x[6] > e[6])
		m[7] = maskFor(x[7] > e[7])
	}

	for ; i < n; i++ {
		mask[i] = maskFor(xs[i] > xEnds[i])
	}
}

// evaluateCubicsVector runs Horner's scheme column by column:
// y = ((c3*x + c2)*x + c1)*x + c0, one multiply and one add per pass.
func evaluateCubicsVector(c0, c1, c2, c3, xs, ys []float64) {
	n := len(xs)
	ys = ys[:n]

	copy(ys, c3[:n])
	floats.Mul(ys, xs)
	floats.Add(ys, c2[:n])
	floats.Mul(ys, xs)
	floats.Add(ys, c1[:n])
	floats.Mul(ys, xs)
	floats.Add(ys, c0[:n])
}
