package curve

// NumCoeff is the number of polynomial coefficients in a Cubic.
const NumCoeff = 4

// Hermite basis constants for the end-condition construction.
const (
	hermiteTwo   = 2.0
	hermiteThree = 3.0
)

// CubicInit holds the Hermite end conditions of one segment: values and
// slopes at both ends, and the segment width along x.
type CubicInit struct {
	StartY          float64
	StartDerivative float64
	EndY            float64
	EndDerivative   float64
	WidthX          float64
}

// Cubic is c0 + c1*x + c2*x^2 + c3*x^3, with x measured from the start of
// its segment. The zero value is the constant 0.
type Cubic struct {
	coeff [NumCoeff]float64
}

// NewCubic builds the cubic that satisfies init.
func NewCubic(init CubicInit) Cubic {
	var c Cubic
	c.Init(init)
	return c
}

// CubicFromCoeffs builds a cubic from coefficients, constant term first.
func CubicFromCoeffs(c0, c1, c2, c3 float64) Cubic {
	return Cubic{coeff: [NumCoeff]float64{c0, c1, c2, c3}}
}

// Init replaces the coefficients with the Hermite cubic through
// (0, StartY) and (WidthX, EndY) with the given end slopes.
// A non-positive width yields the constant StartY.
func (c *Cubic) Init(init CubicInit) {
	w := init.WidthX
	if w <= 0 {
		c.coeff = [NumCoeff]float64{init.StartY, 0, 0, 0}
		return
	}

	dy := init.EndY - init.StartY
	s0 := init.StartDerivative
	s1 := init.EndDerivative
	invW := 1 / w

	c.coeff[0] = init.StartY
	c.coeff[1] = s0
	c.coeff[2] = (hermiteThree*dy*invW - hermiteTwo*s0 - s1) * invW
	c.coeff[3] = (-hermiteTwo*dy*invW + s0 + s1) * invW * invW
}

// Evaluate returns the cubic at x using Horner's scheme.
//
// Each product is rounded explicitly so the compiler cannot fuse it into a
// multiply-add. The lane-wise kernels rely on this to stay bit-identical.
func (c Cubic) Evaluate(x float64) float64 {
	y := float64(c.coeff[3]*x) + c.coeff[2]
	y = float64(y*x) + c.coeff[1]
	return float64(y*x) + c.coeff[0]
}

// Derivative returns the first derivative at x.
func (c Cubic) Derivative(x float64) float64 {
	return (hermiteThree*c.coeff[3]*x+hermiteTwo*c.coeff[2])*x + c.coeff[1]
}

// SecondDerivative returns the second derivative at x.
func (c Cubic) SecondDerivative(x float64) float64 {
	return 6*c.coeff[3]*x + hermiteTwo*c.coeff[2]
}

// Coeff returns coefficient i; 0 is the constant term.
func (c Cubic) Coeff(i int) float64 { return c.coeff[i] }

// SetCoeff overwrites coefficient i.
func (c *Cubic) SetCoeff(i int, v float64) { c.coeff[i] = v }

// Coeffs returns a copy of all coefficients, constant term first.
func (c Cubic) Coeffs() [NumCoeff]float64 { return c.coeff }
