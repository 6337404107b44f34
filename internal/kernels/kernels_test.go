package kernels

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sizes chosen to cover empty input, a partial lane block, exact blocks
// and a remainder.
var testSizes = []int{0, 1, 7, 8, 9, 64, 1001}

func randomXs(rng *rand.Rand, n int) (xs, xEnds []float64) {
	xs = make([]float64, n)
	xEnds = make([]float64, n)
	for i := range n {
		xEnds[i] = rng.Float64() * 4
		xs[i] = rng.Float64() * xEnds[i]
	}
	return xs, xEnds
}

func TestAdvanceAndMask_ScalarMatchesVector(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for _, n := range testSizes {
		xs, xEnds := randomXs(rng, n)
		xsVec := append([]float64(nil), xs...)
		maskScalar := make([]uint8, n)
		maskVec := make([]uint8, n)

		Scalar().AdvanceAndMask(0.37, xEnds, xs, maskScalar)
		Vector().AdvanceAndMask(0.37, xEnds, xsVec, maskVec)

		for i := range n {
			require.Equal(t, math.Float64bits(xs[i]), math.Float64bits(xsVec[i]), "n=%d i=%d", n, i)
			require.Equal(t, maskScalar[i], maskVec[i], "n=%d i=%d", n, i)
			want := MaskFalse
			if xs[i] > xEnds[i] {
				want = MaskTrue
			}
			require.Equal(t, want, maskScalar[i])
		}
	}
}

func TestEvaluateCubics_ScalarMatchesVector(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))

	for _, n := range testSizes {
		cols := [4][]float64{}
		for c := range cols {
			cols[c] = make([]float64, n)
			for i := range n {
				cols[c][i] = rng.NormFloat64() * 100
			}
		}
		xs := make([]float64, n)
		for i := range xs {
			xs[i] = rng.Float64() * 3
		}
		ysScalar := make([]float64, n)
		ysVec := make([]float64, n)

		Scalar().EvaluateCubics(cols[0], cols[1], cols[2], cols[3], xs, ysScalar)
		Vector().EvaluateCubics(cols[0], cols[1], cols[2], cols[3], xs, ysVec)

		for i := range n {
			require.Equal(t, math.Float64bits(ysScalar[i]), math.Float64bits(ysVec[i]), "n=%d i=%d", n, i)
			x := xs[i]
			want := cols[0][i] + cols[1][i]*x + cols[2][i]*x*x + cols[3][i]*x*x*x
			assert.InDelta(t, want, ysScalar[i], 1e-9*math.Max(1, math.Abs(want)))
		}
	}
}

func TestAdvanceAndCompact_MatchesMaskThenConvert(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))

	for _, n := range testSizes {
		xs, xEnds := randomXs(rng, n)
		xsTwo := slices.Clone(xs)

		one := make([]uint32, n)
		gotOne := AdvanceAndCompact(0.5, xEnds, xs, one)

		mask := make([]uint8, n)
		two := make([]uint32, n)
		Vector().AdvanceAndMask(0.5, xEnds, xsTwo, mask)
		gotTwo := ConvertMaskToIndices(mask, two)

		require.Equal(t, gotOne, gotTwo, "n=%d", n)
		assert.Equal(t, one[:gotOne], two[:gotTwo])
		assert.Equal(t, xs, xsTwo)
	}
}

func TestConvertMaskToIndices(t *testing.T) {
	tests := []struct {
		name string
		mask []uint8
		want []uint32
	}{
		{"empty", nil, []uint32{}},
		{"none set", []uint8{0, 0, 0}, []uint32{}},
		{"all set", []uint8{0xFF, 0xFF, 0xFF}, []uint32{0, 1, 2}},
		{"sparse", []uint8{0, 0xFF, 0, 0, 0xFF}, []uint32{1, 4}},
		{"any non-zero byte", []uint8{0x01, 0, 0x02, 0x80}, []uint32{0, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			indices := make([]uint32, len(tt.mask))
			n := ConvertMaskToIndices(tt.mask, indices)
			assert.Equal(t, tt.want, indices[:n])
		})
	}
}

// The evaluator stores the mask in the tail bytes of the index buffer.
// Every combination of set bits must still compact correctly.
func TestConvertMaskToIndices_AliasedTail(t *testing.T) {
	const n = 10
	for bits := range 1 << n {
		indices := make([]uint32, n)
		raw := unsafe.Slice((*uint8)(unsafe.Pointer(&indices[0])), n*4)
		mask := raw[len(raw)-n:]

		var want []uint32
		for i := range n {
			if bits&(1<<i) != 0 {
				mask[i] = MaskTrue
				want = append(want, uint32(i))
			}
		}

		got := ConvertMaskToIndices(mask, indices)
		require.Equal(t, len(want), got, "bits=%b", bits)
		for k, w := range want {
			require.Equal(t, w, indices[k], "bits=%b k=%d", bits, k)
		}
	}
}

func TestISA_ParseAndString(t *testing.T) {
	for _, isa := range []ISA{Generic, NEON, AVX2, AVX512} {
		got, ok := ParseISA(isa.String())
		require.True(t, ok)
		assert.Equal(t, isa, got)
	}
	_, ok := ParseISA("sse9")
	assert.False(t, ok)
	assert.Equal(t, "unknown", ISA(200).String())
}

func TestCapabilities(t *testing.T) {
	assert.True(t, isAvailable(Generic))
	assert.True(t, isAvailable(Detected()))
	assert.Equal(t, Detected() != Generic, HasVector())
	assert.NotEmpty(t, SIMDInfo())
	assert.Equal(t, "scalar", Scalar().Name)
	assert.Equal(t, "vector", Vector().Name)
}

func TestCapabilities_EnvOverride(t *testing.T) {
	t.Setenv(isaEnvVar, "generic")
	initCapabilities()
	assert.True(t, Overridden())
	assert.Equal(t, Generic, Detected())
	assert.False(t, HasVector())

	t.Setenv(isaEnvVar, "sse9")
	initCapabilities()
	assert.False(t, Overridden(), "unknown ISA names fall back to detection")

	t.Setenv(isaEnvVar, "")
	initCapabilities()
	assert.False(t, Overridden())
	assert.Equal(t, selectBest(), Detected())
}

func BenchmarkAdvanceAndMask(b *testing.B) {
	for _, k := range []*Kernels{Scalar(), Vector()} {
		b.Run(k.Name, func(b *testing.B) {
			rng := rand.New(rand.NewPCG(7, 8))
			xs, xEnds := randomXs(rng, 4096)
			mask := make([]uint8, len(xs))

			b.ReportAllocs()
			for b.Loop() {
				k.AdvanceAndMask(1e-9, xEnds, xs, mask)
			}
		})
	}
}

func BenchmarkEvaluateCubics(b *testing.B) {
	for _, k := range []*Kernels{Scalar(), Vector()} {
		b.Run(k.Name, func(b *testing.B) {
			const n = 4096
			c0, c1, c2, c3 := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
			xs, ys := make([]float64, n), make([]float64, n)
			for i := range n {
				c0[i], c1[i], c2[i], c3[i] = 1, 0.5, 0.25, 0.125
				xs[i] = float64(i) / n
			}

			b.ReportAllocs()
			for b.Loop() {
				k.EvaluateCubics(c0, c1, c2, c3, xs, ys)
			}
		})
	}
}

func BenchmarkConvertMaskToIndices(b *testing.B) {
	const n = 4096
	mask := make([]uint8, n)
	for i := range mask {
		if i%7 == 0 {
			mask[i] = MaskTrue
		}
	}
	indices := make([]uint32, n)

	b.ReportAllocs()
	for b.Loop() {
		_ = ConvertMaskToIndices(mask, indices)
	}
}
