package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-bulk-spline/internal/kernels"
)

func TestParseOptimization(t *testing.T) {
	tests := []struct {
		in      string
		want    Optimization
		wantErr bool
	}{
		{"", OptimizationAuto, false},
		{"auto", OptimizationAuto, false},
		{"Scalar", OptimizationScalar, false},
		{" vector ", OptimizationVector, false},
		{"neon", OptimizationAuto, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOptimization(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptimization_String(t *testing.T) {
	for _, o := range []Optimization{OptimizationAuto, OptimizationScalar, OptimizationVector} {
		got, err := ParseOptimization(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, got)
	}
	assert.Equal(t, "Optimization(9)", Optimization(9).String())
}

func TestOptimization_Resolve(t *testing.T) {
	assert.Equal(t, OptimizationScalar, OptimizationScalar.Resolve())
	assert.Equal(t, OptimizationVector, OptimizationVector.Resolve())

	auto := OptimizationAuto.Resolve()
	if kernels.HasVector() {
		assert.Equal(t, OptimizationVector, auto)
	} else {
		assert.Equal(t, OptimizationScalar, auto)
	}
}

func TestNewBulkEvaluator_ResolvesMode(t *testing.T) {
	e := NewBulkEvaluator(Options{})
	assert.NotEqual(t, OptimizationAuto, e.Optimization())
	assert.False(t, e.Verifying())
	assert.Zero(t, e.NumIndices())

	e = NewBulkEvaluator(Options{Optimization: OptimizationScalar})
	assert.Equal(t, "scalar", e.kernels.Name)
	e = NewBulkEvaluator(Options{Optimization: OptimizationVector})
	assert.Equal(t, "vector", e.kernels.Name)
}
