package verify

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a    []float64
		b    []float64
		want float64
	}{
		{
			name: "identical vectors score 1",
			a:    []float64{1, 2, 3},
			b:    []float64{1, 2, 3},
			want: 1,
		},
		{
			name: "opposite vectors score -1",
			a:    []float64{1, 0},
			b:    []float64{-1, 0},
			want: -1,
		},
		{
			name: "orthogonal vectors score 0",
			a:    []float64{1, 0},
			b:    []float64{0, 1},
			want: 0,
		},
		{
			name: "scaling does not change similarity",
			a:    []float64{1, 2, 3},
			b:    []float64{10, 20, 30},
			want: 1,
		},
		{
			name: "mismatched lengths score 0",
			a:    []float64{1, 2, 3},
			b:    []float64{1, 2},
			want: 0,
		},
		{
			name: "empty vectors score 0",
			a:    nil,
			b:    nil,
			want: 0,
		},
		{
			name: "zero-norm vector scores 0 instead of dividing by zero",
			a:    []float64{0, 0, 0},
			b:    []float64{1, 2, 3},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.False(t, math.IsNaN(got))
		})
	}
}
