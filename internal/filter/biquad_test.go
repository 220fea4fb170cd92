package filter

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-12

func TestNewSection(t *testing.T) {
	c := Coefficients{B0: 1, B1: 2, B2: 3, A1: 0.4, A2: 0.5}
	s := NewSection(c, 2)
	assert.Equal(t, c, s.Coefficients)
	assert.Equal(t, 2, s.Channels())
	assert.Equal(t, [2]float64{0, 0}, s.State(0))
	assert.Equal(t, [2]float64{0, 0}, s.State(1))
}

func TestSection_ProcessSampleIdentity(t *testing.T) {
	s := NewSection(Identity(), 1)
	for i, x := range []float64{1, 0, -1, 0.5, 0.25} {
		assert.InDelta(t, x, s.ProcessSample(0, x), eps, "sample %d", i)
	}
}

func TestSection_ProcessSampleDF2T(t *testing.T) {
	// B0=0.25 B1=0.5 B2=0.25 A1=-0.2 A2=0.04, x = [1 0 0 0]
	//
	// n=0: y=0.25         z1=0.5+0.05=0.55        z2=0.25-0.01=0.24
	// n=1: y=0.55         z1=0.11+0.24=0.35       z2=-0.022
	// n=2: y=0.35         z1=0.07-0.022=0.048     z2=-0.014
	// n=3: y=0.048
	s := NewSection(Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}, 1)

	want := []float64{0.25, 0.55, 0.35, 0.048}
	for i, w := range want {
		var x float64
		if i == 0 {
			x = 1
		}
		assert.InDelta(t, w, s.ProcessSample(0, x), eps, "sample %d", i)
	}
}

func TestSection_ProcessBlockMatchesSample(t *testing.T) {
	c := Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}
	input := []float64{1, 0.5, -0.3, 0.7, 0, -1, 0.2, 0.8}

	s1 := NewSection(c, 1)
	ref := make([]float64, len(input))
	for i, x := range input {
		ref[i] = s1.ProcessSample(0, x)
	}

	s2 := NewSection(c, 1)
	block := append([]float64(nil), input...)
	s2.ProcessBlock(0, block)

	for i := range block {
		assert.InDelta(t, ref[i], block[i], eps, "sample %d", i)
	}
	assert.Equal(t, s1.State(0), s2.State(0))
}

func TestSection_ChannelsAreIndependent(t *testing.T) {
	s := NewSection(Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}, 2)

	s.ProcessSample(0, 1)
	assert.NotEqual(t, [2]float64{0, 0}, s.State(0))
	assert.Equal(t, [2]float64{0, 0}, s.State(1))

	assert.Equal(t, 0.0, s.ProcessSample(1, 0))
}

func TestSection_Reset(t *testing.T) {
	s := NewSection(Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}, 2)
	s.ProcessSample(0, 1)
	s.ProcessSample(1, -1)

	s.Reset()

	assert.Equal(t, [2]float64{0, 0}, s.State(0))
	assert.Equal(t, [2]float64{0, 0}, s.State(1))
}

func TestCoefficients_Poles(t *testing.T) {
	c := Coefficients{A1: -0.2, A2: 0.04}
	poles := c.Poles()

	// complex pair: |p|^2 = A2
	for _, p := range poles {
		assert.InDelta(t, 0.2, cmplx.Abs(p), eps)
	}
	// p1 + p2 = -A1, p1 * p2 = A2
	assert.InDelta(t, 0.2, real(poles[0]+poles[1]), eps)
	assert.InDelta(t, 0.04, real(poles[0]*poles[1]), eps)
}

func TestCoefficients_Stable(t *testing.T) {
	tests := []struct {
		name   string
		c      Coefficients
		stable bool
	}{
		{"identity", Identity(), true},
		{"complex pair inside", Coefficients{A1: -0.2, A2: 0.04}, true},
		{"real poles inside", Coefficients{A1: -1.5, A2: 0.56}, true},
		{"A2 on circle", Coefficients{A1: 0, A2: 1}, false},
		{"A2 outside", Coefficients{A1: 0, A2: 1.1}, false},
		{"real pole outside", Coefficients{A1: -2.1, A2: 1.0 - 0.01}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.stable, tt.c.Stable())

			inside := true
			for _, p := range tt.c.Poles() {
				if cmplx.Abs(p) >= 1 {
					inside = false
				}
			}
			assert.Equal(t, tt.stable, inside)
		})
	}
}
