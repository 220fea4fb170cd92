package filter

import (
	"math"
	"math/cmplx"
)

// Response computes H(e^jw) of the section at freqHz.
func (c Coefficients) Response(freqHz, sampleRate float64) complex128 {
	w := 2 * math.Pi * freqHz / sampleRate
	ejw := cmplx.Exp(complex(0, -w))
	ej2w := cmplx.Exp(complex(0, -2*w))

	num := complex(c.B0, 0) + complex(c.B1, 0)*ejw + complex(c.B2, 0)*ej2w
	den := 1 + complex(c.A1, 0)*ejw + complex(c.A2, 0)*ej2w
	return num / den
}

// MagnitudeDB returns 20*log10(|H(f)|).
func (c Coefficients) MagnitudeDB(freqHz, sampleRate float64) float64 {
	return 20 * math.Log10(cmplx.Abs(c.Response(freqHz, sampleRate)))
}

// Response is the product of the preamp and every section response.
func (c *Chain) Response(freqHz float64) complex128 {
	h := complex(c.preamp, 0)
	for _, s := range c.sections {
		h *= s.Response(freqHz, c.format.SampleRate)
	}
	return h
}

// MagnitudeDB returns the cascaded magnitude response in dB.
func (c *Chain) MagnitudeDB(freqHz float64) float64 {
	return 20 * math.Log10(cmplx.Abs(c.Response(freqHz)))
}

// Phase returns the cascaded phase response in radians, in [-pi, pi].
func (c *Chain) Phase(freqHz float64) float64 {
	return cmplx.Phase(c.Response(freqHz))
}
