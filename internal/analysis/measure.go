package analysis

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/agusx1211/eqlayer/internal/filter"
)

var ErrFFTSize = errors.New("analysis: fft size must be a power of two >= 2")

// Spectrum is a measured magnitude response, one bin per FFT frequency
// from DC to Nyquist.
type Spectrum struct {
	SampleRate float64
	FFTSize    int
	Magnitude  []float64
}

// BinFrequency returns the center frequency of bin k.
func (s Spectrum) BinFrequency(k int) float64 {
	return float64(k) * s.SampleRate / float64(s.FFTSize)
}

// MagnitudeDB returns the magnitude of the bin nearest freqHz in dB.
func (s Spectrum) MagnitudeDB(freqHz float64) float64 {
	k := int(math.Round(freqHz * float64(s.FFTSize) / s.SampleRate))
	k = max(0, min(len(s.Magnitude)-1, k))
	return 20 * math.Log10(s.Magnitude[k])
}

// Measure feeds an impulse through c and returns the magnitude spectrum of
// the first fftSize output samples. The chain's state is reset, so c must
// not be installed in a running engine.
func Measure(c *filter.Chain, fftSize int) (Spectrum, error) {
	if fftSize < 2 || fftSize&(fftSize-1) != 0 {
		return Spectrum{}, ErrFFTSize
	}

	ir := c.ImpulseResponse(fftSize)

	in := make([]complex128, fftSize)
	for i, v := range ir {
		in[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return Spectrum{}, fmt.Errorf("analysis: fft plan: %w", err)
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, in); err != nil {
		return Spectrum{}, fmt.Errorf("analysis: fft: %w", err)
	}

	bins := fftSize/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)
	for k := 0; k < bins; k++ {
		re[k] = real(out[k])
		im[k] = imag(out[k])
	}

	mag := make([]float64, bins)
	vecmath.Magnitude(mag, re, im)

	return Spectrum{SampleRate: c.SampleRate(), FFTSize: fftSize, Magnitude: mag}, nil
}
