// Package analysis computes frequency responses of compiled filter chains,
// both from the coefficients and by measuring the impulse response.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/agusx1211/eqlayer/internal/filter"
)

// Point is one sample of a magnitude/phase curve.
type Point struct {
	FreqHz      float64
	MagnitudeDB float64
	PhaseRad    float64
}

// LogFrequencies returns n frequencies spaced evenly on a log axis between
// lo and hi. hi is limited to just below Nyquist.
func LogFrequencies(n int, lo, hi, sampleRate float64) []float64 {
	if n <= 0 {
		return nil
	}
	hi = math.Min(hi, sampleRate/2*0.999)
	if n == 1 || lo >= hi {
		return []float64{lo}
	}
	return floats.LogSpan(make([]float64, n), lo, hi)
}

// Curve evaluates the analytic response of c at n log-spaced points across
// the audible band.
func Curve(c *filter.Chain, n int) []Point {
	freqs := LogFrequencies(n, 20, 20000, c.SampleRate())
	points := make([]Point, len(freqs))
	for i, f := range freqs {
		points[i] = Point{
			FreqHz:      f,
			MagnitudeDB: c.MagnitudeDB(f),
			PhaseRad:    c.Phase(f),
		}
	}
	return points
}
