// Package testutil provides signal generators and tolerance checks shared by
// the equalizer tests.
package testutil

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance = 1e-9
	DBTolerance      = 0.01
	// Float32Tolerance covers the round trip through the float32 buffers.
	Float32Tolerance = 1e-6
)

// Sine generates a deterministic sine wave.
func Sine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// Noise generates white noise with a fixed seed.
func Noise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Interleave spreads a mono signal over channels, scaling channel ch by
// (ch+1) so channels can be told apart.
func Interleave(mono []float64, channels int) []float32 {
	out := make([]float32, len(mono)*channels)
	for i, v := range mono {
		for ch := 0; ch < channels; ch++ {
			out[i*channels+ch] = float32(v * float64(ch+1))
		}
	}
	return out
}

// AssertSliceInDelta verifies that got and want have the same length and
// differ by at most tolerance at every index.
func AssertSliceInDelta(t *testing.T, want, got []float64, tolerance float64) bool {
	t.Helper()
	if !assert.Len(t, got, len(want)) {
		return false
	}
	for i := range want {
		if !assert.InDelta(t, want[i], got[i], tolerance, "index %d", i) {
			return false
		}
	}
	return true
}

// AssertFloat32InDelta is AssertSliceInDelta for float32 buffers.
func AssertFloat32InDelta(t *testing.T, want, got []float32, tolerance float64) bool {
	t.Helper()
	if !assert.Len(t, got, len(want)) {
		return false
	}
	for i := range want {
		if !assert.InDelta(t, float64(want[i]), float64(got[i]), tolerance, "index %d", i) {
			return false
		}
	}
	return true
}

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// MaxStep returns the largest absolute difference between neighbouring
// samples of one channel in an interleaved buffer.
func MaxStep(buf []float32, channels, ch int) float64 {
	maxStep := 0.0
	for i := channels + ch; i < len(buf); i += channels {
		d := math.Abs(float64(buf[i]) - float64(buf[i-channels]))
		if d > maxStep {
			maxStep = d
		}
	}
	return maxStep
}
