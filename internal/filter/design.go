package filter

import (
	"errors"
	"fmt"
	"math"
)

// DefaultQ is used when a profile line gives no Q (Butterworth).
const DefaultQ = 0.707

// freqEpsilon is the fraction of the sample rate kept clear of DC and Nyquist.
const freqEpsilon = 1e-5

var (
	ErrInvalidQ    = errors.New("filter: q must be positive")
	ErrInvalidRate = errors.New("filter: sample rate must be positive")
	ErrNonFinite   = errors.New("filter: parameter is not finite")
	ErrUnstable    = errors.New("filter: poles outside the unit circle")
	ErrUnknownKind = errors.New("filter: unknown kind")
)

// Spec describes one band of an equalizer profile.
type Spec struct {
	Enabled bool
	Kind    Kind
	FreqHz  float64
	GainDB  float64
	Q       float64
}

// DesignError reports a band that could not be turned into a stable biquad.
// Index is the position of the band in the profile.
type DesignError struct {
	Index int
	Spec  Spec
	Err   error
}

func (e *DesignError) Error() string {
	return fmt.Sprintf("filter %d (%s %g Hz Q %g): %v", e.Index+1, e.Spec.Kind, e.Spec.FreqHz, e.Spec.Q, e.Err)
}

func (e *DesignError) Unwrap() error { return e.Err }

// Design computes normalized biquad coefficients for spec at sampleRate
// using the RBJ audio EQ cookbook formulas. The Enabled flag is ignored.
//
// Frequencies at or beyond DC/Nyquist are clamped into the open interval.
// A non-positive Q is rejected rather than producing an unstable section.
func Design(spec Spec, sampleRate float64) (Coefficients, error) {
	switch {
	case !isFinite(sampleRate) || sampleRate <= 0:
		return Coefficients{}, ErrInvalidRate
	case !isFinite(spec.FreqHz) || !isFinite(spec.GainDB) || !isFinite(spec.Q):
		return Coefficients{}, ErrNonFinite
	case spec.Q <= 0:
		return Coefficients{}, ErrInvalidQ
	case !spec.Kind.valid():
		return Coefficients{}, ErrUnknownKind
	}

	f0 := clampFrequency(spec.FreqHz, sampleRate)
	w0 := 2 * math.Pi * f0 / sampleRate
	cosw0 := math.Cos(w0)
	sinw0 := math.Sin(w0)
	alpha := sinw0 / (2 * spec.Q)
	A := math.Pow(10, spec.GainDB/40.0)

	var b0, b1, b2, a0, a1, a2 float64

	switch spec.Kind {
	case Peak:
		b0 = 1 + alpha*A
		b1 = -2 * cosw0
		b2 = 1 - alpha*A
		a0 = 1 + alpha/A
		a1 = -2 * cosw0
		a2 = 1 - alpha/A
	case LowShelf:
		twoSqrtAAlpha := 2 * math.Sqrt(A) * alpha
		b0 = A * ((A + 1) - (A-1)*cosw0 + twoSqrtAAlpha)
		b1 = 2 * A * ((A - 1) - (A+1)*cosw0)
		b2 = A * ((A + 1) - (A-1)*cosw0 - twoSqrtAAlpha)
		a0 = (A + 1) + (A-1)*cosw0 + twoSqrtAAlpha
		a1 = -2 * ((A - 1) + (A+1)*cosw0)
		a2 = (A + 1) + (A-1)*cosw0 - twoSqrtAAlpha
	case HighShelf:
		twoSqrtAAlpha := 2 * math.Sqrt(A) * alpha
		b0 = A * ((A + 1) + (A-1)*cosw0 + twoSqrtAAlpha)
		b1 = -2 * A * ((A - 1) + (A+1)*cosw0)
		b2 = A * ((A + 1) + (A-1)*cosw0 - twoSqrtAAlpha)
		a0 = (A + 1) - (A-1)*cosw0 + twoSqrtAAlpha
		a1 = 2 * ((A - 1) - (A+1)*cosw0)
		a2 = (A + 1) - (A-1)*cosw0 - twoSqrtAAlpha
	case LowPass:
		b0 = (1 - cosw0) / 2
		b1 = 1 - cosw0
		b2 = (1 - cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case HighPass:
		b0 = (1 + cosw0) / 2
		b1 = -(1 + cosw0)
		b2 = (1 + cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case BandPass:
		// constant skirt gain, peak gain = Q
		b0 = sinw0 / 2
		b1 = 0
		b2 = -sinw0 / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case Notch:
		b0 = 1
		b1 = -2 * cosw0
		b2 = 1
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case AllPass:
		b0 = 1 - alpha
		b1 = -2 * cosw0
		b2 = 1 + alpha
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	}

	c := Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
	if !c.Stable() {
		return Coefficients{}, ErrUnstable
	}
	return c, nil
}

// BandwidthToQ converts a bandwidth in octaves to the equivalent Q.
func BandwidthToQ(octaves float64) float64 {
	if octaves <= 0 {
		return 0
	}
	return 1 / (2 * math.Sinh(math.Ln2/2*octaves))
}

func clampFrequency(f, sampleRate float64) float64 {
	lo := freqEpsilon * sampleRate
	hi := sampleRate/2 - lo
	return math.Max(lo, math.Min(hi, f))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
