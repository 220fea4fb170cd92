package filter

import (
	"fmt"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKinds = []Kind{Peak, LowShelf, HighShelf, LowPass, HighPass, BandPass, Notch, AllPass}

func TestDesign_StableAcrossParameterGrid(t *testing.T) {
	rates := []float64{44100, 48000, 96000}
	freqs := []float64{0, 5, 20, 100, 1000, 10000, 20000, 30000, 1e6}
	qs := []float64{0.05, 0.3, 0.707, 2, 10, 40}
	gains := []float64{-24, -6, 0, 6, 24}

	for _, rate := range rates {
		for _, kind := range allKinds {
			for _, f := range freqs {
				for _, q := range qs {
					for _, g := range gains {
						spec := Spec{Enabled: true, Kind: kind, FreqHz: f, GainDB: g, Q: q}
						c, err := Design(spec, rate)
						require.NoError(t, err, "%s %g Hz gain %g Q %g at %g Hz", kind, f, g, q, rate)

						for _, p := range c.Poles() {
							require.Less(t, cmplx.Abs(p), 1.0, "%s %g Hz gain %g Q %g at %g Hz", kind, f, g, q, rate)
						}
					}
				}
			}
		}
	}
}

func TestDesign_RejectsNonPositiveQ(t *testing.T) {
	for _, kind := range allKinds {
		for _, q := range []float64{0, -1} {
			_, err := Design(Spec{Kind: kind, FreqHz: 1000, Q: q}, 48000)
			assert.ErrorIs(t, err, ErrInvalidQ, "%s Q %g", kind, q)
		}
	}
}

func TestDesign_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		rate float64
		want error
	}{
		{"zero rate", Spec{Kind: Peak, FreqHz: 1000, Q: 1}, 0, ErrInvalidRate},
		{"negative rate", Spec{Kind: Peak, FreqHz: 1000, Q: 1}, -48000, ErrInvalidRate},
		{"NaN frequency", Spec{Kind: Peak, FreqHz: math.NaN(), Q: 1}, 48000, ErrNonFinite},
		{"infinite gain", Spec{Kind: Peak, FreqHz: 1000, GainDB: math.Inf(1), Q: 1}, 48000, ErrNonFinite},
		{"unknown kind", Spec{Kind: Kind(42), FreqHz: 1000, Q: 1}, 48000, ErrUnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Design(tt.spec, tt.rate)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDesign_ClampsFrequency(t *testing.T) {
	const rate = 48000

	for _, kind := range allKinds {
		low, err := Design(Spec{Kind: kind, FreqHz: 0, GainDB: 3, Q: 1}, rate)
		require.NoError(t, err)
		below, err := Design(Spec{Kind: kind, FreqHz: -50, GainDB: 3, Q: 1}, rate)
		require.NoError(t, err)
		assert.Equal(t, low, below, kind.String())

		nyquist, err := Design(Spec{Kind: kind, FreqHz: rate / 2, GainDB: 3, Q: 1}, rate)
		require.NoError(t, err)
		above, err := Design(Spec{Kind: kind, FreqHz: 5 * rate, GainDB: 3, Q: 1}, rate)
		require.NoError(t, err)
		assert.Equal(t, nyquist, above, kind.String())
	}
}

func TestDesign_ZeroGainPeakIsIdentity(t *testing.T) {
	c, err := Design(Spec{Kind: Peak, FreqHz: 1000, GainDB: 0, Q: 1.41}, 48000)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, c.B0, eps)
	assert.InDelta(t, c.A1, c.B1, eps)
	assert.InDelta(t, c.A2, c.B2, eps)

	for _, f := range []float64{20, 100, 1000, 5000, 20000} {
		assert.InDelta(t, 0.0, c.MagnitudeDB(f, 48000), 1e-9, "%g Hz", f)
	}
}

func TestDesign_ReferenceGains(t *testing.T) {
	const rate = 48000

	tests := []struct {
		name   string
		spec   Spec
		freq   float64
		wantDB float64
	}{
		{"peak center", Spec{Kind: Peak, FreqHz: 1000, GainDB: 6, Q: 1}, 1000, 6},
		{"peak cut center", Spec{Kind: Peak, FreqHz: 250, GainDB: -9, Q: 4}, 250, -9},
		{"low shelf DC", Spec{Kind: LowShelf, FreqHz: 100, GainDB: 4, Q: 0.707}, 0, 4},
		{"high shelf nyquist", Spec{Kind: HighShelf, FreqHz: 8000, GainDB: -5, Q: 0.707}, rate / 2, -5},
		{"low pass DC", Spec{Kind: LowPass, FreqHz: 2000, Q: 0.707}, 0, 0},
		{"high pass nyquist", Spec{Kind: HighPass, FreqHz: 200, Q: 0.707}, rate / 2, 0},
		{"band pass center", Spec{Kind: BandPass, FreqHz: 1000, Q: 2}, 1000, 20 * math.Log10(2)},
		{"all pass", Spec{Kind: AllPass, FreqHz: 1000, Q: 0.707}, 3000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Design(tt.spec, rate)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantDB, c.MagnitudeDB(tt.freq, rate), 1e-6)
		})
	}
}

func TestDesign_NotchRejectsCenter(t *testing.T) {
	c, err := Design(Spec{Kind: Notch, FreqHz: 1000, Q: 5}, 48000)
	require.NoError(t, err)
	assert.Less(t, c.MagnitudeDB(1000, 48000), -100.0)
	assert.InDelta(t, 0.0, c.MagnitudeDB(0, 48000), 1e-9)
}

func TestDesign_GainIgnoredWithoutGainParameter(t *testing.T) {
	for _, kind := range allKinds {
		if kind.HasGain() {
			continue
		}
		flat, err := Design(Spec{Kind: kind, FreqHz: 1000, Q: 1}, 48000)
		require.NoError(t, err)
		boosted, err := Design(Spec{Kind: kind, FreqHz: 1000, GainDB: 12, Q: 1}, 48000)
		require.NoError(t, err)
		assert.Equal(t, flat, boosted, kind.String())
	}
}

func TestDesignError(t *testing.T) {
	spec := Spec{Enabled: true, Kind: Peak, FreqHz: 100, GainDB: 3, Q: 0}
	_, err := Design(spec, 48000)
	de := &DesignError{Index: 2, Spec: spec, Err: err}

	assert.ErrorIs(t, de, ErrInvalidQ)
	assert.Contains(t, de.Error(), "filter 3")
	assert.Contains(t, de.Error(), "Peak")
}

func TestBandwidthToQ(t *testing.T) {
	tests := []struct {
		octaves float64
		want    float64
	}{
		{1, math.Sqrt2},
		{2, 2.0 / 3.0},
		{1.0 / 3.0, 4.3184},
		{0, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%g octaves", tt.octaves), func(t *testing.T) {
			assert.InDelta(t, tt.want, BandwidthToQ(tt.octaves), 1e-4)
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		token string
		want  Kind
		ok    bool
	}{
		{"PK", Peak, true},
		{"pk", Peak, true},
		{"LSC", LowShelf, true},
		{"LS", LowShelf, true},
		{"HSC", HighShelf, true},
		{"LPQ", LowPass, true},
		{"HP", HighPass, true},
		{"BP", BandPass, true},
		{"NO", Notch, true},
		{"AP", AllPass, true},
		{"XX", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := ParseKind(tt.token)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestKind_CodeRoundTrip(t *testing.T) {
	for _, kind := range allKinds {
		got, ok := ParseKind(kind.Code())
		require.True(t, ok, kind.String())
		assert.Equal(t, kind, got)
	}
	assert.Equal(t, "Unknown", Kind(-1).String())
	assert.Equal(t, "??", Kind(99).Code())
}
