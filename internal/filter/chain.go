package filter

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/tphakala/simd/f64"
)

// DefaultMaxFrames is the scratch capacity used when Format.MaxFrames is unset.
const DefaultMaxFrames = 4096

var ErrInvalidChannels = errors.New("filter: channel count must be positive")

// Format is the stream layout a chain is compiled for.
type Format struct {
	SampleRate float64
	Channels   int
	// MaxFrames bounds the scratch buffers. Longer blocks are processed in
	// chunks, so it only affects efficiency.
	MaxFrames int
}

// Chain is a preamp followed by a cascade of biquad sections.
//
// A chain is processed by one goroutine at a time. Compile allocates every
// buffer it needs, so ProcessInterleaved never allocates.
type Chain struct {
	format   Format
	preampDB float64
	preamp   float64
	sections []*Section
	scratch  [][]float64
	claimed  atomic.Bool
}

// Compile builds a fresh chain from an ordered list of band specs.
//
// Disabled specs are skipped. Specs that cannot be designed are dropped and
// reported; the remaining bands keep their relative order. err is non-nil
// only when the format itself is unusable.
func Compile(preampDB float64, specs []Spec, format Format) (chain *Chain, dropped []*DesignError, err error) {
	if !isFinite(format.SampleRate) || format.SampleRate <= 0 {
		return nil, nil, ErrInvalidRate
	}
	if format.Channels <= 0 {
		return nil, nil, ErrInvalidChannels
	}
	if !isFinite(preampDB) {
		return nil, nil, fmt.Errorf("preamp %v dB: %w", preampDB, ErrNonFinite)
	}
	if format.MaxFrames <= 0 {
		format.MaxFrames = DefaultMaxFrames
	}

	c := &Chain{
		format:   format,
		preampDB: preampDB,
		preamp:   DBToLinear(preampDB),
		sections: make([]*Section, 0, len(specs)),
		scratch:  make([][]float64, format.Channels),
	}
	for ch := range c.scratch {
		c.scratch[ch] = make([]float64, format.MaxFrames)
	}

	for i, spec := range specs {
		if !spec.Enabled {
			continue
		}
		coeffs, err := Design(spec, format.SampleRate)
		if err != nil {
			dropped = append(dropped, &DesignError{Index: i, Spec: spec, Err: err})
			continue
		}
		c.sections = append(c.sections, NewSection(coeffs, format.Channels))
	}

	return c, dropped, nil
}

// Passthrough returns a chain with unity preamp and no sections.
func Passthrough(format Format) (*Chain, error) {
	c, _, err := Compile(0, nil, format)
	return c, err
}

// Format returns the stream layout the chain was compiled for.
func (c *Chain) Format() Format { return c.format }

// SampleRate returns the sample rate the coefficients were designed for.
func (c *Chain) SampleRate() float64 { return c.format.SampleRate }

// Channels returns the number of independent channel states.
func (c *Chain) Channels() int { return c.format.Channels }

// PreampDB returns the preamp gain in dB.
func (c *Chain) PreampDB() float64 { return c.preampDB }

// NumSections returns the number of active biquad stages.
func (c *Chain) NumSections() int { return len(c.sections) }

// Section returns the i-th stage in cascade order.
func (c *Chain) Section(i int) *Section { return c.sections[i] }

// Claim marks the chain as taken by an engine. It returns false if the chain
// was claimed before, so a retired chain and its state are never reused.
func (c *Chain) Claim() bool {
	return c.claimed.CompareAndSwap(false, true)
}

// ProcessInterleaved filters frames of interleaved samples in place.
// Samples are converted to float64 for the whole cascade and back on output.
func (c *Chain) ProcessInterleaved(buf []float32, frames int) {
	channels := c.format.Channels
	maxFrames := c.format.MaxFrames

	for off := 0; off < frames; off += maxFrames {
		n := min(frames-off, maxFrames)
		block := buf[off*channels : (off+n)*channels]

		for ch := 0; ch < channels; ch++ {
			planar := c.scratch[ch][:n]
			for i := range planar {
				planar[i] = float64(block[i*channels+ch])
			}

			c.processPlanar(ch, planar)

			for i, y := range planar {
				block[i*channels+ch] = float32(y)
			}
		}
	}
}

// ProcessPlanar filters one channel of float64 samples in place.
func (c *Chain) ProcessPlanar(ch int, buf []float64) {
	c.processPlanar(ch, buf)
}

func (c *Chain) processPlanar(ch int, buf []float64) {
	if c.preamp != 1 {
		f64.Scale(buf, buf, c.preamp)
	}
	for _, s := range c.sections {
		s.ProcessBlock(ch, buf)
	}
}

// ProcessSample feeds a single sample of channel ch through preamp and cascade.
func (c *Chain) ProcessSample(ch int, x float64) float64 {
	x *= c.preamp
	for _, s := range c.sections {
		x = s.ProcessSample(ch, x)
	}
	return x
}

// Reset clears the state of every section.
func (c *Chain) Reset() {
	for _, s := range c.sections {
		s.Reset()
	}
}

// ImpulseResponse returns n samples of the cascade impulse response. It runs
// on private copies of the sections, so the chain's own state is untouched.
func (c *Chain) ImpulseResponse(n int) []float64 {
	if n <= 0 {
		return nil
	}
	ir := make([]float64, n)
	ir[0] = c.preamp
	for _, s := range c.sections {
		NewSection(s.Coefficients, 1).ProcessBlock(0, ir)
	}
	return ir
}

// DBToLinear converts a gain in dB to an amplitude factor.
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}
