package engine

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/agusx1211/eqlayer/internal/filter"
	"github.com/agusx1211/eqlayer/internal/profile"
)

// DefaultCrossfade is the ramp between an outgoing and an incoming chain.
const DefaultCrossfade = 5 * time.Millisecond

var (
	ErrRateMismatch    = errors.New("engine: chain sample rate does not match engine")
	ErrChannelMismatch = errors.New("engine: chain channel count does not match engine")
	ErrNilChain        = errors.New("engine: nil chain")
	ErrChainReused     = errors.New("engine: chain was already installed")
)

// Stats are running counters, safe to read from any goroutine.
type Stats struct {
	Blocks      uint64
	Passthrough uint64
	Installs    uint64
	Rejected    uint64
	Crossfades  uint64
}

// Engine runs the active filter chain on the audio callback.
//
// Process is called from the realtime audio goroutine; every other method is
// for the control side. The two only meet at an atomic chain pointer and a
// few atomic flags, so neither side can block the other.
type Engine struct {
	sampleRate float64
	channels   int
	maxFrames  int
	fadeFrames int

	current  atomic.Pointer[filter.Chain]
	bypass   atomic.Bool
	resetReq atomic.Bool

	blocks      atomic.Uint64
	passthrough atomic.Uint64
	installs    atomic.Uint64
	rejected    atomic.Uint64
	crossfades  atomic.Uint64

	// owned by the audio goroutine
	active   *filter.Chain
	retiring *filter.Chain
	fadePos  int
	fadeBuf  []float32
}

type options struct {
	crossfade time.Duration
	maxFrames int
}

// Option configures an Engine.
type Option func(*options)

// WithCrossfade sets the crossfade window applied when a new chain is
// installed. Zero swaps chains instantly at the next block.
func WithCrossfade(d time.Duration) Option {
	return func(o *options) { o.crossfade = d }
}

// WithMaxFrames sets the size of the preallocated block buffers.
func WithMaxFrames(n int) Option {
	return func(o *options) { o.maxFrames = n }
}

// New creates an engine for a fixed sample rate and channel count. Until a
// chain is installed the engine passes audio through unchanged.
func New(sampleRate float64, channels int, opts ...Option) (*Engine, error) {
	if sampleRate <= 0 {
		return nil, filter.ErrInvalidRate
	}
	if channels <= 0 {
		return nil, filter.ErrInvalidChannels
	}

	o := options{crossfade: DefaultCrossfade, maxFrames: filter.DefaultMaxFrames}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxFrames <= 0 {
		o.maxFrames = filter.DefaultMaxFrames
	}
	if o.crossfade < 0 {
		o.crossfade = 0
	}

	return &Engine{
		sampleRate: sampleRate,
		channels:   channels,
		maxFrames:  o.maxFrames,
		fadeFrames: int(o.crossfade.Seconds() * sampleRate),
		fadeBuf:    make([]float32, o.maxFrames*channels),
	}, nil
}

// SampleRate returns the rate the engine was created for.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// Channels returns the channel count the engine was created for.
func (e *Engine) Channels() int { return e.channels }

// Format returns the layout chains must be compiled for.
func (e *Engine) Format() filter.Format {
	return filter.Format{SampleRate: e.sampleRate, Channels: e.channels, MaxFrames: e.maxFrames}
}

// Compile builds a chain for this engine's format from p.
func (e *Engine) Compile(p *profile.Profile) (*filter.Chain, []*filter.DesignError, error) {
	return filter.Compile(p.PreampDB, p.Filters, e.Format())
}

// Install publishes c as the chain for the next audio block. A chain built
// for another format is rejected and the current chain stays active.
func (e *Engine) Install(c *filter.Chain) error {
	if c == nil {
		e.rejected.Add(1)
		return ErrNilChain
	}
	if c.SampleRate() != e.sampleRate {
		e.rejected.Add(1)
		return fmt.Errorf("%w: chain %g Hz, engine %g Hz", ErrRateMismatch, c.SampleRate(), e.sampleRate)
	}
	if c.Channels() != e.channels {
		e.rejected.Add(1)
		return fmt.Errorf("%w: chain %d, engine %d", ErrChannelMismatch, c.Channels(), e.channels)
	}
	if !c.Claim() {
		e.rejected.Add(1)
		return ErrChainReused
	}

	e.current.Store(c)
	e.installs.Add(1)
	return nil
}

// Current returns the most recently installed chain, or nil. The returned
// chain belongs to the audio goroutine and must only be inspected.
func (e *Engine) Current() *filter.Chain {
	return e.current.Load()
}

// SetBypass switches the equalizer off (true) or on (false).
func (e *Engine) SetBypass(on bool) { e.bypass.Store(on) }

// Bypassed reports whether audio currently passes through unfiltered.
func (e *Engine) Bypassed() bool { return e.bypass.Load() }

// RequestReset asks the audio goroutine to clear the filter state at the
// start of the next block.
func (e *Engine) RequestReset() { e.resetReq.Store(true) }

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Blocks:      e.blocks.Load(),
		Passthrough: e.passthrough.Load(),
		Installs:    e.installs.Load(),
		Rejected:    e.rejected.Load(),
		Crossfades:  e.crossfades.Load(),
	}
}

// Process filters frames of interleaved audio in place. It is the realtime
// entry point: it takes no locks, does no I/O and does not allocate. When it
// cannot filter (unexpected channel count, no chain, bypass) the buffer is
// left untouched.
func (e *Engine) Process(buf []float32, frames, channels int) {
	e.blocks.Add(1)

	if channels != e.channels || frames <= 0 || len(buf) < frames*channels {
		e.passthrough.Add(1)
		return
	}
	buf = buf[:frames*channels]

	// one load per block: every sample of this block sees the same chain.
	// A chain published mid-fade is picked up once the fade completes.
	next := e.current.Load()
	if next != e.active && e.retiring == nil {
		if e.active != nil && next != nil && e.fadeFrames > 0 {
			e.retiring = e.active
			e.fadePos = 0
			e.crossfades.Add(1)
		}
		e.active = next
	}

	if e.resetReq.CompareAndSwap(true, false) {
		if e.active != nil {
			e.active.Reset()
		}
		e.retiring = nil
	}

	if e.active == nil || e.bypass.Load() {
		e.retiring = nil
		e.passthrough.Add(1)
		return
	}

	if e.retiring == nil {
		e.active.ProcessInterleaved(buf, frames)
		return
	}
	e.crossfade(buf, frames)
}

// crossfade runs the retiring and the active chain side by side and ramps
// linearly from one to the other. The ramp may span several blocks.
func (e *Engine) crossfade(buf []float32, frames int) {
	channels := e.channels

	for off := 0; off < frames; {
		if e.retiring == nil {
			e.active.ProcessInterleaved(buf[off*channels:], frames-off)
			return
		}

		n := min(frames-off, e.maxFrames)
		block := buf[off*channels : (off+n)*channels]
		old := e.fadeBuf[:len(block)]
		copy(old, block)

		e.retiring.ProcessInterleaved(old, n)
		e.active.ProcessInterleaved(block, n)

		for i := 0; i < n && e.fadePos < e.fadeFrames; i++ {
			t := float32(e.fadePos+1) / float32(e.fadeFrames)
			for ch := 0; ch < channels; ch++ {
				j := i*channels + ch
				block[j] = old[j]*(1-t) + block[j]*t
			}
			e.fadePos++
		}

		if e.fadePos >= e.fadeFrames {
			e.retiring = nil
		}
		off += n
	}
}
