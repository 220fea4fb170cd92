package audio

import (
	"errors"
	"io"
	"log"
	"sync"
	"time"

	oto "github.com/ebitengine/oto/v3"

	"github.com/agusx1211/eqlayer/internal/source"
)

// Processor transforms interleaved audio in place. It is called on the
// backend's audio goroutine and must not block.
type Processor interface {
	Process(buf []float32, frames, channels int)
}

// Player plays a Source through a Processor on the default output device.
type Player struct {
	context      *oto.Context
	player       *oto.Player
	channels     int
	periodFrames int
	stopChan     chan struct{}
	doneChan     chan struct{}
	stopOnce     sync.Once
}

// NewPlayer opens the default output device. periodFrames is the block size
// handed to the processor; bufferSize is the device-side buffering.
func NewPlayer(sampleRate, channels, periodFrames int, bufferSize time.Duration) (*Player, error) {
	otoContext, readyChan, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	})
	if err != nil {
		return nil, err
	}

	<-readyChan

	return &Player{
		context:      otoContext,
		channels:     channels,
		periodFrames: periodFrames,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}, nil
}

// Start begins pulling blocks from src, filtering them with proc.
func (p *Player) Start(src source.Source, proc Processor) {
	p.player = p.context.NewPlayer(newBlockReader(src, proc, p.channels, p.periodFrames, p.stopChan, p.doneChan))
	p.player.Play()
}

// Done is closed once a finite source has been played to the end.
func (p *Player) Done() <-chan struct{} {
	return p.doneChan
}

func (p *Player) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
		if p.player != nil {
			p.player.Pause()
		}
	})
}

func (p *Player) Close() {
	p.Stop()
	if p.player != nil {
		if err := p.player.Close(); err != nil {
			log.Printf("Failed to close player: %v", err)
		}
	}
}

// blockReader adapts a Source and Processor to the io.Reader oto pulls from.
// All buffers are allocated up front.
type blockReader struct {
	src      source.Source
	proc     Processor
	channels int
	stopChan <-chan struct{}
	doneChan chan struct{}
	samples  []float32
	buffer   []byte
	bufPos   int
	bufLen   int
	eof      bool
}

func newBlockReader(src source.Source, proc Processor, channels, periodFrames int, stop <-chan struct{}, done chan struct{}) *blockReader {
	return &blockReader{
		src:      src,
		proc:     proc,
		channels: channels,
		stopChan: stop,
		doneChan: done,
		samples:  make([]float32, periodFrames*channels),
		buffer:   make([]byte, periodFrames*channels*4),
	}
}

func (r *blockReader) Read(buf []byte) (int, error) {
	totalRead := 0

	for totalRead < len(buf) {
		if r.bufPos >= r.bufLen {
			if r.eof {
				return totalRead, io.EOF
			}

			select {
			case <-r.stopChan:
				return totalRead, nil
			default:
			}

			r.fill()
			continue
		}

		n := copy(buf[totalRead:], r.buffer[r.bufPos:r.bufLen])
		r.bufPos += n
		totalRead += n
	}

	return totalRead, nil
}

func (r *blockReader) fill() {
	frames, err := r.src.ReadFrames(r.samples, r.channels)
	if err != nil && !errors.Is(err, io.EOF) {
		log.Printf("Source error: %v", err)
	}
	if err != nil || frames == 0 {
		r.eof = true
		close(r.doneChan)
	}

	block := r.samples[:frames*r.channels]
	if frames > 0 {
		r.proc.Process(block, frames, r.channels)
	}

	r.bufLen = encodeFloat32(r.buffer, block)
	r.bufPos = 0
}
