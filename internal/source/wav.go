package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV streams PCM frames from a WAV file.
type WAV struct {
	file     *os.File
	decoder  *wav.Decoder
	format   *audio.Format
	scale    float32
	intBuf   *audio.IntBuffer
	finished bool
}

// OpenWAV opens path and validates its header.
func OpenWAV(path string) (*WAV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		_ = f.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	format := d.Format()
	if format == nil || format.NumChannels <= 0 || d.BitDepth == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("unsupported WAV format: %s", path)
	}

	return &WAV{
		file:    f,
		decoder: d,
		format:  format,
		scale:   1 / float32(int64(1)<<(d.BitDepth-1)),
		intBuf:  &audio.IntBuffer{Format: format},
	}, nil
}

// SampleRate returns the file's sample rate in Hz.
func (w *WAV) SampleRate() int { return w.format.SampleRate }

// Channels returns the file's channel count.
func (w *WAV) Channels() int { return w.format.NumChannels }

// ReadFrames decodes the next frames into buf. A mono file is copied to all
// output channels; extra file channels are dropped and missing ones are
// silent.
func (w *WAV) ReadFrames(buf []float32, channels int) (int, error) {
	if w.finished {
		return 0, io.EOF
	}

	frames := len(buf) / channels
	fileChannels := w.format.NumChannels
	want := frames * fileChannels
	if cap(w.intBuf.Data) < want {
		w.intBuf.Data = make([]int, want)
	}
	w.intBuf.Data = w.intBuf.Data[:want]

	n, err := w.decoder.PCMBuffer(w.intBuf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("decode wav: %w", err)
	}
	got := n / fileChannels
	if got == 0 {
		w.finished = true
		return 0, io.EOF
	}

	for i := 0; i < got; i++ {
		frame := w.intBuf.Data[i*fileChannels : (i+1)*fileChannels]
		for ch := 0; ch < channels; ch++ {
			var v float32
			switch {
			case fileChannels == 1:
				v = float32(frame[0]) * w.scale
			case ch < fileChannels:
				v = float32(frame[ch]) * w.scale
			}
			buf[i*channels+ch] = v
		}
	}
	return got, nil
}

// Close releases the underlying file.
func (w *WAV) Close() error {
	return w.file.Close()
}
