// Package source provides signals that can be played through the equalizer
// when no capture device is used.
package source

import (
	"fmt"
	"strings"
)

// Source produces interleaved float32 frames.
type Source interface {
	// ReadFrames fills buf with whole frames and returns how many were
	// written. It returns io.EOF once a finite source is exhausted.
	ReadFrames(buf []float32, channels int) (int, error)
}

// Open resolves a source name: a noise color, "tone[:<hz>]", or the path of
// a WAV file.
func Open(name string, sampleRate float64) (Source, error) {
	switch {
	case name == string(White) || name == string(Pink) || name == string(Brown):
		return NewNoise(Color(name), 0.25, 1), nil
	case name == "tone":
		return NewTone(1000, 0.25, sampleRate), nil
	case strings.HasPrefix(name, "tone:"):
		var freq float64
		if _, err := fmt.Sscanf(name, "tone:%g", &freq); err != nil || freq <= 0 {
			return nil, fmt.Errorf("invalid tone %q", name)
		}
		return NewTone(freq, 0.25, sampleRate), nil
	default:
		return OpenWAV(name)
	}
}
