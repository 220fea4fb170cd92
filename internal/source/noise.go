package source

import (
	"fmt"
	"math/rand"
)

type Color string

const (
	White Color = "white"
	Pink  Color = "pink"
	Brown Color = "brown"
)

// ParseColor maps a configuration value to a noise color.
func ParseColor(s string) (Color, error) {
	switch c := Color(s); c {
	case White, Pink, Brown:
		return c, nil
	}
	return "", fmt.Errorf("unknown noise color %q", s)
}

// pinkCoeffs are the pole factors of the Kellet-style pink filter.
var pinkCoeffs = [7]float64{0.1294, 0.1875, 0.2414, 0.3026, 0.3830, 0.4962, 0.7195}

// Noise generates endless mono noise, copied to every channel. It is used to
// audition a profile with a full-spectrum signal.
type Noise struct {
	color  Color
	volume float64
	rng    *rand.Rand
	pink   [7]float64
	brown  float64
}

// NewNoise returns a noise source. The seed makes the sequence reproducible.
func NewNoise(color Color, volume float64, seed int64) *Noise {
	return &Noise{
		color:  color,
		volume: volume,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Reseed restarts the random sequence from seed.
// It must not run concurrently with ReadFrames.
func (n *Noise) Reseed(seed int64) {
	n.rng = rand.New(rand.NewSource(seed))
}

// ReadFrames fills buf with as many whole frames as fit. It never ends.
func (n *Noise) ReadFrames(buf []float32, channels int) (int, error) {
	frames := len(buf) / channels
	for i := 0; i < frames; i++ {
		v := float32(n.next() * n.volume)
		for ch := 0; ch < channels; ch++ {
			buf[i*channels+ch] = v
		}
	}
	return frames, nil
}

func (n *Noise) next() float64 {
	white := n.rng.Float64()*2 - 1

	switch n.color {
	case Pink:
		sum := 0.0
		for i, c := range pinkCoeffs {
			n.pink[i] += c * (white - n.pink[i])
			sum += n.pink[i]
		}
		return sum / 2.5
	case Brown:
		n.brown = (n.brown + 0.02*white) / 1.02
		return n.brown * 3.5
	default:
		return white
	}
}
