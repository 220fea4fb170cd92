package source

import "math"

// Tone is an endless sine wave.
type Tone struct {
	step      float64
	amplitude float64
	phase     float64
}

func NewTone(freqHz, amplitude, sampleRate float64) *Tone {
	return &Tone{
		step:      2 * math.Pi * freqHz / sampleRate,
		amplitude: amplitude,
	}
}

func (t *Tone) ReadFrames(buf []float32, channels int) (int, error) {
	frames := len(buf) / channels
	for i := 0; i < frames; i++ {
		v := float32(t.amplitude * math.Sin(t.phase))
		for ch := 0; ch < channels; ch++ {
			buf[i*channels+ch] = v
		}
		t.phase = math.Mod(t.phase+t.step, 2*math.Pi)
	}
	return frames, nil
}
