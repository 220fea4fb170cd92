package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloat32RoundTrip(t *testing.T) {
	samples := []float32{0, 0.5, -0.25, 1, -1, 0.123456}
	raw := make([]byte, len(samples)*4)
	assert.Equal(t, len(raw), encodeFloat32(raw, samples))

	decoded := make([]float32, len(samples))
	assert.Equal(t, len(samples), decodeFloat32(decoded, raw))
	assert.Equal(t, samples, decoded)
}

func TestEncodeFloat32_Clamps(t *testing.T) {
	raw := make([]byte, 12)
	encodeFloat32(raw, []float32{1.5, -3, 0.75})

	decoded := make([]float32, 3)
	decodeFloat32(decoded, raw)
	assert.Equal(t, []float32{1, -1, 0.75}, decoded)
}

func TestConvert_ShortBuffers(t *testing.T) {
	assert.Equal(t, 4, encodeFloat32(make([]byte, 6), []float32{0.1, 0.2}))
	assert.Equal(t, 1, decodeFloat32(make([]float32, 4), make([]byte, 7)))
}
