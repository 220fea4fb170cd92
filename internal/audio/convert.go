package audio

import (
	"encoding/binary"
	"math"
)

// decodeFloat32 reads little-endian float32 samples from src into dst and
// returns how many were decoded.
func decodeFloat32(dst []float32, src []byte) int {
	n := min(len(dst), len(src)/4)
	for i := 0; i < n; i++ {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
	return n
}

// encodeFloat32 writes samples to dst as little-endian float32, clamped to
// [-1, 1].
func encodeFloat32(dst []byte, src []float32) int {
	n := min(len(src), len(dst)/4)
	for i := 0; i < n; i++ {
		clamped := max(-1, min(1, src[i]))
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(clamped))
	}
	return n * 4
}
