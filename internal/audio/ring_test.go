package audio

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRing_RoundsUpToPowerOfTwo(t *testing.T) {
	tests := []struct {
		size, want int
	}{
		{0, 1},
		{1, 1},
		{3, 4},
		{1024, 1024},
		{1025, 2048},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewRing(tt.size, 1).Cap(), "size %d", tt.size)
	}
}

func TestRing_WriteRead(t *testing.T) {
	r := NewRing(8, 1)

	assert.Equal(t, 3, r.Write([]float32{1, 2, 3}))
	assert.Equal(t, 3, r.Len())

	out := make([]float32, 2)
	assert.Equal(t, 2, r.Read(out))
	assert.Equal(t, []float32{1, 2}, out)
	assert.Equal(t, 1, r.Len())

	out = make([]float32, 4)
	assert.Equal(t, 1, r.Read(out))
	assert.Equal(t, float32(3), out[0])
	assert.Zero(t, r.Read(out))
}

func TestRing_DropsOverflow(t *testing.T) {
	r := NewRing(4, 1)
	assert.Equal(t, 4, r.Write([]float32{1, 2, 3, 4, 5, 6}))
	assert.Zero(t, r.Write([]float32{7}))

	out := make([]float32, 8)
	require.Equal(t, 4, r.Read(out))
	assert.Equal(t, []float32{1, 2, 3, 4}, out[:4])
}

func TestRing_WrapsAround(t *testing.T) {
	r := NewRing(4, 1)
	out := make([]float32, 3)

	for i := 0; i < 10; i++ {
		base := float32(i * 3)
		require.Equal(t, 3, r.Write([]float32{base, base + 1, base + 2}))
		require.Equal(t, 3, r.Read(out))
		require.Equal(t, []float32{base, base + 1, base + 2}, out)
	}
}

func TestRing_Prefill(t *testing.T) {
	r := NewRing(8, 1)
	assert.Equal(t, 5, r.Prefill(5))
	assert.Equal(t, 3, r.Write([]float32{1, 2, 3, 4}))

	out := make([]float32, 8)
	require.Equal(t, 8, r.Read(out))
	assert.Equal(t, []float32{0, 0, 0, 0, 0, 1, 2, 3}, out)

	assert.Equal(t, 8, r.Prefill(20))
}

func TestRing_OverflowKeepsFramesAligned(t *testing.T) {
	const channels = 6
	r := NewRing(32, channels)
	require.Equal(t, 30, r.Cap())

	frame := func(i int) []float32 {
		f := make([]float32, channels)
		for ch := range f {
			f[ch] = float32(i*10 + ch)
		}
		return f
	}

	// a capture period larger than the free space
	var period []float32
	for i := 0; i < 7; i++ {
		period = append(period, frame(i)...)
	}
	assert.Equal(t, 30, r.Write(period))
	assert.Zero(t, r.Write(frame(7)))

	out := make([]float32, channels)
	for i := 0; i < 5; i++ {
		require.Equal(t, channels, r.Read(out))
		assert.Equal(t, frame(i), out, "frame %d", i)
	}
	assert.Zero(t, r.Len())

	// after the overflow the stream continues on frame boundaries
	for i := 8; i < 20; i++ {
		require.Equal(t, channels, r.Write(frame(i)))
		require.Equal(t, channels, r.Read(out))
		assert.Equal(t, frame(i), out, "frame %d", i)
	}
}

func TestRing_PartialFramesAreNotMoved(t *testing.T) {
	r := NewRing(16, 3)

	assert.Equal(t, 3, r.Write([]float32{1, 2, 3, 4, 5}))
	assert.Equal(t, 3, r.Len())

	out := make([]float32, 2)
	assert.Zero(t, r.Read(out))

	assert.Equal(t, 12, r.Prefill(100))
	assert.Equal(t, 15, r.Len())
}

func TestRing_ConcurrentSPSC(t *testing.T) {
	const total = 100000
	r := NewRing(256, 1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		chunk := make([]float32, 37)
		next := 0
		for next < total {
			n := min(len(chunk), total-next)
			for i := 0; i < n; i++ {
				chunk[i] = float32(next + i)
			}
			written := r.Write(chunk[:n])
			next += written
			if written == 0 {
				runtime.Gosched()
			}
		}
	}()

	out := make([]float32, 53)
	want := 0
	for want < total {
		n := r.Read(out)
		for i := 0; i < n; i++ {
			require.Equal(t, float32(want), out[i])
			want++
		}
		if n == 0 {
			runtime.Gosched()
		}
	}
	wg.Wait()
	assert.Zero(t, r.Len())
}
