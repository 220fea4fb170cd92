package audio

import "sync/atomic"

// Ring is a lock-free single-producer single-consumer queue of interleaved
// frames. The capture callback writes and the playback callback reads;
// neither blocks. Writes and reads move whole frames only, so an overflow
// or underrun never shifts the channel order.
type Ring struct {
	buf   []float32
	mask  uint64
	frame uint64
	read  atomic.Uint64
	write atomic.Uint64
}

// NewRing returns a ring holding at least size samples of frames with the
// given channel count.
func NewRing(size, channels int) *Ring {
	if channels < 1 {
		channels = 1
	}
	size = max(size, channels)
	capacity := 1
	for capacity < size {
		capacity <<= 1
	}
	return &Ring{
		buf:   make([]float32, capacity),
		mask:  uint64(capacity - 1),
		frame: uint64(channels),
	}
}

// Cap returns the number of samples the ring can hold.
func (r *Ring) Cap() int { return int(r.frames(uint64(len(r.buf)))) }

// Len returns the number of queued samples.
func (r *Ring) Len() int {
	return int(r.write.Load() - r.read.Load())
}

// frames rounds n down to a whole number of frames.
func (r *Ring) frames(n uint64) uint64 {
	return n - n%r.frame
}

func (r *Ring) free(w uint64) uint64 {
	return r.frames(uint64(len(r.buf))) - (w - r.read.Load())
}

// Write queues as many whole frames as fit and returns the number of
// samples written. Frames that do not fit are dropped.
func (r *Ring) Write(samples []float32) int {
	w := r.write.Load()
	n := r.frames(min(uint64(len(samples)), r.free(w)))
	for i := uint64(0); i < n; i++ {
		r.buf[(w+i)&r.mask] = samples[i]
	}
	r.write.Store(w + n)
	return int(n)
}

// Read dequeues up to len(out) samples in whole frames and returns the count.
func (r *Ring) Read(out []float32) int {
	rd := r.read.Load()
	avail := r.write.Load() - rd
	n := r.frames(min(uint64(len(out)), avail))
	for i := uint64(0); i < n; i++ {
		out[i] = r.buf[(rd+i)&r.mask]
	}
	r.read.Store(rd + n)
	return int(n)
}

// Prefill queues up to n samples of silence in whole frames. It is used to
// set the initial capture-to-playback latency.
func (r *Ring) Prefill(n int) int {
	w := r.write.Load()
	m := r.frames(min(uint64(max(n, 0)), r.free(w)))
	for i := uint64(0); i < m; i++ {
		r.buf[(w+i)&r.mask] = 0
	}
	r.write.Store(w + m)
	return int(m)
}
