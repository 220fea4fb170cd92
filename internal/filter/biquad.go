package filter

import (
	"math"
	"math/cmplx"
)

// Coefficients of one second-order section, normalized so that a0 = 1.
//
//	y  = B0*x + z1
//	z1 = B1*x - A1*y + z2
//	z2 = B2*x - A2*y
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Identity returns coefficients that pass the input through unchanged.
func Identity() Coefficients {
	return Coefficients{B0: 1}
}

// Poles returns the roots of 1 + A1*z^-1 + A2*z^-2.
func (c Coefficients) Poles() [2]complex128 {
	disc := cmplx.Sqrt(complex(c.A1*c.A1-4*c.A2, 0))
	return [2]complex128{
		(complex(-c.A1, 0) + disc) / 2,
		(complex(-c.A1, 0) - disc) / 2,
	}
}

// Stable reports whether both poles lie strictly inside the unit circle.
// It uses the stability triangle |A2| < 1, |A1| < 1 + A2.
func (c Coefficients) Stable() bool {
	return math.Abs(c.A2) < 1 && math.Abs(c.A1) < 1+c.A2
}

// state is the transposed direct form II delay pair of one channel.
type state struct {
	z1, z2 float64
}

// Section is one biquad stage with independent state per channel.
// The state is owned by whoever processes audio through the section.
type Section struct {
	Coefficients

	state []state
}

// NewSection returns a Section with zeroed state for the given channel count.
func NewSection(c Coefficients, channels int) *Section {
	return &Section{Coefficients: c, state: make([]state, channels)}
}

// Channels returns the number of independent state pairs.
func (s *Section) Channels() int {
	return len(s.state)
}

// ProcessSample filters one sample of channel ch.
func (s *Section) ProcessSample(ch int, x float64) float64 {
	st := &s.state[ch]
	y := s.B0*x + st.z1
	st.z1 = s.B1*x - s.A1*y + st.z2
	st.z2 = s.B2*x - s.A2*y
	return y
}

// ProcessBlock filters a planar block of channel ch in place.
func (s *Section) ProcessBlock(ch int, buf []float64) {
	b0, b1, b2 := s.B0, s.B1, s.B2
	a1, a2 := s.A1, s.A2
	z1, z2 := s.state[ch].z1, s.state[ch].z2

	for i, x := range buf {
		y := b0*x + z1
		z1 = b1*x - a1*y + z2
		z2 = b2*x - a2*y
		buf[i] = y
	}

	s.state[ch].z1, s.state[ch].z2 = z1, z2
}

// State returns the delay pair of channel ch.
func (s *Section) State(ch int) [2]float64 {
	return [2]float64{s.state[ch].z1, s.state[ch].z2}
}

// Reset clears the state of every channel.
func (s *Section) Reset() {
	for i := range s.state {
		s.state[i] = state{}
	}
}
