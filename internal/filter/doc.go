// Package filter designs and runs the biquad stages of the equalizer.
//
// [Design] turns a band [Spec] into normalized [Coefficients] using the RBJ
// audio EQ cookbook. A [Section] runs one stage in transposed direct form II
// with separate state per channel, and a [Chain] cascades a preamp and any
// number of sections over interleaved float32 blocks.
package filter
