// Package lfsr provides maximal-length linear feedback shift registers for
// pseudo-random victim selection.
package lfsr

import "math/bits"

// Feedback tap positions per register width, in the source's descending bit
// order (position 0 is the top of the register). The XOR of the tapped bits
// forms the bit shifted back in.
var tapPositions = map[int][]int{
	3: {2, 0},
	4: {3, 0},
	5: {4, 3, 1, 0},
	6: {5, 4, 3, 2},
	7: {6, 5, 4, 3, 2},
	8: {7, 6, 5, 4, 3, 2},
	9: {8, 6, 5, 4, 3, 2},
}

// seed is the fixed reset value. The all-zero state is a fixed point of any
// LFSR and must never be reachable, so the register always restarts from a
// nonzero pattern.
const seed = 0x2

// A Register is a free-running Fibonacci LFSR. It is process-wide state,
// not per-set: when used for victim selection it approximates randomness
// without targeting any particular set's contents.
type Register struct {
	width    int
	feedback uint32
	value    uint32
}

// New creates a register of the given width. Only widths 3 through 9 have
// defined feedback polynomials; any other width panics.
func New(width int) *Register {
	positions, ok := tapPositions[width]
	if !ok {
		panic("lfsr: width must be between 3 and 9")
	}

	feedback := uint32(0)
	for _, p := range positions {
		feedback |= 1 << uint(width-1-p)
	}

	r := &Register{
		width:    width,
		feedback: feedback,
		value:    seed,
	}

	return r
}

// Width returns the register width in bits.
func (r *Register) Width() int {
	return r.width
}

// Value returns the current register contents.
func (r *Register) Value() uint32 {
	return r.value
}

// Step advances the register by one cycle: the contents shift right by one
// bit and the vacated top bit is the XOR-reduction of the tapped bits.
func (r *Register) Step() {
	top := uint32(bits.OnesCount32(r.value&r.feedback) & 1)
	r.value = r.value>>1 | top<<uint(r.width-1)
}

// Output interprets the low bits of the register as a way index in
// [0, numWays). numWays must be a power of two.
func (r *Register) Output(numWays int) int {
	return int(r.value) & (numWays - 1)
}

// Reset returns the register to the fixed seed.
func (r *Register) Reset() {
	r.value = seed
}
