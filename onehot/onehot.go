// Package onehot converts between one-hot way vectors and binary way
// indices, and scans validity masks for the first invalid way.
package onehot

import "math/bits"

// Mask returns a bitmask covering the low numWays bits.
func Mask(numWays int) uint64 {
	if numWays >= 64 {
		return ^uint64(0)
	}

	return 1<<uint(numWays) - 1
}

// IsOneHot reports whether v has exactly one bit set.
func IsOneHot(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}

// Encode returns the binary index of the single set bit in v, considering
// only the low numWays bits. Callers must guarantee a one-hot input; a zero
// or multi-hot vector encodes to index 0.
func Encode(v uint64, numWays int) int {
	v &= Mask(numWays)
	if !IsOneHot(v) {
		return 0
	}

	return bits.TrailingZeros64(v)
}

// Decode returns the one-hot vector with only bit index set.
func Decode(index, numWays int) uint64 {
	if index < 0 || index >= numWays {
		panic("way index out of range")
	}

	return 1 << uint(index)
}

// ScanInvalid scans validWay over numWays ways for invalid ways. It returns
// the lowest-indexed invalid way in one-hot and binary form, and whether
// every way is valid. When allValid is true the other two returns are zero
// and must not be consulted.
func ScanInvalid(validWay uint64, numWays int) (
	firstOneHot uint64,
	firstIndex int,
	allValid bool,
) {
	invalid := ^validWay & Mask(numWays)
	if invalid == 0 {
		return 0, 0, true
	}

	firstIndex = bits.TrailingZeros64(invalid)
	firstOneHot = 1 << uint(firstIndex)

	return firstOneHot, firstIndex, false
}
