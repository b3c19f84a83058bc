// Package plru implements tree-based pseudo-LRU recency tracking for
// set-associative structures.
//
// Each set keeps one bit per internal node of a complete binary tree over
// its ways. Touching a way flips the bits on the root-to-leaf path so that
// they point away from the way; following the bits from the root yields the
// way to evict next. The approximation costs numWays-1 bits per set instead
// of full per-way recency counters.
package plru

import "math/bits"

// A Tree holds the recency state of every set. The per-set state is a
// numWays-1 bit vector in heap order: bit 0 is the root, and the children
// of node i are nodes 2i+1 and 2i+2. A node bit of 1 designates the right
// subtree for the next eviction, 0 the left.
type Tree struct {
	numSets int
	numWays int
	levels  int
	state   []uint64
}

// NewTree creates recency state for numSets sets of numWays ways each.
// numWays must be a power of two no larger than 64.
func NewTree(numSets, numWays int) *Tree {
	if numSets < 1 {
		panic("plru: must have at least one set")
	}

	if numWays < 1 || numWays&(numWays-1) != 0 {
		panic("plru: way count must be a power of two")
	}

	if numWays > 64 {
		panic("plru: way count must not exceed 64")
	}

	t := &Tree{
		numSets: numSets,
		numWays: numWays,
		levels:  bits.Len(uint(numWays)) - 1,
		state:   make([]uint64, numSets),
	}

	return t
}

// NumSets returns the number of sets tracked.
func (t *Tree) NumSets() int {
	return t.numSets
}

// NumWays returns the number of ways per set.
func (t *Tree) NumWays() int {
	return t.numWays
}

// Touch records an access to wayID of set setID. Every node on the
// root-to-leaf path is set to point at the subtree not containing wayID,
// independent of its previous value.
func (t *Tree) Touch(setID, wayID int) {
	t.mustBeValidWay(wayID)

	node := 0
	for level := 0; level < t.levels; level++ {
		if wayID>>uint(t.levels-1-level)&1 == 0 {
			t.state[setID] |= 1 << uint(node)
			node = 2*node + 1
		} else {
			t.state[setID] &^= 1 << uint(node)
			node = 2*node + 2
		}
	}
}

// Victim returns the way that setID currently designates for eviction. It
// walks the tree following each node's bit as a direction; the direction
// bits concatenated along the path form the way index.
func (t *Tree) Victim(setID int) int {
	node := 0
	wayID := 0

	for level := 0; level < t.levels; level++ {
		wayID <<= 1
		if t.state[setID]>>uint(node)&1 == 1 {
			wayID |= 1
			node = 2*node + 2
		} else {
			node = 2*node + 1
		}
	}

	return wayID
}

// State returns the raw recency bit vector of a set.
func (t *Tree) State(setID int) uint64 {
	return t.state[setID]
}

// Reset returns every set to the initial all-zero configuration, under
// which the victim walk selects way 0.
func (t *Tree) Reset() {
	for i := range t.state {
		t.state[i] = 0
	}
}

func (t *Tree) mustBeValidWay(wayID int) {
	if wayID < 0 || wayID >= t.numWays {
		panic("plru: way index out of range")
	}
}
