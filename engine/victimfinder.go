package engine

import (
	"github.com/sarchlab/replacement/lfsr"
	"github.com/sarchlab/replacement/plru"
)

// A VictimFinder decides which way should be evicted when every way of a
// set holds a valid line.
type VictimFinder interface {
	// Victim returns the way currently designated for eviction in setID.
	Victim(setID int) int

	// Touch records an access to wayID of setID.
	Touch(setID, wayID int)

	// Advance moves free-running policy state forward by one cycle.
	Advance()

	// Invalidate handles a global invalidation of the cache contents.
	Invalidate()

	// Reset returns the policy to its initial configuration.
	Reset()
}

// TreeVictimFinder tracks recency with a pseudo-LRU tree per set.
type TreeVictimFinder struct {
	tree *plru.Tree
}

// NewTreeVictimFinder returns a newly constructed tree-based victim finder.
func NewTreeVictimFinder(numSets, numWays int) *TreeVictimFinder {
	f := &TreeVictimFinder{
		tree: plru.NewTree(numSets, numWays),
	}

	return f
}

// Victim returns the way the tree of setID designates for eviction.
func (f *TreeVictimFinder) Victim(setID int) int {
	return f.tree.Victim(setID)
}

// Touch steers the tree of setID away from wayID.
func (f *TreeVictimFinder) Touch(setID, wayID int) {
	f.tree.Touch(setID, wayID)
}

// Advance does nothing. The tree only moves when an access is recorded.
func (f *TreeVictimFinder) Advance() {
	// No free-running state.
}

// Invalidate returns every set to the initial recency configuration.
func (f *TreeVictimFinder) Invalidate() {
	f.tree.Reset()
}

// Reset returns every set to the initial recency configuration.
func (f *TreeVictimFinder) Reset() {
	f.tree.Reset()
}

// Tree exposes the underlying recency state, mainly for inspection.
func (f *TreeVictimFinder) Tree() *plru.Tree {
	return f.tree
}

// RandomVictimFinder designates victims from a free-running LFSR. The
// register is shared by all sets, trading accuracy for state: it does not
// track which ways a particular set has touched.
type RandomVictimFinder struct {
	reg     *lfsr.Register
	numWays int
}

// NewRandomVictimFinder returns a newly constructed LFSR-based victim
// finder. numWays must be a power of two that the supported register
// widths can cover.
func NewRandomVictimFinder(numWays int) *RandomVictimFinder {
	if numWays < 1 || numWays&(numWays-1) != 0 {
		panic("engine: way count must be a power of two")
	}

	width := log2(numWays)
	if width < 3 {
		width = 3
	}

	f := &RandomVictimFinder{
		reg:     lfsr.New(width),
		numWays: numWays,
	}

	return f
}

// Victim returns the register's low bits as a way index. The set is
// ignored.
func (f *RandomVictimFinder) Victim(_ int) int {
	return f.reg.Output(f.numWays)
}

// Touch does nothing. The register does not track recency.
func (f *RandomVictimFinder) Touch(_, _ int) {
	// No recency state.
}

// Advance steps the register by one cycle.
func (f *RandomVictimFinder) Advance() {
	f.reg.Step()
}

// Invalidate does nothing. The register only responds to reset and its own
// enable.
func (f *RandomVictimFinder) Invalidate() {
	// Unaffected by invalidation.
}

// Reset returns the register to its seed.
func (f *RandomVictimFinder) Reset() {
	f.reg.Reset()
}

// Register exposes the underlying LFSR, mainly for inspection.
func (f *RandomVictimFinder) Register() *lfsr.Register {
	return f.reg
}

func log2(v int) int {
	n := 0
	for v > 1 {
		v >>= 1
		n++
	}

	return n
}
