// Package engine selects victim ways for set-associative caches. It
// consumes a hit vector and a valid-way vector per access and produces a
// one-hot victim-way selection, maintaining per-set recency state across
// accesses.
package engine

import "github.com/sarchlab/replacement/onehot"

// AccessInput carries the per-cycle signals from the cache controller.
type AccessInput struct {
	// SetIndex selects which set's recency state to read and update.
	SetIndex int

	// HitWay is one-hot when the access hit, all-zero on a miss.
	HitWay uint64

	// ValidWay marks the ways of the set that hold valid lines.
	ValidWay uint64

	// WriteEnable commits a recency update this cycle.
	WriteEnable bool

	// Flush abandons the in-flight operation without committing state.
	Flush bool

	// InvalidateAll clears recency state globally. The validity bits
	// themselves are owned by the caller's tag storage.
	InvalidateAll bool
}

// AccessOutput carries the per-cycle results back to the controller.
type AccessOutput struct {
	// VictimWay is the one-hot way to evict on a miss.
	VictimWay uint64

	// VictimIndex is VictimWay in binary form.
	VictimIndex int

	// Hit reports whether HitWay named a single valid way.
	Hit bool
}

// An Engine is the replacement policy state for one cache. All per-set
// recency state and the optional random register live behind its victim
// finder; the engine itself only sequences the per-cycle contract.
type Engine struct {
	name    string
	numWays int
	numSets int
	enabled bool
	finder  VictimFinder
}

// Name returns the name of the engine.
func (e *Engine) Name() string {
	return e.name
}

// NumWays returns the number of ways per set.
func (e *Engine) NumWays() int {
	return e.numWays
}

// NumSets returns the number of sets.
func (e *Engine) NumSets() int {
	return e.numSets
}

// SetEnable turns state mutation on or off. While disabled, Access still
// computes victims combinationally but commits nothing.
func (e *Engine) SetEnable(enabled bool) {
	e.enabled = enabled
}

// Enabled reports whether the engine commits state updates.
func (e *Engine) Enabled() bool {
	return e.enabled
}

// Access processes one cycle. The victim is derived from the pre-update
// state, so a miss that fills this cycle biases the next access, never the
// current one. If any way is invalid the victim is the lowest-indexed
// invalid way regardless of recency; otherwise it is the finder's current
// designation. The output is meaningful on every cycle, hit or miss; the
// caller decides whether to act on it.
//
// A HitWay that is multi-hot or not a subset of ValidWay violates the
// caller contract and is treated as "no hit".
func (e *Engine) Access(in AccessInput) AccessOutput {
	e.mustBeValidSet(in.SetIndex)

	out := e.selectVictim(in)

	if e.enabled {
		e.commit(in, out)
	}

	return out
}

// Reset returns all recency state and the random register to their initial
// configurations.
func (e *Engine) Reset() {
	e.finder.Reset()
}

func (e *Engine) selectVictim(in AccessInput) AccessOutput {
	out := AccessOutput{
		Hit: e.isHit(in),
	}

	firstInvalidOneHot, firstInvalidIndex, allValid :=
		onehot.ScanInvalid(in.ValidWay, e.numWays)

	if !allValid {
		out.VictimWay = firstInvalidOneHot
		out.VictimIndex = firstInvalidIndex
		return out
	}

	out.VictimIndex = e.finder.Victim(in.SetIndex)
	out.VictimWay = onehot.Decode(out.VictimIndex, e.numWays)

	return out
}

func (e *Engine) commit(in AccessInput, out AccessOutput) {
	if in.InvalidateAll {
		e.finder.Invalidate()
	}

	if in.Flush {
		return
	}

	e.finder.Advance()

	if in.WriteEnable && out.Hit {
		e.finder.Touch(in.SetIndex, onehot.Encode(in.HitWay, e.numWays))
	}
}

func (e *Engine) isHit(in AccessInput) bool {
	hitWay := in.HitWay & onehot.Mask(e.numWays)

	if !onehot.IsOneHot(hitWay) {
		return false
	}

	return hitWay&in.ValidWay == hitWay
}

func (e *Engine) mustBeValidSet(setIndex int) {
	if setIndex < 0 || setIndex >= e.numSets {
		panic("engine: set index out of range")
	}
}
