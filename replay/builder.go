package replay

import (
	"github.com/sarchlab/replacement/engine"
	"github.com/sarchlab/replacement/recording"
)

// Builder can build replayers.
type Builder struct {
	numWays         int
	numSets         int
	blockSize       int
	replaceStrategy string
	recorder        recording.DataRecorder
	tableName       string
}

// MakeBuilder creates a new builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		numWays:         4,
		numSets:         64,
		blockSize:       64,
		replaceStrategy: "plru",
		tableName:       "access_trace",
	}
}

// WithNumWays sets the number of ways per set.
func (b Builder) WithNumWays(numWays int) Builder {
	b.numWays = numWays
	return b
}

// WithNumSets sets the number of sets.
func (b Builder) WithNumSets(numSets int) Builder {
	b.numSets = numSets
	return b
}

// WithBlockSize sets the cache line size in bytes used for address
// mapping.
func (b Builder) WithBlockSize(blockSize int) Builder {
	b.blockSize = blockSize
	return b
}

// WithReplaceStrategy selects the replacement strategy of the underlying
// engine.
func (b Builder) WithReplaceStrategy(replaceStrategy string) Builder {
	b.replaceStrategy = replaceStrategy
	return b
}

// WithRecorder directs per-access decisions to a data recorder.
func (b Builder) WithRecorder(recorder recording.DataRecorder) Builder {
	b.recorder = recorder
	return b
}

// Build builds a replayer.
func (b Builder) Build(name string) *Replayer {
	if b.blockSize < 1 {
		panic("block size must be positive")
	}

	e := engine.MakeBuilder().
		WithNumWays(b.numWays).
		WithNumSets(b.numSets).
		WithReplaceStrategy(b.replaceStrategy).
		Build(name + ".Engine")

	r := &Replayer{
		name:      name,
		engine:    e,
		numSets:   b.numSets,
		numWays:   b.numWays,
		blockSize: b.blockSize,
		recorder:  b.recorder,
		tableName: b.tableName,
	}

	r.sets = make([][]way, b.numSets)
	for i := range r.sets {
		r.sets[i] = make([]way, b.numWays)
	}

	if r.recorder != nil {
		r.recorder.CreateTable(r.tableName, AccessRecord{})
	}

	return r
}
