package engine

// Builder can build replacement policy engines.
type Builder struct {
	numWays         int
	numSets         int
	replaceStrategy string
	finder          VictimFinder
}

// MakeBuilder creates a new builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		numWays:         4,
		numSets:         64,
		replaceStrategy: "plru",
	}
}

// WithNumWays sets the number of ways per set. The way count must be a
// power of two.
func (b Builder) WithNumWays(numWays int) Builder {
	b.numWays = numWays
	return b
}

// WithNumSets sets the number of sets.
func (b Builder) WithNumSets(numSets int) Builder {
	b.numSets = numSets
	return b
}

// WithReplaceStrategy selects the replacement strategy. Supported values
// are "plru" and "random".
func (b Builder) WithReplaceStrategy(replaceStrategy string) Builder {
	b.replaceStrategy = replaceStrategy
	return b
}

// WithVictimFinder overrides the victim finder, ignoring the replace
// strategy. Mainly useful for testing.
func (b Builder) WithVictimFinder(finder VictimFinder) Builder {
	b.finder = finder
	return b
}

// Build builds an engine.
func (b Builder) Build(name string) *Engine {
	b.mustBeValidConfig()

	finder := b.finder
	if finder == nil {
		finder = b.createVictimFinder()
	}

	e := &Engine{
		name:    name,
		numWays: b.numWays,
		numSets: b.numSets,
		enabled: true,
		finder:  finder,
	}

	return e
}

func (b Builder) createVictimFinder() VictimFinder {
	var victimFinder VictimFinder

	switch b.replaceStrategy {
	case "plru":
		victimFinder = NewTreeVictimFinder(b.numSets, b.numWays)
	case "random":
		victimFinder = NewRandomVictimFinder(b.numWays)
	default:
		panic("unknown replace strategy: " + b.replaceStrategy)
	}

	return victimFinder
}

func (b Builder) mustBeValidConfig() {
	if b.numSets < 1 {
		panic("engine must have at least one set")
	}

	if b.numWays < 1 || b.numWays&(b.numWays-1) != 0 {
		panic("way count must be a power of two")
	}

	if b.numWays > 64 {
		panic("way count must not exceed 64")
	}
}
