// Package replay drives a replacement policy engine from an address trace.
// It keeps the tag and valid bits the engine itself treats as external, so
// a plain list of addresses is enough to exercise hit detection, filling,
// and eviction.
package replay

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/replacement/engine"
	"github.com/sarchlab/replacement/onehot"
	"github.com/sarchlab/replacement/recording"
)

// An AccessRecord describes one replayed access, as stored by the optional
// data recorder.
type AccessRecord struct {
	Cycle   uint64
	Address uint64
	Set     int
	Way     int
	Hit     bool
	Evicted bool
}

// Stats accumulates replay statistics.
type Stats struct {
	Accesses  uint64
	Hits      uint64
	Misses    uint64
	Fills     uint64
	Evictions uint64
}

type way struct {
	tag   uint64
	valid bool
}

// A Replayer owns a tag array and feeds hit and valid vectors derived from
// it into a replacement engine.
type Replayer struct {
	name      string
	engine    *engine.Engine
	numSets   int
	numWays   int
	blockSize int

	sets  [][]way
	cycle uint64
	stats Stats

	recorder  recording.DataRecorder
	tableName string
}

// Access replays one address. It returns whether the access hit. On a miss
// the engine's victim way is filled with the new tag, and the fill is
// committed to the recency state on the following cycle.
func (r *Replayer) Access(addr uint64) bool {
	setID, tag := r.locate(addr)
	set := r.sets[setID]

	hitWay := uint64(0)
	validWay := uint64(0)

	for i, w := range set {
		if !w.valid {
			continue
		}

		validWay |= 1 << uint(i)
		if w.tag == tag {
			hitWay |= 1 << uint(i)
		}
	}

	out := r.step(engine.AccessInput{
		SetIndex:    setID,
		HitWay:      hitWay,
		ValidWay:    validWay,
		WriteEnable: true,
	})

	r.stats.Accesses++

	record := AccessRecord{
		Cycle:   r.cycle,
		Address: addr,
		Set:     setID,
		Hit:     out.Hit,
	}

	if out.Hit {
		r.stats.Hits++
		record.Way = onehot.Encode(hitWay, r.numWays)
	} else {
		r.stats.Misses++
		record.Way = out.VictimIndex
		record.Evicted = set[out.VictimIndex].valid

		r.fill(setID, out.VictimIndex, tag)
	}

	r.record(record)

	return out.Hit
}

// InvalidateAll clears every valid bit and the engine's recency state in
// one cycle. The random register, if any, keeps running.
func (r *Replayer) InvalidateAll() {
	for _, set := range r.sets {
		for i := range set {
			set[i].valid = false
		}
	}

	r.step(engine.AccessInput{InvalidateAll: true})
}

// Run replays a whole trace: one address per line, parsed with Go integer
// syntax (0x-prefixed hex works), blank lines and #-comments skipped.
func (r *Replayer) Run(trace io.Reader) error {
	scanner := bufio.NewScanner(trace)

	lineNum := 0
	for scanner.Scan() {
		lineNum++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		addr, err := strconv.ParseUint(line, 0, 64)
		if err != nil {
			return fmt.Errorf("trace line %d: %w", lineNum, err)
		}

		r.Access(addr)
	}

	return scanner.Err()
}

// Stats returns the statistics accumulated so far.
func (r *Replayer) Stats() Stats {
	return r.stats
}

// Name returns the name of the replayer.
func (r *Replayer) Name() string {
	return r.name
}

// Engine returns the driven engine.
func (r *Replayer) Engine() *engine.Engine {
	return r.engine
}

// Cycle returns the number of engine cycles consumed so far.
func (r *Replayer) Cycle() uint64 {
	return r.cycle
}

func (r *Replayer) locate(addr uint64) (setID int, tag uint64) {
	block := addr / uint64(r.blockSize)
	return int(block % uint64(r.numSets)), block
}

func (r *Replayer) fill(setID, wayID int, tag uint64) {
	set := r.sets[setID]

	if set[wayID].valid {
		r.stats.Evictions++
	}

	set[wayID] = way{tag: tag, valid: true}
	r.stats.Fills++

	// The fill makes the way the most recently used one.
	r.step(engine.AccessInput{
		SetIndex:    setID,
		HitWay:      1 << uint(wayID),
		ValidWay:    r.validVector(setID),
		WriteEnable: true,
	})
}

func (r *Replayer) validVector(setID int) uint64 {
	v := uint64(0)
	for i, w := range r.sets[setID] {
		if w.valid {
			v |= 1 << uint(i)
		}
	}

	return v
}

func (r *Replayer) step(in engine.AccessInput) engine.AccessOutput {
	out := r.engine.Access(in)
	r.cycle++

	return out
}

func (r *Replayer) record(record AccessRecord) {
	if r.recorder == nil {
		return
	}

	r.recorder.InsertData(r.tableName, record)
}
