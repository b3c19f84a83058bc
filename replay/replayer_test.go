package replay

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type capturingRecorder struct {
	tables  []string
	records []AccessRecord
}

func (r *capturingRecorder) CreateTable(tableName string, _ any) {
	r.tables = append(r.tables, tableName)
}

func (r *capturingRecorder) InsertData(_ string, entry any) {
	r.records = append(r.records, entry.(AccessRecord))
}

func (r *capturingRecorder) ListTables() []string {
	return r.tables
}

func (r *capturingRecorder) Flush() {}

var _ = Describe("Replayer", func() {
	var r *Replayer

	// Four sets of four ways with 64-byte blocks: addresses 0x1000 apart
	// map to the same set.
	BeforeEach(func() {
		r = MakeBuilder().
			WithNumWays(4).
			WithNumSets(4).
			WithBlockSize(64).
			Build("Replayer")
	})

	It("should miss cold and fill ways in index order", func() {
		Expect(r.Access(0x0000)).To(BeFalse())
		Expect(r.Access(0x1000)).To(BeFalse())
		Expect(r.Access(0x2000)).To(BeFalse())
		Expect(r.Access(0x3000)).To(BeFalse())

		stats := r.Stats()
		Expect(stats.Misses).To(Equal(uint64(4)))
		Expect(stats.Fills).To(Equal(uint64(4)))
		Expect(stats.Evictions).To(Equal(uint64(0)))
	})

	It("should hit on a re-access", func() {
		r.Access(0x0000)

		Expect(r.Access(0x0000)).To(BeTrue())
		Expect(r.Stats().Hits).To(Equal(uint64(1)))
	})

	It("should distinguish blocks within a line", func() {
		r.Access(0x0000)

		Expect(r.Access(0x0004)).To(BeTrue())
		Expect(r.Access(0x0040)).To(BeFalse())
	})

	It("should evict the least recently filled way of a full set", func() {
		r.Access(0x0000)
		r.Access(0x1000)
		r.Access(0x2000)
		r.Access(0x3000)

		// The set is full; the pseudo-LRU tree points back at way 0.
		Expect(r.Access(0x4000)).To(BeFalse())
		Expect(r.Stats().Evictions).To(Equal(uint64(1)))

		// The other three blocks survived the eviction.
		Expect(r.Access(0x1000)).To(BeTrue())
		Expect(r.Access(0x2000)).To(BeTrue())
		Expect(r.Access(0x3000)).To(BeTrue())
		Expect(r.Access(0x4000)).To(BeTrue())

		// The evicted block is gone.
		Expect(r.Access(0x0000)).To(BeFalse())
	})

	It("should keep sets independent", func() {
		r.Access(0x0000)
		r.Access(0x0040)

		Expect(r.Access(0x0000)).To(BeTrue())
		Expect(r.Access(0x0040)).To(BeTrue())
	})

	It("should miss everything after a global invalidation", func() {
		r.Access(0x0000)
		r.Access(0x1000)

		r.InvalidateAll()

		Expect(r.Access(0x0000)).To(BeFalse())
		Expect(r.Access(0x1000)).To(BeFalse())
	})

	It("should replay a trace from a reader", func() {
		trace := `
# two accesses to the same line
0x0000
0x0004
4096
`
		err := r.Run(strings.NewReader(trace))

		Expect(err).NotTo(HaveOccurred())
		Expect(r.Stats().Accesses).To(Equal(uint64(3)))
		Expect(r.Stats().Hits).To(Equal(uint64(1)))
	})

	It("should report malformed trace lines", func() {
		err := r.Run(strings.NewReader("0x0000\nnot-an-address\n"))

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("line 2"))
	})
})

var _ = Describe("Replayer with recorder", func() {
	var (
		recorder *capturingRecorder
		r        *Replayer
	)

	BeforeEach(func() {
		recorder = &capturingRecorder{}
		r = MakeBuilder().
			WithNumWays(2).
			WithNumSets(2).
			WithBlockSize(64).
			WithRecorder(recorder).
			Build("Replayer")
	})

	It("should create the trace table at build time", func() {
		Expect(recorder.tables).To(ContainElement("access_trace"))
	})

	It("should record one row per access", func() {
		r.Access(0x0000)
		r.Access(0x0000)

		Expect(recorder.records).To(HaveLen(2))
		Expect(recorder.records[0].Hit).To(BeFalse())
		Expect(recorder.records[0].Way).To(Equal(0))
		Expect(recorder.records[1].Hit).To(BeTrue())
		Expect(recorder.records[1].Way).To(Equal(0))
		Expect(recorder.records[1].Cycle).To(
			BeNumerically(">", recorder.records[0].Cycle))
	})
})
