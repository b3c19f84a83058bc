package plru

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Tree", func() {
	var tree *Tree

	BeforeEach(func() {
		tree = NewTree(4, 4)
	})

	It("should reject non-power-of-two way counts", func() {
		Expect(func() { NewTree(4, 3) }).To(Panic())
		Expect(func() { NewTree(4, 6) }).To(Panic())
		Expect(func() { NewTree(4, 0) }).To(Panic())
	})

	It("should reject configurations without sets", func() {
		Expect(func() { NewTree(0, 4) }).To(Panic())
	})

	It("should start with way 0 as the victim in every set", func() {
		for set := 0; set < 4; set++ {
			Expect(tree.Victim(set)).To(Equal(0))
		}
	})

	It("should steer away from a touched way", func() {
		tree.Touch(0, 2)

		Expect(tree.Victim(0)).NotTo(Equal(2))
		Expect(tree.Victim(0)).To(Equal(0))
		Expect(tree.State(0)).To(Equal(uint64(0b100)))
	})

	It("should pick the least recently touched way after filling a set", func() {
		tree.Touch(0, 0)
		tree.Touch(0, 1)
		tree.Touch(0, 2)
		tree.Touch(0, 3)

		Expect(tree.Victim(0)).To(Equal(0))
	})

	It("should never designate the just-touched way", func() {
		for _, numWays := range []int{2, 4, 8, 16} {
			t := NewTree(1, numWays)

			for state := 0; state < 1<<uint(numWays-1); state++ {
				for way := 0; way < numWays; way++ {
					t.state[0] = uint64(state)
					t.Touch(0, way)
					Expect(t.Victim(0)).NotTo(Equal(way))
				}
			}
		}
	})

	It("should always return an in-range victim", func() {
		for _, numWays := range []int{1, 2, 4, 8, 16} {
			t := NewTree(1, numWays)

			for state := 0; state < 1<<uint(numWays-1); state++ {
				t.state[0] = uint64(state)

				victim := t.Victim(0)
				Expect(victim).To(SatisfyAll(
					BeNumerically(">=", 0),
					BeNumerically("<", numWays),
				))
			}
		}
	})

	It("should keep sets independent", func() {
		tree.Touch(1, 0)

		Expect(tree.Victim(1)).NotTo(Equal(0))
		Expect(tree.Victim(0)).To(Equal(0))
		Expect(tree.Victim(2)).To(Equal(0))
	})

	It("should reject out-of-range ways", func() {
		Expect(func() { tree.Touch(0, 4) }).To(Panic())
		Expect(func() { tree.Touch(0, -1) }).To(Panic())
	})

	It("should reset every set to the initial configuration", func() {
		tree.Touch(0, 0)
		tree.Touch(1, 3)
		tree.Touch(2, 1)

		tree.Reset()

		for set := 0; set < 4; set++ {
			Expect(tree.Victim(set)).To(Equal(0))
			Expect(tree.State(set)).To(Equal(uint64(0)))
		}
	})

	It("should handle a single-way set trivially", func() {
		t := NewTree(2, 1)

		Expect(t.Victim(0)).To(Equal(0))
		t.Touch(0, 0)
		Expect(t.Victim(0)).To(Equal(0))
		Expect(t.State(0)).To(Equal(uint64(0)))
	})

	It("should follow the documented walk for 8 ways", func() {
		t := NewTree(1, 8)

		// Touching way 0 points the root at the right half and leaves the
		// right subtree at its initial all-left configuration.
		t.Touch(0, 0)
		Expect(t.Victim(0)).To(Equal(4))

		t.Touch(0, 4)
		Expect(t.Victim(0)).To(Equal(2))
	})
})
