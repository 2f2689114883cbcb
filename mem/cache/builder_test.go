package cache

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/mem"
)

var _ = Describe("Builder", func() {
	var builder Builder

	BeforeEach(func() {
		builder = MakeBuilder().
			WithByteSize(32 * mem.KB).
			WithWayAssociativity(1).
			WithReplaceStrategy(ReplaceLRU)
	})

	expectConfigError := func(b Builder) *ConfigurationError {
		c, err := b.Build("C")

		Expect(c).To(BeNil())

		var cfgErr *ConfigurationError
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
		Expect(cfgErr.Cache).To(Equal("C"))

		return cfgErr
	}

	It("should derive the geometry", func() {
		c, err := builder.WithWayAssociativity(4).Build("C")

		Expect(err).NotTo(HaveOccurred())
		Expect(c.NumSets()).To(Equal(128))
		Expect(c.NumWays()).To(Equal(4))
		Expect(c.tags.NumLines()).To(Equal(512))
		Expect(c.tags.OffsetBits()).To(Equal(13))
		Expect(c.SetAccesses()).To(HaveLen(128))
	})

	It("should keep sets times ways times line size equal to the capacity", func() {
		for _, size := range []uint64{4 * mem.KB, 32 * mem.KB, 256 * mem.KB} {
			for _, ways := range []int{1, 2, 4, 8, 16} {
				c := builder.WithByteSize(size).WithWayAssociativity(ways).
					MustBuild("C")

				Expect(uint64(c.NumSets()) * uint64(c.NumWays()) * mem.LineSize).
					To(Equal(size))
			}
		}
	})

	It("should reject a zero capacity", func() {
		expectConfigError(builder.WithByteSize(0))
	})

	It("should reject a non-positive associativity", func() {
		expectConfigError(builder.WithWayAssociativity(0))
	})

	It("should reject a capacity that is not a whole number of sets", func() {
		err := expectConfigError(builder.WithByteSize(1000))
		Expect(err.Error()).To(ContainSubstring("whole number"))
	})

	It("should reject a set count that is not a power of two", func() {
		err := expectConfigError(builder.WithByteSize(3 * 64 * 4).
			WithWayAssociativity(4))
		Expect(err.Error()).To(ContainSubstring("power of two"))
	})

	It("should reject an address too narrow for the index", func() {
		expectConfigError(builder.WithAddressWidth(8))
	})

	It("should reject an unknown replace strategy", func() {
		err := expectConfigError(builder.WithReplaceStrategy("mru"))
		Expect(err.Error()).To(ContainSubstring("mru"))
	})

	It("should reject negative energies", func() {
		expectConfigError(builder.WithPowerSpec(PowerSpec{ActiveEnergy: -1}))
	})

	It("should reject an access time shorter than the lower level's", func() {
		expectConfigError(builder.WithPowerSpec(PowerSpec{
			AccessTime:      1e-9,
			LowerAccessTime: 2e-9,
		}))
	})

	It("should build a terminal store without checking geometry", func() {
		c, err := builder.WithByteSize(1000).AsTerminal().Build("DRAM")

		Expect(err).NotTo(HaveOccurred())
		Expect(c.IsTerminal()).To(BeTrue())
		Expect(c.NumSets()).To(Equal(0))
	})

	It("should panic in MustBuild on a bad configuration", func() {
		Expect(func() { builder.WithByteSize(0).MustBuild("C") }).To(Panic())
	})
})
