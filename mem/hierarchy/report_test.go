package hierarchy

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/mem"
)

var _ = Describe("Report", func() {
	It("should report zeros for an empty run", func() {
		h, err := MakeBuilder().Build()
		Expect(err).NotTo(HaveOccurred())

		r := h.Report()

		Expect(r.L1Data.HitRate).To(Equal(0.0))
		Expect(r.L2.HitRate).To(Equal(0.0))
		Expect(r.AMAT).To(Equal(0.0))
		Expect(r.TotalEnergy).To(Equal(0.0))
	})

	It("should combine time and energy over all levels", func() {
		h, err := MakeBuilder().Build()
		Expect(err).NotTo(HaveOccurred())

		for _, addr := range []uint64{0x0000, 0x4000, 0x0000} {
			h.Access(mem.Access{Type: mem.AccessRead, Address: addr})
		}

		r := h.Report()

		totalTime := 3*5e-10 + 2*5e-9 + 2*5e-8
		Expect(r.TotalTime).To(BeNumerically("~", totalTime, 1e-18))
		Expect(r.AMAT).To(BeNumerically("~", totalTime/7, 1e-18))

		l1d := 0.5*totalTime + 3*(1*5e-10)
		l1i := 0.5 * totalTime
		l2 := 0.8*totalTime + 2*(2*5e-9+5e-12)
		dram := 0.8*totalTime + 2*(4*5e-8+6.4e-10)

		Expect(r.L1Data.Energy).To(BeNumerically("~", l1d, 1e-18))
		Expect(r.L1Energy).To(BeNumerically("~", l1d+l1i, 1e-18))
		Expect(r.L2Energy).To(BeNumerically("~", l2, 1e-18))
		Expect(r.BackingEnergy).To(BeNumerically("~", dram, 1e-18))
		Expect(r.TotalEnergy).To(BeNumerically("~", l1d+l1i+l2+dram, 1e-18))

		Expect(r.L1Data.Hits).To(Equal(uint64(1)))
		Expect(r.L1Data.Misses).To(Equal(uint64(2)))
		Expect(r.L1Data.HitRate).To(BeNumerically("~", 1.0/3.0, 1e-12))
		Expect(r.L2.Misses).To(Equal(uint64(2)))
		Expect(r.Backing.Accesses).To(Equal(uint64(2)))
	})
})
