package monitoring

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ProgressBar", func() {
	It("should count concurrent updates", func() {
		bar := &ProgressBar{total: 100}

		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)

			go func() {
				defer wg.Done()
				bar.IncrementInProgress(1)
				bar.MoveInProgressToFinished(1)
			}()
		}

		wg.Wait()

		finished, inProgress := bar.Counts()
		Expect(finished).To(Equal(uint64(100)))
		Expect(inProgress).To(Equal(uint64(0)))
	})

	It("should count finished items directly", func() {
		bar := &ProgressBar{}
		bar.IncrementFinished(5)

		finished, _ := bar.Counts()
		Expect(finished).To(Equal(uint64(5)))
	})
})
