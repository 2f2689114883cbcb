package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/mem/hierarchy"
)

type sampleResult struct {
	Trace  string
	Assoc  int
	Report hierarchy.RunReport
}

var _ = Describe("Monitor", func() {
	var (
		m       *Monitor
		handler http.Handler
	)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		return rec
	}

	BeforeEach(func() {
		m = NewMonitor()
		handler = m.Handler()
	})

	It("should fall back to a random port for reserved ports", func() {
		m.WithPortNumber(80)
		Expect(m.portNumber).To(Equal(0))

		m.WithPortNumber(8080)
		Expect(m.portNumber).To(Equal(8080))
	})

	It("should list progress bars", func() {
		bar := m.CreateProgressBar("sweep", 10)
		bar.IncrementInProgress(3)
		bar.MoveInProgressToFinished(2)

		rec := get("/api/progress")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var statuses []progressStatus
		Expect(json.Unmarshal(rec.Body.Bytes(), &statuses)).To(Succeed())
		Expect(statuses).To(HaveLen(1))
		Expect(statuses[0].Name).To(Equal("sweep"))
		Expect(statuses[0].ID).NotTo(BeEmpty())
		Expect(statuses[0].Total).To(Equal(uint64(10)))
		Expect(statuses[0].Finished).To(Equal(uint64(2)))
		Expect(statuses[0].InProgress).To(Equal(uint64(1)))
	})

	It("should remove completed progress bars", func() {
		first := m.CreateProgressBar("a", 1)
		m.CreateProgressBar("b", 1)

		m.CompleteProgressBar(first)

		var statuses []progressStatus
		Expect(json.Unmarshal(get("/api/progress").Body.Bytes(), &statuses)).
			To(Succeed())
		Expect(statuses).To(HaveLen(1))
		Expect(statuses[0].Name).To(Equal("b"))
	})

	It("should list and serialize results", func() {
		m.RegisterResult("b", sampleResult{Trace: "gcc", Assoc: 2})
		m.RegisterResult("a", sampleResult{Trace: "cc1", Assoc: 4})

		var names []string
		Expect(json.Unmarshal(get("/api/results").Body.Bytes(), &names)).
			To(Succeed())
		Expect(names).To(Equal([]string{"a", "b"}))

		rec := get("/api/result/b")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("gcc"))
	})

	It("should return 404 for an unknown result", func() {
		Expect(get("/api/result/missing").Code).To(Equal(http.StatusNotFound))
	})

	It("should report process resources", func() {
		rec := get("/api/resource")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var rsp resourceRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should export recorded reports as metrics", func() {
		m.RecordReport("gcc", 4, hierarchy.RunReport{
			L1Data: hierarchy.LevelReport{
				Name: "L1D", Accesses: 10, HitRate: 0.9,
			},
			L1Inst:  hierarchy.LevelReport{Name: "L1I"},
			L2:      hierarchy.LevelReport{Name: "L2"},
			Backing: hierarchy.LevelReport{Name: "DRAM"},
			AMAT:    2e-9,
		})

		body := get("/metrics").Body.String()
		Expect(body).To(ContainSubstring(
			`cachesim_runs_total{associativity="4",trace="gcc"} 1`))
		Expect(body).To(ContainSubstring(
			`cachesim_level_hit_rate{associativity="4",level="L1D",trace="gcc"} 0.9`))
		Expect(body).To(ContainSubstring(
			`cachesim_level_accesses_total{associativity="4",level="L1D",trace="gcc"} 10`))
		Expect(body).To(ContainSubstring("cachesim_amat_seconds_count"))
	})

	It("should serve the web page", func() {
		rec := get("/")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("cachesim monitor"))
	})

	It("should refuse to open a browser before the server starts", func() {
		Expect(m.URL()).To(BeEmpty())
		Expect(m.OpenInBrowser()).To(HaveOccurred())
	})

	It("should serve on a random port", func() {
		m.StartServer()

		Expect(m.URL()).To(HavePrefix("http://localhost:"))

		rsp, err := http.Get(m.URL() + "/api/results")
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()
		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
	})
})
