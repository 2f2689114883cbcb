package analysis

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/datarecording"
)

func sampleSummary(trace string, assoc int) Summary {
	s := Summary{
		Trace:         trace,
		Associativity: assoc,
		Runs:          10,
		Means:         make([]float64, len(Metrics)),
		StdDevs:       make([]float64, len(Metrics)),
	}

	for i := range Metrics {
		s.Means[i] = float64(i) + 0.5
		s.StdDevs[i] = 0.25
	}

	return s
}

var _ = Describe("CSVExporter", func() {
	It("should write the header and one row per summary", func() {
		var buf bytes.Buffer
		e := NewCSVExporter(&buf)

		err := ExportAll(e, []Summary{
			sampleSummary("gcc.trace", 1),
			sampleSummary("gcc.trace", 2),
		})
		Expect(err).NotTo(HaveOccurred())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines).To(HaveLen(3))
		Expect(lines[0]).To(HavePrefix(
			"trace,associativity,runs,l1d_hit_rate_mean,l1d_hit_rate_std,"))
		Expect(lines[0]).To(HaveSuffix("amat_mean,amat_std"))
		Expect(lines[1]).To(HavePrefix("gcc.trace,1,10,0.5,0.25,1.5,0.25,"))
		Expect(strings.Split(lines[2], ",")).To(HaveLen(len(Header())))
	})

	It("should write only the header once", func() {
		var buf bytes.Buffer
		e := NewCSVExporter(&buf)

		Expect(e.Export(sampleSummary("a", 1))).To(Succeed())
		Expect(e.Export(sampleSummary("b", 1))).To(Succeed())
		Expect(e.Flush()).To(Succeed())

		Expect(strings.Count(buf.String(), "trace,associativity")).To(Equal(1))
	})
})

var _ = Describe("RecorderExporter", func() {
	It("should store one row per metric", func() {
		path := filepath.Join(GinkgoT().TempDir(), "sweep.sqlite3")
		db, err := sql.Open("sqlite3", path)
		Expect(err).NotTo(HaveOccurred())

		recorder := datarecording.NewWithDB(db)
		defer recorder.Close()

		e := NewRecorderExporter(recorder)
		Expect(ExportAll(e, []Summary{sampleSummary("a", 4)})).To(Succeed())

		var n int
		Expect(db.QueryRow(
			"SELECT COUNT(*) FROM sweep_summary WHERE Associativity = 4",
		).Scan(&n)).To(Succeed())
		Expect(n).To(Equal(len(Metrics)))

		var mean float64
		Expect(db.QueryRow(
			"SELECT Mean FROM sweep_summary WHERE Metric = 'amat'",
		).Scan(&mean)).To(Succeed())
		Expect(mean).To(Equal(float64(len(Metrics)-1) + 0.5))
	})
})
