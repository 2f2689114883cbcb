package cmd

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/hierarchy"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
)

const sampleTrace = `0 0x0
0 0x4000
0 0x0
2 0x100
1 0x40
`

var _ = Describe("Command line", func() {
	var dir string

	execute := func(args ...string) (string, error) {
		root := newRootCmd()

		var buf bytes.Buffer
		root.SetOut(&buf)
		root.SetErr(&buf)
		root.SetArgs(args)

		err := root.Execute()

		return buf.String(), err
	}

	writeTrace := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())

		return path
	}

	countRows := func(dbPath, query string) int {
		db, err := sql.Open("sqlite3", dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer db.Close()

		var n int
		Expect(db.QueryRow(query).Scan(&n)).To(Succeed())

		return n
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	Context("run", func() {
		It("should print the report", func() {
			path := writeTrace("sample.din", sampleTrace)

			out, err := execute("run", path)

			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Cache Access Stats for sample.din"))
			Expect(out).To(ContainSubstring("L1 Data Hits: 1\n"))
			Expect(out).To(ContainSubstring("L1 Data Misses: 3\n"))
			Expect(out).To(ContainSubstring("L1 Instruction Misses: 1\n"))
			Expect(out).To(ContainSubstring("L2 Misses: 4\n"))
			Expect(out).To(ContainSubstring("DRAM Access Total: 4\n"))
			Expect(out).To(ContainSubstring("AMAT: "))
		})

		It("should print JSON", func() {
			path := writeTrace("sample.din", sampleTrace)

			out, err := execute("run", "--json", "--l2-assoc", "8", path)
			Expect(err).NotTo(HaveOccurred())

			var r hierarchy.RunReport
			Expect(json.Unmarshal([]byte(out), &r)).To(Succeed())
			Expect(r.L1Data.Accesses).To(Equal(uint64(4)))
			Expect(r.Backing.Accesses).To(Equal(r.L2.Misses))
		})

		It("should write the event trace", func() {
			path := writeTrace("sample.din", sampleTrace)
			csvPath := filepath.Join(dir, "events.csv")

			_, err := execute("run", "--trace-csv", csvPath, path)
			Expect(err).NotTo(HaveOccurred())

			content, err := os.ReadFile(csvPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(HavePrefix("seq,level,what,"))
			Expect(strings.Count(string(content), ",access,")).To(Equal(13))
		})

		It("should stop at a malformed line", func() {
			path := writeTrace("bad.din", "0 0x0\n7 0x10\n")

			_, err := execute("run", path)

			var malformed *trace.MalformedAccessError
			Expect(errors.As(err, &malformed)).To(BeTrue())
			Expect(malformed.Line).To(Equal(2))
		})

		It("should reject an impossible geometry", func() {
			path := writeTrace("sample.din", sampleTrace)

			_, err := execute("run", "--l2-assoc", "3", path)

			var configErr *cache.ConfigurationError
			Expect(errors.As(err, &configErr)).To(BeTrue())
		})

		It("should reject an unknown replacement strategy", func() {
			path := writeTrace("sample.din", sampleTrace)

			_, err := execute("run", "--replace", "fifo", path)

			Expect(err).To(MatchError(ContainSubstring("invalid replacement")))
		})

		It("should fail on a missing trace", func() {
			_, err := execute("run", filepath.Join(dir, "missing.din"))

			Expect(err).To(MatchError(ContainSubstring("reading trace")))
		})

		It("should record results that show can read back", func() {
			path := writeTrace("sample.din", sampleTrace)
			record := filepath.Join(dir, "run")

			_, err := execute("run", "--record", record, "--record-events", path)
			Expect(err).NotTo(HaveOccurred())

			dbPath := record + ".sqlite3"
			Expect(countRows(dbPath, "SELECT COUNT(*) FROM level_stats")).
				To(Equal(4))
			Expect(countRows(dbPath,
				"SELECT COUNT(*) FROM cache_events WHERE What = 'access'")).
				To(Equal(5 + 4 + 4))

			out, err := execute("show", dbPath)
			Expect(err).NotTo(HaveOccurred())

			lines := strings.Split(strings.TrimSpace(out), "\n")
			Expect(lines).To(HaveLen(5))
			Expect(lines[1]).To(ContainSubstring("L1D"))
			Expect(lines[4]).To(ContainSubstring("DRAM"))

			out, err = execute("show", "--limit", "2", dbPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("(2 of 4 rows)"))
		})
	})

	Context("run with recording", func() {
		It("should refuse to record events without a database", func() {
			path := writeTrace("sample.din", sampleTrace)

			_, err := execute("run", "--record-events", path)

			Expect(err).To(MatchError(ContainSubstring("--record")))
		})

		It("should record events at addresses above 2^63", func() {
			path := writeTrace("high.din", "1 ffffffff00001000\n")
			record := filepath.Join(dir, "high")

			_, err := execute("run", "--record", record, "--record-events", path)
			Expect(err).NotTo(HaveOccurred())

			Expect(countRows(record+".sqlite3",
				"SELECT COUNT(*) FROM cache_events "+
					"WHERE Address = 'ffffffff00001000'")).
				To(BeNumerically(">", 0))
		})
	})

	Context("sweep", func() {
		It("should print summaries and write the CSV file", func() {
			a := writeTrace("a.din", sampleTrace)
			b := writeTrace("b.din", sampleTrace+"0 0x8000\n")
			csvPath := filepath.Join(dir, "results.csv")

			out, err := execute("sweep", "--assoc", "1,2", "--runs", "3",
				"--workers", "2", "--out", csvPath, a, b)
			Expect(err).NotTo(HaveOccurred())

			Expect(strings.Split(strings.TrimSpace(out), "\n")).To(HaveLen(5))

			content, err := os.ReadFile(csvPath)
			Expect(err).NotTo(HaveOccurred())

			lines := strings.Split(strings.TrimSpace(string(content)), "\n")
			Expect(lines).To(HaveLen(5))
			Expect(lines[0]).To(HavePrefix("trace,associativity,runs,"))
			Expect(lines[1]).To(HavePrefix(a + ",1,3,"))
			Expect(lines[4]).To(HavePrefix(b + ",2,3,"))
		})

		It("should record every run and the summaries", func() {
			a := writeTrace("a.din", sampleTrace)
			record := filepath.Join(dir, "sweep")

			_, err := execute("sweep", "--assoc", "4", "--runs", "2",
				"--record", record, a)
			Expect(err).NotTo(HaveOccurred())

			dbPath := record + ".sqlite3"
			Expect(countRows(dbPath, "SELECT COUNT(*) FROM run_summary")).
				To(Equal(2))
			Expect(countRows(dbPath, "SELECT COUNT(*) FROM sweep_summary")).
				To(BeNumerically(">", 0))
		})

		It("should reject a repeated associativity", func() {
			a := writeTrace("a.din", sampleTrace)

			_, err := execute("sweep", "--assoc", "4,4", "--runs", "3", a)

			Expect(err).To(MatchError(
				ContainSubstring("duplicate sweep associativity")))
		})

		It("should take the progress bar off the monitor when done", func() {
			m := monitoring.NewMonitor()
			outputs := &sweepOutputs{
				monitor:  m,
				progress: m.CreateProgressBar("sweep a.din", 4),
			}

			progressCount := func() int {
				rec := httptest.NewRecorder()
				m.Handler().ServeHTTP(rec,
					httptest.NewRequest(http.MethodGet, "/api/progress", nil))

				var bars []map[string]any
				Expect(json.Unmarshal(rec.Body.Bytes(), &bars)).To(Succeed())

				return len(bars)
			}

			Expect(progressCount()).To(Equal(1))

			outputs.finish()
			outputs.finish()

			Expect(progressCount()).To(Equal(0))
		})

		It("should reject a non-positive run count", func() {
			a := writeTrace("a.din", sampleTrace)

			_, err := execute("sweep", "--runs", "0", a)

			Expect(err).To(HaveOccurred())
		})
	})

	Context("show", func() {
		It("should fail on a missing database", func() {
			_, err := execute("show", filepath.Join(dir, "missing.sqlite3"))

			Expect(err).To(HaveOccurred())
		})
	})
})
