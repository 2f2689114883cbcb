// Package report prints simulation results for people.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/sarchlab/cachesim/analysis"
	"github.com/sarchlab/cachesim/mem/hierarchy"
)

const nano = 1e9

// Write prints the report of one run of the trace named name. Energies are
// printed in nJ and times in ns.
func Write(w io.Writer, name string, r hierarchy.RunReport) error {
	p := &printer{w: w}

	p.printf("Cache Access Stats for %s\n\n", filepath.Base(name))

	p.level("L1 Data", r.L1Data)
	p.level("L1 Instruction", r.L1Inst)
	p.level("L2", r.L2)

	p.printf("DRAM Access Total: %d\n\n", r.Backing.Accesses)

	p.printf("Performance Stats\n\n")

	p.printf("L1 Consumption: %.3f nJ\n", r.L1Energy*nano)
	p.printf("L2 Consumption: %.3f nJ\n", r.L2Energy*nano)
	p.printf("DRAM Consumption: %.3f nJ\n\n", r.BackingEnergy*nano)

	p.printf("Total Consumption: %.3f nJ\n\n", r.TotalEnergy*nano)
	p.printf("Total Time: %.3f ns\n", r.TotalTime*nano)
	p.printf("AMAT: %.3f ns\n\n", r.AMAT*nano)

	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}

	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) level(label string, l hierarchy.LevelReport) {
	p.printf("%s Hits: %d\n", label, l.Hits)
	p.printf("%s Misses: %d\n", label, l.Misses)
	p.printf("%s Hit Rate: %.4f\n\n", label, l.HitRate)
}

var tableColumns = []string{
	"l1d_hit_rate", "l1i_hit_rate", "l2_hit_rate", "total_energy", "amat",
}

// WriteSummaries prints a table with the headline metrics of a sweep. Each
// cell shows mean ± standard deviation. Energies are in nJ and times in ns.
func WriteSummaries(w io.Writer, summaries []analysis.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "trace\tassoc\truns\t%s\n", strings.Join(tableColumns, "\t"))

	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%d", filepath.Base(s.Trace),
			s.Associativity, s.Runs)

		for _, c := range tableColumns {
			fmt.Fprintf(tw, "\t%s", cell(c, s.Mean(c), s.StdDev(c)))
		}

		fmt.Fprintln(tw)
	}

	return tw.Flush()
}

func cell(metric string, mean, std float64) string {
	switch metric {
	case "total_energy", "amat", "total_time":
		return fmt.Sprintf("%.3f ± %.3f", mean*nano, std*nano)
	default:
		return fmt.Sprintf("%.4f ± %.4f", mean, std)
	}
}
