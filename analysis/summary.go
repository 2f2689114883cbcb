package analysis

import (
	"fmt"
	"math"

	"github.com/sarchlab/cachesim/mem/hierarchy"
)

// Metrics names the values summarized for every group of runs, in the order
// they are stored in a Summary.
var Metrics = []string{
	"l1d_hit_rate",
	"l1i_hit_rate",
	"l2_hit_rate",
	"dram_accesses",
	"l1_energy",
	"l2_energy",
	"dram_energy",
	"total_energy",
	"total_time",
	"amat",
}

func metricValues(r hierarchy.RunReport) []float64 {
	return []float64{
		r.L1Data.HitRate,
		r.L1Inst.HitRate,
		r.L2.HitRate,
		float64(r.Backing.Accesses),
		r.L1Energy,
		r.L2Energy,
		r.BackingEnergy,
		r.TotalEnergy,
		r.TotalTime,
		r.AMAT,
	}
}

// A Summary holds the mean and the population standard deviation of every
// metric over the runs of one trace at one L2 associativity.
type Summary struct {
	Trace         string    `json:"trace"`
	Associativity int       `json:"associativity"`
	Runs          int       `json:"runs"`
	Means         []float64 `json:"means"`
	StdDevs       []float64 `json:"std_devs"`
}

// Summarize reduces the reports of a group of runs.
func Summarize(trace string, assoc int, reports []hierarchy.RunReport) Summary {
	s := Summary{
		Trace:         trace,
		Associativity: assoc,
		Runs:          len(reports),
		Means:         make([]float64, len(Metrics)),
		StdDevs:       make([]float64, len(Metrics)),
	}

	samples := make([][]float64, len(Metrics))
	for _, r := range reports {
		for i, v := range metricValues(r) {
			samples[i] = append(samples[i], v)
		}
	}

	for i := range Metrics {
		s.Means[i], s.StdDevs[i] = meanStdDev(samples[i])
	}

	return s
}

// Mean returns the mean of the named metric.
func (s Summary) Mean(metric string) float64 {
	return s.Means[metricIndex(metric)]
}

// StdDev returns the standard deviation of the named metric.
func (s Summary) StdDev(metric string) float64 {
	return s.StdDevs[metricIndex(metric)]
}

func metricIndex(metric string) int {
	for i, m := range Metrics {
		if m == metric {
			return i
		}
	}

	panic(fmt.Sprintf("unknown metric %s", metric))
}

// meanStdDev returns the mean and the population standard deviation. Both
// are 0 for an empty sample.
func meanStdDev(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}

	for _, v := range values {
		mean += v
	}

	mean /= float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}

	return mean, math.Sqrt(sq / float64(len(values)))
}
