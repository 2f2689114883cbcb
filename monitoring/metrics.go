package monitoring

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sarchlab/cachesim/mem/hierarchy"
)

// runMetrics exports the results of finished runs to Prometheus.
type runMetrics struct {
	registry *prometheus.Registry

	runs     *prometheus.CounterVec
	accesses *prometheus.CounterVec
	hitRate  *prometheus.GaugeVec
	energy   *prometheus.GaugeVec
	amat     *prometheus.HistogramVec
}

func newRunMetrics() *runMetrics {
	m := &runMetrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cachesim",
			Name:      "runs_total",
			Help:      "Number of finished simulation runs",
		}, []string{"trace", "associativity"}),
		accesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cachesim",
			Name:      "level_accesses_total",
			Help:      "Accesses served by each level over all runs",
		}, []string{"trace", "associativity", "level"}),
		hitRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cachesim",
			Name:      "level_hit_rate",
			Help:      "Hit rate of each level in the last finished run",
		}, []string{"trace", "associativity", "level"}),
		energy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cachesim",
			Name:      "total_energy_joules",
			Help:      "Total energy of the last finished run",
		}, []string{"trace", "associativity"}),
		amat: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cachesim",
			Name:      "amat_seconds",
			Help:      "Average memory access time of finished runs",
			Buckets:   prometheus.ExponentialBuckets(1e-10, 2, 16),
		}, []string{"trace", "associativity"}),
	}

	m.registry.MustRegister(m.runs, m.accesses, m.hitRate, m.energy, m.amat)

	return m
}

func (m *runMetrics) record(trace string, assoc int, r hierarchy.RunReport) {
	a := strconv.Itoa(assoc)

	m.runs.WithLabelValues(trace, a).Inc()
	m.energy.WithLabelValues(trace, a).Set(r.TotalEnergy)
	m.amat.WithLabelValues(trace, a).Observe(r.AMAT)

	for _, l := range []hierarchy.LevelReport{r.L1Data, r.L1Inst, r.L2, r.Backing} {
		m.accesses.WithLabelValues(trace, a, l.Name).Add(float64(l.Accesses))
		m.hitRate.WithLabelValues(trace, a, l.Name).Set(l.HitRate)
	}
}
