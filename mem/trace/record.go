package trace

import (
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/hierarchy"
)

// Tables written by RecordReport.
const (
	LevelStatsTable = "level_stats"
	RunSummaryTable = "run_summary"
)

// LevelStats is the row stored for each level of a run.
type LevelStats struct {
	Run        string
	Level      string
	Accesses   uint64
	Hits       uint64
	Misses     uint64
	Writebacks uint64
	HitRate    float64
	Time       float64
	Energy     float64
}

// RunSummary is the row stored for the totals of a run.
type RunSummary struct {
	Run         string
	TotalTime   float64
	TotalEnergy float64
	AMAT        float64
}

// RecordReport stores the per-level counters and the totals of a run.
func RecordReport(
	recorder datarecording.DataRecorder,
	runID string,
	r hierarchy.RunReport,
) {
	ensureTable(recorder, LevelStatsTable, LevelStats{})
	ensureTable(recorder, RunSummaryTable, RunSummary{})

	for _, l := range []hierarchy.LevelReport{r.L1Data, r.L1Inst, r.L2, r.Backing} {
		recorder.InsertData(LevelStatsTable, LevelStats{
			Run:        runID,
			Level:      l.Name,
			Accesses:   l.Accesses,
			Hits:       l.Hits,
			Misses:     l.Misses,
			Writebacks: l.Writebacks,
			HitRate:    l.HitRate,
			Time:       l.Time,
			Energy:     l.Energy,
		})
	}

	recorder.InsertData(RunSummaryTable, RunSummary{
		Run:         runID,
		TotalTime:   r.TotalTime,
		TotalEnergy: r.TotalEnergy,
		AMAT:        r.AMAT,
	})
}
