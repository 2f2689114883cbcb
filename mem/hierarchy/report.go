package hierarchy

import "github.com/sarchlab/cachesim/mem/cache"

// LevelReport summarizes one cache after a run.
type LevelReport struct {
	Name       string  `json:"name"`
	Accesses   uint64  `json:"accesses"`
	Hits       uint64  `json:"hits"`
	Misses     uint64  `json:"misses"`
	Writebacks uint64  `json:"writebacks"`
	HitRate    float64 `json:"hit_rate"`

	// Time is the time this level spent, in seconds.
	Time float64 `json:"time"`

	// Energy is the active energy plus the idle energy over the whole run,
	// in joules.
	Energy float64 `json:"energy"`
}

// RunReport holds the results of a run. Times are in seconds and energies in
// joules.
type RunReport struct {
	L1Data  LevelReport `json:"l1_data"`
	L1Inst  LevelReport `json:"l1_inst"`
	L2      LevelReport `json:"l2"`
	Backing LevelReport `json:"backing"`

	TotalTime     float64 `json:"total_time"`
	L1Energy      float64 `json:"l1_energy"`
	L2Energy      float64 `json:"l2_energy"`
	BackingEnergy float64 `json:"backing_energy"`
	TotalEnergy   float64 `json:"total_energy"`

	// AMAT is the total time divided by the accesses of all levels.
	AMAT float64 `json:"amat"`
}

// Report computes the results from the current counters.
func (h *Hierarchy) Report() RunReport {
	var totalTime float64
	var totalAccesses uint64

	for _, c := range h.Levels() {
		totalTime += c.TotalTime()
		totalAccesses += c.TotalAccesses()
	}

	r := RunReport{
		L1Data:    levelReport(h.L1Data, totalTime),
		L1Inst:    levelReport(h.L1Inst, totalTime),
		L2:        levelReport(h.L2, totalTime),
		Backing:   levelReport(h.Backing, totalTime),
		TotalTime: totalTime,
	}

	r.L1Energy = r.L1Data.Energy + r.L1Inst.Energy
	r.L2Energy = r.L2.Energy
	r.BackingEnergy = r.Backing.Energy
	r.TotalEnergy = r.L1Energy + r.L2Energy + r.BackingEnergy

	if totalAccesses > 0 {
		r.AMAT = totalTime / float64(totalAccesses)
	}

	return r
}

func levelReport(c *cache.Cache, totalTime float64) LevelReport {
	s := c.Stats()

	return LevelReport{
		Name:       c.Name(),
		Accesses:   s.Accesses,
		Hits:       s.Hits(),
		Misses:     s.Misses,
		Writebacks: s.Writebacks,
		HitRate:    s.HitRate(),
		Time:       c.TotalTime(),
		Energy:     c.IdleEnergy()*totalTime + c.TotalEnergy(),
	}
}
