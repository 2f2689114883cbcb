package cache

// Statistics are the counters a cache accumulates over a run.
type Statistics struct {
	Accesses       uint64 `json:"accesses"`
	Misses         uint64 `json:"misses"`
	Writebacks     uint64 `json:"writebacks"`
	Evictions      uint64 `json:"evictions"`
	DirtyEvictions uint64 `json:"dirty_evictions"`
}

// Hits returns the number of accesses that found their line.
func (s Statistics) Hits() uint64 {
	return s.Accesses - s.Misses
}

// HitRate returns hits over accesses, or 0 if the cache was never accessed.
func (s Statistics) HitRate() float64 {
	if s.Accesses == 0 {
		return 0
	}

	return float64(s.Hits()) / float64(s.Accesses)
}
