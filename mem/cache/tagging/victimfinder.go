package tagging

import "math/rand"

// A VictimFinder decides which way of a full set should be evicted.
type VictimFinder interface {
	FindVictim(set Set) int
}

// RandomVictimFinder picks a way uniformly at random among all the ways of a
// set. It never looks at recency.
type RandomVictimFinder struct {
	rand *rand.Rand
}

// NewRandomVictimFinder returns a random evictor drawing from rng. Callers
// that run several simulations concurrently must give each one its own rng.
func NewRandomVictimFinder(rng *rand.Rand) *RandomVictimFinder {
	return &RandomVictimFinder{rand: rng}
}

// FindVictim returns a random way.
func (e *RandomVictimFinder) FindVictim(set Set) int {
	return e.rand.Intn(len(set.Lines))
}

// LRUVictimFinder evicts the least recently used line.
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed lru evictor
func NewLRUVictimFinder() *LRUVictimFinder {
	e := new(LRUVictimFinder)
	return e
}

// FindVictim returns the least recently used way in a set.
func (e *LRUVictimFinder) FindVictim(set Set) int {
	return set.LRUQueue[0]
}

// RoundRobinVictimFinder cycles through the ways of each set.
type RoundRobinVictimFinder struct {
	next map[int]int
}

// NewRoundRobinVictimFinder returns an evictor that starts every set at way 0.
func NewRoundRobinVictimFinder() *RoundRobinVictimFinder {
	return &RoundRobinVictimFinder{next: make(map[int]int)}
}

// FindVictim returns the way after the one returned last time for this set.
func (e *RoundRobinVictimFinder) FindVictim(set Set) int {
	way := e.next[set.ID]
	e.next[set.ID] = (way + 1) % len(set.Lines)

	return way
}
