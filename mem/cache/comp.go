// Package cache models one level of a memory hierarchy: a set-associative
// line array with dirty tracking and closed-form energy and time accounting.
package cache

import (
	"fmt"

	"github.com/sarchlab/cachesim/hooking"
	"github.com/sarchlab/cachesim/mem"
	"github.com/sarchlab/cachesim/mem/cache/tagging"
)

// AccessResult tells the caller what an access did to the cache, so that
// writebacks and fills can be chained to the neighboring levels.
type AccessResult struct {
	// EvictedAddress is the block address of the dirty line that was
	// replaced. It is only meaningful when WasDirty is set.
	EvictedAddress uint64

	// Way is the way that holds the line after the access: the matching way
	// on a hit and the victim way on a miss.
	Way int

	Hit bool

	// Evicted is set when a valid line was replaced.
	Evicted bool

	// WasDirty is set when the replaced line was dirty.
	WasDirty bool
}

// Cache models one level of the memory hierarchy. A terminal cache stands for
// the backing store: it has no lines and services every access.
type Cache struct {
	hooking.HookableBase

	name     string
	terminal bool

	power         PowerSpec
	accessCoef    float64
	writebackCoef float64

	tags         *tagging.TagArray
	victimFinder tagging.VictimFinder

	stats       Statistics
	setAccesses []uint64
}

// Name returns the name of the cache.
func (c *Cache) Name() string {
	return c.name
}

// IsTerminal returns true if the cache is the backing store.
func (c *Cache) IsTerminal() bool {
	return c.terminal
}

// NumSets returns the number of sets, or 0 for a terminal cache.
func (c *Cache) NumSets() int {
	if c.terminal {
		return 0
	}

	return c.tags.NumSets()
}

// NumWays returns the associativity, or 0 for a terminal cache.
func (c *Cache) NumWays() int {
	if c.terminal {
		return 0
	}

	return c.tags.NumWays()
}

// Access looks addr up. A miss installs the line, evicting a victim if the
// set is full. A write marks the line dirty.
func (c *Cache) Access(accessType mem.AccessType, addr uint64) AccessResult {
	if c.terminal {
		c.stats.Accesses++
		c.traceAccess(accessType, addr, AccessResult{})

		return AccessResult{}
	}

	setID := c.tags.SetID(addr)
	set := c.tags.Set(setID)
	result := AccessResult{Way: -1}

	if way, found := c.tags.Lookup(addr); found {
		result.Hit = true
		result.Way = way

		line := &set.Lines[way]
		line.IsDirty = line.IsDirty || accessType.IsWrite()
	} else {
		c.stats.Misses++
		c.replace(set, &result)

		c.tags.Update(tagging.Line{
			Tag:     c.tags.Tag(addr),
			SetID:   setID,
			WayID:   result.Way,
			IsValid: true,
			IsDirty: accessType.IsWrite(),
		})
	}

	c.tags.Visit(setID, result.Way)
	c.stats.Accesses++
	c.setAccesses[setID]++

	c.traceAccess(accessType, addr, result)

	return result
}

func (c *Cache) replace(set tagging.Set, result *AccessResult) {
	if way, ok := set.FirstInvalid(); ok {
		result.Way = way
		return
	}

	result.Way = c.victimFinder.FindVictim(set)
	victim := set.Lines[result.Way]

	if !victim.IsValid {
		return
	}

	result.Evicted = true
	c.stats.Evictions++

	if victim.IsDirty {
		result.WasDirty = true
		result.EvictedAddress = c.tags.Reconstruct(victim.Tag, set.ID)
		c.stats.DirtyEvictions++
	}
}

// Writeback marks the line holding addr dirty. It does nothing if the line is
// not in the cache. The backing store counts every writeback it receives.
func (c *Cache) Writeback(addr uint64) {
	if c.terminal {
		c.stats.Writebacks++
		c.traceWriteback(addr, AccessResult{Hit: true, Way: -1})

		return
	}

	way, found := c.tags.Lookup(addr)
	if !found {
		c.traceWriteback(addr, AccessResult{Way: -1})
		return
	}

	set := c.tags.GetSet(addr)
	set.Lines[way].IsDirty = true
	c.stats.Writebacks++

	c.traceWriteback(addr, AccessResult{Hit: true, Way: way})
}

// PlaceInCache installs a clean copy of addr in the given way of its set,
// overwriting whatever the way held. Fills are not counted as accesses.
func (c *Cache) PlaceInCache(addr uint64, way int) {
	if c.terminal {
		return
	}

	if way < 0 || way >= c.tags.NumWays() {
		panic(fmt.Sprintf("cache %s: way %d out of range", c.name, way))
	}

	setID := c.tags.SetID(addr)

	c.tags.Update(tagging.Line{
		Tag:     c.tags.Tag(addr),
		SetID:   setID,
		WayID:   way,
		IsValid: true,
	})
	c.tags.Visit(setID, way)

	c.traceFill(addr, way)
}

// Peek returns the line holding addr without touching any state.
func (c *Cache) Peek(addr uint64) (tagging.Line, bool) {
	if c.terminal {
		return tagging.Line{}, false
	}

	way, found := c.tags.Lookup(addr)
	if !found {
		return tagging.Line{}, false
	}

	return c.tags.GetSet(addr).Lines[way], true
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// TotalAccesses returns the number of accesses served.
func (c *Cache) TotalAccesses() uint64 {
	return c.stats.Accesses
}

// TotalMisses returns the number of accesses that missed.
func (c *Cache) TotalMisses() uint64 {
	return c.stats.Misses
}

// TotalWritebacks returns the number of writebacks absorbed.
func (c *Cache) TotalWritebacks() uint64 {
	return c.stats.Writebacks
}

// IdleEnergy returns the idle energy rate.
func (c *Cache) IdleEnergy() float64 {
	return c.power.IdleEnergy
}

// TotalTime returns the time spent by this level serving accesses and
// writebacks.
func (c *Cache) TotalTime() float64 {
	p := c.power

	return float64(c.stats.Writebacks)*(p.AccessTime-p.LowerAccessTime) +
		float64(c.stats.Accesses)*p.AccessTime
}

// TotalEnergy returns the active energy spent by this level.
func (c *Cache) TotalEnergy() float64 {
	return c.accessCoef*float64(c.stats.Accesses) +
		c.writebackCoef*float64(c.stats.Writebacks)
}

// SetAccesses returns the number of accesses each set has received.
func (c *Cache) SetAccesses() []uint64 {
	out := make([]uint64, len(c.setAccesses))
	copy(out, c.setAccesses)

	return out
}
