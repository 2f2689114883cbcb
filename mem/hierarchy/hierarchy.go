// Package hierarchy connects the caches of a memory hierarchy and routes each
// trace access through them.
//
// The topology is fixed: the L1 data and L1 instruction caches both miss into
// a shared L2, which misses into a terminal backing store. Misses allocate at
// every level they pass, and a dirty victim is written back one level down
// before the new line is installed.
package hierarchy

import (
	"errors"
	"io"

	"github.com/sarchlab/cachesim/mem"
	"github.com/sarchlab/cachesim/mem/cache"
)

// An AccessSource produces trace accesses one at a time. Next returns io.EOF
// when the source is exhausted.
type AccessSource interface {
	Next() (mem.Access, error)
}

// Hierarchy owns one cache per level.
type Hierarchy struct {
	L1Data  *cache.Cache
	L1Inst  *cache.Cache
	L2      *cache.Cache
	Backing *cache.Cache
}

// Levels returns the caches in the order L1 data, L1 instruction, L2,
// backing store.
func (h *Hierarchy) Levels() []*cache.Cache {
	return []*cache.Cache{h.L1Data, h.L1Inst, h.L2, h.Backing}
}

func (h *Hierarchy) l1For(accessType mem.AccessType) *cache.Cache {
	if accessType.IsInstFetch() {
		return h.L1Inst
	}

	return h.L1Data
}

// Access runs one access through the hierarchy.
func (h *Hierarchy) Access(access mem.Access) {
	l1 := h.l1For(access.Type)

	l1Result := l1.Access(access.Type, access.Address)
	if l1Result.Hit {
		return
	}

	if l1Result.WasDirty {
		h.L2.Writeback(l1Result.EvictedAddress)
	}

	l2Result := h.L2.Access(access.Type, access.Address)
	if l2Result.Hit {
		l1.PlaceInCache(access.Address, l1Result.Way)
		return
	}

	if l2Result.WasDirty {
		h.Backing.Writeback(l2Result.EvictedAddress)
	}

	h.Backing.Access(access.Type, access.Address)

	h.L2.PlaceInCache(access.Address, l2Result.Way)
	l1.PlaceInCache(access.Address, 0)
}

// Run feeds every access of src through the hierarchy and returns how many
// were processed. It stops at the first error other than io.EOF.
func (h *Hierarchy) Run(src AccessSource) (uint64, error) {
	var n uint64

	for {
		access, err := src.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}

		if err != nil {
			return n, err
		}

		h.Access(access)
		n++
	}
}

// SliceSource serves accesses from memory. Several SliceSources may share the
// same slice as long as nobody modifies it.
type SliceSource struct {
	accesses []mem.Access
	pos      int
}

// NewSliceSource creates a source over accesses.
func NewSliceSource(accesses []mem.Access) *SliceSource {
	return &SliceSource{accesses: accesses}
}

// Next returns the next access.
func (s *SliceSource) Next() (mem.Access, error) {
	if s.pos >= len(s.accesses) {
		return mem.Access{}, io.EOF
	}

	a := s.accesses[s.pos]
	s.pos++

	return a, nil
}
