// Package tagging keeps track of which memory lines a cache holds and decides
// which line to give up when a set is full.
package tagging

import "math/bits"

// A Line is the information that is associated with one way of a cache set.
// A line that is not valid carries no meaningful tag.
type Line struct {
	Tag     uint64
	SetID   int
	WayID   int
	IsValid bool
	IsDirty bool
}

// A Set is the group of lines where a certain piece of memory can be stored.
// Lines and LRUQueue alias the storage of the TagArray that returned the Set.
type Set struct {
	ID       int
	Lines    []Line
	LRUQueue []int
}

// FirstInvalid returns the lowest way that does not hold a valid line.
func (s Set) FirstInvalid() (int, bool) {
	for i := range s.Lines {
		if !s.Lines[i].IsValid {
			return i, true
		}
	}

	return -1, false
}

// TagArray is the line array of a set-associative cache. Lines are stored
// set-major, so the lines of set s occupy [s*numWays, (s+1)*numWays).
type TagArray struct {
	numSets       int
	numWays       int
	log2BlockSize int
	offsetBits    int
	setMask       uint64
	tagMask       uint64

	lines     []Line
	lruQueues [][]int
}

// NewTagArray creates a TagArray. numSets must be a power of two and
// log2BlockSize+log2(numSets) must not exceed addressWidth; the cache builder
// checks both before calling.
func NewTagArray(
	numSets, numWays, log2BlockSize, addressWidth int,
) *TagArray {
	offsetBits := log2BlockSize + bits.TrailingZeros(uint(numSets))

	t := &TagArray{
		numSets:       numSets,
		numWays:       numWays,
		log2BlockSize: log2BlockSize,
		offsetBits:    offsetBits,
		setMask:       uint64(numSets - 1),
		tagMask:       lowBits(addressWidth - offsetBits),
	}

	t.Reset()

	return t
}

func lowBits(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << n) - 1
}

// NumSets returns the number of sets.
func (t *TagArray) NumSets() int {
	return t.numSets
}

// NumWays returns the associativity.
func (t *TagArray) NumWays() int {
	return t.numWays
}

// NumLines returns the total number of lines.
func (t *TagArray) NumLines() int {
	return len(t.lines)
}

// OffsetBits returns the number of low address bits consumed by the block
// offset and the set index.
func (t *TagArray) OffsetBits() int {
	return t.offsetBits
}

// TotalSize returns the maximum number of bytes can be stored in the cache.
func (t *TagArray) TotalSize() uint64 {
	return uint64(t.numSets) * uint64(t.numWays) << t.log2BlockSize
}

// SetID returns the set that addr maps to.
func (t *TagArray) SetID(addr uint64) int {
	return int((addr >> t.log2BlockSize) & t.setMask)
}

// Tag returns the tag of addr.
func (t *TagArray) Tag(addr uint64) uint64 {
	return (addr >> t.offsetBits) & t.tagMask
}

// Reconstruct rebuilds the block-aligned address of a line from its tag and
// set.
func (t *TagArray) Reconstruct(tag uint64, setID int) uint64 {
	return tag<<t.offsetBits | uint64(setID)<<t.log2BlockSize
}

// GetSet returns the set that addr maps to.
func (t *TagArray) GetSet(addr uint64) Set {
	return t.Set(t.SetID(addr))
}

// Set returns the set with the given ID.
func (t *TagArray) Set(setID int) Set {
	start := setID * t.numWays

	return Set{
		ID:       setID,
		Lines:    t.lines[start : start+t.numWays],
		LRUQueue: t.lruQueues[setID],
	}
}

// Lookup returns the way that holds a valid copy of addr.
func (t *TagArray) Lookup(addr uint64) (way int, found bool) {
	tag := t.Tag(addr)
	set := t.GetSet(addr)

	for i := range set.Lines {
		line := &set.Lines[i]
		if line.IsValid && line.Tag == tag {
			return i, true
		}
	}

	return -1, false
}

// Update overwrites the line at the position recorded in the line.
func (t *TagArray) Update(line Line) {
	t.lines[line.SetID*t.numWays+line.WayID] = line
}

// Visit marks a way as the most recently used one of its set.
func (t *TagArray) Visit(setID, wayID int) {
	queue := t.lruQueues[setID]

	pos := -1
	for i, w := range queue {
		if w == wayID {
			pos = i
			break
		}
	}

	if pos < 0 {
		return
	}

	copy(queue[pos:], queue[pos+1:])
	queue[len(queue)-1] = wayID
}

// Reset will mark all the lines in the array invalid.
func (t *TagArray) Reset() {
	t.lines = make([]Line, t.numSets*t.numWays)
	t.lruQueues = make([][]int, t.numSets)

	for s := 0; s < t.numSets; s++ {
		queue := make([]int, t.numWays)

		for w := 0; w < t.numWays; w++ {
			t.lines[s*t.numWays+w] = Line{SetID: s, WayID: w}
			queue[w] = w
		}

		t.lruQueues[s] = queue
	}
}
