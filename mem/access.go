// Package mem defines the vocabulary shared by the memory hierarchy models.
package mem

import "fmt"

// Size units.
const (
	KB uint64 = 1 << 10
	MB uint64 = 1 << 20
)

// Log2LineSize is the log2 of the cache line size used by every level.
const Log2LineSize = 6

// LineSize is the number of bytes in a cache line.
const LineSize uint64 = 1 << Log2LineSize

// AccessType is the type code carried by each trace record. The codes follow
// the Dinero "din" trace format.
type AccessType uint8

// Recognized access types.
const (
	AccessRead AccessType = iota
	AccessWrite
	AccessInstFetch
	AccessUnknown
	AccessFlush
)

// MaxAccessType is the largest recognized type code.
const MaxAccessType = AccessFlush

// IsWrite returns true if the access dirties the line it touches.
func (t AccessType) IsWrite() bool {
	return t == AccessWrite
}

// IsInstFetch returns true if the access is served by the instruction cache.
func (t AccessType) IsInstFetch() bool {
	return t == AccessInstFetch
}

// Valid returns true if t is one of the recognized type codes.
func (t AccessType) Valid() bool {
	return t <= MaxAccessType
}

func (t AccessType) String() string {
	switch t {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessInstFetch:
		return "ifetch"
	case AccessUnknown:
		return "unknown"
	case AccessFlush:
		return "flush"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// An Access is one record of a memory trace.
type Access struct {
	Type    AccessType
	Address uint64
}
