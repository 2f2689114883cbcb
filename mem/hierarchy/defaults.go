package hierarchy

import (
	"github.com/sarchlab/cachesim/mem"
	"github.com/sarchlab/cachesim/mem/cache"
)

// LevelSpec is the configuration of one level of the hierarchy.
type LevelSpec struct {
	cache.PowerSpec `yaml:",inline"`

	ByteSize      uint64 `yaml:"capacity" json:"capacity"`
	Associativity int    `yaml:"associativity" json:"associativity"`
}

// DefaultL1Spec returns the configuration shared by the L1 data and L1
// instruction caches: 32 KB, direct-mapped.
func DefaultL1Spec() LevelSpec {
	return LevelSpec{
		PowerSpec: cache.PowerSpec{
			ActiveEnergy:    1,
			IdleEnergy:      0.5,
			AccessTime:      5e-10,
			LowerAccessTime: 0,
			TransferPenalty: 0,
		},
		ByteSize:      32 * mem.KB,
		Associativity: 1,
	}
}

// DefaultL2Spec returns the configuration of the shared L2: 256 KB, 4-way.
func DefaultL2Spec() LevelSpec {
	return LevelSpec{
		PowerSpec: cache.PowerSpec{
			ActiveEnergy:    2,
			IdleEnergy:      0.8,
			AccessTime:      5e-9,
			LowerAccessTime: 5e-10,
			TransferPenalty: 5e-12,
		},
		ByteSize:      256 * mem.KB,
		Associativity: 4,
	}
}

// DefaultBackingSpec returns the configuration of the backing store. Its
// geometry is never used since the store has no lines.
func DefaultBackingSpec() LevelSpec {
	return LevelSpec{
		PowerSpec: cache.PowerSpec{
			ActiveEnergy:    4,
			IdleEnergy:      0.8,
			AccessTime:      5e-8,
			LowerAccessTime: 5e-12,
			TransferPenalty: 6.4e-10,
		},
		ByteSize:      256 * mem.KB,
		Associativity: 4,
	}
}
