package cache

import (
	"math/bits"
	"math/rand"
	"time"

	"github.com/sarchlab/cachesim/mem"
	"github.com/sarchlab/cachesim/mem/cache/tagging"
)

// Replacement strategies understood by the builder.
const (
	ReplaceRandom     = "random"
	ReplaceLRU        = "lru"
	ReplaceRoundRobin = "roundrobin"
)

// Builder can build caches.
type Builder struct {
	power            PowerSpec
	cacheByteSize    uint64
	wayAssociativity int
	addressWidth     int
	terminal         bool
	replaceStrategy  string
	rand             *rand.Rand
	victimFinder     tagging.VictimFinder
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		cacheByteSize:    32 * mem.KB,
		wayAssociativity: 1,
		addressWidth:     32,
		replaceStrategy:  ReplaceRandom,
	}
}

// WithPowerSpec sets the energy and timing parameters.
func (b Builder) WithPowerSpec(power PowerSpec) Builder {
	b.power = power
	return b
}

// WithByteSize sets the capacity of the cache.
func (b Builder) WithByteSize(byteSize uint64) Builder {
	b.cacheByteSize = byteSize
	return b
}

// WithWayAssociativity sets the way associativity of the builder.
func (b Builder) WithWayAssociativity(wayAssociativity int) Builder {
	b.wayAssociativity = wayAssociativity
	return b
}

// WithAddressWidth sets the number of address bits the tag is taken from.
func (b Builder) WithAddressWidth(addressWidth int) Builder {
	b.addressWidth = addressWidth
	return b
}

// AsTerminal makes the builder build a backing store.
func (b Builder) AsTerminal() Builder {
	b.terminal = true
	return b
}

// WithReplaceStrategy selects a replacement strategy by name.
func (b Builder) WithReplaceStrategy(strategy string) Builder {
	b.replaceStrategy = strategy
	return b
}

// WithRand sets the random source used by the random replacement strategy.
func (b Builder) WithRand(rng *rand.Rand) Builder {
	b.rand = rng
	return b
}

// WithVictimFinder sets the replacement strategy directly. It takes
// precedence over WithReplaceStrategy.
func (b Builder) WithVictimFinder(victimFinder tagging.VictimFinder) Builder {
	b.victimFinder = victimFinder
	return b
}

// Build builds a cache.
func (b Builder) Build(name string) (*Cache, error) {
	if reason := b.power.validate(); reason != "" {
		return nil, configErr(name, "%s", reason)
	}

	c := &Cache{
		name:          name,
		terminal:      b.terminal,
		power:         b.power,
		accessCoef:    b.power.accessCoefficient(),
		writebackCoef: b.power.writebackCoefficient(),
	}

	if b.terminal {
		return c, nil
	}

	numSets, err := b.numSets(name)
	if err != nil {
		return nil, err
	}

	victimFinder, err := b.createVictimFinder(name)
	if err != nil {
		return nil, err
	}

	c.tags = tagging.NewTagArray(
		numSets, b.wayAssociativity, mem.Log2LineSize, b.addressWidth)
	c.victimFinder = victimFinder
	c.setAccesses = make([]uint64, numSets)

	return c, nil
}

// MustBuild builds a cache and panics if the configuration is invalid.
func (b Builder) MustBuild(name string) *Cache {
	c, err := b.Build(name)
	if err != nil {
		panic(err)
	}

	return c
}

func (b Builder) numSets(name string) (int, error) {
	if b.cacheByteSize == 0 {
		return 0, configErr(name, "capacity must be positive")
	}

	if b.wayAssociativity <= 0 {
		return 0, configErr(name,
			"associativity must be positive, got %d", b.wayAssociativity)
	}

	if b.addressWidth <= 0 || b.addressWidth > 64 {
		return 0, configErr(name,
			"address width must be in [1, 64], got %d", b.addressWidth)
	}

	setSize := mem.LineSize * uint64(b.wayAssociativity)
	if b.cacheByteSize%setSize != 0 {
		return 0, configErr(name,
			"capacity %d is not a whole number of %d-byte sets",
			b.cacheByteSize, setSize)
	}

	numSets := b.cacheByteSize / setSize
	if bits.OnesCount64(numSets) != 1 {
		return 0, configErr(name,
			"number of sets %d is not a power of two", numSets)
	}

	offsetBits := mem.Log2LineSize + bits.TrailingZeros64(numSets)
	if offsetBits > b.addressWidth {
		return 0, configErr(name,
			"%d offset and index bits do not fit in a %d-bit address",
			offsetBits, b.addressWidth)
	}

	return int(numSets), nil
}

func (b Builder) createVictimFinder(name string) (tagging.VictimFinder, error) {
	if b.victimFinder != nil {
		return b.victimFinder, nil
	}

	switch b.replaceStrategy {
	case ReplaceRandom:
		rng := b.rand
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}

		return tagging.NewRandomVictimFinder(rng), nil
	case ReplaceLRU:
		return tagging.NewLRUVictimFinder(), nil
	case ReplaceRoundRobin:
		return tagging.NewRoundRobinVictimFinder(), nil
	default:
		return nil, configErr(name,
			"unknown replace strategy: %s", b.replaceStrategy)
	}
}
