package hierarchy

import (
	"fmt"
	"math/rand"

	"github.com/sarchlab/cachesim/hooking"
	"github.com/sarchlab/cachesim/mem/cache"
)

// Cache names used by the builder.
const (
	L1DataName  = "L1D"
	L1InstName  = "L1I"
	L2Name      = "L2"
	BackingName = "DRAM"
)

// Builder can build hierarchies.
type Builder struct {
	l1, l2, backing LevelSpec

	seed            int64
	replaceStrategy string
	addressWidth    int
	hooks           []hooking.Hook
}

// MakeBuilder creates a builder with the reference configuration.
func MakeBuilder() Builder {
	return Builder{
		l1:              DefaultL1Spec(),
		l2:              DefaultL2Spec(),
		backing:         DefaultBackingSpec(),
		seed:            1,
		replaceStrategy: cache.ReplaceRandom,
		addressWidth:    32,
	}
}

// WithL1Spec sets the configuration of both L1 caches.
func (b Builder) WithL1Spec(spec LevelSpec) Builder {
	b.l1 = spec
	return b
}

// WithL2Spec sets the configuration of the L2 cache.
func (b Builder) WithL2Spec(spec LevelSpec) Builder {
	b.l2 = spec
	return b
}

// WithBackingSpec sets the power and timing of the backing store.
func (b Builder) WithBackingSpec(spec LevelSpec) Builder {
	b.backing = spec
	return b
}

// WithL2Associativity sets the associativity of the L2 cache.
func (b Builder) WithL2Associativity(associativity int) Builder {
	b.l2.Associativity = associativity
	return b
}

// WithSeed sets the seed of the random source used for replacement.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithReplaceStrategy sets the replacement strategy of every cache.
func (b Builder) WithReplaceStrategy(strategy string) Builder {
	b.replaceStrategy = strategy
	return b
}

// WithAddressWidth sets the number of address bits the caches decode.
func (b Builder) WithAddressWidth(width int) Builder {
	b.addressWidth = width
	return b
}

// WithHook attaches a hook to every level.
func (b Builder) WithHook(hook hooking.Hook) Builder {
	b.hooks = append(b.hooks[:len(b.hooks):len(b.hooks)], hook)
	return b
}

// Build builds a hierarchy. The caches of one hierarchy share a random source
// seeded from the builder's seed, so hierarchies built with different seeds
// are independent.
func (b Builder) Build() (*Hierarchy, error) {
	rng := rand.New(rand.NewSource(b.seed))

	l1d, err := b.buildLevel(L1DataName, b.l1, rng)
	if err != nil {
		return nil, err
	}

	l1i, err := b.buildLevel(L1InstName, b.l1, rng)
	if err != nil {
		return nil, err
	}

	l2, err := b.buildLevel(L2Name, b.l2, rng)
	if err != nil {
		return nil, err
	}

	backing, err := b.levelBuilder(b.backing, rng).AsTerminal().Build(BackingName)
	if err != nil {
		return nil, fmt.Errorf("building hierarchy: %w", err)
	}

	h := &Hierarchy{
		L1Data:  l1d,
		L1Inst:  l1i,
		L2:      l2,
		Backing: backing,
	}

	for _, c := range h.Levels() {
		for _, hook := range b.hooks {
			c.AcceptHook(hook)
		}
	}

	return h, nil
}

func (b Builder) levelBuilder(spec LevelSpec, rng *rand.Rand) cache.Builder {
	return cache.MakeBuilder().
		WithPowerSpec(spec.PowerSpec).
		WithByteSize(spec.ByteSize).
		WithWayAssociativity(spec.Associativity).
		WithAddressWidth(b.addressWidth).
		WithReplaceStrategy(b.replaceStrategy).
		WithRand(rng)
}

func (b Builder) buildLevel(
	name string,
	spec LevelSpec,
	rng *rand.Rand,
) (*cache.Cache, error) {
	c, err := b.levelBuilder(spec, rng).Build(name)
	if err != nil {
		return nil, fmt.Errorf("building hierarchy: %w", err)
	}

	return c, nil
}
