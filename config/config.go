// Package config loads simulator settings from YAML files, .env files and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/hierarchy"
)

// Environment variables that override file settings.
const (
	EnvSeed        = "CACHESIM_SEED"
	EnvL2Assoc     = "CACHESIM_L2_ASSOC"
	EnvReplacement = "CACHESIM_REPLACEMENT"
	EnvRuns        = "CACHESIM_RUNS"
)

// Levels holds the configuration of every level.
type Levels struct {
	L1      hierarchy.LevelSpec `yaml:"l1"`
	L2      hierarchy.LevelSpec `yaml:"l2"`
	Backing hierarchy.LevelSpec `yaml:"backing"`
}

// Sweep holds the settings of repeated runs.
type Sweep struct {
	Runs            int   `yaml:"runs"`
	Associativities []int `yaml:"associativities"`
	Workers         int   `yaml:"workers"`
}

// Configuration is the complete simulator configuration.
type Configuration struct {
	Seed         int64  `yaml:"seed"`
	Replacement  string `yaml:"replacement"`
	AddressWidth int    `yaml:"address_width"`
	Levels       Levels `yaml:"levels"`
	Sweep        Sweep  `yaml:"sweep"`
}

// NewDefault returns the reference configuration.
func NewDefault() *Configuration {
	return &Configuration{
		Seed:         1,
		Replacement:  cache.ReplaceRandom,
		AddressWidth: 32,
		Levels: Levels{
			L1:      hierarchy.DefaultL1Spec(),
			L2:      hierarchy.DefaultL2Spec(),
			Backing: hierarchy.DefaultBackingSpec(),
		},
		Sweep: Sweep{
			Runs:            10,
			Associativities: []int{1, 2, 4, 8},
			Workers:         0,
		},
	}
}

// Load builds a configuration from the defaults, the YAML file at path (if
// path is not empty), a .env file in the working directory (if present) and
// the environment, in that order of increasing precedence.
func Load(path string) (*Configuration, error) {
	c := NewDefault()

	if path != "" {
		if err := c.LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}

	if err := c.LoadFromEnv(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadEnvFile copies the variables of the named .env files into the
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadEnvFile(filenames ...string) error {
	for _, f := range filenames {
		err := godotenv.Load(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err != nil {
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file. Settings missing from
// the file keep their current values.
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv loads configuration from environment variables.
func (c *Configuration) LoadFromEnv() error {
	if val := os.Getenv(EnvSeed); val != "" {
		seed, err := strconv.ParseInt(val, 0, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSeed, err)
		}

		c.Seed = seed
	}

	if val := os.Getenv(EnvL2Assoc); val != "" {
		assoc, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvL2Assoc, err)
		}

		c.Levels.L2.Associativity = assoc
	}

	if val := os.Getenv(EnvReplacement); val != "" {
		c.Replacement = strings.ToLower(val)
	}

	if val := os.Getenv(EnvRuns); val != "" {
		runs, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRuns, err)
		}

		c.Sweep.Runs = runs
	}

	return nil
}

// SaveToFile saves the configuration to a YAML file.
func (c *Configuration) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the settings that the cache builders do not check. The
// geometry is validated when the hierarchy is built.
func (c *Configuration) Validate() error {
	switch c.Replacement {
	case cache.ReplaceRandom, cache.ReplaceLRU, cache.ReplaceRoundRobin:
	default:
		return fmt.Errorf("invalid replacement: %s (must be one of: %s)",
			c.Replacement, strings.Join([]string{
				cache.ReplaceRandom, cache.ReplaceLRU, cache.ReplaceRoundRobin,
			}, ", "))
	}

	if c.Sweep.Runs <= 0 {
		return fmt.Errorf("sweep runs must be greater than 0")
	}

	if c.Sweep.Workers < 0 {
		return fmt.Errorf("sweep workers must not be negative")
	}

	seen := make(map[int]bool, len(c.Sweep.Associativities))
	for _, a := range c.Sweep.Associativities {
		if a <= 0 {
			return fmt.Errorf("invalid sweep associativity: %d", a)
		}

		if seen[a] {
			return fmt.Errorf("duplicate sweep associativity: %d", a)
		}

		seen[a] = true
	}

	return nil
}

// Builder returns a hierarchy builder with the configured levels, seed and
// replacement strategy.
func (c *Configuration) Builder() hierarchy.Builder {
	return hierarchy.MakeBuilder().
		WithL1Spec(c.Levels.L1).
		WithL2Spec(c.Levels.L2).
		WithBackingSpec(c.Levels.Backing).
		WithSeed(c.Seed).
		WithReplaceStrategy(c.Replacement).
		WithAddressWidth(c.AddressWidth)
}
