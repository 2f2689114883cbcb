// Package cmd provides the command-line interface of cachesim.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/config"
)

// newRootCmd creates the base command and all its subcommands.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cachesim",
		Short: "cachesim replays memory traces through a cache hierarchy.",
		Long: `cachesim replays Dinero-style memory traces through a ` +
			`two-level cache hierarchy backed by DRAM and reports hit ` +
			`rates, energy and average memory access time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "",
		"YAML configuration file")
	rootCmd.PersistentFlags().String("replace", "",
		"replacement strategy: random, lru or roundrobin")
	rootCmd.PersistentFlags().Int64("seed", 0,
		"seed of the random replacement strategy")

	rootCmd.AddCommand(newRunCmd(), newSweepCmd(), newShowCmd())

	return rootCmd
}

// Execute runs the command line and exits. Registered exit handlers, such as
// the flush of data recorders, run before the process ends.
func Execute() {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// loadConfig loads the configuration file and applies the flags shared by
// all commands.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	path, _ := cmd.Flags().GetString("config")

	c, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("replace") {
		c.Replacement, _ = cmd.Flags().GetString("replace")
	}

	if cmd.Flags().Changed("seed") {
		c.Seed, _ = cmd.Flags().GetInt64("seed")
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}
