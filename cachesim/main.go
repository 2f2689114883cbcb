// Command cachesim replays memory traces through a cache hierarchy and
// reports hit rates, energy and access time.
package main

import "github.com/sarchlab/cachesim/cachesim/cmd"

func main() {
	cmd.Execute()
}
