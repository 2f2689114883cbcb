// Package analysis repeats randomized simulations and summarizes their
// results.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"github.com/sarchlab/cachesim/mem"
	"github.com/sarchlab/cachesim/mem/hierarchy"
)

// A Trace is a named, fully loaded access trace. Runs only read Accesses, so
// the slice is shared by all the runs of a sweep.
type Trace struct {
	Name     string
	Accesses []mem.Access
}

// Progress receives the number of runs started and finished.
type Progress interface {
	IncrementInProgress(amount uint64)
	MoveInProgressToFinished(amount uint64)
}

// A Result is the outcome of one run.
type Result struct {
	Trace         string
	Associativity int
	Run           int
	Seed          int64
	Report        hierarchy.RunReport
}

// Sweep runs every trace at every L2 associativity several times.
type Sweep struct {
	Traces          []Trace
	Associativities []int
	Runs            int
	BaseSeed        int64
	Workers         int
	ReplaceStrategy string

	// Base is the hierarchy configuration to start from. When nil the
	// reference configuration is used.
	Base *hierarchy.Builder

	// Progress, when set, is told about every run.
	Progress Progress

	// OnResult, when set, is called with every finished run. Calls are
	// serialized.
	OnResult func(Result)
}

type job struct {
	trace int
	assoc int
	run   int
}

type group struct {
	trace int
	assoc int
}

// NumRuns returns the number of simulations the sweep performs.
func (s *Sweep) NumRuns() int {
	return len(s.Traces) * len(s.Associativities) * s.runs()
}

func (s *Sweep) runs() int {
	if s.Runs <= 0 {
		return 1
	}

	return s.Runs
}

func (s *Sweep) workers() int {
	if s.Workers <= 0 {
		return runtime.NumCPU()
	}

	return s.Workers
}

func (s *Sweep) baseBuilder() hierarchy.Builder {
	b := hierarchy.MakeBuilder()
	if s.Base != nil {
		b = *s.Base
	}

	if s.ReplaceStrategy != "" {
		b = b.WithReplaceStrategy(s.ReplaceStrategy)
	}

	return b
}

// Seed returns the seed of one run. Runs of the same trace and associativity
// use consecutive seeds starting from a value mixed from the trace name and
// the associativity, so that groups do not replay each other's choices.
func (s *Sweep) Seed(traceName string, assoc, run int) int64 {
	h := fnv.New64a()
	h.Write([]byte(traceName))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(assoc)))

	return s.BaseSeed + int64(run) + int64(h.Sum64()>>1)
}

// validate rejects empty sweeps and repeated traces or associativities. A
// repeated entry would reuse the same seeds, and its identical samples would
// shrink the spread of the group.
func (s *Sweep) validate() error {
	if len(s.Traces) == 0 || len(s.Associativities) == 0 {
		return errors.New("sweep needs at least one trace and one associativity")
	}

	names := make(map[string]bool, len(s.Traces))
	for _, t := range s.Traces {
		if names[t.Name] {
			return fmt.Errorf("trace %s appears more than once", t.Name)
		}

		names[t.Name] = true
	}

	assocs := make(map[int]bool, len(s.Associativities))
	for _, a := range s.Associativities {
		if assocs[a] {
			return fmt.Errorf("associativity %d appears more than once", a)
		}

		assocs[a] = true
	}

	return nil
}

// Run performs the sweep and returns one summary per trace and
// associativity, in trace order then associativity order. When ctx is
// cancelled no new run is started and ctx.Err() is returned.
func (s *Sweep) Run(ctx context.Context) ([]Summary, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	base := s.baseBuilder()

	jobs := make(chan job)
	results := make(map[group][]Result)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for i := 0; i < s.workers(); i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := range jobs {
				res, err := s.runOne(base, j)

				mu.Lock()
				if err != nil && firstErr == nil {
					firstErr = err
				}

				if err == nil {
					g := group{trace: j.trace, assoc: j.assoc}
					results[g] = append(results[g], res)

					if s.OnResult != nil {
						s.OnResult(res)
					}
				}
				mu.Unlock()
			}
		}()
	}

	cancelled := s.schedule(ctx, jobs, &mu, &firstErr)

	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	if cancelled {
		return nil, ctx.Err()
	}

	return s.summarize(results), nil
}

func (s *Sweep) schedule(
	ctx context.Context,
	jobs chan<- job,
	mu *sync.Mutex,
	firstErr *error,
) (cancelled bool) {
	for t := range s.Traces {
		for _, assoc := range s.Associativities {
			for run := 0; run < s.runs(); run++ {
				mu.Lock()
				failed := *firstErr != nil
				mu.Unlock()

				if failed {
					return false
				}

				if ctx.Err() != nil {
					return true
				}

				select {
				case <-ctx.Done():
					return true
				case jobs <- job{trace: t, assoc: assoc, run: run}:
				}
			}
		}
	}

	return false
}

func (s *Sweep) runOne(base hierarchy.Builder, j job) (Result, error) {
	trace := s.Traces[j.trace]
	seed := s.Seed(trace.Name, j.assoc, j.run)

	if s.Progress != nil {
		s.Progress.IncrementInProgress(1)
		defer s.Progress.MoveInProgressToFinished(1)
	}

	h, err := base.
		WithL2Associativity(j.assoc).
		WithSeed(seed).
		Build()
	if err != nil {
		return Result{}, err
	}

	_, err = h.Run(hierarchy.NewSliceSource(trace.Accesses))
	if err != nil {
		return Result{}, err
	}

	return Result{
		Trace:         trace.Name,
		Associativity: j.assoc,
		Run:           j.run,
		Seed:          seed,
		Report:        h.Report(),
	}, nil
}

func (s *Sweep) summarize(results map[group][]Result) []Summary {
	groups := make([]group, 0, len(results))
	for g := range results {
		groups = append(groups, g)
	}

	assocOrder := make(map[int]int, len(s.Associativities))
	for i, a := range s.Associativities {
		if _, seen := assocOrder[a]; !seen {
			assocOrder[a] = i
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].trace != groups[j].trace {
			return groups[i].trace < groups[j].trace
		}

		return assocOrder[groups[i].assoc] < assocOrder[groups[j].assoc]
	})

	summaries := make([]Summary, 0, len(groups))
	for _, g := range groups {
		runs := results[g]
		sort.Slice(runs, func(i, j int) bool { return runs[i].Run < runs[j].Run })

		reports := make([]hierarchy.RunReport, len(runs))
		for i, r := range runs {
			reports[i] = r.Report
		}

		summaries = append(summaries,
			Summarize(s.Traces[g.trace].Name, g.assoc, reports))
	}

	return summaries
}
