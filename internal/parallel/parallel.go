// Package parallel provides the fan-out helpers used by training and evaluation.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64, // Evaluating one sample is cheap; keep chunks coarse.
	}
}

// WithWorkers returns cfg limited to n workers.
//
// n <= 1 disables parallelism.
func (cfg Config) WithWorkers(n int) Config {
	cfg.NumWorkers = max(n, 1)
	cfg.Enabled = n > 1
	return cfg
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// Range is the half-open interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns End − Start.
func (r Range) Len() int {
	return r.End - r.Start
}

// Partition splits [0, n) into at most parts contiguous, non-empty ranges
// whose lengths differ by at most one.
//
// Returns nil when n <= 0. parts <= 0 is treated as 1.
func Partition(n, parts int) []Range {
	if n <= 0 {
		return nil
	}
	parts = min(max(parts, 1), n)

	ranges := make([]Range, parts)
	base, extra := n/parts, n%parts
	start := 0
	for p := range ranges {
		size := base
		if p < extra {
			size++
		}
		ranges[p] = Range{Start: start, End: start + size}
		start += size
	}
	return ranges
}

// ForRanges runs f once per range of Partition(n, cfg.NumWorkers), each on its
// own goroutine when parallelism is enabled.
//
// worker is the index of the range, stable across calls with the same n and
// cfg, so callers can keep per-worker state such as model replicas.
func ForRanges(n int, f func(worker int, r Range), cfg Config) {
	parts := 1
	if cfg.Enabled {
		parts = cfg.NumWorkers
	}
	ranges := Partition(n, parts)
	if len(ranges) <= 1 {
		for w, r := range ranges {
			f(w, r)
		}
		return
	}

	var wg sync.WaitGroup
	for w, r := range ranges {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f(w, r)
		}()
	}
	wg.Wait()
}
