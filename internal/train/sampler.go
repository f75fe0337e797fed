package train

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/sampleuv"
)

// Sampler draws mini-batches of distinct sample indices.
type Sampler struct {
	n   int
	src rand.Source
}

// NewSampler creates a sampler over the indices [0, n).
//
// src seeds the draws; nil uses the math/rand/v2 global generator.
func NewSampler(n int, src rand.Source) (*Sampler, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sampler: population must be > 0 (got %d)", n)
	}
	return &Sampler{n: n, src: src}, nil
}

// Batch returns size distinct indices drawn uniformly from [0, n).
//
// size must be in [1, n].
func (s *Sampler) Batch(size int) ([]int, error) {
	if size <= 0 || size > s.n {
		return nil, fmt.Errorf("sampler: batch size must be in [1, %d] (got %d)", s.n, size)
	}
	idxs := make([]int, size)
	sampleuv.WithoutReplacement(idxs, s.n, s.src)
	return idxs, nil
}

// Population returns n.
func (s *Sampler) Population() int {
	return s.n
}
