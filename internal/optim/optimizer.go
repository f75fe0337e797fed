// Package optim implements the parameter update rules applied when a
// mini-batch is finalized.
//
// Layers accumulate raw gradient sums across a batch; an Optimizer turns
// those sums into an in-place parameter update:
//
//	sgd, _ := optim.NewSGD(optim.SGDConfig{LR: 0.01})
//	if err := sgd.Step(weights, deltaWeights, batchSize); err != nil {
//	    return err
//	}
//
// The learning rate is fixed for the lifetime of an optimizer.
package optim

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Common errors.
var (
	ErrInvalidLearningRate = errors.New("learning rate must be finite and >= 0")
	ErrInvalidBatchSize    = errors.New("batch size must be > 0")
	ErrShapeMismatch       = errors.New("parameter and accumulator shapes differ")
)

// Optimizer is the base interface for update rules.
type Optimizer interface {
	// Step applies the averaged accumulated gradient to param in-place.
	//
	// accum holds the sum of per-sample gradients over batchSize samples
	// and must have the same shape as param. accum is not modified.
	Step(param, accum *mat.Dense, batchSize int) error

	// GetLR returns the learning rate.
	GetLR() float64
}
