package optim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SGD implements mini-batch Stochastic Gradient Descent.
//
// Update rule:
//
//	param = param - lr * (accum / batchSize)
//
// where accum is the sum of per-sample gradients collected during the batch.
type SGD struct {
	lr float64
}

var _ Optimizer = (*SGD)(nil)

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR float64 // Learning rate, must be finite and >= 0
}

// NewSGD creates a new SGD optimizer.
//
// A zero LR is accepted and freezes the parameters it is applied to.
func NewSGD(config SGDConfig) (*SGD, error) {
	if math.IsNaN(config.LR) || math.IsInf(config.LR, 0) || config.LR < 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidLearningRate, config.LR)
	}
	return &SGD{lr: config.LR}, nil
}

// Step performs a single optimization step on param.
//
// All arguments are validated before param is touched, so a failed Step
// leaves the parameter unchanged.
func (s *SGD) Step(param, accum *mat.Dense, batchSize int) error {
	if batchSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}
	pr, pc := param.Dims()
	ar, ac := accum.Dims()
	if pr != ar || pc != ac {
		return fmt.Errorf("%w: param (%d×%d), accumulator (%d×%d)", ErrShapeMismatch, pr, pc, ar, ac)
	}

	n := float64(batchSize)
	var update mat.Dense
	update.Apply(func(_, _ int, v float64) float64 {
		return s.lr * (v / n)
	}, accum)
	param.Sub(param, &update)

	return nil
}

// GetLR returns the learning rate.
func (s *SGD) GetLR() float64 {
	return s.lr
}
