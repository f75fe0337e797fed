// Package nn implements the step-pipeline training engine.
//
// This package provides:
//   - Step interface: one stage of a feed-forward pipeline
//   - LinearLayer: fully connected layer with batch gradient accumulators
//   - Activations: Sigmoid, Softmax, Passthrough
//   - ModelBuilder: assembles steps and validates the shape chain
//   - Model: forward inference, forward+backward, batch finalization
//   - Numeric primitives: stable softmax, sigmoid, squared error
//
// A model is an ordered list of steps. Forward folds the input through every
// step left to right; backward folds an (error, gradient) pair right to left.
// Each step only applies its own local derivative: linear layers consume the
// gradient factor and emit a neutral one, activations multiply their
// derivative into it.
//
//	model, err := nn.NewModelBuilder(rand.NewPCG(1, 2)).
//	    AddLinearLayer(784, 128, 0.01).
//	    AddSigmoid().
//	    AddLinearLayer(128, 10, 0.01).
//	    AddSoftmax().
//	    Build()
//
//	for _, s := range batch {
//	    if _, err := model.ForwardBackward(s.Input, s.Label); err != nil {
//	        return err
//	    }
//	}
//	err = model.FinalizeBatch(len(batch))
package nn

import (
	"gonum.org/v1/gonum/mat"
)

// StepKind identifies one of the closed set of step variants.
type StepKind int

// Step kinds.
const (
	KindLinear StepKind = iota
	KindSigmoid
	KindSoftmax
	KindPassthrough
)

// String returns the lowercase name of the kind.
func (k StepKind) String() string {
	switch k {
	case KindLinear:
		return "linear"
	case KindSigmoid:
		return "sigmoid"
	case KindSoftmax:
		return "softmax"
	case KindPassthrough:
		return "passthrough"
	default:
		return "unknown"
	}
}

// Step is one stage of a model pipeline.
//
// The set of implementations is closed: LinearLayer, SigmoidActivation,
// SoftmaxActivation and PassthroughActivation.
//
// Forward and Backward form a two-phase protocol. Forward returns a Trace
// holding the input it saw; the matching Backward call must be handed that
// trace, and a trace can be consumed only once.
type Step interface {
	// Kind returns the variant of this step.
	Kind() StepKind

	// Dimensions returns the declared input and output widths.
	//
	// ok is false for activations, which are elementwise and preserve shape.
	Dimensions() (inputs, outputs int, ok bool)

	// Forward computes the output of the step for an (n × 1) input column.
	//
	// Forward never mutates the step; everything Backward needs is in the
	// returned Trace.
	Forward(input *mat.Dense) (*mat.Dense, *Trace, error)

	// Backward propagates an additive error signal and a multiplicative
	// gradient factor to the preceding step.
	//
	// errorSignal and gradient have the shape of this step's output. The
	// returned pair has the shape of this step's input. Linear layers add
	// their parameter gradients to their accumulators as a side effect.
	Backward(trace *Trace, errorSignal, gradient *mat.Dense) (propagated, next *mat.Dense, err error)

	// FinalizeBatch applies and clears any accumulated parameter updates.
	//
	// No-op for activations.
	FinalizeBatch(batchSize int) error

	// clone returns an independent copy with zeroed accumulators.
	clone() Step
}
