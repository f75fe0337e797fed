// Copyright 2025 Rosehip Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand/v2"

	"github.com/LesbiansAttack/rosehip/internal/nn"
	"gonum.org/v1/gonum/mat"
)

// Step is one stage of a model pipeline.
type Step = nn.Step

// StepKind identifies a step variant.
type StepKind = nn.StepKind

// Step kinds.
const (
	KindLinear      = nn.KindLinear
	KindSigmoid     = nn.KindSigmoid
	KindSoftmax     = nn.KindSoftmax
	KindPassthrough = nn.KindPassthrough
)

// Trace is the record a step's Forward hands to its matching Backward.
type Trace = nn.Trace

// Steps

// LinearLayer is a fully connected layer with batch gradient accumulators.
type LinearLayer = nn.LinearLayer

// NewLinearLayer creates a linear layer with weights drawn from
// N(0, 1)/sqrt(outputs) and biases from U(−0.01, 0.01).
//
// Example:
//
//	layer, err := nn.NewLinearLayer(784, 128, 0.01, rand.NewPCG(1, 2))
func NewLinearLayer(inputs, outputs int, learningRate float64, src rand.Source) (*LinearLayer, error) {
	return nn.NewLinearLayer(inputs, outputs, learningRate, src)
}

// NewLinearLayerFrom creates a linear layer with explicit parameters.
func NewLinearLayerFrom(weights, biases *mat.Dense, learningRate float64) (*LinearLayer, error) {
	return nn.NewLinearLayerFrom(weights, biases, learningRate)
}

// SigmoidActivation applies the logistic function elementwise.
type SigmoidActivation = nn.SigmoidActivation

// NewSigmoid creates a sigmoid step.
func NewSigmoid() *SigmoidActivation {
	return nn.NewSigmoid()
}

// SoftmaxActivation applies the numerically stable softmax.
type SoftmaxActivation = nn.SoftmaxActivation

// NewSoftmax creates a softmax step.
func NewSoftmax() *SoftmaxActivation {
	return nn.NewSoftmax()
}

// PassthroughActivation returns its input unchanged.
type PassthroughActivation = nn.PassthroughActivation

// NewPassthrough creates a passthrough step.
func NewPassthrough() *PassthroughActivation {
	return nn.NewPassthrough()
}

// Models

// ModelBuilder accumulates steps and validates them in Build.
type ModelBuilder = nn.ModelBuilder

// NewModelBuilder creates an empty builder seeded by src.
func NewModelBuilder(src rand.Source) *ModelBuilder {
	return nn.NewModelBuilder(src)
}

// Model is an ordered, validated pipeline of steps.
type Model = nn.Model

// Numeric primitives

// Sigmoid computes 1 / (1 + exp(-x)).
func Sigmoid(x float64) float64 { return nn.Sigmoid(x) }

// DSigmoid computes the derivative of Sigmoid.
func DSigmoid(x float64) float64 { return nn.DSigmoid(x) }

// SoftmaxStable computes a max-shifted softmax over all elements of x.
func SoftmaxStable(x mat.Matrix) *mat.Dense { return nn.SoftmaxStable(x) }

// DSoftmaxStable computes p(1 − p) for p = SoftmaxStable(x).
func DSoftmaxStable(x mat.Matrix) *mat.Dense { return nn.DSoftmaxStable(x) }

// SquaredError computes ||target − output||².
func SquaredError(target, output mat.Matrix) float64 { return nn.SquaredError(target, output) }

// DSquaredError computes 2(output − target).
func DSquaredError(target, output mat.Matrix) *mat.Dense { return nn.DSquaredError(target, output) }

// Errors

// Sentinel errors.
var (
	ErrShapeMismatch       = nn.ErrShapeMismatch
	ErrInvalidStepState    = nn.ErrInvalidStepState
	ErrLabelOutOfRange     = nn.ErrLabelOutOfRange
	ErrInvalidBatchSize    = nn.ErrInvalidBatchSize
	ErrInvalidDimensions   = nn.ErrInvalidDimensions
	ErrInvalidLearningRate = nn.ErrInvalidLearningRate
	ErrEmptyModel          = nn.ErrEmptyModel
	ErrNoLinearLayer       = nn.ErrNoLinearLayer
	ErrBuilderConsumed     = nn.ErrBuilderConsumed
	ErrNilStep             = nn.ErrNilStep
	ErrSharedStep          = nn.ErrSharedStep
	ErrIncompatibleModel   = nn.ErrIncompatibleModel
)

// ShapeMismatchError reports adjacent linear layers whose widths disagree.
type ShapeMismatchError = nn.ShapeMismatchError

// ShapeError reports a matrix with the wrong dimensions.
type ShapeError = nn.ShapeError

// LabelError reports a label that is not a valid class index.
type LabelError = nn.LabelError
