package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/LesbiansAttack/rosehip/internal/optim"
	"github.com/LesbiansAttack/rosehip/internal/tensor"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LinearLayer implements a fully connected (dense) layer on column vectors.
//
// Performs the transformation: y = W · x + b
// where:
//   - x is the input column with shape (inputs × 1)
//   - W is the weight matrix with shape (outputs × inputs)
//   - b is the bias column with shape (outputs × 1)
//   - y is the output column with shape (outputs × 1)
//
// Backward does not touch W or b. It adds the sample's gradient to the
// deltaWeights/deltaBiases accumulators; FinalizeBatch applies the averaged
// sum through SGD and zeroes the accumulators.
//
// Example:
//
//	layer, err := nn.NewLinearLayer(784, 128, 0.01, rand.NewPCG(1, 2))
//	out, trace, err := layer.Forward(x)                      // (128 × 1)
//	errIn, gradIn, err := layer.Backward(trace, errOut, gradOut)
//	err = layer.FinalizeBatch(1)
type LinearLayer struct {
	inputs  int
	outputs int

	weights *mat.Dense // (outputs × inputs)
	biases  *mat.Dense // (outputs × 1)

	deltaWeights *mat.Dense // Σ per-sample ∂L/∂W since the last FinalizeBatch
	deltaBiases  *mat.Dense // Σ per-sample ∂L/∂b since the last FinalizeBatch
	accumulated  int        // Samples accumulated since the last FinalizeBatch

	sgd optim.Optimizer
}

// NewLinearLayer creates a new LinearLayer with randomly initialized parameters.
//
// Weights are drawn from N(0, 1)/sqrt(outputs), biases from U(−0.01, 0.01),
// both from src.
//
// Parameters:
//   - inputs: Number of input features, must be > 0
//   - outputs: Number of output features, must be > 0
//   - learningRate: Constant SGD learning rate, finite and >= 0
//   - src: Random source; nil uses the math/rand/v2 global generator
//
// Returns an error wrapping ErrInvalidDimensions or ErrInvalidLearningRate.
func NewLinearLayer(inputs, outputs int, learningRate float64, src rand.Source) (*LinearLayer, error) {
	if inputs <= 0 || outputs <= 0 {
		return nil, fmt.Errorf("%w: got %d inputs, %d outputs", ErrInvalidDimensions, inputs, outputs)
	}
	return newLinearLayer(ScaledNormal(outputs, inputs, src), SmallUniform(outputs, 1, src), learningRate)
}

// NewLinearLayerFrom creates a LinearLayer with explicit parameters.
//
// weights must be (outputs × inputs) and biases (outputs × 1). Both are copied.
func NewLinearLayerFrom(weights, biases *mat.Dense, learningRate float64) (*LinearLayer, error) {
	if weights == nil || biases == nil {
		return nil, fmt.Errorf("%w: nil weights or biases", ErrInvalidDimensions)
	}
	outputs, inputs := weights.Dims()
	if inputs <= 0 || outputs <= 0 {
		return nil, fmt.Errorf("%w: got %d inputs, %d outputs", ErrInvalidDimensions, inputs, outputs)
	}
	if err := checkColumn("linear layer", "biases", biases, outputs); err != nil {
		return nil, err
	}
	return newLinearLayer(tensor.Clone(weights), tensor.Clone(biases), learningRate)
}

func newLinearLayer(weights, biases *mat.Dense, learningRate float64) (*LinearLayer, error) {
	sgd, err := optim.NewSGD(optim.SGDConfig{LR: learningRate})
	if err != nil {
		return nil, err
	}
	outputs, inputs := weights.Dims()
	return &LinearLayer{
		inputs:       inputs,
		outputs:      outputs,
		weights:      weights,
		biases:       biases,
		deltaWeights: tensor.Zeros(outputs, inputs),
		deltaBiases:  tensor.Zeros(outputs, 1),
		sgd:          sgd,
	}, nil
}

// Kind returns KindLinear.
func (l *LinearLayer) Kind() StepKind {
	return KindLinear
}

// Dimensions returns the declared input and output widths.
func (l *LinearLayer) Dimensions() (inputs, outputs int, ok bool) {
	return l.inputs, l.outputs, true
}

// Forward computes y = W · x + b.
//
// Input shape: (inputs × 1)
// Output shape: (outputs × 1)
func (l *LinearLayer) Forward(input *mat.Dense) (*mat.Dense, *Trace, error) {
	if err := checkColumn("linear forward", "input", input, l.inputs); err != nil {
		return nil, nil, err
	}

	var out mat.Dense
	out.Mul(l.weights, input)
	out.Add(&out, l.biases)

	return &out, newTrace(l, input), nil
}

// Backward accumulates this sample's parameter gradients and propagates the error.
//
// With e = errorSignal ⊙ gradient:
//
//	deltaWeights += e · xᵀ
//	deltaBiases  += e
//	propagated    = Wᵀ · e
//
// The returned gradient factor is a column of ones: the preceding activation
// multiplies in its own derivative.
//
// The trace and both operand shapes are validated before any accumulator is
// modified.
func (l *LinearLayer) Backward(trace *Trace, errorSignal, gradient *mat.Dense) (*mat.Dense, *mat.Dense, error) {
	input, err := trace.open(l)
	if err != nil {
		return nil, nil, err
	}
	if err := checkColumn("linear backward", "error", errorSignal, l.outputs); err != nil {
		return nil, nil, err
	}
	if err := checkColumn("linear backward", "gradient", gradient, l.outputs); err != nil {
		return nil, nil, err
	}
	trace.markConsumed()

	var effective mat.Dense
	effective.MulElem(errorSignal, gradient)

	var dw mat.Dense
	dw.Mul(&effective, input.T())
	l.deltaWeights.Add(l.deltaWeights, &dw)
	l.deltaBiases.Add(l.deltaBiases, &effective)
	l.accumulated++

	var propagated mat.Dense
	propagated.Mul(l.weights.T(), &effective)

	return &propagated, tensor.Ones(l.inputs, 1), nil
}

// FinalizeBatch applies the averaged accumulated gradients and resets the accumulators.
//
//	W -= lr · deltaWeights / batchSize
//	b -= lr · deltaBiases / batchSize
//
// Returns ErrInvalidBatchSize for batchSize <= 0, leaving all state unchanged.
func (l *LinearLayer) FinalizeBatch(batchSize int) error {
	if batchSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}
	if err := l.sgd.Step(l.weights, l.deltaWeights, batchSize); err != nil {
		return fmt.Errorf("update weights: %w", err)
	}
	if err := l.sgd.Step(l.biases, l.deltaBiases, batchSize); err != nil {
		return fmt.Errorf("update biases: %w", err)
	}
	l.resetAccumulators()
	return nil
}

func (l *LinearLayer) resetAccumulators() {
	l.deltaWeights.Zero()
	l.deltaBiases.Zero()
	l.accumulated = 0
}

// mergeFrom adds other's accumulators into l and zeroes other's.
//
// Both layers must have the same dimensions.
func (l *LinearLayer) mergeFrom(other *LinearLayer) {
	floats.Add(l.deltaWeights.RawMatrix().Data, other.deltaWeights.RawMatrix().Data)
	floats.Add(l.deltaBiases.RawMatrix().Data, other.deltaBiases.RawMatrix().Data)
	l.accumulated += other.accumulated
	other.resetAccumulators()
}

// copyParametersFrom overwrites l's weights and biases with other's.
func (l *LinearLayer) copyParametersFrom(other *LinearLayer) {
	l.weights.Copy(other.weights)
	l.biases.Copy(other.biases)
}

func (l *LinearLayer) clone() Step {
	return &LinearLayer{
		inputs:       l.inputs,
		outputs:      l.outputs,
		weights:      tensor.Clone(l.weights),
		biases:       tensor.Clone(l.biases),
		deltaWeights: tensor.Zeros(l.outputs, l.inputs),
		deltaBiases:  tensor.Zeros(l.outputs, 1),
		sgd:          l.sgd,
	}
}

// Weights returns a copy of the weight matrix (outputs × inputs).
func (l *LinearLayer) Weights() *mat.Dense {
	return tensor.Clone(l.weights)
}

// Biases returns a copy of the bias column (outputs × 1).
func (l *LinearLayer) Biases() *mat.Dense {
	return tensor.Clone(l.biases)
}

// DeltaWeights returns a copy of the weight gradient accumulator.
func (l *LinearLayer) DeltaWeights() *mat.Dense {
	return tensor.Clone(l.deltaWeights)
}

// DeltaBiases returns a copy of the bias gradient accumulator.
func (l *LinearLayer) DeltaBiases() *mat.Dense {
	return tensor.Clone(l.deltaBiases)
}

// Accumulated returns the number of samples accumulated since the last FinalizeBatch.
func (l *LinearLayer) Accumulated() int {
	return l.accumulated
}

// LearningRate returns the constant learning rate.
func (l *LinearLayer) LearningRate() float64 {
	return l.sgd.GetLR()
}

// InFeatures returns the number of input features.
func (l *LinearLayer) InFeatures() int {
	return l.inputs
}

// OutFeatures returns the number of output features.
func (l *LinearLayer) OutFeatures() int {
	return l.outputs
}
