package nn

import (
	"fmt"

	"github.com/LesbiansAttack/rosehip/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// activation holds what every parameterless step shares.
type activation struct {
	kind StepKind
}

// Kind returns the variant of this activation.
func (a *activation) Kind() StepKind {
	return a.kind
}

// Dimensions reports ok=false: activations are elementwise and preserve shape.
func (a *activation) Dimensions() (inputs, outputs int, ok bool) {
	return 0, 0, false
}

// FinalizeBatch has nothing to apply; it only rejects batchSize <= 0.
func (a *activation) FinalizeBatch(batchSize int) error {
	if batchSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}
	return nil
}

// forward validates input and records a trace for s.
func (a *activation) forward(s Step, input *mat.Dense) (*Trace, error) {
	if err := checkColumn(a.kind.String()+" forward", "input", input, 0); err != nil {
		return nil, err
	}
	return newTrace(s, input), nil
}

// backward validates the trace and both operands for s.
//
// errorSignal and gradient must match the recorded input shape.
func (a *activation) backward(s Step, trace *Trace, errorSignal, gradient *mat.Dense) (*mat.Dense, error) {
	input, err := trace.open(s)
	if err != nil {
		return nil, err
	}
	rows, _ := input.Dims()
	op := a.kind.String() + " backward"
	if err := checkColumn(op, "error", errorSignal, rows); err != nil {
		return nil, err
	}
	if err := checkColumn(op, "gradient", gradient, rows); err != nil {
		return nil, err
	}
	trace.markConsumed()
	return input, nil
}

// SigmoidActivation applies σ(x) = 1 / (1 + exp(-x)) elementwise.
//
// Backward passes the error through unchanged and multiplies the gradient
// factor by σ'(x) of the recorded input.
type SigmoidActivation struct {
	activation
}

// NewSigmoid creates a new SigmoidActivation step.
func NewSigmoid() *SigmoidActivation {
	return &SigmoidActivation{activation{kind: KindSigmoid}}
}

// Forward applies Sigmoid elementwise.
func (s *SigmoidActivation) Forward(input *mat.Dense) (*mat.Dense, *Trace, error) {
	trace, err := s.forward(s, input)
	if err != nil {
		return nil, nil, err
	}
	return tensor.Map(Sigmoid, input), trace, nil
}

// Backward returns (errorSignal, σ'(x) ⊙ gradient).
func (s *SigmoidActivation) Backward(trace *Trace, errorSignal, gradient *mat.Dense) (*mat.Dense, *mat.Dense, error) {
	input, err := s.backward(s, trace, errorSignal, gradient)
	if err != nil {
		return nil, nil, err
	}
	var next mat.Dense
	next.MulElem(tensor.Map(DSigmoid, input), gradient)
	return errorSignal, &next, nil
}

func (s *SigmoidActivation) clone() Step {
	return NewSigmoid()
}

// SoftmaxActivation applies the numerically stable softmax over its input column.
//
// Backward multiplies the gradient factor by p(1 − p), the diagonal of the
// softmax Jacobian. See DSoftmaxStable.
type SoftmaxActivation struct {
	activation
}

// NewSoftmax creates a new SoftmaxActivation step.
func NewSoftmax() *SoftmaxActivation {
	return &SoftmaxActivation{activation{kind: KindSoftmax}}
}

// Forward applies SoftmaxStable.
func (s *SoftmaxActivation) Forward(input *mat.Dense) (*mat.Dense, *Trace, error) {
	trace, err := s.forward(s, input)
	if err != nil {
		return nil, nil, err
	}
	return SoftmaxStable(input), trace, nil
}

// Backward returns (errorSignal, DSoftmaxStable(x) ⊙ gradient).
func (s *SoftmaxActivation) Backward(trace *Trace, errorSignal, gradient *mat.Dense) (*mat.Dense, *mat.Dense, error) {
	input, err := s.backward(s, trace, errorSignal, gradient)
	if err != nil {
		return nil, nil, err
	}
	var next mat.Dense
	next.MulElem(DSoftmaxStable(input), gradient)
	return errorSignal, &next, nil
}

func (s *SoftmaxActivation) clone() Step {
	return NewSoftmax()
}

// PassthroughActivation returns its input unchanged.
//
// It pads a pipeline where two linear layers would otherwise be adjacent, or
// terminates one that ends with a linear layer.
type PassthroughActivation struct {
	activation
}

// NewPassthrough creates a new PassthroughActivation step.
func NewPassthrough() *PassthroughActivation {
	return &PassthroughActivation{activation{kind: KindPassthrough}}
}

// Forward returns a copy of input.
func (p *PassthroughActivation) Forward(input *mat.Dense) (*mat.Dense, *Trace, error) {
	trace, err := p.forward(p, input)
	if err != nil {
		return nil, nil, err
	}
	return tensor.Clone(input), trace, nil
}

// Backward returns (errorSignal, gradient) unchanged.
func (p *PassthroughActivation) Backward(trace *Trace, errorSignal, gradient *mat.Dense) (*mat.Dense, *mat.Dense, error) {
	if _, err := p.backward(p, trace, errorSignal, gradient); err != nil {
		return nil, nil, err
	}
	return errorSignal, gradient, nil
}

func (p *PassthroughActivation) clone() Step {
	return NewPassthrough()
}
