package nn

import (
	"fmt"
	"math"

	"github.com/LesbiansAttack/rosehip/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// Model is an ordered pipeline of steps produced by ModelBuilder.Build.
//
// The shape chain between linear layers was validated once at build time and
// is not re-checked here. Training mutates the model in place:
//
//	for _, i := range batch {
//	    x, label := data.Sample(i)
//	    if _, err := model.ForwardBackward(x, label); err != nil {
//	        return err
//	    }
//	}
//	if err := model.FinalizeBatch(len(batch)); err != nil {
//	    return err
//	}
//
// Forward only reads parameters, so concurrent Forward calls are safe as long
// as nothing trains the model at the same time. ForwardBackward, FinalizeBatch,
// MergeAccumulated and SyncParameters must not run concurrently with anything
// else on the same model.
type Model struct {
	steps     []Step
	outputs   int
	numLinear int
}

// Forward folds input through every step and returns the final output.
//
// Input shape: (inputs × 1)
// Output shape: (outputs × 1)
func (m *Model) Forward(input *mat.Dense) (*mat.Dense, error) {
	out := input
	for i, step := range m.steps {
		next, _, err := step.Forward(out)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Kind(), err)
		}
		out = next
	}
	return out, nil
}

// forwardTraced is Forward that keeps every step's trace for a backward pass.
func (m *Model) forwardTraced(input *mat.Dense) (*mat.Dense, []*Trace, error) {
	traces := make([]*Trace, len(m.steps))
	out := input
	for i, step := range m.steps {
		next, trace, err := step.Forward(out)
		if err != nil {
			return nil, nil, fmt.Errorf("step %d (%s): %w", i, step.Kind(), err)
		}
		traces[i] = trace
		out = next
	}
	return out, traces, nil
}

// ForwardBackward runs one training sample through the model.
//
// The label is turned into a one-hot target of width Outputs(). After the
// forward fold, the initial error is 2(output − target) and the initial
// gradient factor is a column of ones; both are threaded through every step's
// Backward in reverse order. Linear layers accumulate their gradients as a
// side effect.
//
// Returns the forward output. The label and the forward pass are validated
// before any accumulator is touched, so a failed call contributes nothing to
// the current batch.
func (m *Model) ForwardBackward(input *mat.Dense, label float64) (*mat.Dense, error) {
	target, err := m.target(label)
	if err != nil {
		return nil, err
	}

	output, traces, err := m.forwardTraced(input)
	if err != nil {
		return nil, err
	}
	if !tensor.SameShape(output, target) {
		return nil, &ShapeError{
			Op:       "forward backward",
			Operand:  "output",
			Expected: tensor.ShapeOf(target),
			Actual:   tensor.ShapeOf(output),
		}
	}

	errorSignal := DSquaredError(target, output)
	gradient := tensor.Ones(m.outputs, 1)
	for i := len(m.steps) - 1; i >= 0; i-- {
		step := m.steps[i]
		errorSignal, gradient, err = step.Backward(traces[i], errorSignal, gradient)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Kind(), err)
		}
	}

	return output, nil
}

// FinalizeBatch applies the accumulated updates of every step in forward order.
//
// batchSize must equal the number of ForwardBackward calls since the last
// finalization for the update to be the batch mean. batchSize <= 0 returns
// ErrInvalidBatchSize without touching any step.
func (m *Model) FinalizeBatch(batchSize int) error {
	if batchSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}
	for i, step := range m.steps {
		if err := step.FinalizeBatch(batchSize); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Kind(), err)
		}
	}
	return nil
}

// Loss returns the squared error between output and the one-hot target for label.
func (m *Model) Loss(output *mat.Dense, label float64) (float64, error) {
	target, err := m.target(label)
	if err != nil {
		return 0, err
	}
	if err := checkColumn("loss", "output", output, m.outputs); err != nil {
		return 0, err
	}
	return SquaredError(target, output), nil
}

// Predict returns the index of the largest output for input.
func (m *Model) Predict(input *mat.Dense) (int, error) {
	out, err := m.Forward(input)
	if err != nil {
		return 0, err
	}
	return tensor.Argmax(out), nil
}

// target builds the one-hot column for label.
//
// label must be a finite, non-negative integer below Outputs().
func (m *Model) target(label float64) (*mat.Dense, error) {
	if math.IsNaN(label) || math.IsInf(label, 0) || label < 0 ||
		label != math.Trunc(label) || label >= float64(m.outputs) {
		return nil, &LabelError{Label: label, Outputs: m.outputs}
	}
	return tensor.OneHot(m.outputs, int(label))
}

// Outputs returns the output width of the last linear layer.
func (m *Model) Outputs() int {
	return m.outputs
}

// Inputs returns the input width of the first linear layer.
func (m *Model) Inputs() int {
	for _, step := range m.steps {
		if inputs, _, ok := step.Dimensions(); ok {
			return inputs
		}
	}
	return 0
}

// NumLinearLayers returns the number of parameterized layers.
func (m *Model) NumLinearLayers() int {
	return m.numLinear
}

// Len returns the number of steps.
func (m *Model) Len() int {
	return len(m.steps)
}

// Step returns the step at the given index.
//
// Panics if index is out of bounds.
func (m *Model) Step(index int) Step {
	if index < 0 || index >= len(m.steps) {
		panic("Model.Step: index out of bounds")
	}
	return m.steps[index]
}

// Steps returns the pipeline in forward order.
//
// The slice is a copy; the steps themselves are shared with the model.
func (m *Model) Steps() []Step {
	steps := make([]Step, len(m.steps))
	copy(steps, m.steps)
	return steps
}

// LinearLayers returns the model's linear layers in forward order.
func (m *Model) LinearLayers() []*LinearLayer {
	layers := make([]*LinearLayer, 0, m.numLinear)
	for _, step := range m.steps {
		if l, ok := step.(*LinearLayer); ok {
			layers = append(layers, l)
		}
	}
	return layers
}

// String describes the pipeline, e.g. "linear(784→128) → sigmoid → linear(128→10) → softmax".
func (m *Model) String() string {
	s := ""
	for i, step := range m.steps {
		if i > 0 {
			s += " → "
		}
		if in, out, ok := step.Dimensions(); ok {
			s += fmt.Sprintf("%s(%d→%d)", step.Kind(), in, out)
		} else {
			s += step.Kind().String()
		}
	}
	return s
}
