package nn

import (
	"fmt"

	"github.com/LesbiansAttack/rosehip/internal/tensor"
	"gonum.org/v1/gonum/mat"
)

// Trace is the record a Step's Forward hands to its matching Backward.
//
// It holds a private copy of the forward input. A trace is bound to the step
// that produced it and can be consumed by exactly one successful Backward.
type Trace struct {
	step     Step
	input    *mat.Dense
	consumed bool
}

func newTrace(s Step, input *mat.Dense) *Trace {
	return &Trace{step: s, input: tensor.Clone(input)}
}

// Input returns a copy of the input recorded by Forward.
func (t *Trace) Input() *mat.Dense {
	return tensor.Clone(t.input)
}

// Consumed reports whether a Backward call has already used this trace.
func (t *Trace) Consumed() bool {
	return t.consumed
}

// open validates the trace for a Backward call on s and returns the recorded input.
//
// The trace is not marked consumed here; callers do that once every other
// argument has been validated.
func (t *Trace) open(s Step) (*mat.Dense, error) {
	switch {
	case t == nil:
		return nil, fmt.Errorf("%w: %s backward called without a forward trace", ErrInvalidStepState, s.Kind())
	case t.step != s:
		return nil, fmt.Errorf("%w: %s backward given a trace from a different step", ErrInvalidStepState, s.Kind())
	case t.consumed:
		return nil, fmt.Errorf("%w: %s backward called twice for one forward", ErrInvalidStepState, s.Kind())
	}
	return t.input, nil
}

func (t *Trace) markConsumed() {
	t.consumed = true
}

// checkColumn verifies m is a column vector, with exactly rows rows when rows > 0.
func checkColumn(op, operand string, m *mat.Dense, rows int) error {
	if m == nil {
		return &ShapeError{Op: op, Operand: operand, Expected: tensor.ColumnShape(rows)}
	}
	r, c := m.Dims()
	if c != 1 || (rows > 0 && r != rows) {
		return &ShapeError{Op: op, Operand: operand, Expected: tensor.ColumnShape(rows), Actual: tensor.Shape{r, c}}
	}
	return nil
}
