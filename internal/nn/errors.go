package nn

import (
	"errors"
	"fmt"

	"github.com/LesbiansAttack/rosehip/internal/optim"
	"github.com/LesbiansAttack/rosehip/internal/tensor"
)

// Common errors.
var (
	ErrShapeMismatch     = errors.New("shape mismatch")
	ErrInvalidStepState  = errors.New("invalid step state")
	ErrLabelOutOfRange   = errors.New("label out of range")
	ErrInvalidDimensions = errors.New("layer dimensions must be > 0")
	ErrEmptyModel        = errors.New("model has no steps")
	ErrNoLinearLayer     = errors.New("model has no linear layer")
	ErrBuilderConsumed   = errors.New("model builder already built")
	ErrNilStep           = errors.New("nil step")
	ErrSharedStep        = errors.New("step added to the pipeline more than once")
	ErrIncompatibleModel = errors.New("models have different structure")

	// Re-exported from optim so callers only need this package.
	ErrInvalidBatchSize    = optim.ErrInvalidBatchSize
	ErrInvalidLearningRate = optim.ErrInvalidLearningRate
)

// ShapeMismatchError reports two consecutive linear layers whose widths disagree.
//
// LayerIndex is the position of the offending layer in the full step
// sequence, activations included.
type ShapeMismatchError struct {
	LayerIndex     int
	ExpectedInputs int
	ActualInputs   int
}

// Error implements the error interface.
func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch on layer %d: expected %d inputs but got %d inputs",
		e.LayerIndex, e.ExpectedInputs, e.ActualInputs)
}

// Unwrap returns ErrShapeMismatch.
func (e *ShapeMismatchError) Unwrap() error {
	return ErrShapeMismatch
}

// ShapeError reports a matrix handed to a step with the wrong dimensions.
type ShapeError struct {
	Op       string       // Operation (e.g., "linear forward")
	Operand  string       // Which argument was wrong (e.g., "input")
	Expected tensor.Shape // Zero rows means "any number of rows"
	Actual   tensor.Shape // Nil when the operand itself was nil
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	if e.Actual == nil {
		return fmt.Sprintf("%s: %s is nil", e.Op, e.Operand)
	}
	if e.Expected.Rows() == 0 {
		return fmt.Sprintf("%s: %s must be a column, got %v", e.Op, e.Operand, e.Actual)
	}
	return fmt.Sprintf("%s: %s must be %v, got %v", e.Op, e.Operand, e.Expected, e.Actual)
}

// Unwrap returns ErrShapeMismatch.
func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

// LabelError reports a label that cannot index the model's outputs.
type LabelError struct {
	Label   float64
	Outputs int
}

// Error implements the error interface.
func (e *LabelError) Error() string {
	return fmt.Sprintf("label %v is not a class index in [0, %d)", e.Label, e.Outputs)
}

// Unwrap returns ErrLabelOutOfRange.
func (e *LabelError) Unwrap() error {
	return ErrLabelOutOfRange
}
