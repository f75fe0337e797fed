package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Zeros creates a rows×cols matrix filled with zeros.
//
// Panics if either dimension is not positive.
//
// Example:
//
//	acc := tensor.Zeros(10, 784) // gradient accumulator for a 784→10 layer
func Zeros(rows, cols int) *mat.Dense {
	mustValidate("Zeros", rows, cols)
	return mat.NewDense(rows, cols, nil)
}

// Ones creates a rows×cols matrix filled with ones.
func Ones(rows, cols int) *mat.Dense {
	return Full(rows, cols, 1)
}

// Full creates a rows×cols matrix filled with value.
//
// Panics if either dimension is not positive.
func Full(rows, cols int, value float64) *mat.Dense {
	shape := mustValidate("Full", rows, cols)
	data := make([]float64, shape.NumElements())
	for i := range data {
		data[i] = value
	}
	return mat.NewDense(rows, cols, data)
}

// Column creates an n×1 column vector holding a copy of data.
//
// Example:
//
//	x := tensor.Column([]float64{0.1, 0.5, 0.9}) // shape (3×1)
func Column(data []float64) *mat.Dense {
	if len(data) == 0 {
		panic("tensor.Column: empty data")
	}
	buf := make([]float64, len(data))
	copy(buf, data)
	return mat.NewDense(len(buf), 1, buf)
}

// OneHot creates a width×1 column with a 1 at index and 0 elsewhere.
//
// Returns an error if index is outside [0, width).
func OneHot(width, index int) (*mat.Dense, error) {
	if width <= 0 {
		return nil, fmt.Errorf("one-hot width must be > 0, got %d", width)
	}
	if index < 0 || index >= width {
		return nil, fmt.Errorf("one-hot index %d out of range [0, %d)", index, width)
	}
	m := Zeros(width, 1)
	m.Set(index, 0, 1)
	return m, nil
}

func mustValidate(op string, rows, cols int) Shape {
	shape := Shape{rows, cols}
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor.%s: %v", op, err))
	}
	return shape
}
