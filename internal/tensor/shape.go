package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Shape represents the dimensions of a matrix as {rows, cols}.
type Shape []int

// ShapeOf returns the shape of m.
func ShapeOf(m mat.Matrix) Shape {
	r, c := m.Dims()
	return Shape{r, c}
}

// ColumnShape returns the shape of an n×1 column vector.
func ColumnShape(n int) Shape {
	return Shape{n, 1}
}

// Rows returns the number of rows, or 0 for an empty shape.
func (s Shape) Rows() int {
	if len(s) == 0 {
		return 0
	}
	return s[0]
}

// Cols returns the number of columns, or 0 for a shape without a second dimension.
func (s Shape) Cols() int {
	if len(s) < 2 {
		return 0
	}
	return s[1]
}

// NumElements returns the total number of elements.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 0
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that the shape is two-dimensional and every dimension is > 0.
//
// A shape that fails Validate can never back a *mat.Dense.
func (s Shape) Validate() error {
	if len(s) != 2 {
		return fmt.Errorf("invalid rank %d: matrices are two-dimensional", len(s))
	}
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// String formats the shape as "(rows×cols)".
func (s Shape) String() string {
	return fmt.Sprintf("(%d×%d)", s.Rows(), s.Cols())
}
