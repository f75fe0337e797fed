package tensor

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Map returns a new matrix with fn applied to every element of m.
func Map(fn func(float64) float64, m mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return fn(v) }, m)
	return &out
}

// Flatten returns the elements of m in row-major order.
//
// The returned slice is always a copy.
func Flatten(m mat.Matrix) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}

// Argmax returns the row-major index of the largest element of m.
//
// For an n×1 column this is the row index, which is how class predictions
// are read off a model output. Ties resolve to the lowest index.
func Argmax(m mat.Matrix) int {
	return floats.MaxIdx(Flatten(m))
}

// Clone returns a deep copy of m.
func Clone(m mat.Matrix) *mat.Dense {
	return mat.DenseCopyOf(m)
}

// SameShape reports whether a and b have identical dimensions.
func SameShape(a, b mat.Matrix) bool {
	return ShapeOf(a).Equal(ShapeOf(b))
}
