package nn

import (
	"github.com/LesbiansAttack/rosehip/internal/tensor"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SquaredError computes ||target − output||².
//
// Panics if target and output have different shapes.
func SquaredError(target, output mat.Matrix) float64 {
	if !tensor.SameShape(target, output) {
		panic("SquaredError: target and output must have the same shape")
	}
	out := tensor.Flatten(output)
	diff := floats.SubTo(make([]float64, len(out)), out, tensor.Flatten(target))
	return floats.Dot(diff, diff)
}

// DSquaredError computes the gradient of SquaredError with respect to
// output: 2(output − target).
//
// Panics if target and output have different shapes.
func DSquaredError(target, output mat.Matrix) *mat.Dense {
	if !tensor.SameShape(target, output) {
		panic("DSquaredError: target and output must have the same shape")
	}
	var grad mat.Dense
	grad.Sub(output, target)
	grad.Scale(2, &grad)
	return &grad
}
