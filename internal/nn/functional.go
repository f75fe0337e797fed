package nn

import (
	"math"

	"github.com/LesbiansAttack/rosehip/internal/tensor"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Sigmoid computes σ(x) = 1 / (1 + exp(-x)).
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// DSigmoid computes the derivative σ'(x) = σ(x)(1 − σ(x)).
//
// Written in terms of σ so that large negative x gives 0 instead of Inf/Inf.
func DSigmoid(x float64) float64 {
	s := Sigmoid(x)
	return s * (1 - s)
}

// SoftmaxStable computes softmax over all elements of x.
//
// The maximum element is subtracted before exponentiation, so inputs such as
// [1000, 1000, 1000] produce [1/3, 1/3, 1/3] instead of overflowing.
// The result has the same shape as x.
func SoftmaxStable(x mat.Matrix) *mat.Dense {
	p := softmaxSlice(tensor.Flatten(x))
	r, c := x.Dims()
	return mat.NewDense(r, c, p)
}

// DSoftmaxStable computes p(1 − p) for p = SoftmaxStable(x), elementwise.
//
// This is the diagonal of the softmax Jacobian only. The cross terms
// −p_i·p_j are dropped, so chaining it with a loss gradient is an
// approximation of the exact gradient.
func DSoftmaxStable(x mat.Matrix) *mat.Dense {
	p := softmaxSlice(tensor.Flatten(x))
	for i, v := range p {
		p[i] = v * (1 - v)
	}
	r, c := x.Dims()
	return mat.NewDense(r, c, p)
}

// softmaxSlice overwrites and returns s with its softmax.
func softmaxSlice(s []float64) []float64 {
	maxVal := floats.Max(s)
	for i, v := range s {
		s[i] = math.Exp(v - maxVal)
	}
	sum := floats.Sum(s)
	for i := range s {
		s[i] /= sum
	}
	return s
}
