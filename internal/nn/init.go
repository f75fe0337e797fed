package nn

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Bias initialization bound: biases are drawn from U(−BiasInitBound, BiasInitBound).
const BiasInitBound = 0.01

// ScaledNormal initializes a rows×cols weight matrix.
//
// Values are drawn from N(0, 1) and divided by sqrt(rows), where rows is the
// layer's output width.
//
// Parameters:
//   - rows: Number of output units
//   - cols: Number of input units
//   - src: Random source; nil uses the math/rand/v2 global generator
//
// Returns the initialized matrix.
func ScaledNormal(rows, cols int, src rand.Source) *mat.Dense {
	dist := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	scale := math.Sqrt(float64(rows))

	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = dist.Rand() / scale
	}
	return mat.NewDense(rows, cols, data)
}

// SmallUniform initializes a rows×cols matrix with values from
// U(−BiasInitBound, BiasInitBound).
func SmallUniform(rows, cols int, src rand.Source) *mat.Dense {
	dist := distuv.Uniform{Min: -BiasInitBound, Max: BiasInitBound, Src: src}

	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = dist.Rand()
	}
	return mat.NewDense(rows, cols, data)
}
