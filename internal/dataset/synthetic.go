package dataset

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Synthetic generates a separable stand-in dataset for running the pipeline
// without MNIST files.
//
// Sample i has label i % classes. Each class lights a different band of rows
// in a side×side image; every pixel then gets uniform noise in [0, noise] and
// is clamped to [0, 1]. The same src seed yields the same data.
//
// classes and side must be > 0.
func Synthetic(samples, classes, side int, noise float64, src rand.Source) *Dataset {
	jitter := distuv.Uniform{Min: 0, Max: noise, Src: src}
	band := max(side/classes, 1)

	images := make([][]float64, samples)
	labels := make([]float64, samples)
	for i := range images {
		class := i % classes
		img := make([]float64, side*side)
		start := (class * band) % side
		for row := start; row < min(start+band, side); row++ {
			for c := side / 5; c < side-side/5; c++ {
				img[row*side+c] = 0.8
			}
		}
		for p := range img {
			if noise > 0 {
				img[p] += jitter.Rand()
			}
			img[p] = min(img[p], 1)
		}
		images[i] = img
		labels[i] = float64(class)
	}
	return &Dataset{Images: images, Labels: labels}
}
