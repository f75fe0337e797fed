// Package dataset loads labelled image samples for training.
//
// Every sample is a flat slice of pixel intensities normalized to [0, 1] and
// an integer class label stored as float64, the form nn.Model.ForwardBackward
// consumes.
package dataset

import (
	"errors"
	"fmt"

	"github.com/LesbiansAttack/rosehip/internal/tensor"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// PixelScale divides raw 0-255 pixel bytes, so 255 maps to exactly 1.
//
// Some MNIST loaders divide by 256 instead; models trained on either
// scaling see inputs that differ by less than 0.4%.
const PixelScale = 255.0

// Common errors.
var (
	ErrEmptyDataset   = errors.New("dataset is empty")
	ErrInvalidFormat  = errors.New("invalid data format")
	ErrLengthMismatch = errors.New("image and label counts differ")
)

// Dataset holds images and their labels in matching order.
type Dataset struct {
	Images [][]float64 // [num_samples][features]
	Labels []float64   // [num_samples]
}

// New validates that images and labels line up and that every image has the
// same number of features.
func New(images [][]float64, labels []float64) (*Dataset, error) {
	if len(images) != len(labels) {
		return nil, fmt.Errorf("%w: %d images, %d labels", ErrLengthMismatch, len(images), len(labels))
	}
	if len(images) == 0 {
		return nil, ErrEmptyDataset
	}
	features := len(images[0])
	if features == 0 {
		return nil, fmt.Errorf("%w: image 0 has no features", ErrInvalidFormat)
	}
	for i, img := range images {
		if len(img) != features {
			return nil, fmt.Errorf("%w: image %d has %d features, want %d", ErrInvalidFormat, i, len(img), features)
		}
	}
	return &Dataset{Images: images, Labels: labels}, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Labels)
}

// Features returns the number of values per image, or 0 for an empty dataset.
func (d *Dataset) Features() int {
	if len(d.Images) == 0 {
		return 0
	}
	return len(d.Images[0])
}

// Classes returns one more than the largest label.
func (d *Dataset) Classes() int {
	if len(d.Labels) == 0 {
		return 0
	}
	return int(floats.Max(d.Labels)) + 1
}

// Sample returns image i as a (features × 1) column and its label.
//
// The column is a copy. Panics if i is out of range.
func (d *Dataset) Sample(i int) (*mat.Dense, float64) {
	return tensor.Column(d.Images[i]), d.Labels[i]
}

// Split returns the first n samples and the rest.
//
// n is clamped to [0, Len()]. Both halves share backing storage with d.
func (d *Dataset) Split(n int) (head, tail *Dataset) {
	n = min(max(n, 0), d.Len())
	head = &Dataset{Images: d.Images[:n], Labels: d.Labels[:n]}
	tail = &Dataset{Images: d.Images[n:], Labels: d.Labels[n:]}
	return head, tail
}

// Truncate returns at most the first limit samples; limit <= 0 keeps everything.
func (d *Dataset) Truncate(limit int) *Dataset {
	if limit <= 0 || limit >= d.Len() {
		return d
	}
	head, _ := d.Split(limit)
	return head
}

// normalize converts raw pixel bytes to [0, 1].
func normalize(raw []byte) []float64 {
	img := make([]float64, len(raw))
	for i, p := range raw {
		img[i] = float64(p) / PixelScale
	}
	return img
}
