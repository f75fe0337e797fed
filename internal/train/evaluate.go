package train

import (
	"errors"
	"fmt"

	"github.com/LesbiansAttack/rosehip/internal/dataset"
	"github.com/LesbiansAttack/rosehip/internal/nn"
	"github.com/LesbiansAttack/rosehip/internal/parallel"
	"github.com/LesbiansAttack/rosehip/internal/tensor"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Evaluation summarizes a model's predictions over a dataset.
type Evaluation struct {
	Samples  int
	Correct  int
	Accuracy float64 // Correct / Samples
	Loss     float64 // Mean squared error against the one-hot targets
}

// Evaluate runs Forward over every sample of data and scores the predictions.
//
// Samples are spread over goroutines according to cfg; the model is only
// read, so it must not be trained concurrently.
func Evaluate(model *nn.Model, data *dataset.Dataset, cfg parallel.Config) (Evaluation, error) {
	if data == nil || data.Len() == 0 {
		return Evaluation{}, dataset.ErrEmptyDataset
	}

	n := data.Len()
	losses := make([]float64, n)
	hits := make([]float64, n)
	errs := make([]error, n)

	parallel.For(n, func(i int) {
		x, label := data.Sample(i)
		out, err := model.Forward(x)
		if err != nil {
			errs[i] = fmt.Errorf("sample %d: %w", i, err)
			return
		}
		loss, err := model.Loss(out, label)
		if err != nil {
			errs[i] = fmt.Errorf("sample %d: %w", i, err)
			return
		}
		losses[i] = loss
		if tensor.Argmax(out) == int(label) {
			hits[i] = 1
		}
	}, cfg)

	if err := errors.Join(errs...); err != nil {
		return Evaluation{}, err
	}

	correct := int(floats.Sum(hits))
	return Evaluation{
		Samples:  n,
		Correct:  correct,
		Accuracy: float64(correct) / float64(n),
		Loss:     stat.Mean(losses, nil),
	}, nil
}
