package nn

import (
	"fmt"
	"math/rand/v2"
)

// ModelBuilder accumulates steps and validates the shape chain in Build.
//
// Add methods return the builder so calls can be chained. A failed Add is
// remembered and reported by Build; later Adds are ignored. Build consumes
// the builder.
//
// Example:
//
//	model, err := nn.NewModelBuilder(rand.NewPCG(42, 0)).
//	    AddLinearLayer(2, 2, 0.1).
//	    AddSoftmax().
//	    Build()
type ModelBuilder struct {
	steps []Step
	src   rand.Source
	err   error
	built bool
}

// NewModelBuilder creates an empty builder.
//
// src seeds weight initialization for every AddLinearLayer call; nil uses the
// math/rand/v2 global generator.
func NewModelBuilder(src rand.Source) *ModelBuilder {
	return &ModelBuilder{src: src}
}

// AddLinearLayer appends a randomly initialized LinearLayer.
func (b *ModelBuilder) AddLinearLayer(inputs, outputs int, learningRate float64) *ModelBuilder {
	if !b.accepting() {
		return b
	}
	layer, err := NewLinearLayer(inputs, outputs, learningRate, b.src)
	if err != nil {
		b.err = fmt.Errorf("step %d (linear): %w", len(b.steps), err)
		return b
	}
	b.steps = append(b.steps, layer)
	return b
}

// AddSigmoid appends a SigmoidActivation.
func (b *ModelBuilder) AddSigmoid() *ModelBuilder {
	return b.AddStep(NewSigmoid())
}

// AddSoftmax appends a SoftmaxActivation.
func (b *ModelBuilder) AddSoftmax() *ModelBuilder {
	return b.AddStep(NewSoftmax())
}

// AddPassthrough appends a PassthroughActivation.
func (b *ModelBuilder) AddPassthrough() *ModelBuilder {
	return b.AddStep(NewPassthrough())
}

// AddStep appends an already constructed step.
//
// Ownership of the step moves to the model produced by Build; the caller must
// not use it elsewhere.
func (b *ModelBuilder) AddStep(step Step) *ModelBuilder {
	if !b.accepting() {
		return b
	}
	if step == nil {
		b.err = fmt.Errorf("step %d: %w", len(b.steps), ErrNilStep)
		return b
	}
	b.steps = append(b.steps, step)
	return b
}

func (b *ModelBuilder) accepting() bool {
	return !b.built && b.err == nil
}

// Len returns the number of steps added so far.
func (b *ModelBuilder) Len() int {
	return len(b.steps)
}

// Build validates the accumulated steps and produces a Model.
//
// A single left-to-right scan tracks the output width of the most recent
// linear layer. Each later linear layer must declare that width as its input,
// otherwise Build fails with a *ShapeMismatchError naming the layer's position
// in the step sequence. Activations do not affect the tracker.
//
// Build never inspects parameter values. It can be called once; later calls
// return ErrBuilderConsumed.
func (b *ModelBuilder) Build() (*Model, error) {
	if b.built {
		return nil, ErrBuilderConsumed
	}
	b.built = true
	steps := b.steps
	b.steps = nil

	if b.err != nil {
		return nil, b.err
	}
	if len(steps) == 0 {
		return nil, ErrEmptyModel
	}

	seen := make(map[Step]int, len(steps))
	currentOutputs := 0
	numLinear := 0
	for i, step := range steps {
		if first, dup := seen[step]; dup {
			return nil, fmt.Errorf("%w: steps %d and %d", ErrSharedStep, first, i)
		}
		seen[step] = i

		inputs, outputs, ok := step.Dimensions()
		if !ok {
			continue
		}
		numLinear++
		if currentOutputs != 0 && currentOutputs != inputs {
			return nil, &ShapeMismatchError{
				LayerIndex:     i,
				ExpectedInputs: currentOutputs,
				ActualInputs:   inputs,
			}
		}
		currentOutputs = outputs
	}
	if numLinear == 0 {
		return nil, ErrNoLinearLayer
	}

	return &Model{
		steps:     steps,
		outputs:   currentOutputs,
		numLinear: numLinear,
	}, nil
}
