package nn

import (
	"fmt"
)

// Clone returns an independent copy of m for use as a training replica.
//
// Parameters are deep-copied and accumulators start at zero. The replica can
// run ForwardBackward on its own goroutine while other replicas do the same;
// its accumulated gradients are then folded back with MergeAccumulated.
func (m *Model) Clone() *Model {
	steps := make([]Step, len(m.steps))
	for i, step := range m.steps {
		steps[i] = step.clone()
	}
	return &Model{
		steps:     steps,
		outputs:   m.outputs,
		numLinear: m.numLinear,
	}
}

// MergeAccumulated adds replica's pending gradients into m and zeroes replica's.
//
// After merging every replica, a single m.FinalizeBatch with the total sample
// count applies the same update as if all samples had gone through m.
// Returns ErrIncompatibleModel, leaving both models untouched, when the two
// pipelines differ in step kinds or layer widths.
func (m *Model) MergeAccumulated(replica *Model) error {
	if err := m.compatible(replica); err != nil {
		return err
	}
	for i, step := range m.steps {
		if l, ok := step.(*LinearLayer); ok {
			l.mergeFrom(replica.steps[i].(*LinearLayer))
		}
	}
	return nil
}

// SyncParameters overwrites m's weights and biases with those of from.
//
// Accumulators are left as they are. Returns ErrIncompatibleModel when the
// pipelines differ.
func (m *Model) SyncParameters(from *Model) error {
	if err := m.compatible(from); err != nil {
		return err
	}
	for i, step := range m.steps {
		if l, ok := step.(*LinearLayer); ok {
			l.copyParametersFrom(from.steps[i].(*LinearLayer))
		}
	}
	return nil
}

// compatible checks that other has the same step kinds and widths as m.
func (m *Model) compatible(other *Model) error {
	if other == nil {
		return fmt.Errorf("%w: nil model", ErrIncompatibleModel)
	}
	if other == m {
		return fmt.Errorf("%w: model merged with itself", ErrIncompatibleModel)
	}
	if len(other.steps) != len(m.steps) {
		return fmt.Errorf("%w: %d steps vs %d", ErrIncompatibleModel, len(m.steps), len(other.steps))
	}
	for i, step := range m.steps {
		theirs := other.steps[i]
		if step.Kind() != theirs.Kind() {
			return fmt.Errorf("%w: step %d is %s vs %s", ErrIncompatibleModel, i, step.Kind(), theirs.Kind())
		}
		in, out, _ := step.Dimensions()
		tin, tout, _ := theirs.Dimensions()
		if in != tin || out != tout {
			return fmt.Errorf("%w: step %d is %d→%d vs %d→%d", ErrIncompatibleModel, i, in, out, tin, tout)
		}
	}
	return nil
}
