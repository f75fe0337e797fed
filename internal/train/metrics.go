package train

import "time"

// Window accumulates training stats across multiple steps.
type Window struct {
	samples int
	correct int
	loss    float64
	elapsed time.Duration
	steps   int
}

// Record adds one batch to the window.
func (w *Window) Record(samples, correct int, lossSum float64, elapsed time.Duration) {
	w.samples += samples
	w.correct += correct
	w.loss += lossSum
	w.elapsed += elapsed
	w.steps++
}

// Snapshot returns aggregated metrics and resets the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{Steps: w.steps}
	if w.elapsed > 0 {
		snap.SamplesPerSec = float64(w.samples) / w.elapsed.Seconds()
	}
	if w.samples > 0 {
		snap.MeanLoss = w.loss / float64(w.samples)
		snap.Accuracy = float64(w.correct) / float64(w.samples)
	}

	*w = Window{}
	return snap
}

// Snapshot represents loggable metrics.
type Snapshot struct {
	Steps         int
	SamplesPerSec float64
	MeanLoss      float64
	Accuracy      float64
}
