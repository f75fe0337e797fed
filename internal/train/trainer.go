// Package train runs mini-batch training over an nn.Model.
//
// A Trainer samples batches without replacement, spreads each batch over
// model replicas, folds the replicas' gradients into the primary model and
// applies one update per batch:
//
//	trainer, err := train.New(model, trainSet, validationSet, train.RunConfig{
//	    Steps:     5000,
//	    BatchSize: 64,
//	    Workers:   4,
//	}, rand.NewPCG(1, 0), log.Default())
//	result, err := trainer.Run(ctx)
package train

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"time"

	"github.com/LesbiansAttack/rosehip/internal/dataset"
	"github.com/LesbiansAttack/rosehip/internal/nn"
	"github.com/LesbiansAttack/rosehip/internal/parallel"
	"github.com/LesbiansAttack/rosehip/internal/tensor"
)

// RunConfig captures the knobs required by the training loop.
type RunConfig struct {
	Steps     int // Number of batches to train on
	BatchSize int // Samples per batch
	Workers   int // Model replicas; <= 1 trains the primary model directly
	LogEvery  int // Log training metrics every N steps (0 = 100)
	EvalEvery int // Evaluate on the validation set every N steps (0 = 100)
}

// StepStats describes one trained batch.
type StepStats struct {
	Samples int
	Correct int
	LossSum float64
	Elapsed time.Duration
}

// Result summarizes a finished or cancelled run.
type Result struct {
	Steps      int           // Batches applied
	Elapsed    time.Duration // Wall time of the run
	Validation *Evaluation   // Last validation result, nil without a validation set
}

// Trainer owns the primary model and its replicas for one run.
type Trainer struct {
	model      *nn.Model
	replicas   []*nn.Model
	train      *dataset.Dataset
	validation *dataset.Dataset
	sampler    *Sampler
	cfg        RunConfig
	par        parallel.Config
	logger     *log.Logger
}

// New validates cfg against the data and prepares replicas.
//
// validation may be nil. src seeds batch sampling; logger may be nil to
// discard progress output.
func New(model *nn.Model, train, validation *dataset.Dataset, cfg RunConfig, src rand.Source, logger *log.Logger) (*Trainer, error) {
	if model == nil {
		return nil, errors.New("trainer: model is nil")
	}
	if cfg.Steps <= 0 {
		return nil, fmt.Errorf("trainer: steps must be > 0 (got %d)", cfg.Steps)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("trainer: batch size must be > 0 (got %d)", cfg.BatchSize)
	}
	if train == nil || train.Len() == 0 {
		return nil, fmt.Errorf("trainer: %w", dataset.ErrEmptyDataset)
	}
	if cfg.BatchSize > train.Len() {
		return nil, fmt.Errorf("trainer: batch size %d exceeds %d training samples", cfg.BatchSize, train.Len())
	}
	if features := train.Features(); features != model.Inputs() {
		return nil, fmt.Errorf("trainer: samples have %d features, model expects %d", features, model.Inputs())
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = 100
	}
	if cfg.EvalEvery <= 0 {
		cfg.EvalEvery = 100
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	sampler, err := NewSampler(train.Len(), src)
	if err != nil {
		return nil, err
	}

	replicas := []*nn.Model{model}
	if cfg.Workers > 1 {
		replicas = make([]*nn.Model, cfg.Workers)
		for i := range replicas {
			replicas[i] = model.Clone()
		}
	}

	return &Trainer{
		model:      model,
		replicas:   replicas,
		train:      train,
		validation: validation,
		sampler:    sampler,
		cfg:        cfg,
		par:        parallel.DefaultConfig().WithWorkers(cfg.Workers),
		logger:     logger,
	}, nil
}

// Run trains for cfg.Steps batches.
//
// ctx is checked between batches; on cancellation Run returns the partial
// Result together with ctx.Err(). Any other error aborts the run and leaves
// the model's accumulators in an unspecified state.
func (t *Trainer) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	var (
		res    Result
		window Window
	)

	for step := 1; step <= t.cfg.Steps; step++ {
		if err := ctx.Err(); err != nil {
			res.Elapsed = time.Since(start)
			return res, err
		}

		batch, err := t.sampler.Batch(t.cfg.BatchSize)
		if err != nil {
			return res, err
		}
		stats, err := t.Step(batch)
		if err != nil {
			return res, fmt.Errorf("step %d: %w", step, err)
		}
		res.Steps = step
		window.Record(stats.Samples, stats.Correct, stats.LossSum, stats.Elapsed)

		if step%t.cfg.LogEvery == 0 {
			snap := window.Snapshot()
			t.logger.Printf("step=%d samples_per_sec=%.1f loss=%.4f accuracy=%.4f",
				step,
				snap.SamplesPerSec,
				snap.MeanLoss,
				snap.Accuracy,
			)
		}

		if step%t.cfg.EvalEvery == 0 || step == t.cfg.Steps {
			if err := t.validate(step, &res); err != nil {
				return res, err
			}
		}
	}

	res.Elapsed = time.Since(start)
	t.logger.Printf("done steps=%d took=%s", res.Steps, res.Elapsed.Round(time.Millisecond))
	return res, nil
}

func (t *Trainer) validate(step int, res *Result) error {
	if t.validation == nil || t.validation.Len() == 0 {
		return nil
	}
	eval, err := Evaluate(t.model, t.validation, t.par)
	if err != nil {
		return fmt.Errorf("validation at step %d: %w", step, err)
	}
	res.Validation = &eval
	t.logger.Printf("step=%d validation_accuracy=%.4f validation_loss=%.4f", step, eval.Accuracy, eval.Loss)
	return nil
}

// Step trains on the samples at the given training-set indices and applies
// one update.
//
// The batch is partitioned across replicas, each running ForwardBackward on
// its own goroutine. Replica gradients are merged into the primary model,
// the primary is finalized with len(batch), and the new parameters are copied
// back to every replica.
func (t *Trainer) Step(batch []int) (StepStats, error) {
	start := time.Now()
	parts := parallel.Partition(len(batch), len(t.replicas))
	partStats := make([]StepStats, len(parts))
	errs := make([]error, len(parts))

	parallel.ForRanges(len(batch), func(w int, r parallel.Range) {
		replica := t.replicas[w]
		stats := &partStats[w]
		for _, idx := range batch[r.Start:r.End] {
			x, label := t.train.Sample(idx)
			out, err := replica.ForwardBackward(x, label)
			if err != nil {
				errs[w] = fmt.Errorf("sample %d: %w", idx, err)
				return
			}
			loss, err := replica.Loss(out, label)
			if err != nil {
				errs[w] = fmt.Errorf("sample %d: %w", idx, err)
				return
			}
			stats.Samples++
			stats.LossSum += loss
			if tensor.Argmax(out) == int(label) {
				stats.Correct++
			}
		}
	}, t.par.WithWorkers(len(parts)))

	if err := errors.Join(errs...); err != nil {
		return StepStats{}, err
	}

	if len(t.replicas) > 1 {
		for _, replica := range t.replicas {
			if err := t.model.MergeAccumulated(replica); err != nil {
				return StepStats{}, err
			}
		}
	}
	if err := t.model.FinalizeBatch(len(batch)); err != nil {
		return StepStats{}, err
	}
	if len(t.replicas) > 1 {
		for _, replica := range t.replicas {
			if err := replica.SyncParameters(t.model); err != nil {
				return StepStats{}, err
			}
		}
	}

	var total StepStats
	for _, s := range partStats {
		total.Samples += s.Samples
		total.Correct += s.Correct
		total.LossSum += s.LossSum
	}
	total.Elapsed = time.Since(start)
	return total, nil
}

// Model returns the primary model.
func (t *Trainer) Model() *nn.Model {
	return t.model
}
