// Package config loads and validates the settings for a training run.
package config

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"github.com/LesbiansAttack/rosehip/internal/nn"
	"gopkg.in/yaml.v3"
)

// Data formats.
const (
	FormatIDX       = "idx"
	FormatCSV       = "csv"
	FormatSynthetic = "synthetic"
)

// Layer types.
const (
	LayerLinear      = "linear"
	LayerSigmoid     = "sigmoid"
	LayerSoftmax     = "softmax"
	LayerPassthrough = "passthrough"
)

// Defaults applied by Validate when a field is left at zero.
const (
	DefaultLogEvery  = 100
	DefaultEvalEvery = 100
)

// Layer describes one step of the model pipeline.
//
// Inputs, Outputs and LearningRate are only read for linear layers.
type Layer struct {
	Type         string  `yaml:"type"`
	Inputs       int     `yaml:"inputs,omitempty"`
	Outputs      int     `yaml:"outputs,omitempty"`
	LearningRate float64 `yaml:"learning_rate,omitempty"`
}

// Config captures the runtime knobs for a training run.
type Config struct {
	DataDir           string  `yaml:"data_dir"`
	Format            string  `yaml:"format"`
	TrainSamples      int     `yaml:"train_samples"`
	ValidationSamples int     `yaml:"validation_samples"`
	BatchSize         int     `yaml:"batch_size"`
	Steps             int     `yaml:"steps"`
	Workers           int     `yaml:"workers"`
	Seed              uint64  `yaml:"seed"`
	LogEvery          int     `yaml:"log_every"`
	EvalEvery         int     `yaml:"eval_every"`
	Layers            []Layer `yaml:"layers"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	DataDir   string
	Format    string
	Steps     int
	BatchSize int
	Workers   int
	Seed      uint64
	LogEvery  int
}

// Default returns the 784 → 128 sigmoid → 10 softmax MNIST setup: batches of
// 64, 5000 steps, learning rate 0.01, validation every 100 steps.
func Default() *Config {
	return &Config{
		DataDir:           "data/mnist",
		Format:            FormatIDX,
		TrainSamples:      50_000,
		ValidationSamples: 10_000,
		BatchSize:         64,
		Steps:             5000,
		Workers:           1,
		Seed:              1,
		LogEvery:          DefaultLogEvery,
		EvalEvery:         DefaultEvalEvery,
		Layers: []Layer{
			{Type: LayerLinear, Inputs: 784, Outputs: 128, LearningRate: 0.01},
			{Type: LayerSigmoid},
			{Type: LayerLinear, Inputs: 128, Outputs: 10, LearningRate: 0.01},
			{Type: LayerSoftmax},
		},
	}
}

// Load reads and validates a Config from YAML.
//
// Fields missing from the file keep their Default values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes YAML from r on top of Default. Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// Encode writes cfg as YAML.
func (c *Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.Format != "" {
		c.Format = o.Format
	}
	if o.Steps > 0 {
		c.Steps = o.Steps
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.Workers > 0 {
		c.Workers = o.Workers
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
}

// Validate verifies the config is runnable.
//
// Only field ranges are checked here; layer widths are checked by
// nn.ModelBuilder.Build.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	switch c.Format {
	case FormatIDX, FormatCSV:
		if c.DataDir == "" {
			return fmt.Errorf("data_dir must be set for format %q", c.Format)
		}
	case FormatSynthetic:
	default:
		return fmt.Errorf("format must be one of %s, %s, %s (got %q)", FormatIDX, FormatCSV, FormatSynthetic, c.Format)
	}
	if c.TrainSamples < 0 {
		return fmt.Errorf("train_samples must be >= 0 (got %d)", c.TrainSamples)
	}
	if c.ValidationSamples < 0 {
		return fmt.Errorf("validation_samples must be >= 0 (got %d)", c.ValidationSamples)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be > 0 (got %d)", c.Steps)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be > 0 (got %d)", c.Workers)
	}
	if c.LogEvery <= 0 {
		c.LogEvery = DefaultLogEvery
	}
	if c.EvalEvery <= 0 {
		c.EvalEvery = DefaultEvalEvery
	}
	if len(c.Layers) == 0 {
		return errors.New("layers must not be empty")
	}
	for i, l := range c.Layers {
		if err := l.validate(); err != nil {
			return fmt.Errorf("layers[%d]: %w", i, err)
		}
	}
	return nil
}

func (l Layer) validate() error {
	switch l.Type {
	case LayerLinear:
		if l.Inputs <= 0 || l.Outputs <= 0 {
			return fmt.Errorf("linear layer needs inputs and outputs > 0 (got %d, %d)", l.Inputs, l.Outputs)
		}
		if l.LearningRate < 0 {
			return fmt.Errorf("learning_rate must be >= 0 (got %v)", l.LearningRate)
		}
	case LayerSigmoid, LayerSoftmax, LayerPassthrough:
	default:
		return fmt.Errorf("unknown layer type %q", l.Type)
	}
	return nil
}

// Builder returns a ModelBuilder with the configured layers added in order.
//
// src seeds weight initialization; nil derives a source from Seed.
func (c *Config) Builder(src rand.Source) *nn.ModelBuilder {
	if src == nil {
		src = c.Source(0)
	}
	b := nn.NewModelBuilder(src)
	for _, l := range c.Layers {
		switch l.Type {
		case LayerLinear:
			b.AddLinearLayer(l.Inputs, l.Outputs, l.LearningRate)
		case LayerSigmoid:
			b.AddSigmoid()
		case LayerSoftmax:
			b.AddSoftmax()
		case LayerPassthrough:
			b.AddPassthrough()
		}
	}
	return b
}

// Source returns a PCG source derived from Seed. Distinct streams give
// independent sequences for the same seed.
func (c *Config) Source(stream uint64) rand.Source {
	return rand.NewPCG(c.Seed, stream)
}

// Features returns the input width of the first linear layer.
func (c *Config) Features() int {
	for _, l := range c.Layers {
		if l.Type == LayerLinear {
			return l.Inputs
		}
	}
	return 0
}

// Classes returns the output width of the last linear layer.
func (c *Config) Classes() int {
	classes := 0
	for _, l := range c.Layers {
		if l.Type == LayerLinear {
			classes = l.Outputs
		}
	}
	return classes
}
