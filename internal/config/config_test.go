package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LesbiansAttack/rosehip/internal/nn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
data_dir: /tmp/mnist
format: csv
train_samples: 1000
validation_samples: 200
batch_size: 32
steps: 50
workers: 4
seed: 7
log_every: 10
eval_every: 25
layers:
  - type: linear
    inputs: 4
    outputs: 3
    learning_rate: 0.1
  - type: sigmoid
  - type: linear
    inputs: 3
    outputs: 2
    learning_rate: 0.05
  - type: softmax
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/mnist", cfg.DataDir)
	assert.Equal(t, FormatCSV, cfg.Format)
	assert.Equal(t, 1000, cfg.TrainSamples)
	assert.Equal(t, 200, cfg.ValidationSamples)
	assert.Equal(t, 32, cfg.BatchSize)
	assert.Equal(t, 50, cfg.Steps)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, 10, cfg.LogEvery)
	assert.Equal(t, 25, cfg.EvalEvery)
	require.Len(t, cfg.Layers, 4)
	assert.Equal(t, Layer{Type: LayerLinear, Inputs: 3, Outputs: 2, LearningRate: 0.05}, cfg.Layers[2])
	assert.Equal(t, 4, cfg.Features())
	assert.Equal(t, 2, cfg.Classes())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "open config")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stepz: 10\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "parse config")

	require.NoError(t, os.WriteFile(path, []byte("steps: 0\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "steps must be > 0")
}

func TestParse_KeepsDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader("steps: 10\n"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, 10, cfg.Steps)
	assert.Equal(t, def.BatchSize, cfg.BatchSize)
	assert.Equal(t, def.Layers, cfg.Layers)

	cfg, err = Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, def, cfg)
}

func TestEncode_RoundTrip(t *testing.T) {
	want := Default()
	want.Format = FormatSynthetic

	var buf bytes.Buffer
	require.NoError(t, want.Encode(&buf))

	got, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	cfg.ApplyOverrides(Overrides{
		DataDir:   "/data",
		Steps:     3,
		BatchSize: 8,
		Workers:   2,
		Seed:      99,
	})

	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, 3, cfg.Steps)
	assert.Equal(t, 8, cfg.BatchSize)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, uint64(99), cfg.Seed)
	assert.Equal(t, FormatIDX, cfg.Format, "zero override keeps value")
	assert.Equal(t, DefaultLogEvery, cfg.LogEvery)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown format", func(c *Config) { c.Format = "parquet" }, "format must be one of"},
		{"missing data dir", func(c *Config) { c.DataDir = "" }, "data_dir must be set"},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }, "batch_size must be > 0"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers must be > 0"},
		{"negative samples", func(c *Config) { c.TrainSamples = -1 }, "train_samples"},
		{"no layers", func(c *Config) { c.Layers = nil }, "layers must not be empty"},
		{"unknown layer", func(c *Config) { c.Layers[1].Type = "relu" }, `layers[1]: unknown layer type "relu"`},
		{"zero width", func(c *Config) { c.Layers[0].Outputs = 0 }, "layers[0]: linear layer needs"},
		{"negative lr", func(c *Config) { c.Layers[2].LearningRate = -1 }, "layers[2]: learning_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
}

func TestValidate_FillsIntervals(t *testing.T) {
	cfg := Default()
	cfg.Format = FormatSynthetic
	cfg.DataDir = ""
	cfg.LogEvery = 0
	cfg.EvalEvery = -5

	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultLogEvery, cfg.LogEvery)
	assert.Equal(t, DefaultEvalEvery, cfg.EvalEvery)
}

func TestBuilder(t *testing.T) {
	cfg, err := Parse(strings.NewReader(sampleYAML))
	require.NoError(t, err)

	model, err := cfg.Builder(nil).Build()
	require.NoError(t, err)
	assert.Equal(t, "linear(4→3) → sigmoid → linear(3→2) → softmax", model.String())

	layers := model.LinearLayers()
	assert.InDelta(t, 0.1, layers[0].LearningRate(), 1e-12)
	assert.InDelta(t, 0.05, layers[1].LearningRate(), 1e-12)

	// Same seed, same initial weights.
	again, err := cfg.Builder(nil).Build()
	require.NoError(t, err)
	assert.Equal(t, layers[0].Weights().RawMatrix().Data, again.LinearLayers()[0].Weights().RawMatrix().Data)
}

func TestBuilder_ShapeMismatchSurfacesAtBuild(t *testing.T) {
	cfg := Default()
	cfg.Layers[2].Inputs = 64

	_, err := cfg.Builder(nil).Build()
	var mismatch *nn.ShapeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 2, mismatch.LayerIndex)
	assert.Equal(t, 128, mismatch.ExpectedInputs)
	assert.Equal(t, 64, mismatch.ActualInputs)
}
