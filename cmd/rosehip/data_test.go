package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LesbiansAttack/rosehip/internal/config"
	"github.com/LesbiansAttack/rosehip/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig(format, dir string) *config.Config {
	cfg := config.Default()
	cfg.Format = format
	cfg.DataDir = dir
	cfg.TrainSamples = 8
	cfg.ValidationSamples = 2
	cfg.BatchSize = 4
	cfg.Layers = []config.Layer{
		{Type: config.LayerLinear, Inputs: 4, Outputs: 2, LearningRate: 0.1},
		{Type: config.LayerSoftmax},
	}
	return cfg
}

func writeCSV(t *testing.T, path string, rows int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("label,p0,p1,p2,p3\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%d,0,%d,255,0\n", i%2, i)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func TestLoadData_Synthetic(t *testing.T) {
	cfg := smallConfig(config.FormatSynthetic, "")

	trainSet, validation, err := loadData(cfg)
	require.NoError(t, err)
	assert.Equal(t, 8, trainSet.Len())
	assert.Equal(t, 4, trainSet.Features())
	assert.Equal(t, 2, validation.Len())

	cfg.Layers[0].Inputs = 5
	_, _, err = loadData(cfg)
	assert.ErrorContains(t, err, "square input width")
}

func TestLoadData_CSVSplitsTail(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, trainCSV), 20)

	trainSet, validation, err := loadData(smallConfig(config.FormatCSV, dir))
	require.NoError(t, err)
	assert.Equal(t, 8, trainSet.Len())
	assert.Equal(t, 2, validation.Len())
	assert.InDelta(t, 8/dataset.PixelScale, validation.Images[0][1], 1e-12, "validation starts after the training rows")
}

func TestLoadData_CSVSeparateTest(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, trainCSV), 20)
	writeCSV(t, filepath.Join(dir, testCSV), 5)

	trainSet, validation, err := loadData(smallConfig(config.FormatCSV, dir))
	require.NoError(t, err)
	assert.Equal(t, 8, trainSet.Len())
	assert.Equal(t, 2, validation.Len())
	assert.Equal(t, 0.0, validation.Images[0][1])
}

func TestLoadData_CSVTooSmall(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, trainCSV), 2)

	_, _, err := loadData(smallConfig(config.FormatCSV, dir))
	assert.ErrorContains(t, err, "not enough to hold out")
}

func TestLoadData_IDX(t *testing.T) {
	dir := t.TempDir()
	for _, files := range [][2]string{
		{dataset.TrainImagesFile, dataset.TrainLabelsFile},
		{dataset.TestImagesFile, dataset.TestLabelsFile},
	} {
		d := dataset.Synthetic(10, 2, 2, 0, nil)
		require.NoError(t, dataset.WriteIDX(filepath.Join(dir, files[0]), filepath.Join(dir, files[1]), d, 2, 2))
	}

	trainSet, validation, err := loadData(smallConfig(config.FormatIDX, dir))
	require.NoError(t, err)
	assert.Equal(t, 8, trainSet.Len())
	assert.Equal(t, 2, validation.Len())

	_, _, err = loadData(smallConfig(config.FormatIDX, t.TempDir()))
	assert.ErrorContains(t, err, "load training set")
}
