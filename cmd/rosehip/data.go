package main

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/LesbiansAttack/rosehip/internal/config"
	"github.com/LesbiansAttack/rosehip/internal/dataset"
)

// CSV file names inside the data directory.
const (
	trainCSV = "train.csv"
	testCSV  = "test.csv"
)

// loadData returns the training and validation sets described by cfg.
//
// IDX validation comes from the t10k files. CSV validation comes from
// test.csv when present, otherwise from the tail of train.csv. Validation is
// nil when cfg.ValidationSamples is 0.
func loadData(cfg *config.Config) (trainSet, validation *dataset.Dataset, err error) {
	switch cfg.Format {
	case config.FormatIDX:
		if trainSet, err = dataset.LoadIDX(cfg.DataDir, true, cfg.TrainSamples); err != nil {
			return nil, nil, fmt.Errorf("load training set: %w", err)
		}
		if cfg.ValidationSamples > 0 {
			if validation, err = dataset.LoadIDX(cfg.DataDir, false, cfg.ValidationSamples); err != nil {
				return nil, nil, fmt.Errorf("load validation set: %w", err)
			}
		}
		return trainSet, validation, nil

	case config.FormatCSV:
		return loadCSV(cfg)

	case config.FormatSynthetic:
		side := int(math.Sqrt(float64(cfg.Features())))
		if side*side != cfg.Features() {
			return nil, nil, fmt.Errorf("synthetic data needs a square input width, got %d", cfg.Features())
		}
		trainSet = dataset.Synthetic(max(cfg.TrainSamples, cfg.BatchSize), cfg.Classes(), side, 0.1, cfg.Source(2))
		if cfg.ValidationSamples > 0 {
			validation = dataset.Synthetic(cfg.ValidationSamples, cfg.Classes(), side, 0.1, cfg.Source(3))
		}
		return trainSet, validation, nil
	}
	return nil, nil, fmt.Errorf("unknown format %q", cfg.Format)
}

func loadCSV(cfg *config.Config) (*dataset.Dataset, *dataset.Dataset, error) {
	testPath := filepath.Join(cfg.DataDir, testCSV)
	_, statErr := os.Stat(testPath)
	separateTest := statErr == nil
	if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
		return nil, nil, statErr
	}

	limit := cfg.TrainSamples
	if !separateTest && limit > 0 {
		limit += cfg.ValidationSamples
	}
	all, err := dataset.LoadCSV(filepath.Join(cfg.DataDir, trainCSV), limit)
	if err != nil {
		return nil, nil, fmt.Errorf("load training set: %w", err)
	}
	if cfg.ValidationSamples == 0 {
		return all, nil, nil
	}

	if separateTest {
		validation, err := dataset.LoadCSV(testPath, cfg.ValidationSamples)
		if err != nil {
			return nil, nil, fmt.Errorf("load validation set: %w", err)
		}
		return all, validation, nil
	}

	if all.Len() <= cfg.ValidationSamples {
		return nil, nil, fmt.Errorf("%s has %d samples, not enough to hold out %d for validation", trainCSV, all.Len(), cfg.ValidationSamples)
	}
	trainSet, validation := all.Split(all.Len() - cfg.ValidationSamples)
	return trainSet, validation, nil
}

func lenOf(d *dataset.Dataset) int {
	if d == nil {
		return 0
	}
	return d.Len()
}
