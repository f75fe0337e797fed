// Package main provides the rosehip CLI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/LesbiansAttack/rosehip/internal/config"
	"github.com/LesbiansAttack/rosehip/internal/dataset"
	"github.com/LesbiansAttack/rosehip/internal/train"
)

const version = "v0.1.0"

func usage() {
	fmt.Println("rosehip - feed-forward step-pipeline trainer")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  train      Train a model (see rosehip train -h)")
	fmt.Println("  config     Print the default config as YAML")
	fmt.Println("  synth      Write a synthetic IDX dataset")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("rosehip %s\n", version)
	case "train":
		err = runTrain(os.Args[2:])
	case "config":
		err = config.Default().Encode(os.Stdout)
	case "synth":
		err = runSynth(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func runTrain(args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (default: built-in MNIST setup)")
	dataDir := fs.String("data", "", "Override data directory")
	format := fs.String("format", "", "Override data format: idx, csv or synthetic")
	steps := fs.Int("steps", 0, "Number of training batches")
	batchSize := fs.Int("batch-size", 0, "Batch size")
	workers := fs.Int("workers", 0, "Number of model replicas")
	seed := fs.Uint64("seed", 0, "PRNG seed")
	logEvery := fs.Int("log-every", 0, "Log every N steps")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	cfg.ApplyOverrides(config.Overrides{
		DataDir:   *dataDir,
		Format:    *format,
		Steps:     *steps,
		BatchSize: *batchSize,
		Workers:   *workers,
		Seed:      *seed,
		LogEvery:  *logEvery,
	})

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	model, err := cfg.Builder(nil).Build()
	if err != nil {
		return fmt.Errorf("build model: %w", err)
	}
	log.Printf("model=%q", model.String())

	trainSet, validation, err := loadData(cfg)
	if err != nil {
		return err
	}
	log.Printf("format=%s train=%d validation=%d features=%d", cfg.Format, trainSet.Len(), lenOf(validation), trainSet.Features())

	trainer, err := train.New(model, trainSet, validation, train.RunConfig{
		Steps:     cfg.Steps,
		BatchSize: cfg.BatchSize,
		Workers:   cfg.Workers,
		LogEvery:  cfg.LogEvery,
		EvalEvery: cfg.EvalEvery,
	}, cfg.Source(1), log.Default())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := trainer.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Printf("interrupted after %d steps", res.Steps)
		return nil
	}
	return err
}

func runSynth(args []string) error {
	fs := flag.NewFlagSet("synth", flag.ExitOnError)
	out := fs.String("out", "data/synthetic", "Output directory")
	numTrain := fs.Int("train", 6000, "Training samples")
	numTest := fs.Int("test", 1000, "Test samples")
	classes := fs.Int("classes", 10, "Number of classes")
	side := fs.Int("side", 28, "Image side length")
	noise := fs.Float64("noise", 0.1, "Uniform pixel noise")
	seed := fs.Uint64("seed", 1, "PRNG seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *classes <= 0 || *side <= 0 || *numTrain <= 0 || *numTest <= 0 {
		return errors.New("train, test, classes and side must be > 0")
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}
	cfg := &config.Config{Seed: *seed}
	sets := []struct {
		images, labels string
		n              int
		stream         uint64
	}{
		{dataset.TrainImagesFile, dataset.TrainLabelsFile, *numTrain, 2},
		{dataset.TestImagesFile, dataset.TestLabelsFile, *numTest, 3},
	}
	for _, s := range sets {
		d := dataset.Synthetic(s.n, *classes, *side, *noise, cfg.Source(s.stream))
		if err := dataset.WriteIDX(filepath.Join(*out, s.images), filepath.Join(*out, s.labels), d, *side, *side); err != nil {
			return err
		}
	}
	log.Printf("wrote %d train and %d test samples to %s", *numTrain, *numTest, *out)
	return nil
}
