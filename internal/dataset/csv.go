package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// LoadCSV loads labelled samples from a CSV file.
//
// CSV Format (Kaggle-style):
//
//	label,pixel0,pixel1,...,pixel783
//	5,0,0,12,...,0
//	0,0,0,0,...,0
//
// A header row is skipped when its first field is not a number. Every row must
// have the same number of fields. Pixels are 0-255 and are normalized to
// [0, 1]; labels must be non-negative integers.
//
// Parameters:
//   - filename: Path to CSV file
//   - maxSamples: Maximum number of samples to load (0 = load all)
func LoadCSV(filename string, maxSamples int) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file, maxSamples)
}

// ReadCSV is LoadCSV over an arbitrary reader.
func ReadCSV(r io.Reader, maxSamples int) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	var (
		images [][]float64
		labels []float64
		row    int
	)
	for maxSamples <= 0 || len(images) < maxSamples {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		row++

		if row == 1 {
			if _, err := strconv.Atoi(record[0]); err != nil {
				continue // header
			}
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("%w: row %d has %d fields, need a label and at least one pixel", ErrInvalidFormat, row, len(record))
		}

		label, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("%w: invalid label at row %d: %v", ErrInvalidFormat, row, err)
		}
		if label < 0 {
			return nil, fmt.Errorf("%w: negative label at row %d: %d", ErrInvalidFormat, row, label)
		}

		img := make([]float64, len(record)-1)
		for j, field := range record[1:] {
			pixel, err := strconv.ParseUint(field, 10, 8)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid pixel at row %d, column %d: %v", ErrInvalidFormat, row, j+1, err)
			}
			img[j] = float64(pixel) / PixelScale
		}

		images = append(images, img)
		labels = append(labels, float64(label))
	}

	return New(images, labels)
}
