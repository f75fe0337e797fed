package dataset

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// IDX magic numbers.
const (
	idxImagesMagic = 2051 // 0x00000803: unsigned byte, 3 dimensions
	idxLabelsMagic = 2049 // 0x00000801: unsigned byte, 1 dimension
)

// preallocImages caps the up-front slice capacity taken from an IDX header.
const preallocImages = 1 << 12

// MNIST file names inside a data directory.
const (
	TrainImagesFile = "train-images-idx3-ubyte"
	TrainLabelsFile = "train-labels-idx1-ubyte"
	TestImagesFile  = "t10k-images-idx3-ubyte"
	TestLabelsFile  = "t10k-labels-idx1-ubyte"
)

// LoadIDX loads MNIST data from the official IDX binary files.
//
// Parameters:
//   - dataDir: Directory containing the IDX files, plain or gzipped (.gz)
//   - train: If true, load the training set, else the t10k test set
//   - maxSamples: Maximum number of samples to load (0 = load all)
//
// Returns a Dataset with pixels normalized to [0, 1].
func LoadIDX(dataDir string, train bool, maxSamples int) (*Dataset, error) {
	imageFile, labelFile := TestImagesFile, TestLabelsFile
	if train {
		imageFile, labelFile = TrainImagesFile, TrainLabelsFile
	}

	imagesRaw, err := readIDXImages(filepath.Join(dataDir, imageFile), maxSamples)
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}
	labelsRaw, err := readIDXLabels(filepath.Join(dataDir, labelFile), maxSamples)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}

	images := make([][]float64, len(imagesRaw))
	for i, raw := range imagesRaw {
		images[i] = normalize(raw)
	}
	labels := make([]float64, len(labelsRaw))
	for i, l := range labelsRaw {
		labels[i] = float64(l)
	}
	return New(images, labels)
}

// openIDX opens name, falling back to name+".gz", and transparently
// decompresses gzipped files.
func openIDX(name string) (io.ReadCloser, error) {
	file, err := os.Open(name)
	if errors.Is(err, fs.ErrNotExist) && !strings.HasSuffix(name, ".gz") {
		file, err = os.Open(name + ".gz")
	}
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(file.Name(), ".gz") {
		return file, nil
	}
	zr, err := gzip.NewReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", file.Name(), err)
	}
	return &gzipFile{Reader: zr, file: file}, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if cerr := g.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// readIDXImages reads up to limit images (0 = all) from an IDX image file.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes
//	number of cols: 4 bytes
//	pixel data: unsigned bytes (0-255)
func readIDXImages(filename string, limit int) ([][]byte, error) {
	file, err := openIDX(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return decodeIDXImages(bufio.NewReader(file), limit)
}

func decodeIDXImages(r io.Reader, limit int) ([][]byte, error) {
	var header struct {
		Magic, Count, Rows, Cols uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if header.Magic != idxImagesMagic {
		return nil, fmt.Errorf("%w: invalid magic number: got %d, want %d", ErrInvalidFormat, header.Magic, idxImagesMagic)
	}
	imageSize := int(header.Rows) * int(header.Cols)
	if imageSize == 0 {
		return nil, fmt.Errorf("%w: zero-sized images (%d×%d)", ErrInvalidFormat, header.Rows, header.Cols)
	}

	count := int(header.Count)
	if limit > 0 && count > limit {
		count = limit
	}
	// The header count is untrusted; grow as images arrive.
	images := make([][]byte, 0, min(count, preallocImages))
	for i := 0; i < count; i++ {
		image := make([]byte, imageSize)
		if _, err := io.ReadFull(r, image); err != nil {
			return nil, fmt.Errorf("failed to read image %d of %d: %w", i, count, unexpectedEOF(err))
		}
		images = append(images, image)
	}
	return images, nil
}

// readIDXLabels reads up to limit labels (0 = all) from an IDX label file.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes
func readIDXLabels(filename string, limit int) ([]byte, error) {
	file, err := openIDX(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return decodeIDXLabels(bufio.NewReader(file), limit)
}

func decodeIDXLabels(r io.Reader, limit int) ([]byte, error) {
	var header struct {
		Magic, Count uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if header.Magic != idxLabelsMagic {
		return nil, fmt.Errorf("%w: invalid magic number: got %d, want %d", ErrInvalidFormat, header.Magic, idxLabelsMagic)
	}

	count := int(header.Count)
	if limit > 0 && count > limit {
		count = limit
	}
	labels, err := io.ReadAll(io.LimitReader(r, int64(count)))
	if err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	if len(labels) != count {
		return nil, fmt.Errorf("failed to read labels: got %d of %d: %w", len(labels), count, io.ErrUnexpectedEOF)
	}
	return labels, nil
}

// unexpectedEOF reports a clean EOF in the middle of a declared record as
// io.ErrUnexpectedEOF.
func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// WriteIDX writes d as an IDX image/label file pair.
//
// Pixels are scaled back to bytes by PixelScale and clamped to [0, 255];
// rows × cols must equal d.Features(). Labels must be integers in [0, 255].
// Nothing is written when validation fails.
func WriteIDX(imagesPath, labelsPath string, d *Dataset, rows, cols int) error {
	if rows*cols != d.Features() {
		return fmt.Errorf("%w: %d×%d images but %d features", ErrInvalidFormat, rows, cols, d.Features())
	}
	for i, l := range d.Labels {
		if l < 0 || l > math.MaxUint8 || l != math.Trunc(l) {
			return fmt.Errorf("%w: label %d is %v, IDX labels are bytes", ErrInvalidFormat, i, l)
		}
	}

	img := make([]byte, 0, 16+d.Len()*rows*cols)
	img = binary.BigEndian.AppendUint32(img, idxImagesMagic)
	img = binary.BigEndian.AppendUint32(img, uint32(d.Len()))
	img = binary.BigEndian.AppendUint32(img, uint32(rows))
	img = binary.BigEndian.AppendUint32(img, uint32(cols))
	for _, image := range d.Images {
		for _, v := range image {
			img = append(img, byte(min(max(v*PixelScale+0.5, 0), 255)))
		}
	}

	lbl := make([]byte, 0, 8+d.Len())
	lbl = binary.BigEndian.AppendUint32(lbl, idxLabelsMagic)
	lbl = binary.BigEndian.AppendUint32(lbl, uint32(d.Len()))
	for _, l := range d.Labels {
		lbl = append(lbl, byte(l))
	}

	if err := os.WriteFile(imagesPath, img, 0o644); err != nil {
		return err
	}
	return os.WriteFile(labelsPath, lbl, 0o644)
}
