package dataset

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// CIFAR-10 binary layout: one label byte followed by a 32×32 image stored
// channel-major (1024 red, 1024 green, 1024 blue bytes).
const (
	CIFARImageSize  = 32
	CIFARNumClasses = 10
	cifarPixels     = CIFARImageSize * CIFARImageSize
	cifarRecordSize = 1 + 3*cifarPixels
)

// Per-channel normalization statistics of the CIFAR-10 training set.
var (
	CIFARMean = [3]float32{0.49139968, 0.48215827, 0.44653124}
	CIFARStd  = [3]float32{0.24703233, 0.24348505, 0.26158768}
)

// Split selects the CIFAR-10 batch files.
type Split string

// CIFAR-10 splits.
const (
	SplitTrain Split = "train"
	SplitTest  Split = "test"
)

// Files returns the batch file names of the split.
func (s Split) Files() ([]string, error) {
	switch s {
	case SplitTrain:
		return []string{
			"data_batch_1.bin", "data_batch_2.bin", "data_batch_3.bin",
			"data_batch_4.bin", "data_batch_5.bin",
		}, nil
	case SplitTest:
		return []string{"test_batch.bin"}, nil
	default:
		return nil, errors.Errorf("unknown split %q", string(s))
	}
}

// CIFAR10 holds decoded CIFAR-10 records in memory.
type CIFAR10 struct {
	labels []byte
	pixels []byte // channel-major, cifarRecordSize-1 bytes per image
}

// LoadCIFAR10 reads every batch file of split from dir.
func LoadCIFAR10(dir string, split Split) (*CIFAR10, error) {
	files, err := split.Files()
	if err != nil {
		return nil, err
	}
	ds := &CIFAR10{}
	for _, name := range files {
		path := filepath.Join(dir, name)
		if err := ds.readFile(path); err != nil {
			return nil, err
		}
	}
	klog.V(1).Infof("loaded %d %s examples from %s", ds.Len(), split, dir)
	return ds, nil
}

func (c *CIFAR10) readFile(path string) error {
	//nolint:gosec // G304: dataset path is user-provided by design
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open cifar batch")
	}
	defer func() { _ = f.Close() }()
	if err := c.ReadFrom(bufio.NewReader(f)); err != nil {
		return errors.Wrap(err, path)
	}
	return nil
}

// ReadFrom appends all records of a binary batch stream.
func (c *CIFAR10) ReadFrom(r io.Reader) error {
	record := make([]byte, cifarRecordSize)
	for {
		_, err := io.ReadFull(r, record)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "truncated cifar record")
		}
		if record[0] >= CIFARNumClasses {
			return errors.Errorf("label %d out of range", record[0])
		}
		c.labels = append(c.labels, record[0])
		c.pixels = append(c.pixels, record[1:]...)
	}
}

// Len returns the number of examples.
func (c *CIFAR10) Len() int { return len(c.labels) }

// ImageSize returns 32.
func (c *CIFAR10) ImageSize() int { return CIFARImageSize }

// Label returns the label of example i.
func (c *CIFAR10) Label(i int) int { return int(c.labels[i]) }

// Example writes image i as normalized HWC into dst and returns its label.
func (c *CIFAR10) Example(i int, dst []float32) int {
	img := c.pixels[i*3*cifarPixels : (i+1)*3*cifarPixels]
	for p := 0; p < cifarPixels; p++ {
		for ch := 0; ch < 3; ch++ {
			v := float32(img[ch*cifarPixels+p]) / 255
			dst[p*3+ch] = (v - CIFARMean[ch]) / CIFARStd[ch]
		}
	}
	return int(c.labels[i])
}
