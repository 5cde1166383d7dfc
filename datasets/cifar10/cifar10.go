// Package cifar10 loads the CIFAR-10 image classification dataset from its
// binary-version batch files. Each record is one label byte followed by 3072
// pixel bytes (1024 red, 1024 green, 1024 blue, row-major); pixels are
// normalized to [0,1] and flattened into 3072-wide feature rows.
package cifar10

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/nngrad/trainer/datasets"
)

const (
	// Classes is the number of CIFAR-10 categories.
	Classes = 10
	// InputDim is the flattened feature width of one image.
	InputDim = 3 * 32 * 32

	recordSize = 1 + InputDim

	archiveURL = "https://www.cs.toronto.edu/~kriz/cifar-10-binary.tar.gz"
)

// Names lists the category names by class index.
var Names = [Classes]string{
	"airplane", "automobile", "bird", "cat", "deer",
	"dog", "frog", "horse", "ship", "truck",
}

var trainFiles = []string{
	"data_batch_1.bin",
	"data_batch_2.bin",
	"data_batch_3.bin",
	"data_batch_4.bin",
	"data_batch_5.bin",
}

const testFile = "test_batch.bin"

// Load reads the training and test splits from the batch files in dir.
func Load(dir string) (train, test *datasets.Split, err error) {
	train = &datasets.Split{Classes: Classes}
	for _, name := range trainFiles {
		if err := appendBatch(train, filepath.Join(dir, name)); err != nil {
			return nil, nil, err
		}
	}
	test = &datasets.Split{Classes: Classes}
	if err := appendBatch(test, filepath.Join(dir, testFile)); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

// appendBatch parses one binary batch file onto the split.
func appendBatch(split *datasets.Split, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read cifar10 batch")
	}
	if len(data) == 0 || len(data)%recordSize != 0 {
		return errors.Errorf("cifar10: %s is %d bytes, not a multiple of the %d byte record", path, len(data), recordSize)
	}
	n := len(data) / recordSize
	for i := 0; i < n; i++ {
		rec := data[i*recordSize : (i+1)*recordSize]
		label := int(rec[0])
		if label >= Classes {
			return errors.Errorf("cifar10: label %d at record %d of %s", label, i, path)
		}
		row := make([]float64, InputDim)
		for j, px := range rec[1:] {
			row[j] = float64(px) / 255
		}
		split.Inputs = append(split.Inputs, row)
		split.Labels = append(split.Labels, label)
	}
	return nil
}

// Download fetches the binary CIFAR-10 archive and extracts the batch files
// into dir, skipping any that already exist.
func Download(dir string) error {
	complete := true
	for _, name := range append(append([]string(nil), trainFiles...), testFile) {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			complete = false
			break
		}
	}
	if complete {
		return nil
	}
	archive := filepath.Join(dir, filepath.Base(archiveURL))
	if err := datasets.Fetch(archiveURL, archive); err != nil {
		return err
	}
	return extract(archive, dir)
}

// extract unpacks the .bin batch files from the tar.gz archive into dir,
// flattening the cifar-10-batches-bin directory the archive carries.
func extract(archive, dir string) error {
	f, err := os.Open(archive)
	if err != nil {
		return errors.Wrap(err, "open cifar10 archive")
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return errors.Wrap(err, "ungzip cifar10 archive")
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read cifar10 archive")
		}
		if hdr.Typeflag != tar.TypeReg || filepath.Ext(hdr.Name) != ".bin" {
			continue
		}
		dest := filepath.Join(dir, filepath.Base(hdr.Name))
		out, err := os.Create(dest)
		if err != nil {
			return errors.Wrapf(err, "create %s", dest)
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return errors.Wrapf(err, "extract %s", hdr.Name)
		}
		if err := out.Close(); err != nil {
			return errors.Wrapf(err, "close %s", dest)
		}
	}
}
