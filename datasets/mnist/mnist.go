// Package mnist loads the MNIST handwritten digit dataset through the
// GoMNIST reader and exposes it in the flattened split form the classifier
// trainer consumes.
package mnist

import (
	"path/filepath"

	"github.com/petar/GoMNIST"
	"github.com/pkg/errors"

	"github.com/nngrad/trainer/datasets"
)

const (
	// Classes is the number of digit categories.
	Classes = 10
	// ImgSize is the square image edge in pixels.
	ImgSize = 28
	// InputDim is the flattened feature width of one image.
	InputDim = ImgSize * ImgSize

	baseURL = "https://storage.googleapis.com/cvdf-datasets/mnist/"
)

// The four idx archives GoMNIST.Load expects to find in the data directory.
var files = []string{
	"train-images-idx3-ubyte.gz",
	"train-labels-idx1-ubyte.gz",
	"t10k-images-idx3-ubyte.gz",
	"t10k-labels-idx1-ubyte.gz",
}

// Load reads the training and test splits from the four idx .gz files in dir.
func Load(dir string) (train, test *datasets.Split, err error) {
	rawTrain, rawTest, err := GoMNIST.Load(dir)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "load mnist from %s", dir)
	}
	train, err = toSplit(rawTrain)
	if err != nil {
		return nil, nil, err
	}
	test, err = toSplit(rawTest)
	if err != nil {
		return nil, nil, err
	}
	return train, test, nil
}

func toSplit(set *GoMNIST.Set) (*datasets.Split, error) {
	if set.NRow != ImgSize || set.NCol != ImgSize {
		return nil, errors.Errorf("mnist: expected %dx%d images, got %dx%d", ImgSize, ImgSize, set.NRow, set.NCol)
	}
	split := &datasets.Split{
		Inputs:  make([][]float64, 0, len(set.Images)),
		Labels:  make([]int, 0, len(set.Labels)),
		Classes: Classes,
	}
	for i, img := range set.Images {
		row := make([]float64, InputDim)
		for j, px := range img {
			row[j] = float64(px) / 255
		}
		split.Inputs = append(split.Inputs, row)
		split.Labels = append(split.Labels, int(set.Labels[i]))
	}
	return split, split.Check()
}

// Download fetches the four idx .gz files into dir, skipping any that
// already exist.
func Download(dir string) error {
	for _, name := range files {
		if err := datasets.Fetch(baseURL+name, filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}
