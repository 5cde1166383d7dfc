package checkpoint

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// WriteSamples serializes decoded sample batches, keyed by the training step
// that produced them, as a single gob file.
func WriteSamples(path string, samples map[int][][]int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating artifact directory")
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating samples artifact")
	}
	if err := gob.NewEncoder(file).Encode(samples); err != nil {
		file.Close()
		return errors.Wrap(err, "encoding samples")
	}
	return errors.Wrap(file.Close(), "closing samples artifact")
}

// ReadSamples loads a decoded-samples artifact back.
func ReadSamples(path string) (map[int][][]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening samples artifact")
	}
	defer file.Close()

	var samples map[int][][]int
	if err := gob.NewDecoder(file).Decode(&samples); err != nil {
		return nil, errors.Wrap(err, "decoding samples")
	}
	return samples, nil
}
