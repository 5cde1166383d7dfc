package config

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// applyYAML lays the values of a YAML defaults file over cfg. Unknown keys
// are rejected so a typo in the file cannot silently fall back to a
// built-in default. An empty file is a valid no-op.
func applyYAML(path string, cfg interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading config file")
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return errors.Wrapf(err, "parsing config file %s", path)
	}
	return nil
}
