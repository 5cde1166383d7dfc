// Package checkpoint persists model snapshots as JSON files and decoded
// sample batches as gob artifacts. A snapshot carries everything needed to
// rebuild its model: the architecture config, the vocabulary for character
// models, and every parameter tensor as plain rows of floats.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/nngrad/trainer/autograd"
	"github.com/nngrad/trainer/nn"
)

// Version marks the snapshot layout written by this package.
const Version = 1

// State is one persisted model snapshot. Exactly one of MLP and LSTM is set,
// naming the kind of model the run trained.
type State struct {
	Version   int                    `json:"version"`
	CreatedAt string                 `json:"created_at"`
	RunID     string                 `json:"run_id,omitempty"`
	ModelName string                 `json:"model_name"`
	Step      int                    `json:"step"`
	MLP       *nn.MLPConfig          `json:"mlp,omitempty"`
	LSTM      *nn.LSTMConfig         `json:"lstm,omitempty"`
	Vocab     []string               `json:"vocab,omitempty"`
	Params    map[string][][]float64 `json:"params"`
}

// ExportParams copies parameter tensors into checkpoint rows.
func ExportParams(params map[string]*autograd.Mat) map[string][][]float64 {
	out := make(map[string][][]float64, len(params))
	for name, p := range params {
		rows := make([][]float64, p.Rows)
		for r := range rows {
			rows[r] = append([]float64(nil), p.Row(r)...)
		}
		out[name] = rows
	}
	return out
}

// ImportParams copies checkpoint rows into an existing parameter set, built
// beforehand from the snapshot's config. Missing tensors, unknown tensors
// and shape disagreements are all errors.
func ImportParams(params map[string]*autograd.Mat, src map[string][][]float64) error {
	for name := range src {
		if _, ok := params[name]; !ok {
			return errors.Errorf("checkpoint carries unknown tensor %q", name)
		}
	}
	for name, p := range params {
		rows, ok := src[name]
		if !ok {
			return errors.Errorf("checkpoint is missing tensor %q", name)
		}
		if len(rows) != p.Rows {
			return errors.Errorf("tensor %q has %d rows, want %d", name, len(rows), p.Rows)
		}
		for r, row := range rows {
			if len(row) != p.Cols {
				return errors.Errorf("tensor %q row %d has %d columns, want %d", name, r, len(row), p.Cols)
			}
			copy(p.Row(r), row)
		}
	}
	return nil
}

// Stamp fills in the bookkeeping fields of a fresh snapshot.
func Stamp(s *State, runID string) *State {
	s.Version = Version
	s.CreatedAt = time.Now().Format(time.RFC3339)
	s.RunID = runID
	return s
}

// Save writes one snapshot, creating the directory as needed.
func Save(path string, s *State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating checkpoint directory")
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding checkpoint")
	}
	return errors.Wrap(os.WriteFile(path, b, 0o644), "writing checkpoint")
}

// Load reads one snapshot back and rejects structurally unusable ones.
func Load(path string) (*State, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading checkpoint")
	}
	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, errors.Wrap(err, "decoding checkpoint")
	}
	if s.Version != Version {
		return nil, errors.Errorf("checkpoint version %d, want %d", s.Version, Version)
	}
	if (s.MLP == nil) == (s.LSTM == nil) {
		return nil, errors.New("checkpoint must name exactly one model config")
	}
	if s.LSTM != nil && len(s.Vocab) == 0 {
		return nil, errors.New("character-model checkpoint has no vocabulary")
	}
	if len(s.Params) == 0 {
		return nil, errors.New("checkpoint has no parameters")
	}
	return &s, nil
}

// Saver writes step-numbered snapshots under Dir/ModelName and prunes the
// oldest once more than MaxToKeep exist.
type Saver struct {
	Dir       string
	ModelName string
	MaxToKeep int // 0 keeps everything
}

func (s *Saver) modelDir() string {
	return filepath.Join(s.Dir, s.ModelName)
}

func (s *Saver) stepFiles() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.modelDir(), "model.ckpt-*.json"))
	if err != nil {
		return nil, errors.Wrap(err, "listing checkpoints")
	}
	// zero-padded step numbers sort lexically in step order
	sort.Strings(matches)
	return matches, nil
}

// SaveStep writes model.ckpt-<step>.json for the snapshot's step and prunes
// beyond the retention limit.
func (s *Saver) SaveStep(state *State) error {
	name := filepath.Join(s.modelDir(), stepFileName(state.Step))
	if err := Save(name, state); err != nil {
		return err
	}
	if s.MaxToKeep <= 0 {
		return nil
	}
	files, err := s.stepFiles()
	if err != nil {
		return err
	}
	for len(files) > s.MaxToKeep {
		if err := os.Remove(files[0]); err != nil {
			return errors.Wrap(err, "pruning checkpoint")
		}
		files = files[1:]
	}
	return nil
}

// SaveFinal writes the single unnumbered snapshot model.ckpt.json.
func (s *Saver) SaveFinal(state *State) error {
	return Save(filepath.Join(s.modelDir(), "model.ckpt.json"), state)
}

// Latest returns the path of the newest step snapshot, falling back to the
// final snapshot when no step files exist.
func (s *Saver) Latest() (string, error) {
	files, err := s.stepFiles()
	if err != nil {
		return "", err
	}
	if len(files) > 0 {
		return files[len(files)-1], nil
	}
	final := filepath.Join(s.modelDir(), "model.ckpt.json")
	if _, err := os.Stat(final); err != nil {
		return "", errors.Wrapf(err, "no checkpoint under %s", s.modelDir())
	}
	return final, nil
}

func stepFileName(step int) string {
	return fmt.Sprintf("model.ckpt-%06d.json", step)
}
