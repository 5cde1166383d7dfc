package runlog

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// event is one scalar observation in the summary stream.
type event struct {
	RunID    string   `json:"run_id"`
	Step     int      `json:"step"`
	Tag      string   `json:"tag"`
	Value    *float64 `json:"value"`
	WallTime float64  `json:"wall_time"`
}

// EventWriter appends scalar summary events to a JSON-lines file, one
// {run_id, step, tag, value, wall_time} record per scalar. The file is
// opened for append, so successive runs share one stream and are told apart
// by their run ids.
type EventWriter struct {
	runID  string
	file   *os.File
	enc    *json.Encoder
	closed bool
}

// NewEventWriter opens the event stream at path, stamping every record with
// a fresh run id.
func NewEventWriter(path string) (*EventWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating summary directory")
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "opening event stream")
	}
	return &EventWriter{
		runID: uuid.New().String(),
		file:  file,
		enc:   json.NewEncoder(file),
	}, nil
}

// RunID identifies this writer's run within the stream.
func (w *EventWriter) RunID() string { return w.runID }

// Scalar appends one event. JSON has no NaN or infinity, so non-finite
// values are recorded as null; a diverged loss is still visible in the
// stream.
func (w *EventWriter) Scalar(step int, tag string, value float64) error {
	if w.closed {
		return errors.New("event stream is closed")
	}
	e := event{
		RunID:    w.runID,
		Step:     step,
		Tag:      tag,
		WallTime: float64(time.Now().UnixNano()) / 1e9,
	}
	if !math.IsNaN(value) && !math.IsInf(value, 0) {
		e.Value = &value
	}
	return errors.Wrap(w.enc.Encode(&e), "appending summary event")
}

// Close releases the stream. The training loops close on their way out and
// commands defer a close as well, so closing twice must stay safe.
func (w *EventWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return errors.Wrap(w.file.Close(), "closing event stream")
}
