package trainer

import "io"
import "log/slog"

import "github.com/pkg/errors"

// Termination reports how a training run ended.
type Termination int

const (
	// Completed means the loop ran every configured step.
	Completed Termination = iota
	// Diverged means the training loss went NaN and the loop stopped early.
	Diverged
)

func (t Termination) String() string {
	if t == Diverged {
		return "diverged"
	}
	return "completed"
}

// Summary receives scalar diagnostics keyed by global step. The loops only
// emit; implementations own the storage format and must tolerate non-finite
// values.
type Summary interface {
	Scalar(step int, tag string, value float64) error
	Close() error
}

// nopLogger swallows run-log records when the caller wires no logger.
var nopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// emit writes one scalar to an optional summary sink.
func emit(s Summary, step int, tag string, value float64) error {
	if s == nil {
		return nil
	}
	return errors.Wrapf(s.Scalar(step, tag, value), "summary %s", tag)
}

// closeSummary flushes an optional summary sink on the way out of a loop.
func closeSummary(s Summary, log *slog.Logger) {
	if s == nil {
		return
	}
	if err := s.Close(); err != nil {
		log.Error("closing summary stream", "err", err)
	}
}
