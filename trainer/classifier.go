package trainer

import "fmt"
import "io"
import "log/slog"
import "math"
import "os"

import "github.com/pkg/errors"

// BatchSource yields one training minibatch per call.
type BatchSource interface {
	NextBatch(size int) (inputs [][]float64, labels []int)
}

// ClassifierStepper performs one atomic optimization step on a labelled
// minibatch and reports the step's training loss and accuracy.
type ClassifierStepper interface {
	TrainStep(inputs [][]float64, labels []int) (loss, accuracy float64)
}

// ClassifierEvaluator scores a full split without touching any parameter.
type ClassifierEvaluator interface {
	Evaluate(inputs [][]float64, labels []int) (loss float64, predictions []int)
}

// ClassifierLoop drives an image-classifier training run: a progress line on
// every step, summary scalars every 33 steps, a full test-set evaluation with
// confusion matrix every 100 steps, and one checkpoint at normal completion.
// A NaN training loss ends the run early and suppresses the checkpoint.
type ClassifierLoop struct {
	Steps     int
	BatchSize int
	Classes   int

	Train   BatchSource
	Stepper ClassifierStepper
	Eval    ClassifierEvaluator // optional; skips test evaluation when nil

	TestInputs [][]float64
	TestLabels []int

	Summary    Summary      // optional scalar sink, closed by Run
	Checkpoint func() error // optional, invoked once after the last step
	Log        *slog.Logger // optional run log
	Out        io.Writer    // progress stream, defaults to os.Stdout
}

// Run executes the loop and reports how it ended. The summary sink is closed
// on every path out; the Termination value is meaningful only when the error
// is nil.
func (l *ClassifierLoop) Run() (Termination, error) {
	w := l.Out
	if w == nil {
		w = os.Stdout
	}
	log := l.Log
	if log == nil {
		log = nopLogger
	}
	log.Info("training classifier", "steps", l.Steps, "batch_size", l.BatchSize, "classes", l.Classes)

	for step := 0; step < l.Steps; step++ {
		inputs, labels := l.Train.NextBatch(l.BatchSize)
		loss, accuracy := l.Stepper.TrainStep(inputs, labels)

		if step%33 == 0 { // write summary
			if err := emit(l.Summary, step, "train_loss", loss); err != nil {
				closeSummary(l.Summary, log)
				return Completed, err
			}
			if err := emit(l.Summary, step, "train_accuracy", accuracy); err != nil {
				closeSummary(l.Summary, log)
				return Completed, err
			}
		}

		fmt.Fprintf(w, "Ep.%d: train_loss:%+.4f, train_accuracy:%+.4f\n", step, loss, accuracy)

		if math.IsNaN(loss) {
			fmt.Fprintln(w, "Warning: training loss is NaN.. ")
			log.Warn("training diverged", "step", step)
			closeSummary(l.Summary, log)
			return Diverged, nil
		}

		if (step+1)%100 == 0 && l.Eval != nil { // eval on test set
			testLoss, predictions := l.Eval.Evaluate(l.TestInputs, l.TestLabels)
			matrix := Confuse(l.Classes, l.TestLabels, predictions)
			fmt.Fprintf(w, "==> Ep.%d: test_loss:%+.4f, test_accuracy:%+.4f\n", step, testLoss, matrix.Accuracy())
			fmt.Fprintf(w, "==> Confusion Matrix on test set \n %s \n\n", matrix)
			log.Info("evaluated test set", "step", step,
				"test_loss", testLoss, "test_accuracy", matrix.Accuracy())
		}
	}

	closeSummary(l.Summary, log)
	if l.Checkpoint != nil {
		if err := l.Checkpoint(); err != nil {
			return Completed, errors.Wrap(err, "saving final checkpoint")
		}
		log.Info("saved final checkpoint", "step", l.Steps)
	}
	log.Info("training completed", "steps", l.Steps)
	return Completed, nil
}
