package trainer

import "fmt"
import "io"
import "log/slog"
import "math"
import "math/rand"
import "os"
import "time"

import "github.com/pkg/errors"

// CorpusSource yields [batch][time] token windows and renders token ids back
// to text for sample previews.
type CorpusSource interface {
	Batch(batchSize, seqLength int) (inputs, targets [][]int)
	String(ids []int) string
}

// GeneratorStepper performs one atomic optimization step on a pair of
// time-major token matrices and reports the step's loss.
type GeneratorStepper interface {
	TrainStep(inputs, targets [][]int) float64
}

// Decoder rolls a model forward from one start token per sequence with fresh
// recurrent state, returning [length][batch] token ids.
type Decoder interface {
	Decode(start []int, length int) [][]int
}

// GeneratorLoop drives a character-model training run: a progress line every
// PrintEvery steps, a decoded sample batch every SampleEvery steps, and a
// checkpoint every CheckpointEvery steps. Decoding starts from uniformly
// random tokens drawn from Rng, independent of the training batches. A NaN
// loss ends the run early; samples decoded before the divergence are still
// returned, but nothing is checkpointed after it.
type GeneratorLoop struct {
	Steps        int
	BatchSize    int
	SeqLength    int
	DecodeLength int
	VocabSize    int

	PrintEvery      int
	SampleEvery     int
	CheckpointEvery int

	Corpus  CorpusSource
	Stepper GeneratorStepper
	Decoder Decoder
	Rng     *rand.Rand

	Summary    Summary              // optional scalar sink, closed by Run
	Checkpoint func(step int) error // optional periodic checkpoint writer
	Log        *slog.Logger         // optional run log
	Out        io.Writer            // progress stream, defaults to os.Stdout
}

// Run executes the loop and returns the decoded samples keyed by the step
// that produced them. The Termination value is meaningful only when the
// error is nil.
func (l *GeneratorLoop) Run() (map[int][][]int, Termination, error) {
	w := l.Out
	if w == nil {
		w = os.Stdout
	}
	log := l.Log
	if log == nil {
		log = nopLogger
	}
	log.Info("training generator", "steps", l.Steps,
		"batch_size", l.BatchSize, "seq_length", l.SeqLength, "vocab", l.VocabSize)

	samples := make(map[int][][]int)
	for step := 0; step < l.Steps; step++ {
		rawInputs, rawTargets := l.Corpus.Batch(l.BatchSize, l.SeqLength)
		inputs, targets := Transpose(rawInputs), Transpose(rawTargets)

		started := time.Now()
		loss := l.Stepper.TrainStep(inputs, targets)
		examplesPerSecond := float64(l.BatchSize) / time.Since(started).Seconds()

		if l.PrintEvery > 0 && step%l.PrintEvery == 0 {
			fmt.Fprintf(w, "[%s] Train Step %04d/%04d, Batch Size = %d, Examples/Sec = %.2f, Loss = %v\n",
				time.Now().Format("2006-01-02 15:04"), step+1, l.Steps, l.BatchSize, examplesPerSecond, loss)
			if err := emit(l.Summary, step, "train_loss", loss); err != nil {
				closeSummary(l.Summary, log)
				return samples, Completed, err
			}
			if err := emit(l.Summary, step, "examples_per_sec", examplesPerSecond); err != nil {
				closeSummary(l.Summary, log)
				return samples, Completed, err
			}
		}

		if math.IsNaN(loss) {
			fmt.Fprintln(w, "Warning: training loss is NaN.. ")
			log.Warn("training diverged", "step", step)
			closeSummary(l.Summary, log)
			return samples, Diverged, nil
		}

		if l.SampleEvery > 0 && step%l.SampleEvery == 0 {
			decodeStart := time.Now()
			start := make([]int, l.BatchSize)
			for i := range start {
				start[i] = l.Rng.Intn(l.VocabSize)
			}
			sample := l.Decoder.Decode(start, l.DecodeLength)
			samples[step] = sample
			fmt.Fprintf(w, "Decoded at train step %d, Sequences/Sec %.2f\n",
				step, float64(l.BatchSize)/time.Since(decodeStart).Seconds())

			first := make([]int, len(sample))
			for t, row := range sample {
				first[t] = row[0]
			}
			fmt.Fprintf(w, "%q\n", l.Corpus.String(first))
		}

		if l.CheckpointEvery > 0 && step%l.CheckpointEvery == 0 && l.Checkpoint != nil {
			if err := l.Checkpoint(step); err != nil {
				closeSummary(l.Summary, log)
				return samples, Completed, errors.Wrapf(err, "checkpoint at step %d", step)
			}
			log.Info("saved checkpoint", "step", step)
		}
	}

	closeSummary(l.Summary, log)
	log.Info("training completed", "steps", l.Steps, "decoded_batches", len(samples))
	return samples, Completed, nil
}

// Transpose flips a [batch][time] token matrix into [time][batch] layout.
func Transpose(m [][]int) [][]int {
	if len(m) == 0 {
		return nil
	}
	out := make([][]int, len(m[0]))
	for t := range out {
		out[t] = make([]int, len(m))
		for b := range m {
			out[t][b] = m[b][t]
		}
	}
	return out
}
