package trainer

import "math/rand"

import "github.com/nngrad/trainer/autograd"
import "github.com/nngrad/trainer/nn"
import "github.com/nngrad/trainer/optim"
import "github.com/nngrad/trainer/parallel"

// MLPSession binds a perceptron to a solver, making the pair a stepper and an
// evaluator for ClassifierLoop.
type MLPSession struct {
	Model    *nn.MLP
	Solver   optim.Solver
	ClipNorm float64 // global-norm gradient ceiling; 0 disables clipping
}

// TrainStep runs forward, backward, the optional global-norm clip and one
// solver update as a single unit.
func (s *MLPSession) TrainStep(inputs [][]float64, labels []int) (loss, accuracy float64) {
	g := autograd.NewGraph(true)
	logits := s.Model.Forward(g, inputs, true)
	loss = s.Model.Loss(g, logits, labels)
	accuracy = nn.Accuracy(logits, labels)
	g.Backward()
	if s.ClipNorm > 0 {
		optim.ClipByGlobalNorm(s.Model.Params(), s.ClipNorm)
	}
	s.Solver.Step(s.Model.Params())
	return loss, accuracy
}

// Evaluate scores a whole split at once, fanning the forward passes out over
// CPU-sized chunks. Evaluation forwards never record or touch gradients, so
// the chunks share the parameter tensors freely.
func (s *MLPSession) Evaluate(inputs [][]float64, labels []int) (loss float64, predictions []int) {
	n := len(inputs)
	if n == 0 {
		return 0, nil
	}
	width := parallel.Width()
	chunk := (n + width - 1) / width
	pieces := (n + chunk - 1) / chunk

	losses := make([]float64, pieces)
	predictions = make([]int, n)
	parallel.ForEach(pieces, width, func(i int) {
		lo := i * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		g := autograd.NewGraph(false)
		logits := s.Model.Forward(g, inputs[lo:hi], false)
		losses[i] = g.SoftmaxCrossEntropy(logits, labels[lo:hi], 1/float64(n))
		copy(predictions[lo:hi], nn.Predictions(logits))
	})
	for _, chunkLoss := range losses {
		loss += chunkLoss
	}
	return loss + s.Model.Penalty(), predictions
}

// LSTMSession binds a character model to a solver, making the pair a stepper
// and a decoder for GeneratorLoop.
type LSTMSession struct {
	Model    *nn.CharLSTM
	Solver   optim.Solver
	ClipNorm float64
	Rng      *rand.Rand // consulted by sampling-mode decoding
}

// TrainStep runs one optimization step on a time-major window pair.
func (s *LSTMSession) TrainStep(inputs, targets [][]int) float64 {
	g := autograd.NewGraph(true)
	loss := s.Model.Loss(g, inputs, targets, true)
	g.Backward()
	if s.ClipNorm > 0 {
		optim.ClipByGlobalNorm(s.Model.Params(), s.ClipNorm)
	}
	s.Solver.Step(s.Model.Params())
	return loss
}

// Decode rolls the model forward from the start tokens with zeroed state.
func (s *LSTMSession) Decode(start []int, length int) [][]int {
	return s.Model.Decode(start, length, s.Rng)
}
