package optim

import (
	"math"

	"github.com/nngrad/trainer/autograd"
)

// AdagradSolver accumulates squared gradients per weight and divides the
// update by their root, so frequently updated weights slow down over time.
type AdagradSolver struct {
	LR float64
	// InitialAccumulator seeds the squared-gradient cache; a small positive
	// value keeps the first updates bounded.
	InitialAccumulator float64

	cache map[string][]float64
}

// NewAdagrad returns an Adagrad solver. initialAccumulator is conventionally
// 0.1.
func NewAdagrad(lr, initialAccumulator float64) *AdagradSolver {
	return &AdagradSolver{
		LR:                 lr,
		InitialAccumulator: initialAccumulator,
		cache:              make(map[string][]float64),
	}
}

// Step applies acc += g^2; w -= lr * g / sqrt(acc).
func (s *AdagradSolver) Step(params map[string]*autograd.Mat) {
	for _, k := range sortedKeys(params) {
		p := params[k]
		acc := slot(s.cache, k, len(p.W), s.InitialAccumulator)
		for i, g := range p.DW {
			acc[i] += g * g
			p.W[i] -= s.LR * g / math.Sqrt(acc[i])
		}
		p.ZeroGrad()
	}
}
