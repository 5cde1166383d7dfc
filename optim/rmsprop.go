package optim

import (
	"math"

	"github.com/nngrad/trainer/autograd"
)

// RMSPropSolver divides each update by the root of a decaying average of
// squared gradients.
type RMSPropSolver struct {
	LR  float64
	Rho float64 // moving-average coefficient for the squared gradients
	Eps float64

	cache map[string][]float64
}

// NewRMSProp returns an RMSProp solver. rho is conventionally 0.9; the text
// generator passes its own.
func NewRMSProp(lr, rho float64) *RMSPropSolver {
	return &RMSPropSolver{
		LR:    lr,
		Rho:   rho,
		Eps:   1e-10,
		cache: make(map[string][]float64),
	}
}

// Step applies ms = rho*ms + (1-rho)*g^2; w -= lr * g / sqrt(ms + eps).
func (s *RMSPropSolver) Step(params map[string]*autograd.Mat) {
	for _, k := range sortedKeys(params) {
		p := params[k]
		ms := slot(s.cache, k, len(p.W), 0)
		for i, g := range p.DW {
			ms[i] = s.Rho*ms[i] + (1-s.Rho)*g*g
			p.W[i] -= s.LR * g / math.Sqrt(ms[i]+s.Eps)
		}
		p.ZeroGrad()
	}
}
