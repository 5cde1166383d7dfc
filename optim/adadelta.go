package optim

import (
	"math"

	"github.com/nngrad/trainer/autograd"
)

// AdadeltaSolver keeps decaying averages of squared gradients and squared
// updates; the ratio of their roots sizes each step, so the effective rate
// adapts per weight without a hand-tuned schedule.
type AdadeltaSolver struct {
	LR  float64
	Rho float64
	Eps float64

	accGrad   map[string][]float64
	accUpdate map[string][]float64
}

// NewAdadelta returns an Adadelta solver. rho is conventionally 0.95 and eps
// 1e-8.
func NewAdadelta(lr, rho, eps float64) *AdadeltaSolver {
	return &AdadeltaSolver{
		LR:        lr,
		Rho:       rho,
		Eps:       eps,
		accGrad:   make(map[string][]float64),
		accUpdate: make(map[string][]float64),
	}
}

// Step applies the Adadelta rule, scaled by the learning rate.
func (s *AdadeltaSolver) Step(params map[string]*autograd.Mat) {
	for _, k := range sortedKeys(params) {
		p := params[k]
		ag := slot(s.accGrad, k, len(p.W), 0)
		au := slot(s.accUpdate, k, len(p.W), 0)
		for i, g := range p.DW {
			ag[i] = s.Rho*ag[i] + (1-s.Rho)*g*g
			update := g * math.Sqrt(au[i]+s.Eps) / math.Sqrt(ag[i]+s.Eps)
			au[i] = s.Rho*au[i] + (1-s.Rho)*update*update
			p.W[i] -= s.LR * update
		}
		p.ZeroGrad()
	}
}
