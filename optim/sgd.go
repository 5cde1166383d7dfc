package optim

import "github.com/nngrad/trainer/autograd"

// SGDSolver is plain stateless gradient descent.
type SGDSolver struct {
	LR float64
}

// NewSGD returns a gradient-descent solver with the given learning rate.
func NewSGD(lr float64) *SGDSolver {
	return &SGDSolver{LR: lr}
}

// Step applies w -= lr * g to every parameter.
func (s *SGDSolver) Step(params map[string]*autograd.Mat) {
	for _, k := range sortedKeys(params) {
		p := params[k]
		for i, g := range p.DW {
			p.W[i] -= s.LR * g
		}
		p.ZeroGrad()
	}
}
