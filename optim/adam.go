package optim

import (
	"math"

	"github.com/nngrad/trainer/autograd"
)

// AdamSolver keeps exponentially decaying first and second gradient moments
// per weight. Bias correction is folded into the per-step rate.
type AdamSolver struct {
	LR    float64
	Beta1 float64
	Beta2 float64
	Eps   float64

	t int
	m map[string][]float64
	v map[string][]float64
}

// NewAdam returns an Adam solver. beta1/beta2/eps are conventionally
// 0.9/0.999/1e-8.
func NewAdam(lr, beta1, beta2, eps float64) *AdamSolver {
	return &AdamSolver{
		LR:    lr,
		Beta1: beta1,
		Beta2: beta2,
		Eps:   eps,
		m:     make(map[string][]float64),
		v:     make(map[string][]float64),
	}
}

// Step applies one bias-corrected Adam update.
func (s *AdamSolver) Step(params map[string]*autograd.Mat) {
	s.t++
	t := float64(s.t)
	// lrT carries the bias correction of both moments
	lrT := s.LR * math.Sqrt(1-math.Pow(s.Beta2, t)) / (1 - math.Pow(s.Beta1, t))

	for _, k := range sortedKeys(params) {
		p := params[k]
		m := slot(s.m, k, len(p.W), 0)
		v := slot(s.v, k, len(p.W), 0)
		for i, g := range p.DW {
			m[i] = s.Beta1*m[i] + (1-s.Beta1)*g
			v[i] = s.Beta2*v[i] + (1-s.Beta2)*g*g
			p.W[i] -= lrT * m[i] / (math.Sqrt(v[i]) + s.Eps)
		}
		p.ZeroGrad()
	}
}
