package optim

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/nngrad/trainer/autograd"
)

// ClipByGlobalNorm computes the L2 norm over every gradient element of every
// parameter and, when it exceeds max, rescales all gradients by max/norm so
// the combined norm equals max and directions are untouched. It returns the
// pre-clip norm and whether rescaling happened. Must run after the backward
// pass and before the solver step.
func ClipByGlobalNorm(params map[string]*autograd.Mat, max float64) (norm float64, clipped bool) {
	sq := 0.0
	for _, p := range params {
		sq += floats.Dot(p.DW, p.DW)
	}
	norm = math.Sqrt(sq)
	if max <= 0 || norm <= max {
		return norm, false
	}
	scale := max / norm
	for _, p := range params {
		floats.Scale(scale, p.DW)
	}
	return norm, true
}
