package nn

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/nngrad/trainer/autograd"
)

// Regularizer names one of the supported weight penalties. Penalties apply
// to weight matrices only, never biases.
type Regularizer int

const (
	RegNone Regularizer = iota
	// RegL1 adds strength * sum(|w|).
	RegL1
	// RegL2 adds strength * sum(w^2) / 2.
	RegL2
)

var regularizerNames = map[string]Regularizer{
	"none": RegNone,
	"l1":   RegL1,
	"l2":   RegL2,
}

// ParseRegularizer resolves a regularizer name. The set is closed; anything
// else is an error.
func ParseRegularizer(name string) (Regularizer, error) {
	r, ok := regularizerNames[name]
	if !ok {
		return 0, errors.Errorf("unknown weight regularizer %q (want none, l1 or l2)", name)
	}
	return r, nil
}

func (r Regularizer) String() string {
	switch r {
	case RegNone:
		return "none"
	case RegL1:
		return "l1"
	case RegL2:
		return "l2"
	}
	return "unknown"
}

func (r Regularizer) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Regularizer) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	v, err := ParseRegularizer(name)
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Loss returns the penalty over the given weights without touching their
// gradients. Evaluation passes use this form.
func (r Regularizer) Loss(strength float64, weights []*autograd.Mat) float64 {
	if r == RegNone || strength == 0 {
		return 0
	}
	total := 0.0
	switch r {
	case RegL1:
		for _, w := range weights {
			for _, v := range w.W {
				total += math.Abs(v)
			}
		}
	case RegL2:
		for _, w := range weights {
			total += 0.5 * floats.Dot(w.W, w.W)
		}
	}
	return strength * total
}

// Penalize returns the penalty and accumulates its gradient into each
// weight's DW, ready for the backward pass's contributions on top.
func (r Regularizer) Penalize(strength float64, weights []*autograd.Mat) float64 {
	if r == RegNone || strength == 0 {
		return 0
	}
	total := 0.0
	switch r {
	case RegL1:
		for _, w := range weights {
			for i, v := range w.W {
				total += math.Abs(v)
				if v > 0 {
					w.DW[i] += strength
				} else if v < 0 {
					w.DW[i] -= strength
				}
			}
		}
	case RegL2:
		for _, w := range weights {
			total += 0.5 * floats.Dot(w.W, w.W)
			floats.AddScaled(w.DW, strength, w.W)
		}
	}
	return strength * total
}
