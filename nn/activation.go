// Package nn implements the two models the trainers drive: a multi-layer
// perceptron classifier and a character-level LSTM generator, both built on
// the autograd tape. Categorical hyperparameters (activation, initializer,
// regularizer, decoding mode) are closed enumerations resolved once at
// configuration time.
package nn

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/nngrad/trainer/autograd"
)

// Activation names one of the supported hidden-layer nonlinearities.
type Activation int

const (
	ReLU Activation = iota
	ELU
	Tanh
	Sigmoid
)

var activationNames = map[string]Activation{
	"relu":    ReLU,
	"elu":     ELU,
	"tanh":    Tanh,
	"sigmoid": Sigmoid,
}

// ParseActivation resolves an activation name. The set is closed; anything
// else is an error.
func ParseActivation(name string) (Activation, error) {
	a, ok := activationNames[name]
	if !ok {
		return 0, errors.Errorf("unknown activation %q (want relu, elu, tanh or sigmoid)", name)
	}
	return a, nil
}

func (a Activation) String() string {
	switch a {
	case ReLU:
		return "relu"
	case ELU:
		return "elu"
	case Tanh:
		return "tanh"
	case Sigmoid:
		return "sigmoid"
	}
	return "unknown"
}

// MarshalJSON writes the activation by name so checkpoints stay readable.
func (a Activation) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Activation) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	v, err := ParseActivation(name)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func (a Activation) apply(g *autograd.Graph, m *autograd.Mat) *autograd.Mat {
	switch a {
	case ReLU:
		return g.Relu(m)
	case ELU:
		return g.Elu(m)
	case Tanh:
		return g.Tanh(m)
	case Sigmoid:
		return g.Sigmoid(m)
	}
	panic("nn: unhandled activation")
}
