// Package optim implements the gradient-descent update rules the trainers
// select by name, plus global-norm gradient clipping. Solvers own their slot
// state (moments, caches) keyed by parameter name and always iterate
// parameters in sorted-key order so updates are deterministic.
package optim

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/nngrad/trainer/autograd"
)

// Kind names one of the supported update rules.
type Kind int

const (
	SGD Kind = iota
	Adadelta
	Adagrad
	Adam
	RMSProp
)

var kindNames = map[string]Kind{
	"sgd":      SGD,
	"adadelta": Adadelta,
	"adagrad":  Adagrad,
	"adam":     Adam,
	"rmsprop":  RMSProp,
}

// ParseKind resolves an optimizer name to its Kind. The set is closed;
// anything else is an error.
func ParseKind(name string) (Kind, error) {
	k, ok := kindNames[name]
	if !ok {
		return 0, errors.Errorf("unknown optimizer %q (want sgd, adadelta, adagrad, adam or rmsprop)", name)
	}
	return k, nil
}

func (k Kind) String() string {
	for name, kind := range kindNames {
		if kind == k {
			return name
		}
	}
	return "unknown"
}

// Solver applies one update to a parameter set. Step consumes the accumulated
// gradients in DW and resets them to zero.
type Solver interface {
	Step(params map[string]*autograd.Mat)
}

// New constructs a solver of the given kind with its conventional
// coefficients and the supplied learning rate.
func New(k Kind, lr float64) Solver {
	switch k {
	case SGD:
		return NewSGD(lr)
	case Adadelta:
		return NewAdadelta(lr, 0.95, 1e-8)
	case Adagrad:
		return NewAdagrad(lr, 0.1)
	case Adam:
		return NewAdam(lr, 0.9, 0.999, 1e-8)
	case RMSProp:
		return NewRMSProp(lr, 0.9)
	}
	panic("optim: unhandled kind")
}

func sortedKeys(params map[string]*autograd.Mat) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// slot returns the per-parameter state slice from cache, allocating it on
// first sight of the key.
func slot(cache map[string][]float64, key string, n int, init float64) []float64 {
	s, ok := cache[key]
	if !ok || len(s) != n {
		s = make([]float64, n)
		if init != 0 {
			for i := range s {
				s[i] = init
			}
		}
		cache[key] = s
	}
	return s
}
