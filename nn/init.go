package nn

import (
	"encoding/json"
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/nngrad/trainer/autograd"
)

// Init names one of the supported weight initialization schemes.
type Init int

const (
	// Xavier draws uniformly from [-limit, limit] with
	// limit = sqrt(6 / (fan_in + fan_out)); the scale parameter is ignored.
	Xavier Init = iota
	// Normal draws from a zero-mean Gaussian with stddev scale.
	Normal
	// Uniform draws uniformly from [-scale, scale].
	Uniform
)

var initNames = map[string]Init{
	"xavier":  Xavier,
	"normal":  Normal,
	"uniform": Uniform,
}

// ParseInit resolves an initializer name. The set is closed; anything else
// is an error.
func ParseInit(name string) (Init, error) {
	in, ok := initNames[name]
	if !ok {
		return 0, errors.Errorf("unknown weight initializer %q (want xavier, normal or uniform)", name)
	}
	return in, nil
}

func (in Init) String() string {
	switch in {
	case Xavier:
		return "xavier"
	case Normal:
		return "normal"
	case Uniform:
		return "uniform"
	}
	return "unknown"
}

func (in Init) MarshalJSON() ([]byte, error) {
	return json.Marshal(in.String())
}

func (in *Init) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	v, err := ParseInit(name)
	if err != nil {
		return err
	}
	*in = v
	return nil
}

// Fill overwrites m's values with fresh draws from rng. Rows are fan-in and
// columns fan-out, the layout Mul expects for a weight matrix.
func (in Init) Fill(m *autograd.Mat, scale float64, rng *rand.Rand) {
	switch in {
	case Xavier:
		limit := math.Sqrt(6 / float64(m.Rows+m.Cols))
		for i := range m.W {
			m.W[i] = (rng.Float64()*2 - 1) * limit
		}
	case Normal:
		for i := range m.W {
			m.W[i] = rng.NormFloat64() * scale
		}
	case Uniform:
		for i := range m.W {
			m.W[i] = (rng.Float64()*2 - 1) * scale
		}
	default:
		panic("nn: unhandled initializer")
	}
}
