package nn

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// DecodingMode names the strategy for turning generator outputs into tokens.
type DecodingMode int

const (
	// Greedy always picks the highest-probability token.
	Greedy DecodingMode = iota
	// Sampling draws from the output distribution.
	Sampling
)

var decodingNames = map[string]DecodingMode{
	"greedy":   Greedy,
	"sampling": Sampling,
}

// ParseDecodingMode resolves a decoding mode name. The set is closed;
// anything else is an error.
func ParseDecodingMode(name string) (DecodingMode, error) {
	m, ok := decodingNames[name]
	if !ok {
		return 0, errors.Errorf("unknown decoding mode %q (want greedy or sampling)", name)
	}
	return m, nil
}

func (m DecodingMode) String() string {
	switch m {
	case Greedy:
		return "greedy"
	case Sampling:
		return "sampling"
	}
	return "unknown"
}

func (m DecodingMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *DecodingMode) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	v, err := ParseDecodingMode(name)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
