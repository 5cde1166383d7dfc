package nn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/nngrad/trainer/autograd"
)

// MLPConfig fixes the architecture and initialization of a multi-layer
// perceptron classifier. It round-trips through checkpoints as JSON.
type MLPConfig struct {
	InputDim    int         `json:"input_dim"`
	Hidden      []int       `json:"hidden"`
	Classes     int         `json:"classes"`
	Activation  Activation  `json:"activation"`
	DropoutRate float64     `json:"dropout_rate"`
	Init        Init        `json:"weight_init"`
	InitScale   float64     `json:"weight_init_scale"`
	Reg         Regularizer `json:"weight_reg"`
	RegStrength float64     `json:"weight_reg_strength"`
}

// MLP is a feedforward classifier: a stack of fully connected hidden layers
// with a shared activation, optional dropout after each hidden layer, and a
// linear output layer producing one logit per class.
type MLP struct {
	cfg     MLPConfig
	params  map[string]*autograd.Mat
	weights []*autograd.Mat
	rng     *rand.Rand
}

// NewMLP builds a perceptron with freshly initialized parameters drawn from
// rng. The rng is retained and consulted again only for dropout masks during
// training forwards, so evaluation passes may run concurrently.
func NewMLP(cfg MLPConfig, rng *rand.Rand) *MLP {
	if cfg.InputDim <= 0 || cfg.Classes <= 0 {
		panic(fmt.Sprintf("nn: invalid MLP dimensions: %d inputs, %d classes", cfg.InputDim, cfg.Classes))
	}
	m := &MLP{
		cfg:    cfg,
		params: make(map[string]*autograd.Mat, 2*len(cfg.Hidden)+2),
		rng:    rng,
	}
	in := cfg.InputDim
	for i, units := range cfg.Hidden {
		if units <= 0 {
			panic(fmt.Sprintf("nn: invalid hidden layer size %d", units))
		}
		m.addLayer(fmt.Sprintf("h%d", i), in, units)
		in = units
	}
	m.addLayer("out", in, cfg.Classes)
	return m
}

func (m *MLP) addLayer(name string, in, out int) {
	w := autograd.NewMat(in, out)
	m.cfg.Init.Fill(w, m.cfg.InitScale, m.rng)
	b := autograd.NewMat(1, out)
	m.params[name+"_w"] = w
	m.params[name+"_b"] = b
	m.weights = append(m.weights, w)
}

// Config returns the architecture the model was built with.
func (m *MLP) Config() MLPConfig { return m.cfg }

// Params exposes the parameter tensors for the solver and for checkpoints.
func (m *MLP) Params() map[string]*autograd.Mat { return m.params }

// Forward runs the batch through the network and returns the
// [batch x classes] logits. Dropout masks are drawn only when train is set;
// evaluation forwards are pure reads of the parameters.
func (m *MLP) Forward(g *autograd.Graph, inputs [][]float64, train bool) *autograd.Mat {
	x := autograd.FromRows(inputs)
	for i := range m.cfg.Hidden {
		w := m.params[fmt.Sprintf("h%d_w", i)]
		b := m.params[fmt.Sprintf("h%d_b", i)]
		x = m.cfg.Activation.apply(g, g.AddRow(g.Mul(x, w), b))
		if train && m.cfg.DropoutRate > 0 {
			x = g.Dropout(x, m.cfg.DropoutRate, m.rng)
		}
	}
	return g.AddRow(g.Mul(x, m.params["out_w"]), m.params["out_b"])
}

// Loss is the mean cross entropy over the batch plus the weight penalty.
// On a recording graph the penalty gradient is accumulated immediately, so
// a following Backward leaves total gradients in the parameters.
func (m *MLP) Loss(g *autograd.Graph, logits *autograd.Mat, labels []int) float64 {
	loss := g.SoftmaxCrossEntropy(logits, labels, 1/float64(logits.Rows))
	if g.Recording() {
		return loss + m.cfg.Reg.Penalize(m.cfg.RegStrength, m.weights)
	}
	return loss + m.Penalty()
}

// Penalty is the current regularization loss, gradient-free.
func (m *MLP) Penalty() float64 {
	return m.cfg.Reg.Loss(m.cfg.RegStrength, m.weights)
}

// Predictions returns the argmax class of every logit row.
func Predictions(logits *autograd.Mat) []int {
	preds := make([]int, logits.Rows)
	for r := range preds {
		preds[r] = floats.MaxIdx(logits.Row(r))
	}
	return preds
}

// Accuracy is the fraction of rows whose argmax matches the label.
func Accuracy(logits *autograd.Mat, labels []int) float64 {
	if logits.Rows == 0 {
		return 0
	}
	hits := 0
	for r, label := range labels {
		if floats.MaxIdx(logits.Row(r)) == label {
			hits++
		}
	}
	return float64(hits) / float64(logits.Rows)
}
