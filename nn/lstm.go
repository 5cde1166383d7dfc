package nn

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/nngrad/trainer/autograd"
)

// LSTMConfig fixes the architecture of the character-level generator. It
// round-trips through checkpoints as JSON.
type LSTMConfig struct {
	Vocab       int          `json:"vocab"`
	Embed       int          `json:"embed_dim"`
	Hidden      int          `json:"lstm_num_hidden"`
	Layers      int          `json:"lstm_num_layers"`
	SeqLength   int          `json:"seq_length"`
	DropoutKeep float64      `json:"dropout_keep_prob"`
	Decoding    DecodingMode `json:"decoding_mode"`
}

// CharLSTM is a character-level recurrent generator: an embedding table, a
// stack of LSTM layers, and a linear projection to vocabulary logits shared
// across time steps.
type CharLSTM struct {
	cfg    LSTMConfig
	params map[string]*autograd.Mat
	rng    *rand.Rand
}

// NewCharLSTM builds a generator with Xavier-initialized weights drawn from
// rng. Forget-gate biases start at one so early training does not flush the
// cell state. The rng is retained only for dropout masks during training
// forwards.
func NewCharLSTM(cfg LSTMConfig, rng *rand.Rand) *CharLSTM {
	if cfg.Vocab <= 0 || cfg.Embed <= 0 || cfg.Hidden <= 0 || cfg.Layers <= 0 {
		panic(fmt.Sprintf("nn: invalid LSTM dimensions: vocab %d, embed %d, hidden %d, layers %d",
			cfg.Vocab, cfg.Embed, cfg.Hidden, cfg.Layers))
	}
	if cfg.DropoutKeep <= 0 || cfg.DropoutKeep > 1 {
		panic(fmt.Sprintf("nn: dropout keep probability %v outside (0,1]", cfg.DropoutKeep))
	}
	m := &CharLSTM{
		cfg:    cfg,
		params: make(map[string]*autograd.Mat, 12*cfg.Layers+3),
		rng:    rng,
	}

	embed := autograd.NewMat(cfg.Vocab, cfg.Embed)
	Xavier.Fill(embed, 0, rng)
	m.params["embed"] = embed

	in := cfg.Embed
	for d := 0; d < cfg.Layers; d++ {
		for _, gate := range []string{"i", "f", "o", "u"} {
			wx := autograd.NewMat(in, cfg.Hidden)
			wh := autograd.NewMat(cfg.Hidden, cfg.Hidden)
			Xavier.Fill(wx, 0, rng)
			Xavier.Fill(wh, 0, rng)
			b := autograd.NewMat(1, cfg.Hidden)
			if gate == "f" {
				for i := range b.W {
					b.W[i] = 1
				}
			}
			m.params[fmt.Sprintf("l%d_wx%s", d, gate)] = wx
			m.params[fmt.Sprintf("l%d_wh%s", d, gate)] = wh
			m.params[fmt.Sprintf("l%d_b%s", d, gate)] = b
		}
		in = cfg.Hidden
	}

	outW := autograd.NewMat(cfg.Hidden, cfg.Vocab)
	Xavier.Fill(outW, 0, rng)
	m.params["out_w"] = outW
	m.params["out_b"] = autograd.NewMat(1, cfg.Vocab)
	return m
}

// Config returns the architecture the model was built with.
func (m *CharLSTM) Config() LSTMConfig { return m.cfg }

// Params exposes the parameter tensors for the solver and for checkpoints.
func (m *CharLSTM) Params() map[string]*autograd.Mat { return m.params }

// LSTMState carries the per-layer hidden and cell matrices between time
// steps of one unrolled pass.
type LSTMState struct {
	H, C []*autograd.Mat
}

// ZeroState returns an all-zero recurrent state for the batch width.
func (m *CharLSTM) ZeroState(batch int) *LSTMState {
	st := &LSTMState{
		H: make([]*autograd.Mat, m.cfg.Layers),
		C: make([]*autograd.Mat, m.cfg.Layers),
	}
	for d := 0; d < m.cfg.Layers; d++ {
		st.H[d] = autograd.NewMat(batch, m.cfg.Hidden)
		st.C[d] = autograd.NewMat(batch, m.cfg.Hidden)
	}
	return st
}

func (m *CharLSTM) gate(g *autograd.Graph, layer int, name string, x, h *autograd.Mat) *autograd.Mat {
	wx := m.params[fmt.Sprintf("l%d_wx%s", layer, name)]
	wh := m.params[fmt.Sprintf("l%d_wh%s", layer, name)]
	b := m.params[fmt.Sprintf("l%d_b%s", layer, name)]
	return g.AddRow(g.Add(g.Mul(x, wx), g.Mul(h, wh)), b)
}

// step advances the stack one time step: x is the [batch x embed] input, the
// state is replaced in place, and the top layer's hidden output is returned.
// Dropout between layers is drawn only when train is set; the recurrent state
// always carries the undropped activations.
func (m *CharLSTM) step(g *autograd.Graph, x *autograd.Mat, st *LSTMState, train bool) *autograd.Mat {
	dropRate := 1 - m.cfg.DropoutKeep
	for d := 0; d < m.cfg.Layers; d++ {
		h, c := st.H[d], st.C[d]
		i := g.Sigmoid(m.gate(g, d, "i", x, h))
		f := g.Sigmoid(m.gate(g, d, "f", x, h))
		o := g.Sigmoid(m.gate(g, d, "o", x, h))
		u := g.Tanh(m.gate(g, d, "u", x, h))
		c2 := g.Add(g.EltMul(f, c), g.EltMul(i, u))
		h2 := g.EltMul(o, g.Tanh(c2))
		st.H[d], st.C[d] = h2, c2
		x = h2
		if train && dropRate > 0 {
			x = g.Dropout(x, dropRate, m.rng)
		}
	}
	return x
}

func (m *CharLSTM) logits(g *autograd.Graph, h *autograd.Mat) *autograd.Mat {
	return g.AddRow(g.Mul(h, m.params["out_w"]), m.params["out_b"])
}

// Loss unrolls the stack over a time-major window and returns the cross
// entropy averaged over every prediction. Inputs and targets are indexed
// [time][batch]; the recurrent state starts at zero.
func (m *CharLSTM) Loss(g *autograd.Graph, inputs, targets [][]int, train bool) float64 {
	if len(inputs) == 0 || len(inputs) != len(targets) {
		panic(fmt.Sprintf("nn: %d input steps for %d target steps", len(inputs), len(targets)))
	}
	batch := len(inputs[0])
	st := m.ZeroState(batch)
	scale := 1 / float64(len(inputs)*batch)
	total := 0.0
	for t := range inputs {
		x := g.Lookup(m.params["embed"], inputs[t])
		h := m.step(g, x, st, train)
		total += g.SoftmaxCrossEntropy(m.logits(g, h), targets[t], scale)
	}
	return total
}

// Decode generates length tokens per sequence from the start tokens and a
// zeroed recurrent state, following the configured decoding mode. The result
// is indexed [time][batch]. rng drives sampling-mode draws and may be nil for
// greedy decoding.
func (m *CharLSTM) Decode(start []int, length int, rng *rand.Rand) [][]int {
	if len(start) == 0 {
		panic("nn: Decode with no start tokens")
	}
	g := autograd.NewGraph(false)
	st := m.ZeroState(len(start))
	tokens := start
	out := make([][]int, length)
	for t := 0; t < length; t++ {
		x := g.Lookup(m.params["embed"], tokens)
		h := m.step(g, x, st, false)
		logits := m.logits(g, h)
		next := make([]int, len(start))
		for b := range next {
			if m.cfg.Decoding == Greedy {
				next[b] = floats.MaxIdx(logits.Row(b))
			} else {
				next[b] = sampleRow(logits.Row(b), rng)
			}
		}
		out[t] = next
		tokens = next
	}
	return out
}

// sampleRow draws one index from the softmax distribution over a logit row.
func sampleRow(logits []float64, rng *rand.Rand) int {
	max := floats.Max(logits)
	sum := 0.0
	probs := make([]float64, len(logits))
	for i, v := range logits {
		e := math.Exp(v - max)
		probs[i] = e
		sum += e
	}
	r := rng.Float64() * sum
	acc := 0.0
	for i, p := range probs {
		acc += p
		if r < acc {
			return i
		}
	}
	return len(logits) - 1
}
