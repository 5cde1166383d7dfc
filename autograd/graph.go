package autograd

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Graph records the operations of one forward pass. When recording is off the
// ops compute values only, which is the cheap path used for evaluation and
// decoding. A Graph must not be shared between goroutines; concurrent callers
// each build their own.
type Graph struct {
	recording bool
	tape      []func()
}

// NewGraph returns a graph. With recording set, every op appends its
// backward closure to the tape.
func NewGraph(recording bool) *Graph {
	return &Graph{recording: recording}
}

// Recording reports whether ops append backward closures to the tape.
func (g *Graph) Recording() bool {
	return g.recording
}

// Backward replays the tape in reverse, accumulating gradients. The caller
// seeds the terminal gradient (loss ops do this themselves).
func (g *Graph) Backward() {
	for i := len(g.tape) - 1; i >= 0; i-- {
		g.tape[i]()
	}
}

func (g *Graph) record(f func()) {
	if g.recording {
		g.tape = append(g.tape, f)
	}
}

// Mul computes the matrix product a*b, [r x k] by [k x c].
func (g *Graph) Mul(a, b *Mat) *Mat {
	if a.Cols != b.Rows {
		panic(fmt.Sprintf("autograd: Mul shape mismatch %dx%d by %dx%d", a.Rows, a.Cols, b.Rows, b.Cols))
	}
	out := NewMat(a.Rows, b.Cols)
	am := mat.NewDense(a.Rows, a.Cols, a.W)
	bm := mat.NewDense(b.Rows, b.Cols, b.W)
	om := mat.NewDense(out.Rows, out.Cols, out.W)
	om.Mul(am, bm)

	g.record(func() {
		dout := mat.NewDense(out.Rows, out.Cols, out.DW)
		var da, db mat.Dense
		da.Mul(dout, bm.T())
		db.Mul(am.T(), dout)
		floats.Add(a.DW, da.RawMatrix().Data)
		floats.Add(b.DW, db.RawMatrix().Data)
	})
	return out
}

// Add computes the element-wise sum of two equally shaped matrices.
func (g *Graph) Add(a, b *Mat) *Mat {
	if a.Rows != b.Rows || a.Cols != b.Cols {
		panic(fmt.Sprintf("autograd: Add shape mismatch %dx%d vs %dx%d", a.Rows, a.Cols, b.Rows, b.Cols))
	}
	out := NewMat(a.Rows, a.Cols)
	floats.AddTo(out.W, a.W, b.W)

	g.record(func() {
		floats.Add(a.DW, out.DW)
		floats.Add(b.DW, out.DW)
	})
	return out
}

// AddRow adds the [1 x c] row vector to every row of m.
func (g *Graph) AddRow(m, row *Mat) *Mat {
	if row.Rows != 1 || row.Cols != m.Cols {
		panic(fmt.Sprintf("autograd: AddRow wants a 1x%d row, got %dx%d", m.Cols, row.Rows, row.Cols))
	}
	out := NewMat(m.Rows, m.Cols)
	for r := 0; r < m.Rows; r++ {
		floats.AddTo(out.Row(r), m.Row(r), row.W)
	}

	g.record(func() {
		for r := 0; r < m.Rows; r++ {
			base := r * m.Cols
			for c := 0; c < m.Cols; c++ {
				d := out.DW[base+c]
				m.DW[base+c] += d
				row.DW[c] += d
			}
		}
	})
	return out
}

// EltMul computes the Hadamard product of two equally shaped matrices.
func (g *Graph) EltMul(a, b *Mat) *Mat {
	if a.Rows != b.Rows || a.Cols != b.Cols {
		panic(fmt.Sprintf("autograd: EltMul shape mismatch %dx%d vs %dx%d", a.Rows, a.Cols, b.Rows, b.Cols))
	}
	out := NewMat(a.Rows, a.Cols)
	floats.MulTo(out.W, a.W, b.W)

	g.record(func() {
		for i := range out.DW {
			a.DW[i] += b.W[i] * out.DW[i]
			b.DW[i] += a.W[i] * out.DW[i]
		}
	})
	return out
}

// unary applies fn element-wise; dfn(x, y) is the local derivative given the
// input x and output y.
func (g *Graph) unary(m *Mat, fn func(float64) float64, dfn func(x, y float64) float64) *Mat {
	out := NewMat(m.Rows, m.Cols)
	for i, x := range m.W {
		out.W[i] = fn(x)
	}

	g.record(func() {
		for i := range m.W {
			m.DW[i] += dfn(m.W[i], out.W[i]) * out.DW[i]
		}
	})
	return out
}

// Tanh applies the hyperbolic tangent element-wise.
func (g *Graph) Tanh(m *Mat) *Mat {
	return g.unary(m, math.Tanh, func(_, y float64) float64 { return 1 - y*y })
}

// Sigmoid applies the logistic function element-wise.
func (g *Graph) Sigmoid(m *Mat) *Mat {
	return g.unary(m,
		func(x float64) float64 { return 1 / (1 + math.Exp(-x)) },
		func(_, y float64) float64 { return y * (1 - y) })
}

// Relu applies max(0, x) element-wise.
func (g *Graph) Relu(m *Mat) *Mat {
	return g.unary(m,
		func(x float64) float64 { return math.Max(0, x) },
		func(x, _ float64) float64 {
			if x > 0 {
				return 1
			}
			return 0
		})
}

// Elu applies x for x > 0 and exp(x)-1 otherwise.
func (g *Graph) Elu(m *Mat) *Mat {
	return g.unary(m,
		func(x float64) float64 {
			if x > 0 {
				return x
			}
			return math.Exp(x) - 1
		},
		func(x, y float64) float64 {
			if x > 0 {
				return 1
			}
			return y + 1
		})
}

// Lookup gathers rows of the [vocab x dim] table for each id, producing a
// [len(ids) x dim] batch. Gradients scatter back into the table rows.
func (g *Graph) Lookup(table *Mat, ids []int) *Mat {
	if len(ids) == 0 {
		panic("autograd: Lookup with empty id list")
	}
	out := NewMat(len(ids), table.Cols)
	for r, id := range ids {
		if id < 0 || id >= table.Rows {
			panic(fmt.Sprintf("autograd: Lookup id %d outside table of %d rows", id, table.Rows))
		}
		copy(out.Row(r), table.Row(id))
	}

	rows := append([]int(nil), ids...)
	g.record(func() {
		for r, id := range rows {
			floats.Add(table.DW[id*table.Cols:(id+1)*table.Cols], out.DW[r*out.Cols:(r+1)*out.Cols])
		}
	})
	return out
}

// Dropout zeroes each element with probability rate and scales survivors by
// 1/(1-rate), so evaluation needs no rescaling. The mask is drawn from rng.
func (g *Graph) Dropout(m *Mat, rate float64, rng *rand.Rand) *Mat {
	if rate <= 0 {
		return m
	}
	if rate >= 1 {
		panic(fmt.Sprintf("autograd: dropout rate %v outside [0,1)", rate))
	}
	out := NewMat(m.Rows, m.Cols)
	scale := 1 / (1 - rate)
	mask := make([]float64, len(m.W))
	for i := range m.W {
		if rng.Float64() >= rate {
			mask[i] = scale
			out.W[i] = m.W[i] * scale
		}
	}

	g.record(func() {
		for i := range m.W {
			m.DW[i] += mask[i] * out.DW[i]
		}
	})
	return out
}

// SoftmaxCrossEntropy fuses a row-wise softmax over the [batch x classes]
// logits with the negative log-likelihood of the label ids. The returned loss
// is scale * sum over rows; the recorded backward seeds scale*(p - onehot)
// into logits.DW, so no upstream gradient is needed. Pass scale = 1/batch for
// a mean.
func (g *Graph) SoftmaxCrossEntropy(logits *Mat, labels []int, scale float64) float64 {
	if len(labels) != logits.Rows {
		panic(fmt.Sprintf("autograd: %d labels for %d logit rows", len(labels), logits.Rows))
	}
	probs := make([]float64, len(logits.W))
	loss := 0.0
	for r := 0; r < logits.Rows; r++ {
		lr := logits.Row(r)
		pr := probs[r*logits.Cols : (r+1)*logits.Cols]
		max := lr[0]
		for _, v := range lr[1:] {
			if v > max {
				max = v
			}
		}
		sum := 0.0
		for c, v := range lr {
			e := math.Exp(v - max)
			pr[c] = e
			sum += e
		}
		for c := range pr {
			pr[c] /= sum
		}
		label := labels[r]
		if label < 0 || label >= logits.Cols {
			panic(fmt.Sprintf("autograd: label %d outside %d classes", label, logits.Cols))
		}
		loss -= scale * math.Log(pr[label])
	}

	rows := append([]int(nil), labels...)
	g.record(func() {
		for r, label := range rows {
			base := r * logits.Cols
			for c := 0; c < logits.Cols; c++ {
				d := probs[base+c]
				if c == label {
					d -= 1
				}
				logits.DW[base+c] += scale * d
			}
		}
	})
	return loss
}
