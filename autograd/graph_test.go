package autograd

import (
	"math"
	"math/rand"
	"testing"
)

func fillRand(m *Mat, rng *rand.Rand) {
	for i := range m.W {
		m.W[i] = rng.NormFloat64()
	}
}

// sumOf runs forward through op and returns the sum of the output elements.
func sumOf(op func(g *Graph) *Mat) float64 {
	out := op(NewGraph(false))
	s := 0.0
	for _, v := range out.W {
		s += v
	}
	return s
}

// checkGrad compares the recorded gradient of sum(op(m)) w.r.t. m against a
// central finite difference.
func checkGrad(t *testing.T, m *Mat, op func(g *Graph) *Mat) {
	t.Helper()
	g := NewGraph(true)
	out := op(g)
	for i := range out.DW {
		out.DW[i] = 1
	}
	g.Backward()

	const h = 1e-6
	for i := range m.W {
		orig := m.W[i]
		m.W[i] = orig + h
		up := sumOf(op)
		m.W[i] = orig - h
		down := sumOf(op)
		m.W[i] = orig
		want := (up - down) / (2 * h)
		if diff := math.Abs(m.DW[i] - want); diff > 1e-4 {
			t.Errorf("grad[%d]: got %v, want %v (diff %v)", i, m.DW[i], want, diff)
		}
	}
}

func TestMulValues(t *testing.T) {
	a := FromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	b := FromRows([][]float64{{7, 8}, {9, 10}, {11, 12}})
	out := NewGraph(false).Mul(a, b)
	want := [][]float64{{58, 64}, {139, 154}}
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			if out.At(r, c) != want[r][c] {
				t.Errorf("Mul[%d][%d]: got %v, want %v", r, c, out.At(r, c), want[r][c])
			}
		}
	}
}

func TestMulGradient(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := NewMat(3, 4)
	b := NewMat(4, 2)
	fillRand(a, rng)
	fillRand(b, rng)
	checkGrad(t, a, func(g *Graph) *Mat { return g.Mul(a, b) })
	a.ZeroGrad()
	b.ZeroGrad()
	checkGrad(t, b, func(g *Graph) *Mat { return g.Mul(a, b) })
}

func TestAddRowGradient(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	m := NewMat(4, 3)
	row := NewMat(1, 3)
	fillRand(m, rng)
	fillRand(row, rng)
	checkGrad(t, row, func(g *Graph) *Mat { return g.AddRow(m, row) })
	// the bias gradient of a summed output is the row count
	for c := 0; c < 3; c++ {
		if got := row.DW[c]; math.Abs(got-4) > 1e-9 {
			t.Errorf("bias grad[%d]: got %v, want 4", c, got)
		}
	}
}

func TestUnaryGradients(t *testing.T) {
	cases := []struct {
		name string
		op   func(g *Graph, m *Mat) *Mat
	}{
		{"tanh", func(g *Graph, m *Mat) *Mat { return g.Tanh(m) }},
		{"sigmoid", func(g *Graph, m *Mat) *Mat { return g.Sigmoid(m) }},
		{"relu", func(g *Graph, m *Mat) *Mat { return g.Relu(m) }},
		{"elu", func(g *Graph, m *Mat) *Mat { return g.Elu(m) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(3))
			m := NewMat(3, 5)
			fillRand(m, rng)
			// keep values away from the relu kink where the finite
			// difference is undefined
			for i := range m.W {
				if math.Abs(m.W[i]) < 1e-3 {
					m.W[i] = 0.5
				}
			}
			checkGrad(t, m, func(g *Graph) *Mat { return tc.op(g, m) })
		})
	}
}

func TestEltMulGradient(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	a := NewMat(2, 3)
	b := NewMat(2, 3)
	fillRand(a, rng)
	fillRand(b, rng)
	checkGrad(t, a, func(g *Graph) *Mat { return g.EltMul(a, b) })
}

func TestLookupGradientAccumulates(t *testing.T) {
	table := FromRows([][]float64{{1, 2}, {3, 4}, {5, 6}})
	ids := []int{1, 1, 2}
	g := NewGraph(true)
	out := g.Lookup(table, ids)
	if out.Rows != 3 || out.Cols != 2 {
		t.Fatalf("Lookup shape: got %dx%d, want 3x2", out.Rows, out.Cols)
	}
	if out.At(0, 0) != 3 || out.At(2, 1) != 6 {
		t.Errorf("Lookup values wrong: %v", out.W)
	}
	for i := range out.DW {
		out.DW[i] = 1
	}
	g.Backward()
	// row 1 was gathered twice, so its gradient is doubled
	want := [][]float64{{0, 0}, {2, 2}, {1, 1}}
	for r := 0; r < 3; r++ {
		for c := 0; c < 2; c++ {
			if got := table.DW[r*2+c]; got != want[r][c] {
				t.Errorf("table grad[%d][%d]: got %v, want %v", r, c, got, want[r][c])
			}
		}
	}
}

func TestDropout(t *testing.T) {
	m := NewMat(10, 10)
	for i := range m.W {
		m.W[i] = 1
	}
	t.Run("zero_rate_passthrough", func(t *testing.T) {
		out := NewGraph(false).Dropout(m, 0, rand.New(rand.NewSource(5)))
		if out != m {
			t.Error("rate 0 should return the input unchanged")
		}
	})
	t.Run("survivors_scaled", func(t *testing.T) {
		out := NewGraph(false).Dropout(m, 0.5, rand.New(rand.NewSource(5)))
		for i, v := range out.W {
			if v != 0 && math.Abs(v-2) > 1e-12 {
				t.Fatalf("element %d: got %v, want 0 or 2", i, v)
			}
		}
	})
	t.Run("deterministic_mask", func(t *testing.T) {
		a := NewGraph(false).Dropout(m, 0.3, rand.New(rand.NewSource(7)))
		b := NewGraph(false).Dropout(m, 0.3, rand.New(rand.NewSource(7)))
		for i := range a.W {
			if a.W[i] != b.W[i] {
				t.Fatalf("masks differ at %d with equal seeds", i)
			}
		}
	})
}

func TestSoftmaxCrossEntropy(t *testing.T) {
	logits := FromRows([][]float64{{2, 1, 0}, {0, 0, 0}})
	labels := []int{0, 2}
	g := NewGraph(true)
	loss := g.SoftmaxCrossEntropy(logits, labels, 0.5)

	// row 0: p0 = e^2/(e^2+e^1+e^0); row 1: uniform thirds
	p0 := math.Exp(2) / (math.Exp(2) + math.Exp(1) + 1)
	want := 0.5 * (-math.Log(p0) - math.Log(1.0/3.0))
	if math.Abs(loss-want) > 1e-12 {
		t.Errorf("loss: got %v, want %v", loss, want)
	}

	g.Backward()
	// gradient rows sum to zero: softmax mass minus the one-hot
	for r := 0; r < 2; r++ {
		sum := 0.0
		for c := 0; c < 3; c++ {
			sum += logits.DW[r*3+c]
		}
		if math.Abs(sum) > 1e-12 {
			t.Errorf("row %d gradient sum: got %v, want 0", r, sum)
		}
	}
	// uniform row with true class 2: (1/3 - 1) * scale on the label entry
	if got := logits.DW[1*3+2]; math.Abs(got-0.5*(1.0/3.0-1)) > 1e-12 {
		t.Errorf("label grad: got %v, want %v", got, 0.5*(1.0/3.0-1))
	}
}

func TestSoftmaxCrossEntropyFiniteDiff(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	logits := NewMat(4, 5)
	fillRand(logits, rng)
	labels := []int{0, 3, 2, 4}
	scale := 1.0 / 4

	g := NewGraph(true)
	g.SoftmaxCrossEntropy(logits, labels, scale)
	g.Backward()

	const h = 1e-6
	for i := range logits.W {
		orig := logits.W[i]
		logits.W[i] = orig + h
		up := NewGraph(false).SoftmaxCrossEntropy(logits, labels, scale)
		logits.W[i] = orig - h
		down := NewGraph(false).SoftmaxCrossEntropy(logits, labels, scale)
		logits.W[i] = orig
		want := (up - down) / (2 * h)
		if diff := math.Abs(logits.DW[i] - want); diff > 1e-4 {
			t.Errorf("grad[%d]: got %v, want %v", i, logits.DW[i], want)
		}
	}
}
