package datasets

import (
	"math/rand"
	"testing"
)

func TestPermutationCoversEveryIndex(t *testing.T) {
	cases := []struct {
		name string
		n    int
	}{
		{"one", 1},
		{"two", 2},
		{"prime_count", 97},
		{"composite_count", 100},
		{"larger", 1000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPermutation(tc.n, rand.New(rand.NewSource(42)))
			for epoch := 0; epoch < 3; epoch++ {
				seen := make([]bool, tc.n)
				for i := 0; i < tc.n; i++ {
					idx := p.Next()
					if idx < 0 || idx >= tc.n {
						t.Fatalf("index %d out of range [0,%d)", idx, tc.n)
					}
					if seen[idx] {
						t.Fatalf("epoch %d revisited index %d", epoch, idx)
					}
					seen[idx] = true
				}
			}
			if p.Epochs() != 2 {
				t.Errorf("epochs: got %d, want 2", p.Epochs())
			}
		})
	}
}

func TestPermutationDeterministic(t *testing.T) {
	a := NewPermutation(50, rand.New(rand.NewSource(7)))
	b := NewPermutation(50, rand.New(rand.NewSource(7)))
	for i := 0; i < 150; i++ {
		if x, y := a.Next(), b.Next(); x != y {
			t.Fatalf("walk diverged at draw %d: %d vs %d", i, x, y)
		}
	}
}

func newTestSplit(n int) *Split {
	s := &Split{Classes: 4}
	for i := 0; i < n; i++ {
		s.Inputs = append(s.Inputs, []float64{float64(i), float64(i) / 2})
		s.Labels = append(s.Labels, i%4)
	}
	return s
}

func TestCursorEpochCoverage(t *testing.T) {
	const n = 30
	c := NewCursor(newTestSplit(n), rand.New(rand.NewSource(1)))
	counts := make(map[float64]int)
	for b := 0; b < 3; b++ {
		inputs, labels := c.NextBatch(10)
		if len(inputs) != 10 || len(labels) != 10 {
			t.Fatalf("batch sizes: got %d/%d, want 10/10", len(inputs), len(labels))
		}
		for _, row := range inputs {
			counts[row[0]]++
		}
	}
	if len(counts) != n {
		t.Errorf("one epoch must visit all %d examples, saw %d distinct", n, len(counts))
	}
	for id, c := range counts {
		if c != 1 {
			t.Errorf("example %v visited %d times in one epoch", id, c)
		}
	}
	if c.Epochs() != 0 {
		t.Errorf("epochs after exactly one pass: got %d, want 0", c.Epochs())
	}
}

func TestCursorLabelsMatchInputs(t *testing.T) {
	split := newTestSplit(20)
	c := NewCursor(split, rand.New(rand.NewSource(3)))
	inputs, labels := c.NextBatch(20)
	for i := range inputs {
		id := int(inputs[i][0])
		if labels[i] != id%4 {
			t.Errorf("row %d: label %d does not match example %d", i, labels[i], id)
		}
	}
}

func TestSplitCheck(t *testing.T) {
	cases := []struct {
		name  string
		split Split
		ok    bool
	}{
		{"valid", Split{Inputs: [][]float64{{1}, {2}}, Labels: []int{0, 1}, Classes: 2}, true},
		{"ragged", Split{Inputs: [][]float64{{1}, {2, 3}}, Labels: []int{0, 1}, Classes: 2}, false},
		{"label_out_of_range", Split{Inputs: [][]float64{{1}}, Labels: []int{5}, Classes: 2}, false},
		{"count_mismatch", Split{Inputs: [][]float64{{1}}, Labels: []int{0, 1}, Classes: 2}, false},
		{"no_classes", Split{Inputs: [][]float64{{1}}, Labels: []int{0}, Classes: 0}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.split.Check()
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
