package trainer

import (
	"math"
	"testing"
)

func TestConfusionMatrixCounts(t *testing.T) {
	labels := []int{0, 0, 1, 1, 2, 2}
	predictions := []int{0, 1, 1, 1, 2, 0}
	m := Confuse(3, labels, predictions)

	if got := m.Total(); got != 6 {
		t.Errorf("total: got %d, want 6", got)
	}
	if got := m.Trace(); got != 4 {
		t.Errorf("trace: got %d, want 4", got)
	}
	if got, want := m.Accuracy(), 4.0/6.0; math.Abs(got-want) > 1e-15 {
		t.Errorf("accuracy: got %v, want %v", got, want)
	}
	cells := []struct {
		label, predicted, n int
	}{
		{0, 0, 1},
		{0, 1, 1},
		{1, 0, 0},
		{1, 1, 2},
		{2, 0, 1},
		{2, 2, 1},
	}
	for _, tc := range cells {
		if got := m.Count(tc.label, tc.predicted); got != tc.n {
			t.Errorf("count[%d][%d]: got %d, want %d", tc.label, tc.predicted, got, tc.n)
		}
	}
}

func TestConfusionMatrixAccuracyIsTraceOverTotal(t *testing.T) {
	m := NewConfusionMatrix(4)
	observations := []struct{ label, predicted int }{
		{0, 0}, {1, 1}, {2, 3}, {3, 3}, {1, 0}, {0, 0}, {2, 2},
	}
	for _, o := range observations {
		m.Observe(o.label, o.predicted)
	}
	if got, want := m.Accuracy(), float64(m.Trace())/float64(m.Total()); got != want {
		t.Errorf("accuracy: got %v, want trace/total = %v", got, want)
	}
	if m.Total() != len(observations) {
		t.Errorf("total: got %d, want %d", m.Total(), len(observations))
	}
}

func TestConfusionMatrixEmpty(t *testing.T) {
	m := NewConfusionMatrix(3)
	if got := m.Accuracy(); got != 0 {
		t.Errorf("empty accuracy: got %v, want 0", got)
	}
	if got := NewConfusionMatrix(0).String(); got != "[]" {
		t.Errorf("zero-class string: got %q, want %q", got, "[]")
	}
}

func TestConfusionMatrixString(t *testing.T) {
	m := NewConfusionMatrix(2)
	for i := 0; i < 10; i++ {
		m.Observe(0, 0)
	}
	m.Observe(0, 1)
	m.Observe(0, 1)
	for i := 0; i < 7; i++ {
		m.Observe(1, 1)
	}
	want := "[[10  2]\n [ 0  7]]"
	if got := m.String(); got != want {
		t.Errorf("string:\ngot  %q\nwant %q", got, want)
	}
}
