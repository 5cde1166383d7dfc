package trainer

import "fmt"
import "strings"

// ConfusionMatrix tallies classifier outcomes on an evaluation split.
// Rows index the true class, columns the predicted class; the diagonal
// holds the correctly classified examples.
type ConfusionMatrix struct {
	counts [][]int
	total  int
}

// NewConfusionMatrix returns an empty classes x classes tally.
func NewConfusionMatrix(classes int) *ConfusionMatrix {
	counts := make([][]int, classes)
	for i := range counts {
		counts[i] = make([]int, classes)
	}
	return &ConfusionMatrix{counts: counts}
}

// Confuse builds the matrix for a label/prediction pairing of one split.
func Confuse(classes int, labels, predictions []int) *ConfusionMatrix {
	if len(labels) != len(predictions) {
		panic(fmt.Sprintf("trainer: %d labels for %d predictions", len(labels), len(predictions)))
	}
	m := NewConfusionMatrix(classes)
	for i, label := range labels {
		m.Observe(label, predictions[i])
	}
	return m
}

// Observe counts one example with its true and predicted class.
func (m *ConfusionMatrix) Observe(label, predicted int) {
	m.counts[label][predicted]++
	m.total++
}

// Count reads one cell.
func (m *ConfusionMatrix) Count(label, predicted int) int {
	return m.counts[label][predicted]
}

// Total is the number of observed examples.
func (m *ConfusionMatrix) Total() int { return m.total }

// Trace sums the diagonal.
func (m *ConfusionMatrix) Trace() int {
	t := 0
	for i := range m.counts {
		t += m.counts[i][i]
	}
	return t
}

// Accuracy is Trace over Total; an empty matrix scores zero.
func (m *ConfusionMatrix) Accuracy() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.Trace()) / float64(m.total)
}

// String renders the counts as aligned bracketed rows.
func (m *ConfusionMatrix) String() string {
	if len(m.counts) == 0 {
		return "[]"
	}
	width := 1
	for _, row := range m.counts {
		for _, c := range row {
			if w := len(fmt.Sprint(c)); w > width {
				width = w
			}
		}
	}
	var b strings.Builder
	for i, row := range m.counts {
		if i == 0 {
			b.WriteString("[[")
		} else {
			b.WriteString(" [")
		}
		for j, c := range row {
			if j > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%*d", width, c)
		}
		b.WriteByte(']')
		if i == len(m.counts)-1 {
			b.WriteByte(']')
		} else {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
