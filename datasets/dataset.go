// Package datasets implements the in-memory dataset splits and batch cursors
// the trainers consume, plus the download helper the per-corpus subpackages
// use to fetch their source files.
package datasets

import (
	"fmt"
	"math/rand"

	"github.com/jbarham/primegen"
	"github.com/pkg/errors"
)

// Split is one half of a classification dataset held in memory: flattened
// feature rows in [0,1] and one class index per row.
type Split struct {
	Inputs  [][]float64
	Labels  []int
	Classes int
}

// Len returns the number of examples in the split.
func (s *Split) Len() int { return len(s.Labels) }

// Check verifies the split is self-consistent: equally long rows, one label
// per row, labels inside the class range.
func (s *Split) Check() error {
	if len(s.Inputs) != len(s.Labels) {
		return errors.Errorf("datasets: %d input rows for %d labels", len(s.Inputs), len(s.Labels))
	}
	if s.Classes <= 0 {
		return errors.Errorf("datasets: invalid class count %d", s.Classes)
	}
	width := -1
	for i, row := range s.Inputs {
		if width == -1 {
			width = len(row)
		}
		if len(row) != width {
			return errors.Errorf("datasets: ragged input row %d: got %d features, want %d", i, len(row), width)
		}
		if s.Labels[i] < 0 || s.Labels[i] >= s.Classes {
			return errors.Errorf("datasets: label %d outside %d classes at row %d", s.Labels[i], s.Classes, i)
		}
	}
	return nil
}

// Permutation walks the indices 0..n-1 in a scrambled order without storing a
// shuffle: each epoch visits (start + k*stride) mod n for k = 0..n-1, with the
// stride a prime coprime to n, so every index is covered exactly once. The
// epoch start is redrawn from rng, which keeps the visit order reproducible
// for a fixed seed.
type Permutation struct {
	n      int
	stride int
	start  int
	k      int
	epochs int
	rng    *rand.Rand
}

// NewPermutation prepares a prime-stride permutation over n indices. Any
// prime above n/2 other than n itself is coprime to n; the first few such
// primes are skipped by a seeded amount so different seeds walk differently.
func NewPermutation(n int, rng *rand.Rand) *Permutation {
	if n <= 0 {
		panic(fmt.Sprintf("datasets: permutation over %d indices", n))
	}
	gen := primegen.New()
	skip := rng.Intn(8)
	stride := 1
	for {
		p := int(gen.Next())
		if 2*p <= n || p == n {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		stride = p % n
		break
	}
	if stride == 0 { // n == 1
		stride = 1
	}
	return &Permutation{
		n:      n,
		stride: stride,
		start:  rng.Intn(n),
		rng:    rng,
	}
}

// Next returns the following index of the walk, starting a fresh epoch with a
// newly drawn offset once all n indices have been visited.
func (p *Permutation) Next() int {
	if p.k == p.n {
		p.k = 0
		p.epochs++
		p.start = p.rng.Intn(p.n)
	}
	idx := (p.start + p.k*p.stride) % p.n
	p.k++
	return idx
}

// Epochs counts the full passes completed so far.
func (p *Permutation) Epochs() int { return p.epochs }

// Cursor yields fixed-size training batches from a split, visiting every
// example once per epoch in permuted order. It owns its position; the caller
// just asks for the next batch.
type Cursor struct {
	split *Split
	perm  *Permutation
}

// NewCursor returns a cursor over the split, with the batch order driven by
// rng.
func NewCursor(split *Split, rng *rand.Rand) *Cursor {
	if split.Len() == 0 {
		panic("datasets: cursor over an empty split")
	}
	return &Cursor{split: split, perm: NewPermutation(split.Len(), rng)}
}

// NextBatch returns the next size examples. The returned rows alias the
// split's storage; callers must not mutate them.
func (c *Cursor) NextBatch(size int) (inputs [][]float64, labels []int) {
	inputs = make([][]float64, size)
	labels = make([]int, size)
	for i := 0; i < size; i++ {
		idx := c.perm.Next()
		inputs[i] = c.split.Inputs[idx]
		labels[i] = c.split.Labels[idx]
	}
	return inputs, labels
}

// Epochs counts the full passes the cursor has completed over the split.
func (c *Cursor) Epochs() int { return c.perm.Epochs() }
