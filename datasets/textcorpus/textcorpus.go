// Package textcorpus loads a plain-text file as a character-level corpus for
// the text generation trainer: the vocabulary is the sorted set of distinct
// characters, and batches are random fixed-length windows paired with their
// one-character-shifted targets.
package textcorpus

import (
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Corpus holds the text as vocabulary ids plus both directions of the
// character/id mapping.
type Corpus struct {
	data  []int
	chars []rune
	index map[rune]int
}

// New reads the text file at path. With clean set, only printable ASCII and
// newlines are kept; everything else is dropped before the vocabulary is
// built.
func New(path string, clean bool) (*Corpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read corpus")
	}
	text := string(raw)
	if clean {
		text = Clean(text)
	}
	if len(text) == 0 {
		return nil, errors.Errorf("corpus %s is empty", path)
	}

	seen := make(map[rune]struct{})
	for _, r := range text {
		seen[r] = struct{}{}
	}
	chars := make([]rune, 0, len(seen))
	for r := range seen {
		chars = append(chars, r)
	}
	sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })

	c := &Corpus{
		chars: chars,
		index: make(map[rune]int, len(chars)),
	}
	for i, r := range chars {
		c.index[r] = i
	}
	for _, r := range text {
		c.data = append(c.data, c.index[r])
	}
	fmt.Printf("Initialize dataset with %d characters, %d unique.\n", len(c.data), len(c.chars))
	return c, nil
}

// Clean keeps printable ASCII plus newline and drops every other character.
func Clean(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || (r >= 0x20 && r < 0x7f) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Len returns the corpus length in characters.
func (c *Corpus) Len() int { return len(c.data) }

// VocabSize returns the number of distinct characters.
func (c *Corpus) VocabSize() int { return len(c.chars) }

// Vocab returns the sorted vocabulary, one string per character.
func (c *Corpus) Vocab() []string {
	out := make([]string, len(c.chars))
	for i, r := range c.chars {
		out[i] = string(r)
	}
	return out
}

// String renders a sequence of vocabulary ids back to text.
func (c *Corpus) String(ids []int) string {
	var b strings.Builder
	for _, id := range ids {
		if id >= 0 && id < len(c.chars) {
			b.WriteRune(c.chars[id])
		}
	}
	return b.String()
}

// Encode maps text to vocabulary ids, failing on characters outside the
// vocabulary.
func (c *Corpus) Encode(text string) ([]int, error) {
	var ids []int
	for _, r := range text {
		id, ok := c.index[r]
		if !ok {
			return nil, errors.Errorf("character %q not in corpus vocabulary", r)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Check verifies the corpus can supply windows of the given sequence length.
func (c *Corpus) Check(seqLength int) error {
	if seqLength <= 0 {
		return errors.Errorf("invalid sequence length %d", seqLength)
	}
	if len(c.data) < seqLength+2 {
		return errors.Errorf("corpus of %d characters is too short for sequence length %d", len(c.data), seqLength)
	}
	return nil
}

// Sampler binds the corpus to a randomness source for batch drawing.
type Sampler struct {
	c   *Corpus
	rng *rand.Rand
}

// Sampler returns a batch sampler whose window offsets are drawn from rng.
func (c *Corpus) Sampler(rng *rand.Rand) *Sampler {
	return &Sampler{c: c, rng: rng}
}

// String renders token ids through the backing corpus vocabulary.
func (s *Sampler) String(ids []int) string { return s.c.String(ids) }

// Batch draws batchSize random windows of seqLength characters. Inputs are
// indexed [batch][time]; targets are the same windows shifted one character
// ahead.
func (s *Sampler) Batch(batchSize, seqLength int) (inputs, targets [][]int) {
	if err := s.c.Check(seqLength); err != nil {
		panic("textcorpus: " + err.Error())
	}
	inputs = make([][]int, batchSize)
	targets = make([][]int, batchSize)
	for b := 0; b < batchSize; b++ {
		offset := s.rng.Intn(len(s.c.data) - seqLength - 1)
		inputs[b] = s.c.data[offset : offset+seqLength]
		targets[b] = s.c.data[offset+1 : offset+seqLength+1]
	}
	return inputs, targets
}
