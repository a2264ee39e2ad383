// Package dataset turns an encoded corpus into shuffled (input, target)
// batches for next-character prediction.
package dataset

import (
	"errors"
	"iter"
	"math/rand"
)

const (
	DefaultSeqLength  = 100
	DefaultBatchSize  = 64
	DefaultBufferSize = 10000
)

var ErrBadConfig = errors.New("dataset: sizes must be positive")

// Example is one training pair. Target is Input shifted left by one position.
type Example struct {
	Input  []int
	Target []int
}

// Batch holds BatchSize examples of equal length, shaped (batch, seq).
type Batch struct {
	Inputs  [][]int
	Targets [][]int
}

// ExamplesPerEpoch is the number of complete seqLength+1 chunks in a text of
// textLen characters.
func ExamplesPerEpoch(textLen, seqLength int) int {
	if seqLength <= 0 {
		return 0
	}
	return textLen / (seqLength + 1)
}

// Sequences cuts ids into consecutive chunks of seqLength+1 ids. A trailing
// partial chunk is dropped. Chunks alias ids.
func Sequences(ids []int, seqLength int) [][]int {
	n := ExamplesPerEpoch(len(ids), seqLength)
	out := make([][]int, 0, n)
	for i := range n {
		start := i * (seqLength + 1)
		out = append(out, ids[start:start+seqLength+1:start+seqLength+1])
	}
	return out
}

// SplitInputTarget derives the (input, target) pair from one chunk:
// "Hello" becomes ("Hell", "ello").
func SplitInputTarget(seq []int) Example {
	if len(seq) < 2 {
		return Example{}
	}
	return Example{Input: seq[:len(seq)-1], Target: seq[1:]}
}

// Examples applies Sequences then SplitInputTarget.
func Examples(ids []int, seqLength int) []Example {
	seqs := Sequences(ids, seqLength)
	out := make([]Example, len(seqs))
	for i, s := range seqs {
		out[i] = SplitInputTarget(s)
	}
	return out
}

type LoaderConfig struct {
	BatchSize  int
	BufferSize int
	Seed       int64
}

// Loader shuffles examples through a bounded buffer and groups them into
// full batches; a final short batch is dropped.
//
// The shuffle follows the streaming buffer scheme: the buffer is filled with
// the first BufferSize examples, each output is drawn uniformly from the
// buffer and its slot is refilled from the input. A buffer at least as large
// as the dataset gives a uniform permutation.
type Loader struct {
	examples []Example
	cfg      LoaderConfig
	rng      *rand.Rand

	buf  []Example
	next int
}

func NewLoader(examples []Example, cfg LoaderConfig) (*Loader, error) {
	if cfg.BatchSize <= 0 || cfg.BufferSize <= 0 {
		return nil, ErrBadConfig
	}
	l := &Loader{examples: examples, cfg: cfg}
	l.Reset()
	return l, nil
}

// Reset rewinds to the start of a new epoch with the original seed.
func (l *Loader) Reset() {
	l.rng = rand.New(rand.NewSource(l.cfg.Seed))
	n := min(l.cfg.BufferSize, len(l.examples))
	l.buf = append(l.buf[:0], l.examples[:n]...)
	l.next = n
}

// BatchesPerEpoch is the number of full batches Next will yield.
func (l *Loader) BatchesPerEpoch() int {
	return len(l.examples) / l.cfg.BatchSize
}

func (l *Loader) draw() (Example, bool) {
	if len(l.buf) == 0 {
		return Example{}, false
	}
	i := l.rng.Intn(len(l.buf))
	ex := l.buf[i]
	if l.next < len(l.examples) {
		l.buf[i] = l.examples[l.next]
		l.next++
	} else {
		last := len(l.buf) - 1
		l.buf[i] = l.buf[last]
		l.buf = l.buf[:last]
	}
	return ex, true
}

// Next returns the next full batch, or false when the epoch is exhausted.
func (l *Loader) Next() (Batch, bool) {
	b := Batch{
		Inputs:  make([][]int, 0, l.cfg.BatchSize),
		Targets: make([][]int, 0, l.cfg.BatchSize),
	}
	for len(b.Inputs) < l.cfg.BatchSize {
		ex, ok := l.draw()
		if !ok {
			return Batch{}, false
		}
		b.Inputs = append(b.Inputs, ex.Input)
		b.Targets = append(b.Targets, ex.Target)
	}
	return b, true
}

// All yields the remaining batches of the current epoch.
func (l *Loader) All() iter.Seq[Batch] {
	return func(yield func(Batch) bool) {
		for {
			b, ok := l.Next()
			if !ok || !yield(b) {
				return
			}
		}
	}
}
