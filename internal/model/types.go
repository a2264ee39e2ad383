package model

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrEmptyInput is returned for a batch with no sequences or a
	// zero-length sequence.
	ErrEmptyInput = errors.New("model: input sequence is empty")
	// ErrShape is returned for ragged batches and malformed parameters.
	ErrShape = errors.New("model: shape mismatch")
	// ErrStateMismatch is returned when a recurrent state does not match the
	// batch size or hidden width of the call it is passed to.
	ErrStateMismatch = errors.New("model: recurrent state mismatch")
)

// Config fixes the dimensions of a SequenceModel. The defaults match the
// reference Shakespeare network: a 256-wide embedding feeding a 1024-unit GRU.
type Config struct {
	VocabSize    int `json:"vocab_size" yaml:"vocab_size"`
	EmbeddingDim int `json:"embedding_dim" yaml:"embedding_dim"`
	HiddenDim    int `json:"hidden_dim" yaml:"hidden_dim"`
}

const (
	DefaultEmbeddingDim = 256
	DefaultHiddenDim    = 1024
)

func (c Config) Validate() error {
	if c.VocabSize < 2 || c.EmbeddingDim <= 0 || c.HiddenDim <= 0 {
		return fmt.Errorf("%w: invalid config vocab=%d embedding=%d hidden=%d",
			ErrShape, c.VocabSize, c.EmbeddingDim, c.HiddenDim)
	}
	return nil
}

// Params is the trainable parameter count, matching a Keras model summary.
func (c Config) Params() int {
	v, e, h := c.VocabSize, c.EmbeddingDim, c.HiddenDim
	return v*e + // embedding
		e*3*h + h*3*h + 2*3*h + // gru kernel, recurrent kernel, bias
		h*v + v // dense
}

// State is the GRU hidden state for a batch: Batch rows of Width values.
//
// A State is a plain value owned by the caller. Forward never modifies the
// state it is given; it returns a fresh one, so a single model can serve any
// number of independent generation sequences.
type State struct {
	Batch int       `json:"batch"`
	Width int       `json:"width"`
	H     []float32 `json:"h"`
}

// NewState returns a zeroed state, the implicit starting point when Forward
// is called with nil.
func NewState(batch, width int) *State {
	return &State{Batch: batch, Width: width, H: make([]float32, batch*width)}
}

// Row returns the hidden vector of batch entry b.
func (s *State) Row(b int) []float32 {
	return s.H[b*s.Width : (b+1)*s.Width]
}

func (s *State) Clone() *State {
	return &State{Batch: s.Batch, Width: s.Width, H: slices.Clone(s.H)}
}

// Validate checks internal consistency, which matters for states that come
// back from clients over the wire.
func (s *State) Validate() error {
	if s.Batch <= 0 || s.Width <= 0 || len(s.H) != s.Batch*s.Width {
		return fmt.Errorf("%w: state %dx%d holds %d values", ErrStateMismatch, s.Batch, s.Width, len(s.H))
	}
	return nil
}

// Logits holds unnormalised next-character scores shaped (Batch, Len, Vocab).
type Logits struct {
	Batch, Len, Vocab int
	Data              []float32
}

func newLogits(b, l, v int) *Logits {
	return &Logits{Batch: b, Len: l, Vocab: v, Data: make([]float32, b*l*v)}
}

// At returns the score vector for batch entry b at position t.
func (l *Logits) At(b, t int) []float32 {
	off := (b*l.Len + t) * l.Vocab
	return l.Data[off : off+l.Vocab]
}

// Last returns the scores predicting the character after the whole input of
// batch entry b.
func (l *Logits) Last(b int) []float32 {
	return l.At(b, l.Len-1)
}
