// Package model implements the character-level SequenceModel: an embedding
// layer, a single GRU layer and a dense projection back to vocabulary scores.
package model

import (
	"fmt"

	"github.com/samcharles93/charrnn/internal/tensor"
)

// Model holds trained parameters. Kernels are stored output-major so every
// projection is a single MatVec. A Model is never mutated by Forward and may
// be shared between goroutines.
type Model struct {
	Config Config

	Embedding tensor.Mat // [V x E]

	// GRU, gate order z (update), r (reset), h (candidate), reset applied
	// after the recurrent projection.
	Wx    tensor.Mat // [3H x E]
	Wh    tensor.Mat // [3H x H]
	BiasX []float32  // [3H]
	BiasH []float32  // [3H]

	Wo    tensor.Mat // [V x H]
	BiasO []float32  // [V]
}

type scratch struct {
	xg, hg []float32
}

// Forward runs the model over a batch of equal-length id sequences.
//
// A nil state starts every row from zeros. The returned logits have shape
// (len(ids), len(ids[0]), V) and the returned state is the hidden state after
// the last position. Ids must lie in [0, V); that is the caller's contract and
// out-of-range ids panic.
func (m *Model) Forward(ids [][]int, state *State) (*Logits, *State, error) {
	if len(ids) == 0 || len(ids[0]) == 0 {
		return nil, nil, ErrEmptyInput
	}
	seqLen := len(ids[0])
	for i, row := range ids {
		if len(row) != seqLen {
			return nil, nil, fmt.Errorf("%w: row %d has length %d, want %d", ErrShape, i, len(row), seqLen)
		}
	}

	h := m.Config.HiddenDim
	var next *State
	if state == nil {
		next = NewState(len(ids), h)
	} else {
		if err := state.Validate(); err != nil {
			return nil, nil, err
		}
		if state.Batch != len(ids) || state.Width != h {
			return nil, nil, fmt.Errorf("%w: got %dx%d, want %dx%d", ErrStateMismatch, state.Batch, state.Width, len(ids), h)
		}
		next = state.Clone()
	}

	out := newLogits(len(ids), seqLen, m.Config.VocabSize)
	sc := scratch{xg: make([]float32, 3*h), hg: make([]float32, 3*h)}
	for b, row := range ids {
		hv := next.Row(b)
		for t, id := range row {
			m.step(hv, id, &sc)
			dst := out.At(b, t)
			tensor.MatVec(dst, &m.Wo, hv)
			tensor.Add(dst, m.BiasO)
		}
	}
	return out, next, nil
}

// step advances hv in place by one input id.
func (m *Model) step(hv []float32, id int, sc *scratch) {
	h := m.Config.HiddenDim
	x := m.Embedding.Row(id)

	tensor.MatVec(sc.xg, &m.Wx, x)
	tensor.Add(sc.xg, m.BiasX)
	tensor.MatVec(sc.hg, &m.Wh, hv)
	tensor.Add(sc.hg, m.BiasH)

	for j := range h {
		z := tensor.Sigmoid(sc.xg[j] + sc.hg[j])
		r := tensor.Sigmoid(sc.xg[h+j] + sc.hg[h+j])
		n := tensor.Tanh(sc.xg[2*h+j] + r*sc.hg[2*h+j])
		hv[j] = z*hv[j] + (1-z)*n
	}
}
