// Package inference drives a SequenceModel one character at a time.
package inference

import (
	"fmt"

	"github.com/samcharles93/charrnn/internal/logits"
	"github.com/samcharles93/charrnn/internal/model"
	"github.com/samcharles93/charrnn/internal/vocab"
)

// StepGenerator produces one next character per input fragment per call.
//
// The recurrent state is not held by the generator: Step takes the previous
// state (nil on the first call) and returns the next one. The generator does
// own a sampler with its own RNG, so each goroutine needs its own
// StepGenerator; the model underneath can be shared.
type StepGenerator struct {
	model       SequenceModel
	vocab       *vocab.Vocabulary
	temperature float64
	mask        []float32
	sampler     *logits.Sampler
}

func NewStepGenerator(m SequenceModel, v *vocab.Vocabulary, temperature float64, seed int64) (*StepGenerator, error) {
	if !(temperature > 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidTemperature, temperature)
	}
	return &StepGenerator{
		model:       m,
		vocab:       v,
		temperature: temperature,
		mask:        logits.Mask(v.Size(), v.UnknownID()),
		sampler:     logits.NewSampler(seed),
	}, nil
}

func (g *StepGenerator) Temperature() float64 { return g.temperature }

// Step encodes each input fragment, runs the model from state and samples one
// character per fragment from the scores at the final position. Fragments of
// unequal length are padded at the end with the unknown id.
//
// The unknown character can be fed in but is never produced.
func (g *StepGenerator) Step(inputs []string, state *model.State) ([]string, *model.State, error) {
	if len(inputs) == 0 {
		return nil, nil, model.ErrEmptyInput
	}

	ids := make([][]int, len(inputs))
	width := 0
	for i, s := range inputs {
		ids[i] = g.vocab.Encode(s)
		width = max(width, len(ids[i]))
	}
	for i, row := range ids {
		for len(row) < width {
			row = append(row, g.vocab.UnknownID())
		}
		ids[i] = row
	}

	out, next, err := g.model.Forward(ids, state)
	if err != nil {
		return nil, nil, err
	}
	if out.Vocab != g.vocab.Size() {
		return nil, nil, fmt.Errorf("%w: model emits %d scores, vocabulary has %d",
			model.ErrShape, out.Vocab, g.vocab.Size())
	}

	chars := make([]string, len(inputs))
	for b := range inputs {
		id := g.sampler.Sample(out.Last(b), g.temperature, g.mask)
		chars[b] = g.vocab.Token(id)
	}
	return chars, next, nil
}
