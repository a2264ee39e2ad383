package inference

import (
	"errors"
	"time"

	"github.com/samcharles93/charrnn/internal/model"
)

// ErrInvalidTemperature is returned when a generator is built with a
// non-positive temperature.
var ErrInvalidTemperature = errors.New("inference: temperature must be positive")

// SequenceModel maps a batch of id sequences and an optional recurrent state
// to per-position logits and the state after the final position.
// *model.Model satisfies it.
type SequenceModel interface {
	Forward(ids [][]int, state *model.State) (*model.Logits, *model.State, error)
}

// StreamFunc receives each generated character as soon as it is sampled.
type StreamFunc func(ch string)

type Stats struct {
	CharsGenerated int
	Duration       time.Duration
	CharsPerSec    float64
}

type Result struct {
	// Text is the seed followed by every generated character.
	Text  string
	Stats Stats
	// State is the recurrent state after the last generated character; pass
	// it to Step to continue the sequence.
	State *model.State
}
