package api

import (
	"github.com/samcharles93/charrnn/internal/history"
	"github.com/samcharles93/charrnn/internal/model"
)

// GenerationRequest starts a generation from Prompt. Nil fields take the
// server defaults; a nil Seed draws a random one, which is reported back.
type GenerationRequest struct {
	Prompt      string   `json:"prompt"`
	Steps       *int     `json:"steps,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Seed        *int64   `json:"seed,omitempty"`
	Stream      *bool    `json:"stream,omitempty"`
}

type GenerationStats struct {
	CharsGenerated int     `json:"chars_generated"`
	DurationMS     int64   `json:"duration_ms"`
	CharsPerSec    float64 `json:"chars_per_sec"`
}

type Generation struct {
	history.Record
	Stats *GenerationStats `json:"stats,omitempty"`
}

type GenerationList struct {
	Object string           `json:"object"`
	Data   []history.Record `json:"data"`
}

// GenerationChunk is one SSE event of a streamed generation. Delta carries a
// single character; the last event has Done set and the full Generation.
type GenerationChunk struct {
	ID         string      `json:"id"`
	Delta      string      `json:"delta,omitempty"`
	Done       bool        `json:"done,omitempty"`
	Generation *Generation `json:"generation,omitempty"`
	Error      *ErrorBody  `json:"error,omitempty"`
}

// StepRequest advances one or more caller-held sequences by one character.
// State is whatever the previous StepResponse returned, or absent to start
// from zeros.
type StepRequest struct {
	Inputs      []string     `json:"inputs"`
	Temperature *float64     `json:"temperature,omitempty"`
	Seed        *int64       `json:"seed,omitempty"`
	State       *model.State `json:"state,omitempty"`
}

// StepResponse reports the seed the step sampled with, so a request that
// left Seed out can be replayed.
type StepResponse struct {
	Outputs  []string     `json:"outputs"`
	State    *model.State `json:"state"`
	RandSeed int64        `json:"rand_seed"`
}

type VocabResponse struct {
	Size      int      `json:"size"`
	UnknownID int      `json:"unknown_id"`
	Tokens    []string `json:"tokens"`
}
