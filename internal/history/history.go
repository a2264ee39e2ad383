// Package history keeps finished generations so they can be listed and
// fetched again.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("history: record not found")

// Record is one completed generation run.
type Record struct {
	ID          string    `json:"id"`
	Seed        string    `json:"seed"`
	Output      string    `json:"output"`
	Temperature float64   `json:"temperature"`
	Steps       int       `json:"steps"`
	RandSeed    int64     `json:"rand_seed"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists records. List returns the newest records first; limit <= 0
// means no limit.
type Store interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, limit int) ([]Record, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// NewID returns a fresh record id.
func NewID() string {
	return "gen_" + uuid.NewString()
}
