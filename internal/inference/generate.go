package inference

import (
	"context"
	"strings"
	"time"

	"github.com/samcharles93/charrnn/internal/model"
)

// Generate runs steps single-character calls: the first over the whole seed,
// then each over the character just produced. A canceled ctx stops the loop
// between steps and returns the text so far along with ctx.Err().
func (g *StepGenerator) Generate(ctx context.Context, seed string, steps int, stream StreamFunc) (Result, error) {
	return g.Continue(ctx, seed, nil, steps, stream)
}

// Continue is Generate resuming from a previously returned state. The seed
// is fed on top of state; with a nil state it behaves exactly like Generate.
func (g *StepGenerator) Continue(ctx context.Context, seed string, state *model.State, steps int, stream StreamFunc) (Result, error) {
	var (
		res Result
		sb  strings.Builder
	)
	sb.WriteString(seed)
	start := time.Now()

	finish := func() {
		res.Text = sb.String()
		res.State = state
		res.Stats.Duration = time.Since(start)
		if secs := res.Stats.Duration.Seconds(); secs > 0 {
			res.Stats.CharsPerSec = float64(res.Stats.CharsGenerated) / secs
		}
	}

	next := []string{seed}
	for range steps {
		if err := ctx.Err(); err != nil {
			finish()
			return res, err
		}
		out, st, err := g.Step(next, state)
		if err != nil {
			finish()
			return res, err
		}
		state = st
		next = out
		sb.WriteString(out[0])
		res.Stats.CharsGenerated++
		if stream != nil {
			stream(out[0])
		}
	}

	finish()
	return res, nil
}
