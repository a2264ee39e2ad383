package model

import (
	"fmt"

	"github.com/samcharles93/charrnn/internal/tensor"
)

// Loss is the mean sparse categorical cross-entropy of logits against target
// ids. For an untrained model it sits near ln(V).
func Loss(logits *Logits, targets [][]int) (float64, error) {
	if len(targets) != logits.Batch {
		return 0, fmt.Errorf("%w: %d target rows for batch of %d", ErrShape, len(targets), logits.Batch)
	}
	var sum float64
	for b, row := range targets {
		if len(row) != logits.Len {
			return 0, fmt.Errorf("%w: target row %d has length %d, want %d", ErrShape, b, len(row), logits.Len)
		}
		for t, id := range row {
			scores := logits.At(b, t)
			sum += tensor.LogSumExp(scores) - float64(scores[id])
		}
	}
	return sum / float64(logits.Batch*logits.Len), nil
}
