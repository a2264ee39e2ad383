// Package logits turns score vectors into sampled ids.
package logits

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Mask returns an additive mask of length size that is zero everywhere except
// -Inf at the skipped ids. Adding it to a score vector removes those ids from
// any softmax-based draw.
func Mask(size int, skip ...int) []float32 {
	m := make([]float32, size)
	for _, id := range skip {
		if id >= 0 && id < size {
			m[id] = float32(math.Inf(-1))
		}
	}
	return m
}

// Sampler draws ids from temperature-scaled categorical distributions. It
// owns its RNG and scratch buffers, so it is not safe for concurrent use.
type Sampler struct {
	rng    *rand.Rand
	scaled []float64
	cum    []float64
}

func NewSampler(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// Sample draws one id from softmax(scores/temperature + mask).
//
// The sample process is:
//
//  1. Scale every score by 1/temperature and add the mask (nil means none).
//  2. Normalise with log-sum-exp so large scores cannot overflow.
//  3. Draw u in [0, total) and return the first id whose cumulative
//     probability exceeds u. Ids with zero probability, masked ones included,
//     can never be returned.
//
// Temperature must be positive; callers validate it once up front. When the
// scaled scores overflow (a tiny temperature) the argmax of the unmasked
// scores is returned, which is the limit of the distribution.
func (s *Sampler) Sample(scores []float32, temperature float64, mask []float32) int {
	n := len(scores)
	if n == 0 {
		panic("logits: empty score vector")
	}
	if cap(s.scaled) < n {
		s.scaled = make([]float64, n)
		s.cum = make([]float64, n)
	}
	scaled, cum := s.scaled[:n], s.cum[:n]

	inv := 1 / temperature
	for i, v := range scores {
		scaled[i] = float64(v) * inv
		if mask != nil {
			scaled[i] += float64(mask[i])
		}
	}

	lse := floats.LogSumExp(scaled)
	if math.IsInf(lse, 0) || math.IsNaN(lse) {
		return Argmax(scores, mask)
	}
	for i, v := range scaled {
		cum[i] = math.Exp(v - lse)
	}
	floats.CumSum(cum, cum)

	u := s.rng.Float64() * cum[n-1]
	i := sort.Search(n, func(i int) bool { return cum[i] > u })
	if i == n {
		i = n - 1
	}
	return i
}

// Argmax returns the highest-scoring id not masked out. Ties go to the lower
// id. If every id is masked it returns 0.
func Argmax(scores []float32, mask []float32) int {
	best := -1
	for i, v := range scores {
		if mask != nil && math.IsInf(float64(mask[i]), -1) {
			continue
		}
		if best < 0 || v > scores[best] {
			best = i
		}
	}
	return max(best, 0)
}
