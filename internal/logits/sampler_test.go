package logits

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"
)

func TestMask(t *testing.T) {
	t.Parallel()
	m := Mask(4, 0, 2, 9)
	if !math.IsInf(float64(m[0]), -1) || !math.IsInf(float64(m[2]), -1) {
		t.Fatalf("masked ids should be -Inf: %v", m)
	}
	if m[1] != 0 || m[3] != 0 {
		t.Fatalf("unmasked ids should be zero: %v", m)
	}
}

func TestSampleNeverReturnsMaskedID(t *testing.T) {
	t.Parallel()
	s := NewSampler(1)
	scores := []float32{10, 0.1, -1, 0.3}
	mask := Mask(len(scores), 0)
	for range 10000 {
		if id := s.Sample(scores, 1, mask); id == 0 {
			t.Fatal("sampled a masked id")
		}
	}
}

func TestSampleMaskedLowestIndexWithZeroDraw(t *testing.T) {
	t.Parallel()
	// With id 0 masked, cumulative mass at index 0 is exactly zero; a draw of
	// zero must still land on id 1.
	s := NewSampler(3)
	for range 1000 {
		if id := s.Sample([]float32{0, 0}, 1, Mask(2, 0)); id != 1 {
			t.Fatalf("got %d", id)
		}
	}
}

func TestSampleSeededIsReproducible(t *testing.T) {
	t.Parallel()
	scores := []float32{0.5, 1.5, 0.2, 0.9, 1.1}
	a, b := NewSampler(42), NewSampler(42)
	for range 200 {
		if a.Sample(scores, 1, nil) != b.Sample(scores, 1, nil) {
			t.Fatal("same seed should give the same draws")
		}
	}
}

func histogram(s *Sampler, scores []float32, temp float64, mask []float32, n int) []float64 {
	counts := make([]float64, len(scores))
	for range n {
		counts[s.Sample(scores, temp, mask)]++
	}
	for i := range counts {
		counts[i] /= float64(n)
	}
	return counts
}

func TestLowTemperatureConvergesToArgmax(t *testing.T) {
	t.Parallel()
	scores := []float32{1.0, 2.0, 1.9, 0.5}
	h := histogram(NewSampler(7), scores, 0.01, nil, 5000)
	if h[1] < 0.999 {
		t.Fatalf("argmax frequency %v at T=0.01", h[1])
	}
	// Extreme temperature overflows scaling; Sample falls back to argmax.
	if id := NewSampler(1).Sample(scores, 1e-320, nil); id != 1 {
		t.Fatalf("overflow fallback: got %d", id)
	}
}

func TestHighTemperatureApproachesUniform(t *testing.T) {
	t.Parallel()
	scores := []float32{3, -2, 0.5, 1, 7}
	mask := Mask(len(scores), 4)
	s := NewSampler(11)

	cold := histogram(s, scores, 1, mask, 20000)
	hot := histogram(s, scores, 1000, mask, 20000)

	// Entropy over the four allowed ids rises towards ln(4).
	if stat.Entropy(hot[:4]) <= stat.Entropy(cold[:4]) {
		t.Fatalf("entropy should grow with temperature: cold=%v hot=%v", stat.Entropy(cold[:4]), stat.Entropy(hot[:4]))
	}
	if math.Abs(stat.Entropy(hot[:4])-math.Log(4)) > 0.01 {
		t.Fatalf("hot distribution not near uniform: %v", hot)
	}
	if hot[4] != 0 {
		t.Fatalf("masked id sampled at high temperature: %v", hot)
	}
}

func TestSampleMatchesSoftmax(t *testing.T) {
	t.Parallel()
	scores := []float32{0, float32(math.Log(3))}
	h := histogram(NewSampler(5), scores, 1, nil, 40000)
	if math.Abs(h[1]-0.75) > 0.015 {
		t.Fatalf("expected ~0.75 mass on id 1, got %v", h[1])
	}
}

func TestArgmax(t *testing.T) {
	t.Parallel()
	if got := Argmax([]float32{5, 1, 5}, nil); got != 0 {
		t.Fatalf("ties go low: got %d", got)
	}
	if got := Argmax([]float32{5, 1, 4}, Mask(3, 0)); got != 2 {
		t.Fatalf("masked argmax: got %d", got)
	}
}
