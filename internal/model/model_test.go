package model

import (
	"errors"
	"math"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/samcharles93/charrnn/internal/tensor"
	"github.com/samcharles93/charrnn/internal/vocab"
)

func tinyModel(t *testing.T) *Model {
	t.Helper()
	m, err := NewRandom(Config{VocabSize: 12, EmbeddingDim: 6, HiddenDim: 8}, 7)
	if err != nil {
		t.Fatalf("NewRandom: %v", err)
	}
	return m
}

func TestForwardShapes(t *testing.T) {
	t.Parallel()
	m := tinyModel(t)
	for _, tc := range []struct{ b, l int }{{1, 1}, {1, 6}, {3, 4}, {2, 17}} {
		ids := make([][]int, tc.b)
		for i := range ids {
			ids[i] = make([]int, tc.l)
			for j := range ids[i] {
				ids[i][j] = (i + j) % m.Config.VocabSize
			}
		}
		logits, state, err := m.Forward(ids, nil)
		if err != nil {
			t.Fatalf("Forward(%dx%d): %v", tc.b, tc.l, err)
		}
		if logits.Batch != tc.b || logits.Len != tc.l || logits.Vocab != 12 || len(logits.Data) != tc.b*tc.l*12 {
			t.Fatalf("logits shape: got (%d,%d,%d)", logits.Batch, logits.Len, logits.Vocab)
		}
		if state.Batch != tc.b || state.Width != 8 || len(state.H) != tc.b*8 {
			t.Fatalf("state shape: got %dx%d", state.Batch, state.Width)
		}
	}
}

func TestForwardErrors(t *testing.T) {
	t.Parallel()
	m := tinyModel(t)
	if _, _, err := m.Forward(nil, nil); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("nil batch: got %v", err)
	}
	if _, _, err := m.Forward([][]int{{}}, nil); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("empty sequence: got %v", err)
	}
	if _, _, err := m.Forward([][]int{{1, 2}, {1}}, nil); !errors.Is(err, ErrShape) {
		t.Fatalf("ragged batch: got %v", err)
	}
	if _, _, err := m.Forward([][]int{{1}}, NewState(1, 5)); !errors.Is(err, ErrStateMismatch) {
		t.Fatalf("wrong width: got %v", err)
	}
	if _, _, err := m.Forward([][]int{{1}}, NewState(2, 8)); !errors.Is(err, ErrStateMismatch) {
		t.Fatalf("wrong batch: got %v", err)
	}
	bad := &State{Batch: 1, Width: 8, H: make([]float32, 3)}
	if _, _, err := m.Forward([][]int{{1}}, bad); !errors.Is(err, ErrStateMismatch) {
		t.Fatalf("short state: got %v", err)
	}
}

func TestForwardDeterministicAndPure(t *testing.T) {
	t.Parallel()
	m := tinyModel(t)
	ids := [][]int{{1, 4, 2, 9}}
	_, st, err := m.Forward(ids, nil)
	if err != nil {
		t.Fatal(err)
	}
	before := slices.Clone(st.H)

	a, sa, err := m.Forward(ids, st)
	if err != nil {
		t.Fatal(err)
	}
	b, sb, err := m.Forward(ids, st)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(a.Data, b.Data) || !slices.Equal(sa.H, sb.H) {
		t.Fatal("identical inputs and state must give bit-identical outputs")
	}
	if !slices.Equal(st.H, before) {
		t.Fatal("Forward must not modify the state it is given")
	}
	if slices.Equal(sa.H, before) {
		t.Fatal("returned state should have advanced")
	}
}

func TestNilStateEqualsZeroState(t *testing.T) {
	t.Parallel()
	m := tinyModel(t)
	ids := [][]int{{3, 1}, {2, 2}}
	a, _, err := m.Forward(ids, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := m.Forward(ids, NewState(2, 8))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(a.Data, b.Data) {
		t.Fatal("nil state should behave as zeros")
	}
}

func TestStepwiseMatchesWholeSequence(t *testing.T) {
	t.Parallel()
	m := tinyModel(t)
	seq := []int{5, 1, 7, 3, 11}
	whole, wholeState, err := m.Forward([][]int{seq}, nil)
	if err != nil {
		t.Fatal(err)
	}
	var st *State
	var last *Logits
	for _, id := range seq {
		last, st, err = m.Forward([][]int{{id}}, st)
		if err != nil {
			t.Fatal(err)
		}
	}
	if !slices.Equal(whole.Last(0), last.Last(0)) {
		t.Fatal("carrying state step by step must match a single pass")
	}
	if !slices.Equal(wholeState.H, st.H) {
		t.Fatal("final states differ")
	}
}

func TestGRUStepAgainstHandComputation(t *testing.T) {
	t.Parallel()
	m := &Model{
		Config:    Config{VocabSize: 2, EmbeddingDim: 1, HiddenDim: 1},
		Embedding: mat(t, 2, 1, 0.5, -1),
		Wx:        mat(t, 3, 1, 0.2, -0.3, 0.7),
		Wh:        mat(t, 3, 1, 0.1, 0.4, -0.6),
		BiasX:     []float32{0.05, 0, -0.1},
		BiasH:     []float32{0, 0.02, 0.3},
		Wo:        mat(t, 2, 1, 1.5, -2),
		BiasO:     []float32{0.1, 0.2},
	}
	h0 := float32(0.25)
	logits, st, err := m.Forward([][]int{{1}}, &State{Batch: 1, Width: 1, H: []float32{h0}})
	if err != nil {
		t.Fatal(err)
	}

	x := -1.0
	h := float64(h0)
	sig := func(v float64) float64 { return 1 / (1 + math.Exp(-v)) }
	z := sig(0.2*x + 0.05 + 0.1*h)
	r := sig(-0.3*x + 0.4*h + 0.02)
	n := math.Tanh(0.7*x - 0.1 + r*(-0.6*h+0.3))
	want := z*h + (1-z)*n

	if math.Abs(float64(st.H[0])-want) > 1e-5 {
		t.Fatalf("hidden: got %v want %v", st.H[0], want)
	}
	if math.Abs(float64(logits.Data[0])-(1.5*want+0.1)) > 1e-5 || math.Abs(float64(logits.Data[1])-(-2*want+0.2)) > 1e-5 {
		t.Fatalf("logits: got %v", logits.Data)
	}
}

func mat(t *testing.T, r, c int, vals ...float32) tensor.Mat {
	t.Helper()
	m, err := tensor.NewMatFromData(r, c, vals)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestConcurrentForwardOnSharedModel(t *testing.T) {
	t.Parallel()
	m := tinyModel(t)
	ref, _, err := m.Forward([][]int{{1, 2, 3}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, _, err := m.Forward([][]int{{1, 2, 3}}, nil)
			if err != nil || !slices.Equal(got.Data, ref.Data) {
				t.Error("concurrent Forward diverged")
			}
		}()
	}
	wg.Wait()
}

func TestParamsMatchesKerasSummary(t *testing.T) {
	t.Parallel()
	cfg := Config{VocabSize: 66, EmbeddingDim: DefaultEmbeddingDim, HiddenDim: DefaultHiddenDim}
	if got := cfg.Params(); got != 4022850 {
		t.Fatalf("Params: got %d want 4022850", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	vc, err := vocab.Build("abcdefghijk")
	if err != nil {
		t.Fatal(err)
	}
	m := tinyModel(t)
	path := filepath.Join(t.TempDir(), "model.safetensors")
	if err := m.Save(path, vc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, lv, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Config != m.Config || lv.Size() != vc.Size() {
		t.Fatalf("config/vocab mismatch: %+v %d", loaded.Config, lv.Size())
	}
	ids := [][]int{{1, 5, 9}}
	a, _, _ := m.Forward(ids, nil)
	b, _, _ := loaded.Forward(ids, nil)
	if !slices.Equal(a.Data, b.Data) {
		t.Fatal("loaded model gives different logits")
	}
}

func TestSaveRejectsVocabMismatch(t *testing.T) {
	t.Parallel()
	vc, _ := vocab.Build("ab")
	if err := tinyModel(t).Save(filepath.Join(t.TempDir(), "m.safetensors"), vc); !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape, got %v", err)
	}
}

func TestLossUntrainedNearLogV(t *testing.T) {
	t.Parallel()
	m := tinyModel(t)
	inputs := [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}}
	targets := [][]int{{2, 3, 4, 5}, {6, 7, 8, 9}}
	logits, _, err := m.Forward(inputs, nil)
	if err != nil {
		t.Fatal(err)
	}
	loss, err := Loss(logits, targets)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(loss-math.Log(12)) > 1 {
		t.Fatalf("untrained loss %v too far from ln(12)=%v", loss, math.Log(12))
	}
	if _, err := Loss(logits, targets[:1]); !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape, got %v", err)
	}
}
