package inference

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/samcharles93/charrnn/internal/model"
	"github.com/samcharles93/charrnn/internal/vocab"
)

const corpusText = "ROMEO:\nBut soft, what light through yonder window breaks?\n"

func testVocab(t *testing.T) *vocab.Vocabulary {
	t.Helper()
	v, err := vocab.Build(corpusText)
	if err != nil {
		t.Fatalf("build vocab: %v", err)
	}
	return v
}

func testModel(t *testing.T, v *vocab.Vocabulary) *model.Model {
	t.Helper()
	m, err := model.NewRandom(model.Config{VocabSize: v.Size(), EmbeddingDim: 8, HiddenDim: 16}, 3)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	return m
}

// fixedModel returns the same scores at every position and records the ids it
// was called with.
type fixedModel struct {
	scores []float32
	width  int
	calls  [][][]int
}

func (f *fixedModel) Forward(ids [][]int, state *model.State) (*model.Logits, *model.State, error) {
	f.calls = append(f.calls, ids)
	l := &model.Logits{Batch: len(ids), Len: len(ids[0]), Vocab: len(f.scores)}
	for range len(ids) * len(ids[0]) {
		l.Data = append(l.Data, f.scores...)
	}
	return l, model.NewState(len(ids), f.width), nil
}

func TestNewStepGeneratorRejectsTemperature(t *testing.T) {
	t.Parallel()
	v := testVocab(t)
	for _, temp := range []float64{0, -1, -0.001} {
		if _, err := NewStepGenerator(testModel(t, v), v, temp, 1); !errors.Is(err, ErrInvalidTemperature) {
			t.Fatalf("temperature %v: got %v, want ErrInvalidTemperature", temp, err)
		}
	}
}

func TestStepMasksUnknownEvenWhenItScoresHighest(t *testing.T) {
	t.Parallel()
	v := testVocab(t)
	scores := make([]float32, v.Size())
	scores[v.UnknownID()] = 50
	fm := &fixedModel{scores: scores, width: 4}
	g, err := NewStepGenerator(fm, v, 1, 9)
	if err != nil {
		t.Fatal(err)
	}

	var state *model.State
	for range 10000 {
		out, next, err := g.Step([]string{"R"}, state)
		if err != nil {
			t.Fatalf("step: %v", err)
		}
		if out[0] == vocab.UnknownToken {
			t.Fatal("generated the unknown token")
		}
		state = next
	}
}

func TestStepAcceptsUnknownInput(t *testing.T) {
	t.Parallel()
	v := testVocab(t)
	g, err := NewStepGenerator(testModel(t, v), v, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	out, state, err := g.Step([]string{"€€€"}, nil)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if out[0] == vocab.UnknownToken {
		t.Fatal("generated the unknown token")
	}
	if state == nil || state.Width != 16 {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestStepPadsShorterFragments(t *testing.T) {
	t.Parallel()
	v := testVocab(t)
	fm := &fixedModel{scores: make([]float32, v.Size()), width: 2}
	g, err := NewStepGenerator(fm, v, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	out, state, err := g.Step([]string{"RO", "ROMEO"}, nil)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if len(out) != 2 || state.Batch != 2 {
		t.Fatalf("got %d outputs, state batch %d", len(out), state.Batch)
	}
	got := fm.calls[0][0]
	want := append(v.Encode("RO"), v.UnknownID(), v.UnknownID(), v.UnknownID())
	if !slices.Equal(got, want) {
		t.Fatalf("padded ids = %v, want %v", got, want)
	}
}

func TestStepErrors(t *testing.T) {
	t.Parallel()
	v := testVocab(t)
	g, err := NewStepGenerator(testModel(t, v), v, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := g.Step(nil, nil); !errors.Is(err, model.ErrEmptyInput) {
		t.Fatalf("no inputs: got %v", err)
	}
	if _, _, err := g.Step([]string{""}, nil); !errors.Is(err, model.ErrEmptyInput) {
		t.Fatalf("empty fragment: got %v", err)
	}
	if _, _, err := g.Step([]string{"R"}, model.NewState(2, 16)); !errors.Is(err, model.ErrStateMismatch) {
		t.Fatalf("state batch mismatch: got %v", err)
	}

	small := &fixedModel{scores: make([]float32, 3), width: 1}
	g2, err := NewStepGenerator(small, v, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := g2.Step([]string{"R"}, nil); !errors.Is(err, model.ErrShape) {
		t.Fatalf("vocab mismatch: got %v", err)
	}
}

func TestStepSameSeedSameOutput(t *testing.T) {
	t.Parallel()
	v := testVocab(t)
	m := testModel(t, v)
	run := func() string {
		g, err := NewStepGenerator(m, v, 1, 42)
		if err != nil {
			t.Fatal(err)
		}
		res, err := g.Generate(context.Background(), "ROMEO:", 50, nil)
		if err != nil {
			t.Fatal(err)
		}
		return res.Text
	}
	if a, b := run(), run(); a != b {
		t.Fatalf("seeded runs differ:\n%q\n%q", a, b)
	}
}

func TestGenerateRomeoScenario(t *testing.T) {
	t.Parallel()
	v := testVocab(t)
	g, err := NewStepGenerator(testModel(t, v), v, 1.0, 7)
	if err != nil {
		t.Fatal(err)
	}

	var streamed strings.Builder
	res, err := g.Generate(context.Background(), "ROMEO:", 1000, func(ch string) { streamed.WriteString(ch) })
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if n := utf8.RuneCountInString(res.Text); n != len("ROMEO:")+1000 {
		t.Fatalf("text has %d characters, want %d", n, len("ROMEO:")+1000)
	}
	if strings.Contains(res.Text, vocab.UnknownToken) {
		t.Fatal("text contains the unknown token")
	}
	if !strings.HasPrefix(res.Text, "ROMEO:") || res.Text[len("ROMEO:"):] != streamed.String() {
		t.Fatal("streamed characters do not match the generated suffix")
	}
	if res.Stats.CharsGenerated != 1000 {
		t.Fatalf("CharsGenerated = %d", res.Stats.CharsGenerated)
	}
	if res.State == nil || res.State.Batch != 1 {
		t.Fatalf("unexpected final state %+v", res.State)
	}
}

func TestGenerateStopsOnCancel(t *testing.T) {
	t.Parallel()
	v := testVocab(t)
	g, err := NewStepGenerator(testModel(t, v), v, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	n := 0
	res, err := g.Generate(ctx, "R", 100, func(string) {
		n++
		if n == 5 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if res.Stats.CharsGenerated != 5 || utf8.RuneCountInString(res.Text) != 6 {
		t.Fatalf("partial result: %d chars, text %q", res.Stats.CharsGenerated, res.Text)
	}
}

func TestContinueMatchesOneLongRun(t *testing.T) {
	t.Parallel()
	v := testVocab(t)
	m := testModel(t, v)

	whole, err := NewStepGenerator(m, v, 0.5, 5)
	if err != nil {
		t.Fatal(err)
	}
	full, err := whole.Generate(context.Background(), "RO", 20, nil)
	if err != nil {
		t.Fatal(err)
	}

	split, err := NewStepGenerator(m, v, 0.5, 5)
	if err != nil {
		t.Fatal(err)
	}
	first, err := split.Generate(context.Background(), "RO", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	// The last generated character has not been fed yet; it seeds the rest.
	last := string([]rune(first.Text)[utf8.RuneCountInString(first.Text)-1:])
	rest, err := split.Continue(context.Background(), last, first.State, 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := first.Text + rest.Text[len(last):]; got != full.Text {
		t.Fatalf("continued text %q, want %q", got, full.Text)
	}
}

func TestIndependentGeneratorsShareModel(t *testing.T) {
	t.Parallel()
	v := testVocab(t)
	m := testModel(t, v)

	want := make([]string, 4)
	for i := range want {
		g, err := NewStepGenerator(m, v, 1, int64(i))
		if err != nil {
			t.Fatal(err)
		}
		res, err := g.Generate(context.Background(), "ROMEO:", 30, nil)
		if err != nil {
			t.Fatal(err)
		}
		want[i] = res.Text
	}

	got := make([]string, 4)
	var wg sync.WaitGroup
	for i := range got {
		wg.Go(func() {
			g, err := NewStepGenerator(m, v, 1, int64(i))
			if err != nil {
				t.Error(err)
				return
			}
			res, err := g.Generate(context.Background(), "ROMEO:", 30, nil)
			if err != nil {
				t.Error(err)
				return
			}
			got[i] = res.Text
		})
	}
	wg.Wait()
	if !slices.Equal(got, want) {
		t.Fatalf("concurrent results differ from sequential ones")
	}
}
