// Package vocab maps characters to dense integer ids and back.
//
// Id 0 is always the reserved unknown token "[UNK]"; the distinct characters
// of the corpus follow in sorted order. Characters absent from the table
// encode to the unknown id.
package vocab

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

// UnknownToken is the text of the reserved id 0.
const UnknownToken = "[UNK]"

var (
	ErrEmptyCorpus    = errors.New("vocab: corpus has no characters")
	ErrDuplicateToken = errors.New("vocab: duplicate token")
	ErrBadTable       = errors.New("vocab: malformed token table")
)

// Vocabulary is immutable after construction and safe for concurrent use.
type Vocabulary struct {
	tokens []string
	ids    map[rune]int
}

// Build collects the distinct runes of text, sorts them, and places them after
// the unknown token.
func Build(text string) (*Vocabulary, error) {
	seen := make(map[rune]struct{})
	for _, r := range text {
		seen[r] = struct{}{}
	}
	if len(seen) == 0 {
		return nil, ErrEmptyCorpus
	}
	runes := make([]rune, 0, len(seen))
	for r := range seen {
		runes = append(runes, r)
	}
	slices.Sort(runes)

	tokens := make([]string, 0, len(runes)+1)
	tokens = append(tokens, UnknownToken)
	for _, r := range runes {
		tokens = append(tokens, string(r))
	}
	return New(tokens)
}

// New restores a vocabulary from its token table, as produced by Tokens.
func New(tokens []string) (*Vocabulary, error) {
	if len(tokens) < 2 || tokens[0] != UnknownToken {
		return nil, fmt.Errorf("%w: first entry must be %q followed by at least one character", ErrBadTable, UnknownToken)
	}
	ids := make(map[rune]int, len(tokens)-1)
	for i, tok := range tokens[1:] {
		r, size := utf8.DecodeRuneInString(tok)
		if size == 0 || size != len(tok) {
			return nil, fmt.Errorf("%w: entry %d %q is not a single character", ErrBadTable, i+1, tok)
		}
		if _, dup := ids[r]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateToken, tok)
		}
		ids[r] = i + 1
	}
	return &Vocabulary{tokens: slices.Clone(tokens), ids: ids}, nil
}

// Size is the number of ids, unknown included.
func (v *Vocabulary) Size() int { return len(v.tokens) }

func (v *Vocabulary) UnknownID() int { return 0 }

// ID returns the id of r, or the unknown id when r is not in the table.
func (v *Vocabulary) ID(r rune) int {
	if id, ok := v.ids[r]; ok {
		return id
	}
	return 0
}

// Token returns the text for id. Ids outside [0, Size) map to UnknownToken.
func (v *Vocabulary) Token(id int) string {
	if id < 0 || id >= len(v.tokens) {
		return UnknownToken
	}
	return v.tokens[id]
}

// Tokens returns a copy of the id-ordered token table.
func (v *Vocabulary) Tokens() []string { return slices.Clone(v.tokens) }

// Encode splits text into runes and maps each to its id.
func (v *Vocabulary) Encode(text string) []int {
	ids := make([]int, 0, utf8.RuneCountInString(text))
	for _, r := range text {
		ids = append(ids, v.ID(r))
	}
	return ids
}

// Decode joins the tokens for ids.
func (v *Vocabulary) Decode(ids []int) string {
	var b strings.Builder
	b.Grow(len(ids))
	for _, id := range ids {
		b.WriteString(v.Token(id))
	}
	return b.String()
}

// MarshalJSON encodes the vocabulary as its token array.
func (v *Vocabulary) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.tokens)
}

func (v *Vocabulary) UnmarshalJSON(b []byte) error {
	var tokens []string
	if err := json.Unmarshal(b, &tokens); err != nil {
		return fmt.Errorf("vocab: %w", err)
	}
	parsed, err := New(tokens)
	if err != nil {
		return err
	}
	*v = *parsed
	return nil
}

// Load reads a vocabulary written by Save.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	v := new(Vocabulary)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// Save writes the token table as a JSON array.
func (v *Vocabulary) Save(path string) error {
	data, err := json.MarshalIndent(v.tokens, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
