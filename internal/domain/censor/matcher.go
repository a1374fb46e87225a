package censor

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Matcher finds forbidden words inside text as whole words, ignoring case.
// Word boundaries follow Unicode letters and digits, so accented words such
// as "palavrão" are matched the same way as plain ASCII ones. Words and text
// are compared in NFC, so decomposed accents match precomposed ones.
//
// RE2's \b only understands ASCII word characters, hence the hand-written
// scanner.
type Matcher struct {
	words [][]rune
}

// Match is one occurrence. Start and End are rune offsets into the NFC form
// of the searched text.
type Match struct {
	Text  string
	Start int
	End   int

	byteStart int
	byteEnd   int
}

// Len is the matched length in characters.
func (m Match) Len() int { return m.End - m.Start }

// NewMatcher compiles words in order. Empty words are skipped; an empty set
// yields a matcher that never matches.
func NewMatcher(words []string) *Matcher {
	m := &Matcher{words: make([][]rune, 0, len(words))}
	for _, w := range words {
		if w == "" {
			continue
		}
		m.words = append(m.words, []rune(norm.NFC.String(w)))
	}
	return m
}

// Empty reports whether the matcher can never match.
func (m *Matcher) Empty() bool { return m == nil || len(m.words) == 0 }

// FindAll returns non-overlapping matches left to right. When several words
// could match at the same position the first listed word that ends on a word
// boundary wins.
func (m *Matcher) FindAll(text string) []Match {
	if m.Empty() || text == "" {
		return nil
	}
	text = norm.NFC.String(text)
	runes := []rune(text)
	offs := byteOffsets(text, len(runes))

	var out []Match
	for i := 0; i < len(runes); {
		n := m.matchAt(runes, i)
		if n == 0 {
			i++
			continue
		}
		out = append(out, Match{
			Text:      text[offs[i]:offs[i+n]],
			Start:     i,
			End:       i + n,
			byteStart: offs[i],
			byteEnd:   offs[i+n],
		})
		i += n
	}
	return out
}

// Contains reports whether text has at least one match.
func (m *Matcher) Contains(text string) bool {
	if m.Empty() || text == "" {
		return false
	}
	runes := []rune(norm.NFC.String(text))
	for i := range runes {
		if m.matchAt(runes, i) > 0 {
			return true
		}
	}
	return false
}

func (m *Matcher) matchAt(runes []rune, i int) int {
	if !boundary(runes, i) {
		return 0
	}
	for _, w := range m.words {
		n := len(w)
		if i+n > len(runes) {
			continue
		}
		if !equalFold(runes[i:i+n], w) {
			continue
		}
		if boundary(runes, i+n) {
			return n
		}
	}
	return 0
}

// Mask replaces every match with asterisks, one per matched character. The
// result is in NFC when anything was masked.
func Mask(text string, matches []Match) string {
	if len(matches) == 0 {
		return text
	}
	text = norm.NFC.String(text)
	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for _, mt := range matches {
		b.WriteString(text[prev:mt.byteStart])
		b.WriteString(strings.Repeat("*", mt.Len()))
		prev = mt.byteEnd
	}
	b.WriteString(text[prev:])
	return b.String()
}

// SanitizeWords trims, NFC-normalizes and de-duplicates (case-insensitively)
// a forbidden word list, keeping first occurrences in order. Blank entries
// are dropped.
func SanitizeWords(words []string) []string {
	fold := cases.Fold()
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = norm.NFC.String(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		key := fold.String(w)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, w)
	}
	return out
}

func byteOffsets(text string, n int) []int {
	offs := make([]int, 0, n+1)
	for i := range text {
		offs = append(offs, i)
	}
	return append(offs, len(text))
}

// boundary is true between a word and a non-word character, including the
// edges of the text.
func boundary(runes []rune, i int) bool {
	before := i > 0 && isWordRune(runes[i-1])
	after := i < len(runes) && isWordRune(runes[i])
	return before != after
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func equalFold(a, b []rune) bool {
	for i := range a {
		if !equalFoldRune(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalFoldRune(a, b rune) bool {
	if a == b {
		return true
	}
	if a == utf8.RuneError || b == utf8.RuneError {
		return false
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}
