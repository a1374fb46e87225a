package censor

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/forPelevin/beepsub/internal/types"
)

const (
	// A single word is shorter than the segment's average word.
	approxWordShare = 0.8
	// MinAudible is the shortest beep the estimator emits.
	MinAudible = 0.05
)

// asciiPunct mirrors the punctuation stripped from word labels.
const asciiPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Estimate converts one segment and the matches found in its text into beep
// intervals.
//
// Word timestamps win when at least one timed word matches; otherwise the
// position of each text match is mapped proportionally onto the segment.
// The two modes never mix within a segment.
func Estimate(seg types.Segment, m *Matcher, matches []Match) []types.BeepInterval {
	if out := precise(seg, m); len(out) > 0 {
		return out
	}
	return approximate(seg, matches)
}

func precise(seg types.Segment, m *Matcher) []types.BeepInterval {
	var out []types.BeepInterval
	for _, w := range seg.Words {
		raw := strings.TrimSpace(w.Word)
		if raw == "" || !m.Contains(raw) {
			continue
		}
		label := strings.Trim(raw, asciiPunct+" ")
		if label == "" {
			label = raw
		}
		out = append(out, audible(types.BeepInterval{Start: w.Start, End: w.End, Label: label}))
	}
	return out
}

func approximate(seg types.Segment, matches []Match) []types.BeepInterval {
	chars := utf8.RuneCountInString(seg.Text)
	if len(matches) == 0 || chars == 0 {
		return nil
	}
	dur := seg.Duration()
	words := len(strings.Fields(seg.Text))
	if words < 1 {
		words = 1
	}
	wordDur := dur / float64(words) * approxWordShare

	out := make([]types.BeepInterval, 0, len(matches))
	for _, mt := range matches {
		ratio := float64(mt.Start) / float64(chars)
		start := seg.Start + dur*ratio
		end := math.Min(start+wordDur, seg.End)
		out = append(out, audible(types.BeepInterval{Start: start, End: end, Label: mt.Text}))
	}
	return out
}

// audible keeps intervals non-negative and at least MinAudible long when the
// estimate collapsed to an instant.
func audible(b types.BeepInterval) types.BeepInterval {
	if b.Start < 0 {
		b.Start = 0
	}
	if b.End <= b.Start {
		b.End = b.Start + MinAudible
	}
	return b
}
