// Package censor masks forbidden words in transcribed segments and derives
// the beep intervals that hide them in the audio.
package censor

import (
	"golang.org/x/text/unicode/norm"

	"github.com/forPelevin/beepsub/internal/types"
)

// Line is a masked subtitle line, index-aligned with the input segments.
type Line struct {
	Start float64
	End   float64
	Text  string
}

// Apply runs matching and interval estimation over segs in order. Beeps are
// flattened across segments. Line text comes back in NFC. Output depends
// only on the inputs.
func Apply(segs []types.Segment, words []string) ([]Line, []types.BeepInterval) {
	m := NewMatcher(words)
	lines := make([]Line, 0, len(segs))
	var beeps []types.BeepInterval
	for _, seg := range segs {
		seg.Text = norm.NFC.String(seg.Text)
		matches := m.FindAll(seg.Text)
		beeps = append(beeps, Estimate(seg, m, matches)...)
		lines = append(lines, Line{Start: seg.Start, End: seg.End, Text: Mask(seg.Text, matches)})
	}
	return lines, beeps
}
