package session

import (
	"fmt"

	"github.com/forPelevin/beepsub/internal/domain/censor"
	"github.com/forPelevin/beepsub/internal/types"
)

// ResolveForbiddenWords applies the reset-to-default policy: a supplied list
// that is empty after trimming resets to defaults instead of clearing.
func ResolveForbiddenWords(supplied, defaults []string) []string {
	if words := censor.SanitizeWords(supplied); len(words) > 0 {
		return words
	}
	return censor.SanitizeWords(defaults)
}

// ApplyPatch returns s with p applied. Each supplied field fully replaces the
// previous value.
func ApplyPatch(s types.Session, p types.Patch, defaults []string) (types.Session, error) {
	if p.Empty() {
		return s, fmt.Errorf("%w: patch supplies no fields", types.ErrValidation)
	}
	if p.Subtitles != nil {
		if err := ValidateSubtitles(p.Subtitles); err != nil {
			return s, err
		}
		s.Subtitles = append([]types.Subtitle{}, p.Subtitles...)
	}
	if p.ForbiddenWords != nil {
		s.ForbiddenWords = ResolveForbiddenWords(p.ForbiddenWords, defaults)
	}
	if p.BeepIntervals != nil {
		s.BeepIntervals = append([]types.Interval{}, p.BeepIntervals...)
	}
	return s, nil
}

// ValidateSubtitles rejects negative or inverted timings and out of range
// confidence.
func ValidateSubtitles(subs []types.Subtitle) error {
	for i, sub := range subs {
		switch {
		case sub.Start < 0:
			return fmt.Errorf("%w: subtitle %d starts before 0 (%v)", types.ErrValidation, i, sub.Start)
		case sub.End < sub.Start:
			return fmt.Errorf("%w: subtitle %d ends before it starts (%v < %v)", types.ErrValidation, i, sub.End, sub.Start)
		case sub.Confidence < 0 || sub.Confidence > 1:
			return fmt.Errorf("%w: subtitle %d confidence %v outside [0,1]", types.ErrValidation, i, sub.Confidence)
		}
	}
	return nil
}
