package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/forPelevin/beepsub/internal/session"
	"github.com/forPelevin/beepsub/internal/types"
)

// readSubtitlesFile decodes a JSON subtitle list. Unknown fields and bad
// timings are rejected.
func readSubtitlesFile(path string) ([]types.Subtitle, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read subtitles: %v", types.ErrValidation, err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var subs []types.Subtitle
	if err := dec.Decode(&subs); err != nil {
		return nil, fmt.Errorf("%w: subtitles %s: %v", types.ErrValidation, path, err)
	}
	if subs == nil {
		return nil, fmt.Errorf("%w: subtitles %s: expected a JSON array", types.ErrValidation, path)
	}
	if err := session.ValidateSubtitles(subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// readBeepsFile decodes [[start, end], ...]. Entries need at least two
// numbers; extra trailing elements are ignored.
func readBeepsFile(path string) ([]types.Interval, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read beeps: %v", types.ErrValidation, err)
	}
	var beeps []types.Interval
	if err := json.Unmarshal(b, &beeps); err != nil {
		return nil, fmt.Errorf("%w: beeps %s: %v", types.ErrValidation, path, err)
	}
	if beeps == nil {
		return nil, fmt.Errorf("%w: beeps %s: expected a JSON array", types.ErrValidation, path)
	}
	return beeps, nil
}
