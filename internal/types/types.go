package types

import (
	"encoding/json"
	"fmt"
	"time"
)

type Transcript struct {
	Segments []Segment `json:"segments"`
	Duration float64   `json:"duration"`
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
	// Confidence is nil when the transcriber reports none.
	Confidence *float64 `json:"confidence,omitempty"`
}

func (s Segment) Duration() float64 { return s.End - s.Start }

type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

// Subtitle is one editable caption line. Text is masked, RawText is the
// transcript text it was derived from.
type Subtitle struct {
	ID         int     `json:"id"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	RawText    string  `json:"raw_text"`
	Confidence float64 `json:"confidence"`
}

// BeepInterval is a span of the timeline covered by a tone. Label is the
// word that produced it.
type BeepInterval struct {
	Start float64
	End   float64
	Label string
}

func (b BeepInterval) Interval() Interval { return Interval{Start: b.Start, End: b.End} }

func Intervals(bs []BeepInterval) []Interval {
	out := make([]Interval, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.Interval())
	}
	return out
}

// Interval is the persisted form of a beep: a JSON array [start, end].
// Decoding tolerates extra trailing elements.
type Interval struct {
	Start float64
	End   float64
}

func (iv Interval) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{iv.Start, iv.End})
}

func (iv *Interval) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: beep interval must be an array: %v", ErrValidation, err)
	}
	if len(raw) < 2 {
		return fmt.Errorf("%w: beep interval needs at least two numbers, got %d elements", ErrValidation, len(raw))
	}
	var start, end float64
	if err := json.Unmarshal(raw[0], &start); err != nil {
		return fmt.Errorf("%w: beep interval start %s is not a number", ErrValidation, string(raw[0]))
	}
	if err := json.Unmarshal(raw[1], &end); err != nil {
		return fmt.Errorf("%w: beep interval end %s is not a number", ErrValidation, string(raw[1]))
	}
	iv.Start, iv.End = start, end
	return nil
}

type VideoInfo struct {
	Filename string  `json:"filename"`
	Duration float64 `json:"duration"`
}

// Session is the persisted, editable timeline of one video between preview
// and final render.
type Session struct {
	VideoHash      string     `json:"video_hash"`
	VideoPath      string     `json:"video_path"`
	Subtitles      []Subtitle `json:"subtitles"`
	VideoInfo      VideoInfo  `json:"video_info"`
	ForbiddenWords []string   `json:"forbidden_words"`
	BeepIntervals  []Interval `json:"beep_intervals"`
}

// Patch is a partial session update. A nil slice means "not supplied"; a
// non-nil empty ForbiddenWords means "reset to the default list".
type Patch struct {
	Subtitles      []Subtitle `json:"subtitles"`
	ForbiddenWords []string   `json:"forbidden_words"`
	BeepIntervals  []Interval `json:"beep_intervals"`
}

func (p Patch) Empty() bool {
	return p.Subtitles == nil && p.ForbiddenWords == nil && p.BeepIntervals == nil
}

// VideoMeta is probed from the source at render time and never persisted.
type VideoMeta struct {
	Width    int
	Height   int
	Duration time.Duration
}

type Event struct {
	ID        string    `json:"event_id"`
	VideoHash string    `json:"video_hash"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	Stage     string    `json:"stage"`
	Output    string    `json:"output,omitempty"`
	Error     string    `json:"error,omitempty"`
	Time      time.Time `json:"time"`
}
