package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forPelevin/beepsub/internal/domain/censor"
	"github.com/forPelevin/beepsub/internal/domain/subtitles"
	"github.com/forPelevin/beepsub/internal/ports"
	"github.com/forPelevin/beepsub/internal/session"
	"github.com/forPelevin/beepsub/internal/types"
)

// Recompute rebuilds beep intervals from the current subtitles.
type Recompute func(subs []types.Subtitle, words []string) []types.Interval

type Deps struct {
	Video    ports.VideoTool
	ASR      ports.ASR
	Audio    ports.AudioCodec
	Sessions *session.Manager
	// Notifier may be nil.
	Notifier ports.Notifier
	Logf     func(format string, args ...any)
	// Recompute defaults to RecomputeBeeps.
	Recompute Recompute
	Now       func() time.Time
}

// Settings are the render parameters taken from configuration.
type Settings struct {
	BeepFrequency float64
	BeepVolume    float64
	// Ducking is nil when ducking is disabled.
	Ducking  *float64
	Style    subtitles.Style
	FontsDir string
}

type Usecase struct {
	d Deps
	s Settings
}

func New(d Deps, s Settings) Usecase {
	if d.Notifier == nil {
		d.Notifier = ports.NopNotifier{}
	}
	if d.Recompute == nil {
		d.Recompute = RecomputeBeeps
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logf == nil {
		d.Logf = func(string, ...any) {}
	}
	if s.Style.FontName == "" {
		s.Style = subtitles.DefaultStyle()
	}
	return Usecase{d: d, s: s}
}

// RecomputeBeeps censors each subtitle's unmasked text (falling back to the
// displayed text) and returns the resulting intervals.
func RecomputeBeeps(subs []types.Subtitle, words []string) []types.Interval {
	segs := make([]types.Segment, 0, len(subs))
	for _, s := range subs {
		text := s.RawText
		if text == "" {
			text = s.Text
		}
		segs = append(segs, types.Segment{Start: s.Start, End: s.End, Text: text})
	}
	_, beeps := censor.Apply(segs, words)
	return types.Intervals(beeps)
}

// Update applies a user edit to the session.
func (u Usecase) Update(ctx context.Context, hash string, p types.Patch) (types.Session, error) {
	s, err := u.d.Sessions.Update(ctx, hash, p)
	if err != nil {
		return types.Session{}, failAt(StageEdited, err)
	}
	u.d.Logf("session %s edited", hash)
	return s, nil
}

func (u Usecase) notify(ctx context.Context, kind, hash string, stage Stage, output string, err error) {
	ev := types.Event{
		ID:        uuid.NewString(),
		VideoHash: hash,
		Kind:      kind,
		Status:    "SUCCESS",
		Stage:     string(stage),
		Output:    output,
		Time:      u.d.Now().UTC(),
	}
	if err != nil {
		ev.Status = "ERROR"
		ev.Error = err.Error()
		if st, ok := FailedStage(err); ok {
			ev.Stage = string(st)
		}
	}
	if nerr := u.d.Notifier.Notify(ctx, ev); nerr != nil {
		u.d.Logf("warn: publish %s event for %s: %v", kind, hash, nerr)
	}
}

func mediaErr(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", types.ErrMediaIO, what, err)
}
