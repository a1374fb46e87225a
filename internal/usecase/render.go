package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/forPelevin/beepsub/internal/domain/beep"
	"github.com/forPelevin/beepsub/internal/domain/layout"
	"github.com/forPelevin/beepsub/internal/domain/subtitles"
	"github.com/forPelevin/beepsub/internal/ports"
	"github.com/forPelevin/beepsub/internal/session"
	"github.com/forPelevin/beepsub/internal/types"
)

type RenderInput struct {
	Hash string
	// Words overrides the session list for recomputation when non-empty
	// after trimming.
	Words []string
	// BeepIntervals, when non-nil, are used verbatim and nothing is
	// recomputed.
	BeepIntervals []types.Interval
	// UseSessionBeeps renders the session's stored intervals verbatim.
	// Ignored when BeepIntervals is set.
	UseSessionBeeps bool
	// Out defaults to the work dir's final_<hash>.mp4.
	Out string
}

type RenderResult struct {
	Output     string
	Beeps      []types.Interval
	Recomputed bool
	Layout     layout.Params
	Meta       types.VideoMeta
	// Subtitles are the lines burned into the output.
	Subtitles []types.Subtitle
}

// Render burns the session's subtitles into the video, replaces its audio
// with the beeped mix and drops the session while keeping the output. On
// failure the session is left as it was.
//
// If another process edited the session while it was rendering, the output
// is discarded and the render fails with types.ErrConflict so it can be
// retried against the edit.
func (u Usecase) Render(ctx context.Context, in RenderInput) (res RenderResult, err error) {
	defer func() { u.notify(ctx, "render", in.Hash, StageRendered, res.Output, err) }()

	err = u.d.Sessions.Hold(in.Hash, func(h *session.Held) error {
		s, err := h.Session(ctx)
		if err != nil {
			return failAt(StageRendering, err)
		}
		res, err = u.render(ctx, s, in)
		if err != nil {
			return err
		}
		err = h.Delete(ctx, true)
		if errors.Is(err, types.ErrConflict) {
			os.Remove(res.Output)
			return failAt(StageRendering, fmt.Errorf("session %s changed during render: %w", in.Hash, err))
		}
		if err != nil {
			u.d.Logf("warn: clean session %s: %v", in.Hash, err)
		}
		return nil
	})
	if err != nil {
		if _, ok := FailedStage(err); !ok {
			err = failAt(StageRendering, err)
		}
		return RenderResult{}, err
	}
	u.d.Logf("rendered: %s", res.Output)
	return res, nil
}

func (u Usecase) render(ctx context.Context, s types.Session, in RenderInput) (RenderResult, error) {
	paths := u.d.Sessions.Paths
	res := RenderResult{Output: in.Out, Subtitles: s.Subtitles}
	if res.Output == "" {
		res.Output = paths.FinalVideo(s.VideoHash)
	}

	switch {
	case in.BeepIntervals != nil:
		res.Beeps = in.BeepIntervals
	case in.UseSessionBeeps:
		res.Beeps = s.BeepIntervals
	default:
		words := session.ResolveForbiddenWords(in.Words, s.ForbiddenWords)
		res.Beeps = u.d.Recompute(s.Subtitles, words)
		res.Recomputed = true
	}
	u.d.Logf("rendering %s with %d beeps (recomputed: %v)", s.VideoHash, len(res.Beeps), res.Recomputed)

	meta, err := u.d.Video.Probe(ctx, s.VideoPath)
	if err != nil {
		return res, failAt(StageRendering, mediaErr("probe source video", err))
	}
	res.Meta = meta
	res.Layout = layout.Compute(meta.Width, meta.Height)

	src := paths.SourceAudio(s.VideoHash)
	mixed := paths.MixedAudio(s.VideoHash)
	assPath := paths.Subtitles(s.VideoHash)
	defer func() {
		for _, p := range []string{src, mixed, assPath} {
			os.Remove(p)
		}
	}()

	if err := u.d.Video.ExtractAudioPCM(ctx, s.VideoPath, src); err != nil {
		return res, failAt(StageRendering, mediaErr("extract audio", err))
	}
	track, err := u.d.Audio.ReadWAV(src)
	if err != nil {
		return res, failAt(StageRendering, mediaErr("read audio", err))
	}
	mix := beep.Synthesize(track, res.Beeps, beep.Options{
		Frequency:      u.s.BeepFrequency,
		Amplitude:      u.s.BeepVolume,
		Ducking:        u.s.Ducking,
		TargetDuration: meta.Duration.Seconds(),
	})
	u.d.Logf("audio mixed: %d tone clips over %.2fs", len(mix.Clips), mix.Track.Duration())
	if err := u.d.Audio.WriteWAV(mixed, mix.Track); err != nil {
		return res, failAt(StageRendering, mediaErr("write audio", err))
	}

	ass := subtitles.RenderASS(s.Subtitles, meta.Width, meta.Height, res.Layout, u.s.Style)
	if err := os.WriteFile(assPath, []byte(ass), 0o644); err != nil {
		return res, failAt(StageRendering, mediaErr("write subtitles", err))
	}

	if dir := filepath.Dir(res.Output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return res, failAt(StageRendering, mediaErr("create output dir", err))
		}
	}
	err = u.d.Video.Render(ctx, ports.RenderJob{
		InVideo:  s.VideoPath,
		BurnASS:  assPath,
		FontsDir: u.s.FontsDir,
		AudioWav: mixed,
		OutMP4:   res.Output,
	})
	if err != nil {
		return res, failAt(StageRendering, mediaErr("render video", err))
	}
	return res, nil
}

// Export writes the plain-text subtitle export of the session to w.
func (u Usecase) Export(ctx context.Context, hash string, w io.Writer) error {
	s, err := u.d.Sessions.Get(ctx, hash)
	if err != nil {
		return err
	}
	if err := subtitles.WriteExport(w, s.Subtitles); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
