package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/forPelevin/beepsub/internal/domain/censor"
	"github.com/forPelevin/beepsub/internal/session"
	"github.com/forPelevin/beepsub/internal/types"
)

const defaultConfidence = 0.5

type PreviewInput struct {
	VideoPath string
	// Hash is the content hash of VideoPath.
	Hash string
	// Words overrides the default forbidden list when non-empty.
	Words []string
}

// Preview transcribes and censors the video and stores the resulting
// session. A failed preview leaves no session behind.
func (u Usecase) Preview(ctx context.Context, in PreviewInput) (s types.Session, err error) {
	defer func() { u.notify(ctx, "preview", in.Hash, StagePreviewReady, "", err) }()

	if !session.ValidHash(in.Hash) {
		return types.Session{}, failAt(StageUploaded, fmt.Errorf("%w: invalid video hash %q", types.ErrValidation, in.Hash))
	}
	if _, serr := os.Stat(in.VideoPath); serr != nil {
		return types.Session{}, failAt(StageUploaded, mediaErr("open source video", serr))
	}

	paths := u.d.Sessions.Paths
	if err := os.MkdirAll(paths.Dir, 0o755); err != nil {
		return types.Session{}, failAt(StageUploaded, fmt.Errorf("create work dir: %w", err))
	}

	wav := paths.TempAudio(in.Hash)
	defer os.Remove(wav)
	u.d.Logf("extracting audio: %s", wav)
	if err := u.d.Video.ExtractAudioMono16k(ctx, in.VideoPath, wav); err != nil {
		return types.Session{}, failAt(StageAudioExtracted, mediaErr("extract audio", err))
	}

	cacheDir := paths.ASRCache(in.Hash)
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return types.Session{}, failAt(StageTranscribed, fmt.Errorf("create asr cache: %w", err))
	}
	defer os.RemoveAll(cacheDir)
	u.d.Logf("transcribing")
	tr, err := u.d.ASR.Transcribe(ctx, wav, cacheDir)
	if err != nil {
		return types.Session{}, failAt(StageTranscribed, fmt.Errorf("%w: %w", types.ErrTranscription, err))
	}
	if len(tr.Segments) == 0 {
		return types.Session{}, failAt(StageTranscribed, fmt.Errorf("%w: no speech segments", types.ErrTranscription))
	}
	u.d.Logf("transcribed %d segments (%.1fs)", len(tr.Segments), tr.Duration)

	words := session.ResolveForbiddenWords(in.Words, u.d.Sessions.Defaults)
	lines, beeps := censor.Apply(tr.Segments, words)
	u.d.Logf("censored: %d beeps for %d words", len(beeps), len(words))

	s = types.Session{
		VideoHash: in.Hash,
		VideoPath: in.VideoPath,
		Subtitles: buildSubtitles(tr.Segments, lines),
		VideoInfo: types.VideoInfo{
			Filename: filepath.Base(in.VideoPath),
			Duration: tr.Duration,
		},
		ForbiddenWords: words,
		BeepIntervals:  types.Intervals(beeps),
	}
	if err := u.d.Sessions.Create(ctx, s); err != nil {
		return types.Session{}, failAt(StagePreviewReady, err)
	}
	u.d.Logf("preview ready: %s", in.Hash)
	return s, nil
}

func buildSubtitles(segs []types.Segment, lines []censor.Line) []types.Subtitle {
	subs := make([]types.Subtitle, 0, len(lines))
	for i, l := range lines {
		conf := defaultConfidence
		if c := segs[i].Confidence; c != nil {
			conf = *c
		}
		subs = append(subs, types.Subtitle{
			ID:         i,
			Start:      l.Start,
			End:        l.End,
			Text:       strings.TrimSpace(l.Text),
			RawText:    strings.TrimSpace(segs[i].Text),
			Confidence: conf,
		})
	}
	return subs
}
