package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/beepsub/internal/ports"
	"github.com/forPelevin/beepsub/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ExtractAudioMono16k(ctx context.Context, inVideo, outWav string) error {
	return a.run(ctx, "extract audio",
		"-y",
		"-i", inVideo,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outWav,
	)
}

func (a *Adapter) ExtractAudioPCM(ctx context.Context, inVideo, outWav string) error {
	return a.run(ctx, "extract pcm",
		"-y",
		"-i", inVideo,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "44100",
		"-f", "wav",
		outWav,
	)
}

func (a *Adapter) Render(ctx context.Context, job ports.RenderJob) error {
	args := []string{
		"-y",
		"-i", job.InVideo,
	}
	if job.AudioWav != "" {
		args = append(args, "-i", job.AudioWav, "-map", "0:v:0", "-map", "1:a:0")
	}
	if job.BurnASS != "" {
		args = append(args, "-vf", subtitlesFilter(job.BurnASS, job.FontsDir))
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-c:a", "aac",
		"-b:a", "192k",
		job.OutMP4,
	)
	return a.run(ctx, "render", args...)
}

func (a *Adapter) Probe(ctx context.Context, inVideo string) (types.VideoMeta, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height:format=duration",
		"-of", "json",
		inVideo,
	)
	b, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return types.VideoMeta{}, fmt.Errorf("ffprobe: %w\n%s", err, string(ee.Stderr))
		}
		return types.VideoMeta{}, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbe(b)
}

func parseProbe(b []byte) (types.VideoMeta, error) {
	var out struct {
		Streams []struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return types.VideoMeta{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 || out.Streams[0].Width <= 0 || out.Streams[0].Height <= 0 {
		return types.VideoMeta{}, errors.New("ffprobe: no video stream")
	}
	s := strings.TrimSpace(out.Format.Duration)
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return types.VideoMeta{}, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return types.VideoMeta{
		Width:    out.Streams[0].Width,
		Height:   out.Streams[0].Height,
		Duration: time.Duration(sec * float64(time.Second)),
	}, nil
}

func (a *Adapter) run(ctx context.Context, what string, args ...string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg %s: %w\n%s", what, err, string(b))
	}
	return nil
}

func subtitlesFilter(assPath, fontsDir string) string {
	f := "subtitles=" + escapeFilterPath(assPath)
	if fontsDir != "" {
		f += ":fontsdir=" + escapeFilterPath(fontsDir)
	}
	return f
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	p = strings.ReplaceAll(p, "'", "\\'")
	return p
}
