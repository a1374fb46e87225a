package ports

import (
	"context"

	"github.com/forPelevin/beepsub/internal/domain/beep"
	"github.com/forPelevin/beepsub/internal/types"
)

type VideoTool interface {
	// ExtractAudioMono16k writes the speech-recognition input.
	ExtractAudioMono16k(ctx context.Context, inVideo, outWav string) error
	// ExtractAudioPCM writes 16-bit PCM keeping the source channel layout.
	ExtractAudioPCM(ctx context.Context, inVideo, outWav string) error
	Probe(ctx context.Context, inVideo string) (types.VideoMeta, error)
	Render(ctx context.Context, job RenderJob) error
}

// RenderJob burns BurnASS into InVideo and replaces its audio with AudioWav.
type RenderJob struct {
	InVideo  string
	BurnASS  string
	FontsDir string
	AudioWav string
	OutMP4   string
}

type ASR interface {
	Transcribe(ctx context.Context, wavPath, cacheDir string) (types.Transcript, error)
}

type AudioCodec interface {
	ReadWAV(path string) (beep.Track, error)
	WriteWAV(path string, tr beep.Track) error
}

type Notifier interface {
	Notify(ctx context.Context, ev types.Event) error
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, types.Event) error { return nil }
