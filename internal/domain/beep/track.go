// Package beep builds the censored audio track: the original audio ducked
// inside beep windows with a sine tone laid over each window.
package beep

import "math"

// Track is interleaved PCM with samples in [-1, 1].
type Track struct {
	SampleRate int
	Channels   int
	Samples    []float64
}

func (t Track) Frames() int {
	if t.Channels <= 0 {
		return 0
	}
	return len(t.Samples) / t.Channels
}

// Duration is the track length in seconds.
func (t Track) Duration() float64 {
	if t.SampleRate <= 0 {
		return 0
	}
	return float64(t.Frames()) / float64(t.SampleRate)
}

// Resize truncates or silence-pads the track to d seconds.
func (t Track) Resize(d float64) Track {
	frames := int(math.Round(d * float64(t.SampleRate)))
	if frames < 0 {
		frames = 0
	}
	out := Track{SampleRate: t.SampleRate, Channels: t.Channels, Samples: make([]float64, frames*t.Channels)}
	copy(out.Samples, t.Samples)
	return out
}
