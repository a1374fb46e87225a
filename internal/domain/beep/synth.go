package beep

import (
	"math"

	"github.com/forPelevin/beepsub/internal/types"
)

// Pad is the guard added on each side of a beep so the tone is not clipped
// at a tightly estimated word boundary.
const Pad = 0.02

type Options struct {
	Frequency float64
	Amplitude float64
	// Ducking is the gain applied to the original audio inside beep
	// windows, clamped to [0, 1]. Nil leaves the original untouched.
	Ducking *float64
	// TargetDuration is the output length in seconds. Zero keeps the
	// original length.
	TargetDuration float64
}

// Clip is a tone placed on the output timeline.
type Clip struct {
	Start float64
	Track Track
}

type Result struct {
	Track   Track
	Windows []types.Interval
	Clips   []Clip
}

// Normalize drops intervals that are not finite or whose end is not after
// their start. Such intervals usually come from hand edits and are skipped
// rather than failing the render.
func Normalize(ivs []types.Interval) []types.Interval {
	out := make([]types.Interval, 0, len(ivs))
	for _, iv := range ivs {
		if !finite(iv.Start) || !finite(iv.End) || iv.End <= iv.Start {
			continue
		}
		out = append(out, iv)
	}
	return out
}

// PadIntervals widens every interval by pad on both sides, clamped to
// [0, limit]. Overlapping results are kept as separate windows.
func PadIntervals(ivs []types.Interval, pad, limit float64) []types.Interval {
	out := make([]types.Interval, 0, len(ivs))
	for _, iv := range ivs {
		s := math.Max(0, iv.Start-pad)
		e := math.Min(limit, iv.End+pad)
		if e-s <= 0 {
			continue
		}
		out = append(out, types.Interval{Start: s, End: e})
	}
	return out
}

// Synthesize composites the (optionally ducked) original audio with one tone
// per padded beep window and forces the result to the target duration.
func Synthesize(orig Track, beeps []types.Interval, opts Options) Result {
	limit := opts.TargetDuration
	if limit <= 0 {
		limit = orig.Duration()
	}
	windows := PadIntervals(Normalize(beeps), Pad, limit)

	base := orig
	if opts.Ducking != nil && len(windows) > 0 {
		base = duck(orig, NewEnvelope(windows, *opts.Ducking))
	}

	channels := orig.Channels
	if channels < 1 {
		channels = 1
	}
	clips := make([]Clip, 0, len(windows))
	for _, w := range windows {
		d := math.Max(MinToneDuration, w.End-w.Start)
		clips = append(clips, Clip{
			Start: w.Start,
			Track: Tone(d, orig.SampleRate, channels, opts.Frequency, opts.Amplitude),
		})
	}

	out := base.Resize(limit)
	for _, c := range clips {
		overlay(out, c)
	}
	return Result{Track: out, Windows: windows, Clips: clips}
}

func duck(orig Track, env Envelope) Track {
	out := Track{SampleRate: orig.SampleRate, Channels: orig.Channels, Samples: make([]float64, len(orig.Samples))}
	copy(out.Samples, orig.Samples)
	active := env.Mask(orig.Frames(), orig.SampleRate)
	for i, on := range active {
		if !on {
			continue
		}
		for c := 0; c < orig.Channels; c++ {
			out.Samples[i*orig.Channels+c] *= env.Floor()
		}
	}
	return out
}

// overlay adds c into dst in place; samples past the end of dst are dropped.
func overlay(dst Track, c Clip) {
	if dst.Channels != c.Track.Channels || dst.SampleRate <= 0 {
		return
	}
	offset := int(math.Round(c.Start * float64(dst.SampleRate)))
	frames := dst.Frames()
	for i := 0; i < c.Track.Frames(); i++ {
		f := offset + i
		if f < 0 {
			continue
		}
		if f >= frames {
			break
		}
		for ch := 0; ch < dst.Channels; ch++ {
			dst.Samples[f*dst.Channels+ch] += c.Track.Samples[i*dst.Channels+ch]
		}
	}
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
