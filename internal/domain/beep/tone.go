package beep

import "math"

const (
	// MinToneDuration is the shortest tone rendered for a window.
	MinToneDuration = 0.05
	fadeIn          = 0.010
	fadeOut         = 0.020
)

// Tone renders a constant sine of the given duration with short linear
// fades at both ends so the tone starts and stops without clicks. The mono
// signal is copied to every channel.
func Tone(duration float64, sampleRate, channels int, freq, amp float64) Track {
	if channels < 1 {
		channels = 1
	}
	frames := int(math.Round(duration * float64(sampleRate)))
	if frames < 0 {
		frames = 0
	}
	tr := Track{SampleRate: sampleRate, Channels: channels, Samples: make([]float64, frames*channels)}
	for i := 0; i < frames; i++ {
		t := float64(i) / float64(sampleRate)
		v := amp * math.Sin(2*math.Pi*freq*t) * fade(t, duration)
		for c := 0; c < channels; c++ {
			tr.Samples[i*channels+c] = v
		}
	}
	return tr
}

func fade(t, duration float64) float64 {
	g := math.Min(1, t/fadeIn)
	g = math.Min(g, (duration-t)/fadeOut)
	return math.Max(0, g)
}
