package beep

import (
	"math"

	"github.com/forPelevin/beepsub/internal/types"
)

// Envelope is the ducking gain curve: 1 outside every window, Floor inside
// any of them. Overlapping windows are not counted twice.
type Envelope struct {
	windows []types.Interval
	floor   float64
}

func NewEnvelope(windows []types.Interval, floor float64) Envelope {
	return Envelope{windows: windows, floor: math.Max(0, math.Min(1, floor))}
}

func (e Envelope) Floor() float64 { return e.floor }

// Active reports whether t lies inside any window, bounds included.
func (e Envelope) Active(t float64) bool {
	for _, w := range e.windows {
		if t >= w.Start && t <= w.End {
			return true
		}
	}
	return false
}

func (e Envelope) Gain(t float64) float64 {
	if e.Active(t) {
		return e.floor
	}
	return 1
}

// Mask marks the frames of a frames-long track at sampleRate that fall
// inside any window.
func (e Envelope) Mask(frames, sampleRate int) []bool {
	active := make([]bool, frames)
	if sampleRate <= 0 {
		return active
	}
	sr := float64(sampleRate)
	for _, w := range e.windows {
		first := int(math.Ceil(w.Start * sr))
		last := int(math.Floor(w.End * sr))
		if first < 0 {
			first = 0
		}
		if last >= frames {
			last = frames - 1
		}
		for i := first; i <= last; i++ {
			active[i] = true
		}
	}
	return active
}
