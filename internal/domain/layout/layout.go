// Package layout derives caption geometry from the video frame size.
package layout

import "math"

// Params sizes the burned-in caption box. All lengths are pixels.
type Params struct {
	SubtitleHeight int
	FontSize       int
	SideMargin     int
	BottomMargin   int
	SubtitleWidth  int
	AspectRatio    float64
}

type bucket struct {
	minRatio    float64
	heightShare float64
	fontScale   float64
	minFontSize int
}

// Ordered widest first; the last bucket catches square and portrait frames.
var buckets = []bucket{
	{minRatio: 2.0, heightShare: 0.08, fontScale: 1.1, minFontSize: 18},
	{minRatio: 1.7, heightShare: 0.10, fontScale: 1.0, minFontSize: 16},
	{minRatio: 1.3, heightShare: 0.12, fontScale: 0.9, minFontSize: 14},
	{minRatio: 0, heightShare: 0.15, fontScale: 0.8, minFontSize: 12},
}

const (
	minSubtitleHeight = 60
	minMargin         = 10
)

// Compute returns caption parameters for a width x height frame. Non-positive
// dimensions yield the zero Params.
func Compute(width, height int) Params {
	if width <= 0 || height <= 0 {
		return Params{}
	}
	ratio := float64(width) / float64(height)
	b := pick(ratio)

	// The base size is rounded, so 1920x1080 gives 29.
	base := int(math.Round(math.Sqrt(float64(width)*float64(height)) * 0.02))
	side := max(minMargin, int(float64(width)*0.05))

	return Params{
		SubtitleHeight: max(minSubtitleHeight, int(float64(height)*b.heightShare)),
		FontSize:       max(b.minFontSize, int(float64(base)*b.fontScale)),
		SideMargin:     side,
		BottomMargin:   max(minMargin, int(float64(height)*0.02)),
		SubtitleWidth:  width - 2*side,
		AspectRatio:    ratio,
	}
}

func pick(ratio float64) bucket {
	for _, b := range buckets {
		if ratio >= b.minRatio {
			return b
		}
	}
	return buckets[len(buckets)-1]
}
