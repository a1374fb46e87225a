package subtitles

import (
	"fmt"
	"strings"
	"time"

	"github.com/forPelevin/beepsub/internal/domain/layout"
	"github.com/forPelevin/beepsub/internal/types"
)

// Style is the caption look that does not depend on the frame size.
type Style struct {
	FontName string
	// Colours in ASS &HAABBGGRR notation.
	TextColour string
	BoxColour  string
}

// DefaultStyle is white text on an 80% opaque black box.
func DefaultStyle() Style {
	return Style{
		FontName:   "Arial",
		TextColour: "&H00FFFFFF",
		BoxColour:  "&H33000000",
	}
}

// RenderASS builds the burn-in document for a width x height video. Captions
// sit in a box of p.SubtitleHeight centred p.BottomMargin above the bottom
// edge.
func RenderASS(subs []types.Subtitle, width, height int, p layout.Params, st Style) string {
	var b strings.Builder
	b.WriteString(assHeader(width, height, p, st))
	b.WriteString("\n\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, s := range subs {
		text := sanitizeASS(s.Text)
		if text == "" || s.End <= s.Start {
			continue
		}
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(dur(s.Start)))
		b.WriteString(",")
		b.WriteString(assTime(dur(s.End)))
		b.WriteString(",Caption,,0,0,0,,")
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String()
}

func assHeader(width, height int, p layout.Params, st Style) string {
	if st.FontName == "" {
		st = DefaultStyle()
	}
	// Bottom-aligned text: lift it so the box centre lands mid-caption-area.
	marginV := p.BottomMargin + (p.SubtitleHeight-p.FontSize)/2
	if marginV < p.BottomMargin {
		marginV = p.BottomMargin
	}
	pad := max(2, p.FontSize/5)

	var b strings.Builder
	b.WriteString("[Script Info]\n")
	b.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&b, "PlayResX: %d\n", width)
	fmt.Fprintf(&b, "PlayResY: %d\n", height)
	b.WriteString("WrapStyle: 0\n")
	b.WriteString("ScaledBorderAndShadow: yes\n\n")
	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&b, "Style: Caption,%s,%d,%s,%s,%s,%s,0,0,0,0,100,100,0,0,3,%d,0,2,%d,%d,%d,1",
		st.FontName, p.FontSize,
		st.TextColour, st.TextColour, st.BoxColour, st.BoxColour,
		pad, p.SideMargin, p.SideMargin, marginV,
	)
	return b.String()
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\\N")
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
