package subtitles

import (
	"fmt"
	"io"
	"strings"

	"github.com/forPelevin/beepsub/internal/types"
)

// FormatExport renders subtitles as plain-text blocks:
//
//	12.345 --> 13.000
//	text
//
// in subtitle order with three-decimal timestamps.
func FormatExport(subs []types.Subtitle) string {
	var b strings.Builder
	for _, s := range subs {
		fmt.Fprintf(&b, "%.3f --> %.3f\n%s\n\n", s.Start, s.End, s.Text)
	}
	return b.String()
}

func WriteExport(w io.Writer, subs []types.Subtitle) error {
	_, err := io.WriteString(w, FormatExport(subs))
	return err
}
