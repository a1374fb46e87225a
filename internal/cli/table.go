package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/forPelevin/beepsub/internal/types"
)

func renderSession(s types.Session) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("session "+s.VideoHash) + "\n")
	fmt.Fprintf(&b, "%s %s (%s)\n", dimStyle.Render("video:"), s.VideoInfo.Filename, fmtSec(s.VideoInfo.Duration))
	fmt.Fprintf(&b, "%s %s\n", dimStyle.Render("words:"), strings.Join(s.ForbiddenWords, ", "))

	beeps := make([]string, 0, len(s.BeepIntervals))
	for _, iv := range s.BeepIntervals {
		beeps = append(beeps, fmt.Sprintf("%.2f-%.2f", iv.Start, iv.End))
	}
	fmt.Fprintf(&b, "%s %s\n", dimStyle.Render("beeps:"), strings.Join(beeps, " "))

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("#", "start", "end", "conf", "text").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return titleStyle
			}
			return lipgloss.NewStyle()
		})
	for _, sub := range s.Subtitles {
		t.Row(
			fmt.Sprint(sub.ID),
			fmt.Sprintf("%.3f", sub.Start),
			fmt.Sprintf("%.3f", sub.End),
			fmt.Sprintf("%.2f", sub.Confidence),
			sub.Text,
		)
	}
	b.WriteString(t.Render())
	return b.String()
}
