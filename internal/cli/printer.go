package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FFFF"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FFFF")).Bold(true)
)

// printer writes leveled progress lines to the error stream.
type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) printer { return printer{w: w} }

func (p printer) line(style lipgloss.Style, tag, format string, args ...any) {
	fmt.Fprintln(p.w, style.Render(tag)+" "+fmt.Sprintf(format, args...))
}

func (p printer) info(format string, args ...any) { p.line(infoStyle, "[info]", format, args...) }
func (p printer) ok(format string, args ...any)   { p.line(okStyle, "[ok]", format, args...) }
func (p printer) warn(format string, args ...any) { p.line(warnStyle, "[warn]", format, args...) }
func (p printer) fail(format string, args ...any) { p.line(failStyle, "[error]", format, args...) }

// Logf is handed to the pipeline. Messages starting with "warn: " are
// printed as warnings.
func (p printer) Logf(format string, args ...any) {
	if rest, ok := strings.CutPrefix(format, "warn: "); ok {
		p.warn(rest, args...)
		return
	}
	p.info(format, args...)
}
