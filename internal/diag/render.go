package diag

import (
	"strings"

	"github.com/fatih/color"
)

// Render formats err with a caret-pointed source excerpt, delegating the
// actual coloring to fatih/color instead of hand-rolled ANSI escapes. Color
// rendering is strictly a CLI/host concern; the rest of the pipeline only
// ever produces the structured *Error.
func Render(err *Error, useColor bool) string {
	var sb strings.Builder

	bold := color.New(color.Bold)
	red := color.New(color.FgRed, color.Bold)
	if !useColor {
		bold.DisableColor()
		red.DisableColor()
	}

	if err.Source != nil && err.Source.File != "" {
		sb.WriteString(bold.Sprintf("%s:%s: ", err.Source.File, err.Span))
	} else {
		sb.WriteString(bold.Sprintf("%s: ", err.Span))
	}
	sb.WriteString(red.Sprint(err.Kind))
	sb.WriteString(": ")
	sb.WriteString(err.Message)

	if err.Source != nil && err.Source.Text != "" {
		if line := sourceLine(err.Source.Text, err.Span.Line); line != "" {
			sb.WriteString("\n    ")
			sb.WriteString(line)
			sb.WriteString("\n    ")
			if err.Span.Col > 0 {
				sb.WriteString(strings.Repeat(" ", err.Span.Col-1))
			}
			sb.WriteString(red.Sprint("^"))
		}
	}

	return sb.String()
}

func sourceLine(source string, lineNum int) string {
	if lineNum < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}
