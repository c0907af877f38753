package cmd

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/ardnew/tryparse/lang"
)

// styles renders command output. Colors follow the renderer's profile, which
// is detected from the output writer unless forced by the color mode.
type styles struct {
	path, pos, caret, dim, bold lipgloss.Style
	err, warn, match            lipgloss.Style
}

// Color modes accepted by commands with a --color flag.
const (
	colorAuto   = "auto"
	colorAlways = "always"
	colorNever  = "never"
)

func newStyles(w io.Writer, mode string) styles {
	r := lipgloss.NewRenderer(w)

	switch mode {
	case colorAlways:
		r.SetColorProfile(termenv.ANSI256)
	case colorNever:
		r.SetColorProfile(termenv.Ascii)
	}

	fg := func(c string) lipgloss.Style { return r.NewStyle().Foreground(lipgloss.Color(c)) }

	return styles{
		path:  r.NewStyle().Bold(true),
		pos:   fg("8"),
		caret: fg("2").Bold(true),
		dim:   fg("8"),
		bold:  r.NewStyle().Bold(true),
		err:   fg("1").Bold(true),
		warn:  fg("3").Bold(true),
		match: fg("6").Underline(true),
	}
}

func (s styles) severity(sev lang.Severity) lipgloss.Style {
	if sev == lang.SeverityWarning {
		return s.warn
	}

	return s.err
}

// diagnostic renders one diagnostic as a header line followed by the source
// line and a caret marker, in the layout of [lang.Diagnostic.Snippet].
func (s styles) diagnostic(name, source string, d lang.Diagnostic) string {
	var sb strings.Builder

	sb.WriteString(s.path.Render(name))
	sb.WriteString(s.pos.Render(":" + d.Start.String() + ":"))
	sb.WriteByte(' ')
	sb.WriteString(s.severity(d.Severity).Render(d.Kind.String() + " " + d.Severity.String()))
	sb.WriteString(": ")
	sb.WriteString(s.bold.Render(d.Message))
	sb.WriteByte('\n')

	snippet := strings.TrimSuffix(d.Snippet(source), "\n")
	if snippet == "" {
		return sb.String()
	}

	text, marker, _ := strings.Cut(snippet, "\n")

	if gutter, code, ok := strings.Cut(text, " | "); ok {
		sb.WriteString(s.dim.Render(gutter + " |"))
		sb.WriteByte(' ')
		sb.WriteString(code)
	} else {
		sb.WriteString(text)
	}

	sb.WriteByte('\n')

	pad := len(marker) - len(strings.TrimLeft(marker, " "))
	sb.WriteString(marker[:pad])
	sb.WriteString(s.caret.Render(marker[pad:]))
	sb.WriteByte('\n')

	return sb.String()
}

// highlight styles the bytes of text at the given indexes.
func (s styles) highlight(text string, indexes []int) string {
	if len(indexes) == 0 {
		return text
	}

	marked := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		marked[i] = true
	}

	var sb strings.Builder

	for i := 0; i < len(text); {
		j := i
		for j < len(text) && marked[j] == marked[i] {
			j++
		}

		if marked[i] {
			sb.WriteString(s.match.Render(text[i:j]))
		} else {
			sb.WriteString(text[i:j])
		}

		i = j
	}

	return sb.String()
}
