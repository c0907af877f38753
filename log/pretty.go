package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
)

// palette holds the styles used to colorize one log record. Styles are bound
// to a renderer for the handler's output, so color is dropped automatically
// when the output is not a terminal.
type palette struct {
	key, str, num, dur, time lipgloss.Style
	yes, no, null            lipgloss.Style
	level                    map[Level]lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style { return r.NewStyle().Foreground(lipgloss.Color(c)) }

	return palette{
		key:  fg("8"),
		str:  fg("6"),
		num:  fg("3"),
		dur:  fg("5"),
		time: fg("4"),
		yes:  fg("2"),
		no:   fg("1"),
		null: fg("8"),
		level: map[Level]lipgloss.Style{
			LevelTrace: fg("8"),
			LevelDebug: fg("4"),
			LevelInfo:  fg("2"),
			LevelWarn:  fg("3").Bold(true),
			LevelError: fg("1").Bold(true),
		},
	}
}

func (p palette) levelStyle(l slog.Level) lipgloss.Style {
	switch {
	case l >= slog.LevelError:
		return p.level[LevelError]
	case l >= slog.LevelWarn:
		return p.level[LevelWarn]
	case l >= slog.LevelInfo:
		return p.level[LevelInfo]
	case l >= slog.LevelDebug:
		return p.level[LevelDebug]
	default:
		return p.level[LevelTrace]
	}
}

// prettyHandler writes colorized records either as key=value pairs on a
// single line or as an indented JSON-like object.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	pal    palette
	time   FormatTime
	attrs  []slog.Attr
	prefix string
	format Format
}

func newPrettyHandler(
	w io.Writer,
	format Format,
	formatTime FormatTime,
	opts *slog.HandlerOptions,
) *prettyHandler {
	return &prettyHandler{
		opts:   *opts,
		mu:     &sync.Mutex{},
		w:      w,
		pal:    newPalette(w),
		time:   formatTime,
		format: format,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]field, 0, 4+len(h.attrs)+r.NumAttrs())

	if !r.Time.IsZero() {
		if s := h.time(r.Time); s != "" {
			fields = append(fields, field{slog.TimeKey, h.pal.time.Render(s)})
		}
	}

	level := strings.ToUpper(Level(r.Level).String())
	fields = append(fields, field{slog.LevelKey, h.pal.levelStyle(r.Level).Render(level)})

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			loc := fmt.Sprintf("%s:%d", src.File, src.Line)
			fields = append(fields, field{slog.SourceKey, h.pal.key.Render(loc)})
		}
	}

	fields = append(fields, field{slog.MessageKey, h.pal.str.Render(h.quote(r.Message))})

	for _, a := range h.attrs {
		fields = h.appendAttr(fields, "", a)
	}

	r.Attrs(func(a slog.Attr) bool {
		fields = h.appendAttr(fields, h.prefix, a)

		return true
	})

	var buf bytes.Buffer

	switch h.format {
	case FormatJSON:
		buf.WriteString("{\n")

		for i, f := range fields {
			if i > 0 {
				buf.WriteString(",\n")
			}

			buf.WriteString("  ")
			buf.WriteString(h.pal.key.Render(strconv.Quote(f.key)))
			buf.WriteString(": ")
			buf.WriteString(f.val)
		}

		buf.WriteString("\n}\n")

	default:
		for i, f := range fields {
			if i > 0 {
				buf.WriteByte(' ')
			}

			buf.WriteString(h.pal.key.Render(f.key))
			buf.WriteByte('=')
			buf.WriteString(f.val)
		}

		buf.WriteByte('\n')
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h

	c.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)

	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		c.attrs = append(c.attrs, a)
	}

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

type field struct {
	key, val string
}

// appendAttr flattens groups into dotted keys and renders each leaf value.
func (h *prettyHandler) appendAttr(fields []field, prefix string, a slog.Attr) []field {
	v := a.Value.Resolve()

	if v.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}

		for _, g := range v.Group() {
			fields = h.appendAttr(fields, prefix, g)
		}

		return fields
	}

	if a.Equal(slog.Attr{}) {
		return fields
	}

	return append(fields, field{prefix + a.Key, h.value(v)})
}

func (h *prettyHandler) value(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return h.pal.str.Render(h.quote(v.String()))

	case slog.KindInt64:
		return h.pal.num.Render(strconv.FormatInt(v.Int64(), 10))

	case slog.KindUint64:
		return h.pal.num.Render(strconv.FormatUint(v.Uint64(), 10))

	case slog.KindFloat64:
		return h.pal.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))

	case slog.KindBool:
		if v.Bool() {
			return h.pal.yes.Render("true")
		}

		return h.pal.no.Render("false")

	case slog.KindDuration:
		return h.pal.dur.Render(h.quote(v.Duration().String()))

	case slog.KindTime:
		return h.pal.time.Render(h.quote(h.time(v.Time())))

	default:
		a := v.Any()
		if a == nil {
			return h.pal.null.Render("null")
		}

		if err, ok := a.(error); ok {
			return h.pal.no.Render(h.quote(err.Error()))
		}

		if h.format == FormatJSON {
			if b, err := json.Marshal(a); err == nil {
				return h.pal.str.Render(string(b))
			}
		}

		return h.pal.str.Render(h.quote(fmt.Sprint(a)))
	}
}

// quote returns s as a JSON string in JSON format. In text format, s is
// quoted only when it contains spaces or characters that would make the
// key=value pair ambiguous.
func (h *prettyHandler) quote(s string) string {
	if h.format == FormatJSON {
		return strconv.Quote(s)
	}

	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}

	return s
}
