package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ardnew/tryparse/lang"
	"github.com/ardnew/tryparse/log"
)

// Check parses each source and reports its diagnostics.
type Check struct {
	Color    string `default:"auto" enum:"auto,always,never" help:"Colorize output (${enum})."`
	Warnings bool   `default:"true" help:"Report warnings."   negatable:""`
	Quiet    bool   `help:"Print only the summary line."      short:"q"`

	Sources []string `arg:"" help:"Source files, or '-' for stdin." name:"source" optional:""`
}

// Run executes the check command.
// It returns [ErrDiagnostics] when any source has error-severity diagnostics.
func (c *Check) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	sources, err := readSources(ctx, c.Sources)
	if err != nil {
		return err
	}

	w := outputFrom(ctx)
	st := newStyles(w, c.Color)

	var errs, warns int

	for _, src := range sources {
		file, diags := src.parse(ctx)

		log.DebugContext(ctx, "checked source",
			slog.String("source", src.Name),
			slog.Int("blocks", len(file.Blocks())),
			slog.Int("diagnostics", len(diags)),
		)

		errs += diags.Count(lang.SeverityError)

		for _, d := range diags {
			if d.Severity == lang.SeverityWarning {
				if !c.Warnings {
					continue
				}

				warns++
			}

			if c.Quiet {
				continue
			}

			if _, err := io.WriteString(w, st.diagnostic(src.Name, src.Text, d)); err != nil {
				return ErrWriteOutput.Wrap(err)
			}
		}
	}

	summary := fmt.Sprintf("%s, %s in %s",
		plural(errs, "error"), plural(warns, "warning"), plural(len(sources), "file"))

	style := st.bold
	if errs > 0 {
		style = st.err
	} else if warns > 0 {
		style = st.warn
	}

	if _, err := fmt.Fprintln(w, style.Render(summary)); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	if errs > 0 {
		return ErrDiagnostics.With(
			slog.Int("errors", errs),
			slog.Int("warnings", warns),
		)
	}

	return nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}

	return fmt.Sprintf("%d %ss", n, noun)
}
