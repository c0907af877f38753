package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/tryparse/lang"
	"github.com/ardnew/tryparse/log"
)

// Fmt parses a source and writes it in the chosen format.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Reproduce the source from its syntax tree (default)."`
	JSON   JSON   `cmd:""                    help:"Format as JSON."`
	YAML   YAML   `cmd:""                    help:"Format as YAML."`
	AST    AST    `cmd:""                    help:"Print the syntax tree with byte spans."`
}

// Native writes the source reassembled from its tree's tokens.
type Native struct {
	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`
}

// Run executes the native command.
func (n *Native) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	file, err := parseOne(ctx, n.Source, "native")
	if err != nil {
		return err
	}

	if err := file.Format(ctx, outputFrom(ctx)); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

// JSON writes the syntax tree as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output; 0 writes one line." short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	file, err := parseOne(ctx, j.Source, "json")
	if err != nil {
		return err
	}

	if err := file.FormatJSON(ctx, outputFrom(ctx), j.Indent); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

// YAML writes the syntax tree as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output; 0 writes flow style." short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	file, err := parseOne(ctx, y.Source, "yaml")
	if err != nil {
		return err
	}

	if err := file.FormatYAML(ctx, outputFrom(ctx), y.Indent); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

// AST prints the syntax tree, one node per line.
type AST struct {
	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	file, err := parseOne(ctx, a.Source, "ast")
	if err != nil {
		return err
	}

	if err := file.Print(ctx, outputFrom(ctx)); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

// parseOne reads and parses a single source. Warnings are logged; any
// error-severity diagnostic fails the command.
func parseOne(ctx context.Context, path, format string) (*lang.SourceFile, error) {
	sources, err := readSources(ctx, []string{path})
	if err != nil {
		return nil, err
	}

	src := sources[0]
	file, diags := src.parse(ctx)

	for _, d := range diags {
		if d.Severity == lang.SeverityWarning {
			log.WarnContext(ctx, d.Message,
				slog.String("source", src.Name),
				slog.Any("diagnostic", d),
			)
		}
	}

	if diags.HasErrors() {
		return nil, ErrDiagnostics.
			With(slog.String("source", src.Name), slog.String("format", format)).
			Wrap(diags.Err())
	}

	return file, nil
}
