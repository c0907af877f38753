package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/goccy/go-json"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/tryparse/lang"
	"github.com/ardnew/tryparse/log"
)

// List prints the tryout blocks of each source, optionally filtered.
type List struct {
	Where string `help:"Keep blocks for which this expr-lang predicate is true." placeholder:"EXPR" short:"w"`
	Match string `help:"Keep blocks whose description fuzzy-matches TEXT, best first." placeholder:"TEXT" short:"m"`
	JSON  bool   `help:"Write the selected blocks as a JSON array."`
	Color string `default:"auto" enum:"auto,always,never" help:"Colorize output (${enum})."`

	Sources []string `arg:"" help:"Source files, or '-' for stdin." name:"source" optional:""`
}

// blockEnv is the environment a --where predicate is evaluated against.
type blockEnv struct {
	File         string           `expr:"file"         json:"file"`
	Description  string           `expr:"description"  json:"description"`
	Code         string           `expr:"code"         json:"code"`
	Types        []string         `expr:"types"        json:"types"`
	Expectations []expectationEnv `expr:"expectations" json:"expectations"`
	Index        int              `expr:"index"        json:"index"`
	Line         int              `expr:"line"         json:"line"`
	CodeLines    int              `expr:"code_lines"   json:"code_lines"`
}

type expectationEnv struct {
	Type   string `expr:"type"   json:"type"`
	Marker string `expr:"marker" json:"marker"`
	Text   string `expr:"text"   json:"text"`
	Line   int    `expr:"line"   json:"line"`
	Inline bool   `expr:"inline" json:"inline"`
}

func newBlockEnv(name string, lines lineStarts, index int, b *lang.TryoutBlock) blockEnv {
	env := blockEnv{
		File:      name,
		Code:      b.CodeText(),
		Index:     index,
		Line:      lines.line(b.Span().Start),
		CodeLines: len(b.Code),
	}

	if b.Description != nil {
		env.Description = b.Description.Text
	}

	env.Types = make([]string, 0, len(b.Expectations))
	env.Expectations = make([]expectationEnv, 0, len(b.Expectations))

	for _, e := range b.Expectations {
		env.Types = append(env.Types, e.Type.String())
		env.Expectations = append(env.Expectations, expectationEnv{
			Type:   e.Type.String(),
			Marker: e.Marker,
			Text:   e.Text,
			Line:   lines.line(e.Span().Start),
			Inline: e.Inline,
		})
	}

	return env
}

// Run executes the list command.
func (l *List) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	var program *vm.Program

	if l.Where != "" {
		program, err = expr.Compile(l.Where, expr.Env(blockEnv{}), expr.AsBool())
		if err != nil {
			return ErrInvalidFilter.Wrap(err).With(slog.String("where", l.Where))
		}
	}

	sources, err := readSources(ctx, l.Sources)
	if err != nil {
		return err
	}

	var blocks []blockEnv

	for _, src := range sources {
		file, diags := src.parse(ctx)
		if diags.HasErrors() {
			log.WarnContext(ctx, "source has errors",
				slog.String("source", src.Name),
				slog.Int("errors", diags.Count(lang.SeverityError)),
			)
		}

		lines := src.lines()

		for i, b := range file.Blocks() {
			env := newBlockEnv(src.Name, lines, i, b)

			if program != nil {
				keep, err := expr.Run(program, env)
				if err != nil {
					return ErrInvalidFilter.Wrap(err).With(
						slog.String("where", l.Where),
						slog.String("source", src.Name),
						slog.Int("line", env.Line),
					)
				}

				if ok, _ := keep.(bool); !ok {
					continue
				}
			}

			blocks = append(blocks, env)
		}
	}

	var highlights [][]int

	if l.Match != "" {
		blocks, highlights = matchBlocks(l.Match, blocks)
	}

	log.DebugContext(ctx, "listed blocks",
		slog.Int("sources", len(sources)),
		slog.Int("blocks", len(blocks)),
	)

	w := outputFrom(ctx)

	if l.JSON {
		if blocks == nil {
			blocks = []blockEnv{}
		}

		b, err := json.MarshalIndent(blocks, "", "  ")
		if err != nil {
			return ErrWriteOutput.Wrap(err)
		}

		if _, err := fmt.Fprintln(w, string(b)); err != nil {
			return ErrWriteOutput.Wrap(err)
		}

		return nil
	}

	st := newStyles(w, l.Color)

	for i, b := range blocks {
		var hl []int
		if highlights != nil {
			hl = highlights[i]
		}

		if err := writeBlock(w, st, b, hl); err != nil {
			return ErrWriteOutput.Wrap(err)
		}
	}

	return nil
}

// matchBlocks returns the blocks whose description fuzzy-matches pattern,
// ranked best first, with the matched byte indexes of each description.
func matchBlocks(pattern string, blocks []blockEnv) ([]blockEnv, [][]int) {
	descs := make([]string, len(blocks))
	for i, b := range blocks {
		descs[i] = b.Description
	}

	matches := fuzzy.Find(pattern, descs)

	out := make([]blockEnv, len(matches))
	idx := make([][]int, len(matches))

	for i, m := range matches {
		out[i] = blocks[m.Index]
		idx[i] = m.MatchedIndexes
	}

	return out, idx
}

// writeBlock writes one block as "file:line: description [types]".
// Lines of a multi-line description are joined with spaces.
func writeBlock(w io.Writer, st styles, b blockEnv, highlight []int) error {
	desc := st.highlight(strings.ReplaceAll(b.Description, "\n", " "), highlight)

	types := strings.Join(b.Types, ", ")
	if types == "" {
		types = "no expectations"
	}

	_, err := fmt.Fprintf(w, "%s%s %s %s\n",
		st.path.Render(b.File),
		st.pos.Render(fmt.Sprintf(":%d:", b.Line)),
		desc,
		st.dim.Render("["+types+"]"),
	)

	return err
}
