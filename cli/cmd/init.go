package cmd

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/tryparse/lang"
	"github.com/ardnew/tryparse/log"
)

// defaultConfigIndent is the number of spaces to use for indentation
// when generating the default configuration file.
const defaultConfigIndent = 2

// ignoredFlagPrefixes names flags that are never written to the config file.
var ignoredFlagPrefixes = []string{"help", "version", "pprof"}

// Init generates a configuration file with current flag values, and
// optionally an example tryouts file.
type Init struct {
	Force  bool   `help:"Overwrite existing files" short:"f"`
	Sample string `help:"Also write an example tryouts file to this path." placeholder:"FILE" type:"path"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)
	if ktx == nil {
		panic("internal error: kong context undefined")
	}

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	b, err := yaml.MarshalWithOptions(i.flagValues(ktx), yaml.Indent(defaultConfigIndent))
	if err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	if err := i.write(confPath, b); err != nil {
		return err
	}

	log.DebugContext(ctx, "initialized configuration file", slog.String("path", confPath))

	if i.Sample == "" {
		return nil
	}

	if err := i.write(i.Sample, []byte(sampleFile().String())); err != nil {
		return err
	}

	log.DebugContext(ctx, "wrote example tryouts file", slog.String("path", i.Sample))

	return nil
}

// write creates path with content, refusing to replace an existing file
// unless Force is set.
func (i *Init) write(path string, content []byte) error {
	if _, err := os.Stat(path); err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", path), slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return ErrWriteConfig.With(slog.String("file", path)).Wrap(err)
	}

	return nil
}

// flagValues returns the set flags of the application in declaration order.
func (i *Init) flagValues(ktx *kong.Context) yaml.MapSlice {
	var out yaml.MapSlice

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(ignoredFlagPrefixes, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		val := configValue(ktx.FlagValue(flag))
		if val == nil {
			continue
		}

		out = append(out, yaml.MapItem{Key: flag.Name, Value: val})
	}

	return out
}

// configValue returns v in a form suitable for the config file, or nil if v
// is unset or empty.
func configValue(v any) any {
	switch v := v.(type) {
	case string:
		if v == "" {
			return nil
		}

	case []string:
		if len(v) == 0 {
			return nil
		}
	}

	return v
}

// sampleFile builds a small tryouts file showing each kind of section.
func sampleFile() *lang.SourceFile {
	b := lang.NewBuilder()

	return b.File(
		b.Setup(
			b.Comment("Setup runs once before the first tryout."),
			b.Require("json"),
			b.Assign("@greeting", "'hello'"),
			b.Blank(1),
		),
		b.Block(b.Describe("strings can be compared"),
			b.Code("@greeting.upcase"),
			b.Expect("#=>", "'HELLO'"),
		),
		b.Blank(1),
		b.Block(b.Describe("results can be checked by type"),
			b.Code("JSON.parse('[1, 2]')"),
			b.Expect("#=:>", "Array"),
			b.Expect("#==>", "result.size == 2"),
		),
		b.Blank(1),
		b.Block(b.Describe("exceptions are expectations too"),
			b.Code("Integer('x')"),
			b.Expect("#=!>", "ArgumentError"),
		),
		b.Blank(1),
		b.Teardown(b.Comment("Teardown runs once after the last tryout.")),
	)
}
