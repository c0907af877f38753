package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/tryparse/lang"
	"github.com/ardnew/tryparse/log"
)

type (
	contextKey    struct{}
	outputKey     struct{}
	directivesKey struct{}
)

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// WithOutput returns a new context.Context directing command output to w.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

// outputFrom returns the writer set by WithOutput, else the kong application's
// stdout, else os.Stdout.
func outputFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok && w != nil {
		return w
	}

	if ktx := kongContextFrom(ctx); ktx != nil && ktx.Stdout != nil {
		return ktx.Stdout
	}

	return os.Stdout
}

// WithDirectives returns a new context.Context carrying the configuration
// directive names recognized in setup and teardown sections.
func WithDirectives(ctx context.Context, names []string) context.Context {
	return context.WithValue(ctx, directivesKey{}, names)
}

// parseOptions returns the lang options every command parses with.
func parseOptions(ctx context.Context, name string) []lang.Option {
	opts := []lang.Option{
		lang.WithLogger(log.With(slog.String("source", name))),
	}

	if names, ok := ctx.Value(directivesKey{}).([]string); ok && len(names) > 0 {
		opts = append(opts, lang.WithDirectives(names...))
	}

	return opts
}

// Source is the normalized text of one input.
type Source struct {
	Name string
	Text string
}

// parse parses the source with the options carried by ctx.
func (s Source) parse(ctx context.Context) (*lang.SourceFile, lang.Diagnostics) {
	return lang.Parse(ctx, s.Text, parseOptions(ctx, s.Name)...)
}

// lines returns the offsets at which each line of the source begins.
func (s Source) lines() lineStarts {
	starts := lineStarts{0}

	for i := range len(s.Text) {
		if s.Text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}

	return starts
}

// lineStarts holds the ascending byte offsets of each line's first byte.
type lineStarts []int

// line returns the 1-based line number of a byte offset.
func (l lineStarts) line(offset int) int {
	n, found := slices.BinarySearch(l, offset)
	if found {
		return n + 1
	}

	return max(n, 1)
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// stdinName is the name reported for input read from stdin.
const stdinName = "<stdin>"

// normalize converts CRLF and lone CR line endings to LF.
func normalize(text string) string {
	if !strings.Contains(text, "\r") {
		return text
	}

	return strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\r", "\n")
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// readSources reads each named source once, in order, with stdin last.
//
// An empty list reads stdin. Paths naming the same file (through symlinks,
// relative paths or /dev/stdin) are read once. All occurrences of "-" are
// collapsed to a single read of stdin.
func readSources(ctx context.Context, paths []string) ([]Source, error) {
	if len(paths) == 0 {
		paths = []string{stdinSource}
	}

	sources := make([]Source, 0, len(paths))
	seen := make(map[fileKey]struct{})

	// Matches no real file unless stdin has an identity.
	stdinKey := fileKey{dev: ^uint64(0), ino: ^uint64(0)}
	if info, err := os.Stdin.Stat(); err == nil {
		if key, ok := makeFileKey(info); ok {
			stdinKey = key
		}
	}

	hasStdin := false

	for _, path := range paths {
		if path == stdinSource {
			hasStdin = true

			continue
		}

		resolved, key, ok, err := identify(path)
		if err != nil {
			return nil, ErrReadSource.With(slog.String("file", path)).Wrap(err)
		}

		if ok && key == stdinKey {
			hasStdin = true

			continue
		}

		if ok {
			if _, dup := seen[key]; dup {
				log.DebugContext(ctx, "skipping duplicate source", slog.String("file", path))

				continue
			}

			seen[key] = struct{}{}
		}

		b, err := os.ReadFile(resolved)
		if err != nil {
			return nil, ErrReadSource.With(slog.String("file", path)).
				Wrap(lang.ErrReadInput.Wrap(err))
		}

		sources = append(sources, Source{Name: path, Text: normalize(string(b))})
	}

	if hasStdin {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, ErrReadSource.With(slog.String("file", stdinName)).
				Wrap(lang.ErrReadInput.Wrap(err))
		}

		sources = append(sources, Source{Name: stdinName, Text: normalize(string(b))})
	}

	if len(sources) == 0 {
		return nil, ErrNoSource
	}

	return sources, nil
}

// identify resolves path to a real file and returns its identity.
// ok is false when the platform does not expose device and inode numbers.
func identify(path string) (resolved string, key fileKey, ok bool, err error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", key, false, err
	}

	resolved, err = filepath.EvalSymlinks(absPath)
	if err != nil {
		return "", key, false, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", key, false, err
	}

	key, ok = makeFileKey(info)

	return resolved, key, ok, nil
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}
