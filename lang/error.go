package lang

import (
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrUnterminatedString     = NewError("unterminated string literal")
	ErrInvalidCharacter       = NewError("invalid character")
	ErrUnexpectedExpectation  = NewError("expectation outside of a tryout block")
	ErrExpectationWithoutCode = NewError("expectation without code")
	ErrEmptyBlock             = NewError("tryout block has no code and no expectations")
	ErrMissingExpectation     = NewError("tryout block has no expectations")
	ErrMalformedMarker        = NewError("malformed expectation marker")
	ErrEmptySection           = NewError("section has no statements")
	ErrSetupOrder             = NewError("setup section must precede all tryout blocks")
	ErrDuplicateSetup         = NewError("duplicate setup section")
	ErrTeardownOrder          = NewError("teardown section must follow all tryout blocks")
	ErrDuplicateTeardown      = NewError("duplicate teardown section")
	ErrReadInput              = NewError("failed to read input")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg>: <err>" // base and wrapped error both set
	//   2. "<msg>"        // wrapped error is nil
	//   3. "<err>"        // base error message is empty
	//   4. ""             // no fields are set
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the same sentinel as e.
// Derived errors created with [Error.With] or [Error.Wrap] match the sentinel
// they were derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.msg != "" && e.msg == t.msg && t.err == nil && len(t.attrs) == 0
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// ErrorKind classifies a [Diagnostic].
type ErrorKind int

const (
	// LexicalError is an unterminated literal or an invalid character in a
	// structured sub-grammar.
	LexicalError ErrorKind = iota

	// SyntaxError is a token that the current grammar state cannot accept.
	SyntaxError

	// StructuralError is a well-formed construct in an invalid arrangement,
	// found by validation after parsing.
	StructuralError
)

// String returns the name of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case LexicalError:
		return "lexical"
	case SyntaxError:
		return "syntax"
	case StructuralError:
		return "structural"
	default:
		return "unknown"
	}
}

// Severity is the importance of a [Diagnostic].
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// String returns the name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Position is a location in the parsed source.
// Line and Column are 1-based; Column counts bytes.
type Position struct {
	Offset int `json:"offset" yaml:"offset"`
	Line   int `json:"line"   yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// String returns the position formatted as "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Diagnostic is a problem found while parsing or validating a source file.
type Diagnostic struct {
	Err      *Error
	Message  string
	Start    Position
	End      Position
	Severity Severity
	Kind     ErrorKind
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	return d.Start.String() + ": " + d.Kind.String() + " " +
		d.Severity.String() + ": " + d.Message
}

// Unwrap returns the sentinel error the diagnostic was derived from.
func (d Diagnostic) Unwrap() error {
	if d.Err == nil {
		return nil
	}

	return d.Err
}

// LogValue implements slog.LogValuer.
func (d Diagnostic) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("message", d.Message),
		slog.String("kind", d.Kind.String()),
		slog.String("severity", d.Severity.String()),
		slog.String("start", d.Start.String()),
		slog.String("end", d.End.String()),
	)
}

// Snippet renders the source line containing the start of the diagnostic
// with a caret marker under the offending column.
func (d Diagnostic) Snippet(source string) string {
	lineText, ok := d.Start.lineOf(source)
	if !ok {
		return ""
	}

	var buf strings.Builder

	// Print the line with line number
	buf.WriteString("  ")
	buf.WriteString(strconv.Itoa(d.Start.Line))
	buf.WriteString(" | ")
	buf.WriteString(lineText)
	buf.WriteRune('\n')

	// +5 accounts for: 2 leading spaces + " | " (3 chars)
	padding := strings.Repeat(" ", len(strconv.Itoa(d.Start.Line))+5)

	if d.Start.Column > 0 {
		padding += strings.Repeat(" ", d.Start.Column-1)
	}

	width := 1
	if d.End.Line == d.Start.Line && d.End.Column > d.Start.Column {
		width = d.End.Column - d.Start.Column
	}

	buf.WriteString(padding + strings.Repeat("^", width) + "\n")

	return buf.String()
}

// Diagnostics is an ordered list of diagnostics.
type Diagnostics []Diagnostic

// HasErrors reports whether any diagnostic has [SeverityError].
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}

	return false
}

// Count returns the number of diagnostics of the given severity.
func (ds Diagnostics) Count(sev Severity) int {
	n := 0

	for _, d := range ds {
		if d.Severity == sev {
			n++
		}
	}

	return n
}

// OfKind returns the diagnostics of the given kind, in order.
func (ds Diagnostics) OfKind(kind ErrorKind) Diagnostics {
	var out Diagnostics

	for _, d := range ds {
		if d.Kind == kind {
			out = append(out, d)
		}
	}

	return out
}

// Err returns an error joining every error-severity diagnostic, or nil if
// there are none. Warnings are ignored.
func (ds Diagnostics) Err() error {
	var errs []error

	for _, d := range ds {
		if d.Severity == SeverityError {
			errs = append(errs, d)
		}
	}

	return errors.Join(errs...)
}

// sort orders diagnostics by start offset; ties keep their insertion order.
func (ds Diagnostics) sort() {
	sort.SliceStable(ds, func(i, j int) bool {
		return ds[i].Start.Offset < ds[j].Start.Offset
	})
}

// lineOf returns the text of the source line holding p. The offset locates the
// line directly when it agrees with the line and column; otherwise the line
// number alone is used.
func (p Position) lineOf(source string) (string, bool) {
	if p.Line <= 0 {
		return "", false
	}

	if start := p.Offset - (p.Column - 1); p.Column > 0 && start >= 0 &&
		start <= len(source) && (start == 0 || source[start-1] == '\n') {
		line, _, _ := strings.Cut(source[start:], "\n")

		return line, true
	}

	rest := source

	for i := 1; ; i++ {
		line, after, found := strings.Cut(rest, "\n")
		if i == p.Line {
			return line, true
		}

		if !found {
			return "", false
		}

		rest = after
	}
}

// lineIndex maps byte offsets to line/column positions.
type lineIndex []int // offsets of the first byte of each line

func newLineIndex(src string) lineIndex {
	idx := lineIndex{0}

	for i := range len(src) {
		if src[i] == '\n' {
			idx = append(idx, i+1)
		}
	}

	return idx
}

func (idx lineIndex) position(offset int) Position {
	// Index of the last line start <= offset.
	line := sort.Search(len(idx), func(i int) bool { return idx[i] > offset }) - 1
	if line < 0 {
		line = 0
	}

	return Position{
		Offset: offset,
		Line:   line + 1,
		Column: offset - idx[line] + 1,
	}
}
