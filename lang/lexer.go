package lang

import (
	"log/slog"
	"strings"
)

// lexError is a lexical problem found while producing a token.
// The token returned alongside it is still usable as a best-effort lexeme.
type lexError struct {
	err  *Error
	span Span
}

// lex returns the token starting at pos in src under the given mode.
// It is a pure function of its arguments: the new cursor is the end of the
// returned token's span.
func lex(src string, pos int, mode Mode) (Token, *lexError) {
	if mode.Kind == ModeString {
		return lexString(src, min(pos, len(src)), mode.Quote)
	}

	if pos >= len(src) {
		return Token{Kind: TokenEOF, Span: Span{Start: len(src), End: len(src)}}, nil
	}

	// At line start, with no token open, blank-line runs and markers take
	// priority over any other interpretation of the line.
	if atLineStart(src, pos) {
		if end := scanBlank(src, pos); end > pos {
			return makeToken(src, TokenBlank, pos, end), nil
		}

		if tok, ok := lexMarker(src, pos, mode); ok {
			return tok, nil
		}
	}

	if src[pos] == '\n' {
		return makeToken(src, TokenNewline, pos, pos+1), nil
	}

	switch mode.Kind {
	case ModeBlockBody:
		return lexCodeText(src, pos), nil

	case ModeStatement:
		return lexStatement(src, pos)

	default:
		return makeToken(src, TokenText, pos, lineEnd(src, pos)), nil
	}
}

// lexMarker recognizes the '#'-prefixed markers that may open a line.
func lexMarker(src string, pos int, mode Mode) (Token, bool) {
	rest := src[pos:]
	if !strings.HasPrefix(rest, "#") {
		return Token{}, false
	}

	if mode.Kind == ModeBlockBody {
		if strings.HasPrefix(rest, disabledMarker) {
			return makeToken(src, TokenExpectationMarker, pos, pos+len(disabledMarker)), true
		}
	}

	if strings.HasPrefix(rest, "##") {
		return makeToken(src, TokenDescriptionMarker, pos, pos+2), true
	}

	if strings.HasPrefix(rest, expectationMarker) {
		return makeToken(src, TokenExpectationMarker, pos, pos+len(expectationMarker)), true
	}

	if mode.Kind == ModeBlockBody {
		if n := typedMarkerLen(rest); n > 0 {
			return makeToken(src, TokenExpectationMarker, pos, pos+n), true
		}

		// Any other '#' line inside a block is code.
		return Token{}, false
	}

	return makeToken(src, TokenCommentMarker, pos, pos+1), true
}

// lexCodeText captures raw code up to the end of the line. The exact
// sequence "#=>" always closes the code text, and is itself returned as an
// inline expectation marker when the cursor reaches it.
func lexCodeText(src string, pos int) Token {
	if strings.HasPrefix(src[pos:], expectationMarker) {
		return makeToken(src, TokenExpectationMarker, pos, pos+len(expectationMarker))
	}

	end := lineEnd(src, pos)
	if i := strings.Index(src[pos:end], expectationMarker); i >= 0 {
		end = pos + i
	}

	return makeToken(src, TokenText, pos, end)
}

// lexStatement recognizes the setup/teardown statement sub-grammar, falling
// back to raw text capture for anything else.
func lexStatement(src string, pos int) (Token, *lexError) {
	c := src[pos]

	switch {
	case isHSpace(c):
		end := pos + 1
		for end < len(src) && isHSpace(src[end]) {
			end++
		}

		return makeToken(src, TokenSpace, pos, end), nil

	case c == '@':
		tok := makeToken(src, TokenAt, pos, pos+1)

		next := pos + 1
		if next >= len(src) || !isIdentStart(src[next]) {
			end := min(next+1, len(src))
			if next < len(src) && src[next] == '\n' {
				end = next
			}

			return tok, &lexError{
				err: ErrInvalidCharacter.With(
					slog.String("after", "@"),
					slog.String("found", describeByte(src, next)),
				),
				span: Span{Start: pos, End: end},
			}
		}

		return tok, nil

	case c == '=':
		return makeToken(src, TokenEquals, pos, pos+1), nil

	case c == '\'' || c == '"':
		return makeToken(src, TokenQuote, pos, pos+1), nil

	case isIdentStart(c):
		end := pos + 1
		for end < len(src) && isIdentContinue(src[end]) {
			end++
		}

		if src[pos:end] == requireKeyword && end < len(src) && isHSpace(src[end]) {
			return makeToken(src, TokenRequire, pos, end), nil
		}

		return makeToken(src, TokenIdentifier, pos, end), nil
	}

	return makeToken(src, TokenText, pos, lineEnd(src, pos)), nil
}

// lexString consumes literal contents up to the matching quote on the same
// physical line. There is no escape processing.
func lexString(src string, pos int, quote byte) (Token, *lexError) {
	if pos < len(src) && src[pos] == quote {
		return makeToken(src, TokenQuote, pos, pos+1), nil
	}

	end := lineEnd(src, pos)
	if i := strings.IndexByte(src[pos:end], quote); i >= 0 {
		return makeToken(src, TokenString, pos, pos+i), nil
	}

	// The opening quote immediately precedes the contents.
	open := max(pos-1, 0)

	return makeToken(src, TokenString, pos, end), &lexError{
		err:  ErrUnterminatedString.With(slog.String("quote", string(quote))),
		span: Span{Start: open, End: open + 1},
	}
}

// scanBlank returns the end of the run of whitespace-only lines starting at
// pos, or pos if the line at pos has visible content.
func scanBlank(src string, pos int) int {
	end := pos

	for i := pos; i < len(src); {
		j := i
		for j < len(src) && isHSpace(src[j]) {
			j++
		}

		if j == len(src) {
			return j
		}

		if src[j] != '\n' {
			break
		}

		i = j + 1
		end = i
	}

	return end
}

// Marker spellings.
const (
	expectationMarker = "#=>"
	disabledMarker    = "##=>"
	requireKeyword    = "require"
)

// typedMarkers lists the fixed-spelling expectation markers other than "#=>".
var typedMarkers = []string{
	"#==>", "#=/=>", "#=|>", "#=*>", "#=:>", "#=~>", "#=%>", "#=!>", "#=<>",
}

// typedMarkerLen returns the length of the typed expectation marker at the
// start of s, or 0 if there is none. Output markers are "#=" digits ">".
func typedMarkerLen(s string) int {
	for _, m := range typedMarkers {
		if strings.HasPrefix(s, m) {
			return len(m)
		}
	}

	if !strings.HasPrefix(s, "#=") {
		return 0
	}

	i := 2
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}

	if i > 2 && i < len(s) && s[i] == '>' {
		return i + 1
	}

	return 0
}

// malformedMarkerLen returns the length of a marker-like prefix "#=...>"
// that is not a known expectation marker, or 0.
func malformedMarkerLen(s string) int {
	if !strings.HasPrefix(s, "#=") || typedMarkerLen(s) > 0 ||
		strings.HasPrefix(s, expectationMarker) {
		return 0
	}

	for i := 2; i < len(s); i++ {
		switch c := s[i]; {
		case c == '>':
			if i == 2 {
				return 0
			}

			return i + 1

		case c == '\n' || isHSpace(c):
			return 0
		}
	}

	return 0
}

func makeToken(src string, kind TokenKind, start, end int) Token {
	return Token{
		Kind: kind,
		Span: Span{Start: start, End: end},
		Text: src[start:end],
	}
}

func atLineStart(src string, pos int) bool {
	return pos == 0 || src[pos-1] == '\n'
}

func lineEnd(src string, pos int) int {
	if i := strings.IndexByte(src[pos:], '\n'); i >= 0 {
		return pos + i
	}

	return len(src)
}

func describeByte(src string, pos int) string {
	switch {
	case pos >= len(src):
		return "end of input"
	case src[pos] == '\n':
		return "end of line"
	default:
		return string(src[pos])
	}
}

// Character classification

func isHSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentContinue(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == ':' || c == '.'
}
