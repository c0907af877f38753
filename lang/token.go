package lang

import "strconv"

// TokenKind identifies the lexical category of a [Token].
type TokenKind int

const (
	TokenEOF               TokenKind = iota // end of input
	TokenNewline                            // "\n"
	TokenBlank                              // run of whitespace-only lines
	TokenDescriptionMarker                  // "##"
	TokenExpectationMarker                  // "#=>" and typed variants
	TokenCommentMarker                      // "#"
	TokenText                               // raw text up to end of line
	TokenSpace                              // horizontal whitespace
	TokenRequire                            // "require"
	TokenAt                                 // "@"
	TokenIdentifier                         // dotted identifier
	TokenEquals                             // "="
	TokenQuote                              // "'" or "\""
	TokenString                             // string literal contents
)

var tokenKindNames = [...]string{
	TokenEOF:               "EOF",
	TokenNewline:           "Newline",
	TokenBlank:             "Blank",
	TokenDescriptionMarker: "DescriptionMarker",
	TokenExpectationMarker: "ExpectationMarker",
	TokenCommentMarker:     "CommentMarker",
	TokenText:              "Text",
	TokenSpace:             "Space",
	TokenRequire:           "Require",
	TokenAt:                "At",
	TokenIdentifier:        "Identifier",
	TokenEquals:            "Equals",
	TokenQuote:             "Quote",
	TokenString:            "String",
}

// String returns the name of the token kind.
func (k TokenKind) String() string {
	if k >= 0 && int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}

	return "TokenKind(" + strconv.Itoa(int(k)) + ")"
}

// Span is a half-open byte range [Start, End) into the parsed source.
type Span struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end"   yaml:"end"`
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether offset lies within the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// join returns the smallest span covering both s and o.
// A zero-length span at offset 0 is treated as empty.
func (s Span) join(o Span) Span {
	if s == (Span{}) {
		return o
	}

	if o == (Span{}) {
		return s
	}

	return Span{Start: min(s.Start, o.Start), End: max(s.End, o.End)}
}

// Token is a single lexeme produced by the lexer.
type Token struct {
	Kind TokenKind
	Span Span
	Text string
}

// String returns a debug representation of the token.
func (t Token) String() string {
	return t.Kind.String() + "(" + strconv.Quote(t.Text) + ")@" +
		strconv.Itoa(t.Span.Start)
}

// ModeKind enumerates the lexer modes selected by the parser.
type ModeKind int

const (
	// ModeTop recognizes line-start markers, blank-line runs and raw line
	// text outside any tryout block.
	ModeTop ModeKind = iota

	// ModeBlockBody recognizes description continuations, expectation
	// markers, raw code text and block terminators.
	ModeBlockBody

	// ModeStatement recognizes the structured setup/teardown sub-grammar.
	ModeStatement

	// ModeString consumes a quoted literal up to its matching quote.
	ModeString
)

// String returns the name of the mode kind.
func (k ModeKind) String() string {
	switch k {
	case ModeTop:
		return "Top"
	case ModeBlockBody:
		return "BlockBody"
	case ModeStatement:
		return "Statement"
	case ModeString:
		return "String"
	default:
		return "ModeKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Mode is the lexer context supplied by the parser with every request.
// Quote is only meaningful for [ModeString].
type Mode struct {
	Kind  ModeKind
	Quote byte
}

var (
	modeTop       = Mode{Kind: ModeTop}
	modeBlockBody = Mode{Kind: ModeBlockBody}
	modeStatement = Mode{Kind: ModeStatement}
)

func modeString(quote byte) Mode {
	return Mode{Kind: ModeString, Quote: quote}
}

// String returns a debug representation of the mode.
func (m Mode) String() string {
	if m.Kind == ModeString {
		return m.Kind.String() + "(" + string(m.Quote) + ")"
	}

	return m.Kind.String()
}
