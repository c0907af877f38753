package lang

import (
	"strings"
	"testing"
)

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		pos      int
		mode     Mode
		wantKind TokenKind
		wantText string
		wantErr  bool
	}{
		{"empty", "", 0, modeTop, TokenEOF, "", false},
		{"past end", "x", 5, modeBlockBody, TokenEOF, "", false},
		{"description marker", "## desc\n", 0, modeTop, TokenDescriptionMarker, "##", false},
		{"description text", "## desc\n", 2, modeTop, TokenText, " desc", false},
		{"newline", "## desc\n", 7, modeTop, TokenNewline, "\n", false},
		{"blank run", "\n  \n\tx", 0, modeTop, TokenBlank, "\n  \n", false},
		{"blank tail", "x\n  ", 2, modeTop, TokenBlank, "  ", false},
		{"expectation at top", "#=> 1", 0, modeTop, TokenExpectationMarker, "#=>", false},
		{"comment marker", "# note", 0, modeTop, TokenCommentMarker, "#", false},
		{"comment marker statement", "# note", 0, modeStatement, TokenCommentMarker, "#", false},
		{"disabled in block", "##=> x", 0, modeBlockBody, TokenExpectationMarker, "##=>", false},
		{"disabled at top", "##=> x", 0, modeTop, TokenDescriptionMarker, "##", false},
		{"true marker", "#==> x", 0, modeBlockBody, TokenExpectationMarker, "#==>", false},
		{"false marker", "#=/=> x", 0, modeBlockBody, TokenExpectationMarker, "#=/=>", false},
		{"regex marker", "#=~> /a/", 0, modeBlockBody, TokenExpectationMarker, "#=~>", false},
		{"output marker", "#=12> out", 0, modeBlockBody, TokenExpectationMarker, "#=12>", false},
		{"typed marker outside block", "#==> x", 0, modeTop, TokenCommentMarker, "#", false},
		{"malformed marker is code", "#=abc> x", 0, modeBlockBody, TokenText, "#=abc> x", false},
		{"comment in block is code", "# note", 0, modeBlockBody, TokenText, "# note", false},
		{"code before inline", "a = 1 #=> 1", 0, modeBlockBody, TokenText, "a = 1 ", false},
		{"inline marker", "a = 1 #=> 1", 6, modeBlockBody, TokenExpectationMarker, "#=>", false},
		{"marker cuts literal", "x = '#=>'", 0, modeBlockBody, TokenText, "x = '", false},
		{"indented marker is code", "  #=> 1", 0, modeBlockBody, TokenText, "  ", false},
		{"require", "require foo", 0, modeStatement, TokenRequire, "require", false},
		{"require alone", "require\n", 0, modeStatement, TokenIdentifier, "require", false},
		{"require_relative", "require_relative 'x'", 0, modeStatement, TokenIdentifier, "require_relative", false},
		{"dotted identifier", "Foo::Bar.baz = 1", 0, modeStatement, TokenIdentifier, "Foo::Bar.baz", false},
		{"at", "@x = 1", 0, modeStatement, TokenAt, "@", false},
		{"at without identifier", "@1 = x", 0, modeStatement, TokenAt, "@", true},
		{"at end of input", "@", 0, modeStatement, TokenAt, "@", true},
		{"space", "  x", 0, modeStatement, TokenSpace, "  ", false},
		{"equals", "x = 1", 2, modeStatement, TokenEquals, "=", false},
		{"quote", "'abc'", 0, modeStatement, TokenQuote, "'", false},
		{"statement text", "(1..3).each", 0, modeStatement, TokenText, "(1..3).each", false},
		{"string contents", "'abc'", 1, modeString('\''), TokenString, "abc", false},
		{"closing quote", "'abc'", 4, modeString('\''), TokenQuote, "'", false},
		{"other quote is content", `"a'b"`, 1, modeString('"'), TokenString, "a'b", false},
		{"unterminated at newline", "'abc\nx'", 1, modeString('\''), TokenString, "abc", true},
		{"unterminated at end", "'abc", 1, modeString('\''), TokenString, "abc", true},
		{"unterminated empty", "'", 1, modeString('\''), TokenString, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := lex(tt.src, tt.pos, tt.mode)

			if tok.Kind != tt.wantKind {
				t.Errorf("expected kind %v, got %v", tt.wantKind, tok.Kind)
			}

			if tok.Text != tt.wantText {
				t.Errorf("expected text %q, got %q", tt.wantText, tok.Text)
			}

			if (err != nil) != tt.wantErr {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLex_UnterminatedSpan(t *testing.T) {
	src := "x = 'abc\n"

	_, err := lex(src, 5, modeString('\''))
	if err == nil {
		t.Fatal("expected lexical error")
	}

	if err.span != (Span{Start: 4, End: 5}) {
		t.Errorf("expected error at opening quote [4,5), got %v", err.span)
	}

	if err.err.Error() != ErrUnterminatedString.Error() {
		t.Errorf("expected %q, got %q", ErrUnterminatedString.Error(), err.err.Error())
	}
}

func TestLex_Pure(t *testing.T) {
	src := "## a\nx #=> 1\n"

	for _, mode := range []Mode{modeTop, modeBlockBody, modeStatement} {
		for pos := range len(src) + 1 {
			a, _ := lex(src, pos, mode)
			b, _ := lex(src, pos, mode)

			if a != b {
				t.Errorf("%v at %d: lex not deterministic: %v != %v", mode, pos, a, b)
			}
		}
	}
}

func TestLex_Reassemble(t *testing.T) {
	inputs := []string{
		"",
		"require 'json'\n\n## desc\n## more\ncode #=> 1\n#==> true\n\n\nteardown\n",
		"#=> stray\n# comment\n@x = 'unterminated\n   \n",
		"no newline at end",
	}

	for _, mode := range []Mode{modeTop, modeBlockBody, modeStatement} {
		for _, src := range inputs {
			var sb strings.Builder

			pos := 0
			for {
				tok, _ := lex(src, pos, mode)
				if tok.Kind == TokenEOF {
					break
				}

				if tok.Span.Start != pos || tok.Span.End <= pos {
					t.Fatalf("%v: token %v does not advance from %d", mode, tok, pos)
				}

				sb.WriteString(tok.Text)
				pos = tok.Span.End
			}

			if got := sb.String(); got != src {
				t.Errorf("%v: tokens reassemble to %q, want %q", mode, got, src)
			}
		}
	}
}

func TestTypedMarkerLen(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"#=> x", 0},
		{"#==> x", 4},
		{"#=/=> x", 5},
		{"#=|> x", 4},
		{"#=*> x", 4},
		{"#=:> x", 4},
		{"#=%> x", 4},
		{"#=!> x", 4},
		{"#=<> x", 4},
		{"#=1> x", 4},
		{"#=42> x", 5},
		{"#=> x", 0},
		{"#=x> x", 0},
		{"#=", 0},
	}

	for _, tt := range tests {
		if got := typedMarkerLen(tt.in); got != tt.want {
			t.Errorf("typedMarkerLen(%q): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestMalformedMarkerLen(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"#=abc> x", 6},
		{"#=?> x", 4},
		{"#=> x", 0},
		{"#==> x", 0},
		{"#=12> x", 0},
		{"#= x >", 0},
		{"#=>", 0},
		{"x = 1", 0},
		{"#=abc", 0},
	}

	for _, tt := range tests {
		if got := malformedMarkerLen(tt.in); got != tt.want {
			t.Errorf("malformedMarkerLen(%q): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}
