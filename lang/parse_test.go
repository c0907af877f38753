package lang

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
)

const fixture = `# setup
require 'json'
require set
@data = '{"a": 1}'
name = "tryouts"
limit = 10 * 2
Familia.configure

## parses json
JSON.parse(@data)
#=> {"a" => 1}

## adds
## numbers
1 + 1 #=> 2

## typed
x = [1, 2]
#==> x.size == 2
#=/=> x.empty?
#=~> /\d/
#=1> hello
##=> disabled

puts "done"
`

func TestParse_Empty(t *testing.T) {
	file, diags := Parse(context.Background(), "")

	if len(file.Items) != 0 {
		t.Errorf("expected 0 items, got %d", len(file.Items))
	}

	if len(diags) != 0 {
		t.Errorf("expected 0 diagnostics, got %d: %v", len(diags), diags)
	}

	if file.Setup() != nil || file.Teardown() != nil {
		t.Error("expected no sections")
	}
}

func TestParse_SingleBlock(t *testing.T) {
	file, diags := Parse(context.Background(), "## desc\ncode\n#=> code\n")

	if len(diags) != 0 {
		t.Fatalf("expected 0 diagnostics, got %v", diags)
	}

	blocks := file.Blocks()
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}

	b := blocks[0]
	if b.Description.Text != "desc" {
		t.Errorf("expected description %q, got %q", "desc", b.Description.Text)
	}

	if len(b.Code) != 1 || b.Code[0].Text != "code" {
		t.Errorf("expected code [code], got %v", b.Code)
	}

	if len(b.Expectations) != 1 {
		t.Fatalf("expected 1 expectation, got %d", len(b.Expectations))
	}

	e := b.Expectations[0]
	if e.Text != "code" || e.Type != ExpectRegular || e.Marker != "#=>" {
		t.Errorf("unexpected expectation: %+v", e)
	}

	if b.Span() != (Span{Start: 0, End: 22}) {
		t.Errorf("expected block span [0,22), got %v", b.Span())
	}
}

func TestParse_Description(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single", "## one\nx\n#=> 1\n", "one"},
		{"merged", "## first line\n## second line\nx\n#=> 1\n", "first line\nsecond line"},
		{"trimmed", "##   spaced out   \nx\n#=> 1\n", "spaced out"},
		{"empty", "##\nx\n#=> 1\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, diags := Parse(context.Background(), tt.input)
			if diags.HasErrors() {
				t.Fatalf("unexpected errors: %v", diags)
			}

			blocks := file.Blocks()
			if len(blocks) != 1 {
				t.Fatalf("expected 1 block, got %d", len(blocks))
			}

			if got := blocks[0].Description.Text; got != tt.want {
				t.Errorf("expected description %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParse_SiblingBlocks(t *testing.T) {
	file, diags := Parse(context.Background(), "## a\nx\n#=> 1\n## b\ny\n#=> 2\n")

	if len(diags) != 0 {
		t.Fatalf("expected 0 diagnostics, got %v", diags)
	}

	blocks := file.Blocks()
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}

	if blocks[0].Description.Text != "a" || blocks[1].Description.Text != "b" {
		t.Errorf("unexpected descriptions %q, %q",
			blocks[0].Description.Text, blocks[1].Description.Text)
	}
}

func TestParse_ExpectationWithoutCode(t *testing.T) {
	file, diags := Parse(context.Background(), "## desc\n#=> 1\n")

	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d: %v", len(diags), diags)
	}

	d := diags[0]
	if d.Kind != StructuralError || d.Severity != SeverityError {
		t.Errorf("expected structural error, got %v %v", d.Kind, d.Severity)
	}

	if !errors.Is(d, ErrExpectationWithoutCode) {
		t.Errorf("expected %v, got %v", ErrExpectationWithoutCode, d.Err)
	}

	if d.Start.Line != 2 || d.Start.Column != 1 {
		t.Errorf("expected position 2:1, got %v", d.Start)
	}

	// The tree survives structural errors.
	if len(file.Blocks()) != 1 {
		t.Errorf("expected 1 block, got %d", len(file.Blocks()))
	}
}

func TestParse_Require(t *testing.T) {
	file, diags := Parse(context.Background(), "require foo\n## t\nx\n#=> 1\n")
	if len(diags) != 0 {
		t.Fatalf("expected 0 diagnostics, got %v", diags)
	}

	setup := file.Setup()
	if setup == nil {
		t.Fatal("expected setup section")
	}

	stmts := setup.Statements()
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}

	req, ok := stmts[0].(*RequireStatement)
	if !ok {
		t.Fatalf("expected *RequireStatement, got %T", stmts[0])
	}

	if req.Target != "foo" || req.Quote != 0 {
		t.Errorf("expected target foo unquoted, got %q %q", req.Target, req.Quote)
	}
}

func TestParse_RequireInBlock(t *testing.T) {
	file, _ := Parse(context.Background(), "## t\nrequire foo\n#=> true\n")

	if file.Setup() != nil {
		t.Error("expected no setup section")
	}

	blocks := file.Blocks()
	if len(blocks) != 1 || len(blocks[0].Code) != 1 {
		t.Fatalf("expected 1 block with 1 code line")
	}

	if got := blocks[0].Code[0].Text; got != "require foo" {
		t.Errorf("expected code %q, got %q", "require foo", got)
	}
}

func TestParse_UnterminatedString(t *testing.T) {
	for _, input := range []string{"x = 'abc\n", "x = 'abc"} {
		file, diags := Parse(context.Background(), input)

		if len(diags) != 1 {
			t.Fatalf("%q: expected 1 diagnostic, got %d: %v", input, len(diags), diags)
		}

		if diags[0].Kind != LexicalError {
			t.Errorf("%q: expected lexical error, got %v", input, diags[0].Kind)
		}

		if !errors.Is(diags[0], ErrUnterminatedString) {
			t.Errorf("%q: expected %v, got %v", input, ErrUnterminatedString, diags[0].Err)
		}

		if diags[0].Start.Column != 5 {
			t.Errorf("%q: expected column 5, got %d", input, diags[0].Start.Column)
		}

		stmts := file.Setup().Statements()
		if len(stmts) != 1 {
			t.Fatalf("%q: expected 1 statement, got %d", input, len(stmts))
		}

		a, ok := stmts[0].(*AssignmentStatement)
		if !ok {
			t.Fatalf("%q: expected *AssignmentStatement, got %T", input, stmts[0])
		}

		lit, ok := a.Value.(*StringLiteral)
		if !ok {
			t.Fatalf("%q: expected *StringLiteral, got %T", input, a.Value)
		}

		if lit.Text != "abc" || lit.Terminated {
			t.Errorf("%q: expected unterminated %q, got %+v", input, "abc", lit)
		}

		if file.String() != input {
			t.Errorf("%q: expected re-serialization to match, got %q", input, file.String())
		}
	}
}

func TestParse_Statements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, s Statement)
	}{
		{
			name:  "comment",
			input: "# a note\n",
			check: func(t *testing.T, s Statement) {
				c := s.(*Comment)
				if c.Text != "a note" {
					t.Errorf("expected %q, got %q", "a note", c.Text)
				}
			},
		},
		{
			name:  "indented comment",
			input: "  # a note\n",
			check: func(t *testing.T, s Statement) {
				c := s.(*Comment)
				if c.Text != "a note" {
					t.Errorf("expected %q, got %q", "a note", c.Text)
				}
			},
		},
		{
			name:  "quoted require",
			input: "require 'json'\n",
			check: func(t *testing.T, s Statement) {
				r := s.(*RequireStatement)
				if r.Target != "json" || r.Quote != '\'' {
					t.Errorf("unexpected require %+v", r)
				}
			},
		},
		{
			name:  "require with trailing text",
			input: "require foo if bar\n",
			check: func(t *testing.T, s Statement) {
				a := s.(*AnyStatement)
				if a.Text != "require foo if bar" {
					t.Errorf("unexpected text %q", a.Text)
				}
			},
		},
		{
			name:  "require_relative",
			input: "require_relative 'helper'\n",
			check: func(t *testing.T, s Statement) {
				if _, ok := s.(*AnyStatement); !ok {
					t.Errorf("expected *AnyStatement, got %T", s)
				}
			},
		},
		{
			name:  "string assignment",
			input: "name = \"tryouts\"\n",
			check: func(t *testing.T, s Statement) {
				a := s.(*AssignmentStatement)
				lit := a.Value.(*StringLiteral)

				if a.Instance || a.Target != "name" {
					t.Errorf("unexpected target %q instance=%v", a.Target, a.Instance)
				}

				if lit.Text != "tryouts" || lit.Quote != '"' || !lit.Terminated {
					t.Errorf("unexpected literal %+v", lit)
				}
			},
		},
		{
			name:  "instance assignment",
			input: "@obj = Foo.new(1)\n",
			check: func(t *testing.T, s Statement) {
				a := s.(*AssignmentStatement)
				v := a.Value.(*AnyValue)

				if !a.Instance || a.Target != "obj" || v.Text != "Foo.new(1)" {
					t.Errorf("unexpected assignment %+v value %q", a, v.Text)
				}
			},
		},
		{
			name:  "literal with trailing text",
			input: "x = 'a' + 'b'\n",
			check: func(t *testing.T, s Statement) {
				a := s.(*AssignmentStatement)
				v, ok := a.Value.(*AnyValue)

				if !ok {
					t.Fatalf("expected *AnyValue, got %T", a.Value)
				}

				if v.Text != "'a' + 'b'" {
					t.Errorf("expected %q, got %q", "'a' + 'b'", v.Text)
				}
			},
		},
		{
			name:  "literal with trailing space",
			input: "x = 'a'  \n",
			check: func(t *testing.T, s Statement) {
				a := s.(*AssignmentStatement)
				if _, ok := a.Value.(*StringLiteral); !ok {
					t.Errorf("expected *StringLiteral, got %T", a.Value)
				}
			},
		},
		{
			name:  "empty assignment",
			input: "x =\n",
			check: func(t *testing.T, s Statement) {
				a := s.(*AssignmentStatement)
				if a.Value != nil {
					t.Errorf("expected no value, got %T", a.Value)
				}
			},
		},
		{
			name:  "dotted target",
			input: "Foo::Bar.baz = 1\n",
			check: func(t *testing.T, s Statement) {
				a := s.(*AssignmentStatement)
				if a.Target != "Foo::Bar.baz" {
					t.Errorf("unexpected target %q", a.Target)
				}
			},
		},
		{
			name:  "directive",
			input: "Familia.configure\n",
			check: func(t *testing.T, s Statement) {
				c := s.(*ConfigurationStatement)
				if c.Directive != "Familia.configure" {
					t.Errorf("unexpected directive %q", c.Directive)
				}
			},
		},
		{
			name:  "bare identifier",
			input: "foo\n",
			check: func(t *testing.T, s Statement) {
				if _, ok := s.(*AnyStatement); !ok {
					t.Errorf("expected *AnyStatement, got %T", s)
				}
			},
		},
		{
			name:  "method call",
			input: "Familia.configure do |config|\n",
			check: func(t *testing.T, s Statement) {
				a := s.(*AnyStatement)
				if a.Text != "Familia.configure do |config|" {
					t.Errorf("unexpected text %q", a.Text)
				}
			},
		},
		{
			name:  "other",
			input: "(1..3).each { |i| puts i }\n",
			check: func(t *testing.T, s Statement) {
				if _, ok := s.(*AnyStatement); !ok {
					t.Errorf("expected *AnyStatement, got %T", s)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, diags := Parse(context.Background(), tt.input)
			if len(diags) != 0 {
				t.Fatalf("expected 0 diagnostics, got %v", diags)
			}

			setup := file.Setup()
			if setup == nil {
				t.Fatal("expected setup section")
			}

			stmts := setup.Statements()
			if len(stmts) != 1 {
				t.Fatalf("expected 1 statement, got %d", len(stmts))
			}

			tt.check(t, stmts[0])

			if file.String() != tt.input {
				t.Errorf("expected re-serialization %q, got %q", tt.input, file.String())
			}
		})
	}
}

func TestParse_InvalidInstance(t *testing.T) {
	file, diags := Parse(context.Background(), "@1 = x\n")

	if len(diags) != 1 || diags[0].Kind != LexicalError {
		t.Fatalf("expected 1 lexical error, got %v", diags)
	}

	if !errors.Is(diags[0], ErrInvalidCharacter) {
		t.Errorf("expected %v, got %v", ErrInvalidCharacter, diags[0].Err)
	}

	stmts := file.Setup().Statements()
	if a, ok := stmts[0].(*AnyStatement); !ok || a.Text != "@1 = x" {
		t.Errorf("expected AnyStatement %q, got %#v", "@1 = x", stmts[0])
	}
}

func TestParse_WithDirectives(t *testing.T) {
	file, _ := Parse(context.Background(), "App.setup\nboot\n", WithDirectives("setup"))

	stmts := file.Setup().Statements()
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}

	if _, ok := stmts[0].(*ConfigurationStatement); !ok {
		t.Errorf("expected App.setup to be a directive, got %T", stmts[0])
	}

	if _, ok := stmts[1].(*AnyStatement); !ok {
		t.Errorf("expected boot to be unclassified, got %T", stmts[1])
	}
}

func TestParse_Teardown(t *testing.T) {
	file, diags := Parse(context.Background(), "## t\nx\n#=> 1\ny = 2\n")
	if len(diags) != 0 {
		t.Fatalf("expected 0 diagnostics, got %v", diags)
	}

	td := file.Teardown()
	if td == nil {
		t.Fatal("expected teardown section")
	}

	stmts := td.Statements()
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}

	if a, ok := stmts[0].(*AssignmentStatement); !ok || a.Target != "y" {
		t.Errorf("expected assignment to y, got %#v", stmts[0])
	}
}

func TestParse_UnexpectedExpectation(t *testing.T) {
	src := "#=> 1\n#=> 2\nrequire foo\n## t\nx\n#=> 1\n"

	file, diags := Parse(context.Background(), src)

	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d: %v", len(diags), diags)
	}

	if diags[0].Kind != SyntaxError || !errors.Is(diags[0], ErrUnexpectedExpectation) {
		t.Errorf("expected unexpected-expectation syntax error, got %v", diags[0])
	}

	if diags[0].Start.Line != 1 || diags[0].End.Line != 2 {
		t.Errorf("expected lines 1-2, got %v-%v", diags[0].Start, diags[0].End)
	}

	stmts := file.Setup().Statements()
	if len(stmts) != 1 {
		t.Fatalf("expected parsing to resume at require, got %d statements", len(stmts))
	}

	if _, ok := stmts[0].(*RequireStatement); !ok {
		t.Errorf("expected *RequireStatement, got %T", stmts[0])
	}

	if len(file.Blocks()) != 1 {
		t.Errorf("expected 1 block, got %d", len(file.Blocks()))
	}
}

func TestParse_BlockBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		blocks    int
		teardown  int // statements in teardown
		warnings  int
		errs      int
		lastCodes int // code lines in the last block
	}{
		{"blank ends block", "## a\nx\n#=> 1\n\n## b\ny\n#=> 2\n", 2, 0, 0, 0, 1},
		{"code after expectation", "## a\nx\n#=> 1\ncleanup\n", 1, 1, 0, 0, 1},
		{"comment is code", "## a\nx\n# note\ny\n#=> 1\n", 1, 0, 0, 0, 3},
		{"sibling after code", "## a\nx\n## b\ny\n#=> 2\n", 2, 0, 1, 0, 1},
		{"empty block", "## nothing\n\n## t\nx\n#=> 1\n", 2, 0, 0, 1, 1},
		{"multiple code lines", "## a\nx = 1\ny = 2\nx + y\n#=> 3\n", 1, 0, 0, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, diags := Parse(context.Background(), tt.input)

			blocks := file.Blocks()
			if len(blocks) != tt.blocks {
				t.Fatalf("expected %d blocks, got %d", tt.blocks, len(blocks))
			}

			n := 0
			if td := file.Teardown(); td != nil {
				n = len(td.Statements())
			}

			if n != tt.teardown {
				t.Errorf("expected %d teardown statements, got %d", tt.teardown, n)
			}

			if got := diags.Count(SeverityWarning); got != tt.warnings {
				t.Errorf("expected %d warnings, got %d: %v", tt.warnings, got, diags)
			}

			if got := diags.Count(SeverityError); got != tt.errs {
				t.Errorf("expected %d errors, got %d: %v", tt.errs, got, diags)
			}

			if got := len(blocks[len(blocks)-1].Code); got != tt.lastCodes {
				t.Errorf("expected %d code lines, got %d", tt.lastCodes, got)
			}

			if file.String() != tt.input {
				t.Errorf("expected re-serialization %q, got %q", tt.input, file.String())
			}
		})
	}
}

func TestParse_InlineExpectation(t *testing.T) {
	file, diags := Parse(context.Background(), "## t\n1 + 1 #=> 2\n")
	if len(diags) != 0 {
		t.Fatalf("expected 0 diagnostics, got %v", diags)
	}

	b := file.Blocks()[0]
	if len(b.Code) != 1 || b.Code[0].Text != "1 + 1 " {
		t.Fatalf("unexpected code %v", b.Code)
	}

	if len(b.Expectations) != 1 {
		t.Fatalf("expected 1 expectation, got %d", len(b.Expectations))
	}

	e := b.Expectations[0]
	if !e.Inline || e.Text != "2" {
		t.Errorf("unexpected expectation %+v", e)
	}
}

func TestParse_ExpectationKinds(t *testing.T) {
	tests := []struct {
		marker string
		want   ExpectationKind
		pipe   int
	}{
		{"#=>", ExpectRegular, 0},
		{"#==>", ExpectTrue, 0},
		{"#=/=>", ExpectFalse, 0},
		{"#=|>", ExpectBoolean, 0},
		{"#=*>", ExpectNonNil, 0},
		{"#=:>", ExpectResultType, 0},
		{"#=~>", ExpectRegex, 0},
		{"#=%>", ExpectPerformance, 0},
		{"#=!>", ExpectException, 0},
		{"#=<>", ExpectIntentionalFailure, 0},
		{"#=2>", ExpectOutput, 2},
		{"##=>", ExpectDisabled, 0},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			file, diags := Parse(context.Background(), "## t\nx\n"+tt.marker+" value\n")
			if len(diags) != 0 {
				t.Fatalf("expected 0 diagnostics, got %v", diags)
			}

			exps := file.Blocks()[0].Expectations
			if len(exps) != 1 {
				t.Fatalf("expected 1 expectation, got %d", len(exps))
			}

			e := exps[0]
			if e.Type != tt.want || e.Pipe != tt.pipe || e.Marker != tt.marker {
				t.Errorf("expected %v pipe %d, got %v pipe %d", tt.want, tt.pipe, e.Type, e.Pipe)
			}

			if e.Text != "value" {
				t.Errorf("expected text %q, got %q", "value", e.Text)
			}
		})
	}
}

func TestParse_MalformedMarker(t *testing.T) {
	file, diags := Parse(context.Background(), "## t\n#=abc> 1\n#=> 1\n")

	if diags.HasErrors() {
		t.Fatalf("expected no errors, got %v", diags)
	}

	if len(diags) != 1 || !errors.Is(diags[0], ErrMalformedMarker) {
		t.Fatalf("expected 1 malformed marker warning, got %v", diags)
	}

	if diags[0].Severity != SeverityWarning {
		t.Errorf("expected warning, got %v", diags[0].Severity)
	}

	if code := file.Blocks()[0].Code; len(code) != 1 || code[0].Text != "#=abc> 1" {
		t.Errorf("expected marker line kept as code, got %v", code)
	}
}

func TestParse_BlankLines(t *testing.T) {
	file, _ := Parse(context.Background(), "require a\n\n\nrequire b\n\n## t\nx\n#=> 1\n\n\n")

	setup := file.Setup()
	if setup == nil {
		t.Fatal("expected setup section")
	}

	// Blank runs between statements stay in the section.
	if len(setup.Body) != 4 || len(setup.Statements()) != 2 {
		t.Fatalf("expected 4 body nodes and 2 statements, got %d and %d",
			len(setup.Body), len(setup.Statements()))
	}

	blank, ok := setup.Body[1].(*BlankLine)
	if !ok || blank.Lines != 2 {
		t.Errorf("expected 2-line blank run, got %#v", setup.Body[1])
	}

	last, ok := file.Items[len(file.Items)-1].(*BlankLine)
	if !ok || last.Lines != 2 {
		t.Errorf("expected trailing 2-line blank run, got %#v", file.Items[len(file.Items)-1])
	}
}

func TestParse_Fixture(t *testing.T) {
	file, diags := Parse(context.Background(), fixture)
	if len(diags) != 0 {
		t.Fatalf("expected 0 diagnostics, got %v", diags)
	}

	if len(file.Items) != 8 {
		t.Fatalf("expected 8 items, got %d", len(file.Items))
	}

	kinds := make([]NodeKind, 0, 7)
	for _, s := range file.Setup().Statements() {
		kinds = append(kinds, s.Kind())
	}

	want := []NodeKind{
		KindComment,
		KindRequireStatement,
		KindRequireStatement,
		KindAssignmentStatement,
		KindAssignmentStatement,
		KindAssignmentStatement,
		KindConfigurationStatement,
	}

	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("expected setup kinds %v, got %v", want, kinds)
	}

	blocks := file.Blocks()
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}

	if blocks[1].Description.Text != "adds\nnumbers" {
		t.Errorf("unexpected description %q", blocks[1].Description.Text)
	}

	if n := len(blocks[2].Expectations); n != 5 {
		t.Errorf("expected 5 expectations, got %d", n)
	}

	if file.Teardown() == nil || len(file.Teardown().Statements()) != 1 {
		t.Error("expected teardown with one statement")
	}
}

func TestParse_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		fixture,
		"## t\n1 + 1 #=> 2",
		"x = 'abc\n## t\nx\n",
		"\n\n   \n",
		"##\n##\n\n#\n",
	}

	for _, src := range inputs {
		first, _ := Parse(context.Background(), src)

		text := first.String()
		if text != src {
			t.Errorf("expected %q to re-serialize unchanged, got %q", src, text)
		}

		second, _ := Parse(context.Background(), text)

		if !reflect.DeepEqual(first.ToMap(), second.ToMap()) {
			t.Errorf("re-parsing %q produced a different tree", src)
		}

		if second.String() != text {
			t.Errorf("second re-serialization of %q differs", src)
		}
	}
}

func TestParse_DiagnosticsOrdered(t *testing.T) {
	src := "## a\n#=> 1\n\n## b\nx\n\n## c\ny\n#=> 1\nz = 'open\n"

	_, diags := Parse(context.Background(), src)

	if len(diags) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d: %v", len(diags), diags)
	}

	for i := 1; i < len(diags); i++ {
		if diags[i].Start.Offset < diags[i-1].Start.Offset {
			t.Errorf("diagnostics out of order: %v before %v", diags[i-1], diags[i])
		}
	}

	wantKinds := []ErrorKind{StructuralError, StructuralError, LexicalError}
	for i, want := range wantKinds {
		if diags[i].Kind != want {
			t.Errorf("diagnostic %d: expected %v, got %v", i, want, diags[i].Kind)
		}
	}
}

func TestParse_Concurrent(t *testing.T) {
	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()

			src := strings.Repeat("## t\nx\n#=> 1\n\n", n+1)

			file, diags := Parse(context.Background(), src)
			if len(diags) != 0 || len(file.Blocks()) != n+1 {
				t.Errorf("parse %d: got %d blocks, %d diagnostics", n, len(file.Blocks()), len(diags))
			}
		}(i)
	}

	wg.Wait()
}

func TestSourceFile_All(t *testing.T) {
	file, _ := Parse(context.Background(), "x = 'a'\n## t\ny\n#=> 1\n")

	var kinds []NodeKind
	for n := range file.All() {
		kinds = append(kinds, n.Kind())
	}

	want := []NodeKind{
		KindSourceFile,
		KindSetupSection,
		KindAssignmentStatement,
		KindStringLiteral,
		KindTryoutBlock,
		KindTryoutDescription,
		KindCodeLine,
		KindExpectation,
	}

	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("expected %v, got %v", want, kinds)
	}

	count := 0
	for range file.All() {
		count++
		if count == 3 {
			break
		}
	}

	if count != 3 {
		t.Errorf("expected early exit after 3 nodes, got %d", count)
	}
}

func TestPosition(t *testing.T) {
	idx := newLineIndex("ab\ncd\n\nef")

	tests := []struct {
		offset    int
		line, col int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{6, 3, 1},
		{7, 4, 1},
		{9, 4, 3},
	}

	for _, tt := range tests {
		p := idx.position(tt.offset)
		if p.Line != tt.line || p.Column != tt.col {
			t.Errorf("offset %d: expected %d:%d, got %v", tt.offset, tt.line, tt.col, p)
		}
	}
}
