package lang

import (
	"context"
	"io"
	"iter"
	"strconv"
	"strings"
)

// NodeKind identifies the type of a [Node].
type NodeKind int

const (
	KindSourceFile NodeKind = iota
	KindSetupSection
	KindTeardownSection
	KindTryoutBlock
	KindTryoutDescription
	KindCodeLine
	KindExpectation
	KindComment
	KindRequireStatement
	KindAssignmentStatement
	KindConfigurationStatement
	KindAnyStatement
	KindStringLiteral
	KindAnyValue
	KindBlankLine
)

var nodeKindNames = [...]string{
	KindSourceFile:             "source_file",
	KindSetupSection:           "setup_section",
	KindTeardownSection:        "teardown_section",
	KindTryoutBlock:            "tryout_block",
	KindTryoutDescription:      "tryout_description",
	KindCodeLine:               "code_line",
	KindExpectation:            "expectation",
	KindComment:                "comment",
	KindRequireStatement:       "require_statement",
	KindAssignmentStatement:    "assignment_statement",
	KindConfigurationStatement: "configuration_statement",
	KindAnyStatement:           "any_statement",
	KindStringLiteral:          "string_literal",
	KindAnyValue:               "any_value",
	KindBlankLine:              "blank_line",
}

// String returns the snake_case name of the node kind.
func (k NodeKind) String() string {
	if k >= 0 && int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}

	return "NodeKind(" + strconv.Itoa(int(k)) + ")"
}

// Node is implemented by every element of the syntax tree.
type Node interface {
	Kind() NodeKind
	Span() Span
	// Lexemes yields the source tokens covered by the node, in order.
	Lexemes() iter.Seq[Token]
}

// Statement is a line in a setup or teardown section:
// [*Comment], [*RequireStatement], [*AssignmentStatement],
// [*ConfigurationStatement] or [*AnyStatement].
type Statement interface {
	Node
	statementNode()
}

// Value is the right-hand side of an [AssignmentStatement]:
// [*StringLiteral] or [*AnyValue].
type Value interface {
	Node
	// Raw returns the value as written, without surrounding whitespace.
	Raw() string
	valueNode()
}

// NodeBase holds the span and the tokens owned by a line-level node.
type NodeBase struct {
	span   Span
	tokens []Token
}

func newNodeBase(tokens []Token) NodeBase {
	var span Span
	if len(tokens) > 0 {
		span = Span{Start: tokens[0].Span.Start, End: tokens[len(tokens)-1].Span.End}
	}

	return NodeBase{span: span, tokens: tokens}
}

// Span returns the byte range covered by the node.
func (b *NodeBase) Span() Span { return b.span }

// Tokens returns a copy of the tokens owned by the node.
func (b *NodeBase) Tokens() []Token {
	return append([]Token(nil), b.tokens...)
}

// Lexemes yields the tokens owned by the node.
func (b *NodeBase) Lexemes() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for _, tok := range b.tokens {
			if !yield(tok) {
				return
			}
		}
	}
}

// SourceFile is the root of the syntax tree.
//
// Items holds, in source order, the setup [*Section], every [*TryoutBlock],
// the teardown [*Section] and any [*BlankLine] runs between them.
type SourceFile struct {
	Items []Node
	span  Span
}

func (f *SourceFile) Kind() NodeKind { return KindSourceFile }
func (f *SourceFile) Span() Span     { return f.span }

// Lexemes yields every token of the file in source order. Concatenating
// their text reproduces the parsed source, less any discarded lines.
func (f *SourceFile) Lexemes() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for _, item := range f.Items {
			for tok := range item.Lexemes() {
				if !yield(tok) {
					return
				}
			}
		}
	}
}

// Setup returns the first setup section, or nil.
func (f *SourceFile) Setup() *Section {
	return f.section(SectionSetup)
}

// Teardown returns the first teardown section, or nil.
func (f *SourceFile) Teardown() *Section {
	return f.section(SectionTeardown)
}

func (f *SourceFile) section(kind SectionKind) *Section {
	for _, item := range f.Items {
		if s, ok := item.(*Section); ok && s.Phase == kind {
			return s
		}
	}

	return nil
}

// Blocks returns the tryout blocks in source order.
func (f *SourceFile) Blocks() []*TryoutBlock {
	var blocks []*TryoutBlock

	for _, item := range f.Items {
		if b, ok := item.(*TryoutBlock); ok {
			blocks = append(blocks, b)
		}
	}

	return blocks
}

// All returns a depth-first, pre-order iterator over every node in the file,
// starting with the file itself.
func (f *SourceFile) All() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		walk(f, yield)
	}
}

func walk(n Node, yield func(Node) bool) bool {
	if !yield(n) {
		return false
	}

	for _, c := range children(n) {
		if !walk(c, yield) {
			return false
		}
	}

	return true
}

// children returns the direct descendants of n.
func children(n Node) []Node {
	var out []Node

	switch n := n.(type) {
	case *SourceFile:
		out = append(out, n.Items...)

	case *Section:
		out = append(out, n.Body...)

	case *TryoutBlock:
		if n.Description != nil {
			out = append(out, n.Description)
		}

		for _, c := range n.Code {
			out = append(out, c)
		}

		for _, e := range n.Expectations {
			out = append(out, e)
		}

	case *AssignmentStatement:
		if n.Value != nil {
			out = append(out, n.Value)
		}
	}

	return out
}

// String returns the canonical textual form of the file.
func (f *SourceFile) String() string {
	var sb strings.Builder

	for tok := range f.Lexemes() {
		sb.WriteString(tok.Text)
	}

	return sb.String()
}

// SectionKind distinguishes setup from teardown.
type SectionKind int

const (
	SectionSetup SectionKind = iota
	SectionTeardown
)

// String returns the name of the section kind.
func (k SectionKind) String() string {
	if k == SectionTeardown {
		return "teardown"
	}

	return "setup"
}

// Section is the setup code before the first tryout block or the teardown
// code after the last one.
type Section struct {
	Phase SectionKind
	// Body holds statements and interior [*BlankLine] runs in source order.
	Body []Node
	span Span
}

func (s *Section) Kind() NodeKind {
	if s.Phase == SectionTeardown {
		return KindTeardownSection
	}

	return KindSetupSection
}

func (s *Section) Span() Span { return s.span }

func (s *Section) Lexemes() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for _, n := range s.Body {
			for tok := range n.Lexemes() {
				if !yield(tok) {
					return
				}
			}
		}
	}
}

// Statements returns the statements of the section, skipping blank lines.
func (s *Section) Statements() []Statement {
	var out []Statement

	for _, n := range s.Body {
		if st, ok := n.(Statement); ok {
			out = append(out, st)
		}
	}

	return out
}

// TryoutBlock is one test case: a description, the code under test and the
// expected results. All code lines precede all expectations.
type TryoutBlock struct {
	Description  *TryoutDescription
	Code         []*CodeLine
	Expectations []*Expectation
	span         Span
}

func (b *TryoutBlock) Kind() NodeKind { return KindTryoutBlock }
func (b *TryoutBlock) Span() Span     { return b.span }

func (b *TryoutBlock) Lexemes() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for _, c := range children(b) {
			for tok := range c.Lexemes() {
				if !yield(tok) {
					return
				}
			}
		}
	}
}

// CodeText returns the block's code lines joined by newlines.
func (b *TryoutBlock) CodeText() string {
	lines := make([]string, len(b.Code))
	for i, c := range b.Code {
		lines[i] = c.Text
	}

	return strings.Join(lines, "\n")
}

// TryoutDescription is the text of one or more consecutive "##" lines.
type TryoutDescription struct {
	NodeBase
	// Text is each line trimmed and joined with "\n".
	Text string
}

func (d *TryoutDescription) Kind() NodeKind { return KindTryoutDescription }

// CodeLine is one line of code under test, without its newline.
type CodeLine struct {
	NodeBase
	Text string
}

func (c *CodeLine) Kind() NodeKind { return KindCodeLine }

// ExpectationKind is the assertion style selected by an expectation marker.
type ExpectationKind int

const (
	ExpectRegular            ExpectationKind = iota // #=>
	ExpectTrue                                      // #==>
	ExpectFalse                                     // #=/=>
	ExpectBoolean                                   // #=|>
	ExpectNonNil                                    // #=*>
	ExpectResultType                                // #=:>
	ExpectRegex                                     // #=~>
	ExpectPerformance                               // #=%>
	ExpectException                                 // #=!>
	ExpectIntentionalFailure                        // #=<>
	ExpectOutput                                    // #=N>
	ExpectDisabled                                  // ##=>
)

var expectationKindNames = [...]string{
	ExpectRegular:            "regular",
	ExpectTrue:               "true",
	ExpectFalse:              "false",
	ExpectBoolean:            "boolean",
	ExpectNonNil:             "non_nil",
	ExpectResultType:         "result_type",
	ExpectRegex:              "regex",
	ExpectPerformance:        "performance",
	ExpectException:          "exception",
	ExpectIntentionalFailure: "intentional_failure",
	ExpectOutput:             "output",
	ExpectDisabled:           "disabled",
}

// String returns the name of the expectation kind.
func (k ExpectationKind) String() string {
	if k >= 0 && int(k) < len(expectationKindNames) {
		return expectationKindNames[k]
	}

	return "ExpectationKind(" + strconv.Itoa(int(k)) + ")"
}

var markerKinds = map[string]ExpectationKind{
	"#=>":   ExpectRegular,
	"#==>":  ExpectTrue,
	"#=/=>": ExpectFalse,
	"#=|>":  ExpectBoolean,
	"#=*>":  ExpectNonNil,
	"#=:>":  ExpectResultType,
	"#=~>":  ExpectRegex,
	"#=%>":  ExpectPerformance,
	"#=!>":  ExpectException,
	"#=<>":  ExpectIntentionalFailure,
	"##=>":  ExpectDisabled,
}

// ParseMarker returns the expectation kind spelled by marker. For output
// markers ("#=1>", "#=2>", ...) pipe holds the stream number.
func ParseMarker(marker string) (kind ExpectationKind, pipe int, ok bool) {
	if k, found := markerKinds[marker]; found {
		return k, 0, true
	}

	if n := typedMarkerLen(marker); n == len(marker) && n > 3 {
		pipe, err := strconv.Atoi(marker[2 : n-1])
		if err == nil {
			return ExpectOutput, pipe, true
		}
	}

	return ExpectRegular, 0, false
}

// Expectation is an expected result of the block's code.
type Expectation struct {
	NodeBase
	Type   ExpectationKind
	Marker string
	// Text is the expected value as written, trimmed.
	Text string
	// Pipe is the output stream number of an [ExpectOutput] expectation.
	Pipe int
	// Inline is set when the expectation shares a line with code.
	Inline bool
}

func (e *Expectation) Kind() NodeKind { return KindExpectation }

// Comment is a "#" line in a setup or teardown section.
type Comment struct {
	NodeBase
	Text string
}

func (c *Comment) Kind() NodeKind { return KindComment }
func (*Comment) statementNode()   {}

// RequireStatement loads a library: require foo, require 'foo'.
type RequireStatement struct {
	NodeBase
	Target string
	// Quote is the quote character of a quoted target, or zero.
	Quote byte
}

func (r *RequireStatement) Kind() NodeKind { return KindRequireStatement }
func (*RequireStatement) statementNode()   {}

// AssignmentStatement binds a value: [@]target = value.
type AssignmentStatement struct {
	NodeBase
	// Instance is set for instance-variable targets written with "@".
	Instance bool
	Target   string
	Value    Value
}

func (a *AssignmentStatement) Kind() NodeKind { return KindAssignmentStatement }
func (*AssignmentStatement) statementNode()   {}

// ConfigurationStatement is a bare configuration directive such as
// "Familia.configure" or "boot".
type ConfigurationStatement struct {
	NodeBase
	Directive string
}

func (c *ConfigurationStatement) Kind() NodeKind { return KindConfigurationStatement }
func (*ConfigurationStatement) statementNode()   {}

// AnyStatement is a setup or teardown line no other statement form matched.
type AnyStatement struct {
	NodeBase
	Text string
}

func (a *AnyStatement) Kind() NodeKind { return KindAnyStatement }
func (*AnyStatement) statementNode()   {}

// StringLiteral is a quoted value with no escape processing.
type StringLiteral struct {
	NodeBase
	Quote byte
	Text  string
	// Terminated is false when the line ended before the closing quote.
	Terminated bool
}

func (s *StringLiteral) Kind() NodeKind { return KindStringLiteral }
func (*StringLiteral) valueNode()       {}

func (s *StringLiteral) Raw() string {
	if s.Terminated {
		return string(s.Quote) + s.Text + string(s.Quote)
	}

	return string(s.Quote) + s.Text
}

// AnyValue is an unclassified assignment value captured as raw text.
type AnyValue struct {
	NodeBase
	Text string
}

func (v *AnyValue) Kind() NodeKind { return KindAnyValue }
func (*AnyValue) valueNode()       {}
func (v *AnyValue) Raw() string    { return v.Text }

// BlankLine is a run of consecutive whitespace-only lines.
type BlankLine struct {
	NodeBase
	Lines int
}

func (b *BlankLine) Kind() NodeKind { return KindBlankLine }

// Print writes an indented outline of the tree to w.
func (f *SourceFile) Print(ctx context.Context, w io.Writer) error {
	lw := writer(w)

	printNode(ctx, lw, f, 0)

	return lw.err
}

// lineWriter joins items with ": " and remembers the first write error.
type lineWriter struct {
	w   io.Writer
	err error
}

func writer(w io.Writer) *lineWriter { return &lineWriter{w: w} }

func (lw *lineWriter) put(eol string, item ...string) {
	if lw.err != nil {
		return
	}

	_, lw.err = io.WriteString(lw.w, strings.Join(item, ": ")+eol)
}

func printNode(ctx context.Context, lw *lineWriter, n Node, indent int) {
	prefix := strings.Repeat("  ", indent)
	span := "[" + strconv.Itoa(n.Span().Start) + "," + strconv.Itoa(n.Span().End) + ")"
	name := prefix + n.Kind().String() + " " + span

	switch n := n.(type) {
	case *TryoutDescription:
		lw.put("\n", name, strconv.Quote(n.Text))

	case *CodeLine:
		lw.put("\n", name, strconv.Quote(n.Text))

	case *Expectation:
		lw.put("\n", name, n.Type.String(), strconv.Quote(n.Text))

	case *Comment:
		lw.put("\n", name, strconv.Quote(n.Text))

	case *RequireStatement:
		lw.put("\n", name, n.Target)

	case *AssignmentStatement:
		target := n.Target
		if n.Instance {
			target = "@" + target
		}

		lw.put("\n", name, target)

	case *ConfigurationStatement:
		lw.put("\n", name, n.Directive)

	case *AnyStatement:
		lw.put("\n", name, strconv.Quote(n.Text))

	case *StringLiteral:
		lw.put("\n", name, strconv.Quote(n.Text))

	case *AnyValue:
		lw.put("\n", name, strconv.Quote(n.Text))

	case *BlankLine:
		lw.put("\n", name, strconv.Itoa(n.Lines))

	default:
		lw.put("\n", name)
	}

	for _, c := range children(n) {
		printNode(ctx, lw, c, indent+1)
	}
}
