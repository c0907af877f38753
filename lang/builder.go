package lang

import (
	"strings"
)

// Builder constructs syntax trees. The parser uses it to assemble nodes from
// lexed tokens; its exported methods build trees programmatically, without
// parsing source text, by synthesizing the tokens each node would have been
// parsed from.
//
// Synthesized tokens are laid out in call order, so nodes must be created in
// source order. Nesting the calls does this naturally:
//
//	b := lang.NewBuilder()
//	file := b.File(
//	    b.Setup(b.Require("json")),
//	    b.Block(b.Describe("adds numbers"),
//	        b.Code("1 + 1"),
//	        b.Expect("#=>", "2"),
//	    ),
//	)
//
// The result of file.String() parses back into an equivalent tree.
type Builder struct {
	pos int
}

// NewBuilder creates a new tree builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// File creates a [SourceFile] from sections, blocks and blank lines.
func (b *Builder) File(items ...Node) *SourceFile {
	return b.sourceFile(items)
}

// Setup creates a setup [Section].
func (b *Builder) Setup(body ...Node) *Section {
	return b.section(SectionSetup, body)
}

// Teardown creates a teardown [Section].
func (b *Builder) Teardown(body ...Node) *Section {
	return b.section(SectionTeardown, body)
}

// Blank creates a [BlankLine] run of n empty lines.
func (b *Builder) Blank(n int) *BlankLine {
	return b.blankLine([]Token{b.emit(TokenBlank, strings.Repeat("\n", max(n, 1)))})
}

// Block creates a [TryoutBlock]. Body holds [*CodeLine] and [*Expectation]
// nodes; any other node is ignored.
func (b *Builder) Block(desc *TryoutDescription, body ...Node) *TryoutBlock {
	blk := b.tryoutBlock(desc)

	for _, n := range body {
		switch n := n.(type) {
		case *CodeLine:
			blk.Code = append(blk.Code, n)
			blk.span = blk.span.join(n.span)

		case *Expectation:
			blk.Expectations = append(blk.Expectations, n)
			blk.span = blk.span.join(n.span)
		}
	}

	return blk
}

// Describe creates a [TryoutDescription] with one "##" line per argument.
func (b *Builder) Describe(lines ...string) *TryoutDescription {
	var toks []Token

	for _, line := range lines {
		toks = append(toks, b.emit(TokenDescriptionMarker, "##"))
		if line != "" {
			toks = append(toks, b.emit(TokenText, " "+line))
		}

		toks = append(toks, b.newline())
	}

	return b.description(toks)
}

// Code creates a [CodeLine].
func (b *Builder) Code(text string) *CodeLine {
	return b.codeLine([]Token{b.emit(TokenText, text), b.newline()})
}

// Expect creates an [Expectation] with the given marker, such as "#=>" or
// "#=~>". An unrecognized marker is replaced with "#=>".
func (b *Builder) Expect(marker, text string) *Expectation {
	if _, _, ok := ParseMarker(marker); !ok {
		marker = expectationMarker
	}

	toks := []Token{b.emit(TokenExpectationMarker, marker)}
	if text != "" {
		toks = append(toks, b.emit(TokenText, " "+text))
	}

	return b.expectation(append(toks, b.newline()), false)
}

// Comment creates a [Comment] statement.
func (b *Builder) Comment(text string) *Comment {
	toks := []Token{b.emit(TokenCommentMarker, "#")}
	if text != "" {
		toks = append(toks, b.emit(TokenText, " "+text))
	}

	return b.comment(append(toks, b.newline()))
}

// Require creates a [RequireStatement]. Targets that are not identifiers
// are single-quoted.
func (b *Builder) Require(target string) *RequireStatement {
	toks := []Token{
		b.emit(TokenRequire, requireKeyword),
		b.emit(TokenSpace, " "),
	}

	var quote byte

	if isIdentifier(target) {
		toks = append(toks, b.emit(TokenIdentifier, target))
	} else {
		quote = '\''
		toks = append(toks, b.quoted(quote, target)...)
	}

	return b.require(append(toks, b.newline()), target, quote)
}

// Assign creates an [AssignmentStatement]. A target beginning with "@" is an
// instance variable. A value enclosed in matching quotes becomes a
// [StringLiteral]; anything else is an [AnyValue].
func (b *Builder) Assign(target, value string) *AssignmentStatement {
	var toks []Token

	instance := strings.HasPrefix(target, "@")
	if instance {
		toks = append(toks, b.emit(TokenAt, "@"))
		target = target[1:]
	}

	toks = append(toks,
		b.emit(TokenIdentifier, target),
		b.emit(TokenSpace, " "),
		b.emit(TokenEquals, "="),
		b.emit(TokenSpace, " "),
	)

	var val Value

	if q, text, ok := unquote(value); ok {
		vt := b.quoted(q, text)
		toks = append(toks, vt...)
		val = b.stringLiteral(vt, q, text, true)
	} else if value != "" {
		vt := b.emit(TokenText, value)
		toks = append(toks, vt)
		val = b.anyValue([]Token{vt})
	}

	return b.assignment(append(toks, b.newline()), instance, target, val)
}

// Configure creates a [ConfigurationStatement].
func (b *Builder) Configure(directive string) *ConfigurationStatement {
	return b.configuration([]Token{
		b.emit(TokenIdentifier, directive),
		b.newline(),
	}, directive)
}

// Statement creates an [AnyStatement] holding text verbatim.
func (b *Builder) Statement(text string) *AnyStatement {
	return b.anyStatement([]Token{b.emit(TokenText, text), b.newline()})
}

// Token synthesis

func (b *Builder) emit(kind TokenKind, text string) Token {
	tok := Token{Kind: kind, Span: Span{Start: b.pos, End: b.pos + len(text)}, Text: text}
	b.pos = tok.Span.End

	return tok
}

func (b *Builder) newline() Token { return b.emit(TokenNewline, "\n") }

func (b *Builder) quoted(q byte, text string) []Token {
	toks := []Token{b.emit(TokenQuote, string(q))}
	if text != "" {
		toks = append(toks, b.emit(TokenString, text))
	}

	return append(toks, b.emit(TokenQuote, string(q)))
}

func unquote(s string) (byte, string, bool) {
	if len(s) < 2 || (s[0] != '\'' && s[0] != '"') || s[len(s)-1] != s[0] {
		return 0, "", false
	}

	inner := s[1 : len(s)-1]
	if strings.IndexByte(inner, s[0]) >= 0 || strings.IndexByte(inner, '\n') >= 0 {
		return 0, "", false
	}

	return s[0], inner, true
}

func isIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}

	for i := 1; i < len(s); i++ {
		if !isIdentContinue(s[i]) {
			return false
		}
	}

	return true
}

// Node assembly from tokens

func (b *Builder) sourceFile(items []Node) *SourceFile {
	f := &SourceFile{Items: items}
	for _, n := range items {
		f.span = f.span.join(n.Span())
	}

	return f
}

func (b *Builder) section(phase SectionKind, body []Node) *Section {
	s := &Section{Phase: phase, Body: body}
	for _, n := range body {
		s.span = s.span.join(n.Span())
	}

	return s
}

func (b *Builder) tryoutBlock(desc *TryoutDescription) *TryoutBlock {
	blk := &TryoutBlock{Description: desc}
	if desc != nil {
		blk.span = desc.span
	}

	return blk
}

func (b *Builder) description(toks []Token) *TryoutDescription {
	var lines []string

	for _, tok := range toks {
		switch tok.Kind {
		case TokenDescriptionMarker:
			lines = append(lines, "")

		case TokenText:
			if len(lines) > 0 {
				lines[len(lines)-1] = strings.TrimSpace(tok.Text)
			}
		}
	}

	return &TryoutDescription{
		NodeBase: newNodeBase(toks),
		Text:     strings.Join(lines, "\n"),
	}
}

func (b *Builder) codeLine(toks []Token) *CodeLine {
	return &CodeLine{NodeBase: newNodeBase(toks), Text: lineText(toks)}
}

func (b *Builder) expectation(toks []Token, inline bool) *Expectation {
	e := &Expectation{NodeBase: newNodeBase(toks), Inline: inline}

	for _, tok := range toks {
		switch tok.Kind {
		case TokenExpectationMarker:
			e.Marker = tok.Text
			e.Type, e.Pipe, _ = ParseMarker(tok.Text)

		case TokenText:
			e.Text = strings.TrimSpace(tok.Text)
		}
	}

	return e
}

func (b *Builder) comment(toks []Token) *Comment {
	c := &Comment{NodeBase: newNodeBase(toks)}

	for _, tok := range toks {
		if tok.Kind == TokenText {
			c.Text = strings.TrimSpace(tok.Text)
		}
	}

	return c
}

func (b *Builder) require(toks []Token, target string, quote byte) *RequireStatement {
	return &RequireStatement{NodeBase: newNodeBase(toks), Target: target, Quote: quote}
}

func (b *Builder) assignment(
	toks []Token,
	instance bool,
	target string,
	value Value,
) *AssignmentStatement {
	return &AssignmentStatement{
		NodeBase: newNodeBase(toks),
		Instance: instance,
		Target:   target,
		Value:    value,
	}
}

func (b *Builder) configuration(toks []Token, directive string) *ConfigurationStatement {
	return &ConfigurationStatement{NodeBase: newNodeBase(toks), Directive: directive}
}

func (b *Builder) anyStatement(toks []Token) *AnyStatement {
	return &AnyStatement{NodeBase: newNodeBase(toks), Text: strings.TrimSpace(lineText(toks))}
}

func (b *Builder) stringLiteral(
	toks []Token,
	quote byte,
	text string,
	terminated bool,
) *StringLiteral {
	return &StringLiteral{
		NodeBase:   newNodeBase(toks),
		Quote:      quote,
		Text:       text,
		Terminated: terminated,
	}
}

func (b *Builder) anyValue(toks []Token) *AnyValue {
	return &AnyValue{NodeBase: newNodeBase(toks), Text: strings.TrimSpace(lineText(toks))}
}

func (b *Builder) blankLine(toks []Token) *BlankLine {
	text := lineText(toks)

	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}

	return &BlankLine{NodeBase: newNodeBase(toks), Lines: n}
}

// lineText concatenates token text, excluding a trailing newline token.
func lineText(toks []Token) string {
	if n := len(toks); n > 0 && toks[n-1].Kind == TokenNewline {
		toks = toks[:n-1]
	}

	var sb strings.Builder
	for _, tok := range toks {
		sb.WriteString(tok.Text)
	}

	return sb.String()
}
