package lang

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ardnew/tryparse/log"
)

// DefaultDirectives are the identifier segments recognized as bare
// configuration directives in setup and teardown sections.
// Users may modify this before parsing to change the default.
var DefaultDirectives = []string{"boot", "configure", "path"}

// Option configures parsing behavior.
type Option func(*options)

type options struct {
	logger     log.Logger
	directives map[string]struct{}
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDirectives replaces the set of configuration directive names.
// A bare identifier whose last dot-separated segment is one of names parses
// as a [ConfigurationStatement].
func WithDirectives(names ...string) Option {
	return func(o *options) {
		o.directives = directiveSet(names)
	}
}

func directiveSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}

	return set
}

// Parse parses src into a syntax tree.
//
// Parse never fails: malformed input yields a best-effort tree together with
// diagnostics ordered by position. Callers decide which diagnostics are fatal,
// typically with [Diagnostics.HasErrors]. The context is only used for log
// records.
func Parse(ctx context.Context, src string, opts ...Option) (*SourceFile, Diagnostics) {
	o := options{directives: directiveSet(DefaultDirectives)}
	for _, opt := range opts {
		opt(&o)
	}

	o.logger.TraceContext(ctx, "parse start", slog.Int("source_length", len(src)))

	p := &parser{
		src:        src,
		lines:      newLineIndex(src),
		build:      NewBuilder(),
		directives: o.directives,
	}

	file := p.parseSourceFile()
	p.diags = append(p.diags, validate(file, p.lines)...)
	p.diags.sort()

	o.logger.TraceContext(ctx, "parse complete",
		slog.Int("item_count", len(file.Items)),
		slog.Int("error_count", p.diags.Count(SeverityError)),
		slog.Int("warning_count", p.diags.Count(SeverityWarning)),
	)

	return file, p.diags
}

// parser holds the state of a single parse.
type parser struct {
	src   string
	pos   int
	lines lineIndex
	build *Builder
	diags Diagnostics

	directives map[string]struct{}

	// One token of lookahead, valid while pos and mode are unchanged.
	ahead struct {
		ok   bool
		pos  int
		mode Mode
		tok  Token
		err  *lexError
	}

	items   []Node
	section *Section // open setup or teardown section
	blocks  int      // tryout blocks parsed so far
}

// peek returns the next token in mode without consuming it. Peeking the same
// position in another mode re-lexes it; lexical errors are only reported when
// the token is consumed.
func (p *parser) peek(mode Mode) Token {
	if !p.ahead.ok || p.ahead.pos != p.pos || p.ahead.mode != mode {
		tok, err := lex(p.src, p.pos, mode)

		p.ahead.ok = true
		p.ahead.pos = p.pos
		p.ahead.mode = mode
		p.ahead.tok = tok
		p.ahead.err = err
	}

	return p.ahead.tok
}

// next consumes and returns the next token in mode.
func (p *parser) next(mode Mode) Token {
	tok := p.peek(mode)

	if err := p.ahead.err; err != nil {
		p.report(LexicalError, SeverityError, err.err, err.span)
	}

	p.pos = tok.Span.End
	p.ahead.ok = false

	return tok
}

// accept consumes the next token if it has the given kind.
func (p *parser) accept(mode Mode, kind TokenKind, toks *[]Token) bool {
	if p.peek(mode).Kind != kind {
		return false
	}

	*toks = append(*toks, p.next(mode))

	return true
}

func (p *parser) report(kind ErrorKind, sev Severity, err *Error, span Span) {
	p.diags = append(p.diags, Diagnostic{
		Err:      err,
		Message:  err.Error(),
		Start:    p.lines.position(span.Start),
		End:      p.lines.position(span.End),
		Severity: sev,
		Kind:     kind,
	})
}

// parseSourceFile parses the whole input.
//
//	source_file := setup? (blank | block)* teardown?
func (p *parser) parseSourceFile() *SourceFile {
	for {
		tok := p.peek(modeTop)

		switch tok.Kind {
		case TokenEOF:
			return p.build.sourceFile(p.items)

		case TokenBlank:
			blank := p.build.blankLine([]Token{p.next(modeTop)})
			if p.section != nil {
				p.appendToSection(blank)
			} else {
				p.items = append(p.items, blank)
			}

		case TokenDescriptionMarker:
			p.section = nil
			p.items = append(p.items, p.parseBlock())
			p.blocks++

		default:
			p.parseStatementLine()
		}
	}
}

// openSection returns the open section, starting a setup or teardown section
// depending on whether any tryout block has been seen.
func (p *parser) openSection() *Section {
	if p.section == nil {
		phase := SectionSetup
		if p.blocks > 0 {
			phase = SectionTeardown
		}

		p.section = p.build.section(phase, nil)
		p.items = append(p.items, p.section)
	}

	return p.section
}

func (p *parser) appendToSection(n Node) {
	s := p.openSection()
	s.Body = append(s.Body, n)
	s.span = s.span.join(n.Span())
}

// parseStatementLine parses one line of setup or teardown.
func (p *parser) parseStatementLine() {
	switch p.peek(modeStatement).Kind {
	case TokenExpectationMarker:
		p.skipExpectations()

	case TokenCommentMarker:
		toks := []Token{p.next(modeStatement)}
		p.appendToSection(p.build.comment(p.restOfLine(toks)))

	default:
		p.appendToSection(p.parseStatement())
	}
}

// skipExpectations discards a run of expectation lines found outside any
// tryout block and reports them as one syntax error. Parsing resumes at the
// first line that does not begin with an expectation marker.
func (p *parser) skipExpectations() {
	start := p.pos

	for p.peek(modeStatement).Kind == TokenExpectationMarker {
		p.pos = min(lineEnd(p.src, p.pos)+1, len(p.src))
		p.ahead.ok = false
	}

	end := p.pos
	if end > start && p.src[end-1] == '\n' {
		end--
	}

	p.report(SyntaxError, SeverityError, ErrUnexpectedExpectation, Span{Start: start, End: end})
}

// parseStatement classifies a statement line. It never fails: anything that
// is not a require, assignment or directive is an [AnyStatement].
func (p *parser) parseStatement() Statement {
	var toks []Token

	p.accept(modeStatement, TokenSpace, &toks)

	if len(toks) > 0 && p.pos < len(p.src) && p.src[p.pos] == '#' {
		// Indented comment.
		toks = append(toks, makeToken(p.src, TokenCommentMarker, p.pos, p.pos+1))
		p.pos++
		p.ahead.ok = false

		return p.build.comment(p.restOfLine(toks))
	}

	switch p.peek(modeStatement).Kind {
	case TokenRequire:
		return p.parseRequire(toks)

	case TokenAt, TokenIdentifier:
		return p.parseAssignment(toks)

	default:
		return p.build.anyStatement(p.restOfLine(toks))
	}
}

// parseRequire parses: require (identifier | quoted) EOL.
func (p *parser) parseRequire(toks []Token) Statement {
	toks = append(toks, p.next(modeStatement))
	p.accept(modeStatement, TokenSpace, &toks)

	var (
		target string
		quote  byte
	)

	switch tok := p.peek(modeStatement); tok.Kind {
	case TokenIdentifier:
		toks = append(toks, p.next(modeStatement))
		target = tok.Text

	case TokenQuote:
		lit := p.parseStringLiteral()
		toks = append(toks, lit.tokens...)
		target, quote = lit.Text, lit.Quote

	default:
		return p.build.anyStatement(p.restOfLine(toks))
	}

	p.accept(modeStatement, TokenSpace, &toks)

	if !p.atLineEnd(modeStatement) {
		return p.build.anyStatement(p.restOfLine(toks))
	}

	return p.build.require(p.endLine(toks), target, quote)
}

// parseAssignment parses: [@] identifier = value EOL, or a bare directive.
func (p *parser) parseAssignment(toks []Token) Statement {
	instance := p.accept(modeStatement, TokenAt, &toks)

	id := p.peek(modeStatement)
	if id.Kind != TokenIdentifier {
		return p.build.anyStatement(p.restOfLine(toks))
	}

	toks = append(toks, p.next(modeStatement))
	p.accept(modeStatement, TokenSpace, &toks)

	if p.atLineEnd(modeStatement) {
		if !instance && p.isDirective(id.Text) {
			return p.build.configuration(p.endLine(toks), id.Text)
		}

		return p.build.anyStatement(p.endLine(toks))
	}

	if !p.accept(modeStatement, TokenEquals, &toks) {
		return p.build.anyStatement(p.restOfLine(toks))
	}

	p.accept(modeStatement, TokenSpace, &toks)

	var value Value

	switch p.peek(modeStatement).Kind {
	case TokenNewline, TokenEOF:
		// Nothing assigned.

	case TokenQuote:
		lit := p.parseStringLiteral()
		toks = append(toks, lit.tokens...)
		value = lit

		var trail []Token

		p.accept(modeStatement, TokenSpace, &trail)

		if !p.atLineEnd(modeStatement) {
			// More text follows the literal: the whole rest is one raw value.
			raw := append(append([]Token(nil), lit.tokens...), trail...)
			p.accept(modeTop, TokenText, &raw)

			value = p.build.anyValue(raw)
			toks = append(toks, raw[len(lit.tokens):]...)
		} else {
			toks = append(toks, trail...)
		}

	default:
		var raw []Token

		p.accept(modeTop, TokenText, &raw)
		value = p.build.anyValue(raw)
		toks = append(toks, raw...)
	}

	return p.build.assignment(p.endLine(toks), instance, id.Text, value)
}

// parseStringLiteral parses a quoted literal. The literal is unterminated
// when the line ends before the matching quote.
func (p *parser) parseStringLiteral() *StringLiteral {
	open := p.next(modeStatement)
	quote := open.Text[0]
	mode := modeString(quote)

	toks := []Token{open}

	var text string

	if p.peek(mode).Kind == TokenString {
		tok := p.next(mode)
		toks = append(toks, tok)
		text = tok.Text
	}

	terminated := p.pos < len(p.src) && p.src[p.pos] == quote
	if terminated {
		toks = append(toks, p.next(mode))
	}

	return p.build.stringLiteral(toks, quote, text, terminated)
}

// parseBlock parses a tryout block starting at a "##" line.
//
//	block := description+ code* expectation*
func (p *parser) parseBlock() *TryoutBlock {
	toks := p.descriptionLine(nil, modeTop)

	// Consecutive "##" lines before any code continue the description.
	for p.peek(modeBlockBody).Kind == TokenDescriptionMarker {
		toks = p.descriptionLine(toks, modeBlockBody)
	}

	blk := p.build.tryoutBlock(p.build.description(toks))

	for {
		tok := p.peek(modeBlockBody)

		switch tok.Kind {
		case TokenEOF, TokenBlank, TokenDescriptionMarker:
			return blk

		case TokenExpectationMarker:
			p.appendExpectation(blk, p.parseExpectation(false))

		default:
			if len(blk.Expectations) > 0 {
				// Code after an expectation can only begin teardown.
				return blk
			}

			p.parseCodeLine(blk)
		}
	}
}

// descriptionLine appends the tokens of one "##" line to toks.
func (p *parser) descriptionLine(toks []Token, mode Mode) []Token {
	return p.restOfLine(append(toks, p.next(mode)))
}

// parseCodeLine parses a line of code and a trailing inline expectation.
func (p *parser) parseCodeLine(blk *TryoutBlock) {
	text := p.next(modeBlockBody)

	if n := malformedMarkerLen(text.Text); n > 0 {
		p.report(SyntaxError, SeverityWarning,
			ErrMalformedMarker.With(slog.String("marker", text.Text[:n])),
			Span{Start: text.Span.Start, End: text.Span.Start + n})
	}

	toks := []Token{text}

	inline := p.peek(modeBlockBody).Kind == TokenExpectationMarker
	if !inline {
		p.accept(modeBlockBody, TokenNewline, &toks)
	}

	code := p.build.codeLine(toks)
	blk.Code = append(blk.Code, code)
	blk.span = blk.span.join(code.span)

	if inline {
		p.appendExpectation(blk, p.parseExpectation(true))
	}
}

// parseExpectation parses a marker, the expected text and the line end.
func (p *parser) parseExpectation(inline bool) *Expectation {
	toks := []Token{p.next(modeBlockBody)}

	return p.build.expectation(p.restOfLine(toks), inline)
}

func (p *parser) appendExpectation(blk *TryoutBlock, e *Expectation) {
	blk.Expectations = append(blk.Expectations, e)
	blk.span = blk.span.join(e.span)
}

// restOfLine appends the raw remainder of the line and its newline to toks.
func (p *parser) restOfLine(toks []Token) []Token {
	p.accept(modeTop, TokenText, &toks)

	return p.endLine(toks)
}

// endLine appends the line's newline, if any, to toks.
func (p *parser) endLine(toks []Token) []Token {
	if p.pos < len(p.src) && p.src[p.pos] == '\n' {
		toks = append(toks, makeToken(p.src, TokenNewline, p.pos, p.pos+1))
		p.pos++
		p.ahead.ok = false
	}

	return toks
}

func (p *parser) atLineEnd(mode Mode) bool {
	k := p.peek(mode).Kind

	return k == TokenNewline || k == TokenEOF
}

// isDirective reports whether the last segment of a dotted identifier names
// a configuration directive.
func (p *parser) isDirective(ident string) bool {
	if i := strings.LastIndexAny(ident, ".:"); i >= 0 {
		ident = ident[i+1:]
	}

	_, ok := p.directives[ident]

	return ok
}
