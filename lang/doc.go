// Package lang parses the tryouts test-specification language into a
// syntax tree.
//
// A tryouts file holds optional setup code, a sequence of independent test
// cases ("tryout blocks"), and optional teardown code. Each block has a
// description, the code under test, and one or more expected results:
//
//	require 'json'
//	@data = '{"a": 1}'
//
//	## parses an object
//	JSON.parse(@data)
//	#=> {"a" => 1}
//
//	## adds numbers
//	1 + 1 #=> 2
//
//	puts "done"
//
// # Lexing
//
// The '#' prefix means different things depending on where it appears, so
// the lexer is driven by a [Mode] the parser supplies with every request.
// At the start of a line, markers win over raw text:
//
//	##      description (a block starts, or its description continues)
//	#=>     expectation; inside a block also "#==>", "#=/=>", "#=|>",
//	        "#=*>", "#=:>", "#=~>", "#=%>", "#=!>", "#=<>", "#=N>"
//	##=>    disabled expectation (inside a block)
//	#       comment (setup and teardown only)
//
// Inside a block any other line is code. A "#=>" after code on the same line
// is an inline expectation. Setup and teardown lines are lexed with a small
// statement grammar (require, assignment, configuration directive) and fall
// back to raw text when it does not apply.
//
// # Grammar
//
// Informal EBNF:
//
//	SourceFile  → Section? (Block | Blank)* Section?
//	Section     → (Statement | Blank)+
//	Statement   → Comment | Require | Assignment | Directive | Any
//	Require     → 'require' (Identifier | String) EOL
//	Assignment  → '@'? Identifier '=' (String | Text) EOL
//	Directive   → Identifier EOL   (last segment is a directive name)
//	Block       → Description+ Code* Expectation*
//	Code        → Text ('#=>' Text)? EOL
//
// A block ends at a blank line, at the next "##" once it has code or
// expectations, or at a code line following an expectation; that line
// begins the teardown section.
//
// # Diagnostics
//
// [Parse] never fails. It returns a best-effort tree together with
// [Diagnostics] ordered by position. Lexical errors (an unterminated string)
// and syntax errors (an expectation outside any block) are recovered locally;
// structural errors (an empty block, misplaced sections) are found by
// validation after parsing. Every line-level node keeps its tokens, so
// [SourceFile.String] reproduces the parsed input.
package lang
