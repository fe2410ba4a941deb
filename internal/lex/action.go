package lex

// Action is a per-rule callback invoked when that rule produces the
// longest match at the current position. It receives the
// Lexer itself (so it can read/advance the underlying Reader beyond what
// the rule matched -- strings and nested comments need this) and the text
// the rule matched. It returns the token to emit, whether to emit it at
// all (false suppresses the token entirely, e.g. whitespace or a closed
// comment), and an error to record as a lexical diagnostic.
//
// Callbacks may: (a) consume additional input, (b) advance
// line/column (automatic, since consumption goes through the Reader),
// (c) emit or suppress the token, (d) record a lexical error.
type Action func(lx *Lexer, matched string, startLine, startColumn int) (tok Token, emit bool, err error)

// Rule is one named lexical rule: a regex pattern and an optional
// callback. Rules are tried in declaration order when multiple match the
// same longest prefix.
type Rule struct {
	Name     string
	Pattern  string
	Callback Action
}
