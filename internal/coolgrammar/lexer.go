package coolgrammar

import "github.com/dekarrin/coolc/internal/lex"

// NewLexer builds a lex.Lexer over the COOL rule table.
func NewLexer() (*lex.Lexer, error) {
	return lex.NewLexer(Rules())
}
