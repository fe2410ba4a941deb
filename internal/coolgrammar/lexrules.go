// Package coolgrammar holds the concrete COOL grammar: the lexical rule
// table (this file) and the attributed LALR(1) productions (grammar.go)
// that drive the parser over it, assembled from the generic lex, regex,
// grammar, and parse packages into one concrete language front end.
package coolgrammar

import (
	"fmt"
	"strings"

	"github.com/dekarrin/coolc/internal/lex"
)

// Token type names for COOL's fixed symbols and operators.
const (
	TokClass     = "class"
	TokInherits  = "inherits"
	TokIf        = "if"
	TokThen      = "then"
	TokElse      = "else"
	TokFi        = "fi"
	TokWhile     = "while"
	TokLoop      = "loop"
	TokPool      = "pool"
	TokLet       = "let"
	TokIn        = "in"
	TokCase      = "case"
	TokOf        = "of"
	TokEsac      = "esac"
	TokNew       = "new"
	TokIsVoid    = "isvoid"
	TokTrue      = "true"
	TokFalse     = "false"
	TokNot       = "not"
	TokID        = "id"
	TokTypeID    = "type_id"
	TokInteger   = "integer"
	TokString    = "string"
	TokLBrace    = "{"
	TokRBrace    = "}"
	TokLParen    = "("
	TokRParen    = ")"
	TokDot       = "."
	TokComma     = ","
	TokColon     = ":"
	TokSemi      = ";"
	TokAt        = "@"
	TokAssign    = "<-"
	TokCaseArrow = "=>"
	TokPlus      = "+"
	TokMinus     = "-"
	TokStar      = "*"
	TokSlash     = "/"
	TokLT        = "<"
	TokLE        = "<="
	TokEQ        = "="
	TokTilde     = "~"
)

// keywords maps a lowercase identifier's exact lexeme to its promoted
// token type.
var keywords = map[string]lex.TokenType{
	"class": TokClass, "inherits": TokInherits, "if": TokIf, "then": TokThen,
	"else": TokElse, "fi": TokFi, "while": TokWhile, "loop": TokLoop,
	"pool": TokPool, "let": TokLet, "in": TokIn, "case": TokCase,
	"of": TokOf, "esac": TokEsac, "new": TokNew, "isvoid": TokIsVoid,
	"true": TokTrue, "false": TokFalse, "not": TokNot,
}

// Rules returns the ordered COOL lexical rule table. Declaration order
// matters for tie-breaking and is chosen so `(*` is declared before `*`
// and `(` individually would be ambiguous -- longest-match already
// prefers the two-character lexeme, but keeping related rules adjacent
// keeps the table readable.
func Rules() []lex.Rule {
	return []lex.Rule{
		{Name: "ws", Pattern: `[ \t\r\n]+`, Callback: whitespaceAction},
		{Name: "line_comment", Pattern: `--[^\n]*`, Callback: lineCommentAction},
		{Name: "comment_open", Pattern: `\(\*`, Callback: blockCommentAction},
		{Name: "comment_close_stray", Pattern: `\*\)`, Callback: strayCommentCloseAction},

		{Name: TokID, Pattern: `[a-z][a-zA-Z0-9_]*`, Callback: identifierAction},
		{Name: TokTypeID, Pattern: `[A-Z][a-zA-Z0-9_]*`, Callback: typeIDAction},
		{Name: TokInteger, Pattern: `[0-9]+`, Callback: defaultAction(TokInteger)},

		{Name: TokString, Pattern: `"`, Callback: stringAction},

		{Name: TokAssign, Pattern: `<-`, Callback: defaultAction(TokAssign)},
		{Name: TokCaseArrow, Pattern: `=>`, Callback: defaultAction(TokCaseArrow)},
		{Name: TokLE, Pattern: `<=`, Callback: defaultAction(TokLE)},

		{Name: TokLBrace, Pattern: `\{`, Callback: defaultAction(TokLBrace)},
		{Name: TokRBrace, Pattern: `\}`, Callback: defaultAction(TokRBrace)},
		{Name: TokLParen, Pattern: `\(`, Callback: defaultAction(TokLParen)},
		{Name: TokRParen, Pattern: `\)`, Callback: defaultAction(TokRParen)},
		{Name: TokDot, Pattern: `\.`, Callback: defaultAction(TokDot)},
		{Name: TokComma, Pattern: `,`, Callback: defaultAction(TokComma)},
		{Name: TokColon, Pattern: `:`, Callback: defaultAction(TokColon)},
		{Name: TokSemi, Pattern: `;`, Callback: defaultAction(TokSemi)},
		{Name: TokAt, Pattern: `@`, Callback: defaultAction(TokAt)},
		{Name: TokPlus, Pattern: `\+`, Callback: defaultAction(TokPlus)},
		{Name: TokMinus, Pattern: `-`, Callback: defaultAction(TokMinus)},
		{Name: TokStar, Pattern: `\*`, Callback: defaultAction(TokStar)},
		{Name: TokSlash, Pattern: `/`, Callback: defaultAction(TokSlash)},
		{Name: TokLT, Pattern: `<`, Callback: defaultAction(TokLT)},
		{Name: TokEQ, Pattern: `=`, Callback: defaultAction(TokEQ)},
		{Name: TokTilde, Pattern: `~`, Callback: defaultAction(TokTilde)},
	}
}

func defaultAction(tt string) lex.Action {
	return func(lx *lex.Lexer, matched string, line, col int) (lex.Token, bool, error) {
		return lex.Token{Lex: matched, Type: lex.TokenType(tt), Line: line, Column: col}, true, nil
	}
}

func whitespaceAction(lx *lex.Lexer, matched string, line, col int) (lex.Token, bool, error) {
	return lex.Token{}, false, nil
}

func lineCommentAction(lx *lex.Lexer, matched string, line, col int) (lex.Token, bool, error) {
	return lex.Token{}, false, nil
}

func strayCommentCloseAction(lx *lex.Lexer, matched string, line, col int) (lex.Token, bool, error) {
	return lex.Token{}, false, fmt.Errorf("(%d, %d) - LexicographicError: Unmatched *)", line, col)
}

// identifierAction handles keyword promotion.
func identifierAction(lx *lex.Lexer, matched string, line, col int) (lex.Token, bool, error) {
	if kw, ok := keywords[matched]; ok {
		return lex.Token{Lex: matched, Type: kw, Line: line, Column: col}, true, nil
	}
	return lex.Token{Lex: matched, Type: TokID, Line: line, Column: col}, true, nil
}

func typeIDAction(lx *lex.Lexer, matched string, line, col int) (lex.Token, bool, error) {
	return lex.Token{Lex: matched, Type: TokTypeID, Line: line, Column: col}, true, nil
}

// blockCommentAction scans a nested (* ... *) comment, tracking nesting
// depth so `(* a (* b *) c *)` closes only at the final `*)`.
func blockCommentAction(lx *lex.Lexer, matched string, line, col int) (lex.Token, bool, error) {
	depth := 1
	for depth > 0 {
		if lx.Reader.AtEnd() {
			return lex.Token{}, false, fmt.Errorf("(%d, %d) - LexicographicError: EOF in comment", line, col)
		}
		if lx.Reader.Peek() == '(' && lx.Reader.PeekAt(1) == '*' {
			lx.Reader.Advance()
			lx.Reader.Advance()
			depth++
			continue
		}
		if lx.Reader.Peek() == '*' && lx.Reader.PeekAt(1) == ')' {
			lx.Reader.Advance()
			lx.Reader.Advance()
			depth--
			continue
		}
		lx.Reader.Advance()
	}
	return lex.Token{}, false, nil
}

// stringAction scans a COOL string literal after the opening quote has
// already been matched, supporting \b \f \t \n escapes, line continuation
// via a trailing backslash-newline, and the literal EOF-in-string,
// unterminated-string, and null-character diagnostics.
func stringAction(lx *lex.Lexer, matched string, line, col int) (lex.Token, bool, error) {
	var sb strings.Builder
	for {
		if lx.Reader.AtEnd() {
			return lex.Token{}, false, fmt.Errorf("(%d, %d) - LexicographicError: EOF in string constant", line, col)
		}
		c := lx.Reader.Peek()

		if c == '"' {
			lx.Reader.Advance()
			return lex.Token{Lex: sb.String(), Type: TokString, Line: line, Column: col}, true, nil
		}

		if c == '\n' {
			return lex.Token{}, false, fmt.Errorf("(%d, %d) - LexicographicError: Unterminated string constant", line, col)
		}

		if c == 0 {
			return lex.Token{}, false, fmt.Errorf("(%d, %d) - LexicographicError: String contains null character", line, col)
		}

		if c == '\\' {
			lx.Reader.Advance()
			if lx.Reader.AtEnd() {
				return lex.Token{}, false, fmt.Errorf("(%d, %d) - LexicographicError: EOF in string constant", line, col)
			}
			esc := lx.Reader.Advance()
			switch esc {
			case 'b':
				sb.WriteRune('\b')
			case 'f':
				sb.WriteRune('\f')
			case 't':
				sb.WriteRune('\t')
			case 'n':
				sb.WriteRune('\n')
			case '\n':
				sb.WriteRune('\n')
			default:
				sb.WriteRune(esc)
			}
			continue
		}

		lx.Reader.Advance()
		sb.WriteRune(c)
	}
}
