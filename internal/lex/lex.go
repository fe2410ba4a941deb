package lex

import (
	"fmt"

	"github.com/dekarrin/coolc/internal/automaton"
	"github.com/dekarrin/coolc/internal/regex"
)

// ruleTag is the value carried on accepting DFA states: which rule won
// the match, by declaration ordinal (lower ordinal wins ties) and name.
type ruleTag struct {
	ordinal int
	name    string
}

// Ordinal lets automaton.NFA.ToDFA's subset construction pick the
// lowest-declared rule when several rules accept at the same state.
func (t ruleTag) Ordinal() int { return t.ordinal }

// Lexer recognizes a source string against an ordered rule table, merged
// into a single DFA. Keyword promotion and string/comment scanning are
// implemented as Actions on specific rules (see internal/coolgrammar for
// COOL's concrete table), not special-cased in this engine; line, column
// and tab accounting is done by the Reader as input is consumed.
type Lexer struct {
	rules  []Rule
	byName map[string]int
	dfa    *automaton.DFA[ruleTag]

	Reader *Reader
	errors []string
}

// NewLexer compiles rules into a single recognizer. Rules are tried in
// the order given; that order is also the tie-break order used when two
// rules match the same longest prefix.
func NewLexer(rules []Rule) (*Lexer, error) {
	lx := &Lexer{rules: rules, byName: map[string]int{}}

	var combined *automaton.NFA[ruleTag]
	for i, r := range rules {
		lx.byName[r.Name] = i
		n, err := regex.Compile(r.Pattern, ruleTag{ordinal: i, name: r.Name})
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		if combined == nil {
			combined = n
		} else {
			combined = automaton.Union(combined, n)
		}
	}
	if combined == nil {
		return nil, fmt.Errorf("lexer must have at least one rule")
	}

	dfa := combined.ToDFA()
	dfa = dfa.Minimize(func(t ruleTag) string { return t.name })
	lx.dfa = dfa
	return lx, nil
}

// Start attaches src as the input to scan and resets diagnostics.
func (lx *Lexer) Start(src string) {
	lx.Reader = NewReader(src)
	lx.errors = nil
}

// Errors returns the human-readable lexical diagnostics accumulated so
// far.
func (lx *Lexer) Errors() []string { return lx.errors }

// AddError records a lexical diagnostic, callable from rule Actions.
func (lx *Lexer) AddError(msg string) {
	lx.errors = append(lx.errors, msg)
}

// Tokens runs the lexer to completion and returns the full token stream,
// terminated with an EOF token.
func (lx *Lexer) Tokens() []Token {
	var out []Token
	for {
		tok := lx.Next()
		out = append(out, tok)
		if tok.IsEOF() {
			return out
		}
	}
}

// Next returns the next token, advancing the stream. It never returns an
// invalid Token for a lexical error: unmatchable input is skipped one
// rune at a time, a diagnostic is recorded via AddError, and scanning
// resumes, so callers always get a clean token sequence terminated by
// EOFType; lexical errors never abort the scan.
func (lx *Lexer) Next() Token {
	for {
		if lx.Reader.AtEnd() {
			return Token{Type: EOFType, Line: lx.Reader.Line(), Column: lx.Reader.Column()}
		}

		startMark := lx.Reader.Mark()
		startLine, startCol := lx.Reader.Line(), lx.Reader.Column()

		state := lx.dfa.Start
		lastAccept := -1
		var lastTag ruleTag
		steps := 0

		for {
			if lx.Reader.AtEnd() {
				break
			}
			sym := string(lx.Reader.Peek())
			next, ok := lx.dfa.Next(state, sym)
			if !ok {
				break
			}
			lx.Reader.Advance()
			steps++
			state = next
			if lx.dfa.IsAccepting(state) {
				if v, ok := lx.dfa.Value(state); ok {
					lastAccept = steps
					lastTag = v
				} else {
					lastAccept = steps
				}
			}
		}

		if lastAccept < 0 {
			// Nothing matched at this position at all: lexical error.
			// Consume one rune so we make forward progress and try
			// again.
			bad := lx.Reader.Advance()
			lx.AddError(fmt.Sprintf("(%d, %d) - LexicographicError: unexpected character %q", startLine, startCol, bad))
			continue
		}

		// rewind to just after the longest accepted prefix
		lx.Reader.Reset(startMark)
		var matched []rune
		for i := 0; i < lastAccept; i++ {
			matched = append(matched, lx.Reader.Advance())
		}
		matchedStr := string(matched)

		rule := lx.rules[lx.byName[lastTag.name]]
		if rule.Callback != nil {
			tok, emit, err := rule.Callback(lx, matchedStr, startLine, startCol)
			if err != nil {
				lx.AddError(err.Error())
			}
			if !emit {
				continue
			}
			return tok
		}

		return Token{Lex: matchedStr, Type: TokenType(rule.Name), Line: startLine, Column: startCol}
	}
}
