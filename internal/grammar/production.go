package grammar

import "strings"

// Frame is the reduction frame passed to a production's reduction rule when
// the shift-reduce driver performs a reduce action. Index 0 holds no
// meaningful attribute of its own; indices 1..len(Body) hold the
// synthesized attribute (the value produced by an earlier reduction, or a
// token lexeme for a terminal) of the corresponding body symbol, in body
// order. The driver fills Attrs and nothing else; rules are pure functions
// of this frame.
type Frame struct {
	// Attrs holds the attribute values of the production's body symbols,
	// 0-indexed (Attrs[0] is the first body symbol's attribute, matching
	// spec's "index 1..n" convention offset by the implicit result slot).
	Attrs []any

	// Terminals records, for each body position, the raw token lexeme if
	// that position is a terminal; used by rules that need the literal
	// source text (identifiers, integer literals, string literals).
	Terminals []string

	// Lines records, for each body position, the source line the symbol
	// started on (the token's line for a terminal, the line recorded on
	// the synthesized node for a nonterminal). Rules use this to stamp
	// new nodes with a source line without needing a type assertion on
	// every nonterminal attribute just to read its line.
	Lines []int
}

// Get returns the attribute synthesized for the i'th body symbol,
// 1-indexed; index 0 is reserved for the synthesized result.
func (f Frame) Get(i int) any {
	return f.Attrs[i-1]
}

// Lexeme returns the raw lexeme of the i'th (1-indexed) body symbol.
func (f Frame) Lexeme(i int) string {
	return f.Terminals[i-1]
}

// Line returns the source line of the i'th (1-indexed) body symbol.
func (f Frame) Line(i int) int {
	return f.Lines[i-1]
}

// ReductionRule synthesizes the result attribute of a reduction from the
// attributes of the production's body. Rules must be pure functions of
// their frame: no global state, no side effects beyond allocating AST
// nodes, so that parser tables and instances remain safely reusable and
// reentrant.
type ReductionRule func(f Frame) any

// Production is a single CFG rule Head -> Body, optionally attributed with
// a ReductionRule. A production without a rule (Rule == nil) is used only
// during table construction (e.g. grammars built just to compute
// FIRST/FOLLOW sets or tables) and must never be reduced by a
// fully-wired parser.
type Production struct {
	Head string
	Body Sentence
	Rule ReductionRule
}

// IsEpsilon reports whether this production's body is the empty sentence.
func (p Production) IsEpsilon() bool {
	return len(p.Body) == 0
}

// HasError reports whether ERROR appears anywhere in the production body,
// marking it as an error production usable for local parse recovery.
func (p Production) HasError() bool {
	for _, sym := range p.Body {
		if sym == ERROR {
			return true
		}
	}
	return false
}

// Equal compares head and body only; reduction rules are not comparable and
// are deliberately excluded (two productions with identical shape but
// distinct rules are still the "same" production for table-building
// purposes).
func (p Production) Equal(o Production) bool {
	return p.Head == o.Head && p.Body.Equal(o.Body)
}

func (p Production) String() string {
	body := strings.Join([]string(p.Body), " ")
	if body == "" {
		body = "ε"
	}
	return p.Head + " -> " + body
}
