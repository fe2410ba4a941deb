// Package grammar models an attributed context-free grammar: terminals,
// non-terminals, productions carrying optional reduction rules, and the
// derived FIRST/FOLLOW sets and LR(1) items the parser table builder needs.
//
// Symbols are compared by name within a Grammar, not by identity, but a
// Grammar keeps its terminal/non-terminal lists in insertion order because
// that order is the enumeration order used during LALR(1) table
// construction.
package grammar

// Epsilon is both the terminal representing the empty string and the
// canonical empty Sentence; a production "A -> ε" is stored with an empty
// Body.
const Epsilon = ""

// EOF is the sentinel terminal appended to every input token stream.
const EOF = "$"

// ERROR is the distinguished terminal used in error productions. It is
// given special handling in ACTION lookups: it matches any unexpected
// terminal, letting a single error production recover from many distinct
// bad-lookahead situations without the shift-reduce driver special-casing
// recovery itself.
const ERROR = "error"

// Sentence is an ordered sequence of symbol names. An empty Sentence
// denotes Epsilon.
type Sentence []string

// Equal reports whether two sentences have the same symbols in the same
// order.
func (s Sentence) Equal(o Sentence) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Copy returns an independent copy of the sentence.
func (s Sentence) Copy() Sentence {
	cp := make(Sentence, len(s))
	copy(cp, s)
	return cp
}
