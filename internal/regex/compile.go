package regex

import "github.com/dekarrin/coolc/internal/automaton"

// Compile parses pattern and builds the NFA recognizing it, tagged with
// value at every accepting state (the lexer uses this to carry a rule's
// declaration ordinal and token class).
func Compile[E any](pattern string, value E) (*automaton.NFA[E], error) {
	ast, err := Parse(pattern)
	if err != nil {
		return nil, err
	}
	n := build[E](ast)
	tagAccepting(n, value)
	return n, nil
}

func tagAccepting[E any](n *automaton.NFA[E], value E) {
	for s := 0; s < n.NumStates(); s++ {
		if n.IsAccepting(s) {
			n.SetValue(s, value)
		}
	}
}

func build[E any](n node) *automaton.NFA[E] {
	switch v := n.(type) {
	case litNode:
		return automaton.Symbol[E](string(v.ch))
	case epsilonNode:
		return automaton.EmptyString[E]()
	case classNode:
		return buildClass[E](v)
	case concatNode:
		return automaton.Concat(build[E](v.left), build[E](v.right))
	case unionNode:
		return automaton.Union(build[E](v.left), build[E](v.right))
	case starNode:
		return automaton.Star(build[E](v.sub))
	case plusNode:
		return automaton.Plus(build[E](v.sub))
	case optionalNode:
		return automaton.Optional(build[E](v.sub))
	default:
		panic("regex: unhandled node type in compile")
	}
}

// buildClass expands a character class into a union of single-rune
// symbols, one per matching rune in 0..0x2FF; runes above that are never
// matched. There is no packed range representation at the automaton
// level, so a negated class such as [^\n] becomes a union of several
// hundred symbols.
func buildClass[E any](c classNode) *automaton.NFA[E] {
	matches := func(r rune) bool {
		in := false
		for _, rg := range c.ranges {
			if r >= rg.lo && r <= rg.hi {
				in = true
				break
			}
		}
		if c.negated {
			return !in
		}
		return in
	}

	var out *automaton.NFA[E]
	for r := rune(0); r <= 0x2FF; r++ {
		if !matches(r) {
			continue
		}
		sym := automaton.Symbol[E](string(r))
		if out == nil {
			out = sym
		} else {
			out = automaton.Union(out, sym)
		}
	}
	if out == nil {
		// class matches nothing representable in our scan range; fall
		// back to an automaton with no accepting path.
		out = automaton.NewNFA[E]()
	}
	return out
}
