package grammar

import (
	"fmt"

	"github.com/dekarrin/coolc/internal/util"
)

// AugmentedStart is the name of the fresh start symbol added by Augmented.
const AugmentedStart = "S'"

// Grammar owns the insertion-ordered terminal/non-terminal alphabets and,
// for each non-terminal, its ordered list of productions.
type Grammar struct {
	start       string
	terminals   *util.OrderedSet[string]
	nonTerms    *util.OrderedSet[string]
	productions map[string][]Production
}

// New creates an empty grammar with the given start symbol. The start
// symbol is registered as a non-terminal automatically once a production
// for it is added.
func New(start string) *Grammar {
	return &Grammar{
		start:       start,
		terminals:   util.NewOrderedSet[string](),
		nonTerms:    util.NewOrderedSet[string](),
		productions: map[string][]Production{},
	}
}

// StartSymbol returns the grammar's start non-terminal.
func (g *Grammar) StartSymbol() string { return g.start }

// Terminals returns the terminal alphabet in declaration order.
func (g *Grammar) Terminals() []string { return g.terminals.Elements() }

// NonTerminals returns the non-terminal alphabet in declaration order.
func (g *Grammar) NonTerminals() []string { return g.nonTerms.Elements() }

// IsTerminal reports whether sym is a registered terminal (EOF and ERROR
// always count as terminals even if never explicitly added).
func (g *Grammar) IsTerminal(sym string) bool {
	return sym == EOF || sym == ERROR || g.terminals.Has(sym)
}

// IsNonTerminal reports whether sym is a registered non-terminal.
func (g *Grammar) IsNonTerminal(sym string) bool {
	return g.nonTerms.Has(sym)
}

// AddTerminal registers a terminal symbol explicitly (useful for terminals
// that never appear in a production body, e.g. ones only reachable via
// ERROR-production recovery).
func (g *Grammar) AddTerminal(sym string) {
	g.terminals.Add(sym)
}

// AddProduction registers head -> body with the given optional rule. Any
// symbol in body not already known is classified as a terminal unless it
// is later the head of some production (non-terminal-ness is resolved
// lazily: a symbol that is ever a production head is a non-terminal).
func (g *Grammar) AddProduction(head string, body Sentence, rule ReductionRule) {
	g.nonTerms.Add(head)
	// a symbol previously assumed terminal but now used as a head is
	// promoted to non-terminal.
	for _, sym := range body {
		if sym == Epsilon || sym == EOF || sym == ERROR {
			continue
		}
		if !g.nonTerms.Has(sym) {
			g.terminals.Add(sym)
		}
	}
	g.productions[head] = append(g.productions[head], Production{Head: head, Body: body, Rule: rule})
}

// Productions returns every production of the grammar across all
// non-terminals, in non-terminal declaration order and then declaration
// order within each non-terminal.
func (g *Grammar) Productions() []Production {
	var all []Production
	for _, nt := range g.nonTerms.Elements() {
		all = append(all, g.productions[nt]...)
	}
	return all
}

// ProductionsFor returns the productions whose head is nt, in declaration
// order.
func (g *Grammar) ProductionsFor(nt string) []Production {
	return g.productions[nt]
}

// reclassify removes a terminal that turned out to also be used as a
// non-terminal head; AddProduction already promotes eagerly, but a
// terminal added via AddProduction's body-scan before its head production
// was seen needs this cleanup pass, called once by Augmented/Validate.
func (g *Grammar) reclassify() {
	for _, nt := range g.nonTerms.Elements() {
		if g.terminals.Has(nt) {
			// rebuild the terminal set without nt; OrderedSet has no
			// Remove, so just construct fresh preserving order.
			fresh := util.NewOrderedSet[string]()
			for _, t := range g.terminals.Elements() {
				if t != nt {
					fresh.Add(t)
				}
			}
			g.terminals = fresh
		}
	}
}

// Augmented returns a copy of g with a fresh start symbol S' and a single
// production S' -> S added, where S is g's original start symbol. This
// makes the end-of-input transition the unique accept edge the LALR(1)
// table builder looks for.
func (g *Grammar) Augmented() *Grammar {
	if g.start == AugmentedStart {
		return g
	}
	cp := g.Copy()
	cp.nonTerms = prepend(cp.nonTerms, AugmentedStart)
	cp.productions[AugmentedStart] = []Production{{
		Head: AugmentedStart,
		Body: Sentence{g.start},
		Rule: func(f Frame) any { return f.Get(1) },
	}}
	cp.start = AugmentedStart
	cp.reclassify()
	return cp
}

func prepend(s *util.OrderedSet[string], v string) *util.OrderedSet[string] {
	fresh := util.NewOrderedSet[string]()
	fresh.Add(v)
	fresh.AddAll(s)
	return fresh
}

// Copy returns a structurally independent copy of the grammar.
func (g *Grammar) Copy() *Grammar {
	cp := New(g.start)
	cp.terminals = g.terminals.Copy()
	cp.nonTerms = g.nonTerms.Copy()
	for nt, prods := range g.productions {
		cpProds := make([]Production, len(prods))
		copy(cpProds, prods)
		cp.productions[nt] = cpProds
	}
	return cp
}

func (g *Grammar) String() string {
	s := fmt.Sprintf("Grammar(start=%s)", g.start)
	for _, p := range g.Productions() {
		s += "\n  " + p.String()
	}
	return s
}
