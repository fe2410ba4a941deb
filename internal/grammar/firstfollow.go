package grammar

import "github.com/dekarrin/coolc/internal/util"

// First computes FIRST(X) for every terminal and non-terminal in g as a
// fixed point: FIRST(t) = {t} for terminals; for X -> α, FIRST of the
// sentence is folded in symbol by symbol until one lacks ε. Termination
// follows from monotone growth over the finite symbol alphabet.
func First(g *Grammar) map[string]*util.OrderedSet[string] {
	sets := map[string]*util.OrderedSet[string]{}
	for _, t := range g.Terminals() {
		sets[t] = util.NewOrderedSet[string]()
		sets[t].Add(t)
	}
	sets[EOF] = util.NewOrderedSet[string]()
	sets[EOF].Add(EOF)
	// ERROR is a terminal even when no production body registers it
	// through AddProduction; error productions still need its FIRST set.
	sets[ERROR] = util.NewOrderedSet[string]()
	sets[ERROR].Add(ERROR)
	for _, nt := range g.NonTerminals() {
		sets[nt] = util.NewOrderedSet[string]()
	}

	changed := true
	for changed {
		changed = false
		for _, nt := range g.NonTerminals() {
			for _, p := range g.ProductionsFor(nt) {
				if p.IsEpsilon() {
					if sets[nt].Add(Epsilon) {
						changed = true
					}
					continue
				}
				nullableSoFar := true
				for _, sym := range p.Body {
					symFirst := sets[sym]
					for _, f := range symFirst.Elements() {
						if f == Epsilon {
							continue
						}
						if sets[nt].Add(f) {
							changed = true
						}
					}
					if !symFirst.Has(Epsilon) {
						nullableSoFar = false
						break
					}
				}
				if nullableSoFar {
					if sets[nt].Add(Epsilon) {
						changed = true
					}
				}
			}
		}
	}
	return sets
}

// FirstOfSentence computes FIRST(alpha) given precomputed per-symbol FIRST
// sets, the way the item-closure algorithm needs it for a production's
// remainder.
func FirstOfSentence(firsts map[string]*util.OrderedSet[string], alpha Sentence) *util.OrderedSet[string] {
	result := util.NewOrderedSet[string]()
	nullable := true
	for _, sym := range alpha {
		symFirst := firsts[sym]
		if symFirst == nil {
			// unknown symbol defensively treated as having no FIRST set;
			// callers build firsts from the same grammar alpha is drawn
			// from, so this only triggers on a caller bug.
			nullable = false
			break
		}
		for _, f := range symFirst.Elements() {
			if f != Epsilon {
				result.Add(f)
			}
		}
		if !symFirst.Has(Epsilon) {
			nullable = false
			break
		}
	}
	if nullable {
		result.Add(Epsilon)
	}
	return result
}

// Follow computes FOLLOW(X) for every non-terminal as a fixed point:
// FOLLOW(start) = {EOF}; for X -> ζYβ, FOLLOW(Y) ⊇ FIRST(β)\{ε},
// and if ε ∈ FIRST(β), FOLLOW(Y) ⊇ FOLLOW(X).
func Follow(g *Grammar, firsts map[string]*util.OrderedSet[string]) map[string]*util.OrderedSet[string] {
	follow := map[string]*util.OrderedSet[string]{}
	for _, nt := range g.NonTerminals() {
		follow[nt] = util.NewOrderedSet[string]()
	}
	follow[g.StartSymbol()].Add(EOF)

	changed := true
	for changed {
		changed = false
		for _, nt := range g.NonTerminals() {
			for _, p := range g.ProductionsFor(nt) {
				for i, sym := range p.Body {
					if !g.IsNonTerminal(sym) {
						continue
					}
					beta := p.Body[i+1:]
					betaFirst := FirstOfSentence(firsts, beta)
					for _, f := range betaFirst.Elements() {
						if f == Epsilon {
							continue
						}
						if follow[sym].Add(f) {
							changed = true
						}
					}
					if betaFirst.Has(Epsilon) {
						if follow[sym].AddAll(follow[nt]) {
							changed = true
						}
					}
				}
			}
		}
	}
	return follow
}
