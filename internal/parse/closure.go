// Package parse builds an LALR(1) ACTION/GOTO table from a grammar and
// drives a shift-reduce parse over a token stream. Construction merges
// same-core states incrementally instead of building the full LR(1)
// collection first and merging afterwards.
package parse

import (
	"github.com/dekarrin/coolc/internal/grammar"
	"github.com/dekarrin/coolc/internal/util"
)

// closure computes the LR(1) closure of a seed set of items.
func closure(seed *grammar.ItemSet, g *grammar.Grammar, firsts map[string]*util.OrderedSet[string]) *grammar.ItemSet {
	set := grammar.NewItemSet()
	for _, it := range seed.Items() {
		set.Add(it)
	}

	changed := true
	for changed {
		changed = false
		for _, it := range set.Items() {
			if it.AtEnd() {
				continue
			}
			sym := it.NextSymbol()
			if !g.IsNonTerminal(sym) {
				continue
			}

			// beta is everything after the dot-symbol; lookaheads for the
			// new items are FIRST(beta La) for each la in it.Lookaheads.
			beta := grammar.Sentence(it.Production.Body[it.Dot+1:])

			for _, prod := range g.ProductionsFor(sym) {
				for _, la := range it.Lookaheads.Elements() {
					extended := append(grammar.Sentence{}, beta...)
					extended = append(extended, la)
					laSet := grammar.FirstOfSentence(firsts, extended)

					newItem := grammar.Item{Production: prod, Dot: 0, Lookaheads: laSet}
					if set.Add(newItem) {
						changed = true
					}
				}
			}
		}
	}
	return set
}

// gotoSet computes GOTO(I, X): advance every item in I whose next symbol
// is X, then take the closure.
func gotoSet(I *grammar.ItemSet, X string, g *grammar.Grammar, firsts map[string]*util.OrderedSet[string]) *grammar.ItemSet {
	seed := grammar.NewItemSet()
	for _, it := range I.Items() {
		if it.NextSymbol() == X {
			seed.Add(it.Advance())
		}
	}
	if seed.Len() == 0 {
		return seed
	}
	return closure(seed, g, firsts)
}

// mergeInto merges every item of src into dst (by center, growing
// lookaheads on a match), returning whether dst's content changed.
func mergeInto(dst, src *grammar.ItemSet) bool {
	changed := false
	for _, it := range src.Items() {
		if dst.Add(it) {
			changed = true
		}
	}
	return changed
}

// symbolsAfterDot returns, in first-seen order, every grammar symbol that
// appears immediately after some item's dot in I -- the candidate X's to
// compute GOTO(I, X) for.
func symbolsAfterDot(I *grammar.ItemSet) []string {
	seen := util.NewStringSet()
	var order []string
	for _, it := range I.Items() {
		sym := it.NextSymbol()
		if sym == "" {
			continue
		}
		if !seen.Has(sym) {
			seen.Add(sym)
			order = append(order, sym)
		}
	}
	return order
}
