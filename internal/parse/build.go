package parse

import (
	"fmt"

	"github.com/dekarrin/coolc/internal/grammar"
	"github.com/dekarrin/coolc/internal/util"
)

// BuildLALR1 constructs the canonical LALR(1) ACTION/GOTO table for g.
//
// Unlike the classic two-phase recipe (build the full LR(1) collection,
// then merge states sharing a core), this merges lookaheads into
// existing states as soon as a GOTO transition lands on an already-seen
// core, and re-enqueues that state for re-expansion if the merge grew
// its lookaheads. This converges to the same table
// with less peak memory, since same-core LR(1) states never coexist
// distinctly; grammar.ItemSet.Add reports growth for exactly this
// purpose.
func BuildLALR1(g *grammar.Grammar) (*Table, error) {
	aug := g.Augmented()
	firsts := grammar.First(aug)

	startProd := aug.ProductionsFor(aug.StartSymbol())[0]
	seed := grammar.NewItemSet()
	seedLA := util.NewOrderedSet[string]()
	seedLA.Add(grammar.EOF)
	seed.Add(grammar.Item{Production: startProd, Dot: 0, Lookaheads: seedLA})

	start := closure(seed, aug, firsts)

	states := []*grammar.ItemSet{start}
	coreIndex := map[string]int{start.CoreKey(): 0}
	transitions := []map[string]int{{}}

	worklist := []int{0}
	for len(worklist) > 0 {
		i := worklist[0]
		worklist = worklist[1:]
		I := states[i]

		for _, X := range symbolsAfterDot(I) {
			J := gotoSet(I, X, aug, firsts)
			if J.Len() == 0 {
				continue
			}
			key := J.CoreKey()
			if existing, ok := coreIndex[key]; ok {
				grew := mergeInto(states[existing], J)
				transitions[i][X] = existing
				if grew {
					worklist = append(worklist, existing)
				}
				continue
			}

			newID := len(states)
			states = append(states, J)
			transitions = append(transitions, map[string]int{})
			coreIndex[key] = newID
			transitions[i][X] = newID
			worklist = append(worklist, newID)
		}
	}

	return fillTables(aug, states, transitions), nil
}

// BuildLR1 constructs the canonical LR(1) (CLR) ACTION/GOTO table for
// g: states are keyed by their full item sets, lookaheads included, so
// two states sharing a core but differing in lookaheads stay distinct.
// Larger than the LALR(1) table for the same grammar, but never
// introduces the merged-lookahead reduce/reduce conflicts LALR(1) can.
func BuildLR1(g *grammar.Grammar) (*Table, error) {
	aug := g.Augmented()
	firsts := grammar.First(aug)

	startProd := aug.ProductionsFor(aug.StartSymbol())[0]
	seed := grammar.NewItemSet()
	seedLA := util.NewOrderedSet[string]()
	seedLA.Add(grammar.EOF)
	seed.Add(grammar.Item{Production: startProd, Dot: 0, Lookaheads: seedLA})

	start := closure(seed, aug, firsts)

	states := []*grammar.ItemSet{start}
	fullIndex := map[string]int{start.FullKey(): 0}
	transitions := []map[string]int{{}}

	worklist := []int{0}
	for len(worklist) > 0 {
		i := worklist[0]
		worklist = worklist[1:]
		I := states[i]

		for _, X := range symbolsAfterDot(I) {
			J := gotoSet(I, X, aug, firsts)
			if J.Len() == 0 {
				continue
			}
			key := J.FullKey()
			if existing, ok := fullIndex[key]; ok {
				transitions[i][X] = existing
				continue
			}

			newID := len(states)
			states = append(states, J)
			transitions = append(transitions, map[string]int{})
			fullIndex[key] = newID
			transitions[i][X] = newID
			worklist = append(worklist, newID)
		}
	}

	return fillTables(aug, states, transitions), nil
}

// fillTables turns a finished state collection and its transition maps
// into ACTION/GOTO entries, routing every write through setAction so
// conflicts are observed.
func fillTables(aug *grammar.Grammar, states []*grammar.ItemSet, transitions []map[string]int) *Table {
	t := &Table{
		Grammar: aug,
		States:  states,
		Action:  make([]map[string]Action, len(states)),
		Goto:    make([]map[string]int, len(states)),
	}
	for i := range states {
		t.Action[i] = map[string]Action{}
		t.Goto[i] = map[string]int{}
	}

	order := prodOrder(aug)

	for i, I := range states {
		for sym, target := range transitions[i] {
			if aug.IsNonTerminal(sym) {
				t.Goto[i][sym] = target
				continue
			}
			t.setAction(i, sym, Action{Kind: ActionShift, ShiftState: target}, order)
		}

		for _, it := range I.Items() {
			if !it.AtEnd() {
				continue
			}
			if it.Production.Head == aug.StartSymbol() {
				t.setAction(i, grammar.EOF, Action{Kind: ActionAccept}, order)
				continue
			}
			for _, la := range it.Lookaheads.Elements() {
				t.setAction(i, la, Action{Kind: ActionReduce, Reduce: it.Production}, order)
			}
		}
	}

	return t
}

func (t *Table) setAction(state int, sym string, a Action, order map[string]int) {
	existing, ok := t.actionFor(state, sym)
	if !ok {
		t.Action[state][sym] = a
		return
	}
	if existing.Kind == a.Kind && existing.Kind == ActionReduce && existing.Reduce.Equal(a.Reduce) {
		return
	}

	kind := ConflictShiftReduce
	keep := existing
	lose := a
	switch {
	case existing.Kind == ActionShift && a.Kind == ActionReduce:
		// keep the shift
	case existing.Kind == ActionReduce && a.Kind == ActionShift:
		keep, lose = a, existing
	case existing.Kind == ActionReduce && a.Kind == ActionReduce:
		kind = ConflictReduceReduce
		if order[prodKey(a.Reduce)] < order[prodKey(existing.Reduce)] {
			keep, lose = a, existing
		}
	default:
		// two shifts to the same state, or accept clashing with
		// something: nothing meaningful to resolve, keep the first.
	}

	t.Action[state][sym] = keep
	t.Conflicts = append(t.Conflicts, Conflict{State: state, Symbol: sym, Kind: kind, Kept: keep, Lost: lose})
}

func prodKey(p grammar.Production) string { return p.String() }

// prodOrder assigns each production a global rank in grammar declaration
// order, used to break reduce/reduce conflicts deterministically:
// the earliest-declared production wins.
func prodOrder(g *grammar.Grammar) map[string]int {
	order := map[string]int{}
	for i, p := range g.Productions() {
		order[prodKey(p)] = i
	}
	return order
}

// String implements fmt.Stringer for Table, producing a one-line summary
// of the state and conflict counts (Dump renders the full table).
func (t *Table) String() string {
	s := fmt.Sprintf("LR table: %d states, %d conflicts\n", len(t.States), len(t.Conflicts))
	return s
}
