package grammar

import (
	"sort"
	"strings"

	"github.com/dekarrin/coolc/internal/util"
)

// Item is an LR(1) item: a production with a dot position and a set of
// lookahead terminals. The center (production plus dot
// position, ignoring lookaheads) is what LALR(1) construction merges on.
type Item struct {
	Production Production
	Dot        int
	Lookaheads *util.OrderedSet[string]
}

// Center is the (production, dot) pair with lookaheads stripped, used as
// the merge key for LALR(1) state construction.
type Center struct {
	Production Production
	Dot        int
}

func (c Center) String() string {
	return dottedString(c.Production, c.Dot)
}

// Center returns this item's center.
func (it Item) Center() Center {
	return Center{Production: it.Production, Dot: it.Dot}
}

// AtEnd reports whether the dot is past the last body symbol (a reduce
// item).
func (it Item) AtEnd() bool {
	return it.Dot >= len(it.Production.Body)
}

// NextSymbol returns the symbol immediately after the dot, or "" if AtEnd.
func (it Item) NextSymbol() string {
	if it.AtEnd() {
		return ""
	}
	return it.Production.Body[it.Dot]
}

// Advance returns a copy of it with the dot moved one position to the
// right (and the same lookaheads), used by goto.
func (it Item) Advance() Item {
	return Item{Production: it.Production, Dot: it.Dot + 1, Lookaheads: it.Lookaheads}
}

// Equal performs full structural equality including lookaheads.
func (it Item) Equal(o Item) bool {
	if !it.Production.Equal(o.Production) || it.Dot != o.Dot {
		return false
	}
	if it.Lookaheads.Len() != o.Lookaheads.Len() {
		return false
	}
	for _, la := range it.Lookaheads.Elements() {
		if !o.Lookaheads.Has(la) {
			return false
		}
	}
	return true
}

func dottedString(p Production, dot int) string {
	var sb strings.Builder
	sb.WriteString(p.Head)
	sb.WriteString(" -> ")
	for i, sym := range p.Body {
		if i == dot {
			sb.WriteString(". ")
		}
		sb.WriteString(sym)
		sb.WriteString(" ")
	}
	if dot == len(p.Body) {
		sb.WriteString(".")
	}
	return strings.TrimSpace(sb.String())
}

func (it Item) String() string {
	las := make([]string, 0, it.Lookaheads.Len())
	las = append(las, it.Lookaheads.Elements()...)
	sort.Strings(las)
	return dottedString(it.Production, it.Dot) + ", " + strings.Join(las, "/")
}

// ItemSet is a set of items keyed by their center (production + dot);
// adding an item whose center is already present merges its lookaheads
// into the existing item. Insertion order is preserved.
type ItemSet struct {
	byKey map[string]Item
	order []string
}

// NewItemSet creates an empty ItemSet.
func NewItemSet() *ItemSet {
	return &ItemSet{byKey: map[string]Item{}}
}

// Add inserts it, merging lookaheads into an existing item with the same
// center if present. Returns true if the set's content changed (a new
// item was added, or an existing item's lookahead set grew) -- the signal
// the LALR(1) builder uses to know when a state needs to be re-processed.
func (s *ItemSet) Add(it Item) bool {
	key := it.Center().String()
	existing, ok := s.byKey[key]
	if !ok {
		cp := it
		cp.Lookaheads = it.Lookaheads.Copy()
		s.byKey[key] = cp
		s.order = append(s.order, key)
		return true
	}
	return existing.Lookaheads.AddAll(it.Lookaheads)
}

// Items returns the items in insertion order.
func (s *ItemSet) Items() []Item {
	out := make([]Item, len(s.order))
	for i, k := range s.order {
		out[i] = s.byKey[k]
	}
	return out
}

// Len returns the number of distinct centers in the set.
func (s *ItemSet) Len() int { return len(s.order) }

// CoreKey returns a string uniquely identifying the set of centers present
// (ignoring lookaheads), used to detect when two states should be the same
// LALR(1) state.
func (s *ItemSet) CoreKey() string {
	keys := make([]string, len(s.order))
	copy(keys, s.order)
	sort.Strings(keys)
	return strings.Join(keys, "|")
}

// FullKey is CoreKey with lookaheads included: the identity of a
// canonical LR(1) state, where same-core states with different
// lookaheads stay distinct.
func (s *ItemSet) FullKey() string {
	keys := make([]string, 0, len(s.order))
	for _, it := range s.Items() {
		keys = append(keys, it.String())
	}
	sort.Strings(keys)
	return strings.Join(keys, "|")
}

func (s *ItemSet) String() string {
	var parts []string
	for _, it := range s.Items() {
		parts = append(parts, it.String())
	}
	return "{" + strings.Join(parts, "; ") + "}"
}
