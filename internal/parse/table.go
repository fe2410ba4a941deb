package parse

import (
	"fmt"

	"github.com/dekarrin/coolc/internal/grammar"
)

// ActionKind distinguishes the four things a parser can do in a state on
// a given lookahead.
type ActionKind int

const (
	ActionError ActionKind = iota
	ActionShift
	ActionReduce
	ActionAccept
)

// Action is one ACTION table cell.
type Action struct {
	Kind       ActionKind
	ShiftState int
	Reduce     grammar.Production
}

func (a Action) String() string {
	switch a.Kind {
	case ActionShift:
		return fmt.Sprintf("shift %d", a.ShiftState)
	case ActionReduce:
		return fmt.Sprintf("reduce %s", a.Reduce.String())
	case ActionAccept:
		return "accept"
	default:
		return "error"
	}
}

// ConflictKind names which table entry was contested.
type ConflictKind int

const (
	ConflictShiftReduce ConflictKind = iota
	ConflictReduceReduce
)

func (k ConflictKind) String() string {
	if k == ConflictShiftReduce {
		return "shift/reduce"
	}
	return "reduce/reduce"
}

// Conflict records a state/symbol cell where two actions both applied;
// the table keeps the one construction resolved to (shift wins over
// reduce, earliest-declared production wins over a later one) and
// reports the rest here for diagnostics.
type Conflict struct {
	State  int
	Symbol string
	Kind   ConflictKind
	Kept   Action
	Lost   Action
}

func (c Conflict) String() string {
	return fmt.Sprintf("state %d, symbol %q: %s conflict (kept %s, discarded %s)",
		c.State, c.Symbol, c.Kind, c.Kept, c.Lost)
}

// Table is a complete LALR(1) ACTION/GOTO table over a grammar's
// canonical collection of states.
type Table struct {
	Grammar   *grammar.Grammar
	States    []*grammar.ItemSet
	Action    []map[string]Action
	Goto      []map[string]int
	Conflicts []Conflict
}

// actionFor is a convenience accessor returning (Action, true) if state/sym
// has an entry, or the zero Action and false otherwise.
func (t *Table) actionFor(state int, sym string) (Action, bool) {
	a, ok := t.Action[state][sym]
	return a, ok
}
