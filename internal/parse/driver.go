package parse

import (
	"fmt"

	"github.com/dekarrin/coolc/internal/grammar"
	"github.com/dekarrin/coolc/internal/lex"
)

// SyntaxError is one parse-time diagnostic. Message follows the
// "Expected 'x' instead of 'y'." template for the common case
// (expected one concrete symbol); when several lookaheads would have
// been valid, Message lists the actual token without the "Expected 'x'"
// clause, since no single template can capture that case byte-exactly.
type SyntaxError struct {
	Line, Column int
	Message      string
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("(%d, %d) - SyntacticError: %s", e.Line, e.Column, e.Message)
}

// stackEntry pairs a parser state with the grammar symbol that got us
// there and the attribute synthesized for it (both empty for the
// bottom sentinel).
type stackEntry struct {
	state int
	sym   string
	attr  any
	term  string // raw lexeme, set only when attr came from a terminal
	line  int
}

// Driver runs a shift-reduce parse against a Table, invoking each
// production's ReductionRule on reduce. The ERROR terminal is a
// wildcard column in the ACTION lookup: when the actual lookahead has
// no action, the ERROR column's action is taken instead -- reduces
// cascade normally (the lookahead is untouched), and a shift consumes
// the offending token as the ERROR terminal's value, records the
// diagnostic, and discards input until a token the new state can act
// on. The driver itself has no recovery special cases beyond that
// fallback; which situations recover at all is entirely up to the
// grammar's error productions.
type Driver struct {
	Table *Table
}

// NewDriver wraps a built table for parsing.
func NewDriver(t *Table) *Driver {
	return &Driver{Table: t}
}

// fallbackCap bounds consecutive ERROR-column actions taken without
// consuming a token, so a pathological grammar cannot loop the driver
// through epsilon reductions forever.
const fallbackCap = 500

// Parse consumes tokens (already including a trailing EOF token) and
// returns the attribute synthesized for the grammar's start symbol,
// along with any syntax errors encountered and recovered from. A nil
// result with no errors never happens: either the parse finishes with a
// result, or at least one error explains why it didn't.
func (d *Driver) Parse(tokens []lex.Token) (any, []error) {
	var errs []error
	pos := 0
	stack := []stackEntry{{state: 0}}
	fallbacks := 0

	tokType := func() string {
		if tokens[pos].IsEOF() {
			return grammar.EOF
		}
		return string(tokens[pos].Type)
	}

	for {
		top := stack[len(stack)-1]
		sym := tokType()
		tok := tokens[pos]

		errorMode := false
		action, ok := d.Table.actionFor(top.state, sym)
		if !ok {
			action, ok = d.Table.actionFor(top.state, grammar.ERROR)
			if !ok {
				errs = append(errs, SyntaxError{Line: tok.Line, Column: tok.Column, Message: fmt.Sprintf("Unexpected '%s', no recovery possible.", tok.Lex)})
				return nil, errs
			}
			errorMode = true
			fallbacks++
			if fallbacks > fallbackCap {
				errs = append(errs, SyntaxError{Line: tok.Line, Column: tok.Column, Message: fmt.Sprintf("Unexpected '%s', no recovery possible.", tok.Lex)})
				return nil, errs
			}
		}

		switch action.Kind {
		case ActionShift:
			if errorMode {
				// the offending token becomes the ERROR terminal's
				// shifted value; the diagnostic names the one other
				// continuation this state accepted when there is
				// exactly one.
				msg := fmt.Sprintf("Unexpected '%s'.", tok.Lex)
				if expected, one := expectedSymbol(d.Table, top.state); one {
					msg = fmt.Sprintf("Expected '%s' instead of '%s'.", expected, tok.Lex)
				}
				errs = append(errs, SyntaxError{Line: tok.Line, Column: tok.Column, Message: msg})
				stack = append(stack, stackEntry{state: action.ShiftState, sym: grammar.ERROR, attr: tok.Lex, term: tok.Lex, line: tok.Line})
				pos++
				// resynchronize: discard input until the new state has
				// a defined action (never discarding the EOF sentinel).
				for pos < len(tokens)-1 {
					sym := string(tokens[pos].Type)
					if tokens[pos].IsEOF() {
						sym = grammar.EOF
					}
					if _, found := d.Table.actionFor(action.ShiftState, sym); found {
						break
					}
					pos++
				}
				fallbacks = 0
				continue
			}
			stack = append(stack, stackEntry{state: action.ShiftState, sym: sym, attr: tok.Lex, term: tok.Lex, line: tok.Line})
			pos++
			fallbacks = 0

		case ActionReduce:
			n := len(action.Reduce.Body)
			frame := grammar.Frame{
				Attrs:     make([]any, n),
				Terminals: make([]string, n),
				Lines:     make([]int, n),
			}
			base := len(stack) - n
			for i := 0; i < n; i++ {
				if stack[base+i].sym != action.Reduce.Body[i] {
					errs = append(errs, fmt.Errorf("ReduceError: in production %q expected %s instead of %s", action.Reduce.String(), action.Reduce.Body[i], stack[base+i].sym))
					return nil, errs
				}
				frame.Attrs[i] = stack[base+i].attr
				frame.Terminals[i] = stack[base+i].term
				frame.Lines[i] = stack[base+i].line
			}
			var result any
			if action.Reduce.Rule != nil {
				result = action.Reduce.Rule(frame)
			}
			line := tok.Line
			if n > 0 {
				line = frame.Lines[0]
			}
			stack = stack[:base]
			gotoState, ok := d.Table.Goto[stack[len(stack)-1].state][action.Reduce.Head]
			if !ok {
				errs = append(errs, fmt.Errorf("internal parser error: no goto for %s in state %d", action.Reduce.Head, stack[len(stack)-1].state))
				return nil, errs
			}
			stack = append(stack, stackEntry{state: gotoState, sym: action.Reduce.Head, attr: result, line: line})

		case ActionAccept:
			return stack[len(stack)-1].attr, errs

		default:
			errs = append(errs, SyntaxError{Line: tok.Line, Column: tok.Column, Message: fmt.Sprintf("Unexpected '%s'.", tok.Lex)})
			return nil, errs
		}
	}
}

// expectedSymbol returns the single non-ERROR terminal state has a
// defined action on, if exactly one exists. Error productions in this
// grammar are always written so that the state shifting the ERROR
// terminal has one other valid continuation (the separator the
// programmer omitted), letting the diagnostic use the literal
// "Expected 'x' instead of 'y'." template instead of a vaguer
// fallback.
func expectedSymbol(t *Table, state int) (string, bool) {
	found := ""
	count := 0
	for sym := range t.Action[state] {
		if sym == grammar.ERROR {
			continue
		}
		found = sym
		count++
	}
	if count == 1 {
		return found, true
	}
	return "", false
}
