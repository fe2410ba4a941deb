package parse

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/coolc/internal/grammar"
	"github.com/dekarrin/coolc/internal/lex"
)

// arithGrammar is the classic unambiguous expression grammar, attributed
// to evaluate the expression it parses:
//
//	E -> E + T | T
//	T -> T * F | F
//	F -> ( E ) | int
func arithGrammar() *grammar.Grammar {
	g := grammar.New("E")
	g.AddProduction("E", grammar.Sentence{"E", "+", "T"}, func(f grammar.Frame) any {
		return f.Get(1).(int) + f.Get(3).(int)
	})
	g.AddProduction("E", grammar.Sentence{"T"}, func(f grammar.Frame) any { return f.Get(1) })
	g.AddProduction("T", grammar.Sentence{"T", "*", "F"}, func(f grammar.Frame) any {
		return f.Get(1).(int) * f.Get(3).(int)
	})
	g.AddProduction("T", grammar.Sentence{"F"}, func(f grammar.Frame) any { return f.Get(1) })
	g.AddProduction("F", grammar.Sentence{"(", "E", ")"}, func(f grammar.Frame) any { return f.Get(2) })
	g.AddProduction("F", grammar.Sentence{"int"}, func(f grammar.Frame) any {
		v, _ := strconv.Atoi(f.Lexeme(1))
		return v
	})
	return g
}

func tok(typ, lexeme string) lex.Token {
	return lex.Token{Lex: lexeme, Type: lex.TokenType(typ), Line: 1, Column: 1}
}

func eofTok() lex.Token {
	return lex.Token{Type: lex.EOFType, Line: 1, Column: 1}
}

// toks turns a space-separated sequence like "int:1 + int:2" into a token
// stream; a bare word is both type and lexeme.
func toks(spec string) []lex.Token {
	var out []lex.Token
	for _, part := range strings.Fields(spec) {
		typ, lexeme := part, part
		if i := strings.IndexByte(part, ':'); i >= 0 {
			typ, lexeme = part[:i], part[i+1:]
		}
		out = append(out, tok(typ, lexeme))
	}
	return append(out, eofTok())
}

func TestBuildLALR1_ArithGrammarIsConflictFree(t *testing.T) {
	table, err := BuildLALR1(arithGrammar())
	require.NoError(t, err)
	assert.Empty(t, table.Conflicts)
	assert.Greater(t, len(table.States), 1)
}

func TestDriver_EvaluatesPrecedence(t *testing.T) {
	table, err := BuildLALR1(arithGrammar())
	require.NoError(t, err)
	d := NewDriver(table)

	result, errs := d.Parse(toks("int:1 + int:2 * int:3"))
	require.Empty(t, errs)
	assert.Equal(t, 7, result)

	result, errs = d.Parse(toks("( int:1 + int:2 ) * int:3"))
	require.Empty(t, errs)
	assert.Equal(t, 9, result)
}

func TestDriver_SingleTokenAndNesting(t *testing.T) {
	table, err := BuildLALR1(arithGrammar())
	require.NoError(t, err)
	d := NewDriver(table)

	result, errs := d.Parse(toks("int:5"))
	require.Empty(t, errs)
	assert.Equal(t, 5, result)

	result, errs = d.Parse(toks("( ( int:4 ) )"))
	require.Empty(t, errs)
	assert.Equal(t, 4, result)
}

func TestDriver_ReportsUnrecoverableError(t *testing.T) {
	table, err := BuildLALR1(arithGrammar())
	require.NoError(t, err)
	d := NewDriver(table)

	result, errs := d.Parse(toks("int:1 + +"))
	assert.Nil(t, result)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "SyntacticError")
}

func TestBuildLALR1_DetectsAmbiguity(t *testing.T) {
	g := grammar.New("E")
	g.AddProduction("E", grammar.Sentence{"E", "+", "E"}, nil)
	g.AddProduction("E", grammar.Sentence{"int"}, nil)

	table, err := BuildLALR1(g)
	require.NoError(t, err)
	require.NotEmpty(t, table.Conflicts)
	assert.Equal(t, ConflictShiftReduce, table.Conflicts[0].Kind)
}

func TestBuildLALR1_DetectsReduceReduce(t *testing.T) {
	// A and B both derive the same single terminal with the same
	// follow set, so the state after shifting it cannot decide which
	// head to reduce to.
	g := grammar.New("S")
	g.AddProduction("S", grammar.Sentence{"A"}, nil)
	g.AddProduction("S", grammar.Sentence{"B"}, nil)
	g.AddProduction("A", grammar.Sentence{"a"}, nil)
	g.AddProduction("B", grammar.Sentence{"a"}, nil)

	table, err := BuildLALR1(g)
	require.NoError(t, err)

	found := false
	for _, c := range table.Conflicts {
		if c.Kind == ConflictReduceReduce {
			found = true
		}
	}
	assert.True(t, found, "expected a reduce/reduce conflict, got: %v", table.Conflicts)
}

// recovery grammar: a semicolon-separated list of x's, with an error
// production accepting a missing separator. Rules count the x's.
func listGrammar() *grammar.Grammar {
	g := grammar.New("L")
	g.AddProduction("L", grammar.Sentence{"x", ";", "L"}, func(f grammar.Frame) any {
		return 1 + f.Get(3).(int)
	})
	g.AddProduction("L", grammar.Sentence{"x", ";"}, func(f grammar.Frame) any { return 1 })
	g.AddProduction("L", grammar.Sentence{"x", grammar.ERROR, "L"}, func(f grammar.Frame) any {
		return 1 + f.Get(3).(int)
	})
	return g
}

func TestDriver_ErrorProductionRecovery(t *testing.T) {
	table, err := BuildLALR1(listGrammar())
	require.NoError(t, err)
	require.Empty(t, table.Conflicts, "error production must not make the grammar ambiguous")
	d := NewDriver(table)

	// the second x is missing its separator; recovery consumes it as the
	// ERROR terminal and the parse still counts both remaining items.
	result, errs := d.Parse(toks("x x ; x ;"))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), `Expected ';' instead of 'x'.`)
	assert.Equal(t, 2, result)
}

func TestDriver_CleanInputProducesNoRecoveryErrors(t *testing.T) {
	table, err := BuildLALR1(listGrammar())
	require.NoError(t, err)
	d := NewDriver(table)

	result, errs := d.Parse(toks("x ; x ; x ;"))
	require.Empty(t, errs)
	assert.Equal(t, 3, result)
}

// Every LR(1) state's core appears as exactly one LALR(1) state, and
// the union of LR(1) lookaheads over a core equals that LALR(1)
// state's lookahead set.
func TestBuildLR1_CoreMergeMatchesLALR1(t *testing.T) {
	lr1, err := BuildLR1(arithGrammar())
	require.NoError(t, err)
	lalr, err := BuildLALR1(arithGrammar())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(lr1.States), len(lalr.States))

	// collect, per LR(1) core, the union of lookaheads per item center.
	type centerLAs map[string]map[string]bool
	merged := map[string]centerLAs{}
	for _, s := range lr1.States {
		key := s.CoreKey()
		if merged[key] == nil {
			merged[key] = centerLAs{}
		}
		for _, it := range s.Items() {
			c := it.Center().String()
			if merged[key][c] == nil {
				merged[key][c] = map[string]bool{}
			}
			for _, la := range it.Lookaheads.Elements() {
				merged[key][c][la] = true
			}
		}
	}

	lalrCores := map[string]*grammar.ItemSet{}
	for _, s := range lalr.States {
		_, dup := lalrCores[s.CoreKey()]
		require.False(t, dup, "LALR(1) construction produced two states with one core")
		lalrCores[s.CoreKey()] = s
	}
	require.Len(t, lalrCores, len(merged), "LR(1) cores and LALR(1) states must correspond one to one")

	for key, centers := range merged {
		s, ok := lalrCores[key]
		require.True(t, ok, "LR(1) core missing from the LALR(1) collection")
		for _, it := range s.Items() {
			union := centers[it.Center().String()]
			require.NotNil(t, union)
			assert.Len(t, union, it.Lookaheads.Len())
			for _, la := range it.Lookaheads.Elements() {
				assert.True(t, union[la], "LALR lookahead %q not in the LR(1) union", la)
			}
		}
	}
}

func TestDriver_LR1TableParsesIdentically(t *testing.T) {
	lr1, err := BuildLR1(arithGrammar())
	require.NoError(t, err)
	require.Empty(t, lr1.Conflicts)

	result, errs := NewDriver(lr1).Parse(toks("int:1 + int:2 * int:3"))
	require.Empty(t, errs)
	assert.Equal(t, 7, result)
}

func TestBuildLALR1_StateCoresAreUnique(t *testing.T) {
	table, err := BuildLALR1(arithGrammar())
	require.NoError(t, err)

	seen := map[string]int{}
	for i, s := range table.States {
		key := s.CoreKey()
		prev, dup := seen[key]
		assert.False(t, dup, "states %d and %d share a core", prev, i)
		seen[key] = i
	}
}

func TestTable_DumpRendersAllStates(t *testing.T) {
	table, err := BuildLALR1(arithGrammar())
	require.NoError(t, err)

	dump := table.Dump()
	assert.Contains(t, dump, "shift")
	assert.Contains(t, dump, "reduce")
	// every state index shows up as a row label.
	for i := range table.States {
		assert.Contains(t, dump, strconv.Itoa(i))
	}
}
