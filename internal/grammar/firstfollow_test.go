package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// classic textbook grammar:
//
//	E  -> T E'
//	E' -> + T E' | ε
//	T  -> F T'
//	T' -> * F T' | ε
//	F  -> ( E ) | id
func exprGrammar() *Grammar {
	g := New("E")
	g.AddProduction("E", Sentence{"T", "E'"}, nil)
	g.AddProduction("E'", Sentence{"+", "T", "E'"}, nil)
	g.AddProduction("E'", Sentence{}, nil)
	g.AddProduction("T", Sentence{"F", "T'"}, nil)
	g.AddProduction("T'", Sentence{"*", "F", "T'"}, nil)
	g.AddProduction("T'", Sentence{}, nil)
	g.AddProduction("F", Sentence{"(", "E", ")"}, nil)
	g.AddProduction("F", Sentence{"id"}, nil)
	return g
}

// augmented mirrors how BuildLALR1 always calls First/Follow only after
// Augmented(), which reclassifies any non-terminal that AddProduction's
// eager body scan mistook for a terminal because it was referenced
// before its own head production was declared.
func augmented(g *Grammar) *Grammar {
	return g.Augmented()
}

func TestFirst_TextbookExpressionGrammar(t *testing.T) {
	g := augmented(exprGrammar())
	first := First(g)

	assert.ElementsMatch(t, []string{"(", "id"}, first["E"].Elements())
	assert.ElementsMatch(t, []string{"(", "id"}, first["T"].Elements())
	assert.ElementsMatch(t, []string{"(", "id"}, first["F"].Elements())
	assert.ElementsMatch(t, []string{"+", Epsilon}, first["E'"].Elements())
	assert.ElementsMatch(t, []string{"*", Epsilon}, first["T'"].Elements())
}

func TestFollow_TextbookExpressionGrammar(t *testing.T) {
	g := augmented(exprGrammar())
	first := First(g)
	follow := Follow(g, first)

	assert.ElementsMatch(t, []string{EOF, ")"}, follow["E"].Elements())
	assert.ElementsMatch(t, []string{EOF, ")"}, follow["E'"].Elements())
	assert.ElementsMatch(t, []string{"+", EOF, ")"}, follow["T"].Elements())
	assert.ElementsMatch(t, []string{"+", EOF, ")"}, follow["T'"].Elements())
	assert.ElementsMatch(t, []string{"+", "*", EOF, ")"}, follow["F"].Elements())
}

func TestFirstOfSentence_NullablePrefixFallsThrough(t *testing.T) {
	g := augmented(exprGrammar())
	first := First(g)

	// E' T' is nullable end-to-end (both can derive epsilon), so
	// FirstOfSentence must itself contain Epsilon.
	got := FirstOfSentence(first, Sentence{"E'", "T'"})
	assert.True(t, got.Has(Epsilon))
	assert.True(t, got.Has("+"))
	assert.True(t, got.Has("*"))

	got = FirstOfSentence(first, Sentence{"T", "E'"})
	assert.False(t, got.Has(Epsilon))
	assert.True(t, got.Has("("))
	assert.True(t, got.Has("id"))
}

func TestFirst_GrammarWithErrorProduction(t *testing.T) {
	g := New("L")
	g.AddProduction("L", Sentence{"x", ";", "L"}, nil)
	g.AddProduction("L", Sentence{"x", ";"}, nil)
	g.AddProduction("L", Sentence{"x", ERROR, "L"}, nil)

	first := First(g.Augmented())
	require.NotNil(t, first[ERROR])
	assert.ElementsMatch(t, []string{ERROR}, first[ERROR].Elements())
	assert.ElementsMatch(t, []string{"x"}, first["L"].Elements())
}

func TestProduction_IsEpsilonAndHasError(t *testing.T) {
	eps := Production{Head: "E'", Body: Sentence{}}
	assert.True(t, eps.IsEpsilon())
	assert.False(t, eps.HasError())

	withErr := Production{Head: "Stmt", Body: Sentence{ERROR, ";"}}
	assert.False(t, withErr.IsEpsilon())
	assert.True(t, withErr.HasError())
}

func TestProduction_Equal(t *testing.T) {
	a := Production{Head: "E", Body: Sentence{"T", "E'"}}
	b := Production{Head: "E", Body: Sentence{"T", "E'"}, Rule: func(f Frame) any { return nil }}
	c := Production{Head: "E", Body: Sentence{"T"}}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
