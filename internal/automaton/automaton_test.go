package automaton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(d *DFA[int], input string) bool {
	state := d.Start
	for _, r := range input {
		next, ok := d.Next(state, string(r))
		if !ok {
			return false
		}
		state = next
	}
	return d.IsAccepting(state)
}

// (a|b)*abb -- the textbook Thompson-construction example.
func abbNFA() *NFA[int] {
	a := Symbol[int]("a")
	b := Symbol[int]("b")
	ab := Union[int](a, b)
	star := Star[int](ab)
	tail := Concat[int](Concat[int](Symbol[int]("a"), Symbol[int]("b")), Symbol[int]("b"))
	return Concat[int](star, tail)
}

func TestThompsonAndSubsetConstruction_MatchesAbbLanguage(t *testing.T) {
	nfa := abbNFA()
	dfa := nfa.ToDFA()

	assert.True(t, run(dfa, "abb"))
	assert.True(t, run(dfa, "aababb"))
	assert.True(t, run(dfa, "bbbabb"))
	assert.False(t, run(dfa, "abba"))
	assert.False(t, run(dfa, "ab"))
	assert.False(t, run(dfa, ""))
}

func TestUnion_EitherBranchAccepts(t *testing.T) {
	nfa := Union[int](Symbol[int]("x"), Symbol[int]("y"))
	dfa := nfa.ToDFA()

	assert.True(t, run(dfa, "x"))
	assert.True(t, run(dfa, "y"))
	assert.False(t, run(dfa, "z"))
}

func TestPlus_RequiresAtLeastOneRepetition(t *testing.T) {
	nfa := Plus[int](Symbol[int]("a"))
	dfa := nfa.ToDFA()

	assert.False(t, run(dfa, ""))
	assert.True(t, run(dfa, "a"))
	assert.True(t, run(dfa, "aaaa"))
}

func TestOptional_AcceptsEmptyOrOne(t *testing.T) {
	nfa := Optional[int](Symbol[int]("a"))
	dfa := nfa.ToDFA()

	assert.True(t, run(dfa, ""))
	assert.True(t, run(dfa, "a"))
	assert.False(t, run(dfa, "aa"))
}

func TestEpsilonClosure_FollowsChainedEpsilons(t *testing.T) {
	n := NewNFA[int]()
	s1 := n.AddState(false)
	s2 := n.AddState(true)
	n.AddTransition(n.Start, "", s1)
	n.AddTransition(s1, "", s2)

	closure := n.EpsilonClosure([]int{n.Start})
	assert.True(t, closure[n.Start])
	assert.True(t, closure[s1])
	assert.True(t, closure[s2])
}

func TestDFA_MinimizeCollapsesEquivalentStates(t *testing.T) {
	// (a|b)* over the alphabet {a,b}: every state is accepting and every
	// transition loops back to the same one state once minimized.
	nfa := Star[int](Union[int](Symbol[int]("a"), Symbol[int]("b")))
	dfa := nfa.ToDFA()

	min := dfa.Minimize(func(v int) string { return "" })
	assert.LessOrEqual(t, min.NumStates(), dfa.NumStates())
	assert.True(t, run(min, ""))
	assert.True(t, run(min, "aabba"))
	assert.False(t, run(min, "aabc"))
}

func TestDFA_AddStateAndValue(t *testing.T) {
	d := &DFA[string]{}
	s := d.AddState(true)
	d.SetValue(s, "TOKEN")
	v, ok := d.Value(s)
	require.True(t, ok)
	assert.Equal(t, "TOKEN", v)
	assert.True(t, d.IsAccepting(s))
}
