package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderedSet_PreservesInsertionOrder(t *testing.T) {
	s := NewOrderedSet[string]()
	assert.True(t, s.Add("c"))
	assert.True(t, s.Add("a"))
	assert.True(t, s.Add("b"))
	assert.False(t, s.Add("a"), "duplicate add must report no growth")

	assert.Equal(t, []string{"c", "a", "b"}, s.Elements())
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("z"))
}

func TestOrderedSet_AddAllReportsGrowth(t *testing.T) {
	a := NewOrderedSet[string]()
	a.Add("x")
	b := NewOrderedSet[string]()
	b.Add("x")
	b.Add("y")

	assert.True(t, a.AddAll(b))
	assert.False(t, a.AddAll(b), "second AddAll of the same set must not grow")
	assert.Equal(t, []string{"x", "y"}, a.Elements())

	assert.False(t, a.AddAll(nil))
}

func TestOrderedSet_CopyIsIndependent(t *testing.T) {
	s := NewOrderedSet[int]()
	s.Add(1)
	s.Add(2)

	cp := s.Copy()
	cp.Add(3)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 3, cp.Len())
}

func TestOrderedMap_OverwriteKeepsOriginalPosition(t *testing.T) {
	m := NewOrderedMap[int]()
	m.Set("first", 1)
	m.Set("second", 2)
	m.Set("first", 10)

	assert.Equal(t, []string{"first", "second"}, m.Keys())
	assert.Equal(t, []int{10, 2}, m.Values())

	v, ok := m.Get("first")
	assert.True(t, ok)
	assert.Equal(t, 10, v)

	_, ok = m.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, m.Len())
}

func TestStringSet_SortedElements(t *testing.T) {
	s := NewStringSet("b", "c", "a")
	assert.Equal(t, []string{"b", "c", "a"}, s.Elements())
	assert.Equal(t, []string{"a", "b", "c"}, s.SortedElements())
}

func TestOrderedKeys_SortsMapKeys(t *testing.T) {
	m := map[string]int{"z": 1, "a": 2, "m": 3}
	assert.Equal(t, []string{"a", "m", "z"}, OrderedKeys(m))
}
