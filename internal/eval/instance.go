// Package eval implements the tree-walking COOL evaluator: dynamic
// dispatch over the type-checked AST, SELF_TYPE resolution at
// instantiation time, case-branch selection, and the built-in
// Object/IO/String methods. Dispatch over node kinds is a Go type
// switch, the same idiom internal/sema and internal/infer use.
package eval

import (
	"github.com/google/uuid"

	"github.com/dekarrin/coolc/internal/types"
)

// Instance is one runtime COOL object: its dynamic type, a Go-native
// payload for the three primitive types, and its attribute values by
// name. Every Instance created by `new` carries a fresh UUID identity
// distinct from its Go pointer, so Object.copy can be
// tested for "a distinct object with the same attribute values" without
// relying on pointer identity, which a copy must NOT share.
type Instance struct {
	ID         uuid.UUID
	Type       *types.Type
	IntValue   int64
	StringVal  string
	BoolValue  bool
	Attributes map[string]*Instance
}

// NewInstance allocates a zero-valued instance of t with no attributes
// bound yet (the caller populates Attributes after evaluating each
// initializer in declaration order).
func NewInstance(t *types.Type) *Instance {
	return &Instance{ID: uuid.New(), Type: t, Attributes: map[string]*Instance{}}
}

// Void is the distinguished instance representing COOL's void value:
// Type is nil, and IsVoid reports true only for this sentinel.
var Void = &Instance{}

// IsVoid reports whether i is the void sentinel.
func (i *Instance) IsVoid() bool { return i == Void || i.Type == nil }

// Copy returns a new Instance of the same type with a fresh identity,
// holding a shallow copy of i's primitive payload and attribute map.
func (i *Instance) Copy() *Instance {
	if i.IsVoid() {
		return i
	}
	clone := NewInstance(i.Type)
	clone.IntValue = i.IntValue
	clone.StringVal = i.StringVal
	clone.BoolValue = i.BoolValue
	for k, v := range i.Attributes {
		clone.Attributes[k] = v
	}
	return clone
}
