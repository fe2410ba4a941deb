// Package types implements the COOL type hierarchy and scoping model:
// Type/Attribute/Method with conformance and join, Context as the
// program-wide type table, and Scope as the nested variable-binding
// environment the semantic passes walk the AST with. Attribute and
// method tables use internal/util.OrderedMap so iteration follows
// declaration order with O(1) lookup.
package types

import (
	"fmt"

	"github.com/dekarrin/coolc/internal/util"
)

// Special type names.
const (
	ObjectTypeName = "Object"
	SelfTypeName   = "SELF_TYPE"
	AutoTypeName   = "AUTO_TYPE"
	ErrorTypeName  = "Error"
	IntTypeName    = "Int"
	StringTypeName = "String"
	BoolTypeName   = "Bool"
	IOTypeName     = "IO"
)

// SemanticError is returned by every operation in this package that can
// fail for a program-authored reason (undefined type, redefinition,
// cycle) as opposed to a Go-level programming error.
type SemanticError struct {
	Msg string
}

func (e *SemanticError) Error() string { return e.Msg }

func semErr(format string, args ...any) error {
	return &SemanticError{Msg: fmt.Sprintf(format, args...)}
}

// Attribute is one class attribute: a name and a declared type.
type Attribute struct {
	Name string
	Type *Type
}

// Method is one class method: its parameter names/types and return
// type. Two methods are signature-equal (for override checking) when
// their return type and parameter types match positionally; parameter
// names may differ between an override and its parent.
type Method struct {
	Name       string
	ParamNames []string
	ParamTypes []*Type
	ReturnType *Type
	DefinedIn  *Type
}

// SameSignature reports whether m and o have matching return type and
// parameter types; overriding a method with a different signature is
// an error.
func (m *Method) SameSignature(o *Method) bool {
	if m.Name != o.Name || m.ReturnType != o.ReturnType {
		return false
	}
	if len(m.ParamTypes) != len(o.ParamTypes) {
		return false
	}
	for i := range m.ParamTypes {
		if m.ParamTypes[i] != o.ParamTypes[i] {
			return false
		}
	}
	return true
}

// Type is one class in the COOL type hierarchy: a name, its declared
// attributes/methods, and a parent link (nil only for Object, SELF_TYPE
// and the bypass types Error/AUTO_TYPE).
type Type struct {
	Name       string
	Parent     *Type
	Attributes *util.OrderedMap[*Attribute]
	Methods    *util.OrderedMap[*Method]

	// bypassConformance marks Error (and, during inference, AUTO_TYPE):
	// everything conforms to it and it conforms to everything, so a
	// type error doesn't cascade into a flood of further errors.
	bypassConformance bool
}

// NewType creates a named type with no parent and empty feature tables.
func NewType(name string) *Type {
	return &Type{Name: name, Attributes: util.NewOrderedMap[*Attribute](), Methods: util.NewOrderedMap[*Method]()}
}

// NewBypassType creates a type (Error, or AUTO_TYPE pre-inference) that
// conforms to and is conformed to by everything.
func NewBypassType(name string) *Type {
	t := NewType(name)
	t.bypassConformance = true
	return t
}

func (t *Type) Bypass() bool { return t.bypassConformance }

// SetParent installs t's parent; spec forbids re-parenting once set.
func (t *Type) SetParent(parent *Type) error {
	if t.Parent != nil {
		return semErr("Parent type is already set for %s.", t.Name)
	}
	t.Parent = parent
	return nil
}

// GetAttribute searches t and its ancestors for name, innermost first.
func (t *Type) GetAttribute(name string) (*Attribute, *Type, error) {
	if a, ok := t.Attributes.Get(name); ok {
		return a, t, nil
	}
	if t.Parent == nil {
		return nil, nil, semErr("Attribute %q is not defined in %s.", name, t.Name)
	}
	a, owner, err := t.Parent.GetAttribute(name)
	if err != nil {
		return nil, nil, semErr("Attribute %q is not defined in %s.", name, t.Name)
	}
	return a, owner, nil
}

// DefineAttribute installs a new attribute on t directly (no ancestor
// check: redefinition of an inherited attribute is detected by the
// override-checking pass, which is the caller's responsibility to run).
func (t *Type) DefineAttribute(name string, typ *Type) *Attribute {
	a := &Attribute{Name: name, Type: typ}
	t.Attributes.Set(name, a)
	return a
}

// GetMethod searches t and its ancestors for name, innermost first.
func (t *Type) GetMethod(name string) (*Method, *Type, error) {
	if m, ok := t.Methods.Get(name); ok {
		return m, t, nil
	}
	if t.Parent == nil {
		return nil, nil, semErr("Method %q is not defined in %s.", name, t.Name)
	}
	m, owner, err := t.Parent.GetMethod(name)
	if err != nil {
		return nil, nil, semErr("Method %q is not defined in %s.", name, t.Name)
	}
	return m, owner, nil
}

// DefineMethod installs a new method on t directly (no ancestor check:
// overriding a method with a matching signature is allowed and is the
// caller's responsibility to verify via SameSignature).
func (t *Type) DefineMethod(name string, paramNames []string, paramTypes []*Type, ret *Type) *Method {
	m := &Method{Name: name, ParamNames: paramNames, ParamTypes: paramTypes, ReturnType: ret, DefinedIn: t}
	t.Methods.Set(name, m)
	return m
}

// ConformsTo reports whether t conforms to other: either side bypasses
// conformance (Error/AUTO_TYPE), t == other, or t's parent conforms to
// other.
func (t *Type) ConformsTo(other *Type) bool {
	if t.bypassConformance || other.bypassConformance {
		return true
	}
	if t == other {
		return true
	}
	if t.Parent != nil {
		return t.Parent.ConformsTo(other)
	}
	return false
}

// Ancestors returns t, t.Parent, ... up to and including Object.
func (t *Type) Ancestors() []*Type {
	out := []*Type{t}
	if t.Parent != nil {
		out = append(out, t.Parent.Ancestors()...)
	}
	return out
}

// Join returns the nearest common ancestor of t and other: walk up
// from other until hitting a type in t's own ancestor chain.
func (t *Type) Join(other *Type) *Type {
	ancestors := map[*Type]bool{}
	for _, a := range t.Ancestors() {
		ancestors[a] = true
	}
	cur := other
	for cur != nil {
		if ancestors[cur] {
			return cur
		}
		cur = cur.Parent
	}
	return nil
}

// MultiJoin folds Join across ts left to right (spec Glossary
// "multi_join"). Panics on an empty slice -- every call site has at
// least one branch/arm to join, by grammar construction.
func MultiJoin(ts []*Type) *Type {
	result := ts[0]
	for _, t := range ts[1:] {
		result = result.Join(t)
	}
	return result
}

func (t *Type) String() string {
	return "type " + t.Name
}
