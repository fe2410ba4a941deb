package types

import "github.com/dekarrin/coolc/internal/util"

// Context is the program-wide type table: every class name maps to
// exactly one Type, created once by the type collector pass and then
// filled in by the type builder pass.
type Context struct {
	types *util.OrderedMap[*Type]
}

// NewContext creates an empty Context.
func NewContext() *Context {
	return &Context{types: util.NewOrderedMap[*Type]()}
}

// CreateType registers a brand new type named name, rejecting a
// duplicate class declaration.
func (c *Context) CreateType(name string) (*Type, error) {
	if c.types.Has(name) {
		return nil, semErr("Type with the same name (%s) already in context.", name)
	}
	t := NewType(name)
	c.types.Set(name, t)
	return t, nil
}

// AddType registers an already-constructed type (used for the built-in
// bypass types Error and AUTO_TYPE, which need non-default
// construction).
func (c *Context) AddType(t *Type) {
	c.types.Set(t.Name, t)
}

// GetType looks up a type by name.
func (c *Context) GetType(name string) (*Type, error) {
	t, ok := c.types.Get(name)
	if !ok {
		return nil, semErr("Type %q is not defined.", name)
	}
	return t, nil
}

// HasType reports whether name is a registered type.
func (c *Context) HasType(name string) bool {
	return c.types.Has(name)
}

// Types returns every registered type in declaration order.
func (c *Context) Types() []*Type {
	return c.types.Values()
}

func (c *Context) String() string {
	s := "{\n"
	for _, t := range c.Types() {
		s += "\t" + t.String() + "\n"
	}
	return s + "}"
}
