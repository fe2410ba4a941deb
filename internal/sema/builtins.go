// Package sema implements the COOL multi-pass semantic pipeline: type
// collection, type building (parent/attribute/method installation),
// topological class ordering with cycle detection, overridden-method
// signature checking, and the final expression type checker. Each pass
// is a type switch over ast nodes accumulating diagnostics.
package sema

import "github.com/dekarrin/coolc/internal/types"

// NewBaseContext creates a Context pre-populated with COOL's built-in
// types and their built-in methods.
func NewBaseContext() *types.Context {
	ctx := types.NewContext()

	autoType := types.NewBypassType(types.AutoTypeName)
	ctx.AddType(autoType)

	selfType := types.NewType(types.SelfTypeName)
	ctx.AddType(selfType)

	errorType := types.NewBypassType(types.ErrorTypeName)
	ctx.AddType(errorType)

	object, _ := ctx.CreateType(types.ObjectTypeName)
	io, _ := ctx.CreateType(types.IOTypeName)
	str, _ := ctx.CreateType(types.StringTypeName)
	integer, _ := ctx.CreateType(types.IntTypeName)
	boolean, _ := ctx.CreateType(types.BoolTypeName)

	io.SetParent(object)
	str.SetParent(object)
	integer.SetParent(object)
	boolean.SetParent(object)

	object.DefineMethod("abort", nil, nil, object)
	object.DefineMethod("type_name", nil, nil, str)
	object.DefineMethod("copy", nil, nil, selfType)

	io.DefineMethod("out_string", []string{"x"}, []*types.Type{str}, selfType)
	io.DefineMethod("out_int", []string{"x"}, []*types.Type{integer}, selfType)
	io.DefineMethod("in_string", nil, nil, str)
	io.DefineMethod("in_int", nil, nil, integer)

	str.DefineMethod("length", nil, nil, integer)
	str.DefineMethod("concat", []string{"s"}, []*types.Type{str}, str)
	str.DefineMethod("substr", []string{"i", "l"}, []*types.Type{integer, integer}, str)

	return ctx
}
