package sema

import (
	"fmt"

	"github.com/dekarrin/coolc/internal/ast"
	"github.com/dekarrin/coolc/internal/types"
)

// noInheritFrom lists the built-in types a user class is forbidden
// from inheriting from.
var noInheritFrom = map[string]bool{
	types.IntTypeName:    true,
	types.StringTypeName: true,
	types.BoolTypeName:   true,
	types.SelfTypeName:   true,
}

// Build assigns each class's parent (defaulting to Object) and
// installs its attributes and methods, using the error type as a
// placeholder wherever a declared type name doesn't resolve so the
// rest of the pass can keep going.
func Build(ctx *types.Context, prog *ast.Program) []string {
	var errs []string
	errType, _ := ctx.GetType(types.ErrorTypeName)
	object, _ := ctx.GetType(types.ObjectTypeName)

	for _, c := range prog.Classes {
		t, err := ctx.GetType(c.Name)
		if err != nil {
			continue // duplicate class name already reported by Collect
		}

		if c.Parent == "" {
			t.SetParent(object)
			continue
		}
		if noInheritFrom[c.Parent] {
			errs = append(errs, fmt.Sprintf(`(%d) - TypeError: Class "%s" cannot inherits from "%s"`, c.Line, c.Name, c.Parent))
			t.SetParent(object)
			continue
		}
		parent, err := ctx.GetType(c.Parent)
		if err != nil {
			errs = append(errs, fmt.Sprintf(`(%d) - TypeError: Class "%s" cannot inherits from "%s"`, c.Line, c.Name, c.Parent))
			parent = object
		}
		t.SetParent(parent)
	}

	for _, c := range prog.Classes {
		t, err := ctx.GetType(c.Name)
		if err != nil {
			continue
		}
		for _, f := range c.Features {
			switch feat := f.(type) {
			case *ast.AttrDecl:
				if feat.Type != types.SelfTypeName && !ctx.HasType(feat.Type) {
					errs = append(errs, fmt.Sprintf(`(%d) - TypeError: Type "%s" is not defined.`, feat.Line, feat.Type))
				}
				typ := resolveFeatureType(ctx, feat.Type, t, errType)
				t.DefineAttribute(feat.Name, typ)
			case *ast.MethodDecl:
				paramNames := make([]string, len(feat.Params))
				paramTypes := make([]*types.Type, len(feat.Params))
				for i, p := range feat.Params {
					paramNames[i] = p.Name
					if p.Type == types.SelfTypeName {
						errs = append(errs, fmt.Sprintf(`(%d) - TypeError: "%s" cannot be a static type of a parameter.`, p.Line, p.Name))
						paramTypes[i] = errType
						continue
					}
					if !ctx.HasType(p.Type) {
						errs = append(errs, fmt.Sprintf(`(%d) - TypeError: Type "%s" is not defined.`, p.Line, p.Type))
					}
					paramTypes[i] = resolveFeatureType(ctx, p.Type, t, errType)
				}
				var ret *types.Type
				if feat.ReturnType == types.SelfTypeName {
					ret, _ = ctx.GetType(types.SelfTypeName)
				} else {
					if !ctx.HasType(feat.ReturnType) {
						errs = append(errs, fmt.Sprintf(`(%d) - TypeError: Type "%s" is not defined.`, feat.Line, feat.ReturnType))
					}
					ret = resolveFeatureType(ctx, feat.ReturnType, t, errType)
				}
				t.DefineMethod(feat.Name, paramNames, paramTypes, ret)
			}
		}
	}

	return errs
}

// resolveFeatureType resolves a declared type name in the context of
// class owner, substituting SELF_TYPE with owner itself (attributes,
// parameters, let-bindings, and case branches all collapse SELF_TYPE
// to the enclosing class rather than keeping it as the late-bound
// sentinel that method return types use).
func resolveFeatureType(ctx *types.Context, name string, owner *types.Type, errType *types.Type) *types.Type {
	if name == types.SelfTypeName {
		return owner
	}
	t, err := ctx.GetType(name)
	if err != nil {
		return errType
	}
	return t
}
