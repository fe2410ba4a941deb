package sema

import (
	"fmt"

	"github.com/dekarrin/coolc/internal/ast"
	"github.com/dekarrin/coolc/internal/types"
)

// CheckOverrides validates that no class redefines an attribute
// already visible in its ancestry, and that every method a class
// redefines keeps its parent's exact signature. Must run after Build
// and TopoSort, since it assumes every class's Type already has its
// parent and features installed and that ancestors precede descendants
// in prog.Classes.
func CheckOverrides(ctx *types.Context, prog *ast.Program) []string {
	var errs []string

	for _, c := range prog.Classes {
		t, err := ctx.GetType(c.Name)
		if err != nil || t.Parent == nil {
			continue
		}
		for _, f := range c.Features {
			switch feat := f.(type) {
			case *ast.AttrDecl:
				if _, _, err := t.Parent.GetAttribute(feat.Name); err == nil {
					errs = append(errs, fmt.Sprintf(`(%d) - OverrideError: Attribute "%s" already defined in "%s", attributes cannot be overridden`, feat.Line, feat.Name, t.Parent.Name))
				}
			case *ast.MethodDecl:
				parentMethod, _, err := t.Parent.GetMethod(feat.Name)
				if err != nil {
					continue // not an override, nothing to check
				}
				ownMethod, _, err := t.GetMethod(feat.Name)
				if err != nil {
					continue
				}
				if !ownMethod.SameSignature(parentMethod) {
					errs = append(errs, fmt.Sprintf(`(%d) - OverrideError: Method "%s" already defined in "%s" with a different signature.`, feat.Line, feat.Name, t.Parent.Name))
				}
			}
		}
	}

	return errs
}
