package sema

import (
	"fmt"

	"github.com/dekarrin/coolc/internal/ast"
	"github.com/dekarrin/coolc/internal/types"
)

// Collect registers every user class in prog as a Type in ctx. It does
// not assign parents or features -- that happens in Build -- so that
// forward references (a class inheriting from one declared later in
// the file) resolve correctly.
func Collect(ctx *types.Context, prog *ast.Program) []string {
	var errs []string
	for _, c := range prog.Classes {
		if _, err := ctx.CreateType(c.Name); err != nil {
			errs = append(errs, fmt.Sprintf("(%d) - TypeError: %s", c.Line, err.Error()))
		}
	}
	return errs
}
