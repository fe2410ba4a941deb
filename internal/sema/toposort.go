package sema

import (
	"fmt"
	"sort"

	"github.com/dekarrin/coolc/internal/ast"
	"github.com/dekarrin/coolc/internal/types"
)

// TopoSort reorders prog.Classes so that every class appears after
// its parent (so the later passes can assume a class's ancestors are
// already fully built when they visit it), and reports a
// DependencyError for any inheritance cycle. The walk is a DFS with an
// explicit stack starting at Object.
func TopoSort(prog *ast.Program) (*ast.Program, []string) {
	var errs []string

	byName := map[string]*ast.ClassDecl{}
	children := map[string][]string{}
	for _, c := range prog.Classes {
		byName[c.Name] = c
	}
	for _, c := range prog.Classes {
		// a parent that is not a user class (a built-in such as IO, or an
		// undefined name Build already reported) hangs off Object.
		parent := c.Parent
		if _, ok := byName[parent]; !ok {
			parent = types.ObjectTypeName
		}
		children[parent] = append(children[parent], c.Name)
	}
	for k := range children {
		sort.Strings(children[k])
	}

	visited := map[string]bool{}
	var order []*ast.ClassDecl

	type frame struct {
		name string
		kids []string
		idx  int
	}
	var stack []frame
	stack = append(stack, frame{name: types.ObjectTypeName, kids: children[types.ObjectTypeName]})
	onStack := map[string]bool{types.ObjectTypeName: true}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.idx >= len(top.kids) {
			onStack[top.name] = false
			stack = stack[:len(stack)-1]
			continue
		}
		next := top.kids[top.idx]
		top.idx++
		if onStack[next] {
			errs = append(errs, fmt.Sprintf("DependencyError: Circular class dependency involving class %s.", next))
			continue
		}
		if visited[next] {
			continue
		}
		// append on push so every parent precedes its children in the
		// resulting order.
		visited[next] = true
		if c, ok := byName[next]; ok {
			order = append(order, c)
		}
		onStack[next] = true
		stack = append(stack, frame{name: next, kids: children[next]})
	}

	for _, c := range prog.Classes {
		if !visited[c.Name] {
			errs = append(errs, fmt.Sprintf("DependencyError: Circular class dependency involving class %s.", c.Name))
		}
	}

	prog.Classes = order
	return prog, errs
}
