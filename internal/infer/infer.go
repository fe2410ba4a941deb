// Package infer resolves AUTO_TYPE declarations (attributes,
// parameters, method return types, let-bindings) to concrete types
// before the final type-checking pass runs. The engine is an iterative
// fixed-point walk over the tree rather than an explicit
// graph-of-nodes: each pass re-evaluates every still-unresolved
// AUTO_TYPE slot from its defining expression (an attribute's
// initializer, a let-binding's initializer, a method's body for its
// return type, a call's arguments for the callee's parameters) using
// whatever slots have already resolved, and stops when a pass makes no
// further progress. Every declaration a value can flow through
// (attribute, parameter, let-binding, return type) is fronted by a
// types.VariableInfo or its owning Method/Attribute, and a writeback
// closure lets any usage site resolve that slot in place, so a type
// discovered at a use site flows straight back to the declaration it
// fronts.
package infer

import (
	"fmt"

	"github.com/dekarrin/coolc/internal/ast"
	"github.com/dekarrin/coolc/internal/types"
)

// maxPasses bounds the fixed-point loop; a real program's dependency
// chains are at most as deep as its nesting, so this is generous
// headroom rather than a tuned constant.
const maxPasses = 32

type engine struct {
	ctx      *types.Context
	autoType *types.Type
	object   *types.Type
	errs     []string
	changed  bool

	// methodDecls maps a semantic Method back to the AST MethodDecl
	// that declares it, so a parameter or return type resolved from a
	// call site in some OTHER class's body still updates the AST's
	// Formal.Type/ReturnType string alongside the Method it mirrors.
	methodDecls map[*types.Method]*ast.MethodDecl

	// writeback maps a scope variable (an attribute, a parameter, or a
	// let-binding, each fronted by a *types.VariableInfo) to the
	// persistent declaration it fronts. Resolving the variable from
	// usage inside some expression -- arithmetic forcing it to Int, a
	// conditional branch forcing it to match its sibling, an argument
	// forcing a parameter -- also resolves the declaration that the
	// next pass, and the final substitution, will see. Rebuilt every
	// pass since walkClass builds a fresh Scope (and fresh
	// VariableInfo values) each time.
	writeback map[*types.VariableInfo]func(*types.Type)
}

// Infer resolves every AUTO_TYPE slot in prog in place, mutating the
// Context's Attribute/Method entries and the AST's own Formal/
// LetBinding/CaseBranch type strings, and returns any
// InferenceError diagnostics for slots that never resolved out to
// a concrete type (always defaulted to Object even then, so the
// later type-checking pass never sees a bare AUTO_TYPE).
func Infer(ctx *types.Context, prog *ast.Program) []string {
	autoType, _ := ctx.GetType(types.AutoTypeName)
	object, _ := ctx.GetType(types.ObjectTypeName)
	e := &engine{ctx: ctx, autoType: autoType, object: object}

	e.methodDecls = map[*types.Method]*ast.MethodDecl{}
	for _, c := range prog.Classes {
		t, err := ctx.GetType(c.Name)
		if err != nil {
			continue
		}
		for _, f := range c.Features {
			md, ok := f.(*ast.MethodDecl)
			if !ok {
				continue
			}
			if method, _, err := t.GetMethod(md.Name); err == nil {
				e.methodDecls[method] = md
			}
		}
	}

	for pass := 0; pass < maxPasses; pass++ {
		e.changed = false
		e.writeback = map[*types.VariableInfo]func(*types.Type){}
		for _, c := range prog.Classes {
			e.walkClass(c)
		}
		if !e.changed {
			break
		}
	}

	e.defaultRemaining(prog)
	return e.errs
}

func (e *engine) walkClass(c *ast.ClassDecl) {
	t, err := e.ctx.GetType(c.Name)
	if err != nil {
		return
	}
	scope := types.NewScope()
	scope.DefineVariable("self", t)
	for _, a := range t.Ancestors() {
		for _, attr := range a.Attributes.Values() {
			attr := attr
			info := scope.DefineVariable(attr.Name, attr.Type)
			e.writeback[info] = func(nt *types.Type) {
				if attr.Type.Name != types.AutoTypeName {
					return
				}
				attr.Type = nt
				e.changed = true
			}
		}
	}

	for _, f := range c.Features {
		switch feat := f.(type) {
		case *ast.AttrDecl:
			e.walkAttr(feat, t, scope)
		case *ast.MethodDecl:
			e.walkMethod(feat, t, scope)
		}
	}
}

func (e *engine) walkAttr(a *ast.AttrDecl, cur *types.Type, scope *types.Scope) {
	if attrTypeIsAuto(cur, a.Name) {
		if candidate := e.evalInit(a.Init, scope, cur); candidate != nil {
			e.resolveAttr(cur, a.Name, candidate)
		}
	} else {
		e.evalInit(a.Init, scope, cur)
	}
	// mirror a context-side resolution (from this pass or from a use
	// site in some method body) back onto the declaration node.
	if attr, ok := cur.Attributes.Get(a.Name); ok && a.Type == types.AutoTypeName && attr.Type.Name != types.AutoTypeName {
		a.Type = attr.Type.Name
	}
}

func attrTypeIsAuto(cur *types.Type, name string) bool {
	attr, ok := cur.Attributes.Get(name)
	return ok && attr.Type.Name == types.AutoTypeName
}

func (e *engine) resolveAttr(cur *types.Type, name string, t *types.Type) {
	attr, _ := cur.Attributes.Get(name)
	if attr.Type.Name == types.AutoTypeName && t.Name != types.AutoTypeName {
		attr.Type = t
		e.changed = true
	}
}

// resolveVariable writes a newly-discovered concrete type into a scope
// variable, and -- via the writeback registered when the variable was
// defined -- into whatever persistent declaration (attribute,
// parameter, let-binding) it fronts. A no-op unless info is currently
// AUTO_TYPE and t is concrete, so resolution is monotone: a slot is
// written at most once.
func (e *engine) resolveVariable(info *types.VariableInfo, t *types.Type) {
	if info == nil || t == nil || t.Name == types.AutoTypeName {
		return
	}
	if info.Type.Name != types.AutoTypeName {
		return
	}
	info.Type = t
	if wb, ok := e.writeback[info]; ok {
		wb(t)
	}
}

// resolveParam writes a newly-discovered concrete type into a
// method's parameter slot: only takes effect while the slot is still
// AUTO_TYPE, and mirrors the write into the declaring AST's Formal.
func (e *engine) resolveParam(method *types.Method, i int, t *types.Type) {
	if t == nil || t.Name == types.AutoTypeName {
		return
	}
	if i < 0 || i >= len(method.ParamTypes) || method.ParamTypes[i].Name != types.AutoTypeName {
		return
	}
	method.ParamTypes[i] = t
	if decl, ok := e.methodDecls[method]; ok && i < len(decl.Params) {
		decl.Params[i].Type = t.Name
	}
	e.changed = true
}

// resolveReturnType writes a newly-discovered concrete type into a
// method's return-type slot (ReturnTypeNode.update's equivalent).
func (e *engine) resolveReturnType(method *types.Method, t *types.Type) {
	if t == nil || t.Name == types.AutoTypeName {
		return
	}
	if method.ReturnType == nil || method.ReturnType.Name != types.AutoTypeName {
		return
	}
	method.ReturnType = t
	if decl, ok := e.methodDecls[method]; ok {
		decl.ReturnType = t.Name
	}
	e.changed = true
}

// forceExprType tries to resolve the persistent slot behind expr to t:
// a bare variable reference resolves the variable it names; a method
// call resolves the callee's return type; a block resolves through to
// its last expression (the handful of expression shapes that front a
// slot rather than compute one). Anything else
// (a literal, an arithmetic expression, ...) already carries its own
// fixed type and has nothing to resolve.
func (e *engine) forceExprType(expr ast.Expr, scope *types.Scope, cur *types.Type, t *types.Type) {
	if t == nil || t.Name == types.AutoTypeName {
		return
	}
	switch n := expr.(type) {
	case *ast.Variable:
		if n.Name == "self" {
			return
		}
		e.resolveVariable(scope.FindVariable(n.Name), t)
	case *ast.MethodCall:
		if method := e.dispatchTarget(n, scope, cur); method != nil {
			e.resolveReturnType(method, t)
		}
	case *ast.Block:
		if len(n.Exprs) > 0 {
			e.forceExprType(n.Exprs[len(n.Exprs)-1], scope, cur, t)
		}
	}
}

// dispatchTarget resolves a call's receiver to the Method it invokes,
// the same resolution eval's *ast.MethodCall case performs, factored
// out so forceExprType can force a callee's return type without
// duplicating it.
func (e *engine) dispatchTarget(n *ast.MethodCall, scope *types.Scope, cur *types.Type) *types.Method {
	var recvType *types.Type
	if n.Receiver == nil {
		recvType = cur
	} else {
		recvType = e.eval(n.Receiver, scope, cur)
	}
	dispatchOn := recvType
	if n.DispatchType != "" {
		if t, err := e.ctx.GetType(n.DispatchType); err == nil {
			dispatchOn = t
		}
	}
	if dispatchOn == nil {
		return nil
	}
	method, _, err := dispatchOn.GetMethod(n.Name)
	if err != nil {
		return nil
	}
	return method
}

// forceInt forces operand to Int when its already-computed type t is
// still pending (spec: "arithmetic operands are forced to Int...
// comparison operands the same").
func (e *engine) forceInt(operand ast.Expr, scope *types.Scope, cur *types.Type, t *types.Type) {
	if t == nil || t.Name != types.AutoTypeName {
		return
	}
	intT, _ := e.ctx.GetType(types.IntTypeName)
	e.forceExprType(operand, scope, cur, intT)
}

func (e *engine) walkMethod(m *ast.MethodDecl, cur *types.Type, classScope *types.Scope) {
	method, _, err := cur.GetMethod(m.Name)
	if err != nil {
		return
	}
	scope := classScope.CreateChild()
	scope.DefineVariable("self", cur)
	for i := range m.Params {
		if i >= len(method.ParamTypes) {
			continue
		}
		i := i
		info := scope.DefineVariable(m.Params[i].Name, method.ParamTypes[i])
		mt := method
		e.writeback[info] = func(nt *types.Type) {
			e.resolveParam(mt, i, nt)
		}
	}

	bodyType := e.eval(m.Body, scope, cur)

	if method.ReturnType != nil && method.ReturnType.Name == types.AutoTypeName && bodyType != nil && bodyType.Name != types.AutoTypeName {
		method.ReturnType = bodyType
		m.ReturnType = bodyType.Name
		e.changed = true
	}
}

// evalInit evaluates an attribute or let-binding initializer,
// returning nil for the no-initializer placeholder (the caller then
// leaves the slot for the final defaulting sweep rather than
// resolving it to Object early -- an uninitialized AUTO_TYPE
// attribute has no information to infer from until the defaulting
// pass).
func (e *engine) evalInit(init ast.Expr, scope *types.Scope, cur *types.Type) *types.Type {
	if _, ok := init.(*ast.NoExpr); ok {
		return nil
	}
	return e.eval(init, scope, cur)
}

// eval computes a best-effort static type for e without emitting any
// diagnostics (this pass is speculative; real type errors are left
// for the final checker). A reference to a variable still pending
// (AUTO_TYPE) bottoms out as AUTO_TYPE itself so the caller knows not
// to resolve its dependent slot yet. Along the way it writes back
// every constraint it discovers (arithmetic forcing an operand to
// Int, a call forcing a callee's parameter, a conditional forcing its
// still-pending branch to match its sibling) into the slot the
// expression fronts, so a later pass -- or a sibling expression
// evaluated later in this same pass -- sees the resolved value.
func (e *engine) eval(expr ast.Expr, scope *types.Scope, cur *types.Type) *types.Type {
	switch n := expr.(type) {
	case *ast.NoExpr:
		return e.object
	case *ast.IntLiteral:
		t, _ := e.ctx.GetType(types.IntTypeName)
		return t
	case *ast.StringLiteral:
		t, _ := e.ctx.GetType(types.StringTypeName)
		return t
	case *ast.BoolLiteral:
		t, _ := e.ctx.GetType(types.BoolTypeName)
		return t
	case *ast.Variable:
		if n.Name == "self" {
			return cur
		}
		v := scope.FindVariable(n.Name)
		if v == nil {
			return e.autoType
		}
		return v.Type
	case *ast.Assign:
		valType := e.eval(n.Value, scope, cur)
		info := scope.FindVariable(n.Name)
		if info == nil {
			return valType
		}
		if valType != nil && valType.Name != types.AutoTypeName {
			e.resolveVariable(info, valType)
		} else if info.Type.Name != types.AutoTypeName {
			e.forceExprType(n.Value, scope, cur, info.Type)
		}
		return valType
	case *ast.New:
		if n.Type == types.SelfTypeName {
			return cur
		}
		t, err := e.ctx.GetType(n.Type)
		if err != nil {
			return e.autoType
		}
		return t
	case *ast.IsVoid, *ast.Not:
		boolT, _ := e.ctx.GetType(types.BoolTypeName)
		switch u := expr.(type) {
		case *ast.IsVoid:
			e.eval(u.Operand, scope, cur)
		case *ast.Not:
			e.eval(u.Operand, scope, cur)
		}
		return boolT
	case *ast.Negation:
		operandType := e.eval(n.Operand, scope, cur)
		e.forceInt(n.Operand, scope, cur, operandType)
		t, _ := e.ctx.GetType(types.IntTypeName)
		return t
	case *ast.BinaryExpr:
		leftType := e.eval(n.Left, scope, cur)
		rightType := e.eval(n.Right, scope, cur)
		switch n.Op {
		case ast.OpEQ:
			t, _ := e.ctx.GetType(types.BoolTypeName)
			return t
		case ast.OpLT, ast.OpLE:
			e.forceInt(n.Left, scope, cur, leftType)
			e.forceInt(n.Right, scope, cur, rightType)
			t, _ := e.ctx.GetType(types.BoolTypeName)
			return t
		default:
			e.forceInt(n.Left, scope, cur, leftType)
			e.forceInt(n.Right, scope, cur, rightType)
			t, _ := e.ctx.GetType(types.IntTypeName)
			return t
		}
	case *ast.Block:
		var last *types.Type
		for _, sub := range n.Exprs {
			last = e.eval(sub, scope, cur)
		}
		if last == nil {
			return e.object
		}
		return last
	case *ast.While:
		e.eval(n.Cond, scope, cur)
		e.eval(n.Body, scope.CreateChild(), cur)
		return e.object
	case *ast.Conditional:
		e.eval(n.Cond, scope, cur)
		thenType := e.eval(n.Then, scope, cur)
		elseType := e.eval(n.Else, scope, cur)

		thenAuto := thenType == nil || thenType.Name == types.AutoTypeName
		elseAuto := elseType == nil || elseType.Name == types.AutoTypeName

		switch {
		case !thenAuto && !elseAuto:
			if j := thenType.Join(elseType); j != nil {
				return j
			}
			return e.object
		case !thenAuto && elseAuto:
			e.forceExprType(n.Else, scope, cur, thenType)
			return e.autoType
		case thenAuto && !elseAuto:
			e.forceExprType(n.Then, scope, cur, elseType)
			return e.autoType
		default:
			return e.autoType
		}
	case *ast.Let:
		letScope := scope
		for i := range n.Bindings {
			b := &n.Bindings[i]
			letScope = letScope.CreateChild()

			wasAuto := b.Type == types.AutoTypeName
			if wasAuto {
				if candidate := e.evalInit(b.Init, letScope, cur); candidate != nil && candidate.Name != types.AutoTypeName {
					b.Type = candidate.Name
					e.changed = true
				}
			} else {
				e.evalInit(b.Init, letScope, cur)
			}

			declType, err := e.ctx.GetType(b.Type)
			if err != nil {
				declType = e.autoType
			}
			info := letScope.DefineVariable(b.Name, declType)
			if b.Type == types.AutoTypeName {
				bind := b
				e.writeback[info] = func(nt *types.Type) {
					if bind.Type != types.AutoTypeName {
						return
					}
					bind.Type = nt.Name
					e.changed = true
				}
			}
		}
		return e.eval(n.Body, letScope, cur)
	case *ast.Case:
		e.eval(n.Subject, scope, cur)
		branchScopes := make([]*types.Scope, len(n.Branches))
		branchTypes := make([]*types.Type, len(n.Branches))
		for i := range n.Branches {
			b := &n.Branches[i]
			if b.Type == types.AutoTypeName {
				b.Type = types.ObjectTypeName
				e.changed = true
			}
			branchScope := scope.CreateChild()
			declType, err := e.ctx.GetType(b.Type)
			if err != nil {
				declType = e.object
			}
			branchScope.DefineVariable(b.Name, declType)
			branchScopes[i] = branchScope
			branchTypes[i] = e.eval(b.Body, branchScope, cur)
		}
		if len(branchTypes) == 0 {
			return e.object
		}

		var known []*types.Type
		for _, bt := range branchTypes {
			if bt != nil && bt.Name != types.AutoTypeName {
				known = append(known, bt)
			}
		}
		if len(known) > 0 && len(known) < len(branchTypes) {
			j := types.MultiJoin(known)
			for i, bt := range branchTypes {
				if bt == nil || bt.Name == types.AutoTypeName {
					e.forceExprType(n.Branches[i].Body, branchScopes[i], cur, j)
				}
			}
		}

		result := branchTypes[0]
		for _, bt := range branchTypes[1:] {
			if result == nil || bt == nil {
				return e.object
			}
			result = result.Join(bt)
		}
		if result == nil {
			return e.object
		}
		return result
	case *ast.MethodCall:
		var recvType *types.Type
		if n.Receiver == nil {
			recvType = cur
		} else {
			recvType = e.eval(n.Receiver, scope, cur)
		}
		argTypes := make([]*types.Type, len(n.Args))
		for i, a := range n.Args {
			argTypes[i] = e.eval(a, scope, cur)
		}

		dispatchOn := recvType
		if n.DispatchType != "" {
			if t, err := e.ctx.GetType(n.DispatchType); err == nil {
				dispatchOn = t
			}
		}
		if dispatchOn == nil {
			return e.autoType
		}
		method, _, err := dispatchOn.GetMethod(n.Name)
		if err != nil {
			return e.autoType
		}

		for i, at := range argTypes {
			if i >= len(method.ParamTypes) {
				continue
			}
			pt := method.ParamTypes[i]
			switch {
			case at != nil && at.Name != types.AutoTypeName && pt.Name == types.AutoTypeName:
				e.resolveParam(method, i, at)
			case pt.Name != types.AutoTypeName && (at == nil || at.Name == types.AutoTypeName):
				e.forceExprType(n.Args[i], scope, cur, pt)
			}
		}

		if method.ReturnType == nil {
			return e.autoType
		}
		if method.ReturnType.Name == types.SelfTypeName {
			return recvType
		}
		return method.ReturnType
	}
	return e.object
}

// defaultRemaining walks the whole program one last time, defaulting
// any slot still carrying AUTO_TYPE to Object and reporting the
// appropriate InferenceError -- these are the genuinely
// unconstrained slots the fixed-point loop could never pin down.
func (e *engine) defaultRemaining(prog *ast.Program) {
	for _, c := range prog.Classes {
		t, err := e.ctx.GetType(c.Name)
		if err != nil {
			continue
		}
		for _, f := range c.Features {
			switch feat := f.(type) {
			case *ast.AttrDecl:
				if attr, ok := t.Attributes.Get(feat.Name); ok && attr.Type.Name == types.AutoTypeName {
					e.errs = append(e.errs, fmt.Sprintf(`(%d) - InferenceError: Cannot infer type for attribute "%s".`, feat.Line, feat.Name))
					attr.Type = e.object
					feat.Type = types.ObjectTypeName
				}
				if attr, ok := t.Attributes.Get(feat.Name); ok && feat.Type == types.AutoTypeName {
					feat.Type = attr.Type.Name
				}
			case *ast.MethodDecl:
				method, _, err := t.GetMethod(feat.Name)
				if err != nil {
					continue
				}
				for i, p := range feat.Params {
					if i < len(method.ParamTypes) && method.ParamTypes[i].Name == types.AutoTypeName {
						e.errs = append(e.errs, fmt.Sprintf(`(%d) - InferenceError: Cannot infer type for parameter "%s".`, p.Line, p.Name))
						method.ParamTypes[i] = e.object
						feat.Params[i].Type = types.ObjectTypeName
					}
				}
				if method.ReturnType != nil && method.ReturnType.Name == types.AutoTypeName {
					e.errs = append(e.errs, fmt.Sprintf(`(%d) - InferenceError: Cannot infer return type for method "%s".`, feat.Line, feat.Name))
					method.ReturnType = e.object
					feat.ReturnType = types.ObjectTypeName
				}
			}
		}
		e.defaultExprRemaining(c)
	}
}

func (e *engine) defaultExprRemaining(c *ast.ClassDecl) {
	var walk func(expr ast.Expr)
	walk = func(expr ast.Expr) {
		switch n := expr.(type) {
		case *ast.Assign:
			walk(n.Value)
		case *ast.MethodCall:
			if n.Receiver != nil {
				walk(n.Receiver)
			}
			for _, a := range n.Args {
				walk(a)
			}
		case *ast.Conditional:
			walk(n.Cond)
			walk(n.Then)
			walk(n.Else)
		case *ast.While:
			walk(n.Cond)
			walk(n.Body)
		case *ast.Block:
			for _, sub := range n.Exprs {
				walk(sub)
			}
		case *ast.Let:
			for i := range n.Bindings {
				b := &n.Bindings[i]
				if b.Type == types.AutoTypeName {
					e.errs = append(e.errs, fmt.Sprintf(`(%d) - InferenceError: Cannot infer type for variable "%s".`, b.Line, b.Name))
					b.Type = types.ObjectTypeName
				}
				walk(b.Init)
			}
			walk(n.Body)
		case *ast.Case:
			walk(n.Subject)
			for i := range n.Branches {
				walk(n.Branches[i].Body)
			}
		case *ast.IsVoid:
			walk(n.Operand)
		case *ast.Negation:
			walk(n.Operand)
		case *ast.Not:
			walk(n.Operand)
		case *ast.BinaryExpr:
			walk(n.Left)
			walk(n.Right)
		}
	}
	for _, f := range c.Features {
		switch feat := f.(type) {
		case *ast.AttrDecl:
			walk(feat.Init)
		case *ast.MethodDecl:
			walk(feat.Body)
		}
	}
}
