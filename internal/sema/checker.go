package sema

import (
	"fmt"

	"github.com/dekarrin/coolc/internal/ast"
	"github.com/dekarrin/coolc/internal/types"
)

// Checker carries the shared state for the final type-checking pass:
// the type context and the diagnostics accumulated along the way.
type Checker struct {
	ctx     *types.Context
	errType *types.Type
	errs    []string

	// curMethod names the method whose body is being checked, for the
	// `Variable "v" is not defined in "m".` template; attribute
	// initializers fall back to the class name.
	curMethod string
}

// Check runs the final type-checking pass over every class in prog,
// in prog.Classes order (must already be topologically sorted and
// built). It records a StaticType on every expression node and
// returns the diagnostics produced.
func Check(ctx *types.Context, prog *ast.Program) []string {
	errType, _ := ctx.GetType(types.ErrorTypeName)
	c := &Checker{ctx: ctx, errType: errType}

	root := types.NewScope()
	for _, cls := range prog.Classes {
		c.checkClass(cls, root)
	}
	return c.errs
}

func (c *Checker) errf(line int, format string, args ...any) {
	c.errs = append(c.errs, fmt.Sprintf("(%d) - "+format, append([]any{line}, args...)...))
}

func (c *Checker) checkClass(cls *ast.ClassDecl, root *types.Scope) {
	t, err := c.ctx.GetType(cls.Name)
	if err != nil {
		return
	}
	scope := root.CreateChild()
	scope.DefineVariable("self", t)

	ancestors := t.Ancestors()
	for i := len(ancestors) - 1; i >= 1; i-- {
		for _, attr := range ancestors[i].Attributes.Values() {
			scope.DefineVariable(attr.Name, attr.Type)
		}
	}

	for _, f := range cls.Features {
		if a, ok := f.(*ast.AttrDecl); ok {
			attr, _, err := t.GetAttribute(a.Name)
			declType := c.errType
			if err == nil {
				declType = attr.Type
			}
			scope.DefineVariable(a.Name, declType)
		}
	}

	for _, f := range cls.Features {
		switch feat := f.(type) {
		case *ast.AttrDecl:
			c.checkAttr(feat, scope, t)
		case *ast.MethodDecl:
			c.checkMethod(feat, scope, t)
		}
	}
}

func (c *Checker) checkAttr(a *ast.AttrDecl, scope *types.Scope, cur *types.Type) {
	if a.Name == "self" {
		c.errf(a.Line, `IdentifierError: Cannot set "self" as attribute of a class.`)
	}
	if _, ok := a.Init.(*ast.NoExpr); ok {
		c.checkExpr(a.Init, scope, cur)
		return
	}
	initType := c.checkExpr(a.Init, scope, cur)
	declType := c.resolveDeclared(a.Type, cur)
	if !initType.ConformsTo(declType) {
		c.errf(a.Line, `TypeError: Cannot convert "%s" into "%s".`, initType.Name, declType.Name)
	}
}

func (c *Checker) checkMethod(m *ast.MethodDecl, classScope *types.Scope, cur *types.Type) {
	c.curMethod = m.Name
	defer func() { c.curMethod = "" }()

	scope := classScope.CreateChild()
	scope.DefineVariable("self", cur)
	for _, p := range m.Params {
		if p.Name == "self" {
			c.errf(p.Line, `IdentifierError: Cannot set "self" as parameter of a method.`)
			continue
		}
		if scope.IsLocal(p.Name) {
			c.errf(p.Line, `IdentifierError: Variable "%s" is already defined in method "%s".`, p.Name, m.Name)
			continue
		}
		scope.DefineVariable(p.Name, c.resolveDeclared(p.Type, cur))
	}

	bodyType := c.checkExpr(m.Body, scope, cur)

	declRet := m.ReturnType
	var expected *types.Type
	if declRet == types.SelfTypeName {
		expected = cur
	} else {
		expected = c.resolveDeclared(declRet, cur)
	}
	if !bodyType.ConformsTo(expected) {
		c.errf(m.Line, `TypeError: Cannot convert "%s" into "%s".`, bodyType.Name, expected.Name)
	}
}

// scopeName is the enclosing-scope name diagnostics embed: the current
// method when inside a body, otherwise the class.
func (c *Checker) scopeName(cur *types.Type) string {
	if c.curMethod != "" {
		return c.curMethod
	}
	return cur.Name
}

// resolveDeclared resolves a declared type name against the context,
// substituting SELF_TYPE with cur (matches the builder's
// resolveFeatureType so a name that passed Build always resolves here
// too) and falling back to the error type on failure.
func (c *Checker) resolveDeclared(name string, cur *types.Type) *types.Type {
	if name == types.SelfTypeName {
		return cur
	}
	t, err := c.ctx.GetType(name)
	if err != nil {
		return c.errType
	}
	return t
}

func (c *Checker) checkExpr(e ast.Expr, scope *types.Scope, cur *types.Type) *types.Type {
	t := c.typeOf(e, scope, cur)
	e.SetStaticType(t.Name)
	return t
}

func (c *Checker) typeOf(e ast.Expr, scope *types.Scope, cur *types.Type) *types.Type {
	switch n := e.(type) {
	case *ast.NoExpr:
		return c.resolveDeclared(types.ObjectTypeName, cur) // placeholder, never consulted by callers

	case *ast.IntLiteral:
		t, _ := c.ctx.GetType(types.IntTypeName)
		return t

	case *ast.StringLiteral:
		t, _ := c.ctx.GetType(types.StringTypeName)
		return t

	case *ast.BoolLiteral:
		t, _ := c.ctx.GetType(types.BoolTypeName)
		return t

	case *ast.Variable:
		if n.Name == "self" {
			return cur
		}
		v := scope.FindVariable(n.Name)
		if v == nil {
			c.errf(n.Line, `IdentifierError: Variable "%s" is not defined in "%s".`, n.Name, c.scopeName(cur))
			return c.errType
		}
		return v.Type

	case *ast.Assign:
		valType := c.checkExpr(n.Value, scope, cur)
		if n.Name == "self" {
			c.errf(n.Line, `IdentifierError: Variable "self" is read-only.`)
			return valType
		}
		v := scope.FindVariable(n.Name)
		if v == nil {
			c.errf(n.Line, `IdentifierError: Variable "%s" is not defined in "%s".`, n.Name, c.scopeName(cur))
			return c.errType
		}
		if !valType.ConformsTo(v.Type) {
			c.errf(n.Line, `TypeError: Cannot convert "%s" into "%s".`, valType.Name, v.Type.Name)
		}
		return valType

	case *ast.New:
		return c.resolveDeclared(n.Type, cur)

	case *ast.IsVoid:
		c.checkExpr(n.Operand, scope, cur)
		t, _ := c.ctx.GetType(types.BoolTypeName)
		return t

	case *ast.Not:
		operandType := c.checkExpr(n.Operand, scope, cur)
		boolT, _ := c.ctx.GetType(types.BoolTypeName)
		if operandType != boolT && !operandType.Bypass() {
			c.errf(n.Line, `OperationError: Operation "%s" is not defined for "%s".`, "not", operandType.Name)
		}
		return boolT

	case *ast.Negation:
		operandType := c.checkExpr(n.Operand, scope, cur)
		intT, _ := c.ctx.GetType(types.IntTypeName)
		if operandType != intT && !operandType.Bypass() {
			c.errf(n.Line, `OperationError: Operation "%s" is not defined for "%s".`, "~", operandType.Name)
		}
		return intT

	case *ast.BinaryExpr:
		return c.checkBinary(n, scope, cur)

	case *ast.Block:
		var last *types.Type
		for _, sub := range n.Exprs {
			last = c.checkExpr(sub, scope, cur)
		}
		return last

	case *ast.While:
		condType := c.checkExpr(n.Cond, scope, cur)
		boolT, _ := c.ctx.GetType(types.BoolTypeName)
		if condType != boolT && !condType.Bypass() {
			c.errf(n.Line, `TypeError: Cannot convert "%s" into "%s".`, condType.Name, boolT.Name)
		}
		bodyScope := scope.CreateChild()
		c.checkExpr(n.Body, bodyScope, cur)
		obj, _ := c.ctx.GetType(types.ObjectTypeName)
		return obj

	case *ast.Conditional:
		condType := c.checkExpr(n.Cond, scope, cur)
		boolT, _ := c.ctx.GetType(types.BoolTypeName)
		if condType != boolT && !condType.Bypass() {
			c.errf(n.Line, `TypeError: Cannot convert "%s" into "%s".`, condType.Name, boolT.Name)
		}
		thenType := c.checkExpr(n.Then, scope, cur)
		elseType := c.checkExpr(n.Else, scope, cur)
		return thenType.Join(elseType)

	case *ast.Let:
		letScope := scope
		for i := range n.Bindings {
			b := &n.Bindings[i]
			letScope = letScope.CreateChild()
			declType := c.resolveDeclared(b.Type, cur)
			if _, ok := b.Init.(*ast.NoExpr); !ok {
				initType := c.checkExpr(b.Init, letScope, cur)
				if !initType.ConformsTo(declType) {
					c.errf(b.Line, `TypeError: Cannot convert "%s" into "%s".`, initType.Name, declType.Name)
				}
			} else {
				c.checkExpr(b.Init, letScope, cur)
			}
			if b.Name == "self" {
				c.errf(b.Line, `IdentifierError: Cannot set "self" as attribute of a class.`)
			}
			letScope.DefineVariable(b.Name, declType)
		}
		return c.checkExpr(n.Body, letScope, cur)

	case *ast.Case:
		c.checkExpr(n.Subject, scope, cur)
		var branchTypes []*types.Type
		for i := range n.Branches {
			b := &n.Branches[i]
			if b.Type == types.SelfTypeName {
				c.errf(b.Line, `TypeError: "%s" cannot be a static type of a case branch.`, b.Type)
			}
			branchScope := scope.CreateChild()
			branchType := c.resolveDeclared(b.Type, cur)
			branchScope.DefineVariable(b.Name, branchType)
			bodyType := c.checkExpr(b.Body, branchScope, cur)
			branchTypes = append(branchTypes, bodyType)
		}
		if len(branchTypes) == 0 {
			return c.errType
		}
		return types.MultiJoin(branchTypes)

	case *ast.MethodCall:
		return c.checkMethodCall(n, scope, cur)
	}
	return c.errType
}

func (c *Checker) checkBinary(n *ast.BinaryExpr, scope *types.Scope, cur *types.Type) *types.Type {
	leftType := c.checkExpr(n.Left, scope, cur)
	rightType := c.checkExpr(n.Right, scope, cur)
	boolT, _ := c.ctx.GetType(types.BoolTypeName)
	intT, _ := c.ctx.GetType(types.IntTypeName)

	if n.Op == ast.OpEQ {
		return boolT
	}

	if (leftType != intT && !leftType.Bypass()) || (rightType != intT && !rightType.Bypass()) {
		c.errf(n.Line, `OperationError: Operation "%s" is not defined between "%s" and "%s".`, n.Op.String(), leftType.Name, rightType.Name)
	}
	switch n.Op {
	case ast.OpLT, ast.OpLE:
		return boolT
	default:
		return intT
	}
}

func (c *Checker) checkMethodCall(n *ast.MethodCall, scope *types.Scope, cur *types.Type) *types.Type {
	var recvType *types.Type
	if n.Receiver == nil {
		recvType = cur
	} else {
		recvType = c.checkExpr(n.Receiver, scope, cur)
	}

	dispatchOn := recvType
	if n.DispatchType != "" {
		staticType := c.resolveDeclared(n.DispatchType, cur)
		if !recvType.ConformsTo(staticType) {
			c.errf(n.Line, `TypeError: Class "%s" has no an ancestor class "%s".`, recvType.Name, staticType.Name)
		}
		dispatchOn = staticType
	}

	method, _, err := dispatchOn.GetMethod(n.Name)
	if err != nil {
		c.errf(n.Line, "%s", err.Error())
		for _, a := range n.Args {
			c.checkExpr(a, scope, cur)
		}
		return c.errType
	}

	if len(n.Args) != len(method.ParamTypes) {
		c.errf(n.Line, `OverrideError: Method "%s" already defined in "%s" with a different signature.`, method.Name, recvType.Name)
	}

	for i, a := range n.Args {
		argType := c.checkExpr(a, scope, cur)
		if i < len(method.ParamTypes) {
			if !argType.ConformsTo(method.ParamTypes[i]) {
				c.errf(n.Line, `TypeError: Cannot convert "%s" into "%s".`, argType.Name, method.ParamTypes[i].Name)
			}
		}
	}

	if method.ReturnType.Name == types.SelfTypeName {
		return recvType
	}
	return method.ReturnType
}
