package eval

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dekarrin/coolc/internal/ast"
	"github.com/dekarrin/coolc/internal/types"
)

// Evaluator is the tree-walking interpreter: the elaborated Context,
// the AST index needed to find a Method's body and an Attribute's
// initializer (types.Method/types.Attribute carry no expression, only
// their signature -- see internal/types), and the I/O streams `IO`'s
// built-ins read from and write to.
type Evaluator struct {
	ctx *types.Context

	methodBodies map[*types.Method]*ast.MethodDecl
	attrInits    map[*types.Attribute]ast.Expr

	out io.Writer
	in  *bufio.Reader

	// selfStack records the chain of receivers across nested dispatches
	// purely for introspection/debugging; the actual restoration of the
	// prior self is via Go's own call stack, since self is threaded as
	// an explicit parameter through eval.
	selfStack []*Instance
}

// New builds an Evaluator over ctx and prog, defaulting its I/O to
// os.Stdin/os.Stdout when out/in are nil.
func New(ctx *types.Context, prog *ast.Program, out io.Writer, in io.Reader) *Evaluator {
	if out == nil {
		out = os.Stdout
	}
	if in == nil {
		in = os.Stdin
	}
	ev := &Evaluator{
		ctx:          ctx,
		methodBodies: map[*types.Method]*ast.MethodDecl{},
		attrInits:    map[*types.Attribute]ast.Expr{},
		out:          out,
		in:           bufio.NewReader(in),
	}
	ev.indexClasses(prog)
	return ev
}

// indexClasses links each types.Attribute/types.Method (installed by
// internal/sema's Build pass) back to the ast.AttrDecl.Init expression
// and ast.MethodDecl it came from, since the elaborated type objects
// themselves carry only a signature -- the body lives on the AST node
// the semantic passes already annotated with StaticType.
func (ev *Evaluator) indexClasses(prog *ast.Program) {
	for _, c := range prog.Classes {
		t, err := ev.ctx.GetType(c.Name)
		if err != nil {
			continue
		}
		for _, f := range c.Features {
			switch feat := f.(type) {
			case *ast.AttrDecl:
				if attr, ok := t.Attributes.Get(feat.Name); ok {
					ev.attrInits[attr] = feat.Init
				}
			case *ast.MethodDecl:
				if m, ok := t.Methods.Get(feat.Name); ok {
					ev.methodBodies[m] = feat
				}
			}
		}
	}
}

// Run locates class Main and its main() method and evaluates it.
func (ev *Evaluator) Run() (*Instance, error) {
	mainType, err := ev.ctx.GetType("Main")
	if err != nil {
		return nil, execErr(CategoryMainMissing, "no Main class in program.")
	}
	method, _, err := mainType.GetMethod("main")
	if err != nil {
		return nil, execErr(CategoryMainMethod, "no main method in class Main.")
	}
	self, err := ev.Instantiate(mainType)
	if err != nil {
		return nil, err
	}
	decl, ok := ev.methodBodies[method]
	if !ok {
		return nil, execErr(CategoryMainMethod, `method "main" has no body`)
	}
	return ev.invoke(decl, self, nil)
}

// Instantiate creates a new Instance of t, evaluating every ancestor's
// attribute initializers in declaration order, root class first. An
// attribute with no initializer takes the default value for its
// declared type: Int/String/Bool default to 0/""/false, everything
// else to Void.
func (ev *Evaluator) Instantiate(t *types.Type) (*Instance, error) {
	self := NewInstance(t)

	ancestors := rootFirst(t.Ancestors())
	for _, anc := range ancestors {
		for _, attr := range anc.Attributes.Values() {
			self.Attributes[attr.Name] = ev.defaultValue(attr.Type)
		}
	}
	for _, anc := range ancestors {
		for _, attr := range anc.Attributes.Values() {
			initExpr, ok := ev.attrInits[attr]
			if !ok {
				continue
			}
			if _, isNoExpr := initExpr.(*ast.NoExpr); isNoExpr {
				continue
			}
			val, err := ev.eval(initExpr, NewEnv(), self)
			if err != nil {
				return nil, err
			}
			self.Attributes[attr.Name] = val
		}
	}
	return self, nil
}

func rootFirst(ancestors []*types.Type) []*types.Type {
	out := make([]*types.Type, len(ancestors))
	for i, a := range ancestors {
		out[len(ancestors)-1-i] = a
	}
	return out
}

func (ev *Evaluator) defaultValue(t *types.Type) *Instance {
	switch t.Name {
	case types.IntTypeName:
		return ev.intInstance(0)
	case types.StringTypeName:
		return ev.stringInstance("")
	case types.BoolTypeName:
		return ev.boolInstance(false)
	default:
		return Void
	}
}

func (ev *Evaluator) intInstance(v int64) *Instance {
	t, _ := ev.ctx.GetType(types.IntTypeName)
	inst := NewInstance(t)
	inst.IntValue = v
	return inst
}

func (ev *Evaluator) stringInstance(v string) *Instance {
	t, _ := ev.ctx.GetType(types.StringTypeName)
	inst := NewInstance(t)
	inst.StringVal = v
	return inst
}

func (ev *Evaluator) boolInstance(v bool) *Instance {
	t, _ := ev.ctx.GetType(types.BoolTypeName)
	inst := NewInstance(t)
	inst.BoolValue = v
	return inst
}

// invoke calls decl's body in a fresh environment binding its
// parameters to args, pushing self onto the call stack for the
// duration.
func (ev *Evaluator) invoke(decl *ast.MethodDecl, self *Instance, args []*Instance) (*Instance, error) {
	env := NewEnv()
	for i, p := range decl.Params {
		if i < len(args) {
			env.Define(p.Name, args[i])
		}
	}
	ev.selfStack = append(ev.selfStack, self)
	defer func() { ev.selfStack = ev.selfStack[:len(ev.selfStack)-1] }()
	return ev.eval(decl.Body, env, self)
}

func (ev *Evaluator) eval(e ast.Expr, env *Env, self *Instance) (*Instance, error) {
	switch n := e.(type) {
	case *ast.NoExpr:
		return Void, nil

	case *ast.IntLiteral:
		return ev.intInstance(n.Value), nil

	case *ast.StringLiteral:
		return ev.stringInstance(n.Value), nil

	case *ast.BoolLiteral:
		return ev.boolInstance(n.Value), nil

	case *ast.Variable:
		if n.Name == "self" {
			return self, nil
		}
		return ev.lookupVar(env, self, n.Name), nil

	case *ast.Assign:
		val, err := ev.eval(n.Value, env, self)
		if err != nil {
			return nil, err
		}
		if n.Name != "self" {
			if !env.Set(n.Name, val) {
				self.Attributes[n.Name] = val
			}
		}
		return val, nil

	case *ast.New:
		target := self.Type
		if n.Type != types.SelfTypeName {
			t, err := ev.ctx.GetType(n.Type)
			if err != nil {
				return nil, execErr(CategoryExecution, "(%d) - unknown type %q in new", n.Line, n.Type)
			}
			target = t
		}
		return ev.Instantiate(target)

	case *ast.IsVoid:
		val, err := ev.eval(n.Operand, env, self)
		if err != nil {
			return nil, err
		}
		return ev.boolInstance(val.IsVoid()), nil

	case *ast.Not:
		val, err := ev.eval(n.Operand, env, self)
		if err != nil {
			return nil, err
		}
		return ev.boolInstance(!val.BoolValue), nil

	case *ast.Negation:
		val, err := ev.eval(n.Operand, env, self)
		if err != nil {
			return nil, err
		}
		return ev.intInstance(-val.IntValue), nil

	case *ast.BinaryExpr:
		return ev.evalBinary(n, env, self)

	case *ast.Block:
		var last *Instance = Void
		for _, sub := range n.Exprs {
			v, err := ev.eval(sub, env, self)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil

	case *ast.While:
		for {
			cond, err := ev.eval(n.Cond, env, self)
			if err != nil {
				return nil, err
			}
			if !cond.BoolValue {
				break
			}
			bodyEnv := env.Child()
			if _, err := ev.eval(n.Body, bodyEnv, self); err != nil {
				return nil, err
			}
		}
		return Void, nil

	case *ast.Conditional:
		cond, err := ev.eval(n.Cond, env, self)
		if err != nil {
			return nil, err
		}
		if cond.BoolValue {
			return ev.eval(n.Then, env, self)
		}
		return ev.eval(n.Else, env, self)

	case *ast.Let:
		cur := env
		for i := range n.Bindings {
			b := &n.Bindings[i]
			cur = cur.Child()
			var val *Instance
			if _, ok := b.Init.(*ast.NoExpr); ok {
				declType := ev.resolveRuntimeType(b.Type, self)
				val = ev.defaultValue(declType)
			} else {
				v, err := ev.eval(b.Init, cur, self)
				if err != nil {
					return nil, err
				}
				val = v
			}
			cur.Define(b.Name, val)
		}
		return ev.eval(n.Body, cur, self)

	case *ast.Case:
		return ev.evalCase(n, env, self)

	case *ast.MethodCall:
		return ev.evalCall(n, env, self)
	}
	return nil, fmt.Errorf("eval: unhandled node %T", e)
}

func (ev *Evaluator) lookupVar(env *Env, self *Instance, name string) *Instance {
	if v := env.Lookup(name); v != nil {
		return v
	}
	if v, ok := self.Attributes[name]; ok {
		return v
	}
	return Void
}

// resolveRuntimeType resolves a declared type name at runtime,
// collapsing SELF_TYPE to self's dynamic type the way the type checker
// collapses it at compile time; needed for let-bindings with no
// initializer, whose default value depends on the resolved type.
func (ev *Evaluator) resolveRuntimeType(name string, self *Instance) *types.Type {
	if name == types.SelfTypeName {
		return self.Type
	}
	t, err := ev.ctx.GetType(name)
	if err != nil {
		t, _ = ev.ctx.GetType(types.ObjectTypeName)
	}
	return t
}

func (ev *Evaluator) evalBinary(n *ast.BinaryExpr, env *Env, self *Instance) (*Instance, error) {
	left, err := ev.eval(n.Left, env, self)
	if err != nil {
		return nil, err
	}
	if n.Op == ast.OpEQ {
		right, err := ev.eval(n.Right, env, self)
		if err != nil {
			return nil, err
		}
		return ev.boolInstance(ev.equals(left, right)), nil
	}

	right, err := ev.eval(n.Right, env, self)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case ast.OpPlus:
		return ev.intInstance(left.IntValue + right.IntValue), nil
	case ast.OpMinus:
		return ev.intInstance(left.IntValue - right.IntValue), nil
	case ast.OpStar:
		return ev.intInstance(left.IntValue * right.IntValue), nil
	case ast.OpSlash:
		if right.IntValue == 0 {
			return nil, errZeroDivision()
		}
		return ev.intInstance(left.IntValue / right.IntValue), nil
	case ast.OpLT:
		return ev.boolInstance(left.IntValue < right.IntValue), nil
	case ast.OpLE:
		return ev.boolInstance(left.IntValue <= right.IntValue), nil
	}
	return nil, fmt.Errorf("eval: unhandled operator %v", n.Op)
}

// equals implements COOL's polymorphic "=": by value for Int/String/
// Bool, by identity otherwise, and void equals only void.
func (ev *Evaluator) equals(a, b *Instance) bool {
	if a.IsVoid() || b.IsVoid() {
		return a.IsVoid() && b.IsVoid()
	}
	if a.Type.Name != b.Type.Name {
		return false
	}
	switch a.Type.Name {
	case types.IntTypeName:
		return a.IntValue == b.IntValue
	case types.StringTypeName:
		return a.StringVal == b.StringVal
	case types.BoolTypeName:
		return a.BoolValue == b.BoolValue
	default:
		return a == b
	}
}

// evalCase selects the branch whose declared type is the nearest
// ancestor of the scrutinee's dynamic type -- walking up the dynamic
// type's own ancestor chain and taking the first branch that matches
// picks the most specific applicable branch, since a more specific
// branch type is necessarily encountered before a less specific one.
func (ev *Evaluator) evalCase(n *ast.Case, env *Env, self *Instance) (*Instance, error) {
	subj, err := ev.eval(n.Subject, env, self)
	if err != nil {
		return nil, err
	}
	if subj.IsVoid() {
		return nil, errVoidDispatch()
	}
	for _, anc := range subj.Type.Ancestors() {
		for i := range n.Branches {
			b := &n.Branches[i]
			if b.Type == anc.Name {
				branchEnv := env.Child()
				branchEnv.Define(b.Name, subj)
				return ev.eval(b.Body, branchEnv, self)
			}
		}
	}
	return nil, errCaseNoMatch()
}

func (ev *Evaluator) evalCall(n *ast.MethodCall, env *Env, self *Instance) (*Instance, error) {
	var recv *Instance
	var err error
	if n.Receiver == nil {
		recv = self
	} else {
		recv, err = ev.eval(n.Receiver, env, self)
		if err != nil {
			return nil, err
		}
	}
	if recv.IsVoid() {
		return nil, errVoidDispatch()
	}

	dispatchOn := recv.Type
	if n.DispatchType != "" {
		t, err := ev.ctx.GetType(n.DispatchType)
		if err != nil {
			return nil, execErr(CategoryExecution, "(%d) - unknown static-dispatch type %q", n.Line, n.DispatchType)
		}
		dispatchOn = t
	}

	method, owner, err := dispatchOn.GetMethod(n.Name)
	if err != nil {
		return nil, execErr(CategoryExecution, "(%d) - method %q is not defined in %q", n.Line, n.Name, dispatchOn.Name)
	}

	args := make([]*Instance, len(n.Args))
	for i, a := range n.Args {
		v, err := ev.eval(a, env, self)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	if out, handled, err := ev.callBuiltin(owner.Name, n.Name, recv, args, n.Line); handled {
		return out, err
	}

	decl, ok := ev.methodBodies[method]
	if !ok {
		return nil, execErr(CategoryExecution, "(%d) - method %q has no body", n.Line, n.Name)
	}
	return ev.invoke(decl, recv, args)
}

// callBuiltin implements Object/IO/String's built-in methods.
// handled is false for any method
// whose owner isn't one of these three built-in classes, so the caller
// falls through to ordinary user-defined dispatch.
func (ev *Evaluator) callBuiltin(owner, name string, recv *Instance, args []*Instance, line int) (*Instance, bool, error) {
	switch owner {
	case types.ObjectTypeName:
		switch name {
		case "abort":
			return nil, true, execErr(CategoryAbort, "Aborting Program")
		case "type_name":
			return ev.stringInstance(recv.Type.Name), true, nil
		case "copy":
			return recv.Copy(), true, nil
		}
	case types.IOTypeName:
		switch name {
		case "out_string":
			fmt.Fprint(ev.out, args[0].StringVal)
			return recv, true, nil
		case "out_int":
			fmt.Fprintf(ev.out, "%d", args[0].IntValue)
			return recv, true, nil
		case "in_string":
			text, _ := ev.in.ReadString('\n')
			return ev.stringInstance(strings.TrimRight(text, "\r\n")), true, nil
		case "in_int":
			text, _ := ev.in.ReadString('\n')
			text = strings.TrimSpace(text)
			v, err := strconv.ParseInt(text, 10, 64)
			if err != nil {
				return nil, true, errInput()
			}
			return ev.intInstance(v), true, nil
		}
	case types.StringTypeName:
		switch name {
		case "length":
			return ev.intInstance(int64(len([]rune(recv.StringVal)))), true, nil
		case "concat":
			return ev.stringInstance(recv.StringVal + args[0].StringVal), true, nil
		case "substr":
			runes := []rune(recv.StringVal)
			i, l := args[0].IntValue, args[1].IntValue
			if i < 0 || l < 0 || i+l > int64(len(runes)) {
				return nil, true, execErr(CategoryExecution, "(%d) - substr out of range", line)
			}
			return ev.stringInstance(string(runes[i : i+l])), true, nil
		}
	}
	return nil, false, nil
}
