package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/coolc/internal/ast"
	"github.com/dekarrin/coolc/internal/sema"
	"github.com/dekarrin/coolc/internal/types"
)

func buildProgram(t *testing.T, classes ...*ast.ClassDecl) (*types.Context, *ast.Program) {
	t.Helper()
	ctx := sema.NewBaseContext()
	prog := &ast.Program{Classes: classes}

	errs := sema.Collect(ctx, prog)
	require.Empty(t, errs)
	errs = sema.Build(ctx, prog)
	require.Empty(t, errs)
	prog, errs = sema.TopoSort(prog)
	require.Empty(t, errs)
	return ctx, prog
}

// With no AUTO_TYPE anywhere, inference must not touch the context or
// the AST at all.
func TestInfer_NoAutoTypeIsANoOp(t *testing.T) {
	classMain := &ast.ClassDecl{Name: "Main", Features: []ast.Feature{
		&ast.AttrDecl{Name: "n", Type: "Int", Init: &ast.IntLiteral{Value: 1}},
		&ast.MethodDecl{
			Name:       "main",
			Params:     []ast.Formal{{Name: "k", Type: "Int"}},
			ReturnType: "Int",
			Body:       &ast.BinaryExpr{Op: ast.OpPlus, Left: &ast.Variable{Name: "n"}, Right: &ast.Variable{Name: "k"}},
		},
	}}
	ctx, prog := buildProgram(t, classMain)

	mainType, err := ctx.GetType("Main")
	require.NoError(t, err)
	before := mainType.String()

	errs := Infer(ctx, prog)
	assert.Empty(t, errs)

	assert.Equal(t, before, mainType.String())
	attr, _, err := mainType.GetAttribute("n")
	require.NoError(t, err)
	assert.Equal(t, types.IntTypeName, attr.Type.Name)
	m, _, err := mainType.GetMethod("main")
	require.NoError(t, err)
	assert.Equal(t, types.IntTypeName, m.ReturnType.Name)
	assert.Equal(t, types.IntTypeName, m.ParamTypes[0].Name)
	assert.Equal(t, "Int", prog.Classes[0].Features[0].(*ast.AttrDecl).Type)
}

// An attribute's AUTO_TYPE is resolved directly from its own
// initializer expression, with no further propagation needed.
func TestInfer_AttributeResolvesFromOwnInitializer(t *testing.T) {
	classMain := &ast.ClassDecl{Name: "Main", Features: []ast.Feature{
		&ast.AttrDecl{Name: "n", Type: types.AutoTypeName, Init: &ast.IntLiteral{Value: 5}},
		&ast.MethodDecl{Name: "main", ReturnType: "Object", Body: &ast.IntLiteral{Value: 0}},
	}}
	ctx, prog := buildProgram(t, classMain)

	errs := Infer(ctx, prog)
	assert.Empty(t, errs)

	mainType, err := ctx.GetType("Main")
	require.NoError(t, err)
	attr, _, err := mainType.GetAttribute("n")
	require.NoError(t, err)
	assert.Equal(t, types.IntTypeName, attr.Type.Name)
}

// A method's AUTO_TYPE return resolves from the join of its body's
// branches (here, an if/then/else over Int and Bool joins to Object).
func TestInfer_ReturnTypeJoinsBranches(t *testing.T) {
	classMain := &ast.ClassDecl{Name: "Main", Features: []ast.Feature{
		&ast.MethodDecl{
			Name:       "pick",
			ReturnType: types.AutoTypeName,
			Body: &ast.Conditional{
				Cond: &ast.BoolLiteral{Value: true},
				Then: &ast.IntLiteral{Value: 1},
				Else: &ast.BoolLiteral{Value: false},
			},
		},
		&ast.MethodDecl{Name: "main", ReturnType: "Object", Body: &ast.IntLiteral{Value: 0}},
	}}
	ctx, prog := buildProgram(t, classMain)

	errs := Infer(ctx, prog)
	assert.Empty(t, errs)

	mainType, err := ctx.GetType("Main")
	require.NoError(t, err)
	m, _, err := mainType.GetMethod("pick")
	require.NoError(t, err)
	assert.Equal(t, types.ObjectTypeName, m.ReturnType.Name)
}

// A let-binding's AUTO_TYPE resolves from its own initializer, same as
// an attribute.
func TestInfer_LetBindingResolvesFromInitializer(t *testing.T) {
	classMain := &ast.ClassDecl{Name: "Main", Features: []ast.Feature{
		&ast.MethodDecl{
			Name:       "main",
			ReturnType: "Object",
			Body: &ast.Let{
				Bindings: []ast.LetBinding{
					{Name: "s", Type: types.AutoTypeName, Init: &ast.StringLiteral{Value: "hi"}},
				},
				Body: &ast.Variable{Name: "s"},
			},
		},
	}}
	ctx, prog := buildProgram(t, classMain)

	errs := Infer(ctx, prog)
	assert.Empty(t, errs)

	letExpr := prog.Classes[0].Features[0].(*ast.MethodDecl).Body.(*ast.Let)
	assert.Equal(t, types.StringTypeName, letExpr.Bindings[0].Type)
}

// A parameter's AUTO_TYPE is resolved from how the body uses it (here,
// arithmetic forces it to Int), not defaulted to Object the first time
// the method is visited.
func TestInfer_ParameterResolvesFromArithmeticUsage(t *testing.T) {
	classMain := &ast.ClassDecl{Name: "Main", Features: []ast.Feature{
		&ast.MethodDecl{
			Name:       "f",
			Params:     []ast.Formal{{Name: "a", Type: types.AutoTypeName}},
			ReturnType: "Int",
			Body: &ast.BinaryExpr{
				Op:    ast.OpPlus,
				Left:  &ast.Variable{Name: "a"},
				Right: &ast.IntLiteral{Value: 1},
			},
		},
		&ast.MethodDecl{Name: "main", ReturnType: "Object", Body: &ast.IntLiteral{Value: 0}},
	}}
	ctx, prog := buildProgram(t, classMain)

	errs := Infer(ctx, prog)
	assert.Empty(t, errs)

	mainType, err := ctx.GetType("Main")
	require.NoError(t, err)
	m, _, err := mainType.GetMethod("f")
	require.NoError(t, err)
	require.Len(t, m.ParamTypes, 1)
	assert.Equal(t, types.IntTypeName, m.ParamTypes[0].Name)
}

// Two mutually recursive methods pass their parameters to each other
// across the call boundary; f's own `n - 1` pins its parameter to Int,
// and the argument->parameter edge must carry that Int across the call
// to resolve g's parameter as well.
func TestInfer_ParameterResolvesFromArgumentAcrossDispatch(t *testing.T) {
	classMain := &ast.ClassDecl{Name: "Main", Features: []ast.Feature{
		&ast.MethodDecl{
			Name:       "f",
			Params:     []ast.Formal{{Name: "n", Type: types.AutoTypeName}},
			ReturnType: types.AutoTypeName,
			Body: &ast.Conditional{
				Cond: &ast.BinaryExpr{Op: ast.OpEQ, Left: &ast.Variable{Name: "n"}, Right: &ast.IntLiteral{Value: 0}},
				Then: &ast.IntLiteral{Value: 0},
				Else: &ast.MethodCall{
					Name: "g",
					Args: []ast.Expr{&ast.BinaryExpr{Op: ast.OpMinus, Left: &ast.Variable{Name: "n"}, Right: &ast.IntLiteral{Value: 1}}},
				},
			},
		},
		&ast.MethodDecl{
			Name:       "g",
			Params:     []ast.Formal{{Name: "n", Type: types.AutoTypeName}},
			ReturnType: types.AutoTypeName,
			Body: &ast.Conditional{
				Cond: &ast.BinaryExpr{Op: ast.OpEQ, Left: &ast.Variable{Name: "n"}, Right: &ast.IntLiteral{Value: 0}},
				Then: &ast.IntLiteral{Value: 0},
				Else: &ast.MethodCall{
					Name: "f",
					Args: []ast.Expr{&ast.BinaryExpr{Op: ast.OpMinus, Left: &ast.Variable{Name: "n"}, Right: &ast.IntLiteral{Value: 1}}},
				},
			},
		},
		&ast.MethodDecl{Name: "main", ReturnType: "Object", Body: &ast.IntLiteral{Value: 0}},
	}}
	ctx, prog := buildProgram(t, classMain)

	errs := Infer(ctx, prog)
	assert.Empty(t, errs)

	mainType, err := ctx.GetType("Main")
	require.NoError(t, err)
	for _, name := range []string{"f", "g"} {
		m, _, err := mainType.GetMethod(name)
		require.NoError(t, err)
		assert.Equal(t, types.IntTypeName, m.ReturnType.Name, "%s return type", name)
		require.Len(t, m.ParamTypes, 1)
		assert.Equal(t, types.IntTypeName, m.ParamTypes[0].Name, "%s param 0", name)
	}
}
