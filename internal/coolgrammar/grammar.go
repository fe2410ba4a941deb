package coolgrammar

import (
	"github.com/dekarrin/coolc/internal/ast"
	"github.com/dekarrin/coolc/internal/grammar"
)

// Build constructs the attributed COOL grammar: productions plus
// reduction rules that assemble internal/ast nodes, stratified into one
// non-terminal per precedence level so the LALR(1) builder never needs
// explicit precedence/associativity declarations. The lowest level
// holds assignment, the keyword constructs, and `not` (each greedy to
// the right or self-delimited); below it come relational, `+ -`,
// `* /`, `isvoid`/`~`, then dispatch and atoms.
func Build() *grammar.Grammar {
	g := grammar.New("Program")

	g.AddProduction("Program", grammar.Sentence{"ClassList"}, func(f grammar.Frame) any {
		classes := f.Get(1).([]*ast.ClassDecl)
		line := 0
		if len(classes) > 0 {
			line = classes[0].SourceLine()
		}
		return &ast.Program{Base: ast.Base{Line: line}, Classes: classes}
	})

	// the ';' after a class body is optional in practice: programs in
	// the wild write both `class A { }` and `class A { };`.
	g.AddProduction("ClassList", grammar.Sentence{"Class"}, func(f grammar.Frame) any {
		return []*ast.ClassDecl{f.Get(1).(*ast.ClassDecl)}
	})
	g.AddProduction("ClassList", grammar.Sentence{"Class", "ClassList"}, func(f grammar.Frame) any {
		rest := f.Get(2).([]*ast.ClassDecl)
		return append([]*ast.ClassDecl{f.Get(1).(*ast.ClassDecl)}, rest...)
	})
	g.AddProduction("ClassList", grammar.Sentence{"Class", ";"}, func(f grammar.Frame) any {
		return []*ast.ClassDecl{f.Get(1).(*ast.ClassDecl)}
	})
	g.AddProduction("ClassList", grammar.Sentence{"Class", ";", "ClassList"}, func(f grammar.Frame) any {
		rest := f.Get(3).([]*ast.ClassDecl)
		return append([]*ast.ClassDecl{f.Get(1).(*ast.ClassDecl)}, rest...)
	})

	g.AddProduction("Class", grammar.Sentence{TokClass, TokTypeID, "InheritsOpt", TokLBrace, "FeatureList", TokRBrace}, func(f grammar.Frame) any {
		return &ast.ClassDecl{
			Base:     ast.Base{Line: f.Line(1)},
			Name:     f.Lexeme(2),
			Parent:   f.Get(3).(string),
			Features: f.Get(5).([]ast.Feature),
		}
	})

	g.AddProduction("InheritsOpt", grammar.Sentence{}, func(f grammar.Frame) any {
		return ""
	})
	g.AddProduction("InheritsOpt", grammar.Sentence{TokInherits, TokTypeID}, func(f grammar.Frame) any {
		return f.Lexeme(2)
	})

	g.AddProduction("FeatureList", grammar.Sentence{}, func(f grammar.Frame) any {
		return []ast.Feature(nil)
	})
	g.AddProduction("FeatureList", grammar.Sentence{"Feature", ";", "FeatureList"}, func(f grammar.Frame) any {
		rest := f.Get(3).([]ast.Feature)
		return append([]ast.Feature{f.Get(1).(ast.Feature)}, rest...)
	})
	// Recovery for a missing ';' between features: the offending
	// token is consumed as the ERROR terminal's value and parsing resumes
	// at the next feature. The diagnostic itself is recorded by the
	// driver at the point of recovery, not by this rule, since reduction
	// rules stay pure functions of their frame.
	g.AddProduction("FeatureList", grammar.Sentence{"Feature", grammar.ERROR, "FeatureList"}, func(f grammar.Frame) any {
		rest := f.Get(3).([]ast.Feature)
		return append([]ast.Feature{f.Get(1).(ast.Feature)}, rest...)
	})

	g.AddProduction("Feature", grammar.Sentence{TokID, TokLParen, "FormalList", TokRParen, TokColon, TokTypeID, TokLBrace, "Expr", TokRBrace}, func(f grammar.Frame) any {
		return &ast.MethodDecl{
			Base:       ast.Base{Line: f.Line(1)},
			Name:       f.Lexeme(1),
			Params:     f.Get(3).([]ast.Formal),
			ReturnType: f.Lexeme(6),
			Body:       f.Get(8).(ast.Expr),
		}
	})
	g.AddProduction("Feature", grammar.Sentence{TokID, TokColon, TokTypeID}, func(f grammar.Frame) any {
		return &ast.AttrDecl{Base: ast.Base{Line: f.Line(1)}, Name: f.Lexeme(1), Type: f.Lexeme(3), Init: &ast.NoExpr{}}
	})
	g.AddProduction("Feature", grammar.Sentence{TokID, TokColon, TokTypeID, TokAssign, "Expr"}, func(f grammar.Frame) any {
		return &ast.AttrDecl{Base: ast.Base{Line: f.Line(1)}, Name: f.Lexeme(1), Type: f.Lexeme(3), Init: f.Get(5).(ast.Expr)}
	})

	g.AddProduction("FormalList", grammar.Sentence{}, func(f grammar.Frame) any {
		return []ast.Formal(nil)
	})
	g.AddProduction("FormalList", grammar.Sentence{"FormalListNE"}, func(f grammar.Frame) any {
		return f.Get(1).([]ast.Formal)
	})
	g.AddProduction("FormalListNE", grammar.Sentence{"Formal"}, func(f grammar.Frame) any {
		return []ast.Formal{f.Get(1).(ast.Formal)}
	})
	g.AddProduction("FormalListNE", grammar.Sentence{"Formal", ",", "FormalListNE"}, func(f grammar.Frame) any {
		rest := f.Get(3).([]ast.Formal)
		return append([]ast.Formal{f.Get(1).(ast.Formal)}, rest...)
	})
	g.AddProduction("Formal", grammar.Sentence{TokID, TokColon, TokTypeID}, func(f grammar.Frame) any {
		return ast.Formal{Line: f.Line(1), Name: f.Lexeme(1), Type: f.Lexeme(3)}
	})

	// Expr is the lowest precedence level: assignment, the block and
	// keyword constructs (each self-delimited or greedy to the right),
	// `not`, then the operator strata below.
	g.AddProduction("Expr", grammar.Sentence{TokID, TokAssign, "Expr"}, func(f grammar.Frame) any {
		return &ast.Assign{ExprBase: ast.ExprBase{Base: ast.Base{Line: f.Line(1)}}, Name: f.Lexeme(1), Value: f.Get(3).(ast.Expr)}
	})
	g.AddProduction("Expr", grammar.Sentence{TokLBrace, "BlockList", TokRBrace}, func(f grammar.Frame) any {
		return &ast.Block{ExprBase: eb(f), Exprs: f.Get(2).([]ast.Expr)}
	})
	g.AddProduction("Expr", grammar.Sentence{TokIf, "Expr", TokThen, "Expr", TokElse, "Expr", TokFi}, func(f grammar.Frame) any {
		return &ast.Conditional{ExprBase: eb(f), Cond: f.Get(2).(ast.Expr), Then: f.Get(4).(ast.Expr), Else: f.Get(6).(ast.Expr)}
	})
	g.AddProduction("Expr", grammar.Sentence{TokWhile, "Expr", TokLoop, "Expr", TokPool}, func(f grammar.Frame) any {
		return &ast.While{ExprBase: eb(f), Cond: f.Get(2).(ast.Expr), Body: f.Get(4).(ast.Expr)}
	})
	g.AddProduction("Expr", grammar.Sentence{TokLet, "LetBindings", TokIn, "Expr"}, func(f grammar.Frame) any {
		return &ast.Let{ExprBase: eb(f), Bindings: f.Get(2).([]ast.LetBinding), Body: f.Get(4).(ast.Expr)}
	})
	g.AddProduction("Expr", grammar.Sentence{TokCase, "Expr", TokOf, "CaseList", TokEsac}, func(f grammar.Frame) any {
		return &ast.Case{ExprBase: eb(f), Subject: f.Get(2).(ast.Expr), Branches: f.Get(4).([]ast.CaseBranch)}
	})
	g.AddProduction("Expr", grammar.Sentence{TokNot, "Expr"}, func(f grammar.Frame) any {
		return &ast.Not{ExprBase: ast.ExprBase{Base: ast.Base{Line: f.Line(1)}}, Operand: f.Get(2).(ast.Expr)}
	})
	g.AddProduction("Expr", grammar.Sentence{"CompExpr"}, func(f grammar.Frame) any {
		return f.Get(1).(ast.Expr)
	})

	// relational operators are non-associative: exactly one comparison
	// per expression, both operands one level up (add_expr).
	g.AddProduction("CompExpr", grammar.Sentence{"AddExpr"}, func(f grammar.Frame) any {
		return f.Get(1).(ast.Expr)
	})
	g.AddProduction("CompExpr", grammar.Sentence{"AddExpr", TokLT, "AddExpr"}, binExprRule(ast.OpLT))
	g.AddProduction("CompExpr", grammar.Sentence{"AddExpr", TokLE, "AddExpr"}, binExprRule(ast.OpLE))
	g.AddProduction("CompExpr", grammar.Sentence{"AddExpr", TokEQ, "AddExpr"}, binExprRule(ast.OpEQ))

	g.AddProduction("AddExpr", grammar.Sentence{"AddExpr", TokPlus, "MulExpr"}, binExprRule(ast.OpPlus))
	g.AddProduction("AddExpr", grammar.Sentence{"AddExpr", TokMinus, "MulExpr"}, binExprRule(ast.OpMinus))
	g.AddProduction("AddExpr", grammar.Sentence{"MulExpr"}, func(f grammar.Frame) any {
		return f.Get(1).(ast.Expr)
	})

	g.AddProduction("MulExpr", grammar.Sentence{"MulExpr", TokStar, "UnaryExpr"}, binExprRule(ast.OpStar))
	g.AddProduction("MulExpr", grammar.Sentence{"MulExpr", TokSlash, "UnaryExpr"}, binExprRule(ast.OpSlash))
	g.AddProduction("MulExpr", grammar.Sentence{"UnaryExpr"}, func(f grammar.Frame) any {
		return f.Get(1).(ast.Expr)
	})

	g.AddProduction("UnaryExpr", grammar.Sentence{TokIsVoid, "UnaryExpr"}, func(f grammar.Frame) any {
		return &ast.IsVoid{ExprBase: eb(f), Operand: f.Get(2).(ast.Expr)}
	})
	g.AddProduction("UnaryExpr", grammar.Sentence{TokTilde, "UnaryExpr"}, func(f grammar.Frame) any {
		return &ast.Negation{ExprBase: eb(f), Operand: f.Get(2).(ast.Expr)}
	})
	g.AddProduction("UnaryExpr", grammar.Sentence{"DispatchExpr"}, func(f grammar.Frame) any {
		return f.Get(1).(ast.Expr)
	})

	g.AddProduction("DispatchExpr", grammar.Sentence{"DispatchExpr", TokDot, TokID, TokLParen, "ArgList", TokRParen}, func(f grammar.Frame) any {
		return &ast.MethodCall{
			ExprBase: eb(f),
			Receiver: f.Get(1).(ast.Expr),
			Name:     f.Lexeme(3),
			Args:     f.Get(5).([]ast.Expr),
		}
	})
	g.AddProduction("DispatchExpr", grammar.Sentence{"DispatchExpr", TokAt, TokTypeID, TokDot, TokID, TokLParen, "ArgList", TokRParen}, func(f grammar.Frame) any {
		return &ast.MethodCall{
			ExprBase:     eb(f),
			Receiver:     f.Get(1).(ast.Expr),
			DispatchType: f.Lexeme(3),
			Name:         f.Lexeme(5),
			Args:         f.Get(7).([]ast.Expr),
		}
	})
	g.AddProduction("DispatchExpr", grammar.Sentence{"Primary"}, func(f grammar.Frame) any {
		return f.Get(1).(ast.Expr)
	})

	g.AddProduction("Primary", grammar.Sentence{TokID, TokLParen, "ArgList", TokRParen}, func(f grammar.Frame) any {
		return &ast.MethodCall{ExprBase: eb(f), Name: f.Lexeme(1), Args: f.Get(3).([]ast.Expr)}
	})
	g.AddProduction("Primary", grammar.Sentence{TokNew, TokTypeID}, func(f grammar.Frame) any {
		return &ast.New{ExprBase: eb(f), Type: f.Lexeme(2)}
	})
	g.AddProduction("Primary", grammar.Sentence{TokLParen, "Expr", TokRParen}, func(f grammar.Frame) any {
		return f.Get(2).(ast.Expr)
	})
	g.AddProduction("Primary", grammar.Sentence{TokID}, func(f grammar.Frame) any {
		return &ast.Variable{ExprBase: eb(f), Name: f.Lexeme(1)}
	})
	g.AddProduction("Primary", grammar.Sentence{TokInteger}, func(f grammar.Frame) any {
		return &ast.IntLiteral{ExprBase: eb(f), Value: parseInt(f.Lexeme(1))}
	})
	g.AddProduction("Primary", grammar.Sentence{TokString}, func(f grammar.Frame) any {
		return &ast.StringLiteral{ExprBase: eb(f), Value: f.Lexeme(1)}
	})
	g.AddProduction("Primary", grammar.Sentence{TokTrue}, func(f grammar.Frame) any {
		return &ast.BoolLiteral{ExprBase: eb(f), Value: true}
	})
	g.AddProduction("Primary", grammar.Sentence{TokFalse}, func(f grammar.Frame) any {
		return &ast.BoolLiteral{ExprBase: eb(f), Value: false}
	})

	g.AddProduction("ArgList", grammar.Sentence{}, func(f grammar.Frame) any {
		return []ast.Expr(nil)
	})
	g.AddProduction("ArgList", grammar.Sentence{"ArgListNE"}, func(f grammar.Frame) any {
		return f.Get(1).([]ast.Expr)
	})
	g.AddProduction("ArgListNE", grammar.Sentence{"Expr"}, func(f grammar.Frame) any {
		return []ast.Expr{f.Get(1).(ast.Expr)}
	})
	g.AddProduction("ArgListNE", grammar.Sentence{"Expr", ",", "ArgListNE"}, func(f grammar.Frame) any {
		rest := f.Get(3).([]ast.Expr)
		return append([]ast.Expr{f.Get(1).(ast.Expr)}, rest...)
	})

	g.AddProduction("BlockList", grammar.Sentence{"Expr", ";"}, func(f grammar.Frame) any {
		return []ast.Expr{f.Get(1).(ast.Expr)}
	})
	g.AddProduction("BlockList", grammar.Sentence{"Expr", ";", "BlockList"}, func(f grammar.Frame) any {
		rest := f.Get(3).([]ast.Expr)
		return append([]ast.Expr{f.Get(1).(ast.Expr)}, rest...)
	})
	// Recovery for a missing ';' after a block statement.
	g.AddProduction("BlockList", grammar.Sentence{"Expr", grammar.ERROR}, func(f grammar.Frame) any {
		return []ast.Expr{f.Get(1).(ast.Expr)}
	})
	g.AddProduction("BlockList", grammar.Sentence{"Expr", grammar.ERROR, "BlockList"}, func(f grammar.Frame) any {
		rest := f.Get(3).([]ast.Expr)
		return append([]ast.Expr{f.Get(1).(ast.Expr)}, rest...)
	})

	g.AddProduction("LetBindings", grammar.Sentence{"LetBinding"}, func(f grammar.Frame) any {
		return []ast.LetBinding{f.Get(1).(ast.LetBinding)}
	})
	g.AddProduction("LetBindings", grammar.Sentence{"LetBinding", ",", "LetBindings"}, func(f grammar.Frame) any {
		rest := f.Get(3).([]ast.LetBinding)
		return append([]ast.LetBinding{f.Get(1).(ast.LetBinding)}, rest...)
	})
	g.AddProduction("LetBinding", grammar.Sentence{TokID, TokColon, TokTypeID}, func(f grammar.Frame) any {
		return ast.LetBinding{Line: f.Line(1), Name: f.Lexeme(1), Type: f.Lexeme(3), Init: &ast.NoExpr{}}
	})
	g.AddProduction("LetBinding", grammar.Sentence{TokID, TokColon, TokTypeID, TokAssign, "Expr"}, func(f grammar.Frame) any {
		return ast.LetBinding{Line: f.Line(1), Name: f.Lexeme(1), Type: f.Lexeme(3), Init: f.Get(5).(ast.Expr)}
	})

	g.AddProduction("CaseList", grammar.Sentence{"CaseBranch"}, func(f grammar.Frame) any {
		return []ast.CaseBranch{f.Get(1).(ast.CaseBranch)}
	})
	g.AddProduction("CaseList", grammar.Sentence{"CaseBranch", "CaseList"}, func(f grammar.Frame) any {
		rest := f.Get(2).([]ast.CaseBranch)
		return append([]ast.CaseBranch{f.Get(1).(ast.CaseBranch)}, rest...)
	})
	g.AddProduction("CaseBranch", grammar.Sentence{TokID, TokColon, TokTypeID, TokCaseArrow, "Expr", ";"}, func(f grammar.Frame) any {
		return ast.CaseBranch{Line: f.Line(1), Name: f.Lexeme(1), Type: f.Lexeme(3), Body: f.Get(5).(ast.Expr)}
	})
	// Recovery for a missing ';' closing a case branch.
	g.AddProduction("CaseBranch", grammar.Sentence{TokID, TokColon, TokTypeID, TokCaseArrow, "Expr", grammar.ERROR}, func(f grammar.Frame) any {
		return ast.CaseBranch{Line: f.Line(1), Name: f.Lexeme(1), Type: f.Lexeme(3), Body: f.Get(5).(ast.Expr)}
	})

	return g
}

// eb builds an ExprBase stamped with the line of a production's first
// body symbol -- the common case for every expression-producing rule.
func eb(f grammar.Frame) ast.ExprBase {
	return ast.ExprBase{Base: ast.Base{Line: f.Line(1)}}
}

func binExprRule(op ast.BinOp) grammar.ReductionRule {
	return func(f grammar.Frame) any {
		return &ast.BinaryExpr{
			ExprBase: ast.ExprBase{Base: ast.Base{Line: f.Line(1)}},
			Op:       op,
			Left:     f.Get(1).(ast.Expr),
			Right:    f.Get(3).(ast.Expr),
		}
	}
}

func parseInt(s string) int64 {
	var v int64
	for _, c := range s {
		v = v*10 + int64(c-'0')
	}
	return v
}
