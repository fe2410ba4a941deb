package cool

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Hello world end to end.
func TestRun_HelloWorld(t *testing.T) {
	src := `class Main inherits IO { main(): IO { out_string("Hello, World.\n") }; }`
	var out bytes.Buffer
	f := NewFrontend(WithOutput(&out))

	_, diag, err := f.Run(src)
	require.NoError(t, err)
	require.False(t, diag.HasErrors(), diag.Error())
	assert.Equal(t, "Hello, World.\n", out.String())
}

// Multiplication binds tighter than addition.
func TestRun_ArithmeticPrecedence(t *testing.T) {
	src := `class Main { main(): Int { 1 + 2 * 3 }; }`
	f := NewFrontend()

	result, diag, err := f.Run(src)
	require.NoError(t, err)
	require.False(t, diag.HasErrors(), diag.Error())
	assert.Equal(t, int64(7), result.IntValue)
}

// AUTO_TYPE resolves by fixed point across two mutually recursive
// methods: all six AUTO_TYPE slots become Int.
func TestCompile_InferenceFixedPoint(t *testing.T) {
	src := `
class Main { main(): Object { 0 };
  f(a: AUTO_TYPE, b: AUTO_TYPE): AUTO_TYPE {
    if a = 1 then b else g(a + 1, b / 1) fi };
  g(a: AUTO_TYPE, b: AUTO_TYPE): AUTO_TYPE {
    if b = 1 then a else f(a / 2, b + 1) fi }; }`
	f := NewFrontend()

	prog, ctx, diag, err := f.Compile(src)
	require.NoError(t, err)
	require.False(t, diag.HasErrors(), diag.Error())

	mainType, err := ctx.GetType("Main")
	require.NoError(t, err)

	for _, name := range []string{"f", "g"} {
		m, _, err := mainType.GetMethod(name)
		require.NoError(t, err)
		assert.Equal(t, "Int", m.ReturnType.Name, "%s return type", name)
		for i, pt := range m.ParamTypes {
			assert.Equal(t, "Int", pt.Name, "%s param %d", name, i)
		}
	}

	require.NotEmpty(t, prog.Classes)
}

// case selects the most specific matching branch.
func TestRun_CaseSelection(t *testing.T) {
	src := `
class A{}; class B inherits A{}; class C inherits A{};
class Main inherits IO { main(): IO {
  let a: A <- new C in case a of
     x: B => out_string("B\n");
     x: C => out_string("C\n"); esac }; }`
	var out bytes.Buffer
	f := NewFrontend(WithOutput(&out))

	_, diag, err := f.Run(src)
	require.NoError(t, err)
	require.False(t, diag.HasErrors(), diag.Error())
	assert.Equal(t, "C\n", out.String())
}

// Overriding a method with a different signature is reported without
// aborting the rest of the pipeline.
func TestCompile_OverrideError(t *testing.T) {
	src := `
class A { f(): Int { 0 }; };
class B inherits A { f(): String { "x" }; };
class Main { main(): Object { 0 }; };`
	f := NewFrontend()

	_, _, diag, err := f.Compile(src)
	require.NoError(t, err)
	require.True(t, diag.HasErrors())

	found := false
	for _, msg := range diag.Semantic {
		if strings.Contains(msg, `OverrideError: Method "f" already defined in "A" with a different signature.`) {
			found = true
		}
	}
	assert.True(t, found, "expected an OverrideError diagnostic, got: %v", diag.Semantic)
}

// An unterminated string literal is reported as a lexical error.
func TestCompile_UnterminatedString(t *testing.T) {
	src := "class Main { main(): Int { \"abc };"
	f := NewFrontend()

	_, _, diag, _ := f.Compile(src)
	require.NotEmpty(t, diag.Lexical)

	joined := strings.Join(diag.Lexical, "\n")
	assert.True(t,
		strings.Contains(joined, "Unterminated string constant") || strings.Contains(joined, "EOF in string constant"),
		"got: %s", joined)
}

// A missing ';' inside a block is recovered via the grammar's ERROR
// production: parsing continues past it and the diagnostic matches the
// literal "Expected ';' instead of 'X'." template.
func TestCompile_SyntaxErrorRecovery_MissingSemicolonInBlock(t *testing.T) {
	src := `
class Main inherits IO { main(): IO {
  { out_string("a") out_string("b"); }
}; };`
	f := NewFrontend()

	_, _, diag, err := f.Compile(src)
	require.NoError(t, err)
	require.NotEmpty(t, diag.Syntax)

	joined := strings.Join(diag.Syntax, "\n")
	assert.Contains(t, joined, `SyntacticError: Expected ';' instead of 'out_string'.`)
}

// A missing ';' between two attribute features is likewise recovered
// rather than aborting the whole parse; the malformed attribute itself
// is discarded along with the bad separator (the error production
// resyncs at the next feature rather than attempting to salvage it),
// but the class and its well-formed method still elaborate.
func TestCompile_SyntaxErrorRecovery_MissingSemicolonBetweenFeatures(t *testing.T) {
	src := `
class Main { x: Int <- 1 y: Int <- 2; main(): Object { 0 }; };`
	f := NewFrontend()

	_, ctx, diag, err := f.Compile(src)
	require.NoError(t, err)
	require.NotEmpty(t, diag.Syntax)
	assert.Contains(t, strings.Join(diag.Syntax, "\n"), `Expected ';' instead of 'y'.`)

	mainType, terr := ctx.GetType("Main")
	require.NoError(t, terr)
	_, _, err = mainType.GetMethod("main")
	assert.NoError(t, err, "parsing should have recovered enough to still see method main")
}

func TestRun_DivisionByZero(t *testing.T) {
	src := `class Main { main(): Int { 1 / 0 }; };`
	f := NewFrontend()

	_, _, err := f.Run(src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ZeroDivisionError")
}

func TestRun_VoidDispatch(t *testing.T) {
	src := `
class A { f(): Int { 0 }; };
class Main { main(): Int {
  let a: A in a.f() }; };`
	f := NewFrontend()

	_, _, err := f.Run(src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VoidReferenceError")
}

func TestRun_StringBuiltins(t *testing.T) {
	src := `
class Main inherits IO { main(): IO {
  out_string("ab".concat("cd").substr(1, 2))
}; };`
	var out bytes.Buffer
	f := NewFrontend(WithOutput(&out))

	_, diag, err := f.Run(src)
	require.NoError(t, err)
	require.False(t, diag.HasErrors(), diag.Error())
	assert.Equal(t, "bc", out.String())
}

func TestRun_InheritedDispatchAndSelfType(t *testing.T) {
	src := `
class Counter inherits IO {
  n: Int <- 0;
  bump(): SELF_TYPE { { n <- n + 1; self; } };
  value(): Int { n };
};
class Main inherits IO { main(): IO {
  let c: Counter <- new Counter in {
    c.bump().bump().bump();
    out_int(c.value());
  }
}; };`
	var out bytes.Buffer
	f := NewFrontend(WithOutput(&out))

	_, diag, err := f.Run(src)
	require.NoError(t, err)
	require.False(t, diag.HasErrors(), diag.Error())
	assert.Equal(t, "3", out.String())
}
