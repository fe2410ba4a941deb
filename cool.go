// Package cool wires the full COOL front end and evaluator together:
// lexer -> parser -> semantic pipeline -> evaluator.
package cool

import (
	"fmt"
	"io"
	"strings"

	"github.com/dekarrin/coolc/internal/ast"
	"github.com/dekarrin/coolc/internal/coolgrammar"
	"github.com/dekarrin/coolc/internal/eval"
	"github.com/dekarrin/coolc/internal/infer"
	"github.com/dekarrin/coolc/internal/parse"
	"github.com/dekarrin/coolc/internal/sema"
	"github.com/dekarrin/coolc/internal/types"
)

// Frontend holds the configuration shared by Compile and Run: which
// streams the IO built-ins read from and write to. LALR(1) is the only
// table construction this module implements, so there is no
// parser-algorithm option.
type Frontend struct {
	out io.Writer
	in  io.Reader
}

// Option configures a Frontend.
type Option func(*Frontend)

// WithOutput directs IO.out_string/out_int to w instead of os.Stdout.
func WithOutput(w io.Writer) Option { return func(f *Frontend) { f.out = w } }

// WithInput directs IO.in_string/in_int to r instead of os.Stdin.
func WithInput(r io.Reader) Option { return func(f *Frontend) { f.in = r } }

// NewFrontend builds a Frontend with the given options applied.
func NewFrontend(opts ...Option) *Frontend {
	f := &Frontend{}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Diagnostics collects every diagnostic produced along the pipeline,
// grouped by the stage that produced it.
type Diagnostics struct {
	Lexical  []string
	Syntax   []string
	Semantic []string
}

// HasErrors reports whether any diagnostic was recorded in any bucket.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Lexical) > 0 || len(d.Syntax) > 0 || len(d.Semantic) > 0
}

// Error implements the error interface so a Diagnostics can be
// returned or wrapped directly at the Compile entry point.
func (d *Diagnostics) Error() string {
	var b strings.Builder
	for _, bucket := range [][]string{d.Lexical, d.Syntax, d.Semantic} {
		for _, msg := range bucket {
			b.WriteString(msg)
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Compile runs the lexer, parser, and full semantic pipeline over src,
// returning the topologically-ordered, fully elaborated AST and
// Context along with every diagnostic produced. A non-nil error here
// means the pipeline could not proceed at all (a lexer construction
// failure, or a conflicting -- ill-formed -- grammar); diagnostics
// recorded in buckets are NOT themselves returned as the error, since
// every pass keeps running and all errors are reported at the end.
func (f *Frontend) Compile(src string) (*ast.Program, *types.Context, *Diagnostics, error) {
	diag := &Diagnostics{}

	lx, err := coolgrammar.NewLexer()
	if err != nil {
		return nil, nil, diag, fmt.Errorf("building lexer: %w", err)
	}
	lx.Start(src)
	tokens := lx.Tokens()
	diag.Lexical = lx.Errors()

	table, err := parse.BuildLALR1(coolgrammar.Build())
	if err != nil {
		return nil, nil, diag, fmt.Errorf("building parser table: %w", err)
	}
	if len(table.Conflicts) > 0 {
		return nil, nil, diag, fmt.Errorf("grammar is ill-formed: %d conflict(s), e.g. %s", len(table.Conflicts), table.Conflicts[0].String())
	}

	result, perrs := parse.NewDriver(table).Parse(tokens)
	for _, e := range perrs {
		diag.Syntax = append(diag.Syntax, e.Error())
	}
	prog, ok := result.(*ast.Program)
	if !ok {
		return nil, nil, diag, fmt.Errorf("parse did not produce a Program")
	}

	ctx := sema.NewBaseContext()
	diag.Semantic = append(diag.Semantic, sema.Collect(ctx, prog)...)
	diag.Semantic = append(diag.Semantic, sema.Build(ctx, prog)...)

	var topoErrs []string
	prog, topoErrs = sema.TopoSort(prog)
	diag.Semantic = append(diag.Semantic, topoErrs...)

	diag.Semantic = append(diag.Semantic, sema.CheckOverrides(ctx, prog)...)
	diag.Semantic = append(diag.Semantic, infer.Infer(ctx, prog)...)
	diag.Semantic = append(diag.Semantic, sema.Check(ctx, prog)...)

	return prog, ctx, diag, nil
}

// Run compiles src and, if it elaborated with no diagnostics, evaluates
// class Main's main() method. A compile with diagnostics is not
// evaluated: all accumulated errors are reported instead of running a
// program known to be ill-typed.
func (f *Frontend) Run(src string) (*eval.Instance, *Diagnostics, error) {
	prog, ctx, diag, err := f.Compile(src)
	if err != nil {
		return nil, diag, err
	}
	if diag.HasErrors() {
		return nil, diag, fmt.Errorf("compilation failed:\n%s", diag.Error())
	}

	ev := eval.New(ctx, prog, f.out, f.in)
	result, err := ev.Run()
	return result, diag, err
}
