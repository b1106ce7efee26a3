package compiler

import (
	"context"
	"fmt"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/tacc/compiler/ast"
	"github.com/slowlang/tacc/compiler/back"
	"github.com/slowlang/tacc/compiler/front"
	"github.com/slowlang/tacc/compiler/parse"
	"github.com/slowlang/tacc/compiler/tac"
)

type (
	Options struct {
		// Registers is the backend allocation pool. Empty means back.DefaultRegisters.
		Registers []back.Reg

		// Observe receives backend allocator decisions.
		// It's called from the compiling goroutine.
		Observe func(back.Event)

		// Jobs limits parallel compilations in CompileFiles. Zero means GOMAXPROCS.
		Jobs int
	}

	Result struct {
		Name string

		AST *ast.Program
		TAC tac.Code
		Asm *back.Program
	}

	// SemanticError is a front end error with the source position resolved.
	SemanticError struct {
		Name string
		Line int
		Col  int

		Err error
	}
)

func CompileFile(ctx context.Context, name string, opts Options) (res *Result, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, name, text, opts)
}

// Compile runs the whole pipeline on one translation unit.
// Every stage state is created for this call only.
func Compile(ctx context.Context, name string, text []byte, opts Options) (res *Result, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "name", name)
	defer tr.Finish("err", &err)

	ps := parse.New(name, text)

	p, err := ps.Parse(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "parse text")
	}

	code, err := front.New().Compile(ctx, p)
	if err != nil {
		return nil, newSemanticError(ps, name, err)
	}

	bc := back.New(back.Options{
		Registers: opts.Registers,
		Observe:   opts.Observe,
	})

	asm, err := bc.Compile(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "back")
	}

	return &Result{
		Name: name,
		AST:  p,
		TAC:  code,
		Asm:  asm,
	}, nil
}

func newSemanticError(ps *parse.State, name string, err error) error {
	pos := -1

	var undecl front.UndeclaredVariableError
	var dup front.DuplicateDeclarationError

	switch {
	case errors.As(err, &undecl):
		pos = undecl.Pos
	case errors.As(err, &dup):
		pos = dup.Pos
	default:
		return errors.Wrap(err, "front")
	}

	line, col := ps.LineCol(pos)

	return &SemanticError{
		Name: name,
		Line: line,
		Col:  col,
		Err:  err,
	}
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %v", e.Name, e.Line, e.Col, e.Err)
}

func (e *SemanticError) Unwrap() error { return e.Err }
