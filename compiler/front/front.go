// Package front checks declarations and uses of a syntax tree
// and lowers it into three-address code.
package front

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/tacc/compiler/ast"
	"github.com/slowlang/tacc/compiler/tac"
)

type (
	// Front holds per compilation state: scopes and tac generators.
	// It is reset at the start of every Compile.
	Front struct {
		syms *SymbolTable
		e    *tac.Emitter
	}

	Use string

	UndeclaredVariableError struct {
		Name string
		Use  Use
		Pos  int
	}

	DuplicateDeclarationError struct {
		Name string
		Pos  int
		Prev int
	}
)

const (
	UseAssignment Use = "assignment"
	UseIncrement  Use = "increment"
	UseDecrement  Use = "decrement"
	UseExpression Use = "expression"
)

func New() *Front {
	return &Front{
		syms: NewSymbolTable(),
		e:    tac.NewEmitter(),
	}
}

func (f *Front) Reset() {
	f.syms = NewSymbolTable()
	f.e.Reset()
}

// Compile analyzes p and lowers it.
// No code is produced if analysis fails.
func (f *Front) Compile(ctx context.Context, p *ast.Program) (code tac.Code, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "front: compile", "stmts", len(p.Stmts))
	defer tr.Finish("err", &err)

	f.Reset()

	err = f.Analyze(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "analyze")
	}

	code, err = f.Lower(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "lower")
	}

	err = tac.Check(code)
	if err != nil {
		return nil, errors.Wrap(err, "check lowered code")
	}

	tr.Printw("tac", "instrs", len(code))

	return code, nil
}

func (e UndeclaredVariableError) Error() string {
	return fmt.Sprintf("undeclared variable %q used in %s", e.Name, e.Use)
}

func (e DuplicateDeclarationError) Error() string {
	return fmt.Sprintf("variable %q already declared in this scope", e.Name)
}
