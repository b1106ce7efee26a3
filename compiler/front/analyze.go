package front

import (
	"context"

	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/tacc/compiler/ast"
)

// Analyze validates declarations and uses against scopes.
// It stops at the first error.
func (f *Front) Analyze(ctx context.Context, p *ast.Program) (err error) {
	for _, x := range p.Stmts {
		err = f.analyzeStmt(ctx, x)
		if err != nil {
			return err
		}
	}

	return nil
}

func (f *Front) analyzeStmt(ctx context.Context, x ast.Stmt) (err error) {
	switch x := x.(type) {
	case *ast.Decl:
		return f.declare(ctx, x.Name, x.Type, x.Pos)
	case *ast.DeclAssign:
		err = f.declare(ctx, x.Name, x.Type, x.Pos)
		if err != nil {
			return err
		}

		return f.analyzeExpr(ctx, x.Value)
	case *ast.Assign:
		err = f.use(ctx, x.Name, UseAssignment, x.Pos)
		if err != nil {
			return err
		}

		return f.analyzeExpr(ctx, x.Value)
	case *ast.Incr:
		return f.use(ctx, x.Name, UseIncrement, x.Pos)
	case *ast.Decr:
		return f.use(ctx, x.Name, UseDecrement, x.Pos)
	case *ast.If:
		err = f.analyzeCond(ctx, x.Cond)
		if err != nil {
			return err
		}

		return f.analyzeStmt(ctx, x.Then)
	case *ast.IfElse:
		err = f.analyzeCond(ctx, x.Cond)
		if err != nil {
			return err
		}

		err = f.analyzeStmt(ctx, x.Then)
		if err != nil {
			return err
		}

		return f.analyzeStmt(ctx, x.Else)
	case *ast.For:
		f.enter(ctx)
		defer f.exit(ctx)

		if x.Init != nil {
			err = f.analyzeStmt(ctx, x.Init)
			if err != nil {
				return err
			}
		}

		err = f.analyzeCond(ctx, x.Cond)
		if err != nil {
			return err
		}

		err = f.analyzeStmt(ctx, x.Step)
		if err != nil {
			return err
		}

		return f.analyzeStmt(ctx, x.Body)
	case *ast.Block:
		f.enter(ctx)
		defer f.exit(ctx)

		for _, s := range x.Stmts {
			err = f.analyzeStmt(ctx, s)
			if err != nil {
				return err
			}
		}

		return nil
	default:
		return ast.NewUnsupportedNode(x)
	}
}

func (f *Front) analyzeCond(ctx context.Context, c *ast.Cond) (err error) {
	err = f.analyzeExpr(ctx, c.Left)
	if err != nil {
		return err
	}

	return f.analyzeExpr(ctx, c.Right)
}

func (f *Front) analyzeExpr(ctx context.Context, x ast.Expr) (err error) {
	switch x := x.(type) {
	case *ast.Const:
		return nil
	case *ast.Ident:
		return f.use(ctx, x.Name, UseExpression, x.Pos)
	case *ast.UMinus:
		return f.analyzeExpr(ctx, x.X)
	case *ast.BinOp:
		err = f.analyzeExpr(ctx, x.Left)
		if err != nil {
			return err
		}

		return f.analyzeExpr(ctx, x.Right)
	default:
		return ast.NewUnsupportedNode(x)
	}
}

func (f *Front) declare(ctx context.Context, name string, typ ast.Type, pos int) error {
	if tr := tlog.SpanFromContext(ctx); tr.If("scope") {
		tr.Printw("declare", "name", name, "type", typ, "depth", f.syms.Depth(), "from", loc.Caller(1))
	}

	return f.syms.Declare(Symbol{Name: name, Type: typ, Pos: pos})
}

func (f *Front) use(ctx context.Context, name string, use Use, pos int) error {
	sym, ok := f.syms.Lookup(name)

	if tr := tlog.SpanFromContext(ctx); tr.If("scope") {
		tr.Printw("lookup", "name", name, "use", use, "found", ok, "type", sym.Type, "from", loc.Caller(1))
	}

	if !ok {
		return UndeclaredVariableError{Name: name, Use: use, Pos: pos}
	}

	return nil
}

func (f *Front) enter(ctx context.Context) {
	f.syms.Enter()

	tlog.SpanFromContext(ctx).V("scope").Printw("enter scope", "depth", f.syms.Depth())
}

func (f *Front) exit(ctx context.Context) {
	f.syms.Exit()

	tlog.SpanFromContext(ctx).V("scope").Printw("exit scope", "depth", f.syms.Depth())
}
