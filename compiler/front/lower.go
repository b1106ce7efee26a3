package front

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/slowlang/tacc/compiler/ast"
	"github.com/slowlang/tacc/compiler/tac"
)

// Lower emits tac for an analyzed program.
func (f *Front) Lower(ctx context.Context, p *ast.Program) (_ tac.Code, err error) {
	for _, x := range p.Stmts {
		err = f.lowerStmt(ctx, x)
		if err != nil {
			return nil, err
		}
	}

	return f.e.Code(), nil
}

func (f *Front) lowerStmt(ctx context.Context, x ast.Stmt) (err error) {
	tr := tlog.SpanFromContext(ctx)
	if tr.If("lower") {
		defer func(st int) {
			tr.Printw("lowered", "stmt", tlog.NextAsType, x, "pos", x.Position(), "instrs", f.e.Len()-st)
		}(f.e.Len())
	}

	e := f.e

	switch x := x.(type) {
	case *ast.Decl:
		// storage appears in the data section on first use
	case *ast.DeclAssign:
		t, err := f.lowerExpr(ctx, x.Value)
		if err != nil {
			return err
		}

		e.Emit(tac.Store{Name: x.Name, Src: t})
	case *ast.Assign:
		t, err := f.lowerExpr(ctx, x.Value)
		if err != nil {
			return err
		}

		e.Emit(tac.Store{Name: x.Name, Src: t})
	case *ast.Incr:
		v := tac.VarAtom(x.Name)

		e.Emit(tac.Assign{Dst: v, L: v, Op: "+", R: tac.ImmAtom(1)})
	case *ast.Decr:
		v := tac.VarAtom(x.Name)

		e.Emit(tac.Assign{Dst: v, L: v, Op: "-", R: tac.ImmAtom(1)})
	case *ast.If:
		br, err := f.lowerCond(ctx, x.Cond)
		if err != nil {
			return err
		}

		ltrue := e.NewLabel()
		lend := e.NewLabel()

		br.Label = ltrue

		e.Emit(br)
		e.Emit(tac.Jump{Label: lend})
		e.Emit(tac.Mark{Label: ltrue})

		err = f.lowerStmt(ctx, x.Then)
		if err != nil {
			return err
		}

		e.Emit(tac.Mark{Label: lend})
	case *ast.IfElse:
		br, err := f.lowerCond(ctx, x.Cond)
		if err != nil {
			return err
		}

		ltrue := e.NewLabel()
		lfalse := e.NewLabel()
		lend := e.NewLabel()

		br.Label = ltrue

		e.Emit(br)
		e.Emit(tac.Jump{Label: lfalse})
		e.Emit(tac.Mark{Label: ltrue})

		err = f.lowerStmt(ctx, x.Then)
		if err != nil {
			return err
		}

		e.Emit(tac.Jump{Label: lend})
		e.Emit(tac.Mark{Label: lfalse})

		err = f.lowerStmt(ctx, x.Else)
		if err != nil {
			return err
		}

		e.Emit(tac.Mark{Label: lend})
	case *ast.For:
		if x.Init != nil {
			err = f.lowerStmt(ctx, x.Init)
			if err != nil {
				return err
			}
		}

		lstart := e.NewLabel()
		lbody := e.NewLabel()
		lend := e.NewLabel()

		e.Emit(tac.Mark{Label: lstart})

		br, err := f.lowerCond(ctx, x.Cond)
		if err != nil {
			return err
		}

		br.Label = lbody

		e.Emit(br)
		e.Emit(tac.Jump{Label: lend})
		e.Emit(tac.Mark{Label: lbody})

		err = f.lowerStmt(ctx, x.Body)
		if err != nil {
			return err
		}

		err = f.lowerStmt(ctx, x.Step)
		if err != nil {
			return err
		}

		e.Emit(tac.Jump{Label: lstart})
		e.Emit(tac.Mark{Label: lend})
	case *ast.Block:
		for _, s := range x.Stmts {
			err = f.lowerStmt(ctx, s)
			if err != nil {
				return err
			}
		}
	default:
		return ast.NewUnsupportedNode(x)
	}

	return nil
}

// lowerCond lowers both sides of c and returns the branch without a label.
func (f *Front) lowerCond(ctx context.Context, c *ast.Cond) (br tac.BranchIf, err error) {
	l, err := f.lowerExpr(ctx, c.Left)
	if err != nil {
		return br, err
	}

	r, err := f.lowerExpr(ctx, c.Right)
	if err != nil {
		return br, err
	}

	return tac.BranchIf{L: l, Rel: c.Op, R: r}, nil
}

// lowerExpr materializes every leaf into a fresh temporary,
// identifier reads included. The backend frees a temporary after its single use.
func (f *Front) lowerExpr(ctx context.Context, x ast.Expr) (t tac.Atom, err error) {
	e := f.e

	switch x := x.(type) {
	case *ast.Const:
		t = e.NewTemp()
		e.Emit(tac.Assign{Dst: t, L: tac.ImmAtom(x.Value)})
	case *ast.Ident:
		t = e.NewTemp()
		e.Emit(tac.Assign{Dst: t, L: tac.VarAtom(x.Name)})
	case *ast.BinOp:
		l, err := f.lowerExpr(ctx, x.Left)
		if err != nil {
			return t, err
		}

		r, err := f.lowerExpr(ctx, x.Right)
		if err != nil {
			return t, err
		}

		t = e.NewTemp()
		e.Emit(tac.Assign{Dst: t, L: l, Op: x.Op, R: r})
	case *ast.UMinus:
		o, err := f.lowerExpr(ctx, x.X)
		if err != nil {
			return t, err
		}

		t = e.NewTemp()
		e.Emit(tac.Assign{Dst: t, L: tac.ImmAtom(0), Op: "-", R: o})
	default:
		return t, ast.NewUnsupportedNode(x)
	}

	return t, nil
}
