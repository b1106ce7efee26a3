// Package format prints a syntax tree back as source text.
package format

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/tacc/compiler/ast"
)

func Format(ctx context.Context, b []byte, x ast.Node) ([]byte, error) {
	switch x := x.(type) {
	case *ast.Program:
		return formatProgram(ctx, b, x, 0)
	case ast.Stmt:
		return formatStmt(ctx, b, x, 0)
	case ast.Expr:
		return formatExpr(ctx, b, x, 0)
	case *ast.Cond:
		return formatCond(ctx, b, x)
	default:
		return nil, ast.NewUnsupportedNode(x)
	}
}

func formatProgram(ctx context.Context, b []byte, x *ast.Program, d int) (_ []byte, err error) {
	for i, s := range x.Stmts {
		b, err = formatStmt(ctx, b, s, d)
		if err != nil {
			return nil, errors.Wrap(err, "stmt %d", i)
		}
	}

	return b, nil
}

func formatStmt(ctx context.Context, b []byte, x ast.Stmt, d int) (_ []byte, err error) {
	switch x := x.(type) {
	case *ast.Decl:
		b = app(b, d, "%v %s;\n", x.Type, x.Name)
	case *ast.DeclAssign:
		b = app(b, d, "%v %s = ", x.Type, x.Name)

		b, err = formatExpr(ctx, b, x.Value, 0)
		if err != nil {
			return nil, errors.Wrap(err, "value")
		}

		b = append(b, ";\n"...)
	case *ast.Assign, *ast.Incr, *ast.Decr:
		b = app(b, d, "")

		b, err = formatSimple(ctx, b, x)
		if err != nil {
			return nil, err
		}

		b = append(b, ";\n"...)
	case *ast.If:
		b, err = formatIf(ctx, b, x.Cond, x.Then, d)
		if err != nil {
			return nil, err
		}

		b = append(b, '\n')
	case *ast.IfElse:
		b, err = formatIf(ctx, b, x.Cond, x.Then, d)
		if err != nil {
			return nil, err
		}

		b = append(b, " else "...)

		b, err = formatBody(ctx, b, x.Else, d)
		if err != nil {
			return nil, errors.Wrap(err, "else")
		}

		b = append(b, '\n')
	case *ast.For:
		b = app(b, d, "for (")

		if x.Init != nil {
			b, err = formatSimple(ctx, b, x.Init)
			if err != nil {
				return nil, errors.Wrap(err, "init")
			}
		}

		b = append(b, "; "...)

		b, err = formatCond(ctx, b, x.Cond)
		if err != nil {
			return nil, errors.Wrap(err, "cond")
		}

		b = append(b, "; "...)

		b, err = formatSimple(ctx, b, x.Step)
		if err != nil {
			return nil, errors.Wrap(err, "step")
		}

		b = append(b, ") "...)

		b, err = formatBody(ctx, b, x.Body, d)
		if err != nil {
			return nil, errors.Wrap(err, "body")
		}

		b = append(b, '\n')
	case *ast.Block:
		b = app(b, d, "")

		b, err = formatBlock(ctx, b, x, d)
		if err != nil {
			return nil, err
		}

		b = append(b, '\n')
	default:
		return nil, ast.NewUnsupportedNode(x)
	}

	return b, nil
}

func formatIf(ctx context.Context, b []byte, c *ast.Cond, then ast.Stmt, d int) (_ []byte, err error) {
	b = app(b, d, "if (")

	b, err = formatCond(ctx, b, c)
	if err != nil {
		return nil, errors.Wrap(err, "cond")
	}

	b = append(b, ") "...)

	b, err = formatBody(ctx, b, then, d)
	if err != nil {
		return nil, errors.Wrap(err, "then")
	}

	return b, nil
}

// formatBody prints a nested statement on the current line, without the final newline.
func formatBody(ctx context.Context, b []byte, x ast.Stmt, d int) (_ []byte, err error) {
	if blk, ok := x.(*ast.Block); ok {
		return formatBlock(ctx, b, blk, d)
	}

	b = append(b, "{\n"...)

	b, err = formatStmt(ctx, b, x, d+1)
	if err != nil {
		return nil, err
	}

	b = app(b, d, "}")

	return b, nil
}

func formatBlock(ctx context.Context, b []byte, x *ast.Block, d int) (_ []byte, err error) {
	b = append(b, "{\n"...)

	for i, s := range x.Stmts {
		b, err = formatStmt(ctx, b, s, d+1)
		if err != nil {
			return nil, errors.Wrap(err, "stmt %d", i)
		}
	}

	b = app(b, d, "}")

	return b, nil
}

func formatSimple(ctx context.Context, b []byte, x ast.Stmt) (_ []byte, err error) {
	switch x := x.(type) {
	case *ast.Assign:
		b = app(b, 0, "%s = ", x.Name)

		return formatExpr(ctx, b, x.Value, 0)
	case *ast.Incr:
		return app(b, 0, "%s++", x.Name), nil
	case *ast.Decr:
		return app(b, 0, "%s--", x.Name), nil
	default:
		return nil, ast.NewUnsupportedNode(x)
	}
}

func formatCond(ctx context.Context, b []byte, x *ast.Cond) (_ []byte, err error) {
	b, err = formatExpr(ctx, b, x.Left, 0)
	if err != nil {
		return nil, errors.Wrap(err, "left")
	}

	b = app(b, 0, " %s ", x.Op)

	b, err = formatExpr(ctx, b, x.Right, 0)
	if err != nil {
		return nil, errors.Wrap(err, "right")
	}

	return b, nil
}

// formatExpr prints x parenthesized where the parent binds tighter.
func formatExpr(ctx context.Context, b []byte, x ast.Expr, prec int) (_ []byte, err error) {
	switch x := x.(type) {
	case *ast.Ident:
		b = append(b, x.Name...)
	case *ast.Const:
		b = hfmt.Appendf(b, "%d", x.Value)
	case *ast.UMinus:
		_, nested := x.X.(*ast.UMinus)

		b = append(b, '-')
		if nested {
			b = append(b, '(')
		}

		b, err = formatExpr(ctx, b, x.X, 3)
		if err != nil {
			return nil, errors.Wrap(err, "operand")
		}

		if nested {
			b = append(b, ')')
		}
	case *ast.BinOp:
		p := precedence(x.Op)

		if p < prec {
			b = append(b, '(')
		}

		b, err = formatExpr(ctx, b, x.Left, p)
		if err != nil {
			return nil, errors.Wrap(err, "left")
		}

		b = app(b, 0, " %s ", x.Op)

		b, err = formatExpr(ctx, b, x.Right, p+1)
		if err != nil {
			return nil, errors.Wrap(err, "right")
		}

		if p < prec {
			b = append(b, ')')
		}
	default:
		return nil, ast.NewUnsupportedNode(x)
	}

	return b, nil
}

func precedence(op string) int {
	switch op {
	case "*", "/", "%":
		return 2
	default:
		return 1
	}
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
