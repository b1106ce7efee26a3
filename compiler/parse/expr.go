package parse

import (
	"context"
	"math"
	"strconv"

	"github.com/slowlang/tacc/compiler/ast"
)

func (s *State) parseExpr(ctx context.Context, st int) (x ast.Expr, i int, err error) {
	return s.parseBinary(ctx, st, 0)
}

var levels = [][]string{
	{"+", "-"},
	{"*", "/", "%"},
}

// parseBinary parses left associative operators of the precedence level and above.
func (s *State) parseBinary(ctx context.Context, st, level int) (x ast.Expr, i int, err error) {
	if level == len(levels) {
		return s.parseUnary(ctx, st)
	}

	x, i, err = s.parseBinary(ctx, st, level+1)
	if err != nil {
		return nil, i, err
	}

	for {
		tk, _, e := s.next(ctx, i)

		p, ok := tk.(Punct)
		if !ok || !oneOf(string(p), levels[level]) {
			break
		}

		var r ast.Expr

		r, i, err = s.parseBinary(ctx, e, level+1)
		if err != nil {
			return nil, i, err
		}

		x = &ast.BinOp{
			Base:  ast.Base{Pos: st, End: i},
			Op:    string(p),
			Left:  x,
			Right: r,
		}
	}

	return x, i, nil
}

func (s *State) parseUnary(ctx context.Context, st int) (x ast.Expr, i int, err error) {
	tk, tst, i := s.next(ctx, st)

	switch tk := tk.(type) {
	case Punct:
		switch tk {
		case "-":
			// -2147483648 doesn't fit as a positive literal
			if n, _, e := s.next(ctx, i); n == Number("2147483648") {
				return &ast.Const{Base: ast.Base{Pos: tst, End: e}, Value: math.MinInt32}, e, nil
			}

			x, i, err = s.parseUnary(ctx, i)
			if err != nil {
				return nil, i, err
			}

			return &ast.UMinus{Base: ast.Base{Pos: tst, End: i}, X: x}, i, nil
		case "(":
			x, i, err = s.parseExpr(ctx, i)
			if err != nil {
				return nil, i, err
			}

			i, err = s.expect(ctx, i, ")")
			if err != nil {
				return nil, i, err
			}

			return x, i, nil
		}
	case Ident:
		return &ast.Ident{Base: ast.Base{Pos: tst, End: i}, Name: string(tk)}, i, nil
	case Number:
		v, err := strconv.ParseInt(string(tk), 10, 32)
		if err != nil {
			return nil, tst, s.newErrorMsg(tst, tk, "integer constant out of range")
		}

		return &ast.Const{Base: ast.Base{Pos: tst, End: i}, Value: v}, i, nil
	case FloatNumber:
		return nil, tst, s.newErrorMsg(tst, tk, "floating-point constants are not supported")
	}

	return nil, tst, s.newError(tst, tk, "expression")
}

func oneOf(x string, l []string) bool {
	for _, y := range l {
		if x == y {
			return true
		}
	}

	return false
}
