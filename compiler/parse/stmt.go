package parse

import (
	"context"
	"strconv"

	"tlog.app/go/tlog"

	"github.com/slowlang/tacc/compiler/ast"
)

func (s *State) parseStatement(ctx context.Context, st int) (x ast.Stmt, i int, err error) {
	tk, tst, i := s.next(ctx, st)

	switch tk := tk.(type) {
	case Keyword:
		switch string(tk) {
		case "if":
			return s.parseIf(ctx, tst, i)
		case "for":
			return s.parseFor(ctx, tst, i)
		}

		if ast.IsType(string(tk)) {
			return s.parseDecl(ctx, tst, ast.Type(tk), i)
		}

		return nil, tst, s.newError(tst, tk, "statement")
	case Punct:
		if tk == "{" {
			return s.parseBlock(ctx, tst, i)
		}
	case Ident:
		x, i, err = s.parseSimple(ctx, tst)
		if err != nil {
			return nil, i, err
		}

		i, err = s.expect(ctx, i, ";")
		if err != nil {
			return nil, i, err
		}

		return x, i, nil
	}

	return nil, tst, s.newError(tst, tk, "statement")
}

// parseSimple parses assignment and increment forms without the trailing semicolon.
func (s *State) parseSimple(ctx context.Context, st int) (x ast.Stmt, i int, err error) {
	tk, tst, i := s.next(ctx, st)

	name, ok := tk.(Ident)
	if !ok {
		return nil, tst, s.newError(tst, tk, "identifier")
	}

	base := ast.Base{Pos: tst}

	op, ost, i := s.next(ctx, i)

	switch op {
	case Punct("="):
		val, i, err := s.parseExpr(ctx, i)
		if err != nil {
			return nil, i, err
		}

		base.End = i

		tlog.SpanFromContext(ctx).V("parse_stmt").Printw("assignment", "name", name, "pos", tst)

		return &ast.Assign{Base: base, Name: string(name), Value: val}, i, nil
	case Punct("++"):
		base.End = i

		return &ast.Incr{Base: base, Name: string(name)}, i, nil
	case Punct("--"):
		base.End = i

		return &ast.Decr{Base: base, Name: string(name)}, i, nil
	}

	return nil, ost, s.newError(ost, op, `"="`, `"++"`, `"--"`)
}

func (s *State) parseDecl(ctx context.Context, st int, typ ast.Type, vst int) (x ast.Stmt, i int, err error) {
	tk, tst, i := s.next(ctx, vst)

	name, ok := tk.(Ident)
	if !ok {
		return nil, tst, s.newError(tst, tk, "identifier")
	}

	base := ast.Base{Pos: st}

	tk, tst, i = s.next(ctx, i)

	switch tk {
	case Punct(";"):
		base.End = i

		return &ast.Decl{Base: base, Type: typ, Name: string(name)}, i, nil
	case Punct("="):
		if typ == ast.Void {
			return nil, tst, s.newErrorMsg(tst, tk, "void variable cannot be initialized")
		}

		val, i, err := s.parseExpr(ctx, i)
		if err != nil {
			return nil, i, err
		}

		i, err = s.expect(ctx, i, ";")
		if err != nil {
			return nil, i, err
		}

		base.End = i

		return &ast.DeclAssign{Base: base, Type: typ, Name: string(name), Value: val}, i, nil
	}

	return nil, tst, s.newError(tst, tk, `";"`, `"="`)
}

func (s *State) parseIf(ctx context.Context, st, vst int) (x ast.Stmt, i int, err error) {
	i, err = s.expect(ctx, vst, "(")
	if err != nil {
		return nil, i, err
	}

	cond, i, err := s.parseCond(ctx, i)
	if err != nil {
		return nil, i, err
	}

	i, err = s.expect(ctx, i, ")")
	if err != nil {
		return nil, i, err
	}

	then, i, err := s.parseStatement(ctx, i)
	if err != nil {
		return nil, i, err
	}

	tk, _, e := s.next(ctx, i)
	if tk != Keyword("else") {
		return &ast.If{Base: ast.Base{Pos: st, End: i}, Cond: cond, Then: then}, i, nil
	}

	els, i, err := s.parseStatement(ctx, e)
	if err != nil {
		return nil, i, err
	}

	return &ast.IfElse{Base: ast.Base{Pos: st, End: i}, Cond: cond, Then: then, Else: els}, i, nil
}

func (s *State) parseFor(ctx context.Context, st, vst int) (x ast.Stmt, i int, err error) {
	f := &ast.For{Base: ast.Base{Pos: st}}

	i, err = s.expect(ctx, vst, "(")
	if err != nil {
		return nil, i, err
	}

	if tk, _, _ := s.next(ctx, i); tk != Punct(";") {
		f.Init, i, err = s.parseAssign(ctx, i)
		if err != nil {
			return nil, i, err
		}
	}

	i, err = s.expect(ctx, i, ";")
	if err != nil {
		return nil, i, err
	}

	f.Cond, i, err = s.parseCond(ctx, i)
	if err != nil {
		return nil, i, err
	}

	i, err = s.expect(ctx, i, ";")
	if err != nil {
		return nil, i, err
	}

	f.Step, i, err = s.parseSimple(ctx, i)
	if err != nil {
		return nil, i, err
	}

	i, err = s.expect(ctx, i, ")")
	if err != nil {
		return nil, i, err
	}

	f.Body, i, err = s.parseStatement(ctx, i)
	if err != nil {
		return nil, i, err
	}

	f.End = i

	return f, i, nil
}

// parseAssign parses for loop init clause which is only allowed to be an assignment.
func (s *State) parseAssign(ctx context.Context, st int) (x ast.Stmt, i int, err error) {
	x, i, err = s.parseSimple(ctx, st)
	if err != nil {
		return nil, i, err
	}

	if _, ok := x.(*ast.Assign); !ok {
		_, tst, _ := s.next(ctx, st)

		return nil, tst, s.newErrorMsg(tst, nil, "for loop init must be an assignment")
	}

	return x, i, nil
}

func (s *State) parseBlock(ctx context.Context, st, vst int) (x ast.Stmt, i int, err error) {
	b := &ast.Block{Base: ast.Base{Pos: st}}
	i = vst

	for {
		tk, _, e := s.next(ctx, i)
		if tk == Punct("}") {
			i = e
			break
		}

		if _, ok := tk.(EOF); ok {
			return nil, len(s.b), s.newError(len(s.b), tk, `"}"`)
		}

		var stmt ast.Stmt

		stmt, i, err = s.parseStatement(ctx, i)
		if err != nil {
			return nil, i, err
		}

		b.Stmts = append(b.Stmts, stmt)
	}

	b.End = i

	return b, i, nil
}

func (s *State) parseCond(ctx context.Context, st int) (c *ast.Cond, i int, err error) {
	l, i, err := s.parseExpr(ctx, st)
	if err != nil {
		return nil, i, err
	}

	tk, tst, i := s.next(ctx, i)

	switch tk {
	case Punct("<"), Punct("<="), Punct(">"), Punct(">="), Punct("=="), Punct("!="):
	default:
		return nil, tst, s.newError(tst, tk, "relational operator")
	}

	r, i, err := s.parseExpr(ctx, i)
	if err != nil {
		return nil, i, err
	}

	return &ast.Cond{
		Base:  ast.Base{Pos: st, End: i},
		Op:    string(tk.(Punct)),
		Left:  l,
		Right: r,
	}, i, nil
}

func (s *State) expect(ctx context.Context, st int, p string) (i int, err error) {
	tk, tst, i := s.next(ctx, st)
	if tk != Punct(p) {
		return tst, s.newError(tst, tk, strconv.Quote(p))
	}

	return i, nil
}
