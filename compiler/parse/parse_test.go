package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/slowlang/tacc/compiler/ast"
)

func TestParseDecls(t *testing.T) {
	ctx := context.Background()

	p, err := Parse(ctx, "a.c", []byte("int x; float y = 3; void z;"))
	require.NoError(t, err)
	require.Len(t, p.Stmts, 3)

	d, ok := p.Stmts[0].(*ast.Decl)
	require.True(t, ok, "%T", p.Stmts[0])
	assert.Equal(t, ast.Int, d.Type)
	assert.Equal(t, "x", d.Name)
	assert.Equal(t, 0, d.Pos)
	assert.Equal(t, 6, d.End)

	da, ok := p.Stmts[1].(*ast.DeclAssign)
	require.True(t, ok, "%T", p.Stmts[1])
	assert.Equal(t, ast.Float, da.Type)
	assert.Equal(t, "y", da.Name)
	assert.Equal(t, &ast.Const{Base: ast.Base{Pos: 17, End: 18}, Value: 3}, da.Value)

	assert.Equal(t, ast.Void, p.Stmts[2].(*ast.Decl).Type)
}

func TestParsePrecedence(t *testing.T) {
	ctx := context.Background()

	p, err := Parse(ctx, "", []byte("a = 1 + 2 * 3 - 4;"))
	require.NoError(t, err)

	as := p.Stmts[0].(*ast.Assign)

	// (1 + (2 * 3)) - 4
	sub := as.Value.(*ast.BinOp)
	assert.Equal(t, "-", sub.Op)
	assert.Equal(t, int64(4), sub.Right.(*ast.Const).Value)

	add := sub.Left.(*ast.BinOp)
	assert.Equal(t, "+", add.Op)
	assert.Equal(t, int64(1), add.Left.(*ast.Const).Value)

	mul := add.Right.(*ast.BinOp)
	assert.Equal(t, "*", mul.Op)
	assert.Equal(t, int64(2), mul.Left.(*ast.Const).Value)
	assert.Equal(t, int64(3), mul.Right.(*ast.Const).Value)
}

func TestParseLeftAssoc(t *testing.T) {
	p, err := Parse(context.Background(), "", []byte("c = 20 - 10 - 5;"))
	require.NoError(t, err)

	outer := p.Stmts[0].(*ast.Assign).Value.(*ast.BinOp)
	assert.Equal(t, int64(5), outer.Right.(*ast.Const).Value)

	inner := outer.Left.(*ast.BinOp)
	assert.Equal(t, int64(20), inner.Left.(*ast.Const).Value)
	assert.Equal(t, int64(10), inner.Right.(*ast.Const).Value)
}

func TestParseUnaryAndParens(t *testing.T) {
	p, err := Parse(context.Background(), "", []byte("z = -(1 + x);"))
	require.NoError(t, err)

	u := p.Stmts[0].(*ast.Assign).Value.(*ast.UMinus)
	b := u.X.(*ast.BinOp)

	assert.Equal(t, "+", b.Op)
	assert.Equal(t, "x", b.Right.(*ast.Ident).Name)
}

func TestParseMinInt(t *testing.T) {
	p, err := Parse(context.Background(), "", []byte("x = -2147483648; y = - 2147483647;"))
	require.NoError(t, err)

	c := p.Stmts[0].(*ast.Assign).Value.(*ast.Const)
	assert.Equal(t, int64(-2147483648), c.Value)
	assert.Equal(t, 4, c.Pos)

	u := p.Stmts[1].(*ast.Assign).Value.(*ast.UMinus)
	assert.Equal(t, int64(2147483647), u.X.(*ast.Const).Value)
}

func TestParseControl(t *testing.T) {
	ctx := context.Background()

	text := `
int i;
// counting
for (i = 0; i < 5; i++) {
	if (i == 2) { i = i + 1; } else { }
	/* block
	   comment */
	if (i >= 4) i--;
}
`

	p, err := Parse(ctx, "", []byte(text))
	require.NoError(t, err)
	require.Len(t, p.Stmts, 2)

	f, ok := p.Stmts[1].(*ast.For)
	require.True(t, ok, "%T", p.Stmts[1])

	assert.Equal(t, "i", f.Init.(*ast.Assign).Name)
	assert.Equal(t, "<", f.Cond.Op)
	assert.Equal(t, &ast.Incr{Base: f.Step.(*ast.Incr).Base, Name: "i"}, f.Step)

	body := f.Body.(*ast.Block)
	require.Len(t, body.Stmts, 2)

	ie := body.Stmts[0].(*ast.IfElse)
	assert.Equal(t, "==", ie.Cond.Op)
	assert.Len(t, ie.Else.(*ast.Block).Stmts, 0)

	i2 := body.Stmts[1].(*ast.If)
	assert.Equal(t, ">=", i2.Cond.Op)
	assert.Equal(t, "i", i2.Then.(*ast.Decr).Name)
}

func TestParseForNoInit(t *testing.T) {
	p, err := Parse(context.Background(), "", []byte("for (; i != 0; i = i - 1) n++;"))
	require.NoError(t, err)

	f := p.Stmts[0].(*ast.For)
	assert.Nil(t, f.Init)
	assert.Equal(t, "!=", f.Cond.Op)
	assert.IsType(t, &ast.Assign{}, f.Step)
	assert.IsType(t, &ast.Incr{}, f.Body)
}

func TestParseErrors(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name string
		text string
		line int
		col  int
	}{
		{name: "missing semicolon", text: "int a; a = 10", line: 1, col: 14},
		{name: "mismatched paren", text: "int b; b = (5 + 3;", line: 1, col: 18},
		{name: "operator placement", text: "int c; c = 5 + * 3;", line: 1, col: 16},
		{name: "assign to literal", text: "int d; 5 = d;", line: 1, col: 8},
		{name: "float constant", text: "int e;\ne = 1.5;", line: 2, col: 5},
		{name: "unknown char", text: "int f; f = 1 @ 2;", line: 1, col: 14},
		{name: "lone bang", text: "if (!x) x = 1;", line: 1, col: 5},
		{name: "for init increment", text: "for (i++; i < 1; i++) {}", line: 1, col: 6},
		{name: "void init", text: "void v = 1;", line: 1, col: 8},
		{name: "unclosed block", text: "{ int a;", line: 1, col: 9},
		{name: "empty", text: "  // nothing\n", line: 2, col: 1},
		{name: "out of range", text: "x = 4294967296;", line: 1, col: 5},
		{name: "max int overflow", text: "x = 2147483648;", line: 1, col: 5},
		{name: "min int overflow", text: "x = -2147483649;", line: 1, col: 6},
	} {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(ctx, "t.c", []byte(tc.text))
			require.Error(t, err)

			var se *SyntaxError
			require.True(t, errors.As(err, &se), "%v", err)

			assert.Equal(t, tc.line, se.Line, "line: %v", err)
			assert.Equal(t, tc.col, se.Col, "col: %v", err)
		})
	}
}

func TestSyntaxErrorMessage(t *testing.T) {
	_, err := Parse(context.Background(), "t.c", []byte("int a; a = 10"))
	require.Error(t, err)

	assert.Equal(t, `t.c:1:14: syntax error: unexpected end of input, want ";"`, err.Error())
}

func TestLineCol(t *testing.T) {
	s := New("", []byte("ab\ncd\n\nef"))

	for _, tc := range []struct {
		pos, line, col int
	}{
		{0, 1, 1},
		{1, 1, 2},
		{3, 2, 1},
		{4, 2, 2},
		{6, 3, 1},
		{7, 4, 1},
		{100, 4, 3},
	} {
		line, col := s.LineCol(tc.pos)
		assert.Equal(t, tc.line, line, "pos %d", tc.pos)
		assert.Equal(t, tc.col, col, "pos %d", tc.pos)
	}
}
