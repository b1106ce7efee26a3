package front

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/slowlang/tacc/compiler/parse"
	"github.com/slowlang/tacc/compiler/tac"
)

func compile(t *testing.T, f *Front, text string) (tac.Code, error) {
	t.Helper()

	ctx := context.Background()

	p, err := parse.Parse(ctx, "", []byte(text))
	require.NoError(t, err)

	return f.Compile(ctx, p)
}

func lines(t *testing.T, text string) []string {
	t.Helper()

	code, err := compile(t, New(), text)
	require.NoError(t, err)

	return code.Lines()
}

func TestLowerAssign(t *testing.T) {
	assert.Equal(t, []string{
		"t1 := 10",
		"store x, t1",
	}, lines(t, "int x; x = 10;"))

	assert.Equal(t, []string{
		"t1 := 5",
		"t2 := 3",
		"t3 := t1 + t2",
		"store y, t3",
	}, lines(t, "int y; y = 5 + 3;"))

	assert.Equal(t, []string{
		"t1 := 100",
		"t2 := 0 - t1",
		"store z, t2",
	}, lines(t, "int z; z = -100;"))

	assert.Equal(t, []string{
		"t1 := q",
		"t2 := 2",
		"t3 := t1 * t2",
		"store w, t3",
	}, lines(t, "int q; int w = q * 2;"))
}

func TestLowerIncrDecr(t *testing.T) {
	assert.Equal(t, []string{
		"x := x + 1",
		"x := x - 1",
	}, lines(t, "int x; x++; x--;"))
}

func TestLowerIf(t *testing.T) {
	assert.Equal(t, []string{
		"t1 := 10",
		"store g, t1",
		"t2 := g",
		"t3 := 5",
		"if t2 > t3 goto L1",
		"goto L2",
		"L1:",
		"t4 := 1",
		"store g, t4",
		"L2:",
	}, lines(t, "int g; g = 10; if (g > 5) { g = 1; }"))
}

func TestLowerIfElse(t *testing.T) {
	assert.Equal(t, []string{
		"t1 := i",
		"t2 := 1",
		"if t1 == t2 goto L1",
		"goto L2",
		"L1:",
		"t3 := 2",
		"store i, t3",
		"goto L3",
		"L2:",
		"t4 := 3",
		"store i, t4",
		"L3:",
	}, lines(t, "int i; if (i == 1) i = 2; else i = 3;"))
}

func TestLowerFor(t *testing.T) {
	assert.Equal(t, []string{
		"t1 := 0",
		"store i, t1",
		"L1:",
		"t2 := i",
		"t3 := 3",
		"if t2 < t3 goto L2",
		"goto L3",
		"L2:",
		"t4 := n",
		"t5 := 1",
		"t6 := t4 + t5",
		"store n, t6",
		"t7 := i",
		"t8 := 1",
		"t9 := t7 + t8",
		"store i, t9",
		"goto L1",
		"L3:",
	}, lines(t, "int i; int n; for (i = 0; i < 3; i = i + 1) { n = n + 1; }"))
}

func TestLowerNestedLabels(t *testing.T) {
	l := lines(t, `
int i; int j;
for (i = 0; i < 2; i++) {
	for (j = 0; j < 2; j++) { }
}`)

	var marks []string

	for _, x := range l {
		if x[len(x)-1] == ':' {
			marks = append(marks, x)
		}
	}

	assert.Equal(t, []string{"L1:", "L2:", "L4:", "L5:", "L6:", "L3:"}, marks)
}

func TestCountersReset(t *testing.T) {
	f := New()

	text := "int a; a = 1 + 2; if (a < 3) a++;"

	c1, err := compile(t, f, text)
	require.NoError(t, err)

	c2, err := compile(t, f, text)
	require.NoError(t, err)

	assert.Equal(t, c1.Lines(), c2.Lines())
	assert.Equal(t, "t1 := 1", c2.Lines()[0])
}

func TestSingleAssignment(t *testing.T) {
	code, err := compile(t, New(), `
int o; int i;
o = 0;
for (i = 1; i <= 4; i = i + 1) {
	if ((i % 2) == 0) {
		o = o + i;
	} else {
		o = o - -1;
	}
}`)
	require.NoError(t, err)

	assert.NoError(t, tac.Check(code))

	seen := map[string]bool{}

	for _, x := range code {
		a, ok := x.(tac.Assign)
		if !ok || !a.Dst.IsTemp() {
			continue
		}

		assert.False(t, seen[a.Dst.Name], "%v assigned twice", a.Dst)
		seen[a.Dst.Name] = true
	}
}

func TestUndeclared(t *testing.T) {
	for _, tc := range []struct {
		text string
		name string
		use  Use
	}{
		{"int r; r = q + 5;", "q", UseExpression},
		{"x = 1;", "x", UseAssignment},
		{"x++;", "x", UseIncrement},
		{"x--;", "x", UseDecrement},
		{"int a; if (a < b) a = 1;", "b", UseExpression},
		{"{ int a; } a = 1;", "a", UseAssignment},
		{"int i; for (i = 0; i < 1; i++) { int k; } k = 2;", "k", UseAssignment},
		{"for (i = 0; i < 1; i++) { }", "i", UseAssignment},
	} {
		code, err := compile(t, New(), tc.text)
		assert.Nil(t, code, "%s", tc.text)

		var ue UndeclaredVariableError
		if assert.True(t, errors.As(err, &ue), "%s: %v", tc.text, err) {
			assert.Equal(t, tc.name, ue.Name, "%s", tc.text)
			assert.Equal(t, tc.use, ue.Use, "%s", tc.text)
		}
	}
}

func TestUndeclaredMessage(t *testing.T) {
	_, err := compile(t, New(), "int r; r = q + 5;")

	var ue UndeclaredVariableError
	require.True(t, errors.As(err, &ue))

	assert.Equal(t, `undeclared variable "q" used in expression`, ue.Error())
	assert.Equal(t, 11, ue.Pos)
}

func TestDuplicate(t *testing.T) {
	_, err := compile(t, New(), "int a; float a;")

	var de DuplicateDeclarationError
	require.True(t, errors.As(err, &de), "%v", err)

	assert.Equal(t, "a", de.Name)
	assert.Equal(t, 7, de.Pos)
	assert.Equal(t, 0, de.Prev)
	assert.Equal(t, `variable "a" already declared in this scope`, de.Error())

	_, err = compile(t, New(), "int i; for (i = 0; i < 1; i++) { int k; int k; }")
	assert.True(t, errors.As(err, &de), "%v", err)
}

func TestShadowing(t *testing.T) {
	for _, text := range []string{
		"int a; { int a; a = 1; } a = 2;",
		"int a; { { int a; } int a; }",
		"int i; for (i = 0; i < 2; i++) { int i; i = 5; }",
		"int i; for (i = 0; i < 2; i++) { int k; } for (i = 0; i < 2; i++) { int k; }",
		"int a = a;",
		"int a; if (a == 0) { int b; b = a; } else { int b; b = 2; }",
	} {
		_, err := compile(t, New(), text)
		assert.NoError(t, err, "%s", text)
	}
}

func TestSymbolTable(t *testing.T) {
	st := NewSymbolTable()
	assert.Equal(t, 1, st.Depth())

	require.NoError(t, st.Declare(Symbol{Name: "x", Type: "int", Pos: 1}))

	st.Enter()
	assert.Equal(t, 2, st.Depth())

	require.NoError(t, st.Declare(Symbol{Name: "x", Type: "char", Pos: 2}))

	sym, ok := st.Lookup("x")
	assert.True(t, ok)
	assert.Equal(t, 2, sym.Pos)

	assert.Error(t, st.Declare(Symbol{Name: "x", Pos: 3}))

	st.Exit()

	sym, ok = st.Lookup("x")
	assert.True(t, ok)
	assert.Equal(t, 1, sym.Pos)

	_, ok = st.Lookup("y")
	assert.False(t, ok)

	assert.Panics(t, st.Exit)
}

func TestForBodyPasses(t *testing.T) {
	code, err := compile(t, New(), "int i; int n; for (i = 0; i < 3; i = i + 1) { n = n + 1; }")
	require.NoError(t, err)

	m, err := tac.Run(context.Background(), code, tac.Options{Env: map[string]int64{"i": 0, "n": 0}})
	require.NoError(t, err)

	assert.Equal(t, 3, m.Visits[2], "body label")
	assert.Equal(t, 4, m.Visits[1], "condition checks")
	assert.Equal(t, int64(3), m.Vars["n"])
	assert.Equal(t, int64(3), m.Vars["i"])
}

func TestIfSkipsBody(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		init int64
		body int
		res  int64
	}{
		{init: 10, body: 1, res: 1},
		{init: 3, body: 0, res: 3},
	} {
		code, err := compile(t, New(), "int g; if (g > 5) { g = 1; }")
		require.NoError(t, err)

		m, err := tac.Run(ctx, code, tac.Options{Env: map[string]int64{"g": tc.init}})
		require.NoError(t, err)

		assert.Equal(t, tc.body, m.Visits[1], "true label, g = %d", tc.init)
		assert.Equal(t, 1, m.Visits[2], "end label, g = %d", tc.init)
		assert.Equal(t, tc.res, m.Vars["g"])
	}
}
