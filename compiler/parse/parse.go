package parse

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/tacc/compiler/ast"
)

type (
	State struct {
		b []byte

		name string
	}

	// SyntaxError is reported when the text is not a program.
	SyntaxError struct {
		Name string
		Pos  int
		Line int
		Col  int

		Got  Token
		Want []string
		Msg  string
	}
)

func ParseFile(ctx context.Context, name string) (*ast.Program, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	return Parse(ctx, name, data)
}

func Parse(ctx context.Context, name string, text []byte) (*ast.Program, error) {
	s := New(name, text)

	return s.Parse(ctx)
}

func New(name string, text []byte) *State {
	return &State{
		b:    text,
		name: name,
	}
}

func (s *State) Parse(ctx context.Context) (p *ast.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "parse", "name", s.name, "size", len(s.b))
	defer tr.Finish("err", &err)

	p = &ast.Program{}

	i := 0

	for {
		tk, tst, _ := s.next(ctx, i)
		if _, ok := tk.(EOF); ok {
			p.End = tst
			break
		}

		var x ast.Stmt

		x, i, err = s.parseStatement(ctx, i)
		if err != nil {
			return nil, err
		}

		p.Stmts = append(p.Stmts, x)
	}

	if len(p.Stmts) == 0 {
		return nil, s.newError(len(s.b), EOF{}, "statement")
	}

	tr.Printw("parsed", "stmts", len(p.Stmts))

	return p, nil
}

func (s *State) Text(pos, end int) []byte {
	return s.b[pos:end]
}

// LineCol returns 1-based line and column for the byte offset.
func (s *State) LineCol(pos int) (line, col int) {
	if pos > len(s.b) {
		pos = len(s.b)
	}

	line = 1 + bytes.Count(s.b[:pos], []byte{'\n'})
	col = pos + 1

	if l := bytes.LastIndexByte(s.b[:pos], '\n'); l >= 0 {
		col = pos - l
	}

	return line, col
}

func (s *State) newError(pos int, got Token, want ...string) *SyntaxError {
	line, col := s.LineCol(pos)

	return &SyntaxError{
		Name: s.name,
		Pos:  pos,
		Line: line,
		Col:  col,
		Got:  got,
		Want: want,
	}
}

func (s *State) newErrorMsg(pos int, got Token, msg string) *SyntaxError {
	e := s.newError(pos, got)
	e.Msg = msg

	return e
}

func (e *SyntaxError) Error() string {
	var b strings.Builder

	if e.Name != "" {
		fmt.Fprintf(&b, "%s:", e.Name)
	}

	fmt.Fprintf(&b, "%d:%d: syntax error", e.Line, e.Col)

	switch {
	case e.Msg != "":
		fmt.Fprintf(&b, ": %s", e.Msg)
	case len(e.Want) != 0:
		fmt.Fprintf(&b, ": unexpected %v, want %v", describe(e.Got), joinHuman(e.Want...))
	default:
		fmt.Fprintf(&b, ": unexpected %v", describe(e.Got))
	}

	return b.String()
}

func joinHuman(l ...string) string {
	switch len(l) {
	case 0:
		return "<none>"
	case 1:
		return l[0]
	}

	var b strings.Builder

	for i, r := range l {
		if i+1 == len(l) {
			b.WriteString(" or ")
		} else if i != 0 {
			b.WriteString(", ")
		}

		b.WriteString(r)
	}

	return b.String()
}
