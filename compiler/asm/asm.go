// Package asm reads the NASM subset produced by the backend.
package asm

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	Kind uint8

	Operand struct {
		Kind Kind

		Reg   string
		Imm   int64
		Name  string // memory or label
		Dword bool
	}

	Instr struct {
		Line int
		Op   string
		Args []Operand
	}

	Var struct {
		Name  string
		Value int64
	}

	Unit struct {
		Data    []Var
		Text    []Instr
		Labels  map[string]int
		Globals []string
	}

	SyntaxError struct {
		Line int
		Text string
		Msg  string
	}
)

const (
	_ Kind = iota
	Reg
	Imm
	Mem
	Label
)

var regs = map[string]struct{}{
	"eax": {}, "ebx": {}, "ecx": {}, "edx": {},
	"esi": {}, "edi": {}, "esp": {}, "ebp": {},
}

func IsReg(s string) bool {
	_, ok := regs[s]
	return ok
}

func Parse(ctx context.Context, text []byte) (u *Unit, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "asm: parse", "size", len(text))
	defer tr.Finish("err", &err)

	u = &Unit{
		Labels: make(map[string]int),
	}

	section := ""

	for n, l := range bytes.Split(text, []byte{'\n'}) {
		line := n + 1

		s := string(l)
		if p := strings.IndexByte(s, ';'); p >= 0 {
			s = s[:p]
		}

		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}

		f := strings.Fields(s)

		switch {
		case f[0] == "section":
			if len(f) != 2 {
				return nil, newError(line, s, "section name expected")
			}

			section = f[1]

			continue
		case f[0] == "global":
			u.Globals = append(u.Globals, f[1:]...)

			continue
		case section == ".data":
			if len(f) != 3 || f[1] != "dd" {
				return nil, newError(line, s, "data definition expected")
			}

			v, err := strconv.ParseInt(f[2], 0, 32)
			if err != nil {
				return nil, newError(line, s, "bad value: %v", err)
			}

			u.Data = append(u.Data, Var{Name: f[0], Value: v})

			continue
		case section != ".text":
			return nil, newError(line, s, "outside of section")
		}

		if strings.HasSuffix(s, ":") {
			name := strings.TrimSuffix(s, ":")

			if _, ok := u.Labels[name]; ok {
				return nil, newError(line, s, "label redefined")
			}

			u.Labels[name] = len(u.Text)

			continue
		}

		x := Instr{Line: line, Op: f[0]}

		rest := strings.TrimSpace(s[len(f[0]):])

		if rest != "" {
			for _, a := range strings.Split(rest, ",") {
				op, err := parseOperand(strings.TrimSpace(a))
				if err != nil {
					return nil, newError(line, s, "%v", err)
				}

				x.Args = append(x.Args, op)
			}
		}

		u.Text = append(u.Text, x)
	}

	tr.V("asm").Printw("parsed", "vars", len(u.Data), "instrs", len(u.Text), "labels", len(u.Labels))

	return u, nil
}

func parseOperand(s string) (op Operand, err error) {
	if q, ok := strings.CutPrefix(s, "dword "); ok {
		op.Dword = true
		s = strings.TrimSpace(q)
	}

	switch {
	case s == "":
		return op, errors.New("empty operand")
	case strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"):
		op.Kind = Mem
		op.Name = strings.TrimSpace(s[1 : len(s)-1])

		return op, nil
	case op.Dword:
		return op, errors.New("size on non-memory operand: %v", s)
	case IsReg(s):
		op.Kind = Reg
		op.Reg = s

		return op, nil
	case s[0] == '-' || s[0] >= '0' && s[0] <= '9':
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return op, errors.New("bad immediate: %v", s)
		}

		op.Kind = Imm
		op.Imm = v

		return op, nil
	default:
		op.Kind = Label
		op.Name = s

		return op, nil
	}
}

func newError(line int, text, f string, args ...any) *SyntaxError {
	return &SyntaxError{
		Line: line,
		Text: text,
		Msg:  fmt.Sprintf(f, args...),
	}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
}

func (op Operand) String() string {
	switch op.Kind {
	case Reg:
		return op.Reg
	case Imm:
		return strconv.FormatInt(op.Imm, 10)
	case Mem:
		if op.Dword {
			return "dword [" + op.Name + "]"
		}

		return "[" + op.Name + "]"
	case Label:
		return op.Name
	default:
		return "?"
	}
}

func (x Instr) String() string {
	var b strings.Builder

	b.WriteString(x.Op)

	for i, a := range x.Args {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}

		b.WriteString(a.String())
	}

	return b.String()
}
