// Package back translates three-address code into 32-bit x86 NASM text.
package back

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/tacc/compiler/tac"
)

type (
	Options struct {
		// Registers is the allocation pool. Empty means DefaultRegisters.
		Registers []Reg

		// Observe receives every allocator decision.
		Observe func(Event)
	}

	Compiler struct {
		opts Options
	}

	// Program is the translated unit.
	Program struct {
		// Data lists variables in first reference order.
		Data []string

		// Text is the translated instruction stream, labels included.
		Text []string
	}

	// state lives for one Compile call.
	state struct {
		regs *Regs

		data []string
		vars map[string]struct{}

		text []string
	}
)

// Fixed registers used independently of the allocation pool.
// They overlap the pool, which can clobber a live temporary.
const (
	Dividend   = EAX
	Remainder  = EDX
	DivScratch = EBX
	Scratch    = EAX
)

var jumps = map[string]string{
	"<":  "jl",
	"<=": "jle",
	">":  "jg",
	">=": "jge",
	"==": "je",
	"!=": "jne",
}

var ops = map[string]string{
	"+": "add",
	"-": "sub",
	"*": "imul",
}

func New(opts Options) *Compiler {
	return &Compiler{opts: opts}
}

// Compile translates code. Allocator state and the data section are fresh per call.
func (c *Compiler) Compile(ctx context.Context, code tac.Code) (p *Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "back: compile", "instrs", len(code))
	defer tr.Finish("err", &err)

	observe := c.opts.Observe

	if tr.If("regalloc") {
		observe = func(ev Event) {
			tr.Printw("regalloc", "event", ev)

			if c.opts.Observe != nil {
				c.opts.Observe(ev)
			}
		}
	}

	s := &state{
		regs: NewRegs(c.opts.Registers, observe),
		vars: make(map[string]struct{}),
	}

	for pc, x := range code {
		st := len(s.text)

		err = s.compileInstr(x)
		if err != nil {
			return nil, errors.Wrap(err, "instr %d: %v", pc, x)
		}

		if tr.If("asm") {
			tr.Printw("translated", "pc", pc, "tac", tlog.FormatNext("%v"), x, "asm", s.text[st:])
		}
	}

	tr.Printw("program", "vars", len(s.data), "lines", len(s.text))

	return &Program{
		Data: s.data,
		Text: s.text,
	}, nil
}

func (s *state) compileInstr(x tac.Instr) error {
	switch x := x.(type) {
	case tac.Assign:
		switch x.Op {
		case "":
			s.compileCopy(x)
		case "+", "-", "*":
			s.compileArith(x)
		case "/", "%":
			s.compileDiv(x)
		default:
			return errors.New("unsupported operator: %q", x.Op)
		}
	case tac.Store:
		s.compileStore(x)
	case tac.BranchIf:
		s.compileBranch(x)
	case tac.Jump:
		s.ins("jmp %v", x.Label)
	case tac.Mark:
		s.text = append(s.text, x.String())
	default:
		return tac.NewUnsupportedInstr(x)
	}

	return nil
}

func (s *state) compileCopy(x tac.Assign) {
	dst := s.regs.Get(x.Dst)

	src := x.L

	switch src.Kind {
	case tac.Temp:
		r := s.regs.Get(src)
		s.ins("mov %v, %v", dst, r)
		s.regs.Free(src)
	case tac.Imm:
		s.ins("mov %v, %d", dst, src.Value)
	case tac.Var:
		s.addVar(src.Name)
		s.ins("mov %v, [%s]", dst, src.Name)
	}

	s.writeBack(x.Dst, dst)
}

func (s *state) compileArith(x tac.Assign) {
	op := ops[x.Op]

	var dst Reg

	l := x.L

	if l.IsTemp() {
		dst = s.regs.Get(l)
	} else {
		dst = s.regs.Get(x.Dst)

		if l.IsImm() {
			s.ins("mov %v, %d", dst, l.Value)
		} else {
			s.addVar(l.Name)
			s.ins("mov %v, [%s]", dst, l.Name)
		}
	}

	r := x.R

	switch r.Kind {
	case tac.Temp:
		rr := s.regs.Get(r)
		s.ins("%s %v, %v", op, dst, rr)
		s.regs.Free(r)
	case tac.Imm:
		s.ins("%s %v, %d", op, dst, r.Value)
	case tac.Var:
		s.addVar(r.Name)
		s.ins("%s %v, [%s]", op, dst, r.Name)
	}

	if l.IsTemp() && l != x.Dst {
		s.regs.unbind(l)
	}

	s.regs.bind(x.Dst, dst)

	s.writeBack(x.Dst, dst)
}

func (s *state) compileDiv(x tac.Assign) {
	l := x.L

	switch l.Kind {
	case tac.Temp:
		lr := s.regs.Get(l)
		s.ins("mov %v, %v", Dividend, lr)
		s.regs.Free(l)
	case tac.Imm:
		s.ins("mov %v, %d", Dividend, l.Value)
	case tac.Var:
		s.addVar(l.Name)
		s.ins("mov %v, [%s]", Dividend, l.Name)
	}

	s.ins("xor %v, %v", Remainder, Remainder)

	r := x.R

	switch r.Kind {
	case tac.Temp:
		rr := s.regs.Get(r)
		s.ins("idiv %v", rr)
		s.regs.Free(r)
	case tac.Imm:
		s.ins("mov %v, %d", DivScratch, r.Value)
		s.ins("idiv %v", DivScratch)
	case tac.Var:
		s.addVar(r.Name)
		s.ins("idiv dword [%s]", r.Name)
	}

	res := Dividend
	if x.Op == "%" {
		res = Remainder
	}

	dst := s.regs.Get(x.Dst)
	if dst != res {
		s.ins("mov %v, %v", dst, res)
	}

	s.writeBack(x.Dst, dst)
}

func (s *state) compileStore(x tac.Store) {
	s.addVar(x.Name)

	src := x.Src

	switch src.Kind {
	case tac.Temp:
		r := s.regs.Get(src)
		s.ins("mov [%s], %v", x.Name, r)
		s.regs.Free(src)
	case tac.Imm:
		s.ins("mov dword [%s], %d", x.Name, src.Value)
	case tac.Var:
		s.ins("mov %v, [%s]", Scratch, src.Name)
		s.ins("mov [%s], %v", x.Name, Scratch)
		s.addVar(src.Name)
	}
}

func (s *state) compileBranch(x tac.BranchIf) {
	var lr Reg

	l := x.L

	switch l.Kind {
	case tac.Temp:
		lr = s.regs.Get(l)
	case tac.Imm:
		lr = Scratch
		s.ins("mov %v, %d", lr, l.Value)
	case tac.Var:
		lr = Scratch
		s.ins("mov %v, [%s]", lr, l.Name)
		s.addVar(l.Name)
	}

	r := x.R

	switch r.Kind {
	case tac.Temp:
		rr := s.regs.Get(r)
		s.ins("cmp %v, %v", lr, rr)
	case tac.Imm:
		s.ins("cmp %v, %d", lr, r.Value)
	case tac.Var:
		s.ins("cmp %v, [%s]", lr, r.Name)
		s.addVar(r.Name)
	}

	if l.IsTemp() {
		s.regs.Free(l)
	}

	if r.IsTemp() {
		s.regs.Free(r)
	}

	j, ok := jumps[x.Rel]
	if !ok {
		j = "jmp"
	}

	s.ins("%s %v", j, x.Label)
}

// writeBack stores a variable destination to memory.
// Only increment and decrement produce one.
func (s *state) writeBack(dst tac.Atom, r Reg) {
	if !dst.IsVar() {
		return
	}

	s.addVar(dst.Name)
	s.ins("mov [%s], %v", dst.Name, r)
	s.regs.Free(dst)
}

func (s *state) addVar(name string) {
	if _, ok := s.vars[name]; ok {
		return
	}

	s.vars[name] = struct{}{}
	s.data = append(s.data, name)
}

func (s *state) ins(format string, args ...any) {
	s.text = append(s.text, "    "+fmt.Sprintf(format, args...))
}

// Append writes the program as NASM source: data section, text section
// with the entry point, the instruction stream and the exit sequence.
func (p *Program) Append(b []byte) []byte {
	b = append(b, "section .data\n"...)

	for _, v := range p.Data {
		b = fmt.Appendf(b, "%s dd 0\n", v)
	}

	b = append(b, `
section .text
    global _start

_start:
`...)

	for _, l := range p.Text {
		b = append(b, l...)
		b = append(b, '\n')
	}

	b = append(b, `
    ; Exit program
    mov eax, 1
    xor ebx, ebx
    int 0x80
`...)

	return b
}

func (p *Program) String() string {
	return string(p.Append(nil))
}

// Instructions returns Text without indentation and labels.
func (p *Program) Instructions() []string {
	l := make([]string, 0, len(p.Text))

	for _, x := range p.Text {
		if len(x) > 4 && x[:4] == "    " {
			l = append(l, x[4:])
		}
	}

	return l
}

func (p *Program) HasVar(name string) bool {
	for _, v := range p.Data {
		if v == name {
			return true
		}
	}

	return false
}

func (ev Event) String() string {
	if ev.Kind == Evict {
		return fmt.Sprintf("%v %v %v -> %v", ev.Kind, ev.Reg, ev.Evicted, ev.Atom)
	}

	return fmt.Sprintf("%v %v %v", ev.Kind, ev.Reg, ev.Atom)
}
