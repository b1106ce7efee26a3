// Package x86 executes the 32-bit NASM subset produced by the backend.
// It exists to check compiled programs without an assembler and linker.
package x86

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/tacc/compiler/asm"
)

type (
	Options struct {
		// MaxSteps bounds executed instructions. Zero means DefaultMaxSteps.
		MaxSteps int

		// Entry is the label to start at. Empty means "_start".
		Entry string
	}

	Machine struct {
		Regs map[string]int32
		Mem  map[string]int32

		// operands of the last cmp
		cmpL, cmpR int32

		Steps    int
		Exited   bool
		ExitCode int32
	}

	StepLimitError struct {
		Steps int
	}

	UnsupportedInstrError struct {
		Line int
		Text string
	}

	UndefinedSymbolError struct {
		Line int
		Name string
	}

	DivideError struct {
		Line int
	}
)

const DefaultMaxSteps = 1_000_000

func Run(ctx context.Context, text []byte, opts Options) (*Machine, error) {
	u, err := asm.Parse(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	return Exec(ctx, u, opts)
}

// Exec runs u until the exit system call or the end of the text.
func Exec(ctx context.Context, u *asm.Unit, opts Options) (m *Machine, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "x86: exec", "instrs", len(u.Text))
	defer tr.Finish("err", &err)

	limit := opts.MaxSteps
	if limit == 0 {
		limit = DefaultMaxSteps
	}

	entry := opts.Entry
	if entry == "" {
		entry = "_start"
	}

	pc, ok := u.Labels[entry]
	if !ok {
		return nil, UndefinedSymbolError{Name: entry}
	}

	m = &Machine{
		Regs: make(map[string]int32),
		Mem:  make(map[string]int32, len(u.Data)),
	}

	for _, v := range u.Data {
		m.Mem[v.Name] = int32(v.Value)
	}

	for pc < len(u.Text) && !m.Exited {
		if m.Steps >= limit {
			return m, StepLimitError{Steps: m.Steps}
		}

		m.Steps++

		x := u.Text[pc]
		pc++

		if tr.If("x86") {
			tr.Printw("exec", "line", x.Line, "instr", tlog.FormatNext("%v"), x)
		}

		next, err := m.step(u, x)
		if err != nil {
			return m, errors.Wrap(err, "line %d: %v", x.Line, x)
		}

		if next >= 0 {
			pc = next
		}
	}

	tr.Printw("finished", "steps", m.Steps, "exited", m.Exited, "code", m.ExitCode)

	return m, nil
}

// step executes x and returns the jump target or -1.
func (m *Machine) step(u *asm.Unit, x asm.Instr) (next int, err error) {
	unsupported := func() (int, error) {
		return -1, UnsupportedInstrError{Line: x.Line, Text: x.String()}
	}

	switch x.Op {
	case "mov", "add", "sub", "imul", "xor", "cmp":
		if len(x.Args) != 2 || x.Args[0].Kind != asm.Reg && x.Args[0].Kind != asm.Mem {
			return unsupported()
		}

		if x.Args[0].Kind == asm.Mem && x.Args[1].Kind == asm.Mem {
			return unsupported()
		}

		d, err := m.load(x, x.Args[0])
		if err != nil {
			return -1, err
		}

		s, err := m.load(x, x.Args[1])
		if err != nil {
			return -1, err
		}

		switch x.Op {
		case "mov":
			d = s
		case "add":
			d += s
		case "sub":
			d -= s
		case "imul":
			if x.Args[0].Kind != asm.Reg {
				return unsupported()
			}

			d *= s
		case "xor":
			d ^= s
		case "cmp":
			m.cmpL, m.cmpR = d, s

			return -1, nil
		}

		return -1, m.store(x, x.Args[0], d)
	case "idiv":
		if len(x.Args) != 1 || x.Args[0].Kind == asm.Imm || x.Args[0].Kind == asm.Label {
			return unsupported()
		}

		s, err := m.load(x, x.Args[0])
		if err != nil {
			return -1, err
		}

		if s == 0 {
			return -1, DivideError{Line: x.Line}
		}

		n := int64(m.Regs["edx"])<<32 | int64(uint32(m.Regs["eax"]))

		q := n / int64(s)
		r := n % int64(s)

		if q != int64(int32(q)) {
			return -1, DivideError{Line: x.Line}
		}

		m.Regs["eax"] = int32(q)
		m.Regs["edx"] = int32(r)

		return -1, nil
	case "jmp", "jl", "jle", "jg", "jge", "je", "jne":
		if len(x.Args) != 1 || x.Args[0].Kind != asm.Label {
			return unsupported()
		}

		to, ok := u.Labels[x.Args[0].Name]
		if !ok {
			return -1, UndefinedSymbolError{Line: x.Line, Name: x.Args[0].Name}
		}

		if !m.cond(x.Op) {
			return -1, nil
		}

		return to, nil
	case "int":
		if len(x.Args) != 1 || x.Args[0].Kind != asm.Imm || x.Args[0].Imm != 0x80 || m.Regs["eax"] != 1 {
			return unsupported()
		}

		m.Exited = true
		m.ExitCode = m.Regs["ebx"]

		return -1, nil
	default:
		return unsupported()
	}
}

func (m *Machine) cond(op string) bool {
	l, r := m.cmpL, m.cmpR

	switch op {
	case "jl":
		return l < r
	case "jle":
		return l <= r
	case "jg":
		return l > r
	case "jge":
		return l >= r
	case "je":
		return l == r
	case "jne":
		return l != r
	default:
		return true
	}
}

func (m *Machine) load(x asm.Instr, op asm.Operand) (int32, error) {
	switch op.Kind {
	case asm.Reg:
		return m.Regs[op.Reg], nil
	case asm.Imm:
		return int32(op.Imm), nil
	case asm.Mem:
		v, ok := m.Mem[op.Name]
		if !ok {
			return 0, UndefinedSymbolError{Line: x.Line, Name: op.Name}
		}

		return v, nil
	default:
		return 0, UnsupportedInstrError{Line: x.Line, Text: x.String()}
	}
}

func (m *Machine) store(x asm.Instr, op asm.Operand, v int32) error {
	switch op.Kind {
	case asm.Reg:
		m.Regs[op.Reg] = v
	case asm.Mem:
		if _, ok := m.Mem[op.Name]; !ok {
			return UndefinedSymbolError{Line: x.Line, Name: op.Name}
		}

		m.Mem[op.Name] = v
	default:
		return UnsupportedInstrError{Line: x.Line, Text: x.String()}
	}

	return nil
}

// Var returns the value of a data section variable.
func (m *Machine) Var(name string) (int32, bool) {
	v, ok := m.Mem[name]
	return v, ok
}

func (e StepLimitError) Error() string {
	return fmt.Sprintf("step limit reached: %d", e.Steps)
}

func (e UnsupportedInstrError) Error() string {
	return fmt.Sprintf("unsupported instruction: %s", e.Text)
}

func (e UndefinedSymbolError) Error() string {
	return fmt.Sprintf("undefined symbol: %s", e.Name)
}

func (e DivideError) Error() string {
	return "divide error"
}
