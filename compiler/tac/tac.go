// Package tac defines three-address code: a linear instruction list over
// temporaries, integer literals and named variables, with explicit labels
// and jumps for control flow.
package tac

import (
	"fmt"
	"strconv"

	"tlog.app/go/tlog/tlwire"
)

type (
	AtomKind uint8

	// Atom is an instruction operand.
	Atom struct {
		Kind  AtomKind
		Name  string // temporary or variable name
		Value int64  // literal value or temporary number
	}

	Label int

	Instr interface {
		instr()
	}

	// Assign is "Dst := L [Op R]". Op is empty for a plain copy.
	// Dst is a temporary except for increment and decrement
	// which assign the variable directly.
	Assign struct {
		Dst Atom
		L   Atom
		Op  string
		R   Atom
	}

	// Store writes Src to the named variable.
	Store struct {
		Name string
		Src  Atom
	}

	BranchIf struct {
		L     Atom
		Rel   string
		R     Atom
		Label Label
	}

	Jump struct {
		Label Label
	}

	// Mark places Label at this point of the code.
	Mark struct {
		Label Label
	}

	Code []Instr

	UnsupportedInstrError struct {
		I Instr
	}
)

const (
	_ AtomKind = iota
	Temp
	Imm
	Var
)

func (Assign) instr()   {}
func (Store) instr()    {}
func (BranchIf) instr() {}
func (Jump) instr()     {}
func (Mark) instr()     {}

func TempAtom(n int) Atom {
	return Atom{Kind: Temp, Name: "t" + strconv.Itoa(n), Value: int64(n)}
}

func ImmAtom(v int64) Atom {
	return Atom{Kind: Imm, Value: v}
}

func VarAtom(name string) Atom {
	return Atom{Kind: Var, Name: name}
}

func (a Atom) IsTemp() bool { return a.Kind == Temp }
func (a Atom) IsImm() bool  { return a.Kind == Imm }
func (a Atom) IsVar() bool  { return a.Kind == Var }

func (a Atom) String() string {
	switch a.Kind {
	case Imm:
		return strconv.FormatInt(a.Value, 10)
	case Temp, Var:
		return a.Name
	default:
		return "<nil>"
	}
}

func (a Atom) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	return e.AppendString(b, a.String())
}

func (l Label) String() string {
	return "L" + strconv.Itoa(int(l))
}

func (x Assign) String() string {
	if x.Op == "" {
		return fmt.Sprintf("%v := %v", x.Dst, x.L)
	}

	return fmt.Sprintf("%v := %v %s %v", x.Dst, x.L, x.Op, x.R)
}

func (x Store) String() string {
	return fmt.Sprintf("store %s, %v", x.Name, x.Src)
}

func (x BranchIf) String() string {
	return fmt.Sprintf("if %v %s %v goto %v", x.L, x.Rel, x.R, x.Label)
}

func (x Jump) String() string {
	return fmt.Sprintf("goto %v", x.Label)
}

func (x Mark) String() string {
	return x.Label.String() + ":"
}

// AppendText appends code one instruction per line.
func (c Code) AppendText(b []byte) []byte {
	for _, x := range c {
		b = fmt.Appendf(b, "%v\n", x)
	}

	return b
}

func (c Code) String() string {
	return string(c.AppendText(nil))
}

// Lines returns the code formatted one instruction per element.
func (c Code) Lines() []string {
	l := make([]string, len(c))

	for i, x := range c {
		l[i] = fmt.Sprint(x)
	}

	return l
}

func NewUnsupportedInstr(x Instr) UnsupportedInstrError {
	return UnsupportedInstrError{I: x}
}

func (e UnsupportedInstrError) Error() string {
	return fmt.Sprintf("unsupported instruction: %T", e.I)
}
