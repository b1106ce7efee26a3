package tac

import (
	"fmt"

	"github.com/slowlang/tacc/compiler/set"
)

type (
	DuplicateLabelError struct {
		Label Label
		PC    int
	}

	// TempReuseError reports a temporary assigned or read more than once.
	TempReuseError struct {
		Temp string
		PC   int
		Read bool
	}
)

// Check verifies code is well formed as produced by lowering:
// every label is marked exactly once and every jump target exists,
// every temporary is assigned once and read once, after the assignment.
func Check(code Code) error {
	labels := set.MakeBits[Label](1)
	def := set.MakeBits[int64](1)
	used := set.MakeBits[int64](1)

	for pc, x := range code {
		if x, ok := x.(Mark); ok && labels.Set(x.Label) {
			return DuplicateLabelError{Label: x.Label, PC: pc}
		}
	}

	read := func(a Atom, pc int) error {
		if !a.IsTemp() {
			return nil
		}

		if !def.IsSet(a.Value) {
			return UnboundTempError{Temp: a.Name, PC: pc}
		}

		if used.Set(a.Value) {
			return TempReuseError{Temp: a.Name, PC: pc, Read: true}
		}

		return nil
	}

	target := func(l Label) error {
		if !labels.IsSet(l) {
			return UndefinedLabelError{Label: l}
		}

		return nil
	}

	for pc, x := range code {
		var err error

		switch x := x.(type) {
		case Assign:
			err = read(x.L, pc)

			if err == nil && x.Op != "" {
				err = read(x.R, pc)
			}

			if err == nil && x.Dst.IsTemp() && def.Set(x.Dst.Value) {
				err = TempReuseError{Temp: x.Dst.Name, PC: pc}
			}
		case Store:
			err = read(x.Src, pc)
		case BranchIf:
			err = read(x.L, pc)

			if err == nil {
				err = read(x.R, pc)
			}

			if err == nil {
				err = target(x.Label)
			}
		case Jump:
			err = target(x.Label)
		case Mark:
		default:
			err = NewUnsupportedInstr(x)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func (e DuplicateLabelError) Error() string {
	return fmt.Sprintf("label %v marked twice, again at %d", e.Label, e.PC)
}

func (e TempReuseError) Error() string {
	if e.Read {
		return fmt.Sprintf("temporary %s read twice, again at %d", e.Temp, e.PC)
	}

	return fmt.Sprintf("temporary %s assigned twice, again at %d", e.Temp, e.PC)
}
