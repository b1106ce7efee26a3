package tac

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	Options struct {
		// Env seeds variable values. Unset variables read as zero.
		Env map[string]int64

		// MaxSteps bounds executed instructions. Zero means DefaultMaxSteps.
		MaxSteps int
	}

	// Machine is the state of a finished or interrupted run.
	Machine struct {
		Vars   map[string]int64
		Temps  map[string]int64
		Visits map[Label]int

		Steps int
	}

	StepLimitError struct {
		Steps int
	}

	UnboundTempError struct {
		Temp string
		PC   int
	}

	DivisionByZeroError struct {
		PC int
	}

	UndefinedLabelError struct {
		Label Label
	}
)

const DefaultMaxSteps = 1_000_000

// Run interprets code with 32-bit wrapping integer arithmetic.
func Run(ctx context.Context, code Code, opts Options) (m *Machine, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "tac: run", "instrs", len(code))
	defer tr.Finish("err", &err)

	limit := opts.MaxSteps
	if limit == 0 {
		limit = DefaultMaxSteps
	}

	m = &Machine{
		Vars:   make(map[string]int64, len(opts.Env)),
		Temps:  make(map[string]int64),
		Visits: make(map[Label]int),
	}

	for k, v := range opts.Env {
		m.Vars[k] = v
	}

	labels := make(map[Label]int)

	for pc, x := range code {
		if x, ok := x.(Mark); ok {
			labels[x.Label] = pc
		}
	}

	jump := func(l Label) (int, error) {
		pc, ok := labels[l]
		if !ok {
			return 0, UndefinedLabelError{Label: l}
		}

		return pc, nil
	}

	for pc := 0; pc < len(code); {
		if m.Steps == limit {
			return m, StepLimitError{Steps: m.Steps}
		}

		if m.Steps%4096 == 0 && ctx.Err() != nil {
			return m, ctx.Err()
		}

		m.Steps++

		x := code[pc]

		if tr.If("tac_step") {
			tr.Printw("step", "pc", pc, "instr", tlog.FormatNext("%v"), x)
		}

		switch x := x.(type) {
		case Assign:
			l, err := m.load(x.L, pc)
			if err != nil {
				return m, err
			}

			if x.Op != "" {
				r, err := m.load(x.R, pc)
				if err != nil {
					return m, err
				}

				l, err = arith(x.Op, l, r, pc)
				if err != nil {
					return m, err
				}
			}

			if x.Dst.IsVar() {
				m.Vars[x.Dst.Name] = l
			} else {
				m.Temps[x.Dst.Name] = l
			}
		case Store:
			v, err := m.load(x.Src, pc)
			if err != nil {
				return m, err
			}

			m.Vars[x.Name] = v
		case BranchIf:
			l, err := m.load(x.L, pc)
			if err != nil {
				return m, err
			}

			r, err := m.load(x.R, pc)
			if err != nil {
				return m, err
			}

			if Compare(x.Rel, l, r) {
				pc, err = jump(x.Label)
				if err != nil {
					return m, err
				}

				continue
			}
		case Jump:
			pc, err = jump(x.Label)
			if err != nil {
				return m, err
			}

			continue
		case Mark:
			m.Visits[x.Label]++
		default:
			return m, NewUnsupportedInstr(x)
		}

		pc++
	}

	return m, nil
}

func (m *Machine) load(a Atom, pc int) (int64, error) {
	switch a.Kind {
	case Imm:
		return a.Value, nil
	case Var:
		return m.Vars[a.Name], nil
	case Temp:
		v, ok := m.Temps[a.Name]
		if !ok {
			return 0, UnboundTempError{Temp: a.Name, PC: pc}
		}

		return v, nil
	default:
		return 0, errors.New("bad atom at %d: %v", pc, a)
	}
}

func arith(op string, l, r int64, pc int) (int64, error) {
	a, b := int32(l), int32(r)

	switch op {
	case "+":
		return int64(a + b), nil
	case "-":
		return int64(a - b), nil
	case "*":
		return int64(a * b), nil
	case "/", "%":
		if b == 0 {
			return 0, DivisionByZeroError{PC: pc}
		}

		if op == "/" {
			return int64(a / b), nil
		}

		return int64(a % b), nil
	default:
		return 0, errors.New("unsupported operator at %d: %q", pc, op)
	}
}

// Compare evaluates a relational operator.
// Unknown operators hold, the same as the unconditional jump fallback of the backend.
func Compare(rel string, l, r int64) bool {
	switch rel {
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	case ">=":
		return l >= r
	case "==":
		return l == r
	case "!=":
		return l != r
	default:
		return true
	}
}

func (e StepLimitError) Error() string {
	return fmt.Sprintf("step limit reached: %d", e.Steps)
}

func (e UnboundTempError) Error() string {
	return fmt.Sprintf("temporary %s read before written at %d", e.Temp, e.PC)
}

func (e DivisionByZeroError) Error() string {
	return fmt.Sprintf("division by zero at %d", e.PC)
}

func (e UndefinedLabelError) Error() string {
	return fmt.Sprintf("undefined label: %v", e.Label)
}
