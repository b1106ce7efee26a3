package back

import (
	"sort"

	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/tacc/compiler/tac"
)

type (
	Reg string

	// Regs binds temporaries and variables to a fixed register pool.
	//
	// When the pool is exhausted the register under the eviction cursor
	// is taken from whoever holds it. Nothing checks whether the holder
	// is still needed, so a live temporary can be clobbered. The policy
	// is kept as is because output depends on it.
	Regs struct {
		order []Reg
		free  []Reg
		bound map[tac.Atom]Reg

		spill int

		observe func(Event)
	}

	EventKind uint8

	// Event is one allocator decision.
	Event struct {
		Kind    EventKind
		Reg     Reg
		Atom    tac.Atom
		Evicted tac.Atom // only for Evict
	}
)

const (
	EAX Reg = "eax"
	EBX Reg = "ebx"
	ECX Reg = "ecx"
	EDX Reg = "edx"
	ESI Reg = "esi"
	EDI Reg = "edi"
)

const (
	_ EventKind = iota
	Alloc
	Reuse
	Evict
	Free
)

// DefaultRegisters is the general purpose pool in allocation order.
var DefaultRegisters = []Reg{EAX, EBX, ECX, EDX, ESI, EDI}

func NewRegs(order []Reg, observe func(Event)) *Regs {
	if len(order) == 0 {
		order = DefaultRegisters
	}

	return &Regs{
		order:   append([]Reg{}, order...),
		free:    append([]Reg{}, order...),
		bound:   make(map[tac.Atom]Reg),
		observe: observe,
	}
}

// Get returns the register bound to a, binding one if needed.
func (r *Regs) Get(a tac.Atom) Reg {
	if reg, ok := r.bound[a]; ok {
		return reg
	}

	if len(r.free) != 0 {
		reg := r.free[0]
		r.free = r.free[1:]

		r.bound[a] = reg
		r.event(Event{Kind: Alloc, Reg: reg, Atom: a})

		return reg
	}

	reg := r.order[r.spill]
	r.spill = (r.spill + 1) % len(r.order)

	var holders []tac.Atom

	for x, xr := range r.bound {
		if xr == reg {
			holders = append(holders, x)
		}
	}

	sort.Slice(holders, func(i, j int) bool { return holders[i].Name < holders[j].Name })

	for _, x := range holders {
		delete(r.bound, x)
		r.event(Event{Kind: Evict, Reg: reg, Atom: a, Evicted: x})
	}

	r.bound[a] = reg
	r.event(Event{Kind: Reuse, Reg: reg, Atom: a})

	return reg
}

// Free releases the register of a to the back of the free list.
func (r *Regs) Free(a tac.Atom) {
	reg, ok := r.bound[a]
	if !ok {
		return
	}

	delete(r.bound, a)

	if !r.isFree(reg) {
		r.free = append(r.free, reg)
	}

	r.event(Event{Kind: Free, Reg: reg, Atom: a})
}

func (r *Regs) Lookup(a tac.Atom) (Reg, bool) {
	reg, ok := r.bound[a]
	return reg, ok
}

// FreeList returns a copy of the free list, front first.
func (r *Regs) FreeList() []Reg {
	return append([]Reg{}, r.free...)
}

// Cursor is the index of the next register to evict in the original order.
func (r *Regs) Cursor() int { return r.spill }

// bind points a at reg without touching the free list.
func (r *Regs) bind(a tac.Atom, reg Reg) {
	r.bound[a] = reg
}

// unbind forgets a without returning its register to the free list.
func (r *Regs) unbind(a tac.Atom) {
	delete(r.bound, a)
}

func (r *Regs) isFree(reg Reg) bool {
	for _, x := range r.free {
		if x == reg {
			return true
		}
	}

	return false
}

func (r *Regs) event(ev Event) {
	if r.observe != nil {
		r.observe(ev)
	}
}

func (k EventKind) String() string {
	switch k {
	case Alloc:
		return "alloc"
	case Reuse:
		return "reuse"
	case Evict:
		return "evict"
	case Free:
		return "free"
	default:
		return "unknown"
	}
}

func (ev Event) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	n := 3
	if ev.Kind == Evict {
		n++
	}

	b = e.AppendMap(b, n)

	b = e.AppendString(b, "kind")
	b = e.AppendString(b, ev.Kind.String())
	b = e.AppendString(b, "reg")
	b = e.AppendString(b, string(ev.Reg))
	b = e.AppendString(b, "atom")
	b = e.AppendString(b, ev.Atom.String())

	if ev.Kind == Evict {
		b = e.AppendString(b, "evicted")
		b = e.AppendString(b, ev.Evicted.String())
	}

	return b
}
