package tac

// Emitter is the instruction buffer of one compilation
// together with temporary and label generators.
type Emitter struct {
	code Code

	temps  int
	labels int
}

func NewEmitter() *Emitter {
	return &Emitter{}
}

// Reset drops emitted code and restarts numbering from 1.
func (e *Emitter) Reset() {
	e.code = nil
	e.temps = 0
	e.labels = 0
}

func (e *Emitter) NewTemp() Atom {
	e.temps++

	return TempAtom(e.temps)
}

func (e *Emitter) NewLabel() Label {
	e.labels++

	return Label(e.labels)
}

func (e *Emitter) Emit(x Instr) {
	e.code = append(e.code, x)
}

func (e *Emitter) Code() Code {
	return e.code
}

func (e *Emitter) Len() int { return len(e.code) }
