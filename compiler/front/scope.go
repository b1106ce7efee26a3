package front

import (
	"github.com/slowlang/tacc/compiler/ast"
)

type (
	Symbol struct {
		Name string
		Type ast.Type
		Pos  int
	}

	// SymbolTable is a stack of scope frames, innermost last.
	// A name is unique within a frame and may shadow outer frames.
	SymbolTable struct {
		scopes []map[string]Symbol
	}
)

// NewSymbolTable returns a table with the global frame entered.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		scopes: []map[string]Symbol{{}},
	}
}

func (t *SymbolTable) Enter() {
	t.scopes = append(t.scopes, map[string]Symbol{})
}

func (t *SymbolTable) Exit() {
	if len(t.scopes) == 1 {
		panic("exit global scope")
	}

	t.scopes = t.scopes[:len(t.scopes)-1]
}

// Depth is the number of active frames including the global one.
func (t *SymbolTable) Depth() int { return len(t.scopes) }

// Declare adds sym to the innermost frame.
func (t *SymbolTable) Declare(sym Symbol) error {
	top := t.scopes[len(t.scopes)-1]

	if prev, ok := top[sym.Name]; ok {
		return DuplicateDeclarationError{Name: sym.Name, Pos: sym.Pos, Prev: prev.Pos}
	}

	top[sym.Name] = sym

	return nil
}

// Lookup searches frames from innermost to outermost.
func (t *SymbolTable) Lookup(name string) (Symbol, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if sym, ok := t.scopes[i][name]; ok {
			return sym, true
		}
	}

	return Symbol{}, false
}
