package ast

import "fmt"

type (
	Node interface {
		node()
		Position() int
	}

	Stmt interface {
		Node
		stmt()
	}

	Expr interface {
		Node
		expr()
	}

	Base struct {
		Pos int
		End int
	}

	// Type is a primitive type keyword.
	Type string

	Program struct {
		Base `tlog:",embed"`

		Stmts []Stmt
	}

	Decl struct {
		Base `tlog:",embed"`

		Type Type
		Name string
	}

	DeclAssign struct {
		Base `tlog:",embed"`

		Type  Type
		Name  string
		Value Expr
	}

	Assign struct {
		Base `tlog:",embed"`

		Name  string
		Value Expr
	}

	Incr struct {
		Base `tlog:",embed"`

		Name string
	}

	Decr struct {
		Base `tlog:",embed"`

		Name string
	}

	If struct {
		Base `tlog:",embed"`

		Cond *Cond
		Then Stmt
	}

	IfElse struct {
		Base `tlog:",embed"`

		Cond *Cond
		Then Stmt
		Else Stmt
	}

	// For is a C style loop. Init is nil if omitted.
	For struct {
		Base `tlog:",embed"`

		Init Stmt
		Cond *Cond
		Step Stmt
		Body Stmt
	}

	Block struct {
		Base `tlog:",embed"`

		Stmts []Stmt
	}

	BinOp struct {
		Base `tlog:",embed"`

		Op    string
		Left  Expr
		Right Expr
	}

	UMinus struct {
		Base `tlog:",embed"`

		X Expr
	}

	Ident struct {
		Base `tlog:",embed"`

		Name string
	}

	Const struct {
		Base `tlog:",embed"`

		Value int64
	}

	Cond struct {
		Base `tlog:",embed"`

		Op    string
		Left  Expr
		Right Expr
	}

	UnsupportedNodeError struct {
		T Node
	}
)

const (
	Int    Type = "int"
	Float  Type = "float"
	Char   Type = "char"
	Double Type = "double"
	Void   Type = "void"
)

func (*Program) node()    {}
func (*Decl) node()       {}
func (*DeclAssign) node() {}
func (*Assign) node()     {}
func (*Incr) node()       {}
func (*Decr) node()       {}
func (*If) node()         {}
func (*IfElse) node()     {}
func (*For) node()        {}
func (*Block) node()      {}
func (*BinOp) node()      {}
func (*UMinus) node()     {}
func (*Ident) node()      {}
func (*Const) node()      {}
func (*Cond) node()       {}

func (*Decl) stmt()       {}
func (*DeclAssign) stmt() {}
func (*Assign) stmt()     {}
func (*Incr) stmt()       {}
func (*Decr) stmt()       {}
func (*If) stmt()         {}
func (*IfElse) stmt()     {}
func (*For) stmt()        {}
func (*Block) stmt()      {}

func (*BinOp) expr()  {}
func (*UMinus) expr() {}
func (*Ident) expr()  {}
func (*Const) expr()  {}

func (b Base) Position() int { return b.Pos }

func IsType(s string) bool {
	switch Type(s) {
	case Int, Float, Char, Double, Void:
		return true
	}

	return false
}

func NewUnsupportedNode(x Node) UnsupportedNodeError {
	return UnsupportedNodeError{T: x}
}

func (e UnsupportedNodeError) Error() string {
	return fmt.Sprintf("unsupported node: %T", e.T)
}
