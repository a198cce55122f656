package parsetree

import "github.com/fenlang/fen/internal/diag"

// Item is implemented by every top-level declaration.
type Item interface {
	Node
	itemNode()
}

// Param is a single function parameter.
type Param struct {
	Name     string
	NameSpan diag.Span
	Type     TypeExpr
}

// FuncDecl is a free function or an extern function declaration.
type FuncDecl struct {
	base
	Name       string
	NameSpan   diag.Span
	Generics   []string // nil for non-generic functions
	Params     []Param
	Return     TypeExpr
	Body       *BlockStmt // nil when IsExternal is true
	IsExternal bool
	Visibility Visibility
}

func (*FuncDecl) itemNode() {}

// Field is a class or struct field.
type Field struct {
	Name       string
	NameSpan   diag.Span
	Type       TypeExpr
	Visibility Visibility
}

// Method is a class method: a FuncDecl with an access modifier.
type Method struct {
	FuncDecl
	Modifier MethodModifier
}

// OperatorOverload records a parsed operator-overload declaration.
// Lowering explicitly rejects these — this node
// exists purely so the parse tree can represent what was written, and
// lowering's rejection has a concrete span and operator name to point at.
type OperatorOverload struct {
	base
	Operator string
	Func     FuncDecl
}

func (*OperatorOverload) itemNode() {}

// ClassDecl is a class declaration. A struct declaration produces the same
// node with IsStruct set and is parsed exactly like a class.
type ClassDecl struct {
	base
	Name        string
	NameSpan    diag.Span
	Generics    []string
	Fields      []Field
	Methods     []Method
	Constants   []ConstStmt
	Constructor *FuncDecl // nil if absent
	Destructor  *FuncDecl // nil if absent
	Operators   []OperatorOverload
	IsStruct    bool
}

func (*ClassDecl) itemNode() {}

// ImportDecl is "import \"path\";".
type ImportDecl struct {
	base
	Path string
}

func (*ImportDecl) itemNode() {}

// EnumMember is a single "Name" or "Name = value" entry in an EnumDecl.
type EnumMember struct {
	Name     string
	NameSpan diag.Span
	Value    *int64 // nil when the value is implicit (previous + 1)
}

// EnumDecl is "enum Name { Member, Member = N, ... }" — a supplemental
// construct over core (see SPEC_FULL.md §4.2).
type EnumDecl struct {
	base
	Name     string
	NameSpan diag.Span
	Members  []EnumMember
}

func (*EnumDecl) itemNode() {}
