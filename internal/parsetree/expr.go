package parsetree

import "github.com/fenlang/fen/internal/diag"

// Expression is implemented by every expression-position parse-tree node.
type Expression interface {
	Node
	exprNode()
}

// BinaryOperator enumerates the fixed binary-operator set.
type BinaryOperator int

const (
	OpAdd BinaryOperator = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAnd
	OpOr
)

// UnaryOperator enumerates the fixed unary-operator set.
type UnaryOperator int

const (
	OpNeg UnaryOperator = iota
	OpNot
)

type base struct{ NodeSpan diag.Span }

func (b base) Span() diag.Span { return b.NodeSpan }

// AssignExpr is "target = value".
type AssignExpr struct {
	base
	Target Expression
	Value  Expression
}

func (*AssignExpr) exprNode() {}

// BinaryOpExpr is "left op right".
type BinaryOpExpr struct {
	base
	Op    BinaryOperator
	Left  Expression
	Right Expression
}

func (*BinaryOpExpr) exprNode() {}

// UnaryExpr is "op operand".
type UnaryExpr struct {
	base
	Op      UnaryOperator
	Operand Expression
}

func (*UnaryExpr) exprNode() {}

// CallExpr is "callee(args...)"; Callee is an Ident, FieldAccess, or
// StaticAccess expression.
type CallExpr struct {
	base
	Callee Expression
	Args   []Expression
}

func (*CallExpr) exprNode() {}

// IdentExpr references a name visible in the current scope.
type IdentExpr struct {
	base
	Name string
}

func (*IdentExpr) exprNode() {}

// SelfExpr is the implicit receiver inside an Instance method.
type SelfExpr struct{ base }

func (*SelfExpr) exprNode() {}

// FieldAccessExpr is "target.Name".
type FieldAccessExpr struct {
	base
	Target Expression
	Name   string
}

func (*FieldAccessExpr) exprNode() {}

// StaticAccessExpr is "ClassName::Name".
type StaticAccessExpr struct {
	base
	ClassName string
	Name      string
}

func (*StaticAccessExpr) exprNode() {}

// IndexingExpr is "target[index]".
type IndexingExpr struct {
	base
	Target Expression
	Index  Expression
}

func (*IndexingExpr) exprNode() {}

// NewObjExpr is "new ClassName(args...)", optionally with explicit generic
// type arguments ("new ClassName<T>(args...)").
type NewObjExpr struct {
	base
	ClassName string
	TypeArgs  []TypeExpr
	Args      []Expression
}

func (*NewObjExpr) exprNode() {}

// NewArrayExpr is "new [ElemType](size)".
type NewArrayExpr struct {
	base
	ElemType TypeExpr
	Size     Expression
}

func (*NewArrayExpr) exprNode() {}

// DeleteExpr is "delete target".
type DeleteExpr struct {
	base
	Target Expression
}

func (*DeleteExpr) exprNode() {}

// CastExpr is "target as TypeExpr".
type CastExpr struct {
	base
	Target Expression
	To     TypeExpr
}

func (*CastExpr) exprNode() {}

// ListLiteralExpr is "[e1, e2, ...]".
type ListLiteralExpr struct {
	base
	Elements []Expression
}

func (*ListLiteralExpr) exprNode() {}

// IntLiteral is a signed integer literal.
type IntLiteral struct {
	base
	Value int64
}

func (*IntLiteral) exprNode() {}

// UIntLiteral is an unsigned integer literal.
type UIntLiteral struct {
	base
	Value uint64
}

func (*UIntLiteral) exprNode() {}

// FloatLiteral is a floating-point literal.
type FloatLiteral struct {
	base
	Value float64
}

func (*FloatLiteral) exprNode() {}

// BoolLiteral is a boolean literal.
type BoolLiteral struct {
	base
	Value bool
}

func (*BoolLiteral) exprNode() {}

// CharLiteral is a single-character literal.
type CharLiteral struct {
	base
	Value rune
}

func (*CharLiteral) exprNode() {}

// UnitLiteral is the sole value of the Unit type, written "()".
type UnitLiteral struct{ base }

func (*UnitLiteral) exprNode() {}

// StringLiteral is a string literal.
type StringLiteral struct {
	base
	Value string
}

func (*StringLiteral) exprNode() {}

// NoneLiteral is the nullable "none" literal.
type NoneLiteral struct{ base }

func (*NoneLiteral) exprNode() {}
