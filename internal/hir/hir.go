// Package hir defines the typed high-level intermediate representation and
// the lowering pass that builds it from a parse tree. Nodes
// start with Uninitialized types; the checker (internal/check) rewrites
// them in place.
package hir

import (
	"github.com/fenlang/fen/internal/diag"
	"github.com/fenlang/fen/internal/types"
)

type exprBase struct {
	span diag.Span
	ty   *types.Ty
}

func (b *exprBase) Span() diag.Span    { return b.span }
func (b *exprBase) Type() *types.Ty    { return b.ty }
func (b *exprBase) SetType(t *types.Ty) { b.ty = t }

// Expr is implemented by every HIR expression variant.
type Expr interface {
	Span() diag.Span
	Type() *types.Ty
	SetType(*types.Ty)
	exprNode()
}

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

type UnaryOperator int

const (
	OpNeg UnaryOperator = iota
	OpNot
)

type AssignExpr struct {
	exprBase
	Target Expr
	Value  Expr
}

func (*AssignExpr) exprNode() {}

type BinaryOpExpr struct {
	exprBase
	Op    BinaryOperator
	Left  Expr
	Right Expr
}

func (*BinaryOpExpr) exprNode() {}

type UnaryExpr struct {
	exprBase
	Op      UnaryOperator
	Operand Expr
}

func (*UnaryExpr) exprNode() {}

// CallExpr's MonomorphizedName is filled by the checker when Callee resolves
// to a monomorphized generic extern, recording the cache key used so codegen
// emits the ExternCall under the specialized name instead of the generic one.
type CallExpr struct {
	exprBase
	Callee            Expr
	Args              []Expr
	MonomorphizedName string
}

func (*CallExpr) exprNode() {}

type IdentExpr struct {
	exprBase
	Name string
}

func (*IdentExpr) exprNode() {}

type SelfExpr struct{ exprBase }

func (*SelfExpr) exprNode() {}

type FieldAccessExpr struct {
	exprBase
	Target Expr
	Name   string
}

func (*FieldAccessExpr) exprNode() {}

type StaticAccessExpr struct {
	exprBase
	ClassName string
	Name      string
}

func (*StaticAccessExpr) exprNode() {}

type IndexingExpr struct {
	exprBase
	Target Expr
	Index  Expr
}

func (*IndexingExpr) exprNode() {}

type NewObjExpr struct {
	exprBase
	ClassName string
	Args      []Expr
}

func (*NewObjExpr) exprNode() {}

type NewArrayExpr struct {
	exprBase
	ElemType *types.Ty
	Size     Expr
}

func (*NewArrayExpr) exprNode() {}

type DeleteExpr struct {
	exprBase
	Target Expr
}

func (*DeleteExpr) exprNode() {}

type CastExpr struct {
	exprBase
	Target Expr
	To     *types.Ty
}

func (*CastExpr) exprNode() {}

type ListLiteralExpr struct {
	exprBase
	Elements []Expr
}

func (*ListLiteralExpr) exprNode() {}

type IntLiteral struct {
	exprBase
	Value int64
}

func (*IntLiteral) exprNode() {}

type UIntLiteral struct {
	exprBase
	Value uint64
}

func (*UIntLiteral) exprNode() {}

type FloatLiteral struct {
	exprBase
	Value float64
}

func (*FloatLiteral) exprNode() {}

type BoolLiteral struct {
	exprBase
	Value bool
}

func (*BoolLiteral) exprNode() {}

type CharLiteral struct {
	exprBase
	Value rune
}

func (*CharLiteral) exprNode() {}

type UnitLiteral struct{ exprBase }

func (*UnitLiteral) exprNode() {}

type StringLiteral struct {
	exprBase
	Value string
}

func (*StringLiteral) exprNode() {}

type NoneLiteral struct{ exprBase }

func (*NoneLiteral) exprNode() {}

// Stmt is implemented by every HIR statement variant.
type Stmt interface {
	Span() diag.Span
	stmtNode()
}

type stmtBase struct{ span diag.Span }

func (b stmtBase) Span() diag.Span { return b.span }

type ReturnStmt struct {
	stmtBase
	Value Expr
}

func (*ReturnStmt) stmtNode() {}

type LetStmt struct {
	stmtBase
	Name        string
	NameSpan    diag.Span
	Declared    *types.Ty // nil if inferred
	Initializer Expr
}

func (*LetStmt) stmtNode() {}

type ConstStmt struct {
	stmtBase
	Name        string
	NameSpan    diag.Span
	Declared    *types.Ty
	Initializer Expr
}

func (*ConstStmt) stmtNode() {}

type IfElseStmt struct {
	stmtBase
	Condition Expr
	Then      *BlockStmt
	Else      *BlockStmt
}

func (*IfElseStmt) stmtNode() {}

type WhileStmt struct {
	stmtBase
	Condition Expr
	Body      *BlockStmt
}

func (*WhileStmt) stmtNode() {}

type BreakStmt struct{ stmtBase }

func (*BreakStmt) stmtNode() {}

type ContinueStmt struct{ stmtBase }

func (*ContinueStmt) stmtNode() {}

type BlockStmt struct {
	stmtBase
	Statements []Stmt
}

func (*BlockStmt) stmtNode() {}

type ExprStmt struct {
	stmtBase
	Value Expr
}

func (*ExprStmt) stmtNode() {}
