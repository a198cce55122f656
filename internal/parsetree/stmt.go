package parsetree

import "github.com/fenlang/fen/internal/diag"

// Statement is implemented by every statement-position parse-tree node
//.
type Statement interface {
	Node
	stmtNode()
}

// ReturnStmt is "return expr?;".
type ReturnStmt struct {
	base
	Value Expression // nil for a bare "return;"
}

func (*ReturnStmt) stmtNode() {}

// LetStmt declares a mutable binding, with an optional type annotation and
// a required initializer.
type LetStmt struct {
	base
	Name        string
	NameSpan    diag.Span
	Type        TypeExpr // nil if omitted
	Initializer Expression
}

func (*LetStmt) stmtNode() {}

// ConstStmt declares an immutable binding; it always carries an initializer.
type ConstStmt struct {
	base
	Name        string
	NameSpan    diag.Span
	Type        TypeExpr
	Initializer Expression
}

func (*ConstStmt) stmtNode() {}

// IfElseStmt is "if cond { then } else { alt }?".
type IfElseStmt struct {
	base
	Condition Expression
	Then      *BlockStmt
	Else      *BlockStmt // nil if there is no else branch
}

func (*IfElseStmt) stmtNode() {}

// WhileStmt is "while cond { body }".
type WhileStmt struct {
	base
	Condition Expression
	Body      *BlockStmt
}

func (*WhileStmt) stmtNode() {}

// BreakStmt is "break;".
type BreakStmt struct{ base }

func (*BreakStmt) stmtNode() {}

// ContinueStmt is "continue;".
type ContinueStmt struct{ base }

func (*ContinueStmt) stmtNode() {}

// BlockStmt is a "{ ... }" sequence of statements introducing a new scope.
type BlockStmt struct {
	base
	Statements []Statement
}

func (*BlockStmt) stmtNode() {}

// ExprStmt is an expression evaluated for effect.
type ExprStmt struct {
	base
	Value Expression
}

func (*ExprStmt) stmtNode() {}
