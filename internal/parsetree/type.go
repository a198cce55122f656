package parsetree

import "github.com/fenlang/fen/internal/diag"

// TypeExpr is a type as written in source position — not yet resolved to an
// interned *types.Ty. Lowering maps these to the type arena.
type TypeExpr interface {
	Node
	typeExprNode()
	String() string
}

// SimpleType is a bare name in type position: a primitive keyword
// (int64, float64, uint64, bool, char, unit, string) or a class name.
type SimpleType struct {
	Name     string
	NodeSpan diag.Span
}

func (t *SimpleType) Span() diag.Span { return t.NodeSpan }
func (t *SimpleType) typeExprNode()    {}
func (t *SimpleType) String() string   { return t.Name }

// ListType is "[T]".
type ListType struct {
	Elem     TypeExpr
	NodeSpan diag.Span
}

func (t *ListType) Span() diag.Span { return t.NodeSpan }
func (t *ListType) typeExprNode()    {}
func (t *ListType) String() string   { return "[" + t.Elem.String() + "]" }

// NullableType is "T?".
type NullableType struct {
	Inner    TypeExpr
	NodeSpan diag.Span
}

func (t *NullableType) Span() diag.Span { return t.NodeSpan }
func (t *NullableType) typeExprNode()    {}
func (t *NullableType) String() string   { return t.Inner.String() + "?" }

// FunctionType is "func(P*) -> R" in source; String renders it as
// "fn(P*) -> R".
type FunctionType struct {
	Params   []TypeExpr
	Return   TypeExpr
	NodeSpan diag.Span
}

func (t *FunctionType) Span() diag.Span { return t.NodeSpan }
func (t *FunctionType) typeExprNode()    {}
func (t *FunctionType) String() string {
	s := "fn("
	for i, p := range t.Params {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	s += ") -> "
	if t.Return != nil {
		s += t.Return.String()
	}
	return s
}
