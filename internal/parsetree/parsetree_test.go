package parsetree

import (
	"testing"

	"github.com/fenlang/fen/internal/diag"
	"github.com/stretchr/testify/assert"
)

func TestProgramSpanSpansFirstToLastItem(t *testing.T) {
	first := &ImportDecl{base: base{NodeSpan: diag.Span{Start: 0, End: 10}}, Path: "io"}
	last := &FuncDecl{base: base{NodeSpan: diag.Span{Start: 20, End: 40}}, Name: "main"}

	prog := &Program{Items: []Item{first, last}}
	span := prog.Span()

	assert.Equal(t, 0, span.Start)
	assert.Equal(t, 40, span.End)
}

func TestEmptyProgramSpanIsZero(t *testing.T) {
	prog := &Program{}
	assert.Equal(t, diag.Span{}, prog.Span())
}

func TestTypeExprStrings(t *testing.T) {
	list := &ListType{Elem: &SimpleType{Name: "int64"}}
	assert.Equal(t, "[int64]", list.String())

	nullable := &NullableType{Inner: &SimpleType{Name: "Point"}}
	assert.Equal(t, "Point?", nullable.String())

	fn := &FunctionType{
		Params: []TypeExpr{&SimpleType{Name: "int64"}, &SimpleType{Name: "bool"}},
		Return: &SimpleType{Name: "string"},
	}
	assert.Equal(t, "fn(int64, bool) -> string", fn.String())
}
