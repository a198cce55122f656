package types

import (
	"testing"

	"github.com/fenlang/fen/internal/ident"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitivesAreSingletons(t *testing.T) {
	a := NewArena()

	assert.Same(t, a.GetInt64(), a.GetInt64())
	assert.Same(t, a.GetBool(), a.GetBool())
	assert.Same(t, a.GetString(), a.GetString())
	assert.NotSame(t, a.GetInt64(), a.GetFloat64())
}

func TestListInterning(t *testing.T) {
	a := NewArena()

	l1 := a.GetList(a.GetInt64())
	l2 := a.GetList(a.GetInt64())
	require.Same(t, l1, l2, "List(Int64) must be interned once")

	l3 := a.GetList(a.GetString())
	assert.NotSame(t, l1, l3)
	assert.Equal(t, KindList, l1.Kind())
	assert.Same(t, a.GetInt64(), l1.Elem())
}

func TestNamedInterningKeepsFirstSpan(t *testing.T) {
	a := NewArena()
	pool := ident.NewPool()
	name := pool.Intern("Point")

	n1 := a.GetNamed(name, Span{Line: 3})
	n2 := a.GetNamed(name, Span{Line: 99})

	require.Same(t, n1, n2)
	assert.Equal(t, 3, n1.NameSpan().Line, "first declaration span wins")
}

func TestFunctionInterning(t *testing.T) {
	a := NewArena()

	f1 := a.GetFunction(a.GetInt64(), []*Ty{a.GetInt64(), a.GetBool()})
	f2 := a.GetFunction(a.GetInt64(), []*Ty{a.GetInt64(), a.GetBool()})
	f3 := a.GetFunction(a.GetInt64(), []*Ty{a.GetBool(), a.GetInt64()})

	assert.Same(t, f1, f2)
	assert.NotSame(t, f1, f3, "parameter order is part of identity")
	if diff := cmp.Diff([]*Ty{a.GetInt64(), a.GetBool()}, f1.Params(), cmpopts.EquateComparable()); diff != "" {
		t.Errorf("unexpected params (-want +got):\n%s", diff)
	}
}

func TestNestedListInterning(t *testing.T) {
	a := NewArena()

	matrixA := a.GetList(a.GetList(a.GetFloat64()))
	matrixB := a.GetList(a.GetList(a.GetFloat64()))

	assert.Same(t, matrixA, matrixB)
	assert.Same(t, a.GetFloat64(), matrixA.Elem().Elem())
}

func TestNullableInterning(t *testing.T) {
	a := NewArena()
	pool := ident.NewPool()
	name := pool.Intern("Widget")
	named := a.GetNamed(name, Span{})

	n1 := a.GetNullable(named)
	n2 := a.GetNullable(named)
	assert.Same(t, n1, n2)
	assert.NotSame(t, n1, named)
}
