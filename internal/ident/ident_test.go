package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternStability(t *testing.T) {
	p := NewPool()

	a := p.Intern("count")
	b := p.Intern("count")
	c := p.Intern("total")

	assert.Equal(t, a, b, "repeated Intern of the same string must return the same ID")
	assert.NotEqual(t, a, c)
	assert.Equal(t, "count", p.Text(a))
	assert.Equal(t, "total", p.Text(c))
}

func TestInternZeroValueReserved(t *testing.T) {
	p := NewPool()
	id := p.Intern("x")
	assert.NotEqual(t, ID(0), id)
}

func TestLen(t *testing.T) {
	p := NewPool()
	p.Intern("a")
	p.Intern("b")
	p.Intern("a")
	assert.Equal(t, 2, p.Len())
}

func TestTextPanicsOnForeignID(t *testing.T) {
	p := NewPool()
	assert.Panics(t, func() {
		p.Text(ID(999))
	})
}
