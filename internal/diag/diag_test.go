package diag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	err := New("TypeMismatch", Span{Line: 4, Col: 9}, &Source{File: "main.fen"}, "expected %s, got %s", "int64", "bool")
	assert.Equal(t, "TypeMismatch: expected int64, got bool at main.fen:4:9", err.Error())
}

func TestRenderIncludesSourceLineAndCaret(t *testing.T) {
	src := &Source{File: "main.fen", Text: "func main() -> int64 {\n  return true;\n}"}
	err := New("TypeMismatch", Span{Line: 2, Col: 10}, src, "expected int64, got bool")

	out := Render(err, false)
	assert.Contains(t, out, "return true;")
	assert.True(t, strings.Contains(out, "^"))
}

func TestRenderWithoutSource(t *testing.T) {
	err := New("DivisionByZero", Span{Line: 1, Col: 1}, nil, "division by zero")
	out := Render(err, false)
	assert.Contains(t, out, "DivisionByZero")
}
