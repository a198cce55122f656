package stdlib

import (
	"testing"

	"github.com/fenlang/fen/internal/check"
	"github.com/fenlang/fen/internal/codegen"
	"github.com/fenlang/fen/internal/hir"
	"github.com/fenlang/fen/internal/ident"
	"github.com/fenlang/fen/internal/parser"
	"github.com/fenlang/fen/internal/types"
	"github.com/fenlang/fen/internal/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runFen(t *testing.T, src string) vm.Value {
	t.Helper()
	prog, err := parser.Parse(src, "t.fen")
	require.NoError(t, err)
	arena := types.NewArena()
	idents := ident.NewPool()
	mod, err := hir.Lower(prog, nil, arena, idents, Load)
	require.NoError(t, err)
	require.NoError(t, check.Check(mod, arena, idents, nil))
	p, err := codegen.Emit(mod, arena, idents)
	require.NoError(t, err)

	m, err := vm.NewVM(p, Externs())
	require.NoError(t, err)
	v, err := m.Run()
	require.NoError(t, err)
	return v
}

func TestMathExterns(t *testing.T) {
	v := runFen(t, `import "math";
	func main() -> float64 { return sqrt(16.0) + pow(2.0, 3.0); }`)
	assert.Equal(t, vm.FloatValue(12), v)
}

func TestListExterns(t *testing.T) {
	v := runFen(t, `import "list";
	func main() -> uint64 {
		let xs = [1, 2, 3];
		list_push(xs, 4);
		return list_len(xs);
	}`)
	assert.Equal(t, vm.UIntValue(4), v)
}

func TestStringExterns(t *testing.T) {
	v := runFen(t, `import "string";
	func main() -> string { return to_upper(str_concat("fen", "lang")); }`)
	require.Equal(t, vm.KindRef, v.Kind)
}

func TestGenericIdExtern(t *testing.T) {
	v := runFen(t, `import "list";
	func main() -> int64 { return id(42); }`)
	assert.Equal(t, vm.IntValue(42), v)
}
