package hir

import (
	"testing"

	"github.com/fenlang/fen/internal/diag"
	"github.com/fenlang/fen/internal/ident"
	"github.com/fenlang/fen/internal/parser"
	"github.com/fenlang/fen/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noStdlib(string) (string, bool) { return "", false }

func lowerSrc(t *testing.T, src string) (*HirModule, *types.Arena) {
	t.Helper()
	prog, err := parser.Parse(src, "t.fen")
	require.NoError(t, err)
	arena := types.NewArena()
	mod, err := Lower(prog, nil, arena, ident.NewPool(), noStdlib)
	require.NoError(t, err)
	return mod, arena
}

func TestLowerFunctionSignatureAndBody(t *testing.T) {
	mod, arena := lowerSrc(t, `func add(a: int64, b: int64) -> int64 { return a + b; }`)

	sig, ok := mod.Signature.Functions["add"]
	require.True(t, ok)
	assert.Same(t, arena.GetInt64(), sig.Return)
	require.Len(t, sig.Params, 2)
	assert.Same(t, arena.GetInt64(), sig.Params[0].Type)

	body, ok := mod.Functions["add"]
	require.True(t, ok)
	require.Len(t, body.Body.Statements, 1)
	ret, ok := body.Body.Statements[0].(*ReturnStmt)
	require.True(t, ok)
	bin, ok := ret.Value.(*BinaryOpExpr)
	require.True(t, ok)
	assert.Equal(t, OpAdd, bin.Op)
	assert.Same(t, arena.GetUninitialized(), bin.Type())
}

func TestLowerLiteralsCarryIntrinsicTypes(t *testing.T) {
	mod, arena := lowerSrc(t, `func main() -> int64 { return 1; }`)
	body := mod.Functions["main"].Body
	ret := body.Statements[0].(*ReturnStmt)
	lit, ok := ret.Value.(*IntLiteral)
	require.True(t, ok)
	assert.Same(t, arena.GetInt64(), lit.Type())
}

func TestLowerMutualForwardReference(t *testing.T) {
	src := `func isEven(n: int64) -> bool { return n == 0; }
	func isOdd(n: int64) -> bool { return isEven(n); }`
	mod, _ := lowerSrc(t, src)
	assert.Contains(t, mod.Signature.Functions, "isEven")
	assert.Contains(t, mod.Signature.Functions, "isOdd")
}

func TestLowerExternFunctionHasNoBody(t *testing.T) {
	mod, _ := lowerSrc(t, `extern func id<T>(v: T) -> T;`)
	sig := mod.Signature.Functions["id"]
	assert.True(t, sig.IsExternal)
	assert.Equal(t, []string{"T"}, sig.Generics)
	_, ok := mod.Functions["id"]
	assert.False(t, ok, "extern functions must not get a lowered body")
}

func TestLowerClassSignatureAndSelfType(t *testing.T) {
	src := `class Point {
		public:
		x: int64;
		y: int64;
		func new(x: int64, y: int64) {
			self.x = x;
			self.y = y;
		}
		func sum(self) -> int64 { return self.x + self.y; }
	}`
	mod, _ := lowerSrc(t, src)

	csig, ok := mod.Signature.Classes["Point"]
	require.True(t, ok)
	require.Contains(t, csig.Fields, "x")
	require.NotNil(t, csig.Constructor)

	sumSig, ok := csig.Methods["sum"]
	require.True(t, ok)
	require.Len(t, sumSig.Params, 1)
	selfParam := sumSig.Params[0]
	assert.Equal(t, "self", selfParam.Name)
	require.Equal(t, types.KindNamed, selfParam.Type.Kind())

	cb, ok := mod.Classes["Point"]
	require.True(t, ok)
	require.NotNil(t, cb.Constructor)
	require.Contains(t, cb.Methods, "sum")
}

func TestLowerRejectsOperatorOverload(t *testing.T) {
	src := `class Vec {
		x: int64;
		operator + (other: Vec) -> Vec { return self; }
	}`
	_, _, err := parseAndLower(t, src)
	require.Error(t, err)
	derr, ok := err.(*diag.Error)
	require.True(t, ok)
	assert.Equal(t, "UnsupportedStatement", derr.Kind)
}

func parseAndLower(t *testing.T, src string) (*HirModule, *types.Arena, error) {
	t.Helper()
	prog, err := parser.Parse(src, "t.fen")
	require.NoError(t, err)
	arena := types.NewArena()
	mod, err := Lower(prog, nil, arena, ident.NewPool(), noStdlib)
	return mod, arena, err
}

func TestLowerEnumAssignsSequentialAndExplicitValues(t *testing.T) {
	mod, _ := lowerSrc(t, `enum Color { Red, Green = 5, Blue }`)
	csig, ok := mod.Signature.Classes["Color"]
	require.True(t, ok)

	assert.Equal(t, int64(0), csig.ConstValues["Red"].(*IntLiteral).Value)
	assert.Equal(t, int64(5), csig.ConstValues["Green"].(*IntLiteral).Value)
	assert.Equal(t, int64(6), csig.ConstValues["Blue"].(*IntLiteral).Value)
}

func TestLowerListTypeAndLetInference(t *testing.T) {
	src := `func main() -> int64 {
		let xs: [int64] = [1, 2, 3];
		return xs[0];
	}`
	mod, arena := lowerSrc(t, src)
	body := mod.Functions["main"].Body
	let := body.Statements[0].(*LetStmt)
	require.NotNil(t, let.Declared)
	assert.Equal(t, types.KindList, let.Declared.Kind())
	assert.Same(t, arena.GetInt64(), let.Declared.Elem())
}

func TestLowerUnknownStdlibImportErrors(t *testing.T) {
	_, _, err := parseAndLower(t, `import "io";
	func main() -> unit { return (); }`)
	require.Error(t, err)
}

func TestLowerKnownStdlibImportMergesSignatures(t *testing.T) {
	load := func(name string) (string, bool) {
		if name != "math" {
			return "", false
		}
		return `func square(n: int64) -> int64 { return n * n; }`, true
	}
	prog, err := parser.Parse(`import "math";
	func main() -> int64 { return square(3); }`, "t.fen")
	require.NoError(t, err)
	arena := types.NewArena()
	mod, err := Lower(prog, nil, arena, ident.NewPool(), load)
	require.NoError(t, err)
	assert.Contains(t, mod.Signature.Functions, "square")
	require.Len(t, mod.Imports, 1)
	assert.True(t, mod.Imports[0].IsStd)
}

func TestLowerEmptyListLiteralErrors(t *testing.T) {
	_, _, err := parseAndLower(t, `func main() -> unit { let xs: [int64] = []; return (); }`)
	require.Error(t, err)
}
