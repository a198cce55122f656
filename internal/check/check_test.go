package check

import (
	"testing"

	"github.com/fenlang/fen/internal/diag"
	"github.com/fenlang/fen/internal/hir"
	"github.com/fenlang/fen/internal/ident"
	"github.com/fenlang/fen/internal/parser"
	"github.com/fenlang/fen/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noStdlib(string) (string, bool) { return "", false }

func checkSrc(t *testing.T, src string) (*hir.HirModule, *types.Arena, error) {
	t.Helper()
	prog, err := parser.Parse(src, "t.fen")
	require.NoError(t, err)
	arena := types.NewArena()
	idents := ident.NewPool()
	mod, err := hir.Lower(prog, nil, arena, idents, noStdlib)
	require.NoError(t, err)
	err = Check(mod, arena, idents, nil)
	return mod, arena, err
}

func kindOf(t *testing.T, err error) string {
	t.Helper()
	derr, ok := err.(*diag.Error)
	require.True(t, ok, "expected *diag.Error, got %T", err)
	return derr.Kind
}

func TestCheckAssignsConcreteTypesToLiterals(t *testing.T) {
	mod, arena, err := checkSrc(t, `func main() -> int64 { let x = 1 + 2; return x; }`)
	require.NoError(t, err)
	body := mod.Functions["main"].Body
	let := body.Statements[0].(*hir.LetStmt)
	assert.Same(t, arena.GetInt64(), let.Declared)
}

func TestCheckReturnTypeMismatch(t *testing.T) {
	_, _, err := checkSrc(t, `func main() -> int64 { return true; }`)
	require.Error(t, err)
	assert.Equal(t, "TypeMismatch", kindOf(t, err))
}

func TestCheckIfConditionMustBeBool(t *testing.T) {
	_, _, err := checkSrc(t, `func main() -> unit { if (1) { } return (); }`)
	require.Error(t, err)
	assert.Equal(t, "TypeMismatch", kindOf(t, err))
}

func TestCheckWhileConditionMustBeBool(t *testing.T) {
	_, _, err := checkSrc(t, `func main() -> unit { while (1) { } return (); }`)
	require.Error(t, err)
	assert.Equal(t, "TypeMismatch", kindOf(t, err))
}

func TestCheckBreakOutsideLoopErrors(t *testing.T) {
	_, _, err := checkSrc(t, `func main() -> unit { break; return (); }`)
	require.Error(t, err)
	assert.Equal(t, "UnsupportedStatement", kindOf(t, err))
}

func TestCheckConstReassignmentErrors(t *testing.T) {
	_, _, err := checkSrc(t, `func main() -> unit {
		const x = 1;
		x = 2;
		return ();
	}`)
	require.Error(t, err)
	assert.Equal(t, "TryingToMutateImmutableVariable", kindOf(t, err))
}

func TestCheckLetMutationAllowed(t *testing.T) {
	_, _, err := checkSrc(t, `func main() -> int64 {
		let x = 1;
		x = 2;
		return x;
	}`)
	require.NoError(t, err)
}

func TestCheckUnaryNegRejectsUInt64(t *testing.T) {
	_, _, err := checkSrc(t, `func main() -> uint64 { let x: uint64 = 1u; return -x; }`)
	require.Error(t, err)
	assert.Equal(t, "TryingToNegateUnsigned", kindOf(t, err))
}

func TestCheckUnaryNegAcceptsInt64(t *testing.T) {
	_, _, err := checkSrc(t, `func main() -> int64 { let x = 1; return -x; }`)
	require.NoError(t, err)
}

func TestCheckIndexingRequiresIntegerIndex(t *testing.T) {
	_, _, err := checkSrc(t, `func main() -> int64 {
		let xs: [int64] = [1, 2, 3];
		return xs[true];
	}`)
	require.Error(t, err)
	assert.Equal(t, "TypeMismatch", kindOf(t, err))
}

func TestCheckIndexingListReturnsElementType(t *testing.T) {
	mod, arena, err := checkSrc(t, `func main() -> int64 {
		let xs: [int64] = [1, 2, 3];
		return xs[0];
	}`)
	require.NoError(t, err)
	body := mod.Functions["main"].Body
	ret := body.Statements[1].(*hir.ReturnStmt)
	assert.Same(t, arena.GetInt64(), ret.Value.Type())
}

func TestCheckCastBetweenPrimitives(t *testing.T) {
	_, _, err := checkSrc(t, `func main() -> float64 {
		let x = 1;
		return x as float64;
	}`)
	require.NoError(t, err)
}

func TestCheckCastRejectsListTarget(t *testing.T) {
	_, _, err := checkSrc(t, `func main() -> unit {
		let x = 1;
		let y = x as [int64];
		return ();
	}`)
	require.Error(t, err)
	assert.Equal(t, "TypeMismatch", kindOf(t, err))
}

func TestCheckEmptyListLiteralRejectedAtLowering(t *testing.T) {
	prog, err := parser.Parse(`func main() -> unit { let xs: [int64] = []; return (); }`, "t.fen")
	require.NoError(t, err)
	arena := types.NewArena()
	_, err = hir.Lower(prog, nil, arena, ident.NewPool(), noStdlib)
	require.Error(t, err)
}

func TestCheckListLiteralElementsMustAgree(t *testing.T) {
	_, _, err := checkSrc(t, `func main() -> unit {
		let xs = [1, true];
		return ();
	}`)
	require.Error(t, err)
	assert.Equal(t, "TypeMismatch", kindOf(t, err))
}

func TestCheckCallArityMismatch(t *testing.T) {
	_, _, err := checkSrc(t, `func add(a: int64, b: int64) -> int64 { return a + b; }
	func main() -> int64 { return add(1); }`)
	require.Error(t, err)
	assert.Equal(t, "FunctionTypeMismatch", kindOf(t, err))
}

func TestCheckCallArgumentTypeMismatch(t *testing.T) {
	_, _, err := checkSrc(t, `func add(a: int64, b: int64) -> int64 { return a + b; }
	func main() -> int64 { return add(1, true); }`)
	require.Error(t, err)
	assert.Equal(t, "FunctionTypeMismatch", kindOf(t, err))
}

func TestCheckUnknownFunctionCallErrors(t *testing.T) {
	_, _, err := checkSrc(t, `func main() -> int64 { return nope(1); }`)
	require.Error(t, err)
	assert.Equal(t, "UnknownType", kindOf(t, err))
}

func TestCheckMethodCallOnInstance(t *testing.T) {
	mod, arena, err := checkSrc(t, `class Point {
		public:
		x: int64;
		y: int64;
		func new(x: int64, y: int64) {
			self.x = x;
			self.y = y;
		}
		func sum(self) -> int64 { return self.x + self.y; }
	}
	func main() -> int64 {
		let p = new Point(1, 2);
		return p.sum();
	}`)
	require.NoError(t, err)
	body := mod.Functions["main"].Body
	ret := body.Statements[1].(*hir.ReturnStmt)
	assert.Same(t, arena.GetInt64(), ret.Value.Type())
}

func TestCheckPrivateFieldAccessOutsideClassErrors(t *testing.T) {
	_, _, err := checkSrc(t, `class Point {
		private:
		x: int64;
		func new(x: int64) { self.x = x; }
	}
	func main() -> int64 {
		let p = new Point(1);
		return p.x;
	}`)
	require.Error(t, err)
	assert.Equal(t, "AccessingPrivateField", kindOf(t, err))
}

func TestCheckStaticAccessToInstanceMethodErrors(t *testing.T) {
	_, _, err := checkSrc(t, `class Point {
		public:
		x: int64;
		func new(x: int64) { self.x = x; }
		func get(self) -> int64 { return self.x; }
	}
	func main() -> int64 { return Point::get(); }`)
	require.Error(t, err)
	assert.Equal(t, "TypeMismatch", kindOf(t, err))
}

func TestCheckStaticFieldAccessReportsClassFieldOutsideClass(t *testing.T) {
	_, _, err := checkSrc(t, `class Point {
		public:
		x: int64;
		func new(x: int64) { self.x = x; }
	}
	func main() -> int64 { return Point::x; }`)
	require.Error(t, err)
	assert.Equal(t, "AccessingClassFieldOutsideClass", kindOf(t, err))
}

func TestCheckEnumConstantAccessViaStaticSyntax(t *testing.T) {
	mod, arena, err := checkSrc(t, `enum Color { Red, Green, Blue }
	func main() -> int64 { return Color::Green as int64; }`)
	require.NoError(t, err)
	body := mod.Functions["main"].Body
	ret := body.Statements[0].(*hir.ReturnStmt)
	assert.Same(t, arena.GetInt64(), ret.Value.Type())
}

func TestCheckNewObjConstructorArityMismatch(t *testing.T) {
	_, _, err := checkSrc(t, `class Point {
		public:
		x: int64;
		func new(x: int64) { self.x = x; }
	}
	func main() -> int64 {
		let p = new Point();
		return p.x;
	}`)
	require.Error(t, err)
	assert.Equal(t, "FunctionTypeMismatch", kindOf(t, err))
}

func TestCheckDeleteRequiresDestructor(t *testing.T) {
	_, _, err := checkSrc(t, `class Point {
		public:
		x: int64;
		func new(x: int64) { self.x = x; }
	}
	func main() -> unit {
		let p = new Point(1);
		delete p;
		return ();
	}`)
	require.Error(t, err)
	assert.Equal(t, "TypeMismatch", kindOf(t, err))
}

func TestCheckDeleteWithDestructorSucceeds(t *testing.T) {
	_, _, err := checkSrc(t, `class Point {
		public:
		x: int64;
		func new(x: int64) { self.x = x; }
		func delete() { }
	}
	func main() -> unit {
		let p = new Point(1);
		delete p;
		return ();
	}`)
	require.NoError(t, err)
}

func TestCheckGenericExternMonomorphizesPerArgumentType(t *testing.T) {
	load := func(name string) (string, bool) {
		if name != "list" {
			return "", false
		}
		return `extern func id<T>(v: T) -> T;`, true
	}
	prog, err := parser.Parse(`import "list";
	func main() -> int64 {
		let a = id(1);
		let b = id(true);
		return a;
	}`, "t.fen")
	require.NoError(t, err)
	arena := types.NewArena()
	idents := ident.NewPool()
	mod, err := hir.Lower(prog, nil, arena, idents, load)
	require.NoError(t, err)
	require.NoError(t, Check(mod, arena, idents, nil))

	body := mod.Functions["main"].Body
	letA := body.Statements[0].(*hir.LetStmt)
	letB := body.Statements[1].(*hir.LetStmt)
	callA := letA.Initializer.(*hir.CallExpr)
	callB := letB.Initializer.(*hir.CallExpr)
	assert.NotEqual(t, callA.MonomorphizedName, callB.MonomorphizedName)
	assert.Same(t, arena.GetInt64(), letA.Declared)
	assert.Same(t, arena.GetBool(), letB.Declared)
}

func TestCheckNoMainFunctionErrors(t *testing.T) {
	prog, err := parser.Parse(`func helper() -> int64 { return 1; }`, "t.fen")
	require.NoError(t, err)
	arena := types.NewArena()
	idents := ident.NewPool()
	mod, err := hir.Lower(prog, nil, arena, idents, noStdlib)
	require.NoError(t, err)
	err = Check(mod, arena, idents, nil)
	require.Error(t, err)
	assert.Equal(t, "NoMainFunction", kindOf(t, err))
}

func TestCheckModRejectsFloat64(t *testing.T) {
	_, _, err := checkSrc(t, `func main() -> float64 {
		let a = 1.5;
		let b = 2.0;
		return a % b;
	}`)
	require.Error(t, err)
	assert.Equal(t, "TypeMismatch", kindOf(t, err))
}

func TestCheckModAcceptsInt64(t *testing.T) {
	_, _, err := checkSrc(t, `func main() -> int64 {
		let a = 7;
		let b = 2;
		return a % b;
	}`)
	require.NoError(t, err)
}

func TestCheckDirectCallThroughFunctionValue(t *testing.T) {
	_, _, err := checkSrc(t, `func inc(n: int64) -> int64 { return n + 1; }
	func apply(f: func(int64) -> int64, v: int64) -> int64 { return f(v); }
	func main() -> int64 { return apply(inc, 1); }`)
	require.NoError(t, err)
}
