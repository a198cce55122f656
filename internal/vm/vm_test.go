package vm

import (
	"testing"

	"github.com/fenlang/fen/internal/check"
	"github.com/fenlang/fen/internal/codegen"
	"github.com/fenlang/fen/internal/hir"
	"github.com/fenlang/fen/internal/ident"
	"github.com/fenlang/fen/internal/parser"
	"github.com/fenlang/fen/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noStdlib(string) (string, bool) { return "", false }

func compile(t *testing.T, src string) *codegen.Program {
	t.Helper()
	prog, err := parser.Parse(src, "t.fen")
	require.NoError(t, err)
	arena := types.NewArena()
	idents := ident.NewPool()
	mod, err := hir.Lower(prog, nil, arena, idents, noStdlib)
	require.NoError(t, err)
	require.NoError(t, check.Check(mod, arena, idents, nil))
	p, err := codegen.Emit(mod, arena, idents)
	require.NoError(t, err)
	return p
}

func run(t *testing.T, src string) Value {
	t.Helper()
	p := compile(t, src)
	m, err := NewVM(p, nil)
	require.NoError(t, err)
	v, err := m.Run()
	require.NoError(t, err)
	return v
}

func runErr(t *testing.T, src string) error {
	t.Helper()
	p := compile(t, src)
	m, err := NewVM(p, nil)
	require.NoError(t, err)
	_, err = m.Run()
	return err
}

func TestVMArithmetic(t *testing.T) {
	v := run(t, `func main() -> int64 { return 1 + 2 * 3; }`)
	assert.Equal(t, IntValue(7), v)
}

func TestVMRecursion(t *testing.T) {
	v := run(t, `func fib(n: int64) -> int64 {
		if (n < 2) { return n; }
		return fib(n - 1) + fib(n - 2);
	}
	func main() -> int64 { return fib(10); }`)
	assert.Equal(t, IntValue(55), v)
}

func TestVMListIndexing(t *testing.T) {
	v := run(t, `func main() -> int64 {
		let xs = [10, 20, 30];
		return xs[1];
	}`)
	assert.Equal(t, IntValue(20), v)
}

func TestVMMutationLoop(t *testing.T) {
	v := run(t, `func main() -> int64 {
		let x = 0;
		let i = 0;
		while (i < 5) {
			x = x + i;
			i = i + 1;
		}
		return x;
	}`)
	assert.Equal(t, IntValue(10), v)
}

func TestVMClassConstructorAndMethod(t *testing.T) {
	v := run(t, `class Point {
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
		let p = new Point(3, 4);
		return p.sum();
	}`)
	assert.Equal(t, IntValue(7), v)
}

func TestVMGenericExternMonomorphization(t *testing.T) {
	load := func(name string) (string, bool) {
		if name != "list" {
			return "", false
		}
		return `extern func id<T>(v: T) -> T;`, true
	}
	prog, err := parser.Parse(`import "list";
	func main() -> int64 {
		let a = id(1);
		return a;
	}`, "t.fen")
	require.NoError(t, err)
	arena := types.NewArena()
	idents := ident.NewPool()
	mod, err := hir.Lower(prog, nil, arena, idents, load)
	require.NoError(t, err)
	require.NoError(t, check.Check(mod, arena, idents, nil))
	p, err := codegen.Emit(mod, arena, idents)
	require.NoError(t, err)

	var internedName string
	main, ok := p.FindLabel("main")
	require.True(t, ok)
	for _, instr := range main.Body {
		if ec, ok := instr.(codegen.ExternCall); ok {
			internedName = ec.Name
		}
	}
	require.NotEmpty(t, internedName)

	externs := map[string]ExternFunc{
		internedName: func(s *ExternState) (Value, error) {
			return s.Pop(), nil
		},
	}
	m, err := NewVM(p, externs)
	require.NoError(t, err)
	v, err := m.Run()
	require.NoError(t, err)
	assert.Equal(t, IntValue(1), v)
}

func TestVMDivisionByZero(t *testing.T) {
	err := runErr(t, `func main() -> int64 { let z = 0; return 1 / z; }`)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrDivisionByZero, rerr.Kind)
}

func TestVMIndexOutOfBounds(t *testing.T) {
	err := runErr(t, `func main() -> int64 {
		let xs = [1, 2, 3];
		let i = 5;
		return xs[i];
	}`)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrIndexOutOfBounds, rerr.Kind)
}

func TestVMEntryPointNotFound(t *testing.T) {
	p := &codegen.Program{EntryPoint: "main"}
	_, err := NewVM(p, nil)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrEntryPointNotFound, rerr.Kind)
}

func TestVMDestructorRunsExactlyOnce(t *testing.T) {
	v := run(t, `class Counter {
		public:
		n: int64;
		func new(n: int64) { self.n = n; }
		func delete() { self.n = 0; }
	}
	func main() -> int64 {
		let c = new Counter(5);
		let before = c.n;
		delete c;
		return before;
	}`)
	assert.Equal(t, IntValue(5), v)
}
