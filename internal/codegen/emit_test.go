package codegen

import (
	"testing"

	"github.com/fenlang/fen/internal/check"
	"github.com/fenlang/fen/internal/hir"
	"github.com/fenlang/fen/internal/ident"
	"github.com/fenlang/fen/internal/parser"
	"github.com/fenlang/fen/internal/types"
	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noStdlib(string) (string, bool) { return "", false }

func emitSrc(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := parser.Parse(src, "t.fen")
	require.NoError(t, err)
	arena := types.NewArena()
	idents := ident.NewPool()
	mod, err := hir.Lower(prog, nil, arena, idents, noStdlib)
	require.NoError(t, err)
	require.NoError(t, check.Check(mod, arena, idents, nil))
	p, err := Emit(mod, arena, idents)
	require.NoError(t, err)
	return p
}

func TestEmitArithmeticDisassembly(t *testing.T) {
	p := emitSrc(t, `func main() -> int64 { let x = 1 + 2 * 3; return x; }`)
	snaps.MatchSnapshot(t, DisassembleToString(p))
}

func TestEmitWhileBreakContinueOffsets(t *testing.T) {
	p := emitSrc(t, `func main() -> int64 {
		let i = 0;
		while (i < 10) {
			if (i == 5) { break; }
			if (i == 2) { i = i + 1; continue; }
			i = i + 1;
		}
		return i;
	}`)
	main, ok := p.FindLabel("main")
	require.True(t, ok)
	for _, instr := range main.Body {
		switch in := instr.(type) {
		case breakMarker:
			t.Fatalf("unresolved breakMarker left in finished program: %+v", in)
		case continueMarker:
			t.Fatalf("unresolved continueMarker left in finished program: %+v", in)
		}
	}
	snaps.MatchSnapshot(t, DisassembleToString(p))
}

func TestEmitIfElseJumpOffsets(t *testing.T) {
	p := emitSrc(t, `func main() -> int64 {
		let x = 1;
		if (x == 1) {
			return 10;
		} else {
			return 20;
		}
	}`)
	snaps.MatchSnapshot(t, DisassembleToString(p))
}

func TestEmitShortCircuitAnd(t *testing.T) {
	p := emitSrc(t, `func main() -> bool { let a = true; let b = false; return a && b; }`)
	snaps.MatchSnapshot(t, DisassembleToString(p))
}

func TestEmitShortCircuitOr(t *testing.T) {
	p := emitSrc(t, `func main() -> bool { let a = true; let b = false; return a || b; }`)
	snaps.MatchSnapshot(t, DisassembleToString(p))
}

func TestEmitListLiteralAndIndexing(t *testing.T) {
	p := emitSrc(t, `func main() -> int64 {
		let xs = [1, 2, 3];
		xs[0] = 9;
		return xs[0];
	}`)
	snaps.MatchSnapshot(t, DisassembleToString(p))
}

func TestEmitDirectCallThroughFunctionValue(t *testing.T) {
	p := emitSrc(t, `func inc(n: int64) -> int64 { return n + 1; }
	func apply(f: func(int64) -> int64, v: int64) -> int64 { return f(v); }
	func main() -> int64 { return apply(inc, 1); }`)

	apply, ok := p.FindLabel("apply")
	require.True(t, ok)
	var found bool
	for _, instr := range apply.Body {
		if dc, ok := instr.(DirectCall); ok {
			found = true
			assert.Equal(t, -1, dc.Position, "DirectCall's Position is a sentinel; the VM reads the real target off the popped FnPtr value")
			assert.Equal(t, 1, dc.NArgs)
		}
	}
	assert.True(t, found, "expected a DirectCall instruction in apply's body")
}

func TestEmitGenericExternMonomorphizedCallNames(t *testing.T) {
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
	require.NoError(t, check.Check(mod, arena, idents, nil))
	p, err := Emit(mod, arena, idents)
	require.NoError(t, err)

	main, ok := p.FindLabel("main")
	require.True(t, ok)
	var names []string
	for _, instr := range main.Body {
		if ec, ok := instr.(ExternCall); ok {
			names = append(names, ec.Name)
		}
	}
	require.Len(t, names, 2)
	assert.NotEqual(t, names[0], names[1])
}

func TestEmitMethodCallUsesQualifiedLabel(t *testing.T) {
	p := emitSrc(t, `class Point {
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

	_, ok := p.FindLabel("Point.new")
	require.True(t, ok, "constructor should be emitted under its qualified label")
	_, ok = p.FindLabel("Point.sum")
	require.True(t, ok, "instance method should be emitted under its qualified label")

	main, ok := p.FindLabel("main")
	require.True(t, ok)
	var sawCallMethod bool
	for _, instr := range main.Body {
		if cm, ok := instr.(CallMethod); ok {
			sawCallMethod = true
			assert.Equal(t, "sum", cm.Name)
		}
	}
	assert.True(t, sawCallMethod)
}

func TestEmitModOnlyForIntegers(t *testing.T) {
	p := emitSrc(t, `func main() -> int64 { let a = 7; let b = 2; return a % b; }`)
	main, ok := p.FindLabel("main")
	require.True(t, ok)
	var sawMod bool
	for _, instr := range main.Body {
		if _, ok := instr.(IMod); ok {
			sawMod = true
		}
	}
	assert.True(t, sawMod)
}
