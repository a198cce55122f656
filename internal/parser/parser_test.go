package parser

import (
	"testing"

	"github.com/fenlang/fen/internal/parsetree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArithmeticMain(t *testing.T) {
	prog, err := Parse(`func main() -> int64 { return 1 + 2 * 3; }`, "t.fen")
	require.NoError(t, err)
	require.Len(t, prog.Items, 1)

	fn, ok := prog.Items[0].(*parsetree.FuncDecl)
	require.True(t, ok)
	assert.Equal(t, "main", fn.Name)
	require.Len(t, fn.Body.Statements, 1)

	ret, ok := fn.Body.Statements[0].(*parsetree.ReturnStmt)
	require.True(t, ok)
	bin, ok := ret.Value.(*parsetree.BinaryOpExpr)
	require.True(t, ok)
	assert.Equal(t, parsetree.OpAdd, bin.Op)

	rhs, ok := bin.Right.(*parsetree.BinaryOpExpr)
	require.True(t, ok)
	assert.Equal(t, parsetree.OpMul, rhs.Op)
}

func TestParseRecursiveFunction(t *testing.T) {
	src := `func fib(n: int64) -> int64 {
		if n < 2 { return n; }
		return fib(n-1) + fib(n-2);
	}`
	prog, err := Parse(src, "t.fen")
	require.NoError(t, err)
	fn := prog.Items[0].(*parsetree.FuncDecl)
	assert.Equal(t, "fib", fn.Name)
	require.Len(t, fn.Params, 1)
	assert.Equal(t, "n", fn.Params[0].Name)
	require.Len(t, fn.Body.Statements, 2)
	_, ok := fn.Body.Statements[0].(*parsetree.IfElseStmt)
	assert.True(t, ok)
}

func TestParseListIndexing(t *testing.T) {
	src := `func main() -> int64 { let xs: [int64] = [10, 20, 30]; return xs[1]; }`
	prog, err := Parse(src, "t.fen")
	require.NoError(t, err)
	fn := prog.Items[0].(*parsetree.FuncDecl)
	let := fn.Body.Statements[0].(*parsetree.LetStmt)
	listTy, ok := let.Type.(*parsetree.ListType)
	require.True(t, ok)
	assert.Equal(t, "int64", listTy.Elem.String())

	lit, ok := let.Initializer.(*parsetree.ListLiteralExpr)
	require.True(t, ok)
	assert.Len(t, lit.Elements, 3)

	ret := fn.Body.Statements[1].(*parsetree.ReturnStmt)
	idx, ok := ret.Value.(*parsetree.IndexingExpr)
	require.True(t, ok)
	_, ok = idx.Target.(*parsetree.IdentExpr)
	assert.True(t, ok)
}

func TestParseWhileMutation(t *testing.T) {
	src := `func main() -> int64 {
		let x: int64 = 0;
		let i: int64 = 0;
		while i < 5 { x = x + i; i = i + 1; }
		return x;
	}`
	prog, err := Parse(src, "t.fen")
	require.NoError(t, err)
	fn := prog.Items[0].(*parsetree.FuncDecl)
	wh, ok := fn.Body.Statements[2].(*parsetree.WhileStmt)
	require.True(t, ok)
	require.Len(t, wh.Body.Statements, 2)
	assign := wh.Body.Statements[0].(*parsetree.ExprStmt).Value.(*parsetree.AssignExpr)
	_, ok = assign.Target.(*parsetree.IdentExpr)
	assert.True(t, ok)
}

func TestParseClassWithMethodAndConstructor(t *testing.T) {
	src := `class Point {
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
		let p: Point = new Point(3, 4);
		return p.sum();
	}`
	prog, err := Parse(src, "t.fen")
	require.NoError(t, err)
	require.Len(t, prog.Items, 2)

	cls, ok := prog.Items[0].(*parsetree.ClassDecl)
	require.True(t, ok)
	assert.Equal(t, "Point", cls.Name)
	require.Len(t, cls.Fields, 2)
	assert.Equal(t, parsetree.VisibilityPublic, cls.Fields[0].Visibility)
	require.NotNil(t, cls.Constructor)
	require.Len(t, cls.Methods, 1)
	assert.Equal(t, "sum", cls.Methods[0].Name)
	assert.Equal(t, "self", cls.Methods[0].Params[0].Name)

	main := prog.Items[1].(*parsetree.FuncDecl)
	let := main.Body.Statements[0].(*parsetree.LetStmt)
	newObj, ok := let.Initializer.(*parsetree.NewObjExpr)
	require.True(t, ok)
	assert.Equal(t, "Point", newObj.ClassName)
	require.Len(t, newObj.Args, 2)
}

func TestParseGenericExtern(t *testing.T) {
	prog, err := Parse(`extern func id<T>(v: T) -> T;`, "t.fen")
	require.NoError(t, err)
	fn := prog.Items[0].(*parsetree.FuncDecl)
	assert.True(t, fn.IsExternal)
	assert.Nil(t, fn.Body)
	require.Equal(t, []string{"T"}, fn.Generics)
}

func TestParseImportAndStringLiteral(t *testing.T) {
	src := `import "io";
	func main() -> unit { return (); }`
	prog, err := Parse(src, "t.fen")
	require.NoError(t, err)
	imp, ok := prog.Items[0].(*parsetree.ImportDecl)
	require.True(t, ok)
	assert.Equal(t, "io", imp.Path)

	fn := prog.Items[1].(*parsetree.FuncDecl)
	ret := fn.Body.Statements[0].(*parsetree.ReturnStmt)
	_, ok = ret.Value.(*parsetree.UnitLiteral)
	assert.True(t, ok)
}

func TestParseConstAssignmentStatement(t *testing.T) {
	src := `func main() -> int64 { const x: int64 = 1; x = 2; return x; }`
	prog, err := Parse(src, "t.fen")
	require.NoError(t, err)
	fn := prog.Items[0].(*parsetree.FuncDecl)
	_, ok := fn.Body.Statements[0].(*parsetree.ConstStmt)
	assert.True(t, ok)
}

func TestParseEnumDecl(t *testing.T) {
	prog, err := Parse(`enum Color { Red, Green = 5, Blue }`, "t.fen")
	require.NoError(t, err)
	enum := prog.Items[0].(*parsetree.EnumDecl)
	assert.Equal(t, "Color", enum.Name)
	require.Len(t, enum.Members, 3)
	require.NotNil(t, enum.Members[1].Value)
	assert.Equal(t, int64(5), *enum.Members[1].Value)
}

func TestParseOperatorOverloadIsRepresented(t *testing.T) {
	src := `class Vec {
		x: int64;
		operator + (other: Vec) -> Vec { return self; }
	}`
	prog, err := Parse(src, "t.fen")
	require.NoError(t, err)
	cls := prog.Items[0].(*parsetree.ClassDecl)
	require.Len(t, cls.Operators, 1)
	assert.Equal(t, "+", cls.Operators[0].Operator)
}

func TestParseErrorOnMalformedFunction(t *testing.T) {
	_, err := Parse(`func main( -> int64 { return 1; }`, "t.fen")
	assert.Error(t, err)
}

func TestParseCastExpression(t *testing.T) {
	src := `func main() -> float64 { return 1 as float64; }`
	prog, err := Parse(src, "t.fen")
	require.NoError(t, err)
	fn := prog.Items[0].(*parsetree.FuncDecl)
	ret := fn.Body.Statements[0].(*parsetree.ReturnStmt)
	cast, ok := ret.Value.(*parsetree.CastExpr)
	require.True(t, ok)
	assert.Equal(t, "float64", cast.To.String())
}
