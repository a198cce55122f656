package hir

import (
	"github.com/fenlang/fen/internal/diag"
	"github.com/fenlang/fen/internal/parsetree"
	"github.com/fenlang/fen/internal/types"
)

// Param is a resolved function parameter: a name, its interned type, and the
// span of its declaration (for error messages).
type Param struct {
	Name string
	Type *types.Ty
	Span diag.Span
}

// FunctionSignature is the typed counterpart of parsetree.FuncDecl. Invariant: parameter names are unique.
type FunctionSignature struct {
	Name       string
	Params     []Param
	Return     *types.Ty
	Generics   []string
	IsExternal bool
	Visibility parsetree.Visibility
	Modifier   parsetree.MethodModifier
}

// ParamByName finds a parameter by name, or returns (Param{}, false).
func (f *FunctionSignature) ParamByName(name string) (Param, bool) {
	for _, p := range f.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// FieldSig is a resolved class field.
type FieldSig struct {
	Name       string
	Type       *types.Ty
	Visibility parsetree.Visibility
	Span       diag.Span
}

// ClassSignature is the typed counterpart of parsetree.ClassDecl.
// Invariant: at most one constructor and one destructor; the first
// parameter of an Instance method is the implicit receiver named "self".
type ClassSignature struct {
	Name        string
	Fields      map[string]FieldSig
	FieldOrder  []string
	Methods     map[string]*FunctionSignature
	Constants   map[string]*types.Ty
	ConstValues map[string]Expr
	Constructor *FunctionSignature
	Destructor  *FunctionSignature
	Generics    []string
	IsStruct    bool
}

// ModuleSignature maps declared names to their signatures. Imports merge
// their exported function signatures into this table during lowering
//.
type ModuleSignature struct {
	Functions map[string]*FunctionSignature
	Classes   map[string]*ClassSignature
}

func newModuleSignature() *ModuleSignature {
	return &ModuleSignature{
		Functions: make(map[string]*FunctionSignature),
		Classes:   make(map[string]*ClassSignature),
	}
}

// FunctionBody pairs a signature with its lowered statements. Externs get no
// FunctionBody entry; they exist only in ModuleSignature.Functions.
type FunctionBody struct {
	Signature *FunctionSignature
	Body      *BlockStmt
}

// ClassBody carries the lowered bodies for a class's methods, constructor,
// and destructor, keyed alongside ClassSignature.
type ClassBody struct {
	Signature   *ClassSignature
	Methods     map[string]*BlockStmt
	Constructor *BlockStmt
	Destructor  *BlockStmt
}

// Import records one merged "import" declaration, standard-library or not.
type Import struct {
	Path  string
	IsStd bool
}

// HirModule is the lowering pass's output: the module's signature plus the
// bodies of its declarations and its import list.
type HirModule struct {
	Signature *ModuleSignature
	Functions map[string]*FunctionBody
	Classes   map[string]*ClassBody
	Imports   []Import
}
