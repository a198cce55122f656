// Package check implements Fen's type checker: given a mutable
// HirModule, it annotates every expression with a concrete type and
// monomorphizes generic extern calls in place.
package check

import (
	"github.com/fenlang/fen/internal/diag"
	"github.com/fenlang/fen/internal/hir"
	"github.com/fenlang/fen/internal/ident"
	"github.com/fenlang/fen/internal/types"
)

type binding struct {
	ty      *types.Ty
	mutable bool
	span    diag.Span
}

type scope struct {
	vars map[string]*binding
}

func newScope() *scope { return &scope{vars: make(map[string]*binding)} }

type checker struct {
	arena  *types.Arena
	idents *ident.Pool
	source *diag.Source
	mod    *hir.HirModule

	scopes       []*scope
	currentFn    *hir.FunctionSignature
	currentClass string
	loopDepth    int

	monoCache map[string]*hir.FunctionSignature
}

// Check type-checks every function and class body in mod, mutating it in
// place. It returns the first error encountered.
func Check(mod *hir.HirModule, arena *types.Arena, idents *ident.Pool, source *diag.Source) error {
	c := &checker{
		arena:     arena,
		idents:    idents,
		source:    source,
		mod:       mod,
		monoCache: make(map[string]*hir.FunctionSignature),
	}

	if _, ok := mod.Signature.Functions["main"]; !ok {
		return diag.New("NoMainFunction", diag.Span{}, source, "module declares no main function")
	}

	for name, fb := range mod.Functions {
		sig := mod.Signature.Functions[name]
		if err := c.checkFunctionBody(sig, fb.Body); err != nil {
			return err
		}
	}

	for className, cb := range mod.Classes {
		if err := c.checkClassBody(className, cb); err != nil {
			return err
		}
	}

	return nil
}

func (c *checker) checkFunctionBody(sig *hir.FunctionSignature, body *hir.BlockStmt) error {
	prevFn := c.currentFn
	c.currentFn = sig
	defer func() { c.currentFn = prevFn }()

	c.pushScope()
	defer c.popScope()
	for _, p := range sig.Params {
		c.bind(p.Name, p.Type, true, p.Span)
	}

	for _, s := range body.Statements {
		if err := c.checkStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) checkClassBody(className string, cb *hir.ClassBody) error {
	csig := c.mod.Signature.Classes[className]
	prevClass := c.currentClass
	c.currentClass = className
	defer func() { c.currentClass = prevClass }()

	for name, body := range cb.Methods {
		sig := csig.Methods[name]
		if err := c.checkFunctionBody(sig, body); err != nil {
			return err
		}
	}
	if cb.Constructor != nil {
		if err := c.checkFunctionBody(csig.Constructor, cb.Constructor); err != nil {
			return err
		}
	}
	if cb.Destructor != nil {
		if err := c.checkFunctionBody(csig.Destructor, cb.Destructor); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) pushScope() { c.scopes = append(c.scopes, newScope()) }
func (c *checker) popScope()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *checker) bind(name string, ty *types.Ty, mutable bool, span diag.Span) {
	c.scopes[len(c.scopes)-1].vars[name] = &binding{ty: ty, mutable: mutable, span: span}
}

func (c *checker) lookup(name string) (*binding, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if b, ok := c.scopes[i].vars[name]; ok {
			return b, true
		}
	}
	return nil, false
}

func (c *checker) checkBlock(b *hir.BlockStmt) error {
	c.pushScope()
	defer c.popScope()
	for _, s := range b.Statements {
		if err := c.checkStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) checkStmt(s hir.Stmt) error {
	switch st := s.(type) {
	case *hir.ReturnStmt:
		ty := c.arena.GetUnit()
		if st.Value != nil {
			t, err := c.checkExpr(st.Value)
			if err != nil {
				return err
			}
			ty = t
		}
		if ty != c.currentFn.Return {
			return c.typeMismatch(st.Span(), c.currentFn.Return, ty)
		}
		return nil

	case *hir.LetStmt:
		initTy, err := c.checkExpr(st.Initializer)
		if err != nil {
			return err
		}
		if st.Declared == nil {
			st.Declared = initTy
		} else if st.Declared != initTy {
			return c.typeMismatch(st.Span(), st.Declared, initTy)
		}
		c.bind(st.Name, st.Declared, true, st.NameSpan)
		return nil

	case *hir.ConstStmt:
		initTy, err := c.checkExpr(st.Initializer)
		if err != nil {
			return err
		}
		if st.Declared == nil {
			st.Declared = initTy
		} else if st.Declared != initTy {
			return c.typeMismatch(st.Span(), st.Declared, initTy)
		}
		c.bind(st.Name, st.Declared, false, st.NameSpan)
		return nil

	case *hir.IfElseStmt:
		condTy, err := c.checkExpr(st.Condition)
		if err != nil {
			return err
		}
		if condTy != c.arena.GetBool() {
			return c.typeMismatch(st.Condition.Span(), c.arena.GetBool(), condTy)
		}
		if err := c.checkBlock(st.Then); err != nil {
			return err
		}
		if st.Else != nil {
			return c.checkBlock(st.Else)
		}
		return nil

	case *hir.WhileStmt:
		condTy, err := c.checkExpr(st.Condition)
		if err != nil {
			return err
		}
		if condTy != c.arena.GetBool() {
			return c.typeMismatch(st.Condition.Span(), c.arena.GetBool(), condTy)
		}
		c.loopDepth++
		err = c.checkBlock(st.Body)
		c.loopDepth--
		return err

	case *hir.BreakStmt:
		if c.loopDepth == 0 {
			return diag.New("UnsupportedStatement", st.Span(), c.source, "break used outside a while loop")
		}
		return nil

	case *hir.ContinueStmt:
		if c.loopDepth == 0 {
			return diag.New("UnsupportedStatement", st.Span(), c.source, "continue used outside a while loop")
		}
		return nil

	case *hir.BlockStmt:
		return c.checkBlock(st)

	case *hir.ExprStmt:
		_, err := c.checkExpr(st.Value)
		return err

	default:
		return diag.New("UnsupportedStatement", s.Span(), c.source, "unsupported statement form: %T", s)
	}
}

func (c *checker) typeMismatch(span diag.Span, expected, got *types.Ty) error {
	return diag.New("TypeMismatch", span, c.source, "expected %s, got %s", expected, got)
}

func (c *checker) isNumeric(t *types.Ty) bool {
	switch t.Kind() {
	case types.KindInt64, types.KindFloat64, types.KindUInt64:
		return true
	default:
		return false
	}
}

func (c *checker) isCastable(t *types.Ty) bool {
	switch t.Kind() {
	case types.KindInt64, types.KindFloat64, types.KindUInt64, types.KindBool, types.KindChar, types.KindString:
		return true
	default:
		return false
	}
}

func (c *checker) signatureType(sig *hir.FunctionSignature) *types.Ty {
	params := make([]*types.Ty, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = p.Type
	}
	return c.arena.GetFunction(sig.Return, params)
}

func (c *checker) classNameOf(ty *types.Ty, span diag.Span) (string, error) {
	if ty.Kind() != types.KindNamed {
		return "", diag.New("TypeMismatch", span, c.source, "expected a class instance, got %s", ty)
	}
	name := c.idents.Text(ty.Name())
	if _, ok := c.mod.Signature.Classes[name]; !ok {
		return "", diag.New("UnknownType", span, c.source, "unknown class %q", name)
	}
	return name, nil
}

func binOpSymbol(op hir.BinaryOperator) string {
	switch op {
	case hir.OpAdd:
		return "+"
	case hir.OpSub:
		return "-"
	case hir.OpMul:
		return "*"
	case hir.OpDiv:
		return "/"
	case hir.OpMod:
		return "%"
	case hir.OpEq:
		return "=="
	case hir.OpNeq:
		return "!="
	case hir.OpLt:
		return "<"
	case hir.OpLte:
		return "<="
	case hir.OpGt:
		return ">"
	case hir.OpGte:
		return ">="
	case hir.OpAnd:
		return "&&"
	case hir.OpOr:
		return "||"
	default:
		return "?"
	}
}
