package check

import (
	"strings"

	"github.com/fenlang/fen/internal/diag"
	"github.com/fenlang/fen/internal/hir"
	"github.com/fenlang/fen/internal/parsetree"
	"github.com/fenlang/fen/internal/types"
)

func (c *checker) checkExpr(e hir.Expr) (*types.Ty, error) {
	switch ex := e.(type) {
	case *hir.IntLiteral, *hir.UIntLiteral, *hir.FloatLiteral, *hir.BoolLiteral,
		*hir.CharLiteral, *hir.UnitLiteral, *hir.StringLiteral:
		return e.Type(), nil

	case *hir.NoneLiteral:
		ty := c.arena.GetNullable(c.arena.GetUninitialized())
		ex.SetType(ty)
		return ty, nil

	case *hir.IdentExpr:
		return c.checkIdent(ex)

	case *hir.SelfExpr:
		return c.checkSelf(ex)

	case *hir.AssignExpr:
		return c.checkAssign(ex)

	case *hir.BinaryOpExpr:
		return c.checkBinary(ex)

	case *hir.UnaryExpr:
		return c.checkUnary(ex)

	case *hir.CallExpr:
		return c.checkCall(ex)

	case *hir.FieldAccessExpr:
		return c.checkFieldAccess(ex)

	case *hir.StaticAccessExpr:
		return c.checkStaticAccess(ex)

	case *hir.IndexingExpr:
		return c.checkIndexing(ex)

	case *hir.NewObjExpr:
		return c.checkNewObj(ex)

	case *hir.NewArrayExpr:
		return c.checkNewArray(ex)

	case *hir.DeleteExpr:
		return c.checkDelete(ex)

	case *hir.CastExpr:
		return c.checkCast(ex)

	case *hir.ListLiteralExpr:
		return c.checkListLiteral(ex)

	default:
		return nil, diag.New("UnsupportedExpr", e.Span(), c.source, "unsupported expression form: %T", e)
	}
}

func (c *checker) checkIdent(ex *hir.IdentExpr) (*types.Ty, error) {
	if b, ok := c.lookup(ex.Name); ok {
		ex.SetType(b.ty)
		return b.ty, nil
	}
	if sig, ok := c.mod.Signature.Functions[ex.Name]; ok {
		ty := c.signatureType(sig)
		ex.SetType(ty)
		return ty, nil
	}
	return nil, diag.New("UnknownType", ex.Span(), c.source, "unknown identifier %q", ex.Name)
}

func (c *checker) checkSelf(ex *hir.SelfExpr) (*types.Ty, error) {
	if c.currentClass == "" {
		return nil, diag.New("UnsupportedExpr", ex.Span(), c.source, "self used outside a method")
	}
	ty := c.arena.GetNamed(c.idents.Intern(c.currentClass), types.Span{})
	ex.SetType(ty)
	return ty, nil
}

func (c *checker) checkAssign(ex *hir.AssignExpr) (*types.Ty, error) {
	valueTy, err := c.checkExpr(ex.Value)
	if err != nil {
		return nil, err
	}

	switch target := ex.Target.(type) {
	case *hir.IdentExpr:
		b, ok := c.lookup(target.Name)
		if !ok {
			return nil, diag.New("UnknownType", target.Span(), c.source, "unknown identifier %q", target.Name)
		}
		if !b.mutable {
			return nil, diag.New("TryingToMutateImmutableVariable", target.Span(), c.source, "%q is declared const", target.Name)
		}
		if b.ty != valueTy {
			return nil, diag.New("TypeMismatch", ex.Span(), c.source, "cannot assign %s to %q of type %s", valueTy, target.Name, b.ty)
		}
		target.SetType(b.ty)

	case *hir.IndexingExpr:
		elemTy, err := c.checkIndexing(target)
		if err != nil {
			return nil, err
		}
		if elemTy != valueTy {
			return nil, diag.New("TypeMismatch", ex.Span(), c.source, "cannot assign %s into an element of type %s", valueTy, elemTy)
		}

	case *hir.FieldAccessExpr:
		fieldTy, err := c.checkFieldAccess(target)
		if err != nil {
			return nil, err
		}
		if fieldTy != valueTy {
			return nil, diag.New("TypeMismatch", ex.Span(), c.source, "cannot assign %s to a field of type %s", valueTy, fieldTy)
		}

	default:
		return nil, diag.New("TypeMismatch", ex.Span(), c.source, "invalid assignment target")
	}

	ex.SetType(valueTy)
	return valueTy, nil
}

func (c *checker) checkBinary(ex *hir.BinaryOpExpr) (*types.Ty, error) {
	leftTy, err := c.checkExpr(ex.Left)
	if err != nil {
		return nil, err
	}
	rightTy, err := c.checkExpr(ex.Right)
	if err != nil {
		return nil, err
	}

	switch ex.Op {
	case hir.OpAnd, hir.OpOr:
		if leftTy != c.arena.GetBool() || rightTy != c.arena.GetBool() {
			return nil, diag.New("TypeMismatch", ex.Span(), c.source, "operands of %s must be Bool", binOpSymbol(ex.Op))
		}
		ex.SetType(c.arena.GetBool())
		return c.arena.GetBool(), nil

	case hir.OpEq, hir.OpNeq:
		if leftTy != rightTy {
			return nil, diag.New("TypeMismatch", ex.Span(), c.source, "cannot compare %s and %s", leftTy, rightTy)
		}
		ex.SetType(c.arena.GetBool())
		return c.arena.GetBool(), nil

	case hir.OpLt, hir.OpLte, hir.OpGt, hir.OpGte:
		if leftTy != rightTy || !c.isNumeric(leftTy) {
			return nil, diag.New("TypeMismatch", ex.Span(), c.source, "cannot compare %s and %s", leftTy, rightTy)
		}
		ex.SetType(c.arena.GetBool())
		return c.arena.GetBool(), nil

	case hir.OpMod:
		if leftTy != rightTy || (leftTy.Kind() != types.KindInt64 && leftTy.Kind() != types.KindUInt64) {
			return nil, diag.New("TypeMismatch", ex.Span(), c.source, "%% requires two Int64 or two UInt64 operands, got %s and %s", leftTy, rightTy)
		}
		ex.SetType(leftTy)
		return leftTy, nil

	default:
		if leftTy != rightTy || !c.isNumeric(leftTy) {
			return nil, diag.New("TypeMismatch", ex.Span(), c.source, "cannot apply %s to %s and %s", binOpSymbol(ex.Op), leftTy, rightTy)
		}
		ex.SetType(leftTy)
		return leftTy, nil
	}
}

func (c *checker) checkUnary(ex *hir.UnaryExpr) (*types.Ty, error) {
	operandTy, err := c.checkExpr(ex.Operand)
	if err != nil {
		return nil, err
	}

	switch ex.Op {
	case hir.OpNeg:
		switch operandTy.Kind() {
		case types.KindInt64:
			ex.SetType(operandTy)
			return operandTy, nil
		case types.KindUInt64:
			return nil, diag.New("TryingToNegateUnsigned", ex.Span(), c.source, "cannot negate a UInt64 value")
		default:
			return nil, diag.New("TypeMismatch", ex.Span(), c.source, "cannot negate %s", operandTy)
		}

	case hir.OpNot:
		if operandTy != c.arena.GetBool() {
			return nil, diag.New("TypeMismatch", ex.Span(), c.source, "operand of ! must be Bool, got %s", operandTy)
		}
		ex.SetType(c.arena.GetBool())
		return c.arena.GetBool(), nil

	default:
		return nil, diag.New("UnsupportedExpr", ex.Span(), c.source, "unknown unary operator")
	}
}

func (c *checker) checkFieldAccess(ex *hir.FieldAccessExpr) (*types.Ty, error) {
	targetTy, err := c.checkExpr(ex.Target)
	if err != nil {
		return nil, err
	}
	className, err := c.classNameOf(targetTy, ex.Span())
	if err != nil {
		return nil, err
	}
	csig := c.mod.Signature.Classes[className]
	field, ok := csig.Fields[ex.Name]
	if !ok {
		return nil, diag.New("NoFieldInClass", ex.Span(), c.source, "class %q has no field %q", className, ex.Name)
	}
	if c.currentClass != className && field.Visibility == parsetree.VisibilityPrivate {
		return nil, diag.New("AccessingPrivateField", ex.Span(), c.source, "%s.%s is private", className, ex.Name)
	}
	ex.SetType(field.Type)
	return field.Type, nil
}

func (c *checker) checkStaticAccess(ex *hir.StaticAccessExpr) (*types.Ty, error) {
	csig, ok := c.mod.Signature.Classes[ex.ClassName]
	if !ok {
		return nil, diag.New("UnknownType", ex.Span(), c.source, "unknown class %q", ex.ClassName)
	}
	if ty, ok := csig.Constants[ex.Name]; ok {
		ex.SetType(ty)
		return ty, nil
	}
	if method, ok := csig.Methods[ex.Name]; ok {
		if method.Modifier == parsetree.ModifierInstance {
			return nil, diag.New("TypeMismatch", ex.Span(), c.source, "%s::%s is an instance method and cannot be accessed statically", ex.ClassName, ex.Name)
		}
		ty := c.signatureType(method)
		ex.SetType(ty)
		return ty, nil
	}
	if _, ok := csig.Fields[ex.Name]; ok {
		return nil, diag.New("AccessingClassFieldOutsideClass", ex.Span(), c.source, "%s.%s is an instance field, not reachable via %s::%s", ex.ClassName, ex.Name, ex.ClassName, ex.Name)
	}
	return nil, diag.New("NoFieldInClass", ex.Span(), c.source, "class %q has no static member %q", ex.ClassName, ex.Name)
}

func (c *checker) checkIndexing(ex *hir.IndexingExpr) (*types.Ty, error) {
	targetTy, err := c.checkExpr(ex.Target)
	if err != nil {
		return nil, err
	}
	idxTy, err := c.checkExpr(ex.Index)
	if err != nil {
		return nil, err
	}
	if idxTy != c.arena.GetInt64() && idxTy != c.arena.GetUInt64() {
		return nil, diag.New("TypeMismatch", ex.Index.Span(), c.source, "index must be Int64 or UInt64, got %s", idxTy)
	}

	var resultTy *types.Ty
	switch targetTy.Kind() {
	case types.KindList:
		resultTy = targetTy.Elem()
	case types.KindString:
		resultTy = c.arena.GetChar()
	default:
		return nil, diag.New("TypeMismatch", ex.Target.Span(), c.source, "cannot index %s", targetTy)
	}
	ex.SetType(resultTy)
	return resultTy, nil
}

func (c *checker) checkNewObj(ex *hir.NewObjExpr) (*types.Ty, error) {
	csig, ok := c.mod.Signature.Classes[ex.ClassName]
	if !ok {
		return nil, diag.New("UnknownType", ex.Span(), c.source, "unknown class %q", ex.ClassName)
	}
	var params []hir.Param
	if csig.Constructor != nil {
		params = csig.Constructor.Params[1:]
	}
	if len(params) != len(ex.Args) {
		return nil, diag.New("FunctionTypeMismatch", ex.Span(), c.source, "%s constructor expects %d argument(s), got %d", ex.ClassName, len(params), len(ex.Args))
	}
	for i, p := range params {
		t, err := c.checkExpr(ex.Args[i])
		if err != nil {
			return nil, err
		}
		if p.Type != t {
			return nil, diag.New("FunctionTypeMismatch", ex.Args[i].Span(), c.source, "constructor argument %d: expected %s, got %s", i+1, p.Type, t)
		}
	}
	ty := c.arena.GetNamed(c.idents.Intern(ex.ClassName), types.Span{})
	ex.SetType(ty)
	return ty, nil
}

func (c *checker) checkNewArray(ex *hir.NewArrayExpr) (*types.Ty, error) {
	sizeTy, err := c.checkExpr(ex.Size)
	if err != nil {
		return nil, err
	}
	if sizeTy != c.arena.GetInt64() && sizeTy != c.arena.GetUInt64() {
		return nil, diag.New("TypeMismatch", ex.Size.Span(), c.source, "array size must be Int64 or UInt64, got %s", sizeTy)
	}
	ty := c.arena.GetList(ex.ElemType)
	ex.SetType(ty)
	return ty, nil
}

func (c *checker) checkDelete(ex *hir.DeleteExpr) (*types.Ty, error) {
	targetTy, err := c.checkExpr(ex.Target)
	if err != nil {
		return nil, err
	}
	className, err := c.classNameOf(targetTy, ex.Span())
	if err != nil {
		return nil, diag.New("TypeMismatch", ex.Span(), c.source, "cannot delete a non-class value of type %s", targetTy)
	}
	csig := c.mod.Signature.Classes[className]
	if csig.Destructor == nil {
		return nil, diag.New("TypeMismatch", ex.Span(), c.source, "class %q has no destructor", className)
	}
	ty := c.arena.GetUnit()
	ex.SetType(ty)
	return ty, nil
}

func (c *checker) checkCast(ex *hir.CastExpr) (*types.Ty, error) {
	srcTy, err := c.checkExpr(ex.Target)
	if err != nil {
		return nil, err
	}
	if !c.isCastable(srcTy) || !c.isCastable(ex.To) {
		return nil, diag.New("TypeMismatch", ex.Span(), c.source, "cannot cast %s to %s", srcTy, ex.To)
	}
	ex.SetType(ex.To)
	return ex.To, nil
}

func (c *checker) checkListLiteral(ex *hir.ListLiteralExpr) (*types.Ty, error) {
	if len(ex.Elements) == 0 {
		return nil, diag.New("EmptyListLiteral", ex.Span(), c.source, "list literal must have at least one element")
	}
	first, err := c.checkExpr(ex.Elements[0])
	if err != nil {
		return nil, err
	}
	for _, el := range ex.Elements[1:] {
		t, err := c.checkExpr(el)
		if err != nil {
			return nil, err
		}
		if t != first {
			return nil, diag.New("TypeMismatch", el.Span(), c.source, "list element: expected %s, got %s", first, t)
		}
	}
	ty := c.arena.GetList(first)
	ex.SetType(ty)
	return ty, nil
}

// checkCall resolves a call's callee (free function, extern, instance method,
// static method, or a first-class function value) and checks its arguments
//.
func (c *checker) checkCall(ex *hir.CallExpr) (*types.Ty, error) {
	switch callee := ex.Callee.(type) {
	case *hir.IdentExpr:
		if b, ok := c.lookup(callee.Name); ok {
			callee.SetType(b.ty)
			return c.checkDirectCall(ex, b.ty)
		}
		sig, ok := c.mod.Signature.Functions[callee.Name]
		if !ok {
			return nil, diag.New("UnknownType", ex.Span(), c.source, "unknown function %q", callee.Name)
		}
		callee.SetType(c.signatureType(sig))
		return c.checkNamedCall(ex, sig, ex.Args)

	case *hir.FieldAccessExpr:
		targetTy, err := c.checkExpr(callee.Target)
		if err != nil {
			return nil, err
		}
		className, err := c.classNameOf(targetTy, callee.Span())
		if err != nil {
			return nil, err
		}
		method, err := c.resolveMethod(className, callee.Name, callee.Span(), false)
		if err != nil {
			return nil, err
		}
		callee.SetType(c.signatureType(method))
		return c.checkMethodCall(ex, method)

	case *hir.StaticAccessExpr:
		method, err := c.resolveMethod(callee.ClassName, callee.Name, callee.Span(), true)
		if err != nil {
			return nil, err
		}
		callee.SetType(c.signatureType(method))
		return c.checkNamedCall(ex, method, ex.Args)

	default:
		return nil, diag.New("UnsupportedExpr", ex.Span(), c.source, "unsupported call callee form")
	}
}

func (c *checker) resolveMethod(className, methodName string, span diag.Span, static bool) (*hir.FunctionSignature, error) {
	csig, ok := c.mod.Signature.Classes[className]
	if !ok {
		return nil, diag.New("UnknownType", span, c.source, "unknown class %q", className)
	}
	method, ok := csig.Methods[methodName]
	if !ok {
		return nil, diag.New("NoFieldInClass", span, c.source, "class %q has no member %q", className, methodName)
	}
	if static && method.Modifier == parsetree.ModifierInstance {
		return nil, diag.New("TypeMismatch", span, c.source, "%s::%s is an instance method", className, methodName)
	}
	if !static && method.Modifier != parsetree.ModifierInstance {
		return nil, diag.New("TypeMismatch", span, c.source, "%s.%s is a static method; call it as %s::%s", className, methodName, className, methodName)
	}
	if c.currentClass != className && method.Visibility == parsetree.VisibilityPrivate {
		return nil, diag.New("AccessingPrivateField", span, c.source, "%s.%s is private", className, methodName)
	}
	return method, nil
}

// checkNamedCall checks a call against a free function, extern, or static
// method signature (params align 1:1 with args, no implicit receiver).
func (c *checker) checkNamedCall(ex *hir.CallExpr, sig *hir.FunctionSignature, args []hir.Expr) (*types.Ty, error) {
	argTys := make([]*types.Ty, len(args))
	for i, a := range args {
		t, err := c.checkExpr(a)
		if err != nil {
			return nil, err
		}
		argTys[i] = t
	}

	if sig.IsExternal && len(sig.Generics) > 0 {
		mono, err := c.monomorphize(sig, argTys, ex.Span())
		if err != nil {
			return nil, err
		}
		ex.MonomorphizedName = mono.Name
		ex.SetType(mono.Return)
		return mono.Return, nil
	}

	if len(sig.Params) != len(argTys) {
		return nil, diag.New("FunctionTypeMismatch", ex.Span(), c.source, "%s expects %d argument(s), got %d", sig.Name, len(sig.Params), len(argTys))
	}
	for i, p := range sig.Params {
		if p.Type != argTys[i] {
			return nil, diag.New("FunctionTypeMismatch", args[i].Span(), c.source, "argument %d to %s: expected %s, got %s", i+1, sig.Name, p.Type, argTys[i])
		}
	}
	ex.SetType(sig.Return)
	return sig.Return, nil
}

// checkMethodCall checks a call against an instance method signature whose
// first parameter is the implicit "self" receiver, already type-checked as
// the FieldAccessExpr's target.
func (c *checker) checkMethodCall(ex *hir.CallExpr, sig *hir.FunctionSignature) (*types.Ty, error) {
	expected := sig.Params[1:]
	if len(expected) != len(ex.Args) {
		return nil, diag.New("FunctionTypeMismatch", ex.Span(), c.source, "%s expects %d argument(s), got %d", sig.Name, len(expected), len(ex.Args))
	}
	for i, p := range expected {
		t, err := c.checkExpr(ex.Args[i])
		if err != nil {
			return nil, err
		}
		if p.Type != t {
			return nil, diag.New("FunctionTypeMismatch", ex.Args[i].Span(), c.source, "argument %d to %s: expected %s, got %s", i+1, sig.Name, p.Type, t)
		}
	}
	ex.SetType(sig.Return)
	return sig.Return, nil
}

// checkDirectCall checks a call through a first-class function value (e.g. a
// local bound to a function's signature type), the "DirectCall" extension
// point resolved in SPEC_FULL.md's Open Question Resolutions.
func (c *checker) checkDirectCall(ex *hir.CallExpr, fnTy *types.Ty) (*types.Ty, error) {
	if fnTy.Kind() != types.KindFunction {
		return nil, diag.New("FunctionTypeMismatch", ex.Span(), c.source, "value of type %s is not callable", fnTy)
	}
	params := fnTy.Params()
	if len(params) != len(ex.Args) {
		return nil, diag.New("FunctionTypeMismatch", ex.Span(), c.source, "expected %d argument(s), got %d", len(params), len(ex.Args))
	}
	for i, pt := range params {
		t, err := c.checkExpr(ex.Args[i])
		if err != nil {
			return nil, err
		}
		if pt != t {
			return nil, diag.New("FunctionTypeMismatch", ex.Args[i].Span(), c.source, "argument %d: expected %s, got %s", i+1, pt, t)
		}
	}
	ex.SetType(fnTy.Return())
	return fnTy.Return(), nil
}

// monomorphize implements generic-extern monomorphization
// subroutine, caching by (extern name, concrete argument types).
func (c *checker) monomorphize(sig *hir.FunctionSignature, argTys []*types.Ty, span diag.Span) (*hir.FunctionSignature, error) {
	if len(sig.Params) != len(argTys) {
		return nil, diag.New("FunctionTypeMismatch", span, c.source, "%s expects %d argument(s), got %d", sig.Name, len(sig.Params), len(argTys))
	}

	key := monoCacheKey(sig.Name, argTys)
	if cached, ok := c.monoCache[key]; ok {
		return cached, nil
	}

	generics := make(map[string]bool, len(sig.Generics))
	for _, g := range sig.Generics {
		generics[g] = true
	}

	bindings := make(map[string]*types.Ty, len(sig.Generics))
	for i, p := range sig.Params {
		if err := c.bindGeneric(p.Type, argTys[i], generics, bindings, span); err != nil {
			return nil, err
		}
	}
	for g := range generics {
		if _, ok := bindings[g]; !ok {
			return nil, diag.New("TypeMismatch", span, c.source, "generic parameter %q of %s could not be inferred", g, sig.Name)
		}
	}

	monoParams := make([]hir.Param, len(sig.Params))
	for i, p := range sig.Params {
		monoParams[i] = hir.Param{Name: p.Name, Type: c.substituteGeneric(p.Type, generics, bindings), Span: p.Span}
	}
	mono := &hir.FunctionSignature{
		Name:       key,
		Params:     monoParams,
		Return:     c.substituteGeneric(sig.Return, generics, bindings),
		IsExternal: true,
	}
	c.monoCache[key] = mono
	return mono, nil
}

func (c *checker) bindGeneric(param, arg *types.Ty, generics map[string]bool, bindings map[string]*types.Ty, span diag.Span) error {
	switch param.Kind() {
	case types.KindNamed:
		name := c.idents.Text(param.Name())
		if !generics[name] {
			if param != arg {
				return diag.New("TypeMismatch", span, c.source, "expected %s, got %s", param, arg)
			}
			return nil
		}
		if existing, ok := bindings[name]; ok {
			if existing != arg {
				return diag.New("TypeMismatch", span, c.source, "generic parameter %q bound to both %s and %s", name, existing, arg)
			}
			return nil
		}
		bindings[name] = arg
		return nil

	case types.KindList:
		if arg.Kind() != types.KindList {
			return diag.New("TypeMismatch", span, c.source, "expected a list, got %s", arg)
		}
		return c.bindGeneric(param.Elem(), arg.Elem(), generics, bindings, span)

	default:
		if param != arg {
			return diag.New("TypeMismatch", span, c.source, "expected %s, got %s", param, arg)
		}
		return nil
	}
}

func (c *checker) substituteGeneric(t *types.Ty, generics map[string]bool, bindings map[string]*types.Ty) *types.Ty {
	switch t.Kind() {
	case types.KindNamed:
		name := c.idents.Text(t.Name())
		if generics[name] {
			return bindings[name]
		}
		return t
	case types.KindList:
		return c.arena.GetList(c.substituteGeneric(t.Elem(), generics, bindings))
	case types.KindNullable:
		return c.arena.GetNullable(c.substituteGeneric(t.Elem(), generics, bindings))
	default:
		return t
	}
}

func monoCacheKey(name string, argTys []*types.Ty) string {
	var sb strings.Builder
	sb.WriteString(name)
	for _, t := range argTys {
		sb.WriteByte('#')
		sb.WriteString(t.String())
	}
	return sb.String()
}
