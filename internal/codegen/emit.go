package codegen

import (
	"fmt"

	"github.com/fenlang/fen/internal/hir"
	"github.com/fenlang/fen/internal/ident"
	"github.com/fenlang/fen/internal/types"
)

type emitter struct {
	mod    *hir.HirModule
	arena  *types.Arena
	idents *ident.Pool

	stringPool  []string
	stringIndex map[string]int
	funcPool    []string
	funcIndex   map[string]int

	locals       []map[string]bool
	currentClass string
}

// Emit linearizes a checked HirModule into a Program.
func Emit(mod *hir.HirModule, arena *types.Arena, idents *ident.Pool) (*Program, error) {
	e := &emitter{
		mod:         mod,
		arena:       arena,
		idents:      idents,
		stringIndex: make(map[string]int),
		funcIndex:   make(map[string]int),
	}

	var labels []*Label

	for name, fb := range mod.Functions {
		body, err := e.emitFunction(name, fb.Signature, fb.Body, false)
		if err != nil {
			return nil, err
		}
		labels = append(labels, &Label{Name: name, Body: body})
	}

	var classes []ClassLayout
	for className, cb := range mod.Classes {
		csig := mod.Signature.Classes[className]
		e.currentClass = className

		for methodName, body := range cb.Methods {
			sig := csig.Methods[methodName]
			code, err := e.emitFunction(MethodLabel(className, methodName), sig, body, false)
			if err != nil {
				return nil, err
			}
			labels = append(labels, &Label{Name: MethodLabel(className, methodName), Body: code})
		}

		layout := ClassLayout{Name: className, Fields: append([]string{}, csig.FieldOrder...)}
		if cb.Constructor != nil {
			code, err := e.emitFunction(MethodLabel(className, "new"), csig.Constructor, cb.Constructor, true)
			if err != nil {
				return nil, err
			}
			labels = append(labels, &Label{Name: MethodLabel(className, "new"), Body: code})
			layout.HasConstructor = true
			layout.ConstructorArity = len(csig.Constructor.Params) - 1
		}
		if cb.Destructor != nil {
			code, err := e.emitFunction(MethodLabel(className, "delete"), csig.Destructor, cb.Destructor, true)
			if err != nil {
				return nil, err
			}
			labels = append(labels, &Label{Name: MethodLabel(className, "delete"), Body: code})
			layout.HasDestructor = true
		}
		classes = append(classes, layout)
		e.currentClass = ""
	}

	position := 0
	for _, l := range labels {
		l.Position = position
		position += len(l.Body)
	}

	var libraries []ImportedLibrary
	for _, imp := range mod.Imports {
		libraries = append(libraries, ImportedLibrary{Name: imp.Path, IsStd: imp.IsStd})
	}

	return &Program{
		EntryPoint: "main",
		Labels:     labels,
		Libraries:  libraries,
		Global:     ConstantPool{Strings: e.stringPool, Functions: e.funcPool},
		Classes:    classes,
	}, nil
}

// MethodLabel names the label a class member compiles to. CallMethod's bare
// method name is resolved against this same scheme at run time, using the
// receiver's runtime class name.
func MethodLabel(className, methodName string) string {
	return className + "." + methodName
}

func (e *emitter) pushScope() { e.locals = append(e.locals, make(map[string]bool)) }
func (e *emitter) popScope()  { e.locals = e.locals[:len(e.locals)-1] }

func (e *emitter) bindLocal(name string) {
	e.locals[len(e.locals)-1][name] = true
}

func (e *emitter) isLocal(name string) bool {
	for i := len(e.locals) - 1; i >= 0; i-- {
		if e.locals[i][name] {
			return true
		}
	}
	return false
}

func (e *emitter) stringIndexOf(s string) int {
	if i, ok := e.stringIndex[s]; ok {
		return i
	}
	i := len(e.stringPool)
	e.stringPool = append(e.stringPool, s)
	e.stringIndex[s] = i
	return i
}

func (e *emitter) funcIndexOf(label string) int {
	if i, ok := e.funcIndex[label]; ok {
		return i
	}
	i := len(e.funcPool)
	e.funcPool = append(e.funcPool, label)
	e.funcIndex[label] = i
	return i
}

// emitFunction builds a label body: the prologue (parameters stored in
// reverse order) followed by the statements of body, and a
// trailing implicit "return unit" if the body doesn't already end with one
// (constructors, destructors, and plain Unit-returning functions routinely
// omit an explicit return).
//
// injectSelf is true for constructors and destructors: their receiver is
// allocated by NewObj/DeleteObj at the call site rather than pushed by a
// caller, so the VM binds "self" directly into the callee's variable map
// instead of the body popping it off the stack; the prologue still binds the
// name for the emitter's own Load/Store local-vs-global disambiguation, it
// just skips the Store instruction for it. Ordinary instance methods receive
// self pushed by CallMethod like any other argument, so they don't set this.
func (e *emitter) emitFunction(name string, sig *hir.FunctionSignature, body *hir.BlockStmt, injectSelf bool) ([]Instruction, error) {
	e.pushScope()
	defer e.popScope()

	startIdx := 0
	if injectSelf {
		e.bindLocal(sig.Params[0].Name)
		startIdx = 1
	}

	var out []Instruction
	for i := len(sig.Params) - 1; i >= startIdx; i-- {
		p := sig.Params[i]
		out = append(out, Store{Name: p.Name})
		e.bindLocal(p.Name)
	}

	for _, s := range body.Statements {
		code, err := e.emitStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, code...)
	}

	if !endsWithReturn(body) {
		out = append(out, PushUnit{}, Return{})
	}

	if name == "main" {
		out = append(out, Halt{})
	}

	return out, nil
}

func endsWithReturn(body *hir.BlockStmt) bool {
	if len(body.Statements) == 0 {
		return false
	}
	_, ok := body.Statements[len(body.Statements)-1].(*hir.ReturnStmt)
	return ok
}

func (e *emitter) emitBlock(b *hir.BlockStmt) ([]Instruction, error) {
	e.pushScope()
	defer e.popScope()

	var out []Instruction
	for _, s := range b.Statements {
		code, err := e.emitStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, code...)
	}
	return out, nil
}

func (e *emitter) emitStmt(s hir.Stmt) ([]Instruction, error) {
	switch st := s.(type) {
	case *hir.ReturnStmt:
		var out []Instruction
		if st.Value != nil {
			v, err := e.emitExpr(st.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, v...)
		} else {
			out = append(out, PushUnit{})
		}
		out = append(out, Return{})
		return out, nil

	case *hir.LetStmt:
		v, err := e.emitExpr(st.Initializer)
		if err != nil {
			return nil, err
		}
		e.bindLocal(st.Name)
		return append(v, Store{Name: st.Name}), nil

	case *hir.ConstStmt:
		v, err := e.emitExpr(st.Initializer)
		if err != nil {
			return nil, err
		}
		e.bindLocal(st.Name)
		return append(v, Store{Name: st.Name}), nil

	case *hir.IfElseStmt:
		return e.emitIfElse(st)

	case *hir.WhileStmt:
		return e.emitWhile(st)

	case *hir.BreakStmt:
		return []Instruction{breakMarker{}}, nil

	case *hir.ContinueStmt:
		return []Instruction{continueMarker{}}, nil

	case *hir.BlockStmt:
		return e.emitBlock(st)

	case *hir.ExprStmt:
		v, err := e.emitExpr(st.Value)
		if err != nil {
			return nil, err
		}
		return append(v, Pop{}), nil

	default:
		return nil, fmt.Errorf("codegen: unsupported statement form %T", s)
	}
}

func (e *emitter) emitIfElse(st *hir.IfElseStmt) ([]Instruction, error) {
	cond, err := e.emitExpr(st.Condition)
	if err != nil {
		return nil, err
	}
	then, err := e.emitBlock(st.Then)
	if err != nil {
		return nil, err
	}

	var els []Instruction
	if st.Else != nil {
		els, err = e.emitBlock(st.Else)
		if err != nil {
			return nil, err
		}
	}

	out := append([]Instruction{}, cond...)
	hasElse := st.Else != nil
	skip := len(then)
	if hasElse {
		skip++
	}
	out = append(out, JmpZ{Offset: skip})
	out = append(out, then...)
	if hasElse {
		out = append(out, Jmp{Offset: len(els) + 1})
		out = append(out, els...)
	}
	return out, nil
}

// breakMarker and continueMarker are resolved to concrete Jmp instructions
// before emitWhile returns; they never appear in a finished Program.
type breakMarker struct{ base }
type continueMarker struct{ base }

func (e *emitter) emitWhile(st *hir.WhileStmt) ([]Instruction, error) {
	cond, err := e.emitExpr(st.Condition)
	if err != nil {
		return nil, err
	}
	body, err := e.emitBlock(st.Body)
	if err != nil {
		return nil, err
	}

	for i, instr := range body {
		switch instr.(type) {
		case breakMarker:
			body[i] = Jmp{Offset: len(body) + 1 - i}
		case continueMarker:
			body[i] = Jmp{Offset: -(len(cond) + 1 + i)}
		}
	}

	out := append([]Instruction{}, cond...)
	out = append(out, JmpZ{Offset: len(body) + 1})
	out = append(out, body...)
	backEdge := -(len(cond) + 1 + len(body))
	out = append(out, Jmp{Offset: backEdge})
	return out, nil
}

func (e *emitter) emitExpr(ex hir.Expr) ([]Instruction, error) {
	switch v := ex.(type) {
	case *hir.IntLiteral:
		return []Instruction{PushInt{Value: v.Value}}, nil
	case *hir.UIntLiteral:
		return []Instruction{PushUnsignedInt{Value: v.Value}}, nil
	case *hir.FloatLiteral:
		return []Instruction{PushFloat{Value: v.Value}}, nil
	case *hir.BoolLiteral:
		return []Instruction{PushBool{Value: v.Value}}, nil
	case *hir.CharLiteral:
		return []Instruction{PushChar{Value: v.Value}}, nil
	case *hir.UnitLiteral:
		return []Instruction{PushUnit{}}, nil
	case *hir.StringLiteral:
		return []Instruction{PushStr{Index: e.stringIndexOf(v.Value)}}, nil
	case *hir.NoneLiteral:
		return []Instruction{PushUnit{}}, nil

	case *hir.IdentExpr:
		if e.isLocal(v.Name) {
			return []Instruction{Load{Name: v.Name}}, nil
		}
		return []Instruction{PushFnPtr{Index: e.funcIndexOf(v.Name)}}, nil

	case *hir.SelfExpr:
		return []Instruction{Load{Name: "self"}}, nil

	case *hir.AssignExpr:
		return e.emitAssign(v)

	case *hir.BinaryOpExpr:
		return e.emitBinary(v)

	case *hir.UnaryExpr:
		return e.emitUnary(v)

	case *hir.CallExpr:
		return e.emitCall(v)

	case *hir.FieldAccessExpr:
		target, err := e.emitExpr(v.Target)
		if err != nil {
			return nil, err
		}
		return append(target, GetField{Name: v.Name}), nil

	case *hir.StaticAccessExpr:
		return e.emitStaticAccess(v)

	case *hir.IndexingExpr:
		target, err := e.emitExpr(v.Target)
		if err != nil {
			return nil, err
		}
		index, err := e.emitExpr(v.Index)
		if err != nil {
			return nil, err
		}
		out := append(target, index...)
		return append(out, ListLoad{}), nil

	case *hir.NewObjExpr:
		var out []Instruction
		for _, a := range v.Args {
			code, err := e.emitExpr(a)
			if err != nil {
				return nil, err
			}
			out = append(out, code...)
		}
		return append(out, NewObj{Name: v.ClassName}), nil

	case *hir.NewArrayExpr:
		size, err := e.emitExpr(v.Size)
		if err != nil {
			return nil, err
		}
		if v.Size.Type().Kind() != types.KindUInt64 {
			size = append(size, CastTo{Kind: CastUnsignedInteger})
		}
		return append(size, NewList{}), nil

	case *hir.DeleteExpr:
		target, err := e.emitExpr(v.Target)
		if err != nil {
			return nil, err
		}
		return append(target, DeleteObj{}), nil

	case *hir.CastExpr:
		target, err := e.emitExpr(v.Target)
		if err != nil {
			return nil, err
		}
		return append(target, CastTo{Kind: castKindOf(v.To)}), nil

	case *hir.ListLiteralExpr:
		return e.emitListLiteral(v)

	default:
		return nil, fmt.Errorf("codegen: unsupported expression form %T", ex)
	}
}

func (e *emitter) emitAssign(v *hir.AssignExpr) ([]Instruction, error) {
	switch target := v.Target.(type) {
	case *hir.IdentExpr:
		val, err := e.emitExpr(v.Value)
		if err != nil {
			return nil, err
		}
		return append(val, Store{Name: target.Name}), nil

	case *hir.IndexingExpr:
		index, err := e.emitExpr(target.Index)
		if err != nil {
			return nil, err
		}
		tgt, err := e.emitExpr(target.Target)
		if err != nil {
			return nil, err
		}
		val, err := e.emitExpr(v.Value)
		if err != nil {
			return nil, err
		}
		out := append(index, tgt...)
		out = append(out, val...)
		return append(out, ListStore{}), nil

	case *hir.FieldAccessExpr:
		tgt, err := e.emitExpr(target.Target)
		if err != nil {
			return nil, err
		}
		val, err := e.emitExpr(v.Value)
		if err != nil {
			return nil, err
		}
		out := append(tgt, val...)
		return append(out, SetField{Name: target.Name}), nil

	default:
		return nil, fmt.Errorf("codegen: unsupported assignment target %T", v.Target)
	}
}

func (e *emitter) emitBinary(v *hir.BinaryOpExpr) ([]Instruction, error) {
	if v.Op == hir.OpAnd {
		return e.emitShortCircuit(v, false)
	}
	if v.Op == hir.OpOr {
		return e.emitShortCircuit(v, true)
	}

	left, err := e.emitExpr(v.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.emitExpr(v.Right)
	if err != nil {
		return nil, err
	}
	out := append(left, right...)

	op, err := arithOrCompareOp(v.Op, v.Left.Type())
	if err != nil {
		return nil, err
	}
	return append(out, op), nil
}

// emitShortCircuit compiles && and || without a dedicated logical opcode,
// reusing the same Jmp/JmpZ shape as IfElse: "a && b" is "if a { b } else
// { false }", "a || b" is "if a { true } else { b }".
func (e *emitter) emitShortCircuit(v *hir.BinaryOpExpr, isOr bool) ([]Instruction, error) {
	left, err := e.emitExpr(v.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.emitExpr(v.Right)
	if err != nil {
		return nil, err
	}

	var then, els []Instruction
	if isOr {
		then = []Instruction{PushBool{Value: true}}
		els = right
	} else {
		then = right
		els = []Instruction{PushBool{Value: false}}
	}

	out := append([]Instruction{}, left...)
	out = append(out, JmpZ{Offset: len(then) + 1})
	out = append(out, then...)
	out = append(out, Jmp{Offset: len(els) + 1})
	out = append(out, els...)
	return out, nil
}

func (e *emitter) emitUnary(v *hir.UnaryExpr) ([]Instruction, error) {
	operand, err := e.emitExpr(v.Operand)
	if err != nil {
		return nil, err
	}

	switch v.Op {
	case hir.OpNeg:
		out := append(operand, PushInt{Value: 0})
		out = append(out, Swap{})
		return append(out, ISub{}), nil

	case hir.OpNot:
		out := append(operand, PushBool{Value: false})
		return append(out, Eq{}), nil

	default:
		return nil, fmt.Errorf("codegen: unknown unary operator")
	}
}

func (e *emitter) emitCall(v *hir.CallExpr) ([]Instruction, error) {
	switch callee := v.Callee.(type) {
	case *hir.IdentExpr:
		if e.isLocal(callee.Name) {
			fn, err := e.emitExpr(callee)
			if err != nil {
				return nil, err
			}
			args, err := e.emitArgs(v.Args)
			if err != nil {
				return nil, err
			}
			out := append(fn, args...)
			return append(out, DirectCall{Position: -1, NArgs: len(v.Args)}), nil
		}

		sig := e.mod.Signature.Functions[callee.Name]
		args, err := e.emitArgs(v.Args)
		if err != nil {
			return nil, err
		}
		if sig != nil && sig.IsExternal {
			name := sig.Name
			if v.MonomorphizedName != "" {
				name = v.MonomorphizedName
			}
			return append(args, ExternCall{Name: name, NArgs: len(v.Args)}), nil
		}
		return append(args, CallFunction{Name: callee.Name, NArgs: len(v.Args)}), nil

	case *hir.FieldAccessExpr:
		receiver, err := e.emitExpr(callee.Target)
		if err != nil {
			return nil, err
		}
		args, err := e.emitArgs(v.Args)
		if err != nil {
			return nil, err
		}
		out := append(receiver, args...)
		return append(out, CallMethod{Name: callee.Name, NArgs: len(v.Args)}), nil

	case *hir.StaticAccessExpr:
		args, err := e.emitArgs(v.Args)
		if err != nil {
			return nil, err
		}
		return append(args, CallFunction{Name: MethodLabel(callee.ClassName, callee.Name), NArgs: len(v.Args)}), nil

	default:
		return nil, fmt.Errorf("codegen: unsupported call callee form %T", v.Callee)
	}
}

func (e *emitter) emitArgs(args []hir.Expr) ([]Instruction, error) {
	var out []Instruction
	for _, a := range args {
		code, err := e.emitExpr(a)
		if err != nil {
			return nil, err
		}
		out = append(out, code...)
	}
	return out, nil
}

func (e *emitter) emitStaticAccess(v *hir.StaticAccessExpr) ([]Instruction, error) {
	csig := e.mod.Signature.Classes[v.ClassName]
	if val, ok := csig.ConstValues[v.Name]; ok {
		return e.emitExpr(val)
	}
	return []Instruction{PushFnPtr{Index: e.funcIndexOf(MethodLabel(v.ClassName, v.Name))}}, nil
}

// emitListLiteral follows element-store shape: the list
// reference is duplicated per element so ListStore's "[index, target,
// value]" operands line up while the original reference survives for the
// next iteration.
func (e *emitter) emitListLiteral(v *hir.ListLiteralExpr) ([]Instruction, error) {
	out := []Instruction{PushUnsignedInt{Value: uint64(len(v.Elements))}, NewList{}}
	for i, elem := range v.Elements {
		code, err := e.emitExpr(elem)
		if err != nil {
			return nil, err
		}
		out = append(out, Dup{}, PushUnsignedInt{Value: uint64(i)}, Swap{})
		out = append(out, code...)
		out = append(out, ListStore{})
	}
	return out, nil
}

func arithOrCompareOp(op hir.BinaryOperator, operandTy *types.Ty) (Instruction, error) {
	switch op {
	case hir.OpEq:
		return Eq{}, nil
	case hir.OpNeq:
		return Neq{}, nil
	case hir.OpLt:
		return Lt{}, nil
	case hir.OpGt:
		return Gt{}, nil
	case hir.OpLte:
		return Lte{}, nil
	case hir.OpGte:
		return Gte{}, nil
	}

	kind := operandTy.Kind()
	switch op {
	case hir.OpAdd:
		return arithByKind(kind, IAdd{}, UIAdd{}, FAdd{})
	case hir.OpSub:
		return arithByKind(kind, ISub{}, UISub{}, FSub{})
	case hir.OpMul:
		return arithByKind(kind, IMul{}, UIMul{}, FMul{})
	case hir.OpDiv:
		return arithByKind(kind, IDiv{}, UIDiv{}, FDiv{})
	case hir.OpMod:
		if kind == types.KindFloat64 {
			return nil, fmt.Errorf("codegen: modulo is not defined for Float64")
		}
		return arithByKind(kind, IMod{}, UIMod{}, IMod{})
	default:
		return nil, fmt.Errorf("codegen: unknown binary operator")
	}
}

func arithByKind(kind types.Kind, i, u, f Instruction) (Instruction, error) {
	switch kind {
	case types.KindInt64:
		return i, nil
	case types.KindUInt64:
		return u, nil
	case types.KindFloat64:
		return f, nil
	default:
		return nil, fmt.Errorf("codegen: arithmetic on non-numeric type %s", kind)
	}
}

func castKindOf(t *types.Ty) CastKind {
	switch t.Kind() {
	case types.KindFloat64:
		return CastFloat
	case types.KindUInt64:
		return CastUnsignedInteger
	case types.KindBool:
		return CastBoolean
	case types.KindChar:
		return CastChar
	case types.KindString:
		return CastString
	default:
		return CastInteger
	}
}
