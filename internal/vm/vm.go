package vm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fenlang/fen/internal/codegen"
)

// VM executes a compiled Program: a fetch-decode-dispatch loop over an
// operand stack, a call-frame stack, a stack of per-call variable maps, and
// a reference-counted object heap.
type VM struct {
	program *codegen.Program
	instrs  []codegen.Instruction

	pc      int
	stack   []Value
	frames  []CallFrame
	varmaps []map[string]Value
	heap    *heap
	externs map[string]ExternFunc

	maxOperandStack int
	maxCallDepth    int
}

const (
	defaultMaxOperandStack = 1 << 16
	defaultMaxCallDepth    = 1 << 16
)

// SetLimits overrides the VM's resource ceilings (zero leaves the
// corresponding limit at its default). The CLI wires these from the loaded
// fen.yml (internal/config.Config).
func (vm *VM) SetLimits(maxOperandStack, maxCallDepth int) {
	if maxOperandStack > 0 {
		vm.maxOperandStack = maxOperandStack
	}
	if maxCallDepth > 0 {
		vm.maxCallDepth = maxCallDepth
	}
}

// NewVM flattens program's labels into one instruction stream and resolves
// its entry point. externs is keyed by extern name: an ExternCall looks up
// its exact Name first and, for a monomorphized "name#Type..." key, falls
// back to the base name before the first "#".
func NewVM(program *codegen.Program, externs map[string]ExternFunc) (*VM, error) {
	entry, ok := program.FindLabel(program.EntryPoint)
	if !ok {
		return nil, runtimeErr(ErrEntryPointNotFound, "no %q label in program", program.EntryPoint)
	}

	var instrs []codegen.Instruction
	for _, l := range program.Labels {
		instrs = append(instrs, l.Body...)
	}

	return &VM{
		program:         program,
		instrs:          instrs,
		pc:              entry.Position,
		varmaps:         []map[string]Value{make(map[string]Value)},
		heap:            newHeap(),
		externs:         externs,
		maxOperandStack: defaultMaxOperandStack,
		maxCallDepth:    defaultMaxCallDepth,
	}, nil
}

func (vm *VM) push(v Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() (Value, error) {
	if len(vm.stack) == 0 {
		return Value{}, runtimeErr(ErrStackUnderflow, "pop on empty operand stack")
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

func (vm *VM) peekAt(depth int) (Value, error) {
	idx := len(vm.stack) - 1 - depth
	if idx < 0 {
		return Value{}, runtimeErr(ErrStackUnderflow, "peek past bottom of operand stack")
	}
	return vm.stack[idx], nil
}

func (vm *VM) varmap() map[string]Value { return vm.varmaps[len(vm.varmaps)-1] }

// Run drives the fetch-decode-dispatch loop to completion, returning
// whatever value main's Return (or the trailing Halt) leaves behind.
func (vm *VM) Run() (Value, error) {
	for {
		if vm.pc < 0 || vm.pc >= len(vm.instrs) {
			return Value{}, runtimeErr(ErrInvalidOperation, "program counter %d out of range", vm.pc)
		}
		instr := vm.instrs[vm.pc]

		if _, ok := instr.(codegen.Halt); ok {
			if len(vm.stack) > 0 {
				return vm.stack[len(vm.stack)-1], nil
			}
			return UnitValue(), nil
		}

		done, result, err := vm.step(instr)
		if err != nil {
			return Value{}, err
		}
		if done {
			return result, nil
		}
		if len(vm.stack) > vm.maxOperandStack {
			return Value{}, runtimeErr(ErrStackOverflow, "operand stack depth exceeded")
		}
	}
}

// step executes one instruction, advancing vm.pc as a side effect. It
// reports done=true with the program's result once a Return with no
// enclosing call frame is reached (main's own return).
func (vm *VM) step(instr codegen.Instruction) (done bool, result Value, err error) {
	switch in := instr.(type) {
	case codegen.Pop:
		if _, err := vm.pop(); err != nil {
			return false, Value{}, err
		}
		vm.pc++

	case codegen.Swap:
		a, err := vm.pop()
		if err != nil {
			return false, Value{}, err
		}
		b, err := vm.pop()
		if err != nil {
			return false, Value{}, err
		}
		vm.push(a)
		vm.push(b)
		vm.pc++

	case codegen.Dup:
		v, err := vm.pop()
		if err != nil {
			return false, Value{}, err
		}
		vm.push(v)
		vm.push(v)
		vm.pc++

	case codegen.PushInt:
		vm.push(IntValue(in.Value))
		vm.pc++
	case codegen.PushUnsignedInt:
		vm.push(UIntValue(in.Value))
		vm.pc++
	case codegen.PushFloat:
		vm.push(FloatValue(in.Value))
		vm.pc++
	case codegen.PushBool:
		vm.push(BoolValue(in.Value))
		vm.pc++
	case codegen.PushChar:
		vm.push(CharValue(in.Value))
		vm.pc++
	case codegen.PushUnit:
		vm.push(UnitValue())
		vm.pc++

	case codegen.PushStr:
		if in.Index < 0 || in.Index >= len(vm.program.Global.Strings) {
			return false, Value{}, runtimeErr(ErrInvalidOperation, "string constant index %d out of range", in.Index)
		}
		vm.push(RefValue(vm.heap.AllocString(vm.program.Global.Strings[in.Index])))
		vm.pc++

	case codegen.PushFnPtr:
		if in.Index < 0 || in.Index >= len(vm.program.Global.Functions) {
			return false, Value{}, runtimeErr(ErrInvalidOperation, "function constant index %d out of range", in.Index)
		}
		label, ok := vm.program.FindLabel(vm.program.Global.Functions[in.Index])
		if !ok {
			return false, Value{}, runtimeErr(ErrInvalidOperation, "unresolved function reference %q", vm.program.Global.Functions[in.Index])
		}
		vm.push(FnPtrValue(label.Position))
		vm.pc++

	case codegen.Load:
		v, ok := vm.varmap()[in.Name]
		if !ok {
			return false, Value{}, runtimeErr(ErrInvalidOperation, "read of unbound variable %q", in.Name)
		}
		vm.push(v)
		vm.pc++

	case codegen.Store:
		v, err := vm.pop()
		if err != nil {
			return false, Value{}, err
		}
		vm.storeVar(in.Name, v)
		vm.pc++

	case codegen.IAdd, codegen.UIAdd, codegen.FAdd, codegen.ISub, codegen.UISub, codegen.FSub,
		codegen.IMul, codegen.UIMul, codegen.FMul, codegen.IDiv, codegen.UIDiv, codegen.FDiv,
		codegen.IMod, codegen.UIMod:
		if err := vm.arith(instr); err != nil {
			return false, Value{}, err
		}
		vm.pc++

	case codegen.Eq, codegen.Neq, codegen.Lt, codegen.Gt, codegen.Lte, codegen.Gte:
		if err := vm.compare(instr); err != nil {
			return false, Value{}, err
		}
		vm.pc++

	case codegen.Jmp:
		vm.pc += in.Offset

	case codegen.JmpZ:
		v, err := vm.pop()
		if err != nil {
			return false, Value{}, err
		}
		if v.Kind != KindBool {
			return false, Value{}, runtimeErr(ErrInvalidOperation, "JmpZ on non-Bool value")
		}
		if !v.B {
			vm.pc += in.Offset
		} else {
			vm.pc++
		}

	case codegen.Return:
		return vm.doReturn()

	case codegen.CallFunction:
		if err := vm.callLabel(in.Name, in.NArgs, frameCall, -1); err != nil {
			return false, Value{}, err
		}

	case codegen.CallMethod:
		recv, err := vm.peekAt(in.NArgs)
		if err != nil {
			return false, Value{}, err
		}
		if recv.Kind != KindRef {
			return false, Value{}, runtimeErr(ErrNullReference, "method call on a non-object receiver")
		}
		className := vm.heap.Get(recv.Ref).ClassName
		if err := vm.callLabel(codegen.MethodLabel(className, in.Name), in.NArgs+1, frameCall, -1); err != nil {
			return false, Value{}, err
		}

	case codegen.ExternCall:
		if err := vm.callExtern(in.Name, in.NArgs); err != nil {
			return false, Value{}, err
		}
		vm.pc++

	case codegen.DirectCall:
		if err := vm.directCall(in.NArgs); err != nil {
			return false, Value{}, err
		}

	case codegen.NewList:
		size, err := vm.pop()
		if err != nil {
			return false, Value{}, err
		}
		if size.Kind != KindUInt {
			return false, Value{}, runtimeErr(ErrInvalidOperation, "NewList on a non-UInt64 size")
		}
		vm.push(RefValue(vm.heap.AllocList(size.U)))
		vm.pc++

	case codegen.ListLoad:
		index, err := vm.pop()
		if err != nil {
			return false, Value{}, err
		}
		target, err := vm.pop()
		if err != nil {
			return false, Value{}, err
		}
		if target.Kind != KindRef {
			return false, Value{}, runtimeErr(ErrNullReference, "indexing a non-list value")
		}
		obj := vm.heap.Get(target.Ref)
		i := index.U
		if index.Kind != KindUInt || i >= uint64(len(obj.List)) {
			return false, Value{}, runtimeErr(ErrIndexOutOfBounds, "list index %v out of range (len %d)", index, len(obj.List))
		}
		vm.push(obj.List[i])
		vm.pc++

	case codegen.ListStore:
		value, err := vm.pop()
		if err != nil {
			return false, Value{}, err
		}
		target, err := vm.pop()
		if err != nil {
			return false, Value{}, err
		}
		index, err := vm.pop()
		if err != nil {
			return false, Value{}, err
		}
		if target.Kind != KindRef {
			return false, Value{}, runtimeErr(ErrNullReference, "indexing a non-list value")
		}
		obj := vm.heap.Get(target.Ref)
		i := index.U
		if index.Kind != KindUInt || i >= uint64(len(obj.List)) {
			return false, Value{}, runtimeErr(ErrIndexOutOfBounds, "list index %v out of range (len %d)", index, len(obj.List))
		}
		old := obj.List[i]
		if old.isRef() {
			vm.heap.decRef(old.Ref)
		}
		if value.isRef() {
			vm.heap.incRef(value.Ref)
		}
		obj.List[i] = value
		vm.pc++

	case codegen.NewObj:
		if err := vm.newObj(in.Name); err != nil {
			return false, Value{}, err
		}

	case codegen.GetField:
		target, err := vm.pop()
		if err != nil {
			return false, Value{}, err
		}
		if target.Kind != KindRef {
			return false, Value{}, runtimeErr(ErrNullReference, "field access on a non-object value")
		}
		obj := vm.heap.Get(target.Ref)
		v, ok := obj.Fields[in.Name]
		if !ok {
			return false, Value{}, runtimeErr(ErrInvalidOperation, "no field %q on %s", in.Name, obj.ClassName)
		}
		vm.push(v)
		vm.pc++

	case codegen.SetField:
		value, err := vm.pop()
		if err != nil {
			return false, Value{}, err
		}
		target, err := vm.pop()
		if err != nil {
			return false, Value{}, err
		}
		if target.Kind != KindRef {
			return false, Value{}, runtimeErr(ErrNullReference, "field assignment on a non-object value")
		}
		obj := vm.heap.Get(target.Ref)
		old := obj.Fields[in.Name]
		if old.isRef() {
			vm.heap.decRef(old.Ref)
		}
		if value.isRef() {
			vm.heap.incRef(value.Ref)
		}
		obj.Fields[in.Name] = value
		vm.pc++

	case codegen.DeleteObj:
		if err := vm.deleteObj(); err != nil {
			return false, Value{}, err
		}

	case codegen.CastTo:
		v, err := vm.pop()
		if err != nil {
			return false, Value{}, err
		}
		cast, err := vm.castTo(in.Kind, v)
		if err != nil {
			return false, Value{}, err
		}
		vm.push(cast)
		vm.pc++

	default:
		return false, Value{}, runtimeErr(ErrInvalidOperation, "unhandled instruction %T", instr)
	}

	return false, Value{}, nil
}

// storeVar binds name in the innermost variable map, adjusting the heap's
// reference counts: Store is the one place an ordinary variable transitions
// between referents, so it is the one place that both releases the old
// binding and claims the new one.
func (vm *VM) storeVar(name string, v Value) {
	m := vm.varmap()
	if old, ok := m[name]; ok && old.isRef() {
		vm.heap.decRef(old.Ref)
	}
	if v.isRef() {
		vm.heap.incRef(v.Ref)
	}
	m[name] = v
}

func (vm *VM) arith(instr codegen.Instruction) error {
	right, err := vm.pop()
	if err != nil {
		return err
	}
	left, err := vm.pop()
	if err != nil {
		return err
	}

	switch instr.(type) {
	case codegen.IAdd:
		vm.push(IntValue(left.I + right.I))
	case codegen.UIAdd:
		vm.push(UIntValue(left.U + right.U))
	case codegen.FAdd:
		vm.push(FloatValue(left.F + right.F))
	case codegen.ISub:
		vm.push(IntValue(left.I - right.I))
	case codegen.UISub:
		vm.push(UIntValue(left.U - right.U))
	case codegen.FSub:
		vm.push(FloatValue(left.F - right.F))
	case codegen.IMul:
		vm.push(IntValue(left.I * right.I))
	case codegen.UIMul:
		vm.push(UIntValue(left.U * right.U))
	case codegen.FMul:
		vm.push(FloatValue(left.F * right.F))
	case codegen.IDiv:
		if right.I == 0 {
			return runtimeErr(ErrDivisionByZero, "integer division by zero")
		}
		vm.push(IntValue(left.I / right.I))
	case codegen.UIDiv:
		if right.U == 0 {
			return runtimeErr(ErrDivisionByZero, "unsigned division by zero")
		}
		vm.push(UIntValue(left.U / right.U))
	case codegen.FDiv:
		vm.push(FloatValue(left.F / right.F))
	case codegen.IMod:
		if right.I == 0 {
			return runtimeErr(ErrDivisionByZero, "integer modulo by zero")
		}
		vm.push(IntValue(left.I % right.I))
	case codegen.UIMod:
		if right.U == 0 {
			return runtimeErr(ErrDivisionByZero, "unsigned modulo by zero")
		}
		vm.push(UIntValue(left.U % right.U))
	}
	return nil
}

func (vm *VM) compare(instr codegen.Instruction) error {
	right, err := vm.pop()
	if err != nil {
		return err
	}
	left, err := vm.pop()
	if err != nil {
		return err
	}

	if _, ok := instr.(codegen.Eq); ok {
		vm.push(BoolValue(valuesEqual(left, right)))
		return nil
	}
	if _, ok := instr.(codegen.Neq); ok {
		vm.push(BoolValue(!valuesEqual(left, right)))
		return nil
	}

	cmp, err := compareOrdered(left, right)
	if err != nil {
		return err
	}
	switch instr.(type) {
	case codegen.Lt:
		vm.push(BoolValue(cmp < 0))
	case codegen.Gt:
		vm.push(BoolValue(cmp > 0))
	case codegen.Lte:
		vm.push(BoolValue(cmp <= 0))
	case codegen.Gte:
		vm.push(BoolValue(cmp >= 0))
	}
	return nil
}

func valuesEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindInt:
		return a.I == b.I
	case KindUInt:
		return a.U == b.U
	case KindFloat:
		return a.F == b.F
	case KindBool:
		return a.B == b.B
	case KindChar:
		return a.C == b.C
	case KindUnit:
		return true
	case KindFnPtr:
		return a.FnPos == b.FnPos
	case KindRef:
		return a.Ref == b.Ref
	default:
		return false
	}
}

func compareOrdered(a, b Value) (int, error) {
	if a.Kind != b.Kind {
		return 0, runtimeErr(ErrInvalidOperation, "comparing mismatched kinds %s and %s", a.Kind, b.Kind)
	}
	switch a.Kind {
	case KindInt:
		return cmpOrdered(a.I, b.I), nil
	case KindUInt:
		return cmpOrdered(a.U, b.U), nil
	case KindFloat:
		return cmpOrdered(a.F, b.F), nil
	case KindChar:
		return cmpOrdered(a.C, b.C), nil
	default:
		return 0, runtimeErr(ErrInvalidOperation, "ordering not defined for %s", a.Kind)
	}
}

func cmpOrdered[T int64 | uint64 | float64 | rune](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// callLabel pushes a call frame and jumps into label by name. selfRef is
// only meaningful for frameConstructor/frameDestructor frames, which newObj
// and deleteObj build inline instead; ordinary calls pass -1.
func (vm *VM) callLabel(name string, nargs int, kind frameKind, selfRef int) error {
	label, ok := vm.program.FindLabel(name)
	if !ok {
		return runtimeErr(ErrInvalidOperation, "call to unresolved label %q", name)
	}
	if len(vm.frames) > vm.maxCallDepth {
		return runtimeErr(ErrStackOverflow, "call depth exceeded")
	}
	if len(vm.stack) < nargs {
		return runtimeErr(ErrStackUnderflow, "call to %q expected %d arguments", name, nargs)
	}
	frameBase := len(vm.stack) - nargs
	vm.frames = append(vm.frames, CallFrame{ReturnPC: vm.pc + 1, FrameBase: frameBase, Kind: kind, SelfRef: selfRef})
	vm.varmaps = append(vm.varmaps, make(map[string]Value))
	vm.pc = label.Position
	return nil
}

func (vm *VM) directCall(nargs int) error {
	idx := len(vm.stack) - 1 - nargs
	if idx < 0 {
		return runtimeErr(ErrStackUnderflow, "direct call with too few operands")
	}
	fn := vm.stack[idx]
	if fn.Kind != KindFnPtr {
		return runtimeErr(ErrInvalidOperation, "calling a non-function value")
	}
	vm.stack = append(vm.stack[:idx], vm.stack[idx+1:]...)

	if len(vm.frames) > vm.maxCallDepth {
		return runtimeErr(ErrStackOverflow, "call depth exceeded")
	}
	frameBase := len(vm.stack) - nargs
	vm.frames = append(vm.frames, CallFrame{ReturnPC: vm.pc + 1, FrameBase: frameBase, Kind: frameCall, SelfRef: -1})
	vm.varmaps = append(vm.varmaps, make(map[string]Value))
	vm.pc = fn.FnPos
	return nil
}

func (vm *VM) callExtern(name string, nargs int) error {
	fn, ok := vm.externs[name]
	if !ok {
		// Monomorphized generic externs carry a "name#Type#Type..." cache
		// key (see check.monoCacheKey); the registry only needs the base
		// name, since the callback itself is agnostic to the concrete
		// instantiation (it just pops Values off the stack).
		if base, _, found := strings.Cut(name, "#"); found {
			fn, ok = vm.externs[base]
		}
	}
	if !ok {
		return runtimeErr(ErrInvalidOperation, "no extern registered for %q", name)
	}
	if len(vm.stack) < nargs {
		return runtimeErr(ErrStackUnderflow, "extern call to %q expected %d arguments", name, nargs)
	}
	state := &ExternState{
		Stack:   &vm.stack,
		Heap:    vm.heap,
		Strings: vm.program.Global.Strings,
		Varmap:  vm.varmap(),
	}
	result, err := fn(state)
	if err != nil {
		return err
	}
	vm.push(result)
	return nil
}

func (vm *VM) newObj(className string) error {
	layout, ok := vm.program.FindClass(className)
	if !ok {
		return runtimeErr(ErrInvalidOperation, "unknown class %q", className)
	}
	if len(vm.stack) < layout.ConstructorArity {
		return runtimeErr(ErrStackUnderflow, "constructor for %q expected %d arguments", className, layout.ConstructorArity)
	}
	idx := vm.heap.AllocClass(className, layout.Fields)

	if !layout.HasConstructor {
		vm.push(RefValue(idx))
		vm.pc++
		return nil
	}

	frameBase := len(vm.stack) - layout.ConstructorArity
	vm.frames = append(vm.frames, CallFrame{ReturnPC: vm.pc + 1, FrameBase: frameBase, Kind: frameConstructor, SelfRef: idx})
	varmap := make(map[string]Value)
	// self is an uncounted borrow here: ownership of the new object begins
	// only once the caller durably binds the returned reference (Store,
	// SetField, ListStore), so neither the bind nor the teardown touches RC.
	varmap["self"] = RefValue(idx)
	vm.varmaps = append(vm.varmaps, varmap)
	label, ok := vm.program.FindLabel(codegen.MethodLabel(className, "new"))
	if !ok {
		return runtimeErr(ErrInvalidOperation, "constructor label missing for %q", className)
	}
	vm.pc = label.Position
	return nil
}

func (vm *VM) deleteObj() error {
	target, err := vm.pop()
	if err != nil {
		return err
	}
	if target.Kind != KindRef {
		return runtimeErr(ErrNullReference, "delete of a non-object value")
	}
	obj := vm.heap.Get(target.Ref)
	if obj.Kind == ObjectFree {
		vm.push(UnitValue())
		vm.pc++
		return nil
	}

	layout, ok := vm.program.FindClass(obj.ClassName)
	if !ok || !layout.HasDestructor {
		vm.heap.decRef(target.Ref)
		vm.push(UnitValue())
		vm.pc++
		return nil
	}

	label, ok := vm.program.FindLabel(codegen.MethodLabel(obj.ClassName, "delete"))
	if !ok {
		return runtimeErr(ErrInvalidOperation, "destructor label missing for %q", obj.ClassName)
	}
	vm.frames = append(vm.frames, CallFrame{ReturnPC: vm.pc + 1, FrameBase: len(vm.stack), Kind: frameDestructor, SelfRef: target.Ref})
	varmap := make(map[string]Value)
	varmap["self"] = RefValue(target.Ref)
	vm.varmaps = append(vm.varmaps, varmap)
	vm.pc = label.Position
	return nil
}

// doReturn pops the innermost call frame (if any) and releases its variable
// map. With no enclosing frame this is main's own return and the program is
// finished.
func (vm *VM) doReturn() (done bool, result Value, err error) {
	retVal, err := vm.pop()
	if err != nil {
		return false, Value{}, err
	}

	if len(vm.frames) == 0 {
		return true, retVal, nil
	}

	frame := vm.frames[len(vm.frames)-1]
	vm.frames = vm.frames[:len(vm.frames)-1]
	varmap := vm.varmaps[len(vm.varmaps)-1]
	vm.varmaps = vm.varmaps[:len(vm.varmaps)-1]

	uncountedSelf := frame.Kind == frameConstructor || frame.Kind == frameDestructor
	for name, v := range varmap {
		if uncountedSelf && name == "self" {
			continue
		}
		if v.isRef() {
			vm.heap.decRef(v.Ref)
		}
	}

	if frame.FrameBase <= len(vm.stack) {
		vm.stack = vm.stack[:frame.FrameBase]
	}

	switch frame.Kind {
	case frameConstructor:
		vm.push(RefValue(frame.SelfRef))
	case frameDestructor:
		vm.heap.decRef(frame.SelfRef)
		vm.push(UnitValue())
	default:
		vm.push(retVal)
	}
	vm.pc = frame.ReturnPC
	return false, Value{}, nil
}

func (vm *VM) castTo(kind codegen.CastKind, v Value) (Value, error) {
	switch kind {
	case codegen.CastInteger:
		switch v.Kind {
		case KindInt:
			return v, nil
		case KindUInt:
			return IntValue(int64(v.U)), nil
		case KindFloat:
			return IntValue(int64(v.F)), nil
		case KindChar:
			return IntValue(int64(v.C)), nil
		case KindBool:
			return IntValue(boolToInt(v.B)), nil
		case KindRef:
			s, err := vm.refString(v)
			if err != nil {
				return Value{}, err
			}
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return Value{}, runtimeErr(ErrInvalidOperation, "cannot parse %q as Int64", s)
			}
			return IntValue(n), nil
		}

	case codegen.CastUnsignedInteger:
		switch v.Kind {
		case KindUInt:
			return v, nil
		case KindInt:
			return UIntValue(uint64(v.I)), nil
		case KindFloat:
			return UIntValue(uint64(v.F)), nil
		case KindChar:
			return UIntValue(uint64(v.C)), nil
		case KindBool:
			return UIntValue(uint64(boolToInt(v.B))), nil
		case KindRef:
			s, err := vm.refString(v)
			if err != nil {
				return Value{}, err
			}
			n, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return Value{}, runtimeErr(ErrInvalidOperation, "cannot parse %q as UInt64", s)
			}
			return UIntValue(n), nil
		}

	case codegen.CastFloat:
		switch v.Kind {
		case KindFloat:
			return v, nil
		case KindInt:
			return FloatValue(float64(v.I)), nil
		case KindUInt:
			return FloatValue(float64(v.U)), nil
		case KindRef:
			s, err := vm.refString(v)
			if err != nil {
				return Value{}, err
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return Value{}, runtimeErr(ErrInvalidOperation, "cannot parse %q as Float64", s)
			}
			return FloatValue(f), nil
		}

	case codegen.CastBoolean:
		switch v.Kind {
		case KindBool:
			return v, nil
		case KindInt:
			return BoolValue(v.I != 0), nil
		case KindUInt:
			return BoolValue(v.U != 0), nil
		case KindRef:
			s, err := vm.refString(v)
			if err != nil {
				return Value{}, err
			}
			b, err := strconv.ParseBool(s)
			if err != nil {
				return Value{}, runtimeErr(ErrInvalidOperation, "cannot parse %q as Bool", s)
			}
			return BoolValue(b), nil
		}

	case codegen.CastChar:
		switch v.Kind {
		case KindChar:
			return v, nil
		case KindInt:
			return CharValue(rune(v.I)), nil
		case KindUInt:
			return CharValue(rune(v.U)), nil
		case KindRef:
			s, err := vm.refString(v)
			if err != nil {
				return Value{}, err
			}
			runes := []rune(s)
			if len(runes) != 1 {
				return Value{}, runtimeErr(ErrInvalidOperation, "cannot cast %q to a single Char", s)
			}
			return CharValue(runes[0]), nil
		}

	case codegen.CastString:
		if v.Kind == KindRef {
			s, err := vm.refString(v)
			if err != nil {
				return Value{}, err
			}
			return RefValue(vm.heap.AllocString(s)), nil
		}
		return RefValue(vm.heap.AllocString(formatForCast(v))), nil
	}

	return Value{}, runtimeErr(ErrInvalidOperation, "unsupported cast from %s to %s", v.Kind, kind)
}

// Format renders v for display, dereferencing string and list objects
// rather than printing their raw heap index (Value.String's ref#N form is
// for internal debugging only).
func (vm *VM) Format(v Value) string {
	if v.Kind != KindRef {
		return v.String()
	}
	obj := vm.heap.Get(v.Ref)
	switch obj.Kind {
	case ObjectString:
		return obj.Str
	case ObjectList:
		parts := make([]string, len(obj.List))
		for i, e := range obj.List {
			parts[i] = vm.Format(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ObjectClass:
		return obj.ClassName + "{}"
	default:
		return v.String()
	}
}

func (vm *VM) refString(v Value) (string, error) {
	if v.Kind != KindRef {
		return "", runtimeErr(ErrInvalidOperation, "expected a string reference")
	}
	obj := vm.heap.Get(v.Ref)
	if obj.Kind != ObjectString {
		return "", runtimeErr(ErrInvalidOperation, "expected a string object")
	}
	return obj.Str, nil
}

func formatForCast(v Value) string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.I, 10)
	case KindUInt:
		return strconv.FormatUint(v.U, 10)
	case KindFloat:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.B)
	case KindChar:
		return string(v.C)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
