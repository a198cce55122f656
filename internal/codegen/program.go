// Package codegen linearizes checked HIR into a Program: labeled instruction
// sequences, a constant pool, and an imported-library manifest.
package codegen

// Instruction is implemented by every bytecode instruction variant.
type Instruction interface {
	instructionNode()
}

type base struct{}

func (base) instructionNode() {}

// Stack manipulation.

// Pop discards the top of the operand stack.
// Stack: [a] -> []
type Pop struct{ base }

// Swap exchanges the top two operand-stack slots.
// Stack: [a, b] -> [b, a]
type Swap struct{ base }

// Dup duplicates the top of the operand stack.
// Stack: [a] -> [a, a]
type Dup struct{ base }

// Pushes.

// PushInt pushes a signed 64-bit integer literal.
// Stack: [] -> [int]
type PushInt struct {
	base
	Value int64
}

// PushUnsignedInt pushes an unsigned 64-bit integer literal.
// Stack: [] -> [uint]
type PushUnsignedInt struct {
	base
	Value uint64
}

// PushFloat pushes a 64-bit float literal.
// Stack: [] -> [float]
type PushFloat struct {
	base
	Value float64
}

// PushBool pushes a boolean literal.
// Stack: [] -> [bool]
type PushBool struct {
	base
	Value bool
}

// PushChar pushes a character literal.
// Stack: [] -> [char]
type PushChar struct {
	base
	Value rune
}

// PushStr clones the string at the given constant-pool index into a fresh
// heap object and pushes a reference to it.
// Stack: [] -> [ref]
type PushStr struct {
	base
	Index int
}

// PushFnPtr pushes a reference to the label at the given function-pool
// index, for use by DirectCall.
// Stack: [] -> [fnptr]
type PushFnPtr struct {
	base
	Index int
}

// PushUnit pushes the unit value.
// Stack: [] -> [unit]
type PushUnit struct{ base }

// Variables.

// Load reads the named variable from the innermost variable map and
// pushes it.
// Stack: [] -> [value]
type Load struct {
	base
	Name string
}

// Store pops the top of the stack and binds it to name in the innermost
// variable map.
// Stack: [value] -> []
type Store struct {
	base
	Name string
}

// Type-specialized arithmetic. Mod has no float variant.

type IAdd struct{ base }
type UIAdd struct{ base }
type FAdd struct{ base }
type ISub struct{ base }
type UISub struct{ base }
type FSub struct{ base }
type IMul struct{ base }
type UIMul struct{ base }
type FMul struct{ base }
type IDiv struct{ base }
type UIDiv struct{ base }
type FDiv struct{ base }
type IMod struct{ base }
type UIMod struct{ base }

// Comparisons. Unspecialized: they compare over the operands' runtime
// representation regardless of declared type.

type Eq struct{ base }
type Neq struct{ base }
type Lt struct{ base }
type Gt struct{ base }
type Lte struct{ base }
type Gte struct{ base }

// Control flow.

// Jmp adjusts pc by a signed relative offset.
type Jmp struct {
	base
	Offset int
}

// JmpZ pops a Bool; if false, adjusts pc by offset+1, else advances by one.
type JmpZ struct {
	base
	Offset int
}

// Return pops the call frame and the variable map, restores pc, and leaves
// the popped return value on the caller's operand stack.
type Return struct{ base }

// Halt terminates the fetch-decode loop.
type Halt struct{ base }

// Calls.

// CallFunction invokes a free function, or a static method under its
// MethodLabel, by label name. Externs are called through ExternCall instead.
type CallFunction struct {
	base
	Name  string
	NArgs int
}

// CallMethod invokes an instance method by name; the receiver is the
// bottommost of the NArgs+1 values already pushed.
type CallMethod struct {
	base
	Name  string
	NArgs int
}

// ExternCall dispatches to a host-registered callback by name.
type ExternCall struct {
	base
	Name  string
	NArgs int
}

// DirectCall calls through a first-class function value. The emitter sets
// Position to -1; the target is taken from the FnPtr value pushed before the
// arguments.
type DirectCall struct {
	base
	Position int
	NArgs    int
}

// Object and list operations.

// NewList pops an unsigned size, allocates a list of that length initialized
// to Unit, and pushes a reference to it.
type NewList struct{ base }

// ListLoad reads "[target, index]" and pushes the bounds-checked element.
type ListLoad struct{ base }

// ListStore writes "[index, target, value]", mutating the target in place.
type ListStore struct{ base }

// NewObj allocates a Class object for the named class, binds its field map
// in declared order initialized to Unit, runs the constructor if one is
// declared, and pushes a reference to the new instance.
type NewObj struct {
	base
	Name string
}

// GetField reads a named field off the Class object reference on top of the
// stack.
type GetField struct {
	base
	Name string
}

// SetField writes "[target, value]" into a named field of a Class object.
type SetField struct {
	base
	Name string
}

// DeleteObj decrements the reference count of the top object reference,
// freeing it if it reaches zero, after running the class's destructor (if
// declared) exactly once.
type DeleteObj struct{ base }

// CastKind names the runtime coercion CastTo performs.
type CastKind byte

const (
	CastInteger CastKind = iota
	CastFloat
	CastUnsignedInteger
	CastBoolean
	CastString
	CastChar
)

func (k CastKind) String() string {
	switch k {
	case CastInteger:
		return "Integer"
	case CastFloat:
		return "Float"
	case CastUnsignedInteger:
		return "UnsignedInteger"
	case CastBoolean:
		return "Boolean"
	case CastString:
		return "String"
	case CastChar:
		return "Char"
	default:
		return "unknown"
	}
}

// CastTo pops a value and coerces it to the named kind, numerically or (from
// String) by parsing.
type CastTo struct {
	base
	Kind CastKind
}

// Label is a named, positioned run of instructions. The concatenation of
// every label's Body in the order of Program.Labels is the program's linear
// instruction stream; Position is the cumulative instruction index at which
// this label's body begins. Emit builds that order by iterating the HIR's
// function and class maps, so it does not follow source declaration order.
type Label struct {
	Name     string
	Position int
	Body     []Instruction
}

// ImportedLibrary records one library the emitting module pulled in, so the
// VM can pre-register its externs before execution starts.
type ImportedLibrary struct {
	Name  string
	IsStd bool
}

// ConstantPool holds the program's shared literal data, referenced by index
// from PushStr and PushFnPtr.
type ConstantPool struct {
	Strings   []string
	Functions []string
}

// ClassLayout is the VM-facing manifest entry for a class: §6.2's
// instruction enumeration has no operand wide enough to carry a class's
// declared field order or constructor arity, so the emitter ships this
// alongside the instruction stream (the same role §6.2's Libraries list
// already plays for import metadata that isn't itself an instruction).
type ClassLayout struct {
	Name             string
	Fields           []string
	HasConstructor   bool
	ConstructorArity int
	HasDestructor    bool
}

// Program is the emitter's output: a complete, self-contained description of
// a compiled module ready for execution.
type Program struct {
	EntryPoint string
	Labels     []*Label
	Libraries  []ImportedLibrary
	Global     ConstantPool
	Classes    []ClassLayout
}

// FindClass finds a class layout by name, or reports ok=false.
func (p *Program) FindClass(name string) (ClassLayout, bool) {
	for _, c := range p.Classes {
		if c.Name == name {
			return c, true
		}
	}
	return ClassLayout{}, false
}

// Len reports the total instruction count across every label's body.
func (p *Program) Len() int {
	n := 0
	for _, l := range p.Labels {
		n += len(l.Body)
	}
	return n
}

// FindLabel finds a label by name, or reports ok=false.
func (p *Program) FindLabel(name string) (*Label, bool) {
	for _, l := range p.Labels {
		if l.Name == name {
			return l, true
		}
	}
	return nil, false
}
