// Package vm executes a codegen.Program: a fetch-decode-dispatch loop over an
// operand stack, per-call variable maps, and a reference-counted object heap
//.
package vm

import "fmt"

// Kind tags the variant held by a Value. Fen's source-level Nullable/Uninitialized
// types never reach the VM (the checker resolves them to concrete values or
// rejects the program), so the runtime tag set is the primitive set plus
// FnPtr and Ref.
type Kind byte

const (
	KindInt Kind = iota
	KindUInt
	KindFloat
	KindBool
	KindChar
	KindUnit
	KindFnPtr
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "Int64"
	case KindUInt:
		return "UInt64"
	case KindFloat:
		return "Float64"
	case KindBool:
		return "Bool"
	case KindChar:
		return "Char"
	case KindUnit:
		return "Unit"
	case KindFnPtr:
		return "FnPtr"
	case KindRef:
		return "Ref"
	default:
		return "unknown"
	}
}

// Value is the VM's runtime representation: an explicit-fields tagged union
// rather than a boxed interface{}, so primitive arithmetic never allocates.
type Value struct {
	Kind  Kind
	I     int64
	U     uint64
	F     float64
	B     bool
	C     rune
	FnPos int // KindFnPtr: the target label's cumulative instruction position
	Ref   int // KindRef: index into the heap's object slab
}

func IntValue(i int64) Value     { return Value{Kind: KindInt, I: i} }
func UIntValue(u uint64) Value   { return Value{Kind: KindUInt, U: u} }
func FloatValue(f float64) Value { return Value{Kind: KindFloat, F: f} }
func BoolValue(b bool) Value     { return Value{Kind: KindBool, B: b} }
func CharValue(c rune) Value     { return Value{Kind: KindChar, C: c} }
func UnitValue() Value           { return Value{Kind: KindUnit} }
func FnPtrValue(pos int) Value   { return Value{Kind: KindFnPtr, FnPos: pos} }
func RefValue(idx int) Value     { return Value{Kind: KindRef, Ref: idx} }

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.I)
	case KindUInt:
		return fmt.Sprintf("%du", v.U)
	case KindFloat:
		return fmt.Sprintf("%g", v.F)
	case KindBool:
		return fmt.Sprintf("%v", v.B)
	case KindChar:
		return fmt.Sprintf("%q", v.C)
	case KindUnit:
		return "()"
	case KindFnPtr:
		return fmt.Sprintf("fn@%d", v.FnPos)
	case KindRef:
		return fmt.Sprintf("ref#%d", v.Ref)
	default:
		return "<invalid>"
	}
}

// isRef reports whether v's backing storage is a heap object that incRef /
// decRef must track.
func (v Value) isRef() bool { return v.Kind == KindRef }
