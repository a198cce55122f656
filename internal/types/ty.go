// Package types implements Fen's hash-consed type representation.
//
// A Ty is a tagged variant over the primitive and composite type shapes Fen
// supports. Types are interned through an Arena: two structurally equal
// types, built through the same Arena, share one address. Pointer equality on
// *Ty is therefore the only equality check the rest of the pipeline ever
// needs to perform.
package types

import "github.com/fenlang/fen/internal/ident"

// Kind tags the variant a Ty holds.
type Kind byte

const (
	KindInt64 Kind = iota
	KindFloat64
	KindUInt64
	KindBool
	KindChar
	KindUnit
	KindString
	KindList
	KindNamed
	KindFunction
	KindNullable
	KindUninitialized
)

var kindNames = [...]string{
	KindInt64:         "int64",
	KindFloat64:       "float64",
	KindUInt64:        "uint64",
	KindBool:          "bool",
	KindChar:          "char",
	KindUnit:          "unit",
	KindString:        "string",
	KindList:          "list",
	KindNamed:         "named",
	KindFunction:      "function",
	KindNullable:      "nullable",
	KindUninitialized: "uninitialized",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// TyId is the content hash used as the hash-consing key. Two types that
// produce the same TyId are required to be structurally identical — the
// mixing function in hash.go is the single source of truth for that
// invariant.
type TyId uint64

// Ty is an interned type. Its zero value is never valid; every live *Ty comes
// from an Arena accessor.
type Ty struct {
	id   TyId
	kind Kind

	// KindList, KindNullable
	elem *Ty

	// KindNamed
	name ident.ID
	span Span

	// KindFunction
	ret    *Ty
	params []*Ty
}

// Span is a byte-range source location, mirrored from internal/diag.Span so
// that internal/types does not need to import the diag package (which in
// turn may want to describe type errors — avoiding the import cycle keeps
// the type arena a true leaf package dependency order).
type Span struct {
	Start, End int
	Line, Col  int
}

// ID returns the type's hash-consing identity.
func (t *Ty) ID() TyId { return t.id }

// Kind returns the tag of the variant this Ty holds.
func (t *Ty) Kind() Kind { return t.kind }

// Elem returns the element type of a List or the wrapped type of a Nullable.
// It panics if called on any other Kind.
func (t *Ty) Elem() *Ty {
	if t.kind != KindList && t.kind != KindNullable {
		panic("types: Elem called on " + t.kind.String())
	}
	return t.elem
}

// Name returns the interned identifier of a Named type.
func (t *Ty) Name() ident.ID {
	if t.kind != KindNamed {
		panic("types: Name called on " + t.kind.String())
	}
	return t.name
}

// NameSpan returns the declaration span recorded for a Named type.
func (t *Ty) NameSpan() Span {
	if t.kind != KindNamed {
		panic("types: NameSpan called on " + t.kind.String())
	}
	return t.span
}

// Return returns the return type of a Function type.
func (t *Ty) Return() *Ty {
	if t.kind != KindFunction {
		panic("types: Return called on " + t.kind.String())
	}
	return t.ret
}

// Params returns the parameter types of a Function type.
func (t *Ty) Params() []*Ty {
	if t.kind != KindFunction {
		panic("types: Params called on " + t.kind.String())
	}
	return t.params
}

// IsPrimitive reports whether t is one of the non-composite, non-named kinds.
func (t *Ty) IsPrimitive() bool {
	switch t.kind {
	case KindInt64, KindFloat64, KindUInt64, KindBool, KindChar, KindUnit, KindString:
		return true
	default:
		return false
	}
}

// String renders a human-readable (not necessarily round-trippable)
// representation of t, primarily for diagnostics and disassembly.
func (t *Ty) String() string {
	switch t.kind {
	case KindList:
		return "[" + t.elem.String() + "]"
	case KindNullable:
		return t.elem.String() + "?"
	case KindNamed:
		return "<named#" + idDecimal(t.name) + ">"
	case KindFunction:
		s := "fn("
		for i, p := range t.params {
			if i > 0 {
				s += ", "
			}
			s += p.String()
		}
		return s + ") -> " + t.ret.String()
	default:
		return t.kind.String()
	}
}

// idDecimal renders an identifier's numeric address. Ty.String() is a
// diagnostics fallback that never has access to an ident.Pool (the type
// arena is a dependency-free leaf package); callers that
// want the real name resolve it themselves via the Pool they already hold.
func idDecimal(id ident.ID) string {
	if id == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	v := uint32(id)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
