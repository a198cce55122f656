package types

import (
	"sync"

	"github.com/fenlang/fen/internal/ident"
)

// Arena is the hash-consed table that backs every *Ty returned by this
// package. One Arena is created per compilation pipeline and shared by HIR
// lowering, the type checker, and the emitter.
type Arena struct {
	mu    sync.Mutex
	table map[TyId]*Ty

	int64Ty   *Ty
	float64Ty *Ty
	uint64Ty  *Ty
	boolTy    *Ty
	charTy    *Ty
	unitTy    *Ty
	stringTy  *Ty
	uninitTy  *Ty
}

// NewArena creates an empty Arena. The singleton primitive types are
// interned lazily on first access, not eagerly here, so that constructing an
// Arena never allocates more than the table itself.
func NewArena() *Arena {
	return &Arena{table: make(map[TyId]*Ty, 64)}
}

func (a *Arena) internPrimitive(cached **Ty, tag byte, kind Kind) *Ty {
	a.mu.Lock()
	defer a.mu.Unlock()
	if *cached != nil {
		return *cached
	}
	id := hashTag(tag)
	if ty, ok := a.table[id]; ok {
		*cached = ty
		return ty
	}
	ty := &Ty{id: id, kind: kind}
	a.table[id] = ty
	*cached = ty
	return ty
}

// GetInt64 returns the interned Int64 type.
func (a *Arena) GetInt64() *Ty { return a.internPrimitive(&a.int64Ty, tagInt64, KindInt64) }

// GetFloat64 returns the interned Float64 type.
func (a *Arena) GetFloat64() *Ty { return a.internPrimitive(&a.float64Ty, tagFloat64, KindFloat64) }

// GetUInt64 returns the interned UInt64 type.
func (a *Arena) GetUInt64() *Ty { return a.internPrimitive(&a.uint64Ty, tagUInt64, KindUInt64) }

// GetBool returns the interned Bool type.
func (a *Arena) GetBool() *Ty { return a.internPrimitive(&a.boolTy, tagBool, KindBool) }

// GetChar returns the interned Char type.
func (a *Arena) GetChar() *Ty { return a.internPrimitive(&a.charTy, tagChar, KindChar) }

// GetUnit returns the interned Unit type.
func (a *Arena) GetUnit() *Ty { return a.internPrimitive(&a.unitTy, tagUnit, KindUnit) }

// GetString returns the interned String type.
func (a *Arena) GetString() *Ty { return a.internPrimitive(&a.stringTy, tagString, KindString) }

// GetUninitialized returns the interned placeholder type the checker must
// replace before a pass completes.
func (a *Arena) GetUninitialized() *Ty {
	return a.internPrimitive(&a.uninitTy, tagUninit, KindUninitialized)
}

// GetList returns the interned List(inner) type.
func (a *Arena) GetList(inner *Ty) *Ty {
	id := hashList(inner.id)
	a.mu.Lock()
	defer a.mu.Unlock()
	if ty, ok := a.table[id]; ok {
		return ty
	}
	ty := &Ty{id: id, kind: KindList, elem: inner}
	a.table[id] = ty
	return ty
}

// GetNullable returns the interned Nullable(inner) type.
func (a *Arena) GetNullable(inner *Ty) *Ty {
	id := hashNullable(inner.id)
	a.mu.Lock()
	defer a.mu.Unlock()
	if ty, ok := a.table[id]; ok {
		return ty
	}
	ty := &Ty{id: id, kind: KindNullable, elem: inner}
	a.table[id] = ty
	return ty
}

// GetNamed returns the interned Named(name) type, recording span as the
// declaration site the first time this name is interned. Subsequent calls
// with the same name return the original span unchanged, matching the
// intern-once-use-by-address contract every other Ty constructor follows.
func (a *Arena) GetNamed(name ident.ID, span Span) *Ty {
	id := hashNamed(uint32(name))
	a.mu.Lock()
	defer a.mu.Unlock()
	if ty, ok := a.table[id]; ok {
		return ty
	}
	ty := &Ty{id: id, kind: KindNamed, name: name, span: span}
	a.table[id] = ty
	return ty
}

// GetFunction returns the interned Function(ret, params...) type.
func (a *Arena) GetFunction(ret *Ty, params []*Ty) *Ty {
	paramIds := make([]TyId, len(params))
	for i, p := range params {
		paramIds[i] = p.id
	}
	id := hashFunction(ret.id, paramIds)
	a.mu.Lock()
	defer a.mu.Unlock()
	if ty, ok := a.table[id]; ok {
		return ty
	}
	paramsCopy := make([]*Ty, len(params))
	copy(paramsCopy, params)
	ty := &Ty{id: id, kind: KindFunction, ret: ret, params: paramsCopy}
	a.table[id] = ty
	return ty
}

// Len reports how many distinct types have been interned so far.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.table)
}
