package types

import "golang.org/x/exp/constraints"

// Per-variant tag bytes mixed into a Ty's content hash.
// Primitive kinds get a single fixed hash; composite kinds mix their tag
// with the hashes of their constituents.
const (
	tagInt64    = 0x01
	tagFloat64  = 0x02
	tagUInt64   = 0x03
	tagBool     = 0x04
	tagChar     = 0x05
	tagUnit     = 0x06
	tagString   = 0x07
	tagList     = 0x30
	tagNamed    = 0x40
	tagFunction = 0x20
	tagNullable = 0x50
	tagUninit   = 0xFF
)

// fnvOffset and fnvPrime are the 64-bit FNV-1a constants, used here as the
// mixing primitive for TyId content hashes.
const (
	fnvOffset = 14695981039346656037
	fnvPrime  = 1099511628211
)

func mixByte(h uint64, b byte) uint64 {
	h ^= uint64(b)
	h *= fnvPrime
	return h
}

// mixInt folds any integral operand (a tag byte, an ident.ID, a TyId) into a
// running hash. The generic constraint lets every numeric mix site — tags,
// identifiers, nested TyIds — share one implementation instead of one cast
// per call site.
func mixInt[T constraints.Integer](h uint64, v T) uint64 {
	u := uint64(v)
	for i := 0; i < 8; i++ {
		h = mixByte(h, byte(u))
		u >>= 8
	}
	return h
}

func hashTag(tag byte) TyId {
	return TyId(mixByte(fnvOffset, tag))
}

func hashList(inner TyId) TyId {
	h := mixByte(fnvOffset, tagList)
	h = mixInt(h, inner)
	return TyId(h)
}

func hashNullable(inner TyId) TyId {
	h := mixByte(fnvOffset, tagNullable)
	h = mixInt(h, inner)
	return TyId(h)
}

func hashNamed(name uint32) TyId {
	h := mixByte(fnvOffset, tagNamed)
	h = mixInt(h, name)
	return TyId(h)
}

func hashFunction(ret TyId, params []TyId) TyId {
	h := mixByte(fnvOffset, tagFunction)
	h = mixInt(h, ret)
	for _, p := range params {
		h = mixInt(h, p)
	}
	return TyId(h)
}
