// Package stdlib bundles Fen's standard-library surface: per-library extern
// declarations (Fen source text, resolved through hir.StdlibLoader) and their
// Go implementations (vm.ExternFunc, dispatched by the VM's extern table).
package stdlib

import "github.com/fenlang/fen/internal/vm"

var sources = map[string]string{
	"io":     ioSource,
	"math":   mathSource,
	"file":   fileSource,
	"list":   listSource,
	"string": stringSource,
	"time":   timeSource,
}

// Load implements hir.StdlibLoader, resolving a bundled library name to its
// Fen source text.
func Load(name string) (string, bool) {
	src, ok := sources[name]
	return src, ok
}

// Externs returns the Go implementation of every bundled extern, keyed by
// the bare name the declaration uses (the same name ExternCall.Name carries
// for non-generic externs, or the prefix before "#" for monomorphized
// generic ones).
func Externs() map[string]vm.ExternFunc {
	out := make(map[string]vm.ExternFunc)
	addIOExterns(out)
	addMathExterns(out)
	addFileExterns(out)
	addListExterns(out)
	addStringExterns(out)
	addTimeExterns(out)
	return out
}
