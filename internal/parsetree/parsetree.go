// Package parsetree defines the untyped parse-tree contract the lowering
// pass consumes. Construction of this tree (lexing and parsing) happens
// outside this package; it only fixes the node shapes both sides agree on.
package parsetree

import "github.com/fenlang/fen/internal/diag"

// Node is implemented by every parse-tree node. Every node carries a source
// span (start, end) over the source text.
type Node interface {
	Span() diag.Span
}

// Program is the root of a single source file's parse tree.
type Program struct {
	Items []Item
}

func (p *Program) Span() diag.Span {
	if len(p.Items) == 0 {
		return diag.Span{}
	}
	return diag.Span{Start: p.Items[0].Span().Start, End: p.Items[len(p.Items)-1].Span().End}
}

// Visibility controls cross-class member access.
type Visibility int

const (
	VisibilityPublic Visibility = iota
	VisibilityPrivate
)

// MethodModifier distinguishes instance, static, and const methods
//.
type MethodModifier int

const (
	ModifierInstance MethodModifier = iota
	ModifierStatic
	ModifierConst
)
