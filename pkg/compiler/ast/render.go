package ast

import (
	"strconv"

	"github.com/recera/vuec/pkg/compiler/diag"
)

// VNodeCall creates an element, component or fragment vnode.
type VNodeCall struct {
	Loc          diag.Span
	Tag          JSNode
	Props        JSNode
	Children     JSNode
	PatchFlag    PatchFlags
	DynamicProps []string
	// Directives is the runtime directive array for withDirectives.
	Directives      JSNode
	IsBlock         bool
	DisableTracking bool
	IsComponent     bool
	// Hoistable is set by the transformer for plain elements whose whole
	// subtree is static.
	Hoistable bool
}

// IfBranch is one arm of a v-if chain. Cond is nil for v-else.
type IfBranch struct {
	Loc  diag.Span
	Cond *Expression
	Body JSNode
}

// IfNode is a folded v-if / v-else-if / v-else sequence.
type IfNode struct {
	Loc      diag.Span
	Branches []IfBranch
}

// ForNode is a v-for list rendered as a fragment block over renderList.
type ForNode struct {
	Loc       diag.Span
	Source    *Expression
	Params    []string
	Body      JSNode
	PatchFlag PatchFlags
}

// TextCall is a text child that needs its own vnode (createTextVNode).
type TextCall struct {
	Loc       diag.Span
	Content   JSNode
	PatchFlag PatchFlags
	Hoistable bool
}

// Hoisted stands in for a subtree moved to the top-level hoist pool.
type Hoisted struct {
	Loc   diag.Span
	Index int
}

func (n *VNodeCall) Span() diag.Span { return n.Loc }
func (n *IfNode) Span() diag.Span    { return n.Loc }
func (n *ForNode) Span() diag.Span   { return n.Loc }
func (n *TextCall) Span() diag.Span  { return n.Loc }
func (n *Hoisted) Span() diag.Span   { return n.Loc }

func (*VNodeCall) node() {}
func (*IfNode) node()    {}
func (*ForNode) node()   {}
func (*TextCall) node()  {}
func (*Hoisted) node()   {}

// Name is the generated identifier of a hoisted constant, 1-based.
func (n *Hoisted) Name() string {
	return HoistName(n.Index)
}

// HoistName formats the identifier for hoist pool entry i (0-based).
func HoistName(i int) string {
	return "_hoisted_" + strconv.Itoa(i+1)
}
