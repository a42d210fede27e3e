// Package ast defines the template syntax tree, the transformed render tree
// and the small JavaScript output IR the code generator prints.
//
// Template and render nodes live in an Arena and refer to each other by
// NodeID. Replacing a node (a structural directive wrapping an element, the
// hoister swapping a subtree for a reference) is done with Arena.Set, so ids
// held elsewhere stay valid.
package ast

import "github.com/recera/vuec/pkg/compiler/diag"

// NodeID addresses a node inside an Arena.
type NodeID int32

// InvalidNode is the zero reference.
const InvalidNode NodeID = -1

// Node is the closed set of arena node kinds:
//
//	template: *Element, *Text, *Interpolation, *Comment, *Compound
//	render:   *VNodeCall, *IfNode, *ForNode, *TextCall, *Hoisted
type Node interface {
	Span() diag.Span
	node()
}

// Arena owns every node produced for one compile.
type Arena struct {
	nodes []Node
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{nodes: make([]Node, 0, 64)}
}

// Alloc stores n and returns its id.
func (a *Arena) Alloc(n Node) NodeID {
	a.nodes = append(a.nodes, n)
	return NodeID(len(a.nodes) - 1)
}

// Get returns the node stored at id, or nil for an unknown id.
func (a *Arena) Get(id NodeID) Node {
	if id < 0 || int(id) >= len(a.nodes) {
		return nil
	}
	return a.nodes[id]
}

// Set replaces the node at id in place.
func (a *Arena) Set(id NodeID, n Node) {
	a.nodes[id] = n
}

// Len returns the number of allocated nodes.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// Template is the parse result for one template block.
type Template struct {
	Arena    *Arena
	Children []NodeID
	Source   string
}
