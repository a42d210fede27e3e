package transform

import "github.com/recera/vuec/pkg/compiler/ast"

// hoistRoot moves static subtrees into the hoist pool. A fully static
// single root element is hoisted itself, so render returns the constant.
func (c *Context) hoistRoot(root ast.JSNode) ast.JSNode {
	if v, ok := root.(*ast.JSVNode); ok && c.hoistable(v) {
		return c.hoist(v)
	}
	c.walk(root)
	return root
}

// walk visits the tree top-down and hoists static vnodes found in children
// arrays. It never enters v-for bodies, v-once caches or memoized blocks.
func (c *Context) walk(n ast.JSNode) {
	switch v := n.(type) {
	case *ast.JSVNode:
		switch r := c.arena.Get(v.ID).(type) {
		case *ast.VNodeCall:
			c.walk(r.Children)
		case *ast.IfNode:
			for _, b := range r.Branches {
				c.walk(b.Body)
			}
		}
	case *ast.JSArray:
		for i, e := range v.Elems {
			if vn, ok := e.(*ast.JSVNode); ok && c.hoistable(vn) {
				v.Elems[i] = c.hoist(vn)
				continue
			}
			c.walk(e)
		}
	case *ast.JSCall:
		if h, ok := v.Callee.(*ast.JSHelper); ok && (h.Name == ast.HelperWithMemo || h.Name == ast.HelperRenderList) {
			return
		}
		for _, a := range v.Args {
			c.walk(a)
		}
	case *ast.JSObject:
		for _, p := range v.Props {
			c.walk(p.Value)
		}
	case *ast.JSArrow:
		c.walk(v.Body)
	case *ast.JSCond:
		c.walk(v.Cons)
		c.walk(v.Alt)
	}
}

func (c *Context) hoistable(v *ast.JSVNode) bool {
	switch r := c.arena.Get(v.ID).(type) {
	case *ast.VNodeCall:
		return r.Hoistable
	case *ast.TextCall:
		return r.Hoistable
	}
	return false
}

// hoist appends the node behind v to the pool and leaves a Hoisted
// reference in its place.
func (c *Context) hoist(v *ast.JSVNode) *ast.JSVNode {
	n := c.arena.Get(v.ID)
	switch r := n.(type) {
	case *ast.VNodeCall:
		r.IsBlock = false
		r.PatchFlag = ast.FlagHoisted
	case *ast.TextCall:
		r.PatchFlag = 0
	}
	moved := c.arena.Alloc(n)
	idx := len(c.hoists)
	c.hoists = append(c.hoists, moved)
	c.arena.Set(v.ID, &ast.Hoisted{Loc: n.Span(), Index: idx})
	return v
}
