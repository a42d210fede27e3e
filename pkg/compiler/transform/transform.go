package transform

import (
	"github.com/recera/vuec/pkg/compiler/ast"
	"github.com/recera/vuec/pkg/compiler/diag"
	"github.com/recera/vuec/pkg/compiler/script"
)

// Transform builds the render tree for tpl. Diagnostics are appended to
// diags; transform errors are never fatal.
func Transform(tpl *ast.Template, bindings *script.Table, opts Options, diags *diag.List) *Result {
	c := newContext(tpl.Arena, bindings, opts, diags)
	root := c.root(tpl.Children)
	if opts.HoistStatic {
		root = c.hoistRoot(root)
	}
	return &Result{
		Mode:       opts.Mode,
		Arena:      c.arena,
		Root:       root,
		Hoists:     c.hoists,
		Helpers:    c.helpers,
		Components: c.components,
		Directives: c.directives,
		Cached:     c.cached,
		Used:       c.used,
	}
}

// child is one transformed child node.
type child struct {
	node ast.JSNode
	loc  diag.Span
	// text is set for text, interpolations and compounds.
	text bool
	// dynamic marks text whose value changes between renders.
	dynamic bool
	comment bool
}

// root transforms the top-level nodes into the value render returns.
func (c *Context) root(ids []ast.NodeID) ast.JSNode {
	kids := c.children(ids)
	if len(kids) == 0 {
		return ast.Raw("null")
	}
	if len(kids) == 1 {
		k := kids[0]
		if k.text {
			return k.node
		}
		return c.asBlock(k.node, nil)
	}

	flag := ast.FlagStableFragment
	if c.opts.Dev {
		elements := 0
		for _, k := range kids {
			if !k.comment {
				elements++
			}
		}
		if elements == 1 {
			flag |= ast.FlagDevRootFragment
		}
	}
	call := &ast.VNodeCall{
		Loc:       diag.Span{Start: kids[0].loc.Start, End: kids[len(kids)-1].loc.End},
		Tag:       c.helper(ast.HelperFragment),
		Children:  c.childArray(kids),
		PatchFlag: flag,
		IsBlock:   true,
	}
	return &ast.JSVNode{ID: c.arena.Alloc(call)}
}

// children transforms a sibling list, folding v-if chains into one node.
func (c *Context) children(ids []ast.NodeID) []child {
	var out []child
	for i := 0; i < len(ids); i++ {
		switch n := c.arena.Get(ids[i]).(type) {
		case *ast.Element:
			if n.FindDir("if") != nil && n.FindDir("for") == nil {
				chain, last := c.ifChain(ids, i)
				out = append(out, child{node: c.vIf(chain), loc: n.Loc})
				i = last
				continue
			}
			if d := n.FindDir("else-if"); d != nil {
				c.report(diag.VElseNoAdjacentIf, d.Loc)
				n.RemoveDir("else-if")
			}
			if d := n.FindDir("else"); d != nil {
				c.report(diag.VElseNoAdjacentIf, d.Loc)
				n.RemoveDir("else")
			}
			out = append(out, child{node: c.element(n), loc: n.Loc})
		case *ast.Text:
			out = append(out, child{node: ast.Str(n.Content), loc: n.Loc, text: true})
		case *ast.Interpolation:
			e := c.resolveExpr(n.Exp)
			out = append(out, child{
				node:    c.call(ast.HelperToDisplayString, e),
				loc:     n.Loc,
				text:    true,
				dynamic: !n.Exp.Constant,
			})
		case *ast.Compound:
			out = append(out, c.compound(n))
		case *ast.Comment:
			out = append(out, child{node: c.call(ast.HelperCreateComment, ast.Str(n.Content)), loc: n.Loc, comment: true})
		default:
			c.report(diag.UnknownNode, diag.Span{})
		}
	}
	return out
}

func (c *Context) compound(n *ast.Compound) child {
	out := child{loc: n.Loc, text: true}
	concat := &ast.JSConcat{}
	for _, id := range n.Parts {
		switch p := c.arena.Get(id).(type) {
		case *ast.Text:
			concat.Parts = append(concat.Parts, ast.Str(p.Content))
		case *ast.Interpolation:
			concat.Parts = append(concat.Parts, c.call(ast.HelperToDisplayString, c.resolveExpr(p.Exp)))
			if !p.Exp.Constant {
				out.dynamic = true
			}
		}
	}
	out.node = concat
	return out
}

// ifChain collects the v-else-if / v-else siblings that follow the v-if at
// ids[start]. Comments and whitespace between branches are dropped.
func (c *Context) ifChain(ids []ast.NodeID, start int) ([]*ast.Element, int) {
	chain := []*ast.Element{c.arena.Get(ids[start]).(*ast.Element)}
	last := start
	for j := start + 1; j < len(ids); j++ {
		switch n := c.arena.Get(ids[j]).(type) {
		case *ast.Comment:
			continue
		case *ast.Text:
			if isBlank(n.Content) {
				continue
			}
			return chain, last
		case *ast.Element:
			if n.FindDir("else-if") == nil && n.FindDir("else") == nil {
				return chain, last
			}
			chain = append(chain, n)
			last = j
			if n.FindDir("else") != nil {
				return chain, last
			}
		default:
			return chain, last
		}
	}
	return chain, last
}

// childArray wraps transformed children for an array-valued children
// argument: text becomes a createTextVNode call.
func (c *Context) childArray(kids []child) *ast.JSArray {
	arr := &ast.JSArray{}
	for _, k := range kids {
		if !k.text {
			arr.Elems = append(arr.Elems, k.node)
			continue
		}
		tc := &ast.TextCall{Loc: k.loc, Content: k.node, Hoistable: !k.dynamic}
		if k.dynamic {
			tc.PatchFlag = ast.FlagText
		}
		arr.Elems = append(arr.Elems, &ast.JSVNode{ID: c.arena.Alloc(tc)})
	}
	return arr
}

// asBlock turns the vnode n into a block, injecting key when given.
func (c *Context) asBlock(n ast.JSNode, key ast.JSNode) ast.JSNode {
	switch v := n.(type) {
	case *ast.JSVNode:
		if call, ok := c.arena.Get(v.ID).(*ast.VNodeCall); ok {
			if key != nil {
				call.Props = c.withKey(call.Props, key)
			}
			call.IsBlock = true
		}
	case *ast.JSCall:
		if h, ok := v.Callee.(*ast.JSHelper); ok && h.Name == ast.HelperRenderSlot && key != nil {
			for len(v.Args) < 3 {
				v.Args = append(v.Args, &ast.JSObject{})
			}
			v.Args[2] = c.withKey(v.Args[2], key)
		}
	}
	return n
}

// withKey adds key to a props value unless it already has one.
func (c *Context) withKey(props, key ast.JSNode) ast.JSNode {
	switch p := props.(type) {
	case nil:
		return &ast.JSObject{Props: []ast.JSProp{ast.Prop("key", key)}}
	case *ast.JSObject:
		if _, ok := p.Get("key"); ok {
			return p
		}
		p.Props = append([]ast.JSProp{ast.Prop("key", key)}, p.Props...)
		return p
	case *ast.JSRaw:
		if p.Code == "null" {
			return &ast.JSObject{Props: []ast.JSProp{ast.Prop("key", key)}}
		}
	}
	return c.call(ast.HelperMergeProps, &ast.JSObject{Props: []ast.JSProp{ast.Prop("key", key)}}, props)
}

func isBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r', '\f':
		default:
			return false
		}
	}
	return true
}
