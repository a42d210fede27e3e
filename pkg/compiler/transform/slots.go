package transform

import (
	"strconv"
	"strings"

	"github.com/recera/vuec/pkg/compiler/ast"
	"github.com/recera/vuec/pkg/compiler/diag"
	"github.com/recera/vuec/pkg/compiler/expr"
)

// slotOutlet compiles <slot> into a renderSlot call.
func (c *Context) slotOutlet(el *ast.Element) ast.JSNode {
	var name ast.JSNode = ast.Str("default")
	var rest []*ast.Attribute
	for _, a := range el.Props {
		switch {
		case a.Dir == nil && a.Name == "name":
			name = ast.Str(a.Value)
		case a.Dir != nil && a.Dir.Name == "bind" && a.Dir.Arg != nil && a.Dir.Arg.Static && a.Dir.Arg.Content == "name":
			if a.Dir.Exp != nil {
				name = c.resolveExpr(a.Dir.Exp)
			}
		case a.Dir == nil:
			cp := *a
			cp.Name = ast.Camelize(a.Name)
			rest = append(rest, &cp)
		default:
			rest = append(rest, a)
		}
	}

	args := []ast.JSNode{ast.Raw("_ctx.$slots"), name}
	var props ast.JSNode
	if len(rest) > 0 {
		el.Props = rest
		props = c.buildProps(el, false).props
	}
	var fallback ast.JSNode
	if kids := c.children(el.Children); len(kids) > 0 {
		fallback = &ast.JSArrow{Params: "()", Body: c.childArray(kids)}
	}
	if props != nil || fallback != nil {
		if props == nil {
			props = &ast.JSObject{}
		}
		args = append(args, props)
	}
	if fallback != nil {
		args = append(args, fallback)
	}
	return c.call(ast.HelperRenderSlot, args...)
}

// buildSlots compiles the children of a component into its slots object.
// The second result reports whether the slots must be patched on every
// render.
func (c *Context) buildSlots(el *ast.Element) (ast.JSNode, bool) {
	depth := c.scope.Depth()
	saved := c.minScopeHit
	c.minScopeHit = noScopeHit
	defer func() {
		if saved < c.minScopeHit {
			c.minScopeHit = saved
		}
	}()

	var (
		static  []ast.JSProp
		dynamic []ast.JSNode
		names   = make(map[string]bool)
		dynName bool
	)

	if d := el.RemoveDir("slot"); d != nil {
		for _, id := range el.Children {
			if t, ok := c.arena.Get(id).(*ast.Element); ok && t.Tag == "template" && t.FindDir("slot") != nil {
				c.report(diag.VSlotMixedSlotUsage, t.Loc)
			}
		}
		key, fn := c.slotFunction(d, el.Children)
		if key != nil {
			static = append(static, ast.JSProp{Key: key, Computed: true, Value: fn})
			dynName = true
		} else {
			static = append(static, ast.Prop(slotName(d), fn))
		}
	} else {
		var implicit []ast.NodeID
		ids := el.Children
		for i := 0; i < len(ids); i++ {
			t, ok := c.arena.Get(ids[i]).(*ast.Element)
			if !ok || t.Tag != "template" || t.FindDir("slot") == nil {
				implicit = append(implicit, ids[i])
				continue
			}
			switch {
			case t.FindDir("if") != nil:
				chain, last := c.ifChain(ids, i)
				dynamic = append(dynamic, c.conditionalSlot(chain))
				i = last
			case t.FindDir("else-if") != nil || t.FindDir("else") != nil:
				c.report(diag.VElseNoAdjacentIf, t.Loc)
				t.RemoveDir("else-if")
				t.RemoveDir("else")
				i--
				continue
			case t.FindDir("for") != nil:
				dynamic = append(dynamic, c.loopSlot(t))
			default:
				d := t.RemoveDir("slot")
				key, fn := c.slotFunction(d, t.Children)
				if key != nil {
					static = append(static, ast.JSProp{Key: key, Computed: true, Value: fn})
					dynName = true
					continue
				}
				name := slotName(d)
				if names[name] {
					c.report(diag.VSlotDuplicateSlotNames, d.Loc)
					continue
				}
				names[name] = true
				static = append(static, ast.Prop(name, fn))
			}
		}
		if hasContent(c.arena, implicit) {
			if names["default"] {
				c.report(diag.VSlotExtraneousDefaultSlotChildren, c.arena.Get(implicit[0]).Span())
			} else {
				_, fn := c.slotFunction(nil, implicit)
				static = append(static, ast.Prop("default", fn))
			}
		}
	}

	if len(static) == 0 && len(dynamic) == 0 {
		return nil, false
	}
	isDynamic := len(dynamic) > 0 || dynName || c.minScopeHit <= depth
	flag := ast.SlotStable
	switch {
	case isDynamic:
		flag = ast.SlotDynamic
	case hasForwardedSlot(c.arena, el.Children):
		flag = ast.SlotForwarded
	}
	static = append(static, ast.Prop("_", ast.Raw(strconv.Itoa(int(flag)))))
	obj := &ast.JSObject{Props: static}
	if len(dynamic) > 0 {
		return c.call(ast.HelperCreateSlots, obj, &ast.JSArray{Elems: dynamic}), true
	}
	return obj, isDynamic
}

// slotFunction compiles one slot body into withCtx((props)=>[...]). A
// non-nil key is returned for dynamic slot names.
func (c *Context) slotFunction(d *ast.Directive, ids []ast.NodeID) (ast.JSNode, ast.JSNode) {
	var key ast.JSNode
	params := ""
	var names []string
	if d != nil {
		if d.Arg != nil && !d.Arg.Static {
			key = c.resolveExpr(d.Arg)
		}
		if d.Exp != nil {
			params = strings.TrimSpace(d.Exp.Content)
		}
		if params != "" {
			var err error
			if names, err = expr.Params(params); err != nil {
				c.reportf(diag.InvalidExpression, d.Exp.Loc, "invalid slot props: %s", params)
			}
		}
	}
	c.pushScope(names)
	kids := c.children(ids)
	c.popScope()
	return key, c.call(ast.HelperWithCtx, &ast.JSArrow{Params: "(" + params + ")", Body: c.childArray(kids)})
}

// conditionalSlot compiles a v-if chain of slot templates into nested
// conditionals over { name, fn, key } descriptors.
func (c *Context) conditionalSlot(chain []*ast.Element) ast.JSNode {
	var out ast.JSNode = ast.Raw("undefined")
	type branch struct {
		cond *ast.Expression
		desc ast.JSNode
	}
	var branches []branch
	for i, t := range chain {
		var cond *ast.Expression
		d := t.RemoveDir("if")
		if d == nil {
			d = t.RemoveDir("else-if")
		}
		if d != nil {
			cond = c.condition(d)
		} else {
			t.RemoveDir("else")
		}
		slot := t.RemoveDir("slot")
		branches = append(branches, branch{cond: cond, desc: c.slotDescriptor(slot, t.Children, ast.Str(strconv.Itoa(i)))})
	}
	for i := len(branches) - 1; i >= 0; i-- {
		if branches[i].cond == nil {
			out = branches[i].desc
			continue
		}
		out = &ast.JSCond{Test: &ast.JSExpr{Exp: branches[i].cond}, Cons: branches[i].desc, Alt: out}
	}
	return out
}

// loopSlot compiles <template v-for v-slot> into a renderList producing
// slot descriptors.
func (c *Context) loopSlot(t *ast.Element) ast.JSNode {
	d := t.RemoveDir("for")
	f, ok := c.parseFor(d)
	if !ok {
		return ast.Raw("undefined")
	}
	c.pushScope(f.names)
	c.inFor++
	desc := c.slotDescriptor(t.RemoveDir("slot"), t.Children, nil)
	c.inFor--
	c.popScope()
	return c.call(ast.HelperRenderList, &ast.JSExpr{Exp: f.source}, &ast.JSArrow{
		Params: "(" + strings.Join(f.params, ", ") + ")",
		Body:   desc,
	})
}

func (c *Context) slotDescriptor(d *ast.Directive, ids []ast.NodeID, key ast.JSNode) ast.JSNode {
	dynKey, fn := c.slotFunction(d, ids)
	var name ast.JSNode = ast.Str(slotName(d))
	if dynKey != nil {
		name = dynKey
	}
	obj := &ast.JSObject{Props: []ast.JSProp{ast.Prop("name", name), ast.Prop("fn", fn)}}
	if key != nil {
		obj.Props = append(obj.Props, ast.Prop("key", key))
	}
	return obj
}

func slotName(d *ast.Directive) string {
	if d == nil || d.Arg == nil || d.Arg.Content == "" {
		return "default"
	}
	return d.Arg.Content
}

// hasContent reports whether ids hold anything besides whitespace and
// comments.
func hasContent(arena *ast.Arena, ids []ast.NodeID) bool {
	for _, id := range ids {
		switch n := arena.Get(id).(type) {
		case *ast.Comment:
		case *ast.Text:
			if !isBlank(n.Content) {
				return true
			}
		default:
			return true
		}
	}
	return false
}

// hasForwardedSlot reports whether a <slot> outlet appears among ids.
func hasForwardedSlot(arena *ast.Arena, ids []ast.NodeID) bool {
	for _, id := range ids {
		el, ok := arena.Get(id).(*ast.Element)
		if !ok {
			continue
		}
		if el.Type == ast.SlotElement || hasForwardedSlot(arena, el.Children) {
			return true
		}
	}
	return false
}
