package transform

import (
	"strconv"
	"strings"

	"github.com/recera/vuec/pkg/compiler/ast"
	"github.com/recera/vuec/pkg/compiler/diag"
)

var builtIns = map[string]ast.Helper{
	"Teleport":         ast.HelperTeleport,
	"teleport":         ast.HelperTeleport,
	"KeepAlive":        ast.HelperKeepAlive,
	"keep-alive":       ast.HelperKeepAlive,
	"Suspense":         ast.HelperSuspense,
	"suspense":         ast.HelperSuspense,
	"Transition":       ast.HelperTransition,
	"transition":       ast.HelperTransition,
	"TransitionGroup":  ast.HelperTransitionGroup,
	"transition-group": ast.HelperTransitionGroup,
}

// element transforms el, running its structural directives first.
func (c *Context) element(el *ast.Element) ast.JSNode {
	if el.FindDir("for") != nil {
		return c.vFor(el)
	}
	if el.FindDir("if") != nil {
		return c.vIf([]*ast.Element{el})
	}
	if el.Type == ast.TemplateElement {
		return c.fragment(el, nil)
	}
	return c.vnode(el)
}

// vnode builds the creation call for a single element, component or slot
// outlet.
func (c *Context) vnode(el *ast.Element) ast.JSNode {
	if d := el.RemoveDir("once"); d != nil && !c.inVOnce {
		c.inVOnce = true
		n := c.vnode(el)
		c.inVOnce = false
		return c.cache(n, true)
	}
	if d := el.RemoveDir("memo"); d != nil {
		return c.vMemo(el, d)
	}
	if el.Type == ast.SlotElement {
		return c.slotOutlet(el)
	}
	if d := el.FindDir("slot"); d != nil && el.Type != ast.ComponentElement {
		c.report(diag.VSlotMisplaced, d.Loc)
		el.RemoveDir("slot")
	}

	call := &ast.VNodeCall{Loc: el.Loc}
	isComponent := el.Type == ast.ComponentElement
	var builtIn ast.Helper
	if isComponent {
		call.Tag, builtIn = c.componentTag(el)
		call.IsComponent = true
		if builtIn == ast.HelperTeleport || builtIn == ast.HelperSuspense || builtIn == ast.HelperKeepAlive || builtIn == ast.HelperResolveDynamicComponent {
			call.IsBlock = true
		}
	} else {
		call.Tag = ast.Str(el.Tag)
		switch el.Tag {
		case "svg", "foreignObject", "math":
			call.IsBlock = true
		}
	}

	pr := c.buildProps(el, isComponent)
	call.Props = pr.props
	call.PatchFlag = pr.flag
	call.DynamicProps = pr.dynamic
	if len(pr.directives) > 0 {
		call.Directives = &ast.JSArray{Elems: pr.directives}
	}

	switch {
	case pr.overridesChildren:
	case isComponent && builtIn != ast.HelperTeleport && builtIn != ast.HelperKeepAlive:
		slots, dynamic := c.buildSlots(el)
		call.Children = slots
		if dynamic {
			call.PatchFlag |= ast.FlagDynamicSlots
		}
	default:
		kids := c.children(el.Children)
		switch {
		case len(kids) == 0:
		case len(kids) == 1 && kids[0].text && !isComponent:
			call.Children = kids[0].node
			if kids[0].dynamic {
				call.PatchFlag |= ast.FlagText
			}
		default:
			call.Children = c.childArray(kids)
		}
		if builtIn == ast.HelperKeepAlive && call.Children != nil {
			call.PatchFlag |= ast.FlagDynamicSlots
		}
	}

	call.Hoistable = !isComponent && !c.inVOnce && c.inFor == 0 &&
		pr.static && call.PatchFlag == 0 && hoistableChildren(c.arena, call.Children)
	return &ast.JSVNode{ID: c.arena.Alloc(call)}
}

// componentTag resolves the tag of a component element. The helper is set
// for built-ins and dynamic components.
func (c *Context) componentTag(el *ast.Element) (ast.JSNode, ast.Helper) {
	tag := el.Tag
	if tag == "component" || strings.HasPrefix(attrValue(el, "is"), "vue:") {
		if tag == "component" {
			if d := el.FindBind("is"); d != nil {
				removeProp(el, d)
				return c.call(ast.HelperResolveDynamicComponent, c.resolveExpr(d.Exp)), ast.HelperResolveDynamicComponent
			}
		}
		if a := el.FindAttr("is"); a != nil {
			removeAttr(el, a)
			name := strings.TrimPrefix(a.Value, "vue:")
			if tag == "component" {
				return c.call(ast.HelperResolveDynamicComponent, ast.Str(name)), ast.HelperResolveDynamicComponent
			}
			tag = name
		}
	}
	if h, ok := builtIns[tag]; ok {
		return c.helper(h), h
	}
	for _, name := range []string{tag, ast.Camelize(tag), ast.PascalCase(tag)} {
		if access := c.setupAccess(name); access != "" {
			return ast.Raw(access), ""
		}
	}
	return ast.Raw(c.component(tag)), ""
}

// fragment renders the children of a <template v-if> or <template v-for>.
// A lone element child is used directly; anything else becomes a Fragment.
func (c *Context) fragment(el *ast.Element, key ast.JSNode) ast.JSNode {
	kids := c.children(el.Children)
	if len(kids) == 1 && !kids[0].text && !kids[0].comment {
		if key != nil {
			if v, ok := kids[0].node.(*ast.JSVNode); ok {
				if call, ok := c.arena.Get(v.ID).(*ast.VNodeCall); ok {
					call.Props = c.withKey(call.Props, key)
					call.Hoistable = false
				}
			}
		}
		return kids[0].node
	}
	call := &ast.VNodeCall{
		Loc:       el.Loc,
		Tag:       c.helper(ast.HelperFragment),
		Children:  c.childArray(kids),
		PatchFlag: ast.FlagStableFragment,
	}
	if key != nil {
		call.Props = &ast.JSObject{Props: []ast.JSProp{ast.Prop("key", key)}}
	}
	return &ast.JSVNode{ID: c.arena.Alloc(call)}
}

// vMemo wraps the element block in withMemo, keyed on a render cache slot.
func (c *Context) vMemo(el *ast.Element, d *ast.Directive) ast.JSNode {
	if d.Exp == nil || strings.TrimSpace(d.Exp.Content) == "" {
		c.report(diag.VMemoNoExpression, d.Loc)
		return c.vnode(el)
	}
	deps := c.resolveExpr(d.Exp)
	block := c.asBlock(c.vnode(el), nil)
	if v, ok := block.(*ast.JSVNode); ok {
		if call, ok := c.arena.Get(v.ID).(*ast.VNodeCall); ok {
			call.Hoistable = false
		}
	}
	slot := c.cached
	c.cached++
	return c.call(ast.HelperWithMemo, deps, &ast.JSArrow{Params: "()", Body: block}, ast.Raw("_cache"), ast.Raw(strconv.Itoa(slot)))
}

// hoistableChildren reports whether a children value is static.
func hoistableChildren(arena *ast.Arena, n ast.JSNode) bool {
	switch v := n.(type) {
	case nil:
		return true
	case *ast.JSString:
		return true
	case *ast.JSArray:
		for _, e := range v.Elems {
			if !hoistableChildren(arena, e) {
				return false
			}
		}
		return true
	case *ast.JSVNode:
		switch r := arena.Get(v.ID).(type) {
		case *ast.VNodeCall:
			return r.Hoistable
		case *ast.TextCall:
			return r.Hoistable
		case *ast.Hoisted:
			return true
		}
	case *ast.JSCall:
		if h, ok := v.Callee.(*ast.JSHelper); ok && h.Name == ast.HelperToDisplayString && len(v.Args) == 1 {
			if e, ok := v.Args[0].(*ast.JSExpr); ok {
				return e.Exp.Constant
			}
		}
	case *ast.JSConcat:
		for _, p := range v.Parts {
			if !hoistableChildren(arena, p) {
				return false
			}
		}
		return true
	}
	return false
}

func attrValue(el *ast.Element, name string) string {
	if a := el.FindAttr(name); a != nil {
		return a.Value
	}
	return ""
}

func removeAttr(el *ast.Element, a *ast.Attribute) {
	for i, p := range el.Props {
		if p == a {
			el.Props = append(el.Props[:i:i], el.Props[i+1:]...)
			return
		}
	}
}

func removeProp(el *ast.Element, d *ast.Directive) {
	for i, p := range el.Props {
		if p.Dir == d {
			el.Props = append(el.Props[:i:i], el.Props[i+1:]...)
			return
		}
	}
}
