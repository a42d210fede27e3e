package transform

import (
	"strings"

	"github.com/recera/vuec/pkg/compiler/ast"
	"github.com/recera/vuec/pkg/compiler/diag"
)

// propsResult is what buildProps learned about an element's attributes.
type propsResult struct {
	props      ast.JSNode
	flag       ast.PatchFlags
	dynamic    []string
	directives []ast.JSNode
	// static is set when no attribute needs per-render evaluation.
	static bool
	// overridesChildren is set by v-html and v-text.
	overridesChildren bool
}

// propsBuilder accumulates object members, splitting into mergeProps
// arguments around v-bind and v-on object spreads.
type propsBuilder struct {
	current    []ast.JSProp
	segments   []ast.JSNode
	merged     map[string]bool
	dynamicKey bool

	hasClass     bool
	hasStyle     bool
	hasRef       bool
	hasHydration bool
	hasVNodeHook bool
	dynamic      []string
}

func (b *propsBuilder) add(p ast.JSProp) {
	key := ast.PropKey(p)
	if key != "" && (key == "class" || key == "style" || isOn(key)) {
		for i := range b.current {
			if ast.PropKey(b.current[i]) != key {
				continue
			}
			if b.merged[key] {
				arr := b.current[i].Value.(*ast.JSArray)
				arr.Elems = append(arr.Elems, p.Value)
			} else {
				b.current[i].Value = &ast.JSArray{Elems: []ast.JSNode{b.current[i].Value, p.Value}}
				if b.merged == nil {
					b.merged = make(map[string]bool)
				}
				b.merged[key] = true
			}
			return
		}
	}
	b.current = append(b.current, p)
}

func (b *propsBuilder) addDynamic(name string) {
	for _, n := range b.dynamic {
		if n == name {
			return
		}
	}
	b.dynamic = append(b.dynamic, name)
}

func (b *propsBuilder) spread(n ast.JSNode) {
	b.flush()
	b.segments = append(b.segments, n)
	b.dynamicKey = true
}

func (b *propsBuilder) flush() {
	if len(b.current) == 0 {
		return
	}
	b.segments = append(b.segments, &ast.JSObject{Props: b.current})
	b.current = nil
	b.merged = nil
}

// buildProps transforms the attributes and non-structural directives of el
// into the props argument of its creation call.
func (c *Context) buildProps(el *ast.Element, isComponent bool) propsResult {
	b := &propsBuilder{}
	res := propsResult{static: true}

	for _, a := range el.Props {
		if a.Dir == nil {
			c.staticAttr(b, el, a, isComponent, &res)
			continue
		}
		d := a.Dir
		switch d.Name {
		case "bind":
			c.vBind(b, d, isComponent, &res)
		case "on":
			c.vOnProp(b, d, isComponent)
			res.static = false
		case "model":
			c.vModel(b, el, d, isComponent, &res)
		case "show":
			if d.Exp == nil || strings.TrimSpace(d.Exp.Content) == "" {
				c.report(diag.VShowNoExpression, d.Loc)
				continue
			}
			res.directives = append(res.directives, &ast.JSArray{Elems: []ast.JSNode{c.helper(ast.HelperVShow), c.resolveExpr(d.Exp)}})
			res.static = false
		case "html", "text":
			c.vHTMLText(b, el, d, &res)
		case "cloak", "pre", "once", "memo", "if", "else-if", "else", "for", "slot":
		default:
			if el.Type == ast.TemplateElement {
				c.report(diag.DirectiveOnTemplate, d.Loc)
				continue
			}
			res.directives = append(res.directives, c.customDirective(d))
			res.static = false
		}
	}

	res.props = c.finishProps(b)
	if b.dynamicKey {
		res.flag |= ast.FlagFullProps
	} else {
		if b.hasClass && !isComponent {
			res.flag |= ast.FlagClass
		}
		if b.hasStyle && !isComponent {
			res.flag |= ast.FlagStyle
		}
		if len(b.dynamic) > 0 {
			res.flag |= ast.FlagProps
			res.dynamic = b.dynamic
		}
	}
	if b.hasHydration {
		res.flag |= ast.FlagNeedHydration
	}
	if (res.flag == 0 || res.flag == ast.FlagNeedHydration) && (b.hasRef || b.hasVNodeHook || len(res.directives) > 0) {
		res.flag |= ast.FlagNeedPatch
	}
	if res.flag != 0 {
		res.static = false
	}
	return res
}

// finishProps assembles the final props value.
func (c *Context) finishProps(b *propsBuilder) ast.JSNode {
	if len(b.segments) == 0 {
		if len(b.current) == 0 {
			return nil
		}
		obj := &ast.JSObject{Props: b.current}
		if b.dynamicKey {
			return c.call(ast.HelperNormalizeProps, obj)
		}
		c.normalizeClassStyle(obj)
		return obj
	}
	b.flush()
	if len(b.segments) == 1 {
		switch s := b.segments[0].(type) {
		case *ast.JSObject:
			return c.call(ast.HelperNormalizeProps, s)
		case *ast.JSCall:
			if h, ok := s.Callee.(*ast.JSHelper); ok && h.Name == ast.HelperToHandlers {
				return s
			}
		}
		return c.call(ast.HelperNormalizeProps, c.call(ast.HelperGuardReactiveProps, b.segments[0]))
	}
	return c.call(ast.HelperMergeProps, b.segments...)
}

// normalizeClassStyle wraps dynamic class and style values in their
// runtime normalizers.
func (c *Context) normalizeClassStyle(obj *ast.JSObject) {
	for i, p := range obj.Props {
		switch ast.PropKey(p) {
		case "class":
			if _, ok := p.Value.(*ast.JSString); !ok {
				obj.Props[i].Value = c.call(ast.HelperNormalizeClass, p.Value)
			}
		case "style":
			if _, ok := p.Value.(*ast.JSObject); !ok {
				obj.Props[i].Value = c.call(ast.HelperNormalizeStyle, p.Value)
			}
		}
	}
}

func (c *Context) staticAttr(b *propsBuilder, el *ast.Element, a *ast.Attribute, isComponent bool, res *propsResult) {
	switch a.Name {
	case "ref":
		b.hasRef = true
		res.static = false
		if c.opts.Mode == Inline {
			if bd, ok := c.bindings.Lookup(a.Value); ok && bd.Kind.IsSetup() {
				c.used[a.Value] = true
				b.add(ast.Prop("ref_key", ast.Str(a.Value)))
				b.add(ast.Prop("ref", ast.Raw(a.Value)))
				return
			}
		}
	case "key":
		res.static = false
	case "is":
		if el.Tag == "component" || strings.HasPrefix(a.Value, "vue:") {
			return
		}
	}
	if a.Name == "style" {
		b.add(ast.Prop("style", parseStyle(a.Value)))
		return
	}
	b.add(ast.Prop(a.Name, ast.Str(a.Value)))
}

func (c *Context) vBind(b *propsBuilder, d *ast.Directive, isComponent bool, res *propsResult) {
	if d.Arg == nil {
		if d.Exp == nil || strings.TrimSpace(d.Exp.Content) == "" {
			c.report(diag.VBindNoExpression, d.Loc)
			return
		}
		b.spread(c.resolveExpr(d.Exp))
		res.static = false
		return
	}
	exp := d.Exp
	if exp == nil || strings.TrimSpace(exp.Content) == "" {
		if !d.Arg.Static {
			c.report(diag.VBindNoExpression, d.Loc)
			return
		}
		exp = ast.NewExpression(ast.Camelize(d.Arg.Content), d.Arg.Loc)
		d.Exp = exp
	}
	value := c.resolveExpr(exp)

	if !d.Arg.Static {
		key := c.resolveExpr(d.Arg)
		b.add(ast.JSProp{Key: &ast.JSRaw{Code: key.Exp.Code + ` || ""`}, Computed: true, Value: value})
		b.dynamicKey = true
		res.static = false
		return
	}

	name := d.Arg.Content
	if d.HasModifier("camel") {
		name = ast.Camelize(name)
	}
	if d.HasModifier("prop") {
		name = "." + name
	} else if d.HasModifier("attr") {
		name = "^" + name
	}
	b.add(ast.Prop(name, value))

	if name == "key" {
		res.static = false
	}
	if exp.Constant {
		return
	}
	res.static = false
	if exp.Stable {
		return
	}
	switch {
	case name == "key":
	case name == "ref":
		b.hasRef = true
	case name == "class" && !isComponent:
		b.hasClass = true
	case name == "style" && !isComponent:
		b.hasStyle = true
	default:
		b.addDynamic(name)
	}
}

func (c *Context) vHTMLText(b *propsBuilder, el *ast.Element, d *ast.Directive, res *propsResult) {
	code := diag.VHTMLWithChildren
	if d.Name == "text" {
		code = diag.VTextWithChildren
	}
	if len(el.Children) > 0 {
		c.report(code, d.Loc)
	}
	res.overridesChildren = true
	if d.Exp == nil || strings.TrimSpace(d.Exp.Content) == "" {
		return
	}
	value := ast.JSNode(c.resolveExpr(d.Exp))
	key := "innerHTML"
	if d.Name == "text" {
		key = "textContent"
		value = c.call(ast.HelperToDisplayString, value)
	}
	b.add(ast.Prop(key, value))
	if !d.Exp.Constant {
		res.static = false
		b.addDynamic(key)
	}
}

// customDirective builds one withDirectives entry:
// [dir, exp, arg, modifiers] with trailing members omitted.
func (c *Context) customDirective(d *ast.Directive) ast.JSNode {
	var dir ast.JSNode
	if access := c.setupAccess("v" + ast.PascalCase(d.Name)); access != "" {
		dir = ast.Raw(access)
	} else {
		dir = ast.Raw(c.directive(d.Name))
	}
	entry := &ast.JSArray{Elems: []ast.JSNode{dir}}
	hasExp := d.Exp != nil && strings.TrimSpace(d.Exp.Content) != ""
	if hasExp {
		entry.Elems = append(entry.Elems, c.resolveExpr(d.Exp))
	}
	if d.Arg != nil {
		if !hasExp {
			entry.Elems = append(entry.Elems, ast.Raw("void 0"))
		}
		if d.Arg.Static {
			entry.Elems = append(entry.Elems, ast.Str(d.Arg.Content))
		} else {
			entry.Elems = append(entry.Elems, c.resolveExpr(d.Arg))
		}
	}
	if len(d.Modifiers) > 0 {
		if d.Arg == nil {
			if !hasExp {
				entry.Elems = append(entry.Elems, ast.Raw("void 0"))
			}
			entry.Elems = append(entry.Elems, ast.Raw("void 0"))
		}
		entry.Elems = append(entry.Elems, modifierObject(d.Modifiers))
	}
	return entry
}

func modifierObject(mods []string) *ast.JSObject {
	obj := &ast.JSObject{}
	for _, m := range mods {
		obj.Props = append(obj.Props, ast.Prop(m, ast.Raw("true")))
	}
	return obj
}

// parseStyle turns a static style attribute into an object literal:
// "color: red; font-size: 12px" becomes { color: "red", "font-size": "12px" }.
func parseStyle(s string) *ast.JSObject {
	obj := &ast.JSObject{}
	depth := 0
	start := 0
	emit := func(decl string) {
		i := strings.IndexByte(decl, ':')
		if i < 0 {
			return
		}
		k := strings.TrimSpace(decl[:i])
		v := strings.TrimSpace(decl[i+1:])
		if k != "" {
			obj.Props = append(obj.Props, ast.Prop(k, ast.Str(v)))
		}
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ';':
			if depth == 0 {
				emit(s[start:i])
				start = i + 1
			}
		}
	}
	emit(s[start:])
	return obj
}

func isOn(key string) bool {
	return len(key) > 2 && strings.HasPrefix(key, "on") && (key[2] >= 'A' && key[2] <= 'Z' || key[2] == ':')
}
