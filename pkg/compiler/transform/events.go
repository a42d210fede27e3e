package transform

import (
	"strconv"
	"strings"

	"github.com/recera/vuec/pkg/compiler/ast"
	"github.com/recera/vuec/pkg/compiler/diag"
	"github.com/recera/vuec/pkg/compiler/expr"
)

var (
	eventOptionModifiers = map[string]bool{"passive": true, "once": true, "capture": true}
	nonKeyModifiers      = map[string]bool{
		"stop": true, "prevent": true, "self": true, "ctrl": true, "shift": true,
		"alt": true, "meta": true, "exact": true, "middle": true,
	}
	keyboardEvents = map[string]bool{"onkeyup": true, "onkeydown": true, "onkeypress": true}
)

// vOnProp adds the listener of a v-on directive to b.
func (c *Context) vOnProp(b *propsBuilder, d *ast.Directive, isComponent bool) {
	if d.Arg == nil {
		if d.Exp == nil || strings.TrimSpace(d.Exp.Content) == "" {
			c.report(diag.VOnNoExpression, d.Loc)
			return
		}
		args := []ast.JSNode{c.resolveExpr(d.Exp)}
		if !isComponent {
			args = append(args, ast.Raw("true"))
		}
		b.spread(c.call(ast.HelperToHandlers, args...))
		return
	}

	key, static := c.eventKey(d, isComponent)
	value, cached := c.handler(d, isComponent)

	var options, keys, nonKeys []string
	for _, m := range d.Modifiers {
		switch {
		case m == "native":
		case eventOptionModifiers[m]:
			options = append(options, m)
		case m == "left" || m == "right":
			if static == "" {
				keys = append(keys, m)
				nonKeys = append(nonKeys, m)
			} else if keyboardEvents[strings.ToLower(static)] {
				keys = append(keys, m)
			} else {
				nonKeys = append(nonKeys, m)
			}
		case nonKeyModifiers[m]:
			nonKeys = append(nonKeys, m)
		default:
			keys = append(keys, m)
		}
	}
	if static != "" {
		if contains(nonKeys, "right") && strings.EqualFold(static, "onclick") {
			static = "onContextmenu"
		} else if contains(nonKeys, "middle") && strings.EqualFold(static, "onclick") {
			static = "onMouseup"
		}
	}
	if len(nonKeys) > 0 {
		value = c.call(ast.HelperWithModifiers, value, stringArray(nonKeys))
	}
	if len(keys) > 0 && (static == "" || keyboardEvents[strings.ToLower(static)]) {
		value = c.call(ast.HelperWithKeys, value, stringArray(keys))
	}
	if cached {
		value = c.cache(value, false)
	}

	suffix := ""
	for _, m := range options {
		suffix += ast.Capitalize(m)
	}
	if static != "" {
		name := static + suffix
		b.add(ast.Prop(name, value))
		if strings.HasPrefix(name, "onVnode") {
			b.hasVNodeHook = true
		}
		if !isComponent && static != "onClick" && static != "onUpdate:modelValue" {
			b.hasHydration = true
		}
		if !cached && !isConstantHandler(value) {
			b.addDynamic(name)
		}
		return
	}
	if suffix != "" {
		key = ast.Raw(key.(*ast.JSRaw).Code + ` + "` + suffix + `"`)
	}
	b.add(ast.JSProp{Key: key, Computed: true, Value: value})
	b.dynamicKey = true
}

// eventKey returns the prop key of a listener. For a static event name the
// second result is the key itself, e.g. "onClick".
func (c *Context) eventKey(d *ast.Directive, isComponent bool) (ast.JSNode, string) {
	if d.Arg.Static {
		raw := d.Arg.Content
		if strings.HasPrefix(raw, "vue:") {
			raw = "vnode-" + raw[4:]
		}
		var key string
		if isComponent || strings.HasPrefix(raw, "vnode") || strings.ToLower(raw) == raw {
			key = "on" + ast.Capitalize(ast.Camelize(raw))
		} else {
			key = "on:" + raw
		}
		return ast.Str(key), key
	}
	arg := c.resolveExpr(d.Arg)
	code := arg.Exp.Code
	if isComponent {
		code = c.helper(ast.HelperCamelize).Name.Local() + "(" + code + ")"
	}
	return ast.Raw(c.helper(ast.HelperToHandlerKey).Name.Local() + "(" + code + ")"), ""
}

// handler builds the listener value and reports whether it may be stored
// in the render cache.
func (c *Context) handler(d *ast.Directive, isComponent bool) (ast.JSNode, bool) {
	if d.Exp == nil || strings.TrimSpace(d.Exp.Content) == "" {
		if len(d.Modifiers) == 0 {
			c.report(diag.VOnNoExpression, d.Loc)
		}
		return ast.Raw("() => {}"), c.opts.CacheHandlers && !c.inVOnce
	}
	content := strings.TrimSpace(d.Exp.Content)
	isMember := expr.IsMemberExpression(content)
	isFn := !isMember && expr.IsFunctionExpression(content)

	statements := !isMember && !isFn
	if statements {
		c.pushScope([]string{"$event"})
	}
	c.resolve(d.Exp, statements)
	if statements {
		c.popScope()
	}
	code := d.Exp.Code
	usesScope := scopeUsed(c, d.Exp, statements)

	cache := c.opts.CacheHandlers && !c.inVOnce && !d.Exp.Constant && !d.Exp.Stable &&
		!(isMember && isComponent) && !usesScope

	switch {
	case isMember && cache:
		code = "(...args) => (" + code + " && " + code + "(...args))"
	case !isMember && !isFn:
		if strings.Contains(content, ";") {
			code = "$event => {" + code + "}"
		} else {
			code = "$event => (" + code + ")"
		}
	}
	e := &ast.Expression{Content: d.Exp.Content, Loc: d.Exp.Loc, Resolved: true, Code: code, Constant: d.Exp.Constant}
	if offset := strings.Index(code, d.Exp.Code); offset >= 0 {
		for _, m := range d.Exp.Marks {
			e.Marks = append(e.Marks, ast.Segment{Offset: m.Offset + offset, Src: m.Src})
		}
	}
	return &ast.JSExpr{Exp: e}, cache
}

// scopeUsed reports whether e mentions a v-for or v-slot variable of the
// current scope chain.
func scopeUsed(c *Context, e *ast.Expression, statements bool) bool {
	if c.scope == nil {
		return false
	}
	a, err := expr.Analyze(strings.TrimSpace(e.Content), statements)
	if err != nil {
		return false
	}
	for _, id := range a.Idents {
		if c.scope.Has(id.Name) {
			return true
		}
	}
	return false
}

func isConstantHandler(n ast.JSNode) bool {
	if e, ok := n.(*ast.JSExpr); ok {
		return e.Exp.Constant || e.Exp.Stable
	}
	return false
}

func stringArray(list []string) *ast.JSRaw {
	quoted := make([]string, len(list))
	for i, s := range list {
		quoted[i] = strconv.Quote(s)
	}
	return ast.Raw("[" + strings.Join(quoted, ",") + "]")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
