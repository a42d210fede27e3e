package transform

import (
	"strings"

	"github.com/recera/vuec/pkg/compiler/ast"
	"github.com/recera/vuec/pkg/compiler/diag"
	"github.com/recera/vuec/pkg/compiler/expr"
	"github.com/recera/vuec/pkg/compiler/script"
)

// vModel expands v-model into a value prop, an update listener and, on
// native form elements, a runtime directive. An element carrying a
// rejected v-model is never treated as static.
func (c *Context) vModel(b *propsBuilder, el *ast.Element, d *ast.Directive, isComponent bool, res *propsResult) {
	res.static = false
	if d.Exp == nil || strings.TrimSpace(d.Exp.Content) == "" {
		c.report(diag.VModelNoExpression, d.Loc)
		return
	}
	content := strings.TrimSpace(d.Exp.Content)
	if !expr.IsMemberExpression(content) {
		c.report(diag.VModelMalformedExpression, d.Exp.Loc)
		return
	}
	if expr.IsSimpleIdentifier(content) {
		if c.scope.Has(content) {
			c.report(diag.VModelOnScopeVariable, d.Exp.Loc)
			return
		}
		if c.bindings.Kind(content) == script.Props {
			c.report(diag.VModelOnProps, d.Exp.Loc)
			return
		}
	}

	var helper ast.Helper
	if !isComponent {
		var ok bool
		if helper, ok = modelHelper(el); !ok {
			c.report(diag.VModelOnInvalidElement, d.Loc)
			return
		}
	}

	value := c.resolveExpr(d.Exp)
	assign := ast.NewExpression(content+" = $event", d.Exp.Loc)
	c.pushScope([]string{"$event"})
	c.resolve(assign, true)
	c.popScope()
	var update ast.JSNode = &ast.JSExpr{Exp: &ast.Expression{
		Content:  assign.Content,
		Loc:      assign.Loc,
		Resolved: true,
		Code:     "$event => (" + assign.Code + ")",
	}}
	if c.opts.CacheHandlers && !c.inVOnce && !scopeUsed(c, d.Exp, false) {
		update = c.cache(update, false)
	}

	prop := "modelValue"
	var dynamicArg *ast.JSExpr
	if d.Arg != nil {
		if d.Arg.Static {
			prop = d.Arg.Content
		} else {
			dynamicArg = c.resolveExpr(d.Arg)
		}
	}

	if dynamicArg != nil {
		b.add(ast.JSProp{Key: dynamicArg, Computed: true, Value: value})
		b.add(ast.JSProp{Key: ast.Raw(`"onUpdate:" + ` + dynamicArg.Exp.Code), Computed: true, Value: update})
		if isComponent && len(d.Modifiers) > 0 {
			b.add(ast.JSProp{Key: ast.Raw(dynamicArg.Exp.Code + ` + "Modifiers"`), Computed: true, Value: modifierObject(d.Modifiers)})
		}
		b.dynamicKey = true
		return
	}

	if isComponent {
		b.add(ast.Prop(prop, value))
		if !d.Exp.Constant && !d.Exp.Stable {
			b.addDynamic(prop)
		}
	}
	b.add(ast.Prop("onUpdate:"+prop, update))
	if _, cached := update.(*ast.JSCache); !cached {
		b.addDynamic("onUpdate:" + prop)
	}
	if isComponent {
		if len(d.Modifiers) > 0 {
			key := prop + "Modifiers"
			if prop == "modelValue" {
				key = "modelModifiers"
			}
			b.add(ast.Prop(key, modifierObject(d.Modifiers)))
		}
		return
	}

	entry := &ast.JSArray{Elems: []ast.JSNode{c.helper(helper), value}}
	if len(d.Modifiers) > 0 {
		entry.Elems = append(entry.Elems, ast.Raw("void 0"), modifierObject(d.Modifiers))
	}
	res.directives = append(res.directives, entry)
}

// modelHelper picks the runtime directive for a native form element.
func modelHelper(el *ast.Element) (ast.Helper, bool) {
	switch el.Tag {
	case "select":
		return ast.HelperVModelSelect, true
	case "textarea":
		return ast.HelperVModelText, true
	case "input":
	default:
		if strings.Contains(el.Tag, "-") {
			return ast.HelperVModelText, true
		}
		return "", false
	}
	if el.FindBind("type") != nil {
		return ast.HelperVModelDynamic, true
	}
	for _, p := range el.Props {
		if p.Dir != nil && p.Dir.Name == "bind" && p.Dir.Arg == nil {
			return ast.HelperVModelDynamic, true
		}
	}
	switch attrValue(el, "type") {
	case "radio":
		return ast.HelperVModelRadio, true
	case "checkbox":
		return ast.HelperVModelCheckbox, true
	}
	return ast.HelperVModelText, true
}
