package transform

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/recera/vuec/pkg/compiler/ast"
	"github.com/recera/vuec/pkg/compiler/diag"
	"github.com/recera/vuec/pkg/compiler/expr"
)

// vIf folds a v-if / v-else-if / v-else chain into one IfNode. Every
// branch is a block keyed by its position in the chain.
func (c *Context) vIf(chain []*ast.Element) ast.JSNode {
	node := &ast.IfNode{Loc: chain[0].Loc}
	for i, el := range chain {
		var cond *ast.Expression
		d := el.RemoveDir("if")
		if d == nil {
			d = el.RemoveDir("else-if")
		}
		if d != nil {
			cond = c.condition(d)
		} else {
			el.RemoveDir("else")
		}

		key := ast.Raw(strconv.Itoa(i))
		var body ast.JSNode
		if el.Type == ast.TemplateElement && el.FindDir("for") == nil {
			body = c.asBlock(c.fragment(el, key), nil)
		} else {
			body = c.asBlock(c.element(el), key)
		}
		node.Branches = append(node.Branches, ast.IfBranch{Loc: el.Loc, Cond: cond, Body: body})
	}
	return &ast.JSVNode{ID: c.arena.Alloc(node)}
}

// condition resolves the expression of a v-if or v-else-if. A missing
// expression is reported and treated as true.
func (c *Context) condition(d *ast.Directive) *ast.Expression {
	if d.Exp == nil || strings.TrimSpace(d.Exp.Content) == "" {
		c.report(diag.VIfNoExpression, d.Loc)
		return &ast.Expression{Content: "true", Loc: d.Loc, Resolved: true, Code: "true", Constant: true}
	}
	c.resolve(d.Exp, false)
	return d.Exp
}

// forAlias splits "(item, index) in items".
var forAlias = regexp.MustCompile(`^\s*([\s\S]*?)\s+(?:in|of)\s+(\S[\s\S]*)$`)

// forExpr is a parsed v-for expression.
type forExpr struct {
	source *ast.Expression
	// params are the callback parameters, e.g. ["item", "index"].
	params []string
	// names are the identifiers the parameters declare.
	names []string
}

func (c *Context) parseFor(d *ast.Directive) (forExpr, bool) {
	if d.Exp == nil || strings.TrimSpace(d.Exp.Content) == "" {
		c.report(diag.VForNoExpression, d.Loc)
		return forExpr{}, false
	}
	content := d.Exp.Content
	m := forAlias.FindStringSubmatchIndex(content)
	if m == nil {
		c.report(diag.VForMalformedExpression, d.Exp.Loc)
		return forExpr{}, false
	}
	alias := strings.TrimSpace(content[m[2]:m[3]])
	srcText := strings.TrimRight(content[m[4]:m[5]], " \t\r\n")
	source := ast.NewExpression(srcText, diag.Span{
		Start: positionAt(d.Exp.Loc.Start, content, m[4]),
		End:   positionAt(d.Exp.Loc.Start, content, m[4]+len(srcText)),
	})

	if strings.HasPrefix(alias, "(") && strings.HasSuffix(alias, ")") {
		alias = alias[1 : len(alias)-1]
	}
	params := splitTopLevel(alias)
	names, err := expr.Params(strings.Join(params, ", "))
	if err != nil || len(params) == 0 || len(params) > 3 {
		c.report(diag.VForMalformedExpression, d.Exp.Loc)
		return forExpr{}, false
	}
	c.resolve(source, false)
	return forExpr{source: source, params: params, names: names}, true
}

// vFor wraps el in a ForNode. v-for takes precedence over v-if on the same
// element: the condition is evaluated per item inside the loop.
func (c *Context) vFor(el *ast.Element) ast.JSNode {
	d := el.RemoveDir("for")
	f, ok := c.parseFor(d)
	if !ok {
		return c.element(el)
	}

	hasKey := el.FindBind("key") != nil || el.FindAttr("key") != nil
	flag := ast.FlagUnkeyedFragment
	switch {
	case f.source.Constant:
		flag = ast.FlagStableFragment
	case hasKey:
		flag = ast.FlagKeyedFragment
	}

	c.pushScope(f.names)
	c.inFor++
	var body ast.JSNode
	if el.Type == ast.TemplateElement && el.FindDir("if") == nil {
		body = c.fragment(el, c.templateKey(el))
	} else {
		body = c.element(el)
	}
	if flag != ast.FlagStableFragment {
		body = c.asBlock(body, nil)
	}
	c.inFor--
	c.popScope()

	node := &ast.ForNode{Loc: el.Loc, Source: f.source, Params: f.params, Body: body, PatchFlag: flag}
	return &ast.JSVNode{ID: c.arena.Alloc(node)}
}

// templateKey takes the key off a <template v-for> so it can be placed on
// the rendered child or fragment.
func (c *Context) templateKey(el *ast.Element) ast.JSNode {
	for _, id := range el.Children {
		if child, ok := c.arena.Get(id).(*ast.Element); ok && (child.FindBind("key") != nil || child.FindAttr("key") != nil) {
			c.report(diag.DuplicateKeyOnTemplateChild, child.Loc)
		}
	}
	if d := el.FindBind("key"); d != nil && d.Exp != nil {
		removeProp(el, d)
		return c.resolveExpr(d.Exp)
	}
	if a := el.FindAttr("key"); a != nil {
		removeAttr(el, a)
		return ast.Str(a.Value)
	}
	return nil
}

// splitTopLevel splits s on commas outside brackets and trims each part.
func splitTopLevel(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if last := strings.TrimSpace(s[start:]); last != "" || len(out) > 0 {
		out = append(out, last)
	}
	return out
}
