package transform

import (
	"strings"

	"github.com/recera/vuec/pkg/compiler/ast"
	"github.com/recera/vuec/pkg/compiler/diag"
	"github.com/recera/vuec/pkg/compiler/expr"
	"github.com/recera/vuec/pkg/compiler/script"
)

// resolve rewrites every free identifier of e into the access the current
// mode needs and fills in e.Code. Statements mode is used for inline event
// handlers. An expression that does not parse is kept verbatim.
func (c *Context) resolve(e *ast.Expression, statements bool) {
	if e == nil || e.Resolved {
		return
	}
	e.Resolved = true
	content := strings.TrimSpace(e.Content)
	if content == "" {
		e.Code = ""
		e.Constant = true
		return
	}
	lead := strings.Index(e.Content, content)

	a, err := expr.Analyze(content, statements)
	if err != nil {
		c.reportf(diag.InvalidExpression, e.Loc, "invalid expression: %s", content)
		e.Code = content
		return
	}

	constant := true
	code, marks := expr.Rewrite(content, a.Idents, func(id expr.Ident) string {
		access := c.access(id.Name, id.Assigned)
		if !expr.IsGloballyAllowed(id.Name) {
			constant = false
		}
		return access
	})
	e.Code = code
	e.Constant = constant
	if len(a.Idents) == 1 && a.Idents[0].Start == 0 && a.Idents[0].End == len(content) {
		switch c.bindings.Kind(a.Idents[0].Name) {
		case script.SetupConst, script.LiteralConst:
			e.Stable = !c.scope.Has(a.Idents[0].Name)
		}
	}
	e.Marks = e.Marks[:0]
	for _, m := range marks {
		e.Marks = append(e.Marks, ast.Segment{
			Offset: m.Code,
			Src:    positionAt(e.Loc.Start, e.Content, lead+m.Src),
		})
	}
}

// resolveExpr resolves e and wraps it for the output IR.
func (c *Context) resolveExpr(e *ast.Expression) *ast.JSExpr {
	c.resolve(e, false)
	return &ast.JSExpr{Exp: e}
}

// access returns how the template reaches name, or "" to leave it bare.
func (c *Context) access(name string, assigned bool) string {
	if s := c.scope.find(name); s != nil {
		if s.depth < c.minScopeHit {
			c.minScopeHit = s.depth
		}
		return ""
	}
	b, ok := c.bindings.Lookup(name)
	if !ok {
		if expr.IsGloballyAllowed(name) {
			return ""
		}
		return "_ctx." + name
	}
	c.used[name] = true

	if c.opts.Mode == RenderFn {
		switch b.Kind {
		case script.Props:
			return "$props." + name
		case script.Data:
			return "$data." + name
		case script.Options:
			return "$options." + name
		}
		return "$setup." + name
	}

	switch b.Kind {
	case script.SetupRef:
		return name + ".value"
	case script.SetupMaybeRef:
		if assigned {
			return name + ".value"
		}
		return c.helper(ast.HelperUnref).Name.Local() + "(" + name + ")"
	case script.SetupLet:
		if assigned {
			return name
		}
		return c.helper(ast.HelperUnref).Name.Local() + "(" + name + ")"
	case script.Props:
		return "__props." + name
	case script.Data, script.Options:
		return "_ctx." + name
	}
	return name
}

// setupAccess returns how a component or directive bound in setup is
// referenced, or "" when name is not a setup binding.
func (c *Context) setupAccess(name string) string {
	b, ok := c.bindings.Lookup(name)
	if !ok || !b.Kind.IsSetup() {
		return ""
	}
	c.used[name] = true
	if c.opts.Mode == RenderFn {
		return `$setup["` + name + `"]`
	}
	switch b.Kind {
	case script.SetupRef:
		return name + ".value"
	case script.SetupMaybeRef, script.SetupLet:
		return c.helper(ast.HelperUnref).Name.Local() + "(" + name + ")"
	}
	return name
}

// positionAt returns the position off bytes into s, which starts at start.
func positionAt(start diag.Position, s string, off int) diag.Position {
	if off > len(s) {
		off = len(s)
	}
	pos := start
	for i := 0; i < off; i++ {
		pos.Offset++
		if s[i] == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
	}
	return pos
}

// constExpr is a resolved expression with fixed code, used for values the
// transformer synthesizes.
func constExpr(code string) *ast.JSExpr {
	return &ast.JSExpr{Exp: &ast.Expression{Content: code, Code: code, Resolved: true, Constant: true}}
}
