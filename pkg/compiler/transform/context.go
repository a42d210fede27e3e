// Package transform turns a parsed template into the render tree the code
// generator prints.
//
// The walk is an explicit recursion. Entering an element runs the
// structural directives (v-for, v-if, v-slot), which decide what wraps the
// element and which scope its children see. Leaving it builds the props
// object and finalizes the patch flags from the already transformed
// children. Static hoisting runs as a separate pass over the finished tree.
package transform

import (
	"strconv"
	"strings"

	"github.com/recera/vuec/pkg/compiler/ast"
	"github.com/recera/vuec/pkg/compiler/diag"
	"github.com/recera/vuec/pkg/compiler/script"
)

// Mode selects how template expressions reach script bindings.
type Mode int

const (
	// RenderFn generates a separate render function that reads bindings
	// through $setup, $props, $data and $options.
	RenderFn Mode = iota
	// Inline generates a render closure inside setup() that closes over the
	// setup bindings directly.
	Inline
)

func (m Mode) String() string {
	if m == Inline {
		return "inline"
	}
	return "render"
}

// Options configure a transform.
type Options struct {
	Mode          Mode
	HoistStatic   bool
	CacheHandlers bool
	// Dev enables development-only output such as DEV_ROOT_FRAGMENT.
	Dev bool
}

// Asset is a component or directive resolved at runtime by name.
type Asset struct {
	Name string
	// Var is the local the resolved asset is stored in.
	Var string
}

// Result is the transformed render tree plus everything code generation
// needs to print it.
type Result struct {
	Mode       Mode
	Arena      *ast.Arena
	Root       ast.JSNode
	Hoists     []ast.NodeID
	Helpers    *ast.HelperSet
	Components []Asset
	Directives []Asset
	// Cached is the number of _cache slots the render function uses.
	Cached int
	// Used holds the script bindings the template references.
	Used map[string]bool
}

// Scope is one v-for or v-slot level of template-local names.
type Scope struct {
	vars   map[string]bool
	parent *Scope
	depth  int
}

// Has reports whether name is declared in s or one of its parents.
func (s *Scope) Has(name string) bool {
	return s.find(name) != nil
}

func (s *Scope) find(name string) *Scope {
	for ; s != nil; s = s.parent {
		if s.vars[name] {
			return s
		}
	}
	return nil
}

// Depth is 0 outside any scope.
func (s *Scope) Depth() int {
	if s == nil {
		return 0
	}
	return s.depth
}

// Context is the state of one transform run.
type Context struct {
	opts     Options
	arena    *ast.Arena
	bindings *script.Table
	diags    *diag.List
	helpers  *ast.HelperSet

	hoists     []ast.NodeID
	components []Asset
	directives []Asset
	cached     int
	used       map[string]bool

	scope   *Scope
	inVOnce bool
	inFor   int
	// minScopeHit is the shallowest scope depth a resolved identifier
	// referenced since it was last reset.
	minScopeHit int
}

func newContext(arena *ast.Arena, bindings *script.Table, opts Options, diags *diag.List) *Context {
	return &Context{
		opts:     opts,
		arena:    arena,
		bindings: bindings,
		diags:    diags,
		helpers:  ast.NewHelperSet(),
		used:     make(map[string]bool),

		minScopeHit: noScopeHit,
	}
}

const noScopeHit = int(^uint(0) >> 1)

func (c *Context) pushScope(names []string) {
	vars := make(map[string]bool, len(names))
	for _, n := range names {
		vars[n] = true
	}
	c.scope = &Scope{vars: vars, parent: c.scope, depth: c.scope.Depth() + 1}
}

func (c *Context) popScope() {
	c.scope = c.scope.parent
}

// helper marks h as used and returns a reference to it.
func (c *Context) helper(h ast.Helper) *ast.JSHelper {
	c.helpers.Add(h)
	return &ast.JSHelper{Name: h}
}

func (c *Context) call(h ast.Helper, args ...ast.JSNode) *ast.JSCall {
	return &ast.JSCall{Callee: c.helper(h), Args: args}
}

func (c *Context) cache(v ast.JSNode, vOnce bool) *ast.JSCache {
	n := &ast.JSCache{Index: c.cached, Value: v, VOnce: vOnce}
	c.cached++
	return n
}

// component returns the local a runtime-resolved component is stored in.
func (c *Context) component(name string) string {
	for _, a := range c.components {
		if a.Name == name {
			return a.Var
		}
	}
	c.helpers.Add(ast.HelperResolveComponent)
	a := Asset{Name: name, Var: assetVar(name, "component")}
	c.components = append(c.components, a)
	return a.Var
}

func (c *Context) directive(name string) string {
	for _, a := range c.directives {
		if a.Name == name {
			return a.Var
		}
	}
	c.helpers.Add(ast.HelperResolveDirective)
	a := Asset{Name: name, Var: assetVar(name, "directive")}
	c.directives = append(c.directives, a)
	return a.Var
}

// assetVar builds a valid identifier for an asset: "my-button" becomes
// "_component_my_button".
func assetVar(name, kind string) string {
	var b strings.Builder
	b.WriteString("_" + kind + "_")
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '-':
			b.WriteByte('_')
		case c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9':
			b.WriteByte(c)
		default:
			b.WriteString(strconv.Itoa(int(c)))
		}
	}
	return b.String()
}

func (c *Context) report(code diag.Code, span diag.Span) {
	if c.diags != nil {
		c.diags.Report(code, span)
	}
}

func (c *Context) reportf(code diag.Code, span diag.Span, format string, args ...any) {
	if c.diags != nil {
		c.diags.Reportf(code, span, format, args...)
	}
}
