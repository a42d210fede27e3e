// Package expr analyzes and rewrites the JavaScript expressions found in
// templates.
//
// Analysis runs two passes over the source: js.Parse validates the syntax
// and reports which names are free (undeclared in the expression itself),
// and a js.Lexer pass locates every identifier reference with its byte
// offset. Only references to free names are candidates for rewriting, so
// arrow parameters and destructured names stay untouched.
package expr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

// Ident is one reference to a free identifier.
type Ident struct {
	Name  string
	Start int
	End   int
	// Shorthand is set for { name } object members, which must be
	// expanded to name: <access> when rewritten.
	Shorthand bool
	// Assigned is set when the identifier is the target of an assignment
	// or update expression.
	Assigned bool
}

// Analysis is the result of Analyze.
type Analysis struct {
	Source string
	Idents []Ident
	// Declared holds names bound inside the expression (arrow parameters,
	// destructuring, statement-mode declarations).
	Declared map[string]bool
}

// Free returns the distinct free names in order of first use.
func (a *Analysis) Free() []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range a.Idents {
		if !seen[id.Name] {
			seen[id.Name] = true
			out = append(out, id.Name)
		}
	}
	return out
}

// Analyze parses src as an expression, or as a statement list when
// statements is set (event handlers), and collects its free identifier
// references.
func Analyze(src string, statements bool) (*Analysis, error) {
	body := src
	if !statements {
		body = "(" + src + "\n)"
	}
	tree, err := js.Parse(parse.NewInputString(body), js.Options{})
	if err != nil {
		return nil, fmt.Errorf("parse expression %q: %w", src, err)
	}
	if !statements && !singleExpression(tree) {
		return nil, fmt.Errorf("parse expression %q: not a single expression", src)
	}

	free := make(map[string]bool)
	for _, v := range tree.BlockStmt.Scope.Undeclared {
		if v.Decl == js.NoDecl {
			free[string(v.Name())] = true
		}
	}
	declared := make(map[string]bool)
	js.Walk(declCollector(declared), tree)

	a := &Analysis{Source: src, Declared: declared}
	for _, id := range scanIdents(src, !statements) {
		if free[id.Name] && !declared[id.Name] {
			a.Idents = append(a.Idents, id)
		}
	}
	return a, nil
}

func singleExpression(tree *js.AST) bool {
	if len(tree.BlockStmt.List) != 1 {
		return false
	}
	_, ok := tree.BlockStmt.List[0].(*js.ExprStmt)
	return ok
}

// declCollector records every declared name of every scope it visits.
type declCollector map[string]bool

func (c declCollector) Enter(n js.INode) js.IVisitor {
	if b, ok := n.(*js.BlockStmt); ok {
		for _, v := range b.Scope.Declared {
			c[string(v.Name())] = true
		}
	}
	return c
}

func (c declCollector) Exit(js.INode) {}

// Mark maps an offset in rewritten code back to an offset in the source.
type Mark struct {
	Code int
	Src  int
}

// Rewrite replaces every identifier in idents with the access returned by
// resolve. An empty access leaves the identifier unchanged. Shorthand
// members are expanded to name: access.
func Rewrite(src string, idents []Ident, resolve func(Ident) string) (string, []Mark) {
	sorted := append([]Ident(nil), idents...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var b strings.Builder
	var marks []Mark
	last := 0
	for _, id := range sorted {
		access := resolve(id)
		if access == "" || access == id.Name {
			continue
		}
		b.WriteString(src[last:id.Start])
		if id.Shorthand {
			b.WriteString(id.Name)
			b.WriteString(": ")
		}
		marks = append(marks, Mark{Code: b.Len(), Src: id.Start})
		b.WriteString(access)
		last = id.End
	}
	b.WriteString(src[last:])
	return b.String(), marks
}

// IsSimpleIdentifier reports whether s is a single identifier name.
func IsSimpleIdentifier(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	l := js.NewLexer(parse.NewInputString(s))
	tt, data := l.Next()
	if !js.IsIdentifier(tt) || len(data) != len(s) {
		return false
	}
	tt, _ = l.Next()
	return tt == js.ErrorToken
}

// IsMemberExpression reports whether s is an identifier or a member
// access such as a.b or a[b], the forms v-model can assign to.
func IsMemberExpression(s string) bool {
	switch unwrap(s).(type) {
	case *js.Var, *js.DotExpr, *js.IndexExpr:
		return true
	}
	return false
}

// IsFunctionExpression reports whether s is an arrow function or a
// function expression.
func IsFunctionExpression(s string) bool {
	switch unwrap(s).(type) {
	case *js.ArrowFunc, *js.FuncDecl:
		return true
	}
	return false
}

// IsLiteral reports whether s is a string, number, boolean or null
// literal.
func IsLiteral(s string) bool {
	lit, ok := unwrap(s).(*js.LiteralExpr)
	if !ok {
		return false
	}
	switch lit.TokenType {
	case js.StringToken, js.TrueToken, js.FalseToken, js.NullToken:
		return true
	}
	return js.IsNumeric(lit.TokenType)
}

func unwrap(s string) js.IExpr {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	tree, err := js.Parse(parse.NewInputString("("+s+"\n)"), js.Options{})
	if err != nil || !singleExpression(tree) {
		return nil
	}
	e := tree.BlockStmt.List[0].(*js.ExprStmt).Value
	for {
		g, ok := e.(*js.GroupExpr)
		if !ok {
			return e
		}
		e = g.X
	}
}

var globallyAllowed = map[string]bool{}

func init() {
	for _, name := range strings.Split("Infinity,undefined,NaN,isFinite,isNaN,parseFloat,parseInt,"+
		"decodeURI,decodeURIComponent,encodeURI,encodeURIComponent,Math,Number,Date,Array,"+
		"Object,Boolean,String,RegExp,Map,Set,JSON,Intl,BigInt,console,Error,Symbol", ",") {
		globallyAllowed[name] = true
	}
}

// IsGloballyAllowed reports whether templates may use name as a browser
// global without going through the component instance.
func IsGloballyAllowed(name string) bool {
	return globallyAllowed[name]
}

// Params returns the names a parameter list such as "{ item }, index"
// declares, in order.
func Params(src string) ([]string, error) {
	tree, err := js.Parse(parse.NewInputString("("+src+"\n) => 0"), js.Options{})
	if err != nil {
		return nil, fmt.Errorf("parse parameters %q: %w", src, err)
	}
	if len(tree.BlockStmt.List) != 1 {
		return nil, fmt.Errorf("parse parameters %q: not a parameter list", src)
	}
	stmt, ok := tree.BlockStmt.List[0].(*js.ExprStmt)
	if !ok {
		return nil, fmt.Errorf("parse parameters %q: not a parameter list", src)
	}
	fn, ok := stmt.Value.(*js.ArrowFunc)
	if !ok {
		return nil, fmt.Errorf("parse parameters %q: not a parameter list", src)
	}
	var names []string
	for _, p := range fn.Params.List {
		names = appendBindingNames(names, p.Binding)
	}
	if fn.Params.Rest != nil {
		names = appendBindingNames(names, fn.Params.Rest)
	}
	return names, nil
}

func appendBindingNames(out []string, b js.IBinding) []string {
	switch v := b.(type) {
	case *js.Var:
		out = append(out, string(v.Data))
	case *js.BindingObject:
		for _, item := range v.List {
			out = appendBindingNames(out, item.Value.Binding)
		}
		if v.Rest != nil {
			out = append(out, string(v.Rest.Data))
		}
	case *js.BindingArray:
		for _, item := range v.List {
			out = appendBindingNames(out, item.Binding)
		}
		if v.Rest != nil {
			out = appendBindingNames(out, v.Rest)
		}
	}
	return out
}
