package codegen

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/recera/vuec/pkg/compiler/ast"
	"github.com/recera/vuec/pkg/compiler/diag"
	"github.com/recera/vuec/pkg/compiler/sourcemap"
)

const indentUnit = "    "

// printer writes JavaScript and keeps track of the generated position for
// source maps.
type printer struct {
	b     strings.Builder
	level int
	// line and col are the zero-based position of the next byte written.
	line, col int

	arena   *ast.Arena
	hoists  []ast.NodeID
	helpers *ast.HelperSet
	diags   *diag.List

	sm     *sourcemap.Generator
	source int
	err    bool
}

func (p *printer) write(s string) {
	p.b.WriteString(s)
	for {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			p.col += utf8.RuneCountInString(s)
			return
		}
		p.line++
		p.col = 0
		s = s[i+1:]
	}
}

// nl starts a new line at the current indentation level.
func (p *printer) nl() {
	p.write("\n")
	p.write(strings.Repeat(indentUnit, p.level))
}

// lines writes a possibly multi-line snippet, re-indenting every line after
// the first.
func (p *printer) lines(s string) {
	for i, l := range strings.Split(s, "\n") {
		if i > 0 {
			p.nl()
		}
		p.write(strings.TrimRight(l, " \t\r"))
	}
}

// mark maps the current generated position to pos in the template.
func (p *printer) mark(pos diag.Position) {
	if p.sm == nil || pos.Line == 0 {
		return
	}
	if err := p.sm.AddMapping(p.line, p.col, p.source, pos.Line-1, pos.Column-1); err != nil {
		p.diags.Reportf(diag.SourceMapMappingDropped, diag.Span{Start: pos, End: pos}, "%v at %d:%d", err, p.line+1, p.col+1)
	}
}

func (p *printer) helper(h ast.Helper) string {
	p.helpers.Add(h)
	return h.Local()
}

func (p *printer) node(n ast.JSNode) {
	switch v := n.(type) {
	case nil:
		p.write("null")
	case *ast.JSRaw:
		p.write(v.Code)
	case *ast.JSString:
		p.write(quote(v.Value))
	case *ast.JSExpr:
		p.expression(v.Exp)
	case *ast.JSHelper:
		p.write(p.helper(v.Name))
	case *ast.JSCall:
		if v.Pure {
			p.write("/*#__PURE__*/")
		}
		p.node(v.Callee)
		p.args(v.Args)
	case *ast.JSObject:
		p.object(v)
	case *ast.JSArray:
		p.array(v)
	case *ast.JSArrow:
		p.write(v.Params)
		p.write("=>")
		if _, ok := v.Body.(*ast.JSObject); ok {
			p.write("(")
			p.node(v.Body)
			p.write(")")
			return
		}
		p.node(v.Body)
	case *ast.JSCond:
		p.cond(v.Test, v.Cons, v.Alt)
	case *ast.JSConcat:
		for i, part := range v.Parts {
			if i > 0 {
				p.write(" + ")
			}
			p.node(part)
		}
	case *ast.JSCache:
		p.cache(v)
	case *ast.JSSeq:
		p.write("(")
		for i, e := range v.Exprs {
			if i > 0 {
				p.write(", ")
			}
			p.node(e)
		}
		p.write(")")
	case *ast.JSVNode:
		p.renderNode(v.ID)
	default:
		p.fail(diag.UnknownNode, diag.Span{})
	}
}

// expression writes resolved code, mapping every rewritten identifier back
// to the template.
func (p *printer) expression(e *ast.Expression) {
	if e == nil {
		p.write("undefined")
		return
	}
	code := e.Code
	if !e.Resolved {
		code = strings.TrimSpace(e.Content)
	}
	if len(e.Marks) == 0 {
		p.mark(e.Loc.Start)
		p.write(code)
		return
	}
	last := 0
	for _, m := range e.Marks {
		if m.Offset < last || m.Offset > len(code) {
			continue
		}
		p.write(code[last:m.Offset])
		p.mark(m.Src)
		last = m.Offset
	}
	p.write(code[last:])
}

func (p *printer) args(args []ast.JSNode) {
	p.write("(")
	for i, a := range args {
		if i > 0 {
			p.write(", ")
		}
		p.node(a)
	}
	p.write(")")
}

func (p *printer) object(o *ast.JSObject) {
	if len(o.Props) == 0 {
		p.write("{}")
		return
	}
	p.write("{")
	p.level++
	for i, prop := range o.Props {
		p.nl()
		p.prop(prop)
		if i < len(o.Props)-1 {
			p.write(",")
		}
	}
	p.level--
	p.nl()
	p.write("}")
}

func (p *printer) prop(prop ast.JSProp) {
	switch {
	case prop.Spread:
		p.write("...")
		p.node(prop.Value)
		return
	case prop.Computed:
		p.write("[")
		p.node(prop.Key)
		p.write("]")
	default:
		p.node(prop.Key)
	}
	p.write(": ")
	p.node(prop.Value)
}

// array prints short arrays of literals on one line and everything else
// one element per line.
func (p *printer) array(a *ast.JSArray) {
	if len(a.Elems) == 0 {
		p.write("[]")
		return
	}
	if simpleArray(a) {
		p.write("[")
		for i, e := range a.Elems {
			if i > 0 {
				p.write(", ")
			}
			p.node(e)
		}
		p.write("]")
		return
	}
	p.write("[")
	p.level++
	for i, e := range a.Elems {
		p.nl()
		p.node(e)
		if i < len(a.Elems)-1 {
			p.write(",")
		}
	}
	p.level--
	p.nl()
	p.write("]")
}

func simpleArray(a *ast.JSArray) bool {
	for _, e := range a.Elems {
		switch v := e.(type) {
		case *ast.JSRaw, *ast.JSString, *ast.JSExpr, *ast.JSHelper:
		case *ast.JSArray:
			if !simpleArray(v) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// cond prints test ? cons : alt with each arm on its own line.
func (p *printer) cond(test, cons, alt ast.JSNode) {
	p.write("(")
	p.node(test)
	p.write(")")
	p.level++
	p.nl()
	p.write("? ")
	p.node(cons)
	p.nl()
	p.write(": ")
	p.node(alt)
	p.level--
}

func (p *printer) cache(c *ast.JSCache) {
	slot := "_cache[" + strconv.Itoa(c.Index) + "]"
	p.write(slot + " || (")
	if c.VOnce {
		tracking := p.helper(ast.HelperSetBlockTracking)
		p.write(tracking + "(-1), " + slot + " = ")
		p.node(c.Value)
		p.write(", " + tracking + "(1), " + slot + ")")
		return
	}
	p.write(slot + " = ")
	p.node(c.Value)
	p.write(")")
}

func (p *printer) fail(code diag.Code, span diag.Span) {
	p.err = true
	if p.diags != nil {
		p.diags.Report(code, span)
	}
}

// quote returns s as a double-quoted JavaScript string literal.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028', '\u2029':
			b.WriteString(`\u` + strconv.FormatInt(int64(r), 16))
		default:
			if r < 0x20 {
				b.WriteString(`\x`)
				if r < 0x10 {
					b.WriteByte('0')
				}
				b.WriteString(strconv.FormatInt(int64(r), 16))
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
