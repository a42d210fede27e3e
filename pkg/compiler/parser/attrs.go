package parser

import (
	"strings"

	"github.com/recera/vuec/pkg/compiler/ast"
	"github.com/recera/vuec/pkg/compiler/diag"
)

// rawAttr is an attribute as written, before directive parsing.
type rawAttr struct {
	loc      diag.Span
	name     string
	value    string
	hasValue bool
	valueLoc diag.Span
}

// parseAttributes reads attributes up to > or />.
func (p *Parser) parseAttributes() ([]rawAttr, bool) {
	var raws []rawAttr
	for {
		p.skipWhitespace()
		if p.pos >= len(p.input) {
			p.diags.Report(diag.EOFInTag, p.spanFrom(p.mark()))
			return raws, false
		}
		if p.consume("/>") {
			return raws, true
		}
		if p.consume(">") {
			return raws, false
		}
		if p.input[p.pos] == '/' {
			p.advance()
			continue
		}
		raws = append(raws, p.parseAttribute())
	}
}

// parseAttribute reads name, name=value, name="value" or name='value'.
func (p *Parser) parseAttribute() rawAttr {
	start := p.mark()
	if p.input[p.pos] == '=' {
		p.diags.Report(diag.UnexpectedCharacterInAttributeName, p.spanFrom(start))
		p.advance()
	}
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if isSpace(c) || c == '/' || c == '>' || c == '=' {
			break
		}
		if c == '[' {
			// a dynamic argument may contain characters that end names
			for p.pos < len(p.input) && p.input[p.pos] != ']' && p.input[p.pos] != '>' {
				p.advance()
			}
			continue
		}
		if c == '"' || c == '\'' || c == '<' {
			p.diags.Report(diag.UnexpectedCharacterInAttributeName, p.spanFrom(p.mark()))
		}
		p.advance()
	}
	attr := rawAttr{name: p.input[start.Offset:p.pos]}

	pos, line, col := p.pos, p.line, p.col
	p.skipWhitespace()
	if !p.consume("=") {
		p.pos, p.line, p.col = pos, line, col
		attr.loc = p.spanFrom(start)
		return attr
	}
	p.skipWhitespace()
	attr.hasValue = true

	switch {
	case p.pos >= len(p.input):
	case p.input[p.pos] == '"' || p.input[p.pos] == '\'':
		quote := p.input[p.pos]
		p.advance()
		valueStart := p.mark()
		end := strings.IndexByte(p.input[p.pos:], quote)
		if end < 0 {
			end = len(p.input) - p.pos
		}
		attr.value = p.input[p.pos : p.pos+end]
		p.advanceN(end)
		attr.valueLoc = p.spanFrom(valueStart)
		if p.pos < len(p.input) {
			p.advance()
		}
	case p.input[p.pos] == '>':
		p.diags.Report(diag.MissingAttributeValue, p.spanFrom(p.mark()))
	default:
		valueStart := p.mark()
		for p.pos < len(p.input) && !isSpace(p.input[p.pos]) && p.input[p.pos] != '>' {
			p.advance()
		}
		attr.value = p.input[valueStart.Offset:p.pos]
		attr.valueLoc = p.spanFrom(valueStart)
	}
	attr.loc = p.spanFrom(start)
	return attr
}

// buildAttributes turns raw attributes into the element's attribute list,
// parsing directives unless plain is set (inside v-pre).
func (p *Parser) buildAttributes(raws []rawAttr, plain bool) []*ast.Attribute {
	props := make([]*ast.Attribute, 0, len(raws))
	seen := make(map[string]bool, len(raws))
	for _, r := range raws {
		if !p.inVPre && r.name == "v-pre" {
			continue
		}
		if seen[r.name] {
			p.diags.Reportf(diag.DuplicateAttribute, r.loc, "duplicate attribute %q", r.name)
			continue
		}
		seen[r.name] = true

		attr := &ast.Attribute{
			Loc:      r.loc,
			Name:     r.name,
			Value:    decodeEntities(r.value),
			HasValue: r.hasValue,
			ValueLoc: r.valueLoc,
		}
		if !plain {
			attr.Dir = p.parseDirective(r, attr.Value)
		}
		props = append(props, attr)
	}
	return props
}

// parseDirective recognizes v-name:arg.mod and the :, ., @ and # shorthands.
// It returns nil for plain attributes.
func (p *Parser) parseDirective(r rawAttr, value string) *ast.Directive {
	name := r.name
	var dirName, tail string
	hasArg := false
	switch {
	case strings.HasPrefix(name, "v-"):
		body := name[2:]
		i := strings.IndexAny(body, ":.")
		if i < 0 {
			dirName = body
		} else {
			dirName, tail = body[:i], body[i:]
		}
		if dirName == "" {
			p.diags.Report(diag.MissingDirectiveName, r.loc)
			return nil
		}
		if strings.HasPrefix(tail, ":") {
			hasArg, tail = true, tail[1:]
		}
	case strings.HasPrefix(name, ":"), strings.HasPrefix(name, "."):
		dirName, hasArg, tail = "bind", true, name[1:]
	case strings.HasPrefix(name, "@"):
		dirName, hasArg, tail = "on", true, name[1:]
	case strings.HasPrefix(name, "#"):
		dirName, hasArg, tail = "slot", true, name[1:]
	default:
		return nil
	}

	d := &ast.Directive{Loc: r.loc, Name: dirName, RawName: name}

	if hasArg {
		argOffset := len(name) - len(tail)
		argStart := shiftCols(r.loc.Start, argOffset)
		var arg string
		static := true
		switch {
		case strings.HasPrefix(tail, "["):
			static = false
			end := strings.IndexByte(tail, ']')
			if end < 0 {
				p.diags.Report(diag.MissingDynamicDirectiveArgumentEnd, r.loc)
				arg, tail = tail[1:], ""
			} else {
				arg, tail = tail[1:end], tail[end+1:]
			}
			argStart = shiftCols(argStart, 1)
		case dirName == "slot":
			// slot names may contain dots; v-slot takes no modifiers
			arg, tail = tail, ""
		default:
			if i := strings.IndexByte(tail, '.'); i >= 0 {
				arg, tail = tail[:i], tail[i:]
			} else {
				arg, tail = tail, ""
			}
		}
		if arg != "" {
			loc := diag.Span{Start: argStart, End: shiftCols(argStart, len(arg))}
			if static {
				d.Arg = ast.NewStatic(arg, loc)
			} else {
				d.Arg = ast.NewExpression(arg, loc)
			}
		}
	}

	if strings.HasPrefix(tail, ".") {
		for _, m := range strings.Split(tail[1:], ".") {
			if m != "" {
				d.Modifiers = append(d.Modifiers, m)
			}
		}
	}
	if strings.HasPrefix(name, ".") {
		d.Modifiers = append(d.Modifiers, "prop")
	}

	switch {
	case r.hasValue && strings.TrimSpace(value) != "":
		d.Exp = ast.NewExpression(value, r.valueLoc)
	case dirName == "bind" && !r.hasValue && d.Arg != nil && d.Arg.Static:
		// same-name shorthand: :foo is :foo="foo"
		d.Exp = ast.NewExpression(ast.Camelize(d.Arg.Content), d.Arg.Loc)
	}
	return d
}

// shiftCols moves pos n bytes to the right on the same line.
func shiftCols(pos diag.Position, n int) diag.Position {
	pos.Offset += n
	pos.Column += n
	return pos
}
