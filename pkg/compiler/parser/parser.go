// Package parser turns template markup into the raw template tree.
//
// The parser never fails: malformed markup is recovered from (implicit
// closes, stray end tags dropped, unterminated constructs read as text) and
// reported through the diagnostics list.
package parser

import (
	"html"
	"regexp"
	"strings"

	"github.com/recera/vuec/pkg/compiler/ast"
	"github.com/recera/vuec/pkg/compiler/diag"
)

// WhitespaceMode selects how whitespace-only and repeated whitespace text
// is treated.
type WhitespaceMode string

const (
	Condense WhitespaceMode = "condense"
	Preserve WhitespaceMode = "preserve"
)

// Valid reports whether m is a known mode.
func (m WhitespaceMode) Valid() bool {
	return m == Condense || m == Preserve
}

// Options configure a parse.
type Options struct {
	Whitespace WhitespaceMode
	Delimiters [2]string
	// Comments keeps HTML comments in the tree.
	Comments bool
	Filename string
}

// DefaultOptions returns condense mode with {{ }} delimiters and comments
// kept.
func DefaultOptions() Options {
	return Options{
		Whitespace: Condense,
		Delimiters: [2]string{"{{", "}}"},
		Comments:   true,
	}
}

type openElement struct {
	id       ast.NodeID
	el       *ast.Element
	children []ast.NodeID
	vPre     bool
	pre      bool
}

// Parser is a single-use template scanner.
type Parser struct {
	input string
	pos   int
	line  int
	col   int
	opts  Options

	arena *ast.Arena
	diags *diag.List
	stack []*openElement
	roots []ast.NodeID

	inVPre bool
	inPre  int
	// rcdataEnd is the lower-cased end tag that ends the current
	// textarea/title content, empty otherwise.
	rcdataEnd string
}

// New creates a parser for input.
func New(input string, opts Options) *Parser {
	if opts.Delimiters[0] == "" || opts.Delimiters[1] == "" {
		opts.Delimiters = [2]string{"{{", "}}"}
	}
	if opts.Whitespace == "" {
		opts.Whitespace = Condense
	}
	return &Parser{
		input: input,
		line:  1,
		col:   1,
		opts:  opts,
		arena: ast.NewArena(),
		diags: diag.NewList(opts.Filename),
	}
}

// Parse parses src with opts.
func Parse(src string, opts Options) (*ast.Template, *diag.List) {
	p := New(src, opts)
	tpl := p.Parse()
	return tpl, p.diags
}

// Parse parses the entire template.
func (p *Parser) Parse() *ast.Template {
	for p.pos < len(p.input) {
		if p.rcdataEnd != "" {
			p.parseRCDATA()
			continue
		}
		switch {
		case p.peek("<!--"):
			p.parseComment()
		case p.peek("<!") || p.peek("<?"):
			p.parseBogusComment()
		case p.peek("</") && p.pos+2 < len(p.input) && isTagStart(p.input[p.pos+2]):
			p.parseEndTag()
		case p.peek("<") && p.pos+1 < len(p.input) && isTagStart(p.input[p.pos+1]):
			p.parseStartTag()
		case !p.inVPre && p.peek(p.opts.Delimiters[0]):
			p.parseInterpolation()
		default:
			if p.peek("<") && p.pos+1 < len(p.input) && !isSpace(p.input[p.pos+1]) {
				p.diags.Report(diag.InvalidFirstCharacterOfTagName, p.spanFrom(p.mark()))
			}
			p.parseText()
		}
	}

	for len(p.stack) > 0 {
		top := p.pop()
		p.diags.Reportf(diag.MissingEndTag, top.el.Loc, "element <%s> is missing end tag", top.el.Tag)
		p.closeElement(top, p.mark())
	}

	roots := p.condenseWhitespace(p.roots, false, "")
	return &ast.Template{
		Arena:    p.arena,
		Children: p.groupText(roots),
		Source:   p.input,
	}
}

// parseComment parses <!-- ... -->
func (p *Parser) parseComment() {
	start := p.mark()
	p.consume("<!--")
	end := strings.Index(p.input[p.pos:], "-->")
	var content string
	if end < 0 {
		content = p.input[p.pos:]
		p.advanceN(len(content))
		p.diags.Report(diag.EOFInComment, p.spanFrom(start))
	} else {
		content = p.input[p.pos : p.pos+end]
		p.advanceN(end + 3)
	}
	if p.opts.Comments {
		p.appendNode(p.arena.Alloc(&ast.Comment{Loc: p.spanFrom(start), Content: content}))
	}
}

// parseBogusComment skips <!DOCTYPE ...> and <? ... > constructs.
func (p *Parser) parseBogusComment() {
	for p.pos < len(p.input) && p.input[p.pos] != '>' {
		p.advance()
	}
	p.advance()
}

// parseInterpolation parses {{ exp }}
func (p *Parser) parseInterpolation() {
	open, close := p.opts.Delimiters[0], p.opts.Delimiters[1]
	start := p.mark()
	rel := strings.Index(p.input[p.pos+len(open):], close)
	if rel < 0 {
		p.diags.Report(diag.MissingInterpolationEnd, p.spanFrom(start))
		p.advanceN(len(open))
		p.addText(open, start, p.mark())
		return
	}

	p.advanceN(len(open))
	innerStart := p.mark()
	raw := p.input[p.pos : p.pos+rel]
	p.advanceN(rel + len(close))

	lead := len(raw) - len(strings.TrimLeft(raw, whitespaceChars))
	content := strings.TrimSpace(raw)
	expStart := advancePos(innerStart, raw[:lead])
	exp := ast.NewExpression(decodeEntities(content), diag.Span{Start: expStart, End: advancePos(expStart, content)})
	p.appendNode(p.arena.Alloc(&ast.Interpolation{Loc: p.spanFrom(start), Exp: exp}))
}

// parseText parses character data up to the next tag or interpolation.
func (p *Parser) parseText() {
	start := p.mark()
	p.advance()
	for p.pos < len(p.input) {
		if p.input[p.pos] == '<' || (!p.inVPre && p.peek(p.opts.Delimiters[0])) {
			break
		}
		p.advance()
	}
	p.addText(decodeEntities(p.input[start.Offset:p.pos]), start, p.mark())
}

// parseRCDATA parses textarea/title content: text and interpolations only.
func (p *Parser) parseRCDATA() {
	if p.peekFold(p.rcdataEnd) {
		p.rcdataEnd = ""
		p.parseEndTag()
		return
	}
	if !p.inVPre && p.peek(p.opts.Delimiters[0]) {
		p.parseInterpolation()
		return
	}
	start := p.mark()
	p.advance()
	for p.pos < len(p.input) && !p.peekFold(p.rcdataEnd) && (p.inVPre || !p.peek(p.opts.Delimiters[0])) {
		p.advance()
	}
	p.addText(decodeEntities(p.input[start.Offset:p.pos]), start, p.mark())
}

// parseStartTag parses an opening tag and pushes the element unless it is
// void or self-closing.
func (p *Parser) parseStartTag() {
	start := p.mark()
	p.advance()
	tag := p.parseTagName()
	p.implicitClose(tag)

	raws, selfClosing := p.parseAttributes()
	el := &ast.Element{Tag: tag, SelfClosing: selfClosing, Loc: diag.Span{Start: start}}

	vPre := false
	if !p.inVPre {
		for _, r := range raws {
			if r.name == "v-pre" {
				vPre = true
			}
		}
	}
	el.Props = p.buildAttributes(raws, p.inVPre || vPre)
	el.Type = p.elementType(el, p.inVPre || vPre)

	id := p.arena.Alloc(el)
	p.appendNode(id)

	lower := strings.ToLower(tag)
	if selfClosing || voidTags[lower] {
		el.Loc.End = p.mark()
		return
	}
	if rawTextTags[lower] {
		p.parseRawText(el, lower)
		return
	}

	oe := &openElement{id: id, el: el, vPre: vPre, pre: lower == "pre"}
	p.stack = append(p.stack, oe)
	if vPre {
		p.inVPre = true
	}
	if oe.pre {
		p.inPre++
	}
	if rcdataTags[lower] {
		p.rcdataEnd = "</" + lower
	}
}

// parseRawText reads script/style content verbatim.
func (p *Parser) parseRawText(el *ast.Element, lower string) {
	start := p.mark()
	closeTag := "</" + lower
	idx := indexFold(p.input[p.pos:], closeTag)
	var content string
	if idx < 0 {
		content = p.input[p.pos:]
		p.advanceN(len(content))
		p.diags.Reportf(diag.MissingEndTag, el.Loc, "element <%s> is missing end tag", el.Tag)
	} else {
		content = p.input[p.pos : p.pos+idx]
		p.advanceN(idx)
	}
	if content != "" {
		el.Children = []ast.NodeID{p.arena.Alloc(&ast.Text{Loc: p.spanFrom(start), Content: content})}
	}
	if idx >= 0 {
		p.advanceN(len(closeTag))
		p.skipTo('>')
	}
	el.Loc.End = p.mark()
}

// parseEndTag closes the nearest open element with the same tag name.
// Elements left open in between are closed and reported.
func (p *Parser) parseEndTag() {
	start := p.mark()
	p.advanceN(2)
	tag := p.parseTagName()
	p.skipTo('>')
	end := p.mark()

	for i := len(p.stack) - 1; i >= 0; i-- {
		if !sameTag(p.stack[i].el.Tag, tag) {
			continue
		}
		for len(p.stack)-1 > i {
			top := p.pop()
			if _, optional := implicitlyClosedBy[strings.ToLower(top.el.Tag)]; !optional {
				p.diags.Reportf(diag.MissingEndTag, top.el.Loc, "element <%s> is missing end tag", top.el.Tag)
			}
			p.closeElement(top, start)
		}
		p.closeElement(p.pop(), end)
		return
	}
	p.diags.Reportf(diag.InvalidEndTag, diag.Span{Start: start, End: end}, "invalid end tag </%s>", tag)
}

// implicitClose ends open elements that the HTML content model closes when
// tag starts, e.g. an <li> directly followed by another <li>.
func (p *Parser) implicitClose(tag string) {
	lower := strings.ToLower(tag)
	for len(p.stack) > 0 {
		top := p.stack[len(p.stack)-1]
		closers, ok := implicitlyClosedBy[strings.ToLower(top.el.Tag)]
		if !ok || !closers[lower] {
			return
		}
		p.closeElement(p.pop(), p.mark())
	}
}

func (p *Parser) closeElement(oe *openElement, end diag.Position) {
	oe.el.Loc.End = end
	children := oe.children
	if !p.inVPre {
		children = p.condenseWhitespace(children, p.inPre > 0, strings.ToLower(oe.el.Tag))
	}
	oe.el.Children = p.groupText(children)
	if oe.vPre {
		p.inVPre = false
	}
	if oe.pre {
		p.inPre--
	}
}

func (p *Parser) pop() *openElement {
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	return top
}

func (p *Parser) appendNode(id ast.NodeID) {
	if len(p.stack) > 0 {
		top := p.stack[len(p.stack)-1]
		top.children = append(top.children, id)
		return
	}
	p.roots = append(p.roots, id)
}

// addText appends text, merging with a directly preceding text sibling.
func (p *Parser) addText(content string, start, end diag.Position) {
	siblings := p.roots
	if len(p.stack) > 0 {
		siblings = p.stack[len(p.stack)-1].children
	}
	if n := len(siblings); n > 0 {
		if prev, ok := p.arena.Get(siblings[n-1]).(*ast.Text); ok && prev.Loc.End.Offset == start.Offset {
			prev.Content += content
			prev.Loc.End = end
			return
		}
	}
	p.appendNode(p.arena.Alloc(&ast.Text{Loc: diag.Span{Start: start, End: end}, Content: content}))
}

func (p *Parser) elementType(el *ast.Element, vPre bool) ast.ElementType {
	if vPre {
		return ast.PlainElement
	}
	switch {
	case el.Tag == "slot":
		return ast.SlotElement
	case el.Tag == "template":
		for _, a := range el.Props {
			if a.Dir != nil && isStructural(a.Dir.Name) {
				return ast.TemplateElement
			}
		}
		return ast.PlainElement
	case isComponentTag(el):
		return ast.ComponentElement
	}
	return ast.PlainElement
}

func isStructural(name string) bool {
	switch name {
	case "if", "else", "else-if", "for", "slot":
		return true
	}
	return false
}

func isComponentTag(el *ast.Element) bool {
	tag := el.Tag
	if tag == "component" || IsBuiltInComponent(tag) {
		return true
	}
	if tag[0] >= 'A' && tag[0] <= 'Z' {
		return true
	}
	if a := el.FindAttr("is"); a != nil && strings.HasPrefix(a.Value, "vue:") {
		return true
	}
	return !isNativeTag(tag)
}

func sameTag(open, close string) bool {
	return open == close || strings.EqualFold(open, close)
}

// Helper methods

func (p *Parser) mark() diag.Position {
	return diag.Position{Offset: p.pos, Line: p.line, Column: p.col}
}

func (p *Parser) spanFrom(start diag.Position) diag.Span {
	return diag.Span{Start: start, End: p.mark()}
}

func (p *Parser) peek(s string) bool {
	return strings.HasPrefix(p.input[p.pos:], s)
}

func (p *Parser) peekFold(s string) bool {
	if p.pos+len(s) > len(p.input) {
		return false
	}
	return strings.EqualFold(p.input[p.pos:p.pos+len(s)], s)
}

func (p *Parser) consume(s string) bool {
	if p.peek(s) {
		p.advanceN(len(s))
		return true
	}
	return false
}

func (p *Parser) advance() {
	if p.pos < len(p.input) {
		if p.input[p.pos] == '\n' {
			p.line++
			p.col = 1
		} else {
			p.col++
		}
		p.pos++
	}
}

func (p *Parser) advanceN(n int) {
	for i := 0; i < n; i++ {
		p.advance()
	}
}

func (p *Parser) skipWhitespace() {
	for p.pos < len(p.input) && isSpace(p.input[p.pos]) {
		p.advance()
	}
}

// skipTo advances past the next c, or to EOF (reported).
func (p *Parser) skipTo(c byte) {
	for p.pos < len(p.input) && p.input[p.pos] != c {
		p.advance()
	}
	if p.pos >= len(p.input) {
		p.diags.Report(diag.EOFInTag, p.spanFrom(p.mark()))
		return
	}
	p.advance()
}

func (p *Parser) parseTagName() string {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if isSpace(c) || c == '/' || c == '>' {
			break
		}
		p.advance()
	}
	return p.input[start:p.pos]
}

const whitespaceChars = " \t\r\n\f"

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isTagStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// advancePos moves pos over s.
func advancePos(pos diag.Position, s string) diag.Position {
	for i := 0; i < len(s); i++ {
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

func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}

func decodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return html.UnescapeString(s)
}

var condenseRE = regexp.MustCompile(`[\t\r\n\f ]+`)

func isAllWhitespace(s string) bool {
	return strings.Trim(s, whitespaceChars) == ""
}
