package parser

import (
	"strings"

	"github.com/recera/vuec/pkg/compiler/ast"
	"github.com/recera/vuec/pkg/compiler/diag"
)

type siblingKind uint8

const (
	noSibling siblingKind = iota
	elementSibling
	textSibling
	commentSibling
	interpolationSibling
)

func (p *Parser) kindOf(id ast.NodeID) siblingKind {
	switch p.arena.Get(id).(type) {
	case *ast.Element:
		return elementSibling
	case *ast.Text:
		return textSibling
	case *ast.Comment:
		return commentSibling
	case *ast.Interpolation:
		return interpolationSibling
	}
	return noSibling
}

// condenseWhitespace drops or shrinks whitespace text among siblings.
//
// A whitespace-only text node is removed when it is the first or last
// sibling, or in condense mode when it sits between two comments, between
// a comment and an element, or between two elements and contains a
// newline. Otherwise it becomes a single space. In condense mode runs of
// whitespace inside other text collapse to one space. Inside <pre> text is
// kept, except for the newline directly after the opening tag.
func (p *Parser) condenseWhitespace(nodes []ast.NodeID, inPre bool, tag string) []ast.NodeID {
	condense := p.opts.Whitespace != Preserve
	removed := make([]bool, len(nodes))
	kindAt := func(i int) siblingKind {
		if i < 0 || i >= len(nodes) || removed[i] {
			return noSibling
		}
		return p.kindOf(nodes[i])
	}

	out := make([]ast.NodeID, 0, len(nodes))
	for i, id := range nodes {
		text, ok := p.arena.Get(id).(*ast.Text)
		if !ok {
			out = append(out, id)
			continue
		}
		if inPre {
			text.Content = strings.ReplaceAll(text.Content, "\r\n", "\n")
			out = append(out, id)
			continue
		}
		if isAllWhitespace(text.Content) {
			prev, next := kindAt(i-1), kindAt(i+1)
			if prev == noSibling || next == noSibling ||
				(condense && ((prev == commentSibling && (next == commentSibling || next == elementSibling)) ||
					(prev == elementSibling && (next == commentSibling ||
						(next == elementSibling && strings.ContainsAny(text.Content, "\r\n")))))) {
				removed[i] = true
				continue
			}
			text.Content = " "
		} else if condense {
			text.Content = condenseRE.ReplaceAllString(text.Content, " ")
		}
		out = append(out, id)
	}

	if inPre && tag == "pre" && len(out) > 0 {
		if text, ok := p.arena.Get(out[0]).(*ast.Text); ok {
			text.Content = strings.TrimPrefix(text.Content, "\n")
			if text.Content == "" {
				out = out[1:]
			}
		}
	}
	return out
}

// groupText folds runs of adjacent text and interpolation siblings that
// contain an interpolation into a single Compound node.
func (p *Parser) groupText(nodes []ast.NodeID) []ast.NodeID {
	out := make([]ast.NodeID, 0, len(nodes))
	var run []ast.NodeID
	hasInterp := false
	flush := func() {
		if len(run) > 1 && hasInterp {
			loc := diag.Span{Start: p.arena.Get(run[0]).Span().Start, End: p.arena.Get(run[len(run)-1]).Span().End}
			out = append(out, p.arena.Alloc(&ast.Compound{Loc: loc, Parts: run}))
		} else {
			out = append(out, run...)
		}
		run, hasInterp = nil, false
	}
	for _, id := range nodes {
		switch p.kindOf(id) {
		case textSibling:
			run = append(run, id)
		case interpolationSibling:
			run = append(run, id)
			hasInterp = true
		default:
			flush()
			out = append(out, id)
		}
	}
	flush()
	return out
}
