package expr

import (
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

type token struct {
	tt    js.TokenType
	data  string
	start int
	end   int
}

type bracket uint8

const (
	blockBrace bracket = iota
	objectBrace
	paren
	square
	template
)

// tokenize returns the significant tokens of src with byte offsets. A
// slash is re-read as a regular expression when it cannot be a division.
func tokenize(src string) []token {
	l := js.NewLexer(parse.NewInputString(src))
	var toks []token
	last := js.ErrorToken
	off := 0
	for {
		tt, data := l.Next()
		if tt == js.ErrorToken {
			return toks
		}
		start := off
		if (tt == js.DivToken || tt == js.DivEqToken) && !endsOperand(last) {
			tt, data = l.RegExp()
			if tt == js.ErrorToken {
				return toks
			}
		}
		off = start + len(data)
		switch tt {
		case js.WhitespaceToken, js.LineTerminatorToken, js.CommentToken, js.CommentLineTerminatorToken:
			continue
		}
		toks = append(toks, token{tt: tt, data: string(data), start: start, end: off})
		last = tt
	}
}

// scanIdents finds identifier references: identifiers that are not
// property names after a dot and not object literal keys.
func scanIdents(src string, exprMode bool) []Ident {
	toks := tokenize(src)
	var out []Ident
	var stack []bracket
	top := func() bracket {
		if len(stack) == 0 {
			return blockBrace
		}
		return stack[len(stack)-1]
	}
	pop := func() {
		if len(stack) > 0 {
			stack = stack[:len(stack)-1]
		}
	}

	for i, t := range toks {
		prev, next := js.ErrorToken, js.ErrorToken
		if i > 0 {
			prev = toks[i-1].tt
		}
		if i+1 < len(toks) {
			next = toks[i+1].tt
		}

		switch t.tt {
		case js.OpenBraceToken:
			if (i == 0 && exprMode) || (i > 0 && startsObject(prev)) {
				stack = append(stack, objectBrace)
			} else {
				stack = append(stack, blockBrace)
			}
			continue
		case js.OpenParenToken:
			stack = append(stack, paren)
			continue
		case js.OpenBracketToken:
			stack = append(stack, square)
			continue
		case js.TemplateStartToken:
			stack = append(stack, template)
			continue
		case js.CloseBraceToken, js.CloseParenToken, js.CloseBracketToken, js.TemplateEndToken:
			pop()
			continue
		}

		if !js.IsIdentifier(t.tt) || prev == js.DotToken || prev == js.OptChainToken {
			continue
		}
		member := top() == objectBrace && (prev == js.OpenBraceToken || prev == js.CommaToken)
		if member && (next == js.ColonToken || next == js.OpenParenToken) {
			continue
		}
		id := Ident{Name: t.data, Start: t.start, End: t.end}
		id.Shorthand = member && (next == js.CommaToken || next == js.CloseBraceToken)
		id.Assigned = isAssignOp(next) || next == js.IncrToken || next == js.DecrToken ||
			prev == js.IncrToken || prev == js.DecrToken
		out = append(out, id)
	}
	return out
}

// startsObject reports whether a { after prev opens an object literal
// rather than a block.
func startsObject(prev js.TokenType) bool {
	switch prev {
	case js.OpenParenToken, js.OpenBracketToken, js.CommaToken, js.ColonToken, js.QuestionToken,
		js.EllipsisToken, js.ReturnToken, js.TemplateStartToken, js.TemplateMiddleToken, js.OpenBraceToken:
		return true
	case js.ArrowToken, js.IncrToken, js.DecrToken:
		return false
	}
	return js.IsOperator(prev)
}

// endsOperand reports whether a token can end an operand, in which case a
// following slash is a division.
func endsOperand(tt js.TokenType) bool {
	switch tt {
	case js.CloseParenToken, js.CloseBracketToken, js.CloseBraceToken, js.StringToken,
		js.TemplateToken, js.TemplateEndToken, js.RegExpToken, js.ThisToken, js.TrueToken,
		js.FalseToken, js.NullToken, js.SuperToken, js.IncrToken, js.DecrToken, js.PrivateIdentifierToken:
		return true
	}
	return js.IsIdentifier(tt) || js.IsNumeric(tt)
}

func isAssignOp(tt js.TokenType) bool {
	switch tt {
	case js.EqToken, js.AddEqToken, js.SubEqToken, js.MulEqToken, js.DivEqToken, js.ModEqToken,
		js.ExpEqToken, js.LtLtEqToken, js.GtGtEqToken, js.GtGtGtEqToken, js.BitAndEqToken,
		js.BitOrEqToken, js.BitXorEqToken, js.AndEqToken, js.OrEqToken, js.NullishEqToken:
		return true
	}
	return false
}
