// Package sfc splits a .vue single file component into its top-level
// blocks.
package sfc

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/html"

	"github.com/recera/vuec/pkg/compiler"
	"github.com/recera/vuec/pkg/compiler/diag"
)

var (
	// ErrNoTemplate is returned for a file with neither a <template> nor a
	// <script> block.
	ErrNoTemplate = errors.New("sfc: component needs a <template> or <script> block")
	// ErrDuplicateBlock is returned when a block that may appear once is
	// repeated.
	ErrDuplicateBlock = errors.New("sfc: duplicate block")
	// ErrUnclosedBlock is returned when a top-level block has no end tag.
	ErrUnclosedBlock = errors.New("sfc: block is not closed")
)

// Block is one top-level element of the file.
type Block struct {
	Type    string
	Content string
	Attrs   map[string]string
	// Start is the position of the first content byte in the file.
	Start diag.Position
	// Loc spans the content.
	Loc diag.Span
}

// Lang returns the lang attribute.
func (b *Block) Lang() string {
	return b.Attrs["lang"]
}

// Has reports whether the boolean attribute name is present.
func (b *Block) Has(name string) bool {
	_, ok := b.Attrs[name]
	return ok
}

// Descriptor is a split component.
type Descriptor struct {
	Filename    string
	Template    *Block
	Script      *Block
	ScriptSetup *Block
	Styles      []*Block
	// Custom holds every other top-level block, such as <i18n>.
	Custom []*Block
}

// Input returns the compiler input for the component's blocks.
func (d *Descriptor) Input() compiler.Input {
	in := compiler.Input{Filename: d.Filename}
	if d.Template != nil {
		in.Template = d.Template.Content
		in.TemplateStart = d.Template.Start
	}
	if d.Script != nil {
		in.Script = d.Script.Content
		in.ScriptStart = d.Script.Start
	}
	if d.ScriptSetup != nil {
		in.ScriptSetup = d.ScriptSetup.Content
		in.ScriptSetupStart = d.ScriptSetup.Start
	}
	return in
}

// Parse splits src. Text and comments between blocks are ignored.
func Parse(src, filename string) (*Descriptor, error) {
	s := &splitter{src: src, input: parse.NewInputString(src)}
	s.lexer = html.NewLexer(s.input)
	d := &Descriptor{Filename: filename}

	for {
		tt, _ := s.lexer.Next()
		if tt == html.ErrorToken {
			if err := s.lexer.Err(); err != nil && err != io.EOF {
				return nil, fmt.Errorf("%s: %w", filename, err)
			}
			break
		}
		if tt != html.StartTagToken {
			continue
		}
		name := strings.ToLower(string(s.lexer.Text()))
		b, err := s.block(name)
		if err != nil {
			return nil, fmt.Errorf("%s: <%s>: %w", filename, name, err)
		}
		if b == nil {
			continue
		}
		switch {
		case name == "template":
			if d.Template != nil {
				return nil, fmt.Errorf("%s: <template>: %w", filename, ErrDuplicateBlock)
			}
			d.Template = b
		case name == "script" && b.Has("setup"):
			if d.ScriptSetup != nil {
				return nil, fmt.Errorf("%s: <script setup>: %w", filename, ErrDuplicateBlock)
			}
			d.ScriptSetup = b
		case name == "script":
			if d.Script != nil {
				return nil, fmt.Errorf("%s: <script>: %w", filename, ErrDuplicateBlock)
			}
			d.Script = b
		case name == "style":
			d.Styles = append(d.Styles, b)
		default:
			d.Custom = append(d.Custom, b)
		}
	}
	if d.Template == nil && d.Script == nil && d.ScriptSetup == nil {
		return nil, fmt.Errorf("%s: %w", filename, ErrNoTemplate)
	}
	return d, nil
}

type splitter struct {
	src   string
	input *parse.Input
	lexer *html.Lexer
}

// block reads the attributes and content of the block whose start tag was
// just lexed. A self-closing block yields nil.
func (s *splitter) block(name string) (*Block, error) {
	b := &Block{Type: name, Attrs: map[string]string{}}
attrs:
	for {
		switch tt, _ := s.lexer.Next(); tt {
		case html.AttributeToken:
			b.Attrs[strings.ToLower(string(s.lexer.AttrKey()))] = unquote(string(s.lexer.AttrVal()))
		case html.StartTagVoidToken:
			return nil, nil
		case html.StartTagCloseToken:
			break attrs
		default:
			return nil, ErrUnclosedBlock
		}
	}

	start := s.input.Offset()
	depth := 1
	for {
		tt, data := s.lexer.Next()
		switch tt {
		case html.ErrorToken:
			return nil, ErrUnclosedBlock
		case html.StartTagToken:
			if strings.EqualFold(string(s.lexer.Text()), name) {
				depth++
			}
		case html.EndTagToken:
			if !strings.EqualFold(string(s.lexer.Text()), name) {
				continue
			}
			if depth--; depth > 0 {
				continue
			}
			end := s.input.Offset() - len(data)
			b.Content = s.src[start:end]
			b.Start = position(s.src, start)
			b.Loc = diag.Span{Start: b.Start, End: position(s.src, end)}
			return b, nil
		}
	}
}

// position converts a byte offset into a position.
func position(src string, offset int) diag.Position {
	before := src[:offset]
	line := strings.Count(before, "\n") + 1
	lineStart := strings.LastIndexByte(before, '\n') + 1
	return diag.Position{Offset: offset, Line: line, Column: offset - lineStart + 1}
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}
