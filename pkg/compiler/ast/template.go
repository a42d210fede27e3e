package ast

import "github.com/recera/vuec/pkg/compiler/diag"

// ElementType tells the transformer how to treat an element.
type ElementType uint8

const (
	PlainElement ElementType = iota
	ComponentElement
	SlotElement
	TemplateElement
)

func (t ElementType) String() string {
	switch t {
	case ComponentElement:
		return "component"
	case SlotElement:
		return "slot"
	case TemplateElement:
		return "template"
	}
	return "element"
}

// Element is a tag with its attributes and children.
type Element struct {
	Loc         diag.Span
	Tag         string
	Type        ElementType
	Props       []*Attribute
	Children    []NodeID
	SelfClosing bool
}

// Attribute is one entry of an element's attribute list. Dir is set when the
// attribute is a directive, in either its v-name or its shorthand form.
type Attribute struct {
	Loc      diag.Span
	Name     string
	Value    string
	HasValue bool
	ValueLoc diag.Span
	Dir      *Directive
}

// Directive is a parsed v-name:arg.mod="exp" attribute. Name has no "v-"
// prefix: bind, on, slot, if, for, model and so on. Unknown names are kept
// as custom directives.
type Directive struct {
	Loc       diag.Span
	Name      string
	RawName   string
	Arg       *Expression
	Modifiers []string
	Exp       *Expression
}

// HasModifier reports whether mod was given.
func (d *Directive) HasModifier(mod string) bool {
	for _, m := range d.Modifiers {
		if m == mod {
			return true
		}
	}
	return false
}

// Text is literal character data, entity-decoded.
type Text struct {
	Loc     diag.Span
	Content string
}

// Interpolation is a {{ exp }} occurrence.
type Interpolation struct {
	Loc diag.Span
	Exp *Expression
}

// Comment is an HTML comment.
type Comment struct {
	Loc     diag.Span
	Content string
}

// Compound groups adjacent Text and Interpolation siblings that render as
// one concatenated string.
type Compound struct {
	Loc   diag.Span
	Parts []NodeID
}

func (n *Element) Span() diag.Span       { return n.Loc }
func (n *Text) Span() diag.Span          { return n.Loc }
func (n *Interpolation) Span() diag.Span { return n.Loc }
func (n *Comment) Span() diag.Span       { return n.Loc }
func (n *Compound) Span() diag.Span      { return n.Loc }

func (*Element) node()       {}
func (*Text) node()          {}
func (*Interpolation) node() {}
func (*Comment) node()       {}
func (*Compound) node()      {}

// FindAttr returns the first plain attribute called name.
func (n *Element) FindAttr(name string) *Attribute {
	for _, p := range n.Props {
		if p.Dir == nil && p.Name == name {
			return p
		}
	}
	return nil
}

// FindDir returns the first directive called name.
func (n *Element) FindDir(name string) *Directive {
	for _, p := range n.Props {
		if p.Dir != nil && p.Dir.Name == name {
			return p.Dir
		}
	}
	return nil
}

// FindBind returns the v-bind directive with a static argument arg.
func (n *Element) FindBind(arg string) *Directive {
	for _, p := range n.Props {
		if p.Dir != nil && p.Dir.Name == "bind" && p.Dir.Arg != nil && p.Dir.Arg.Static && p.Dir.Arg.Content == arg {
			return p.Dir
		}
	}
	return nil
}

// RemoveDir drops the first directive called name and returns it.
func (n *Element) RemoveDir(name string) *Directive {
	for i, p := range n.Props {
		if p.Dir != nil && p.Dir.Name == name {
			n.Props = append(n.Props[:i:i], n.Props[i+1:]...)
			return p.Dir
		}
	}
	return nil
}

// Segment is a piece of a resolved expression's code that maps back to
// template source.
type Segment struct {
	Offset int
	Src    diag.Position
}

// Expression is a JavaScript expression taken from the template. Content
// is the source text; Code is filled in by the transformer once identifiers
// are resolved against the binding table.
type Expression struct {
	Content string
	Loc     diag.Span
	// Static marks a literal directive argument such as the "foo" of
	// :foo, whose Content is a plain string and never evaluated.
	Static bool
	// Constant is set when resolution found no reference to component
	// state or scope variables.
	Constant bool
	// Stable is set for a bare reference to a setup const: the value never
	// needs patching but cannot be hoisted out of setup either.
	Stable   bool
	Resolved bool
	Code     string
	Marks    []Segment
}

// NewExpression returns an expression for content at loc.
func NewExpression(content string, loc diag.Span) *Expression {
	return &Expression{Content: content, Loc: loc}
}

// NewStatic returns a static expression, used for directive arguments.
func NewStatic(content string, loc diag.Span) *Expression {
	return &Expression{Content: content, Loc: loc, Static: true, Constant: true, Resolved: true, Code: content}
}

// Text returns the resolved code when available, the source otherwise.
func (e *Expression) Text() string {
	if e.Resolved {
		return e.Code
	}
	return e.Content
}
