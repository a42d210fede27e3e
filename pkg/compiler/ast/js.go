package ast

// JSNode is the output IR the code generator prints. It is deliberately
// small: everything the render tree needs is a call, a literal, an object,
// an array, an arrow, a conditional or a string concatenation.
type JSNode interface {
	jsNode()
}

// JSRaw is code printed verbatim.
type JSRaw struct {
	Code string
}

// JSString is a string literal, printed double-quoted.
type JSString struct {
	Value string
}

// JSExpr is a resolved template expression.
type JSExpr struct {
	Exp *Expression
}

// JSHelper references a runtime helper by its local alias.
type JSHelper struct {
	Name Helper
}

// JSCall is callee(args...). Pure calls get a /*#__PURE__*/ annotation.
type JSCall struct {
	Callee JSNode
	Args   []JSNode
	Pure   bool
}

// JSProp is one object member. Key is nil for spreads.
type JSProp struct {
	Key      JSNode
	Computed bool
	Spread   bool
	Value    JSNode
}

// JSObject is an object literal.
type JSObject struct {
	Props []JSProp
}

// JSArray is an array literal.
type JSArray struct {
	Elems []JSNode
}

// JSArrow is (params)=>body.
type JSArrow struct {
	Params string
	Body   JSNode
}

// JSCond is test ? cons : alt.
type JSCond struct {
	Test JSNode
	Cons JSNode
	Alt  JSNode
}

// JSConcat joins parts with +.
type JSConcat struct {
	Parts []JSNode
}

// JSCache memoizes Value in the render cache slot Index. VOnce selects the
// setBlockTracking form used by v-once.
type JSCache struct {
	Index int
	Value JSNode
	VOnce bool
}

// JSSeq is a parenthesized comma expression.
type JSSeq struct {
	Exprs []JSNode
}

// JSVNode embeds an arena render node.
type JSVNode struct {
	ID NodeID
}

func (*JSRaw) jsNode()    {}
func (*JSString) jsNode() {}
func (*JSExpr) jsNode()   {}
func (*JSHelper) jsNode() {}
func (*JSCall) jsNode()   {}
func (*JSObject) jsNode() {}
func (*JSArray) jsNode()  {}
func (*JSArrow) jsNode()  {}
func (*JSCond) jsNode()   {}
func (*JSConcat) jsNode() {}
func (*JSCache) jsNode()  {}
func (*JSSeq) jsNode()    {}
func (*JSVNode) jsNode()  {}

// Raw returns a verbatim node.
func Raw(code string) *JSRaw { return &JSRaw{Code: code} }

// Str returns a string literal node.
func Str(s string) *JSString { return &JSString{Value: s} }

// Call builds a helper call.
func Call(h Helper, args ...JSNode) *JSCall {
	return &JSCall{Callee: &JSHelper{Name: h}, Args: args}
}

// Prop builds a plain key: value member. Keys that are not valid
// identifiers are quoted.
func Prop(key string, value JSNode) JSProp {
	if IsIdentifier(key) {
		return JSProp{Key: Raw(key), Value: value}
	}
	return JSProp{Key: Str(key), Value: value}
}

// Get returns the value of the non-computed member called key.
func (o *JSObject) Get(key string) (JSNode, bool) {
	for _, p := range o.Props {
		if p.Computed || p.Spread {
			continue
		}
		if PropKey(p) == key {
			return p.Value, true
		}
	}
	return nil, false
}

// PropKey returns the literal key of p, or "" for computed and spread
// members.
func PropKey(p JSProp) string {
	switch k := p.Key.(type) {
	case *JSRaw:
		if !p.Computed {
			return k.Code
		}
	case *JSString:
		return k.Value
	}
	return ""
}

// IsIdentifier reports whether s can be used as a bare property key.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_' || c == '$':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
