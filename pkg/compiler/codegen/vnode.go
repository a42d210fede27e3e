package codegen

import (
	"strconv"
	"strings"

	"github.com/recera/vuec/pkg/compiler/ast"
	"github.com/recera/vuec/pkg/compiler/diag"
)

// renderNode prints the arena render node behind id.
func (p *printer) renderNode(id ast.NodeID) {
	switch n := p.arena.Get(id).(type) {
	case *ast.VNodeCall:
		p.vnode(n, false)
	case *ast.IfNode:
		p.ifNode(n, 0)
	case *ast.ForNode:
		p.forNode(n)
	case *ast.TextCall:
		p.textCall(n, false)
	case *ast.Hoisted:
		if n.Index < 0 || n.Index >= len(p.hoists) {
			p.fail(diag.UnresolvableHoist, n.Loc)
			p.write("null")
			return
		}
		p.write(n.Name())
	default:
		p.fail(diag.UnknownNode, diag.Span{})
		p.write("null")
	}
}

// vnode prints a creation call. Blocks open a block first:
// (_openBlock(), _createElementBlock(tag, props, children, flag, dynamicProps)).
func (p *printer) vnode(n *ast.VNodeCall, pure bool) {
	if n.Directives != nil {
		p.write(p.helper(ast.HelperWithDirectives) + "(")
	}
	if n.IsBlock {
		p.write("(" + p.helper(ast.HelperOpenBlock) + "(")
		if n.DisableTracking {
			p.write("true")
		}
		p.write("), ")
	} else if pure {
		p.write("/*#__PURE__*/")
	}

	var create ast.Helper
	switch {
	case n.IsBlock && n.IsComponent:
		create = ast.HelperCreateBlock
	case n.IsBlock:
		create = ast.HelperCreateElementBlock
	case n.IsComponent:
		create = ast.HelperCreateVNode
	default:
		create = ast.HelperCreateElementVNode
	}
	p.mark(n.Loc.Start)
	p.write(p.helper(create))

	args := []ast.JSNode{n.Tag, n.Props, n.Children}
	if n.PatchFlag != 0 {
		args = append(args, ast.Raw(n.PatchFlag.Code()))
	}
	if len(n.DynamicProps) > 0 {
		args = append(args, dynamicProps(n.DynamicProps))
	}
	p.callArgs(args)

	if n.IsBlock {
		p.write(")")
	}
	if n.Directives != nil {
		p.write(", ")
		p.node(n.Directives)
		p.write(")")
	}
}

// callArgs prints an argument list with trailing nil arguments dropped and
// inner ones printed as null.
func (p *printer) callArgs(args []ast.JSNode) {
	for len(args) > 0 && args[len(args)-1] == nil {
		args = args[:len(args)-1]
	}
	p.args(args)
}

func dynamicProps(names []string) ast.JSNode {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return ast.Raw("[" + strings.Join(quoted, ",") + "]")
}

// ifNode prints branches from i as right-nested conditionals. A chain
// without v-else ends in a v-if comment placeholder.
func (p *printer) ifNode(n *ast.IfNode, i int) {
	if i >= len(n.Branches) {
		p.write(p.helper(ast.HelperCreateComment) + `("v-if", true)`)
		return
	}
	b := n.Branches[i]
	if b.Cond == nil {
		p.node(b.Body)
		return
	}
	p.write("(")
	p.expression(b.Cond)
	p.write(")")
	p.level++
	p.nl()
	p.write("? ")
	p.node(b.Body)
	p.nl()
	p.write(": ")
	p.ifNode(n, i+1)
	p.level--
}

// forNode prints a v-for list as a fragment over renderList. Only stable
// fragments track their children as a block.
func (p *printer) forNode(n *ast.ForNode) {
	p.write("(" + p.helper(ast.HelperOpenBlock) + "(")
	if n.PatchFlag != ast.FlagStableFragment {
		p.write("true")
	}
	p.write("), ")
	p.mark(n.Loc.Start)
	p.write(p.helper(ast.HelperCreateElementBlock) + "(" + p.helper(ast.HelperFragment) + ", null, ")
	p.write(p.helper(ast.HelperRenderList) + "(")
	p.expression(n.Source)
	p.write(", ")
	p.node(&ast.JSArrow{Params: "(" + strings.Join(n.Params, ", ") + ")", Body: n.Body})
	p.write("), " + strconv.Itoa(int(n.PatchFlag)) + "))")
}

func (p *printer) textCall(n *ast.TextCall, pure bool) {
	if pure {
		p.write("/*#__PURE__*/")
	}
	p.mark(n.Loc.Start)
	p.write(p.helper(ast.HelperCreateText) + "(")
	p.node(n.Content)
	if n.PatchFlag != 0 {
		p.write(", " + n.PatchFlag.Code())
	}
	p.write(")")
}

// hoist prints the initializer of a hoist pool entry.
func (p *printer) hoist(id ast.NodeID) {
	switch n := p.arena.Get(id).(type) {
	case *ast.VNodeCall:
		p.vnode(n, true)
	case *ast.TextCall:
		p.textCall(n, true)
	default:
		p.fail(diag.UnresolvableHoist, diag.Span{})
		p.write("null")
	}
}
