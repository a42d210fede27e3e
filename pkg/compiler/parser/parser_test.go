package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/vuec/pkg/compiler/ast"
	"github.com/recera/vuec/pkg/compiler/diag"
)

func parse(t *testing.T, src string) (*ast.Template, *diag.List) {
	t.Helper()
	return Parse(src, DefaultOptions())
}

func element(t *testing.T, tpl *ast.Template, id ast.NodeID) *ast.Element {
	t.Helper()
	el, ok := tpl.Arena.Get(id).(*ast.Element)
	require.True(t, ok, "node %d is %T, want *ast.Element", id, tpl.Arena.Get(id))
	return el
}

func TestParseElementWithInterpolation(t *testing.T) {
	tpl, diags := parse(t, "<div class=\"simple compiler input\">\n    Hello, {{ compilerName }}!\n  </div>")
	require.Zero(t, diags.Len())
	require.Len(t, tpl.Children, 1)

	div := element(t, tpl, tpl.Children[0])
	assert.Equal(t, "div", div.Tag)
	assert.Equal(t, ast.PlainElement, div.Type)
	require.Len(t, div.Props, 1)
	assert.Equal(t, "class", div.Props[0].Name)
	assert.Equal(t, "simple compiler input", div.Props[0].Value)

	require.Len(t, div.Children, 1)
	compound, ok := tpl.Arena.Get(div.Children[0]).(*ast.Compound)
	require.True(t, ok)
	require.Len(t, compound.Parts, 3)

	first := tpl.Arena.Get(compound.Parts[0]).(*ast.Text)
	interp := tpl.Arena.Get(compound.Parts[1]).(*ast.Interpolation)
	last := tpl.Arena.Get(compound.Parts[2]).(*ast.Text)
	assert.Equal(t, " Hello, ", first.Content)
	assert.Equal(t, "compilerName", interp.Exp.Content)
	assert.Equal(t, "! ", last.Content)

	assert.Equal(t, 2, interp.Exp.Loc.Start.Line)
	assert.Equal(t, 15, interp.Exp.Loc.Start.Column)
}

func TestParseDirectives(t *testing.T) {
	tests := []struct {
		name      string
		attr      string
		dir       string
		arg       string
		static    bool
		modifiers []string
		exp       string
	}{
		{"bind shorthand", `:title="msg"`, "bind", "title", true, nil, "msg"},
		{"bind canonical", `v-bind:title="msg"`, "bind", "title", true, nil, "msg"},
		{"prop shorthand", `.value="msg"`, "bind", "value", true, []string{"prop"}, "msg"},
		{"same-name bind", `:user-id`, "bind", "user-id", true, nil, "userId"},
		{"on shorthand with modifiers", `@click.stop.prevent="go"`, "on", "click", true, []string{"stop", "prevent"}, "go"},
		{"dynamic arg", `:[key]="val"`, "bind", "key", false, nil, "val"},
		{"slot keeps dots", `#item.name="{ item }"`, "slot", "item.name", true, nil, "{ item }"},
		{"model with modifiers", `v-model.trim="text"`, "model", "", false, []string{"trim"}, "text"},
		{"custom", `v-focus`, "focus", "", false, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, diags := parse(t, "<div "+tt.attr+"></div>")
			require.Zero(t, diags.Len(), diags.Items())
			div := element(t, tpl, tpl.Children[0])
			require.Len(t, div.Props, 1)
			d := div.Props[0].Dir
			require.NotNil(t, d)
			assert.Equal(t, tt.dir, d.Name)
			if tt.arg == "" {
				assert.Nil(t, d.Arg)
			} else {
				require.NotNil(t, d.Arg)
				assert.Equal(t, tt.arg, d.Arg.Content)
				assert.Equal(t, tt.static, d.Arg.Static)
			}
			assert.Equal(t, tt.modifiers, d.Modifiers)
			if tt.exp == "" {
				assert.Nil(t, d.Exp)
			} else {
				require.NotNil(t, d.Exp)
				assert.Equal(t, tt.exp, d.Exp.Content)
			}
		})
	}
}

func TestParseElementTypes(t *testing.T) {
	tests := []struct {
		src  string
		want ast.ElementType
	}{
		{"<div></div>", ast.PlainElement},
		{"<MyButton></MyButton>", ast.ComponentElement},
		{"<my-button></my-button>", ast.ComponentElement},
		{"<component :is=\"x\"></component>", ast.ComponentElement},
		{"<keep-alive></keep-alive>", ast.ComponentElement},
		{"<slot></slot>", ast.SlotElement},
		{"<template v-if=\"ok\"></template>", ast.TemplateElement},
		{"<template></template>", ast.PlainElement},
		{"<svg></svg>", ast.PlainElement},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tpl, _ := parse(t, tt.src)
			assert.Equal(t, tt.want, element(t, tpl, tpl.Children[0]).Type)
		})
	}
}

func TestWhitespace(t *testing.T) {
	src := "<div>\n  <span>a</span>\n  <span>b</span> <b>c</b>\n  <!-- note -->\n  text   with\n spaces\n</div>"

	t.Run("condense", func(t *testing.T) {
		tpl, _ := parse(t, src)
		div := element(t, tpl, tpl.Children[0])
		var kinds []string
		for _, id := range div.Children {
			switch n := tpl.Arena.Get(id).(type) {
			case *ast.Element:
				kinds = append(kinds, n.Tag)
			case *ast.Text:
				kinds = append(kinds, "text:"+n.Content)
			case *ast.Comment:
				kinds = append(kinds, "comment")
			}
		}
		assert.Equal(t, []string{"span", "span", "text: ", "b", "comment", "text: text with spaces "}, kinds)
	})

	t.Run("preserve", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Whitespace = Preserve
		tpl, _ := Parse(src, opts)
		div := element(t, tpl, tpl.Children[0])
		var texts []string
		for _, id := range div.Children {
			if n, ok := tpl.Arena.Get(id).(*ast.Text); ok {
				texts = append(texts, n.Content)
			}
		}
		assert.Equal(t, []string{" ", " ", " ", "\n  text   with\n spaces\n"}, texts)
	})

	t.Run("preserve edges", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Whitespace = Preserve
		tpl, _ := Parse("  <p>a</p>\n\n<p>b</p>  ", opts)
		require.Len(t, tpl.Children, 3)
		assert.Equal(t, "p", element(t, tpl, tpl.Children[0]).Tag)
		assert.Equal(t, " ", tpl.Arena.Get(tpl.Children[1]).(*ast.Text).Content)
		assert.Equal(t, "p", element(t, tpl, tpl.Children[2]).Tag)
	})

	t.Run("pre", func(t *testing.T) {
		tpl, _ := parse(t, "<pre>\n  keep\n   this</pre>")
		pre := element(t, tpl, tpl.Children[0])
		require.Len(t, pre.Children, 1)
		assert.Equal(t, "  keep\n   this", tpl.Arena.Get(pre.Children[0]).(*ast.Text).Content)
	})
}

func TestRecovery(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		codes []diag.Code
	}{
		{"unclosed element", "<div><span>hi</div>", []diag.Code{diag.MissingEndTag}},
		{"stray end tag", "<div></span></div>", []diag.Code{diag.InvalidEndTag}},
		{"eof in element", "<div><p>", []diag.Code{diag.MissingEndTag, diag.MissingEndTag}},
		{"unterminated interpolation", "<p>{{ oops</p>", []diag.Code{diag.MissingInterpolationEnd}},
		{"unterminated comment", "<!-- open", []diag.Code{diag.EOFInComment}},
		{"duplicate attribute", `<a id="x" id="y"></a>`, []diag.Code{diag.DuplicateAttribute}},
		{"dynamic arg end", `<a :[foo="x"></a>`, []diag.Code{diag.MissingDynamicDirectiveArgumentEnd}},
		{"eof in tag", `<div class="x"`, []diag.Code{diag.EOFInTag, diag.MissingEndTag}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := parse(t, tt.src)
			var got []diag.Code
			for _, d := range diags.Items() {
				got = append(got, d.Code)
				assert.NotEqual(t, diag.Fatal, d.Severity)
			}
			assert.Equal(t, tt.codes, got)
		})
	}
}

func TestUnclosedChildIsClosedByParent(t *testing.T) {
	tpl, _ := parse(t, "<div><span>hi</div><p>after</p>")
	require.Len(t, tpl.Children, 2)
	div := element(t, tpl, tpl.Children[0])
	require.Len(t, div.Children, 1)
	assert.Equal(t, "span", element(t, tpl, div.Children[0]).Tag)
	assert.Equal(t, "p", element(t, tpl, tpl.Children[1]).Tag)
}

func TestImplicitClose(t *testing.T) {
	tpl, diags := parse(t, "<ul><li>a<li>b</ul>")
	assert.Zero(t, diags.Len())
	ul := element(t, tpl, tpl.Children[0])
	assert.Len(t, ul.Children, 2)
}

func TestVPre(t *testing.T) {
	tpl, diags := parse(t, `<div v-pre :id="x">{{ raw }}<span @click="y"></span></div>`)
	require.Zero(t, diags.Len())
	div := element(t, tpl, tpl.Children[0])
	require.Len(t, div.Props, 1)
	assert.Nil(t, div.Props[0].Dir)
	assert.Equal(t, ":id", div.Props[0].Name)

	require.Len(t, div.Children, 2)
	assert.Equal(t, "{{ raw }}", tpl.Arena.Get(div.Children[0]).(*ast.Text).Content)
	assert.Nil(t, element(t, tpl, div.Children[1]).Props[0].Dir)
}

func TestRawTextAndEntities(t *testing.T) {
	tpl, diags := parse(t, `<p>a &amp; b &lt;c&gt;</p><textarea>{{ v }} &amp;</textarea><style>.a > b { }</style>`)
	require.Zero(t, diags.Len())
	require.Len(t, tpl.Children, 3)

	p := element(t, tpl, tpl.Children[0])
	assert.Equal(t, "a & b <c>", tpl.Arena.Get(p.Children[0]).(*ast.Text).Content)

	ta := element(t, tpl, tpl.Children[1])
	require.Len(t, ta.Children, 1)
	assert.IsType(t, &ast.Compound{}, tpl.Arena.Get(ta.Children[0]))

	style := element(t, tpl, tpl.Children[2])
	assert.Equal(t, ".a > b { }", tpl.Arena.Get(style.Children[0]).(*ast.Text).Content)
}

func TestCommentsOption(t *testing.T) {
	opts := DefaultOptions()
	opts.Comments = false
	tpl, _ := Parse("<!-- a --><div></div>", opts)
	require.Len(t, tpl.Children, 1)
	assert.Equal(t, "div", element(t, tpl, tpl.Children[0]).Tag)
}

func TestCustomDelimiters(t *testing.T) {
	opts := DefaultOptions()
	opts.Delimiters = [2]string{"${", "}"}
	tpl, _ := Parse("<p>${ a }</p>", opts)
	p := element(t, tpl, tpl.Children[0])
	interp, ok := tpl.Arena.Get(p.Children[0]).(*ast.Interpolation)
	require.True(t, ok)
	assert.Equal(t, "a", interp.Exp.Content)
}
