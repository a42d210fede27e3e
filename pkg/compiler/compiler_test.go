package compiler

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/vuec/pkg/compiler/diag"
	"github.com/recera/vuec/pkg/compiler/script"
	"github.com/recera/vuec/pkg/compiler/sourcemap"
	"github.com/recera/vuec/pkg/compiler/transform"
)

const (
	helloTemplate = `<div class="simple compiler input">Hello, {{ compilerName }}!</div>`
	helloSetup    = `import { ref } from 'vue'
const compilerName = ref('fervid')
`
)

func prod() Options {
	opts := DefaultOptions()
	opts.IsProduction = true
	return opts
}

func TestModeEquivalence(t *testing.T) {
	dev, err := Compile(helloTemplate, helloSetup, DefaultOptions())
	require.NoError(t, err)
	inline, err := Compile(helloTemplate, helloSetup, prod())
	require.NoError(t, err)

	assert.Equal(t, transform.RenderFn, dev.Mode)
	assert.Equal(t, transform.Inline, inline.Mode)
	assert.Empty(t, dev.Errors)
	assert.Empty(t, inline.Errors)

	for _, res := range []*Result{dev, inline} {
		assert.Contains(t, res.Code, "import { ref } from 'vue';")
		assert.Contains(t, res.Code, `import { createElementBlock as _createElementBlock, openBlock as _openBlock, toDisplayString as _toDisplayString } from "vue";`)
		assert.Contains(t, res.Code, `class: "simple compiler input"`)
		assert.Contains(t, res.Code, "const compilerName = ref('fervid');")
		assert.Equal(t, script.SetupRef, res.Bindings["compilerName"])
	}

	assert.Contains(t, dev.Code, `"Hello, " + _toDisplayString($setup.compilerName) + "!", 1))`)
	assert.Contains(t, dev.Code, "render (_ctx, _cache, $props, $setup, $data, $options) {")
	assert.Contains(t, dev.Code, "return {\n            compilerName\n        };")

	assert.Contains(t, inline.Code, `"Hello, " + _toDisplayString(compilerName.value) + "!", 1))`)
	assert.Contains(t, inline.Code, "return (_ctx, _cache)=>")
	assert.NotContains(t, inline.Code, "$setup")
	assert.NotContains(t, inline.Code, "render (")
}

func TestInlineNeedsScriptSetup(t *testing.T) {
	res, err := Compile(`<p>{{ msg }}</p>`, "", prod())
	require.NoError(t, err)
	assert.Equal(t, transform.RenderFn, res.Mode)
	assert.Contains(t, res.Code, "_ctx.msg")
}

func TestRoundTripStability(t *testing.T) {
	in := Input{
		Template: `<ul :class="cls"><li v-for="(item, i) in items" :key="item.id" @click="pick(i)">{{ item.label }}</li>` +
			`<Child v-if="show" v-model="picked" /><p v-else>none</p><span>static</span></ul>`,
		ScriptSetup: `import { ref, computed } from 'vue'
import Child from './Child.vue'
const items = ref([])
const picked = ref(null)
const show = computed(() => items.value.length > 0)
const cls = 'list'
function pick(i) { picked.value = items.value[i] }
`,
	}
	for _, opts := range []Options{DefaultOptions(), prod()} {
		first, err := CompileInput(in, opts)
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			again, err := CompileInput(in, opts)
			require.NoError(t, err)
			require.Equal(t, first.Code, again.Code)
		}
	}
}

func TestBindingClassification(t *testing.T) {
	res, err := Compile("", "const x = ref(1)\nconst y = 1\nlet z = 1\n", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, map[string]script.BindingKind{
		"x": script.SetupRef,
		"y": script.LiteralConst,
		"z": script.SetupLet,
	}, res.Bindings)
}

func TestStaticTemplateIsOneHoist(t *testing.T) {
	res, err := Compile(`<section><h1>Title</h1><p>text</p></section>`, "", DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, res.Code, "return _hoisted_1;")
	assert.NotContains(t, res.Code, "_openBlock")
	assert.Equal(t, 1, strings.Count(res.Code, "const _hoisted_"))
}

func TestFatalScriptError(t *testing.T) {
	res, err := Compile(`<div>{{ a }}</div>`, "const = 1", DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFatal)
	assert.ErrorIs(t, err, script.ErrSyntax)
	require.NotNil(t, res)
	assert.Empty(t, res.Code)
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, diag.ScriptSyntax, res.Errors[0].Code)
	assert.Equal(t, diag.Fatal, res.Errors[0].Severity)
}

func TestFatalLegacyScriptError(t *testing.T) {
	_, err := CompileInput(Input{Template: `<p/>`, Script: "export default {"}, DefaultOptions())
	assert.ErrorIs(t, err, ErrFatal)
}

func TestRecoverableErrorsKeepCode(t *testing.T) {
	opts := DefaultOptions()
	opts.Filename = "Form.vue"
	res, err := Compile(`<form><div v-model="name"></div><input v-model="name"></form>`, "const name = ref('')", opts)
	require.NoError(t, err)
	assert.True(t, res.HasErrors())
	require.Len(t, res.Errors, 1)
	assert.Equal(t, diag.VModelOnInvalidElement, res.Errors[0].Code)
	assert.Equal(t, "Form.vue", res.Errors[0].File)
	assert.Contains(t, res.Code, "_vModelText")
}

func TestComponentSlotPropsCompileCleanly(t *testing.T) {
	for _, opts := range []Options{DefaultOptions(), prod()} {
		res, err := Compile(`<Card v-slot="{ item }">{{ item }}</Card>`, "import Card from './Card.vue'\n", opts)
		require.NoError(t, err)
		assert.Empty(t, res.Errors)
		assert.False(t, res.HasErrors())
		assert.Contains(t, res.Code, "_withCtx(({ item })=>[")
	}
}

func TestInvalidWhitespaceOption(t *testing.T) {
	opts := DefaultOptions()
	opts.Whitespace = "bogus"
	res, err := Compile(helloTemplate, helloSetup, opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)
	assert.NotErrorIs(t, err, ErrFatal)
	assert.Nil(t, res)

	outs, err := CompileAll(context.Background(), []Input{{Template: helloTemplate}}, opts, 1)
	require.NoError(t, err)
	assert.ErrorIs(t, outs[0].Err, ErrInvalidOptions)

	opts.Whitespace = ""
	_, err = Compile(helloTemplate, helloSetup, opts)
	assert.NoError(t, err)
}

func TestDiagnosticsInFileCoordinates(t *testing.T) {
	res, err := CompileInput(Input{
		Template:      "<div>\n  <span v-else>x</span>\n</div>",
		TemplateStart: diag.Position{Offset: 10, Line: 1, Column: 11},
		ScriptSetup:   "const a = 1",
		Filename:      "Comp.vue",
	}, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	d := res.Errors[0]
	assert.Equal(t, diag.VElseNoAdjacentIf, d.Code)
	assert.Equal(t, 2, d.Span.Start.Line)
	assert.Equal(t, 9, d.Span.Start.Column)
	assert.Equal(t, "Comp.vue", d.File)
}

func TestLegacyAndSetupScripts(t *testing.T) {
	res, err := CompileInput(Input{
		Template: `<p>{{ title }} {{ count }}</p>`,
		Script: `const version = 2
export default {
  name: 'Counter',
  inheritAttrs: false
}`,
		ScriptSetup: `const count = ref(0)
const props = defineProps(['title'])`,
	}, DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, res.Code, "const version = 2;")
	assert.Contains(t, res.Code, "name: 'Counter'")
	assert.Contains(t, res.Code, "inheritAttrs: false")
	assert.Contains(t, res.Code, "$props.title")
	assert.Contains(t, res.Code, "$setup.count")
	assert.Equal(t, script.Props, res.Bindings["title"])
}

func TestSourceMapOutput(t *testing.T) {
	opts := DefaultOptions()
	opts.SourceMap = true
	opts.Filename = "Hello.vue"
	res, err := Compile(helloTemplate, helloSetup, opts)
	require.NoError(t, err)
	require.NotEmpty(t, res.Map)

	m, err := sourcemap.Parse([]byte(res.Map))
	require.NoError(t, err)
	assert.Equal(t, "Hello.vue.js", m.File)
	assert.Equal(t, []string{"Hello.vue"}, m.Sources)
	assert.Equal(t, []string{helloTemplate}, m.SourcesContent)
	assert.NotEmpty(t, m.Mappings)

	res, err = Compile(helloTemplate, helloSetup, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, res.Map)
}

func TestProductionDropsComments(t *testing.T) {
	tpl := `<div><!-- note --><p>{{ a }}</p></div>`
	dev, err := Compile(tpl, "", DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, dev.Code, `_createCommentVNode(" note ")`)

	p, err := Compile(tpl, "", prod())
	require.NoError(t, err)
	assert.NotContains(t, p.Code, "note")
}

func TestCompileAsync(t *testing.T) {
	c := New(DefaultOptions())
	in := Input{Template: helloTemplate, ScriptSetup: helloSetup}

	want, err := c.CompileSync(in)
	require.NoError(t, err)

	got, ok := <-c.CompileAsync(context.Background(), in)
	require.True(t, ok)
	require.NoError(t, got.Err)
	assert.Equal(t, want.Code, got.Result.Code)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got = <-c.CompileAsync(ctx, in)
	assert.ErrorIs(t, got.Err, context.Canceled)
	assert.Nil(t, got.Result)
}

func TestCompileAll(t *testing.T) {
	inputs := []Input{
		{Filename: "A.vue", Template: `<p>{{ a }}</p>`},
		{Filename: "B.vue", Template: `<p>{{ b }}</p>`, ScriptSetup: "const = "},
		{Filename: "C.vue", Template: `<p>{{ c }}</p>`, ScriptSetup: "const c = ref(1)"},
	}
	outs, err := CompileAll(context.Background(), inputs, DefaultOptions(), 2)
	require.NoError(t, err)
	require.Len(t, outs, 3)

	require.NoError(t, outs[0].Err)
	assert.Contains(t, outs[0].Result.Code, "_ctx.a")

	assert.ErrorIs(t, outs[1].Err, ErrFatal)
	assert.Equal(t, "B.vue", outs[1].Result.Errors[0].File)

	require.NoError(t, outs[2].Err)
	assert.Contains(t, outs[2].Result.Code, "$setup.c")
}

func TestCompileAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outs, err := CompileAll(ctx, []Input{{Template: `<p/>`}, {Template: `<br>`}}, DefaultOptions(), 1)
	assert.ErrorIs(t, err, context.Canceled)
	for _, o := range outs {
		assert.Nil(t, o.Result)
	}
}

func BenchmarkCompile(b *testing.B) {
	tpl := `<div class="app">
  <header><h1>{{ title }}</h1><nav><a href="/">Home</a><a href="/about">About</a></nav></header>
  <ul>
    <li v-for="todo in todos" :key="todo.id" :class="{ done: todo.done }" @click="toggle(todo)">{{ todo.text }}</li>
  </ul>
  <input v-model="draft" @keyup.enter="add">
  <footer v-if="todos.length">{{ todos.length }} items</footer>
</div>`
	setup := `import { ref } from 'vue'
const title = 'Todos'
const todos = ref([])
const draft = ref('')
function add() { todos.value.push({ id: Date.now(), text: draft.value, done: false }) }
function toggle(t) { t.done = !t.done }
`
	for _, mode := range []struct {
		name string
		opts Options
	}{{"module", DefaultOptions()}, {"inline", prod()}} {
		b.Run(mode.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := Compile(tpl, setup, mode.opts); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkCompileAll(b *testing.B) {
	inputs := make([]Input, 64)
	for i := range inputs {
		inputs[i] = Input{Template: `<div><p v-for="n in 10" :key="n">{{ n }} {{ label }}</p></div>`, ScriptSetup: "const label = ref('x')"}
	}
	c := New(DefaultOptions())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.CompileAll(context.Background(), inputs, 0); err != nil {
			b.Fatal(err)
		}
	}
}
