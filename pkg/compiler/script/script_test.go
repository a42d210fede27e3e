package script

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/vuec/pkg/compiler/diag"
)

func analyze(t *testing.T, src string, isSetup bool) (*Result, *diag.List) {
	t.Helper()
	diags := diag.NewList("App.vue")
	res, err := Analyze(src, isSetup, diags)
	require.NoError(t, err)
	return res, diags
}

func TestClassifySetupBindings(t *testing.T) {
	src := `import { ref, reactive, computed as c } from 'vue'
import Foo from './Foo.vue'
const x = ref(1)
const y = 1
let z = 1
const s = reactive({})
const doubled = c(() => x.value * 2)
const mouse = useMouse()
const obj = { a: 1 }
function go() {}
class Store {}
const { a, b } = useThing()
var v = 2
const str = ` + "`plain`" + `
const neg = -1
const sum = y + 1
`
	res, diags := analyze(t, src, true)
	require.Zero(t, diags.Len())

	tests := []struct {
		name string
		want BindingKind
	}{
		{"ref", SetupConst},
		{"c", SetupConst},
		{"Foo", SetupConst},
		{"x", SetupRef},
		{"y", LiteralConst},
		{"z", SetupLet},
		{"s", SetupReactiveConst},
		{"doubled", SetupRef},
		{"mouse", SetupMaybeRef},
		{"obj", SetupConst},
		{"go", SetupConst},
		{"Store", SetupConst},
		{"a", SetupMaybeRef},
		{"b", SetupMaybeRef},
		{"v", SetupLet},
		{"str", LiteralConst},
		{"neg", LiteralConst},
		{"sum", SetupConst},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, res.Bindings.Kind(tt.name))
		})
	}

	foo, ok := res.Bindings.Lookup("Foo")
	require.True(t, ok)
	assert.Equal(t, "./Foo.vue", foo.Source)
	assert.Equal(t, "default", foo.Imported)
	assert.True(t, foo.IsImport())

	alias, _ := res.Bindings.Lookup("c")
	assert.Equal(t, "computed", alias.Imported)
}

func TestRefCalleeMustComeFromVue(t *testing.T) {
	res, _ := analyze(t, "import { ref } from './my-ref'\nconst x = ref(1)", true)
	assert.Equal(t, SetupMaybeRef, res.Bindings.Kind("x"))

	res, _ = analyze(t, "const x = ref(1)", true)
	assert.Equal(t, SetupRef, res.Bindings.Kind("x"))
}

func TestSetupBody(t *testing.T) {
	src := `import { ref } from 'vue'
const compilerName = ref('fervid')
function greet() {
  return 'hi ' + compilerName.value
}
`
	res, _ := analyze(t, src, true)
	assert.Equal(t, []string{"import { ref } from 'vue';"}, res.Imports)
	require.Len(t, res.Setup, 2)
	assert.Equal(t, "const compilerName = ref('fervid');", res.Setup[0])
	assert.Contains(t, res.Setup[1], "function greet()")
	assert.Equal(t, []string{"ref", "compilerName", "greet"}, res.Bindings.Names())
	assert.True(t, res.HasSetup)
	assert.False(t, res.UsesProps)
}

func TestMacros(t *testing.T) {
	src := `const props = defineProps(['title', 'count'])
const emit = defineEmits(['change'])
defineOptions({ name: 'Counter', inheritAttrs: false })
defineExpose({ reset })
function reset() {}
`
	res, diags := analyze(t, src, true)
	require.Zero(t, diags.Len())

	assert.Equal(t, "['title', 'count']", res.PropsDecl)
	assert.Equal(t, "['change']", res.EmitsDecl)
	assert.Equal(t, "Counter", res.Name)
	assert.True(t, res.UsesProps)
	assert.True(t, res.UsesEmit)
	assert.True(t, res.UsesExpose)
	assert.Len(t, res.Fields, 2)

	assert.Equal(t, SetupReactiveConst, res.Bindings.Kind("props"))
	assert.Equal(t, Props, res.Bindings.Kind("title"))
	assert.Equal(t, Props, res.Bindings.Kind("count"))
	assert.Equal(t, SetupConst, res.Bindings.Kind("emit"))

	require.Len(t, res.Setup, 4)
	assert.Equal(t, "const props = __props;", res.Setup[0])
	assert.Equal(t, "const emit = __emit;", res.Setup[1])
	assert.Contains(t, res.Setup[2], "__expose(")
}

func TestDestructuredProps(t *testing.T) {
	res, _ := analyze(t, "const { msg, size = 2 } = defineProps({ msg: String, size: Number })", true)
	assert.Equal(t, Props, res.Bindings.Kind("msg"))
	assert.Equal(t, Props, res.Bindings.Kind("size"))
	assert.Equal(t, "{msg: String, size: Number}", res.PropsDecl)
}

func TestWithDefaults(t *testing.T) {
	res, _ := analyze(t, "const props = withDefaults(defineProps(['size']), { size: 1 })", true)
	assert.True(t, res.NeedsMerger)
	assert.Equal(t, "/*#__PURE__*/_mergeDefaults(['size'], {size: 1})", res.PropsDecl)
	assert.Equal(t, Props, res.Bindings.Kind("size"))
	assert.Equal(t, SetupReactiveConst, res.Bindings.Kind("props"))
}

func TestDuplicateMacro(t *testing.T) {
	res, diags := analyze(t, "defineProps(['a'])\ndefineProps(['b'])", true)
	assert.True(t, diags.Has(diag.DuplicateMacroCall))
	assert.False(t, diags.HasFatal())
	assert.Equal(t, Props, res.Bindings.Kind("a"))
	assert.Zero(t, res.Bindings.Kind("b"))
}

func TestSyntaxErrorIsFatal(t *testing.T) {
	diags := diag.NewList("App.vue")
	res, err := Analyze("const x = ref(\nconst y = 2", true, diags)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSyntax))
	assert.Nil(t, res)
	assert.True(t, diags.HasFatal())
	assert.True(t, diags.Has(diag.ScriptSyntax))
}

func TestLegacyOptions(t *testing.T) {
	src := `import { defineComponent } from 'vue'
export default defineComponent({
  name: 'Legacy',
  props: ['title'],
  data() {
    return { count: 0, items: [] }
  },
  computed: {
    double() { return this.count * 2 },
  },
  methods: {
    inc() { this.count++ },
  },
  inject: ['theme'],
  setup: () => {
    return { fromSetup: 1 }
  },
})
`
	res, diags := analyze(t, src, false)
	require.Zero(t, diags.Len())
	assert.Equal(t, "Legacy", res.Name)
	assert.False(t, res.HasSetup)

	want := map[string]BindingKind{
		"title":     Props,
		"count":     Data,
		"items":     Data,
		"double":    Options,
		"inc":       Options,
		"theme":     Options,
		"fromSetup": SetupMaybeRef,
	}
	for name, kind := range want {
		assert.Equal(t, kind, res.Bindings.Kind(name), name)
	}
	assert.Len(t, res.Fields, 7)
	assert.Equal(t, "name: 'Legacy'", res.Fields[0])
}

func TestLegacyNonObjectExport(t *testing.T) {
	res, diags := analyze(t, "const opts = {}\nexport default opts", false)
	assert.True(t, diags.Has(diag.UnsupportedScriptExport))
	assert.Equal(t, []string{"...opts"}, res.Fields)
	assert.Equal(t, []string{"const opts = {};"}, res.Module)
}

func TestCombine(t *testing.T) {
	legacy, _ := analyze(t, "import { helper } from './util'\nconst shared = 1\nexport default { name: 'Both' }", false)
	setup, _ := analyze(t, "import { ref } from 'vue'\nconst count = ref(0)", true)

	res := Combine(legacy, setup)
	assert.Equal(t, "Both", res.Name)
	assert.Equal(t, []string{"import { helper } from './util';", "import { ref } from 'vue';"}, res.Imports)
	assert.Equal(t, LiteralConst, res.Bindings.Kind("shared"))
	assert.Equal(t, SetupRef, res.Bindings.Kind("count"))
	assert.Equal(t, []string{"name: 'Both'"}, res.Fields)

	assert.Zero(t, legacy.Bindings.Kind("shared"), "module declarations stay out of a lone plain script")
	assert.Same(t, setup, Combine(nil, setup))
}

func TestBindingKindString(t *testing.T) {
	assert.Equal(t, "setup-maybe-ref", SetupMaybeRef.String())
	text, err := LiteralConst.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "literal-const", string(text))
	assert.True(t, SetupLet.IsSetup())
	assert.False(t, Props.IsSetup())
}
