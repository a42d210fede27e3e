package sfc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/vuec/pkg/compiler"
	"github.com/recera/vuec/pkg/compiler/diag"
)

const counter = `<!-- counter -->
<script>
export default { name: 'Counter' }
</script>

<script setup lang="ts">
import { ref } from 'vue'
const count = ref(0)
</script>

<template>
  <button @click="count++">
    <template v-if="count">{{ count }}</template>
    <template v-else>zero</template>
  </button>
</template>

<style scoped>
button { color: red; }
</style>
<i18n lang="json">{"en": {}}</i18n>
`

func TestParse(t *testing.T) {
	d, err := Parse(counter, "Counter.vue")
	require.NoError(t, err)
	assert.Equal(t, "Counter.vue", d.Filename)

	require.NotNil(t, d.Script)
	assert.Equal(t, "\nexport default { name: 'Counter' }\n", d.Script.Content)
	assert.Equal(t, diag.Position{Offset: 25, Line: 2, Column: 9}, d.Script.Start)

	require.NotNil(t, d.ScriptSetup)
	assert.Equal(t, "ts", d.ScriptSetup.Lang())
	assert.True(t, d.ScriptSetup.Has("setup"))
	assert.Equal(t, "\nimport { ref } from 'vue'\nconst count = ref(0)\n", d.ScriptSetup.Content)
	assert.Equal(t, 6, d.ScriptSetup.Start.Line)

	require.NotNil(t, d.Template)
	assert.Equal(t, `
  <button @click="count++">
    <template v-if="count">{{ count }}</template>
    <template v-else>zero</template>
  </button>
`, d.Template.Content)
	assert.Equal(t, 11, d.Template.Start.Line)
	assert.Equal(t, 11, d.Template.Start.Column)
	assert.Equal(t, 16, d.Template.Loc.End.Line)

	require.Len(t, d.Styles, 1)
	assert.True(t, d.Styles[0].Has("scoped"))
	assert.Equal(t, "\nbutton { color: red; }\n", d.Styles[0].Content)

	require.Len(t, d.Custom, 1)
	assert.Equal(t, "i18n", d.Custom[0].Type)
	assert.Equal(t, "json", d.Custom[0].Lang())
	assert.Equal(t, `{"en": {}}`, d.Custom[0].Content)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"empty", "", ErrNoTemplate},
		{"only style", "<style>a{}</style>", ErrNoTemplate},
		{"two templates", "<template><p/></template><template><p/></template>", ErrDuplicateBlock},
		{"two setup scripts", "<script setup>a</script><script setup>b</script>", ErrDuplicateBlock},
		{"unclosed template", "<template><div></div>", ErrUnclosedBlock},
		{"unclosed script", "<script>const a = 1", ErrUnclosedBlock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src, "Bad.vue")
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "Bad.vue")
		})
	}
}

func TestSelfClosingBlockIsSkipped(t *testing.T) {
	d, err := Parse("<template/><script setup>const a = 1</script>", "A.vue")
	require.NoError(t, err)
	assert.Nil(t, d.Template)
	assert.NotNil(t, d.ScriptSetup)
}

func TestInputCompiles(t *testing.T) {
	d, err := Parse(counter, "Counter.vue")
	require.NoError(t, err)
	in := d.Input()
	assert.Equal(t, "Counter.vue", in.Filename)
	assert.Equal(t, d.Template.Start, in.TemplateStart)

	res, err := compiler.CompileInput(in, compiler.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	assert.Contains(t, res.Code, "name: 'Counter'")
	assert.Contains(t, res.Code, "$setup.count")
}

func TestDiagnosticsPointIntoFile(t *testing.T) {
	src := "<template>\n  <p v-else>x</p>\n</template>\n"
	d, err := Parse(src, "Else.vue")
	require.NoError(t, err)
	res, err := compiler.CompileInput(d.Input(), compiler.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 2, res.Errors[0].Span.Start.Line)
	assert.Equal(t, 6, res.Errors[0].Span.Start.Column)
	assert.Equal(t, "Else.vue:2:6: v-else/v-else-if has no adjacent v-if or v-else-if", res.Errors[0].Error())
}
