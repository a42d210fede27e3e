package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(a *Analysis) []string {
	var out []string
	for _, id := range a.Idents {
		out = append(out, id.Name)
	}
	return out
}

func TestAnalyzeFreeIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"identifier", "compilerName", []string{"compilerName"}},
		{"member access", "user.profile.name", []string{"user"}},
		{"optional chain", "a?.b?.[c]", []string{"a", "c"}},
		{"call", "format(date, 'YYYY')", []string{"format", "date"}},
		{"object keys are not references", "{ active: isActive, 'text-danger': hasError }", []string{"isActive", "hasError"}},
		{"ternary inside object", "{ a: ok ? b : c }", []string{"ok", "b", "c"}},
		{"arrow params are local", "items.map(item => item.id + offset)", []string{"items", "offset"}},
		{"destructured params are local", "list.filter(({ done }) => !done)", []string{"list"}},
		{"template literal", "`${greeting}, ${name}!`", []string{"greeting", "name"}},
		{"regexp", "/ab+c/.test(input) ? a / b : 0", []string{"input", "a", "b"}},
		{"globals are still reported", "Math.max(a, b)", []string{"Math", "a", "b"}},
		{"literal", "'hello'", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Analyze(tt.src, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(a))
		})
	}
}

func TestAnalyzeShorthandAndAssignment(t *testing.T) {
	a, err := Analyze("{ foo, bar: 1 }", false)
	require.NoError(t, err)
	require.Len(t, a.Idents, 1)
	assert.True(t, a.Idents[0].Shorthand)

	a, err = Analyze("count++; total += count; done = true", true)
	require.NoError(t, err)
	require.Len(t, a.Idents, 4)
	assert.True(t, a.Idents[0].Assigned)
	assert.True(t, a.Idents[1].Assigned)
	assert.False(t, a.Idents[2].Assigned)
	assert.True(t, a.Idents[3].Assigned)
}

func TestAnalyzeErrors(t *testing.T) {
	for _, src := range []string{"a +", "foo(", "a; b"} {
		_, err := Analyze(src, false)
		assert.Error(t, err, src)
	}
}

func TestRewrite(t *testing.T) {
	a, err := Analyze("{ msg, n: count + 1 }", false)
	require.NoError(t, err)
	code, marks := Rewrite(a.Source, a.Idents, func(id Ident) string {
		return "$setup." + id.Name
	})
	assert.Equal(t, "{ msg: $setup.msg, n: $setup.count + 1 }", code)
	require.Len(t, marks, 2)
	assert.Equal(t, Mark{Code: 7, Src: 2}, marks[0])

	code, marks = Rewrite("x + y", []Ident{{Name: "x", Start: 0, End: 1}, {Name: "y", Start: 4, End: 5}}, func(id Ident) string {
		if id.Name == "x" {
			return ""
		}
		return "_ctx.y"
	})
	assert.Equal(t, "x + _ctx.y", code)
	assert.Len(t, marks, 1)
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsSimpleIdentifier("foo"))
	assert.True(t, IsSimpleIdentifier(" $el "))
	assert.False(t, IsSimpleIdentifier("foo.bar"))
	assert.False(t, IsSimpleIdentifier("1"))

	assert.True(t, IsMemberExpression("a"))
	assert.True(t, IsMemberExpression("a.b[c]"))
	assert.True(t, IsMemberExpression("(form.name)"))
	assert.False(t, IsMemberExpression("a + b"))
	assert.False(t, IsMemberExpression("go()"))

	assert.True(t, IsFunctionExpression("() => go()"))
	assert.True(t, IsFunctionExpression("async (e) => save(e)"))
	assert.True(t, IsFunctionExpression("function (e) { save(e) }"))
	assert.False(t, IsFunctionExpression("save"))

	assert.True(t, IsLiteral("'x'"))
	assert.True(t, IsLiteral("42"))
	assert.True(t, IsLiteral("true"))
	assert.False(t, IsLiteral("x"))

	assert.True(t, IsGloballyAllowed("JSON"))
	assert.False(t, IsGloballyAllowed("window"))
}

func TestParams(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{"item", []string{"item"}},
		{"item, index", []string{"item", "index"}},
		{"{ id, name: label }, i", []string{"id", "label", "i"}},
		{"[first, ...rest]", []string{"first", "rest"}},
		{"value, key, index", []string{"value", "key", "index"}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := Params(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Params("a +")
	assert.Error(t, err)
}
