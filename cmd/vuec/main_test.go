package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/vuec/cmd/vuec/internal/config"
	"github.com/recera/vuec/pkg/compiler/script"
)

const (
	helloComponent = `<script setup>
import { ref } from 'vue'
const compilerName = ref('vuec')
</script>

<template>
  <div class="greeting">Hello, {{ compilerName }}!</div>
</template>
`
	childComponent = `<template><p>{{ label }}</p></template>
`
	brokenComponent = `<script setup>
const = 1
</script>
<template><p>broken</p></template>
`
)

// newProject lays out files under a temporary project whose cache lives
// inside it.
func newProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Cache.Dir = ".cache"
	require.NoError(t, config.Save(cfg, dir))

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCompileCommand(t *testing.T) {
	dir := newProject(t, map[string]string{
		"src/Hello.vue":          helloComponent,
		"src/nested/Child.vue":   childComponent,
		"src/node_modules/X.vue": childComponent,
		"src/.hidden/Y.vue":      childComponent,
	})

	out, err := execute(t, "-C", dir, "compile")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 module(s)")
	assert.NotContains(t, out, "(cached)")

	hello := readFile(t, filepath.Join(dir, "dist", "Hello.vue.js"))
	assert.Contains(t, hello, "$setup.compilerName")
	assert.Contains(t, readFile(t, filepath.Join(dir, "dist", "nested", "Child.vue.js")), "_ctx.label")
	assert.NoFileExists(t, filepath.Join(dir, "dist", "node_modules", "X.vue.js"))

	out, err = execute(t, "-C", dir, "compile")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "(cached)"), out)
	assert.Equal(t, hello, readFile(t, filepath.Join(dir, "dist", "Hello.vue.js")))
}

func TestCompileCommandFlags(t *testing.T) {
	dir := newProject(t, map[string]string{"src/Hello.vue": helloComponent})
	outDir := filepath.Join(dir, "build")

	_, err := execute(t, "-C", dir, "compile", "--prod", "--source-map", "--no-cache", "-o", outDir)
	require.NoError(t, err)

	code := readFile(t, filepath.Join(outDir, "Hello.vue.js"))
	assert.Contains(t, code, "compilerName.value")
	assert.Contains(t, code, "//# sourceMappingURL=Hello.vue.js.map")
	assert.Contains(t, readFile(t, filepath.Join(outDir, "Hello.vue.js.map")), `"version":3`)
	assert.NoDirExists(t, filepath.Join(dir, ".cache"))

	_, err = execute(t, "-C", dir, "compile", "--whitespace", "squash")
	assert.ErrorContains(t, err, "--whitespace")
}

func TestCompileCommandStdout(t *testing.T) {
	dir := newProject(t, map[string]string{"src/Hello.vue": helloComponent})
	file := filepath.Join(dir, "src", "Hello.vue")

	out, err := execute(t, "-C", dir, "compile", "--stdout", "--no-cache", file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "// "+file+"\n"), out)
	assert.Contains(t, out, "$setup.compilerName")
	assert.NoDirExists(t, filepath.Join(dir, "dist"))
}

func TestCompileCommandJSON(t *testing.T) {
	dir := newProject(t, map[string]string{
		"src/Hello.vue":  helloComponent,
		"src/Broken.vue": brokenComponent,
	})

	out, err := execute(t, "-C", dir, "compile", "--json", "--no-cache")
	assert.ErrorContains(t, err, "1 of 2 component(s) had errors")

	var got []unitJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)

	byName := map[string]unitJSON{}
	for _, u := range got {
		byName[filepath.Base(u.Path)] = u
	}
	assert.Equal(t, script.SetupRef, byName["Hello.vue"].Result.Bindings["compilerName"])
	assert.Empty(t, byName["Hello.vue"].Error)

	broken := byName["Broken.vue"]
	assert.Contains(t, broken.Error, "fatal compile error")
	require.NotNil(t, broken.Result)
	assert.Empty(t, broken.Result.Code)
	require.NotEmpty(t, broken.Result.Errors)
	assert.Equal(t, "Broken.vue", broken.Result.Errors[0].File)
	assert.Equal(t, 2, broken.Result.Errors[0].Span.Start.Line)
}

func TestCompileCommandErrors(t *testing.T) {
	dir := newProject(t, map[string]string{
		"src/Hello.vue":  helloComponent,
		"src/Broken.vue": brokenComponent,
		"src/Empty.vue":  "<style>p {}</style>",
	})

	out, err := execute(t, "-C", dir, "compile")
	assert.ErrorContains(t, err, "2 of 3 component(s) had errors")
	assert.Contains(t, out, "Wrote 1 module(s)")
	assert.Contains(t, out, "❌ Broken.vue:2:")
	assert.Contains(t, out, "Empty.vue")
	assert.FileExists(t, filepath.Join(dir, "dist", "Hello.vue.js"))
	assert.NoFileExists(t, filepath.Join(dir, "dist", "Broken.vue.js"))

	_, err = execute(t, "-C", dir, "compile", filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestInitCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "app")

	out, err := execute(t, "-C", dir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, config.FileName)
	assert.FileExists(t, filepath.Join(dir, "src", "App.vue"))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	_, err = execute(t, "-C", dir, "init")
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "-C", dir, "init", "--force")
	assert.NoError(t, err)
}

func TestLoggerFlags(t *testing.T) {
	dir := newProject(t, nil)
	_, err := execute(t, "-C", dir, "--log-level", "loud", "compile")
	assert.ErrorContains(t, err, "log level")

	_, err = execute(t, "-C", dir, "--log-format", "xml", "compile")
	assert.ErrorContains(t, err, "log format")
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"A.vue", "b/B.VUE", "b/readme.md", ".git/C.vue", "node_modules/D.vue"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}

	files, err := discover([]string{dir, filepath.Join(dir, "A.vue")})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "A.vue"), filepath.Join(dir, "b", "B.VUE")}, files)
}
