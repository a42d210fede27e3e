package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/vuec/internal/cache"
	"github.com/recera/vuec/pkg/compiler/parser"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))
	return dir
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	got, err := Load(t.TempDir())
	require.NoError(t, err)
	if diff := cmp.Diff(DefaultConfig(), got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := writeConfig(t, `
srcDir: components
compiler:
  production: true
  hoistStatic: false
cache:
  strategy: lfu
serve:
  port: 8080
`)
	got, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "components", got.SrcDir)
	assert.Equal(t, "dist", got.OutDir)
	assert.True(t, got.Compiler.Production)
	assert.Equal(t, "condense", got.Compiler.Whitespace)
	assert.False(t, *got.Compiler.HoistStatic)
	assert.True(t, *got.Compiler.CacheHandlers)
	assert.Equal(t, "lfu", got.Cache.Strategy)
	assert.Equal(t, "168h", got.Cache.MaxAge)
	assert.Equal(t, 8080, got.Serve.Port)
	assert.Equal(t, "localhost", got.Serve.Host)
	assert.Equal(t, "info", got.Log.Level)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"whitespace", "compiler:\n  whitespace: collapse\n"},
		{"jobs", "compiler:\n  jobs: -1\n"},
		{"max age", "cache:\n  maxAge: forever\n"},
		{"strategy", "cache:\n  strategy: random\n"},
		{"port", "serve:\n  port: 70000\n"},
		{"log format", "log:\n  format: xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := Load(writeConfig(t, "compiler: [unterminated"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := DefaultConfig()
	want.OutDir = "build"
	want.Compiler.SourceMap = true
	want.Cache.Dir = filepath.Join(dir, ".cache")

	require.NoError(t, Save(want, dir))
	got, err := Load(dir)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCompilerOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Compiler.Production = true
	cfg.Compiler.Whitespace = "preserve"
	off := false
	cfg.Compiler.HoistStatic = &off

	opts := cfg.CompilerOptions()
	assert.True(t, opts.IsProduction)
	assert.Equal(t, parser.Preserve, opts.Whitespace)
	assert.False(t, opts.HoistStatic)
	assert.True(t, opts.CacheHandlers)
	assert.False(t, opts.SourceMap)
}

func TestCacheConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Dir = "/tmp/vuec-cache"
	cfg.Cache.MaxSizeMB = 2
	cfg.Cache.MaxAge = "90m"
	cfg.Cache.Strategy = "fifo"

	got := cfg.CacheConfig()
	assert.Equal(t, "/tmp/vuec-cache", got.Dir)
	assert.Equal(t, int64(2<<20), got.MaxSize)
	assert.Equal(t, 90*time.Minute, got.MaxAge)
	assert.Equal(t, cache.FIFO, got.Strategy)
}
