package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/vuec/cmd/vuec/internal/ui"
	"github.com/recera/vuec/pkg/compiler"
	"github.com/recera/vuec/pkg/compiler/diag"
)

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	kept := filepath.Join(dir, "Kept.vue")
	require.NoError(t, os.WriteFile(kept, nil, 0644))
	gone := filepath.Join(dir, "Gone.vue")

	set := collect(map[string]fsnotify.Op{
		kept:                            fsnotify.Remove | fsnotify.Create,
		gone:                            fsnotify.Write | fsnotify.Remove,
		filepath.Join(dir, "Never.vue"): fsnotify.Write,
	})
	assert.Equal(t, []string{kept}, set.Changed)
	assert.Equal(t, []string{gone}, set.Removed)
}

func TestWatcherDebounces(t *testing.T) {
	dir := t.TempDir()
	w, err := newWatcher(dir, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sets := make(chan changeSet, 4)
	go w.run(ctx, func(set changeSet) { send(sets, set) })

	path := filepath.Join(dir, "A.vue")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("<template><p/></template>"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644))

	select {
	case set := <-sets:
		assert.Equal(t, []string{path}, set.Changed)
		assert.Empty(t, set.Removed)
	case <-time.After(5 * time.Second):
		t.Fatal("no change set delivered")
	}

	require.NoError(t, os.Remove(path))
	select {
	case set := <-sets:
		assert.Equal(t, []string{path}, set.Removed)
	case <-time.After(5 * time.Second):
		t.Fatal("no removal delivered")
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	w, err := newWatcher(dir, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sets := make(chan changeSet, 4)
	go w.run(ctx, func(set changeSet) { send(sets, set) })

	sub := filepath.Join(dir, "components")
	require.NoError(t, os.Mkdir(sub, 0755))

	path := filepath.Join(sub, "B.vue")
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		// The directory is added asynchronously, so keep writing until the
		// watcher sees it.
		require.NoError(t, os.WriteFile(path, []byte("<template/>"), 0644))
		select {
		case set := <-sets:
			assert.Contains(t, set.Changed, path)
			return
		case <-tick.C:
		case <-deadline:
			t.Fatal("write in new directory not seen")
		}
	}
}

// send delivers set without blocking the watcher once the test stops
// reading.
func send(sets chan changeSet, set changeSet) {
	select {
	case sets <- set:
	default:
	}
}

func TestFileResult(t *testing.T) {
	warning := diag.Diagnostic{Severity: diag.Warning, Message: "unused", File: "A.vue", Span: diag.Span{Start: diag.Position{Line: 1, Column: 2}}}
	recoverable := diag.Diagnostic{Severity: diag.Error, Message: "bad v-model", File: "A.vue", Span: diag.Span{Start: diag.Position{Line: 3, Column: 4}}}

	tests := []struct {
		name     string
		unit     unit
		status   ui.Status
		messages []string
	}{
		{
			name:   "clean",
			unit:   unit{Path: "A.vue", Result: &compiler.Result{Code: "x"}},
			status: ui.StatusOK,
		},
		{
			name:     "warning",
			unit:     unit{Path: "A.vue", Result: &compiler.Result{Code: "x", Errors: []diag.Diagnostic{warning}}},
			status:   ui.StatusWarning,
			messages: []string{"A.vue:1:2: unused"},
		},
		{
			name:     "error",
			unit:     unit{Path: "A.vue", Result: &compiler.Result{Code: "x", Errors: []diag.Diagnostic{warning, recoverable}}},
			status:   ui.StatusFailed,
			messages: []string{"A.vue:1:2: unused", "A.vue:3:4: bad v-model"},
		},
		{
			name:     "unreadable",
			unit:     unit{Path: "A.vue", Err: os.ErrNotExist},
			status:   ui.StatusFailed,
			messages: []string{os.ErrNotExist.Error()},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fileResult(tt.unit, "dist/A.vue.js")
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.messages, got.Messages)
			assert.Equal(t, "dist/A.vue.js", got.Output)
		})
	}
}

func TestWatchLoopRebuilds(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	path := filepath.Join(src, "A.vue")
	require.NoError(t, os.WriteFile(path, []byte(childComponent), 0644))

	b := &builder{srcDir: src, outDir: out, opts: compiler.DefaultOptions(), log: zerolog.Nop()}
	w, err := newWatcher(src, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()
	w.debounce = 50 * time.Millisecond

	r := &recorder{events: make(chan string, 16)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watchLoop(ctx, b, w, r) }()

	require.Equal(t, "finished A.vue", r.next(t))
	assert.FileExists(t, filepath.Join(out, "A.vue.js"))

	require.NoError(t, os.Remove(path))
	require.Equal(t, "removed A.vue", r.next(t))
	assert.NoFileExists(t, filepath.Join(out, "A.vue.js"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not stop")
	}
}

// recorder is a reporter that records one event per call.
type recorder struct {
	events chan string
}

func (r *recorder) started([]string) {}

func (r *recorder) finished(units []unit, _ map[string]string, _ time.Duration) {
	for _, u := range units {
		r.events <- "finished " + filepath.Base(u.Path)
	}
}

func (r *recorder) removed(files []string) {
	for _, f := range files {
		r.events <- "removed " + filepath.Base(f)
	}
}

func (r *recorder) next(t *testing.T) string {
	t.Helper()
	select {
	case e := <-r.events:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("no event")
		return ""
	}
}
