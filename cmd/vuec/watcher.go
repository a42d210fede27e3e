package main

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// changeSet is one debounced batch of component changes.
type changeSet struct {
	// Changed holds created or written files.
	Changed []string
	// Removed holds deleted or renamed files.
	Removed []string
}

func (c changeSet) empty() bool {
	return len(c.Changed) == 0 && len(c.Removed) == 0
}

// watcher reports .vue changes under a directory tree, batched so that an
// editor's burst of writes becomes a single rebuild.
type watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	log      zerolog.Logger
}

func newWatcher(root string, log zerolog.Logger) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &watcher{fs: fsw, debounce: 100 * time.Millisecond, log: log}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches root and every directory below it, skipping hidden
// directories and node_modules.
func (w *watcher) addTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && skipDir(info.Name()) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

func (w *watcher) Close() error {
	return w.fs.Close()
}

// run delivers change sets to fn until ctx is done or the watcher is
// closed. fn runs on the watcher goroutine.
func (w *watcher) run(ctx context.Context, fn func(changeSet)) {
	debounce := time.NewTimer(0)
	<-debounce.C // drain initial timer

	pending := map[string]fsnotify.Op{}

	for {
		select {
		case <-ctx.Done():
			debounce.Stop()
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !skipDir(info.Name()) {
					if err := w.addTree(event.Name); err != nil {
						w.log.Warn().Err(err).Str("dir", event.Name).Msg("watch failed")
					}
					continue
				}
			}
			if !isComponent(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			pending[event.Name] |= event.Op
			debounce.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watcher error")

		case <-debounce.C:
			set := collect(pending)
			pending = map[string]fsnotify.Op{}
			if !set.empty() {
				fn(set)
			}
		}
	}
}

// collect sorts pending events into a change set. A file that was removed
// and written again within one batch counts as changed when it exists.
func collect(pending map[string]fsnotify.Op) changeSet {
	var set changeSet
	for path, op := range pending {
		_, err := os.Stat(path)
		gone := op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename)
		switch {
		case err == nil:
			set.Changed = append(set.Changed, path)
		case gone:
			set.Removed = append(set.Removed, path)
		}
	}
	sort.Strings(set.Changed)
	sort.Strings(set.Removed)
	return set
}
