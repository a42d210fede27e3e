package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/recera/vuec/internal/cache"
	"github.com/recera/vuec/pkg/compiler"
	"github.com/recera/vuec/pkg/sfc"
)

// builder compiles .vue files with the project's options, consulting the
// artifact cache when one is configured.
type builder struct {
	srcDir string
	outDir string
	opts   compiler.Options
	cache  *cache.Cache
	jobs   int
	log    zerolog.Logger
}

// unit is the outcome for one .vue file.
type unit struct {
	Path   string
	Result *compiler.Result
	Err    error
	Cached bool
}

// Failed reports whether the file produced no code.
func (u unit) Failed() bool {
	return u.Err != nil || u.Result == nil
}

// discover expands paths into the .vue files they name. Directories are
// walked, skipping hidden directories and node_modules.
func discover(paths []string) ([]string, error) {
	var files []string
	seen := map[string]bool{}
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if path != root && skipDir(info.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if isComponent(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	return files, nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules"
}

func isComponent(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".vue")
}

// build compiles files. Cache hits skip the compiler; the misses are
// compiled in parallel and stored. Outcomes keep the order of files.
func (b *builder) build(ctx context.Context, files []string) ([]unit, error) {
	units := make([]unit, len(files))
	var (
		inputs  []compiler.Input
		pending []int
		keys    []string
	)

	for i, path := range files {
		units[i].Path = path
		in, err := readComponent(path)
		if err != nil {
			units[i].Err = err
			continue
		}

		key := cache.Key(in, b.opts)
		if b.cache != nil {
			res, err := b.cache.GetResult(key)
			if err == nil {
				units[i].Result = res
				units[i].Cached = true
				b.log.Debug().Str("file", path).Msg("cache hit")
				continue
			}
			if !errors.Is(err, cache.ErrNotFound) {
				b.log.Warn().Err(err).Str("file", path).Msg("cache read failed")
			}
		}
		inputs = append(inputs, in)
		pending = append(pending, i)
		keys = append(keys, key)
	}

	outcomes, err := compiler.New(b.opts).CompileAll(ctx, inputs, b.jobs)
	if err != nil {
		return nil, err
	}
	for j, out := range outcomes {
		i := pending[j]
		units[i].Result, units[i].Err = out.Result, out.Err
		if out.Err != nil || b.cache == nil {
			continue
		}
		if err := b.cache.PutResult(keys[j], out.Result, files[i]); err != nil {
			b.log.Warn().Err(err).Str("file", files[i]).Msg("cache write failed")
		}
	}

	if b.cache != nil {
		if err := b.cache.Flush(); err != nil {
			b.log.Warn().Err(err).Msg("cache flush failed")
		}
	}
	return units, nil
}

// readComponent reads and splits a .vue file.
func readComponent(path string) (compiler.Input, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return compiler.Input{}, err
	}
	d, err := sfc.Parse(string(src), filepath.Base(path))
	if err != nil {
		return compiler.Input{}, err
	}
	return d.Input(), nil
}

// rel returns path relative to srcDir. Files outside srcDir keep only
// their base name.
func (b *builder) rel(path string) string {
	rel, err := filepath.Rel(b.srcDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(path)
	}
	return rel
}

// outputPath maps a source file to its module path under outDir, keeping
// the layout relative to srcDir.
func (b *builder) outputPath(path string) string {
	return filepath.Join(b.outDir, b.rel(path)+".js")
}

// write stores the compiled module, and its source map when present.
func (b *builder) write(u unit) (string, error) {
	if u.Failed() {
		return "", fmt.Errorf("%s: nothing to write", u.Path)
	}
	out := b.outputPath(u.Path)
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return "", err
	}

	code := u.Result.Code
	if u.Result.Map != "" {
		mapFile := out + ".map"
		if err := os.WriteFile(mapFile, []byte(u.Result.Map), 0644); err != nil {
			return "", err
		}
		code += "//# sourceMappingURL=" + filepath.Base(mapFile) + "\n"
	}
	if err := os.WriteFile(out, []byte(code), 0644); err != nil {
		return "", err
	}
	return out, nil
}
