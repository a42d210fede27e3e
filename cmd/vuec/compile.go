package main

import (
	"fmt"
	"io"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/recera/vuec/pkg/compiler"
	"github.com/recera/vuec/pkg/compiler/diag"
	"github.com/recera/vuec/pkg/compiler/parser"
)

type compileFlags struct {
	outDir     string
	stdout     bool
	json       bool
	prod       bool
	sourceMap  bool
	whitespace string
	noHoist    bool
	noCache    bool
	jobs       int
}

func newCompileCommand(g *globals) *cobra.Command {
	f := &compileFlags{}

	cmd := &cobra.Command{
		Use:   "compile [files or directories...]",
		Short: "Compile .vue files into JavaScript modules",
		Long: `Compiles single file components into render function modules. With no
arguments the configured source directory is compiled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, g, f, args)
		},
	}

	cmd.Flags().StringVarP(&f.outDir, "out-dir", "o", "", "Output directory (defaults to outDir from vuec.yaml)")
	cmd.Flags().BoolVar(&f.stdout, "stdout", false, "Print modules instead of writing them")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print results as JSON")
	cmd.Flags().BoolVar(&f.prod, "prod", false, "Compile for production (inline render functions)")
	cmd.Flags().BoolVar(&f.sourceMap, "source-map", false, "Write source maps")
	cmd.Flags().StringVar(&f.whitespace, "whitespace", "", "Whitespace handling (condense, preserve)")
	cmd.Flags().BoolVar(&f.noHoist, "no-hoist", false, "Disable static hoisting")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "Bypass the artifact cache")
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", 0, "Files compiled in parallel (0 for one per CPU)")

	return cmd
}

// apply layers the flags that were set over the configuration.
func (f *compileFlags) apply(cmd *cobra.Command, b *builder) error {
	flags := cmd.Flags()
	if flags.Changed("whitespace") {
		switch mode := parser.WhitespaceMode(f.whitespace); mode {
		case parser.Condense, parser.Preserve:
			b.opts.Whitespace = mode
		default:
			return fmt.Errorf("--whitespace must be %q or %q, got %q", parser.Condense, parser.Preserve, f.whitespace)
		}
	}
	if flags.Changed("out-dir") {
		b.outDir = f.outDir
	}
	if flags.Changed("prod") {
		b.opts.IsProduction = f.prod
	}
	if flags.Changed("source-map") {
		b.opts.SourceMap = f.sourceMap
	}
	if flags.Changed("no-hoist") {
		b.opts.HoistStatic = !f.noHoist
	}
	if flags.Changed("jobs") {
		b.jobs = f.jobs
	}
	return nil
}

func runCompile(cmd *cobra.Command, g *globals, f *compileFlags, args []string) error {
	cfg, log, err := g.load(cmd)
	if err != nil {
		return err
	}
	if f.noCache {
		cfg.Cache.Enabled = false
	}

	b, cleanup := newBuilder(g, cfg, log)
	defer cleanup()
	if err := f.apply(cmd, b); err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		paths = []string{b.srcDir}
	}
	files, err := discover(paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .vue files found in %v", paths)
	}

	start := time.Now()
	units, err := b.build(cmd.Context(), files)
	if err != nil {
		return err
	}
	log.Debug().Int("files", len(files)).Dur("duration", time.Since(start)).Msg("build finished")

	out := cmd.OutOrStdout()
	switch {
	case f.json:
		err = printJSON(out, units)
	case f.stdout:
		err = printModules(out, units)
	default:
		err = writeModules(out, b, units, time.Since(start))
	}
	if err != nil {
		return err
	}
	return summarize(units)
}

// unitJSON is the --json shape of a unit.
type unitJSON struct {
	Path   string           `json:"path"`
	Cached bool             `json:"cached"`
	Error  string           `json:"error,omitempty"`
	Result *compiler.Result `json:"result,omitempty"`
}

func printJSON(w io.Writer, units []unit) error {
	list := make([]unitJSON, len(units))
	for i, u := range units {
		list[i] = unitJSON{Path: u.Path, Cached: u.Cached, Result: u.Result}
		if u.Err != nil {
			list[i].Error = u.Err.Error()
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(list)
}

func printModules(w io.Writer, units []unit) error {
	for _, u := range units {
		if u.Failed() {
			continue
		}
		if _, err := fmt.Fprintf(w, "// %s\n%s\n", u.Path, u.Result.Code); err != nil {
			return err
		}
	}
	printDiagnostics(w, units)
	return nil
}

func writeModules(w io.Writer, b *builder, units []unit, elapsed time.Duration) error {
	fmt.Fprintf(w, "🔨 Compiling %d component(s)...\n", len(units))
	written := 0
	for _, u := range units {
		if u.Failed() {
			continue
		}
		out, err := b.write(u)
		if err != nil {
			return err
		}
		written++
		suffix := ""
		if u.Cached {
			suffix = " (cached)"
		}
		fmt.Fprintf(w, "  ✓ %s → %s%s\n", u.Path, out, suffix)
	}
	printDiagnostics(w, units)
	fmt.Fprintf(w, "✅ Wrote %d module(s) to %s in %v\n", written, b.outDir, elapsed.Round(time.Millisecond))
	return nil
}

func printDiagnostics(w io.Writer, units []unit) {
	for _, u := range units {
		if u.Result == nil || len(u.Result.Errors) == 0 {
			if u.Err != nil {
				fmt.Fprintf(w, "  ❌ %s: %v\n", u.Path, u.Err)
			}
			continue
		}
		for _, d := range u.Result.Errors {
			icon := "❌"
			if d.Severity == diag.Warning {
				icon = "⚠️ "
			}
			fmt.Fprintf(w, "  %s %s\n", icon, d.Error())
		}
	}
}

// summarize turns failed files and reported errors into the command's exit
// error.
func summarize(units []unit) error {
	failed := 0
	for _, u := range units {
		if u.Failed() || u.Result.HasErrors() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d component(s) had errors", failed, len(units))
	}
	return nil
}
