// Package compiler turns the template and script blocks of a Vue single
// file component into one JavaScript module.
//
// The pipeline runs four stages in order: the script analyzer classifies
// the bindings declared by <script> and <script setup>, the parser builds
// the template tree, the transformer lowers it into render calls and the
// code generator prints the module. Every call owns its own state, so
// independent components can be compiled in parallel.
package compiler

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/recera/vuec/pkg/compiler/codegen"
	"github.com/recera/vuec/pkg/compiler/diag"
	"github.com/recera/vuec/pkg/compiler/parser"
	"github.com/recera/vuec/pkg/compiler/script"
	"github.com/recera/vuec/pkg/compiler/transform"
)

// Version identifies the output format. Cached artifacts built by another
// version are never reused.
const Version = "0.4.0"

// ErrFatal is returned when the compile aborted without producing code.
var ErrFatal = diag.ErrFatal

// ErrInvalidOptions is returned when Options hold a value the compiler does
// not understand. No stage runs.
var ErrInvalidOptions = errors.New("invalid compiler options")

// Options configure a compile.
type Options struct {
	// IsProduction selects inline codegen for <script setup> components
	// and drops template comments.
	IsProduction bool
	Whitespace   parser.WhitespaceMode
	HoistStatic  bool
	SourceMap    bool
	// Filename is used in diagnostics and as the source map source.
	Filename      string
	CacheHandlers bool
	// Logger receives per-stage debug events. The zero Logger discards
	// them.
	Logger zerolog.Logger
}

// DefaultOptions returns development options with static hoisting and
// handler caching on.
func DefaultOptions() Options {
	return Options{
		Whitespace:    parser.Condense,
		HoistStatic:   true,
		CacheHandlers: true,
		Logger:        zerolog.Nop(),
	}
}

// Validate checks the option values. An empty Whitespace means condense.
func (o Options) Validate() error {
	if o.Whitespace != "" && !o.Whitespace.Valid() {
		return fmt.Errorf("%w: whitespace must be %q or %q, got %q", ErrInvalidOptions, parser.Condense, parser.Preserve, o.Whitespace)
	}
	return nil
}

// Input holds the blocks of one component. Empty blocks are absent.
type Input struct {
	Template    string
	Script      string
	ScriptSetup string
	// Filename overrides Options.Filename.
	Filename string

	// The positions of each block inside the original file. When set,
	// diagnostic spans are reported in file coordinates.
	TemplateStart    diag.Position
	ScriptStart      diag.Position
	ScriptSetupStart diag.Position
}

// Result is the output of a compile.
type Result struct {
	Code string `json:"code"`
	// Map is the serialized v3 source map, empty unless requested.
	Map    string            `json:"map,omitempty"`
	Errors []diag.Diagnostic `json:"errors"`
	// Bindings is the classification of every script binding.
	Bindings map[string]script.BindingKind `json:"bindings,omitempty"`
	Mode     transform.Mode                `json:"-"`
}

// HasErrors reports whether any diagnostic other than a warning was
// reported.
func (r *Result) HasErrors() bool {
	for _, d := range r.Errors {
		if d.Severity != diag.Warning {
			return true
		}
	}
	return false
}

// Compile compiles a template and a <script setup> body.
func Compile(template, scriptSetup string, opts Options) (*Result, error) {
	return CompileInput(Input{Template: template, ScriptSetup: scriptSetup}, opts)
}

// CompileInput compiles every block of in. Recoverable problems are
// returned in Result.Errors next to the best-effort code. When the compile
// is aborted the result holds only diagnostics and the error wraps
// ErrFatal. Options that fail Validate return no result.
func CompileInput(in Input, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	file := opts.Filename
	if in.Filename != "" {
		file = in.Filename
	}
	if opts.Whitespace == "" {
		opts.Whitespace = parser.Condense
	}
	log := opts.Logger.With().Str("file", file).Logger()
	begin := time.Now()
	diags := diag.NewList(file)

	// Scripts
	start := time.Now()
	var legacy, setup *script.Result
	var err error
	if in.Script != "" {
		legacy, err = analyze(in.Script, false, file, in.ScriptStart, diags)
	}
	if err == nil && in.ScriptSetup != "" {
		setup, err = analyze(in.ScriptSetup, true, file, in.ScriptSetupStart, diags)
	}
	if err != nil {
		log.Debug().Str("stage", "script").Err(err).Msg("compile aborted")
		return &Result{Errors: diags.Sorted()}, fmt.Errorf("%w: %w", ErrFatal, err)
	}
	sr := script.Combine(legacy, setup)
	mode := transform.RenderFn
	if opts.IsProduction && sr.HasSetup {
		mode = transform.Inline
	}
	log.Debug().
		Str("stage", "script").
		Dur("duration", time.Since(start)).
		Int("bindings", sr.Bindings.Len()).
		Stringer("mode", mode).
		Msg("scripts analyzed")

	// Template
	var tpl *transform.Result
	if in.Template != "" {
		start = time.Now()
		tree, pd := parser.Parse(in.Template, parser.Options{
			Whitespace: opts.Whitespace,
			Delimiters: [2]string{"{{", "}}"},
			Comments:   !opts.IsProduction,
			Filename:   file,
		})
		log.Debug().
			Str("stage", "parse").
			Dur("duration", time.Since(start)).
			Int("diagnostics", pd.Len()).
			Msg("template parsed")

		start = time.Now()
		td := diag.NewList(file)
		tpl = transform.Transform(tree, sr.Bindings, transform.Options{
			Mode:          mode,
			HoistStatic:   opts.HoistStatic,
			CacheHandlers: opts.CacheHandlers,
			Dev:           !opts.IsProduction,
		}, td)
		rebase(diags, pd, in.TemplateStart)
		rebase(diags, td, in.TemplateStart)
		log.Debug().
			Str("stage", "transform").
			Dur("duration", time.Since(start)).
			Int("hoisted", len(tpl.Hoists)).
			Int("cached", tpl.Cached).
			Int("diagnostics", td.Len()).
			Msg("template transformed")
	}

	// Code
	start = time.Now()
	gd := diag.NewList(file)
	out, err := codegen.Generate(tpl, sr, codegen.Options{
		Mode:      mode,
		SourceMap: opts.SourceMap,
		Filename:  file,
		Source:    in.Template,
	}, gd)
	rebase(diags, gd, in.TemplateStart)
	if err != nil {
		log.Debug().Str("stage", "codegen").Err(err).Msg("compile aborted")
		return &Result{Errors: diags.Sorted()}, fmt.Errorf("%w: %w", ErrFatal, err)
	}
	res := &Result{
		Code:     out.Code,
		Errors:   diags.Sorted(),
		Bindings: sr.Bindings.Map(),
		Mode:     mode,
	}
	if out.Map != nil {
		if res.Map, err = out.Map.JSON(); err != nil {
			return nil, fmt.Errorf("encode source map: %w", err)
		}
	}
	log.Debug().
		Str("stage", "codegen").
		Dur("duration", time.Since(start)).
		Int("helpers", len(out.Helpers)).
		Int("bytes", len(res.Code)).
		Msg("module generated")
	log.Debug().
		Dur("duration", time.Since(begin)).
		Int("diagnostics", len(res.Errors)).
		Msg("compiled")
	return res, nil
}

func analyze(src string, isSetup bool, file string, base diag.Position, diags *diag.List) (*script.Result, error) {
	local := diag.NewList(file)
	res, err := script.Analyze(src, isSetup, local)
	rebase(diags, local, base)
	return res, err
}

// rebase moves block-relative diagnostics into file coordinates.
func rebase(dst, src *diag.List, base diag.Position) {
	for _, d := range src.Items() {
		d.Span = d.Span.Rebase(base)
		dst.Add(d)
	}
}
