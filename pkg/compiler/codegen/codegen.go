// Package codegen prints a transformed template and the analyzed script
// blocks as one ES module exporting the component object.
//
// Two layouts exist. In render-function mode the object carries a render
// method that reads every binding through $setup, $props, $data or
// $options, next to a setup() that returns its bindings. In inline mode
// setup() returns the render closure itself, which closes over the setup
// locals.
package codegen

import (
	"errors"
	"strings"

	"github.com/recera/vuec/pkg/compiler/ast"
	"github.com/recera/vuec/pkg/compiler/diag"
	"github.com/recera/vuec/pkg/compiler/script"
	"github.com/recera/vuec/pkg/compiler/sourcemap"
	"github.com/recera/vuec/pkg/compiler/transform"
)

// ErrInternal is returned when the render tree violates an invariant the
// printer relies on, such as a reference to a missing hoist.
var ErrInternal = errors.New("codegen: inconsistent render tree")

// Options configure Generate.
type Options struct {
	Mode      transform.Mode
	SourceMap bool
	// Filename and Source name and hold the template for the source map.
	Filename string
	Source   string
}

// Output is a generated module.
type Output struct {
	Code string
	// Map is nil unless Options.SourceMap is set.
	Map *sourcemap.Map
	// Helpers are the runtime helpers the module imports, sorted.
	Helpers []ast.Helper
}

const renderParams = "_ctx, _cache, $props, $setup, $data, $options"

// Generate prints the module. tpl is nil for components without a
// template and sr is nil without scripts. Internal errors are reported to
// diags as fatal and returned as ErrInternal.
func Generate(tpl *transform.Result, sr *script.Result, opts Options, diags *diag.List) (*Output, error) {
	if sr == nil {
		sr = &script.Result{Bindings: script.NewTable()}
	}
	mode := opts.Mode
	if !sr.HasSetup {
		mode = transform.RenderFn
	}

	body := &printer{helpers: ast.NewHelperSet(), diags: diags}
	if tpl != nil {
		body.arena = tpl.Arena
		body.hoists = tpl.Hoists
		for _, h := range tpl.Helpers.Sorted() {
			body.helpers.Add(h)
		}
	}
	if sr.NeedsMerger {
		body.helpers.Add(ast.HelperMergeDefaults)
	}

	// Hoists and the component object are printed before the import line
	// is assembled so that the helper set is complete.
	hoists := &printer{arena: body.arena, hoists: body.hoists, helpers: body.helpers, diags: diags}
	if opts.SourceMap {
		body.sm = sourcemap.NewGenerator("")
		body.source = body.sm.AddSource(opts.Filename, opts.Source)
		hoists.sm = sourcemap.NewGenerator("")
		hoists.source = hoists.sm.AddSource(opts.Filename, opts.Source)
	}
	if tpl != nil {
		for i, id := range tpl.Hoists {
			hoists.write("const " + ast.HoistName(i) + " = ")
			hoists.hoist(id)
			hoists.write(";\n")
		}
	}
	g := &generator{p: body, tpl: tpl, sr: sr, mode: mode}
	g.component()
	if body.err || hoists.err {
		return nil, ErrInternal
	}

	var head strings.Builder
	for _, imp := range sr.Imports {
		head.WriteString(imp + "\n")
	}
	helpers := body.helpers.Sorted()
	if len(helpers) > 0 {
		head.WriteString("import { ")
		for i, h := range helpers {
			if i > 0 {
				head.WriteString(", ")
			}
			head.WriteString(string(h) + " as " + h.Local())
		}
		head.WriteString(" } from \"vue\";\n")
	}
	for _, stmt := range sr.Module {
		head.WriteString(stmt + "\n")
	}
	head.WriteString(hoists.b.String())

	out := &Output{Code: head.String() + body.b.String(), Helpers: helpers}
	if opts.SourceMap {
		out.Map = remap(opts, head.String(), hoists, body, diags)
	}
	return out, nil
}

// remap builds the source map once the module layout is final. The body
// and hoist printers recorded positions relative to their own output.
// Segments the generator rejects are reported and left out.
func remap(opts Options, head string, hoists, body *printer, diags *diag.List) *sourcemap.Map {
	final := sourcemap.NewGenerator(opts.Filename + ".js")
	src := final.AddSource(opts.Filename, opts.Source)

	hoistStart := strings.Count(head, "\n") - strings.Count(hoists.b.String(), "\n")
	bodyStart := strings.Count(head, "\n")
	for _, part := range []struct {
		p     *printer
		start int
	}{{hoists, hoistStart}, {body, bodyStart}} {
		if part.p.sm == nil {
			continue
		}
		for l, segs := range part.p.sm.Segments() {
			for _, s := range segs {
				if err := final.AddMapping(part.start+l, s.GenCol, src, s.SrcLine, s.SrcCol); err != nil {
					pos := diag.Position{Line: s.SrcLine + 1, Column: s.SrcCol + 1}
					diags.Reportf(diag.SourceMapMappingDropped, diag.Span{Start: pos, End: pos}, "%v at %d:%d", err, part.start+l+1, s.GenCol+1)
				}
			}
		}
	}
	return final.Map()
}

// generator prints the export default object.
type generator struct {
	p    *printer
	tpl  *transform.Result
	sr   *script.Result
	mode transform.Mode

	members int
}

func (g *generator) component() {
	p := g.p
	p.write("export default {")
	p.level++
	for _, f := range g.sr.Fields {
		g.member()
		p.lines(f)
	}
	if g.sr.PropsDecl != "" {
		g.member()
		p.write("props: " + g.sr.PropsDecl)
	}
	if g.sr.EmitsDecl != "" {
		g.member()
		p.write("emits: " + g.sr.EmitsDecl)
	}
	if g.tpl != nil && g.mode == transform.RenderFn {
		g.member()
		g.render()
	}
	if g.sr.HasSetup {
		g.member()
		g.setup()
	}
	p.level--
	p.nl()
	p.write("};\n")
}

// member starts the next member of the component object.
func (g *generator) member() {
	if g.members > 0 {
		g.p.write(",")
	}
	g.members++
	g.p.nl()
}

func (g *generator) render() {
	p := g.p
	p.write("render (" + renderParams + ") {")
	p.level++
	g.assets()
	p.nl()
	p.write("return ")
	p.node(g.tpl.Root)
	p.write(";")
	p.level--
	p.nl()
	p.write("}")
}

// assets declares the runtime-resolved components and directives.
func (g *generator) assets() {
	p := g.p
	for _, a := range g.tpl.Components {
		p.nl()
		p.write("const " + a.Var + " = " + p.helper(ast.HelperResolveComponent) + "(" + quote(a.Name) + ");")
	}
	for _, a := range g.tpl.Directives {
		p.nl()
		p.write("const " + a.Var + " = " + p.helper(ast.HelperResolveDirective) + "(" + quote(a.Name) + ");")
	}
}

func (g *generator) setup() {
	p := g.p
	p.write("setup (" + g.setupParams() + ") {")
	p.level++
	for _, stmt := range g.sr.Setup {
		p.nl()
		p.lines(stmt)
	}
	p.nl()
	if g.mode == transform.Inline && g.tpl != nil {
		g.inlineRender()
	} else {
		g.setupReturn()
	}
	p.level--
	p.nl()
	p.write("}")
}

func (g *generator) setupParams() string {
	var ctx []string
	if g.sr.UsesExpose {
		ctx = append(ctx, "expose: __expose")
	}
	if g.sr.UsesEmit {
		ctx = append(ctx, "emit: __emit")
	}
	switch {
	case len(ctx) > 0:
		return "__props, { " + strings.Join(ctx, ", ") + " }"
	case g.sr.UsesProps:
		return "__props"
	}
	return ""
}

// setupReturn exposes the setup bindings to the render function. Imports
// are only exposed when the template uses them.
func (g *generator) setupReturn() {
	p := g.p
	var names []string
	for _, b := range g.sr.Bindings.All() {
		if !b.Kind.IsSetup() {
			continue
		}
		if b.IsImport() && (g.tpl == nil || !g.tpl.Used[b.Name]) {
			continue
		}
		names = append(names, b.Name)
	}
	if len(names) == 0 {
		p.write("return {};")
		return
	}
	p.write("return {")
	p.level++
	for i, name := range names {
		p.nl()
		p.write(name)
		if i < len(names)-1 {
			p.write(",")
		}
	}
	p.level--
	p.nl()
	p.write("};")
}

// inlineRender returns the render closure from setup. Assets are resolved
// inside the closure, during render.
func (g *generator) inlineRender() {
	p := g.p
	p.write("return (_ctx, _cache)=>")
	if len(g.tpl.Components) == 0 && len(g.tpl.Directives) == 0 {
		p.level++
		p.node(g.tpl.Root)
		p.level--
		p.write(";")
		return
	}
	p.write("{")
	p.level++
	g.assets()
	p.nl()
	p.write("return ")
	p.node(g.tpl.Root)
	p.write(";")
	p.level--
	p.nl()
	p.write("};")
}
