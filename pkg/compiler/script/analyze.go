package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"

	"github.com/recera/vuec/pkg/compiler/diag"
)

// ErrSyntax is returned when a script block does not parse.
var ErrSyntax = errors.New("script syntax error")

// Result is everything the code generator needs from the script blocks.
type Result struct {
	Bindings *Table
	// Imports are import declarations of both blocks in source order.
	Imports []string
	// Module holds the top-level statements of the plain <script> block
	// other than imports and the default export.
	Module []string
	// Setup is the <script setup> body with compiler macros rewritten.
	Setup []string
	// Fields are members of the generated component object contributed by
	// the scripts: the plain block's default export and defineOptions().
	Fields []string
	// PropsDecl and EmitsDecl are the defineProps/defineEmits runtime
	// declarations, empty when absent.
	PropsDecl string
	EmitsDecl string
	// Name is the component name from the Options API or defineOptions.
	Name string

	HasSetup    bool
	UsesProps   bool
	UsesEmit    bool
	UsesExpose  bool
	NeedsMerger bool

	// module holds top-level declarations of the plain <script>, which the
	// template only sees when <script setup> is present too.
	module []Binding
}

// vueImport maps local names imported from "vue" to their exported names.
type vueImport map[string]string

// resolve returns the "vue" export name a callee refers to. Names that are
// not imported at all are taken at face value.
func (v vueImport) resolve(local string, t *Table) string {
	if name, ok := v[local]; ok {
		return name
	}
	if b, ok := t.Lookup(local); ok && b.IsImport() {
		return ""
	}
	return local
}

var refCallees = map[string]bool{
	"ref": true, "computed": true, "shallowRef": true, "customRef": true, "toRef": true, "useTemplateRef": true,
}

var reactiveCallees = map[string]bool{
	"reactive": true, "shallowReactive": true,
}

type analyzer struct {
	diags *diag.List
	res   *Result
	vue   vueImport

	seenProps, seenEmits, seenOptions bool
}

// Analyze parses a script block and classifies its top-level bindings.
// isSetup selects <script setup> semantics. A syntax error is reported as a
// fatal diagnostic and returned as ErrSyntax.
func Analyze(src string, isSetup bool, diags *diag.List) (*Result, error) {
	res := &Result{Bindings: NewTable(), HasSetup: isSetup}
	if strings.TrimSpace(src) == "" {
		return res, nil
	}
	tree, err := js.Parse(parse.NewInputString(src), js.Options{})
	if err != nil {
		span := errorSpan(src, err)
		diags.Reportf(diag.ScriptSyntax, span, "syntax error in script: %s", errorMessage(err))
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	a := &analyzer{diags: diags, res: res, vue: vueImport{}}
	if isSetup {
		a.setup(tree.BlockStmt.List)
	} else {
		a.legacy(tree.BlockStmt.List)
	}
	return res, nil
}

// Combine merges the analysis of a plain <script> block with that of a
// <script setup> block. Either may be nil.
func Combine(legacy, setup *Result) *Result {
	switch {
	case legacy == nil && setup == nil:
		return &Result{Bindings: NewTable()}
	case legacy == nil:
		return setup
	case setup == nil:
		return legacy
	}
	out := *setup
	out.Bindings = NewTable()
	for _, b := range legacy.Bindings.All() {
		out.Bindings.Add(b)
	}
	for _, b := range legacy.module {
		out.Bindings.Add(b)
	}
	for _, b := range setup.Bindings.All() {
		out.Bindings.Add(b)
	}
	out.Imports = append(append([]string(nil), legacy.Imports...), setup.Imports...)
	out.Module = legacy.Module
	out.Fields = append(append([]string(nil), legacy.Fields...), setup.Fields...)
	if out.Name == "" {
		out.Name = legacy.Name
	}
	return &out
}

func (a *analyzer) setup(list []js.IStmt) {
	for _, stmt := range list {
		switch s := stmt.(type) {
		case *js.ImportStmt:
			a.importStmt(s, false)
		case *js.ExportStmt:
			a.diags.Reportf(diag.UnsupportedScriptExport, diag.Span{}, "<script setup> cannot contain ES module exports")
		case *js.VarDecl:
			if a.setupVarDecl(s) {
				a.res.Setup = append(a.res.Setup, jsText(s))
			}
		case *js.FuncDecl:
			if s.Name != nil {
				a.add(string(s.Name.Data), SetupConst)
			}
			a.res.Setup = append(a.res.Setup, jsText(s))
		case *js.ClassDecl:
			if s.Name != nil {
				a.add(string(s.Name.Data), SetupConst)
			}
			a.res.Setup = append(a.res.Setup, jsText(s))
		case *js.ExprStmt:
			if call, name := a.macroCall(s.Value); call != nil {
				if a.macro(name, call) && name == "defineExpose" {
					a.res.Setup = append(a.res.Setup, jsText(s))
				}
				continue
			}
			a.res.Setup = append(a.res.Setup, jsText(s))
		case *js.EmptyStmt:
		default:
			a.res.Setup = append(a.res.Setup, jsText(s))
		}
	}
}

// setupVarDecl classifies a setup-level declaration and rewrites macro
// initializers in place. It reports whether the statement is kept.
func (a *analyzer) setupVarDecl(d *js.VarDecl) bool {
	isConst := d.TokenType == js.ConstToken
	kept := d.List[:0]
	for _, item := range d.List {
		call, macroName := a.macroCall(item.Default)
		if call != nil {
			if !a.macro(macroName, call) {
				continue
			}
			switch macroName {
			case "defineProps", "withDefaults":
				if obj, ok := item.Binding.(*js.BindingObject); ok {
					for _, name := range bindingNames(obj) {
						a.add(name, Props)
					}
				} else if v, ok := item.Binding.(*js.Var); ok {
					a.add(string(v.Data), SetupReactiveConst)
				}
				item.Default = &js.Var{Data: []byte("__props")}
			case "defineEmits":
				for _, name := range bindingNames(item.Binding) {
					a.add(name, SetupConst)
				}
				item.Default = &js.Var{Data: []byte("__emit")}
			default:
				continue
			}
			kept = append(kept, item)
			continue
		}

		if v, ok := item.Binding.(*js.Var); ok {
			a.add(string(v.Data), a.classify(item.Default, isConst))
		} else {
			kind := SetupLet
			if isConst {
				kind = SetupMaybeRef
			}
			for _, name := range bindingNames(item.Binding) {
				a.add(name, kind)
			}
		}
		kept = append(kept, item)
	}
	d.List = kept
	return len(kept) > 0
}

// classify picks the binding kind of a single-name declaration.
func (a *analyzer) classify(init js.IExpr, isConst bool) BindingKind {
	if !isConst {
		return SetupLet
	}
	if init == nil {
		return SetupMaybeRef
	}
	if isLiteral(init) {
		return LiteralConst
	}
	if call, ok := init.(*js.CallExpr); ok {
		if v, ok := call.X.(*js.Var); ok {
			callee := a.vue.resolve(string(v.Data), a.res.Bindings)
			switch {
			case refCallees[callee]:
				return SetupRef
			case reactiveCallees[callee]:
				return SetupReactiveConst
			}
		}
		return SetupMaybeRef
	}
	if neverRef(init) {
		return SetupConst
	}
	return SetupMaybeRef
}

// macroCall returns the call when e invokes a compiler macro.
func (a *analyzer) macroCall(e js.IExpr) (*js.CallExpr, string) {
	call, ok := e.(*js.CallExpr)
	if !ok {
		return nil, ""
	}
	v, ok := call.X.(*js.Var)
	if !ok {
		return nil, ""
	}
	switch name := string(v.Data); name {
	case "defineProps", "defineEmits", "defineExpose", "defineOptions", "withDefaults":
		return call, name
	}
	return nil, ""
}

// macro records a compiler macro call. It reports false for duplicate or
// malformed calls, which are dropped.
func (a *analyzer) macro(name string, call *js.CallExpr) bool {
	switch name {
	case "defineProps":
		if a.seenProps {
			a.diags.Reportf(diag.DuplicateMacroCall, diag.Span{}, "duplicate defineProps() call")
			return false
		}
		a.seenProps = true
		a.res.PropsDecl = a.propsDecl(call)
		a.res.UsesProps = true
		return true
	case "withDefaults":
		if len(call.Args.List) == 0 {
			return false
		}
		inner, innerName := a.macroCall(call.Args.List[0].Value)
		if inner == nil || innerName != "defineProps" || !a.macro(innerName, inner) {
			return false
		}
		if len(call.Args.List) > 1 {
			a.mergeDefaults(call.Args.List[1].Value)
		}
		return true
	case "defineEmits":
		if a.seenEmits {
			a.diags.Reportf(diag.DuplicateMacroCall, diag.Span{}, "duplicate defineEmits() call")
			return false
		}
		a.seenEmits = true
		if len(call.Args.List) > 0 {
			a.res.EmitsDecl = jsText(call.Args.List[0].Value)
		}
		a.res.UsesEmit = true
		return true
	case "defineExpose":
		a.res.UsesExpose = true
		call.X = &js.Var{Data: []byte("__expose")}
		return true
	case "defineOptions":
		if a.seenOptions {
			a.diags.Reportf(diag.DuplicateMacroCall, diag.Span{}, "duplicate defineOptions() call")
			return false
		}
		a.seenOptions = true
		if len(call.Args.List) > 0 {
			if obj, ok := call.Args.List[0].Value.(*js.ObjectExpr); ok {
				for _, p := range obj.List {
					if key := propKey(p); key == "name" {
						if lit, ok := p.Value.(*js.LiteralExpr); ok && lit.TokenType == js.StringToken {
							a.res.Name = unquote(string(lit.Data))
						}
					}
					a.res.Fields = append(a.res.Fields, jsText(&p))
				}
			}
		}
		return true
	}
	return false
}

func (a *analyzer) propsDecl(call *js.CallExpr) string {
	if len(call.Args.List) == 0 {
		return "{}"
	}
	arg := call.Args.List[0].Value
	switch v := arg.(type) {
	case *js.ArrayExpr:
		for _, el := range v.List {
			if lit, ok := el.Value.(*js.LiteralExpr); ok && lit.TokenType == js.StringToken {
				a.add(unquote(string(lit.Data)), Props)
			}
		}
	case *js.ObjectExpr:
		for _, p := range v.List {
			if key := propKey(p); key != "" {
				a.add(key, Props)
			}
		}
	}
	return jsText(arg)
}

func (a *analyzer) mergeDefaults(defaults js.IExpr) {
	a.res.NeedsMerger = true
	a.res.PropsDecl = "/*#__PURE__*/_mergeDefaults(" + a.res.PropsDecl + ", " + jsText(defaults) + ")"
}

func (a *analyzer) importStmt(s *js.ImportStmt, legacy bool) {
	source := unquote(string(s.Module))
	if s.Default != nil {
		a.res.Bindings.Add(Binding{Name: string(s.Default), Kind: SetupConst, Source: source, Imported: "default", Legacy: legacy})
	}
	for _, alias := range s.List {
		if alias.Binding == nil {
			continue
		}
		local := string(alias.Binding)
		imported := local
		if alias.Name != nil {
			imported = string(alias.Name)
		}
		if source == "vue" {
			a.vue[local] = imported
		}
		a.res.Bindings.Add(Binding{Name: local, Kind: SetupConst, Source: source, Imported: imported, Legacy: legacy})
	}
	a.res.Imports = append(a.res.Imports, jsText(s))
}

func (a *analyzer) add(name string, kind BindingKind) {
	if name == "" {
		return
	}
	a.res.Bindings.Add(Binding{Name: name, Kind: kind})
}

// isLiteral reports whether e is a literal whose value never changes.
func isLiteral(e js.IExpr) bool {
	switch v := e.(type) {
	case *js.LiteralExpr:
		switch v.TokenType {
		case js.StringToken, js.TrueToken, js.FalseToken, js.NullToken:
			return true
		}
		return js.IsNumeric(v.TokenType)
	case *js.TemplateExpr:
		return v.Tag == nil && len(v.List) == 0
	case *js.UnaryExpr:
		if v.Op == js.NegToken || v.Op == js.PosToken || v.Op == js.NotToken {
			return isLiteral(v.X)
		}
	case *js.GroupExpr:
		return isLiteral(v.X)
	}
	return false
}

// neverRef reports whether e can never evaluate to a ref.
func neverRef(e js.IExpr) bool {
	switch v := e.(type) {
	case *js.ObjectExpr, *js.ArrayExpr, *js.ArrowFunc, *js.FuncDecl, *js.ClassDecl,
		*js.TemplateExpr, *js.UnaryExpr:
		return true
	case *js.BinaryExpr:
		return !isAssign(v.Op)
	case *js.GroupExpr:
		return neverRef(v.X)
	}
	return false
}

func isAssign(tt js.TokenType) bool {
	switch tt {
	case js.EqToken, js.AddEqToken, js.SubEqToken, js.MulEqToken, js.DivEqToken, js.ModEqToken,
		js.ExpEqToken, js.LtLtEqToken, js.GtGtEqToken, js.GtGtGtEqToken, js.BitAndEqToken,
		js.BitOrEqToken, js.BitXorEqToken, js.AndEqToken, js.OrEqToken, js.NullishEqToken:
		return true
	}
	return false
}

// bindingNames lists the names a destructuring pattern declares.
func bindingNames(b js.IBinding) []string {
	var out []string
	var walk func(js.IBinding)
	walk = func(b js.IBinding) {
		switch v := b.(type) {
		case *js.Var:
			out = append(out, string(v.Data))
		case *js.BindingObject:
			for _, item := range v.List {
				walk(item.Value.Binding)
			}
			if v.Rest != nil {
				out = append(out, string(v.Rest.Data))
			}
		case *js.BindingArray:
			for _, item := range v.List {
				walk(item.Binding)
			}
			if v.Rest != nil {
				walk(v.Rest)
			}
		}
	}
	walk(b)
	return out
}

// propKey returns the static key of an object literal member.
func propKey(p js.Property) string {
	if m, ok := p.Value.(*js.MethodDecl); ok && p.Name == nil {
		return literalKey(m.Name.PropertyName)
	}
	if p.Name != nil {
		return literalKey(*p.Name)
	}
	if v, ok := p.Value.(*js.Var); ok && !p.Spread {
		return string(v.Data)
	}
	return ""
}

func literalKey(n js.PropertyName) string {
	if n.IsComputed() {
		return ""
	}
	if n.Literal.TokenType == js.StringToken {
		return unquote(string(n.Literal.Data))
	}
	return string(n.Literal.Data)
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"' || s[0] == '`') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// jsText prints a node back to JavaScript. Declarations get the
// terminating semicolon the printer leaves out.
func jsText(n js.INode) string {
	var b strings.Builder
	n.JS(&b)
	if _, ok := n.(*js.VarDecl); ok {
		b.WriteByte(';')
	}
	return b.String()
}

func errorMessage(err error) string {
	var perr *parse.Error
	if errors.As(err, &perr) {
		return perr.Message
	}
	return err.Error()
}

// errorSpan converts the parser's line and column into a span.
func errorSpan(src string, err error) diag.Span {
	var perr *parse.Error
	if !errors.As(err, &perr) || perr.Line < 1 {
		return diag.Span{}
	}
	off := 0
	for line := 1; line < perr.Line && off < len(src); line++ {
		i := strings.IndexByte(src[off:], '\n')
		if i < 0 {
			off = len(src)
			break
		}
		off += i + 1
	}
	off += perr.Column - 1
	if off > len(src) {
		off = len(src)
	}
	pos := diag.Position{Offset: off, Line: perr.Line, Column: perr.Column}
	return diag.Span{Start: pos, End: pos}
}
