package script

import (
	"github.com/tdewolff/parse/v2/js"

	"github.com/recera/vuec/pkg/compiler/diag"
)

// legacy analyzes a plain <script> block: imports, top-level declarations
// (visible to the template only next to <script setup>) and the Options API
// members of the default export.
func (a *analyzer) legacy(list []js.IStmt) {
	for _, stmt := range list {
		switch s := stmt.(type) {
		case *js.ImportStmt:
			a.importStmt(s, true)
		case *js.ExportStmt:
			if s.Default && s.Decl != nil {
				a.defaultExport(s.Decl)
				continue
			}
			if s.Decl != nil {
				a.moduleDecl(s.Decl)
			}
			a.res.Module = append(a.res.Module, jsText(s))
		case *js.EmptyStmt:
		default:
			if decl, ok := stmt.(js.IExpr); ok {
				a.moduleDecl(decl)
			}
			a.res.Module = append(a.res.Module, jsText(s))
		}
	}
}

// moduleDecl records the names a top-level declaration of the plain script
// introduces.
func (a *analyzer) moduleDecl(decl js.IExpr) {
	switch d := decl.(type) {
	case *js.VarDecl:
		isConst := d.TokenType == js.ConstToken
		for _, item := range d.List {
			if v, ok := item.Binding.(*js.Var); ok {
				a.res.module = append(a.res.module, Binding{Name: string(v.Data), Kind: a.classify(item.Default, isConst), Legacy: true})
				continue
			}
			kind := SetupLet
			if isConst {
				kind = SetupMaybeRef
			}
			for _, name := range bindingNames(item.Binding) {
				a.res.module = append(a.res.module, Binding{Name: name, Kind: kind, Legacy: true})
			}
		}
	case *js.FuncDecl:
		if d.Name != nil {
			a.res.module = append(a.res.module, Binding{Name: string(d.Name.Data), Kind: SetupConst, Legacy: true})
		}
	case *js.ClassDecl:
		if d.Name != nil {
			a.res.module = append(a.res.module, Binding{Name: string(d.Name.Data), Kind: SetupConst, Legacy: true})
		}
	}
}

// defaultExport analyzes `export default {...}`, unwrapping
// defineComponent({...}).
func (a *analyzer) defaultExport(e js.IExpr) {
	e = unwrapGroup(e)
	if call, ok := e.(*js.CallExpr); ok {
		if v, ok := call.X.(*js.Var); ok && string(v.Data) == "defineComponent" &&
			len(call.Args.List) == 1 && !call.Args.List[0].Rest {
			e = unwrapGroup(call.Args.List[0].Value)
		}
	}
	obj, ok := e.(*js.ObjectExpr)
	if !ok {
		a.diags.Report(diag.UnsupportedScriptExport, diag.Span{})
		a.res.Fields = append(a.res.Fields, "..."+jsText(e))
		return
	}
	for _, p := range obj.List {
		a.option(p)
		a.res.Fields = append(a.res.Fields, jsText(&p))
	}
}

// option records the bindings one Options API member contributes.
func (a *analyzer) option(p js.Property) {
	key := propKey(p)
	switch key {
	case "name":
		if lit, ok := p.Value.(*js.LiteralExpr); ok && lit.TokenType == js.StringToken {
			a.res.Name = unquote(string(lit.Data))
		}
	case "props":
		a.keys(p.Value, Props)
	case "inject":
		a.keys(p.Value, Options)
	case "computed", "methods":
		if obj, ok := p.Value.(*js.ObjectExpr); ok {
			a.keys(obj, Options)
		}
	case "data":
		for _, k := range returnedKeys(p.Value) {
			a.legacyAdd(k, Data)
		}
	case "setup":
		for _, k := range returnedKeys(p.Value) {
			a.legacyAdd(k, SetupMaybeRef)
		}
	}
}

// keys records string elements of an array or keys of an object.
func (a *analyzer) keys(e js.IExpr, kind BindingKind) {
	switch v := unwrapGroup(e).(type) {
	case *js.ArrayExpr:
		for _, el := range v.List {
			if lit, ok := el.Value.(*js.LiteralExpr); ok && lit.TokenType == js.StringToken {
				a.legacyAdd(unquote(string(lit.Data)), kind)
			}
		}
	case *js.ObjectExpr:
		for _, p := range v.List {
			if k := propKey(p); k != "" {
				a.legacyAdd(k, kind)
			}
		}
	}
}

func (a *analyzer) legacyAdd(name string, kind BindingKind) {
	a.res.Bindings.Add(Binding{Name: name, Kind: kind, Legacy: true})
}

// returnedKeys lists the keys of the object literal a data() or setup()
// member returns.
func returnedKeys(fn js.IExpr) []string {
	var body *js.BlockStmt
	switch f := fn.(type) {
	case *js.MethodDecl:
		body = &f.Body
	case *js.FuncDecl:
		body = &f.Body
	case *js.ArrowFunc:
		body = &f.Body
	default:
		return nil
	}
	var out []string
	for _, stmt := range body.List {
		ret, ok := stmt.(*js.ReturnStmt)
		if !ok || ret.Value == nil {
			continue
		}
		obj, ok := unwrapGroup(ret.Value).(*js.ObjectExpr)
		if !ok {
			continue
		}
		for _, p := range obj.List {
			if k := propKey(p); k != "" {
				out = append(out, k)
			}
		}
	}
	return out
}

func unwrapGroup(e js.IExpr) js.IExpr {
	for {
		g, ok := e.(*js.GroupExpr)
		if !ok {
			return e
		}
		e = g.X
	}
}
