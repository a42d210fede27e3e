// Package script analyzes the <script setup> and <script> blocks of a
// component and classifies every top-level name the template may use.
package script

import "fmt"

// BindingKind describes how the template reaches a script binding at
// runtime.
type BindingKind int

const (
	// SetupConst is a const that can never be a ref: functions, classes,
	// imports, object and array literals.
	SetupConst BindingKind = iota + 1
	// SetupRef is a const initialized by ref(), computed() and friends.
	SetupRef
	// SetupReactiveConst is a const initialized by reactive().
	SetupReactiveConst
	// SetupMaybeRef is a const that may or may not hold a ref.
	SetupMaybeRef
	// SetupLet is a let or var binding.
	SetupLet
	// Props is a declared component prop.
	Props
	// Data is a key returned from the Options API data().
	Data
	// Options is a computed, method or inject key.
	Options
	// LiteralConst is a const initialized with a literal.
	LiteralConst
)

var kindNames = map[BindingKind]string{
	SetupConst:         "setup-const",
	SetupRef:           "setup-ref",
	SetupReactiveConst: "setup-reactive-const",
	SetupMaybeRef:      "setup-maybe-ref",
	SetupLet:           "setup-let",
	Props:              "props",
	Data:               "data",
	Options:            "options",
	LiteralConst:       "literal-const",
}

func (k BindingKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("BindingKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k BindingKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *BindingKind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown binding kind %q", text)
}

// IsSetup reports whether the binding lives in the setup scope.
func (k BindingKind) IsSetup() bool {
	switch k {
	case SetupConst, SetupRef, SetupReactiveConst, SetupMaybeRef, SetupLet, LiteralConst:
		return true
	}
	return false
}

// Binding is one classified name.
type Binding struct {
	Name string
	Kind BindingKind
	// Source is the module specifier for imported names.
	Source string
	// Imported is the exported name for imported bindings ("default" for
	// default imports, "*" for namespace imports).
	Imported string
	// Legacy is set for bindings that come from the non-setup script.
	Legacy bool
}

// IsImport reports whether the binding comes from an import declaration.
func (b Binding) IsImport() bool { return b.Source != "" }

// Table maps names to bindings and remembers declaration order.
type Table struct {
	order []string
	byKey map[string]Binding
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{byKey: make(map[string]Binding)}
}

// Add records b. A later declaration of the same name replaces the earlier
// one but keeps its position.
func (t *Table) Add(b Binding) {
	if _, ok := t.byKey[b.Name]; !ok {
		t.order = append(t.order, b.Name)
	}
	t.byKey[b.Name] = b
}

// Lookup returns the binding for name.
func (t *Table) Lookup(name string) (Binding, bool) {
	if t == nil {
		return Binding{}, false
	}
	b, ok := t.byKey[name]
	return b, ok
}

// Kind returns the binding kind of name, or 0 when name is unbound.
func (t *Table) Kind(name string) BindingKind {
	b, _ := t.Lookup(name)
	return b.Kind
}

// Names returns the bound names in declaration order.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.order...)
}

// All returns the bindings in declaration order.
func (t *Table) All() []Binding {
	if t == nil {
		return nil
	}
	out := make([]Binding, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.byKey[name])
	}
	return out
}

// Len returns the number of bindings.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Map returns a name to kind map, the shape tools print.
func (t *Table) Map() map[string]BindingKind {
	out := make(map[string]BindingKind, t.Len())
	for _, b := range t.All() {
		out[b.Name] = b.Kind
	}
	return out
}
