// Package diag holds source positions and the diagnostics collected while
// compiling a component.
package diag

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Position is a location in a source buffer. Line and Column are 1-based,
// Offset is a 0-based byte offset.
type Position struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Span is a half-open range [Start, End) in a source buffer.
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// IsZero reports whether the span was never set.
func (s Span) IsZero() bool {
	return s.Start.Line == 0 && s.End.Line == 0
}

// Rebase moves a span that is relative to a block into the coordinates of
// the file the block was cut from. base is the position of the block's
// first byte inside that file.
func (s Span) Rebase(base Position) Span {
	return Span{Start: s.Start.Rebase(base), End: s.End.Rebase(base)}
}

// Rebase is the Position counterpart of Span.Rebase.
func (p Position) Rebase(base Position) Position {
	if p.Line == 0 || base.Line == 0 {
		return p
	}
	out := Position{Offset: p.Offset + base.Offset, Line: p.Line + base.Line - 1, Column: p.Column}
	if p.Line == 1 {
		out.Column = p.Column + base.Column - 1
	}
	return out
}

// Severity classifies a diagnostic.
type Severity uint8

const (
	// Fatal aborts the compile. No code is produced.
	Fatal Severity = iota
	// Error is recoverable: output is still produced from a fallback.
	Error
	// Warning never affects output.
	Warning
)

func (s Severity) String() string {
	switch s {
	case Fatal:
		return "fatal"
	case Error:
		return "error"
	case Warning:
		return "warning"
	}
	return fmt.Sprintf("Severity(%d)", uint8(s))
}

// MarshalText encodes the severity as its name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	for _, v := range []Severity{Fatal, Error, Warning} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", text)
}

// Diagnostic is a single message attached to a source span.
type Diagnostic struct {
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Span     Span     `json:"span"`
	File     string   `json:"file,omitempty"`
}

// Error formats the diagnostic as file:line:col: message.
func (d Diagnostic) Error() string {
	file := d.File
	if file == "" {
		file = "<anonymous>"
	}
	return fmt.Sprintf("%s:%d:%d: %s", file, d.Span.Start.Line, d.Span.Start.Column, d.Message)
}

// ErrFatal is wrapped by List.Err when a fatal diagnostic is present.
var ErrFatal = errors.New("fatal compile error")

// List accumulates diagnostics in the order they were reported.
type List struct {
	file  string
	items []Diagnostic
}

// NewList returns a list that stamps every diagnostic with file.
func NewList(file string) *List {
	return &List{file: file}
}

// Add appends d. An empty File is filled in from the list.
func (l *List) Add(d Diagnostic) {
	if d.File == "" {
		d.File = l.file
	}
	if d.Message == "" {
		d.Message = d.Code.Message()
	}
	l.items = append(l.items, d)
}

// Report appends a diagnostic built from code, using the code's default
// severity and message.
func (l *List) Report(code Code, span Span) {
	l.Add(Diagnostic{Code: code, Severity: code.Severity(), Span: span})
}

// Reportf is Report with a custom message.
func (l *List) Reportf(code Code, span Span, format string, args ...any) {
	l.Add(Diagnostic{Code: code, Severity: code.Severity(), Span: span, Message: fmt.Sprintf(format, args...)})
}

// Items returns the collected diagnostics.
func (l *List) Items() []Diagnostic {
	if l == nil {
		return nil
	}
	return l.items
}

// Len returns the number of diagnostics.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// HasFatal reports whether any fatal diagnostic was collected.
func (l *List) HasFatal() bool {
	for _, d := range l.Items() {
		if d.Severity == Fatal {
			return true
		}
	}
	return false
}

// Has reports whether a diagnostic with code was collected.
func (l *List) Has(code Code) bool {
	for _, d := range l.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

// Merge appends every diagnostic of other.
func (l *List) Merge(other *List) {
	for _, d := range other.Items() {
		l.Add(d)
	}
}

// Sorted returns a copy ordered by position, keeping report order for ties.
func (l *List) Sorted() []Diagnostic {
	out := append([]Diagnostic(nil), l.Items()...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Span.Start.Offset < out[j].Span.Start.Offset
	})
	return out
}

// Err returns nil unless a fatal diagnostic exists. The returned error wraps
// ErrFatal and lists every fatal message.
func (l *List) Err() error {
	var msgs []string
	for _, d := range l.Items() {
		if d.Severity == Fatal {
			msgs = append(msgs, d.Error())
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrFatal, strings.Join(msgs, "; "))
}
