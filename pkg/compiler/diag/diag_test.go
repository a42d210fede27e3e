package diag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanRebase(t *testing.T) {
	base := Position{Offset: 11, Line: 2, Column: 11}
	tests := []struct {
		name string
		in   Position
		want Position
	}{
		{"first line shifts column", Position{Offset: 0, Line: 1, Column: 1}, Position{Offset: 11, Line: 2, Column: 11}},
		{"later line keeps column", Position{Offset: 20, Line: 3, Column: 4}, Position{Offset: 31, Line: 4, Column: 4}},
		{"unset stays unset", Position{}, Position{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Rebase(base))
		})
	}
}

func TestListErr(t *testing.T) {
	l := NewList("App.vue")
	l.Report(MissingEndTag, Span{Start: Position{Line: 3, Column: 5}})
	assert.NoError(t, l.Err())
	assert.False(t, l.HasFatal())

	l.Report(ScriptSyntax, Span{Start: Position{Line: 1, Column: 7}})
	require.True(t, l.HasFatal())
	err := l.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFatal))
	assert.Contains(t, err.Error(), "App.vue:1:7: syntax error in script")
}

func TestDiagnosticDefaults(t *testing.T) {
	l := NewList("")
	l.Reportf(VModelOnInvalidElement, Span{Start: Position{Line: 1, Column: 1}}, "v-model on <%s>", "div")
	items := l.Items()
	require.Len(t, items, 1)
	assert.Equal(t, Error, items[0].Severity)
	assert.Equal(t, "v-model on <div>", items[0].Message)
	assert.Equal(t, "<anonymous>:1:1: v-model on <div>", items[0].Error())
	assert.True(t, l.Has(VModelOnInvalidElement))
}

func TestSorted(t *testing.T) {
	l := NewList("x")
	l.Report(InvalidEndTag, Span{Start: Position{Offset: 9, Line: 1, Column: 10}})
	l.Report(MissingEndTag, Span{Start: Position{Offset: 2, Line: 1, Column: 3}})
	sorted := l.Sorted()
	assert.Equal(t, MissingEndTag, sorted[0].Code)
	assert.Equal(t, InvalidEndTag, sorted[1].Code)
	assert.Equal(t, InvalidEndTag, l.Items()[0].Code)
}
