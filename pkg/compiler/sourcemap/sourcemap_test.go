package sourcemap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVLQ(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, "A"},
		{1, "C"},
		{-1, "D"},
		{15, "e"},
		{16, "gB"},
		{-16, "hB"},
		{1000, "w+B"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeVLQ(tt.value))
			got, err := DecodeVLQ(tt.want)
			require.NoError(t, err)
			assert.Equal(t, []int{tt.value}, got)
		})
	}
}

func TestDecodeVLQErrors(t *testing.T) {
	_, err := DecodeVLQ("g")
	assert.ErrorIs(t, err, ErrInvalidVLQ)
	_, err = DecodeVLQ("A*")
	assert.ErrorIs(t, err, ErrInvalidVLQ)
}

func TestGeneratorMappings(t *testing.T) {
	g := NewGenerator("App.vue.js")
	src := g.AddSource("App.vue", "<div>{{ x }}</div>")
	assert.Equal(t, 0, g.AddSource("App.vue", "ignored"))

	require.NoError(t, g.AddMapping(0, 4, src, 0, 0))
	require.NoError(t, g.AddMapping(0, 4, src, 0, 0))
	require.NoError(t, g.AddMapping(0, 10, src, 0, 8))
	require.NoError(t, g.AddMapping(2, 2, src, 0, 5))
	assert.ErrorIs(t, g.AddMapping(2, 1, src, 0, 0), ErrOutOfOrder)
	assert.Equal(t, 3, g.Len())

	m := g.Map()
	assert.Equal(t, "IAAA,MAAQ;;EAAH", m.Mappings)

	segs, err := Decode(m.Mappings)
	require.NoError(t, err)
	want := [][]Segment{
		{{GenCol: 4}, {GenCol: 10, SrcCol: 8}},
		nil,
		{{GenCol: 2, SrcCol: 5}},
	}
	if diff := cmp.Diff(want, segs); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
}

func TestMapJSON(t *testing.T) {
	g := NewGenerator("out.js")
	g.AddSource("App.vue", "<p/>")
	require.NoError(t, g.AddMapping(0, 0, 0, 0, 0))

	data, err := g.Map().JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":3,"file":"out.js","sources":["App.vue"],"sourcesContent":["<p/>"],"names":[],"mappings":"AAAA"}`, data)

	m, err := Parse([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, "AAAA", m.Mappings)

	_, err = Parse([]byte(`{"version":2}`))
	assert.Error(t, err)

	comment, err := m.Comment()
	require.NoError(t, err)
	assert.Contains(t, comment, "//# sourceMappingURL=data:application/json;base64,")
}
