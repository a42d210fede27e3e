// Package sourcemap builds version 3 source maps for generated modules.
package sourcemap

import (
	"encoding/base64"
	"errors"
	"strings"

	json "github.com/goccy/go-json"
)

// Version is the source map format version.
const Version = 3

// ErrOutOfOrder is returned when a mapping is added behind an earlier one
// on the same generated line.
var ErrOutOfOrder = errors.New("sourcemap: mappings must be added in output order")

// Map is the JSON shape of a v3 source map.
type Map struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	SourceRoot     string   `json:"sourceRoot,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// Segment maps a generated column to an original position. All values
// are zero-based.
type Segment struct {
	GenCol  int
	Source  int
	SrcLine int
	SrcCol  int
}

// Generator collects mappings line by line.
type Generator struct {
	file     string
	sources  []string
	contents []string
	lines    [][]Segment
}

// NewGenerator creates a generator for the output file.
func NewGenerator(file string) *Generator {
	return &Generator{file: file, lines: [][]Segment{nil}}
}

// AddSource registers an original file and returns its index. Registering
// the same name twice returns the first index.
func (g *Generator) AddSource(name, content string) int {
	for i, s := range g.sources {
		if s == name {
			return i
		}
	}
	g.sources = append(g.sources, name)
	g.contents = append(g.contents, content)
	return len(g.sources) - 1
}

// AddMapping records that genLine:genCol was produced from srcLine:srcCol
// of source. Lines are zero-based; missing generated lines are filled in.
func (g *Generator) AddMapping(genLine, genCol, source, srcLine, srcCol int) error {
	for len(g.lines) <= genLine {
		g.lines = append(g.lines, nil)
	}
	line := g.lines[genLine]
	if n := len(line); n > 0 {
		last := line[n-1]
		if genCol < last.GenCol {
			return ErrOutOfOrder
		}
		if last == (Segment{GenCol: genCol, Source: source, SrcLine: srcLine, SrcCol: srcCol}) {
			return nil
		}
	}
	g.lines[genLine] = append(line, Segment{GenCol: genCol, Source: source, SrcLine: srcLine, SrcCol: srcCol})
	return nil
}

// Segments returns the recorded segments per generated line.
func (g *Generator) Segments() [][]Segment {
	out := make([][]Segment, len(g.lines))
	for i, l := range g.lines {
		out[i] = append([]Segment(nil), l...)
	}
	return out
}

// Len returns the number of recorded segments.
func (g *Generator) Len() int {
	n := 0
	for _, l := range g.lines {
		n += len(l)
	}
	return n
}

// Map assembles the recorded mappings.
func (g *Generator) Map() *Map {
	var b strings.Builder
	var lastSource, lastLine, lastCol int
	for i, line := range g.lines {
		if i > 0 {
			b.WriteByte(';')
		}
		lastGen := 0
		for j, s := range line {
			if j > 0 {
				b.WriteByte(',')
			}
			writeVLQ(&b, s.GenCol-lastGen)
			writeVLQ(&b, s.Source-lastSource)
			writeVLQ(&b, s.SrcLine-lastLine)
			writeVLQ(&b, s.SrcCol-lastCol)
			lastGen, lastSource, lastLine, lastCol = s.GenCol, s.Source, s.SrcLine, s.SrcCol
		}
	}
	return &Map{
		Version:        Version,
		File:           g.file,
		Sources:        append([]string{}, g.sources...),
		SourcesContent: append([]string(nil), g.contents...),
		Names:          []string{},
		Mappings:       b.String(),
	}
}

// JSON serializes the map.
func (m *Map) JSON() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Comment returns the map as an inline sourceMappingURL comment.
func (m *Map) Comment() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return "//# sourceMappingURL=data:application/json;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Parse decodes a serialized map.
func Parse(data []byte) (*Map, error) {
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Version != Version {
		return nil, errors.New("sourcemap: unsupported version")
	}
	return &m, nil
}
