package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// Mapping associates one generated line with the source span it was lowered
// from.
type Mapping struct {
	GenLine int // 1-based line in the generated code
	Src     Span
}

// SourceMap is an ordered list of generated-position to source-position
// mappings, appended in emission order. When the optimizer rewrites the
// generated text at levels above zero, the map continues to describe the
// pre-optimization output.
type SourceMap struct {
	Mappings []Mapping
}

func (m *SourceMap) add(genLine int, src Span) {
	m.Mappings = append(m.Mappings, Mapping{GenLine: genLine, Src: src})
}

// Lookup returns the source span for a generated line.
func (m *SourceMap) Lookup(genLine int) (Span, bool) {
	i := sort.Search(len(m.Mappings), func(i int) bool {
		return m.Mappings[i].GenLine >= genLine
	})
	if i < len(m.Mappings) && m.Mappings[i].GenLine == genLine {
		return m.Mappings[i].Src, true
	}
	return Span{}, false
}

func (m *SourceMap) String() string {
	var sb strings.Builder
	for _, mp := range m.Mappings {
		fmt.Fprintf(&sb, "%d -> %s\n", mp.GenLine, mp.Src)
	}
	return sb.String()
}
