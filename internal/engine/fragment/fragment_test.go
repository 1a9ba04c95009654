package fragment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/redline/internal/engine/richtext"
)

func para(text string) Node {
	return ParagraphNode(&Paragraph{Runs: []richtext.Run{{Text: text}}})
}

func cell(text string) Cell {
	return Cell{Content: &Fragment{Nodes: []Node{para(text)}}}
}

func TestLength(t *testing.T) {
	tests := []struct {
		name string
		f    *Fragment
		want int
	}{
		{"nil", nil, 0},
		{"single paragraph", &Fragment{Nodes: []Node{para("C")}}, 1},
		{"two paragraphs", &Fragment{Nodes: []Node{para("ab"), para("cd")}}, 5},
		{"empty trailing paragraph", &Fragment{Nodes: []Node{para("ab"), para("")}}, 3},
		{
			"table between paragraphs",
			&Fragment{Nodes: []Node{
				para("B"),
				TableNode(&Table{Rows: 1, Cols: 2, Cells: []Cell{cell("x"), cell("y")}}),
				para("C"),
			}},
			8,
		},
		{
			"multi-paragraph cell",
			&Fragment{Nodes: []Node{
				para(""),
				TableNode(&Table{Rows: 1, Cols: 1, Cells: []Cell{{Content: &Fragment{Nodes: []Node{para("a"), para("b")}}}}}),
				para(""),
			}},
			6,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Length(tt.f))
		})
	}
}

func TestFragmentText(t *testing.T) {
	f := &Fragment{Nodes: []Node{
		para("B"),
		TableNode(&Table{Rows: 1, Cols: 2, Cells: []Cell{cell("x"), cell("y")}}),
		para("C"),
	}}
	assert.Equal(t, "B\nx\ty\nC", f.Text())
	assert.False(t, f.IsEmpty())
	assert.True(t, (&Fragment{Nodes: []Node{para("")}}).IsEmpty())

	c := f.Clone()
	c.Nodes[0].Paragraph.Runs[0].Text = "Z"
	assert.Equal(t, "B", f.Nodes[0].Paragraph.Text())
}

func TestMarkerListStyles(t *testing.T) {
	m := NewMarker(7, 1)
	assert.Equal(t, richtext.DefaultListStyle, m.DeletedListStyle(3))
	assert.False(t, m.HasDeletedListStyle(3))

	m.SetDeletedListStyle(3, "decimal")
	assert.Equal(t, "decimal", m.DeletedListStyle(3))

	c := m.Clone()
	c.SetDeletedListStyle(3, "roman")
	assert.Equal(t, "decimal", m.DeletedListStyle(3))
	assert.Equal(t, map[richtext.ListID]string{3: "roman"}, c.DeletedListStyles())
}
