package fragment

import (
	"strings"

	"github.com/dshills/redline/internal/engine/richtext"
	"github.com/dshills/redline/internal/engine/style"
)

// NodeKind identifies the payload of a Node.
type NodeKind uint8

// Node kinds.
const (
	NodeParagraph NodeKind = iota
	NodeTable
)

// String returns the kind name.
func (k NodeKind) String() string {
	switch k {
	case NodeParagraph:
		return "paragraph"
	case NodeTable:
		return "table"
	default:
		return "unknown"
	}
}

// ListTag annotates a paragraph that was a list item.
type ListTag struct {
	ListID richtext.ListID
	Level  int
	Style  string

	// FullyDeleted is set when no item of the list survives the deletion.
	FullyDeleted bool

	// DeletedItem is set when the paragraph was a whole item removed by the
	// deletion. A partial first item is a continuation of the item kept
	// before the deletion point.
	DeletedItem bool
}

// Paragraph is the payload of a paragraph node.
type Paragraph struct {
	Runs    []richtext.Run
	Format  style.Properties
	Outline int
	List    *ListTag
}

// Text returns the paragraph's plain text.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Len returns the paragraph's text length in runes.
func (p *Paragraph) Len() int {
	n := 0
	for _, r := range p.Runs {
		n += r.Len()
	}
	return n
}

// Cell is one captured table cell.
type Cell struct {
	Format  style.Properties
	Content *Fragment
}

// Table is the payload of a table node. Tables are captured whole.
type Table struct {
	Rows     int
	Cols     int
	Format   style.Properties
	ChangeID int
	Cells    []Cell
}

// Node is one top-level element of a fragment.
type Node struct {
	Kind      NodeKind
	Paragraph *Paragraph
	Table     *Table
}

// ParagraphNode wraps p in a Node.
func ParagraphNode(p *Paragraph) Node {
	return Node{Kind: NodeParagraph, Paragraph: p}
}

// TableNode wraps t in a Node.
func TableNode(t *Table) Node {
	return Node{Kind: NodeTable, Table: t}
}

// Anchor is an anchor that lay inside the captured range, at Offset from its
// start. Reinsertion moves it back to the same offset.
type Anchor struct {
	Offset int
	ID     richtext.AnchorID
}

// Fragment is a detached copy of a document range.
type Fragment struct {
	Nodes   []Node
	Anchors []Anchor
}

// IsEmpty reports whether the fragment holds no content.
func (f *Fragment) IsEmpty() bool {
	return f == nil || Length(f) == 0
}

// Text returns a plain-text rendering of the fragment. Paragraphs are
// separated by newlines; table rows go on their own lines with cells
// separated by tabs.
func (f *Fragment) Text() string {
	if f == nil {
		return ""
	}
	lines := make([]string, 0, len(f.Nodes))
	for _, n := range f.Nodes {
		switch n.Kind {
		case NodeParagraph:
			lines = append(lines, n.Paragraph.Text())
		case NodeTable:
			t := n.Table
			for r := 0; r < t.Rows; r++ {
				cells := make([]string, t.Cols)
				for c := 0; c < t.Cols; c++ {
					cells[c] = strings.ReplaceAll(t.Cells[r*t.Cols+c].Content.Text(), "\n", " ")
				}
				lines = append(lines, strings.Join(cells, "\t"))
			}
		}
	}
	return strings.Join(lines, "\n")
}

// Clone returns a deep copy of the fragment.
func (f *Fragment) Clone() *Fragment {
	if f == nil {
		return nil
	}
	out := &Fragment{
		Nodes:   make([]Node, len(f.Nodes)),
		Anchors: append([]Anchor(nil), f.Anchors...),
	}
	for i, n := range f.Nodes {
		switch n.Kind {
		case NodeParagraph:
			p := &Paragraph{Format: n.Paragraph.Format.Clone(), Outline: n.Paragraph.Outline}
			for _, r := range n.Paragraph.Runs {
				p.Runs = append(p.Runs, richtext.Run{Text: r.Text, Format: r.Format.Clone()})
			}
			if n.Paragraph.List != nil {
				tag := *n.Paragraph.List
				p.List = &tag
			}
			out.Nodes[i] = ParagraphNode(p)
		case NodeTable:
			t := &Table{Rows: n.Table.Rows, Cols: n.Table.Cols, Format: n.Table.Format.Clone(), ChangeID: n.Table.ChangeID}
			t.Cells = make([]Cell, len(n.Table.Cells))
			for j, c := range n.Table.Cells {
				t.Cells[j] = Cell{Format: c.Format.Clone(), Content: c.Content.Clone()}
			}
			out.Nodes[i] = TableNode(t)
		}
	}
	return out
}

// Length returns the number of positions f occupies once inserted: the first
// paragraph merges into the paragraph at the insertion point, every later
// paragraph adds a separator unless it directly follows a table, and a table
// adds the split separator, one marker per cell, the cell contents and the
// end marker.
func Length(f *Fragment) int {
	if f == nil {
		return 0
	}
	n := 0
	afterTable := false
	for i, node := range f.Nodes {
		switch node.Kind {
		case NodeParagraph:
			if i > 0 && !afterTable {
				n++
			}
			n += node.Paragraph.Len()
			afterTable = false
		case NodeTable:
			n += 2
			for _, c := range node.Table.Cells {
				n += 1 + Length(c.Content)
			}
			afterTable = true
		}
	}
	return n
}
