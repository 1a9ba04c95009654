package materialize

import (
	"github.com/dshills/redline/internal/engine/fragment"
	"github.com/dshills/redline/internal/engine/richtext"
)

type generator struct {
	doc    *richtext.Document
	r      richtext.Range
	marker *fragment.Marker
	lists  map[richtext.ListID]bool
}

// fragment converts copied blocks. Every paragraph except the first of the
// top level is whole, since the copy only cuts the first and last.
func (g *generator) fragment(blocks []richtext.Block, inCell bool) *fragment.Fragment {
	f := &fragment.Fragment{Nodes: make([]fragment.Node, 0, len(blocks))}
	for i, b := range blocks {
		switch b := b.(type) {
		case *richtext.Paragraph:
			f.Nodes = append(f.Nodes, fragment.ParagraphNode(g.paragraph(b, inCell || i > 0)))
		case *richtext.Table:
			t := &fragment.Table{
				Rows:     b.Rows,
				Cols:     b.Cols,
				Format:   b.Format.Clone(),
				ChangeID: g.marker.ChangeID,
				Cells:    make([]fragment.Cell, len(b.Cells)),
			}
			for j, c := range b.Cells {
				t.Cells[j] = fragment.Cell{Format: c.Format.Clone(), Content: g.fragment(c.Flow.Blocks, true)}
			}
			f.Nodes = append(f.Nodes, fragment.TableNode(t))
		}
	}
	return f
}

func (g *generator) paragraph(p *richtext.Paragraph, whole bool) *fragment.Paragraph {
	out := &fragment.Paragraph{
		Format:  p.Format.Clone(),
		Outline: p.Outline,
		Runs:    make([]richtext.Run, len(p.Runs)),
	}
	for i, r := range p.Runs {
		out.Runs[i] = richtext.Run{Text: r.Text, Format: r.Format.Clone()}
	}
	if p.List == nil {
		return out
	}
	id := p.List.ID
	listStyle, _ := g.doc.ListStyle(id)
	full := g.fullyDeleted(id)
	out.List = &fragment.ListTag{
		ListID:       id,
		Level:        p.List.Level,
		Style:        listStyle,
		FullyDeleted: full,
		DeletedItem:  whole,
	}
	if full {
		g.marker.SetDeletedListStyle(id, listStyle)
	}
	return out
}

// fullyDeleted reports whether removing the range leaves list id without
// items.
func (g *generator) fullyDeleted(id richtext.ListID) bool {
	if full, ok := g.lists[id]; ok {
		return full
	}
	items := g.doc.ListItems(id)
	full := len(items) > 0
	for _, it := range items {
		if it.Start <= g.r.Start || it.Start > g.r.End {
			full = false
			break
		}
	}
	g.lists[id] = full
	return full
}
