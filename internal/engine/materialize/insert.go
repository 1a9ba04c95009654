package materialize

import (
	"errors"
	"fmt"

	"github.com/dshills/redline/internal/engine/fragment"
	"github.com/dshills/redline/internal/engine/richtext"
)

// ErrMalformedFragment is returned for fragments that cannot be inserted.
var ErrMalformedFragment = errors.New("malformed fragment")

type inserter struct {
	doc      *richtext.Document
	marker   *fragment.Marker
	restored map[richtext.ListID]richtext.ListID
}

// insert places f at pos and returns the number of positions inserted.
// When fresh is set pos is the empty first paragraph of a new table cell,
// which takes the attributes of the first node.
func (ins *inserter) insert(pos richtext.Position, f *fragment.Fragment, fresh bool) (int, error) {
	start := pos
	afterTable := false
	for i, node := range f.Nodes {
		switch node.Kind {
		case fragment.NodeParagraph:
			p := node.Paragraph
			var err error
			switch {
			case i == 0 && !fresh:
			case i == 0 || afterTable:
				err = ins.doc.SetBlock(pos, ins.attrs(p))
			default:
				err = ins.doc.InsertBlock(pos, ins.attrs(p))
				pos++
			}
			if err != nil {
				return pos - start, err
			}
			for _, r := range p.Runs {
				if err := ins.doc.InsertText(pos, r.Text, r.Format); err != nil {
					return pos - start, err
				}
				pos += r.Len()
			}
			afterTable = false

		case fragment.NodeTable:
			end, err := ins.table(pos, node.Table)
			if err != nil {
				return pos - start, err
			}
			pos = end
			afterTable = true

		default:
			return pos - start, fmt.Errorf("%w: node kind %s", ErrMalformedFragment, node.Kind)
		}
	}
	return pos - start, nil
}

// table recreates t at pos and returns the position after it.
func (ins *inserter) table(pos richtext.Position, t *fragment.Table) (richtext.Position, error) {
	if t.Rows*t.Cols != len(t.Cells) {
		return pos, fmt.Errorf("%w: %dx%d table with %d cells", ErrMalformedFragment, t.Rows, t.Cols, len(t.Cells))
	}
	ts, err := ins.doc.InsertTable(pos, t.Rows, t.Cols, t.Format)
	if err != nil {
		return pos, err
	}
	for idx, c := range t.Cells {
		row, col := idx/t.Cols, idx%t.Cols
		if err := ins.doc.SetCellFormat(ts, row, col, c.Format); err != nil {
			return pos, err
		}
		if c.Content == nil {
			continue
		}
		cp, err := ins.doc.CellPosition(ts, row, col)
		if err != nil {
			return pos, err
		}
		if _, err := ins.insert(cp, c.Content, true); err != nil {
			return pos, err
		}
	}
	return ins.doc.TableEnd(ts)
}

func (ins *inserter) attrs(p *fragment.Paragraph) richtext.BlockAttrs {
	a := richtext.BlockAttrs{Format: p.Format, Outline: p.Outline}
	if p.List != nil {
		a.List = &richtext.ListRef{ID: ins.list(p.List), Level: p.List.Level}
	}
	return a
}

// list resolves the list a restored item joins. An existing list is reused;
// a list that no longer exists is recreated once per insertion, under its
// original id when that is free.
func (ins *inserter) list(tag *fragment.ListTag) richtext.ListID {
	if id, ok := ins.restored[tag.ListID]; ok {
		return id
	}
	if ins.doc.HasList(tag.ListID) {
		return tag.ListID
	}
	listStyle := tag.Style
	if tag.FullyDeleted && ins.marker.HasDeletedListStyle(tag.ListID) || listStyle == "" {
		listStyle = ins.marker.DeletedListStyle(tag.ListID)
	}
	id := ins.doc.RestoreList(tag.ListID, listStyle)
	ins.restored[tag.ListID] = id
	return id
}
