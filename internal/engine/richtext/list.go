package richtext

import (
	"fmt"
	"sort"
)

// ListID identifies a list within a document.
type ListID int

// List is a numbered or bulleted list. Items are the paragraphs whose
// ListRef names it.
type List struct {
	ID    ListID
	Style string
}

// CreateList registers a new list and returns its id.
func (d *Document) CreateList(style string) ListID {
	id := d.nextList
	d.nextList++
	d.lists[id] = &List{ID: id, Style: d.listStyle(style)}
	return id
}

// RestoreList registers a list under id if that id is free, otherwise under
// a fresh id. It returns the id actually used.
func (d *Document) RestoreList(id ListID, style string) ListID {
	if id <= 0 {
		return d.CreateList(style)
	}
	if _, taken := d.lists[id]; taken {
		return d.CreateList(style)
	}
	d.lists[id] = &List{ID: id, Style: d.listStyle(style)}
	if id >= d.nextList {
		d.nextList = id + 1
	}
	return id
}

// HasList reports whether a list with id exists.
func (d *Document) HasList(id ListID) bool {
	_, ok := d.lists[id]
	return ok
}

// ListStyle returns the style of list id.
func (d *Document) ListStyle(id ListID) (string, bool) {
	l, ok := d.lists[id]
	if !ok {
		return "", false
	}
	return l.Style, true
}

// Lists returns all lists ordered by id.
func (d *Document) Lists() []List {
	out := make([]List, 0, len(d.lists))
	for _, l := range d.lists {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CurrentList returns the list membership of the paragraph at pos.
func (d *Document) CurrentList(pos Position) (ListRef, bool) {
	para, _, err := d.paragraphAt(pos)
	if err != nil || para.List == nil || !d.HasList(para.List.ID) {
		return ListRef{}, false
	}
	return *para.List, true
}

// SetList changes the list membership of the paragraph at pos. A nil ref
// takes the paragraph out of its list.
func (d *Document) SetList(pos Position, ref *ListRef) error {
	para, _, err := d.paragraphAt(pos)
	if err != nil {
		return err
	}
	if ref != nil && !d.HasList(ref.ID) {
		return fmt.Errorf("unknown list %d", ref.ID)
	}
	if ref == nil {
		para.List = nil
		return nil
	}
	r := *ref
	para.List = &r
	return nil
}

// ListItems returns the text range of every item of list id in document
// order.
func (d *Document) ListItems(id ListID) []Range {
	var out []Range
	d.Walk(func(p *Paragraph, start Position) bool {
		if p.List != nil && p.List.ID == id {
			out = append(out, Range{Start: start, End: start + p.Len()})
		}
		return true
	})
	return out
}

func (d *Document) listStyle(style string) string {
	if style == "" {
		return d.defaultListStyle
	}
	return style
}

// pruneLists drops lists no paragraph refers to.
func (d *Document) pruneLists() {
	used := make(map[ListID]bool, len(d.lists))
	d.Walk(func(p *Paragraph, _ Position) bool {
		if p.List != nil {
			used[p.List.ID] = true
		}
		return true
	})
	for id := range d.lists {
		if !used[id] {
			delete(d.lists, id)
		}
	}
}
