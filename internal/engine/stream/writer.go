package stream

import (
	"github.com/google/uuid"

	"github.com/dshills/redline/internal/engine/changes"
	"github.com/dshills/redline/internal/engine/fragment"
	"github.com/dshills/redline/internal/engine/richtext"
	"github.com/dshills/redline/internal/engine/style"
)

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithKeyGenerator sets the function producing region keys.
func WithKeyGenerator(fn func() string) WriterOption {
	return func(w *Writer) {
		if fn != nil {
			w.newKey = fn
		}
	}
}

// Writer serializes a document and its registry into a stream.
//
// Text attributed to a change is wrapped in the regions of the change and
// its ancestors. Pending deletions are written at their marker as a region
// holding the deleted content, so reading the stream back restores the
// deleted content and removes it again.
type Writer struct {
	doc    *richtext.Document
	reg    *changes.Registry
	newKey func() string

	keys      map[changes.ID]string
	fragments map[changes.ID]*fragment.Fragment
	owner     map[richtext.AnchorID]changes.ID
	markersAt map[richtext.Position][]changes.ID

	open []changes.ID
	body []Token
}

// NewWriter creates a Writer for doc and reg.
func NewWriter(doc *richtext.Document, reg *changes.Registry, opts ...WriterOption) *Writer {
	w := &Writer{doc: doc, reg: reg, newKey: uuid.NewString}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write produces the stream.
func (w *Writer) Write() *Stream {
	w.keys = make(map[changes.ID]string)
	w.fragments = make(map[changes.ID]*fragment.Fragment)
	w.owner = make(map[richtext.AnchorID]changes.ID)
	w.markersAt = make(map[richtext.Position][]changes.ID)
	w.open, w.body = nil, nil

	s := &Stream{Version: Version}
	for _, id := range w.reg.IDs() {
		rec, _ := w.reg.Record(id)
		if rec.AcceptedRejected {
			continue
		}
		key := w.newKey()
		w.keys[id] = key
		d := Declaration{
			Key:    key,
			Kind:   rec.Kind,
			Title:  rec.Title,
			Author: rec.Author,
			Date:   rec.Timestamp,
			Extra:  rec.Extra,
		}
		if rec.Format != nil {
			d.Before, d.After = rec.Format.Before, rec.Format.After
		}
		s.Declarations = append(s.Declarations, d)
	}

	nested := make(map[richtext.AnchorID]bool)
	for _, id := range w.reg.DeletedChanges() {
		rec, _ := w.reg.Record(id)
		w.owner[rec.Marker.Anchor] = id
		w.fragments[id] = rec.Deleted
		if rec.Deleted != nil {
			for _, a := range rec.Deleted.Anchors {
				nested[a.ID] = true
			}
		}
	}
	for _, a := range w.doc.Anchors() {
		if id, ok := w.owner[a.ID]; ok && !nested[a.ID] {
			w.markersAt[a.Pos] = append(w.markersAt[a.Pos], id)
		}
	}

	w.flow(w.doc.Root(), 0)
	w.sync(nil)
	s.Body = w.body
	return s
}

func (w *Writer) emit(t Token) {
	w.body = append(w.body, t)
}

func (w *Writer) flow(f *richtext.Flow, base richtext.Position) {
	pos := base
	for _, b := range f.Blocks {
		switch b := b.(type) {
		case *richtext.Paragraph:
			w.paragraph(b, pos)
			pos += b.Len() + 1
		case *richtext.Table:
			w.emit(StartTable(b.Rows, b.Cols, b.Format.Clone()))
			q := pos
			for _, c := range b.Cells {
				w.emit(StartCell(c.Format.Clone()))
				w.flow(c.Flow, q+1)
				w.emit(EndCell())
				q += 1 + c.Flow.Len()
			}
			w.emit(EndTable())
			pos += b.Span()
		}
	}
}

func (w *Writer) paragraph(p *richtext.Paragraph, start richtext.Position) {
	w.sync(w.chain(changeID(p.Format)))
	t := StartParagraph(p.Format.Without(style.KeyChangeID), p.Outline)
	if p.List != nil {
		t.List, t.Level = int(p.List.ID), p.List.Level
		t.Style, _ = w.doc.ListStyle(p.List.ID)
	}
	w.emit(t)

	pos := start
	for _, r := range p.Runs {
		pos = w.runText(r, pos, nil, func(at richtext.Position) []changes.ID {
			ids := w.markersAt[at]
			delete(w.markersAt, at)
			return ids
		})
	}
	for _, id := range w.markersAt[pos] {
		w.deletion(id, nil)
	}
	delete(w.markersAt, pos)
	w.sync(nil)
	w.emit(EndParagraph())
}

// runText emits r starting at pos, interrupting it for the deletions that
// markers returns at each position, and returns the position after it.
func (w *Writer) runText(r richtext.Run, pos richtext.Position, base []changes.ID, markers func(richtext.Position) []changes.ID) richtext.Position {
	chain := w.within(base, changeID(r.Format))
	format := r.Format.Without(style.KeyChangeID)
	var seg []rune
	flush := func() {
		if len(seg) > 0 {
			w.sync(chain)
			w.emit(Text(string(seg), format.Clone()))
			seg = seg[:0]
		}
	}
	for _, ch := range r.Text {
		if ids := markers(pos); len(ids) > 0 {
			flush()
			for _, id := range ids {
				w.deletion(id, base)
			}
		}
		seg = append(seg, ch)
		pos++
	}
	flush()
	return pos
}

// deletion writes the content of pending deletion id as a region.
func (w *Writer) deletion(id changes.ID, base []changes.ID) {
	chain := w.within(base, id)
	w.sync(chain)
	f := w.fragments[id]
	if f == nil {
		return
	}
	nested := make(map[int][]changes.ID)
	for _, a := range f.Anchors {
		if owner, ok := w.owner[a.ID]; ok {
			nested[a.Offset] = append(nested[a.Offset], owner)
		}
	}
	w.fragment(f, chain, nested, 0, true)
}

// fragment writes the nodes of f starting at offset off and returns the
// offset after them. The first paragraph continues the open paragraph when
// continuing is set; otherwise f is a cell's content and every paragraph is
// written whole.
func (w *Writer) fragment(f *fragment.Fragment, base []changes.ID, nested map[int][]changes.ID, off int, continuing bool) int {
	markers := func(at richtext.Position) []changes.ID {
		ids := nested[at]
		delete(nested, at)
		return ids
	}
	afterTable := false
	for i, n := range f.Nodes {
		switch n.Kind {
		case fragment.NodeParagraph:
			p := n.Paragraph
			if i > 0 || !continuing {
				if i > 0 && !afterTable {
					w.emit(EndParagraph())
					off++
				}
				w.sync(w.within(base, changeID(p.Format)))
				t := StartParagraph(p.Format.Without(style.KeyChangeID), p.Outline)
				if p.List != nil {
					t.List, t.Level, t.Style = int(p.List.ListID), p.List.Level, p.List.Style
				}
				w.emit(t)
			}
			for _, r := range p.Runs {
				off = w.runText(r, off, base, markers)
			}
			for _, id := range markers(off) {
				w.deletion(id, base)
			}
			afterTable = false

		case fragment.NodeTable:
			tbl := n.Table
			w.emit(EndParagraph())
			off++
			w.emit(StartTable(tbl.Rows, tbl.Cols, tbl.Format.Clone()))
			for _, c := range tbl.Cells {
				off++
				w.emit(StartCell(c.Format.Clone()))
				off = w.fragment(c.Content, base, nested, off, false)
				w.emit(EndCell())
			}
			off++
			w.emit(EndTable())
			afterTable = true
		}
	}
	if !continuing {
		w.emit(EndParagraph())
	}
	return off
}

// sync closes and opens regions so that exactly target is open.
func (w *Writer) sync(target []changes.ID) {
	k := 0
	for k < len(w.open) && k < len(target) && w.open[k] == target[k] {
		k++
	}
	for len(w.open) > k {
		top := w.open[len(w.open)-1]
		w.emit(Close(w.keys[top]))
		w.open = w.open[:len(w.open)-1]
	}
	for _, id := range target[k:] {
		w.emit(Open(w.keys[id]))
		w.open = append(w.open, id)
	}
}

// chain returns the declared ancestors of id from the root down to id.
func (w *Writer) chain(id changes.ID) []changes.ID {
	var out []changes.ID
	for n := 0; id != 0 && n < len(w.keys)+1; n++ {
		if _, ok := w.keys[id]; !ok {
			id = w.reg.Resolve(id)
			if _, ok := w.keys[id]; !ok {
				break
			}
		}
		out = append(out, id)
		id = w.reg.Parent(id)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// within returns the chain of id as seen from inside base: base itself when
// id is already open in it, the chain of id when it extends base, and base
// followed by id otherwise.
func (w *Writer) within(base []changes.ID, id changes.ID) []changes.ID {
	c := w.chain(id)
	if len(c) == 0 {
		return base
	}
	id = c[len(c)-1]
	for _, b := range base {
		if b == id {
			return base
		}
	}
	if len(c) >= len(base) {
		prefix := true
		for i := range base {
			if c[i] != base[i] {
				prefix = false
				break
			}
		}
		if prefix {
			return c
		}
	}
	return append(append([]changes.ID(nil), base...), id)
}

func changeID(p style.Properties) changes.ID {
	return changes.ID(p.Int(style.KeyChangeID))
}
