package richtext

import (
	"strings"

	"github.com/dshills/redline/internal/engine/style"
)

// ParagraphInfo describes one paragraph for display and inspection.
type ParagraphInfo struct {
	Start Position
	Text  string
	Attrs BlockAttrs
	Depth int
}

// Walk calls fn for every paragraph in document order, including those in
// table cells, with the paragraph's start position. Returning false stops
// the walk.
func (d *Document) Walk(fn func(p *Paragraph, start Position) bool) {
	walkFlow(d.root, 0, 0, func(p *Paragraph, start Position, _ bool, _ int) bool {
		return fn(p, start)
	})
}

// Paragraphs returns a description of every paragraph in document order.
func (d *Document) Paragraphs() []ParagraphInfo {
	var out []ParagraphInfo
	walkFlow(d.root, 0, 0, func(p *Paragraph, start Position, _ bool, depth int) bool {
		out = append(out, ParagraphInfo{Start: start, Text: p.Text(), Attrs: p.BlockAttrs.Clone(), Depth: depth})
		return true
	})
	return out
}

// Text returns the plain text of the document. Paragraphs are separated by
// newlines, table rows are rendered on their own lines with cells separated
// by tabs.
func (d *Document) Text() string {
	return flowText(d.root)
}

// CharFormat returns the format of the character at pos.
func (d *Document) CharFormat(pos Position) (style.Properties, bool) {
	para, off, err := d.paragraphAt(pos)
	if err != nil || off >= para.Len() {
		return nil, false
	}
	at := 0
	for _, r := range para.Runs {
		n := r.Len()
		if off < at+n {
			return r.Format.Clone(), true
		}
		at += n
	}
	return nil, false
}

// ChangeRanges returns the ranges attributed to any change id accepted by
// match, in document order, with touching ranges coalesced. Text is
// attributed through its character format. A paragraph whose block format
// carries a matching id also owns the separator in front of it, unless it
// follows a table.
func (d *Document) ChangeRanges(match func(id int) bool) []Range {
	var out []Range
	add := func(r Range) {
		if n := len(out); n > 0 && out[n-1].End >= r.Start {
			out[n-1].End = max(out[n-1].End, r.End)
			return
		}
		out = append(out, r)
	}
	walkFlow(d.root, 0, 0, func(p *Paragraph, start Position, afterPara bool, _ int) bool {
		if id := p.Format.Int(style.KeyChangeID); id != 0 && afterPara && match(id) {
			add(Range{Start: start - 1, End: start})
		}
		off := start
		for _, r := range p.Runs {
			n := r.Len()
			if id := r.Format.Int(style.KeyChangeID); id != 0 && match(id) {
				add(Range{Start: off, End: off + n})
			}
			off += n
		}
		return true
	})
	return out
}

// UpdateAttributed calls fn on the character format of every run, and the
// block format of every paragraph, attributed to a change id accepted by
// match. It returns the number of formats visited.
func (d *Document) UpdateAttributed(match func(id int) bool, fn func(format *style.Properties)) int {
	n := 0
	walkFlow(d.root, 0, 0, func(p *Paragraph, _ Position, _ bool, _ int) bool {
		if id := p.Format.Int(style.KeyChangeID); id != 0 && match(id) {
			fn(&p.Format)
			n++
		}
		touched := false
		for i := range p.Runs {
			if id := p.Runs[i].Format.Int(style.KeyChangeID); id != 0 && match(id) {
				fn(&p.Runs[i].Format)
				touched = true
				n++
			}
		}
		if touched {
			p.compact()
		}
		return true
	})
	return n
}

func walkFlow(f *Flow, base Position, depth int, fn func(p *Paragraph, start Position, afterPara bool, depth int) bool) bool {
	pos := base
	for i, b := range f.Blocks {
		switch b := b.(type) {
		case *Paragraph:
			afterPara := false
			if i > 0 {
				_, afterPara = f.Blocks[i-1].(*Paragraph)
			}
			if !fn(b, pos, afterPara, depth) {
				return false
			}
		case *Table:
			q := pos
			for _, c := range b.Cells {
				if !walkFlow(c.Flow, q+1, depth+1, fn) {
					return false
				}
				q += 1 + c.Flow.Len()
			}
		}
		pos += b.span()
	}
	return true
}

func flowText(f *Flow) string {
	lines := make([]string, 0, len(f.Blocks))
	for _, b := range f.Blocks {
		switch b := b.(type) {
		case *Paragraph:
			lines = append(lines, b.Text())
		case *Table:
			for r := 0; r < b.Rows; r++ {
				cells := make([]string, b.Cols)
				for c := 0; c < b.Cols; c++ {
					cells[c] = strings.ReplaceAll(flowText(b.Cell(r, c).Flow), "\n", " ")
				}
				lines = append(lines, strings.Join(cells, "\t"))
			}
		}
	}
	return strings.Join(lines, "\n")
}
