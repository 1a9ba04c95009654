package richtext

import (
	"fmt"
	"unicode/utf8"

	"github.com/dshills/redline/internal/engine/style"
)

// DefaultListStyle is the list style used when none is known.
const DefaultListStyle = "disc"

// Document is a structured rich-text document.
type Document struct {
	root *Flow

	lists            map[ListID]*List
	nextList         ListID
	defaultListStyle string

	anchors    []anchor
	nextAnchor AnchorID
}

// New creates a document holding a single empty paragraph.
func New(opts ...Option) *Document {
	d := &Document{
		root:             newFlow(),
		lists:            make(map[ListID]*List),
		nextList:         1,
		nextAnchor:       1,
		defaultListStyle: DefaultListStyle,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Len returns the number of positions in the document.
func (d *Document) Len() int {
	return d.root.Len()
}

// Root returns the document body. Callers must not modify it.
func (d *Document) Root() *Flow {
	return d.root
}

// Clone returns a deep copy of the document, including lists and anchors.
func (d *Document) Clone() *Document {
	out := &Document{
		root:             d.root.Clone(),
		lists:            make(map[ListID]*List, len(d.lists)),
		nextList:         d.nextList,
		defaultListStyle: d.defaultListStyle,
		anchors:          append([]anchor(nil), d.anchors...),
		nextAnchor:       d.nextAnchor,
	}
	for id, l := range d.lists {
		c := *l
		out.lists[id] = &c
	}
	return out
}

// InsertText inserts text with the given character format at pos.
func (d *Document) InsertText(pos Position, text string, format style.Properties) error {
	para, off, err := d.paragraphAt(pos)
	if err != nil {
		return err
	}
	para.insertText(off, text, format)
	d.shiftInsert(pos, utf8.RuneCountInString(text))
	return nil
}

// InsertBlock splits the paragraph at pos. The text after pos moves to a new
// paragraph carrying attrs.
func (d *Document) InsertBlock(pos Position, attrs BlockAttrs) error {
	path, err := resolve(d.root, pos)
	if err != nil {
		return err
	}
	last := path[len(path)-1]
	para, ok := last.block().(*Paragraph)
	if !ok {
		return fmt.Errorf("%w: %d", ErrTableBoundary, pos)
	}
	next := &Paragraph{Runs: para.cut(pos - last.start), BlockAttrs: attrs.Clone()}
	last.flow.Blocks = insertBlocks(last.flow.Blocks, last.index+1, next)
	d.shiftInsert(pos, 1)
	return nil
}

// InsertTable splits the paragraph at pos and places an empty rows×cols
// table between the halves. The paragraph after the table inherits the
// attributes of the split paragraph. It returns the table start position.
func (d *Document) InsertTable(pos Position, rows, cols int, format style.Properties) (Position, error) {
	if rows < 1 || cols < 1 {
		return 0, fmt.Errorf("%w: %dx%d", ErrInvalidTable, rows, cols)
	}
	path, err := resolve(d.root, pos)
	if err != nil {
		return 0, err
	}
	last := path[len(path)-1]
	para, ok := last.block().(*Paragraph)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrTableBoundary, pos)
	}
	t := newTable(rows, cols, format)
	after := &Paragraph{Runs: para.cut(pos - last.start), BlockAttrs: para.BlockAttrs.Clone()}
	last.flow.Blocks = insertBlocks(last.flow.Blocks, last.index+1, t, after)
	d.shiftInsert(pos, t.span()+1)
	return pos + 1, nil
}

// TableSize returns the dimensions of the table starting at tableStart.
func (d *Document) TableSize(tableStart Position) (rows, cols int, err error) {
	t, err := d.tableAt(tableStart)
	if err != nil {
		return 0, 0, err
	}
	return t.Rows, t.Cols, nil
}

// CellPosition returns the content start of a table cell.
func (d *Document) CellPosition(tableStart Position, row, col int) (Position, error) {
	t, err := d.tableAt(tableStart)
	if err != nil {
		return 0, err
	}
	if t.Cell(row, col) == nil {
		return 0, fmt.Errorf("%w: (%d,%d) in %dx%d", ErrCellOutOfRange, row, col, t.Rows, t.Cols)
	}
	return tableStart + t.cellOffset(row*t.Cols+col), nil
}

// CellFormat returns the format of a table cell.
func (d *Document) CellFormat(tableStart Position, row, col int) (style.Properties, error) {
	t, err := d.tableAt(tableStart)
	if err != nil {
		return nil, err
	}
	c := t.Cell(row, col)
	if c == nil {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrCellOutOfRange, row, col)
	}
	return c.Format.Clone(), nil
}

// SetCellFormat replaces the format of a table cell.
func (d *Document) SetCellFormat(tableStart Position, row, col int, format style.Properties) error {
	t, err := d.tableAt(tableStart)
	if err != nil {
		return err
	}
	c := t.Cell(row, col)
	if c == nil {
		return fmt.Errorf("%w: (%d,%d)", ErrCellOutOfRange, row, col)
	}
	c.Format = format.Clone()
	return nil
}

// TableFormat returns the format of the table starting at tableStart.
func (d *Document) TableFormat(tableStart Position) (style.Properties, error) {
	t, err := d.tableAt(tableStart)
	if err != nil {
		return nil, err
	}
	return t.Format.Clone(), nil
}

// TableEnd returns the position just past the table, which is the start of
// the paragraph following it.
func (d *Document) TableEnd(tableStart Position) (Position, error) {
	t, err := d.tableAt(tableStart)
	if err != nil {
		return 0, err
	}
	return tableStart + t.span(), nil
}

// BlockAt returns the attributes of the paragraph containing pos.
func (d *Document) BlockAt(pos Position) (BlockAttrs, error) {
	para, _, err := d.paragraphAt(pos)
	if err != nil {
		return BlockAttrs{}, err
	}
	return para.BlockAttrs.Clone(), nil
}

// SetBlock replaces the attributes of the paragraph containing pos.
func (d *Document) SetBlock(pos Position, attrs BlockAttrs) error {
	para, _, err := d.paragraphAt(pos)
	if err != nil {
		return err
	}
	para.BlockAttrs = attrs.Clone()
	return nil
}

// Normalize widens r so that it does not cut through a table. A range that
// stays inside one table cell is left as is. Empty ranges are unchanged.
func (d *Document) Normalize(r Range) (Range, error) {
	if r.IsEmpty() {
		if _, err := resolve(d.root, r.Start); err != nil {
			return r, err
		}
		return r, nil
	}
	sel, err := d.selectRange(r)
	if err != nil {
		return r, err
	}
	return sel.r, nil
}

// Copy returns the blocks covered by r after normalization. The first and
// last blocks of the slice are paragraphs, possibly partial.
func (d *Document) Copy(r Range) (Slice, Range, error) {
	if r.IsEmpty() {
		if _, err := resolve(d.root, r.Start); err != nil {
			return Slice{}, r, err
		}
		return Slice{Blocks: []Block{&Paragraph{}}}, r, nil
	}
	sel, err := d.selectRange(r)
	if err != nil {
		return Slice{}, r, err
	}
	head := sel.flow.Blocks[sel.first].(*Paragraph)
	a, b := sel.r.Start-sel.firstStart, sel.r.End-sel.lastStart
	if sel.first == sel.last {
		p := head.Clone()
		p.Runs = head.slice(a, b)
		return Slice{Blocks: []Block{p}}, sel.r, nil
	}
	blocks := make([]Block, 0, sel.last-sel.first+1)
	first := head.Clone()
	first.Runs = head.slice(a, head.Len())
	blocks = append(blocks, first)
	for _, blk := range sel.flow.Blocks[sel.first+1 : sel.last] {
		blocks = append(blocks, blk.cloneBlock())
	}
	tail := sel.flow.Blocks[sel.last].(*Paragraph)
	last := tail.Clone()
	last.Runs = tail.slice(0, b)
	blocks = append(blocks, last)
	return Slice{Blocks: blocks}, sel.r, nil
}

// RemoveRange removes the content covered by r after normalization and
// returns the range actually removed. When r spans several paragraphs the
// first one keeps its attributes and absorbs the tail of the last.
// Anchors inside the range collapse to its start. Lists left without items
// are dropped.
func (d *Document) RemoveRange(r Range) (Range, error) {
	if r.IsEmpty() {
		return d.Normalize(r)
	}
	sel, err := d.selectRange(r)
	if err != nil {
		return r, err
	}
	head := sel.flow.Blocks[sel.first].(*Paragraph)
	a, b := sel.r.Start-sel.firstStart, sel.r.End-sel.lastStart
	if sel.first == sel.last {
		head.deleteText(a, b)
	} else {
		tail := sel.flow.Blocks[sel.last].(*Paragraph)
		head.Runs = append(head.slice(0, a), tail.slice(b, tail.Len())...)
		head.compact()
		sel.flow.Blocks = append(sel.flow.Blocks[:sel.first+1], sel.flow.Blocks[sel.last+1:]...)
	}
	d.shiftRemove(sel.r.Start, sel.r.End)
	d.pruneLists()
	return sel.r, nil
}

// Slice is a copied run of blocks.
type Slice struct {
	Blocks []Block
}

// Len returns the number of positions the slice occupies once inserted.
func (s Slice) Len() int {
	return (&Flow{Blocks: s.Blocks}).Len()
}

// selection is a normalized range resolved to blocks of a single flow.
type selection struct {
	flow        *Flow
	first, last int
	firstStart  Position
	lastStart   Position
	r           Range
}

func (d *Document) selectRange(r Range) (selection, error) {
	if !r.IsValid() || r.End > d.Len() {
		return selection{}, fmt.Errorf("%w: %s", ErrRangeInvalid, r)
	}
	ps, err := resolve(d.root, r.Start)
	if err != nil {
		return selection{}, err
	}
	pe, err := resolve(d.root, r.End)
	if err != nil {
		return selection{}, err
	}
	k := common(ps, pe)
	s, e := ps[k], pe[k]
	out := selection{flow: s.flow, r: r}

	// At depth k a block is a table whenever the endpoint lies inside it or
	// on its boundary.
	if _, ok := s.block().(*Table); ok {
		prev := s.flow.Blocks[s.index-1]
		out.r.Start = s.start - 1
		s = step{flow: s.flow, index: s.index - 1, start: s.start - prev.span()}
	}
	if t, ok := e.block().(*Table); ok {
		out.r.End = e.start + t.span()
		e = step{flow: e.flow, index: e.index + 1, start: out.r.End}
	}
	out.first, out.firstStart = s.index, s.start
	out.last, out.lastStart = e.index, e.start
	return out, nil
}

func (d *Document) paragraphAt(pos Position) (*Paragraph, int, error) {
	path, err := resolve(d.root, pos)
	if err != nil {
		return nil, 0, err
	}
	last := path[len(path)-1]
	para, ok := last.block().(*Paragraph)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %d", ErrTableBoundary, pos)
	}
	return para, pos - last.start, nil
}

func (d *Document) tableAt(pos Position) (*Table, error) {
	path, err := resolve(d.root, pos)
	if err != nil {
		return nil, err
	}
	last := path[len(path)-1]
	t, ok := last.block().(*Table)
	if !ok || last.start != pos {
		return nil, fmt.Errorf("%w: %d", ErrNotTable, pos)
	}
	return t, nil
}

func insertBlocks(blocks []Block, at int, add ...Block) []Block {
	out := make([]Block, 0, len(blocks)+len(add))
	out = append(out, blocks[:at]...)
	out = append(out, add...)
	return append(out, blocks[at:]...)
}

// Restore replaces the contents of d with a deep copy of src.
func (d *Document) Restore(src *Document) {
	*d = *src.Clone()
}
