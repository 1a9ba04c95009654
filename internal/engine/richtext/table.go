package richtext

import "github.com/dshills/redline/internal/engine/style"

// Cell is one table cell. Its content is a nested flow.
type Cell struct {
	Format style.Properties
	Flow   *Flow
}

// Table is a grid of cells stored row-major.
type Table struct {
	Rows   int
	Cols   int
	Format style.Properties
	Cells  []*Cell
}

func newTable(rows, cols int, format style.Properties) *Table {
	t := &Table{Rows: rows, Cols: cols, Format: format.Clone(), Cells: make([]*Cell, rows*cols)}
	for i := range t.Cells {
		t.Cells[i] = &Cell{Flow: newFlow()}
	}
	return t
}

// Cell returns the cell at row, col or nil.
func (t *Table) Cell(row, col int) *Cell {
	if row < 0 || row >= t.Rows || col < 0 || col >= t.Cols {
		return nil
	}
	return t.Cells[row*t.Cols+col]
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{Rows: t.Rows, Cols: t.Cols, Format: t.Format.Clone(), Cells: make([]*Cell, len(t.Cells))}
	for i, c := range t.Cells {
		out.Cells[i] = &Cell{Format: c.Format.Clone(), Flow: c.Flow.Clone()}
	}
	return out
}

func (t *Table) span() int {
	n := 1
	for _, c := range t.Cells {
		n += 1 + c.Flow.Len()
	}
	return n
}

func (t *Table) cloneBlock() Block { return t.Clone() }

// cellOffset returns the offset of the content of cell idx relative to the
// table start.
func (t *Table) cellOffset(idx int) int {
	off := 0
	for _, c := range t.Cells[:idx] {
		off += 1 + c.Flow.Len()
	}
	return off + 1
}

// Span returns the number of positions the table occupies.
func (t *Table) Span() int {
	return t.span()
}
