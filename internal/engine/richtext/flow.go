package richtext

// Flow is an ordered sequence of blocks. It is never empty and always starts
// and ends with a paragraph.
type Flow struct {
	Blocks []Block
}

func newFlow() *Flow {
	return &Flow{Blocks: []Block{&Paragraph{}}}
}

// Len returns the number of positions spanned by the flow.
func (f *Flow) Len() int {
	n := 0
	for _, b := range f.Blocks {
		n += b.span()
	}
	return n - 1
}

// Clone returns a deep copy of the flow.
func (f *Flow) Clone() *Flow {
	out := &Flow{Blocks: make([]Block, len(f.Blocks))}
	for i, b := range f.Blocks {
		out.Blocks[i] = b.cloneBlock()
	}
	return out
}

// step is one level of a resolved position: the block of flow that contains
// it, at index, starting at start.
type step struct {
	flow  *Flow
	index int
	start Position
}

func (s step) block() Block { return s.flow.Blocks[s.index] }

// resolve walks from the root flow down to the innermost block containing
// pos. The last step is a paragraph unless pos sits on a table boundary, in
// which case it is the table.
func resolve(root *Flow, pos Position) ([]step, error) {
	if pos < 0 {
		return nil, ErrOffsetOutOfRange
	}
	var path []step
	f, base := root, 0
descend:
	for {
		p := base
		for i, b := range f.Blocks {
			sp := b.span()
			switch b := b.(type) {
			case *Paragraph:
				if pos >= p && pos <= p+b.Len() {
					return append(path, step{flow: f, index: i, start: p}), nil
				}
			case *Table:
				if pos >= p && pos < p+sp {
					path = append(path, step{flow: f, index: i, start: p})
					q := p
					for _, c := range b.Cells {
						cs, cl := q+1, c.Flow.Len()
						if pos >= cs && pos <= cs+cl {
							f, base = c.Flow, cs
							continue descend
						}
						q = cs + cl
					}
					return path, nil
				}
			}
			p += sp
		}
		return nil, ErrOffsetOutOfRange
	}
}

// common returns the depth of the deepest flow that holds both paths at the
// same level, descending only while both stay in the same table cell.
func common(a, b []step) int {
	d := 0
	for d+1 < len(a) && d+1 < len(b) && a[d].index == b[d].index && a[d+1].flow == b[d+1].flow {
		d++
	}
	return d
}
