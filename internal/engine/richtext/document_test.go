package richtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/redline/internal/engine/style"
)

// tableDoc builds "AB" ¶ [x|y] "CD":
//
//	A B ¶ • x • y ] C D
//	0 1 2 3 4 5 6 7 8 9
func tableDoc(t *testing.T) *Document {
	t.Helper()
	d := New(WithParagraphs("ABCD"))
	start, err := d.InsertTable(2, 1, 2, nil)
	require.NoError(t, err)
	require.Equal(t, 3, start)

	cell, err := d.CellPosition(start, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 4, cell)
	require.NoError(t, d.InsertText(cell, "x", nil))

	cell, err = d.CellPosition(start, 0, 1)
	require.NoError(t, err)
	require.Equal(t, 6, cell)
	require.NoError(t, d.InsertText(cell, "y", nil))
	return d
}

func TestNewDocument(t *testing.T) {
	d := New()
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, "", d.Text())

	d = New(WithParagraphs("AB", "CD"))
	assert.Equal(t, 5, d.Len())
	assert.Equal(t, "AB\nCD", d.Text())
}

func TestInsertText(t *testing.T) {
	t.Run("middle", func(t *testing.T) {
		d := New(WithParagraphs("ABD"))
		require.NoError(t, d.InsertText(2, "C", style.Properties{style.KeyBold: true}))
		assert.Equal(t, "ABCD", d.Text())

		f, ok := d.CharFormat(2)
		require.True(t, ok)
		assert.True(t, f.Bool(style.KeyBold))
		f, ok = d.CharFormat(1)
		require.True(t, ok)
		assert.False(t, f.Bool(style.KeyBold))
	})

	t.Run("multibyte", func(t *testing.T) {
		d := New(WithParagraphs("héllo"))
		require.NoError(t, d.InsertText(2, "ü", nil))
		assert.Equal(t, "héüllo", d.Text())
		assert.Equal(t, 6, d.Len())
	})

	t.Run("out of range", func(t *testing.T) {
		d := New(WithParagraphs("AB"))
		assert.ErrorIs(t, d.InsertText(3, "x", nil), ErrOffsetOutOfRange)
		assert.ErrorIs(t, d.InsertText(-1, "x", nil), ErrOffsetOutOfRange)
	})
}

func TestInsertBlock(t *testing.T) {
	d := New(WithParagraphs("abcd"))
	require.NoError(t, d.InsertBlock(2, BlockAttrs{Outline: 1}))
	assert.Equal(t, "ab\ncd", d.Text())
	assert.Equal(t, 5, d.Len())

	attrs, err := d.BlockAt(0)
	require.NoError(t, err)
	assert.Equal(t, 0, attrs.Outline)
	attrs, err = d.BlockAt(3)
	require.NoError(t, err)
	assert.Equal(t, 1, attrs.Outline)
}

func TestInsertTable(t *testing.T) {
	d := tableDoc(t)
	assert.Equal(t, 10, d.Len())
	assert.Equal(t, "AB\nx\ty\nCD", d.Text())

	end, err := d.TableEnd(3)
	require.NoError(t, err)
	assert.Equal(t, 8, end)

	rows, cols, err := d.TableSize(3)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)
	assert.Equal(t, 2, cols)

	_, err = d.TableEnd(4)
	assert.ErrorIs(t, err, ErrNotTable)
	_, err = d.CellPosition(3, 1, 0)
	assert.ErrorIs(t, err, ErrCellOutOfRange)
	_, err = d.InsertTable(0, 0, 2, nil)
	assert.ErrorIs(t, err, ErrInvalidTable)

	assert.ErrorIs(t, d.InsertText(3, "z", nil), ErrTableBoundary)
}

func TestNormalize(t *testing.T) {
	d := tableDoc(t)
	tests := []struct {
		name string
		in   Range
		want Range
	}{
		{"plain text", NewRange(0, 2), NewRange(0, 2)},
		{"inside one cell", NewRange(4, 5), NewRange(4, 5)},
		{"end inside table", NewRange(1, 5), NewRange(1, 8)},
		{"start inside table", NewRange(5, 9), NewRange(2, 9)},
		{"across cells", NewRange(4, 7), NewRange(2, 8)},
		{"empty", NewRange(3, 3), NewRange(3, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := d.Normalize(NewRange(4, 11))
	assert.ErrorIs(t, err, ErrRangeInvalid)
}

func TestCopyAndRemove(t *testing.T) {
	t.Run("across table", func(t *testing.T) {
		d := tableDoc(t)
		s, r, err := d.Copy(NewRange(1, 9))
		require.NoError(t, err)
		assert.Equal(t, NewRange(1, 9), r)
		require.Len(t, s.Blocks, 3)
		assert.Equal(t, "B", s.Blocks[0].(*Paragraph).Text())
		assert.IsType(t, &Table{}, s.Blocks[1])
		assert.Equal(t, "C", s.Blocks[2].(*Paragraph).Text())
		assert.Equal(t, r.Len(), s.Len())

		removed, err := d.RemoveRange(r)
		require.NoError(t, err)
		assert.Equal(t, r, removed)
		assert.Equal(t, "AD", d.Text())
		assert.Equal(t, 2, d.Len())
	})

	t.Run("first paragraph keeps its attributes", func(t *testing.T) {
		d := New(WithParagraphs("ab", "cd"))
		require.NoError(t, d.SetBlock(3, BlockAttrs{Outline: 2}))
		_, err := d.RemoveRange(NewRange(1, 4))
		require.NoError(t, err)
		assert.Equal(t, "ad", d.Text())
		attrs, err := d.BlockAt(0)
		require.NoError(t, err)
		assert.Equal(t, 0, attrs.Outline)
	})

	t.Run("copy is independent", func(t *testing.T) {
		d := New(WithParagraphs("abcd"))
		s, _, err := d.Copy(NewRange(1, 3))
		require.NoError(t, err)
		_, err = d.RemoveRange(NewRange(0, 4))
		require.NoError(t, err)
		assert.Equal(t, "bc", s.Blocks[0].(*Paragraph).Text())
	})
}

func TestAnchors(t *testing.T) {
	d := New(WithParagraphs("abcdef"))
	a1 := d.AddAnchor(2)
	a2 := d.AddAnchor(2)
	a3 := d.AddAnchor(4)

	assert.Equal(t, []AnchorID{a2}, d.AnchorsAfter(a1))
	assert.Empty(t, d.AnchorsAfter(a2))

	require.NoError(t, d.InsertText(2, "XY", nil))
	pos, _ := d.AnchorPosition(a1)
	assert.Equal(t, 2, pos)
	pos, _ = d.AnchorPosition(a3)
	assert.Equal(t, 6, pos)

	assert.Equal(t, []AnchorAt{{ID: a3, Pos: 6}}, d.AnchorsWithin(NewRange(2, 7)))

	_, err := d.RemoveRange(NewRange(1, 7))
	require.NoError(t, err)
	pos, _ = d.AnchorPosition(a3)
	assert.Equal(t, 1, pos)
	pos, _ = d.AnchorPosition(a2)
	assert.Equal(t, 1, pos)

	require.True(t, d.MoveAnchor(a1, 2))
	pos, _ = d.AnchorPosition(a1)
	assert.Equal(t, 2, pos)
	assert.Equal(t, []AnchorID{a3}, d.AnchorsAfter(a2))

	d.RemoveAnchor(a1)
	_, ok := d.AnchorPosition(a1)
	assert.False(t, ok)
	assert.False(t, d.MoveAnchor(a1, 0))
}

func TestLists(t *testing.T) {
	d := New(WithParagraphs("a", "b", "c"))
	id := d.CreateList("decimal")
	require.NoError(t, d.SetList(2, &ListRef{ID: id}))
	require.NoError(t, d.SetList(4, &ListRef{ID: id, Level: 1}))

	assert.Equal(t, []Range{NewRange(2, 3), NewRange(4, 5)}, d.ListItems(id))
	ref, ok := d.CurrentList(4)
	require.True(t, ok)
	assert.Equal(t, 1, ref.Level)
	_, ok = d.CurrentList(0)
	assert.False(t, ok)

	_, err := d.RemoveRange(NewRange(1, 5))
	require.NoError(t, err)
	assert.Equal(t, "a", d.Text())
	assert.False(t, d.HasList(id), "list without items is dropped")

	restored := d.RestoreList(id, "")
	assert.Equal(t, id, restored)
	s, ok := d.ListStyle(restored)
	require.True(t, ok)
	assert.Equal(t, DefaultListStyle, s)

	other := d.RestoreList(id, "decimal")
	assert.NotEqual(t, id, other)

	assert.Error(t, d.SetList(0, &ListRef{ID: 99}))
}

func TestChangeRanges(t *testing.T) {
	d := New(WithParagraphs("abcd"))
	require.NoError(t, d.InsertText(2, "XY", style.Properties{style.KeyChangeID: 7}))
	require.NoError(t, d.InsertText(6, "Z", style.Properties{style.KeyChangeID: 8}))

	is := func(ids ...int) func(int) bool {
		return func(id int) bool {
			for _, x := range ids {
				if x == id {
					return true
				}
			}
			return false
		}
	}
	assert.Equal(t, []Range{NewRange(2, 4)}, d.ChangeRanges(is(7)))
	assert.Equal(t, []Range{NewRange(2, 4), NewRange(6, 7)}, d.ChangeRanges(is(7, 8)))

	n := d.UpdateAttributed(is(7), func(f *style.Properties) { f.Delete(style.KeyChangeID) })
	assert.Equal(t, 1, n)
	assert.Empty(t, d.ChangeRanges(is(7)))
	assert.Equal(t, "abXYcdZ", d.Text())

	t.Run("inserted paragraph owns its separator", func(t *testing.T) {
		d := New(WithParagraphs("ab", "cd"))
		require.NoError(t, d.SetBlock(3, BlockAttrs{Format: style.Properties{style.KeyChangeID: 3}}))
		assert.Equal(t, []Range{NewRange(2, 3)}, d.ChangeRanges(is(3)))
	})
}

func TestClone(t *testing.T) {
	d := tableDoc(t)
	a := d.AddAnchor(9)
	c := d.Clone()

	require.NoError(t, d.InsertText(0, "zz", nil))
	assert.Equal(t, "AB\nx\ty\nCD", c.Text())
	pos, ok := c.AnchorPosition(a)
	require.True(t, ok)
	assert.Equal(t, 9, pos)
}
