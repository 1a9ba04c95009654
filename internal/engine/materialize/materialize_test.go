package materialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/redline/internal/engine/fragment"
	"github.com/dshills/redline/internal/engine/richtext"
	"github.com/dshills/redline/internal/engine/style"
)

// listDoc builds:
//
//	"xy" ¶ "ab"• ¶ "cd"• ¶ "zw"
//	 0 1 2  3 4 5  6 7 8  9 10
//
// where • marks items of a "decimal" list.
func listDoc(t *testing.T) (*richtext.Document, richtext.ListID) {
	t.Helper()
	d := richtext.New(richtext.WithParagraphs("xy", "ab", "cd", "zw"))
	id := d.CreateList("decimal")
	require.NoError(t, d.SetList(3, &richtext.ListRef{ID: id}))
	require.NoError(t, d.SetList(6, &richtext.ListRef{ID: id, Level: 1}))
	return d, id
}

// tableDoc builds "AB" ¶ [x|y] "CD" with a heading before it:
//
//	H ¶ A B ¶ • x • y ] C D
//	0 1 2 3 4 5 6 7 8 9 10 11
func tableDoc(t *testing.T) *richtext.Document {
	t.Helper()
	d := richtext.New(richtext.WithParagraphs("H", "ABCD"))
	require.NoError(t, d.SetBlock(0, richtext.BlockAttrs{Outline: 1}))
	ts, err := d.InsertTable(4, 1, 2, style.Properties{style.KeyAlignment: "center"})
	require.NoError(t, err)
	require.NoError(t, d.SetCellFormat(ts, 0, 1, style.Properties{style.KeyBackground: "#eee"}))
	cell, err := d.CellPosition(ts, 0, 0)
	require.NoError(t, err)
	require.NoError(t, d.InsertText(cell, "x", style.Properties{style.KeyBold: true}))
	cell, err = d.CellPosition(ts, 0, 1)
	require.NoError(t, err)
	require.NoError(t, d.InsertText(cell, "y", nil))
	require.Equal(t, 12, d.Len())
	return d
}

type docState struct {
	Text       string
	Paragraphs []richtext.ParagraphInfo
	Lists      []richtext.List
}

func stateOf(d *richtext.Document) docState {
	return docState{Text: d.Text(), Paragraphs: d.Paragraphs(), Lists: d.Lists()}
}

// roundTrip deletes r and reinserts it, checking that the document is
// restored exactly.
func roundTrip(t *testing.T, d *richtext.Document, r richtext.Range) *fragment.Fragment {
	t.Helper()
	before := stateOf(d)
	m := New()
	marker := fragment.NewMarker(7, d.AddAnchor(r.Start))

	f, nr, err := m.Generate(d, r, marker)
	require.NoError(t, err)
	assert.Equal(t, nr.Len(), m.Length(f))

	_, err = d.RemoveRange(nr)
	require.NoError(t, err)

	n, err := m.Insert(d, f, marker)
	require.NoError(t, err)
	assert.Equal(t, nr.Len(), n)
	assert.Equal(t, before, stateOf(d))
	return f
}

func TestGenerateDoesNotModify(t *testing.T) {
	d, _ := listDoc(t)
	before := stateOf(d)
	marker := fragment.NewMarker(1, d.AddAnchor(1))
	_, _, err := New().Generate(d, richtext.NewRange(1, 10), marker)
	require.NoError(t, err)
	assert.Equal(t, before, stateOf(d))
}

func TestSimpleDeletion(t *testing.T) {
	d := richtext.New(richtext.WithParagraphs("ABCD"))
	f := roundTrip(t, d, richtext.NewRange(2, 3))
	assert.Equal(t, "C", f.Text())
}

func TestRoundTrip(t *testing.T) {
	ranges := []struct {
		name string
		r    richtext.Range
	}{
		{"inside paragraph", richtext.NewRange(3, 4)},
		{"across separator", richtext.NewRange(1, 4)},
		{"whole list", richtext.NewRange(1, 10)},
		{"from first item", richtext.NewRange(4, 9)},
		{"item starts at range end", richtext.NewRange(1, 6)},
		{"everything", richtext.NewRange(0, 11)},
	}
	for _, tt := range ranges {
		t.Run("list/"+tt.name, func(t *testing.T) {
			d, _ := listDoc(t)
			roundTrip(t, d, tt.r)
		})
	}

	tables := []struct {
		name string
		r    richtext.Range
	}{
		{"inside cell", richtext.NewRange(6, 7)},
		{"cuts table", richtext.NewRange(3, 7)},
		{"across table", richtext.NewRange(3, 11)},
		{"heading and table", richtext.NewRange(0, 12)},
	}
	for _, tt := range tables {
		t.Run("table/"+tt.name, func(t *testing.T) {
			roundTrip(t, tableDoc(t), tt.r)
		})
	}
}

func TestListTags(t *testing.T) {
	t.Run("fully deleted", func(t *testing.T) {
		d, id := listDoc(t)
		marker := fragment.NewMarker(3, d.AddAnchor(1))
		f, _, err := New().Generate(d, richtext.NewRange(1, 10), marker)
		require.NoError(t, err)

		require.Len(t, f.Nodes, 4)
		assert.Nil(t, f.Nodes[0].Paragraph.List)
		for _, n := range f.Nodes[1:3] {
			tag := n.Paragraph.List
			require.NotNil(t, tag)
			assert.Equal(t, id, tag.ListID)
			assert.True(t, tag.FullyDeleted)
			assert.True(t, tag.DeletedItem)
			assert.Equal(t, "decimal", tag.Style)
		}
		assert.Equal(t, 1, f.Nodes[2].Paragraph.List.Level)
		assert.Equal(t, "decimal", marker.DeletedListStyle(id))
	})

	t.Run("partial first item", func(t *testing.T) {
		d, id := listDoc(t)
		marker := fragment.NewMarker(3, d.AddAnchor(4))
		f, _, err := New().Generate(d, richtext.NewRange(4, 9), marker)
		require.NoError(t, err)

		first := f.Nodes[0].Paragraph.List
		require.NotNil(t, first)
		assert.False(t, first.FullyDeleted)
		assert.False(t, first.DeletedItem)
		assert.True(t, f.Nodes[1].Paragraph.List.DeletedItem)
		assert.False(t, marker.HasDeletedListStyle(id))
	})
}

func TestRestoreFullyDeletedList(t *testing.T) {
	d, id := listDoc(t)
	m := New()
	marker := fragment.NewMarker(3, d.AddAnchor(1))
	f, nr, err := m.Generate(d, richtext.NewRange(1, 10), marker)
	require.NoError(t, err)
	_, err = d.RemoveRange(nr)
	require.NoError(t, err)
	require.False(t, d.HasList(id))

	_, err = m.Insert(d, f, marker)
	require.NoError(t, err)
	s, ok := d.ListStyle(id)
	require.True(t, ok)
	assert.Equal(t, "decimal", s)
	assert.Len(t, d.ListItems(id), 2)
}

func TestRestoreListWithoutStyle(t *testing.T) {
	d := richtext.New(richtext.WithParagraphs("a", "b"))
	f := &fragment.Fragment{Nodes: []fragment.Node{
		fragment.ParagraphNode(&fragment.Paragraph{}),
		fragment.ParagraphNode(&fragment.Paragraph{
			Runs: []richtext.Run{{Text: "item"}},
			List: &fragment.ListTag{ListID: 9, FullyDeleted: true, DeletedItem: true},
		}),
	}}
	marker := fragment.NewMarker(1, d.AddAnchor(1))
	n, err := New().Insert(d, f, marker)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	ref, ok := d.CurrentList(2)
	require.True(t, ok)
	s, _ := d.ListStyle(ref.ID)
	assert.Equal(t, richtext.DefaultListStyle, s)
	assert.Equal(t, "a\nitem\nb", d.Text())
}

func TestTableFragment(t *testing.T) {
	d := tableDoc(t)
	marker := fragment.NewMarker(4, d.AddAnchor(3))
	f, nr, err := New().Generate(d, richtext.NewRange(3, 7), marker)
	require.NoError(t, err)
	assert.Equal(t, richtext.NewRange(3, 10), nr)

	require.Len(t, f.Nodes, 3)
	tbl := f.Nodes[1].Table
	require.NotNil(t, tbl)
	assert.Equal(t, 4, tbl.ChangeID)
	assert.Equal(t, "center", tbl.Format.Text(style.KeyAlignment))
	assert.Equal(t, "#eee", tbl.Cells[1].Format.Text(style.KeyBackground))
	assert.Equal(t, "x", tbl.Cells[0].Content.Text())
}

func TestAnchorsAcrossRoundTrip(t *testing.T) {
	d := richtext.New(richtext.WithParagraphs("abcdef"))
	prior := d.AddAnchor(1)
	marker := fragment.NewMarker(2, d.AddAnchor(1))
	nested := d.AddAnchor(3)
	end := d.AddAnchor(5)

	m := New()
	f, nr, err := m.Generate(d, richtext.NewRange(1, 5), marker)
	require.NoError(t, err)
	assert.Equal(t, []fragment.Anchor{{Offset: 2, ID: nested}}, f.Anchors)

	_, err = d.RemoveRange(nr)
	require.NoError(t, err)
	_, err = m.Insert(d, f, marker)
	require.NoError(t, err)

	for id, want := range map[richtext.AnchorID]int{prior: 1, marker.Anchor: 1, nested: 3, end: 5} {
		pos, ok := d.AnchorPosition(id)
		require.True(t, ok)
		assert.Equal(t, want, pos, "anchor %d", id)
	}
}

func TestInsertErrors(t *testing.T) {
	d := richtext.New()
	_, err := New().Insert(d, &fragment.Fragment{}, fragment.NewMarker(1, 99))
	assert.ErrorIs(t, err, ErrMarkerNotFound)

	bad := &fragment.Fragment{Nodes: []fragment.Node{
		fragment.ParagraphNode(&fragment.Paragraph{}),
		fragment.TableNode(&fragment.Table{Rows: 2, Cols: 2}),
		fragment.ParagraphNode(&fragment.Paragraph{}),
	}}
	_, err = New().Insert(d, bad, fragment.NewMarker(1, d.AddAnchor(0)))
	assert.ErrorIs(t, err, ErrMalformedFragment)
}
