package stream

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/redline/internal/engine/changes"
	"github.com/dshills/redline/internal/engine/richtext"
	"github.com/dshills/redline/internal/engine/style"
)

func sequentialKeys() WriterOption {
	n := 0
	return WithKeyGenerator(func() string {
		n++
		return fmt.Sprintf("k%d", n)
	})
}

func kinds(body []Token) []TokenKind {
	out := make([]TokenKind, len(body))
	for i, t := range body {
		out[i] = t.Kind
	}
	return out
}

func TestWriterNestedChanges(t *testing.T) {
	reg := changes.NewRegistry(changes.WithAuthor("ada"))
	outer := reg.InsertChangeID("Insert", 0)
	inner := reg.FormatChangeID("Format", style.Properties{style.KeyBold: true}, nil, outer)

	doc := richtext.New(richtext.WithParagraphs("A"))
	require.NoError(t, doc.InsertText(1, "B", style.Properties{style.KeyChangeID: int(outer)}))
	require.NoError(t, doc.InsertText(2, "C", style.Properties{style.KeyChangeID: int(inner), style.KeyBold: true}))
	require.NoError(t, doc.InsertText(3, "D", nil))

	s := NewWriter(doc, reg, sequentialKeys()).Write()

	require.Len(t, s.Declarations, 2)
	assert.Equal(t, "k1", s.Declarations[0].Key)
	assert.Equal(t, changes.Insertion, s.Declarations[0].Kind)
	assert.Equal(t, "ada", s.Declarations[0].Author)
	assert.Equal(t, changes.FormatChange, s.Declarations[1].Kind)
	assert.True(t, s.Declarations[1].After.Bool(style.KeyBold))

	assert.Equal(t, []Token{
		StartParagraph(nil, 0),
		Text("A", nil),
		Open("k1"),
		Text("B", nil),
		Open("k2"),
		Text("C", style.Properties{style.KeyBold: true}),
		Close("k2"),
		Close("k1"),
		Text("D", nil),
		EndParagraph(),
	}, s.Body)
}

func TestWriterSkipsAcceptedChanges(t *testing.T) {
	reg := changes.NewRegistry()
	id := reg.InsertChangeID("Insert", 0)
	reg.AcceptRejectChange(id, true)

	s := NewWriter(richtext.New(richtext.WithParagraphs("x")), reg).Write()
	assert.Empty(t, s.Declarations)
	assert.Equal(t, Version, s.Version)
}

func TestWriterTable(t *testing.T) {
	doc := richtext.New(richtext.WithParagraphs("A", "B"))
	start, err := doc.InsertTable(1, 1, 1, style.Properties{style.KeyAlignment: "left"})
	require.NoError(t, err)
	cell, err := doc.CellPosition(start, 0, 0)
	require.NoError(t, err)
	require.NoError(t, doc.InsertText(cell, "x", nil))

	s := NewWriter(doc, changes.NewRegistry()).Write()
	assert.Equal(t, []TokenKind{
		TokenParagraphStart, TokenText, TokenParagraphEnd,
		TokenTableStart,
		TokenCellStart, TokenParagraphStart, TokenText, TokenParagraphEnd, TokenCellEnd,
		TokenTableEnd,
		TokenParagraphStart, TokenParagraphEnd,
		TokenParagraphStart, TokenText, TokenParagraphEnd,
	}, kinds(s.Body))
	assert.Equal(t, "left", s.Body[3].Format.Text(style.KeyAlignment))
	assert.Equal(t, "x", s.Body[6].Text)
}

func TestWriterListItems(t *testing.T) {
	doc := richtext.New(richtext.WithParagraphs("a", "b"))
	id := doc.CreateList("decimal")
	require.NoError(t, doc.SetList(0, &richtext.ListRef{ID: id}))
	require.NoError(t, doc.SetList(2, &richtext.ListRef{ID: id, Level: 1}))

	s := NewWriter(doc, changes.NewRegistry()).Write()
	require.Len(t, s.Body, 6)
	assert.Equal(t, StartListItem(nil, int(id), "decimal", 0), s.Body[0])
	assert.Equal(t, StartListItem(nil, int(id), "decimal", 1), s.Body[3])
}
