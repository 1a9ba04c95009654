package stream

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/redline/internal/engine/changes"
	"github.com/dshills/redline/internal/engine/style"
)

const sample = `
version: 1
changes:
  - key: c1
    kind: deletion
    title: Delete
    author: ada
    date: "2024-03-01T12:00:00Z"
  - key: c2
    kind: format-change
    before:
      bold: false
    after:
      bold: true
      font-size: 12
body:
  - t: paragraph-start
    outline: 1
  - t: text
    text: AB
    format:
      italic: true
  - t: region-open
    key: c1
  - t: text
    text: C
  - t: region-close
    key: c1
  - t: paragraph-end
  - t: table-start
    rows: 1
    cols: 2
`

func TestDecode(t *testing.T) {
	s, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, Version, s.Version)
	require.Len(t, s.Declarations, 2)
	d := s.Declarations[0]
	assert.Equal(t, "c1", d.Key)
	assert.Equal(t, changes.Deletion, d.Kind)
	assert.Equal(t, "ada", d.Author)
	assert.Equal(t, "2024-03-01T12:00:00Z", d.Date)

	f := s.Declarations[1]
	assert.Equal(t, changes.FormatChange, f.Kind)
	assert.False(t, f.Before.Bool(style.KeyBold))
	assert.True(t, f.After.Bool(style.KeyBold))
	assert.Equal(t, 12, f.After.Int(style.KeyFontSize))

	rec := f.Record()
	require.NotNil(t, rec.Format)
	assert.True(t, rec.Format.After.Bool(style.KeyBold))
	assert.True(t, rec.Enabled)

	require.Len(t, s.Body, 7)
	assert.Equal(t, TokenParagraphStart, s.Body[0].Kind)
	assert.Equal(t, 1, s.Body[0].Outline)
	assert.Equal(t, "AB", s.Body[1].Text)
	assert.True(t, s.Body[1].Format.Bool(style.KeyItalic))
	assert.Equal(t, Open("c1"), s.Body[2])
	assert.Equal(t, TokenTableStart, s.Body[6].Kind)
	assert.Equal(t, 2, s.Body[6].Cols)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    error
		section string
	}{
		{"empty", "", ErrMalformed, ""},
		{"not yaml", "version: [", ErrMalformed, ""},
		{"version", "version: 2\nbody: []\n", ErrUnsupportedVersion, ""},
		{"unknown kind", "version: 1\nchanges:\n  - key: a\n    kind: rename\n", ErrMalformed, "changes"},
		{"missing key", "version: 1\nchanges:\n  - kind: insertion\n", ErrMalformed, "changes"},
		{"duplicate key", "version: 1\nchanges:\n  - key: a\n    kind: insertion\n  - key: a\n    kind: deletion\n", ErrMalformed, "changes"},
		{"unknown token", "version: 1\nbody:\n  - t: image\n", ErrMalformed, "body"},
		{"unknown property", "version: 1\nbody:\n  - t: text\n    format:\n      blink: true\n", style.ErrUnknownKey, "body"},
		{"region without key", "version: 1\nbody:\n  - t: region-open\n", ErrMalformed, "body"},
		{"empty table", "version: 1\nbody:\n  - t: table-start\n    rows: 0\n    cols: 1\n", ErrMalformed, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var pe *ParseError
			if tt.section == "" {
				assert.False(t, errors.As(err, &pe))
				return
			}
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.section, pe.Section)
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	in := &Stream{
		Version: Version,
		Declarations: []Declaration{{
			Key:    "k",
			Kind:   changes.Insertion,
			Title:  "Insert",
			Author: "ada",
			Extra:  map[string]string{"origin": "import"},
		}},
		Body: []Token{
			StartListItem(style.Properties{style.KeyAlignment: "center"}, 3, "decimal", 1),
			Open("k"),
			Text("héllo", style.Properties{style.KeyBold: true}),
			Close("k"),
			EndParagraph(),
			StartTable(2, 1, nil),
			StartCell(style.Properties{style.KeyBackground: "#fff"}),
			EndCell(),
			StartCell(nil),
			EndCell(),
			EndTable(),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, in))
	assert.Contains(t, buf.String(), "t: paragraph-start")

	out, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
