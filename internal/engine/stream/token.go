package stream

import (
	"fmt"

	"github.com/dshills/redline/internal/engine/changes"
	"github.com/dshills/redline/internal/engine/style"
)

// Version is the stream format version written by this package.
const Version = 1

// TokenKind identifies a body token.
type TokenKind uint8

// Token kinds.
const (
	TokenInvalid TokenKind = iota
	TokenParagraphStart
	TokenParagraphEnd
	TokenText
	TokenListStart
	TokenListEnd
	TokenTableStart
	TokenTableEnd
	TokenCellStart
	TokenCellEnd
	TokenRegionOpen
	TokenRegionClose
)

var tokenNames = [...]string{
	TokenInvalid:        "invalid",
	TokenParagraphStart: "paragraph-start",
	TokenParagraphEnd:   "paragraph-end",
	TokenText:           "text",
	TokenListStart:      "list-start",
	TokenListEnd:        "list-end",
	TokenTableStart:     "table-start",
	TokenTableEnd:       "table-end",
	TokenCellStart:      "cell-start",
	TokenCellEnd:        "cell-end",
	TokenRegionOpen:     "region-open",
	TokenRegionClose:    "region-close",
}

// String returns the serialized name of the kind.
func (k TokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", k)
}

// ParseTokenKind returns the kind for a serialized name.
func ParseTokenKind(name string) (TokenKind, bool) {
	for k, n := range tokenNames {
		if k != int(TokenInvalid) && n == name {
			return TokenKind(k), true
		}
	}
	return TokenInvalid, false
}

// Declaration is the metadata of one change, keyed by its region key.
type Declaration struct {
	Key    string
	Kind   changes.Kind
	Title  string
	Author string
	Date   string
	Before style.Properties
	After  style.Properties
	Extra  map[string]string
}

// Record converts the declaration to a change record.
func (d Declaration) Record() changes.Record {
	rec := changes.Record{
		Kind:      d.Kind,
		Title:     d.Title,
		Author:    d.Author,
		Timestamp: d.Date,
		Enabled:   true,
		Extra:     d.Extra,
	}
	if d.Kind == changes.FormatChange || d.Before != nil || d.After != nil {
		rec.Format = &style.Snapshot{Before: d.Before.Clone(), After: d.After.Clone()}
	}
	return rec
}

// Token is one body element. Which fields are meaningful depends on Kind:
//
//   - paragraph-start: Format (block format), Outline, and List, Level and
//     Style when the paragraph is a list item
//   - text: Text, Format (character format)
//   - list-start: List, Style, Level
//   - table-start: Rows, Cols, Format
//   - cell-start: Format
//   - region-open, region-close: Key
type Token struct {
	Kind    TokenKind
	Text    string
	Format  style.Properties
	Key     string
	List    int
	Style   string
	Level   int
	Outline int
	Rows    int
	Cols    int
}

// Stream is a decoded change stream.
type Stream struct {
	Version      int
	Declarations []Declaration
	Body         []Token
}

// StartParagraph returns a paragraph-start token.
func StartParagraph(format style.Properties, outline int) Token {
	return Token{Kind: TokenParagraphStart, Format: format, Outline: outline}
}

// StartListItem returns a paragraph-start token for an item of list.
func StartListItem(format style.Properties, list int, listStyle string, level int) Token {
	return Token{Kind: TokenParagraphStart, Format: format, List: list, Style: listStyle, Level: level}
}

// EndParagraph returns a paragraph-end token.
func EndParagraph() Token { return Token{Kind: TokenParagraphEnd} }

// Text returns a text token.
func Text(text string, format style.Properties) Token {
	return Token{Kind: TokenText, Text: text, Format: format}
}

// StartList returns a list-start token.
func StartList(list int, listStyle string, level int) Token {
	return Token{Kind: TokenListStart, List: list, Style: listStyle, Level: level}
}

// EndList returns a list-end token.
func EndList() Token { return Token{Kind: TokenListEnd} }

// StartTable returns a table-start token.
func StartTable(rows, cols int, format style.Properties) Token {
	return Token{Kind: TokenTableStart, Rows: rows, Cols: cols, Format: format}
}

// EndTable returns a table-end token.
func EndTable() Token { return Token{Kind: TokenTableEnd} }

// StartCell returns a cell-start token.
func StartCell(format style.Properties) Token {
	return Token{Kind: TokenCellStart, Format: format}
}

// EndCell returns a cell-end token.
func EndCell() Token { return Token{Kind: TokenCellEnd} }

// Open returns a region-open token.
func Open(key string) Token { return Token{Kind: TokenRegionOpen, Key: key} }

// Close returns a region-close token.
func Close(key string) Token { return Token{Kind: TokenRegionClose, Key: key} }
