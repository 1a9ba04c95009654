// Package richtext provides the structured document that change tracking
// operates on: paragraphs of formatted runs, lists, headings and tables.
//
// The document is addressed by linear positions measured in runes. Each
// paragraph occupies its text plus one separator (¶), and a table occupies
// one marker (•) per cell plus the cell contents plus one end marker (]):
//
//	A B ¶ • x • y ] C D
//	0 1 2 3 4 5 6 7 8 9
//
// A flow (the document body or a table cell) always begins and ends with a
// paragraph, so every table has a paragraph before and after it. Ranges
// whose ends fall inside a table are widened by Normalize to cover the whole
// table; tables are only ever copied or removed as a unit, except for ranges
// that stay inside a single cell.
//
// Anchors are zero-width positions that follow the content around them as
// the document is edited. Change markers use them instead of raw offsets so
// that removing one range never invalidates another.
//
// Thread Safety:
//
// A Document is owned by one editing session and is not safe for concurrent
// use. Callers serialize access (see engine.Session).
package richtext
