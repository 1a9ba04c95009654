// Package materialize converts deleted document content to fragments and
// back.
//
// Generate copies a range of the live document into a fragment.Fragment
// without removing it. Ranges that cut a table are widened so tables are
// captured whole; lists are tagged with whether any of their items survive
// the deletion. Insert performs the reverse on rejection, rebuilding
// paragraphs, list items, headings and tables at a marker's position.
//
// A list counts as fully deleted when every one of its items starts after
// the range start and at or before the range end. Those items lose their
// paragraph when the range is removed; an item starting at or before the
// range start keeps its paragraph and only loses text.
package materialize
