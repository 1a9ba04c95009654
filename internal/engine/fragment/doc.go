// Package fragment defines the detached form of deleted content.
//
// A Fragment is a structurally annotated copy of a document range: a
// sequence of paragraph and table nodes, with list membership recorded as
// ListTag annotations and table cells carried as nested fragments. A Marker
// is the zero-width placeholder left in the live document where the content
// used to be; it references the deletion's change id and remembers the
// styles of lists that were deleted as a whole.
//
// Length computes the number of positions a fragment occupies once
// reinserted, without touching a document. It follows the same accounting
// as materialize.Insert.
package fragment
