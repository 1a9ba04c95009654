// Package changes holds the change records of a document and the graph that
// relates them.
//
// Every tracked edit is a Record identified by an ID allocated by the
// Registry. Records form a forest through parent links: a change made inside
// the span of another change is its child. Two secondary relations exist:
//
//   - Split: when a serialized stream interrupts a change with an older one,
//     the interrupted tail gets a new record cloned from the original. The
//     clone is a duplicate of the original.
//   - Duplicate ids: a bare id that refers back to an existing record, used
//     when two independent markers must point at one logical change.
//
// Both resolve back to exactly one original through OriginalChangeID and
// Resolve.
//
// A record marked accepted-rejected stays in the registry but becomes
// transparent: IsParent and Parent walk past it as if it were removed.
//
// Lookups of unknown ids return zero values and false. They never panic.
//
// # Thread Safety
//
// All Registry operations are thread-safe through internal locking.
package changes
