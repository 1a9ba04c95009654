// Package reconcile turns a change stream into a document and a change
// graph.
//
// A stream can only express properly nested regions, but changes are
// registered independently of where they end up nesting. The Reconciler
// keeps the stack of open regions and splits a change whenever an older
// change interrupts it, so every region in the document stays a linear,
// non-overlapping span while the parent/child relation between changes
// stays correct. Split duplicates always resolve back to one original id.
//
// Example: change 5 is declared after change 3, and the stream reads
//
//	open 5, open 3, close 3, close 5
//
// Opening 3 inside 5 splits 5 into 5'. Change 3 becomes a child of 5 and
// the text after 3 closes belongs to 5', which has no parent.
//
// The Loader drives a whole stream into a richtext.Document. Text is
// attributed to the innermost open change, delete regions are handed to a
// merge.Coordinator, and the deleted content is removed once the stream
// ends.
package reconcile
