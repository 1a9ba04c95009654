// Package merge coalesces adjacent deletions and performs the final removal
// of deleted content after a load.
//
// While a stream is being reconciled, deleted content is still present in
// the document. Each closed delete region is either merged into a pending
// range of the same change that it directly continues, or registered as a
// new pending range with its own marker. ProcessDeleteChange then
// materializes every pending range in creation order and removes it. Range
// ends are tracked with document anchors, so removing one range never
// invalidates another.
package merge
