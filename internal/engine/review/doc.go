// Package review accepts and rejects tracked changes.
//
// A change is resolved as a whole: the original record and every split
// duplicate of it are handled together, and all of them are marked
// accepted-rejected afterwards. Records are kept so that undo can restore
// them.
//
//	kind        accept                       reject
//	insertion   keep text, drop attribution  remove the text
//	deletion    drop fragment and marker     reinsert the fragment
//	format      keep format, drop attrib.    unapply the format snapshot
package review
