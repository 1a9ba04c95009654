// Package style provides the typed format properties carried by text runs,
// paragraphs and tables, and the format snapshots recorded by format changes.
//
// Properties are a map from a closed set of keys to scalar values. Keys have
// stable names used by the serialized change stream:
//
//	props := style.Properties{}
//	props.Set(style.KeyBold, true)
//	props.Set(style.KeyFontSize, 12)
//
// A format change records the properties before and after the change as a
// Snapshot. Rejecting the change hands the snapshot to an Applier, which
// restores the previous properties on every attributed node.
package style
