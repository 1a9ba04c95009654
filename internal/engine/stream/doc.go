// Package stream defines the serialized change stream: a metadata block
// declaring every change under an opaque key, followed by a body of
// structural tokens interleaved with region markers that attribute the
// enclosed content to a declared change.
//
// Streams are stored as YAML:
//
//	version: 1
//	changes:
//	  - key: c1
//	    kind: deletion
//	    title: Delete
//	    author: ada
//	    date: 2024-03-01T12:00:00Z
//	body:
//	  - t: paragraph-start
//	  - t: text
//	    text: AB
//	  - t: region-open
//	    key: c1
//	  - t: text
//	    text: C
//	  - t: region-close
//	    key: c1
//	  - t: text
//	    text: D
//	  - t: paragraph-end
//
// Regions in the body nest linearly. Decode only checks token kinds and
// property names; nesting is the reader's concern (see reconcile.Loader).
// Writer produces a stream from a live document and its registry.
package stream
