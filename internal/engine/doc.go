// Package engine provides the editing session for tracked-change documents.
//
// A Session combines the live document, the change registry, undo history
// and review operations into a single thread-safe API. Each session owns its
// registry, metrics and logger; nothing is shared between sessions.
//
// # Architecture
//
// The session is built on several sub-packages:
//
//   - richtext: the live document with anchors, lists and tables
//   - changes: change records, parent links and split duplicates
//   - stream: the serialized token stream and its YAML codec
//   - reconcile: region reconciliation and stream loading
//   - materialize / merge: capture and reinsertion of deleted content
//   - review: accept and reject
//   - history: snapshot-based undo/redo
//
// # Thread Safety
//
// All Session operations are thread-safe. Reads such as Text or Changes
// may run concurrently; Load, reviews and undo/redo are serialized.
//
// # Basic Usage
//
//	s := engine.New(engine.WithAuthor("ada"))
//	if err := s.Load(f); err != nil {
//		return err
//	}
//	for _, c := range s.Changes() {
//		fmt.Println(c.ID, c.Kind, c.Preview)
//	}
//	_ = s.Reject(1)
//	_ = s.Undo()
//	_ = s.Save(os.Stdout)
//
// # Undo
//
// Load, Accept, Reject and the batch operations each form one undo unit.
// Undo restores the document and registry exactly as they were before the
// operation.
package engine
