// Package history provides undo/redo for review sessions.
//
// Commands implement the Command interface with Execute and Undo methods
// operating on a State, the document and change registry of one session.
//
// # Snapshot commands
//
// Accepting or rejecting a change touches the document, the change graph
// and the anchors of pending deletions at once. SnapshotCommand captures
// the whole State before and after the edit, so one accept or reject is
// always one undo unit:
//
//	h := history.New(100)
//	cmd := history.NewSnapshotCommand("Accept change 3", func(st history.State) error {
//	    return reviewer.Accept(3)
//	})
//	err := h.Execute(cmd, st)
//
//	h.Undo(st)
//	h.Redo(st)
//
// # Transactions
//
// Commands pushed inside a transaction become one undo entry. If the
// function fails, they are undone and nothing is recorded:
//
//	err := h.Transaction("Review changes", st, func() error {
//	    for _, cmd := range decisions {
//	        if err := h.Execute(cmd, st); err != nil {
//	            return err
//	        }
//	    }
//	    return nil
//	})
package history
