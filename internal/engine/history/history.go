package history

import (
	"errors"
	"sync"
	"time"
)

// Errors returned by History.
var (
	ErrNothingToUndo     = errors.New("nothing to undo")
	ErrNothingToRedo     = errors.New("nothing to redo")
	ErrNotExecuted       = errors.New("command was never executed")
	ErrNestedTransaction = errors.New("transaction already in progress")
)

// DefaultMaxEntries is used when a non-positive limit is given.
const DefaultMaxEntries = 100

type entry struct {
	cmd Command
	at  time.Time
}

// History is a bounded undo stack with its redo stack. Commands pushed
// while a Transaction runs are recorded as a single entry.
type History struct {
	mu   sync.Mutex
	undo []entry
	redo []entry
	max  int

	// txn collects the commands of the running transaction.
	txn *CompoundCommand
}

// New creates a history keeping at most maxEntries undo entries.
func New(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &History{max: maxEntries}
}

// Execute runs cmd and records it.
func (h *History) Execute(cmd Command, st State) error {
	if err := cmd.Execute(st); err != nil {
		return err
	}
	h.Push(cmd)
	return nil
}

// Push records a command that has already been executed and clears the
// redo stack.
func (h *History) Push(cmd Command) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.txn != nil {
		h.txn.Commands = append(h.txn.Commands, cmd)
		return
	}
	h.record(cmd)
}

func (h *History) record(cmd Command) {
	h.undo = append(h.undo, entry{cmd: cmd, at: time.Now()})
	if over := len(h.undo) - h.max; over > 0 {
		h.undo = h.undo[over:]
	}
	h.redo = nil
}

// Undo reverses the most recent entry.
func (h *History) Undo(st State) error {
	return h.move(&h.undo, &h.redo, ErrNothingToUndo, Command.Undo, st)
}

// Redo reapplies the most recently undone entry.
func (h *History) Redo(st State) error {
	return h.move(&h.redo, &h.undo, ErrNothingToRedo, Command.Execute, st)
}

// move pops the top entry of from, runs it and pushes it onto to. A failed
// entry stays on from. The lock is not held while the command runs.
func (h *History) move(from, to *[]entry, empty error, run func(Command, State) error, st State) error {
	h.mu.Lock()
	n := len(*from)
	if n == 0 {
		h.mu.Unlock()
		return empty
	}
	e := (*from)[n-1]
	*from = (*from)[:n-1]
	h.mu.Unlock()

	err := run(e.cmd, st)

	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		*from = append(*from, e)
		return err
	}
	*to = append(*to, e)
	return nil
}

// Transaction runs fn and records the commands it pushes as one entry
// called name; a single command is recorded as is. When fn fails the pushed
// commands are undone, newest first, and nothing is recorded.
// Transactions do not nest.
func (h *History) Transaction(name string, st State, fn func() error) error {
	h.mu.Lock()
	if h.txn != nil {
		h.mu.Unlock()
		return ErrNestedTransaction
	}
	txn := &CompoundCommand{Name: name}
	h.txn = txn
	h.mu.Unlock()

	err := fn()

	h.mu.Lock()
	h.txn = nil
	if err == nil {
		switch len(txn.Commands) {
		case 0:
		case 1:
			h.record(txn.Commands[0])
		default:
			h.record(txn)
		}
	}
	h.mu.Unlock()

	if err != nil {
		if uerr := txn.Undo(st); uerr != nil {
			return errors.Join(err, uerr)
		}
	}
	return err
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo) > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo) > 0
}

// UndoInfo describes the undo entries, most recent first.
func (h *History) UndoInfo() []OperationInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return describe(h.undo)
}

// RedoInfo describes the redo entries, next to redo first.
func (h *History) RedoInfo() []OperationInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return describe(h.redo)
}

func describe(stack []entry) []OperationInfo {
	out := make([]OperationInfo, len(stack))
	for i := range stack {
		e := stack[len(stack)-1-i]
		out[i] = infoOf(e.cmd, e.at)
	}
	return out
}
