package history

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/redline/internal/engine/changes"
	"github.com/dshills/redline/internal/engine/richtext"
)

func newState(text string) State {
	return State{
		Doc:      richtext.New(richtext.WithParagraphs(text)),
		Registry: changes.NewRegistry(),
	}
}

func insert(pos int, text string) *SnapshotCommand {
	return NewSnapshotCommand("Insert "+text, func(st State) error {
		return st.Doc.InsertText(pos, text, nil)
	})
}

func TestSnapshotCommand(t *testing.T) {
	st := newState("abc")
	cmd := insert(3, "def")

	require.NoError(t, cmd.Execute(st))
	assert.Equal(t, "abcdef", st.Doc.Text())
	assert.Equal(t, 3, cmd.LengthDelta())

	require.NoError(t, cmd.Undo(st))
	assert.Equal(t, "abc", st.Doc.Text())

	require.NoError(t, cmd.Execute(st))
	assert.Equal(t, "abcdef", st.Doc.Text())
}

func TestSnapshotCommandFailure(t *testing.T) {
	st := newState("abc")
	boom := errors.New("boom")
	cmd := NewSnapshotCommand("Broken", func(st State) error {
		if err := st.Doc.InsertText(0, "x", nil); err != nil {
			return err
		}
		return boom
	})

	err := cmd.Execute(st)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "abc", st.Doc.Text())
	assert.ErrorIs(t, cmd.Undo(st), ErrNotExecuted)
}

func TestSnapshotRestoresRegistry(t *testing.T) {
	st := newState("abc")
	id := st.Registry.InsertChangeID("Insert", 0)
	h := New(10)

	cmd := NewSnapshotCommand("Accept", func(st State) error {
		st.Registry.AcceptRejectChange(id, true)
		return nil
	})
	require.NoError(t, h.Execute(cmd, st))
	assert.True(t, st.Registry.IsAcceptedRejected(id))

	require.NoError(t, h.Undo(st))
	assert.False(t, st.Registry.IsAcceptedRejected(id))

	require.NoError(t, h.Redo(st))
	assert.True(t, st.Registry.IsAcceptedRejected(id))
}

func TestHistoryUndoRedo(t *testing.T) {
	st := newState("")
	h := New(10)

	assert.ErrorIs(t, h.Undo(st), ErrNothingToUndo)
	assert.ErrorIs(t, h.Redo(st), ErrNothingToRedo)

	require.NoError(t, h.Execute(insert(0, "a"), st))
	require.NoError(t, h.Execute(insert(1, "b"), st))
	require.Len(t, h.UndoInfo(), 2)

	require.NoError(t, h.Undo(st))
	assert.Equal(t, "a", st.Doc.Text())
	assert.True(t, h.CanRedo())
	redo := h.RedoInfo()
	require.Len(t, redo, 1)
	assert.Equal(t, "Insert b", redo[0].Description)

	require.NoError(t, h.Execute(insert(1, "c"), st))
	assert.Equal(t, "ac", st.Doc.Text())
	assert.False(t, h.CanRedo())

	infos := h.UndoInfo()
	require.Len(t, infos, 2)
	assert.Equal(t, "Insert c", infos[0].Description)
	assert.Equal(t, 1, infos[0].LengthDelta)
	assert.Equal(t, "Insert a", infos[1].Description)
}

func TestHistoryUndoFailureKeepsEntry(t *testing.T) {
	st := newState("")
	h := New(10)
	h.Push(insert(0, "never run"))

	assert.ErrorIs(t, h.Undo(st), ErrNotExecuted)
	assert.True(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}

func TestHistoryMaxEntries(t *testing.T) {
	st := newState("")
	h := New(2)
	for i, s := range []string{"a", "b", "c"} {
		require.NoError(t, h.Execute(insert(i, s), st))
	}
	infos := h.UndoInfo()
	require.Len(t, infos, 2)
	assert.Equal(t, "Insert b", infos[1].Description)
	assert.Equal(t, DefaultMaxEntries, New(0).max)
}

func TestTransaction(t *testing.T) {
	st := newState("")
	h := New(10)

	require.NoError(t, h.Transaction("Type", st, func() error {
		if err := h.Execute(insert(0, "a"), st); err != nil {
			return err
		}
		return h.Execute(insert(1, "b"), st)
	}))

	infos := h.UndoInfo()
	require.Len(t, infos, 1)
	assert.Equal(t, "Type", infos[0].Description)
	assert.Equal(t, 2, infos[0].LengthDelta)
	require.Len(t, infos[0].Steps, 2)
	assert.Equal(t, "Insert a", infos[0].Steps[0].Description)
	assert.Equal(t, "Insert b", infos[0].Steps[1].Description)

	require.NoError(t, h.Undo(st))
	assert.Equal(t, "", st.Doc.Text())
	require.NoError(t, h.Redo(st))
	assert.Equal(t, "ab", st.Doc.Text())
}

func TestTransactionSingleCommand(t *testing.T) {
	st := newState("")
	h := New(10)

	require.NoError(t, h.Transaction("Batch", st, func() error {
		return h.Execute(insert(0, "x"), st)
	}))
	infos := h.UndoInfo()
	require.Len(t, infos, 1)
	assert.Equal(t, "Insert x", infos[0].Description)
	assert.Empty(t, infos[0].Steps)

	require.NoError(t, h.Transaction("Nothing", st, func() error { return nil }))
	assert.Len(t, h.UndoInfo(), 1)
}

func TestTransactionRollback(t *testing.T) {
	st := newState("keep")
	h := New(10)
	boom := errors.New("boom")

	err := h.Transaction("Batch", st, func() error {
		if err := h.Execute(insert(4, "!"), st); err != nil {
			return err
		}
		if err := h.Execute(insert(5, "?"), st); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "keep", st.Doc.Text())
	assert.Empty(t, h.UndoInfo())

	require.NoError(t, h.Execute(insert(4, "."), st))
	assert.Len(t, h.UndoInfo(), 1)
}

func TestTransactionsDoNotNest(t *testing.T) {
	st := newState("")
	h := New(10)

	err := h.Transaction("Outer", st, func() error {
		return h.Transaction("Inner", st, func() error { return nil })
	})
	assert.ErrorIs(t, err, ErrNestedTransaction)
	assert.Empty(t, h.UndoInfo())
}

func TestCompoundCommandExecuteRollsBack(t *testing.T) {
	st := newState("")
	c := &CompoundCommand{Name: "Pair", Commands: []Command{insert(0, "a"), insert(99, "b")}}

	require.Error(t, c.Execute(st))
	assert.Equal(t, "", st.Doc.Text())
	assert.Equal(t, "Pair", c.Description())
}
